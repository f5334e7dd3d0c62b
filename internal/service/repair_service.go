package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Rebuilder 按选课重建进度汇总
type Rebuilder interface {
	RebuildEnrollment(ctx context.Context, enrollmentID string) (*RebuildResult, error)
}

// RepairService 定期从事件日志重建所有未退课选课的汇总，修复中途失败留下的不一致
type RepairService struct {
	Enrollments repository.EnrollmentStore
	Rebuilder   Rebuilder
	Concurrency int

	mu      sync.Mutex
	cron    *cron.Cron
	running atomic.Bool
}

func NewRepairService(enrollments repository.EnrollmentStore, rebuilder Rebuilder, concurrency int) *RepairService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &RepairService{Enrollments: enrollments, Rebuilder: rebuilder, Concurrency: concurrency}
}

type SweepResult struct {
	Total    int           `json:"total"`
	Rebuilt  int64         `json:"rebuilt"`
	Failed   int64         `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// Sweep 单个选课失败只记日志，不中断整轮
func (s *RepairService) Sweep(ctx context.Context) (*SweepResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("repair sweep already running")
	}
	defer s.running.Store(false)

	ids, err := s.Enrollments.ListEnrollmentIDs(ctx, "", model.EnrollmentDropped)
	if err != nil {
		return nil, err
	}
	result, err := s.rebuildAll(ctx, ids)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("Repair sweep finished",
		zap.Int("total", result.Total),
		zap.Int64("rebuilt", result.Rebuilt),
		zap.Int64("failed", result.Failed),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// SweepCourse 课程结构变更后重建该课程下所有未退课选课，失败的留给定时任务
func (s *RepairService) SweepCourse(ctx context.Context, courseID string) (*SweepResult, error) {
	ids, err := s.Enrollments.ListEnrollmentIDs(ctx, courseID, model.EnrollmentDropped)
	if err != nil {
		return nil, err
	}
	result, err := s.rebuildAll(ctx, ids)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("Course progress rebuilt",
		zap.String("courseId", courseID),
		zap.Int("total", result.Total),
		zap.Int64("failed", result.Failed))
	return result, nil
}

func (s *RepairService) rebuildAll(ctx context.Context, ids []string) (*SweepResult, error) {
	start := time.Now()
	var rebuilt, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Concurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if _, err := s.Rebuilder.RebuildEnrollment(gctx, id); err != nil {
				failed.Add(1)
				logger.Log.Error("Rebuild enrollment failed", zap.String("enrollmentId", id), zap.Error(err))
				return nil
			}
			rebuilt.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &SweepResult{
		Total:    len(ids),
		Rebuilt:  rebuilt.Load(),
		Failed:   failed.Load(),
		Duration: time.Since(start),
	}, nil
}

// Start 按 cron 表达式定时执行；表达式为空时不启动
func (s *RepairService) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return fmt.Errorf("repair scheduler already started")
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		logger.Log.Info("Running scheduled repair sweep")
		if _, err := s.Sweep(ctx); err != nil {
			logger.Log.Error("Scheduled repair sweep failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid repair schedule %q: %w", schedule, err)
	}
	c.Start()
	s.cron = c
	logger.Log.Info("Repair scheduler started", zap.String("schedule", schedule))
	return nil
}

// Stop 等待正在执行的任务结束
func (s *RepairService) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}
