package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/progress"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/keylock"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"
	"lms_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// ProgressService 记录学习事件并维护课时汇总、选课总进度。
// 同一选课的重算通过 Locker 串行执行
type ProgressService struct {
	Courses     repository.CourseStore
	Enrollments repository.EnrollmentStore
	Progress    repository.ProgressStore
	Quizzes     repository.QuizStore
	Locker      keylock.Locker
	Now         func() time.Time
}

func NewProgressService(courses repository.CourseStore, enrollments repository.EnrollmentStore,
	progressStore repository.ProgressStore, quizzes repository.QuizStore, locker keylock.Locker) *ProgressService {
	return &ProgressService{
		Courses:     courses,
		Enrollments: enrollments,
		Progress:    progressStore,
		Quizzes:     quizzes,
		Locker:      locker,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

type TrackEventRequest struct {
	EnrollmentID    string          `json:"enrollmentId" binding:"required"`
	LessonContentID string          `json:"lessonContentId" binding:"required"`
	EventType       model.EventType `json:"eventType" binding:"required"`
	WatchedDuration *int            `json:"watchedDuration"`
	TotalDuration   *int            `json:"totalDuration"`
	Metadata        json.RawMessage `json:"metadata" swaggertype:"object"`
}

func (r *TrackEventRequest) validate() error {
	if !r.EventType.Valid() {
		return fmt.Errorf("%w: unknown event type %q", util.ErrInvalidInput, r.EventType)
	}
	if r.WatchedDuration != nil && *r.WatchedDuration < 0 {
		return fmt.Errorf("%w: watchedDuration must not be negative", util.ErrInvalidInput)
	}
	if r.TotalDuration != nil && *r.TotalDuration < 0 {
		return fmt.Errorf("%w: totalDuration must not be negative", util.ErrInvalidInput)
	}
	if len(r.Metadata) > 0 && !json.Valid(r.Metadata) {
		return fmt.Errorf("%w: metadata must be valid JSON", util.ErrInvalidInput)
	}
	return nil
}

type TrackEventResult struct {
	ProgressEvent *model.ProgressEvent   `json:"progressEvent"`
	IsCompleted   bool                   `json:"isCompleted"`
	LessonSummary *model.ProgressSummary `json:"lessonSummary,omitempty"`
	Enrollment    *model.Enrollment      `json:"enrollment,omitempty"`
}

// LessonSummary 汇总行附带课时在课程中的位置
type LessonSummary struct {
	model.ProgressSummary
	Lesson repository.LessonPosition `json:"lesson"`
}

type ContentProgress struct {
	Content     model.LessonContent   `json:"content"`
	IsCompleted bool                  `json:"isCompleted"`
	Events      []model.ProgressEvent `json:"events"`
}

type DetailedProgress struct {
	Summary  LessonSummary     `json:"progressSummary"`
	Contents []ContentProgress `json:"contents"`
}

func enrollmentLockKey(enrollmentID string) string {
	return "enrollment:" + enrollmentID
}

func (s *ProgressService) lockEnrollment(ctx context.Context, enrollmentID string) (func(), error) {
	start := time.Now()
	unlock, err := s.Locker.Lock(ctx, enrollmentLockKey(enrollmentID))
	monitoring.LockWait.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("lock enrollment %s: %w", enrollmentID, err)
	}
	return unlock, nil
}

// TrackEvent 判定完成情况、追加事件，然后重算课时汇总和选课进度
func (s *ProgressService) TrackEvent(ctx context.Context, req TrackEventRequest) (result *TrackEventResult, err error) {
	ctx, span := tracing.Start(ctx, "ProgressService.TrackEvent",
		attribute.String("enrollment.id", req.EnrollmentID),
		attribute.String("content.id", req.LessonContentID))
	defer func() { tracing.End(span, err) }()

	if err := req.validate(); err != nil {
		return nil, err
	}

	enrollment, err := s.Enrollments.GetEnrollment(ctx, req.EnrollmentID)
	if err != nil {
		return nil, err
	}
	content, err := s.Courses.GetContent(ctx, req.LessonContentID)
	if err != nil {
		return nil, err
	}
	lesson, err := s.Courses.GetLessonPosition(ctx, content.LessonID)
	if err != nil {
		return nil, err
	}
	if lesson.CourseID != enrollment.CourseID {
		return nil, fmt.Errorf("%w: content does not belong to the enrolled course", util.ErrInvalidInput)
	}

	completed, err := progress.Classify(content, progress.Signal{
		EventType:      req.EventType,
		WatchedSeconds: req.WatchedDuration,
		TotalSeconds:   req.TotalDuration,
	})
	if err != nil {
		// 未知内容类型按未完成处理
		logger.Log.Warn("Unclassifiable content, event recorded as incomplete",
			zap.String("contentId", content.ID), zap.Error(err))
		completed = false
	}

	unlock, err := s.lockEnrollment(ctx, enrollment.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ev := &model.ProgressEvent{
		EnrollmentID:    enrollment.ID,
		LessonContentID: content.ID,
		EventType:       req.EventType,
		WatchedDuration: req.WatchedDuration,
		TotalDuration:   req.TotalDuration,
		IsCompleted:     completed,
		Metadata:        datatypes.JSON(req.Metadata),
		EventAt:         s.Now(),
	}
	if err := s.Progress.AppendEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("append progress event: %w", err)
	}
	monitoring.ProgressEvents.WithLabelValues(string(content.ContentType), strconv.FormatBool(completed)).Inc()

	summary, err := s.recomputeLesson(ctx, enrollment.ID, lesson.LessonID, true)
	if err != nil {
		return nil, fmt.Errorf("event %d recorded but lesson recompute failed: %w", ev.ID, err)
	}
	updated, err := s.recomputeEnrollment(ctx, enrollment.ID)
	if err != nil {
		return nil, fmt.Errorf("event %d recorded but enrollment recompute failed: %w", ev.ID, err)
	}

	logger.Log.Debug("Progress event tracked",
		zap.String("enrollmentId", enrollment.ID),
		zap.String("contentId", content.ID),
		zap.String("eventType", string(req.EventType)),
		zap.Bool("completed", completed))

	return &TrackEventResult{
		ProgressEvent: ev,
		IsCompleted:   completed,
		LessonSummary: summary,
		Enrollment:    updated,
	}, nil
}

// recomputeLesson 调用方需持有该选课的锁。
// 没有任何事件和测验记录的课时不创建汇总行；已有的汇总行总是被更新
func (s *ProgressService) recomputeLesson(ctx context.Context, enrollmentID, lessonID string, touch bool) (*model.ProgressSummary, error) {
	defer monitoring.ObserveRecompute("lesson", time.Now())

	contents, err := s.Courses.ListLessonContents(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	contentIDs := make([]string, 0, len(contents))
	quizIDs := make(map[string]bool)
	for _, c := range contents {
		contentIDs = append(contentIDs, c.ID)
		if c.QuizID != nil {
			quizIDs[*c.QuizID] = true
		}
	}
	events, err := s.Progress.ListEvents(ctx, enrollmentID, contentIDs)
	if err != nil {
		return nil, err
	}
	passes, err := s.Quizzes.ListPasses(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	tally := progress.RollupLesson(lessonID, contents, progress.LatestByContent(events), passes)

	summary, err := s.Progress.GetSummary(ctx, enrollmentID, lessonID)
	switch {
	case errors.Is(err, util.ErrSummaryNotFound):
		active := len(events) > 0
		for _, p := range passes {
			if p.LessonID == lessonID || quizIDs[p.QuizID] {
				active = true
			}
		}
		if !active {
			return nil, nil
		}
		summary = &model.ProgressSummary{EnrollmentID: enrollmentID, LessonID: lessonID}
	case err != nil:
		return nil, err
	}

	wasCompleted := summary.IsCompleted
	progress.ApplyLessonTally(summary, tally, s.Now(), touch)
	if err := s.Progress.SaveSummary(ctx, summary); err != nil {
		return nil, err
	}
	if summary.IsCompleted && !wasCompleted {
		logger.Log.Info("Lesson completed",
			zap.String("enrollmentId", enrollmentID),
			zap.String("lessonId", lessonID))
	}
	return summary, nil
}

// recomputeEnrollment 调用方需持有该选课的锁
func (s *ProgressService) recomputeEnrollment(ctx context.Context, enrollmentID string) (*model.Enrollment, error) {
	defer monitoring.ObserveRecompute("enrollment", time.Now())

	enrollment, err := s.Enrollments.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	lessons, err := s.Courses.ListCourseLessons(ctx, enrollment.CourseID)
	if err != nil {
		return nil, err
	}
	required := make([]string, 0, len(lessons))
	for _, l := range lessons {
		if l.IsRequired {
			required = append(required, l.LessonID)
		}
	}
	summaries, err := s.Progress.ListSummaries(ctx, enrollmentID, required)
	if err != nil {
		return nil, err
	}

	prev := enrollment.Status
	tally := progress.RollupEnrollment(required, summaries)
	if progress.ApplyEnrollmentTally(enrollment, tally, s.Now()) {
		monitoring.EnrollmentTransitions.WithLabelValues(string(prev), string(enrollment.Status)).Inc()
		logger.Log.Info("Enrollment status changed",
			zap.String("enrollmentId", enrollmentID),
			zap.String("from", string(prev)),
			zap.String("to", string(enrollment.Status)),
			zap.Float64("percent", enrollment.ProgressPercent))
	}
	if err := s.Enrollments.UpdateEnrollment(ctx, enrollment); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// RecomputeLesson 重算单个课时汇总并刷新 last_accessed_at
func (s *ProgressService) RecomputeLesson(ctx context.Context, enrollmentID, lessonID string) (*model.ProgressSummary, error) {
	enrollment, err := s.Enrollments.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	lesson, err := s.Courses.GetLessonPosition(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if lesson.CourseID != enrollment.CourseID {
		return nil, fmt.Errorf("%w: lesson does not belong to the enrolled course", util.ErrInvalidInput)
	}

	unlock, err := s.lockEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.recomputeLesson(ctx, enrollmentID, lessonID, true)
}

func (s *ProgressService) RecomputeEnrollment(ctx context.Context, enrollmentID string) (*model.Enrollment, error) {
	unlock, err := s.lockEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.recomputeEnrollment(ctx, enrollmentID)
}

type RebuildResult struct {
	Enrollment *model.Enrollment        `json:"enrollment"`
	Summaries  []*model.ProgressSummary `json:"summaries"`
}

// RebuildEnrollment 从事件日志和测验记录完整重建该选课的全部汇总，用于修复。
// 不修改 last_accessed_at，重复执行结果一致
func (s *ProgressService) RebuildEnrollment(ctx context.Context, enrollmentID string) (result *RebuildResult, err error) {
	ctx, span := tracing.Start(ctx, "ProgressService.RebuildEnrollment", attribute.String("enrollment.id", enrollmentID))
	defer func() { tracing.End(span, err) }()

	enrollment, err := s.Enrollments.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	lessons, err := s.Courses.ListCourseLessons(ctx, enrollment.CourseID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lockEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	result = &RebuildResult{}
	for _, l := range lessons {
		summary, err := s.recomputeLesson(ctx, enrollmentID, l.LessonID, false)
		if err != nil {
			return nil, fmt.Errorf("rebuild lesson %s: %w", l.LessonID, err)
		}
		if summary != nil {
			result.Summaries = append(result.Summaries, summary)
		}
	}
	if result.Enrollment, err = s.recomputeEnrollment(ctx, enrollmentID); err != nil {
		return nil, err
	}
	return result, nil
}

// applyQuizPass 测验通过时直接把课时汇总置为完成，调用方需持有该选课的锁
func (s *ProgressService) applyQuizPass(ctx context.Context, enrollmentID, lessonID string, score float64) (*model.ProgressSummary, error) {
	summary, err := s.Progress.GetSummary(ctx, enrollmentID, lessonID)
	if errors.Is(err, util.ErrSummaryNotFound) {
		summary = &model.ProgressSummary{EnrollmentID: enrollmentID, LessonID: lessonID}
	} else if err != nil {
		return nil, err
	}
	progress.ApplyQuizPass(summary, score, s.Now())
	if err := s.Progress.SaveSummary(ctx, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// GetSummary 按模块顺序、课时顺序返回该选课的课时汇总，lessonID 非空时只返回该课时
func (s *ProgressService) GetSummary(ctx context.Context, enrollmentID, lessonID string) ([]LessonSummary, error) {
	enrollment, err := s.Enrollments.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	lessons, err := s.Courses.ListCourseLessons(ctx, enrollment.CourseID)
	if err != nil {
		return nil, err
	}

	var filter []string
	if lessonID != "" {
		filter = []string{lessonID}
	}
	summaries, err := s.Progress.ListSummaries(ctx, enrollmentID, filter)
	if err != nil {
		return nil, err
	}
	byLesson := make(map[string]model.ProgressSummary, len(summaries))
	for _, sum := range summaries {
		byLesson[sum.LessonID] = sum
	}

	out := make([]LessonSummary, 0, len(summaries))
	for _, l := range lessons {
		if sum, ok := byLesson[l.LessonID]; ok {
			out = append(out, LessonSummary{ProgressSummary: sum, Lesson: l})
		}
	}
	return out, nil
}

// GetDetailedProgress 课时汇总及每个内容的事件历史(新到旧)
func (s *ProgressService) GetDetailedProgress(ctx context.Context, enrollmentID, lessonID string) (*DetailedProgress, error) {
	summary, err := s.Progress.GetSummary(ctx, enrollmentID, lessonID)
	if err != nil {
		return nil, err
	}
	lesson, err := s.Courses.GetLessonPosition(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	contents, err := s.Courses.ListLessonContents(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(contents))
	for _, c := range contents {
		ids = append(ids, c.ID)
	}
	events, err := s.Progress.ListEvents(ctx, enrollmentID, ids)
	if err != nil {
		return nil, err
	}
	passes, err := s.Quizzes.ListPasses(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	latest := progress.LatestByContent(events)

	byContent := make(map[string][]model.ProgressEvent, len(contents))
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		byContent[ev.LessonContentID] = append(byContent[ev.LessonContentID], ev)
	}

	detail := &DetailedProgress{
		Summary:  LessonSummary{ProgressSummary: *summary, Lesson: *lesson},
		Contents: make([]ContentProgress, 0, len(contents)),
	}
	for i := range contents {
		c := contents[i]
		history := byContent[c.ID]
		if history == nil {
			history = []model.ProgressEvent{}
		}
		detail.Contents = append(detail.Contents, ContentProgress{
			Content:     c,
			IsCompleted: progress.ContentCompleted(&c, latest, passes),
			Events:      history,
		})
	}
	return detail, nil
}
