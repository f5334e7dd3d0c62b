package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"

	"go.uber.org/zap"
)

type EnrollmentService struct {
	Courses     repository.CourseStore
	Enrollments repository.EnrollmentStore
	Progress    *ProgressService
	Now         func() time.Time
}

func NewEnrollmentService(courses repository.CourseStore, enrollments repository.EnrollmentStore, progressSvc *ProgressService) *EnrollmentService {
	return &EnrollmentService{
		Courses:     courses,
		Enrollments: enrollments,
		Progress:    progressSvc,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

type EnrollRequest struct {
	UserID   string `json:"userId" binding:"required"`
	CourseID string `json:"courseId" binding:"required"`
}

type BulkEnrollRequest struct {
	CourseID string   `json:"courseId" binding:"required"`
	UserIDs  []string `json:"userIds" binding:"required"`
}

type BulkEnrollFailure struct {
	UserID string `json:"userId"`
	Error  string `json:"error"`
}

type BulkEnrollResult struct {
	Created []model.Enrollment  `json:"created"`
	Failed  []BulkEnrollFailure `json:"failed"`
}

type EnrollmentDetail struct {
	model.Enrollment
	Summaries []LessonSummary `json:"progressSummaries"`
}

func (s *EnrollmentService) publishedCourse(ctx context.Context, courseID string) error {
	course, err := s.Courses.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if course.Status != model.CoursePublished {
		return util.ErrCourseNotPublished
	}
	return nil
}

func (s *EnrollmentService) newEnrollment(userID, courseID string) *model.Enrollment {
	return &model.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		Status:     model.EnrollmentEnrolled,
		EnrolledAt: s.Now(),
	}
}

// Enroll 只允许选已发布的课程，同一用户同一课程只能选一次
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*model.Enrollment, error) {
	if req.UserID == "" || req.CourseID == "" {
		return nil, invalid("userId and courseId are required")
	}
	if err := s.publishedCourse(ctx, req.CourseID); err != nil {
		return nil, err
	}
	e := s.newEnrollment(req.UserID, req.CourseID)
	if err := s.Enrollments.CreateEnrollment(ctx, e); err != nil {
		return nil, err
	}
	logger.Log.Info("User enrolled",
		zap.String("enrollmentId", e.ID),
		zap.String("userId", e.UserID),
		zap.String("courseId", e.CourseID))
	return e, nil
}

// BulkEnroll 逐个创建，单个失败不影响其他用户
func (s *EnrollmentService) BulkEnroll(ctx context.Context, req BulkEnrollRequest) (*BulkEnrollResult, error) {
	if len(req.UserIDs) == 0 {
		return nil, invalid("userIds must not be empty")
	}
	if len(req.UserIDs) > util.MaxBulkEnrollUsers {
		return nil, invalid("at most %d users per request", util.MaxBulkEnrollUsers)
	}
	if err := s.publishedCourse(ctx, req.CourseID); err != nil {
		return nil, err
	}

	result := &BulkEnrollResult{Created: []model.Enrollment{}, Failed: []BulkEnrollFailure{}}
	seen := make(map[string]struct{}, len(req.UserIDs))
	for _, userID := range req.UserIDs {
		if userID == "" {
			continue
		}
		if _, ok := seen[userID]; ok {
			continue
		}
		seen[userID] = struct{}{}

		e := s.newEnrollment(userID, req.CourseID)
		if err := s.Enrollments.CreateEnrollment(ctx, e); err != nil {
			if !errors.Is(err, util.ErrAlreadyEnrolled) {
				logger.Log.Error("Bulk enroll failed", zap.String("userId", userID), zap.Error(err))
			}
			result.Failed = append(result.Failed, BulkEnrollFailure{UserID: userID, Error: err.Error()})
			continue
		}
		result.Created = append(result.Created, *e)
	}
	logger.Log.Info("Bulk enrollment finished",
		zap.String("courseId", req.CourseID),
		zap.Int("created", len(result.Created)),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}

func (s *EnrollmentService) Get(ctx context.Context, id string) (*EnrollmentDetail, error) {
	e, err := s.Enrollments.GetEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}
	summaries, err := s.Progress.GetSummary(ctx, id, "")
	if err != nil {
		return nil, err
	}
	return &EnrollmentDetail{Enrollment: *e, Summaries: summaries}, nil
}

func (s *EnrollmentService) List(ctx context.Context, f repository.EnrollmentFilter) ([]model.Enrollment, int64, error) {
	if f.Page < 1 {
		f.Page = util.DefaultPage
	}
	if f.Limit < 1 || f.Limit > util.MaxLimit {
		f.Limit = util.DefaultLimit
	}
	return s.Enrollments.ListEnrollments(ctx, f)
}

type UpdateEnrollmentRequest struct {
	Status model.EnrollmentStatus `json:"status" binding:"required"`
}

// UpdateStatus 客户端只能退课(DROPPED)或把已退课恢复；其余状态由进度聚合决定
func (s *EnrollmentService) UpdateStatus(ctx context.Context, id string, status model.EnrollmentStatus) (*model.Enrollment, error) {
	switch status {
	case model.EnrollmentDropped:
		return s.Drop(ctx, id)
	case model.EnrollmentEnrolled:
		return s.reinstate(ctx, id)
	default:
		return nil, fmt.Errorf("%w: %s", util.ErrInvalidStatusChange, status)
	}
}

func (s *EnrollmentService) Drop(ctx context.Context, id string) (*model.Enrollment, error) {
	unlock, err := s.Progress.lockEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	e, err := s.Enrollments.GetEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status == model.EnrollmentDropped {
		return e, nil
	}
	from := e.Status
	e.Status = model.EnrollmentDropped
	if err := s.Enrollments.UpdateEnrollment(ctx, e); err != nil {
		return nil, err
	}
	logger.Log.Info("Enrollment dropped", zap.String("enrollmentId", id), zap.String("from", string(from)))
	return e, nil
}

// reinstate 恢复后按当前汇总重新推导状态
func (s *EnrollmentService) reinstate(ctx context.Context, id string) (*model.Enrollment, error) {
	unlock, err := s.Progress.lockEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	e, err := s.Enrollments.GetEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status != model.EnrollmentDropped {
		return nil, fmt.Errorf("%w: enrollment is %s", util.ErrInvalidStatusChange, e.Status)
	}
	e.Status = model.EnrollmentEnrolled
	if err := s.Enrollments.UpdateEnrollment(ctx, e); err != nil {
		return nil, err
	}
	logger.Log.Info("Enrollment reinstated", zap.String("enrollmentId", id))
	return s.Progress.recomputeEnrollment(ctx, id)
}
