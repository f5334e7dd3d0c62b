package repository

import (
	"context"
	"errors"

	"lms_backend/internal/model"
	"lms_backend/internal/util"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// AppendEvent 事件只追加，不提供更新和删除
func (r *ProgressRepository) AppendEvent(ctx context.Context, ev *model.ProgressEvent) error {
	return r.DB.WithContext(ctx).Create(ev).Error
}

// ListEvents 按时间、插入顺序升序返回
func (r *ProgressRepository) ListEvents(ctx context.Context, enrollmentID string, contentIDs []string) ([]model.ProgressEvent, error) {
	var events []model.ProgressEvent
	q := r.DB.WithContext(ctx).Where("enrollment_id = ?", enrollmentID)
	if contentIDs != nil {
		if len(contentIDs) == 0 {
			return events, nil
		}
		q = q.Where("lesson_content_id IN ?", contentIDs)
	}
	err := q.Order("event_at ASC").Order("id ASC").Find(&events).Error
	return events, err
}

func (r *ProgressRepository) GetSummary(ctx context.Context, enrollmentID, lessonID string) (*model.ProgressSummary, error) {
	var s model.ProgressSummary
	err := r.DB.WithContext(ctx).
		Where("enrollment_id = ? AND lesson_id = ?", enrollmentID, lessonID).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSummaryNotFound
		}
		return nil, err
	}
	return &s, nil
}

// SaveSummary 按 (enrollment_id, lesson_id) 创建或更新
func (r *ProgressRepository) SaveSummary(ctx context.Context, s *model.ProgressSummary) error {
	db := r.DB.WithContext(ctx)
	if s.ID != "" {
		return db.Save(s).Error
	}

	err := db.Create(s).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	// 并发首次写入，改为更新已存在的行
	existing, getErr := r.GetSummary(ctx, s.EnrollmentID, s.LessonID)
	if getErr != nil {
		return getErr
	}
	s.ID = existing.ID
	s.CreatedAt = existing.CreatedAt
	return db.Save(s).Error
}

func (r *ProgressRepository) ListSummaries(ctx context.Context, enrollmentID string, lessonIDs []string) ([]model.ProgressSummary, error) {
	var list []model.ProgressSummary
	q := r.DB.WithContext(ctx).Where("enrollment_id = ?", enrollmentID)
	if lessonIDs != nil {
		if len(lessonIDs) == 0 {
			return list, nil
		}
		q = q.Where("lesson_id IN ?", lessonIDs)
	}
	err := q.Order("lesson_id ASC").Find(&list).Error
	return list, err
}
