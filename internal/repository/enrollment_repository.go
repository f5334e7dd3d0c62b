package repository

import (
	"context"
	"errors"

	"lms_backend/internal/model"
	"lms_backend/internal/util"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

// CreateEnrollment 依赖 (user_id, course_id) 唯一索引防止重复选课
func (r *EnrollmentRepository) CreateEnrollment(ctx context.Context, e *model.Enrollment) error {
	err := r.DB.WithContext(ctx).Create(e).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return util.ErrAlreadyEnrolled
	}
	return err
}

func (r *EnrollmentRepository) GetEnrollment(ctx context.Context, id string) (*model.Enrollment, error) {
	var e model.Enrollment
	if err := r.DB.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrEnrollmentNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *EnrollmentRepository) ListEnrollments(ctx context.Context, f EnrollmentFilter) ([]model.Enrollment, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Enrollment{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.CourseID != "" {
		q = q.Where("course_id = ?", f.CourseID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []model.Enrollment
	if f.Limit > 0 {
		q = q.Offset((f.Page - 1) * f.Limit).Limit(f.Limit)
	}
	err := q.Order("enrolled_at DESC").Order("id ASC").Find(&list).Error
	return list, total, err
}

// UpdateEnrollment 只写入派生字段和状态
func (r *EnrollmentRepository) UpdateEnrollment(ctx context.Context, e *model.Enrollment) error {
	return r.DB.WithContext(ctx).Model(e).
		Select("status", "progress_percent", "completed_at", "updated_at").
		Updates(e).Error
}

func (r *EnrollmentRepository) ListEnrollmentIDs(ctx context.Context, courseID string, exclude model.EnrollmentStatus) ([]string, error) {
	var ids []string
	q := r.DB.WithContext(ctx).Model(&model.Enrollment{})
	if courseID != "" {
		q = q.Where("course_id = ?", courseID)
	}
	if exclude != "" {
		q = q.Where("status <> ?", exclude)
	}
	err := q.Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}
