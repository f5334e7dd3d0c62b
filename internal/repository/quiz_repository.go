package repository

import (
	"context"
	"errors"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/progress"
	"lms_backend/internal/util"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) CreateQuiz(ctx context.Context, q *model.Quiz) error {
	return r.DB.WithContext(ctx).Create(q).Error
}

func (r *QuizRepository) UpdateQuiz(ctx context.Context, q *model.Quiz) error {
	return r.DB.WithContext(ctx).Model(q).
		Select("title", "description", "pass_score", "time_limit", "max_attempts", "shuffle_questions", "updated_at").
		Updates(q).Error
}

func (r *QuizRepository) UpdateQuestion(ctx context.Context, q *model.QuizQuestion) error {
	return r.DB.WithContext(ctx).Model(q).
		Select("question_text", "points", "order_index", "updated_at").
		Updates(q).Error
}

func (r *QuizRepository) GetQuiz(ctx context.Context, id string) (*model.Quiz, error) {
	var q model.Quiz
	err := r.DB.WithContext(ctx).
		Preload("Questions", byOrder).
		Preload("Questions.Options", byOrder).
		First(&q, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (r *QuizRepository) ListQuizzes(ctx context.Context, lessonID string) ([]model.Quiz, error) {
	var list []model.Quiz
	q := r.DB.WithContext(ctx).Model(&model.Quiz{})
	if lessonID != "" {
		q = q.Where("lesson_id = ?", lessonID)
	}
	err := q.Order("created_at ASC").Find(&list).Error
	return list, err
}

func (r *QuizRepository) CountAttempts(ctx context.Context, quizID, enrollmentID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.QuizAttempt{}).
		Where("quiz_id = ? AND enrollment_id = ?", quizID, enrollmentID).
		Count(&count).Error
	return count, err
}

// CreateAttempt (quiz_id, enrollment_id, attempt_number) 冲突时返回 ErrAttemptNumberTaken，由调用方重试
func (r *QuizRepository) CreateAttempt(ctx context.Context, a *model.QuizAttempt) error {
	err := r.DB.WithContext(ctx).Create(a).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return util.ErrAttemptNumberTaken
	}
	return err
}

func (r *QuizRepository) GetAttempt(ctx context.Context, id string) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	err := r.DB.WithContext(ctx).
		Preload("Responses").
		First(&a, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	return &a, nil
}

// GradeAttempt 仅当作答仍为 IN_PROGRESS 时写入判分结果，作答记录统一归属到该作答
func (r *QuizRepository) GradeAttempt(ctx context.Context, a *model.QuizAttempt, responses []model.QuizResponse) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.QuizAttempt{}).
			Where("id = ? AND status = ?", a.ID, model.AttemptInProgress).
			Updates(map[string]interface{}{
				"status":       a.Status,
				"score":        a.Score,
				"passed":       a.Passed,
				"submitted_at": a.SubmittedAt,
				"updated_at":   time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return util.ErrAttemptAlreadySubmitted
		}
		if len(responses) == 0 {
			return nil
		}
		for i := range responses {
			responses[i].AttemptID = a.ID
		}
		return tx.Create(&responses).Error
	})
}

func (r *QuizRepository) ListAttempts(ctx context.Context, f AttemptFilter) ([]model.QuizAttempt, error) {
	var list []model.QuizAttempt
	q := r.DB.WithContext(ctx).Model(&model.QuizAttempt{})
	if f.QuizID != "" {
		q = q.Where("quiz_id = ?", f.QuizID)
	}
	if f.EnrollmentID != "" {
		q = q.Where("enrollment_id = ?", f.EnrollmentID)
	}
	err := q.Order("started_at DESC").Order("attempt_number DESC").Find(&list).Error
	return list, err
}

// ListPasses 该选课下所有已通过的作答
func (r *QuizRepository) ListPasses(ctx context.Context, enrollmentID string) ([]progress.QuizPass, error) {
	var passes []progress.QuizPass
	err := r.DB.WithContext(ctx).Table("quiz_attempts").
		Select("quiz_attempts.id AS attempt_id, quiz_attempts.quiz_id, quizzes.lesson_id, "+
			"quiz_attempts.score, quiz_attempts.submitted_at").
		Joins("JOIN quizzes ON quizzes.id = quiz_attempts.quiz_id").
		Where("quiz_attempts.enrollment_id = ? AND quiz_attempts.status = ? AND quiz_attempts.passed = ?",
			enrollmentID, model.AttemptGraded, true).
		Scan(&passes).Error
	return passes, err
}
