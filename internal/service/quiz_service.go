package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync/atomic"
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

type QuizService struct {
	Quizzes     repository.QuizStore
	Enrollments repository.EnrollmentStore
	Courses     repository.CourseStore
	Progress    *ProgressService
	Locker      keylock.Locker
	Now         func() time.Time

	chainToEnrollment atomic.Bool
}

func NewQuizService(quizzes repository.QuizStore, enrollments repository.EnrollmentStore,
	courses repository.CourseStore, progressSvc *ProgressService, locker keylock.Locker, chainToEnrollment bool) *QuizService {
	s := &QuizService{
		Quizzes:     quizzes,
		Enrollments: enrollments,
		Courses:     courses,
		Progress:    progressSvc,
		Locker:      locker,
		Now:         func() time.Time { return time.Now().UTC() },
	}
	s.chainToEnrollment.Store(chainToEnrollment)
	return s
}

// SetChainToEnrollment 测验通过后是否立即重算选课总进度；关闭时总进度要等下一次学习事件或修复任务才更新
func (s *QuizService) SetChainToEnrollment(on bool) {
	s.chainToEnrollment.Store(on)
}

func (s *QuizService) ChainToEnrollment() bool {
	return s.chainToEnrollment.Load()
}

// ---- 作答视图(不含答案) ----

type PaperOption struct {
	ID         string `json:"id"`
	OptionText string `json:"optionText"`
	OrderIndex int    `json:"orderIndex"`
}

type PaperQuestion struct {
	ID           string             `json:"id"`
	QuestionText string             `json:"questionText"`
	QuestionType model.QuestionType `json:"questionType"`
	Points       float64            `json:"points"`
	OrderIndex   int                `json:"orderIndex"`
	Options      []PaperOption      `json:"options"`
}

// QuizPaper 下发给学员的试卷，不包含 isCorrect
type QuizPaper struct {
	ID               string          `json:"id"`
	LessonID         string          `json:"lessonId"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	PassScore        float64         `json:"passScore"`
	TimeLimit        *int            `json:"timeLimit,omitempty"`
	MaxAttempts      int             `json:"maxAttempts"`
	ShuffleQuestions bool            `json:"shuffleQuestions"`
	Questions        []PaperQuestion `json:"questions"`
}

func NewQuizPaper(q *model.Quiz) *QuizPaper {
	paper := &QuizPaper{
		ID:               q.ID,
		LessonID:         q.LessonID,
		Title:            q.Title,
		Description:      q.Description,
		PassScore:        q.PassScore,
		TimeLimit:        q.TimeLimit,
		MaxAttempts:      q.MaxAttempts,
		ShuffleQuestions: q.ShuffleQuestions,
		Questions:        make([]PaperQuestion, 0, len(q.Questions)),
	}
	for _, question := range q.Questions {
		pq := PaperQuestion{
			ID:           question.ID,
			QuestionText: question.QuestionText,
			QuestionType: question.QuestionType,
			Points:       question.Points,
			OrderIndex:   question.OrderIndex,
			Options:      make([]PaperOption, 0, len(question.Options)),
		}
		for _, o := range question.Options {
			pq.Options = append(pq.Options, PaperOption{ID: o.ID, OptionText: o.OptionText, OrderIndex: o.OrderIndex})
		}
		paper.Questions = append(paper.Questions, pq)
	}
	if q.ShuffleQuestions {
		rand.Shuffle(len(paper.Questions), func(i, j int) {
			paper.Questions[i], paper.Questions[j] = paper.Questions[j], paper.Questions[i]
		})
	}
	return paper
}

// ---- 作答 ----

type StartAttemptResult struct {
	Attempt *model.QuizAttempt `json:"attempt"`
	Quiz    *QuizPaper         `json:"quiz"`
}

type SubmitAttemptResult struct {
	Attempt    *model.QuizAttempt     `json:"attempt"`
	Passed     bool                   `json:"passed"`
	Percentage float64                `json:"percentage"`
	Summary    *model.ProgressSummary `json:"progressSummary,omitempty"`
	Enrollment *model.Enrollment      `json:"enrollment,omitempty"`
}

// StartAttempt 作答编号为已有次数+1；编号冲突时重新计数重试
func (s *QuizService) StartAttempt(ctx context.Context, quizID, enrollmentID string) (result *StartAttemptResult, err error) {
	ctx, span := tracing.Start(ctx, "QuizService.StartAttempt",
		attribute.String("quiz.id", quizID),
		attribute.String("enrollment.id", enrollmentID))
	defer func() { tracing.End(span, err) }()

	quiz, err := s.Quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	enrollment, err := s.Enrollments.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment.Status == model.EnrollmentDropped {
		return nil, util.ErrEnrollmentDropped
	}
	lesson, err := s.Courses.GetLessonPosition(ctx, quiz.LessonID)
	if err != nil {
		return nil, err
	}
	if lesson.CourseID != enrollment.CourseID {
		return nil, fmt.Errorf("%w: quiz does not belong to the enrolled course", util.ErrInvalidInput)
	}

	unlock, err := s.Locker.Lock(ctx, "quiz-attempt:"+quizID+":"+enrollmentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	maxScore := progress.MaxScore(quiz.Questions)
	points := datatypes.NewJSONType(progress.QuestionPoints(quiz.Questions))
	for try := 0; try < util.MaxAttemptNumberTry; try++ {
		count, err := s.Quizzes.CountAttempts(ctx, quizID, enrollmentID)
		if err != nil {
			return nil, err
		}
		if count >= int64(quiz.MaxAttempts) {
			return nil, util.ErrMaxAttemptsReached
		}

		attempt := &model.QuizAttempt{
			QuizID:         quizID,
			EnrollmentID:   enrollmentID,
			AttemptNumber:  int(count) + 1,
			Status:         model.AttemptInProgress,
			MaxScore:       maxScore,
			QuestionPoints: points,
			StartedAt:      s.Now(),
		}
		err = s.Quizzes.CreateAttempt(ctx, attempt)
		if errors.Is(err, util.ErrAttemptNumberTaken) {
			logger.Log.Warn("Attempt number taken, retrying",
				zap.String("quizId", quizID),
				zap.String("enrollmentId", enrollmentID),
				zap.Int("attemptNumber", attempt.AttemptNumber))
			continue
		}
		if err != nil {
			return nil, err
		}
		return &StartAttemptResult{Attempt: attempt, Quiz: NewQuizPaper(quiz)}, nil
	}
	return nil, fmt.Errorf("start attempt: %w", util.ErrAttemptNumberTaken)
}

// SubmitAttempt 判分并将作答置为 GRADED；通过时直接把对应课时记为完成
func (s *QuizService) SubmitAttempt(ctx context.Context, attemptID string, answers []progress.Answer) (result *SubmitAttemptResult, err error) {
	ctx, span := tracing.Start(ctx, "QuizService.SubmitAttempt", attribute.String("attempt.id", attemptID))
	defer func() { tracing.End(span, err) }()

	attempt, err := s.Quizzes.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptInProgress {
		return nil, util.ErrAttemptAlreadySubmitted
	}
	quiz, err := s.Quizzes.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	graded := progress.Grade(quiz, attempt.MaxScore, attempt.QuestionPoints.Data(), answers, now)
	for i := range graded.Responses {
		graded.Responses[i].AttemptID = attempt.ID
	}
	score, passed := graded.Score, graded.Passed
	attempt.Status = model.AttemptGraded
	attempt.Score = &score
	attempt.Passed = &passed
	attempt.SubmittedAt = &now

	// 并发重复提交时只有一个能成功
	if err := s.Quizzes.GradeAttempt(ctx, attempt, graded.Responses); err != nil {
		return nil, err
	}
	attempt.Responses = graded.Responses
	monitoring.QuizAttemptsGraded.WithLabelValues(strconv.FormatBool(passed)).Inc()
	logger.Log.Info("Quiz attempt graded",
		zap.String("attemptId", attempt.ID),
		zap.String("quizId", quiz.ID),
		zap.Float64("score", score),
		zap.Float64("maxScore", attempt.MaxScore),
		zap.Bool("passed", passed))

	result = &SubmitAttemptResult{Attempt: attempt, Passed: passed, Percentage: graded.Percentage}
	if !passed {
		return result, nil
	}

	unlock, err := s.Progress.lockEnrollment(ctx, attempt.EnrollmentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if result.Summary, err = s.Progress.applyQuizPass(ctx, attempt.EnrollmentID, quiz.LessonID, score); err != nil {
		return nil, fmt.Errorf("attempt graded but lesson update failed: %w", err)
	}
	if s.ChainToEnrollment() {
		if result.Enrollment, err = s.Progress.recomputeEnrollment(ctx, attempt.EnrollmentID); err != nil {
			return nil, fmt.Errorf("attempt graded but enrollment recompute failed: %w", err)
		}
	}
	return result, nil
}

func (s *QuizService) ListAttempts(ctx context.Context, f repository.AttemptFilter) ([]model.QuizAttempt, error) {
	return s.Quizzes.ListAttempts(ctx, f)
}

// ---- 测验维护 ----

type OptionRequest struct {
	OptionText string `json:"optionText" yaml:"optionText" binding:"required"`
	IsCorrect  bool   `json:"isCorrect" yaml:"isCorrect"`
}

type QuestionRequest struct {
	QuestionText string             `json:"questionText" yaml:"questionText" binding:"required"`
	QuestionType model.QuestionType `json:"questionType" yaml:"questionType"`
	Points       *float64           `json:"points" yaml:"points"`
	Options      []OptionRequest    `json:"options" yaml:"options"`
}

type CreateQuizRequest struct {
	LessonID         string            `json:"lessonId" yaml:"-" binding:"required"`
	Title            string            `json:"title" yaml:"title" binding:"required"`
	Description      string            `json:"description" yaml:"description"`
	PassScore        *float64          `json:"passScore" yaml:"passScore"`
	TimeLimit        *int              `json:"timeLimit" yaml:"timeLimit"`
	MaxAttempts      *int              `json:"maxAttempts" yaml:"maxAttempts"`
	ShuffleQuestions bool              `json:"shuffleQuestions" yaml:"shuffleQuestions"`
	Questions        []QuestionRequest `json:"questions" yaml:"questions"`
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", util.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func validPassScore(v float64) bool { return v >= 0 && v <= 100 }

// BuildQuiz 校验请求并填充默认值，不写库
func (r *CreateQuizRequest) BuildQuiz() (*model.Quiz, error) {
	quiz := &model.Quiz{
		LessonID:         r.LessonID,
		Title:            r.Title,
		Description:      r.Description,
		PassScore:        util.DefaultPassScore,
		TimeLimit:        r.TimeLimit,
		MaxAttempts:      util.DefaultMaxAttempts,
		ShuffleQuestions: r.ShuffleQuestions,
	}
	quiz.ID = model.GenerateUUID()
	if r.Title == "" {
		return nil, invalid("quiz title is required")
	}
	if r.PassScore != nil {
		if !validPassScore(*r.PassScore) {
			return nil, invalid("passScore must be between 0 and 100")
		}
		quiz.PassScore = *r.PassScore
	}
	if r.MaxAttempts != nil {
		if *r.MaxAttempts < 1 {
			return nil, invalid("maxAttempts must be at least 1")
		}
		quiz.MaxAttempts = *r.MaxAttempts
	}
	if r.TimeLimit != nil && *r.TimeLimit < 0 {
		return nil, invalid("timeLimit must not be negative")
	}

	for i, qr := range r.Questions {
		question := model.QuizQuestion{
			QuizID:       quiz.ID,
			QuestionText: qr.QuestionText,
			QuestionType: qr.QuestionType,
			Points:       util.DefaultPoints,
			OrderIndex:   i,
		}
		question.ID = model.GenerateUUID()
		if question.QuestionType == "" {
			question.QuestionType = model.QuestionMultipleChoice
		}
		if qr.QuestionText == "" {
			return nil, invalid("question %d: text is required", i+1)
		}
		if qr.Points != nil {
			if *qr.Points < 0 {
				return nil, invalid("question %d: points must not be negative", i+1)
			}
			question.Points = *qr.Points
		}

		correct := 0
		for j, or := range qr.Options {
			opt := model.QuizOption{
				QuestionID: question.ID,
				OptionText: or.OptionText,
				IsCorrect:  or.IsCorrect,
				OrderIndex: j,
			}
			opt.ID = model.GenerateUUID()
			if or.IsCorrect {
				correct++
			}
			question.Options = append(question.Options, opt)
		}

		switch question.QuestionType {
		case model.QuestionMultipleChoice, model.QuestionTrueFalse:
			if len(question.Options) < 2 {
				return nil, invalid("question %d: at least two options are required", i+1)
			}
			if correct == 0 {
				return nil, invalid("question %d: no correct option", i+1)
			}
		case model.QuestionShortAnswer:
		default:
			return nil, invalid("question %d: unknown question type %q", i+1, question.QuestionType)
		}
		quiz.Questions = append(quiz.Questions, question)
	}
	return quiz, nil
}

func (s *QuizService) CreateQuiz(ctx context.Context, req CreateQuizRequest) (*model.Quiz, error) {
	if _, err := s.Courses.GetLessonPosition(ctx, req.LessonID); err != nil {
		return nil, err
	}
	quiz, err := req.BuildQuiz()
	if err != nil {
		return nil, err
	}
	if err := s.Quizzes.CreateQuiz(ctx, quiz); err != nil {
		return nil, err
	}
	logger.Log.Info("Quiz created", zap.String("quizId", quiz.ID), zap.String("lessonId", quiz.LessonID))
	return quiz, nil
}

type UpdateQuizRequest struct {
	Title            *string  `json:"title"`
	Description      *string  `json:"description"`
	PassScore        *float64 `json:"passScore"`
	TimeLimit        *int     `json:"timeLimit"`
	MaxAttempts      *int     `json:"maxAttempts"`
	ShuffleQuestions *bool    `json:"shuffleQuestions"`
}

func (s *QuizService) UpdateQuiz(ctx context.Context, id string, req UpdateQuizRequest) (*model.Quiz, error) {
	quiz, err := s.Quizzes.GetQuiz(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		if *req.Title == "" {
			return nil, invalid("quiz title is required")
		}
		quiz.Title = *req.Title
	}
	if req.Description != nil {
		quiz.Description = *req.Description
	}
	if req.PassScore != nil {
		if !validPassScore(*req.PassScore) {
			return nil, invalid("passScore must be between 0 and 100")
		}
		quiz.PassScore = *req.PassScore
	}
	if req.TimeLimit != nil {
		quiz.TimeLimit = req.TimeLimit
	}
	if req.MaxAttempts != nil {
		if *req.MaxAttempts < 1 {
			return nil, invalid("maxAttempts must be at least 1")
		}
		quiz.MaxAttempts = *req.MaxAttempts
	}
	if req.ShuffleQuestions != nil {
		quiz.ShuffleQuestions = *req.ShuffleQuestions
	}
	if err := s.Quizzes.UpdateQuiz(ctx, quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

type UpdateQuestionRequest struct {
	QuestionText *string  `json:"questionText"`
	Points       *float64 `json:"points"`
	OrderIndex   *int     `json:"orderIndex"`
}

// UpdateQuestion 修改分值不影响进行中作答已冻结的满分和各题分值
func (s *QuizService) UpdateQuestion(ctx context.Context, quizID, questionID string, req UpdateQuestionRequest) (*model.QuizQuestion, error) {
	quiz, err := s.Quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	var question *model.QuizQuestion
	for i := range quiz.Questions {
		if quiz.Questions[i].ID == questionID {
			question = &quiz.Questions[i]
			break
		}
	}
	if question == nil {
		return nil, fmt.Errorf("question %s: %w", questionID, util.ErrQuizNotFound)
	}
	if req.QuestionText != nil {
		question.QuestionText = *req.QuestionText
	}
	if req.Points != nil {
		if *req.Points < 0 {
			return nil, invalid("points must not be negative")
		}
		question.Points = *req.Points
	}
	if req.OrderIndex != nil {
		question.OrderIndex = *req.OrderIndex
	}
	if err := s.Quizzes.UpdateQuestion(ctx, question); err != nil {
		return nil, err
	}
	return question, nil
}

// GetQuiz 含答案的完整测验，仅供管理端使用
func (s *QuizService) GetQuiz(ctx context.Context, id string) (*model.Quiz, error) {
	return s.Quizzes.GetQuiz(ctx, id)
}

func (s *QuizService) GetQuizPaper(ctx context.Context, id string) (*QuizPaper, error) {
	quiz, err := s.Quizzes.GetQuiz(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewQuizPaper(quiz), nil
}

func (s *QuizService) ListQuizzes(ctx context.Context, lessonID string) ([]model.Quiz, error) {
	return s.Quizzes.ListQuizzes(ctx, lessonID)
}
