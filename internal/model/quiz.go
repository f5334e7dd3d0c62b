package model

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTrueFalse      QuestionType = "TRUE_FALSE"
	QuestionShortAnswer    QuestionType = "SHORT_ANSWER"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "IN_PROGRESS"
	AttemptSubmitted  AttemptStatus = "SUBMITTED"
	AttemptGraded     AttemptStatus = "GRADED"
)

// swagger:model Quiz
type Quiz struct {
	UUIDBase

	LessonID         string         `gorm:"type:varchar(36);not null;index" json:"lessonId"`
	Title            string         `gorm:"size:255;not null" json:"title"`
	Description      string         `gorm:"type:text" json:"description"`
	PassScore        float64        `gorm:"type:decimal(5,2);not null" json:"passScore"`
	TimeLimit        *int           `json:"timeLimit,omitempty"`
	MaxAttempts      int            `gorm:"not null" json:"maxAttempts"`
	ShuffleQuestions bool           `json:"shuffleQuestions"`
	Questions        []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// swagger:model QuizQuestion
type QuizQuestion struct {
	UUIDBase

	QuizID       string       `gorm:"type:varchar(36);not null;index" json:"quizId"`
	QuestionText string       `gorm:"type:text;not null" json:"questionText"`
	QuestionType QuestionType `gorm:"size:20;not null" json:"questionType"`
	Points       float64      `gorm:"type:decimal(8,2);not null" json:"points"`
	OrderIndex   int          `json:"orderIndex"`
	Options      []QuizOption `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// QuizOption IsCorrect 即答案，作答期间不下发
// swagger:model QuizOption
type QuizOption struct {
	UUIDBase

	QuestionID string `gorm:"type:varchar(36);not null;index" json:"questionId"`
	OptionText string `gorm:"type:text;not null" json:"optionText"`
	IsCorrect  bool   `json:"isCorrect"`
	OrderIndex int    `json:"orderIndex"`
}

func (QuizOption) TableName() string {
	return "quiz_options"
}

// swagger:model QuizAttempt
type QuizAttempt struct {
	UUIDBase

	QuizID        string        `gorm:"type:varchar(36);not null;uniqueIndex:idx_attempt_number" json:"quizId"`
	EnrollmentID  string        `gorm:"type:varchar(36);not null;uniqueIndex:idx_attempt_number;index" json:"enrollmentId"`
	AttemptNumber int           `gorm:"not null;uniqueIndex:idx_attempt_number" json:"attemptNumber"`
	Status        AttemptStatus `gorm:"size:20;not null" json:"status"`
	Score         *float64      `gorm:"type:decimal(8,2)" json:"score,omitempty"`
	MaxScore      float64       `gorm:"type:decimal(8,2);not null" json:"maxScore"`
	Passed        *bool         `json:"passed,omitempty"`
	StartedAt     time.Time     `json:"startedAt"`
	SubmittedAt   *time.Time    `json:"submittedAt,omitempty"`

	// 开始作答时冻结的各题分值
	QuestionPoints datatypes.JSONType[map[string]float64] `json:"-"`

	Responses []QuizResponse `gorm:"foreignKey:AttemptID" json:"responses,omitempty"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// QuizResponse Graded 为 false 表示该题无自动判分规则(简答题)，等待人工批改
// swagger:model QuizResponse
type QuizResponse struct {
	UUIDBase

	AttemptID    string    `gorm:"type:varchar(36);not null;index" json:"attemptId"`
	QuestionID   string    `gorm:"type:varchar(36);not null" json:"questionId"`
	OptionID     *string   `gorm:"type:varchar(36)" json:"optionId,omitempty"`
	AnswerText   *string   `gorm:"type:text" json:"answerText,omitempty"`
	IsCorrect    bool      `json:"isCorrect"`
	PointsEarned float64   `gorm:"type:decimal(8,2);not null" json:"pointsEarned"`
	Graded       bool      `json:"graded"`
	AnsweredAt   time.Time `json:"answeredAt"`
}

func (QuizResponse) TableName() string {
	return "quiz_responses"
}
