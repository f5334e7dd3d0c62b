package model

import (
	"time"

	"gorm.io/datatypes"
)

type EventType string

const (
	EventView       EventType = "VIEW"
	EventDownload   EventType = "DOWNLOAD"
	EventQuizStart  EventType = "QUIZ_START"
	EventQuizSubmit EventType = "QUIZ_SUBMIT"
	EventCompleted  EventType = "COMPLETED"
)

func (t EventType) Valid() bool {
	switch t {
	case EventView, EventDownload, EventQuizStart, EventQuizSubmit, EventCompleted:
		return true
	}
	return false
}

// ProgressEvent 学习行为日志，只追加不修改。
// ID 自增，用作同一时间戳下的插入顺序
// swagger:model ProgressEvent
type ProgressEvent struct {
	ID              uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	EnrollmentID    string         `gorm:"type:varchar(36);not null;index:idx_event_enrollment_content" json:"enrollmentId"`
	LessonContentID string         `gorm:"type:varchar(36);not null;index:idx_event_enrollment_content" json:"lessonContentId"`
	EventType       EventType      `gorm:"size:20;not null" json:"eventType"`
	WatchedDuration *int           `json:"watchedDuration,omitempty"`
	TotalDuration   *int           `json:"totalDuration,omitempty"`
	IsCompleted     bool           `gorm:"not null" json:"isCompleted"`
	Metadata        datatypes.JSON `json:"metadata,omitempty" swaggertype:"object"`
	EventAt         time.Time      `gorm:"not null;index" json:"eventAt"`
	CreatedAt       time.Time      `json:"createdAt"`
}

func (ProgressEvent) TableName() string {
	return "progress_events"
}

// ProgressSummary (enrollment, lesson) 维度的进度缓存，可由事件日志和测验记录重建
// swagger:model ProgressSummary
type ProgressSummary struct {
	UUIDBase

	EnrollmentID      string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_summary_enrollment_lesson" json:"enrollmentId"`
	LessonID          string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_summary_enrollment_lesson" json:"lessonId"`
	CompletionPercent float64    `gorm:"type:decimal(5,2);not null;default:0" json:"completionPercent"`
	IsCompleted       bool       `gorm:"not null" json:"isCompleted"`
	QuizScore         *float64   `gorm:"type:decimal(8,2)" json:"quizScore,omitempty"`
	LastAccessedAt    *time.Time `json:"lastAccessedAt,omitempty"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
}

func (ProgressSummary) TableName() string {
	return "progress_summaries"
}
