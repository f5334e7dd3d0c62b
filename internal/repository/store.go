package repository

import (
	"context"

	"lms_backend/internal/model"
	"lms_backend/internal/progress"
)

// LessonPosition 课时在课程中的位置，用于排序和必修统计
type LessonPosition struct {
	LessonID    string `json:"lessonId"`
	ModuleID    string `json:"moduleId"`
	CourseID    string `json:"courseId"`
	ModuleOrder int    `json:"moduleOrder"`
	LessonOrder int    `json:"lessonOrder"`
	IsRequired  bool   `json:"isRequired"`
	Title       string `json:"title"`
}

type EnrollmentFilter struct {
	UserID   string
	CourseID string
	Status   model.EnrollmentStatus
	Page     int
	Limit    int
}

type AttemptFilter struct {
	QuizID       string
	EnrollmentID string
}

type CourseStore interface {
	CreateCourse(ctx context.Context, course *model.Course, quizzes []model.Quiz) error
	GetCourse(ctx context.Context, id string) (*model.Course, error)
	GetCourseTree(ctx context.Context, id string) (*model.Course, error)
	ListCourses(ctx context.Context, status model.CourseStatus) ([]model.Course, error)
	UpdateCourseStatus(ctx context.Context, id string, status model.CourseStatus) error
	UpdateCourse(ctx context.Context, course *model.Course) error
	CountModules(ctx context.Context, courseID string) (int64, error)
	GetLessonPosition(ctx context.Context, lessonID string) (*LessonPosition, error)
	ListCourseLessons(ctx context.Context, courseID string) ([]LessonPosition, error)
	GetContent(ctx context.Context, id string) (*model.LessonContent, error)
	ListLessonContents(ctx context.Context, lessonID string) ([]model.LessonContent, error)

	CreateModule(ctx context.Context, m *model.CourseModule) error
	GetModule(ctx context.Context, id string) (*model.CourseModule, error)
	UpdateModule(ctx context.Context, m *model.CourseModule) error
	// DeleteModule 连同其下课时和内容一起删除；测验及作答记录保留
	DeleteModule(ctx context.Context, id string) error
	CreateLesson(ctx context.Context, l *model.Lesson) error
	GetLesson(ctx context.Context, id string) (*model.Lesson, error)
	UpdateLesson(ctx context.Context, l *model.Lesson) error
	DeleteLesson(ctx context.Context, id string) error
	// CreateContent EmbeddedMedia 非空时一并写入
	CreateContent(ctx context.Context, c *model.LessonContent) error
	// UpdateContent EmbeddedMedia 非空时同时更新其时长
	UpdateContent(ctx context.Context, c *model.LessonContent) error
	DeleteContent(ctx context.Context, id string) error
}

type EnrollmentStore interface {
	CreateEnrollment(ctx context.Context, e *model.Enrollment) error
	GetEnrollment(ctx context.Context, id string) (*model.Enrollment, error)
	ListEnrollments(ctx context.Context, f EnrollmentFilter) ([]model.Enrollment, int64, error)
	UpdateEnrollment(ctx context.Context, e *model.Enrollment) error
	// ListEnrollmentIDs courseID 为空时不按课程过滤
	ListEnrollmentIDs(ctx context.Context, courseID string, exclude model.EnrollmentStatus) ([]string, error)
}

type ProgressStore interface {
	AppendEvent(ctx context.Context, ev *model.ProgressEvent) error
	ListEvents(ctx context.Context, enrollmentID string, contentIDs []string) ([]model.ProgressEvent, error)
	GetSummary(ctx context.Context, enrollmentID, lessonID string) (*model.ProgressSummary, error)
	SaveSummary(ctx context.Context, s *model.ProgressSummary) error
	// lessonIDs 为 nil 时返回该选课的全部汇总
	ListSummaries(ctx context.Context, enrollmentID string, lessonIDs []string) ([]model.ProgressSummary, error)
}

type QuizStore interface {
	CreateQuiz(ctx context.Context, q *model.Quiz) error
	UpdateQuiz(ctx context.Context, q *model.Quiz) error
	UpdateQuestion(ctx context.Context, q *model.QuizQuestion) error
	GetQuiz(ctx context.Context, id string) (*model.Quiz, error)
	ListQuizzes(ctx context.Context, lessonID string) ([]model.Quiz, error)
	CountAttempts(ctx context.Context, quizID, enrollmentID string) (int64, error)
	CreateAttempt(ctx context.Context, a *model.QuizAttempt) error
	GetAttempt(ctx context.Context, id string) (*model.QuizAttempt, error)
	// GradeAttempt 仅当作答仍为 IN_PROGRESS 时写入判分结果和作答记录
	GradeAttempt(ctx context.Context, a *model.QuizAttempt, responses []model.QuizResponse) error
	ListAttempts(ctx context.Context, f AttemptFilter) ([]model.QuizAttempt, error)
	ListPasses(ctx context.Context, enrollmentID string) ([]progress.QuizPass, error)
}

type AuditStore interface {
	CreateAuditLog(ctx context.Context, log *model.AuditLog) error
	// ListByEntity 按时间倒序
	ListByEntity(ctx context.Context, entityType, entityID string) ([]model.AuditLog, error)
}
