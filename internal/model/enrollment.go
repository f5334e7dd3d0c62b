package model

import "time"

type EnrollmentStatus string

const (
	EnrollmentEnrolled   EnrollmentStatus = "ENROLLED"
	EnrollmentInProgress EnrollmentStatus = "IN_PROGRESS"
	EnrollmentCompleted  EnrollmentStatus = "COMPLETED"
	EnrollmentDropped    EnrollmentStatus = "DROPPED"
)

// Enrollment 学员与课程的选课关系，ProgressPercent 由进度聚合计算，不接受客户端写入
// swagger:model Enrollment
type Enrollment struct {
	UUIDBase

	UserID          string           `gorm:"type:varchar(36);not null;uniqueIndex:idx_enrollment_user_course" json:"userId"`
	CourseID        string           `gorm:"type:varchar(36);not null;uniqueIndex:idx_enrollment_user_course;index" json:"courseId"`
	Status          EnrollmentStatus `gorm:"size:20;not null;index" json:"status"`
	ProgressPercent float64          `gorm:"type:decimal(5,2);not null;default:0" json:"progressPercent"`
	EnrolledAt      time.Time        `json:"enrolledAt"`
	CompletedAt     *time.Time       `json:"completedAt,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
