package util

import "errors"

// 资源不存在
var (
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrContentNotFound    = errors.New("lesson content not found")
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrCourseNotFound     = errors.New("course not found")
	ErrModuleNotFound     = errors.New("module not found")
	ErrQuizNotFound       = errors.New("quiz not found")
	ErrAttemptNotFound    = errors.New("attempt not found")
	ErrSummaryNotFound    = errors.New("progress summary not found")
)

// 状态不允许
var (
	ErrMaxAttemptsReached      = errors.New("maximum attempts reached")
	ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")
	ErrAttemptNumberTaken      = errors.New("attempt number already taken")
	ErrAlreadyEnrolled         = errors.New("user already enrolled in this course")
	ErrCourseNotPublished      = errors.New("course is not published")
	ErrCourseHasNoModules      = errors.New("course has no modules")
	ErrInvalidStatusChange     = errors.New("invalid enrollment status change")
	ErrEnrollmentDropped       = errors.New("enrollment has been dropped")
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
)

// IsNotFound 判断是否属于资源不存在类错误
func IsNotFound(err error) bool {
	for _, target := range []error{
		ErrEnrollmentNotFound, ErrContentNotFound, ErrLessonNotFound, ErrCourseNotFound,
		ErrModuleNotFound, ErrQuizNotFound, ErrAttemptNotFound, ErrSummaryNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsInvalidState 判断是否属于状态校验失败类错误
func IsInvalidState(err error) bool {
	for _, target := range []error{
		ErrMaxAttemptsReached, ErrAttemptAlreadySubmitted, ErrAlreadyEnrolled,
		ErrCourseNotPublished, ErrCourseHasNoModules, ErrInvalidStatusChange,
		ErrEnrollmentDropped, ErrInvalidInput,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
