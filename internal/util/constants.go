package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
	RoleStudent    = "student"
)

const ContextUserKey = "user"

// 分页默认值
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// 测验默认配置
const (
	DefaultPassScore    = 70
	DefaultMaxAttempts  = 3
	DefaultPoints       = 1
	MaxBulkEnrollUsers  = 500
	MaxAttemptNumberTry = 3
)

var (
	AllowedVideoExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".wmv", ".flv", ".webm"}
)
