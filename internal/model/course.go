package model

type CourseStatus string

const (
	CourseDraft     CourseStatus = "DRAFT"
	CoursePublished CourseStatus = "PUBLISHED"
	CourseArchived  CourseStatus = "ARCHIVED"
)

// ContentType 课时内容类型，取值为封闭集合
type ContentType string

const (
	ContentFile  ContentType = "FILE"
	ContentVideo ContentType = "VIDEO"
	ContentText  ContentType = "TEXT"
	ContentQuiz  ContentType = "QUIZ"
)

type MediaType string

const (
	MediaYoutube MediaType = "YOUTUBE"
	MediaVimeo   MediaType = "VIMEO"
	MediaCDN     MediaType = "CDN"
)

// swagger:model Course
type Course struct {
	UUIDBase

	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Status      CourseStatus   `gorm:"size:20;not null;index" json:"status"`
	Modules     []CourseModule `gorm:"foreignKey:CourseID" json:"modules,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// swagger:model CourseModule
type CourseModule struct {
	UUIDBase

	CourseID    string   `gorm:"type:varchar(36);index;not null" json:"courseId"`
	Title       string   `gorm:"size:255;not null" json:"title"`
	Description string   `gorm:"type:text" json:"description"`
	OrderIndex  int      `json:"orderIndex"`
	Lessons     []Lesson `gorm:"foreignKey:ModuleID" json:"lessons,omitempty"`
}

func (CourseModule) TableName() string {
	return "course_modules"
}

// Lesson 只有 IsRequired 的课时参与选课进度统计
// swagger:model Lesson
type Lesson struct {
	UUIDBase

	ModuleID          string          `gorm:"type:varchar(36);index;not null" json:"moduleId"`
	Title             string          `gorm:"size:255;not null" json:"title"`
	Description       string          `gorm:"type:text" json:"description"`
	OrderIndex        int             `json:"orderIndex"`
	IsRequired        bool            `json:"isRequired"`
	EstimatedDuration int             `json:"estimatedDuration"`
	Contents          []LessonContent `gorm:"foreignKey:LessonID" json:"contents,omitempty"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// swagger:model LessonContent
type LessonContent struct {
	UUIDBase

	LessonID        string         `gorm:"type:varchar(36);index;not null" json:"lessonId"`
	ContentType     ContentType    `gorm:"size:20;not null" json:"contentType"`
	Title           string         `gorm:"size:255" json:"title"`
	OrderIndex      int            `json:"orderIndex"`
	IsRequired      bool           `json:"isRequired"`
	TextContent     string         `gorm:"type:text" json:"textContent,omitempty"`
	FileURL         string         `gorm:"size:1024" json:"fileUrl,omitempty"`
	EmbeddedMediaID *string        `gorm:"type:varchar(36)" json:"embeddedMediaId,omitempty"`
	EmbeddedMedia   *EmbeddedMedia `gorm:"foreignKey:EmbeddedMediaID" json:"embeddedMedia,omitempty"`
	QuizID          *string        `gorm:"type:varchar(36);index" json:"quizId,omitempty"`
}

func (LessonContent) TableName() string {
	return "lesson_contents"
}

// MediaDuration 返回登记的视频时长(秒)，未登记时为 nil
func (c *LessonContent) MediaDuration() *int {
	if c.EmbeddedMedia == nil || c.EmbeddedMedia.Duration == nil {
		return nil
	}
	d := *c.EmbeddedMedia.Duration
	return &d
}

// swagger:model EmbeddedMedia
type EmbeddedMedia struct {
	UUIDBase

	MediaType MediaType `gorm:"size:20;not null" json:"mediaType"`
	EmbedURL  string    `gorm:"size:1024;not null" json:"embedUrl"`
	Title     string    `gorm:"size:255" json:"title"`
	Duration  *int      `json:"duration,omitempty"`
}

func (EmbeddedMedia) TableName() string {
	return "embedded_media"
}
