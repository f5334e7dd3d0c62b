package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// MediaProber 读取本地视频文件时长(秒)
type MediaProber interface {
	ProbeDuration(path string) (int, error)
}

// CourseRefresher 课程结构变更后重建受影响选课的进度
type CourseRefresher interface {
	SweepCourse(ctx context.Context, courseID string) (*SweepResult, error)
}

type CourseService struct {
	Courses repository.CourseStore
	Quizzes repository.QuizStore
	// Prober 为 nil 时不探测本地视频
	Prober    MediaProber
	MediaRoot string
	// Refresher 为 nil 时结构变更只能等定时修复任务生效
	Refresher CourseRefresher
}

func NewCourseService(courses repository.CourseStore, quizzes repository.QuizStore, prober MediaProber, mediaRoot string) *CourseService {
	return &CourseService{Courses: courses, Quizzes: quizzes, Prober: prober, MediaRoot: mediaRoot}
}

// ---- 导入格式 ----

type MediaDefinition struct {
	MediaType model.MediaType `yaml:"mediaType" json:"mediaType"`
	EmbedURL  string          `yaml:"embedUrl" json:"embedUrl"`
	Title     string          `yaml:"title" json:"title"`
	Duration  *int            `yaml:"duration" json:"duration"`
	// File 相对于 media.local_path 的本地文件，用于探测时长
	File string `yaml:"file" json:"file"`
}

type ContentDefinition struct {
	Type       model.ContentType  `yaml:"type" json:"type"`
	Title      string             `yaml:"title" json:"title"`
	IsRequired *bool              `yaml:"isRequired" json:"isRequired"`
	Text       string             `yaml:"text" json:"text"`
	FileURL    string             `yaml:"fileUrl" json:"fileUrl"`
	Media      *MediaDefinition   `yaml:"media" json:"media"`
	Quiz       *CreateQuizRequest `yaml:"quiz" json:"quiz"`
}

type LessonDefinition struct {
	Title             string              `yaml:"title" json:"title"`
	Description       string              `yaml:"description" json:"description"`
	IsRequired        *bool               `yaml:"isRequired" json:"isRequired"`
	EstimatedDuration int                 `yaml:"estimatedDuration" json:"estimatedDuration"`
	Contents          []ContentDefinition `yaml:"contents" json:"contents"`
}

type ModuleDefinition struct {
	Title       string             `yaml:"title" json:"title"`
	Description string             `yaml:"description" json:"description"`
	Lessons     []LessonDefinition `yaml:"lessons" json:"lessons"`
}

// CourseDefinition 课程导入文件，YAML 或 JSON
type CourseDefinition struct {
	Title       string             `yaml:"title" json:"title"`
	Description string             `yaml:"description" json:"description"`
	Publish     bool               `yaml:"publish" json:"publish"`
	Modules     []ModuleDefinition `yaml:"modules" json:"modules"`
}

const courseDefinitionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["title"],
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "publish": {"type": "boolean"},
    "modules": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title"],
        "properties": {
          "title": {"type": "string", "minLength": 1},
          "lessons": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["title"],
              "properties": {
                "title": {"type": "string", "minLength": 1},
                "isRequired": {"type": "boolean"},
                "estimatedDuration": {"type": "integer", "minimum": 0},
                "contents": {
                  "type": "array",
                  "items": {
                    "type": "object",
                    "required": ["type"],
                    "properties": {
                      "type": {"enum": ["FILE", "VIDEO", "TEXT", "QUIZ"]},
                      "isRequired": {"type": "boolean"},
                      "media": {
                        "type": "object",
                        "properties": {
                          "mediaType": {"enum": ["YOUTUBE", "VIMEO", "CDN"]},
                          "duration": {"type": "integer", "minimum": 0}
                        }
                      },
                      "quiz": {"type": "object", "required": ["title"]}
                    }
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

var courseSchema = gojsonschema.NewStringLoader(courseDefinitionSchema)

// ParseCourseDefinition 先按 schema 校验再解码；以 { 开头的按 JSON 解析，其余按 YAML
func ParseCourseDefinition(data []byte) (*CourseDefinition, error) {
	unmarshal := yaml.Unmarshal
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		unmarshal = json.Unmarshal
	}

	var doc interface{}
	if err := unmarshal(data, &doc); err != nil {
		return nil, invalid("course definition is not valid YAML/JSON: %v", err)
	}
	if doc == nil {
		return nil, invalid("course definition is empty")
	}

	res, err := gojsonschema.Validate(courseSchema, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, invalid("course definition: %v", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, invalid("course definition: %s", strings.Join(msgs, "; "))
	}

	var def CourseDefinition
	if err := unmarshal(data, &def); err != nil {
		return nil, invalid("course definition: %v", err)
	}
	return &def, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// Import 解析定义文件并一次性写入整棵课程树及内嵌测验
func (s *CourseService) Import(ctx context.Context, data []byte) (*model.Course, error) {
	def, err := ParseCourseDefinition(data)
	if err != nil {
		return nil, err
	}
	course, quizzes, err := s.build(def)
	if err != nil {
		return nil, err
	}
	if err := s.Courses.CreateCourse(ctx, course, quizzes); err != nil {
		return nil, err
	}
	logger.Log.Info("Course imported",
		zap.String("courseId", course.ID),
		zap.String("title", course.Title),
		zap.Int("modules", len(course.Modules)),
		zap.Int("quizzes", len(quizzes)))
	return course, nil
}

func (s *CourseService) build(def *CourseDefinition) (*model.Course, []model.Quiz, error) {
	course := &model.Course{Title: def.Title, Description: def.Description, Status: model.CourseDraft}
	course.ID = model.GenerateUUID()
	if def.Publish {
		if len(def.Modules) == 0 {
			return nil, nil, util.ErrCourseHasNoModules
		}
		course.Status = model.CoursePublished
	}

	var quizzes []model.Quiz
	for mi, md := range def.Modules {
		module := model.CourseModule{CourseID: course.ID, Title: md.Title, Description: md.Description, OrderIndex: mi}
		module.ID = model.GenerateUUID()

		for li, ld := range md.Lessons {
			lesson := model.Lesson{
				ModuleID:          module.ID,
				Title:             ld.Title,
				Description:       ld.Description,
				OrderIndex:        li,
				IsRequired:        boolOr(ld.IsRequired, true),
				EstimatedDuration: ld.EstimatedDuration,
			}
			lesson.ID = model.GenerateUUID()

			for ci, cd := range ld.Contents {
				where := fmt.Sprintf("module %d lesson %d content %d", mi+1, li+1, ci+1)
				content := model.LessonContent{
					LessonID:    lesson.ID,
					ContentType: cd.Type,
					Title:       cd.Title,
					OrderIndex:  ci,
					IsRequired:  boolOr(cd.IsRequired, true),
					TextContent: cd.Text,
					FileURL:     cd.FileURL,
				}
				content.ID = model.GenerateUUID()

				switch cd.Type {
				case model.ContentVideo:
					if cd.Media == nil {
						return nil, nil, invalid("%s: VIDEO content needs media", where)
					}
					content.EmbeddedMedia = s.buildMedia(cd.Media)
				case model.ContentQuiz:
					if cd.Quiz == nil {
						return nil, nil, invalid("%s: QUIZ content needs an inline quiz", where)
					}
					req := *cd.Quiz
					req.LessonID = lesson.ID
					quiz, err := req.BuildQuiz()
					if err != nil {
						return nil, nil, fmt.Errorf("%s: %w", where, err)
					}
					content.QuizID = &quiz.ID
					quizzes = append(quizzes, *quiz)
				case model.ContentFile, model.ContentText:
				default:
					return nil, nil, invalid("%s: unknown content type %q", where, cd.Type)
				}
				lesson.Contents = append(lesson.Contents, content)
			}
			module.Lessons = append(module.Lessons, lesson)
		}
		course.Modules = append(course.Modules, module)
	}
	return course, quizzes, nil
}

// buildMedia 定义中的时长优先；否则尝试探测本地文件，失败时留空
func (s *CourseService) buildMedia(md *MediaDefinition) *model.EmbeddedMedia {
	media := &model.EmbeddedMedia{
		MediaType: md.MediaType,
		EmbedURL:  md.EmbedURL,
		Title:     md.Title,
		Duration:  md.Duration,
	}
	media.ID = model.GenerateUUID()
	if media.MediaType == "" {
		media.MediaType = model.MediaCDN
	}
	if media.Duration != nil || md.File == "" || s.Prober == nil {
		return media
	}
	if !filepath.IsLocal(md.File) {
		logger.Log.Warn("Media file outside media root ignored", zap.String("file", md.File))
		return media
	}
	path := filepath.Join(s.MediaRoot, md.File)
	seconds, err := s.Prober.ProbeDuration(path)
	if err != nil {
		logger.Log.Warn("Probe media duration failed", zap.String("path", path), zap.Error(err))
		return media
	}
	media.Duration = &seconds
	if media.EmbedURL == "" {
		media.EmbedURL = md.File
	}
	return media
}

// Publish 没有模块的课程不能发布
func (s *CourseService) Publish(ctx context.Context, id string) (*model.Course, error) {
	course, err := s.Courses.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	n, err := s.Courses.CountModules(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, util.ErrCourseHasNoModules
	}
	if err := s.Courses.UpdateCourseStatus(ctx, id, model.CoursePublished); err != nil {
		return nil, err
	}
	course.Status = model.CoursePublished
	return course, nil
}

func (s *CourseService) Get(ctx context.Context, id string) (*model.Course, error) {
	return s.Courses.GetCourseTree(ctx, id)
}

func (s *CourseService) List(ctx context.Context, status model.CourseStatus) ([]model.Course, error) {
	return s.Courses.ListCourses(ctx, status)
}

// ---- 课程结构维护 ----

// refresh 结构已经写入，重建失败只记日志
func (s *CourseService) refresh(ctx context.Context, courseID string) {
	if s.Refresher == nil {
		return
	}
	if _, err := s.Refresher.SweepCourse(ctx, courseID); err != nil {
		logger.Log.Warn("Rebuild course progress failed", zap.String("courseId", courseID), zap.Error(err))
	}
}

func validCourseStatus(st model.CourseStatus) bool {
	switch st {
	case model.CourseDraft, model.CoursePublished, model.CourseArchived:
		return true
	}
	return false
}

type UpdateCourseRequest struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	Status      *model.CourseStatus `json:"status"`
}

// UpdateCourse 改为 PUBLISHED 时与 Publish 相同，要求至少有一个模块
func (s *CourseService) UpdateCourse(ctx context.Context, id string, req UpdateCourseRequest) (*model.Course, error) {
	course, err := s.Courses.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		if *req.Title == "" {
			return nil, invalid("course title is required")
		}
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Status != nil && *req.Status != course.Status {
		if !validCourseStatus(*req.Status) {
			return nil, invalid("unknown course status %q", *req.Status)
		}
		if *req.Status == model.CoursePublished {
			n, err := s.Courses.CountModules(ctx, id)
			if err != nil {
				return nil, err
			}
			if n == 0 {
				return nil, util.ErrCourseHasNoModules
			}
		}
		course.Status = *req.Status
	}
	if err := s.Courses.UpdateCourse(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// ArchiveCourse 删除课程只做归档，选课和进度保留
func (s *CourseService) ArchiveCourse(ctx context.Context, id string) (*model.Course, error) {
	course, err := s.Courses.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Courses.UpdateCourseStatus(ctx, id, model.CourseArchived); err != nil {
		return nil, err
	}
	course.Status = model.CourseArchived
	logger.Log.Info("Course archived", zap.String("courseId", id))
	return course, nil
}

type ModuleRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	OrderIndex  *int    `json:"orderIndex"`
}

func (s *CourseService) CreateModule(ctx context.Context, courseID string, req ModuleRequest) (*model.CourseModule, error) {
	if _, err := s.Courses.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	if req.Title == nil || *req.Title == "" {
		return nil, invalid("module title is required")
	}
	module := &model.CourseModule{CourseID: courseID, Title: *req.Title}
	if req.Description != nil {
		module.Description = *req.Description
	}
	if req.OrderIndex != nil {
		module.OrderIndex = *req.OrderIndex
	}
	if err := s.Courses.CreateModule(ctx, module); err != nil {
		return nil, err
	}
	return module, nil
}

func (s *CourseService) UpdateModule(ctx context.Context, id string, req ModuleRequest) (*model.CourseModule, error) {
	module, err := s.Courses.GetModule(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		if *req.Title == "" {
			return nil, invalid("module title is required")
		}
		module.Title = *req.Title
	}
	if req.Description != nil {
		module.Description = *req.Description
	}
	if req.OrderIndex != nil {
		module.OrderIndex = *req.OrderIndex
	}
	if err := s.Courses.UpdateModule(ctx, module); err != nil {
		return nil, err
	}
	return module, nil
}

func (s *CourseService) DeleteModule(ctx context.Context, id string) error {
	module, err := s.Courses.GetModule(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Courses.DeleteModule(ctx, id); err != nil {
		return err
	}
	logger.Log.Info("Module deleted", zap.String("moduleId", id), zap.String("courseId", module.CourseID))
	s.refresh(ctx, module.CourseID)
	return nil
}

type LessonRequest struct {
	Title             *string `json:"title"`
	Description       *string `json:"description"`
	OrderIndex        *int    `json:"orderIndex"`
	IsRequired        *bool   `json:"isRequired"`
	EstimatedDuration *int    `json:"estimatedDuration"`
}

func (r *LessonRequest) apply(l *model.Lesson) error {
	if r.Title != nil {
		if *r.Title == "" {
			return invalid("lesson title is required")
		}
		l.Title = *r.Title
	}
	if r.Description != nil {
		l.Description = *r.Description
	}
	if r.OrderIndex != nil {
		l.OrderIndex = *r.OrderIndex
	}
	if r.IsRequired != nil {
		l.IsRequired = *r.IsRequired
	}
	if r.EstimatedDuration != nil {
		if *r.EstimatedDuration < 0 {
			return invalid("estimatedDuration must not be negative")
		}
		l.EstimatedDuration = *r.EstimatedDuration
	}
	return nil
}

// CreateLesson 新增必修课时会拉低已有选课的进度
func (s *CourseService) CreateLesson(ctx context.Context, moduleID string, req LessonRequest) (*model.Lesson, error) {
	module, err := s.Courses.GetModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if req.Title == nil {
		return nil, invalid("lesson title is required")
	}
	lesson := &model.Lesson{ModuleID: moduleID, IsRequired: true}
	if err := req.apply(lesson); err != nil {
		return nil, err
	}
	if err := s.Courses.CreateLesson(ctx, lesson); err != nil {
		return nil, err
	}
	if lesson.IsRequired {
		s.refresh(ctx, module.CourseID)
	}
	return lesson, nil
}

func (s *CourseService) UpdateLesson(ctx context.Context, id string, req LessonRequest) (*model.Lesson, error) {
	lesson, err := s.Courses.GetLesson(ctx, id)
	if err != nil {
		return nil, err
	}
	pos, err := s.Courses.GetLessonPosition(ctx, id)
	if err != nil {
		return nil, err
	}
	wasRequired := lesson.IsRequired
	if err := req.apply(lesson); err != nil {
		return nil, err
	}
	if err := s.Courses.UpdateLesson(ctx, lesson); err != nil {
		return nil, err
	}
	if lesson.IsRequired != wasRequired {
		s.refresh(ctx, pos.CourseID)
	}
	return lesson, nil
}

func (s *CourseService) DeleteLesson(ctx context.Context, id string) error {
	pos, err := s.Courses.GetLessonPosition(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Courses.DeleteLesson(ctx, id); err != nil {
		return err
	}
	logger.Log.Info("Lesson deleted", zap.String("lessonId", id), zap.String("courseId", pos.CourseID))
	s.refresh(ctx, pos.CourseID)
	return nil
}

type CreateContentRequest struct {
	ContentType model.ContentType `json:"contentType" binding:"required"`
	Title       string            `json:"title"`
	OrderIndex  int               `json:"orderIndex"`
	IsRequired  *bool             `json:"isRequired"`
	TextContent string            `json:"textContent"`
	FileURL     string            `json:"fileUrl"`
	Media       *MediaDefinition  `json:"media"`
	// QuizID QUIZ 内容引用的测验，必须属于同一课时
	QuizID *string `json:"quizId"`
}

// CreateContent 新增必修内容会使已完成的课时回到未完成
func (s *CourseService) CreateContent(ctx context.Context, lessonID string, req CreateContentRequest) (*model.LessonContent, error) {
	pos, err := s.Courses.GetLessonPosition(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	content := &model.LessonContent{
		LessonID:    lessonID,
		ContentType: req.ContentType,
		Title:       req.Title,
		OrderIndex:  req.OrderIndex,
		IsRequired:  boolOr(req.IsRequired, true),
		TextContent: req.TextContent,
		FileURL:     req.FileURL,
	}
	switch req.ContentType {
	case model.ContentVideo:
		if req.Media == nil {
			return nil, invalid("VIDEO content needs media")
		}
		if req.Media.Duration != nil && *req.Media.Duration < 0 {
			return nil, invalid("media duration must not be negative")
		}
		content.EmbeddedMedia = s.buildMedia(req.Media)
	case model.ContentQuiz:
		if req.QuizID == nil || *req.QuizID == "" {
			return nil, invalid("QUIZ content needs quizId")
		}
		quiz, err := s.Quizzes.GetQuiz(ctx, *req.QuizID)
		if err != nil {
			return nil, err
		}
		if quiz.LessonID != lessonID {
			return nil, invalid("quiz does not belong to this lesson")
		}
		content.QuizID = &quiz.ID
	case model.ContentFile, model.ContentText:
	default:
		return nil, invalid("unknown content type %q", req.ContentType)
	}
	if err := s.Courses.CreateContent(ctx, content); err != nil {
		return nil, err
	}
	if content.IsRequired {
		s.refresh(ctx, pos.CourseID)
	}
	return content, nil
}

type UpdateContentRequest struct {
	Title       *string `json:"title"`
	OrderIndex  *int    `json:"orderIndex"`
	IsRequired  *bool   `json:"isRequired"`
	TextContent *string `json:"textContent"`
	FileURL     *string `json:"fileUrl"`
	// Duration 视频时长(秒)，只影响之后上报的观看事件
	Duration *int `json:"duration"`
}

// UpdateContent 切换必修标记后重建该课程所有选课的进度
func (s *CourseService) UpdateContent(ctx context.Context, id string, req UpdateContentRequest) (*model.LessonContent, error) {
	content, err := s.Courses.GetContent(ctx, id)
	if err != nil {
		return nil, err
	}
	pos, err := s.Courses.GetLessonPosition(ctx, content.LessonID)
	if err != nil {
		return nil, err
	}
	wasRequired := content.IsRequired
	if req.Title != nil {
		content.Title = *req.Title
	}
	if req.OrderIndex != nil {
		content.OrderIndex = *req.OrderIndex
	}
	if req.IsRequired != nil {
		content.IsRequired = *req.IsRequired
	}
	if req.TextContent != nil {
		content.TextContent = *req.TextContent
	}
	if req.FileURL != nil {
		content.FileURL = *req.FileURL
	}
	if req.Duration != nil {
		if content.EmbeddedMedia == nil {
			return nil, invalid("only VIDEO content has a duration")
		}
		if *req.Duration < 0 {
			return nil, invalid("duration must not be negative")
		}
		content.EmbeddedMedia.Duration = req.Duration
	} else {
		content.EmbeddedMedia = nil
	}
	if err := s.Courses.UpdateContent(ctx, content); err != nil {
		return nil, err
	}
	if content.IsRequired != wasRequired {
		s.refresh(ctx, pos.CourseID)
	}
	return s.Courses.GetContent(ctx, id)
}

func (s *CourseService) DeleteContent(ctx context.Context, id string) error {
	content, err := s.Courses.GetContent(ctx, id)
	if err != nil {
		return err
	}
	pos, err := s.Courses.GetLessonPosition(ctx, content.LessonID)
	if err != nil {
		return err
	}
	if err := s.Courses.DeleteContent(ctx, id); err != nil {
		return err
	}
	if content.IsRequired {
		s.refresh(ctx, pos.CourseID)
	}
	return nil
}
