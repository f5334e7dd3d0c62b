package repository

import (
	"context"
	"errors"

	"lms_backend/internal/model"
	"lms_backend/internal/util"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func byOrder(db *gorm.DB) *gorm.DB {
	return db.Order("order_index ASC").Order("id ASC")
}

// CreateCourse 在一个事务中写入课程树及其测验
func (r *CourseRepository) CreateCourse(ctx context.Context, course *model.Course, quizzes []model.Quiz) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(course).Error; err != nil {
			return err
		}
		for i := range quizzes {
			if err := tx.Create(&quizzes[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *CourseRepository) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	var c model.Course
	if err := r.DB.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CourseRepository) GetCourseTree(ctx context.Context, id string) (*model.Course, error) {
	var c model.Course
	err := r.DB.WithContext(ctx).
		Preload("Modules", byOrder).
		Preload("Modules.Lessons", byOrder).
		Preload("Modules.Lessons.Contents", byOrder).
		Preload("Modules.Lessons.Contents.EmbeddedMedia").
		First(&c, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CourseRepository) ListCourses(ctx context.Context, status model.CourseStatus) ([]model.Course, error) {
	var courses []model.Course
	q := r.DB.WithContext(ctx).Model(&model.Course{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("created_at DESC").Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) UpdateCourseStatus(ctx context.Context, id string, status model.CourseStatus) error {
	return r.DB.WithContext(ctx).Model(&model.Course{}).Where("id = ?", id).Update("status", status).Error
}

func (r *CourseRepository) CountModules(ctx context.Context, courseID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.CourseModule{}).Where("course_id = ?", courseID).Count(&count).Error
	return count, err
}

func (r *CourseRepository) lessonPositions(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).Table("lessons").
		Select("lessons.id AS lesson_id, lessons.module_id, course_modules.course_id, " +
			"course_modules.order_index AS module_order, lessons.order_index AS lesson_order, " +
			"lessons.is_required, lessons.title").
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id")
}

func (r *CourseRepository) GetLessonPosition(ctx context.Context, lessonID string) (*LessonPosition, error) {
	var rows []LessonPosition
	if err := r.lessonPositions(ctx).Where("lessons.id = ?", lessonID).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, util.ErrLessonNotFound
	}
	return &rows[0], nil
}

// ListCourseLessons 按模块顺序、课时顺序返回
func (r *CourseRepository) ListCourseLessons(ctx context.Context, courseID string) ([]LessonPosition, error) {
	var rows []LessonPosition
	err := r.lessonPositions(ctx).
		Where("course_modules.course_id = ?", courseID).
		Order("course_modules.order_index ASC, lessons.order_index ASC, lessons.id ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *CourseRepository) GetContent(ctx context.Context, id string) (*model.LessonContent, error) {
	var c model.LessonContent
	if err := r.DB.WithContext(ctx).Preload("EmbeddedMedia").First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrContentNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CourseRepository) ListLessonContents(ctx context.Context, lessonID string) ([]model.LessonContent, error) {
	var contents []model.LessonContent
	err := byOrder(r.DB.WithContext(ctx).Preload("EmbeddedMedia").Where("lesson_id = ?", lessonID)).
		Find(&contents).Error
	return contents, err
}

func (r *CourseRepository) UpdateCourse(ctx context.Context, course *model.Course) error {
	return r.DB.WithContext(ctx).Model(course).
		Select("title", "description", "status", "updated_at").
		Updates(course).Error
}

// ---- 模块 ----

func (r *CourseRepository) CreateModule(ctx context.Context, m *model.CourseModule) error {
	return r.DB.WithContext(ctx).Omit("Lessons").Create(m).Error
}

func (r *CourseRepository) GetModule(ctx context.Context, id string) (*model.CourseModule, error) {
	var m model.CourseModule
	if err := r.DB.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrModuleNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *CourseRepository) UpdateModule(ctx context.Context, m *model.CourseModule) error {
	return r.DB.WithContext(ctx).Model(m).
		Select("title", "description", "order_index", "updated_at").
		Updates(m).Error
}

func (r *CourseRepository) DeleteModule(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lessonIDs []string
		if err := tx.Model(&model.Lesson{}).Where("module_id = ?", id).Pluck("id", &lessonIDs).Error; err != nil {
			return err
		}
		if len(lessonIDs) > 0 {
			if err := deleteContents(tx, "lesson_id IN ?", lessonIDs); err != nil {
				return err
			}
			if err := tx.Where("id IN ?", lessonIDs).Delete(&model.Lesson{}).Error; err != nil {
				return err
			}
		}
		res := tx.Where("id = ?", id).Delete(&model.CourseModule{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return util.ErrModuleNotFound
		}
		return nil
	})
}

// ---- 课时 ----

func (r *CourseRepository) CreateLesson(ctx context.Context, l *model.Lesson) error {
	return r.DB.WithContext(ctx).Omit("Contents").Create(l).Error
}

func (r *CourseRepository) GetLesson(ctx context.Context, id string) (*model.Lesson, error) {
	var l model.Lesson
	if err := r.DB.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *CourseRepository) UpdateLesson(ctx context.Context, l *model.Lesson) error {
	return r.DB.WithContext(ctx).Model(l).
		Select("title", "description", "order_index", "is_required", "estimated_duration", "updated_at").
		Updates(l).Error
}

func (r *CourseRepository) DeleteLesson(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteContents(tx, "lesson_id = ?", id); err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Lesson{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return util.ErrLessonNotFound
		}
		return nil
	})
}

// ---- 内容 ----

func (r *CourseRepository) CreateContent(ctx context.Context, c *model.LessonContent) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *CourseRepository) UpdateContent(ctx context.Context, c *model.LessonContent) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(c).
			Select("title", "order_index", "is_required", "text_content", "file_url", "updated_at").
			Updates(c).Error
		if err != nil {
			return err
		}
		if c.EmbeddedMedia == nil {
			return nil
		}
		return tx.Model(c.EmbeddedMedia).Select("duration", "updated_at").Updates(c.EmbeddedMedia).Error
	})
}

func (r *CourseRepository) DeleteContent(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.LessonContent{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return util.ErrContentNotFound
		}
		return deleteContents(tx, "id = ?", id)
	})
}

// deleteContents 删除条件选中的内容及其视频信息
func deleteContents(tx *gorm.DB, query string, args ...interface{}) error {
	var mediaIDs []string
	err := tx.Model(&model.LessonContent{}).Where(query, args...).
		Where("embedded_media_id IS NOT NULL").
		Pluck("embedded_media_id", &mediaIDs).Error
	if err != nil {
		return err
	}
	if err := tx.Where(query, args...).Delete(&model.LessonContent{}).Error; err != nil {
		return err
	}
	if len(mediaIDs) == 0 {
		return nil
	}
	return tx.Where("id IN ?", mediaIDs).Delete(&model.EmbeddedMedia{}).Error
}
