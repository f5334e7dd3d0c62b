package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"lms_backend/internal/model"
	"lms_backend/internal/repository/memory"
	"lms_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProber struct {
	seconds int
	err     error
	paths   []string
}

func (p *fakeProber) ProbeDuration(path string) (int, error) {
	p.paths = append(p.paths, path)
	return p.seconds, p.err
}

const courseYAML = `
title: Go Basics
description: Intro
publish: true
modules:
  - title: Getting started
    lessons:
      - title: Hello
        contents:
          - type: TEXT
            title: Read me
            text: hello world
          - type: VIDEO
            title: Tour
            media:
              mediaType: CDN
              embedUrl: https://cdn.example.com/tour.mp4
              duration: 120
          - type: VIDEO
            title: Local
            isRequired: false
            media:
              file: videos/local.mp4
      - title: Check
        contents:
          - type: QUIZ
            title: Quiz
            quiz:
              title: Basics quiz
              passScore: 60
              questions:
                - questionText: Is Go compiled?
                  questionType: TRUE_FALSE
                  options:
                    - optionText: "yes"
                      isCorrect: true
                    - optionText: "no"
      - title: Bonus
        isRequired: false
`

func TestImportCourseYAML(t *testing.T) {
	store := memory.New()
	prober := &fakeProber{seconds: 42}
	svc := NewCourseService(store, store, prober, "/srv/media")
	ctx := context.Background()

	course, err := svc.Import(ctx, []byte(courseYAML))
	require.NoError(t, err)
	assert.Equal(t, model.CoursePublished, course.Status)

	tree, err := svc.Get(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, tree.Modules, 1)
	lessons := tree.Modules[0].Lessons
	require.Len(t, lessons, 3)
	assert.True(t, lessons[0].IsRequired)
	assert.False(t, lessons[2].IsRequired)

	contents := lessons[0].Contents
	require.Len(t, contents, 3)
	assert.True(t, contents[0].IsRequired)
	require.NotNil(t, contents[1].MediaDuration())
	assert.Equal(t, 120, *contents[1].MediaDuration())
	assert.False(t, contents[2].IsRequired)
	require.NotNil(t, contents[2].MediaDuration())
	assert.Equal(t, 42, *contents[2].MediaDuration())
	assert.Equal(t, []string{filepath.Join("/srv/media", "videos/local.mp4")}, prober.paths)

	quizContent := lessons[1].Contents[0]
	require.NotNil(t, quizContent.QuizID)
	quiz, err := store.GetQuiz(ctx, *quizContent.QuizID)
	require.NoError(t, err)
	assert.Equal(t, lessons[1].ID, quiz.LessonID)
	assert.Equal(t, 60.0, quiz.PassScore)
	require.Len(t, quiz.Questions, 1)
	assert.Equal(t, model.QuestionTrueFalse, quiz.Questions[0].QuestionType)
}

func TestImportCourseJSON(t *testing.T) {
	store := memory.New()
	svc := NewCourseService(store, store, nil, "")

	course, err := svc.Import(context.Background(), []byte(`{
	"title": "Tabs",
	"modules": [{"title": "M", "lessons": [{"title": "L", "contents": [{"type": "FILE", "fileUrl": "a.pdf"}]}]}]
}`))
	require.NoError(t, err)
	assert.Equal(t, model.CourseDraft, course.Status)
}

func TestImportDurationLookupFailureLeavesDurationEmpty(t *testing.T) {
	store := memory.New()
	svc := NewCourseService(store, store, &fakeProber{err: errors.New("no ffprobe")}, "media")

	course, err := svc.Import(context.Background(), []byte(`
title: Media
modules:
  - title: M
    lessons:
      - title: L
        contents:
          - type: VIDEO
            media:
              file: a.mp4
`))
	require.NoError(t, err)
	video := course.Modules[0].Lessons[0].Contents[0]
	assert.Nil(t, video.MediaDuration())
}

func TestImportRejectsInvalidDefinitions(t *testing.T) {
	svc := NewCourseService(memory.New(), memory.New(), nil, "")

	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"not yaml", "title: [unterminated"},
		{"missing title", "description: x"},
		{"bad content type", "title: x\nmodules:\n  - title: m\n    lessons:\n      - title: l\n        contents:\n          - type: AUDIO\n"},
		{"video without media", "title: x\nmodules:\n  - title: m\n    lessons:\n      - title: l\n        contents:\n          - type: VIDEO\n"},
		{"quiz without quiz", "title: x\nmodules:\n  - title: m\n    lessons:\n      - title: l\n        contents:\n          - type: QUIZ\n"},
		{"publish without modules", "title: x\npublish: true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Import(context.Background(), []byte(tt.data))
			require.Error(t, err)
			assert.True(t, util.IsInvalidState(err), err.Error())
		})
	}
}

func TestPublishCourse(t *testing.T) {
	store := memory.New()
	svc := NewCourseService(store, store, nil, "")
	ctx := context.Background()

	empty, err := svc.Import(ctx, []byte("title: Empty\n"))
	require.NoError(t, err)
	_, err = svc.Publish(ctx, empty.ID)
	assert.ErrorIs(t, err, util.ErrCourseHasNoModules)

	course, err := svc.Import(ctx, []byte("title: Full\nmodules:\n  - title: m\n"))
	require.NoError(t, err)
	published, err := svc.Publish(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CoursePublished, published.Status)

	list, err := svc.List(ctx, model.CoursePublished)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, course.ID, list[0].ID)

	_, err = svc.Publish(ctx, "missing")
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}

func TestAddRequiredContentReopensCompletedCourse(t *testing.T) {
	f := newFixture(t)
	e := f.enroll(t, "u1")
	ctx := context.Background()

	f.track(t, e.ID, f.text1, model.EventView, nil)
	f.track(t, e.ID, f.video1, model.EventView, ptr(100))
	sub := f.passQuiz(t, e.ID)
	require.Equal(t, model.EnrollmentCompleted, sub.Enrollment.Status)
	courseDoneAt := *sub.Enrollment.CompletedAt
	before, err := f.store.GetSummary(ctx, e.ID, f.lesson1)
	require.NoError(t, err)
	lessonDoneAt := *before.CompletedAt

	appendix, err := f.courses.CreateContent(ctx, f.lesson1, CreateContentRequest{ContentType: model.ContentText, Title: "Appendix"})
	require.NoError(t, err)
	assert.True(t, appendix.IsRequired)

	sum, err := f.store.GetSummary(ctx, e.ID, f.lesson1)
	require.NoError(t, err)
	assert.Equal(t, 66.67, sum.CompletionPercent)
	assert.False(t, sum.IsCompleted)
	require.NotNil(t, sum.CompletedAt)
	assert.True(t, lessonDoneAt.Equal(*sum.CompletedAt))

	got, err := f.store.GetEnrollment(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, got.ProgressPercent)
	assert.Equal(t, model.EnrollmentInProgress, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, courseDoneAt.Equal(*got.CompletedAt))

	res := f.track(t, e.ID, appendix.ID, model.EventView, nil)
	assert.Equal(t, model.EnrollmentCompleted, res.Enrollment.Status)
	assert.True(t, courseDoneAt.Equal(*res.Enrollment.CompletedAt))
}

func TestRequiredFlagChangesRecomputeProgress(t *testing.T) {
	f := newFixture(t)
	e := f.enroll(t, "u1")
	ctx := context.Background()

	res := f.track(t, e.ID, f.text1, model.EventView, nil)
	require.Equal(t, 50.0, res.LessonSummary.CompletionPercent)

	_, err := f.courses.UpdateContent(ctx, f.video1, UpdateContentRequest{IsRequired: ptr(false)})
	require.NoError(t, err)
	sum, err := f.store.GetSummary(ctx, e.ID, f.lesson1)
	require.NoError(t, err)
	assert.True(t, sum.IsCompleted)
	got, err := f.store.GetEnrollment(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, got.ProgressPercent)

	_, err = f.courses.UpdateLesson(ctx, f.lesson2, LessonRequest{IsRequired: ptr(false)})
	require.NoError(t, err)
	got, err = f.store.GetEnrollment(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.ProgressPercent)
	assert.Equal(t, model.EnrollmentCompleted, got.Status)

	_, err = f.courses.UpdateLesson(ctx, f.lesson2, LessonRequest{IsRequired: ptr(true)})
	require.NoError(t, err)
	got, err = f.store.GetEnrollment(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, got.ProgressPercent)
	assert.Equal(t, model.EnrollmentInProgress, got.Status)
	assert.NotNil(t, got.CompletedAt)
}

func TestDeleteStructureRecomputesProgress(t *testing.T) {
	f := newFixture(t)
	e := f.enroll(t, "u1")
	ctx := context.Background()

	f.track(t, e.ID, f.text1, model.EventView, nil)
	f.track(t, e.ID, f.video1, model.EventView, ptr(100))

	require.NoError(t, f.courses.DeleteLesson(ctx, f.lesson2))
	got, err := f.store.GetEnrollment(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.ProgressPercent)
	assert.Equal(t, model.EnrollmentCompleted, got.Status)
	_, err = f.store.GetContent(ctx, f.quizContent2)
	assert.ErrorIs(t, err, util.ErrContentNotFound)

	require.NoError(t, f.courses.DeleteContent(ctx, f.video1))
	_, err = f.store.GetContent(ctx, f.video1)
	assert.ErrorIs(t, err, util.ErrContentNotFound)
	sum, err := f.store.GetSummary(ctx, e.ID, f.lesson1)
	require.NoError(t, err)
	assert.True(t, sum.IsCompleted)

	moduleID := f.course.Modules[0].ID
	require.NoError(t, f.courses.DeleteModule(ctx, moduleID))
	tree, err := f.courses.Get(ctx, f.course.ID)
	require.NoError(t, err)
	assert.Empty(t, tree.Modules)
	got, err = f.store.GetEnrollment(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.ProgressPercent)
	assert.Equal(t, model.EnrollmentEnrolled, got.Status)

	assert.ErrorIs(t, f.courses.DeleteModule(ctx, moduleID), util.ErrModuleNotFound)
	assert.ErrorIs(t, f.courses.DeleteLesson(ctx, f.lesson1), util.ErrLessonNotFound)
	assert.ErrorIs(t, f.courses.DeleteContent(ctx, f.text1), util.ErrContentNotFound)
}

func TestBuildCourseStructure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft, err := f.courses.Import(ctx, []byte("title: Draft\n"))
	require.NoError(t, err)
	_, err = f.courses.UpdateCourse(ctx, draft.ID, UpdateCourseRequest{Status: ptr(model.CoursePublished)})
	assert.ErrorIs(t, err, util.ErrCourseHasNoModules)

	module, err := f.courses.CreateModule(ctx, draft.ID, ModuleRequest{Title: ptr("Week 1"), OrderIndex: ptr(1)})
	require.NoError(t, err)
	lesson, err := f.courses.CreateLesson(ctx, module.ID, LessonRequest{Title: ptr("Intro")})
	require.NoError(t, err)
	assert.True(t, lesson.IsRequired)

	quiz, err := f.quizzes.CreateQuiz(ctx, CreateQuizRequest{LessonID: lesson.ID, Title: "Warmup"})
	require.NoError(t, err)
	content, err := f.courses.CreateContent(ctx, lesson.ID, CreateContentRequest{ContentType: model.ContentQuiz, Title: "Warmup", QuizID: &quiz.ID})
	require.NoError(t, err)
	video, err := f.courses.CreateContent(ctx, lesson.ID, CreateContentRequest{
		ContentType: model.ContentVideo,
		OrderIndex:  1,
		Media:       &MediaDefinition{EmbedURL: "https://cdn.example.com/a.mp4", Duration: ptr(60)},
	})
	require.NoError(t, err)
	updated, err := f.courses.UpdateContent(ctx, video.ID, UpdateContentRequest{Duration: ptr(90), Title: ptr("Lecture")})
	require.NoError(t, err)
	assert.Equal(t, 90, *updated.MediaDuration())
	assert.Equal(t, "Lecture", updated.Title)

	renamed, err := f.courses.UpdateModule(ctx, module.ID, ModuleRequest{Title: ptr("Week one")})
	require.NoError(t, err)
	assert.Equal(t, 1, renamed.OrderIndex)

	course, err := f.courses.UpdateCourse(ctx, draft.ID, UpdateCourseRequest{Title: ptr("Ready"), Status: ptr(model.CoursePublished)})
	require.NoError(t, err)
	assert.Equal(t, model.CoursePublished, course.Status)

	tree, err := f.courses.Get(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ready", tree.Title)
	require.Len(t, tree.Modules, 1)
	assert.Equal(t, "Week one", tree.Modules[0].Title)
	require.Len(t, tree.Modules[0].Lessons, 1)
	contents := tree.Modules[0].Lessons[0].Contents
	require.Len(t, contents, 2)
	assert.Equal(t, content.ID, contents[0].ID)
	assert.Equal(t, quiz.ID, *contents[0].QuizID)

	archived, err := f.courses.ArchiveCourse(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CourseArchived, archived.Status)
}

func TestCourseStructureValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.courses.CreateModule(ctx, "missing", ModuleRequest{Title: ptr("m")})
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
	_, err = f.courses.CreateModule(ctx, f.course.ID, ModuleRequest{})
	assert.ErrorIs(t, err, util.ErrInvalidInput)
	_, err = f.courses.CreateLesson(ctx, "missing", LessonRequest{Title: ptr("l")})
	assert.ErrorIs(t, err, util.ErrModuleNotFound)
	_, err = f.courses.UpdateLesson(ctx, f.lesson1, LessonRequest{Title: ptr("")})
	assert.ErrorIs(t, err, util.ErrInvalidInput)
	_, err = f.courses.UpdateCourse(ctx, f.course.ID, UpdateCourseRequest{Status: ptr(model.CourseStatus("LIVE"))})
	assert.ErrorIs(t, err, util.ErrInvalidInput)
	_, err = f.courses.UpdateContent(ctx, f.text1, UpdateContentRequest{Duration: ptr(10)})
	assert.ErrorIs(t, err, util.ErrInvalidInput)

	tests := []struct {
		name string
		req  CreateContentRequest
		want error
	}{
		{"video without media", CreateContentRequest{ContentType: model.ContentVideo}, util.ErrInvalidInput},
		{"quiz without id", CreateContentRequest{ContentType: model.ContentQuiz}, util.ErrInvalidInput},
		{"quiz from another lesson", CreateContentRequest{ContentType: model.ContentQuiz, QuizID: &f.quiz.ID}, util.ErrInvalidInput},
		{"unknown quiz", CreateContentRequest{ContentType: model.ContentQuiz, QuizID: ptr("missing")}, util.ErrQuizNotFound},
		{"unknown type", CreateContentRequest{ContentType: "AUDIO"}, util.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.courses.CreateContent(ctx, f.lesson1, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	_, err = f.courses.CreateContent(ctx, "missing", CreateContentRequest{ContentType: model.ContentText})
	assert.ErrorIs(t, err, util.ErrLessonNotFound)
}
