package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/progress"
	"lms_backend/internal/repository/memory"
	"lms_backend/pkg/keylock"

	"github.com/stretchr/testify/require"
)

// stepClock 每次调用前进一秒，保证事件时间严格递增
type stepClock struct {
	mu  sync.Mutex
	cur time.Time
}

func newStepClock() *stepClock {
	return &stepClock{cur: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

type fixture struct {
	store       *memory.Store
	clock       *stepClock
	progress    *ProgressService
	quizzes     *QuizService
	enrollments *EnrollmentService
	courses     *CourseService

	course *model.Course
	quiz   *model.Quiz

	// 课时1: 必修文本 + 必修视频(100s) + 选修文件
	lesson1, text1, video1, file1 string
	// 课时2: 必修测验
	lesson2, quizContent2 string
	// 课时3: 选修课时
	lesson3, text3 string

	// 测验题目与选项
	q1, q1Right, q1Wrong string
	q2, q2Right, q2Wrong string
}

func ptr[T any](v T) *T { return &v }

func newContent(t model.ContentType, title string, required bool) model.LessonContent {
	c := model.LessonContent{ContentType: t, Title: title, IsRequired: required}
	c.ID = model.GenerateUUID()
	return c
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.New(), clock: newStepClock()}
	locker := keylock.NewLocalLocker()

	f.progress = NewProgressService(f.store, f.store, f.store, f.store, locker)
	f.progress.Now = f.clock.Now
	f.quizzes = NewQuizService(f.store, f.store, f.store, f.progress, locker, true)
	f.quizzes.Now = f.clock.Now
	f.enrollments = NewEnrollmentService(f.store, f.store, f.progress)
	f.enrollments.Now = f.clock.Now
	f.courses = NewCourseService(f.store, f.store, nil, "")
	f.courses.Refresher = NewRepairService(f.store, f.progress, 2)

	text1 := newContent(model.ContentText, "Reading", true)
	video1 := newContent(model.ContentVideo, "Lecture", true)
	video1.EmbeddedMedia = &model.EmbeddedMedia{MediaType: model.MediaCDN, EmbedURL: "https://cdn.example.com/l1.mp4", Duration: ptr(100)}
	file1 := newContent(model.ContentFile, "Slides", false)
	l1 := model.Lesson{Title: "Lesson 1", OrderIndex: 0, IsRequired: true, Contents: []model.LessonContent{text1, video1, file1}}
	l1.ID = model.GenerateUUID()

	l2 := model.Lesson{Title: "Lesson 2", OrderIndex: 1, IsRequired: true}
	l2.ID = model.GenerateUUID()
	quiz := &model.Quiz{LessonID: l2.ID, Title: "Check", PassScore: 70, MaxAttempts: 3}
	quiz.ID = model.GenerateUUID()
	for i := 0; i < 2; i++ {
		q := model.QuizQuestion{QuizID: quiz.ID, QuestionText: "Q", QuestionType: model.QuestionMultipleChoice, Points: 1, OrderIndex: i}
		q.ID = model.GenerateUUID()
		right := model.QuizOption{QuestionID: q.ID, OptionText: "right", IsCorrect: true, OrderIndex: 0}
		right.ID = model.GenerateUUID()
		wrong := model.QuizOption{QuestionID: q.ID, OptionText: "wrong", OrderIndex: 1}
		wrong.ID = model.GenerateUUID()
		q.Options = []model.QuizOption{right, wrong}
		quiz.Questions = append(quiz.Questions, q)
	}
	quizContent := newContent(model.ContentQuiz, "Check", true)
	quizContent.QuizID = &quiz.ID
	l2.Contents = []model.LessonContent{quizContent}

	text3 := newContent(model.ContentText, "Extra", true)
	l3 := model.Lesson{Title: "Lesson 3", OrderIndex: 2, IsRequired: false, Contents: []model.LessonContent{text3}}
	l3.ID = model.GenerateUUID()

	module := model.CourseModule{Title: "Module", Lessons: []model.Lesson{l1, l2, l3}}
	course := &model.Course{Title: "Go", Status: model.CoursePublished, Modules: []model.CourseModule{module}}
	require.NoError(t, f.store.CreateCourse(context.Background(), course, []model.Quiz{*quiz}))

	f.course = course
	f.quiz = quiz
	f.lesson1, f.text1, f.video1, f.file1 = l1.ID, text1.ID, video1.ID, file1.ID
	f.lesson2, f.quizContent2 = l2.ID, quizContent.ID
	f.lesson3, f.text3 = l3.ID, text3.ID
	f.q1, f.q1Right, f.q1Wrong = quiz.Questions[0].ID, quiz.Questions[0].Options[0].ID, quiz.Questions[0].Options[1].ID
	f.q2, f.q2Right, f.q2Wrong = quiz.Questions[1].ID, quiz.Questions[1].Options[0].ID, quiz.Questions[1].Options[1].ID
	return f
}

func (f *fixture) enroll(t *testing.T, userID string) *model.Enrollment {
	t.Helper()
	e, err := f.enrollments.Enroll(context.Background(), EnrollRequest{UserID: userID, CourseID: f.course.ID})
	require.NoError(t, err)
	return e
}

func (f *fixture) track(t *testing.T, enrollmentID, contentID string, eventType model.EventType, watched *int) *TrackEventResult {
	t.Helper()
	res, err := f.progress.TrackEvent(context.Background(), TrackEventRequest{
		EnrollmentID:    enrollmentID,
		LessonContentID: contentID,
		EventType:       eventType,
		WatchedDuration: watched,
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) passQuiz(t *testing.T, enrollmentID string) *SubmitAttemptResult {
	t.Helper()
	ctx := context.Background()
	started, err := f.quizzes.StartAttempt(ctx, f.quiz.ID, enrollmentID)
	require.NoError(t, err)
	res, err := f.quizzes.SubmitAttempt(ctx, started.Attempt.ID, f.answers(f.q1Right, f.q2Right))
	require.NoError(t, err)
	require.True(t, res.Passed)
	return res
}

func (f *fixture) answers(opt1, opt2 string) []progress.Answer {
	return []progress.Answer{
		{QuestionID: f.q1, OptionID: &opt1},
		{QuestionID: f.q2, OptionID: &opt2},
	}
}
