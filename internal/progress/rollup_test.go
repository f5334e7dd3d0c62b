package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lms_backend/internal/model"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func content(id string, typ model.ContentType, required bool) model.LessonContent {
	c := model.LessonContent{ContentType: typ, IsRequired: required, LessonID: "lesson-1"}
	c.ID = id
	return c
}

func event(seq uint, contentID string, at time.Time, completed bool) model.ProgressEvent {
	return model.ProgressEvent{ID: seq, LessonContentID: contentID, EventAt: at, IsCompleted: completed}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, Percent(0, 0))
	assert.Equal(t, 0.0, Percent(3, 0))
	assert.Equal(t, 50.0, Percent(1, 2))
	assert.Equal(t, 33.33, Percent(1, 3))
	assert.Equal(t, 66.67, Percent(2, 3))
	assert.Equal(t, 100.0, Percent(3, 3))
	assert.Equal(t, 100.0, Percent(4, 3))
}

func TestLatestByContentTieBreaksOnSequence(t *testing.T) {
	events := []model.ProgressEvent{
		event(2, "c1", t0, true),
		event(1, "c1", t0, false),
		event(3, "c2", t0.Add(time.Minute), true),
		event(4, "c2", t0, false),
	}
	latest := LatestByContent(events)
	require.Len(t, latest, 2)
	assert.Equal(t, uint(2), latest["c1"].ID)
	assert.True(t, latest["c1"].IsCompleted)
	assert.Equal(t, uint(3), latest["c2"].ID)
}

func TestRollupLessonUsesLatestEvent(t *testing.T) {
	contents := []model.LessonContent{
		content("text", model.ContentText, true),
		content("video", model.ContentVideo, true),
		content("extra", model.ContentFile, false),
	}
	events := []model.ProgressEvent{
		event(1, "text", t0, true),
		event(2, "video", t0, true),
		event(3, "video", t0.Add(time.Second), false),
		event(4, "extra", t0, true),
	}
	tally := RollupLesson("lesson-1", contents, LatestByContent(events), nil)
	assert.Equal(t, 2, tally.Required)
	assert.Equal(t, 1, tally.Completed)
	assert.Equal(t, 50.0, tally.Percent)
	assert.False(t, tally.IsCompleted)
}

func TestRollupLessonZeroRequired(t *testing.T) {
	contents := []model.LessonContent{content("opt", model.ContentText, false)}
	events := []model.ProgressEvent{event(1, "opt", t0, true)}
	tally := RollupLesson("lesson-1", contents, LatestByContent(events), nil)
	assert.Equal(t, 0.0, tally.Percent)
	assert.False(t, tally.IsCompleted)
}

func TestRollupLessonQuizPass(t *testing.T) {
	quizID := "quiz-1"
	q := content("quiz", model.ContentQuiz, true)
	q.QuizID = &quizID
	contents := []model.LessonContent{content("text", model.ContentText, true), q}

	t.Run("quiz content counts once passed", func(t *testing.T) {
		passes := []QuizPass{{QuizID: quizID, LessonID: "other", Score: 2, SubmittedAt: t0}}
		tally := RollupLesson("lesson-1", contents, nil, passes)
		assert.Equal(t, 1, tally.Completed)
		assert.Equal(t, 50.0, tally.Percent)
		assert.Nil(t, tally.QuizScore)
	})

	t.Run("pass on lesson quiz overrides tally", func(t *testing.T) {
		passes := []QuizPass{
			{QuizID: quizID, LessonID: "lesson-1", Score: 2, SubmittedAt: t0},
			{QuizID: quizID, LessonID: "lesson-1", Score: 3, SubmittedAt: t0.Add(time.Hour)},
		}
		tally := RollupLesson("lesson-1", contents, nil, passes)
		assert.Equal(t, 100.0, tally.Percent)
		assert.True(t, tally.IsCompleted)
		require.NotNil(t, tally.QuizScore)
		assert.Equal(t, 3.0, *tally.QuizScore)
	})
}

func TestApplyLessonTallyStickyCompletedAt(t *testing.T) {
	var s model.ProgressSummary
	ApplyLessonTally(&s, LessonTally{Percent: 100, IsCompleted: true}, t0, true)
	require.NotNil(t, s.CompletedAt)
	assert.Equal(t, t0, *s.CompletedAt)
	assert.Equal(t, t0, *s.LastAccessedAt)

	later := t0.Add(time.Hour)
	ApplyLessonTally(&s, LessonTally{Percent: 50}, later, true)
	assert.Equal(t, 50.0, s.CompletionPercent)
	assert.False(t, s.IsCompleted)
	assert.Equal(t, t0, *s.CompletedAt)
	assert.Equal(t, later, *s.LastAccessedAt)

	ApplyLessonTally(&s, LessonTally{Percent: 100, IsCompleted: true}, later.Add(time.Hour), false)
	assert.Equal(t, t0, *s.CompletedAt)
	assert.Equal(t, later, *s.LastAccessedAt)
}

func TestApplyQuizPassKeepsFirstCompletion(t *testing.T) {
	first := t0.Add(-time.Hour)
	s := model.ProgressSummary{CompletedAt: &first}
	ApplyQuizPass(&s, 4, t0)
	assert.Equal(t, 100.0, s.CompletionPercent)
	assert.True(t, s.IsCompleted)
	assert.Equal(t, 4.0, *s.QuizScore)
	assert.Equal(t, first, *s.CompletedAt)
}

func summary(lessonID string, completed bool) model.ProgressSummary {
	return model.ProgressSummary{LessonID: lessonID, IsCompleted: completed}
}

func TestRollupEnrollment(t *testing.T) {
	required := []string{"l1", "l2", "l3"}
	tally := RollupEnrollment(required, []model.ProgressSummary{
		summary("l1", true),
		summary("l2", false),
		summary("optional", true),
	})
	assert.Equal(t, 3, tally.Required)
	assert.Equal(t, 1, tally.Completed)
	assert.Equal(t, 33.33, tally.Percent)

	assert.Equal(t, 0.0, RollupEnrollment(nil, []model.ProgressSummary{summary("l1", true)}).Percent)
}

func TestNextStatus(t *testing.T) {
	tests := []struct {
		current model.EnrollmentStatus
		percent float64
		want    model.EnrollmentStatus
	}{
		{model.EnrollmentEnrolled, 0, model.EnrollmentEnrolled},
		{model.EnrollmentEnrolled, 50, model.EnrollmentInProgress},
		{model.EnrollmentInProgress, 100, model.EnrollmentCompleted},
		{model.EnrollmentInProgress, 0, model.EnrollmentEnrolled},
		{model.EnrollmentCompleted, 50, model.EnrollmentInProgress},
		{model.EnrollmentDropped, 100, model.EnrollmentDropped},
		{model.EnrollmentDropped, 0, model.EnrollmentDropped},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NextStatus(tt.current, tt.percent), "%s at %.0f%%", tt.current, tt.percent)
	}
}

func TestApplyEnrollmentTallyLifecycle(t *testing.T) {
	e := model.Enrollment{Status: model.EnrollmentEnrolled}

	changed := ApplyEnrollmentTally(&e, EnrollmentTally{Percent: 50}, t0)
	assert.True(t, changed)
	assert.Equal(t, model.EnrollmentInProgress, e.Status)
	assert.Nil(t, e.CompletedAt)

	ApplyEnrollmentTally(&e, EnrollmentTally{Percent: 100}, t0.Add(time.Hour))
	assert.Equal(t, model.EnrollmentCompleted, e.Status)
	require.NotNil(t, e.CompletedAt)
	completedAt := *e.CompletedAt

	ApplyEnrollmentTally(&e, EnrollmentTally{Percent: 50}, t0.Add(2*time.Hour))
	assert.Equal(t, model.EnrollmentInProgress, e.Status)
	assert.Equal(t, completedAt, *e.CompletedAt)

	ApplyEnrollmentTally(&e, EnrollmentTally{Percent: 100}, t0.Add(3*time.Hour))
	assert.Equal(t, completedAt, *e.CompletedAt)

	changed = ApplyEnrollmentTally(&e, EnrollmentTally{Percent: 100}, t0.Add(4*time.Hour))
	assert.False(t, changed)
}

func TestApplyEnrollmentTallyDropped(t *testing.T) {
	e := model.Enrollment{Status: model.EnrollmentDropped}
	changed := ApplyEnrollmentTally(&e, EnrollmentTally{Percent: 100}, t0)
	assert.False(t, changed)
	assert.Equal(t, model.EnrollmentDropped, e.Status)
	assert.Equal(t, 100.0, e.ProgressPercent)
	assert.Nil(t, e.CompletedAt)
}
