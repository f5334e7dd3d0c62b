package progress

import (
	"math"
	"time"

	"lms_backend/internal/model"
)

// Percent done/total*100，保留两位小数并限制在 [0,100]，total 为 0 时返回 0
func Percent(done, total int) float64 {
	if total <= 0 || done <= 0 {
		return 0
	}
	p := math.Round(float64(done)*100/float64(total)*100) / 100
	if p > 100 {
		return 100
	}
	return p
}

// Newer 判断 a 是否比 b 更新：先比 EventAt，相同再比插入序号
func Newer(a, b *model.ProgressEvent) bool {
	if !a.EventAt.Equal(b.EventAt) {
		return a.EventAt.After(b.EventAt)
	}
	return a.ID > b.ID
}

// LatestByContent 取每个内容最新的一条事件
func LatestByContent(events []model.ProgressEvent) map[string]model.ProgressEvent {
	latest := make(map[string]model.ProgressEvent, len(events))
	for i := range events {
		ev := &events[i]
		cur, ok := latest[ev.LessonContentID]
		if !ok || Newer(ev, &cur) {
			latest[ev.LessonContentID] = *ev
		}
	}
	return latest
}

// QuizPass 一次通过的测验作答
type QuizPass struct {
	AttemptID   string
	QuizID      string
	LessonID    string
	Score       float64
	SubmittedAt time.Time
}

func latestPass(passes []QuizPass, match func(QuizPass) bool) *QuizPass {
	var best *QuizPass
	for i := range passes {
		p := passes[i]
		if !match(p) {
			continue
		}
		if best == nil || p.SubmittedAt.After(best.SubmittedAt) {
			best = &p
		}
	}
	return best
}

// ContentCompleted 测验内容以其测验是否通过为准，其余内容以最新事件的 IsCompleted 为准
func ContentCompleted(c *model.LessonContent, latest map[string]model.ProgressEvent, passes []QuizPass) bool {
	if c.ContentType == model.ContentQuiz {
		return c.QuizID != nil && latestPass(passes, func(p QuizPass) bool { return p.QuizID == *c.QuizID }) != nil
	}
	ev, ok := latest[c.ID]
	return ok && ev.IsCompleted
}

type LessonTally struct {
	Required    int
	Completed   int
	Percent     float64
	IsCompleted bool
	QuizScore   *float64
}

// RollupLesson 统计课时的必修内容完成情况。
// 必修内容以其最新事件的 IsCompleted 为准，测验内容以其测验是否通过为准；
// 课时下任一测验通过则整个课时按 100% 计，QuizScore 取最近一次通过的得分
func RollupLesson(lessonID string, contents []model.LessonContent, latest map[string]model.ProgressEvent, passes []QuizPass) LessonTally {
	var t LessonTally
	for i := range contents {
		c := &contents[i]
		if !c.IsRequired {
			continue
		}
		t.Required++
		if ContentCompleted(c, latest, passes) {
			t.Completed++
		}
	}
	t.Percent = Percent(t.Completed, t.Required)

	if p := latestPass(passes, func(p QuizPass) bool { return p.LessonID == lessonID }); p != nil {
		score := p.Score
		t.Percent = 100
		t.QuizScore = &score
	}
	t.IsCompleted = t.Percent >= 100
	return t
}

// ApplyLessonTally 把统计结果写入汇总行。CompletedAt 只在第一次完成时写入；
// touch 为 true 时刷新 LastAccessedAt
func ApplyLessonTally(s *model.ProgressSummary, t LessonTally, now time.Time, touch bool) {
	s.CompletionPercent = t.Percent
	s.IsCompleted = t.IsCompleted
	s.QuizScore = t.QuizScore
	if s.IsCompleted && s.CompletedAt == nil {
		at := now
		s.CompletedAt = &at
	}
	if touch {
		at := now
		s.LastAccessedAt = &at
	}
}

// ApplyQuizPass 测验通过后直接把课时记为完成
func ApplyQuizPass(s *model.ProgressSummary, score float64, now time.Time) {
	s.CompletionPercent = 100
	s.IsCompleted = true
	s.QuizScore = &score
	if s.CompletedAt == nil {
		at := now
		s.CompletedAt = &at
	}
	at := now
	s.LastAccessedAt = &at
}

type EnrollmentTally struct {
	Required  int
	Completed int
	Percent   float64
}

// RollupEnrollment 统计必修课时中已完成的比例
func RollupEnrollment(requiredLessonIDs []string, summaries []model.ProgressSummary) EnrollmentTally {
	required := make(map[string]bool, len(requiredLessonIDs))
	for _, id := range requiredLessonIDs {
		required[id] = false
	}
	for i := range summaries {
		s := &summaries[i]
		if _, ok := required[s.LessonID]; ok && s.IsCompleted {
			required[s.LessonID] = true
		}
	}

	t := EnrollmentTally{Required: len(required)}
	for _, done := range required {
		if done {
			t.Completed++
		}
	}
	t.Percent = Percent(t.Completed, t.Required)
	return t
}

// NextStatus DROPPED 不会被进度计算改变；其余状态完全由百分比决定，允许回退到 ENROLLED
func NextStatus(current model.EnrollmentStatus, percent float64) model.EnrollmentStatus {
	switch {
	case current == model.EnrollmentDropped:
		return model.EnrollmentDropped
	case percent >= 100:
		return model.EnrollmentCompleted
	case percent > 0:
		return model.EnrollmentInProgress
	default:
		return model.EnrollmentEnrolled
	}
}

// ApplyEnrollmentTally 写入选课进度，返回状态是否变化
func ApplyEnrollmentTally(e *model.Enrollment, t EnrollmentTally, now time.Time) bool {
	prev := e.Status
	e.ProgressPercent = t.Percent
	e.Status = NextStatus(e.Status, t.Percent)
	if e.Status == model.EnrollmentCompleted && e.CompletedAt == nil {
		at := now
		e.CompletedAt = &at
	}
	return prev != e.Status
}
