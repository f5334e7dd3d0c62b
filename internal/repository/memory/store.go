// Package memory 内存版存储，实现 repository 中的全部接口，供服务层和接口层测试使用。
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/progress"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
)

var (
	_ repository.CourseStore     = (*Store)(nil)
	_ repository.EnrollmentStore = (*Store)(nil)
	_ repository.ProgressStore   = (*Store)(nil)
	_ repository.QuizStore       = (*Store)(nil)
	_ repository.AuditStore      = (*Store)(nil)
)

type Store struct {
	mu sync.RWMutex

	courses   map[string]model.Course
	modules   map[string]model.CourseModule
	lessons   map[string]model.Lesson
	contents  map[string]model.LessonContent
	media     map[string]model.EmbeddedMedia
	quizzes   map[string]model.Quiz
	questions map[string]model.QuizQuestion
	options   map[string]model.QuizOption

	enrollments map[string]model.Enrollment
	events      []model.ProgressEvent
	eventSeq    uint
	summaries   map[string]model.ProgressSummary
	attempts    map[string]model.QuizAttempt
	responses   map[string][]model.QuizResponse
	auditLogs   []model.AuditLog

	// 测试注入：在 CreateAttempt 写入前调用
	BeforeCreateAttempt func(a *model.QuizAttempt)
}

func New() *Store {
	return &Store{
		courses:     map[string]model.Course{},
		modules:     map[string]model.CourseModule{},
		lessons:     map[string]model.Lesson{},
		contents:    map[string]model.LessonContent{},
		media:       map[string]model.EmbeddedMedia{},
		quizzes:     map[string]model.Quiz{},
		questions:   map[string]model.QuizQuestion{},
		options:     map[string]model.QuizOption{},
		enrollments: map[string]model.Enrollment{},
		summaries:   map[string]model.ProgressSummary{},
		attempts:    map[string]model.QuizAttempt{},
		responses:   map[string][]model.QuizResponse{},
	}
}

func now() time.Time { return time.Now().UTC() }

func stamp(b *model.UUIDBase) {
	if b.ID == "" {
		b.ID = model.GenerateUUID()
	}
	t := now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = t
	}
	b.UpdatedAt = t
}

func summaryKey(enrollmentID, lessonID string) string {
	return enrollmentID + "|" + lessonID
}

// ---- courses ----

func (s *Store) CreateCourse(ctx context.Context, course *model.Course, quizzes []model.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp(&course.UUIDBase)
	for mi := range course.Modules {
		m := &course.Modules[mi]
		stamp(&m.UUIDBase)
		m.CourseID = course.ID
		for li := range m.Lessons {
			l := &m.Lessons[li]
			stamp(&l.UUIDBase)
			l.ModuleID = m.ID
			for ci := range l.Contents {
				c := &l.Contents[ci]
				stamp(&c.UUIDBase)
				c.LessonID = l.ID
				if c.EmbeddedMedia != nil {
					stamp(&c.EmbeddedMedia.UUIDBase)
					id := c.EmbeddedMedia.ID
					c.EmbeddedMediaID = &id
					s.media[id] = *c.EmbeddedMedia
				}
				stored := *c
				stored.EmbeddedMedia = nil
				s.contents[c.ID] = stored
			}
			stored := *l
			stored.Contents = nil
			s.lessons[l.ID] = stored
		}
		stored := *m
		stored.Lessons = nil
		s.modules[m.ID] = stored
	}
	stored := *course
	stored.Modules = nil
	s.courses[course.ID] = stored

	for i := range quizzes {
		s.putQuiz(&quizzes[i])
	}
	return nil
}

func (s *Store) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[id]
	if !ok {
		return nil, util.ErrCourseNotFound
	}
	return &c, nil
}

func (s *Store) GetCourseTree(ctx context.Context, id string) (*model.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[id]
	if !ok {
		return nil, util.ErrCourseNotFound
	}
	for _, m := range s.modules {
		if m.CourseID != id {
			continue
		}
		for _, l := range s.lessons {
			if l.ModuleID != m.ID {
				continue
			}
			l.Contents = s.lessonContents(l.ID)
			m.Lessons = append(m.Lessons, l)
		}
		sort.Slice(m.Lessons, func(i, j int) bool {
			return lessThan(m.Lessons[i].OrderIndex, m.Lessons[j].OrderIndex, m.Lessons[i].ID, m.Lessons[j].ID)
		})
		c.Modules = append(c.Modules, m)
	}
	sort.Slice(c.Modules, func(i, j int) bool {
		return lessThan(c.Modules[i].OrderIndex, c.Modules[j].OrderIndex, c.Modules[i].ID, c.Modules[j].ID)
	})
	return &c, nil
}

func lessThan(oi, oj int, idi, idj string) bool {
	if oi != oj {
		return oi < oj
	}
	return idi < idj
}

func (s *Store) ListCourses(ctx context.Context, status model.CourseStatus) ([]model.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Course
	for _, c := range s.courses {
		if status == "" || c.Status == status {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateCourseStatus(ctx context.Context, id string, status model.CourseStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[id]
	if !ok {
		return util.ErrCourseNotFound
	}
	c.Status = status
	c.UpdatedAt = now()
	s.courses[id] = c
	return nil
}

func (s *Store) CountModules(ctx context.Context, courseID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, m := range s.modules {
		if m.CourseID == courseID {
			n++
		}
	}
	return n, nil
}

func (s *Store) position(l model.Lesson) (repository.LessonPosition, bool) {
	m, ok := s.modules[l.ModuleID]
	if !ok {
		return repository.LessonPosition{}, false
	}
	return repository.LessonPosition{
		LessonID:    l.ID,
		ModuleID:    m.ID,
		CourseID:    m.CourseID,
		ModuleOrder: m.OrderIndex,
		LessonOrder: l.OrderIndex,
		IsRequired:  l.IsRequired,
		Title:       l.Title,
	}, true
}

func (s *Store) GetLessonPosition(ctx context.Context, lessonID string) (*repository.LessonPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lessons[lessonID]
	if !ok {
		return nil, util.ErrLessonNotFound
	}
	p, ok := s.position(l)
	if !ok {
		return nil, util.ErrLessonNotFound
	}
	return &p, nil
}

func (s *Store) ListCourseLessons(ctx context.Context, courseID string) ([]repository.LessonPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []repository.LessonPosition
	for _, l := range s.lessons {
		if p, ok := s.position(l); ok && p.CourseID == courseID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ModuleOrder != out[j].ModuleOrder {
			return out[i].ModuleOrder < out[j].ModuleOrder
		}
		if out[i].ModuleID != out[j].ModuleID {
			return out[i].ModuleID < out[j].ModuleID
		}
		return lessThan(out[i].LessonOrder, out[j].LessonOrder, out[i].LessonID, out[j].LessonID)
	})
	return out, nil
}

func (s *Store) withMedia(c model.LessonContent) model.LessonContent {
	if c.EmbeddedMediaID != nil {
		if m, ok := s.media[*c.EmbeddedMediaID]; ok {
			c.EmbeddedMedia = &m
		}
	}
	return c
}

func (s *Store) GetContent(ctx context.Context, id string) (*model.LessonContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contents[id]
	if !ok {
		return nil, util.ErrContentNotFound
	}
	c = s.withMedia(c)
	return &c, nil
}

func (s *Store) lessonContents(lessonID string) []model.LessonContent {
	var out []model.LessonContent
	for _, c := range s.contents {
		if c.LessonID == lessonID {
			out = append(out, s.withMedia(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return lessThan(out[i].OrderIndex, out[j].OrderIndex, out[i].ID, out[j].ID)
	})
	return out
}

func (s *Store) ListLessonContents(ctx context.Context, lessonID string) ([]model.LessonContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lessonContents(lessonID), nil
}

func (s *Store) UpdateCourse(ctx context.Context, course *model.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[course.ID]
	if !ok {
		return util.ErrCourseNotFound
	}
	c.Title = course.Title
	c.Description = course.Description
	c.Status = course.Status
	c.UpdatedAt = now()
	s.courses[c.ID] = c
	return nil
}

func (s *Store) CreateModule(ctx context.Context, m *model.CourseModule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[m.CourseID]; !ok {
		return util.ErrCourseNotFound
	}
	stamp(&m.UUIDBase)
	stored := *m
	stored.Lessons = nil
	s.modules[m.ID] = stored
	return nil
}

func (s *Store) GetModule(ctx context.Context, id string) (*model.CourseModule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.modules[id]
	if !ok {
		return nil, util.ErrModuleNotFound
	}
	return &m, nil
}

func (s *Store) UpdateModule(ctx context.Context, m *model.CourseModule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.modules[m.ID]
	if !ok {
		return util.ErrModuleNotFound
	}
	cur.Title = m.Title
	cur.Description = m.Description
	cur.OrderIndex = m.OrderIndex
	cur.UpdatedAt = now()
	s.modules[m.ID] = cur
	return nil
}

func (s *Store) DeleteModule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.modules[id]; !ok {
		return util.ErrModuleNotFound
	}
	for lid, l := range s.lessons {
		if l.ModuleID == id {
			s.deleteLesson(lid)
		}
	}
	delete(s.modules, id)
	return nil
}

func (s *Store) CreateLesson(ctx context.Context, l *model.Lesson) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.modules[l.ModuleID]; !ok {
		return util.ErrModuleNotFound
	}
	stamp(&l.UUIDBase)
	stored := *l
	stored.Contents = nil
	s.lessons[l.ID] = stored
	return nil
}

func (s *Store) GetLesson(ctx context.Context, id string) (*model.Lesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lessons[id]
	if !ok {
		return nil, util.ErrLessonNotFound
	}
	return &l, nil
}

func (s *Store) UpdateLesson(ctx context.Context, l *model.Lesson) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.lessons[l.ID]
	if !ok {
		return util.ErrLessonNotFound
	}
	cur.Title = l.Title
	cur.Description = l.Description
	cur.OrderIndex = l.OrderIndex
	cur.IsRequired = l.IsRequired
	cur.EstimatedDuration = l.EstimatedDuration
	cur.UpdatedAt = now()
	s.lessons[l.ID] = cur
	return nil
}

func (s *Store) DeleteLesson(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lessons[id]; !ok {
		return util.ErrLessonNotFound
	}
	s.deleteLesson(id)
	return nil
}

func (s *Store) deleteLesson(id string) {
	for cid, c := range s.contents {
		if c.LessonID == id {
			s.deleteContent(cid)
		}
	}
	delete(s.lessons, id)
}

func (s *Store) CreateContent(ctx context.Context, c *model.LessonContent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lessons[c.LessonID]; !ok {
		return util.ErrLessonNotFound
	}
	stamp(&c.UUIDBase)
	if c.EmbeddedMedia != nil {
		stamp(&c.EmbeddedMedia.UUIDBase)
		id := c.EmbeddedMedia.ID
		c.EmbeddedMediaID = &id
		s.media[id] = *c.EmbeddedMedia
	}
	stored := *c
	stored.EmbeddedMedia = nil
	s.contents[c.ID] = stored
	return nil
}

func (s *Store) UpdateContent(ctx context.Context, c *model.LessonContent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.contents[c.ID]
	if !ok {
		return util.ErrContentNotFound
	}
	cur.Title = c.Title
	cur.OrderIndex = c.OrderIndex
	cur.IsRequired = c.IsRequired
	cur.TextContent = c.TextContent
	cur.FileURL = c.FileURL
	cur.UpdatedAt = now()
	s.contents[c.ID] = cur
	if c.EmbeddedMedia != nil {
		if m, ok := s.media[c.EmbeddedMedia.ID]; ok {
			m.Duration = c.EmbeddedMedia.Duration
			m.UpdatedAt = now()
			s.media[m.ID] = m
		}
	}
	return nil
}

func (s *Store) DeleteContent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contents[id]; !ok {
		return util.ErrContentNotFound
	}
	s.deleteContent(id)
	return nil
}

func (s *Store) deleteContent(id string) {
	if c, ok := s.contents[id]; ok && c.EmbeddedMediaID != nil {
		delete(s.media, *c.EmbeddedMediaID)
	}
	delete(s.contents, id)
}

// ---- enrollments ----

func (s *Store) CreateEnrollment(ctx context.Context, e *model.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.enrollments {
		if existing.UserID == e.UserID && existing.CourseID == e.CourseID {
			return util.ErrAlreadyEnrolled
		}
	}
	stamp(&e.UUIDBase)
	s.enrollments[e.ID] = *e
	return nil
}

func (s *Store) GetEnrollment(ctx context.Context, id string) (*model.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.enrollments[id]
	if !ok {
		return nil, util.ErrEnrollmentNotFound
	}
	return &e, nil
}

func (s *Store) ListEnrollments(ctx context.Context, f repository.EnrollmentFilter) ([]model.Enrollment, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []model.Enrollment
	for _, e := range s.enrollments {
		if f.UserID != "" && e.UserID != f.UserID {
			continue
		}
		if f.CourseID != "" && e.CourseID != f.CourseID {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].EnrolledAt.Equal(all[j].EnrolledAt) {
			return all[i].EnrolledAt.After(all[j].EnrolledAt)
		}
		return all[i].ID < all[j].ID
	})
	total := int64(len(all))
	if f.Limit > 0 {
		start := (f.Page - 1) * f.Limit
		if start > len(all) {
			start = len(all)
		}
		end := start + f.Limit
		if end > len(all) {
			end = len(all)
		}
		all = all[start:end]
	}
	return all, total, nil
}

func (s *Store) UpdateEnrollment(ctx context.Context, e *model.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.enrollments[e.ID]
	if !ok {
		return util.ErrEnrollmentNotFound
	}
	cur.Status = e.Status
	cur.ProgressPercent = e.ProgressPercent
	cur.CompletedAt = e.CompletedAt
	cur.UpdatedAt = now()
	s.enrollments[e.ID] = cur
	return nil
}

func (s *Store) ListEnrollmentIDs(ctx context.Context, courseID string, exclude model.EnrollmentStatus) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for id, e := range s.enrollments {
		if courseID != "" && e.CourseID != courseID {
			continue
		}
		if exclude == "" || e.Status != exclude {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ---- progress ----

func (s *Store) AppendEvent(ctx context.Context, ev *model.ProgressEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventSeq++
	ev.ID = s.eventSeq
	ev.CreatedAt = now()
	s.events = append(s.events, *ev)
	return nil
}

func (s *Store) ListEvents(ctx context.Context, enrollmentID string, contentIDs []string) ([]model.ProgressEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var wanted map[string]bool
	if contentIDs != nil {
		wanted = make(map[string]bool, len(contentIDs))
		for _, id := range contentIDs {
			wanted[id] = true
		}
	}
	var out []model.ProgressEvent
	for _, ev := range s.events {
		if ev.EnrollmentID != enrollmentID {
			continue
		}
		if wanted != nil && !wanted[ev.LessonContentID] {
			continue
		}
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].EventAt.Equal(out[j].EventAt) {
			return out[i].EventAt.Before(out[j].EventAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetSummary(ctx context.Context, enrollmentID, lessonID string) (*model.ProgressSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum, ok := s.summaries[summaryKey(enrollmentID, lessonID)]
	if !ok {
		return nil, util.ErrSummaryNotFound
	}
	return &sum, nil
}

func (s *Store) SaveSummary(ctx context.Context, sum *model.ProgressSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := summaryKey(sum.EnrollmentID, sum.LessonID)
	if existing, ok := s.summaries[key]; ok {
		sum.ID = existing.ID
		sum.CreatedAt = existing.CreatedAt
	}
	stamp(&sum.UUIDBase)
	s.summaries[key] = *sum
	return nil
}

func (s *Store) ListSummaries(ctx context.Context, enrollmentID string, lessonIDs []string) ([]model.ProgressSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var wanted map[string]bool
	if lessonIDs != nil {
		wanted = make(map[string]bool, len(lessonIDs))
		for _, id := range lessonIDs {
			wanted[id] = true
		}
	}
	var out []model.ProgressSummary
	for _, sum := range s.summaries {
		if sum.EnrollmentID != enrollmentID {
			continue
		}
		if wanted != nil && !wanted[sum.LessonID] {
			continue
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LessonID < out[j].LessonID })
	return out, nil
}

// ---- quizzes ----

func (s *Store) putQuiz(q *model.Quiz) {
	stamp(&q.UUIDBase)
	for qi := range q.Questions {
		question := &q.Questions[qi]
		stamp(&question.UUIDBase)
		question.QuizID = q.ID
		for oi := range question.Options {
			o := &question.Options[oi]
			stamp(&o.UUIDBase)
			o.QuestionID = question.ID
			s.options[o.ID] = *o
		}
		stored := *question
		stored.Options = nil
		s.questions[question.ID] = stored
	}
	stored := *q
	stored.Questions = nil
	s.quizzes[q.ID] = stored
}

func (s *Store) CreateQuiz(ctx context.Context, q *model.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putQuiz(q)
	return nil
}

func (s *Store) UpdateQuiz(ctx context.Context, q *model.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.quizzes[q.ID]
	if !ok {
		return util.ErrQuizNotFound
	}
	cur.Title = q.Title
	cur.Description = q.Description
	cur.PassScore = q.PassScore
	cur.TimeLimit = q.TimeLimit
	cur.MaxAttempts = q.MaxAttempts
	cur.ShuffleQuestions = q.ShuffleQuestions
	cur.UpdatedAt = now()
	s.quizzes[q.ID] = cur
	return nil
}

func (s *Store) UpdateQuestion(ctx context.Context, q *model.QuizQuestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.questions[q.ID]
	if !ok {
		return util.ErrQuizNotFound
	}
	cur.QuestionText = q.QuestionText
	cur.Points = q.Points
	cur.OrderIndex = q.OrderIndex
	cur.UpdatedAt = now()
	s.questions[q.ID] = cur
	return nil
}

func (s *Store) GetQuiz(ctx context.Context, id string) (*model.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quizzes[id]
	if !ok {
		return nil, util.ErrQuizNotFound
	}
	for _, question := range s.questions {
		if question.QuizID != id {
			continue
		}
		for _, o := range s.options {
			if o.QuestionID == question.ID {
				question.Options = append(question.Options, o)
			}
		}
		sort.Slice(question.Options, func(i, j int) bool {
			return lessThan(question.Options[i].OrderIndex, question.Options[j].OrderIndex, question.Options[i].ID, question.Options[j].ID)
		})
		q.Questions = append(q.Questions, question)
	}
	sort.Slice(q.Questions, func(i, j int) bool {
		return lessThan(q.Questions[i].OrderIndex, q.Questions[j].OrderIndex, q.Questions[i].ID, q.Questions[j].ID)
	})
	return &q, nil
}

func (s *Store) ListQuizzes(ctx context.Context, lessonID string) ([]model.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Quiz
	for _, q := range s.quizzes {
		if lessonID == "" || q.LessonID == lessonID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CountAttempts(ctx context.Context, quizID, enrollmentID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, a := range s.attempts {
		if a.QuizID == quizID && a.EnrollmentID == enrollmentID {
			n++
		}
	}
	return n, nil
}

func (s *Store) CreateAttempt(ctx context.Context, a *model.QuizAttempt) error {
	if s.BeforeCreateAttempt != nil {
		s.BeforeCreateAttempt(a)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.attempts {
		if existing.QuizID == a.QuizID && existing.EnrollmentID == a.EnrollmentID && existing.AttemptNumber == a.AttemptNumber {
			return util.ErrAttemptNumberTaken
		}
	}
	stamp(&a.UUIDBase)
	s.attempts[a.ID] = *a
	return nil
}

func (s *Store) GetAttempt(ctx context.Context, id string) (*model.QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attempts[id]
	if !ok {
		return nil, util.ErrAttemptNotFound
	}
	a.Responses = append([]model.QuizResponse(nil), s.responses[id]...)
	return &a, nil
}

func (s *Store) GradeAttempt(ctx context.Context, a *model.QuizAttempt, responses []model.QuizResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.attempts[a.ID]
	if !ok {
		return util.ErrAttemptNotFound
	}
	if cur.Status != model.AttemptInProgress {
		return util.ErrAttemptAlreadySubmitted
	}
	cur.Status = a.Status
	cur.Score = a.Score
	cur.Passed = a.Passed
	cur.SubmittedAt = a.SubmittedAt
	cur.UpdatedAt = now()
	s.attempts[a.ID] = cur

	stored := make([]model.QuizResponse, len(responses))
	for i := range responses {
		stamp(&responses[i].UUIDBase)
		responses[i].AttemptID = a.ID
		stored[i] = responses[i]
	}
	s.responses[a.ID] = stored
	return nil
}

func (s *Store) ListAttempts(ctx context.Context, f repository.AttemptFilter) ([]model.QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.QuizAttempt
	for _, a := range s.attempts {
		if f.QuizID != "" && a.QuizID != f.QuizID {
			continue
		}
		if f.EnrollmentID != "" && a.EnrollmentID != f.EnrollmentID {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].AttemptNumber > out[j].AttemptNumber
	})
	return out, nil
}

func (s *Store) ListPasses(ctx context.Context, enrollmentID string) ([]progress.QuizPass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []progress.QuizPass
	for _, a := range s.attempts {
		if a.EnrollmentID != enrollmentID || a.Status != model.AttemptGraded || a.Passed == nil || !*a.Passed {
			continue
		}
		p := progress.QuizPass{AttemptID: a.ID, QuizID: a.QuizID, LessonID: s.quizzes[a.QuizID].LessonID}
		if a.Score != nil {
			p.Score = *a.Score
		}
		if a.SubmittedAt != nil {
			p.SubmittedAt = *a.SubmittedAt
		}
		out = append(out, p)
	}
	return out, nil
}

// ---- audit ----

func (s *Store) CreateAuditLog(ctx context.Context, log *model.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp(&log.UUIDBase)
	s.auditLogs = append(s.auditLogs, *log)
	return nil
}

func (s *Store) ListByEntity(ctx context.Context, entityType, entityID string) ([]model.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.AuditLog
	for i := len(s.auditLogs) - 1; i >= 0; i-- {
		l := s.auditLogs[i]
		if l.EntityType == entityType && l.EntityID == entityID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *Store) AuditLogs() []model.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.AuditLog(nil), s.auditLogs...)
}

// Events 返回事件日志副本
func (s *Store) Events() []model.ProgressEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.ProgressEvent(nil), s.events...)
}
