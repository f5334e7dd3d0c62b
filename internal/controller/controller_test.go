package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lms_backend/internal/middleware"
	"lms_backend/internal/model"
	"lms_backend/internal/repository/memory"
	"lms_backend/internal/service"
	"lms_backend/internal/util"
	"lms_backend/pkg/keylock"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "controller-test-secret-controller-test"

const testCourse = `
title: HTTP course
publish: true
modules:
  - title: Basics
    lessons:
      - title: Read
        contents:
          - type: TEXT
            title: Intro
            text: hello
      - title: Check
        contents:
          - type: QUIZ
            title: Quiz
            quiz:
              title: Check quiz
              passScore: 60
              questions:
                - questionText: Is Go compiled?
                  questionType: TRUE_FALSE
                  options:
                    - optionText: "yes"
                      isCorrect: true
                    - optionText: "no"
`

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router *gin.Engine
	store  *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := memory.New()
	locker := keylock.NewLocalLocker()

	progressSvc := service.NewProgressService(store, store, store, store, locker)
	quizSvc := service.NewQuizService(store, store, store, progressSvc, locker, true)
	enrollmentSvc := service.NewEnrollmentService(store, store, progressSvc)
	courseSvc := service.NewCourseService(store, store, nil, "")
	courseSvc.Refresher = service.NewRepairService(store, progressSvc, 2)

	guard := EnrollmentGuard{Enrollments: store}
	progressCtl := NewProgressController(progressSvc, guard)
	quizCtl := NewQuizController(quizSvc, guard)
	enrollmentCtl := NewEnrollmentController(enrollmentSvc, progressSvc, guard)
	courseCtl := NewCourseController(courseSvc)
	auditCtl := NewAuditController(store)

	r := gin.New()
	api := r.Group("/api", middleware.AuthMiddleware(testSecret))
	api.POST("/progress/events", progressCtl.TrackEvent)
	api.GET("/progress/summary", progressCtl.GetSummary)
	api.GET("/progress/:enrollmentId/lessons/:lessonId", progressCtl.GetDetailedProgress)
	api.GET("/quizzes", quizCtl.ListQuizzes)
	api.GET("/quizzes/attempts", quizCtl.ListAttempts)
	api.GET("/quizzes/:id", quizCtl.GetQuiz)
	api.POST("/quizzes/:id/attempts", quizCtl.StartAttempt)
	api.POST("/quizzes/attempts/:id/submit", quizCtl.SubmitAttempt)
	api.GET("/enrollments", enrollmentCtl.ListEnrollments)
	api.GET("/enrollments/:id", enrollmentCtl.GetEnrollment)
	api.GET("/courses", courseCtl.ListCourses)
	api.GET("/courses/:id", courseCtl.GetCourse)

	admin := r.Group("/api", middleware.AuthMiddleware(testSecret), middleware.RoleMiddleware(util.RoleAdmin))
	enrollments := admin.Group("/enrollments", middleware.Audit(store, "enrollment"))
	enrollments.POST("", enrollmentCtl.Enroll)
	enrollments.POST("/bulk", enrollmentCtl.BulkEnroll)
	enrollments.PUT("/:id", enrollmentCtl.UpdateEnrollment)
	enrollments.DELETE("/:id", enrollmentCtl.DropEnrollment)
	enrollments.POST("/:id/rebuild", enrollmentCtl.RebuildEnrollment)
	auditCourse := middleware.Audit(store, "course")
	admin.POST("/courses/import", auditCourse, courseCtl.ImportCourse)
	admin.POST("/courses/:id/publish", auditCourse, courseCtl.PublishCourse)
	admin.PUT("/courses/:id", auditCourse, courseCtl.UpdateCourse)
	admin.DELETE("/courses/:id", auditCourse, courseCtl.DeleteCourse)
	admin.POST("/courses/:id/modules", middleware.Audit(store, "module"), courseCtl.CreateModule)
	admin.PUT("/modules/:id", middleware.Audit(store, "module"), courseCtl.UpdateModule)
	admin.DELETE("/modules/:id", middleware.Audit(store, "module"), courseCtl.DeleteModule)
	admin.POST("/modules/:id/lessons", middleware.Audit(store, "lesson"), courseCtl.CreateLesson)
	admin.PUT("/lessons/:id", middleware.Audit(store, "lesson"), courseCtl.UpdateLesson)
	admin.DELETE("/lessons/:id", middleware.Audit(store, "lesson"), courseCtl.DeleteLesson)
	admin.POST("/lessons/:id/contents", middleware.Audit(store, "content"), courseCtl.CreateContent)
	admin.PUT("/contents/:id", middleware.Audit(store, "content"), courseCtl.UpdateContent)
	admin.DELETE("/contents/:id", middleware.Audit(store, "content"), courseCtl.DeleteContent)
	admin.GET("/audit-logs", auditCtl.ListAuditLogs)

	return &testServer{router: r, store: store}
}

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := util.GenerateJWT(userID, role, userID+"@example.com", testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v), string(env.Data))
	return v
}

// importCourse 导入课程并返回完整课程树
func (s *testServer) importCourse(t *testing.T, admin string) model.Course {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/courses/import", admin, testCourse)
	require.Equal(t, http.StatusCreated, code, env.Message)
	imported := decode[model.Course](t, env)

	code, env = s.do(t, http.MethodGet, "/api/courses/"+imported.ID, admin, nil)
	require.Equal(t, http.StatusOK, code)
	return decode[model.Course](t, env)
}

func (s *testServer) enroll(t *testing.T, admin, userID, courseID string) model.Enrollment {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/enrollments", admin, service.EnrollRequest{UserID: userID, CourseID: courseID})
	require.Equal(t, http.StatusCreated, code, env.Message)
	return decode[model.Enrollment](t, env)
}

func TestLearnerCompletesCourseOverHTTP(t *testing.T) {
	s := newTestServer(t)
	admin := bearer(t, "admin-1", util.RoleAdmin)
	learner := bearer(t, "learner-1", util.RoleStudent)

	course := s.importCourse(t, admin)
	require.Len(t, course.Modules, 1)
	lessons := course.Modules[0].Lessons
	require.Len(t, lessons, 2)
	textContent := lessons[0].Contents[0]
	quizContent := lessons[1].Contents[0]
	require.NotNil(t, quizContent.QuizID)

	e := s.enroll(t, admin, "learner-1", course.ID)
	assert.Equal(t, model.EnrollmentEnrolled, e.Status)

	code, env := s.do(t, http.MethodPost, "/api/progress/events", learner, service.TrackEventRequest{
		EnrollmentID:    e.ID,
		LessonContentID: textContent.ID,
		EventType:       model.EventView,
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	tracked := decode[service.TrackEventResult](t, env)
	assert.True(t, tracked.IsCompleted)

	// 答题卷不带正确答案
	code, env = s.do(t, http.MethodGet, "/api/quizzes/"+*quizContent.QuizID, learner, nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, string(env.Data), "isCorrect")

	code, env = s.do(t, http.MethodGet, "/api/quizzes/"+*quizContent.QuizID+"?includeAnswers=true", admin, nil)
	require.Equal(t, http.StatusOK, code)
	full := decode[model.Quiz](t, env)
	require.Len(t, full.Questions, 1)
	var correct string
	for _, o := range full.Questions[0].Options {
		if o.IsCorrect {
			correct = o.ID
		}
	}
	require.NotEmpty(t, correct)

	code, env = s.do(t, http.MethodPost, "/api/quizzes/"+*quizContent.QuizID+"/attempts", learner, StartAttemptRequest{EnrollmentID: e.ID})
	require.Equal(t, http.StatusCreated, code, env.Message)
	started := decode[service.StartAttemptResult](t, env)
	assert.Equal(t, 1, started.Attempt.AttemptNumber)

	code, env = s.do(t, http.MethodPost, "/api/quizzes/attempts/"+started.Attempt.ID+"/submit", learner, gin.H{
		"responses": []gin.H{{"questionId": full.Questions[0].ID, "optionId": correct}},
	})
	require.Equal(t, http.StatusOK, code, env.Message)
	submitted := decode[service.SubmitAttemptResult](t, env)
	assert.True(t, submitted.Passed)
	require.NotNil(t, submitted.Enrollment)
	assert.Equal(t, model.EnrollmentCompleted, submitted.Enrollment.Status)
	assert.InDelta(t, 100, submitted.Enrollment.ProgressPercent, 0.001)

	// 重复提交
	code, _ = s.do(t, http.MethodPost, "/api/quizzes/attempts/"+started.Attempt.ID+"/submit", learner, gin.H{"responses": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodGet, "/api/progress/summary?enrollmentId="+e.ID, learner, nil)
	require.Equal(t, http.StatusOK, code)
	summaries := decode[struct {
		ProgressSummaries []service.LessonSummary `json:"progressSummaries"`
	}](t, env)
	require.Len(t, summaries.ProgressSummaries, 2)
	assert.Equal(t, lessons[0].ID, summaries.ProgressSummaries[0].LessonID)
	for _, ls := range summaries.ProgressSummaries {
		assert.True(t, ls.IsCompleted)
	}

	code, env = s.do(t, http.MethodGet, "/api/progress/"+e.ID+"/lessons/"+lessons[0].ID, learner, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), textContent.ID)

	code, env = s.do(t, http.MethodGet, "/api/quizzes/attempts?enrollmentId="+e.ID, learner, nil)
	require.Equal(t, http.StatusOK, code)
	attempts := decode[[]model.QuizAttempt](t, env)
	assert.Len(t, attempts, 1)
}

func TestLearnerCannotReadOthersProgress(t *testing.T) {
	s := newTestServer(t)
	admin := bearer(t, "admin-1", util.RoleAdmin)
	course := s.importCourse(t, admin)
	e := s.enroll(t, admin, "owner", course.ID)
	intruder := bearer(t, "intruder", util.RoleStudent)

	code, _ := s.do(t, http.MethodGet, "/api/progress/summary?enrollmentId="+e.ID, intruder, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodGet, "/api/enrollments/"+e.ID, intruder, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodPost, "/api/progress/events", intruder, service.TrackEventRequest{
		EnrollmentID:    e.ID,
		LessonContentID: course.Modules[0].Lessons[0].Contents[0].ID,
		EventType:       model.EventView,
	})
	assert.Equal(t, http.StatusForbidden, code)

	// 列表只返回自己的选课
	code, env := s.do(t, http.MethodGet, "/api/enrollments?userId=owner", intruder, nil)
	require.Equal(t, http.StatusOK, code)
	page := decode[struct {
		List  []model.Enrollment `json:"list"`
		Total int64              `json:"total"`
	}](t, env)
	assert.Empty(t, page.List)
	assert.Zero(t, page.Total)

	code, _ = s.do(t, http.MethodGet, "/api/quizzes/attempts", intruder, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestProgressErrorResponses(t *testing.T) {
	s := newTestServer(t)
	admin := bearer(t, "admin-1", util.RoleAdmin)
	course := s.importCourse(t, admin)
	e := s.enroll(t, admin, "learner-1", course.ID)
	learner := bearer(t, "learner-1", util.RoleStudent)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		code   int
	}{
		{"summary without enrollment", http.MethodGet, "/api/progress/summary", nil, http.StatusBadRequest},
		{"unknown enrollment", http.MethodGet, "/api/progress/summary?enrollmentId=missing", nil, http.StatusNotFound},
		{"unknown content", http.MethodPost, "/api/progress/events", service.TrackEventRequest{
			EnrollmentID: e.ID, LessonContentID: "missing", EventType: model.EventView,
		}, http.StatusNotFound},
		{"unknown event type", http.MethodPost, "/api/progress/events", service.TrackEventRequest{
			EnrollmentID: e.ID, LessonContentID: course.Modules[0].Lessons[0].Contents[0].ID, EventType: "PLAY",
		}, http.StatusBadRequest},
		{"missing fields", http.MethodPost, "/api/progress/events", gin.H{}, http.StatusBadRequest},
		{"unknown lesson", http.MethodGet, "/api/progress/" + e.ID + "/lessons/missing", nil, http.StatusNotFound},
		{"unknown quiz", http.MethodPost, "/api/quizzes/missing/attempts", StartAttemptRequest{EnrollmentID: e.ID}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := s.do(t, tt.method, tt.path, learner, tt.body)
			assert.Equal(t, tt.code, code)
		})
	}

	code, _ := s.do(t, http.MethodGet, "/api/progress/summary?enrollmentId="+e.ID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAdminEnrollmentLifecycle(t *testing.T) {
	s := newTestServer(t)
	admin := bearer(t, "admin-1", util.RoleAdmin)
	course := s.importCourse(t, admin)

	// 学员不能选课
	code, _ := s.do(t, http.MethodPost, "/api/enrollments", bearer(t, "u1", util.RoleStudent),
		service.EnrollRequest{UserID: "u1", CourseID: course.ID})
	assert.Equal(t, http.StatusForbidden, code)

	e := s.enroll(t, admin, "u1", course.ID)
	code, _ = s.do(t, http.MethodPost, "/api/enrollments", admin, service.EnrollRequest{UserID: "u1", CourseID: course.ID})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := s.do(t, http.MethodPost, "/api/enrollments/bulk", admin, service.BulkEnrollRequest{
		CourseID: course.ID, UserIDs: []string{"u1", "u2", "u3"},
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	bulk := decode[service.BulkEnrollResult](t, env)
	assert.Len(t, bulk.Created, 2)
	require.Len(t, bulk.Failed, 1)
	assert.Equal(t, "u1", bulk.Failed[0].UserID)

	code, env = s.do(t, http.MethodDelete, "/api/enrollments/"+e.ID, admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, model.EnrollmentDropped, decode[model.Enrollment](t, env).Status)

	code, env = s.do(t, http.MethodPut, "/api/enrollments/"+e.ID, admin, service.UpdateEnrollmentRequest{Status: model.EnrollmentEnrolled})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, model.EnrollmentEnrolled, decode[model.Enrollment](t, env).Status)

	code, _ = s.do(t, http.MethodPut, "/api/enrollments/"+e.ID, admin, service.UpdateEnrollmentRequest{Status: model.EnrollmentCompleted})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodPost, "/api/enrollments/"+e.ID+"/rebuild", admin, nil)
	require.Equal(t, http.StatusOK, code, env.Message)

	code, env = s.do(t, http.MethodGet, "/api/enrollments?courseId="+course.ID+"&limit=2", admin, nil)
	require.Equal(t, http.StatusOK, code)
	page := decode[util.PageResponse](t, env)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 2, page.Limit)

	code, env = s.do(t, http.MethodGet, "/api/audit-logs?entityType=enrollment&entityId="+e.ID, admin, nil)
	require.Equal(t, http.StatusOK, code)
	logs := decode[[]model.AuditLog](t, env)
	// 新建、退课、恢复、重建；失败的请求不记录
	require.Len(t, logs, 4)
	assert.Equal(t, "POST /api/enrollments/:id/rebuild", logs[0].Action)
	assert.Equal(t, "POST /api/enrollments", logs[3].Action)
	assert.Equal(t, "admin-1", logs[3].UserID)

	code, _ = s.do(t, http.MethodGet, "/api/audit-logs?entityType=enrollment", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCourseVisibility(t *testing.T) {
	s := newTestServer(t)
	admin := bearer(t, "admin-1", util.RoleAdmin)
	learner := bearer(t, "learner-1", util.RoleStudent)

	code, env := s.do(t, http.MethodPost, "/api/courses/import", admin, `{"title": "Draft", "modules": [{"title": "M", "lessons": [{"title": "L"}]}]}`)
	require.Equal(t, http.StatusCreated, code, env.Message)
	draft := decode[model.Course](t, env)
	assert.Equal(t, model.CourseDraft, draft.Status)

	code, _ = s.do(t, http.MethodGet, "/api/courses/"+draft.ID, learner, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = s.do(t, http.MethodGet, "/api/courses?status=DRAFT", learner, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[[]model.Course](t, env))

	// 草稿课程不能选课
	code, _ = s.do(t, http.MethodPost, "/api/enrollments", admin, service.EnrollRequest{UserID: "learner-1", CourseID: draft.ID})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodPost, "/api/courses/"+draft.ID+"/publish", admin, nil)
	require.Equal(t, http.StatusOK, code, env.Message)

	code, env = s.do(t, http.MethodGet, "/api/courses", learner, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]model.Course](t, env), 1)

	code, _ = s.do(t, http.MethodPost, "/api/courses/import", admin, "title: [unterminated")
	assert.Equal(t, http.StatusBadRequest, code)

	require.Len(t, s.store.AuditLogs(), 2)
	logs, err := s.store.ListByEntity(context.Background(), "course", draft.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "POST /api/courses/:id/publish", logs[0].Action)
}

func TestAdminEditsCourseStructure(t *testing.T) {
	s := newTestServer(t)
	admin := bearer(t, "admin-1", util.RoleAdmin)
	learner := bearer(t, "learner-1", util.RoleStudent)

	course := s.importCourse(t, admin)
	lessons := course.Modules[0].Lessons
	e := s.enroll(t, admin, "learner-1", course.ID)
	code, env := s.do(t, http.MethodPost, "/api/progress/events", learner, service.TrackEventRequest{
		EnrollmentID:    e.ID,
		LessonContentID: lessons[0].Contents[0].ID,
		EventType:       model.EventView,
	})
	require.Equal(t, http.StatusCreated, code, env.Message)

	enrollment := func() service.EnrollmentDetail {
		t.Helper()
		code, env := s.do(t, http.MethodGet, "/api/enrollments/"+e.ID, learner, nil)
		require.Equal(t, http.StatusOK, code, env.Message)
		return decode[service.EnrollmentDetail](t, env)
	}

	// 测验课时改为选修后，唯一的必修课时已完成
	code, env = s.do(t, http.MethodPut, "/api/lessons/"+lessons[1].ID, admin, gin.H{"isRequired": false})
	require.Equal(t, http.StatusOK, code, env.Message)
	got := enrollment()
	assert.Equal(t, model.EnrollmentCompleted, got.Status)
	assert.InDelta(t, 100, got.ProgressPercent, 0.001)

	path := "/api/lessons/" + lessons[0].ID + "/contents"
	code, _ = s.do(t, http.MethodPost, path, learner, gin.H{"contentType": "TEXT", "title": "Appendix"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(t, http.MethodPost, path, admin, gin.H{"contentType": "TEXT", "title": "Appendix"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	appendix := decode[model.LessonContent](t, env)
	assert.True(t, appendix.IsRequired)

	got = enrollment()
	assert.Equal(t, model.EnrollmentEnrolled, got.Status)
	assert.Zero(t, got.ProgressPercent)
	assert.NotNil(t, got.CompletedAt)

	code, env = s.do(t, http.MethodPut, "/api/contents/"+appendix.ID, admin, gin.H{"isRequired": false})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, model.EnrollmentCompleted, enrollment().Status)

	code, _ = s.do(t, http.MethodPut, "/api/contents/"+appendix.ID, admin, gin.H{"duration": 5})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(t, http.MethodDelete, "/api/modules/missing", admin, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = s.do(t, http.MethodDelete, "/api/courses/"+course.ID, admin, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, model.CourseArchived, decode[model.Course](t, env).Status)
	code, _ = s.do(t, http.MethodGet, "/api/courses/"+course.ID, learner, nil)
	assert.Equal(t, http.StatusNotFound, code)

	ctx := context.Background()
	logs, err := s.store.ListByEntity(ctx, "content", appendix.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "PUT /api/contents/:id", logs[0].Action)
	logs, err = s.store.ListByEntity(ctx, "lesson", lessons[1].ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}
