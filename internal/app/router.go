package app

import (
	"lms_backend/docs"
	"lms_backend/internal/config"
	"lms_backend/internal/middleware"
	"lms_backend/internal/util"
	"lms_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/api/health", c.health.HealthCheck)

	// 1. 学员接口(需要登录)
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	a.registerLearnerRoutes(authGroup, c)

	// 2. 管理员接口，写操作记录审计日志
	adminGroup := router.Group("/api")
	adminGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret), middleware.RoleMiddleware(util.RoleAdmin))
	a.registerAdminRoutes(adminGroup, c, repos)
}

func (a *App) registerLearnerRoutes(r *gin.RouterGroup, c *controllers) {
	progress := r.Group("/progress")
	{
		progress.POST("/events", c.progress.TrackEvent)
		progress.GET("/summary", c.progress.GetSummary)
		progress.GET("/:enrollmentId/lessons/:lessonId", c.progress.GetDetailedProgress)
	}

	quizzes := r.Group("/quizzes")
	{
		quizzes.GET("", c.quiz.ListQuizzes)
		quizzes.GET("/attempts", c.quiz.ListAttempts)
		quizzes.GET("/:id", c.quiz.GetQuiz)
		quizzes.POST("/:id/attempts", c.quiz.StartAttempt)
		quizzes.POST("/attempts/:id/submit", c.quiz.SubmitAttempt)
	}

	enrollments := r.Group("/enrollments")
	{
		enrollments.GET("", c.enrollment.ListEnrollments)
		enrollments.GET("/:id", c.enrollment.GetEnrollment)
	}

	courses := r.Group("/courses")
	{
		courses.GET("", c.course.ListCourses)
		courses.GET("/:id", c.course.GetCourse)
	}
}

func (a *App) registerAdminRoutes(r *gin.RouterGroup, c *controllers, repos *repositories) {
	enrollments := r.Group("/enrollments")
	enrollments.Use(middleware.Audit(repos.auditLog, "enrollment"))
	{
		enrollments.POST("", c.enrollment.Enroll)
		enrollments.POST("/bulk", c.enrollment.BulkEnroll)
		enrollments.PUT("/:id", c.enrollment.UpdateEnrollment)
		enrollments.DELETE("/:id", c.enrollment.DropEnrollment)
		enrollments.POST("/:id/rebuild", c.enrollment.RebuildEnrollment)
	}

	quizzes := r.Group("/quizzes")
	quizzes.Use(middleware.Audit(repos.auditLog, "quiz"))
	{
		quizzes.POST("", c.quiz.CreateQuiz)
		quizzes.PUT("/:id", c.quiz.UpdateQuiz)
		quizzes.PUT("/:id/questions/:questionId", c.quiz.UpdateQuestion)
	}

	courses := r.Group("/courses")
	{
		auditCourse := middleware.Audit(repos.auditLog, "course")
		courses.POST("/import", auditCourse, c.course.ImportCourse)
		courses.POST("/:id/publish", auditCourse, c.course.PublishCourse)
		courses.PUT("/:id", auditCourse, c.course.UpdateCourse)
		courses.DELETE("/:id", auditCourse, c.course.DeleteCourse)
		courses.POST("/:id/modules", middleware.Audit(repos.auditLog, "module"), c.course.CreateModule)
	}

	// 课程结构变更会触发该课程所有选课的进度重建
	modules := r.Group("/modules")
	{
		auditModule := middleware.Audit(repos.auditLog, "module")
		modules.PUT("/:id", auditModule, c.course.UpdateModule)
		modules.DELETE("/:id", auditModule, c.course.DeleteModule)
		modules.POST("/:id/lessons", middleware.Audit(repos.auditLog, "lesson"), c.course.CreateLesson)
	}

	lessons := r.Group("/lessons")
	{
		auditLesson := middleware.Audit(repos.auditLog, "lesson")
		lessons.PUT("/:id", auditLesson, c.course.UpdateLesson)
		lessons.DELETE("/:id", auditLesson, c.course.DeleteLesson)
		lessons.POST("/:id/contents", middleware.Audit(repos.auditLog, "content"), c.course.CreateContent)
	}

	contents := r.Group("/contents")
	contents.Use(middleware.Audit(repos.auditLog, "content"))
	{
		contents.PUT("/:id", c.course.UpdateContent)
		contents.DELETE("/:id", c.course.DeleteContent)
	}

	r.GET("/audit-logs", c.audit.ListAuditLogs)
}
