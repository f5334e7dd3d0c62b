package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"lms_backend/internal/config"
	"lms_backend/internal/controller"
	"lms_backend/internal/repository"
	"lms_backend/internal/service"
	"lms_backend/internal/util"
	"lms_backend/pkg/configwatcher"
	"lms_backend/pkg/database"
	"lms_backend/pkg/keylock"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"
	"lms_backend/pkg/security"
	"lms_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config    *config.Config
	ConfigDir string
	Router    *gin.Engine
	DB        *gorm.DB
	Redis     *redis.Client

	services *services
	limiter  *security.IPRateLimiter
	tracer   *sdktrace.TracerProvider
}

type repositories struct {
	course     *repository.CourseRepository
	enrollment *repository.EnrollmentRepository
	progress   *repository.ProgressRepository
	quiz       *repository.QuizRepository
	auditLog   *repository.AuditLogRepository
}

type services struct {
	progress   *service.ProgressService
	quiz       *service.QuizService
	enrollment *service.EnrollmentService
	course     *service.CourseService
	repair     *service.RepairService
}

type controllers struct {
	progress   *controller.ProgressController
	quiz       *controller.QuizController
	enrollment *controller.EnrollmentController
	course     *controller.CourseController
	audit      *controller.AuditController
	health     *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		course:     repository.NewCourseRepository(db),
		enrollment: repository.NewEnrollmentRepository(db),
		progress:   repository.NewProgressRepository(db),
		quiz:       repository.NewQuizRepository(db),
		auditLog:   repository.NewAuditLogRepository(db),
	}
}

// newLocker 启用 redis 时使用分布式锁，否则只在进程内串行
func (a *App) newLocker(cfg *config.Config) keylock.Locker {
	if a.Redis == nil {
		return keylock.NewLocalLocker()
	}
	return keylock.NewRedisLocker(a.Redis, cfg.Progress.LockTTL(),
		keylock.WithPrefix("lms:lock:"),
		keylock.WithLostHandler(func(key string) {
			logger.Log.Warn("Lock expired before release", zap.String("key", key))
		}),
	)
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}
	locker := a.newLocker(cfg)

	s.progress = service.NewProgressService(repos.course, repos.enrollment, repos.progress, repos.quiz, locker)
	s.quiz = service.NewQuizService(repos.quiz, repos.enrollment, repos.course, s.progress, locker, cfg.Progress.ChainQuizToEnrollment)
	s.enrollment = service.NewEnrollmentService(repos.course, repos.enrollment, s.progress)

	var prober service.MediaProber
	if cfg.Media.FFProbeEnabled {
		prober = util.FFProbe{}
	}
	s.repair = service.NewRepairService(repos.enrollment, s.progress, cfg.Progress.RepairConcurrency)
	s.course = service.NewCourseService(repos.course, repos.quiz, prober, cfg.Media.LocalPath)
	s.course.Refresher = s.repair

	return s
}

func (a *App) initControllers(s *services, repos *repositories) *controllers {
	guard := controller.EnrollmentGuard{Enrollments: repos.enrollment}
	return &controllers{
		progress:   controller.NewProgressController(s.progress, guard),
		quiz:       controller.NewQuizController(s.quiz, guard),
		enrollment: controller.NewEnrollmentController(s.enrollment, s.progress, guard),
		course:     controller.NewCourseController(s.course),
		audit:      controller.NewAuditController(repos.auditLog),
		health:     controller.NewHealthController(a.DB, a.Redis),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	a.limiter = security.NewIPRateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute)
	router.Use(a.limiter.Middleware())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// applyConfig 配置热更新，只处理可在运行时调整的项
func (a *App) applyConfig(cfg *config.Config) {
	logger.SetMode(cfg.Server.Mode)
	if a.services.quiz.ChainToEnrollment() != cfg.Progress.ChainQuizToEnrollment {
		a.services.quiz.SetChainToEnrollment(cfg.Progress.ChainQuizToEnrollment)
		logger.Log.Info("Quiz chaining changed", zap.Bool("chainQuizToEnrollment", cfg.Progress.ChainQuizToEnrollment))
	}
	if cfg.Progress.RepairSchedule != a.Config.Progress.RepairSchedule {
		logger.Log.Warn("Repair schedule change requires restart",
			zap.String("current", a.Config.Progress.RepairSchedule),
			zap.String("configured", cfg.Progress.RepairSchedule))
	}
}

func (a *App) startBackgroundTasks(ctx context.Context) {
	go a.limiter.Cleanup(ctx, time.Minute)

	if err := a.services.repair.Start(ctx, a.Config.Progress.RepairSchedule); err != nil {
		logger.Log.Error("Failed to start repair schedule", zap.Error(err))
	}

	if a.ConfigDir != "" {
		go func() {
			if err := configwatcher.WatchConfig(ctx, a.ConfigDir, a.applyConfig); err != nil {
				logger.Log.Error("Config watcher stopped", zap.Error(err))
			}
		}()
	}
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// release 模式默认不迁移，需要 -migrate 显式开启
	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(context.Background(), &cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
		app.Redis = rdb
	}

	repos := app.initRepositories(db)
	app.services = app.initServices(repos, cfg)
	controllers := app.initControllers(app.services, repos)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("lms-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	gin.SetMode(ginMode(cfg.Server.Mode))
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, repos, cfg)

	return app
}

func ginMode(mode string) string {
	switch mode {
	case gin.ReleaseMode, gin.TestMode:
		return mode
	}
	return gin.DebugMode
}

// ImportCourse 命令行导入课程定义文件
func (a *App) ImportCourse(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	course, err := a.services.course.Import(ctx, data)
	if err != nil {
		return err
	}
	logger.Log.Info("Course imported",
		zap.String("courseId", course.ID),
		zap.String("title", course.Title),
		zap.String("status", string(course.Status)))
	return nil
}

// Rebuild 命令行重建进度，target 为选课ID或 all
func (a *App) Rebuild(ctx context.Context, target string) error {
	if strings.EqualFold(target, "all") {
		result, err := a.services.repair.Sweep(ctx)
		if err != nil {
			return err
		}
		if result.Failed > 0 {
			return fmt.Errorf("rebuild finished with %d of %d enrollments failed", result.Failed, result.Total)
		}
		return nil
	}
	result, err := a.services.progress.RebuildEnrollment(ctx, target)
	if err != nil {
		return err
	}
	logger.Log.Info("Enrollment rebuilt",
		zap.String("enrollmentId", target),
		zap.Int("lessons", len(result.Summaries)))
	return nil
}

func (a *App) Close() {
	if a.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	a.startBackgroundTasks(ctx)

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	stop()
	a.services.repair.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close()
	logger.Log.Info("Server exiting")
}
