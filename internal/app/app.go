package app

import (
	"career_coach_backend/internal/config"
	"career_coach_backend/internal/controller"
	"career_coach_backend/internal/events"
	"career_coach_backend/internal/llm"
	"career_coach_backend/internal/repository"
	"career_coach_backend/internal/service"
	"career_coach_backend/pkg/configwatcher"
	"career_coach_backend/pkg/database"
	"career_coach_backend/pkg/logger"
	"career_coach_backend/pkg/monitoring"
	"career_coach_backend/pkg/security"
	"career_coach_backend/pkg/tracing"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config     *config.Config
	ConfigPath string
	Router     *gin.Engine
	DB         *gorm.DB
	Redis      *redis.Client

	repos           *repositories
	services        *services
	publisher       events.Publisher
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user       *repository.UserRepository
	assessment *repository.AssessmentRepository
}

type services struct {
	ai         *service.AIService
	auth       *service.AuthService
	user       *service.UserService
	storage    *service.StorageService
	generator  *service.QuestionGenerator
	assessment *service.AssessmentService
	scoring    *service.ScoringService
	report     *service.ReportService
}

type controllers struct {
	auth       *controller.AuthController
	user       *controller.UserController
	assessment *controller.AssessmentController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		assessment: repository.NewAssessmentRepository(db),
	}
}

func (a *App) initServices(ctx context.Context, repos *repositories, cfg *config.Config) (*services, error) {
	provider, err := llm.NewProvider(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}

	s := &services{}
	s.ai = service.NewAIService(provider, cfg.LLM)
	s.storage = service.NewStorageService(ctx, cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user, repos.assessment)
	s.generator = service.NewQuestionGenerator(s.ai)
	s.assessment = service.NewAssessmentService(repos.assessment, s.generator, a.publisher)
	s.scoring = service.NewScoringService(
		repos.assessment,
		s.ai,
		service.NewSubmissionGuard(a.Redis, cfg.Redis.LockTTL),
		a.publisher,
	)
	s.report = service.NewReportService(s.storage)
	return s, nil
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		user:       controller.NewUserController(s.user),
		assessment: controller.NewAssessmentController(s.assessment, s.scoring, s.report),
		health:     controller.NewHealthController(a.DB, a.Redis),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks 定时刷新按状态统计的测评数量
func (a *App) startBackgroundTasks(ctx context.Context) {
	refresh := func() {
		if err := a.services.assessment.RefreshStatusMetrics(ctx); err != nil && ctx.Err() == nil {
			logger.Log.Error("refresh assessment metrics error", zap.Error(err))
		}
	}

	go func() {
		refresh()
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				refresh()
			}
		}
	}()
}

// NewApp 初始化日志、数据库、缓存和全部依赖。Redis 不可用时降级为进程内提交锁。
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	gin.SetMode(cfg.Server.Mode)

	migrate := cfg.ForceMigrate || cfg.Server.Mode != gin.ReleaseMode
	db, err := database.InitDB(&cfg.Database, migrate)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}

	if cfg.MigrateOnly {
		return app, nil
	}

	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Warn("Redis unavailable, falling back to in-process submission lock", zap.Error(err))
		} else {
			app.Redis = rdb
		}
	}

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
		} else {
			app.tracer = tp
		}
	}

	app.publisher = events.NewPublisher(cfg.Events)

	app.repos = app.initRepositories(db)
	app.services, err = app.initServices(ctx, app.repos, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	ctrls := app.initControllers(app.services)

	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, ctrls, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.RegisterConfigCallback(logger.SetLevel)

	return app, nil
}

func (a *App) Assessments() *service.AssessmentService { return a.services.assessment }

func (a *App) Scoring() *service.ScoringService { return a.services.scoring }

func (a *App) Users() *repository.UserRepository { return a.repos.user }

// Run 启动 HTTP 服务，ctx 结束后优雅关闭（5 秒超时）
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	bgCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.startBackgroundTasks(bgCtx)

	if a.ConfigPath != "" {
		go func() {
			err := configwatcher.WatchConfig(bgCtx, a.ConfigPath, func(cfg *config.Config) {
				for _, cb := range a.configCallbacks {
					cb(cfg)
				}
			})
			if err != nil {
				logger.Log.Warn("config watcher stopped", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Log.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Log.Info("Server exiting")
	return nil
}

// Close 释放外部连接
func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			logger.Log.Warn("close event publisher", zap.Error(err))
		}
	}
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
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
	logger.Log.Sync()
}
