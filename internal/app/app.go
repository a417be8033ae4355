package app

import (
	"context"
	"langquiz_backend/internal/config"
	"langquiz_backend/internal/controller"
	"langquiz_backend/internal/jobs"
	"langquiz_backend/internal/middleware"
	"langquiz_backend/internal/repository"
	"langquiz_backend/internal/service"
	"langquiz_backend/pkg/configwatcher"
	"langquiz_backend/pkg/database"
	"langquiz_backend/pkg/logger"
	"langquiz_backend/pkg/mailer"
	"langquiz_backend/pkg/monitoring"
	"langquiz_backend/pkg/security"
	"langquiz_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 运行模式
const (
	ModeAll    = "all"
	ModeAPI    = "api"
	ModeWorker = "worker"
)

type App struct {
	Config          *config.Config
	ConfigDir       string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Queue           *jobs.RedisQueue
	Worker          *jobs.Worker
	Scheduler       *jobs.Scheduler
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user       *repository.UserRepository
	token      *repository.ActivationTokenRepository
	category   *repository.CategoryRepository
	question   *repository.QuestionRepository
	answer     *repository.AnswerRepository
	attempt    *repository.AttemptRepository
	tokenStore *service.RedisTokenStore
}

type services struct {
	quiz      *service.QuizService
	accounts  *service.AccountService
	lifecycle *service.LifecycleService
	catalog   *service.CatalogService
}

type controllers struct {
	account *controller.AccountController
	quiz    *controller.QuizController
	health  *controller.HealthController
}

// gorm 仓储实现服务层的存储接口
var (
	_ service.UserStore            = (*repository.UserRepository)(nil)
	_ service.ActivationTokenStore = (*repository.ActivationTokenRepository)(nil)
	_ service.CategoryStore        = (*repository.CategoryRepository)(nil)
	_ service.QuestionStore        = (*repository.QuestionRepository)(nil)
	_ service.AnswerStore          = (*repository.AnswerRepository)(nil)
	_ service.AttemptStore         = (*repository.AttemptRepository)(nil)
	_ service.SessionStore         = (*service.RedisTokenStore)(nil)
	_ service.ResetTokenStore      = (*service.RedisTokenStore)(nil)
	_ middleware.RevocationChecker = (*service.RedisTokenStore)(nil)
)

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		token:      repository.NewActivationTokenRepository(db),
		category:   repository.NewCategoryRepository(db),
		question:   repository.NewQuestionRepository(db),
		answer:     repository.NewAnswerRepository(db),
		attempt:    repository.NewAttemptRepository(db),
		tokenStore: service.NewRedisTokenStore(rdb),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, dispatcher *jobs.Dispatcher) *services {
	return &services{
		quiz: service.NewQuizService(
			repos.category, repos.question, repos.attempt,
			service.NewRandSampler(0),
			cfg.Quiz.QuestionsPerTest,
		),
		accounts: service.NewAccountService(
			repos.user, repos.attempt, repos.tokenStore, repos.tokenStore,
			dispatcher, cfg,
		),
		lifecycle: service.NewLifecycleService(
			repos.user, repos.token, repos.tokenStore,
			mailer.New(&cfg.Mail),
			cfg.Accounts.ActivationLifetime,
			cfg.Accounts.PasswordResetTTL,
			cfg.Server.BaseURL,
		),
		catalog: service.NewCatalogService(repos.category, repos.question, repos.answer),
	}
}

func (a *App) initControllers(s *services, cfg *config.Config) *controllers {
	return &controllers{
		account: controller.NewAccountController(s.accounts, s.lifecycle, cfg.Accounts.MinPasswordLength),
		quiz:    controller.NewQuizController(s.quiz),
		health:  controller.NewHealthController(a.DB, a.Redis),
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

// NewApp 组装存储、服务与路由，并监听 configDir 中的配置变更
func NewApp(cfg *config.Config, configDir string) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == "debug")
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if cfg.Server.Mode == "debug" || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config:    cfg,
		ConfigDir: configDir,
		DB:        db,
		Redis:     rdb,
		Queue:     jobs.NewRedisQueue(rdb, cfg.Jobs.Queue, cfg.Jobs.BlockTimeout),
	}
	dispatcher := jobs.NewDispatcher(app.Queue)

	repos := app.initRepositories(db, rdb)
	app.services = app.initServices(repos, cfg, dispatcher)
	controllers := app.initControllers(app.services, cfg)

	app.Worker = jobs.NewWorker(app.Queue)
	app.services.lifecycle.RegisterJobs(app.Worker)

	app.Scheduler = jobs.NewScheduler(dispatcher)
	if err := app.Scheduler.Every(cfg.Accounts.PurgeSchedule, jobs.DeleteDeactivatedAccounts, struct{}{}); err != nil {
		logger.Log.Fatal("Invalid purge schedule", zap.String("schedule", cfg.Accounts.PurgeSchedule), zap.Error(err))
	}

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("langquiz", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.Mode == "debug" {
		router.Use(gin.Logger())
	}
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, repos, cfg)

	app.RegisterConfigCallback(func(newCfg *config.Config) {
		logger.SetLevel(newCfg)
		logger.Log.Info("Log level updated", zap.String("level", newCfg.Log.Level))
	})

	return app
}

// Catalog 供 -seed 参数导入题库
func (a *App) Catalog() *service.CatalogService {
	return a.services.catalog
}

// startBackground 运行任务 worker 与清理调度器，直到 ctx 结束
func (a *App) startBackground(ctx context.Context, wg *sync.WaitGroup) {
	// 上次退出时未确认的任务重新入队
	moved, err := a.Queue.Requeue(ctx)
	if err != nil {
		logger.Log.Error("Failed to requeue unacknowledged jobs", zap.Error(err))
	} else if moved > 0 {
		logger.Log.Info("Requeued unacknowledged jobs", zap.Int("count", moved))
	}

	a.Scheduler.Start()

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.Worker.Run(ctx)
	}()
}

func (a *App) watchConfig(ctx context.Context) {
	if a.ConfigDir == "" {
		return
	}
	go func() {
		err := configwatcher.WatchConfig(ctx, config.FilePath(a.ConfigDir), func(newCfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

// Run 按 mode 提供 HTTP 服务或处理后台任务，收到 SIGINT/SIGTERM 后退出
func (a *App) Run(mode string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.watchConfig(ctx)

	var wg sync.WaitGroup
	if mode == ModeAll || mode == ModeWorker {
		a.startBackground(ctx, &wg)
	}

	var srv *http.Server
	if mode == ModeAll || mode == ModeAPI {
		srv = &http.Server{
			Addr:    ":" + a.Config.Server.Port,
			Handler: a.Router,
		}

		// 启动服务器
		go func() {
			logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("listen: %s\n", err)
			}
		}()
	}

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Server forced to shutdown", zap.Error(err))
		}
	}

	cancel()
	if mode == ModeAll || mode == ModeWorker {
		a.Scheduler.Stop()
	}
	wg.Wait()

	a.Close()
	logger.Log.Info("Server exiting")
}

func (a *App) Close() {
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
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
