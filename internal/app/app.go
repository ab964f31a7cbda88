package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"quiz_backend/internal/config"
	"quiz_backend/internal/controller"
	"quiz_backend/internal/repository"
	"quiz_backend/internal/service"
	"quiz_backend/pkg/cache"
	"quiz_backend/pkg/configwatcher"
	"quiz_backend/pkg/database"
	"quiz_backend/pkg/logger"
	"quiz_backend/pkg/monitoring"
	"quiz_backend/pkg/security"
	"quiz_backend/pkg/tracing"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Cache           cache.Store
	Revocations     cache.Store
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user    *repository.UserRepository
	quiz    *repository.QuizRepository
	attempt *repository.AttemptRepository
}

type services struct {
	blacklist   *service.TokenBlacklist
	storage     *service.StorageService
	auth        *service.AuthService
	user        *service.UserService
	quiz        *service.QuizService
	attempt     *service.AttemptService
	analytics   *service.AnalyticsService
	achievement *service.AchievementService
}

type controllers struct {
	auth      *controller.AuthController
	quiz      *controller.QuizController
	user      *controller.UserController
	analytics *controller.AnalyticsController
	admin     *controller.AdminController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:    repository.NewUserRepository(db),
		quiz:    repository.NewQuizRepository(db),
		attempt: repository.NewAttemptRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, store, revocations cache.Store) *services {
	loader := cache.NewLoader(store)
	loader.OnError = func(key string, err error) {
		monitoring.CacheErrors.WithLabelValues(cachePrefix(key)).Inc()
		logger.Log.Warn("Cache operation failed", zap.String("key", key), zap.Error(err))
	}

	s := &services{}
	s.blacklist = service.NewTokenBlacklist(revocations)
	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg, s.blacklist, store)
	s.user = service.NewUserService(repos.user, s.storage)
	s.quiz = service.NewQuizService(repos.quiz, cfg, loader)
	s.attempt = service.NewAttemptService(repos.attempt, repos.quiz, repos.user)
	s.analytics = service.NewAnalyticsService(repos.attempt, repos.quiz, repos.user, cfg, loader)
	s.achievement = service.NewAchievementService(repos.user, repos.attempt)
	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, store cache.Store) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth),
		quiz:      controller.NewQuizController(s.quiz, s.attempt),
		user:      controller.NewUserController(s.user, s.auth, s.achievement, s.analytics),
		analytics: controller.NewAnalyticsController(s.analytics),
		admin:     controller.NewAdminController(store),
		health:    controller.NewHealthController(db),
	}
}

// cachePrefix 指标标签只取键的第一段，避免基数过高
func cachePrefix(key string) string {
	if i := strings.IndexAny(key, ":_"); i > 0 {
		return key[:i]
	}
	return key
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.Secure())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	router.Use(security.NewRateLimiter(cfg.RateLimit.MaxRequests, window).Middleware())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// buildApp 组装路由与依赖，不负责外部连接的创建。
// revocations 保存令牌吊销记录，不能与会被淘汰的缓存共用内存存储
func buildApp(cfg *config.Config, db *gorm.DB, store, revocations cache.Store) *App {
	app := &App{
		Config:      cfg,
		DB:          db,
		Cache:       store,
		Revocations: revocations,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, store, revocations)
	controllers := app.initControllers(services, db, store)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, repos, services, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.RegisterConfigCallback(func(newCfg *config.Config) {
		logger.SetLevel(newCfg.Server.Mode)
	})

	return app
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	var rdb *redis.Client
	var store, revocations cache.Store
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
		store = cache.NewRedisStore(rdb)
		revocations = store
	} else {
		logger.Log.Warn("Redis disabled, using in-memory cache")
		store = cache.NewMemoryStore(cfg.Cache.MemoryMaxEntries)
		revocations = cache.NewUnboundedMemoryStore()
	}

	var tp *sdktrace.TracerProvider
	if cfg.Tracing.Enabled {
		tp, err = tracing.InitTracer("quiz-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app := buildApp(cfg, db, store, revocations)
	app.Redis = rdb
	app.tracer = tp
	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	if file := config.FileUsed(); file != "" {
		go configwatcher.WatchConfig(file, func(newCfg *config.Config) {
			for _, callback := range a.configCallbacks {
				callback(newCfg)
			}
		}, done)
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")
	close(done)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close(ctx)
	logger.Log.Info("Server exiting")
}

// Close 释放追踪、Redis 与数据库连接
func (a *App) Close(ctx context.Context) {
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Log.Error("Failed to close redis", zap.Error(err))
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}
