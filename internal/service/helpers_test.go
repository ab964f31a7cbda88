package service

import (
	"testing"
	"time"

	"quiz_backend/internal/config"
	"quiz_backend/internal/repository"
	"quiz_backend/internal/testutil"
	"quiz_backend/pkg/cache"

	"gorm.io/gorm"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpireTime = time.Hour
	cfg.Cache = config.CacheConfig{
		QuizListTTLSeconds:  300,
		AnalyticsTTLSeconds: 900,
		SessionTTLSeconds:   3600,
		MemoryMaxEntries:    100,
	}
	return cfg
}

// fixture 同一个 sqlite 内存库上装配的全部服务
type fixture struct {
	db        *gorm.DB
	cfg       *config.Config
	store     *cache.MemoryStore
	auth      *AuthService
	quizzes   *QuizService
	attempts  *AttemptService
	analytics *AnalyticsService
	users     *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := testConfig()
	store := cache.NewMemoryStore(cfg.Cache.MemoryMaxEntries)
	loader := cache.NewLoader(store)

	userRepo := repository.NewUserRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)

	return &fixture{
		db:        db,
		cfg:       cfg,
		store:     store,
		auth:      NewAuthService(userRepo, cfg, NewTokenBlacklist(store), store),
		quizzes:   NewQuizService(quizRepo, cfg, loader),
		attempts:  NewAttemptService(attemptRepo, quizRepo, userRepo),
		analytics: NewAnalyticsService(attemptRepo, quizRepo, userRepo, cfg, loader),
		users:     NewUserService(userRepo, &StorageService{Provider: &LocalStorageProvider{Config: &config.StorageConfig{LocalPath: t.TempDir()}}}),
	}
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

func strPtr(v string) *string { return &v }
