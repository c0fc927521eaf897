// Package app wires configuration, storage and HTTP routing into a single
// handler used by both the long-running server and the serverless functions.
package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"cadastro-api/config"
	"cadastro-api/internal/handler"
	"cadastro-api/internal/middleware"
	"cadastro-api/internal/redis"
	"cadastro-api/internal/repository"
	"cadastro-api/internal/server"
	"cadastro-api/internal/services"
	"cadastro-api/pkg/database"
	cadastro_errors "cadastro-api/pkg/errors"
	"cadastro-api/pkg/events"
	"cadastro-api/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type App struct {
	Config  *config.Config
	Logger  *logger.Logger
	Server  *server.Server
	Service *services.AuthService

	closers []func()
}

// New builds the application. A missing or unreachable store does not fail
// construction: the returned App answers every request with 500 and logs
// the cause, so a misconfigured deployment is visible instead of crashing.
func New(ctx context.Context, cfg *config.Config, l *logger.Logger) *App {
	if l == nil {
		l = logger.NewNop()
	}

	a := &App{Config: cfg, Logger: l}
	a.Server = server.New(cfg, l)

	accounts, err := a.openStore(ctx)
	if err != nil {
		l.ErrorCtx(ctx, "store setup failed", zap.String("store", cfg.Store), zap.Error(err))
		a.Server.SetupRoutes(&server.Handlers{StoreErr: err})
		return a
	}

	a.Service = services.NewAuthService(accounts, services.NewBcryptHasher(cfg.BCryptCost), cfg, l)

	var limiter middleware.AuthLimiter
	if client := a.openRedis(ctx); client != nil {
		limiter = redis.NewRateLimiter(client, redis.RateLimitConfig{
			AuthLimit:  cfg.AuthRateLimit,
			AuthWindow: time.Duration(cfg.AuthRateWindowSec) * time.Second,
		})
		a.Service.SetEventPublisher(events.NewRedisBroker(client), cfg.EventsChannel)
	}

	a.Server.SetupRoutes(&server.Handlers{
		Auth:        handler.NewAuthHandler(a.Service, l),
		AuthService: a.Service,
		Limiter:     limiter,
	})
	return a
}

// NewWithRepository builds the application on an existing store.
func NewWithRepository(cfg *config.Config, l *logger.Logger, accounts repository.AccountRepository, limiter middleware.AuthLimiter) *App {
	if l == nil {
		l = logger.NewNop()
	}

	a := &App{Config: cfg, Logger: l}
	a.Server = server.New(cfg, l)
	a.Service = services.NewAuthService(accounts, services.NewBcryptHasher(cfg.BCryptCost), cfg, l)
	a.Server.SetupRoutes(&server.Handlers{
		Auth:        handler.NewAuthHandler(a.Service, l),
		AuthService: a.Service,
		Limiter:     limiter,
	})
	return a
}

func (a *App) Handler() http.Handler {
	return a.Server.Handler()
}

// Close releases pools and clients opened by New.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) openStore(ctx context.Context) (repository.AccountRepository, error) {
	cfg := a.Config
	switch cfg.Store {
	case config.StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("%w: DATABASE_URL is empty", cadastro_errors.ErrMisconfigured)
		}
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		return repository.NewAccountRepository(pool), nil

	case config.StorePostgREST:
		if cfg.SupabaseURL == "" || cfg.SupabaseAnonKey == "" {
			return nil, fmt.Errorf("%w: SUPABASE_URL and SUPABASE_ANON_KEY are required", cadastro_errors.ErrMisconfigured)
		}
		client := &http.Client{Timeout: 10 * time.Second}
		return repository.NewPostgRESTAccountRepository(cfg.SupabaseURL, cfg.SupabaseAnonKey, client), nil

	case config.StoreMemory:
		a.Logger.WarnCtx(ctx, "using in-memory store; accounts are lost on restart")
		return repository.NewMemoryAccountRepository(), nil

	case "":
		return nil, fmt.Errorf("%w: set DATABASE_URL or SUPABASE_URL/SUPABASE_ANON_KEY", cadastro_errors.ErrMisconfigured)

	default:
		return nil, fmt.Errorf("%w: unknown STORE %q", cadastro_errors.ErrMisconfigured, cfg.Store)
	}
}

// openRedis returns nil when Redis is not configured or not reachable;
// requests are then served without a rate limit or account events.
func (a *App) openRedis(ctx context.Context) *goredis.Client {
	cfg := a.Config
	if cfg.RedisAddr == "" {
		return nil
	}

	client := redis.NewClient(redis.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redis.Ping(ctx, client); err != nil {
		a.Logger.WarnCtx(ctx, "redis unavailable, rate limiting and events disabled", zap.Error(err))
		closeRedis(client)
		return nil
	}
	a.closers = append(a.closers, func() { closeRedis(client) })
	return client
}

func closeRedis(client *goredis.Client) {
	_ = client.Close()
}

var (
	lazyOnce sync.Once
	lazyApp  *App
)

// Lazy returns a process-wide App built on first use from the environment.
// Serverless functions call it per invocation so warm instances reuse the
// connection pool.
func Lazy() *App {
	lazyOnce.Do(func() {
		cfg := config.LoadConfig()
		l := logger.New(cfg.AppMode)
		logger.SetGlobalLogger(l)
		lazyApp = New(context.Background(), cfg, l)
	})
	return lazyApp
}
