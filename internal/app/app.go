// Package app wires configuration, storage, adapters and services into one explicit
// application context. It is built once by the command layer.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	cache "github.com/SscSPs/rate_ingestor/internal/adapters/cache/redis"
	"github.com/SscSPs/rate_ingestor/internal/adapters/database/memory"
	"github.com/SscSPs/rate_ingestor/internal/adapters/database/pgsql"
	messaging "github.com/SscSPs/rate_ingestor/internal/adapters/messaging/redis"
	"github.com/SscSPs/rate_ingestor/internal/adapters/ratesource"
	portsrepo "github.com/SscSPs/rate_ingestor/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/rate_ingestor/internal/core/ports/services"
	"github.com/SscSPs/rate_ingestor/internal/core/services"
	"github.com/SscSPs/rate_ingestor/internal/handlers"
	"github.com/SscSPs/rate_ingestor/internal/metrics"
	"github.com/SscSPs/rate_ingestor/internal/middleware"
	"github.com/SscSPs/rate_ingestor/internal/platform/config"
	"github.com/SscSPs/rate_ingestor/internal/scheduler"
	"github.com/SscSPs/rate_ingestor/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"
)

// App is the wired application.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Repos      portsrepo.RepositoryProvider
	Redis      *redis.Client
	Dispatcher *services.Dispatcher
	Services   *portssvc.ServiceContainer
	Scheduler  *scheduler.Scheduler
}

// NewLogger builds the JSON logger used across the process.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// New builds the application. Storage failures are fatal. An unreachable Redis is logged
// and the cache and event adapters are wired anyway; each publish logs its own failure.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	repos, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger, Repos: repos}

	if cfg.RedisAddr != "" {
		client, err := database.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("Redis unreachable at startup, cache and event publishes will retry", slog.String("error", err.Error()))
		}
		a.Redis = client
	}

	a.Dispatcher = services.NewDispatcher(cfg.DispatchQueueSize, cfg.DispatchWorkers, logger)

	deps := services.Collaborators{
		Sources: []portssvc.RateSource{
			ratesource.NewClient(cfg.RateSourceName, cfg.RateSourceURL, cfg.RateSourceTimeout, cfg.RateSourceCurrencies),
		},
		Dispatcher: a.Dispatcher,
	}
	if a.Redis != nil {
		deps.Publisher = cache.NewRateCache(a.Redis, cfg.RedisKeyPrefix, cfg.CacheRateTTL, cfg.CacheInfoTTL)
		deps.Transport = messaging.NewEventPublisher(a.Redis, cfg.RedisKeyPrefix)
	}

	a.Services = services.NewServiceContainer(cfg, repos, deps)
	a.Scheduler = scheduler.New(a.Services, scheduler.Options{
		Interval:          cfg.CollectionInterval,
		ErrorBackoff:      cfg.CollectionErrorBackoff,
		MaintenanceCheck:  cfg.MaintenanceCheckInterval,
		CleanupInterval:   cfg.CleanupInterval,
		AggregateInterval: cfg.AggregateInterval,
		Retention:         cfg.Retention(),
	}, logger)

	return a, nil
}

func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn("Using in-memory storage, history is lost on exit")
		return memory.NewStore().Provider(), nil
	}

	if cfg.RunMigrations {
		if err := Migrate(cfg, logger); err != nil {
			return portsrepo.RepositoryProvider{}, err
		}
	}

	pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return portsrepo.RepositoryProvider{}, fmt.Errorf("initialize database pool: %w", err)
	}
	return pgsql.NewRepositoryProvider(pool), nil
}

// Migrate applies pending schema migrations.
func Migrate(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Running database migrations...", slog.String("path", cfg.MigrationsPath))
	applied, err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath)
	if err != nil {
		return err
	}
	if applied {
		logger.Info("Database migrations applied successfully.")
	} else {
		logger.Info("No new migrations to apply.")
	}
	return nil
}

// Router builds the ops HTTP router.
func (a *App) Router() (*gin.Engine, error) {
	if a.Config.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(a.Logger), gin.Recovery(), metrics.GinMiddleware())
	r.Use(cors.New(corsConfig(a.Config.CORSAllowedOrigins)))
	if err := r.SetTrustedProxies(nil); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}

	limiter, err := middleware.NewOpsLimiter(a.Config.OpsRateLimit)
	if err != nil {
		return nil, fmt.Errorf("parse OPS_RATE_LIMIT: %w", err)
	}

	handlers.RegisterRoutes(r, a.Config, a.Scheduler, limiter)
	return r, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// Run starts the scheduler loops and the ops server, and blocks until ctx is cancelled
// or one of them fails.
func (a *App) Run(ctx context.Context) error {
	router, err := a.Router()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              ":" + a.Config.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Scheduler.Start(gctx) })
	g.Go(func() error {
		a.Logger.Info("Server starting", slog.String("port", a.Config.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ops server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close drains the dispatcher within the shutdown grace and releases connections.
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownGrace)
	defer cancel()

	if a.Dispatcher != nil {
		if err := a.Dispatcher.Close(ctx); err != nil {
			a.Logger.Warn("Dispatcher did not drain before shutdown", slog.String("error", err.Error()))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("Error closing redis client", slog.String("error", err.Error()))
		}
	}
	if a.Repos.Close != nil {
		a.Repos.Close()
	}
	a.Logger.Info("Shutdown complete")
}
