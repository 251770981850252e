package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/justsurfingit/job-application-tracker/internal/auth"
	"github.com/justsurfingit/job-application-tracker/internal/cache"
	"github.com/justsurfingit/job-application-tracker/internal/config"
	"github.com/justsurfingit/job-application-tracker/internal/database"
	"github.com/justsurfingit/job-application-tracker/internal/handlers"
	"github.com/justsurfingit/job-application-tracker/internal/notify"
	"github.com/justsurfingit/job-application-tracker/internal/repository"
	"github.com/justsurfingit/job-application-tracker/internal/services"
	"github.com/justsurfingit/job-application-tracker/internal/telemetry"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Development() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newTracing(cfg *config.Config, lc fx.Lifecycle, logger *zap.Logger) error {
	shutdown, err := telemetry.InitTracer(context.Background(), cfg.Service, cfg.OTelCollectorURL)
	if err != nil {
		return err
	}
	if cfg.OTelCollectorURL == "" {
		logger.Info("tracing disabled, OTEL_COLLECTOR_URL not set")
	}
	lc.Append(fx.Hook{OnStop: shutdown})
	return nil
}

// newStore opens the configured backend. Nothing is cached yet.
func newStore(cfg *config.Config, logger *zap.Logger) (repository.Backend, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory storage, data is lost on restart")
		return repository.NewMemory(), nil

	case config.DriverSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store := repository.NewSQLite(db)
		if err := store.Migrate(context.Background()); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("sqlite storage ready", zap.String("path", cfg.SQLitePath))
		return store, nil

	default:
		db, err := database.Connect(cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		return repository.NewPostgres(db), nil
	}
}

func newCache(cfg *config.Config, logger *zap.Logger) (cache.Cache, error) {
	if cfg.RedisAddr == "" {
		return cache.NewMemory(), nil
	}
	c := cache.NewRedis(cache.Options{
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	})
	if err := c.Ping(context.Background()); err != nil {
		c.Close()
		return nil, err
	}
	logger.Info("session cache on redis", zap.String("addr", cfg.RedisAddr))
	return c, nil
}

// newBackend puts the session cache in front of the store and closes both on
// shutdown.
func newBackend(cfg *config.Config, lc fx.Lifecycle, logger *zap.Logger) (repository.Backend, error) {
	store, err := newStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	c, err := newCache(cfg, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	backend := auth.NewCachedIdentity(store, c, cfg.SessionCacheTTL, logger)
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return backend.Close() }})
	return backend, nil
}

func newBuffer(cfg *config.Config) *notify.Buffer {
	return notify.NewBuffer(cfg.NotificationBuffer)
}

func newNotifier(cfg *config.Config, lc fx.Lifecycle, buffer *notify.Buffer, logger *zap.Logger) (notify.Notifier, error) {
	notifiers := notify.Multi{notify.NewLog(logger), buffer}
	if cfg.NATSURL == "" {
		return notifiers, nil
	}

	conn, err := notify.Connect(cfg.NATSURL, cfg.NATSConnTimeout)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return drain(conn) }})
	logger.Info("publishing notifications to NATS", zap.String("url", cfg.NATSURL))
	return append(notifiers, notify.NewNATS(conn, logger)), nil
}

func drain(conn *nats.Conn) error {
	if err := conn.Drain(); err != nil {
		conn.Close()
		return err
	}
	return nil
}

func newAuthService(cfg *config.Config, backend repository.Backend, sessions *services.SessionManager, logger *zap.Logger) *services.AuthService {
	return services.NewAuthService(backend, sessions, cfg.SessionTTL, logger)
}

func newLLMService(cfg *config.Config, logger *zap.Logger) (*services.LLMService, error) {
	return services.NewLLMService(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, logger)
}

func newRouter(cfg *config.Config, jobs *handlers.JobHandler, authHandler *handlers.AuthHandler,
	authSvc *services.AuthService, sessions *services.SessionManager, logger *zap.Logger) *gin.Engine {
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	return handlers.NewRouter(handlers.RouterDeps{
		Jobs:         jobs,
		Auth:         authHandler,
		AuthService:  authSvc,
		Sessions:     sessions,
		Logger:       logger,
		AllowOrigins: cfg.CORSAllowOrigins,
	})
}

func runServer(cfg *config.Config, lc fx.Lifecycle, router *gin.Engine, logger *zap.Logger) {
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("storage", cfg.StorageDriver))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("server shutting down")
			return srv.Shutdown(ctx)
		},
	})
}

func main() {
	app := fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		fx.Provide(
			config.LoadConfig,
			newLogger,
			newBackend,
			newBuffer,
			newNotifier,
			services.NewSessionManager,
			newAuthService,
			newLLMService,
			handlers.NewJobHandler,
			handlers.NewAuthHandler,
			newRouter,
		),
		fx.Invoke(
			newTracing,
			runServer,
		),
	)

	if err := app.Err(); err != nil {
		log.Fatal(err)
	}
	// Run blocks until SIGINT or SIGTERM and then stops the app.
	app.Run()
}
