// Command sitecms-server serves the site content API over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/and161185/sitecms/internal/config"
	pkgcrypto "github.com/and161185/sitecms/internal/crypto"
	"github.com/and161185/sitecms/internal/limiter"
	"github.com/and161185/sitecms/internal/migrate"
	"github.com/and161185/sitecms/internal/notify"
	"github.com/and161185/sitecms/internal/repository"
	"github.com/and161185/sitecms/internal/repository/fsrepo"
	"github.com/and161185/sitecms/internal/repository/postgres"
	"github.com/and161185/sitecms/internal/repository/s3backup"
	httpserver "github.com/and161185/sitecms/internal/server/http"
	"github.com/and161185/sitecms/internal/service"
	"github.com/and161185/sitecms/internal/session"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, wires the backends, and serves until SIGINT/SIGTERM.
func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		bootstrap, _ := zap.NewProduction()
		bootstrap.Fatal("config", zap.Error(err))
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.HTTPAddr),
		zap.String("env", cfg.Env),
		zap.String("content_backend", cfg.ContentBackend),
		zap.String("state_backend", cfg.StateBackend),
	)
	for _, name := range cfg.Generated {
		// the value itself is never logged
		logger.Warn("generated random value for unset variable; set it explicitly to keep it across restarts",
			zap.String("variable", name))
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	secret, err := pkgcrypto.NewSecret(cfg.AdminPassword)
	if err != nil {
		logger.Fatal("admin secret", zap.Error(err))
	}

	var db *postgres.DB
	if cfg.NeedsPostgres() {
		if err := migrate.Up(ctx, cfg.DatabaseURL, logger.Named("migrate")); err != nil {
			logger.Fatal("migrate up", zap.Error(err))
		}
		db, err = postgres.New(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
		if err != nil {
			logger.Fatal("postgres", zap.Error(err))
		}
		defer db.Close()
	}

	var rdb *redis.Client
	if cfg.StateBackend == config.BackendRedis {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis url", zap.Error(err))
		}
		rdb = redis.NewClient(opt)
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("redis ping", zap.Error(err))
		}
	}

	// Sessions and rate limiting
	// one limiter serves login, content writes and contact; keys are namespaced per use
	var (
		sessions session.Store
		lim      limiter.Limiter
	)
	ttl := cfg.SessionDuration()
	switch cfg.StateBackend {
	case config.BackendPostgres:
		sessions = session.NewPG(db.Pool, ttl)
		lim = limiter.NewPGWithQuerier(db.Pool, cfg.RateLimitMax, cfg.RateLimitWindow())
	case config.BackendRedis:
		sessions = session.NewRedis(rdb, ttl)
		lim = limiter.NewRedis(rdb, cfg.RateLimitMax, cfg.RateLimitWindow())
	default:
		sessions = session.NewMemory(ttl)
		lim = limiter.NewMemory(cfg.RateLimitMax, cfg.RateLimitWindow())
	}

	// Content storage
	var contentRepo repository.ContentRepository
	if cfg.ContentBackend == config.BackendPostgres {
		contentRepo = postgres.NewContentRepo(db)
	} else {
		contentRepo = fsrepo.NewContentRepo(cfg.ContentFilePath)
	}

	contentOpts := []service.ContentOption{
		service.WithMaxContentSize(cfg.ContentMaxSize),
		service.WithBackups(cfg.BackupEnabled),
		service.WithContentLogger(logger.Named("content")),
	}
	if cfg.S3.Enabled() {
		mirror, err := s3backup.New(ctx, s3backup.Config{
			Bucket:         cfg.S3.Bucket,
			Region:         cfg.S3.Region,
			Prefix:         cfg.S3.Prefix,
			AccessKeyID:    cfg.S3.AccessKeyID,
			SecretKey:      cfg.S3.SecretKey,
			Endpoint:       cfg.S3.Endpoint,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			logger.Fatal("s3 backup mirror", zap.Error(err))
		}
		contentOpts = append(contentOpts, service.WithBackupMirror(mirror))
	}

	// Contact notifications
	var notifier notify.Notifier = notify.NewLog(logger.Named("contact"))
	if cfg.PostmarkEnabled() {
		pm, err := notify.NewPostmark(notify.PostmarkConfig{
			ServerToken: cfg.PostmarkServerToken,
			From:        cfg.ContactNotifyFrom,
			To:          cfg.ContactNotifyTo,
		})
		if err != nil {
			logger.Fatal("postmark", zap.Error(err))
		}
		notifier = pm
	}

	// Services
	authSvc := service.NewAuthService(secret, sessions, lim,
		service.WithAuthLogger(logger.Named("auth")),
		service.WithVerboseAuthLogs(cfg.APILogs),
	)
	contentSvc := service.NewContentService(contentRepo, authSvc, contentOpts...)
	contactSvc := service.NewContactService(notifier, lim, logger.Named("contact"))

	// Session janitor
	janitor := session.NewJanitor(sessions, cfg.CleanupInterval, logger.Named("janitor"))
	go janitor.Run(ctx)

	// HTTP
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	cookies := httpserver.NewCookieCodec(cfg.CookieName, []byte(cfg.SessionSecret), ttl, cfg.Env != config.EnvDevelopment)
	app := httpserver.New(authSvc, contentSvc, contactSvc, lim, cookies, logger.Named("http"),
		httpserver.Options{
			MaxContentBody: int64(cfg.ContentMaxSize) * 4,
			MaxContentSize: cfg.ContentMaxSize,
			VerboseLogs:    cfg.APILogs,
		})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		errCh <- srv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown", zap.Error(err))
			_ = srv.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}

func newLogger(cfg *config.Config) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if cfg.Production() {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return zap.NewNop()
	}
	return l
}
