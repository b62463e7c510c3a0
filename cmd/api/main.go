package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ingatatech/e-learning-sub003/internal/audit"
	"github.com/ingatatech/e-learning-sub003/internal/auth"
	"github.com/ingatatech/e-learning-sub003/internal/config"
	"github.com/ingatatech/e-learning-sub003/internal/httpapi"
	"github.com/ingatatech/e-learning-sub003/internal/navigation"
	"github.com/ingatatech/e-learning-sub003/internal/obs"
	"github.com/ingatatech/e-learning-sub003/internal/refresh"
	"github.com/ingatatech/e-learning-sub003/internal/session"
	"github.com/ingatatech/e-learning-sub003/internal/users"
	"github.com/ingatatech/e-learning-sub003/pkg/logger"
	"github.com/ingatatech/e-learning-sub003/pkg/utils"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrMissingSecret) {
			slog.Error("refusing to start without both token signing secrets", "err", err)
		} else {
			slog.Error("config load failed", "err", err)
		}
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.DB)
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	var stores session.Factory
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		rdb, err := utils.OpenRedis(rootCtx, cfg.Redis)
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		stores = session.RedisFactory{RDB: rdb, TTL: cfg.Auth.RefreshTokenTTL, Secure: cfg.Auth.SecureCookies, Log: log}
	default:
		stores = session.CookieFactory{Secure: cfg.Auth.SecureCookies, AccessTTL: cfg.Auth.AccessTokenTTL, RefreshTTL: cfg.Auth.RefreshTokenTTL}
	}

	obs.Init()

	auditSvc := audit.NewService(audit.NewPGRepo(db))
	coordinator := refresh.NewCoordinator(authManager, auditSvc)
	resolver := session.NewResolver(authManager.AccessCodec(), time.Now)

	limiter := httpapi.NewRateLimiter(cfg.Limits.PerSecond, cfg.Limits.Burst)
	go func() {
		t := time.NewTicker(time.Minute)
		defer t.Stop()
		for {
			select {
			case now := <-t.C:
				limiter.Sweep(now)
			case <-rootCtx.Done():
				return
			}
		}
	}()

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(obs.Instrument())
	r.Use(httpapi.ClientIP())

	registerRoutes(r, routeDeps{
		auth: authManager,
		handlers: httpapi.Handlers{
			Auth:      authManager,
			Users:     users.NewPGRepo(db),
			Stores:    stores,
			Refresher: coordinator,
			Audit:     auditSvc,
		},
		limiter:  limiter,
		pageGate: navigation.PageGate(navigation.NewFlow(resolver, coordinator), stores, auditSvc),
		db:       db,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "session_backend", cfg.Session.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx)
}
