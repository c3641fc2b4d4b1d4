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

	"github.com/worldskandi/call-companion-ai/internal/actions"
	"github.com/worldskandi/call-companion-ai/internal/agent"
	"github.com/worldskandi/call-companion-ai/internal/audit"
	"github.com/worldskandi/call-companion-ai/internal/auth"
	"github.com/worldskandi/call-companion-ai/internal/capacity"
	"github.com/worldskandi/call-companion-ai/internal/config"
	"github.com/worldskandi/call-companion-ai/internal/httpapi"
	"github.com/worldskandi/call-companion-ai/internal/runtime"
	"github.com/worldskandi/call-companion-ai/internal/telephony"
	"github.com/worldskandi/call-companion-ai/pkg/logger"
	"github.com/worldskandi/call-companion-ai/pkg/utils"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
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

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	auditSvc := audit.NewService(audit.NewPostgresRepo(db))

	bridge := actions.NewBridge(actions.Options{
		BaseURL:  cfg.Actions.BaseURL,
		APIKey:   cfg.Actions.APIKey,
		Timeout:  cfg.Actions.Timeout,
		Recorder: agent.AuditRecorder{Audit: auditSvc},
	})

	var tel telephony.Provider = telephony.NewLiveKit(telephony.LiveKitConfig{
		URL:             cfg.LiveKit.URL,
		APIKey:          cfg.LiveKit.APIKey,
		APISecret:       cfg.LiveKit.APISecret,
		OutboundTrunkID: cfg.LiveKit.OutboundTrunkID,
	})

	worker := agent.NewWorker(agent.Deps{
		Store:     capacity.NewRedisStore(rdb, cfg.Outbound.ConcurrencyLimit, cfg.Outbound.SlotTTL),
		Runtime:   runtime.NewClient(cfg.Runtime.URL, cfg.Runtime.APIKey, &http.Client{Timeout: 30 * time.Second}),
		Telephony: tel,
		Bridge:    bridge,
		Audit:     auditSvc,
		ClaimTTL:  cfg.Outbound.JobClaimTTL,
	})

	h := httpapi.Handlers{
		Jobs:   worker,
		Calls:  worker.Registry(),
		Tokens: authManager,
		Ready: func(ctx context.Context) error {
			if err := utils.HealthCheck(ctx, db, 2*time.Second); err != nil {
				return err
			}
			return rdb.Ping(ctx).Err()
		},
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, auth.RequireToken(authManager))

	// Outbound jobs answer only after the callee picks up.
	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("agent listening", "addr", srv.Addr, "env", cfg.App.Env, "telephony", tel.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated", "active_calls", worker.Registry().Len())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	done := make(chan struct{})
	go func() {
		worker.Registry().Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Warn("shutdown before background persistence finished")
	}
}
