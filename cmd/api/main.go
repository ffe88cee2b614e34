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

	"chatline-platform/internal/account"
	"chatline-platform/internal/audit"
	"chatline-platform/internal/auth"
	"chatline-platform/internal/chat"
	"chatline-platform/internal/config"
	"chatline-platform/internal/database"
	"chatline-platform/internal/httpapi"
	"chatline-platform/internal/message"
	"chatline-platform/internal/metrics"
	"chatline-platform/internal/session"
	"chatline-platform/internal/storage"
	"chatline-platform/internal/sweeper"
	"chatline-platform/internal/withdraw"
	"chatline-platform/pkg/logger"
	"chatline-platform/pkg/utils"
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

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := database.RunMigrations(cfg.PostgresURL()); err != nil {
		log.Error("migrations failed", "err", err)
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

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	uploader, err := storage.NewSpacesUploader(cfg.Storage)
	if err != nil {
		log.Error("storage init failed", "err", err)
		os.Exit(1)
	}

	collector := metrics.NewCollector()

	accounts := account.NewService(db)
	sessions := session.NewService(db)
	messages := message.NewService(db)
	withdraws := withdraw.NewService(db)
	auditTrail := audit.NewService(audit.NewPostgresRepo(db))

	hub := chat.NewHub(collector)
	presence := chat.NewPresence(rdb, cfg.Chat.PresenceTTL)
	gateway := chat.NewGateway(hub, sessions, messages, presence, authManager, cfg.Chat, log, collector)

	// Message expiry sweeper runs for the life of the process.
	sweep := sweeper.New(&sweeper.SessionStore{DB: db}, messages, log, collector)
	sweep.Interval = cfg.Chat.SweepInterval
	go sweep.Start(rootCtx)

	handlers := httpapi.Handlers{
		Auth:                authManager,
		Accounts:            accounts,
		Sessions:            sessions,
		Messages:            messages,
		Withdraws:           withdraws,
		Audit:               auditTrail,
		Uploader:            uploader,
		Gateway:             gateway,
		Metrics:             collector,
		MaxVoiceUploadBytes: cfg.Chat.MaxVoiceUploadBytes,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, handlers, authManager, collector, gateway, db)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
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
}
