package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/hazardwatch/go-hazard-alerts/internal/api"
	"github.com/hazardwatch/go-hazard-alerts/internal/config"
	"github.com/hazardwatch/go-hazard-alerts/internal/dedup"
	"github.com/hazardwatch/go-hazard-alerts/internal/logging"
	"github.com/hazardwatch/go-hazard-alerts/internal/monitor"
	"github.com/hazardwatch/go-hazard-alerts/internal/notify"
	"github.com/hazardwatch/go-hazard-alerts/internal/observability"
	"github.com/hazardwatch/go-hazard-alerts/internal/repository"
	"github.com/hazardwatch/go-hazard-alerts/internal/severity"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	thresholds := severity.Default()
	if cfg.Monitor.ThresholdsPath != "" {
		thresholds, err = severity.LoadFile(cfg.Monitor.ThresholdsPath)
		if err != nil {
			logging.Fatalf("Failed to load thresholds: %v", err)
		}
		slog.Info("loaded threshold overrides", "path", cfg.Monitor.ThresholdsPath)
	}

	registry := notify.NewRegistry()
	if cfg.Dispatch.RecipientsPath != "" {
		recipients, err := notify.LoadRecipientsFile(cfg.Dispatch.RecipientsPath)
		if err != nil {
			logging.Fatalf("Failed to load recipients: %v", err)
		}
		for _, rec := range recipients {
			if err := registry.Add(rec); err != nil {
				logging.Fatalf("Invalid recipient %q: %v", rec.Name, err)
			}
		}
		slog.Info("seeded recipients", "count", registry.Len())
	}

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()
	broadcaster := notify.NewBroadcaster()

	var senders notify.Senders
	if cfg.Channels.SMTPURL != "" {
		senders.Email = notify.NewShoutrrrEmailSender(cfg.Channels.SMTPURL)
	}
	if cfg.Channels.NtfyHost != "" {
		senders.Push = notify.NewShoutrrrPushSender(cfg.Channels.NtfyHost)
	}
	if cfg.Channels.TwilioAccountSID != "" {
		senders.SMS = notify.NewTwilioSMSSender(
			cfg.Channels.TwilioAccountSID,
			cfg.Channels.TwilioAuthToken,
			cfg.Channels.TwilioFromNumber,
		)
	}

	dispatcher := notify.NewDispatcher(registry, senders, broadcaster, metrics, clock, cfg.Dispatch.MaxConcurrentSends)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mon := monitor.New(monitor.Options{
		Records:    db,
		Alerts:     db,
		Thresholds: thresholds,
		Dedup:      dedup.NewCache(cfg.Dedup.Cooldown, clock),
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Clock:      clock,
		Interval:   cfg.Monitor.Interval,
		Recovery:   cfg.Monitor.RecoveryInterval,
		Lookback:   cfg.Monitor.Lookback,
	})
	mon.Start(ctx)

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimitRPS))

	handler := api.NewHandler(db, registry, dispatcher, broadcaster, clock)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	mon.Stop()
	broadcaster.Close() // Close all streams gracefully

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
