package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/MimoJanra/SitePulse/internal/alerts"
	"github.com/MimoJanra/SitePulse/internal/api"
	"github.com/MimoJanra/SitePulse/internal/auth"
	"github.com/MimoJanra/SitePulse/internal/checker"
	"github.com/MimoJanra/SitePulse/internal/config"
	"github.com/MimoJanra/SitePulse/internal/storage"
)

// @title           SitePulse API
// @version         1.0
// @description     REST API for site monitoring: HTTP reachability, TLS certificate and domain registration expiry.

// @host      localhost:8080
// @BasePath  /
// @schemes   http

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfgFile := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := buildLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	db, err := storage.InitDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to init db", zap.Error(err), zap.String("path", cfg.Database.Path))
	}
	defer db.Close()

	siteRepo := storage.NewSiteRepo(db)
	resultRepo := storage.NewResultRepo(db)
	alertRepo := storage.NewAlertConfigRepo(db)
	retentionRepo := storage.NewRetentionRepo(db)
	userRepo := storage.NewUserRepo(db)
	groupRepo := storage.NewGroupRepo(db)
	auditRepo := storage.NewAuditRepo(db)

	if err := seedAdmin(userRepo, logger); err != nil {
		logger.Fatal("failed to seed admin user", zap.Error(err))
	}

	notifier := alerts.NewTelegramSender()
	aggregator := &alerts.Aggregator{
		Notifier: notifier,
		Log:      logger,
	}

	prober := &checker.Prober{
		Sites:      siteRepo,
		Results:    resultRepo,
		CheckHTTP:  checker.NewHTTPCheck(cfg.Checker.CheckTimeout),
		CheckTLS:   checker.NewTLSCheck(cfg.Checker.CheckTimeout),
		CheckWhois: checker.NewWhoisCheck(cfg.Checker.CheckTimeout),
		Now:        time.Now,
		Log:        logger,
	}

	runner := &checker.Runner{
		Prober:      prober,
		Alerts:      aggregator,
		AlertConfig: alertRepo,
		BatchSize:   cfg.Checker.BatchSize,
		BatchDelay:  cfg.Checker.BatchDelay,
		Log:         logger,
	}

	scheduler := &checker.Scheduler{
		Sites:  siteRepo,
		Runner: runner,
		Retention: &storage.RetentionSweeper{
			Config:  retentionRepo,
			Results: resultRepo,
			Audit:   auditRepo,
			Log:     logger,
		},
		Interval: cfg.Checker.CycleInterval,
		Log:      logger,
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := &api.Server{
		Sites:     siteRepo,
		Results:   resultRepo,
		Alerts:    alertRepo,
		Retention: retentionRepo,
		Users:     userRepo,
		Groups:    groupRepo,
		Audit:     auditRepo,
		Prober:    prober,
		Notifier:  notifier,
		Auth:      cfg.Auth,
		Log:       logger,
	}

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: api.SetupRouter(server),
	}

	go func() {
		logger.Info("server started", zap.String("addr", cfg.Server.Addr()))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	scheduler.Stop()
	logger.Info("server stopped")
}

func buildLogger(level string) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if err := zapCfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	return zapCfg.Build()
}

// seedAdmin creates the default admin/admin account on an empty database so
// the instance is reachable on first start. The password must be changed
// through the API.
func seedAdmin(users *storage.UserRepo, logger *zap.Logger) error {
	hash, err := auth.HashPassword("admin")
	if err != nil {
		return err
	}
	created, err := users.EnsureAdmin(hash)
	if err != nil {
		return err
	}
	if created {
		logger.Warn("default admin account created, change its password immediately",
			zap.String("username", "admin"))
	}
	return nil
}
