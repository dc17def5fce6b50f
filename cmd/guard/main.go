package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vitos/futures_risk_guard/internal/domain"
	"github.com/vitos/futures_risk_guard/internal/infrastructure/logger"
	"github.com/vitos/futures_risk_guard/internal/infrastructure/panelapi"
	"github.com/vitos/futures_risk_guard/internal/infrastructure/storage"
	"github.com/vitos/futures_risk_guard/internal/usecase"
	"github.com/vitos/futures_risk_guard/internal/web"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Panel struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"panel"`
	Monitor struct {
		PollIntervalMs       int     `yaml:"poll_interval_ms"`
		WarnThreshold        float64 `yaml:"warn_threshold"`
		LiquidationThreshold float64 `yaml:"liquidation_threshold"`
	} `yaml:"monitor"`
	Risk struct {
		PricePrecision int `yaml:"price_precision"`
	} `yaml:"risk"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
}

func loadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func main() {
	// 1. Load Config
	cfg, err := loadConfig("config/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	var log *zap.Logger
	if cfg.Logging.File != "" {
		log, err = logger.NewFileLogger(cfg.Logging.File, cfg.Logging.Level)
	} else {
		log, err = logger.NewLogger(cfg.Logging.Level)
	}
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. Init Storage (journal is optional)
	var journal domain.JournalRepository
	if cfg.Storage.Path != "" {
		store, err := storage.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			log.Fatal("Failed to init sqlite", zap.Error(err))
		}
		defer store.Close()
		journal = store
	}

	// 4. Init Panel API Client
	api := panelapi.NewClient(cfg.Panel.BaseURL)

	// 5. Init Notification Hub
	hub := web.NewHub(log)
	go hub.Run()

	// 6. Init Services
	calc := usecase.NewRiskCalculator(cfg.Risk.PricePrecision)
	cooldown := usecase.NewCooldownController(api, hub, log)
	cooldown.SetCountdownSink(hub.BroadcastCountdown)

	controller := usecase.NewPositionController(api, journal, hub, log)
	monitor := usecase.NewPositionMonitor(monitorConfig(cfg), api, controller, hub, log)
	controller.SetOnChange(monitor.RefreshNow)

	submitter := usecase.NewOrderSubmitter(api, cooldown, journal, hub, log)
	submitter.SetOnSuccess(monitor.RefreshNow)

	// 7. Initial cooldown sync: the server may already be in a window.
	if err := cooldown.Sync(context.Background()); err != nil {
		log.Warn("Initial cooldown sync failed", zap.Error(err))
	}

	// 8. Start Monitor Loop
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	monitor.Start(ctx)

	// 9. Init Web Server
	port := cfg.Server.Port
	if port == 0 {
		port = 8080 // Default
	}
	server := web.NewServer(port, monitor, submitter, controller, cooldown, calc, api, journal, hub, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// 10. Wait for Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down...")
	monitor.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)
}

func monitorConfig(cfg *Config) usecase.MonitorConfig {
	mc := usecase.DefaultMonitorConfig()
	if cfg.Monitor.PollIntervalMs > 0 {
		mc.PollInterval = time.Duration(cfg.Monitor.PollIntervalMs) * time.Millisecond
	}
	if cfg.Monitor.WarnThreshold < 0 {
		mc.WarnThreshold = cfg.Monitor.WarnThreshold
	}
	if cfg.Monitor.LiquidationThreshold < 0 {
		mc.LiquidationThreshold = cfg.Monitor.LiquidationThreshold
	}
	return mc
}
