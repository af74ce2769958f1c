package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/baltex/ffa_ledger/internal/infrastructure/logger"
	"github.com/baltex/ffa_ledger/internal/infrastructure/storage"
	"github.com/baltex/ffa_ledger/internal/usecase"
	"github.com/baltex/ffa_ledger/internal/web"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Logging struct {
		Level     string `yaml:"level"`
		AuditFile string `yaml:"audit_file"`
	} `yaml:"logging"`
	Fees struct {
		// Rates are strings so they parse exactly.
		CommissionRate string `yaml:"commission_rate"`
		ClearingFee    string `yaml:"clearing_fee"`
	} `yaml:"fees"`
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

func feeSchedule(cfg *Config) (usecase.FeeSchedule, error) {
	rate, err := decimal.NewFromString(cfg.Fees.CommissionRate)
	if err != nil {
		return usecase.FeeSchedule{}, fmt.Errorf("invalid commission_rate: %w", err)
	}
	clearing, err := decimal.NewFromString(cfg.Fees.ClearingFee)
	if err != nil {
		return usecase.FeeSchedule{}, fmt.Errorf("invalid clearing_fee: %w", err)
	}
	return usecase.FeeSchedule{CommissionRate: rate, ClearingFee: clearing}, nil
}

func main() {
	// 1. Load Config
	cfg, err := loadConfig("config/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. Init Storage
	store, err := storage.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}
	defer store.Close()

	// 4. Fee schedule
	schedule, err := feeSchedule(cfg)
	if err != nil {
		log.Fatal("Failed to parse fee schedule", zap.Error(err))
	}

	// 5. Audit log for executed trades
	auditLog := log
	if cfg.Logging.AuditFile != "" {
		auditLog, err = logger.NewFileLogger(cfg.Logging.AuditFile, "info")
		if err != nil {
			log.Error("Failed to init audit logger, using default", zap.Error(err))
			auditLog = log
		}
	}

	// 6. Init Services
	locks := usecase.NewAccountLocks()
	fees := usecase.NewFeeCalculator(schedule)
	engine := usecase.NewTradingEngine(store, fees, locks, log, auditLog)
	accounts := usecase.NewAccountService(store, locks, log)
	settlement := usecase.NewSettlementGenerator(store, locks, log)

	// 7. Wire the live summary stream
	hub := web.NewStreamHub()
	engine.OnCommit(hub.Notify)
	accounts.OnCommit(hub.Notify)

	port := cfg.Server.Port
	if port == 0 {
		port = 8080 // Default
	}
	server := web.NewServer(port, accounts, engine, settlement, hub, log)

	// 8. Start Server
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// 9. Wait for Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down...")
	server.Shutdown(context.Background())
}
