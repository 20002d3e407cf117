// Package config содержит логику чтения конфигурации сервиса ЛиброНова.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса ЛиброНова.
type Config struct {
	RunAddress     string        `env:"RUN_ADDRESS"`
	DatabaseURI    string        `env:"DATABASE_URI"`
	CatalogAddress string        `env:"CATALOG_ADDRESS"`
	LoanPeriodDays int           `env:"LOAN_PERIOD_DAYS"`
	DailyFineRate  float64       `env:"DAILY_FINE_RATE"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envCatalogAddress := cfg.CatalogAddress
	envLoanPeriodDays := cfg.LoanPeriodDays
	envDailyFineRate := cfg.DailyFineRate
	envSweepInterval := cfg.SweepInterval

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.CatalogAddress, "c", "", "external book catalog address")
	flag.IntVar(&cfg.LoanPeriodDays, "p", 14, "loan period in days")
	flag.Float64Var(&cfg.DailyFineRate, "f", 5.00, "daily fine rate")
	flag.DurationVar(&cfg.SweepInterval, "s", time.Hour, "overdue sweep interval")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envCatalogAddress != "" {
		cfg.CatalogAddress = envCatalogAddress
	}
	if envLoanPeriodDays != 0 {
		cfg.LoanPeriodDays = envLoanPeriodDays
	}
	if envDailyFineRate != 0 {
		cfg.DailyFineRate = envDailyFineRate
	}
	if envSweepInterval != 0 {
		cfg.SweepInterval = envSweepInterval
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.LoanPeriodDays <= 0 {
		return nil, fmt.Errorf("loan period must be positive, got %d", cfg.LoanPeriodDays)
	}
	if cfg.DailyFineRate < 0 {
		return nil, fmt.Errorf("daily fine rate must be non-negative, got %v", cfg.DailyFineRate)
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Hour
	}

	return cfg, nil
}

// DailyFineRateCents возвращает дневную ставку штрафа в копейках.
func (c *Config) DailyFineRateCents() int64 {
	return int64(c.DailyFineRate * 100)
}
