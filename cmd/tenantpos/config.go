package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/neomorfeo/tenantpos/internal/app"
)

// config holds the process settings read from the environment.
type config struct {
	Port         string
	DatabasePath string
	JWTSecret    string
	JWTIssuer    string
	TokenTTL     time.Duration
	LogFormat    string
	AuditWorkers int
	Defaults     app.TenantDefaults
}

func loadConfig() (config, error) {
	cfg := config{
		Port:         envOrDefault("PORT", "8080"),
		DatabasePath: envOrDefault("DATABASE_PATH", "tenantpos.db"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		JWTIssuer:    envOrDefault("JWT_ISSUER", "tenantpos"),
		LogFormat:    envOrDefault("LOG_FORMAT", "text"),
		Defaults: app.TenantDefaults{
			CurrencyCode:   envOrDefault("DEFAULT_CURRENCY_CODE", "USD"),
			CurrencySymbol: envOrDefault("DEFAULT_CURRENCY_SYMBOL", "$"),
		},
	}

	if cfg.JWTSecret == "" {
		return config{}, errors.New("JWT_SECRET is required")
	}

	ttl, err := time.ParseDuration(envOrDefault("TOKEN_TTL", "8h"))
	if err != nil || ttl <= 0 {
		return config{}, fmt.Errorf("TOKEN_TTL must be a positive duration, got %q", os.Getenv("TOKEN_TTL"))
	}
	cfg.TokenTTL = ttl

	rate, err := strconv.ParseFloat(envOrDefault("DEFAULT_TAX_RATE", "0"), 64)
	if err != nil || rate < 0 || rate > 1 {
		return config{}, fmt.Errorf("DEFAULT_TAX_RATE must be a fraction between 0 and 1, got %q", os.Getenv("DEFAULT_TAX_RATE"))
	}
	cfg.Defaults.TaxRate = rate

	workers, err := strconv.Atoi(envOrDefault("AUDIT_WORKERS", "2"))
	if err != nil || workers < 1 {
		return config{}, fmt.Errorf("AUDIT_WORKERS must be a positive integer, got %q", os.Getenv("AUDIT_WORKERS"))
	}
	cfg.AuditWorkers = workers

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
