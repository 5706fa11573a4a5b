package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"local"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Timezone    string `env:"TIMEZONE" envDefault:"America/Sao_Paulo"`

	CacheTTL     time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT" envDefault:"30s"`

	SessionSecret    string        `env:"SESSION_SECRET,required,notEmpty"`
	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"8h"`
	MaxLoginAttempts int           `env:"MAX_LOGIN_ATTEMPTS" envDefault:"5"`
	LockoutDuration  time.Duration `env:"LOCKOUT_DURATION" envDefault:"30m"`

	TenantsFile           string `env:"TENANTS_FILE"`
	MasterSheetID         string `env:"MASTER_SHEET_ID"`
	GoogleCredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE"`
	DatasetPath           string `env:"DATASET_PATH" envDefault:"conversations.xlsx"`

	ChatvoltAPIURL string `env:"CHATVOLT_API_URL" envDefault:"https://api.chatvolt.ai"`
	ChatvoltAPIKey string `env:"CHATVOLT_API_KEY"`

	SLASeconds            float64 `env:"SLA_SECONDS" envDefault:"300"`
	TargetResponseMinutes float64 `env:"TARGET_RESPONSE_MINUTES" envDefault:"5"`
	TargetSatisfaction    float64 `env:"TARGET_SATISFACTION" envDefault:"4.0"`
	TargetResolutionRate  float64 `env:"TARGET_RESOLUTION_RATE" envDefault:"0.9"`
	MaxExportRows         int     `env:"MAX_EXPORT_ROWS" envDefault:"50000"`
}

// Load reads .env when present and parses the environment into a Config.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.TenantsFile == "" && cfg.MasterSheetID == "" {
		return Config{}, fmt.Errorf("one of TENANTS_FILE or MASTER_SHEET_ID is required")
	}
	if cfg.MasterSheetID != "" && cfg.GoogleCredentialsFile == "" && cfg.TenantsFile == "" {
		return Config{}, fmt.Errorf("MASTER_SHEET_ID requires GOOGLE_CREDENTIALS_FILE")
	}
	return cfg, nil
}

// Location resolves Timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
