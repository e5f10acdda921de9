// Package config resolves server settings from the environment.
//
// An optional .env file in the working directory is loaded first; variables
// already set in the process environment take precedence over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/finanza/finanza-api/pkg/logging"
)

// DevSecretKey is used when SECRET_KEY is unset. It must never reach production.
const DevSecretKey = "finanza-dev-secret-change-me"

// Config holds every setting the server reads at startup.
type Config struct {
	Addr            string
	DatabaseURL     string
	DatabaseName    string
	SecretKey       string
	TokenTTL        time.Duration
	ResetCodeTTL    time.Duration
	ProbeTimeout    time.Duration
	LogLevel        slog.Level
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	DebugResetCodes bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DATABASE_NAME", "finanza")
	v.SetDefault("SECRET_KEY", DevSecretKey)
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("RESET_CODE_TTL", "15m")
	v.SetDefault("PROBE_TIMEOUT", "2s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("OPENAI_BASE_URL", "")
	v.SetDefault("DEBUG_RESET_CODES", false)
}

// Load reads the optional envFile and then the process environment.
// A missing envFile is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Addr:            v.GetString("ADDR"),
		DatabaseURL:     strings.TrimSpace(v.GetString("DATABASE_URL")),
		DatabaseName:    v.GetString("DATABASE_NAME"),
		SecretKey:       v.GetString("SECRET_KEY"),
		TokenTTL:        v.GetDuration("TOKEN_TTL"),
		ResetCodeTTL:    v.GetDuration("RESET_CODE_TTL"),
		ProbeTimeout:    v.GetDuration("PROBE_TIMEOUT"),
		LogLevel:        logging.ParseLevel(v.GetString("LOG_LEVEL")),
		OpenAIAPIKey:    v.GetString("OPENAI_API_KEY"),
		OpenAIModel:     v.GetString("OPENAI_MODEL"),
		OpenAIBaseURL:   v.GetString("OPENAI_BASE_URL"),
		DebugResetCodes: v.GetBool("DEBUG_RESET_CODES"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("ADDR must not be empty"))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("SECRET_KEY must not be empty"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL))
	}
	if c.ResetCodeTTL <= 0 {
		errs = append(errs, fmt.Errorf("RESET_CODE_TTL must be positive, got %s", c.ResetCodeTTL))
	}
	if c.ProbeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("PROBE_TIMEOUT must be positive, got %s", c.ProbeTimeout))
	}
	return errors.Join(errs...)
}

// UsesDevSecret reports whether the built-in development secret is in use.
func (c *Config) UsesDevSecret() bool {
	return c.SecretKey == DevSecretKey
}
