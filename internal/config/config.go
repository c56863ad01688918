package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Monitor  MonitorConfig
	Analysis AnalysisConfig
	DB       DatabaseConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host          string
	Port          int
	RateLimitRPS  int
	AllowedOrigin string
}

type MonitorConfig struct {
	Window      time.Duration
	FullWindow  time.Duration
	Concurrency int
}

type AnalysisConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:          getEnv("SERVER_HOST", "localhost"),
			Port:          getEnvInt("SERVER_PORT", 8080),
			RateLimitRPS:  getEnvInt("RATE_LIMIT_RPS", 50),
			AllowedOrigin: getEnv("ALLOWED_ORIGIN", "*"),
		},
		Monitor: MonitorConfig{
			Window:      getEnvDuration("MONITOR_WINDOW", 30*time.Minute),
			FullWindow:  getEnvDuration("MONITOR_FULL_WINDOW", 24*time.Hour),
			Concurrency: getEnvInt("MONITOR_CONCURRENCY", 4),
		},
		Analysis: AnalysisConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			BaseURL: getEnv("OPENAI_BASE_URL", ""),
			Model:   getEnv("OPENAI_MODEL", ""),
			Timeout: getEnvDuration("ANALYSIS_TIMEOUT", 30*time.Second),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/disaster-watch.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Monitor.Window < time.Minute {
		return fmt.Errorf("monitor window must be at least 1 minute")
	}
	if c.Monitor.FullWindow < c.Monitor.Window {
		return fmt.Errorf("full window must not be shorter than the fine window")
	}
	if c.Monitor.Concurrency < 1 {
		return fmt.Errorf("monitor concurrency must be positive")
	}
	if c.Analysis.Timeout < time.Second {
		return fmt.Errorf("analysis timeout must be at least 1 second")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
