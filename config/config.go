package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	// Server
	ServerPort string

	// Database; empty means jobs live in memory only and do not survive
	// a restart
	DatabaseURL string

	// Executor
	Workers    int
	JobTimeout time.Duration

	// Monitoring
	MonitorInterval time.Duration

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables. When CONFIG_FILE is
// set the named YAML file is applied on top of the environment values.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		Workers:         getEnvInt("WORKERS", 4),
		JobTimeout:      getEnvDuration("JOB_TIMEOUT", 10*time.Minute),
		MonitorInterval: getEnvDuration("MONITOR_INTERVAL", 30*time.Second),
		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
	}

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		if err := cfg.applyFile(file); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// fileConfig mirrors Config for YAML decoding; durations are strings so
// "30s" style values work.
type fileConfig struct {
	ServerPort      string `yaml:"server_port"`
	DatabaseURL     string `yaml:"database_url"`
	Workers         int    `yaml:"workers"`
	JobTimeout      string `yaml:"job_timeout"`
	MonitorInterval string `yaml:"monitor_interval"`
	LogLevel        string `yaml:"log_level"`
}

// applyFile overlays non-zero values from a YAML config file.
func (c *Config) applyFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading config file %s", path)
	}

	var file fileConfig
	if err := yaml.Unmarshal(b, &file); err != nil {
		return errors.Wrapf(err, "parsing config file %s", path)
	}

	if file.ServerPort != "" {
		c.ServerPort = file.ServerPort
	}
	if file.DatabaseURL != "" {
		c.DatabaseURL = file.DatabaseURL
	}
	if file.Workers != 0 {
		c.Workers = file.Workers
	}
	if file.JobTimeout != "" {
		d, err := time.ParseDuration(file.JobTimeout)
		if err != nil {
			return errors.Wrapf(err, "parsing job_timeout in %s", path)
		}
		c.JobTimeout = d
	}
	if file.MonitorInterval != "" {
		d, err := time.ParseDuration(file.MonitorInterval)
		if err != nil {
			return errors.Wrapf(err, "parsing monitor_interval in %s", path)
		}
		c.MonitorInterval = d
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
