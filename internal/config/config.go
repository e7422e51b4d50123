package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// AMQP alert channel (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Scheduler
	TickInterval     time.Duration
	AlertHorizonDays int
	FlushBatchSize   int
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8084"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/cashmoo.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "cashmoo"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "alerts"),

		TickInterval:     getEnvDuration("TICK_INTERVAL", 30*time.Minute),
		AlertHorizonDays: getEnvInt("ALERT_HORIZON_DAYS", 7),
		FlushBatchSize:   getEnvInt("FLUSH_BATCH_SIZE", 10),
	}
}

// Validate checks the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errs = append(errs, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.TickInterval < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid tick interval %v: must be at least 1 minute", c.TickInterval))
	} else if c.TickInterval > 24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid tick interval %v: must be at most 24 hours", c.TickInterval))
	}

	if c.AlertHorizonDays < 1 || c.AlertHorizonDays > 90 {
		errs = append(errs, fmt.Sprintf("invalid alert horizon %d: must be between 1 and 90 days", c.AlertHorizonDays))
	}

	if c.FlushBatchSize < 1 || c.FlushBatchSize > 100 {
		errs = append(errs, fmt.Sprintf("invalid flush batch size %d: must be between 1 and 100", c.FlushBatchSize))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
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
		if i, err := strconv.Atoi(value); err == nil {
			return i
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
