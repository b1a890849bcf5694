package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	// HTTP server
	Port string

	// Database
	SQLiteDBPath string

	// Ledger coordinator retry policy
	LedgerMaxAttempts int
	LedgerRetryBase   time.Duration
	CommitTimeout     time.Duration

	// Defaults applied when a budget ledger is first created
	DefaultTotalBudget  decimal.Decimal
	DefaultSavingTarget decimal.Decimal

	// AMQP (optional; empty URL disables event publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Report export (optional; empty spreadsheet ID disables export)
	GoogleSpreadsheetID string
	GoogleSheetName     string
	ExportDebounce      time.Duration
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8082"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/finwise.db"),

		LedgerMaxAttempts: getEnvInt("LEDGER_MAX_ATTEMPTS", 3),
		LedgerRetryBase:   getEnvDuration("LEDGER_RETRY_BASE", 25*time.Millisecond),
		CommitTimeout:     getEnvDuration("LEDGER_COMMIT_TIMEOUT", 5*time.Second),

		DefaultTotalBudget:  getEnvDecimal("DEFAULT_TOTAL_BUDGET", "1000000"),
		DefaultSavingTarget: getEnvDecimal("DEFAULT_SAVING_TARGET", "100000"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finwise"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Reports"),
		ExportDebounce:      getEnvDuration("EXPORT_DEBOUNCE", 30*time.Second),
	}
}

// Validate checks the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errs = append(errs, "SQLite database path cannot be empty")
	} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	}

	if c.LedgerMaxAttempts < 1 || c.LedgerMaxAttempts > 10 {
		errs = append(errs, fmt.Sprintf("invalid ledger max attempts %d: must be between 1 and 10", c.LedgerMaxAttempts))
	}
	if c.LedgerRetryBase < time.Millisecond || c.LedgerRetryBase > time.Second {
		errs = append(errs, fmt.Sprintf("invalid ledger retry base %v: must be between 1ms and 1s", c.LedgerRetryBase))
	}
	if c.CommitTimeout < 100*time.Millisecond || c.CommitTimeout > time.Minute {
		errs = append(errs, fmt.Sprintf("invalid commit timeout %v: must be between 100ms and 1m", c.CommitTimeout))
	}

	if c.DefaultTotalBudget.IsNegative() {
		errs = append(errs, fmt.Sprintf("invalid default total budget %s: must not be negative", c.DefaultTotalBudget))
	}
	if !c.DefaultSavingTarget.IsPositive() {
		errs = append(errs, fmt.Sprintf("invalid default saving target %s: must be greater than zero", c.DefaultSavingTarget))
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" && c.GoogleSheetName == "" {
		errs = append(errs, "Google sheet name cannot be empty when a spreadsheet ID is provided")
	}
	if c.ExportDebounce < time.Second || c.ExportDebounce > time.Hour {
		errs = append(errs, fmt.Sprintf("invalid export debounce %v: must be between 1s and 1h", c.ExportDebounce))
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

func getEnvDecimal(key, defaultValue string) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return decimal.RequireFromString(defaultValue)
}
