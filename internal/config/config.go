package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"stipendi/internal/core"
	"stipendi/internal/persistence"
)

type Config struct {
	// HTTP Server
	Port string

	// Local store
	DataBackend  string
	SQLiteDBPath string
	StorageKey   string

	// Year range
	StartYear int
	EndYear   int

	// GitHub remote file
	GitHubOwner   string
	GitHubRepo    string
	GitHubPath    string
	GitHubBranch  string
	GitHubToken   string
	RemoteEnabled bool
	RemoteTimeout time.Duration

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Worker
	MirrorInterval time.Duration

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", defaultDBPath()),
		StorageKey:   getEnv("STORAGE_KEY", persistence.StorageKey),

		StartYear: getEnvInt("START_YEAR", core.DefaultStartYear),
		EndYear:   getEnvInt("END_YEAR", core.DefaultEndYear),

		GitHubOwner:   getEnv("GITHUB_OWNER", ""),
		GitHubRepo:    getEnv("GITHUB_REPO", ""),
		GitHubPath:    getEnv("GITHUB_PATH", "salary_data.json"),
		GitHubBranch:  getEnv("GITHUB_BRANCH", "main"),
		GitHubToken:   getEnv("GITHUB_TOKEN", ""),
		RemoteEnabled: getEnvBool("REMOTE_ENABLED", true),
		RemoteTimeout: getEnvDuration("REMOTE_TIMEOUT", 20*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "stipendi"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_reports"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Stipendi"),

		MirrorInterval: getEnvDuration("MIRROR_INTERVAL", 15*time.Minute),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// defaultDBPath places the database under the XDG data home.
func defaultDBPath() string {
	return filepath.Join(xdg.DataHome, "stipendi", "stipendi.db")
}

// Bounds returns the configured year range.
func (c *Config) Bounds() core.Bounds {
	return core.Bounds{Start: c.StartYear, End: c.EndYear}
}

// RemoteConfigured reports whether the GitHub file is enabled and located.
func (c *Config) RemoteConfigured() bool {
	return c.RemoteEnabled && c.GitHubOwner != "" && c.GitHubRepo != "" && c.GitHubPath != ""
}

// AMQPConfigured reports whether sync reports should be published.
func (c *Config) AMQPConfigured() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if strings.TrimSpace(c.StorageKey) == "" {
		errors = append(errors, "storage key cannot be empty")
	}

	if err := c.Bounds().Validate(); err != nil {
		errors = append(errors, err.Error())
	}

	if c.RemoteEnabled {
		hasOwner := c.GitHubOwner != ""
		hasRepo := c.GitHubRepo != ""
		if hasOwner != hasRepo {
			errors = append(errors, "GITHUB_OWNER and GITHUB_REPO must be set together")
		}
		if hasOwner && c.GitHubPath == "" {
			errors = append(errors, "GitHub file path cannot be empty when the remote is configured")
		}
		if c.RemoteTimeout < time.Second {
			errors = append(errors, fmt.Sprintf("invalid remote timeout %v: must be at least 1 second", c.RemoteTimeout))
		} else if c.RemoteTimeout > 5*time.Minute {
			errors = append(errors, fmt.Sprintf("invalid remote timeout %v: must be at most 5 minutes", c.RemoteTimeout))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.MirrorInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid mirror interval %v: must be at least 1 second", c.MirrorInterval))
	} else if c.MirrorInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid mirror interval %v: must be at most 24 hours", c.MirrorInterval))
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
