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

	// Local cache store
	SQLiteStorePath string

	// AMQP (optional sync-request bus between app and worker)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Remote ledger
	LedgerBackend       string // "firestore" or "memory"
	FirebaseProjectID   string
	FirebaseWebAPIKey   string
	GoogleCredentialsFile string

	// Assistant
	AssistantProvider string // "gemini", "openai" or "heuristic"
	GeminiAPIKey      string
	OpenAIAPIKey      string
	AssistantTimeout  time.Duration

	// Sync worker
	SyncInterval  time.Duration
	RemoteTimeout time.Duration
}

func Load() *Config {
	cfg := &Config{
		Port:            getEnv("PORT", "8081"),
		SQLiteStorePath: getEnv("SQLITE_STORE_PATH", "./data/flowly.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "flowly"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_requests"),

		LedgerBackend:         getEnv("LEDGER_BACKEND", "memory"),
		FirebaseProjectID:     getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseWebAPIKey:     getEnv("FIREBASE_WEB_API_KEY", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		AssistantProvider: getEnv("ASSISTANT_PROVIDER", "gemini"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		AssistantTimeout:  getEnvDuration("ASSISTANT_TIMEOUT", 20*time.Second),

		SyncInterval:  getEnvDuration("SYNC_INTERVAL", 30*time.Second),
		RemoteTimeout: getEnvDuration("REMOTE_TIMEOUT", 20*time.Second),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate ledger backend
	validBackends := []string{"memory", "firestore"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.LedgerBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid ledger backend '%s': must be one of %v", c.LedgerBackend, validBackends))
	}

	// Firestore backend needs a project and credentials
	if c.LedgerBackend == "firestore" {
		if c.FirebaseProjectID == "" {
			errors = append(errors, "FIREBASE_PROJECT_ID is required when using the firestore backend")
		}
		if c.GoogleCredentialsFile != "" {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	// The local store path must be creatable
	if c.SQLiteStorePath == "" {
		errors = append(errors, "SQLite store path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteStorePath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite store directory '%s': %v", dir, err))
				}
			}
		}
	}

	// Validate AMQP URL if provided
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

	// Validate assistant provider
	switch c.AssistantProvider {
	case "gemini", "openai", "heuristic":
	default:
		errors = append(errors, fmt.Sprintf("invalid assistant provider '%s': must be gemini, openai or heuristic", c.AssistantProvider))
	}

	if c.AssistantTimeout < time.Second || c.AssistantTimeout > 60*time.Second {
		errors = append(errors, fmt.Sprintf("invalid assistant timeout %v: must be between 1s and 60s", c.AssistantTimeout))
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if c.RemoteTimeout < time.Second || c.RemoteTimeout > 60*time.Second {
		errors = append(errors, fmt.Sprintf("invalid remote timeout %v: must be between 1s and 60s", c.RemoteTimeout))
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
