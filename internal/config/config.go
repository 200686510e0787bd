package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables holding provider credentials. They are read on every
// call through a KeyFunc so a rotated key is picked up without a restart.
const (
	OpenAIKeyEnv     = "OPENAI_API_KEY"
	PerplexityKeyEnv = "PERPLEXITY_API_KEY"
	GeminiKeyEnv     = "GEMINI_API_KEY"
)

// KeyFunc returns the current credential for a provider, or "" when absent
type KeyFunc func() string

// EnvKey returns a KeyFunc reading the named environment variable.
// Whitespace-only values count as absent.
func EnvKey(name string) KeyFunc {
	return func() string {
		return strings.TrimSpace(os.Getenv(name))
	}
}

// StaticKey returns a KeyFunc that always yields key
func StaticKey(key string) KeyFunc {
	return func() string {
		return strings.TrimSpace(key)
	}
}

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Schedule configuration
	ReportSchedule string // "daily" or "weekly"
	LiteScanHours  int    // 0 disables the lite cadence
	TimeZone       string

	// Storage configuration
	StorageAccount   string
	StorageContainer string
	ArchiveDir       string
	DatabasePath     string

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string

	// Provider configuration
	OpenAIModel     string
	PerplexityModel string
	GeminiModel     string
	ProviderTimeout time.Duration
	ScanTimeout     time.Duration

	// Keywords to scan and brands to track; the first brand is the focal brand
	Keywords []string
	Brands   []string

	// Demo endpoint requests per minute per client
	DemoRateLimit int

	// Percentage-point drop of the focal brand that triggers an alert
	AlertDropThreshold int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Debug:          getBoolEnv("DEBUG", false),
		ReportSchedule: getEnv("REPORT_SCHEDULE", "weekly"),
		LiteScanHours:  getIntEnv("LITE_SCAN_HOURS", 24),
		TimeZone:       getEnv("TIMEZONE", "UTC"),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "citations"),
		ArchiveDir:       getEnv("ARCHIVE_DIR", "./data/archive"),
		DatabasePath:     getEnv("DATABASE_PATH", "./data/airadar.db"),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),

		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		PerplexityModel: getEnv("PERPLEXITY_MODEL", "sonar"),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		ProviderTimeout: getDurationEnv("PROVIDER_TIMEOUT", 25*time.Second),
		ScanTimeout:     getDurationEnv("SCAN_TIMEOUT", 60*time.Second),

		Keywords: getSliceEnv("KEYWORDS", nil),
		Brands:   getSliceEnv("BRANDS", nil),

		DemoRateLimit:      getIntEnv("DEMO_RATE_LIMIT", 20),
		AlertDropThreshold: getIntEnv("ALERT_DROP_THRESHOLD", 15),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.ReportSchedule != "daily" && c.ReportSchedule != "weekly" {
		return fmt.Errorf("REPORT_SCHEDULE must be 'daily' or 'weekly'")
	}

	if c.LiteScanHours < 0 {
		return fmt.Errorf("LITE_SCAN_HOURS must not be negative")
	}

	if c.ProviderTimeout <= 0 || c.ScanTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT and SCAN_TIMEOUT must be positive")
	}

	if c.ProviderTimeout > c.ScanTimeout {
		return fmt.Errorf("PROVIDER_TIMEOUT (%v) must not exceed SCAN_TIMEOUT (%v)", c.ProviderTimeout, c.ScanTimeout)
	}

	if len(c.Keywords) > 0 && len(c.Brands) == 0 {
		return fmt.Errorf("BRANDS must be set when KEYWORDS are configured")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// FocalBrand returns the brand reported on per provider
func (c *Config) FocalBrand() string {
	if len(c.Brands) == 0 {
		return ""
	}
	return c.Brands[0]
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
