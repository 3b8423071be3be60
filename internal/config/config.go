package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultCategorySheets lists the per-category stock sheets the spreadsheet
// carries today. Overridable via INVENTORY_SHEETS.
var DefaultCategorySheets = []string{
	"GEN MDSE",
	"TOOLS",
	"ELECTRICAL",
	"METALS",
	"HARDWARE",
	"PLUMBING",
	"TREASURE ISLAND",
	"FISHING",
}

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Sheets    SheetsConfig
	Inventory InventoryConfig
	Reporting ReportingConfig
	Alerts    AlertsConfig
	MongoDB   MongoDBConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// AuthConfig holds the login gate credentials and token signing secret.
type AuthConfig struct {
	Username  string
	Password  string
	JWTSecret string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// InventoryConfig holds the sheet layout and core behavior knobs.
type InventoryConfig struct {
	CategorySheets []string
	RecordsSheet   string
	CacheTTLSecs   int
	Timezone       string
	CoercionPolicy string
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	DriftCron    string
}

// AlertsConfig holds low-stock webhook settings. An empty WebhookURL disables
// alerting.
type AlertsConfig struct {
	WebhookURL        string
	Token             string
	LowStockThreshold float64
}

// MongoDBConfig holds settings for the report archive. An empty URI disables
// archiving.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	cacheTTL, err := strconv.Atoi(getenvWithDefault("SHEET_CACHE_TTL_SECONDS", "5"))
	if err != nil {
		return nil, fmt.Errorf("SHEET_CACHE_TTL_SECONDS must be an integer: %w", err)
	}

	threshold, err := strconv.ParseFloat(getenvWithDefault("LOW_STOCK_THRESHOLD", "0"), 64)
	if err != nil {
		return nil, fmt.Errorf("LOW_STOCK_THRESHOLD must be a number: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Auth: AuthConfig{
			Username:  os.Getenv("LOGIN_USERNAME"),
			Password:  os.Getenv("LOGIN_PASSWORD"),
			JWTSecret: os.Getenv("JWT_SECRET"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Inventory: InventoryConfig{
			CategorySheets: splitList(os.Getenv("INVENTORY_SHEETS"), DefaultCategorySheets),
			RecordsSheet:   getenvWithDefault("RECORDS_SHEET", "RECORDS"),
			CacheTTLSecs:   cacheTTL,
			Timezone:       getenvWithDefault("TIMEZONE", "Asia/Manila"),
			CoercionPolicy: getenvWithDefault("COERCION_POLICY", "lenient"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * *"),
			DriftCron:    getenvWithDefault("DRIFT_CRON_SCHEDULE", "30 20 * * *"),
		},
		Alerts: AlertsConfig{
			WebhookURL:        os.Getenv("ALERT_WEBHOOK_URL"),
			Token:             os.Getenv("ALERT_WEBHOOK_TOKEN"),
			LowStockThreshold: threshold,
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "stockbook"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.Auth.Username == "":
		return errors.New("LOGIN_USERNAME must be provided")
	case c.Auth.Password == "":
		return errors.New("LOGIN_PASSWORD must be provided")
	case c.Auth.JWTSecret == "":
		return errors.New("JWT_SECRET must be provided")
	}

	if c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided")
	}

	if c.Sheets.SpreadsheetID == "" {
		return errors.New("GOOGLE_SHEET_DATABASE_ID must be provided")
	}

	if len(c.Inventory.CategorySheets) == 0 {
		return errors.New("INVENTORY_SHEETS must name at least one category sheet")
	}

	if c.Inventory.RecordsSheet == "" {
		return errors.New("RECORDS_SHEET must not be empty")
	}

	if c.Inventory.CacheTTLSecs < 0 {
		return errors.New("SHEET_CACHE_TTL_SECONDS must not be negative")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(value string, fallback []string) []string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
