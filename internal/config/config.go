package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers understood by the server and the CLI.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongoDB  = "mongodb"
)

// Config represents the full application configuration surface.
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Store      StoreConfig
	Monitoring MonitoringConfig
	Reporting  ReportingConfig
	RFID       RFIDConfig
	WhatsApp   WhatsAppConfig
	Sheets     SheetsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig selects the zap level and encoder.
type LogConfig struct {
	Level       string
	Development bool
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Driver       string
	DatabaseURL  string
	MaxOpenConns int
	MongoURI     string
	MongoDBName  string
	SQLitePath   string
}

// MonitoringConfig tunes the status computation fan-out.
type MonitoringConfig struct {
	StatusWorkers int
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
}

// RFIDConfig controls the pending-scan cache.
type RFIDConfig struct {
	SweepSchedule string
	ScanTTL       time.Duration
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
// Alerts are disabled when the token or recipient is missing.
type WhatsAppConfig struct {
	AccessToken    string
	PhoneNumberID  string
	BaseURL        string
	APIVersion     string
	AlertRecipient string
}

// Enabled reports whether daily alerts can be delivered.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != "" && c.AlertRecipient != ""
}

// SheetsConfig contains configuration required to export summaries to Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	SummaryRange    string
}

// Enabled reports whether the summary export is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
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
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	maxOpen, err := getenvInt("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return nil, err
	}
	workers, err := getenvInt("STATUS_WORKERS", 8)
	if err != nil {
		return nil, err
	}
	scanTTL, err := getenvDuration("RFID_SCAN_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level:       getenvWithDefault("LOG_LEVEL", "info"),
			Development: strings.EqualFold(os.Getenv("APP_ENV"), "development"),
		},
		Store: StoreConfig{
			Driver:       strings.ToLower(getenvWithDefault("STORE_DRIVER", DriverSQLite)),
			DatabaseURL:  os.Getenv("DATABASE_URL"),
			MaxOpenConns: maxOpen,
			MongoURI:     getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			MongoDBName:  getenvWithDefault("MONGODB_DB_NAME", "dairysense"),
			SQLitePath:   getenvWithDefault("SQLITE_PATH", "dairysense.db"),
		},
		Monitoring: MonitoringConfig{
			StatusWorkers: workers,
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 21 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Local"),
		},
		RFID: RFIDConfig{
			SweepSchedule: getenvWithDefault("RFID_SWEEP_SCHEDULE", "@every 5m"),
			ScanTTL:       scanTTL,
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:    os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID:  os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:        getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:     getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			AlertRecipient: os.Getenv("WHATSAPP_ALERT_RECIPIENT"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			SummaryRange:    getenvWithDefault("SHEETS_SUMMARY_RANGE", "Summary!A:F"),
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

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("SQLITE_PATH must not be empty")
		}
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("DATABASE_URL must be provided for the postgres driver")
		}
	case DriverMongoDB:
		if c.Store.MongoURI == "" || c.Store.MongoDBName == "" {
			return errors.New("MONGODB_URI and MONGODB_DB_NAME must be provided for the mongodb driver")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	if c.Monitoring.StatusWorkers <= 0 {
		return errors.New("STATUS_WORKERS must be positive")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	if c.RFID.SweepSchedule == "" {
		return errors.New("RFID_SWEEP_SCHEDULE must be provided")
	}

	if c.RFID.ScanTTL <= 0 {
		return errors.New("RFID_SCAN_TTL must be positive")
	}

	if c.WhatsApp.AlertRecipient != "" {
		switch {
		case c.WhatsApp.AccessToken == "":
			return errors.New("WHATSAPP_TOKEN must be provided when WHATSAPP_ALERT_RECIPIENT is set")
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided when WHATSAPP_ALERT_RECIPIENT is set")
		}
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be set together")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
