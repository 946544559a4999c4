package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedKeys = []string{
	"APP_PORT", "LOG_LEVEL", "APP_ENV", "STORE_DRIVER", "DATABASE_URL", "DB_MAX_OPEN_CONNS",
	"MONGODB_URI", "MONGODB_DB_NAME", "SQLITE_PATH", "STATUS_WORKERS", "REPORT_CRON_SCHEDULE",
	"RFID_SWEEP_SCHEDULE", "RFID_SCAN_TTL", "TIMEZONE", "WHATSAPP_TOKEN", "WHATSAPP_PHONE_NUMBER_ID",
	"WHATSAPP_BASE_URL", "WHATSAPP_API_VERSION", "WHATSAPP_ALERT_RECIPIENT",
	"GOOGLE_SHEETS_CREDENTIALS_PATH", "GOOGLE_SHEET_DATABASE_ID", "SHEETS_SUMMARY_RANGE",
}

// clearEnv unsets every key Load reads and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range managedKeys {
		old, had := os.LookupEnv(key)
		require.NoError(t, os.Unsetenv(key))
		t.Cleanup(func() {
			if had {
				_ = os.Setenv(key, old)
			} else {
				_ = os.Unsetenv(key)
			}
		})
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Development)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "dairysense.db", cfg.Store.SQLitePath)
	assert.Equal(t, 10, cfg.Store.MaxOpenConns)
	assert.Equal(t, 8, cfg.Monitoring.StatusWorkers)
	assert.Equal(t, "0 21 * * *", cfg.Reporting.CronSchedule)
	assert.Equal(t, "@every 5m", cfg.RFID.SweepSchedule)
	assert.Equal(t, 10*time.Minute, cfg.RFID.ScanTTL)
	assert.Equal(t, "Summary!A:F", cfg.Sheets.SummaryRange)
	assert.False(t, cfg.WhatsApp.Enabled())
	assert.False(t, cfg.Sheets.Enabled())
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), ".env")
	content := "STATUS_WORKERS=3\nRFID_SCAN_TTL=90s\nAPP_ENV=development\nSTORE_DRIVER=Postgres\nDATABASE_URL=postgres://localhost/dairy\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Monitoring.StatusWorkers)
	assert.Equal(t, 90*time.Second, cfg.RFID.ScanTTL)
	assert.True(t, cfg.Log.Development)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "non numeric workers", env: map[string]string{"STATUS_WORKERS": "many"}},
		{name: "zero workers", env: map[string]string{"STATUS_WORKERS": "0"}},
		{name: "bad ttl", env: map[string]string{"RFID_SCAN_TTL": "ten"}},
		{name: "unknown driver", env: map[string]string{"STORE_DRIVER": "oracle"}},
		{name: "postgres without dsn", env: map[string]string{"STORE_DRIVER": "postgres"}},
		{name: "alert without token", env: map[string]string{"WHATSAPP_ALERT_RECIPIENT": "224600000000"}},
		{name: "sheets half configured", env: map[string]string{"GOOGLE_SHEET_DATABASE_ID": "sheet"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(missingEnvFile(t))
			assert.Error(t, err)
		})
	}
}

func TestWhatsAppEnabled(t *testing.T) {
	cfg := WhatsAppConfig{AccessToken: "t", PhoneNumberID: "p", AlertRecipient: "r"}
	assert.True(t, cfg.Enabled())
	cfg.AlertRecipient = ""
	assert.False(t, cfg.Enabled())
}
