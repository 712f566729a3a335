package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"postgres": map[string]any{
			"sslMode": "disable",
			"master": map[string]any{
				"userName": "user",
			},
		},
		"importer": map[string]any{
			"bookingMarker":  "",
			"initialBackoff": "500ms",
		},
		"calendar": map[string]any{
			"google": map[string]any{
				"calendarId": "",
			},
		},
		"secretKey": map[string]any{
			"access": "",
		},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "POSTGRES_SSLMODE", want: "postgres.sslMode"},
		{envKey: "POSTGRES_MASTER_USERNAME", want: "postgres.master.userName"},
		{envKey: "IMPORTER_BOOKINGMARKER", want: "importer.bookingMarker"},
		{envKey: "CALENDAR_GOOGLE_CALENDARID", want: "calendar.google.calendarId"},
		{envKey: "SECRETKEY_ACCESS", want: "secretKey.access"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			assert.Equal(t, tt.want, canonicalizeEnvKey(tt.envKey, existing))
		})
	}
}

func TestLoadWithEnv_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	yamlBody := []byte("importer:\n  workers: 2\n  initialBackoff: 1s\n  bookingMarker: Booked via X\ncalendar:\n  provider: ics\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lessonsync_test.yaml"), yamlBody, 0o600))

	t.Setenv("IMPORTER_WORKERS", "6")

	cfg, err := loadFromDir(dir)
	require.NoError(t, err)

	require.NotNil(t, cfg.Importer)
	assert.Equal(t, 6, cfg.Importer.Workers)
	assert.Equal(t, time.Second, cfg.Importer.InitialBackoff)
	assert.Equal(t, "Booked via X", cfg.Importer.BookingMarker)
	assert.Equal(t, "ics", cfg.Calendar.Provider)
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, defaultMaxRequestBodySize, cfg.HTTP.MaxRequestBodySize)
	assert.Equal(t, defaultBookingMarker, cfg.Importer.BookingMarker)
	assert.Equal(t, defaultImportWorkers, cfg.Importer.Workers)
	assert.Equal(t, defaultImportMaxRetries, cfg.Importer.MaxRetries)
	assert.Equal(t, defaultCalendarTimeout, cfg.Calendar.RequestTimeout)
	assert.Equal(t, defaultLockTTL, cfg.Lock.TTL)
	assert.NotNil(t, cfg.PubSub)
}

// loadFromDir resolves dir relative to the working directory, which is how LoadWithEnv expects search paths.
func loadFromDir(dir string) (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(wd, dir)
	if err != nil {
		return nil, err
	}

	return LoadWithEnv[Config]("lessonsync_test", rel)
}
