package config_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-calendar/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "leavecal.db", cfg.DBPath)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:8080"}, cfg.AllowedOrigins)
	assert.True(t, decimal.NewFromInt(12).Equal(cfg.DefaultCasualLeave))
	assert.True(t, cfg.DefaultExtraDays.IsZero())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("LEAVECAL_PORT", "9090")
	t.Setenv("LEAVECAL_DB_PATH", "/tmp/cal.db")
	t.Setenv("LEAVECAL_LOG_FORMAT", "json")
	t.Setenv("LEAVECAL_ALLOWED_ORIGINS", "https://cal.example.com")
	t.Setenv("LEAVECAL_DEFAULT_CASUAL_LEAVE", "18.5")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/tmp/cal.db", cfg.DBPath)
	assert.Equal(t, []string{"https://cal.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "18.5", cfg.DefaultCasualLeave.String())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"port", "LEAVECAL_PORT", "0"},
		{"port not a number", "LEAVECAL_PORT", "http"},
		{"log level", "LEAVECAL_LOG_LEVEL", "loud"},
		{"log format", "LEAVECAL_LOG_FORMAT", "xml"},
		{"negative balance", "LEAVECAL_DEFAULT_EXTRA_DAYS", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestLogger(t *testing.T) {
	cfg := &config.Config{LogLevel: "warn", LogFormat: "json"}
	var buf bytes.Buffer

	log := cfg.Logger(&buf)
	log.Info("hidden")
	log.WithField("user_id", 7).Warn("shown")

	assert.Equal(t, logrus.WarnLevel, log.GetLevel())
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"user_id":7`)
}
