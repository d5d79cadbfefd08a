package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 465, cfg.SMTP.Port)
	assert.Equal(t, "RagoAlert", cfg.SMTP.SenderName)
	assert.Equal(t, 8080, cfg.Web.Port)
	assert.Equal(t, "info", cfg.System.LogLevel)
	assert.Equal(t, 60, cfg.Monitoring.FluctuationTickSeconds)
	assert.Equal(t, 1800, cfg.Monitoring.TrendTickSeconds)
	assert.Equal(t, DefaultTrendAnalysis(), cfg.TrendAnalysis)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
smtp:
  server: smtp.example.com
  user: alerts@example.com
web:
  port: 9090
stock_pools:
  tech:
    - AAPL
    - MSFT
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com", cfg.SMTP.Server)
	assert.Equal(t, 465, cfg.SMTP.Port)
	assert.Equal(t, 9090, cfg.Web.Port)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.StockPools["tech"])
}

func TestLoadSignalWeights(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
trend_analysis:
  signal_weights:
    ema_cross: 0.4
    macd_cross: 0.3
    adx_strength: 0.1
    bb_position: 0.1
    rsi_level: 0.1
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0.4, cfg.TrendAnalysis.SignalWeights.EMACross)
	assert.Equal(t, 0.3, cfg.TrendAnalysis.SignalWeights.MACDCross)

	// An empty dir still yields the default split.
	cfg, err = Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultSignalWeights(), cfg.TrendAnalysis.SignalWeights)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SMTP_PASSWORD", "secret")
	t.Setenv("SMTP_PORT", "587")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.SMTP.Password)
	assert.Equal(t, 587, cfg.SMTP.Port)
}

func TestValidateRejectsBadPeriods(t *testing.T) {
	cfg := &Config{
		SMTP:          SMTPConfig{Port: 465},
		Web:           WebConfig{Port: 8080},
		TrendAnalysis: DefaultTrendAnalysis(),
	}
	cfg.TrendAnalysis.EMAShortPeriod = 30
	assert.Error(t, cfg.Validate())
}

func TestUsersManagerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.yaml")
	m, err := NewUsersManager(path, zerolog.Nop())
	require.NoError(t, err)

	profile := DefaultUserProfile("Alice")
	profile.Fluctuation.Enabled = true
	profile.Fluctuation.Symbols = []string{"AAPL"}
	require.NoError(t, m.Upsert("alice@example.com", profile))

	reloaded, err := NewUsersManager(path, zerolog.Nop())
	require.NoError(t, err)
	got, ok := reloaded.Get("alice@example.com")
	require.True(t, ok)
	assert.Equal(t, "Alice", got.Profile.Name)
	assert.True(t, got.Fluctuation.Enabled)
	assert.Equal(t, []string{"AAPL"}, got.Fluctuation.Symbols)
	assert.Equal(t, 3.0, got.Fluctuation.ThresholdPercent)
}

func TestUsersManagerMissingFileStartsEmpty(t *testing.T) {
	m, err := NewUsersManager(filepath.Join(t.TempDir(), "users.yaml"), zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, m.Emails())
}

func TestUsersManagerCallbacksFire(t *testing.T) {
	m, err := NewUsersManager(filepath.Join(t.TempDir(), "users.yaml"), zerolog.Nop())
	require.NoError(t, err)

	var fired int
	m.OnChange(func() { fired++ })

	require.NoError(t, m.Upsert("bob@example.com", DefaultUserProfile("Bob")))
	assert.Equal(t, 1, fired)

	enabled := true
	require.NoError(t, m.Apply("bob@example.com", UserUpdate{TrendEnabled: &enabled}))
	assert.Equal(t, 2, fired)

	got, _ := m.Get("bob@example.com")
	assert.True(t, got.Trend.Enabled)

	require.NoError(t, m.Delete("bob@example.com"))
	assert.Equal(t, 3, fired)
}

func TestApplyUnknownUser(t *testing.T) {
	m, err := NewUsersManager(filepath.Join(t.TempDir(), "users.yaml"), zerolog.Nop())
	require.NoError(t, err)

	name := "Ghost"
	assert.Error(t, m.Apply("ghost@example.com", UserUpdate{Name: &name}))
}

func TestExpandSymbols(t *testing.T) {
	pools := map[string][]string{
		"tech": {"AAPL", "MSFT", "NVDA"},
	}

	expanded := ExpandSymbols([]string{"@tech", "TSLA", "MSFT"}, pools)
	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA", "TSLA"}, expanded)

	// Bare pool names resolve too.
	expanded = ExpandSymbols([]string{"tech"}, pools)
	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, expanded)

	// Unknown references pass through as plain symbols.
	expanded = ExpandSymbols([]string{"@missing"}, nil)
	assert.Equal(t, []string{"@missing"}, expanded)
}
