package monitor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragoalert/internal/config"
)

func newTestManager(t *testing.T) (*Manager, *config.UsersManager) {
	t.Helper()
	users, err := config.NewUsersManager(filepath.Join(t.TempDir(), "users.yaml"), zerolog.Nop())
	require.NoError(t, err)

	cfg := &config.Config{
		Monitoring: config.MonitoringConfig{
			FluctuationTickSeconds:    60,
			FluctuationWorkers:        5,
			FluctuationTimeoutSeconds: 30,
			TrendTickSeconds:          1800,
			TrendWorkers:              3,
			TrendTimeoutSeconds:       300,
		},
		TrendAnalysis: config.DefaultTrendAnalysis(),
	}

	m := NewManager(ManagerDeps{
		Config:   cfg,
		Users:    users,
		Prices:   &stubPrices{prices: map[string]float64{}},
		Candles:  &stubCandles{},
		Ranker:   &stubRanker{},
		Notifier: &recordingNotifier{},
		Logger:   zerolog.Nop(),
		Now:      newFakeClock(time.Date(2025, 6, 4, 14, 0, 0, 0, time.UTC)).Now,
	})
	return m, users
}

func TestManagerExcludesDisabledMonitors(t *testing.T) {
	m, users := newTestManager(t)

	enabled := config.DefaultUserProfile("Alice")
	enabled.Fluctuation.Enabled = true
	enabled.Fluctuation.Symbols = []string{"AAPL"}
	require.NoError(t, users.Upsert("alice@example.com", enabled))

	disabled := config.DefaultUserProfile("Bob")
	disabled.Trend.Enabled = true
	disabled.Trend.Symbols = []string{"MSFT"}
	require.NoError(t, users.Upsert("bob@example.com", disabled))

	status := m.Status()
	assert.Equal(t, 1, status["fluctuation_monitors"])
	assert.Equal(t, 1, status["trend_monitors"])
	assert.Equal(t, []string{"alice@example.com"}, status["fluctuation_users"])
	assert.Equal(t, []string{"bob@example.com"}, status["trend_users"])
}

func TestManagerSyncRemovesDeletedUsers(t *testing.T) {
	m, users := newTestManager(t)

	profile := config.DefaultUserProfile("Alice")
	profile.Fluctuation.Enabled = true
	require.NoError(t, users.Upsert("alice@example.com", profile))
	assert.Equal(t, 1, m.Status()["fluctuation_monitors"])

	require.NoError(t, users.Delete("alice@example.com"))
	assert.Equal(t, 0, m.Status()["fluctuation_monitors"])
}

func TestManagerSyncReactsToDisabling(t *testing.T) {
	m, users := newTestManager(t)

	profile := config.DefaultUserProfile("Alice")
	profile.Fluctuation.Enabled = true
	require.NoError(t, users.Upsert("alice@example.com", profile))
	assert.Equal(t, 1, m.Status()["fluctuation_monitors"])

	off := false
	require.NoError(t, users.Apply("alice@example.com", config.UserUpdate{FluctuationEnabled: &off}))
	assert.Equal(t, 0, m.Status()["fluctuation_monitors"])
}

func TestManagerProfileEditKeepsMonitorState(t *testing.T) {
	users, err := config.NewUsersManager(filepath.Join(t.TempDir(), "users.yaml"), zerolog.Nop())
	require.NoError(t, err)

	clk := newFakeClock(time.Date(2025, 6, 4, 14, 0, 0, 0, time.UTC))
	prices := &stubPrices{prices: map[string]float64{"AAPL": 100}}
	sink := &recordingNotifier{}
	m := NewManager(ManagerDeps{
		Config: &config.Config{
			Monitoring:    config.MonitoringConfig{FluctuationWorkers: 5, FluctuationTimeoutSeconds: 30},
			TrendAnalysis: config.DefaultTrendAnalysis(),
		},
		Users:    users,
		Prices:   prices,
		Candles:  &stubCandles{},
		Ranker:   &stubRanker{},
		Notifier: sink,
		Logger:   zerolog.Nop(),
		Now:      clk.Now,
	})

	profile := config.DefaultUserProfile("Alice")
	profile.Fluctuation.Enabled = true
	profile.Fluctuation.Symbols = []string{"AAPL"}
	profile.Fluctuation.NotificationIntervalMinutes = 60
	require.NoError(t, users.Upsert("alice@example.com", profile))

	ctx := context.Background()
	m.checkFluctuation(ctx)
	clk.Advance(2 * time.Minute)
	prices.set("AAPL", 105)
	m.checkFluctuation(ctx)
	require.Len(t, sink.sent(), 1)

	// A name-only edit flows through the registry callback. The
	// monitor keeps its cooldown, so the still-elevated price cannot
	// alert again four minutes later.
	name := "Alice B."
	require.NoError(t, users.Apply("alice@example.com", config.UserUpdate{Name: &name}))

	clk.Advance(4 * time.Minute)
	prices.set("AAPL", 106)
	m.checkFluctuation(ctx)
	assert.Len(t, sink.sent(), 1)
}

func TestManagerStatusIncludesPerMonitorState(t *testing.T) {
	m, users := newTestManager(t)

	profile := config.DefaultUserProfile("Alice")
	profile.Fluctuation.Enabled = true
	profile.Fluctuation.Symbols = []string{"AAPL"}
	profile.Trend.Enabled = true
	profile.Trend.Symbols = []string{"MSFT"}
	require.NoError(t, users.Upsert("alice@example.com", profile))

	status := m.Status()
	fluc := status["fluctuation_status"].(map[string]any)["alice@example.com"].(map[string]any)
	assert.Equal(t, []string{"AAPL"}, fluc["symbols"])
	trend := status["trend_status"].(map[string]any)["alice@example.com"].(map[string]any)
	assert.Equal(t, []string{"MSFT"}, trend["symbols"])
}

func TestManagerStartStop(t *testing.T) {
	m, _ := newTestManager(t)

	m.Start()
	assert.True(t, m.Status()["running"].(bool))

	// Loop goroutines flip their liveness flags shortly after Start.
	assert.Eventually(t, func() bool {
		s := m.Status()
		return s["fluctuation_loop_alive"].(bool) && s["trend_loop_alive"].(bool)
	}, time.Second, 10*time.Millisecond)

	// A second Start is a no-op.
	m.Start()
	assert.True(t, m.running.Load())

	m.Stop()
	assert.False(t, m.Status()["running"].(bool))
	assert.Eventually(t, func() bool {
		s := m.Status()
		return !s["fluctuation_loop_alive"].(bool) && !s["trend_loop_alive"].(bool)
	}, time.Second, 10*time.Millisecond)

	// Stopping twice is safe.
	m.Stop()
}
