package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragoalert/internal/analysis"
	"ragoalert/internal/config"
	"ragoalert/internal/models"
)

func trendProfile(symbols ...string) config.UserProfile {
	p := config.DefaultUserProfile("Bob")
	p.Trend.Enabled = true
	p.Trend.Symbols = symbols
	p.Trend.Notifications = config.SessionNotifications{PreMarket: true, PostMarket: true}
	return p
}

func newTrendMonitor(t *testing.T, profile config.UserProfile, candles *stubCandles, ranker *stubRanker, sink *recordingNotifier, clk *fakeClock) *TrendMonitor {
	t.Helper()
	if ranker == nil {
		ranker = &stubRanker{}
	}
	return NewTrendMonitor("bob@example.com", profile, TrendMonitorDeps{
		Candles:  candles,
		Ranker:   ranker,
		Analysis: config.DefaultTrendAnalysis(),
		Notifier: sink,
		Logger:   zerolog.Nop(),
		Now:      clk.Now,
	})
}

func TestDetectTrendChange(t *testing.T) {
	up, down, flat := analysis.TrendUp, analysis.TrendDown, analysis.TrendFlat

	change, ok := detectTrendChange([]analysis.TrendLabel{up, up, up, down}, 2)
	require.True(t, ok)
	assert.Equal(t, analysis.TrendChange{From: up, To: down}, change)

	// Identical labels across the window mean no change, even though
	// earlier labels differ.
	_, ok = detectTrendChange([]analysis.TrendLabel{down, up, up}, 2)
	assert.False(t, ok)

	// A wider window picks the most recent differing pair.
	change, ok = detectTrendChange([]analysis.TrendLabel{up, down, flat, flat}, 4)
	require.True(t, ok)
	assert.Equal(t, analysis.TrendChange{From: down, To: flat}, change)

	_, ok = detectTrendChange([]analysis.TrendLabel{up}, 2)
	assert.False(t, ok)
}

func TestShouldRunSaturdayIsFalse(t *testing.T) {
	clk := newFakeClock(time.Now())
	mon := newTrendMonitor(t, trendProfile("AAPL"), &stubCandles{}, nil, &recordingNotifier{}, clk)

	// Saturday exactly at the pre-market trigger hour.
	saturday := time.Date(2025, 6, 7, 13, 0, 0, 0, time.UTC)
	assert.False(t, mon.ShouldRun(models.SessionPreMarket, saturday))

	wednesday := time.Date(2025, 6, 4, 13, 0, 0, 0, time.UTC)
	assert.True(t, mon.ShouldRun(models.SessionPreMarket, wednesday))
}

func TestShouldRunRespectsSessionFlags(t *testing.T) {
	clk := newFakeClock(time.Now())
	profile := trendProfile("AAPL")
	profile.Trend.Notifications.PreMarket = false
	mon := newTrendMonitor(t, profile, &stubCandles{}, nil, &recordingNotifier{}, clk)

	wednesday := time.Date(2025, 6, 4, 13, 0, 0, 0, time.UTC)
	assert.False(t, mon.ShouldRun(models.SessionPreMarket, wednesday))
	assert.True(t, mon.ShouldRun(models.SessionPostMarket, time.Date(2025, 6, 4, 21, 0, 0, 0, time.UTC)))
}

func TestShouldRunOncePerDay(t *testing.T) {
	wednesday := time.Date(2025, 6, 4, 13, 0, 0, 0, time.UTC)
	clk := newFakeClock(wednesday)
	candles := &stubCandles{candles: map[string][]models.Candle{"AAPL": upTrendCandles(80)}}
	sink := &recordingNotifier{}
	mon := newTrendMonitor(t, trendProfile("AAPL"), candles, nil, sink, clk)

	require.True(t, mon.ShouldRun(models.SessionPreMarket, wednesday))
	agg := mon.ExecuteAnalysis(context.Background())
	require.NotNil(t, agg)
	require.NoError(t, mon.SendNotification(context.Background(), models.SessionPreMarket, agg))

	// Same session, minutes later: the 23 hour guard holds.
	assert.False(t, mon.ShouldRun(models.SessionPreMarket, wednesday.Add(3*time.Minute)))

	// Next day's session is due again.
	assert.True(t, mon.ShouldRun(models.SessionPreMarket, wednesday.AddDate(0, 0, 1)))
}

func TestExecuteAnalysisAggregates(t *testing.T) {
	clk := newFakeClock(time.Now())
	candles := &stubCandles{
		candles: map[string][]models.Candle{
			"AAPL": upTrendCandles(80),
			"MSFT": upTrendCandles(80),
		},
		errs: map[string]error{"NVDA": errors.New("no data")},
	}
	mon := newTrendMonitor(t, trendProfile("AAPL", "MSFT", "NVDA"), candles, nil, &recordingNotifier{}, clk)

	agg := mon.ExecuteAnalysis(context.Background())
	require.NotNil(t, agg)
	assert.Len(t, agg.Results, 2)
	assert.NotContains(t, agg.Results, "NVDA")
	assert.Equal(t, analysis.TrendUp, agg.Results["AAPL"].CurrentTrend())
}

func TestExecuteAnalysisNilWhenNothingUsable(t *testing.T) {
	clk := newFakeClock(time.Now())
	candles := &stubCandles{errs: map[string]error{"AAPL": errors.New("no data")}}
	mon := newTrendMonitor(t, trendProfile("AAPL"), candles, nil, &recordingNotifier{}, clk)

	assert.Nil(t, mon.ExecuteAnalysis(context.Background()))
}

func TestSymbolsExpandAggregateRef(t *testing.T) {
	clk := newFakeClock(time.Now())
	ranker := &stubRanker{top: []string{"AAPL", "MSFT", "NVDA"}}
	mon := newTrendMonitor(t, trendProfile("TOP_NASDAQ", "TSLA"), &stubCandles{}, ranker, &recordingNotifier{}, clk)

	symbols := mon.Symbols(context.Background())
	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA", "TSLA"}, symbols)
}

func TestTrendMonitorUpdateConfigKeepsSessionHistory(t *testing.T) {
	wednesday := time.Date(2025, 6, 4, 13, 0, 0, 0, time.UTC)
	clk := newFakeClock(wednesday)
	candles := &stubCandles{candles: map[string][]models.Candle{"AAPL": upTrendCandles(80)}}
	sink := &recordingNotifier{}
	mon := newTrendMonitor(t, trendProfile("AAPL"), candles, nil, sink, clk)

	agg := mon.ExecuteAnalysis(context.Background())
	require.NotNil(t, agg)
	require.NoError(t, mon.SendNotification(context.Background(), models.SessionPreMarket, agg))

	// Editing the profile mid-day must not make the session due again.
	updated := trendProfile("AAPL", "MSFT")
	updated.Profile.Name = "Bob B."
	mon.UpdateConfig(updated)

	assert.False(t, mon.ShouldRun(models.SessionPreMarket, wednesday.Add(5*time.Minute)))
	assert.Equal(t, []string{"AAPL", "MSFT"}, mon.Symbols(context.Background()))
}

func TestTrendMonitorRunOnceBypassesSessionWindow(t *testing.T) {
	// Saturday well outside any session window.
	saturday := time.Date(2025, 6, 7, 3, 0, 0, 0, time.UTC)
	clk := newFakeClock(saturday)
	candles := &stubCandles{candles: map[string][]models.Candle{"AAPL": upTrendCandles(80)}}
	sink := &recordingNotifier{}
	profile := trendProfile("AAPL")
	profile.Trend.Notifications.PostMarket = false
	mon := newTrendMonitor(t, profile, candles, nil, sink, clk)

	require.False(t, mon.ShouldRun(models.SessionPreMarket, saturday))
	require.NoError(t, mon.RunOnce(context.Background()))

	// Only the enabled pre-market session mailed.
	msgs := sink.sent()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Subject, "Pre-Market")
}

func TestTrendMonitorStatusReportsLastRuns(t *testing.T) {
	wednesday := time.Date(2025, 6, 4, 13, 0, 0, 0, time.UTC)
	clk := newFakeClock(wednesday)
	candles := &stubCandles{candles: map[string][]models.Candle{"AAPL": upTrendCandles(80)}}
	sink := &recordingNotifier{}
	mon := newTrendMonitor(t, trendProfile("AAPL"), candles, nil, sink, clk)

	status := mon.Status()
	assert.Equal(t, []string{"AAPL"}, status["symbols"])
	assert.Equal(t, true, status["pre_market"])
	assert.Empty(t, status["last_runs"])

	agg := mon.ExecuteAnalysis(context.Background())
	require.NotNil(t, agg)
	require.NoError(t, mon.SendNotification(context.Background(), models.SessionPreMarket, agg))

	lastRuns := mon.Status()["last_runs"].(map[string]string)
	assert.Equal(t, "2025-06-04T13:00:00Z", lastRuns[string(models.SessionPreMarket)])
}

func TestScoringConfigMapsWeights(t *testing.T) {
	cfg := config.DefaultTrendAnalysis()
	cfg.SignalWeights = config.SignalWeights{
		EMACross:    0.5,
		MACDCross:   0.2,
		ADXStrength: 0.1,
		BBPosition:  0.1,
		RSILevel:    0.1,
	}
	sc := ScoringConfig(cfg)
	assert.Equal(t, 0.5, sc.Weights.EMACross)
	assert.Equal(t, 0.1, sc.Weights.RSILevel)

	// An omitted weights block falls back to the standard split.
	cfg.SignalWeights = config.SignalWeights{}
	sc = ScoringConfig(cfg)
	assert.Equal(t, 0.3, sc.Weights.EMACross)
	assert.Equal(t, 0.15, sc.Weights.RSILevel)
}

func TestSendFailureKeepsSessionDue(t *testing.T) {
	wednesday := time.Date(2025, 6, 4, 13, 0, 0, 0, time.UTC)
	clk := newFakeClock(wednesday)
	candles := &stubCandles{candles: map[string][]models.Candle{"AAPL": upTrendCandles(80)}}
	sink := &recordingNotifier{err: errors.New("smtp down")}
	mon := newTrendMonitor(t, trendProfile("AAPL"), candles, nil, sink, clk)

	agg := mon.ExecuteAnalysis(context.Background())
	require.NotNil(t, agg)
	require.Error(t, mon.SendNotification(context.Background(), models.SessionPreMarket, agg))

	// The last-run timestamp did not advance, so the session stays due.
	assert.True(t, mon.ShouldRun(models.SessionPreMarket, wednesday.Add(2*time.Minute)))
}
