package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ragoalert/internal/analysis"
	"ragoalert/internal/analysis/indicators"
	"ragoalert/internal/analysis/scoring"
	"ragoalert/internal/config"
	"ragoalert/internal/market"
	"ragoalert/internal/models"
	"ragoalert/internal/notify"
	"ragoalert/pkg/pool"
)

const (
	// rerunGuard keeps one session from firing twice in a day while
	// still tolerating small scheduling drift.
	rerunGuard = 23 * time.Hour

	// candleFetchDays leaves room for indicator warm-up ahead of the
	// trend window.
	candleFetchDays = 120

	// topNasdaqCount is how many symbols TOP_NASDAQ expands to.
	topNasdaqCount = 20

	// defaultSymbolWorkers and defaultSymbolTimeout bound the
	// per-symbol scoring fan-out inside one analysis run.
	defaultSymbolWorkers = 4
	defaultSymbolTimeout = 60 * time.Second
)

// TrendAggregate is the outcome of one analysis run across a user's
// symbols.
type TrendAggregate struct {
	Results map[string]*analysis.TrendAnalysisResult
	Changes map[string]analysis.TrendChange
}

// TrendMonitor runs scheduled trend analysis for one user and mails a
// per-session digest.
type TrendMonitor struct {
	email       string
	pools       map[string][]string
	candles     market.CandleProvider
	ranker      market.SymbolRanker
	analysis    config.TrendAnalysisConfig
	workers     int
	taskTimeout time.Duration
	notifier    notify.Notifier
	logger      zerolog.Logger
	now         func() time.Time

	mu        sync.Mutex
	profile   config.UserProfile
	scorer    *scoring.Scorer
	params    indicators.Params
	changeWin int
	lastRun   map[models.SessionKind]time.Time
}

// TrendMonitorDeps bundles the collaborators of a TrendMonitor.
type TrendMonitorDeps struct {
	Pools       map[string][]string
	Candles     market.CandleProvider
	Ranker      market.SymbolRanker
	Analysis    config.TrendAnalysisConfig
	Workers     int
	TaskTimeout time.Duration
	Notifier    notify.Notifier
	Logger      zerolog.Logger
	Now         func() time.Time
}

// ScoringConfig maps the analysis configuration onto scorer settings.
// Omitted weights fall back to the standard split.
func ScoringConfig(cfg config.TrendAnalysisConfig) scoring.Config {
	weights := cfg.SignalWeights
	if weights.IsZero() {
		weights = config.DefaultSignalWeights()
	}
	return scoring.Config{
		ADXThreshold:  cfg.ADXThreshold,
		RSIOverbought: cfg.RSIOverbought,
		RSIOversold:   cfg.RSIOversold,
		UpVotes:       cfg.UpTrendThreshold,
		DownVotes:     cfg.DownTrendThreshold,
		BuyThreshold:  cfg.BuyThreshold,
		SellThreshold: cfg.SellThreshold,
		Window:        cfg.TrendWindow,
		Weights: scoring.Weights{
			EMACross:    weights.EMACross,
			MACDCross:   weights.MACDCross,
			ADXStrength: weights.ADXStrength,
			BBPosition:  weights.BBPosition,
			RSILevel:    weights.RSILevel,
		},
	}
}

// IndicatorParams maps the analysis configuration onto indicator
// periods.
func IndicatorParams(cfg config.TrendAnalysisConfig) indicators.Params {
	return indicators.Params{
		EMAShort:   cfg.EMAShortPeriod,
		EMALong:    cfg.EMALongPeriod,
		MACDFast:   cfg.MACDFastPeriod,
		MACDSlow:   cfg.MACDSlowPeriod,
		MACDSignal: cfg.MACDSignalPeriod,
		ADXPeriod:  cfg.ADXPeriod,
		BBPeriod:   cfg.BBPeriod,
		BBStdDev:   cfg.BBStdDev,
		RSIPeriod:  cfg.RSIPeriod,
	}
}

// NewTrendMonitor creates a monitor for one user profile. A per-user
// analysis_config overrides the system-wide analysis settings.
func NewTrendMonitor(email string, profile config.UserProfile, deps TrendMonitorDeps) *TrendMonitor {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Workers <= 0 {
		deps.Workers = defaultSymbolWorkers
	}
	if deps.TaskTimeout <= 0 {
		deps.TaskTimeout = defaultSymbolTimeout
	}
	m := &TrendMonitor{
		email:       email,
		pools:       deps.Pools,
		candles:     deps.Candles,
		ranker:      deps.Ranker,
		analysis:    deps.Analysis,
		workers:     deps.Workers,
		taskTimeout: deps.TaskTimeout,
		notifier:    deps.Notifier,
		logger:      deps.Logger.With().Str("component", "trend_monitor").Str("user", email).Logger(),
		now:         deps.Now,
		lastRun:     make(map[models.SessionKind]time.Time),
	}
	m.applyProfile(profile)
	return m
}

// UpdateConfig swaps in a new profile. Session last-run timestamps
// survive, so an edit during the day cannot re-fire a session that
// already ran.
func (m *TrendMonitor) UpdateConfig(profile config.UserProfile) {
	m.mu.Lock()
	m.applyProfile(profile)
	m.mu.Unlock()
	m.logger.Debug().Msg("trend config updated")
}

func (m *TrendMonitor) applyProfile(profile config.UserProfile) {
	cfg := m.analysis
	if profile.Trend.AnalysisConfig != nil {
		cfg = *profile.Trend.AnalysisConfig
	}
	m.profile = profile
	m.scorer = scoring.NewScorer(ScoringConfig(cfg))
	m.params = IndicatorParams(cfg)
	m.changeWin = cfg.ChangeWindow
}

// sessionEnabled reports whether the profile wants this session's
// digest at all.
func (m *TrendMonitor) sessionEnabled(kind models.SessionKind) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch kind {
	case models.SessionPreMarket:
		return m.profile.Trend.Notifications.PreMarket
	case models.SessionPostMarket:
		return m.profile.Trend.Notifications.PostMarket
	default:
		return false
	}
}

// ShouldRun reports whether a session's analysis is due at time now.
func (m *TrendMonitor) ShouldRun(kind models.SessionKind, now time.Time) bool {
	if !m.sessionEnabled(kind) {
		return false
	}
	if !isWeekday(now.UTC()) {
		return false
	}
	if !withinSessionWindow(kind, now) {
		return false
	}
	m.mu.Lock()
	last, ok := m.lastRun[kind]
	m.mu.Unlock()
	return !ok || now.Sub(last) > rerunGuard
}

// Symbols resolves pool references and aggregate references into the
// concrete symbol list.
func (m *TrendMonitor) Symbols(ctx context.Context) []string {
	m.mu.Lock()
	configured := m.profile.Trend.Symbols
	m.mu.Unlock()
	expanded := config.ExpandSymbols(configured, m.pools)
	out := make([]string, 0, len(expanded))
	for _, symbol := range expanded {
		if !market.IsAggregateRef(symbol) {
			out = append(out, symbol)
			continue
		}
		top, err := m.ranker.TopByVolume(ctx, topNasdaqCount)
		if err != nil {
			m.logger.Warn().Err(err).Msg("aggregate expansion failed")
			continue
		}
		out = append(out, top...)
	}
	return out
}

// ExecuteAnalysis scores every resolved symbol concurrently. Symbols
// with fewer than two labeled sessions are dropped. Returns nil when
// no symbol yields usable data.
func (m *TrendMonitor) ExecuteAnalysis(ctx context.Context) *TrendAggregate {
	symbols := m.Symbols(ctx)
	if len(symbols) == 0 {
		return nil
	}

	m.mu.Lock()
	scorer := m.scorer
	params := m.params
	changeWin := m.changeWin
	m.mu.Unlock()

	scored := pool.Batch(ctx, symbols, m.workers, m.taskTimeout,
		func(ctx context.Context, symbol string) (*analysis.TrendAnalysisResult, error) {
			return m.analyzeOne(ctx, symbol, scorer, params)
		})

	agg := &TrendAggregate{
		Results: make(map[string]*analysis.TrendAnalysisResult),
		Changes: make(map[string]analysis.TrendChange),
	}
	for symbol, r := range scored {
		if r.Err != nil {
			m.logger.Warn().Err(r.Err).Str("symbol", symbol).Msg("trend analysis failed")
			continue
		}
		result := r.Value
		if len(result.Trends) < 2 {
			continue
		}
		agg.Results[symbol] = result
		if change, ok := detectTrendChange(result.Trends, changeWin); ok {
			agg.Changes[symbol] = change
		}
	}
	if len(agg.Results) == 0 {
		return nil
	}
	return agg
}

func (m *TrendMonitor) analyzeOne(ctx context.Context, symbol string, scorer *scoring.Scorer, params indicators.Params) (*analysis.TrendAnalysisResult, error) {
	candles, err := m.candles.DailyCandles(ctx, symbol, candleFetchDays)
	if err != nil {
		return nil, err
	}
	snaps, err := indicators.Snapshots(candles, params)
	if err != nil {
		return nil, err
	}
	return scorer.Evaluate(symbol, snaps)
}

// SendNotification mails the session digest. The session's last-run
// timestamp advances only when the send succeeds, so a failed delivery
// retries on the next tick.
func (m *TrendMonitor) SendNotification(ctx context.Context, kind models.SessionKind, agg *TrendAggregate) error {
	m.mu.Lock()
	name := m.profile.Profile.Name
	m.mu.Unlock()
	subject, html := notify.TrendDigest(name, kind, agg.Results, agg.Changes)
	if err := m.notifier.Send(ctx, notify.Message{To: m.email, Subject: subject, HTML: html}); err != nil {
		return err
	}
	m.mu.Lock()
	m.lastRun[kind] = m.now()
	m.mu.Unlock()
	m.logger.Info().Str("session", string(kind)).Int("symbols", len(agg.Results)).Msg("trend digest sent")
	return nil
}

// RunDue executes and notifies every session that is due now.
func (m *TrendMonitor) RunDue(ctx context.Context) error {
	return m.run(ctx, true)
}

// RunOnce executes every enabled session immediately, skipping the
// session-window and rerun checks. This is the manual analysis path.
func (m *TrendMonitor) RunOnce(ctx context.Context) error {
	return m.run(ctx, false)
}

func (m *TrendMonitor) run(ctx context.Context, timeCheck bool) error {
	now := m.now()
	var firstErr error
	for _, kind := range models.SessionKinds() {
		if timeCheck {
			if !m.ShouldRun(kind, now) {
				continue
			}
		} else if !m.sessionEnabled(kind) {
			continue
		}
		agg := m.ExecuteAnalysis(ctx)
		if agg == nil {
			m.logger.Warn().Str("session", string(kind)).Msg("no usable trend data")
			continue
		}
		if err := m.SendNotification(ctx, kind, agg); err != nil {
			m.logger.Error().Err(err).Str("session", string(kind)).Msg("digest send failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Status reports the monitor's configuration and session history for
// the config API.
func (m *TrendMonitor) Status() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	lastRuns := make(map[string]string, len(m.lastRun))
	for kind, at := range m.lastRun {
		lastRuns[string(kind)] = at.UTC().Format(time.RFC3339)
	}
	return map[string]any{
		"symbols":     m.profile.Trend.Symbols,
		"pre_market":  m.profile.Trend.Notifications.PreMarket,
		"post_market": m.profile.Trend.Notifications.PostMarket,
		"last_runs":   lastRuns,
	}
}

// detectTrendChange scans the last window labels for the most recent
// adjacent pair that differs. Identical labels across the window mean
// no change.
func detectTrendChange(labels []analysis.TrendLabel, window int) (analysis.TrendChange, bool) {
	if window < 2 {
		window = 2
	}
	if len(labels) < 2 {
		return analysis.TrendChange{}, false
	}
	start := len(labels) - window + 1
	if start < 1 {
		start = 1
	}
	for i := len(labels) - 1; i >= start; i-- {
		if labels[i] != labels[i-1] {
			return analysis.TrendChange{From: labels[i-1], To: labels[i]}, true
		}
	}
	return analysis.TrendChange{}, false
}
