// Package monitor wires per-user fluctuation and trend monitors into
// the scheduling manager.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ragoalert/internal/analysis"
	"ragoalert/internal/analysis/fluctuation"
	"ragoalert/internal/config"
	"ragoalert/internal/market"
	"ragoalert/internal/models"
	"ragoalert/internal/notify"
)

// historyCap bounds the per-symbol price history ring.
const historyCap = 60

// FluctuationMonitor polls one user's symbols and alerts on moves past
// the configured threshold.
type FluctuationMonitor struct {
	email    string
	profile  config.UserProfile
	pools    map[string][]string
	prices   market.PriceProvider
	analyzer *fluctuation.Analyzer
	notifier notify.Notifier
	logger   zerolog.Logger
	now      func() time.Time

	mu       sync.Mutex
	history  map[string][]models.PricePoint
	lastSent map[string]time.Time
}

// NewFluctuationMonitor creates a monitor for one user profile.
func NewFluctuationMonitor(email string, profile config.UserProfile, pools map[string][]string, prices market.PriceProvider, notifier notify.Notifier, logger zerolog.Logger, now func() time.Time) *FluctuationMonitor {
	if now == nil {
		now = time.Now
	}
	return &FluctuationMonitor{
		email:    email,
		profile:  profile,
		pools:    pools,
		prices:   prices,
		analyzer: fluctuation.NewAnalyzer(time.Minute),
		notifier: notifier,
		logger:   logger.With().Str("component", "fluctuation_monitor").Str("user", email).Logger(),
		now:      now,
		history:  make(map[string][]models.PricePoint),
		lastSent: make(map[string]time.Time),
	}
}

// Symbols returns the user's resolved fluctuation symbol list.
func (m *FluctuationMonitor) Symbols() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.symbolsLocked()
}

func (m *FluctuationMonitor) symbolsLocked() []string {
	return config.ExpandSymbols(m.profile.Fluctuation.Symbols, m.pools)
}

// UpdateConfig swaps in a new profile without losing tracked state.
// Symbols dropped from the profile have their history and cooldown
// purged; symbols that stay keep both, so an unrelated edit cannot
// re-trigger a cooling-down alert.
func (m *FluctuationMonitor) UpdateConfig(profile config.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.profile = profile
	kept := make(map[string]bool)
	for _, symbol := range m.symbolsLocked() {
		kept[symbol] = true
	}
	for symbol := range m.history {
		if !kept[symbol] {
			delete(m.history, symbol)
			delete(m.lastSent, symbol)
		}
	}
	m.logger.Debug().Int("symbols", len(kept)).Msg("fluctuation config updated")
}

// Check fetches current prices, updates the rolling history, and sends
// a single digest for every symbol past the threshold whose cooldown
// has elapsed. One symbol's fetch failure never aborts the rest.
func (m *FluctuationMonitor) Check(ctx context.Context) error {
	now := m.now()
	m.mu.Lock()
	name := m.profile.Profile.Name
	threshold := m.profile.Fluctuation.ThresholdPercent
	cooldown := time.Duration(m.profile.Fluctuation.NotificationIntervalMinutes) * time.Minute
	symbols := m.symbolsLocked()
	m.mu.Unlock()

	var triggered []analysis.FluctuationResult
	for _, symbol := range symbols {
		price, err := m.prices.Price(ctx, symbol)
		if err != nil {
			m.logger.Warn().Err(err).Str("symbol", symbol).Msg("price fetch failed")
			continue
		}
		if price == 0 {
			m.logger.Warn().Str("symbol", symbol).Msg("zero price, skipping")
			continue
		}

		result, err := m.record(symbol, price, now)
		if err != nil {
			continue
		}

		pct := result.PercentChange
		if pct < 0 {
			pct = -pct
		}
		if pct < threshold {
			continue
		}

		m.mu.Lock()
		last, seen := m.lastSent[symbol]
		if seen && now.Sub(last) < cooldown {
			m.mu.Unlock()
			continue
		}
		// The cooldown advances when the alert is collected, not when
		// delivery is confirmed.
		m.lastSent[symbol] = now
		m.mu.Unlock()

		triggered = append(triggered, *result)
	}

	if len(triggered) == 0 {
		return nil
	}

	subject, html := notify.FluctuationAlert(name, triggered, now)
	if err := m.notifier.Send(ctx, notify.Message{To: m.email, Subject: subject, HTML: html}); err != nil {
		m.logger.Error().Err(err).Msg("alert send failed")
		return err
	}
	m.logger.Info().Int("symbols", len(triggered)).Msg("fluctuation alert sent")
	return nil
}

// Status reports the monitor's configuration and per-symbol alert
// state for the config API.
func (m *FluctuationMonitor) Status() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	lastAlerts := make(map[string]string, len(m.lastSent))
	for symbol, at := range m.lastSent {
		lastAlerts[symbol] = at.UTC().Format(time.RFC3339)
	}
	return map[string]any{
		"symbols":           m.symbolsLocked(),
		"threshold_percent": m.profile.Fluctuation.ThresholdPercent,
		"interval_minutes":  m.profile.Fluctuation.NotificationIntervalMinutes,
		"tracked_symbols":   len(m.history),
		"last_alerts":       lastAlerts,
	}
}

// record appends a price sample and runs the window analysis. Errors
// from a still-filling history are expected and not logged.
func (m *FluctuationMonitor) record(symbol string, price float64, now time.Time) (*analysis.FluctuationResult, error) {
	m.mu.Lock()
	h := append(m.history[symbol], models.PricePoint{Timestamp: now, Price: price})
	if len(h) > historyCap {
		h = h[len(h)-historyCap:]
	}
	m.history[symbol] = h
	snapshot := make([]models.PricePoint, len(h))
	copy(snapshot, h)
	m.mu.Unlock()

	return m.analyzer.Analyze(symbol, snapshot, now)
}
