package monitor

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"ragoalert/internal/config"
	"ragoalert/internal/market"
	"ragoalert/internal/notify"
	"ragoalert/pkg/pool"
)

// stopGrace bounds how long Stop waits for the loops to drain.
const stopGrace = 5 * time.Second

// ManagerDeps bundles the collaborators of a Manager. The manager is
// an explicit dependency graph, not a process-wide singleton, so tests
// can run several isolated instances.
type ManagerDeps struct {
	Config   *config.Config
	Users    *config.UsersManager
	Prices   market.PriceProvider
	Candles  market.CandleProvider
	Ranker   market.SymbolRanker
	Notifier notify.Notifier
	Logger   zerolog.Logger
	Now      func() time.Time
}

// Manager owns every per-user monitor and the two scheduling loops
// that drive them.
type Manager struct {
	deps ManagerDeps

	mu          sync.RWMutex
	fluctuation map[string]*FluctuationMonitor
	profiles    map[string]config.UserProfile
	trend       map[string]*TrendMonitor

	running    atomic.Bool
	flucAlive  atomic.Bool
	trendAlive atomic.Bool
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewManager builds a manager and subscribes it to user registry
// changes.
func NewManager(deps ManagerDeps) *Manager {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	deps.Logger = deps.Logger.With().Str("component", "manager").Logger()
	m := &Manager{
		deps:        deps,
		fluctuation: make(map[string]*FluctuationMonitor),
		profiles:    make(map[string]config.UserProfile),
		trend:       make(map[string]*TrendMonitor),
	}
	deps.Users.OnChange(m.SyncMonitors)
	return m
}

// SyncMonitors reconciles the monitor registries against the current
// user profiles. Monitors for unchanged profiles are kept so their
// price history and last-run state survive unrelated edits.
func (m *Manager) SyncMonitors() {
	users := m.deps.Users.All()

	m.mu.Lock()
	defer m.mu.Unlock()

	for email := range m.fluctuation {
		profile, ok := users[email]
		if !ok || !profile.Fluctuation.Enabled {
			delete(m.fluctuation, email)
		}
	}
	for email := range m.trend {
		profile, ok := users[email]
		if !ok || !profile.Trend.Enabled {
			delete(m.trend, email)
		}
	}

	for email, profile := range users {
		changed := !reflect.DeepEqual(m.profiles[email], profile)

		// Existing monitors get a config swap rather than a rebuild, so
		// price history, cooldowns, and session last-run state survive
		// profile edits.
		if profile.Fluctuation.Enabled {
			if existing, ok := m.fluctuation[email]; ok {
				if changed {
					existing.UpdateConfig(profile)
				}
			} else {
				m.fluctuation[email] = NewFluctuationMonitor(
					email, profile, m.deps.Config.StockPools,
					m.deps.Prices, m.deps.Notifier, m.deps.Logger, m.deps.Now)
			}
		}
		if profile.Trend.Enabled {
			if existing, ok := m.trend[email]; ok {
				if changed {
					existing.UpdateConfig(profile)
				}
			} else {
				m.trend[email] = NewTrendMonitor(email, profile, TrendMonitorDeps{
					Pools:    m.deps.Config.StockPools,
					Candles:  m.deps.Candles,
					Ranker:   m.deps.Ranker,
					Analysis: m.deps.Config.TrendAnalysis,
					Notifier: m.deps.Notifier,
					Logger:   m.deps.Logger,
					Now:      m.deps.Now,
				})
			}
		}
		m.profiles[email] = profile
	}
	for email := range m.profiles {
		if _, ok := users[email]; !ok {
			delete(m.profiles, email)
		}
	}

	m.deps.Logger.Info().
		Int("fluctuation", len(m.fluctuation)).
		Int("trend", len(m.trend)).
		Msg("monitors synced")
}

// Start builds the monitors and launches both loops. Calling Start on
// a running manager logs a warning and does nothing.
func (m *Manager) Start() {
	if m.running.Swap(true) {
		m.deps.Logger.Warn().Msg("manager already running")
		return
	}

	m.SyncMonitors()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		m.fluctuationLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		m.trendLoop(ctx)
	}()
	go func() {
		wg.Wait()
		close(m.done)
	}()

	m.deps.Logger.Info().Msg("manager started")
}

// Stop cancels both loops and waits up to the grace period for them
// to drain.
func (m *Manager) Stop() {
	if !m.running.Swap(false) {
		return
	}
	m.cancel()
	select {
	case <-m.done:
		m.deps.Logger.Info().Msg("manager stopped")
	case <-time.After(stopGrace):
		m.deps.Logger.Warn().Msg("manager stop timed out")
	}
}

// fluctuationLoop ticks once a minute and checks every fluctuation
// monitor while the intraday window is open.
func (m *Manager) fluctuationLoop(ctx context.Context) {
	m.flucAlive.Store(true)
	defer m.flucAlive.Store(false)

	tick := time.Duration(m.deps.Config.Monitoring.FluctuationTickSeconds) * time.Second
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !fluctuationWindowOpen(m.deps.Now()) {
				continue
			}
			m.checkFluctuation(ctx)
		}
	}
}

func (m *Manager) checkFluctuation(ctx context.Context) {
	m.mu.RLock()
	monitors := make(map[string]*FluctuationMonitor, len(m.fluctuation))
	for email, mon := range m.fluctuation {
		monitors[email] = mon
	}
	m.mu.RUnlock()
	if len(monitors) == 0 {
		return
	}

	emails := lo.Keys(monitors)
	timeout := time.Duration(m.deps.Config.Monitoring.FluctuationTimeoutSeconds) * time.Second
	results := pool.Batch(ctx, emails, m.deps.Config.Monitoring.FluctuationWorkers, timeout,
		func(ctx context.Context, email string) (struct{}, error) {
			return struct{}{}, monitors[email].Check(ctx)
		})
	for email, r := range results {
		if r.Err != nil {
			m.deps.Logger.Warn().Err(r.Err).Str("user", email).Msg("fluctuation check failed")
		}
	}
}

// trendLoop ticks every half hour; each monitor decides internally
// whether a session is due.
func (m *Manager) trendLoop(ctx context.Context) {
	m.trendAlive.Store(true)
	defer m.trendAlive.Store(false)

	tick := time.Duration(m.deps.Config.Monitoring.TrendTickSeconds) * time.Second
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.runTrend(ctx)
		}
	}
}

func (m *Manager) runTrend(ctx context.Context) {
	m.mu.RLock()
	monitors := make(map[string]*TrendMonitor, len(m.trend))
	for email, mon := range m.trend {
		monitors[email] = mon
	}
	m.mu.RUnlock()
	if len(monitors) == 0 {
		return
	}

	emails := lo.Keys(monitors)
	timeout := time.Duration(m.deps.Config.Monitoring.TrendTimeoutSeconds) * time.Second
	results := pool.Batch(ctx, emails, m.deps.Config.Monitoring.TrendWorkers, timeout,
		func(ctx context.Context, email string) (struct{}, error) {
			return struct{}{}, monitors[email].RunDue(ctx)
		})
	for email, r := range results {
		if r.Err != nil {
			m.deps.Logger.Warn().Err(r.Err).Str("user", email).Msg("trend run failed")
		}
	}
}

// Status reports the manager's registries, per-monitor state, and
// loop liveness.
func (m *Manager) Status() map[string]any {
	m.mu.RLock()
	flucUsers := lo.Keys(m.fluctuation)
	trendUsers := lo.Keys(m.trend)
	flucStatus := make(map[string]any, len(m.fluctuation))
	for email, mon := range m.fluctuation {
		flucStatus[email] = mon.Status()
	}
	trendStatus := make(map[string]any, len(m.trend))
	for email, mon := range m.trend {
		trendStatus[email] = mon.Status()
	}
	m.mu.RUnlock()
	sort.Strings(flucUsers)
	sort.Strings(trendUsers)

	return map[string]any{
		"running":                m.running.Load(),
		"fluctuation_monitors":   len(flucUsers),
		"trend_monitors":         len(trendUsers),
		"fluctuation_users":      flucUsers,
		"trend_users":            trendUsers,
		"fluctuation_status":     flucStatus,
		"trend_status":           trendStatus,
		"fluctuation_loop_alive": m.flucAlive.Load(),
		"trend_loop_alive":       m.trendAlive.Load(),
	}
}
