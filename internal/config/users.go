package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// UserProfile describes one user's monitoring setup. Profiles are
// keyed by email address in users.yaml.
type UserProfile struct {
	Profile     ProfileInfo       `yaml:"profile" json:"profile"`
	Fluctuation FluctuationConfig `yaml:"fluctuation" json:"fluctuation"`
	Trend       TrendConfig       `yaml:"trend" json:"trend"`
}

// ProfileInfo holds user metadata.
type ProfileInfo struct {
	Name      string    `yaml:"name" json:"name"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at" json:"updated_at"`
}

// FluctuationConfig holds per-user fluctuation monitoring settings.
type FluctuationConfig struct {
	Enabled                     bool     `yaml:"enabled" json:"enabled"`
	ThresholdPercent            float64  `yaml:"threshold_percent" json:"threshold_percent"`
	Symbols                     []string `yaml:"symbols" json:"symbols"`
	NotificationIntervalMinutes int      `yaml:"notification_interval_minutes" json:"notification_interval_minutes"`
}

// TrendConfig holds per-user trend monitoring settings.
type TrendConfig struct {
	Enabled        bool                 `yaml:"enabled" json:"enabled"`
	Symbols        []string             `yaml:"symbols" json:"symbols"`
	Notifications  SessionNotifications `yaml:"notifications" json:"notifications"`
	AnalysisConfig *TrendAnalysisConfig `yaml:"analysis_config,omitempty" json:"analysis_config,omitempty"`
}

// SessionNotifications flags which analysis sessions notify the user.
type SessionNotifications struct {
	PreMarket  bool `yaml:"pre_market" json:"pre_market"`
	PostMarket bool `yaml:"post_market" json:"post_market"`
}

// DefaultUserProfile returns a profile with standard thresholds and
// both monitors disabled.
func DefaultUserProfile(name string) UserProfile {
	now := time.Now().UTC()
	return UserProfile{
		Profile: ProfileInfo{Name: name, CreatedAt: now, UpdatedAt: now},
		Fluctuation: FluctuationConfig{
			ThresholdPercent:            3.0,
			NotificationIntervalMinutes: 5,
		},
	}
}

// UsersManager owns the user profile registry and its persistence.
// Mutations go through the manager so change callbacks fire and the
// backing YAML file stays in sync.
type UsersManager struct {
	mu        sync.RWMutex
	path      string
	users     map[string]UserProfile
	callbacks []func()
	logger    zerolog.Logger
}

// NewUsersManager loads users.yaml from path. A missing file starts an
// empty registry.
func NewUsersManager(path string, logger zerolog.Logger) (*UsersManager, error) {
	m := &UsersManager{
		path:   path,
		users:  make(map[string]UserProfile),
		logger: logger.With().Str("component", "users").Logger(),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			m.logger.Info().Str("path", path).Msg("users file not found, starting empty")
			return m, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &m.users); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	m.logger.Info().Int("users", len(m.users)).Msg("loaded user profiles")
	return m, nil
}

// OnChange registers a callback invoked after every successful
// mutation. Callbacks run outside the manager lock.
func (m *UsersManager) OnChange(fn func()) {
	m.mu.Lock()
	m.callbacks = append(m.callbacks, fn)
	m.mu.Unlock()
}

// Get returns the profile for an email address.
func (m *UsersManager) Get(email string) (UserProfile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.users[email]
	return p, ok
}

// Emails returns all registered email addresses, sorted.
func (m *UsersManager) Emails() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emails := lo.Keys(m.users)
	sort.Strings(emails)
	return emails
}

// All returns a copy of the registry.
func (m *UsersManager) All() map[string]UserProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]UserProfile, len(m.users))
	for email, p := range m.users {
		out[email] = p
	}
	return out
}

// Upsert stores a profile and persists the registry.
func (m *UsersManager) Upsert(email string, profile UserProfile) error {
	m.mu.Lock()
	profile.Profile.UpdatedAt = time.Now().UTC()
	if existing, ok := m.users[email]; ok {
		profile.Profile.CreatedAt = existing.Profile.CreatedAt
	} else if profile.Profile.CreatedAt.IsZero() {
		profile.Profile.CreatedAt = profile.Profile.UpdatedAt
	}
	m.users[email] = profile
	err := m.saveLocked()
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.notify()
	return nil
}

// Apply mutates a profile through a typed update and persists the
// result. Unknown fields cannot be expressed, so nothing is silently
// ignored.
func (m *UsersManager) Apply(email string, update UserUpdate) error {
	m.mu.Lock()
	profile, ok := m.users[email]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("unknown user %q", email)
	}
	update.apply(&profile)
	profile.Profile.UpdatedAt = time.Now().UTC()
	m.users[email] = profile
	err := m.saveLocked()
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.notify()
	return nil
}

// Delete removes a user and persists the registry.
func (m *UsersManager) Delete(email string) error {
	m.mu.Lock()
	if _, ok := m.users[email]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("unknown user %q", email)
	}
	delete(m.users, email)
	err := m.saveLocked()
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.notify()
	return nil
}

// saveLocked writes the registry atomically. Callers hold m.mu.
func (m *UsersManager) saveLocked() error {
	data, err := yaml.Marshal(m.users)
	if err != nil {
		return fmt.Errorf("marshaling users: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replacing %s: %w", m.path, err)
	}
	return nil
}

func (m *UsersManager) notify() {
	m.mu.RLock()
	callbacks := make([]func(), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.RUnlock()
	for _, fn := range callbacks {
		fn()
	}
}

// ExpandSymbols resolves stock pool references in a symbol list. A
// pool is referenced either as "@name" or by its bare name. The result
// preserves first-seen order and drops duplicates.
func ExpandSymbols(symbols []string, pools map[string][]string) []string {
	var expanded []string
	for _, sym := range symbols {
		name := strings.TrimPrefix(sym, "@")
		if pool, ok := pools[name]; ok {
			expanded = append(expanded, pool...)
			continue
		}
		expanded = append(expanded, sym)
	}
	return lo.Uniq(expanded)
}
