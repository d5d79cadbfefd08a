package config

// UserUpdate is a partial update to a user profile. Nil fields leave
// the current value untouched.
type UserUpdate struct {
	Name *string `json:"name,omitempty"`

	FluctuationEnabled          *bool     `json:"fluctuation_enabled,omitempty"`
	FluctuationThresholdPercent *float64  `json:"fluctuation_threshold_percent,omitempty"`
	FluctuationSymbols          *[]string `json:"fluctuation_symbols,omitempty"`
	NotificationIntervalMinutes *int      `json:"notification_interval_minutes,omitempty"`

	TrendEnabled     *bool     `json:"trend_enabled,omitempty"`
	TrendSymbols     *[]string `json:"trend_symbols,omitempty"`
	NotifyPreMarket  *bool     `json:"notify_pre_market,omitempty"`
	NotifyPostMarket *bool     `json:"notify_post_market,omitempty"`
}

func (u UserUpdate) apply(p *UserProfile) {
	if u.Name != nil {
		p.Profile.Name = *u.Name
	}
	if u.FluctuationEnabled != nil {
		p.Fluctuation.Enabled = *u.FluctuationEnabled
	}
	if u.FluctuationThresholdPercent != nil {
		p.Fluctuation.ThresholdPercent = *u.FluctuationThresholdPercent
	}
	if u.FluctuationSymbols != nil {
		p.Fluctuation.Symbols = *u.FluctuationSymbols
	}
	if u.NotificationIntervalMinutes != nil {
		p.Fluctuation.NotificationIntervalMinutes = *u.NotificationIntervalMinutes
	}
	if u.TrendEnabled != nil {
		p.Trend.Enabled = *u.TrendEnabled
	}
	if u.TrendSymbols != nil {
		p.Trend.Symbols = *u.TrendSymbols
	}
	if u.NotifyPreMarket != nil {
		p.Trend.Notifications.PreMarket = *u.NotifyPreMarket
	}
	if u.NotifyPostMarket != nil {
		p.Trend.Notifications.PostMarket = *u.NotifyPostMarket
	}
}
