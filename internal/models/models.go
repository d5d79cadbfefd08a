// Package models provides domain models for the monitoring application.
package models

import (
	"time"
)

// Candle represents OHLCV data for one trading session.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// PricePoint is a single sampled price with its sampling time.
type PricePoint struct {
	Timestamp time.Time
	Price     float64
}

// SessionKind identifies one of the two daily trend-analysis checkpoints.
type SessionKind string

const (
	SessionPreMarket  SessionKind = "pre_market"
	SessionPostMarket SessionKind = "post_market"
)

// SessionKinds lists every session kind in checkpoint order.
func SessionKinds() []SessionKind {
	return []SessionKind{SessionPreMarket, SessionPostMarket}
}
