// Package analysis provides technical analysis functionality including
// indicator computation, trend scoring, and fluctuation detection.
package analysis

import (
	"time"
)

// TrendLabel classifies one trading session's direction.
type TrendLabel string

const (
	TrendUp   TrendLabel = "up"
	TrendDown TrendLabel = "down"
	TrendFlat TrendLabel = "flat"
)

// Signal is the latest-session trading recommendation.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)

// Direction classifies a price fluctuation.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// IndicatorSnapshot is the per-symbol, per-session indicator bundle.
// Immutable once created.
type IndicatorSnapshot struct {
	Date time.Time

	EMAShort float64
	EMALong  float64

	MACD       float64
	MACDSignal float64
	MACDHist   float64

	ADX     float64
	PlusDI  float64
	MinusDI float64

	BBUpper  float64
	BBMiddle float64
	BBLower  float64

	RSI float64

	Close float64
}

// TrendAnalysisResult is the outcome of one trend-scoring run for a symbol.
// Created fresh on every run; never mutated.
type TrendAnalysisResult struct {
	Symbol     string
	Trends     []TrendLabel
	Indicators *IndicatorSnapshot
	Signal     Signal
	BuyScore   float64
	SellScore  float64
}

// CurrentTrend returns the latest session's label, or TrendFlat when the
// result carries no sessions.
func (r TrendAnalysisResult) CurrentTrend() TrendLabel {
	if len(r.Trends) == 0 {
		return TrendFlat
	}
	return r.Trends[len(r.Trends)-1]
}

// TrendChange records a transition between two adjacent trend labels.
type TrendChange struct {
	From TrendLabel `json:"from"`
	To   TrendLabel `json:"to"`
}

// FluctuationResult is the outcome of one rolling-window fluctuation check.
type FluctuationResult struct {
	Symbol        string
	InitialPrice  float64
	CurrentPrice  float64
	PercentChange float64
	Direction     Direction
}
