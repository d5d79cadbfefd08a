// Package fluctuation detects short-window price swings against a
// rolling intraday price history.
package fluctuation

import (
	"errors"
	"time"

	"ragoalert/internal/analysis"
	"ragoalert/internal/models"
)

var (
	// ErrInsufficientHistory is returned when fewer than two price
	// points have been collected.
	ErrInsufficientHistory = errors.New("insufficient price history")

	// ErrNoReference is returned when no history entry is old enough
	// to serve as the comparison baseline.
	ErrNoReference = errors.New("no reference price in window")

	// ErrZeroReference guards against division by a zero baseline.
	ErrZeroReference = errors.New("reference price is zero")
)

// Analyzer computes percent change between the current price and a
// reference price from earlier in the window.
type Analyzer struct {
	window time.Duration
}

// NewAnalyzer creates an analyzer with the given comparison window.
func NewAnalyzer(window time.Duration) *Analyzer {
	return &Analyzer{window: window}
}

// Analyze compares the newest history entry against the oldest entry
// that is at least one window old at time now. The newest entry is the
// current price.
func (a *Analyzer) Analyze(symbol string, history []models.PricePoint, now time.Time) (*analysis.FluctuationResult, error) {
	if len(history) < 2 {
		return nil, ErrInsufficientHistory
	}

	current := history[len(history)-1]
	cutoff := now.Add(-a.window)

	var reference *models.PricePoint
	for i := range history {
		if !history[i].Timestamp.After(cutoff) {
			reference = &history[i]
			break
		}
	}
	if reference == nil {
		return nil, ErrNoReference
	}
	if reference.Price == 0 {
		return nil, ErrZeroReference
	}

	pct := (current.Price - reference.Price) / reference.Price * 100
	direction := analysis.DirectionDown
	if pct > 0 {
		direction = analysis.DirectionUp
	}
	return &analysis.FluctuationResult{
		Symbol:        symbol,
		InitialPrice:  reference.Price,
		CurrentPrice:  current.Price,
		PercentChange: pct,
		Direction:     direction,
	}, nil
}
