// Package scoring turns indicator snapshots into trend labels and
// weighted buy/sell signals.
package scoring

import (
	"errors"

	"ragoalert/internal/analysis"
)

// ErrInsufficientSnapshots is returned when fewer snapshots are
// supplied than the configured trend window.
var ErrInsufficientSnapshots = errors.New("insufficient indicator snapshots")

// Weights assigns each indicator family its share of the composite
// signal score. Weights should sum to 1.0.
type Weights struct {
	EMACross    float64
	MACDCross   float64
	ADXStrength float64
	BBPosition  float64
	RSILevel    float64
}

// DefaultWeights returns the standard weighting.
func DefaultWeights() Weights {
	return Weights{
		EMACross:    0.3,
		MACDCross:   0.2,
		ADXStrength: 0.2,
		BBPosition:  0.15,
		RSILevel:    0.15,
	}
}

// Config holds thresholds for labeling and signal generation.
type Config struct {
	ADXThreshold  float64
	RSIOverbought float64
	RSIOversold   float64
	UpVotes       int
	DownVotes     int
	BuyThreshold  float64
	SellThreshold float64
	Window        int
	Weights       Weights
}

// DefaultConfig returns the standard scoring configuration.
func DefaultConfig() Config {
	return Config{
		ADXThreshold:  25.0,
		RSIOverbought: 70.0,
		RSIOversold:   30.0,
		UpVotes:       3,
		DownVotes:     3,
		BuyThreshold:  0.8,
		SellThreshold: 0.8,
		Window:        10,
		Weights:       DefaultWeights(),
	}
}

// Scorer labels trends and scores signals from indicator snapshots.
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer with the given configuration.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// votes counts bullish and bearish indicator agreements for one
// session. The MACD vote compares the histogram against the previous
// session, so a vote always needs two consecutive snapshots. Each of
// the five families contributes at most one vote to each side.
func (s *Scorer) votes(prev, snap analysis.IndicatorSnapshot) (up, down int) {
	if snap.EMAShort > snap.EMALong {
		up++
	} else if snap.EMAShort < snap.EMALong {
		down++
	}

	histDiff := snap.MACDHist - prev.MACDHist
	if snap.MACD > snap.MACDSignal && histDiff > 0 {
		up++
	} else if snap.MACD < snap.MACDSignal && histDiff < 0 {
		down++
	}

	if snap.ADX > s.cfg.ADXThreshold {
		if snap.PlusDI > snap.MinusDI {
			up++
		} else if snap.PlusDI < snap.MinusDI {
			down++
		}
	}

	if snap.Close > snap.BBMiddle && snap.Close < snap.BBUpper {
		up++
	} else if snap.Close < snap.BBMiddle && snap.Close > snap.BBLower {
		down++
	}

	if snap.RSI < s.cfg.RSIOverbought {
		up++
	}
	if snap.RSI > s.cfg.RSIOversold {
		down++
	}
	return up, down
}

// Label classifies one session against its predecessor. A side wins
// only with enough votes and a strict majority over the other side.
func (s *Scorer) Label(prev, snap analysis.IndicatorSnapshot) analysis.TrendLabel {
	up, down := s.votes(prev, snap)
	switch {
	case up >= s.cfg.UpVotes && up > down:
		return analysis.TrendUp
	case down >= s.cfg.DownVotes && down > up:
		return analysis.TrendDown
	default:
		return analysis.TrendFlat
	}
}

// Labels classifies each snapshot after the first, yielding
// len(snaps)-1 labels in chronological order.
func (s *Scorer) Labels(snaps []analysis.IndicatorSnapshot) []analysis.TrendLabel {
	if len(snaps) < 2 {
		return nil
	}
	labels := make([]analysis.TrendLabel, len(snaps)-1)
	for i := 1; i < len(snaps); i++ {
		labels[i-1] = s.Label(snaps[i-1], snaps[i])
	}
	return labels
}

// Score accumulates weighted buy and sell evidence from one snapshot.
func (s *Scorer) Score(snap analysis.IndicatorSnapshot) (buy, sell float64) {
	w := s.cfg.Weights

	if snap.EMAShort > snap.EMALong {
		buy += w.EMACross
	} else if snap.EMAShort < snap.EMALong {
		sell += w.EMACross
	}

	if snap.MACD > snap.MACDSignal && snap.MACDHist > 0 {
		buy += w.MACDCross
	} else if snap.MACD < snap.MACDSignal && snap.MACDHist < 0 {
		sell += w.MACDCross
	}

	if snap.ADX > s.cfg.ADXThreshold {
		if snap.PlusDI > snap.MinusDI {
			buy += w.ADXStrength
		} else if snap.PlusDI < snap.MinusDI {
			sell += w.ADXStrength
		}
	}

	if snap.Close > snap.BBMiddle || snap.Close < snap.BBLower {
		buy += w.BBPosition
	}
	if snap.Close < snap.BBMiddle || snap.Close > snap.BBUpper {
		sell += w.BBPosition
	}

	if snap.RSI < s.cfg.RSIOversold {
		buy += w.RSILevel
	} else if snap.RSI > s.cfg.RSIOverbought {
		sell += w.RSILevel
	}
	return buy, sell
}

// Decide maps buy and sell scores to a signal. The buy side is
// checked first: once buy reaches its threshold, the outcome is buy or
// hold and the sell branch is never consulted. A side must strictly
// beat the other to win, so near-ties resolve to hold.
func (s *Scorer) Decide(buy, sell float64) analysis.Signal {
	if buy >= s.cfg.BuyThreshold {
		if buy > sell {
			return analysis.SignalBuy
		}
		return analysis.SignalHold
	}
	if sell >= s.cfg.SellThreshold && sell > buy {
		return analysis.SignalSell
	}
	return analysis.SignalHold
}

// Evaluate labels the trailing window of sessions and scores the most
// recent one. The snapshot slice must be in chronological order and
// hold at least window+1 entries, since each label consumes a
// consecutive pair.
func (s *Scorer) Evaluate(symbol string, snaps []analysis.IndicatorSnapshot) (*analysis.TrendAnalysisResult, error) {
	if len(snaps) < s.cfg.Window+1 {
		return nil, ErrInsufficientSnapshots
	}

	window := snaps[len(snaps)-s.cfg.Window-1:]
	last := window[len(window)-1]
	buy, sell := s.Score(last)

	return &analysis.TrendAnalysisResult{
		Symbol:     symbol,
		Trends:     s.Labels(window),
		Indicators: &last,
		Signal:     s.Decide(buy, sell),
		BuyScore:   buy,
		SellScore:  sell,
	}, nil
}
