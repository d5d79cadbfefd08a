package monitor

import (
	"context"
	"sync"
	"time"

	"ragoalert/internal/models"
	"ragoalert/internal/notify"
)

// fakeClock is a settable time source shared by monitor and test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// stubPrices serves fixed prices per symbol.
type stubPrices struct {
	mu     sync.Mutex
	prices map[string]float64
	errs   map[string]error
}

func (s *stubPrices) Price(ctx context.Context, symbol string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.errs[symbol]; ok {
		return 0, err
	}
	return s.prices[symbol], nil
}

func (s *stubPrices) set(symbol string, price float64) {
	s.mu.Lock()
	s.prices[symbol] = price
	s.mu.Unlock()
}

// stubCandles serves fixed candle series per symbol.
type stubCandles struct {
	candles map[string][]models.Candle
	errs    map[string]error
}

func (s *stubCandles) DailyCandles(ctx context.Context, symbol string, days int) ([]models.Candle, error) {
	if err, ok := s.errs[symbol]; ok {
		return nil, err
	}
	return s.candles[symbol], nil
}

// stubRanker returns a fixed ranking.
type stubRanker struct {
	top []string
	err error
}

func (s *stubRanker) TopByVolume(ctx context.Context, n int) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	if n > len(s.top) {
		n = len(s.top)
	}
	return s.top[:n], nil
}

// recordingNotifier captures sent messages.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []notify.Message
	err      error
}

func (r *recordingNotifier) Send(ctx context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, msg)
	return nil
}

func (r *recordingNotifier) sent() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// upTrendCandles produces a steadily rising daily series long enough
// for full indicator warm-up.
func upTrendCandles(n int) []models.Candle {
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, n)
	price := 100.0
	for i := range candles {
		price *= 1.01
		candles[i] = models.Candle{
			Timestamp: start.AddDate(0, 0, i),
			Open:      price * 0.995,
			High:      price * 1.01,
			Low:       price * 0.99,
			Close:     price,
			Volume:    1_000_000,
		}
	}
	return candles
}
