// Package clock abstracts the periodic driver used by the timing engines so
// tests can deliver ticks by hand.
package clock

import (
	"sync"
	"time"
)

// Clock creates tickers.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

// Ticker mirrors the parts of time.Ticker the engines use.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Real implements Clock using the standard time package.
type Real struct{}

func (Real) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// Manual hands out tickers that only fire when Tick is called.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
	created int
}

// NewManual creates a manual clock starting at the given time.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) NewTicker(d time.Duration) Ticker {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticker := &manualTicker{
		interval: d,
		ch:       make(chan time.Time),
		stopped:  make(chan struct{}),
	}
	m.tickers = append(m.tickers, ticker)
	m.created++
	return ticker
}

// Tick advances the clock by one interval of each live ticker and delivers the
// tick. It returns once every live ticker's tick has been received.
func (m *Manual) Tick() {
	m.mu.Lock()
	live := m.tickers[:0]
	for _, ticker := range m.tickers {
		if !ticker.isStopped() {
			live = append(live, ticker)
		}
	}
	m.tickers = live
	targets := append([]*manualTicker(nil), live...)
	var step time.Duration
	for _, ticker := range targets {
		if ticker.interval > step {
			step = ticker.interval
		}
	}
	m.now = m.now.Add(step)
	now := m.now
	m.mu.Unlock()

	for _, ticker := range targets {
		select {
		case ticker.ch <- now:
		case <-ticker.stopped:
		}
	}
}

// Live reports how many tickers have not been stopped.
func (m *Manual) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, ticker := range m.tickers {
		if !ticker.isStopped() {
			count++
		}
	}
	return count
}

// Created reports how many tickers were ever handed out.
func (m *Manual) Created() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.created
}

// Now returns the manual clock's current time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

type manualTicker struct {
	interval time.Duration
	ch       chan time.Time
	stopped  chan struct{}
	once     sync.Once
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.once.Do(func() { close(t.stopped) })
}

func (t *manualTicker) isStopped() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}
