// Package rest implements the countdown used between sets.
package rest

import (
	"fmt"
	"sync"
	"time"

	"setpace/internal/core/broadcast"
	"setpace/internal/core/clock"
	"setpace/internal/core/model"
	"setpace/internal/log"
	"setpace/internal/metrics"

	"github.com/rs/zerolog"
)

const engineName = "rest"

// Config contains runtime options for Engine.
type Config struct {
	TickInterval time.Duration
	Clock        clock.Clock
}

// Engine is a one-second countdown with pause, resume, add-time and skip.
// The zero value is not usable; create engines with New.
type Engine struct {
	mu      sync.Mutex
	options Config
	session model.RestSession
	channel *broadcast.Channel[int]
	stopCh  chan struct{}
	logger  zerolog.Logger
}

// New creates an idle engine.
func New(options Config) *Engine {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	if options.Clock == nil {
		options.Clock = clock.Real{}
	}
	idle := broadcast.New[int](engineName)
	idle.Close()
	return &Engine{
		options: options,
		channel: idle,
		logger:  log.WithComponent("rest"),
	}
}

// Start replaces any running session with a countdown of durationSeconds.
// The initial value is published before the driver starts.
func (engine *Engine) Start(durationSeconds int) {
	if durationSeconds < 0 {
		durationSeconds = 0
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()

	if engine.session.Active {
		engine.teardownLocked(metrics.ReasonReplaced)
	}

	engine.session = model.RestSession{
		RemainingSeconds: durationSeconds,
		TotalSeconds:     durationSeconds,
		Active:           true,
	}
	engine.channel = broadcast.New[int](engineName)
	stop := make(chan struct{})
	engine.stopCh = stop
	metrics.SessionStarted(engineName)
	engine.logger.Debug().
		Str("event", "rest.start").
		Int("total", durationSeconds).
		Msg("rest countdown started")

	engine.channel.Publish(durationSeconds)
	if durationSeconds == 0 {
		engine.completeLocked()
		return
	}

	go engine.run(engine.options.Clock.NewTicker(engine.options.TickInterval), stop)
}

// Subscribe attaches an observer to the current session. On an idle engine the
// returned subscription is already closed.
func (engine *Engine) Subscribe(buffer int) *broadcast.Subscription[int] {
	engine.mu.Lock()
	channel := engine.channel
	engine.mu.Unlock()
	return channel.Subscribe(buffer)
}

// Pause freezes the countdown. The driver keeps waking but does nothing.
func (engine *Engine) Pause() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if !engine.session.Active || engine.session.Paused {
		return
	}
	engine.session.Paused = true
}

// Resume continues from the remaining value held at pause time.
func (engine *Engine) Resume() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if !engine.session.Active || !engine.session.Paused {
		return
	}
	engine.session.Paused = false
}

// Cancel ends the session immediately. No event is published after it returns.
func (engine *Engine) Cancel() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if !engine.session.Active {
		return
	}
	engine.teardownLocked(metrics.ReasonCancelled)
}

// AddTime extends (or, with a negative delta, shortens) the countdown and its
// total. Reaching zero completes the session.
func (engine *Engine) AddTime(deltaSeconds int) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if !engine.session.Active {
		return
	}
	engine.session.RemainingSeconds = max(engine.session.RemainingSeconds+deltaSeconds, 0)
	engine.session.TotalSeconds = max(engine.session.TotalSeconds+deltaSeconds, 0)
	engine.channel.Publish(engine.session.RemainingSeconds)
	if engine.session.RemainingSeconds == 0 {
		engine.completeLocked()
	}
}

// SkipToTime sets the remaining seconds to an absolute value within [0, total].
// The total is left unchanged.
func (engine *Engine) SkipToTime(seconds int) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if !engine.session.Active {
		return
	}
	engine.session.RemainingSeconds = min(max(seconds, 0), engine.session.TotalSeconds)
	engine.channel.Publish(engine.session.RemainingSeconds)
	if engine.session.RemainingSeconds == 0 {
		engine.completeLocked()
	}
}

// IsActive reports whether a session is running (paused or not).
func (engine *Engine) IsActive() bool {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.session.Active
}

// IsPaused reports whether the running session is paused.
func (engine *Engine) IsPaused() bool {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.session.Paused
}

// RemainingSeconds returns the seconds left in the countdown.
func (engine *Engine) RemainingSeconds() int {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.session.RemainingSeconds
}

// TotalSeconds returns the countdown length including added time.
func (engine *Engine) TotalSeconds() int {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.session.TotalSeconds
}

// Progress returns the elapsed fraction of the countdown, 0 when idle.
func (engine *Engine) Progress() float64 {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return progress(engine.session)
}

// Snapshot returns a copy of the session state.
func (engine *Engine) Snapshot() model.RestSession {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.session
}

// FormattedTime renders seconds as MM:SS. Negative input renders as 00:00.
func FormattedTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func progress(session model.RestSession) float64 {
	if session.TotalSeconds == 0 {
		return 0
	}
	return 1 - float64(session.RemainingSeconds)/float64(session.TotalSeconds)
}

func (engine *Engine) run(ticker clock.Ticker, stop chan struct{}) {
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			engine.tick(stop)
		}
	}
}

func (engine *Engine) tick(stop chan struct{}) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.stopCh != stop || !engine.session.Active || engine.session.Paused {
		return
	}

	engine.session.RemainingSeconds--
	if engine.session.RemainingSeconds <= 0 {
		engine.session.RemainingSeconds = 0
		engine.channel.Publish(0)
		engine.completeLocked()
		return
	}
	engine.channel.Publish(engine.session.RemainingSeconds)
}

func (engine *Engine) completeLocked() {
	engine.logger.Debug().
		Str("event", "rest.complete").
		Int("total", engine.session.TotalSeconds).
		Msg("rest countdown finished")
	engine.teardownLocked(metrics.ReasonCompleted)
}

// teardownLocked stops the driver, closes the channel and resets the session.
func (engine *Engine) teardownLocked(reason string) {
	if engine.stopCh != nil {
		close(engine.stopCh)
		engine.stopCh = nil
	}
	engine.channel.Close()
	if reason != metrics.ReasonCompleted {
		engine.logger.Debug().
			Str("event", "rest."+reason).
			Int("remaining", engine.session.RemainingSeconds).
			Msg("rest countdown ended early")
	}
	engine.session = model.RestSession{}
	metrics.SessionEnded(engineName, reason)
}
