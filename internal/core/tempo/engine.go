package tempo

import (
	"sync"
	"time"

	"setpace/internal/core/broadcast"
	"setpace/internal/core/clock"
	"setpace/internal/core/model"
	"setpace/internal/log"
	"setpace/internal/metrics"

	"github.com/rs/zerolog"
)

const engineName = "tempo"

// Config contains runtime options for Engine.
type Config struct {
	TickInterval time.Duration
	Clock        clock.Clock
}

// Engine paces a set: every tick advances the current phase by one second and
// publishes a Beat. Phases with no duration are passed through without a Beat.
type Engine struct {
	mu      sync.Mutex
	options Config
	session model.TempoSession
	channel *broadcast.Channel[model.Beat]
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
	idle := broadcast.New[model.Beat](engineName)
	idle.Close()
	return &Engine{
		options: options,
		channel: idle,
		logger:  log.WithComponent("tempo"),
	}
}

// Start replaces any running session with reps repetitions of tempoText.
// The first Beat is published before the driver starts.
func (engine *Engine) Start(tempoText string, reps int) {
	if reps < 1 {
		reps = 1
	}
	spec := Parse(tempoText)

	engine.mu.Lock()
	defer engine.mu.Unlock()

	if engine.session.Active {
		engine.teardownLocked(metrics.ReasonReplaced)
	}

	engine.session = model.TempoSession{
		Spec:       spec,
		Phase:      model.PhaseEccentric,
		CurrentRep: 1,
		TotalReps:  reps,
		Active:     true,
	}
	engine.channel = broadcast.New[model.Beat](engineName)
	stop := make(chan struct{})
	engine.stopCh = stop
	metrics.SessionStarted(engineName)
	engine.logger.Debug().
		Str("event", "tempo.start").
		Str("tempo", spec.String()).
		Int("reps", reps).
		Msg("tempo session started")

	engine.channel.Publish(engine.session.Beat())

	go engine.run(engine.options.Clock.NewTicker(engine.options.TickInterval), stop)
}

// Subscribe attaches an observer to the current session. On an idle engine the
// returned subscription is already closed.
func (engine *Engine) Subscribe(buffer int) *broadcast.Subscription[model.Beat] {
	engine.mu.Lock()
	channel := engine.channel
	engine.mu.Unlock()
	return channel.Subscribe(buffer)
}

// Pause freezes phase and rep progress.
func (engine *Engine) Pause() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if !engine.session.Active || engine.session.Paused {
		return
	}
	engine.session.Paused = true
}

// Resume continues from the exact phase position held at pause time.
func (engine *Engine) Resume() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if !engine.session.Active || !engine.session.Paused {
		return
	}
	engine.session.Paused = false
}

// SkipToNextRep abandons the rest of the current rep. Like Start, the new rep
// opens on its eccentric phase even when that phase is empty; the next tick
// moves past it.
func (engine *Engine) SkipToNextRep() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if !engine.session.Active {
		return
	}
	if engine.finishRepLocked() {
		return
	}
	engine.channel.Publish(engine.session.Beat())
}

// SkipToRep restarts the set at rep n, on its eccentric phase. Out of range
// values are ignored.
func (engine *Engine) SkipToRep(n int) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if !engine.session.Active || n < 1 || n > engine.session.TotalReps {
		return
	}
	engine.session.CurrentRep = n
	engine.session.Phase = model.PhaseEccentric
	engine.session.SecondsInPhase = 0
	engine.channel.Publish(engine.session.Beat())
}

// Stop ends the session. It is safe on an idle or never-started engine.
func (engine *Engine) Stop() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if !engine.session.Active {
		return
	}
	engine.teardownLocked(metrics.ReasonCancelled)
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

// CurrentRep returns the 1-based rep in progress, 0 when idle.
func (engine *Engine) CurrentRep() int {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.session.CurrentRep
}

// TotalReps returns the rep count of the session, 0 when idle.
func (engine *Engine) TotalReps() int {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.session.TotalReps
}

// Progress returns the progress through the current phase, 0 when idle.
func (engine *Engine) Progress() float64 {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if !engine.session.Active {
		return 0
	}
	return engine.session.Beat().Progress
}

// CurrentBeat returns the Beat for the current state.
func (engine *Engine) CurrentBeat() (model.Beat, bool) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if !engine.session.Active {
		return model.Beat{}, false
	}
	return engine.session.Beat(), true
}

// Snapshot returns a copy of the session state.
func (engine *Engine) Snapshot() model.TempoSession {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.session
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

	engine.session.SecondsInPhase++
	if engine.session.SecondsInPhase >= engine.session.Spec.Duration(engine.session.Phase) {
		if engine.advanceLocked() {
			return
		}
	}
	engine.channel.Publish(engine.session.Beat())
}

// advanceLocked leaves the finished phase and passes through empty ones. It
// makes at most one hop per phase, so an all-zero tempo moves exactly one rep
// per call. It reports true when the set is complete.
func (engine *Engine) advanceLocked() bool {
	session := &engine.session
	for hop := 0; hop < len(model.Phases); hop++ {
		next, repDone := session.Phase.Next()
		if repDone {
			if engine.finishRepLocked() {
				return true
			}
		} else {
			session.Phase = next
			session.SecondsInPhase = 0
		}
		if session.Spec.Duration(session.Phase) > 0 {
			return false
		}
	}
	return false
}

// finishRepLocked moves to the next rep, completing the set after the last one.
func (engine *Engine) finishRepLocked() bool {
	engine.session.CurrentRep++
	if engine.session.CurrentRep > engine.session.TotalReps {
		engine.logger.Debug().
			Str("event", "tempo.complete").
			Str("tempo", engine.session.Spec.String()).
			Int("reps", engine.session.TotalReps).
			Msg("tempo session finished")
		engine.teardownLocked(metrics.ReasonCompleted)
		return true
	}
	engine.session.Phase = model.PhaseEccentric
	engine.session.SecondsInPhase = 0
	return false
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
			Str("event", "tempo."+reason).
			Int("rep", engine.session.CurrentRep).
			Str("phase", string(engine.session.Phase)).
			Msg("tempo session ended early")
	}
	engine.session = model.TempoSession{}
	metrics.SessionEnded(engineName, reason)
}
