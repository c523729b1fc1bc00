package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"setpace/internal/core/clock"
	"setpace/internal/core/rest"
	"setpace/internal/core/tempo"
	"setpace/internal/log"
	"setpace/internal/preferences"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrSessionNotFound = errors.New("session not found")

type restEntry struct {
	engine    *rest.Engine
	createdAt time.Time
}

type tempoEntry struct {
	engine    *tempo.Engine
	createdAt time.Time
}

// Registry owns one engine per hosted session.
type Registry struct {
	mu       sync.Mutex
	settings preferences.Settings
	clock    clock.Clock
	rests    map[string]*restEntry
	tempos   map[string]*tempoEntry
	now      func() time.Time
	logger   zerolog.Logger
}

// NewRegistry creates an empty registry. A nil clk uses the real clock.
func NewRegistry(settings preferences.Settings, clk clock.Clock) *Registry {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Registry{
		settings: settings,
		clock:    clk,
		rests:    make(map[string]*restEntry),
		tempos:   make(map[string]*tempoEntry),
		now:      time.Now,
		logger:   log.WithComponent("registry"),
	}
}

// Defaults returns the settings new sessions fall back to.
func (r *Registry) Defaults() preferences.Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings
}

// SetDefaults swaps the settings used by sessions started from now on.
func (r *Registry) SetDefaults(settings preferences.Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = settings
}

// StartRest creates and starts a rest countdown.
func (r *Registry) StartRest(seconds int) (string, *rest.Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()

	config := r.settings.RestConfig()
	config.Clock = r.clock
	engine := rest.New(config)
	id := uuid.New().String()
	r.rests[id] = &restEntry{engine: engine, createdAt: r.now()}
	engine.Start(seconds)

	r.logger.Info().
		Str("event", "registry.rest_started").
		Str("session", id).
		Int("seconds", seconds).
		Msg("rest session started")
	return id, engine
}

// StartTempo creates and starts a tempo session.
func (r *Registry) StartTempo(notation string, reps int) (string, *tempo.Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()

	config := r.settings.TempoConfig()
	config.Clock = r.clock
	engine := tempo.New(config)
	id := uuid.New().String()
	r.tempos[id] = &tempoEntry{engine: engine, createdAt: r.now()}
	engine.Start(notation, reps)

	r.logger.Info().
		Str("event", "registry.tempo_started").
		Str("session", id).
		Str("tempo", notation).
		Int("reps", reps).
		Msg("tempo session started")
	return id, engine
}

// Rest looks up a rest session.
func (r *Registry) Rest(id string) (*rest.Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.rests[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return entry.engine, nil
}

// Tempo looks up a tempo session.
func (r *Registry) Tempo(id string) (*tempo.Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.tempos[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return entry.engine, nil
}

// Len returns the number of hosted sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rests) + len(r.tempos)
}

// Cleanup drops finished sessions created before cutoff and returns how many
// were removed. Running sessions are kept.
func (r *Registry) Cleanup(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, entry := range r.rests {
		if !entry.engine.IsActive() && entry.createdAt.Before(cutoff) {
			delete(r.rests, id)
			removed++
		}
	}
	for id, entry := range r.tempos {
		if !entry.engine.IsActive() && entry.createdAt.Before(cutoff) {
			delete(r.tempos, id)
			removed++
		}
	}
	return removed
}

// RunReaper periodically removes finished sessions older than the session TTL
// until ctx is cancelled.
func (r *Registry) RunReaper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			ttl := r.Defaults().SessionTTL
			if removed := r.Cleanup(r.now().Add(-ttl)); removed > 0 {
				r.logger.Debug().
					Str("event", "registry.cleanup").
					Int("removed", removed).
					Msg("removed finished sessions")
			}
		}
	}
}

// Close stops every hosted session.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, entry := range r.rests {
		entry.engine.Cancel()
		delete(r.rests, id)
	}
	for id, entry := range r.tempos {
		entry.engine.Stop()
		delete(r.tempos, id)
	}
}
