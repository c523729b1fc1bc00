package api

import (
	"context"
	"testing"
	"time"

	"setpace/internal/core/clock"
	"setpace/internal/preferences"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	registry := NewRegistry(preferences.DefaultSettings(), clock.NewManual(time.Unix(0, 0)))
	t.Cleanup(registry.Close)
	return registry
}

func TestRegistryLookup(t *testing.T) {
	registry := newTestRegistry(t)

	restID, restEngine := registry.StartRest(60)
	tempoID, tempoEngine := registry.StartTempo("2-0-2-0", 4)

	gotRest, err := registry.Rest(restID)
	require.NoError(t, err)
	assert.Same(t, restEngine, gotRest)

	gotTempo, err := registry.Tempo(tempoID)
	require.NoError(t, err)
	assert.Same(t, tempoEngine, gotTempo)

	_, err = registry.Rest(tempoID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = registry.Tempo("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 2, registry.Len())
}

func TestRegistryCleanupKeepsRunningSessions(t *testing.T) {
	registry := newTestRegistry(t)
	created := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	registry.now = func() time.Time { return created }

	_, running := registry.StartRest(60)
	_, finished := registry.StartRest(60)
	finished.Cancel()
	_, stopped := registry.StartTempo("3-0-1-0", 2)
	stopped.Stop()

	assert.Equal(t, 0, registry.Cleanup(created))
	assert.Equal(t, 2, registry.Cleanup(created.Add(time.Minute)))
	assert.Equal(t, 1, registry.Len())
	assert.True(t, running.IsActive())
}

func TestRegistryDefaults(t *testing.T) {
	registry := newTestRegistry(t)
	updated := preferences.DefaultSettings()
	updated.RestSeconds = 30

	registry.SetDefaults(updated)

	assert.Equal(t, 30, registry.Defaults().RestSeconds)
}

func TestRegistryCloseStopsEngines(t *testing.T) {
	registry := NewRegistry(preferences.DefaultSettings(), clock.NewManual(time.Unix(0, 0)))
	_, restEngine := registry.StartRest(60)
	_, tempoEngine := registry.StartTempo("3-0-1-0", 2)

	registry.Close()

	assert.False(t, restEngine.IsActive())
	assert.False(t, tempoEngine.IsActive())
	assert.Equal(t, 0, registry.Len())
}

func TestRunReaperStopsWithContext(t *testing.T) {
	registry := newTestRegistry(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- registry.RunReaper(ctx, time.Millisecond) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
}
