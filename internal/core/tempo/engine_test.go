package tempo

import (
	"testing"
	"time"

	"setpace/internal/core/broadcast"
	"setpace/internal/core/clock"
	"setpace/internal/core/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestEngine(t *testing.T) (*Engine, *clock.Manual) {
	t.Helper()
	manual := clock.NewManual(time.Unix(0, 0))
	engine := New(Config{Clock: manual})
	t.Cleanup(engine.Stop)
	return engine, manual
}

func tickN(engine *Engine, n int) {
	for i := 0; i < n; i++ {
		engine.mu.Lock()
		stop := engine.stopCh
		engine.mu.Unlock()
		engine.tick(stop)
	}
}

// ticksUntilDone ticks until the session ends and returns the number of ticks.
func ticksUntilDone(t *testing.T, engine *Engine, limit int) int {
	t.Helper()
	for i := 1; i <= limit; i++ {
		tickN(engine, 1)
		if !engine.IsActive() {
			return i
		}
	}
	t.Fatalf("session still active after %d ticks", limit)
	return limit
}

func drain(t *testing.T, sub *broadcast.Subscription[model.Beat]) []model.Beat {
	t.Helper()
	var beats []model.Beat
	timeout := time.After(2 * time.Second)
	for {
		select {
		case beat, ok := <-sub.C():
			if !ok {
				return beats
			}
			beats = append(beats, beat)
		case <-timeout:
			t.Fatalf("subscription not closed, got %d beats so far", len(beats))
			return beats
		}
	}
}

func TestStartPublishesInitialBeat(t *testing.T) {
	engine, _ := newTestEngine(t)

	engine.Start("3-0-1-0", 10)

	beat, ok := engine.channel.Last()
	require.True(t, ok)
	assert.Equal(t, model.Beat{
		Phase:               model.PhaseEccentric,
		SecondsInPhase:      0,
		TotalSecondsInPhase: 3,
		CurrentRep:          1,
		TotalReps:           10,
		Progress:            0,
	}, beat)
	assert.True(t, engine.IsActive())
	assert.Equal(t, 1, engine.CurrentRep())
	assert.Equal(t, 10, engine.TotalReps())
}

func TestPhaseSequenceSkipsEmptyPauses(t *testing.T) {
	engine, _ := newTestEngine(t)
	engine.Start("3-0-1-0", 2)
	sub := engine.Subscribe(64)

	tickN(engine, 4)

	var got []model.Beat
	for i := 0; i < 4; i++ {
		got = append(got, <-sub.C())
	}
	assert.Equal(t, []model.Beat{
		{Phase: model.PhaseEccentric, SecondsInPhase: 1, TotalSecondsInPhase: 3, CurrentRep: 1, TotalReps: 2, Progress: 1.0 / 3},
		{Phase: model.PhaseEccentric, SecondsInPhase: 2, TotalSecondsInPhase: 3, CurrentRep: 1, TotalReps: 2, Progress: 2.0 / 3},
		{Phase: model.PhaseConcentric, SecondsInPhase: 0, TotalSecondsInPhase: 1, CurrentRep: 1, TotalReps: 2, Progress: 0},
		{Phase: model.PhaseEccentric, SecondsInPhase: 0, TotalSecondsInPhase: 3, CurrentRep: 2, TotalReps: 2, Progress: 0},
	}, got)
}

func TestAllPhasesVisited(t *testing.T) {
	engine, _ := newTestEngine(t)
	engine.Start("1-1-1-1", 1)
	sub := engine.Subscribe(16)

	tickN(engine, 4)

	var phases []model.Phase
	for _, beat := range drain(t, sub) {
		phases = append(phases, beat.Phase)
	}
	assert.Equal(t, []model.Phase{model.PhaseBottomPause, model.PhaseConcentric, model.PhaseTopPause}, phases)
	assert.False(t, engine.IsActive())
}

func TestSetTakesTimeUnderTensionTicks(t *testing.T) {
	tests := []struct {
		tempo string
		reps  int
	}{
		{"3-0-1-0", 10},
		{"2-1-2-1", 3},
		{"5-3-0-0", 1},
		{"4-0-0-2", 2},
	}
	for _, tt := range tests {
		t.Run(tt.tempo, func(t *testing.T) {
			engine, _ := newTestEngine(t)
			engine.Start(tt.tempo, tt.reps)

			ticks := ticksUntilDone(t, engine, 1000)

			assert.Equal(t, SetTimeUnderTensionOf(tt.tempo, tt.reps), ticks)
		})
	}
}

func TestAllZeroTempoAdvancesOneRepPerTick(t *testing.T) {
	engine, _ := newTestEngine(t)
	engine.Start("0-0-0-0", 3)
	sub := engine.Subscribe(16)

	ticks := ticksUntilDone(t, engine, 100)

	assert.Equal(t, 3, ticks)
	beats := drain(t, sub)
	require.Len(t, beats, 2)
	for i, beat := range beats {
		assert.Equal(t, i+2, beat.CurrentRep)
		assert.Equal(t, model.PhaseEccentric, beat.Phase)
		assert.Equal(t, 0, beat.TotalSecondsInPhase)
		assert.InDelta(t, 1.0, beat.Progress, 1e-9)
	}
}

func TestZeroEccentricChainsIntoNextRep(t *testing.T) {
	engine, _ := newTestEngine(t)
	engine.Start("0-2-1-0", 2)
	sub := engine.Subscribe(16)

	tickN(engine, 1)
	beat := <-sub.C()
	assert.Equal(t, model.PhaseBottomPause, beat.Phase)
	assert.Equal(t, 1, beat.CurrentRep)

	tickN(engine, 3)
	for i := 0; i < 2; i++ {
		<-sub.C()
	}
	beat = <-sub.C()
	assert.Equal(t, model.PhaseBottomPause, beat.Phase)
	assert.Equal(t, 2, beat.CurrentRep)
}

func TestPauseFreezesState(t *testing.T) {
	engine, _ := newTestEngine(t)
	engine.Start("3-1-2-1", 5)
	tickN(engine, 5)
	sub := engine.Subscribe(16)
	before := engine.Snapshot()

	engine.Pause()
	require.True(t, engine.IsPaused())
	tickN(engine, 7)
	engine.Resume()

	assert.Equal(t, before, engine.Snapshot())
	assert.Empty(t, sub.C())
	assert.False(t, engine.IsPaused())
}

func TestSkipToNextRep(t *testing.T) {
	engine, _ := newTestEngine(t)
	engine.Start("3-0-1-0", 2)
	tickN(engine, 2)
	sub := engine.Subscribe(8)

	engine.SkipToNextRep()

	beat := <-sub.C()
	assert.Equal(t, 2, beat.CurrentRep)
	assert.Equal(t, model.PhaseEccentric, beat.Phase)
	assert.Equal(t, 0, beat.SecondsInPhase)

	engine.SkipToNextRep()
	assert.Empty(t, drain(t, sub))
	assert.False(t, engine.IsActive())
}

func TestSkipToRep(t *testing.T) {
	engine, _ := newTestEngine(t)
	engine.Start("3-0-1-0", 5)
	tickN(engine, 2)
	sub := engine.Subscribe(8)

	engine.SkipToRep(4)

	beat := <-sub.C()
	assert.Equal(t, 4, beat.CurrentRep)
	assert.Equal(t, model.PhaseEccentric, beat.Phase)
	assert.Equal(t, 0, beat.SecondsInPhase)
}

func TestSkipsOpenRepOnEmptyEccentric(t *testing.T) {
	engine, _ := newTestEngine(t)
	engine.Start("0-2-1-0", 3)
	sub := engine.Subscribe(16)

	engine.SkipToNextRep()
	beat := <-sub.C()
	assert.Equal(t, model.PhaseEccentric, beat.Phase)
	assert.Equal(t, 2, beat.CurrentRep)
	assert.Equal(t, 0, beat.TotalSecondsInPhase)
	assert.Equal(t, 1.0, beat.Progress)

	tickN(engine, 1)
	beat = <-sub.C()
	assert.Equal(t, model.PhaseBottomPause, beat.Phase)
	assert.Equal(t, 2, beat.CurrentRep)

	engine.SkipToRep(3)
	beat = <-sub.C()
	assert.Equal(t, model.PhaseEccentric, beat.Phase)
	assert.Equal(t, 3, beat.CurrentRep)

	tickN(engine, 1)
	beat = <-sub.C()
	assert.Equal(t, model.PhaseBottomPause, beat.Phase)
	assert.Equal(t, 3, beat.CurrentRep)
	assert.Empty(t, sub.C())
}

func TestSkipToRepOutOfRangeIsIgnored(t *testing.T) {
	engine, _ := newTestEngine(t)
	engine.Start("3-0-1-0", 5)
	tickN(engine, 2)
	sub := engine.Subscribe(8)
	before := engine.Snapshot()
	published := engine.channel.Published()

	for _, n := range []int{0, -1, 6, 100} {
		engine.SkipToRep(n)
	}

	assert.Equal(t, before, engine.Snapshot())
	assert.Equal(t, published, engine.channel.Published())
	assert.Empty(t, sub.C())
}

func TestStopIsIdempotent(t *testing.T) {
	engine, _ := newTestEngine(t)
	engine.Stop()

	engine.Start("3-0-1-0", 3)
	sub := engine.Subscribe(4)
	engine.Stop()
	engine.Stop()

	assert.Empty(t, drain(t, sub))
	assert.Equal(t, model.TempoSession{}, engine.Snapshot())
	_, ok := engine.CurrentBeat()
	assert.False(t, ok)
}

func TestStaleDriverCannotPublish(t *testing.T) {
	engine, _ := newTestEngine(t)
	engine.Start("3-0-1-0", 3)
	engine.mu.Lock()
	stale := engine.stopCh
	first := engine.channel
	engine.mu.Unlock()

	engine.Start("2-0-2-0", 1)
	published := engine.channel.Published()
	engine.tick(stale)

	assert.True(t, first.Closed())
	assert.Equal(t, published, engine.channel.Published())
	assert.Equal(t, 0, engine.Snapshot().SecondsInPhase)
}

func TestTerminalStateIgnoresTicks(t *testing.T) {
	engine, _ := newTestEngine(t)
	engine.Start("1-0-0-0", 1)
	channel := engine.channel

	tickN(engine, 1)
	require.False(t, engine.IsActive())
	published := channel.Published()

	tickN(engine, 5)
	assert.Equal(t, published, channel.Published())
}

func TestRepsBelowOneRunOneRep(t *testing.T) {
	engine, _ := newTestEngine(t)

	engine.Start("1-0-0-0", 0)

	assert.Equal(t, 1, engine.TotalReps())
	assert.Equal(t, 1, ticksUntilDone(t, engine, 10))
}

func TestProgress(t *testing.T) {
	engine, _ := newTestEngine(t)
	assert.InDelta(t, 0.0, engine.Progress(), 1e-9)

	engine.Start("4-0-1-0", 1)
	tickN(engine, 1)
	assert.InDelta(t, 0.25, engine.Progress(), 1e-9)
}

func TestDriverDeliversTicks(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	manual := clock.NewManual(time.Unix(0, 0))
	engine := New(Config{Clock: manual})
	engine.Start("1-0-1-0", 2)
	sub := engine.Subscribe(16)

	for i := 0; i < 4; i++ {
		manual.Tick()
	}

	beats := drain(t, sub)
	require.Len(t, beats, 3)
	assert.Equal(t, 2, beats[len(beats)-1].CurrentRep)
	assert.False(t, engine.IsActive())
}
