package model

import "strconv"

// RestSession is the state of one rest countdown.
type RestSession struct {
	RemainingSeconds int  `json:"remainingSeconds"`
	TotalSeconds     int  `json:"totalSeconds"`
	Active           bool `json:"active"`
	Paused           bool `json:"paused"`
}

// TempoSpec holds the per-phase durations of one repetition, in seconds.
type TempoSpec struct {
	Eccentric   int `json:"eccentric"`
	BottomPause int `json:"bottomPause"`
	Concentric  int `json:"concentric"`
	TopPause    int `json:"topPause"`
}

// DefaultTempoSpec is used for any notation that cannot be parsed.
var DefaultTempoSpec = TempoSpec{Eccentric: 3, BottomPause: 0, Concentric: 1, TopPause: 0}

// TimeUnderTension returns the seconds spent in one repetition.
func (spec TempoSpec) TimeUnderTension() int {
	return spec.Eccentric + spec.BottomPause + spec.Concentric + spec.TopPause
}

// Duration returns the configured length of a phase.
func (spec TempoSpec) Duration(phase Phase) int {
	switch phase {
	case PhaseEccentric:
		return spec.Eccentric
	case PhaseBottomPause:
		return spec.BottomPause
	case PhaseConcentric:
		return spec.Concentric
	case PhaseTopPause:
		return spec.TopPause
	}
	return 0
}

// String renders the dash notation, e.g. "3-0-1-0".
func (spec TempoSpec) String() string {
	return strconv.Itoa(spec.Eccentric) + "-" +
		strconv.Itoa(spec.BottomPause) + "-" +
		strconv.Itoa(spec.Concentric) + "-" +
		strconv.Itoa(spec.TopPause)
}

// Phase is one segment of a repetition.
type Phase string

const (
	PhaseEccentric   Phase = "eccentric"
	PhaseBottomPause Phase = "bottom_pause"
	PhaseConcentric  Phase = "concentric"
	PhaseTopPause    Phase = "top_pause"
)

// Phases lists the phases in the order they run within a rep.
var Phases = [...]Phase{PhaseEccentric, PhaseBottomPause, PhaseConcentric, PhaseTopPause}

// Next returns the phase that follows. repDone is true when phase is the last
// one of the rep; the returned phase is then the first phase of the next rep.
func (phase Phase) Next() (next Phase, repDone bool) {
	switch phase {
	case PhaseEccentric:
		return PhaseBottomPause, false
	case PhaseBottomPause:
		return PhaseConcentric, false
	case PhaseConcentric:
		return PhaseTopPause, false
	default:
		return PhaseEccentric, true
	}
}

// TempoSession is the state of one tempo-guided set.
type TempoSession struct {
	Spec           TempoSpec `json:"spec"`
	Phase          Phase     `json:"phase"`
	SecondsInPhase int       `json:"secondsInPhase"`
	CurrentRep     int       `json:"currentRep"`
	TotalReps      int       `json:"totalReps"`
	Active         bool      `json:"active"`
	Paused         bool      `json:"paused"`
}

// Beat is the per-second update published by the tempo engine.
type Beat struct {
	Phase               Phase   `json:"phase"`
	SecondsInPhase      int     `json:"secondsInPhase"`
	TotalSecondsInPhase int     `json:"totalSecondsInPhase"`
	CurrentRep          int     `json:"currentRep"`
	TotalReps           int     `json:"totalReps"`
	Progress            float64 `json:"progress"`
}

// Beat derives the Beat describing the session's current state.
func (session TempoSession) Beat() Beat {
	total := session.Spec.Duration(session.Phase)
	return Beat{
		Phase:               session.Phase,
		SecondsInPhase:      session.SecondsInPhase,
		TotalSecondsInPhase: total,
		CurrentRep:          session.CurrentRep,
		TotalReps:           session.TotalReps,
		Progress:            PhaseProgress(session.SecondsInPhase, total),
	}
}

// PhaseProgress returns elapsed/total clamped to [0,1]. An empty phase counts as done.
func PhaseProgress(elapsed, total int) float64 {
	if total <= 0 {
		return 1
	}
	progress := float64(elapsed) / float64(total)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}
