package api

import (
	"net/http"
	"strconv"

	"setpace/internal/core/model"
	"setpace/internal/core/tempo"

	"github.com/go-chi/chi/v5"
)

type tempoView struct {
	ID string `json:"id"`
	model.TempoSession
	Current             *model.Beat `json:"beat,omitempty"`
	TimeUnderTension    int         `json:"timeUnderTension"`
	SetTimeUnderTension int         `json:"setTimeUnderTension"`
}

func newTempoView(id string, engine *tempo.Engine) tempoView {
	session := engine.Snapshot()
	view := tempoView{
		ID:                  id,
		TempoSession:        session,
		TimeUnderTension:    tempo.TimeUnderTension(session.Spec),
		SetTimeUnderTension: tempo.SetTimeUnderTension(session.Spec, session.TotalReps),
	}
	if beat, ok := engine.CurrentBeat(); ok {
		view.Current = &beat
	}
	return view
}

type tempoOp func(*tempo.Engine)

func tempoPause(engine *tempo.Engine)  { engine.Pause() }
func tempoResume(engine *tempo.Engine) { engine.Resume() }
func tempoStop(engine *tempo.Engine)   { engine.Stop() }
func tempoNext(engine *tempo.Engine)   { engine.SkipToNextRep() }

func startTempo(registry *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Tempo string `json:"tempo"`
			Reps  *int   `json:"reps"`
		}
		if err := decodeBody(r, &req); err != nil {
			respondError(w, "invalid request body", http.StatusBadRequest)
			return
		}

		defaults := registry.Defaults()
		notation := req.Tempo
		if notation == "" {
			notation = defaults.Tempo
		}
		reps := defaults.Reps
		if req.Reps != nil {
			reps = *req.Reps
		}
		if reps < 1 {
			respondError(w, "reps must be positive", http.StatusBadRequest)
			return
		}

		id, engine := registry.StartTempo(notation, reps)
		respondJSON(w, newTempoView(id, engine), http.StatusCreated)
	}
}

func getTempo(registry *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		engine, err := registry.Tempo(id)
		if err != nil {
			respondLookupError(w, err)
			return
		}
		respondJSON(w, newTempoView(id, engine), http.StatusOK)
	}
}

func controlTempo(registry *Registry, op tempoOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		engine, err := registry.Tempo(id)
		if err != nil {
			respondLookupError(w, err)
			return
		}
		op(engine)
		respondJSON(w, newTempoView(id, engine), http.StatusOK)
	}
}

func skipTempoRep(registry *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		engine, err := registry.Tempo(id)
		if err != nil {
			respondLookupError(w, err)
			return
		}

		var req struct {
			Rep *int `json:"rep"`
		}
		if err := decodeBody(r, &req); err != nil || req.Rep == nil {
			respondError(w, "rep is required", http.StatusBadRequest)
			return
		}

		engine.SkipToRep(*req.Rep)
		respondJSON(w, newTempoView(id, engine), http.StatusOK)
	}
}

func streamTempo(registry *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		engine, err := registry.Tempo(id)
		if err != nil {
			respondLookupError(w, err)
			return
		}

		sub := engine.Subscribe(registry.Defaults().SubscriberBuffer)
		streamEvents(w, r, newTempoView(id, engine), sub)
	}
}

func parseTempo(registry *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		notation := query.Get("tempo")
		if notation == "" {
			notation = registry.Defaults().Tempo
		}
		reps := 1
		if raw := query.Get("reps"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				respondError(w, "reps must be a positive integer", http.StatusBadRequest)
				return
			}
			reps = parsed
		}

		spec := tempo.Parse(notation)
		respondJSON(w, struct {
			Tempo               string          `json:"tempo"`
			Valid               bool            `json:"valid"`
			Spec                model.TempoSpec `json:"spec"`
			Reps                int             `json:"reps"`
			TimeUnderTension    int             `json:"timeUnderTension"`
			SetTimeUnderTension int             `json:"setTimeUnderTension"`
		}{
			Tempo:               spec.String(),
			Valid:               tempo.Valid(notation),
			Spec:                spec,
			Reps:                reps,
			TimeUnderTension:    tempo.TimeUnderTension(spec),
			SetTimeUnderTension: tempo.SetTimeUnderTension(spec, reps),
		}, http.StatusOK)
	}
}
