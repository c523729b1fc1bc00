package api

import (
	"net/http"

	"setpace/internal/core/model"
	"setpace/internal/core/rest"

	"github.com/go-chi/chi/v5"
)

type restView struct {
	ID string `json:"id"`
	model.RestSession
	Progress  float64 `json:"progress"`
	Formatted string  `json:"formatted"`
}

func newRestView(id string, engine *rest.Engine) restView {
	session := engine.Snapshot()
	return restView{
		ID:          id,
		RestSession: session,
		Progress:    engine.Progress(),
		Formatted:   rest.FormattedTime(session.RemainingSeconds),
	}
}

type restOp func(*rest.Engine)

func restPause(engine *rest.Engine)  { engine.Pause() }
func restResume(engine *rest.Engine) { engine.Resume() }
func restCancel(engine *rest.Engine) { engine.Cancel() }

type restAdjustOp func(*rest.Engine, int)

func restAdd(engine *rest.Engine, seconds int)  { engine.AddTime(seconds) }
func restSkip(engine *rest.Engine, seconds int) { engine.SkipToTime(seconds) }

func startRest(registry *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Seconds *int `json:"seconds"`
		}
		if err := decodeBody(r, &req); err != nil {
			respondError(w, "invalid request body", http.StatusBadRequest)
			return
		}

		seconds := registry.Defaults().RestSeconds
		if req.Seconds != nil {
			seconds = *req.Seconds
		}
		if seconds < 0 {
			respondError(w, "seconds must not be negative", http.StatusBadRequest)
			return
		}

		id, engine := registry.StartRest(seconds)
		respondJSON(w, newRestView(id, engine), http.StatusCreated)
	}
}

func getRest(registry *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		engine, err := registry.Rest(id)
		if err != nil {
			respondLookupError(w, err)
			return
		}
		respondJSON(w, newRestView(id, engine), http.StatusOK)
	}
}

func controlRest(registry *Registry, op restOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		engine, err := registry.Rest(id)
		if err != nil {
			respondLookupError(w, err)
			return
		}
		op(engine)
		respondJSON(w, newRestView(id, engine), http.StatusOK)
	}
}

func adjustRest(registry *Registry, op restAdjustOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		engine, err := registry.Rest(id)
		if err != nil {
			respondLookupError(w, err)
			return
		}

		var req struct {
			Seconds *int `json:"seconds"`
		}
		if err := decodeBody(r, &req); err != nil || req.Seconds == nil {
			respondError(w, "seconds is required", http.StatusBadRequest)
			return
		}

		op(engine, *req.Seconds)
		respondJSON(w, newRestView(id, engine), http.StatusOK)
	}
}

func streamRest(registry *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		engine, err := registry.Rest(id)
		if err != nil {
			respondLookupError(w, err)
			return
		}

		sub := engine.Subscribe(registry.Defaults().SubscriberBuffer)
		streamEvents(w, r, newRestView(id, engine), sub)
	}
}
