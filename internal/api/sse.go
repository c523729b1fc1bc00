package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"setpace/internal/core/broadcast"
)

// streamEvents writes snapshot, then every event from sub, as server-sent
// events. It returns when the session ends or the client goes away.
func streamEvents[T any](w http.ResponseWriter, r *http.Request, snapshot any, sub *broadcast.Subscription[T]) {
	defer sub.Close()

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, "snapshot", snapshot); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case event, ok := <-sub.C():
			if !ok {
				_ = writeEvent(w, "end", struct{}{})
				flusher.Flush()
				return
			}
			if err := writeEvent(w, "tick", event); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}
