package http

import (
	"context"
	"net/http"
	"strconv"

	syncx "github.com/mind-engage/quizbank/internal/sync"
)

// EventSource is the read side of the event log.
type EventSource interface {
	Since(ctx context.Context, after int64, limit int) ([]syncx.Event, error)
}

// GET /events?after=<offset>&limit=<n>
func ListEventsHandler(src EventSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		after, _ := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
		evs, err := src.Since(r.Context(), after, parseIntDefault(r.URL.Query().Get("limit"), 100))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if evs == nil {
			evs = []syncx.Event{}
		}
		writeJSON(w, http.StatusOK, evs)
	}
}
