package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ayusman/repcoach/internal/store"
)

const (
	DefaultLogLimit = 20
	MaxLogLimit     = 500
)

// History lists saved workouts, newest first.
type History interface {
	Recent(ctx context.Context, limit int) []store.WorkoutLog
}

type HistoryHandler struct {
	history History
}

func NewHistoryHandler(h History) *HistoryHandler {
	return &HistoryHandler{history: h}
}

// List handles GET /api/logs?limit=n.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := DefaultLogLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, MaxLogLimit)
	}

	logs := h.history.Recent(r.Context(), limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"logs":  logs,
		"count": len(logs),
	})
}
