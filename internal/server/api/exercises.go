package api

import (
	"net/http"

	"github.com/ayusman/repcoach/internal/rep"
)

type exerciseResponse struct {
	rep.Profile
	Limb string `json:"limb"`
}

// Exercises handles GET /api/exercises.
func Exercises(w http.ResponseWriter, r *http.Request) {
	out := make([]exerciseResponse, 0, len(rep.Exercises))
	for _, e := range rep.Exercises {
		p := rep.ProfileFor(e)
		out = append(out, exerciseResponse{Profile: p, Limb: p.Limb()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"exercises": out})
}
