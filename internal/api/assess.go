package api

import (
	"net/http"

	"github.com/nyashahama/flareguard-backend/internal/model"
)

// ─── POST /api/assess ─────────────────────────────────────────────────────────

type assessRequest struct {
	Weather *model.WeatherSnapshot `json:"weather"`
	Profile *model.UserProfile     `json:"profile"`
	Logs    []model.SymptomLog     `json:"logs"`
}

// handleAssess runs the engine on caller-supplied inputs. Nothing is read
// from or written to the store.
func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	var req assessRequest
	if !decode(w, r, &req) {
		return
	}
	if msg := validateLogs(req.Logs); msg != "" {
		respondErr(w, http.StatusBadRequest, msg)
		return
	}

	result, err := s.engine.Assess(r.Context(), req.Weather, req.Profile, req.Logs)
	if err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, result)
}

// ─── POST /api/trends ─────────────────────────────────────────────────────────

type trendsRequest struct {
	Logs       []model.SymptomLog `json:"logs"`
	WindowDays int                `json:"window_days"`
}

// handleTrends analyses caller-supplied check-ins.
func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	var req trendsRequest
	if !decode(w, r, &req) {
		return
	}
	if msg := validateLogs(req.Logs); msg != "" {
		respondErr(w, http.StatusBadRequest, msg)
		return
	}
	if req.WindowDays < 0 || req.WindowDays > maxWindowDays {
		respondErr(w, http.StatusBadRequest, "window_days must be between 0 and 365")
		return
	}

	respond(w, http.StatusOK, s.engine.AnalyzeTrends(req.Logs, req.WindowDays))
}
