package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/nyashahama/flareguard-backend/internal/model"
	"github.com/nyashahama/flareguard-backend/internal/store"
)

// ─── PUT /api/users/:userID/profile ───────────────────────────────────────────

// handlePutProfile creates or replaces the user's profile. Leaving out
// severity_history keeps the history built from check-ins. When alerts are
// switched on and a location is known, the first assessment is queued so the
// user doesn't wait for the next poll.
func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req model.UserProfile
	if !decode(w, r, &req) {
		return
	}
	if msg := normalizeProfile(&req); msg != "" {
		respondErr(w, http.StatusBadRequest, msg)
		return
	}
	req.ID = userID

	saved, err := s.store.SaveProfile(r.Context(), req)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("save profile: %w", err))
		return
	}

	if saved.Preferences.Notifications && saved.Location != nil && s.worker != nil {
		if err := s.worker.Enqueue(r.Context(), saved.ID); err != nil {
			// Non-fatal: the poller will pick the user up.
			s.logger.Warn("put profile: enqueue first assessment failed",
				"user_id", saved.ID,
				"error", err,
				logField(r),
			)
		}
	}

	respond(w, http.StatusOK, saved)
}

// ─── GET /api/users/:userID/profile ───────────────────────────────────────────

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	p, err := s.store.GetProfile(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		respondErr(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("get profile: %w", err))
		return
	}
	respond(w, http.StatusOK, p)
}

// ─── POST /api/users/:userID/checkins ─────────────────────────────────────────

type checkInRequest struct {
	Date           string                 `json:"date"` // default today (UTC)
	ItchScore      int                    `json:"itch_score"`
	RednessScore   int                    `json:"redness_score"`
	MedicationUsed bool                   `json:"medication_used"`
	Note           string                 `json:"note"`
	Weather        *model.WeatherSnapshot `json:"weather"`
}

// handleCheckIn records the day's symptoms. A second check-in for the same
// day replaces the first.
func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req checkInRequest
	if !decode(w, r, &req) {
		return
	}

	today := s.now().UTC().Format(model.DateLayout)
	l := model.SymptomLog{
		UserID:         userID,
		Date:           strings.TrimSpace(req.Date),
		ItchScore:      req.ItchScore,
		RednessScore:   req.RednessScore,
		MedicationUsed: req.MedicationUsed,
		Note:           strings.TrimSpace(req.Note),
	}
	if l.Date == "" {
		l.Date = today
	}
	if req.Weather != nil {
		l.Weather = *req.Weather
	}
	if msg := validateLog(l); msg != "" {
		respondErr(w, http.StatusBadRequest, msg)
		return
	}
	// YYYY-MM-DD compares correctly as a string.
	if l.Date > today {
		respondErr(w, http.StatusBadRequest, "date cannot be in the future")
		return
	}

	saved, err := s.users.CheckIn(r.Context(), l)
	if err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	respond(w, http.StatusCreated, saved)
}

// ─── POST /api/users/:userID/risk ─────────────────────────────────────────────

type userRiskResponse struct {
	AssessmentID string                     `json:"assessment_id"`
	Result       model.RiskAssessmentResult `json:"result"`
}

// handleUserRisk runs and records a fresh assessment. ?lat=&lon= or ?city=
// override the stored location for this request only. It does not settle the
// day's alert; the worker still evaluates it.
func (s *Server) handleUserRisk(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	loc, msg := locationQuery(r)
	if msg != "" {
		respondErr(w, http.StatusBadRequest, msg)
		return
	}

	ua, err := s.users.AssessUser(r.Context(), userID, loc)
	if err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, userRiskResponse{
		AssessmentID: ua.ID.String(),
		Result:       ua.Result,
	})
}

// ─── GET /api/users/:userID/risk/latest ───────────────────────────────────────

// handleLatestRisk returns the most recent stored assessment without running
// a new one.
func (s *Server) handleLatestRisk(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	result, err := s.store.LatestAssessment(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		respondErr(w, http.StatusNotFound, "no assessment recorded yet")
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("latest assessment: %w", err))
		return
	}
	respond(w, http.StatusOK, result)
}

// ─── GET /api/users/:userID/trends ────────────────────────────────────────────

func (s *Server) handleUserTrends(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxWindowDays {
			respondErr(w, http.StatusBadRequest, "days must be between 1 and 365")
			return
		}
		days = n
	}

	report, err := s.users.TrendsForUser(r.Context(), userID, days)
	if err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, report)
}

// ─── POST /api/users/:userID/treatment-plan ───────────────────────────────────

type treatmentPlanResponse struct {
	Plan       string                     `json:"plan"`
	Assessment model.RiskAssessmentResult `json:"assessment"`
}

// handleTreatmentPlan elaborates the latest stored assessment into a plan.
func (s *Server) handleTreatmentPlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	plan, result, err := s.users.TreatmentPlan(r.Context(), userID)
	if err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, treatmentPlanResponse{Plan: plan, Assessment: result})
}

// ─── HELPERS ─────────────────────────────────────────────────────────────────

// locationQuery reads an optional location override from the query string.
func locationQuery(r *http.Request) (*model.Location, string) {
	q := r.URL.Query()
	latRaw, lonRaw, city := q.Get("lat"), q.Get("lon"), strings.TrimSpace(q.Get("city"))

	if latRaw == "" && lonRaw == "" {
		if city == "" {
			return nil, ""
		}
		return &model.Location{City: city}, ""
	}

	lat, errLat := strconv.ParseFloat(latRaw, 64)
	lon, errLon := strconv.ParseFloat(lonRaw, 64)
	if errLat != nil || errLon != nil {
		return nil, "lat and lon must both be numbers"
	}
	loc := model.Location{Latitude: &lat, Longitude: &lon, City: city}
	if msg := validateLocation(loc); msg != "" {
		return nil, msg
	}
	return &loc, ""
}
