// Package api implements the HTTP layer for FlareGuard. Handlers are methods
// on *Server. Each handler file is responsible for one resource group and
// only imports the dependencies it actually uses.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/nyashahama/flareguard-backend/internal/assess"
	"github.com/nyashahama/flareguard-backend/internal/model"
	"github.com/nyashahama/flareguard-backend/internal/worker"
)

// Config holds values read from environment variables at startup.
type Config struct {
	// Env is "production", "staging", or "development".
	Env string

	// AllowedOrigin is the CORS origin used in production. Empty means "*".
	AllowedOrigin string
}

// UserService is the user-scoped orchestration the handlers need.
// *assess.Service satisfies it.
type UserService interface {
	AssessUser(ctx context.Context, userID uuid.UUID, loc *model.Location) (assess.UserAssessment, error)
	CheckIn(ctx context.Context, l model.SymptomLog) (model.SymptomLog, error)
	TrendsForUser(ctx context.Context, userID uuid.UUID, windowDays int) (model.TrendReport, error)
	TreatmentPlan(ctx context.Context, userID uuid.UUID) (string, model.RiskAssessmentResult, error)
}

// ProfileStore covers the single-step reads and writes handlers make
// directly. *store.Store satisfies it.
type ProfileStore interface {
	GetProfile(ctx context.Context, id uuid.UUID) (model.UserProfile, error)
	SaveProfile(ctx context.Context, p model.UserProfile) (model.UserProfile, error)
	LatestAssessment(ctx context.Context, userID uuid.UUID) (model.RiskAssessmentResult, error)
	Ping(ctx context.Context) error
}

// Server holds all shared dependencies. Each handler file attaches methods to
// this type and uses only the fields it needs.
type Server struct {
	// engine serves the stateless assess and trends endpoints.
	engine *assess.Engine

	// users runs assessments, check-ins, trends and plans for stored users.
	users UserService

	// store handles profile reads and writes.
	store ProfileStore

	// worker queues a first assessment after onboarding.
	worker worker.Enqueuer

	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewServer constructs the Server and wires the chi router. The returned
// http.Handler is ready to pass to http.ListenAndServe.
func NewServer(
	engine *assess.Engine,
	users UserService,
	st ProfileStore,
	enqueuer worker.Enqueuer,
	cfg Config,
	logger *slog.Logger,
) http.Handler {
	s := &Server{
		engine: engine,
		users:  users,
		store:  st,
		worker: enqueuer,
		cfg:    cfg,
		logger: logger.With("component", "api"),
		now:    time.Now,
	}

	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(middleware.Timeout(30 * time.Second))

	// ── Health ────────────────────────────────────────────────────────────────
	r.Get("/healthz", s.handleHealthz)

	// ── API ───────────────────────────────────────────────────────────────────
	r.Route("/api", func(r chi.Router) {

		// Stateless engine endpoints: the caller supplies every input.
		r.Post("/assess", s.handleAssess)
		r.Post("/trends", s.handleTrends)

		// User-scoped endpoints backed by the store.
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Put("/profile", s.handlePutProfile)
			r.Get("/profile", s.handleGetProfile)
			r.Post("/checkins", s.handleCheckIn)
			r.Post("/risk", s.handleUserRisk)
			r.Get("/risk/latest", s.handleLatestRisk)
			r.Get("/trends", s.handleUserTrends)
			r.Post("/treatment-plan", s.handleTreatmentPlan)
		})
	})

	return r
}

// handleHealthz reports 200 when the database answers and 503 otherwise.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			s.logger.Warn("healthz: store ping failed", "error", err, logField(r))
			respondErr(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}
