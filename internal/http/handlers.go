package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"intake-agent/internal/core"
	"intake-agent/internal/llm"
	"intake-agent/pkg"
)

// Server exposes the intake conversation over HTTP.
type Server struct {
	orch *core.Orchestrator
	log  *logrus.Logger
}

func NewServer(orch *core.Orchestrator, log *logrus.Logger) *Server {
	return &Server{orch: orch, log: log}
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/intake", func(r chi.Router) {
		r.Post("/turns", s.handleTurn)
		r.Get("/sessions/{id}", s.handleStatus)
		r.Get("/sessions/{id}/summary", s.handleSummary)
		r.Get("/users/{id}/sessions", s.handleUserSessions)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req pkg.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := s.orch.ProcessTurn(r.Context(), req)
	if err != nil {
		s.writeTurnError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.orch.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeTurnError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.orch.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeTurnError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

func (s *Server) handleUserSessions(w http.ResponseWriter, r *http.Request) {
	previews, err := s.orch.SessionsForUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeTurnError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, previews)
}

// writeTurnError maps domain errors onto HTTP statuses. Model outages
// degrade gracefully: the client gets a 503 with an apology it can show
// directly, and the session is untouched.
func (s *Server) writeTurnError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, pkg.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, core.ErrConcurrentTurn), errors.Is(err, pkg.ErrConflict):
		writeError(w, http.StatusConflict, "another turn for this session is still processing, please retry")
	case llm.Retryable(err):
		s.log.WithError(err).Warn("turn degraded, model unavailable")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":      "service temporarily unavailable",
			"reply_text": core.DegradedReply,
		})
	default:
		s.log.WithError(err).Error("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
