// Package api exposes the engine operations as a JSON HTTP API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/julianstephens/nudge/internal/entities"
	"github.com/julianstephens/nudge/internal/logger"
	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/scheduler"
	"github.com/julianstephens/nudge/internal/storage"
	"github.com/julianstephens/nudge/internal/taskofday"
)

// Server is the nudge HTTP API.
type Server struct {
	entities  *entities.Service
	scheduler *scheduler.Scheduler
	selector  *taskofday.Selector
	router    chi.Router
	version   string
	started   time.Time
}

func New(svc *entities.Service, sched *scheduler.Scheduler, sel *taskofday.Selector, version string) *Server {
	s := &Server{
		entities:  svc,
		scheduler: sched,
		selector:  sel,
		version:   version,
		started:   time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/entities", s.handleListEntities)
		r.Post("/entities", s.handleCreateEntity)
		r.Get("/entities/{kind}/{id}", s.handleGetEntity)
		r.Patch("/entities/{kind}/{id}", s.handleUpdateEntity)
		r.Delete("/entities/{kind}/{id}", s.handleDeleteEntity)
		r.Post("/entities/{kind}/{id}/answers", s.handleRecordAnswer)

		r.Get("/due", s.handleDue)

		r.Post("/queue/items/{id}/complete", s.handleCompleteQueueItem)
		r.Get("/queue/{date}", s.handleListQueue)
		r.Post("/queue/{date}", s.handleGenerateQueue)

		r.Get("/today", s.handleToday)
		r.Post("/today/complete", s.handleCompleteToday)

		r.Get("/actions", s.handleListActions)
		r.Post("/actions", s.handleCreateAction)
		r.Post("/actions/{id}/done", s.handleActionDone)
		r.Post("/actions/{id}/finish", s.handleActionFinish)
		r.Delete("/actions/{id}", s.handleDeleteAction)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, err := s.entities.Settings(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      err == nil,
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeErr maps engine errors onto status codes.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidEntity):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}
