package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/julianstephens/nudge/internal/entities"
	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/utils"
)

func kindParam(w http.ResponseWriter, r *http.Request) (models.Kind, bool) {
	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return kind, true
}

// dateParam reads {date} as YYYY-MM-DD in the configured timezone, or
// "today" for the current habit day.
func (s *Server) dateParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := chi.URLParam(r, "date")
	if raw == "today" {
		today, err := s.scheduler.Today(r.Context())
		if err != nil {
			writeErr(w, err)
			return time.Time{}, false
		}
		return today, true
	}

	settings, err := s.entities.Settings(r.Context())
	if err != nil {
		writeErr(w, err)
		return time.Time{}, false
	}
	loc, err := utils.LoadLocation(settings.Timezone)
	if err != nil {
		writeErr(w, fmt.Errorf("load timezone: %w", err))
		return time.Time{}, false
	}
	date, err := utils.ParseDateInLocation(raw, loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD or today", raw))
		return time.Time{}, false
	}
	return date, true
}

func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	list, err := s.entities.GetAllEntities(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	if raw := r.URL.Query().Get("kind"); raw != "" {
		kind, err := models.ParseKind(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filtered := list[:0]
		for _, e := range list {
			if e.Kind == kind {
				filtered = append(filtered, e)
			}
		}
		list = filtered
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateEntity(w http.ResponseWriter, r *http.Request) {
	var req models.Entity
	if !decode(w, r, &req) {
		return
	}
	created, err := s.entities.CreateEntity(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	e, err := s.entities.GetEntity(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

type entityPatchRequest struct {
	Title        *string `json:"title"`
	IntervalDays *int    `json:"interval_days"`
	IsDone       *bool   `json:"is_done"`
	StartAtDate  *string `json:"start_at_date"`
	StartInDays  *int    `json:"start_in_days"`
}

func (s *Server) handleUpdateEntity(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	var req entityPatchRequest
	if !decode(w, r, &req) {
		return
	}
	updated, err := s.entities.UpdateEntity(r.Context(), kind, chi.URLParam(r, "id"), models.EntityPatch{
		Title:        req.Title,
		IntervalDays: req.IntervalDays,
		IsDone:       req.IsDone,
		StartAtDate:  req.StartAtDate,
		StartInDays:  req.StartInDays,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteEntity(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	e, err := s.entities.GetEntity(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := s.entities.DeleteEntity(r.Context(), e); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecordAnswer(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	var a models.Answer
	if !decode(w, r, &a) {
		return
	}
	recorded, err := s.entities.RecordAnswer(r.Context(), kind, chi.URLParam(r, "id"), a)
	if err != nil {
		writeErr(w, err)
		return
	}
	if recorded == nil {
		// answering a deleted entity is not an error
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, recorded)
}

type dueResponse struct {
	Entities entities.DueCandidates `json:"entities"`
	Actions  []models.Action        `json:"actions"`
}

func (s *Server) handleDue(w http.ResponseWriter, r *http.Request) {
	now, err := s.entities.Now(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	due, err := s.entities.DueCandidatesAt(r.Context(), now)
	if err != nil {
		writeErr(w, err)
		return
	}
	actions, err := s.entities.DueActions(r.Context(), now)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dueResponse{Entities: due, Actions: actions})
}

func (s *Server) handleListQueue(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	items, err := s.scheduler.ListQueue(r.Context(), date)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleGenerateQueue(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	var req struct {
		MaxItems *int `json:"max_items"`
	}
	if !decode(w, r, &req) {
		return
	}
	limit := 0
	if req.MaxItems != nil {
		limit = *req.MaxItems
	} else {
		settings, err := s.entities.Settings(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		limit = settings.QueueMaxItems
	}

	added, err := s.scheduler.GenerateQueueForDate(r.Context(), date, limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	if added == nil {
		added = []models.QueueItem{}
	}
	writeJSON(w, http.StatusOK, added)
}

func (s *Server) handleCompleteQueueItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Response string `json:"response"`
	}
	if !decode(w, r, &req) {
		return
	}
	item, err := s.scheduler.CompleteQueueItem(r.Context(), chi.URLParam(r, "id"), req.Response)
	if err != nil {
		writeErr(w, err)
		return
	}
	if item == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	result, err := s.selector.GetCurrent(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCompleteToday(w http.ResponseWriter, r *http.Request) {
	record, err := s.selector.MarkTaskCompleted(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	if record == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	list, err := s.entities.ListActions(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateAction(w http.ResponseWriter, r *http.Request) {
	var req models.Action
	if !decode(w, r, &req) {
		return
	}
	created, err := s.entities.CreateAction(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleActionDone(w http.ResponseWriter, r *http.Request) {
	a, err := s.entities.RecordActionInteraction(r.Context(), chi.URLParam(r, "id"))
	writeAction(w, a, err)
}

func (s *Server) handleActionFinish(w http.ResponseWriter, r *http.Request) {
	a, err := s.entities.FinishAction(r.Context(), chi.URLParam(r, "id"))
	writeAction(w, a, err)
}

func (s *Server) handleDeleteAction(w http.ResponseWriter, r *http.Request) {
	if err := s.entities.DeleteAction(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeAction(w http.ResponseWriter, a *models.Action, err error) {
	if err != nil {
		writeErr(w, err)
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "action not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}
