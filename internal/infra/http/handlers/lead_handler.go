package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/traction-hub/internal/entity"
	"github.com/xavierca1/traction-hub/internal/infra/http/middleware"
	"github.com/xavierca1/traction-hub/internal/usecase"
)

// LeadHandler adapts HTTP requests to tracker intents.
type LeadHandler struct {
	tracker     *usecase.Tracker
	rateLimiter *RateLimiter
}

func NewLeadHandler(tracker *usecase.Tracker) *LeadHandler {
	return &LeadHandler{
		tracker:     tracker,
		rateLimiter: NewRateLimiter(60, time.Minute), // 60 writes/min per IP
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type saveLeadRequest struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	Description     string `json:"description"`
	Stage           int    `json:"stage"`
	StatusNote      string `json:"status_note"`
	IsHighIntensity bool   `json:"is_high_intensity"`
}

type stageChangeRequest struct {
	Stage int `json:"stage"`
}

// HandleList is the derived-view read. The stage and sort query params double
// as the setFilter/setSort intents: when present they update the sticky view
// settings before deriving.
func (h *LeadHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("stage"); raw != "" {
		stage, err := parseStageFilter(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errorResponse{Error: "stage must be ALL or 1-6"})
			return
		}
		if err := h.tracker.SetFilter(stage); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	if raw := r.URL.Query().Get("sort"); raw != "" {
		mode, err := usecase.ParseSortMode(raw)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if err := h.tracker.SetSort(mode); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	respondJSON(w, http.StatusOK, h.tracker.View())
}

// HandleSave is the saveLead intent: create when the body has no id, update
// otherwise. Local state is not mutated; the subscription snapshot is.
func (h *LeadHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r) {
		return
	}

	var req saveLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}

	lead := entity.Lead{
		ID:              req.ID,
		Name:            req.Name,
		Type:            entity.LeadType(req.Type),
		Description:     req.Description,
		Stage:           req.Stage,
		StatusNote:      req.StatusNote,
		IsHighIntensity: req.IsHighIntensity,
	}
	if lead.Stage == 0 {
		lead.Stage = entity.StageMin
	}

	switch lead.Type {
	case entity.LeadTypeUnset, entity.LeadTypeLOI, entity.LeadTypePaidPilot:
	default:
		writeError(w, http.StatusBadRequest, errorResponse{Error: "type must be LOI, PAID_PILOT or empty"})
		return
	}

	creating := lead.ID == ""
	id, err := h.tracker.RequestSave(r.Context(), lead)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status := http.StatusOK
	if creating {
		status = http.StatusCreated
	}
	middleware.RecordLeadSaved()
	respondJSON(w, status, map[string]string{"id": id})
}

// HandleStageChange is the clickStage intent. An unknown lead id is a silent
// no-op by design: it may have just been deleted by another path.
func (h *LeadHandler) HandleStageChange(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r) {
		return
	}

	leadID := chi.URLParam(r, "id")

	var req stageChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}

	if err := h.tracker.RequestStageChange(r.Context(), leadID, req.Stage); err != nil {
		middleware.RecordStageTransition("rejected")
		writeDomainError(w, err)
		return
	}

	middleware.RecordStageTransition("accepted")
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete is the deleteLead intent.
func (h *LeadHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r) {
		return
	}

	leadID := chi.URLParam(r, "id")
	if err := h.tracker.RequestDelete(r.Context(), leadID); err != nil {
		writeDomainError(w, err)
		return
	}

	middleware.RecordLeadDeleted()
	w.WriteHeader(http.StatusNoContent)
}

// HandleStages serves the fixed pipeline catalog.
func (h *LeadHandler) HandleStages(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, entity.Stages())
}

// HandleSummary serves the dashboard headline numbers.
func (h *LeadHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.tracker.Summary())
}

func (h *LeadHandler) allow(w http.ResponseWriter, r *http.Request) bool {
	if h.rateLimiter.Allow(getClientIP(r)) {
		return true
	}
	writeError(w, http.StatusTooManyRequests, errorResponse{Error: "too many requests, try again later"})
	return false
}

func parseStageFilter(raw string) (int, error) {
	if raw == "ALL" {
		return usecase.FilterAll, nil
	}
	stage, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	return stage, nil
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, body errorResponse) {
	respondJSON(w, status, body)
}

// writeDomainError maps the error taxonomy onto status codes: business-rule
// rejections are 422, remote write failures are 502, the rest is 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch e := err.(type) {
	case *usecase.DomainError:
		writeError(w, http.StatusUnprocessableEntity, errorResponse{Error: e.Message, Code: e.Code})
	case *usecase.TechnicalError:
		writeError(w, http.StatusBadGateway, errorResponse{Error: e.Message, Code: e.Code})
	default:
		writeError(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}
