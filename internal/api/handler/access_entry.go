package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/platebridge/portal/internal/api/request"
	"github.com/platebridge/portal/internal/api/response"
	"github.com/platebridge/portal/internal/core"
	"github.com/platebridge/portal/internal/model"
	"github.com/platebridge/portal/internal/platform"
)

type AccessEntry struct {
	svc       *core.AccessEntryService
	evaluator *core.Evaluator
	logs      *core.AccessLogService
	logger    zerolog.Logger
}

func NewAccessEntry(svc *core.AccessEntryService, evaluator *core.Evaluator, logs *core.AccessLogService, logger zerolog.Logger) *AccessEntry {
	return &AccessEntry{svc: svc, evaluator: evaluator, logs: logs, logger: logger}
}

func (h *AccessEntry) ListByCommunity(w http.ResponseWriter, r *http.Request) {
	communityID, err := request.RequireID(chi.URLParam(r, "communityID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := request.ParsePagination(r)
	entries, hasMore, err := h.svc.ListByCommunity(r.Context(), communityID, p.Limit, p.Cursor)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var nextCursor string
	if hasMore && len(entries) > 0 {
		nextCursor = entries[len(entries)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, entries, nextCursor, hasMore)
}

type accessEntryRequest struct {
	Plate         string     `json:"plate" validate:"required,min=2,max=16"`
	Type          string     `json:"type" validate:"required,oneof=emergency delivery service contractor resident visitor"`
	VendorName    *string    `json:"vendor_name"`
	ScheduleStart *string    `json:"schedule_start" validate:"omitempty,clock"`
	ScheduleEnd   *string    `json:"schedule_end" validate:"omitempty,clock"`
	DaysActive    int        `json:"days_active" validate:"omitempty,daymask"`
	ExpiresAt     *time.Time `json:"expires_at"`
	Notes         string     `json:"notes"`
}

func (h *AccessEntry) Create(w http.ResponseWriter, r *http.Request) {
	communityID, err := request.RequireID(chi.URLParam(r, "communityID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req accessEntryRequest
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Both schedule bounds or neither.
	if (req.ScheduleStart == nil) != (req.ScheduleEnd == nil) {
		response.WriteError(w, http.StatusBadRequest, "schedule_start and schedule_end must be set together")
		return
	}

	if req.DaysActive == 0 {
		req.DaysActive = model.AllDays
	}

	now := time.Now()
	entry := &model.AccessEntry{
		ID:            platform.NewName("ae_"),
		CommunityID:   communityID,
		Plate:         core.NormalizePlate(req.Plate),
		Type:          req.Type,
		VendorName:    req.VendorName,
		ScheduleStart: req.ScheduleStart,
		ScheduleEnd:   req.ScheduleEnd,
		DaysActive:    req.DaysActive,
		ExpiresAt:     req.ExpiresAt,
		IsActive:      true,
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.svc.Create(r.Context(), entry); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusCreated, entry)
}

func (h *AccessEntry) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, entry)
}

func (h *AccessEntry) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Plate         *string    `json:"plate" validate:"omitempty,min=2,max=16"`
		Type          *string    `json:"type" validate:"omitempty,oneof=emergency delivery service contractor resident visitor"`
		VendorName    *string    `json:"vendor_name"`
		ScheduleStart *string    `json:"schedule_start" validate:"omitempty,clock"`
		ScheduleEnd   *string    `json:"schedule_end" validate:"omitempty,clock"`
		DaysActive    *int       `json:"days_active" validate:"omitempty,daymask"`
		ExpiresAt     *time.Time `json:"expires_at"`
		Notes         *string    `json:"notes"`
	}
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	if req.Plate != nil {
		entry.Plate = core.NormalizePlate(*req.Plate)
	}
	if req.Type != nil {
		entry.Type = *req.Type
	}
	if req.VendorName != nil {
		entry.VendorName = req.VendorName
	}
	if req.ScheduleStart != nil {
		entry.ScheduleStart = req.ScheduleStart
	}
	if req.ScheduleEnd != nil {
		entry.ScheduleEnd = req.ScheduleEnd
	}
	if req.DaysActive != nil {
		entry.DaysActive = *req.DaysActive
	}
	if req.ExpiresAt != nil {
		entry.ExpiresAt = req.ExpiresAt
	}
	if req.Notes != nil {
		entry.Notes = *req.Notes
	}

	if (entry.ScheduleStart == nil) != (entry.ScheduleEnd == nil) {
		response.WriteError(w, http.StatusBadRequest, "schedule_start and schedule_end must be set together")
		return
	}

	if err := h.svc.Update(r.Context(), entry); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, entry)
}

func (h *AccessEntry) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *AccessEntry) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *AccessEntry) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.SetActive(r.Context(), id, active); err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	entry, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, entry)
}

func (h *AccessEntry) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Check runs the evaluator for a plate without recording anything. Used by
// admins to answer "would this plate get in right now".
func (h *AccessEntry) Check(w http.ResponseWriter, r *http.Request) {
	communityID, err := request.RequireID(chi.URLParam(r, "communityID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Plate      string  `json:"plate" validate:"required,min=2,max=16"`
		PodID      *string `json:"pod_id"`
		Confidence *int    `json:"confidence" validate:"omitempty,min=0,max=100"`
	}
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Manual checks default to full confidence.
	confidence := 100
	if req.Confidence != nil {
		confidence = *req.Confidence
	}

	decision, err := h.evaluator.Evaluate(r.Context(), communityID, req.Plate, confidence)
	if err != nil {
		if errors.Is(err, core.ErrCommunityNotFound) {
			response.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Manual checks leave the same audit trail as live detections. A failed
	// write never blocks the response.
	logEntry := &model.AccessLog{
		ID:          platform.NewID(),
		CommunityID: communityID,
		PodID:       req.PodID,
		Plate:       core.NormalizePlate(req.Plate),
		Decision:    decision.Decision,
		Reason:      decision.Reason,
		Confidence:  confidence,
	}
	if decision.MatchedEntry != nil {
		logEntry.AccessType = decision.MatchedEntry.Type
		logEntry.VendorName = decision.MatchedEntry.VendorName
	}
	if err := h.logs.Record(r.Context(), logEntry); err != nil {
		h.logger.Warn().Err(err).Str("plate", logEntry.Plate).Msg("failed to record access log")
	}

	response.WriteJSON(w, http.StatusOK, decision)
}
