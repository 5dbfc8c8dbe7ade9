package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/platebridge/portal/internal/api/request"
	"github.com/platebridge/portal/internal/api/response"
	"github.com/platebridge/portal/internal/core"
)

type AccessSettings struct {
	svc *core.AccessSettingsService
}

func NewAccessSettings(svc *core.AccessSettingsService) *AccessSettings {
	return &AccessSettings{svc: svc}
}

func (h *AccessSettings) Get(w http.ResponseWriter, r *http.Request) {
	communityID, err := request.RequireID(chi.URLParam(r, "communityID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	settings, err := h.svc.Get(r.Context(), communityID)
	if err != nil {
		if errors.Is(err, core.ErrCommunityNotFound) {
			response.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, settings)
}

func (h *AccessSettings) Put(w http.ResponseWriter, r *http.Request) {
	communityID, err := request.RequireID(chi.URLParam(r, "communityID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		AutoGrantEnabled    *bool    `json:"auto_grant_enabled"`
		LockdownMode        *bool    `json:"lockdown_mode"`
		RequireConfidence   *int     `json:"require_confidence" validate:"omitempty,min=0,max=100"`
		NotificationOnGrant *bool    `json:"notification_on_grant"`
		NotificationEmails  []string `json:"notification_emails" validate:"omitempty,dive,email"`
	}
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Partial update over current values (or the defaults on first write).
	settings, err := h.svc.Get(r.Context(), communityID)
	if err != nil {
		if errors.Is(err, core.ErrCommunityNotFound) {
			response.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if req.AutoGrantEnabled != nil {
		settings.AutoGrantEnabled = *req.AutoGrantEnabled
	}
	if req.LockdownMode != nil {
		settings.LockdownMode = *req.LockdownMode
	}
	if req.RequireConfidence != nil {
		settings.RequireConfidence = *req.RequireConfidence
	}
	if req.NotificationOnGrant != nil {
		settings.NotificationOnGrant = *req.NotificationOnGrant
	}
	if req.NotificationEmails != nil {
		settings.NotificationEmails = req.NotificationEmails
	}

	if err := h.svc.Upsert(r.Context(), settings); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, settings)
}
