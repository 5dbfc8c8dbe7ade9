package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/platebridge/portal/internal/api/request"
	"github.com/platebridge/portal/internal/api/response"
	"github.com/platebridge/portal/internal/core"
	"github.com/platebridge/portal/internal/model"
)

type Gatewise struct {
	svc  *core.GatewiseConfigService
	gate core.GateTrigger
}

func NewGatewise(svc *core.GatewiseConfigService, gate core.GateTrigger) *Gatewise {
	return &Gatewise{svc: svc, gate: gate}
}

func (h *Gatewise) Get(w http.ResponseWriter, r *http.Request) {
	communityID, err := request.RequireID(chi.URLParam(r, "communityID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg, err := h.svc.Get(r.Context(), communityID)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if cfg == nil {
		response.WriteError(w, http.StatusNotFound, "gatewise not configured")
		return
	}

	response.WriteJSON(w, http.StatusOK, cfg)
}

func (h *Gatewise) Put(w http.ResponseWriter, r *http.Request) {
	communityID, err := request.RequireID(chi.URLParam(r, "communityID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		APIKey                string `json:"api_key"`
		APIEndpoint           string `json:"api_endpoint" validate:"required,url"`
		GatewiseCommunityID   string `json:"gatewise_community_id" validate:"required"`
		GatewiseAccessPointID string `json:"gatewise_access_point_id" validate:"required"`
		Enabled               bool   `json:"enabled"`
	}
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg := &model.GatewiseConfig{
		CommunityID:           communityID,
		APIKey:                req.APIKey,
		APIEndpoint:           req.APIEndpoint,
		GatewiseCommunityID:   req.GatewiseCommunityID,
		GatewiseAccessPointID: req.GatewiseAccessPointID,
		Enabled:               req.Enabled,
		UpdatedAt:             time.Now(),
	}

	if err := h.svc.Upsert(r.Context(), cfg); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, cfg)
}

func (h *Gatewise) Delete(w http.ResponseWriter, r *http.Request) {
	communityID, err := request.RequireID(chi.URLParam(r, "communityID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), communityID); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Test fires one real relay attempt so installers can verify credentials
// without waiting for a live detection.
func (h *Gatewise) Test(w http.ResponseWriter, r *http.Request) {
	communityID, err := request.RequireID(chi.URLParam(r, "communityID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg, err := h.svc.Get(r.Context(), communityID)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !cfg.Configured() {
		response.WriteError(w, http.StatusConflict, "gatewise not configured or disabled")
		return
	}

	result := h.gate.TriggerGate(r.Context(), cfg)
	response.WriteJSON(w, http.StatusOK, result)
}
