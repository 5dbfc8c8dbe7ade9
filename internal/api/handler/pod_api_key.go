package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/platebridge/portal/internal/api/request"
	"github.com/platebridge/portal/internal/api/response"
	"github.com/platebridge/portal/internal/core"
)

type PodAPIKey struct {
	svc *core.PodAPIKeyService
}

func NewPodAPIKey(svc *core.PodAPIKeyService) *PodAPIKey {
	return &PodAPIKey{svc: svc}
}

func (h *PodAPIKey) ListByCommunity(w http.ResponseWriter, r *http.Request) {
	communityID, err := request.RequireID(chi.URLParam(r, "communityID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := request.ParsePagination(r)
	keys, hasMore, err := h.svc.ListByCommunity(r.Context(), communityID, p.Limit, p.Cursor)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var nextCursor string
	if hasMore && len(keys) > 0 {
		nextCursor = keys[len(keys)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, keys, nextCursor, hasMore)
}

func (h *PodAPIKey) Create(w http.ResponseWriter, r *http.Request) {
	communityID, err := request.RequireID(chi.URLParam(r, "communityID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Name   string  `json:"name" validate:"required,min=1,max=128"`
		SiteID *string `json:"site_id"`
		PodID  *string `json:"pod_id"`
	}
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	key, rawKey, err := h.svc.Create(r.Context(), req.Name, communityID, req.SiteID, req.PodID)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// The raw key appears in this response and nowhere else.
	response.WriteJSON(w, http.StatusCreated, map[string]any{
		"key":     key,
		"raw_key": rawKey,
	})
}

func (h *PodAPIKey) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	key, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, key)
}

func (h *PodAPIKey) Revoke(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Revoke(r.Context(), id); err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}
