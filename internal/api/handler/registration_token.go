package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/platebridge/portal/internal/api/request"
	"github.com/platebridge/portal/internal/api/response"
	"github.com/platebridge/portal/internal/core"
)

type RegistrationToken struct {
	svc *core.RegistrationTokenService
}

func NewRegistrationToken(svc *core.RegistrationTokenService) *RegistrationToken {
	return &RegistrationToken{svc: svc}
}

func (h *RegistrationToken) ListByCommunity(w http.ResponseWriter, r *http.Request) {
	communityID, err := request.RequireID(chi.URLParam(r, "communityID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := request.ParsePagination(r)
	tokens, hasMore, err := h.svc.ListByCommunity(r.Context(), communityID, p.Limit, p.Cursor)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var nextCursor string
	if hasMore && len(tokens) > 0 {
		nextCursor = tokens[len(tokens)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, tokens, nextCursor, hasMore)
}

func (h *RegistrationToken) Create(w http.ResponseWriter, r *http.Request) {
	communityID, err := request.RequireID(chi.URLParam(r, "communityID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		SiteID    string     `json:"site_id" validate:"required"`
		MaxUses   int        `json:"max_uses" validate:"omitempty,min=1,max=1000"`
		ExpiresAt *time.Time `json:"expires_at"`
	}
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.MaxUses == 0 {
		req.MaxUses = 1
	}
	expiresAt := time.Now().Add(24 * time.Hour)
	if req.ExpiresAt != nil {
		if req.ExpiresAt.Before(time.Now()) {
			response.WriteError(w, http.StatusBadRequest, "expires_at must be in the future")
			return
		}
		expiresAt = *req.ExpiresAt
	}

	token, rawToken, err := h.svc.Create(r.Context(), communityID, req.SiteID, req.MaxUses, expiresAt)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// The raw token appears in this response and nowhere else.
	response.WriteJSON(w, http.StatusCreated, map[string]any{
		"token":     token,
		"raw_token": rawToken,
	})
}

func (h *RegistrationToken) Revoke(w http.ResponseWriter, r *http.Request) {
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
