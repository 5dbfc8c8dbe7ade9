package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/platebridge/portal/internal/api/middleware"
	"github.com/platebridge/portal/internal/api/request"
	"github.com/platebridge/portal/internal/api/response"
	"github.com/platebridge/portal/internal/core"
	"github.com/platebridge/portal/internal/model"
	"github.com/platebridge/portal/internal/platform"
)

type Community struct {
	svc *core.CommunityService
}

func NewCommunity(svc *core.CommunityService) *Community {
	return &Community{svc: svc}
}

func (h *Community) ListByCompany(w http.ResponseWriter, r *http.Request) {
	companyID, err := request.RequireID(chi.URLParam(r, "companyID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !middleware.HasCompanyAccess(middleware.GetClaims(r.Context()), companyID) {
		response.WriteError(w, http.StatusForbidden, "company access denied")
		return
	}

	p := request.ParsePagination(r)
	communities, hasMore, err := h.svc.ListByCompany(r.Context(), companyID, p.Limit, p.Cursor)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var nextCursor string
	if hasMore && len(communities) > 0 {
		nextCursor = communities[len(communities)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, communities, nextCursor, hasMore)
}

func (h *Community) Create(w http.ResponseWriter, r *http.Request) {
	companyID, err := request.RequireID(chi.URLParam(r, "companyID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !middleware.HasCompanyAccess(middleware.GetClaims(r.Context()), companyID) {
		response.WriteError(w, http.StatusForbidden, "company access denied")
		return
	}

	var req struct {
		Name     string `json:"name" validate:"required,min=1,max=128"`
		Address  string `json:"address"`
		Timezone string `json:"timezone" validate:"omitempty,tz"`
	}
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Timezone == "" {
		req.Timezone = "UTC"
	}

	now := time.Now()
	community := &model.Community{
		ID:        platform.NewName("comm_"),
		CompanyID: companyID,
		Name:      req.Name,
		Address:   req.Address,
		Timezone:  req.Timezone,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.svc.Create(r.Context(), community); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusCreated, community)
}

func (h *Community) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	community, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	if !middleware.HasCompanyAccess(middleware.GetClaims(r.Context()), community.CompanyID) {
		response.WriteError(w, http.StatusForbidden, "company access denied")
		return
	}

	response.WriteJSON(w, http.StatusOK, community)
}

func (h *Community) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Name     string `json:"name"`
		Address  string `json:"address"`
		Timezone string `json:"timezone" validate:"omitempty,tz"`
	}
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	community, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	if !middleware.HasCompanyAccess(middleware.GetClaims(r.Context()), community.CompanyID) {
		response.WriteError(w, http.StatusForbidden, "company access denied")
		return
	}

	if req.Name != "" {
		community.Name = req.Name
	}
	if req.Address != "" {
		community.Address = req.Address
	}
	if req.Timezone != "" {
		community.Timezone = req.Timezone
	}

	if err := h.svc.Update(r.Context(), community); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, community)
}

func (h *Community) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	community, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	if !middleware.HasCompanyAccess(middleware.GetClaims(r.Context()), community.CompanyID) {
		response.WriteError(w, http.StatusForbidden, "company access denied")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
