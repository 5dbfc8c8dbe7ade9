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

type Company struct {
	svc *core.CompanyService
}

func NewCompany(svc *core.CompanyService) *Company {
	return &Company{svc: svc}
}

func (h *Company) List(w http.ResponseWriter, r *http.Request) {
	p := request.ParsePagination(r)

	companies, hasMore, err := h.svc.List(r.Context(), p.Limit, p.Cursor)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Company-bound users only ever see their own company.
	if scoped := middleware.ScopedCompanyID(r.Context()); scoped != nil {
		var filtered []model.Company
		for _, c := range companies {
			if c.ID == *scoped {
				filtered = append(filtered, c)
			}
		}
		companies = filtered
		hasMore = false
	}

	var nextCursor string
	if hasMore && len(companies) > 0 {
		nextCursor = companies[len(companies)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, companies, nextCursor, hasMore)
}

func (h *Company) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string `json:"name" validate:"required,min=1,max=128"`
		ContactEmail string `json:"contact_email" validate:"omitempty,email"`
	}
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now()
	company := &model.Company{
		ID:           platform.NewName("co_"),
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.svc.Create(r.Context(), company); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusCreated, company)
}

func (h *Company) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !middleware.HasCompanyAccess(middleware.GetClaims(r.Context()), id) {
		response.WriteError(w, http.StatusForbidden, "company access denied")
		return
	}

	company, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, company)
}

func (h *Company) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Name         string `json:"name"`
		ContactEmail string `json:"contact_email" validate:"omitempty,email"`
	}
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	company, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	if req.Name != "" {
		company.Name = req.Name
	}
	if req.ContactEmail != "" {
		company.ContactEmail = req.ContactEmail
	}

	if err := h.svc.Update(r.Context(), company); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, company)
}

func (h *Company) Delete(w http.ResponseWriter, r *http.Request) {
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
