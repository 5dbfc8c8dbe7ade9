package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/platebridge/portal/internal/api/request"
	"github.com/platebridge/portal/internal/api/response"
	"github.com/platebridge/portal/internal/core"
	"github.com/platebridge/portal/internal/model"
	"github.com/platebridge/portal/internal/platform"
)

type Pod struct {
	svc *core.PodService
}

func NewPod(svc *core.PodService) *Pod {
	return &Pod{svc: svc}
}

func (h *Pod) ListBySite(w http.ResponseWriter, r *http.Request) {
	siteID, err := request.RequireID(chi.URLParam(r, "siteID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := request.ParsePagination(r)
	pods, hasMore, err := h.svc.ListBySite(r.Context(), siteID, p.Limit, p.Cursor)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var nextCursor string
	if hasMore && len(pods) > 0 {
		nextCursor = pods[len(pods)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, pods, nextCursor, hasMore)
}

func (h *Pod) Create(w http.ResponseWriter, r *http.Request) {
	siteID, err := request.RequireID(chi.URLParam(r, "siteID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Name string `json:"name" validate:"required,min=1,max=128"`
	}
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now()
	pod := &model.Pod{
		ID:        platform.NewName("pod_"),
		SiteID:    siteID,
		Name:      req.Name,
		Status:    model.PodStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.svc.Create(r.Context(), pod); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusCreated, pod)
}

func (h *Pod) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	pod, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, pod)
}

func (h *Pod) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Name   string `json:"name"`
		Status string `json:"status" validate:"omitempty,oneof=pending active offline retired"`
	}
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	pod, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	if req.Name != "" {
		pod.Name = req.Name
	}
	if req.Status != "" {
		pod.Status = req.Status
	}

	if err := h.svc.Update(r.Context(), pod); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, pod)
}

func (h *Pod) Delete(w http.ResponseWriter, r *http.Request) {
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
