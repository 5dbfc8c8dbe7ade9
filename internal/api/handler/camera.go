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

type Camera struct {
	svc *core.CameraService
}

func NewCamera(svc *core.CameraService) *Camera {
	return &Camera{svc: svc}
}

func (h *Camera) ListByPod(w http.ResponseWriter, r *http.Request) {
	podID, err := request.RequireID(chi.URLParam(r, "podID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	cameras, err := h.svc.ListByPod(r.Context(), podID)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, cameras)
}

func (h *Camera) Create(w http.ResponseWriter, r *http.Request) {
	podID, err := request.RequireID(chi.URLParam(r, "podID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Name      string `json:"name" validate:"required,min=1,max=128"`
		Direction string `json:"direction" validate:"required,oneof=entry exit"`
	}
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now()
	camera := &model.Camera{
		ID:        platform.NewName("cam_"),
		PodID:     podID,
		Name:      req.Name,
		Direction: req.Direction,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.svc.Create(r.Context(), camera); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusCreated, camera)
}

func (h *Camera) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	camera, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, camera)
}

func (h *Camera) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Name      string `json:"name"`
		Direction string `json:"direction" validate:"omitempty,oneof=entry exit"`
	}
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	camera, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	if req.Name != "" {
		camera.Name = req.Name
	}
	if req.Direction != "" {
		camera.Direction = req.Direction
	}

	if err := h.svc.Update(r.Context(), camera); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, camera)
}

func (h *Camera) Delete(w http.ResponseWriter, r *http.Request) {
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
