package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/platebridge/portal/internal/api/middleware"
	"github.com/platebridge/portal/internal/api/request"
	"github.com/platebridge/portal/internal/api/response"
	"github.com/platebridge/portal/internal/core"
)

type Detection struct {
	svc    *core.DetectionService
	pods   *core.PodService
	logger zerolog.Logger
}

func NewDetection(svc *core.DetectionService, pods *core.PodService, logger zerolog.Logger) *Detection {
	return &Detection{svc: svc, pods: pods, logger: logger.With().Str("component", "detection-handler").Logger()}
}

// Report ingests one plate read from an edge pod. The response always
// carries an explicit action; a pod never infers gate behavior from the
// HTTP status alone.
func (h *Detection) Report(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SiteID      string  `json:"site_id" validate:"required"`
		Plate       string  `json:"plate" validate:"required,min=2,max=16"`
		Camera      string  `json:"camera"`
		Confidence  int     `json:"confidence" validate:"min=0,max=100"`
		SnapshotKey *string `json:"snapshot_key"`
	}
	if err := request.Decode(r, &req); err != nil {
		response.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"action": core.ActionDeny,
			"reason": "invalid_request",
			"error":  err.Error(),
		})
		return
	}

	key := middleware.GetPodKey(r.Context())
	if key == nil {
		response.WriteJSON(w, http.StatusUnauthorized, map[string]any{
			"action": core.ActionDeny,
			"reason": "unauthorized",
		})
		return
	}

	in := core.DetectionInput{
		SiteID:         req.SiteID,
		Plate:          req.Plate,
		Camera:         req.Camera,
		PodID:          key.PodID,
		PodName:        key.Name,
		KeyCommunityID: key.CommunityID,
		Confidence:     req.Confidence,
		SnapshotKey:    req.SnapshotKey,
	}

	// A detection doubles as a liveness signal for the reporting pod.
	if key.PodID != nil {
		if err := h.pods.TouchLastSeen(r.Context(), *key.PodID); err != nil {
			h.logger.Warn().Err(err).Str("pod_id", *key.PodID).Msg("failed to touch pod last_seen")
		}
	}

	result, err := h.svc.Handle(r.Context(), in)
	if err != nil {
		if errors.Is(err, core.ErrSiteNotFound) {
			response.WriteJSON(w, http.StatusNotFound, map[string]any{
				"action": core.ActionDeny,
				"reason": "unknown_site",
			})
			return
		}
		if errors.Is(err, core.ErrSiteOutsideKeyScope) {
			response.WriteJSON(w, http.StatusForbidden, map[string]any{
				"action": core.ActionDeny,
				"reason": "unauthorized",
			})
			return
		}
		h.logger.Error().Err(err).Str("site_id", req.SiteID).Msg("detection failed")
		response.WriteJSON(w, http.StatusInternalServerError, map[string]any{
			"action": core.ActionDeny,
			"reason": "authorization_unavailable",
		})
		return
	}

	response.WriteJSON(w, http.StatusOK, result)
}
