package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/platebridge/portal/internal/api/request"
	"github.com/platebridge/portal/internal/api/response"
	"github.com/platebridge/portal/internal/core"
	"github.com/platebridge/portal/internal/model"
	"github.com/platebridge/portal/internal/platform"
)

// Register handles the one unauthenticated edge endpoint: exchanging a
// registration token for a pod record and its permanent API key.
type Register struct {
	tokens *core.RegistrationTokenService
	pods   *core.PodService
	keys   *core.PodAPIKeyService
	logger zerolog.Logger
}

func NewRegister(tokens *core.RegistrationTokenService, pods *core.PodService, keys *core.PodAPIKeyService, logger zerolog.Logger) *Register {
	return &Register{
		tokens: tokens,
		pods:   pods,
		keys:   keys,
		logger: logger.With().Str("component", "register-handler").Logger(),
	}
}

func (h *Register) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token   string `json:"token" validate:"required"`
		PodName string `json:"pod_name" validate:"required,min=1,max=128"`
	}
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.tokens.Consume(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, core.ErrInvalidRegistrationToken) {
			response.WriteError(w, http.StatusUnauthorized, "invalid registration token")
			return
		}
		h.logger.Error().Err(err).Msg("failed to consume registration token")
		response.WriteError(w, http.StatusInternalServerError, "registration unavailable")
		return
	}

	now := time.Now().UTC()
	pod := &model.Pod{
		ID:        platform.NewName("pod_"),
		SiteID:    token.SiteID,
		Name:      req.PodName,
		Status:    model.PodStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.pods.Create(r.Context(), pod); err != nil {
		h.logger.Error().Err(err).Str("site_id", token.SiteID).Msg("failed to create pod")
		response.WriteError(w, http.StatusInternalServerError, "failed to create pod")
		return
	}

	key, rawKey, err := h.keys.Create(r.Context(), req.PodName, token.CommunityID, &token.SiteID, &pod.ID)
	if err != nil {
		h.logger.Error().Err(err).Str("pod_id", pod.ID).Msg("failed to create pod api key")
		response.WriteError(w, http.StatusInternalServerError, "failed to issue api key")
		return
	}

	h.logger.Info().
		Str("pod_id", pod.ID).
		Str("community_id", token.CommunityID).
		Str("token_id", token.ID).
		Msg("pod registered")

	response.WriteJSON(w, http.StatusCreated, map[string]any{
		"pod":     pod,
		"key":     key,
		"raw_key": rawKey,
	})
}
