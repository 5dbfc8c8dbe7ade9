package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/platebridge/portal/internal/api/middleware"
	"github.com/platebridge/portal/internal/api/response"
	"github.com/platebridge/portal/internal/core"
)

// Sync serves the access-list download pods use to keep a local copy of
// their community's entries, so a gate still works through portal outages.
type Sync struct {
	entries  *core.AccessEntryService
	settings *core.AccessSettingsService
}

func NewSync(entries *core.AccessEntryService, settings *core.AccessSettingsService) *Sync {
	return &Sync{entries: entries, settings: settings}
}

func (h *Sync) AccessList(w http.ResponseWriter, r *http.Request) {
	communityID := chi.URLParam(r, "communityID")

	key := middleware.GetPodKey(r.Context())
	if key == nil || key.CommunityID != communityID {
		response.WriteError(w, http.StatusForbidden, "key not scoped to this community")
		return
	}

	settings, err := h.settings.Get(r.Context(), communityID)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, "failed to load access settings")
		return
	}

	entries, err := h.entries.ListActiveByCommunity(r.Context(), communityID)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, "failed to list access entries")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"community_id": communityID,
		"settings":     settings,
		"access_list":  entries,
		"count":        len(entries),
		"last_updated": time.Now().UTC(),
	})
}
