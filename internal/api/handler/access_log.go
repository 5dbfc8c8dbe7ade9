package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/platebridge/portal/internal/api/request"
	"github.com/platebridge/portal/internal/api/response"
	"github.com/platebridge/portal/internal/core"
)

// SnapshotPresigner issues download URLs for snapshot keys. Satisfied by
// *storage.SnapshotStore; nil when no bucket is configured.
type SnapshotPresigner interface {
	PresignGet(ctx context.Context, key string) (string, time.Time, error)
}

type AccessLog struct {
	svc       *core.AccessLogService
	snapshots SnapshotPresigner
}

func NewAccessLog(svc *core.AccessLogService, snapshots SnapshotPresigner) *AccessLog {
	return &AccessLog{svc: svc, snapshots: snapshots}
}

func (h *AccessLog) ListByCommunity(w http.ResponseWriter, r *http.Request) {
	communityID, err := request.RequireID(chi.URLParam(r, "communityID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := core.LogFilter{
		CommunityID: communityID,
		Plate:       core.NormalizePlate(r.URL.Query().Get("plate")),
		Decision:    r.URL.Query().Get("decision"),
	}

	p := request.ParsePagination(r)
	logs, hasMore, err := h.svc.List(r.Context(), filter, p.Limit, p.Cursor)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var nextCursor string
	if hasMore && len(logs) > 0 {
		nextCursor = logs[len(logs)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, logs, nextCursor, hasMore)
}

func (h *AccessLog) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, entry)
}

// SnapshotURL resolves a log row's snapshot key to a presigned download URL.
func (h *AccessLog) SnapshotURL(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	if entry.SnapshotKey == nil {
		response.WriteError(w, http.StatusNotFound, "log entry has no snapshot")
		return
	}
	if h.snapshots == nil {
		response.WriteError(w, http.StatusServiceUnavailable, "snapshot storage not configured")
		return
	}

	url, expiresAt, err := h.snapshots.PresignGet(r.Context(), *entry.SnapshotKey)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"url":        url,
		"expires_at": expiresAt,
	})
}
