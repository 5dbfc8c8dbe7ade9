package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platebridge/portal/internal/core"
	"github.com/platebridge/portal/internal/model"
)

func newAccessEntryHandler() *AccessEntry {
	return NewAccessEntry(nil, nil, nil, zerolog.Nop())
}

// --- ListByCommunity ---

func TestAccessEntryListByCommunity_EmptyID(t *testing.T) {
	h := newAccessEntryHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/communities//access-entries", nil)
	r = withChiURLParam(r, "communityID", "")

	h.ListByCommunity(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "missing required ID")
}

// --- Create ---

func TestAccessEntryCreate_InvalidJSON(t *testing.T) {
	h := newAccessEntryHandler()
	rec := httptest.NewRecorder()
	r := newRequestRaw(http.MethodPost, "/communities/"+validID+"/access-entries", "{bad json")
	r = withChiURLParam(r, "communityID", validID)

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "invalid JSON")
}

func TestAccessEntryCreate_MissingPlate(t *testing.T) {
	h := newAccessEntryHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/communities/"+validID+"/access-entries", map[string]any{
		"type": "resident",
	})
	r = withChiURLParam(r, "communityID", validID)

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestAccessEntryCreate_UnknownType(t *testing.T) {
	h := newAccessEntryHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/communities/"+validID+"/access-entries", map[string]any{
		"plate": "ABC123",
		"type":  "wizard",
	})
	r = withChiURLParam(r, "communityID", validID)

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestAccessEntryCreate_BadScheduleClock(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
	}{
		{"out of range hour", "25:00", "26:00"},
		{"missing minutes", "9", "17"},
		{"with seconds", "09:00:00", "17:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newAccessEntryHandler()
			rec := httptest.NewRecorder()
			r := newRequest(http.MethodPost, "/communities/"+validID+"/access-entries", map[string]any{
				"plate":          "ABC123",
				"type":           "service",
				"schedule_start": tt.start,
				"schedule_end":   tt.end,
			})
			r = withChiURLParam(r, "communityID", validID)

			h.Create(rec, r)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeErrorResponse(rec)
			assert.Contains(t, body["error"], "validation error")
		})
	}
}

func TestAccessEntryCreate_ScheduleStartWithoutEnd(t *testing.T) {
	h := newAccessEntryHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/communities/"+validID+"/access-entries", map[string]any{
		"plate":          "ABC123",
		"type":           "service",
		"schedule_start": "08:00",
	})
	r = withChiURLParam(r, "communityID", validID)

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "must be set together")
}

func TestAccessEntryCreate_DayMaskOutOfRange(t *testing.T) {
	for _, mask := range []int{-1, 128, 500} {
		h := newAccessEntryHandler()
		rec := httptest.NewRecorder()
		r := newRequest(http.MethodPost, "/communities/"+validID+"/access-entries", map[string]any{
			"plate":       "ABC123",
			"type":        "resident",
			"days_active": mask,
		})
		r = withChiURLParam(r, "communityID", validID)

		h.Create(rec, r)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "mask %d should be rejected", mask)
	}
}

// --- Update ---

func TestAccessEntryUpdate_EmptyID(t *testing.T) {
	h := newAccessEntryHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPut, "/access-entries/", map[string]any{})
	r = withChiURLParam(r, "id", "")

	h.Update(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Check ---

func TestAccessEntryCheck_MissingPlate(t *testing.T) {
	h := newAccessEntryHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/communities/"+validID+"/access/check", map[string]any{})
	r = withChiURLParam(r, "communityID", validID)

	h.Check(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestAccessEntryCheck_ConfidenceOutOfRange(t *testing.T) {
	h := newAccessEntryHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/communities/"+validID+"/access/check", map[string]any{
		"plate":      "ABC123",
		"confidence": 101,
	})
	r = withChiURLParam(r, "communityID", validID)

	h.Check(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// checkStubDB serves the lockdown settings row and fails every insert, so
// Check can run end to end without Postgres.
type checkStubDB struct {
	execErr error
}

func (d *checkStubDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, d.execErr
}

func (d *checkStubDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected query")
}

func (d *checkStubDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return lockdownSettingsRow{}
}

type lockdownSettingsRow struct{}

func (lockdownSettingsRow) Scan(dest ...any) error {
	lockdown, autoGrant, notify := true, true, false
	conf := 85
	now := time.Now()
	*(dest[0].(*string)) = "UTC"
	*(dest[1].(**bool)) = &autoGrant
	*(dest[2].(**bool)) = &lockdown
	*(dest[3].(**int)) = &conf
	*(dest[4].(**bool)) = &notify
	*(dest[5].(*[]string)) = nil
	*(dest[6].(**time.Time)) = &now
	return nil
}

// A failed audit write must not turn a successful check into an error.
func TestAccessEntryCheck_LogWriteFailureStillResponds(t *testing.T) {
	db := &checkStubDB{execErr: errors.New("insert failed")}
	entries := core.NewAccessEntryService(db)
	settings := core.NewAccessSettingsService(db)
	h := NewAccessEntry(entries, core.NewEvaluator(entries, settings), core.NewAccessLogService(db), zerolog.Nop())

	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/communities/"+validID+"/access/check", map[string]any{
		"plate": "ABC123",
	})
	r = withChiURLParam(r, "communityID", validID)

	h.Check(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, model.DecisionDenied, body["decision"])
	assert.Equal(t, model.ReasonLockdownActive, body["reason"])
}
