package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/platebridge/portal/internal/events"
	"github.com/platebridge/portal/internal/gatewise"
	"github.com/platebridge/portal/internal/model"
)

// mockGate implements GateTrigger for testing.
type mockGate struct {
	mock.Mock
}

func (m *mockGate) TriggerGate(ctx context.Context, cfg *model.GatewiseConfig) gatewise.Result {
	args := m.Called(ctx, cfg)
	return args.Get(0).(gatewise.Result)
}

func newTestDetectionService(db *mockDB, gate GateTrigger) *DetectionService {
	evaluator := NewEvaluator(NewAccessEntryService(db), NewAccessSettingsService(db))
	logs := NewAccessLogService(db)
	return NewDetectionService(db, evaluator, logs, gate, events.NewHub(), zerolog.Nop())
}

// siteRow builds a mockRow resolving a site to a community.
func siteRow(communityID string) *mockRow {
	return &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = communityID
		return nil
	}}
}

func noRow() *mockRow {
	return &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
}

// gatewiseRow builds a mockRow yielding an enabled relay config.
func gatewiseRow(communityID string) *mockRow {
	return &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = communityID
		*(dest[1].(*string)) = "gw-key"
		*(dest[2].(*string)) = "https://gw.example.com/v1"
		*(dest[3].(*string)) = "gw-comm-9"
		*(dest[4].(*string)) = "gw-ap-3"
		*(dest[5].(*bool)) = true
		*(dest[6].(*time.Time)) = time.Now()
		return nil
	}}
}

func TestDetectionService_UnknownSite(t *testing.T) {
	db := &mockDB{}
	gate := &mockGate{}
	svc := newTestDetectionService(db, gate)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(noRow()).Once()

	_, err := svc.Handle(ctx, DetectionInput{SiteID: "site-missing", Plate: "ABC123", Confidence: 95})
	require.ErrorIs(t, err, ErrSiteNotFound)
	db.AssertExpectations(t)
	gate.AssertNotCalled(t, "TriggerGate", mock.Anything, mock.Anything)
}

func TestDetectionService_SiteOutsideKeyScope(t *testing.T) {
	db := &mockDB{}
	gate := &mockGate{}
	svc := newTestDetectionService(db, gate)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(siteRow("comm-2")).Once()

	// A key bound to community A reporting a site in community B must be
	// rejected before any evaluation or log write.
	_, err := svc.Handle(ctx, DetectionInput{
		SiteID: "site-1", Plate: "ABC123", Confidence: 95,
		KeyCommunityID: "comm-1",
	})
	require.ErrorIs(t, err, ErrSiteOutsideKeyScope)
	db.AssertExpectations(t)
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
	gate.AssertNotCalled(t, "TriggerGate", mock.Anything, mock.Anything)
}

func TestDetectionService_DeniedPlate(t *testing.T) {
	db := &mockDB{}
	gate := &mockGate{}
	svc := newTestDetectionService(db, gate)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(siteRow("comm-1")).Once()
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(defaultSettingsRow("UTC")).Once()
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(newEmptyMockRows(), nil).Once()
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil).Once()

	res, err := svc.Handle(ctx, DetectionInput{SiteID: "site-1", Plate: "abc 123", Confidence: 95})
	require.NoError(t, err)
	assert.Equal(t, ActionDeny, res.Action)
	assert.Equal(t, model.ReasonPlateNotAuthorized, res.Reason)
	assert.False(t, res.GateOpened)
	db.AssertExpectations(t)
	gate.AssertNotCalled(t, "TriggerGate", mock.Anything, mock.Anything)
}

func TestDetectionService_GrantedNoRelayConfigured(t *testing.T) {
	db := &mockDB{}
	gate := &mockGate{}
	svc := newTestDetectionService(db, gate)
	ctx := context.Background()

	entry := model.AccessEntry{
		ID: "ae-1", CommunityID: "comm-1", Plate: "ABC123",
		Type: model.AccessTypeResident, DaysActive: model.AllDays, IsActive: true,
	}

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(siteRow("comm-1")).Once()
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(defaultSettingsRow("UTC")).Once()
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(newMockRows(entryScan(entry)), nil).Once()
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil).Once()
	// No relay config row for this community.
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(noRow()).Once()

	res, err := svc.Handle(ctx, DetectionInput{SiteID: "site-1", Plate: "ABC123", Confidence: 95})
	require.NoError(t, err)
	assert.Equal(t, ActionAllow, res.Action)
	assert.Equal(t, model.ReasonAuthorized, res.Reason)
	assert.False(t, res.GateOpened)
	db.AssertExpectations(t)
	gate.AssertNotCalled(t, "TriggerGate", mock.Anything, mock.Anything)
}

func TestDetectionService_GrantedGateOpens(t *testing.T) {
	db := &mockDB{}
	gate := &mockGate{}
	svc := newTestDetectionService(db, gate)
	ctx := context.Background()

	entry := model.AccessEntry{
		ID: "ae-1", CommunityID: "comm-1", Plate: "ABC123",
		Type: model.AccessTypeResident, DaysActive: model.AllDays, IsActive: true,
	}

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(siteRow("comm-1")).Once()
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(defaultSettingsRow("UTC")).Once()
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(newMockRows(entryScan(entry)), nil).Once()
	// Decision record, then relay-outcome record.
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil).Twice()
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(gatewiseRow("comm-1")).Once()

	gate.On("TriggerGate", ctx, mock.AnythingOfType("*model.GatewiseConfig")).
		Return(gatewise.Result{Success: true, StatusCode: 200})

	res, err := svc.Handle(ctx, DetectionInput{SiteID: "site-1", Plate: "ABC123", Confidence: 95})
	require.NoError(t, err)
	assert.Equal(t, ActionAllow, res.Action)
	assert.True(t, res.GateOpened)
	db.AssertExpectations(t)
	gate.AssertExpectations(t)
}

func TestDetectionService_RelayFailureStillAllows(t *testing.T) {
	db := &mockDB{}
	gate := &mockGate{}
	svc := newTestDetectionService(db, gate)
	ctx := context.Background()

	entry := model.AccessEntry{
		ID: "ae-1", CommunityID: "comm-1", Plate: "ABC123",
		Type: model.AccessTypeResident, DaysActive: model.AllDays, IsActive: true,
	}

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(siteRow("comm-1")).Once()
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(defaultSettingsRow("UTC")).Once()
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(newMockRows(entryScan(entry)), nil).Once()
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil).Twice()
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(gatewiseRow("comm-1")).Once()

	gate.On("TriggerGate", ctx, mock.AnythingOfType("*model.GatewiseConfig")).
		Return(gatewise.Result{Success: false, StatusCode: 502, Error: gatewise.ErrUpstream})

	res, err := svc.Handle(ctx, DetectionInput{SiteID: "site-1", Plate: "ABC123", Confidence: 95})
	require.NoError(t, err)
	assert.Equal(t, ActionAllow, res.Action)
	assert.Equal(t, model.ReasonAuthorized, res.Reason)
	assert.False(t, res.GateOpened)
	db.AssertExpectations(t)
	gate.AssertExpectations(t)
}

func TestDetectionService_LogFailureDoesNotChangeAction(t *testing.T) {
	db := &mockDB{}
	gate := &mockGate{}
	svc := newTestDetectionService(db, gate)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(siteRow("comm-1")).Once()
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(defaultSettingsRow("UTC")).Once()
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(newEmptyMockRows(), nil).Once()
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("disk full")).Once()

	res, err := svc.Handle(ctx, DetectionInput{SiteID: "site-1", Plate: "ABC123", Confidence: 95})
	require.NoError(t, err)
	assert.Equal(t, ActionDeny, res.Action)
	db.AssertExpectations(t)
}

func TestDetectionService_EvaluatorErrorPropagates(t *testing.T) {
	db := &mockDB{}
	gate := &mockGate{}
	svc := newTestDetectionService(db, gate)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(siteRow("comm-1")).Once()
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(noRow()).Once()

	_, err := svc.Handle(ctx, DetectionInput{SiteID: "site-1", Plate: "ABC123", Confidence: 95})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommunityNotFound)
	db.AssertExpectations(t)
	gate.AssertNotCalled(t, "TriggerGate", mock.Anything, mock.Anything)
}
