package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/platebridge/portal/internal/model"
)

func TestNormalizePlate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"abc123", "ABC123"},
		{"  abc 123 ", "ABC123"},
		{"AbC\t12 3", "ABC123"},
		{"ABC123", "ABC123"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizePlate(c.in))
		// normalizing twice changes nothing
		assert.Equal(t, NormalizePlate(c.in), NormalizePlate(NormalizePlate(c.in)))
	}
}

// settingsRow builds a mockRow for the settings+timezone join.
func settingsRow(timezone string, lockdown bool, requireConfidence int) *mockRow {
	return &mockRow{scanFunc: func(dest ...any) error {
		enabled := true
		notify := false
		now := time.Now()
		*(dest[0].(*string)) = timezone
		*(dest[1].(**bool)) = &enabled
		*(dest[2].(**bool)) = &lockdown
		*(dest[3].(**int)) = &requireConfidence
		*(dest[4].(**bool)) = &notify
		*(dest[6].(**time.Time)) = &now
		return nil
	}}
}

// defaultSettingsRow builds a mockRow for a community with no settings row yet.
func defaultSettingsRow(timezone string) *mockRow {
	return &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = timezone
		return nil
	}}
}

// entryScan builds a scan func yielding one access entry row.
func entryScan(e model.AccessEntry) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = e.ID
		*(dest[1].(*string)) = e.CommunityID
		*(dest[2].(*string)) = e.Plate
		*(dest[3].(*string)) = e.Type
		*(dest[4].(**string)) = e.VendorName
		*(dest[5].(**string)) = e.ScheduleStart
		*(dest[6].(**string)) = e.ScheduleEnd
		*(dest[7].(*int)) = e.DaysActive
		*(dest[8].(**time.Time)) = e.ExpiresAt
		*(dest[9].(*bool)) = e.IsActive
		*(dest[10].(*string)) = e.Notes
		*(dest[11].(*time.Time)) = e.CreatedAt
		*(dest[12].(*time.Time)) = e.UpdatedAt
		return nil
	}
}

func newTestEvaluator(db *mockDB) *Evaluator {
	return NewEvaluator(NewAccessEntryService(db), NewAccessSettingsService(db))
}

func TestEvaluator_UnknownCommunity(t *testing.T) {
	db := &mockDB{}
	ev := newTestEvaluator(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	_, err := ev.Evaluate(ctx, "comm-missing", "ABC123", 95)
	require.ErrorIs(t, err, ErrCommunityNotFound)
	db.AssertExpectations(t)
}

func TestEvaluator_LockdownDeniesEverything(t *testing.T) {
	db := &mockDB{}
	ev := newTestEvaluator(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(settingsRow("UTC", true, 85))

	// No Query expectation: lockdown must short-circuit before any entry lookup.
	dec, err := ev.Evaluate(ctx, "comm-1", "ABC123", 99)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionDenied, dec.Decision)
	assert.Equal(t, model.ReasonLockdownActive, dec.Reason)
	assert.False(t, dec.Granted())
	db.AssertExpectations(t)
}

func TestEvaluator_ConfidenceBelowThreshold(t *testing.T) {
	db := &mockDB{}
	ev := newTestEvaluator(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(settingsRow("UTC", false, 85))

	// 84 < 85 denies without touching entries.
	dec, err := ev.Evaluate(ctx, "comm-1", "ABC123", 84)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionDenied, dec.Decision)
	assert.Equal(t, model.ReasonConfidenceBelow, dec.Reason)
	db.AssertExpectations(t)
}

func TestEvaluator_ConfidenceAtThresholdPasses(t *testing.T) {
	db := &mockDB{}
	ev := newTestEvaluator(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(settingsRow("UTC", false, 85))
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(newEmptyMockRows(), nil)

	dec, err := ev.Evaluate(ctx, "comm-1", "ABC123", 85)
	require.NoError(t, err)
	assert.Equal(t, model.ReasonPlateNotAuthorized, dec.Reason)
	db.AssertExpectations(t)
}

func TestEvaluator_NoCandidatesDenies(t *testing.T) {
	db := &mockDB{}
	ev := newTestEvaluator(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(defaultSettingsRow("UTC"))
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(newEmptyMockRows(), nil)

	dec, err := ev.Evaluate(ctx, "comm-1", "ZZZ999", 99)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionDenied, dec.Decision)
	assert.Equal(t, model.ReasonPlateNotAuthorized, dec.Reason)
	assert.Nil(t, dec.MatchedEntry)
	db.AssertExpectations(t)
}

func TestEvaluator_CandidateQueryExcludesInactiveAndExpired(t *testing.T) {
	db := &mockDB{}
	ev := newTestEvaluator(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(defaultSettingsRow("UTC"))

	// Disabled and lapsed entries are rejected in the candidate query
	// itself; a toggled-off or expired row must never reach the schedule
	// check. Pin the predicate and the normalized plate argument.
	candidateSQL := mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "is_active = TRUE") &&
			strings.Contains(sql, "expires_at IS NULL OR expires_at > now()")
	})
	db.On("Query", ctx, candidateSQL, []any{"comm-1", "ABC123"}).
		Return(newEmptyMockRows(), nil)

	dec, err := ev.Evaluate(ctx, "comm-1", " abc 123 ", 99)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionDenied, dec.Decision)
	assert.Equal(t, model.ReasonPlateNotAuthorized, dec.Reason)
	db.AssertExpectations(t)
}

func TestEvaluator_AlwaysOnEntryGrants(t *testing.T) {
	db := &mockDB{}
	ev := newTestEvaluator(db)
	ctx := context.Background()

	entry := model.AccessEntry{
		ID:          "ae-1",
		CommunityID: "comm-1",
		Plate:       "ABC123",
		Type:        model.AccessTypeResident,
		DaysActive:  model.AllDays,
		IsActive:    true,
	}

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(defaultSettingsRow("UTC"))
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(newMockRows(entryScan(entry)), nil)

	dec, err := ev.Evaluate(ctx, "comm-1", " abc 123 ", 99)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionGranted, dec.Decision)
	assert.Equal(t, model.ReasonAuthorized, dec.Reason)
	require.NotNil(t, dec.MatchedEntry)
	assert.Equal(t, "ae-1", dec.MatchedEntry.ID)
	assert.True(t, dec.Granted())
	db.AssertExpectations(t)
}

func TestEvaluator_DayMaskExcludesToday(t *testing.T) {
	db := &mockDB{}
	ev := newTestEvaluator(db)
	ctx := context.Background()

	// Monday-only entry evaluated on a Tuesday.
	entry := model.AccessEntry{
		ID:          "ae-1",
		CommunityID: "comm-1",
		Plate:       "ABC123",
		Type:        model.AccessTypeContractor,
		DaysActive:  model.DayBit(time.Monday),
		IsActive:    true,
	}

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(defaultSettingsRow("UTC"))
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(newMockRows(entryScan(entry)), nil)

	tuesday := time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC)
	dec, err := ev.evaluateAt(ctx, "comm-1", "ABC123", 99, tuesday)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionDenied, dec.Decision)
	assert.Equal(t, model.ReasonPlateNotAuthorized, dec.Reason)
	db.AssertExpectations(t)
}

func TestEvaluator_ScheduleWindow(t *testing.T) {
	start := "09:00"
	end := "17:00"
	entry := model.AccessEntry{
		ID:            "ae-1",
		CommunityID:   "comm-1",
		Plate:         "ABC123",
		Type:          model.AccessTypeContractor,
		DaysActive:    model.AllDays,
		ScheduleStart: &start,
		ScheduleEnd:   &end,
		IsActive:      true,
	}

	cases := []struct {
		name string
		at   time.Time
		want string
	}{
		{"inside window", time.Date(2025, 6, 2, 12, 30, 0, 0, time.UTC), model.DecisionGranted},
		{"start boundary", time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC), model.DecisionGranted},
		{"end boundary", time.Date(2025, 6, 2, 17, 0, 0, 0, time.UTC), model.DecisionGranted},
		{"before window", time.Date(2025, 6, 2, 8, 59, 0, 0, time.UTC), model.DecisionDenied},
		{"after window", time.Date(2025, 6, 2, 17, 1, 0, 0, time.UTC), model.DecisionDenied},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			db := &mockDB{}
			ev := newTestEvaluator(db)
			ctx := context.Background()

			db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
				Return(defaultSettingsRow("UTC"))
			db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).
				Return(newMockRows(entryScan(entry)), nil)

			dec, err := ev.evaluateAt(ctx, "comm-1", "ABC123", 99, c.at)
			require.NoError(t, err)
			assert.Equal(t, c.want, dec.Decision)
		})
	}
}

func TestEvaluator_OvernightWindowWraps(t *testing.T) {
	start := "22:00"
	end := "06:00"
	entry := model.AccessEntry{
		ID:            "ae-1",
		CommunityID:   "comm-1",
		Plate:         "ABC123",
		Type:          model.AccessTypeService,
		DaysActive:    model.AllDays,
		ScheduleStart: &start,
		ScheduleEnd:   &end,
		IsActive:      true,
	}

	cases := []struct {
		name string
		at   time.Time
		want string
	}{
		{"late evening", time.Date(2025, 6, 2, 23, 0, 0, 0, time.UTC), model.DecisionGranted},
		{"early morning", time.Date(2025, 6, 2, 5, 0, 0, 0, time.UTC), model.DecisionGranted},
		{"midday", time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC), model.DecisionDenied},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			db := &mockDB{}
			ev := newTestEvaluator(db)
			ctx := context.Background()

			db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
				Return(defaultSettingsRow("UTC"))
			db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).
				Return(newMockRows(entryScan(entry)), nil)

			dec, err := ev.evaluateAt(ctx, "comm-1", "ABC123", 99, c.at)
			require.NoError(t, err)
			assert.Equal(t, c.want, dec.Decision)
		})
	}
}

func TestEvaluator_CommunityTimezoneApplies(t *testing.T) {
	db := &mockDB{}
	ev := newTestEvaluator(db)
	ctx := context.Background()

	// 09:00-17:00 local. 18:00 UTC on 2025-06-02 is 14:00 in New York.
	start := "09:00"
	end := "17:00"
	entry := model.AccessEntry{
		ID:            "ae-1",
		CommunityID:   "comm-1",
		Plate:         "ABC123",
		Type:          model.AccessTypeContractor,
		DaysActive:    model.AllDays,
		ScheduleStart: &start,
		ScheduleEnd:   &end,
		IsActive:      true,
	}

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(defaultSettingsRow("America/New_York"))
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(newMockRows(entryScan(entry)), nil)

	at := time.Date(2025, 6, 2, 18, 0, 0, 0, time.UTC)
	dec, err := ev.evaluateAt(ctx, "comm-1", "ABC123", 99, at)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionGranted, dec.Decision)
	db.AssertExpectations(t)
}

func TestEvaluator_FirstMatchWinsInIDOrder(t *testing.T) {
	db := &mockDB{}
	ev := newTestEvaluator(db)
	ctx := context.Background()

	first := model.AccessEntry{
		ID: "ae-1", CommunityID: "comm-1", Plate: "ABC123",
		Type: model.AccessTypeResident, DaysActive: model.AllDays, IsActive: true,
	}
	second := model.AccessEntry{
		ID: "ae-2", CommunityID: "comm-1", Plate: "ABC123",
		Type: model.AccessTypeContractor, DaysActive: model.AllDays, IsActive: true,
	}

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(defaultSettingsRow("UTC"))
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(newMockRows(entryScan(first), entryScan(second)), nil)

	dec, err := ev.Evaluate(ctx, "comm-1", "ABC123", 99)
	require.NoError(t, err)
	require.NotNil(t, dec.MatchedEntry)
	assert.Equal(t, "ae-1", dec.MatchedEntry.ID)
	db.AssertExpectations(t)
}

func TestEvaluator_QueryError(t *testing.T) {
	db := &mockDB{}
	ev := newTestEvaluator(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(defaultSettingsRow("UTC"))
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(nil, errors.New("connection lost"))

	_, err := ev.Evaluate(ctx, "comm-1", "ABC123", 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list candidate entries")
	db.AssertExpectations(t)
}

func TestEntryMatchesAt_BadScheduleNeverMatches(t *testing.T) {
	start := "25:99"
	end := "17:00"
	entry := model.AccessEntry{
		DaysActive:    model.AllDays,
		ScheduleStart: &start,
		ScheduleEnd:   &end,
	}
	assert.False(t, entryMatchesAt(&entry, time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)))
}
