package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRegistrationTokenService_Create(t *testing.T) {
	db := &mockDB{}
	svc := NewRegistrationTokenService(db)
	ctx := context.Background()

	expiresAt := time.Now().Add(24 * time.Hour)

	var insertedHash string
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) {
			insertArgs := args.Get(2).([]any)
			insertedHash = insertArgs[3].(string)
		}).
		Return(pgconn.CommandTag{}, nil)

	createdRow := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*time.Time)) = time.Now()
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(createdRow)

	token, rawToken, err := svc.Create(ctx, "comm-1", "site-1", 5, expiresAt)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rawToken, "pbreg_"))
	assert.Len(t, rawToken, len("pbreg_")+48)
	assert.Equal(t, rawToken[:14], token.TokenPrefix)
	assert.Equal(t, 5, token.MaxUses)
	assert.Equal(t, "site-1", token.SiteID)

	sum := sha256.Sum256([]byte(rawToken))
	assert.Equal(t, hex.EncodeToString(sum[:]), insertedHash)
	db.AssertExpectations(t)
}

func TestRegistrationTokenService_Consume_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewRegistrationTokenService(db)
	ctx := context.Background()

	rawToken := "pbreg_" + strings.Repeat("cd", 24)
	sum := sha256.Sum256([]byte(rawToken))
	wantHash := hex.EncodeToString(sum[:])

	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "tok-1"
		*(dest[1].(*string)) = "comm-1"
		*(dest[2].(*string)) = "site-1"
		*(dest[3].(*string)) = rawToken[:14]
		*(dest[4].(*int)) = 5
		*(dest[5].(*int)) = 3
		*(dest[6].(*time.Time)) = time.Now().Add(time.Hour)
		*(dest[7].(*time.Time)) = time.Now()
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{wantHash}).Return(row)

	token, err := svc.Consume(ctx, rawToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token.ID)
	assert.Equal(t, 3, token.UseCount)
	db.AssertExpectations(t)
}

// Expired, exhausted, revoked, and unknown tokens all fall out of the UPDATE
// guard as zero rows and must be indistinguishable to the caller.
func TestRegistrationTokenService_Consume_Invalid(t *testing.T) {
	db := &mockDB{}
	svc := NewRegistrationTokenService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	_, err := svc.Consume(ctx, "pbreg_expired-or-unknown")
	require.ErrorIs(t, err, ErrInvalidRegistrationToken)
	db.AssertExpectations(t)
}

func TestRegistrationTokenService_Revoke_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewRegistrationTokenService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), []any{"tok-1"}).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	err := svc.Revoke(ctx, "tok-1")
	require.Error(t, err)
	db.AssertExpectations(t)
}
