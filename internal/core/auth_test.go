package core

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/platebridge/portal/internal/model"
)

func TestHashAndVerifyArgon2(t *testing.T) {
	hash, err := HashArgon2("hunter2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	assert.True(t, VerifyArgon2("hunter2", hash))
	assert.False(t, VerifyArgon2("hunter3", hash))
	assert.False(t, VerifyArgon2("hunter2", "not-a-hash"))

	// Two hashes of the same password differ because of the random salt.
	hash2, err := HashArgon2("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, hash, hash2)
	assert.True(t, VerifyArgon2("hunter2", hash2))
}

func TestAuthService_IssueAndValidateToken(t *testing.T) {
	svc := NewAuthService(&mockDB{}, "test-secret", "portal-api")

	companyID := "co-1"
	user := &model.User{
		ID:        "u-1",
		Email:     "admin@example.com",
		Role:      model.RoleAdmin,
		CompanyID: &companyID,
	}

	token, err := svc.IssueToken(user)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Sub)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	require.NotNil(t, claims.CompanyID)
	assert.Equal(t, "co-1", *claims.CompanyID)
	assert.Equal(t, "portal-api", claims.Iss)
	assert.Greater(t, claims.Exp, time.Now().Unix())
}

func TestAuthService_ValidateToken_WrongSecret(t *testing.T) {
	issuer := NewAuthService(&mockDB{}, "secret-a", "portal-api")
	verifier := NewAuthService(&mockDB{}, "secret-b", "portal-api")

	token, err := issuer.IssueToken(&model.User{ID: "u-1", Email: "a@b.c", Role: model.RoleViewer})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid signature")
}

func TestAuthService_ValidateToken_Tampered(t *testing.T) {
	svc := NewAuthService(&mockDB{}, "test-secret", "portal-api")

	token, err := svc.IssueToken(&model.User{ID: "u-1", Email: "a@b.c", Role: model.RoleViewer})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	// Flip a character in the payload.
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	_, err = svc.ValidateToken(tampered)
	require.Error(t, err)
}

func TestAuthService_ValidateToken_Malformed(t *testing.T) {
	svc := NewAuthService(&mockDB{}, "test-secret", "portal-api")

	for _, tok := range []string{"", "abc", "a.b", "a.b.c.d"} {
		_, err := svc.ValidateToken(tok)
		require.Error(t, err, "token %q", tok)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewAuthService(db, "test-secret", "portal-api")
	ctx := context.Background()

	hash, err := HashArgon2("correct horse")
	require.NoError(t, err)

	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "u-1"
		*(dest[1].(*string)) = "admin@example.com"
		*(dest[2].(*string)) = hash
		*(dest[3].(*string)) = "Admin"
		*(dest[4].(*string)) = model.RoleAdmin
		*(dest[6].(*time.Time)) = time.Now()
		*(dest[7].(*time.Time)) = time.Now()
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{"admin@example.com"}).Return(row)

	token, user, err := svc.Login(ctx, "admin@example.com", "correct horse")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u-1", user.ID)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Sub)
	db.AssertExpectations(t)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	db := &mockDB{}
	svc := NewAuthService(db, "test-secret", "portal-api")
	ctx := context.Background()

	hash, err := HashArgon2("correct horse")
	require.NoError(t, err)

	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "u-1"
		*(dest[1].(*string)) = "admin@example.com"
		*(dest[2].(*string)) = hash
		*(dest[3].(*string)) = "Admin"
		*(dest[4].(*string)) = model.RoleAdmin
		*(dest[6].(*time.Time)) = time.Now()
		*(dest[7].(*time.Time)) = time.Now()
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	_, _, err = svc.Login(ctx, "admin@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "invalid credentials", err.Error())
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	db := &mockDB{}
	svc := NewAuthService(db, "test-secret", "portal-api")
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	_, _, err := svc.Login(ctx, "nobody@example.com", "whatever")
	require.Error(t, err)
	assert.Equal(t, "invalid credentials", err.Error())
}
