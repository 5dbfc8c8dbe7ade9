package core

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/platebridge/portal/internal/model"
	"github.com/platebridge/portal/internal/platform"
)

// ErrInvalidRegistrationToken covers unknown, revoked, expired, and
// exhausted tokens alike.
var ErrInvalidRegistrationToken = errors.New("invalid registration token")

// RegistrationTokenService manages the limited-use provisioning tokens pods
// exchange for permanent API keys.
type RegistrationTokenService struct {
	db DB
}

func NewRegistrationTokenService(db DB) *RegistrationTokenService {
	return &RegistrationTokenService{db: db}
}

// Create generates a new token bound to one site. The raw value is returned
// exactly once.
func (s *RegistrationTokenService) Create(ctx context.Context, communityID, siteID string, maxUses int, expiresAt time.Time) (*model.RegistrationToken, string, error) {
	rawBytes := make([]byte, 24)
	if _, err := rand.Read(rawBytes); err != nil {
		return nil, "", fmt.Errorf("generate registration token: %w", err)
	}
	rawToken := "pbreg_" + hex.EncodeToString(rawBytes)

	id := platform.NewID()
	hash := sha256.Sum256([]byte(rawToken))
	tokenHash := hex.EncodeToString(hash[:])
	tokenPrefix := rawToken[:14] // "pbreg_" + first 8 hex chars

	_, err := s.db.Exec(ctx,
		`INSERT INTO registration_tokens (id, community_id, site_id, token_hash, token_prefix, max_uses, use_count, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, 0, $7, now())`,
		id, communityID, siteID, tokenHash, tokenPrefix, maxUses, expiresAt,
	)
	if err != nil {
		return nil, "", fmt.Errorf("insert registration token: %w", err)
	}

	token := &model.RegistrationToken{
		ID:          id,
		CommunityID: communityID,
		SiteID:      siteID,
		TokenPrefix: tokenPrefix,
		MaxUses:     maxUses,
		ExpiresAt:   expiresAt,
	}
	err = s.db.QueryRow(ctx, "SELECT created_at FROM registration_tokens WHERE id = $1", id).Scan(&token.CreatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("get registration token created_at: %w", err)
	}

	return token, rawToken, nil
}

// Consume atomically spends one use of a token. The guard in the UPDATE is
// what enforces the invariant: a token never authorizes more than max_uses
// registrations and never past expires_at, even under concurrent attempts.
func (s *RegistrationTokenService) Consume(ctx context.Context, rawToken string) (*model.RegistrationToken, error) {
	hash := sha256.Sum256([]byte(rawToken))
	tokenHash := hex.EncodeToString(hash[:])

	var t model.RegistrationToken
	err := s.db.QueryRow(ctx,
		`UPDATE registration_tokens
		 SET use_count = use_count + 1
		 WHERE token_hash = $1
		   AND revoked_at IS NULL
		   AND expires_at > now()
		   AND use_count < max_uses
		 RETURNING id, community_id, site_id, token_prefix, max_uses, use_count, expires_at, created_at`,
		tokenHash,
	).Scan(&t.ID, &t.CommunityID, &t.SiteID, &t.TokenPrefix, &t.MaxUses, &t.UseCount, &t.ExpiresAt, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidRegistrationToken
	}
	if err != nil {
		return nil, fmt.Errorf("consume registration token: %w", err)
	}
	return &t, nil
}

func (s *RegistrationTokenService) ListByCommunity(ctx context.Context, communityID string, limit int, cursor string) ([]model.RegistrationToken, bool, error) {
	query := `SELECT id, community_id, site_id, token_prefix, max_uses, use_count, expires_at, created_at, revoked_at
	          FROM registration_tokens WHERE community_id = $1`
	args := []any{communityID}
	argIdx := 2

	if cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY id`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list registration tokens: %w", err)
	}
	defer rows.Close()

	var tokens []model.RegistrationToken
	for rows.Next() {
		var t model.RegistrationToken
		if err := rows.Scan(&t.ID, &t.CommunityID, &t.SiteID, &t.TokenPrefix, &t.MaxUses, &t.UseCount, &t.ExpiresAt, &t.CreatedAt, &t.RevokedAt); err != nil {
			return nil, false, fmt.Errorf("scan registration token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate registration tokens: %w", err)
	}

	hasMore := len(tokens) > limit
	if hasMore {
		tokens = tokens[:limit]
	}
	return tokens, hasMore, nil
}

// Revoke invalidates a token immediately, regardless of remaining uses.
func (s *RegistrationTokenService) Revoke(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE registration_tokens SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL", id,
	)
	if err != nil {
		return fmt.Errorf("revoke registration token %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("registration token %s not found or already revoked", id)
	}
	return nil
}
