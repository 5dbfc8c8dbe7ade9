package core

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/platebridge/portal/internal/model"
	"github.com/platebridge/portal/internal/platform"
)

// ErrInvalidAPIKey covers unknown, revoked, and malformed pod keys alike.
// The distinction is deliberately not exposed to callers.
var ErrInvalidAPIKey = errors.New("invalid API key")

// PodAPIKeyService manages edge-device credentials.
type PodAPIKeyService struct {
	db DB
}

func NewPodAPIKeyService(db DB) *PodAPIKeyService {
	return &PodAPIKeyService{db: db}
}

// Create generates a new pod key, stores the hash, and returns the model
// along with the raw key. The raw key must be shown to the user exactly once.
func (s *PodAPIKeyService) Create(ctx context.Context, name, communityID string, siteID, podID *string) (*model.PodAPIKey, string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return nil, "", fmt.Errorf("generate pod api key: %w", err)
	}
	rawKey := "pbk_" + hex.EncodeToString(rawBytes)

	return s.createWithKey(ctx, name, rawKey, communityID, siteID, podID)
}

// CreateWithRawKey stores a pod key with a caller-provided raw value. Used
// for well-known dev/test keys where the raw value must be deterministic.
func (s *PodAPIKeyService) CreateWithRawKey(ctx context.Context, name, rawKey, communityID string, siteID, podID *string) (*model.PodAPIKey, error) {
	key, _, err := s.createWithKey(ctx, name, rawKey, communityID, siteID, podID)
	if err != nil {
		return nil, err
	}
	return key, nil
}

func (s *PodAPIKeyService) createWithKey(ctx context.Context, name, rawKey, communityID string, siteID, podID *string) (*model.PodAPIKey, string, error) {
	id := platform.NewID()

	hash := sha256.Sum256([]byte(rawKey))
	keyHash := hex.EncodeToString(hash[:])
	keyPrefix := rawKey[:12] // "pbk_" + first 8 hex chars

	_, err := s.db.Exec(ctx,
		`INSERT INTO pod_api_keys (id, name, community_id, site_id, pod_id, key_hash, key_prefix, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
		id, name, communityID, siteID, podID, keyHash, keyPrefix,
	)
	if err != nil {
		return nil, "", fmt.Errorf("insert pod api key: %w", err)
	}

	key := &model.PodAPIKey{
		ID:          id,
		Name:        name,
		CommunityID: communityID,
		SiteID:      siteID,
		PodID:       podID,
		KeyPrefix:   keyPrefix,
	}
	err = s.db.QueryRow(ctx, "SELECT created_at FROM pod_api_keys WHERE id = $1", id).Scan(&key.CreatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("get pod api key created_at: %w", err)
	}

	return key, rawKey, nil
}

// Authenticate resolves a presented raw key to its row. Revoked keys fail
// identically to unknown keys.
func (s *PodAPIKeyService) Authenticate(ctx context.Context, rawKey string) (*model.PodAPIKey, error) {
	hash := sha256.Sum256([]byte(rawKey))
	keyHash := hex.EncodeToString(hash[:])

	var k model.PodAPIKey
	err := s.db.QueryRow(ctx,
		`SELECT id, name, community_id, site_id, pod_id, key_prefix, created_at
		 FROM pod_api_keys WHERE key_hash = $1 AND revoked_at IS NULL`, keyHash,
	).Scan(&k.ID, &k.Name, &k.CommunityID, &k.SiteID, &k.PodID, &k.KeyPrefix, &k.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidAPIKey
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate pod api key: %w", err)
	}
	return &k, nil
}

func (s *PodAPIKeyService) GetByID(ctx context.Context, id string) (*model.PodAPIKey, error) {
	var k model.PodAPIKey
	err := s.db.QueryRow(ctx,
		`SELECT id, name, community_id, site_id, pod_id, key_prefix, created_at, revoked_at
		 FROM pod_api_keys WHERE id = $1`, id,
	).Scan(&k.ID, &k.Name, &k.CommunityID, &k.SiteID, &k.PodID, &k.KeyPrefix, &k.CreatedAt, &k.RevokedAt)
	if err != nil {
		return nil, fmt.Errorf("get pod api key %s: %w", id, err)
	}
	return &k, nil
}

func (s *PodAPIKeyService) ListByCommunity(ctx context.Context, communityID string, limit int, cursor string) ([]model.PodAPIKey, bool, error) {
	query := `SELECT id, name, community_id, site_id, pod_id, key_prefix, created_at, revoked_at
	          FROM pod_api_keys WHERE community_id = $1`
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
		return nil, false, fmt.Errorf("list pod api keys: %w", err)
	}
	defer rows.Close()

	var keys []model.PodAPIKey
	for rows.Next() {
		var k model.PodAPIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.CommunityID, &k.SiteID, &k.PodID, &k.KeyPrefix, &k.CreatedAt, &k.RevokedAt); err != nil {
			return nil, false, fmt.Errorf("scan pod api key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate pod api keys: %w", err)
	}

	hasMore := len(keys) > limit
	if hasMore {
		keys = keys[:limit]
	}
	return keys, hasMore, nil
}

// Revoke soft-deletes a pod key by setting revoked_at. Takes effect on the
// next authentication attempt.
func (s *PodAPIKeyService) Revoke(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE pod_api_keys SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL", id,
	)
	if err != nil {
		return fmt.Errorf("revoke pod api key %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pod api key %s not found or already revoked", id)
	}
	return nil
}
