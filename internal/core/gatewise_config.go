package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/platebridge/portal/internal/model"
)

type GatewiseConfigService struct {
	db DB
}

func NewGatewiseConfigService(db DB) *GatewiseConfigService {
	return &GatewiseConfigService{db: db}
}

// Get returns the community's gate integration config, or nil when none is
// configured.
func (s *GatewiseConfigService) Get(ctx context.Context, communityID string) (*model.GatewiseConfig, error) {
	var cfg model.GatewiseConfig
	err := s.db.QueryRow(ctx,
		`SELECT community_id, api_key, api_endpoint, gatewise_community_id, gatewise_access_point_id, enabled, updated_at
		 FROM gatewise_configs WHERE community_id = $1`, communityID,
	).Scan(&cfg.CommunityID, &cfg.APIKey, &cfg.APIEndpoint, &cfg.GatewiseCommunityID,
		&cfg.GatewiseAccessPointID, &cfg.Enabled, &cfg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get gatewise config %s: %w", communityID, err)
	}
	return &cfg, nil
}

// Upsert writes the community's config. An empty APIKey keeps the stored
// credential so admins can update endpoints without re-entering the secret.
func (s *GatewiseConfigService) Upsert(ctx context.Context, cfg *model.GatewiseConfig) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO gatewise_configs (community_id, api_key, api_endpoint, gatewise_community_id, gatewise_access_point_id, enabled, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())
		 ON CONFLICT (community_id) DO UPDATE SET
		   api_key = CASE WHEN EXCLUDED.api_key = '' THEN gatewise_configs.api_key ELSE EXCLUDED.api_key END,
		   api_endpoint = EXCLUDED.api_endpoint,
		   gatewise_community_id = EXCLUDED.gatewise_community_id,
		   gatewise_access_point_id = EXCLUDED.gatewise_access_point_id,
		   enabled = EXCLUDED.enabled,
		   updated_at = now()`,
		cfg.CommunityID, cfg.APIKey, cfg.APIEndpoint, cfg.GatewiseCommunityID,
		cfg.GatewiseAccessPointID, cfg.Enabled,
	)
	if err != nil {
		return fmt.Errorf("upsert gatewise config %s: %w", cfg.CommunityID, err)
	}
	return nil
}

func (s *GatewiseConfigService) Delete(ctx context.Context, communityID string) error {
	_, err := s.db.Exec(ctx, "DELETE FROM gatewise_configs WHERE community_id = $1", communityID)
	if err != nil {
		return fmt.Errorf("delete gatewise config %s: %w", communityID, err)
	}
	return nil
}
