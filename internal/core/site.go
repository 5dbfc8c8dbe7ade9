package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/platebridge/portal/internal/model"
)

// ErrSiteNotFound is returned when a site ID does not resolve to a community.
var ErrSiteNotFound = errors.New("site not found")

type SiteService struct {
	db DB
}

func NewSiteService(db DB) *SiteService {
	return &SiteService{db: db}
}

func (s *SiteService) Create(ctx context.Context, site *model.Site) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO sites (id, community_id, name, gate_label, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		site.ID, site.CommunityID, site.Name, site.GateLabel, site.CreatedAt, site.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create site: %w", err)
	}
	return nil
}

func (s *SiteService) GetByID(ctx context.Context, id string) (*model.Site, error) {
	var site model.Site
	err := s.db.QueryRow(ctx,
		`SELECT id, community_id, name, gate_label, created_at, updated_at FROM sites WHERE id = $1`, id,
	).Scan(&site.ID, &site.CommunityID, &site.Name, &site.GateLabel, &site.CreatedAt, &site.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get site %s: %w", id, err)
	}
	return &site, nil
}

// ResolveCommunity maps a site ID to its owning community.
func (s *SiteService) ResolveCommunity(ctx context.Context, siteID string) (string, error) {
	var communityID string
	err := s.db.QueryRow(ctx,
		"SELECT community_id FROM sites WHERE id = $1", siteID,
	).Scan(&communityID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrSiteNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve site %s: %w", siteID, err)
	}
	return communityID, nil
}

func (s *SiteService) ListByCommunity(ctx context.Context, communityID string, limit int, cursor string) ([]model.Site, bool, error) {
	query := `SELECT id, community_id, name, gate_label, created_at, updated_at
	          FROM sites WHERE community_id = $1`
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
		return nil, false, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	var sites []model.Site
	for rows.Next() {
		var site model.Site
		if err := rows.Scan(&site.ID, &site.CommunityID, &site.Name, &site.GateLabel, &site.CreatedAt, &site.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan site: %w", err)
		}
		sites = append(sites, site)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate sites: %w", err)
	}

	hasMore := len(sites) > limit
	if hasMore {
		sites = sites[:limit]
	}
	return sites, hasMore, nil
}

func (s *SiteService) Update(ctx context.Context, site *model.Site) error {
	_, err := s.db.Exec(ctx,
		`UPDATE sites SET name = $1, gate_label = $2, updated_at = now() WHERE id = $3`,
		site.Name, site.GateLabel, site.ID,
	)
	if err != nil {
		return fmt.Errorf("update site %s: %w", site.ID, err)
	}
	return nil
}

func (s *SiteService) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, "DELETE FROM sites WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete site %s: %w", id, err)
	}
	return nil
}
