package core

import (
	"context"
	"fmt"

	"github.com/platebridge/portal/internal/model"
)

type CommunityService struct {
	db DB
}

func NewCommunityService(db DB) *CommunityService {
	return &CommunityService{db: db}
}

func (s *CommunityService) Create(ctx context.Context, community *model.Community) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO communities (id, company_id, name, address, timezone, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		community.ID, community.CompanyID, community.Name, community.Address,
		community.Timezone, community.CreatedAt, community.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create community: %w", err)
	}
	return nil
}

func (s *CommunityService) GetByID(ctx context.Context, id string) (*model.Community, error) {
	var c model.Community
	err := s.db.QueryRow(ctx,
		`SELECT id, company_id, name, address, timezone, created_at, updated_at
		 FROM communities WHERE id = $1`, id,
	).Scan(&c.ID, &c.CompanyID, &c.Name, &c.Address, &c.Timezone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get community %s: %w", id, err)
	}
	return &c, nil
}

func (s *CommunityService) ListByCompany(ctx context.Context, companyID string, limit int, cursor string) ([]model.Community, bool, error) {
	query := `SELECT id, company_id, name, address, timezone, created_at, updated_at
	          FROM communities WHERE company_id = $1`
	args := []any{companyID}
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
		return nil, false, fmt.Errorf("list communities: %w", err)
	}
	defer rows.Close()

	var communities []model.Community
	for rows.Next() {
		var c model.Community
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Address, &c.Timezone, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan community: %w", err)
		}
		communities = append(communities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate communities: %w", err)
	}

	hasMore := len(communities) > limit
	if hasMore {
		communities = communities[:limit]
	}
	return communities, hasMore, nil
}

func (s *CommunityService) Update(ctx context.Context, community *model.Community) error {
	_, err := s.db.Exec(ctx,
		`UPDATE communities SET name = $1, address = $2, timezone = $3, updated_at = now() WHERE id = $4`,
		community.Name, community.Address, community.Timezone, community.ID,
	)
	if err != nil {
		return fmt.Errorf("update community %s: %w", community.ID, err)
	}
	return nil
}

func (s *CommunityService) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, "DELETE FROM communities WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete community %s: %w", id, err)
	}
	return nil
}
