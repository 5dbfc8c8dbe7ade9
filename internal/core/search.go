package core

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// SearchResult represents a single search result across resource types.
type SearchResult struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Label       string `json:"label"`
	CommunityID string `json:"community_id,omitempty"`
	Status      string `json:"status"`
}

// SearchService provides cross-resource search.
type SearchService struct {
	db DB
}

// NewSearchService creates a new SearchService.
func NewSearchService(db DB) *SearchService {
	return &SearchService{db: db}
}

// Search runs parallel queries across resource tables and returns matching results.
func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}
	pattern := "%" + query + "%"

	type queryDef struct {
		sql  string
		args []any
	}

	queries := []queryDef{
		{
			sql: `SELECT 'company', id, name, '', 'active' FROM companies
				WHERE id ILIKE $1 OR name ILIKE $1
				LIMIT $2`,
			args: []any{pattern, limit},
		},
		{
			sql: `SELECT 'community', id, name, id, 'active' FROM communities
				WHERE id ILIKE $1 OR name ILIKE $1
				LIMIT $2`,
			args: []any{pattern, limit},
		},
		{
			sql: `SELECT 'site', id, name, community_id, 'active' FROM sites
				WHERE id ILIKE $1 OR name ILIKE $1
				LIMIT $2`,
			args: []any{pattern, limit},
		},
		{
			sql: `SELECT 'pod', p.id, p.name, s.community_id, p.status
				FROM pods p JOIN sites s ON p.site_id = s.id
				WHERE p.id ILIKE $1 OR p.name ILIKE $1
				LIMIT $2`,
			args: []any{pattern, limit},
		},
		{
			sql: `SELECT 'camera', c.id, c.name, s.community_id, 'active'
				FROM cameras c JOIN pods p ON c.pod_id = p.id JOIN sites s ON p.site_id = s.id
				WHERE c.id ILIKE $1 OR c.name ILIKE $1
				LIMIT $2`,
			args: []any{pattern, limit},
		},
		{
			sql: `SELECT 'access_entry', id, plate, community_id,
				CASE WHEN is_active THEN 'active' ELSE 'inactive' END
				FROM access_entries
				WHERE plate ILIKE $1 OR vendor_name ILIKE $1
				LIMIT $2`,
			args: []any{pattern, limit},
		},
		{
			sql: `SELECT 'user', id, email, '', role FROM users
				WHERE email ILIKE $1 OR display_name ILIKE $1
				LIMIT $2`,
			args: []any{pattern, limit},
		},
	}

	results := make([][]SearchResult, len(queries))
	g, ctx := errgroup.WithContext(ctx)

	for i, q := range queries {
		g.Go(func() error {
			rows, err := s.db.Query(ctx, q.sql, q.args...)
			if err != nil {
				return fmt.Errorf("search query %d: %w", i, err)
			}
			defer rows.Close()

			for rows.Next() {
				var r SearchResult
				if err := rows.Scan(&r.Type, &r.ID, &r.Label, &r.CommunityID, &r.Status); err != nil {
					return fmt.Errorf("scan search result: %w", err)
				}
				results[i] = append(results[i], r)
			}
			return rows.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var all []SearchResult
	for _, batch := range results {
		all = append(all, batch...)
	}
	return all, nil
}
