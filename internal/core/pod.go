package core

import (
	"context"
	"fmt"

	"github.com/platebridge/portal/internal/model"
)

type PodService struct {
	db DB
}

func NewPodService(db DB) *PodService {
	return &PodService{db: db}
}

func (s *PodService) Create(ctx context.Context, pod *model.Pod) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO pods (id, site_id, name, status, last_seen_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		pod.ID, pod.SiteID, pod.Name, pod.Status, pod.LastSeenAt, pod.CreatedAt, pod.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create pod: %w", err)
	}
	return nil
}

func (s *PodService) GetByID(ctx context.Context, id string) (*model.Pod, error) {
	var p model.Pod
	err := s.db.QueryRow(ctx,
		`SELECT id, site_id, name, status, last_seen_at, created_at, updated_at FROM pods WHERE id = $1`, id,
	).Scan(&p.ID, &p.SiteID, &p.Name, &p.Status, &p.LastSeenAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get pod %s: %w", id, err)
	}
	return &p, nil
}

func (s *PodService) ListBySite(ctx context.Context, siteID string, limit int, cursor string) ([]model.Pod, bool, error) {
	query := `SELECT id, site_id, name, status, last_seen_at, created_at, updated_at
	          FROM pods WHERE site_id = $1`
	args := []any{siteID}
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
		return nil, false, fmt.Errorf("list pods: %w", err)
	}
	defer rows.Close()

	var pods []model.Pod
	for rows.Next() {
		var p model.Pod
		if err := rows.Scan(&p.ID, &p.SiteID, &p.Name, &p.Status, &p.LastSeenAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan pod: %w", err)
		}
		pods = append(pods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate pods: %w", err)
	}

	hasMore := len(pods) > limit
	if hasMore {
		pods = pods[:limit]
	}
	return pods, hasMore, nil
}

func (s *PodService) Update(ctx context.Context, pod *model.Pod) error {
	_, err := s.db.Exec(ctx,
		`UPDATE pods SET name = $1, status = $2, updated_at = now() WHERE id = $3`,
		pod.Name, pod.Status, pod.ID,
	)
	if err != nil {
		return fmt.Errorf("update pod %s: %w", pod.ID, err)
	}
	return nil
}

// TouchLastSeen records edge-device liveness. Called from the detection and
// sync paths, so failures are reported but non-fatal for callers.
func (s *PodService) TouchLastSeen(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE pods SET last_seen_at = now(), status = $1, updated_at = now() WHERE id = $2`,
		model.PodStatusActive, id,
	)
	if err != nil {
		return fmt.Errorf("touch pod %s: %w", id, err)
	}
	return nil
}

func (s *PodService) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, "DELETE FROM pods WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete pod %s: %w", id, err)
	}
	return nil
}
