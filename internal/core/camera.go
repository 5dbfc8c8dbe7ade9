package core

import (
	"context"
	"fmt"

	"github.com/platebridge/portal/internal/model"
)

type CameraService struct {
	db DB
}

func NewCameraService(db DB) *CameraService {
	return &CameraService{db: db}
}

func (s *CameraService) Create(ctx context.Context, camera *model.Camera) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO cameras (id, pod_id, name, direction, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		camera.ID, camera.PodID, camera.Name, camera.Direction, camera.CreatedAt, camera.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create camera: %w", err)
	}
	return nil
}

func (s *CameraService) GetByID(ctx context.Context, id string) (*model.Camera, error) {
	var c model.Camera
	err := s.db.QueryRow(ctx,
		`SELECT id, pod_id, name, direction, created_at, updated_at FROM cameras WHERE id = $1`, id,
	).Scan(&c.ID, &c.PodID, &c.Name, &c.Direction, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get camera %s: %w", id, err)
	}
	return &c, nil
}

func (s *CameraService) ListByPod(ctx context.Context, podID string) ([]model.Camera, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, pod_id, name, direction, created_at, updated_at
		 FROM cameras WHERE pod_id = $1 ORDER BY id`, podID)
	if err != nil {
		return nil, fmt.Errorf("list cameras: %w", err)
	}
	defer rows.Close()

	var cameras []model.Camera
	for rows.Next() {
		var c model.Camera
		if err := rows.Scan(&c.ID, &c.PodID, &c.Name, &c.Direction, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan camera: %w", err)
		}
		cameras = append(cameras, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cameras: %w", err)
	}
	return cameras, nil
}

func (s *CameraService) Update(ctx context.Context, camera *model.Camera) error {
	_, err := s.db.Exec(ctx,
		`UPDATE cameras SET name = $1, direction = $2, updated_at = now() WHERE id = $3`,
		camera.Name, camera.Direction, camera.ID,
	)
	if err != nil {
		return fmt.Errorf("update camera %s: %w", camera.ID, err)
	}
	return nil
}

func (s *CameraService) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, "DELETE FROM cameras WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete camera %s: %w", id, err)
	}
	return nil
}
