package core

import (
	"context"
	"fmt"

	"github.com/platebridge/portal/internal/model"
)

type AccessLogService struct {
	db DB
}

func NewAccessLogService(db DB) *AccessLogService {
	return &AccessLogService{db: db}
}

// Record appends one audit row. Rows are immutable after insert.
func (s *AccessLogService) Record(ctx context.Context, entry *model.AccessLog) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO access_logs (id, community_id, pod_id, plate, decision, reason, access_type,
		 vendor_name, confidence, gate_triggered, snapshot_key, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())`,
		entry.ID, entry.CommunityID, entry.PodID, entry.Plate, entry.Decision, entry.Reason,
		entry.AccessType, entry.VendorName, entry.Confidence, entry.GateTriggered, entry.SnapshotKey,
	)
	if err != nil {
		return fmt.Errorf("record access log: %w", err)
	}
	return nil
}

func (s *AccessLogService) GetByID(ctx context.Context, id string) (*model.AccessLog, error) {
	var l model.AccessLog
	err := s.db.QueryRow(ctx,
		`SELECT id, community_id, pod_id, plate, decision, reason, access_type, vendor_name,
		 confidence, gate_triggered, snapshot_key, created_at
		 FROM access_logs WHERE id = $1`, id,
	).Scan(&l.ID, &l.CommunityID, &l.PodID, &l.Plate, &l.Decision, &l.Reason, &l.AccessType,
		&l.VendorName, &l.Confidence, &l.GateTriggered, &l.SnapshotKey, &l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get access log %s: %w", id, err)
	}
	return &l, nil
}

// LogFilter narrows List results. Zero values mean no filtering.
type LogFilter struct {
	CommunityID string
	Plate       string
	Decision    string
}

func (s *AccessLogService) List(ctx context.Context, filter LogFilter, limit int, cursor string) ([]model.AccessLog, bool, error) {
	query := `SELECT id, community_id, pod_id, plate, decision, reason, access_type, vendor_name,
	          confidence, gate_triggered, snapshot_key, created_at
	          FROM access_logs WHERE 1=1`
	args := []any{}
	argIdx := 1

	if filter.CommunityID != "" {
		query += fmt.Sprintf(` AND community_id = $%d`, argIdx)
		args = append(args, filter.CommunityID)
		argIdx++
	}
	if filter.Plate != "" {
		query += fmt.Sprintf(` AND plate = $%d`, argIdx)
		args = append(args, filter.Plate)
		argIdx++
	}
	if filter.Decision != "" {
		query += fmt.Sprintf(` AND decision = $%d`, argIdx)
		args = append(args, filter.Decision)
		argIdx++
	}
	if cursor != "" {
		query += fmt.Sprintf(` AND id < $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY id DESC`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list access logs: %w", err)
	}
	defer rows.Close()

	var logs []model.AccessLog
	for rows.Next() {
		var l model.AccessLog
		if err := rows.Scan(&l.ID, &l.CommunityID, &l.PodID, &l.Plate, &l.Decision, &l.Reason,
			&l.AccessType, &l.VendorName, &l.Confidence, &l.GateTriggered, &l.SnapshotKey, &l.CreatedAt); err != nil {
			return nil, false, fmt.Errorf("scan access log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate access logs: %w", err)
	}

	hasMore := len(logs) > limit
	if hasMore {
		logs = logs[:limit]
	}
	return logs, hasMore, nil
}
