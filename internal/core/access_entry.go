package core

import (
	"context"
	"fmt"

	"github.com/platebridge/portal/internal/model"
)

type AccessEntryService struct {
	db DB
}

func NewAccessEntryService(db DB) *AccessEntryService {
	return &AccessEntryService{db: db}
}

const accessEntryColumns = `id, community_id, plate, type, vendor_name, schedule_start, schedule_end,
	days_active, expires_at, is_active, notes, created_at, updated_at`

func scanAccessEntry(row interface{ Scan(dest ...any) error }, e *model.AccessEntry) error {
	return row.Scan(&e.ID, &e.CommunityID, &e.Plate, &e.Type, &e.VendorName,
		&e.ScheduleStart, &e.ScheduleEnd, &e.DaysActive, &e.ExpiresAt,
		&e.IsActive, &e.Notes, &e.CreatedAt, &e.UpdatedAt)
}

func (s *AccessEntryService) Create(ctx context.Context, entry *model.AccessEntry) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO access_entries (id, community_id, plate, type, vendor_name, schedule_start, schedule_end,
		 days_active, expires_at, is_active, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		entry.ID, entry.CommunityID, entry.Plate, entry.Type, entry.VendorName,
		entry.ScheduleStart, entry.ScheduleEnd, entry.DaysActive, entry.ExpiresAt,
		entry.IsActive, entry.Notes, entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create access entry: %w", err)
	}
	return nil
}

func (s *AccessEntryService) GetByID(ctx context.Context, id string) (*model.AccessEntry, error) {
	var e model.AccessEntry
	err := scanAccessEntry(s.db.QueryRow(ctx,
		`SELECT `+accessEntryColumns+` FROM access_entries WHERE id = $1`, id), &e)
	if err != nil {
		return nil, fmt.Errorf("get access entry %s: %w", id, err)
	}
	return &e, nil
}

func (s *AccessEntryService) ListByCommunity(ctx context.Context, communityID string, limit int, cursor string) ([]model.AccessEntry, bool, error) {
	query := `SELECT ` + accessEntryColumns + ` FROM access_entries WHERE community_id = $1`
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
		return nil, false, fmt.Errorf("list access entries: %w", err)
	}
	defer rows.Close()

	var entries []model.AccessEntry
	for rows.Next() {
		var e model.AccessEntry
		if err := scanAccessEntry(rows, &e); err != nil {
			return nil, false, fmt.Errorf("scan access entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate access entries: %w", err)
	}

	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}
	return entries, hasMore, nil
}

// ListActiveByCommunity returns every active, non-expired entry for the
// community. Used by the pod cache-sync endpoint.
func (s *AccessEntryService) ListActiveByCommunity(ctx context.Context, communityID string) ([]model.AccessEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+accessEntryColumns+` FROM access_entries
		 WHERE community_id = $1 AND is_active = TRUE
		   AND (expires_at IS NULL OR expires_at > now())
		 ORDER BY id`, communityID)
	if err != nil {
		return nil, fmt.Errorf("list active access entries: %w", err)
	}
	defer rows.Close()

	var entries []model.AccessEntry
	for rows.Next() {
		var e model.AccessEntry
		if err := scanAccessEntry(rows, &e); err != nil {
			return nil, fmt.Errorf("scan access entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate access entries: %w", err)
	}
	return entries, nil
}

// ListCandidates returns the active, non-expired entries for one plate in a
// community, in stable id order. Schedule windows are checked by the caller.
func (s *AccessEntryService) ListCandidates(ctx context.Context, communityID, plate string) ([]model.AccessEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+accessEntryColumns+` FROM access_entries
		 WHERE community_id = $1 AND plate = $2 AND is_active = TRUE
		   AND (expires_at IS NULL OR expires_at > now())
		 ORDER BY id`, communityID, plate)
	if err != nil {
		return nil, fmt.Errorf("list candidate entries: %w", err)
	}
	defer rows.Close()

	var entries []model.AccessEntry
	for rows.Next() {
		var e model.AccessEntry
		if err := scanAccessEntry(rows, &e); err != nil {
			return nil, fmt.Errorf("scan access entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate access entries: %w", err)
	}
	return entries, nil
}

func (s *AccessEntryService) Update(ctx context.Context, entry *model.AccessEntry) error {
	_, err := s.db.Exec(ctx,
		`UPDATE access_entries SET plate = $1, type = $2, vendor_name = $3, schedule_start = $4,
		 schedule_end = $5, days_active = $6, expires_at = $7, is_active = $8, notes = $9,
		 updated_at = now() WHERE id = $10`,
		entry.Plate, entry.Type, entry.VendorName, entry.ScheduleStart, entry.ScheduleEnd,
		entry.DaysActive, entry.ExpiresAt, entry.IsActive, entry.Notes, entry.ID,
	)
	if err != nil {
		return fmt.Errorf("update access entry %s: %w", entry.ID, err)
	}
	return nil
}

// SetActive toggles an entry without touching its other fields.
func (s *AccessEntryService) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE access_entries SET is_active = $1, updated_at = now() WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("toggle access entry %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("access entry %s not found", id)
	}
	return nil
}

// Delete removes the entry. Audit history is kept; access_logs reference
// plates by value, not by entry id.
func (s *AccessEntryService) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, "DELETE FROM access_entries WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete access entry %s: %w", id, err)
	}
	return nil
}
