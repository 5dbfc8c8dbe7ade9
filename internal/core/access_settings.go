package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/platebridge/portal/internal/model"
)

// ErrCommunityNotFound is returned when a community ID does not exist.
var ErrCommunityNotFound = errors.New("community not found")

type AccessSettingsService struct {
	db DB
}

func NewAccessSettingsService(db DB) *AccessSettingsService {
	return &AccessSettingsService{db: db}
}

// Get returns the settings for a community, synthesizing defaults when no
// row exists yet. The row is only persisted on first write.
func (s *AccessSettingsService) Get(ctx context.Context, communityID string) (*model.AccessSettings, error) {
	settings, _, err := s.GetWithTimezone(ctx, communityID)
	return settings, err
}

// GetWithTimezone resolves the community's settings and its IANA timezone in
// a single round-trip. The evaluator needs both.
func (s *AccessSettingsService) GetWithTimezone(ctx context.Context, communityID string) (*model.AccessSettings, *time.Location, error) {
	var (
		timezone            string
		autoGrantEnabled    *bool
		lockdownMode        *bool
		requireConfidence   *int
		notificationOnGrant *bool
		notificationEmails  []string
		updatedAt           *time.Time
	)

	err := s.db.QueryRow(ctx,
		`SELECT c.timezone, s.auto_grant_enabled, s.lockdown_mode, s.require_confidence,
		        s.notification_on_grant, s.notification_emails, s.updated_at
		 FROM communities c
		 LEFT JOIN access_settings s ON s.community_id = c.id
		 WHERE c.id = $1`, communityID,
	).Scan(&timezone, &autoGrantEnabled, &lockdownMode, &requireConfidence,
		&notificationOnGrant, &notificationEmails, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrCommunityNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get access settings %s: %w", communityID, err)
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}

	settings := model.DefaultAccessSettings(communityID)
	if autoGrantEnabled != nil {
		settings.AutoGrantEnabled = *autoGrantEnabled
		settings.LockdownMode = *lockdownMode
		settings.RequireConfidence = *requireConfidence
		settings.NotificationOnGrant = *notificationOnGrant
		settings.NotificationEmails = notificationEmails
		settings.UpdatedAt = *updatedAt
	}

	return settings, loc, nil
}

// Upsert writes the community's settings row, creating it on first write.
func (s *AccessSettingsService) Upsert(ctx context.Context, settings *model.AccessSettings) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO access_settings (community_id, auto_grant_enabled, lockdown_mode, require_confidence,
		 notification_on_grant, notification_emails, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())
		 ON CONFLICT (community_id) DO UPDATE SET
		   auto_grant_enabled = EXCLUDED.auto_grant_enabled,
		   lockdown_mode = EXCLUDED.lockdown_mode,
		   require_confidence = EXCLUDED.require_confidence,
		   notification_on_grant = EXCLUDED.notification_on_grant,
		   notification_emails = EXCLUDED.notification_emails,
		   updated_at = now()`,
		settings.CommunityID, settings.AutoGrantEnabled, settings.LockdownMode,
		settings.RequireConfidence, settings.NotificationOnGrant, settings.NotificationEmails,
	)
	if err != nil {
		return fmt.Errorf("upsert access settings %s: %w", settings.CommunityID, err)
	}
	return nil
}
