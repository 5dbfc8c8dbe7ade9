package model

import "time"

// Default thresholds applied when a community has no settings row yet.
const (
	DefaultRequireConfidence = 85
)

// AccessSettings holds the per-community evaluation knobs. Exactly one row
// per community; a missing row is synthesized with defaults on read.
type AccessSettings struct {
	CommunityID         string    `json:"community_id"`
	AutoGrantEnabled    bool      `json:"auto_grant_enabled"`
	LockdownMode        bool      `json:"lockdown_mode"`
	RequireConfidence   int       `json:"require_confidence"`
	NotificationOnGrant bool      `json:"notification_on_grant"`
	NotificationEmails  []string  `json:"notification_emails"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// DefaultAccessSettings returns the synthesized settings for a community
// that has never been configured.
func DefaultAccessSettings(communityID string) *AccessSettings {
	return &AccessSettings{
		CommunityID:       communityID,
		AutoGrantEnabled:  true,
		LockdownMode:      false,
		RequireConfidence: DefaultRequireConfidence,
	}
}
