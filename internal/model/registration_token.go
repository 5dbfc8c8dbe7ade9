package model

import "time"

// RegistrationToken is a limited-use provisioning credential a pod exchanges
// once for a permanent API key. A token must not authorize more than
// MaxUses registrations and never past ExpiresAt.
type RegistrationToken struct {
	ID          string     `json:"id"`
	CommunityID string     `json:"community_id"`
	SiteID      string     `json:"site_id"`
	TokenHash   string     `json:"-"`
	TokenPrefix string     `json:"token_prefix,omitempty"`
	MaxUses     int        `json:"max_uses"`
	UseCount    int        `json:"use_count"`
	ExpiresAt   time.Time  `json:"expires_at"`
	CreatedAt   time.Time  `json:"created_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
}
