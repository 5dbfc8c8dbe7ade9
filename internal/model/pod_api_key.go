package model

import "time"

// PodAPIKey authenticates an edge device. Only the SHA-256 hash of the raw
// key is stored; the raw value is shown exactly once at creation.
type PodAPIKey struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	CommunityID string     `json:"community_id"`
	SiteID      *string    `json:"site_id,omitempty"`
	PodID       *string    `json:"pod_id,omitempty"`
	KeyHash     string     `json:"-"`
	KeyPrefix   string     `json:"key_prefix,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
}
