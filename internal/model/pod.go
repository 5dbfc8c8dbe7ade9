package model

import "time"

const (
	PodStatusActive   = "active"
	PodStatusOffline  = "offline"
	PodStatusRetired  = "retired"
	PodStatusPending  = "pending"
)

// Pod is an edge device (camera plus local agent) registered to a site.
type Pod struct {
	ID         string     `json:"id"`
	SiteID     string     `json:"site_id"`
	Name       string     `json:"name"`
	Status     string     `json:"status"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
