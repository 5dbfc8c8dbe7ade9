package model

import "time"

// GatewiseConfig holds the per-community credentials for the external gate
// control API. The API key is write-only through the portal.
type GatewiseConfig struct {
	CommunityID           string    `json:"community_id"`
	APIKey                string    `json:"-"`
	APIEndpoint           string    `json:"api_endpoint"`
	GatewiseCommunityID   string    `json:"gatewise_community_id"`
	GatewiseAccessPointID string    `json:"gatewise_access_point_id"`
	Enabled               bool      `json:"enabled"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Configured reports whether the config is usable for a gate trigger.
func (c *GatewiseConfig) Configured() bool {
	return c != nil && c.Enabled && c.APIEndpoint != "" && c.GatewiseAccessPointID != ""
}
