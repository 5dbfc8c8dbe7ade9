package model

import "time"

// Company is the top of the ownership hierarchy. A company owns communities,
// which own sites, which own pods and cameras.
type Company struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ContactEmail string    `json:"contact_email,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
