package model

import "time"

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleViewer  = "viewer"
)

// User is a portal operator account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name,omitempty"`
	Role         string    `json:"role"`
	// CompanyID scopes non-admin users to one company's hierarchy. Nil for
	// platform admins.
	CompanyID *string   `json:"company_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionClaims is the payload of a signed portal session token.
type SessionClaims struct {
	Sub       string  `json:"sub"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	CompanyID *string `json:"company_id,omitempty"`
	Iat       int64   `json:"iat"`
	Exp       int64   `json:"exp"`
	Iss       string  `json:"iss"`
}
