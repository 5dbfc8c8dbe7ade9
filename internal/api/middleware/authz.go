package middleware

import (
	"context"
	"net/http"

	"github.com/platebridge/portal/internal/api/response"
	"github.com/platebridge/portal/internal/model"
)

// roleRank orders portal roles. Zero means unknown.
func roleRank(role string) int {
	switch role {
	case model.RoleViewer:
		return 1
	case model.RoleManager:
		return 2
	case model.RoleAdmin:
		return 3
	default:
		return 0
	}
}

// HasRole checks whether the claims carry at least the given role.
func HasRole(claims *model.SessionClaims, role string) bool {
	if claims == nil {
		return false
	}
	return roleRank(claims.Role) >= roleRank(role)
}

// HasCompanyAccess checks whether the claims can touch the given company.
// Users without a company binding are platform-level and see everything.
func HasCompanyAccess(claims *model.SessionClaims, companyID string) bool {
	if claims == nil {
		return false
	}
	if claims.CompanyID == nil {
		return true
	}
	return *claims.CompanyID == companyID
}

// RequireRole returns middleware that rejects requests below the given role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !HasRole(GetClaims(r.Context()), role) {
				response.WriteError(w, http.StatusForbidden, "requires "+role+" role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ScopedCompanyID returns the company the caller is restricted to, or nil
// for platform-level users. Used by handlers to filter list queries.
func ScopedCompanyID(ctx context.Context) *string {
	claims := GetClaims(ctx)
	if claims == nil {
		return nil
	}
	return claims.CompanyID
}
