package auth

import "strings"

// Console roles the auth service issues.
const (
	RoleSuperAdmin      = "super_admin"
	RoleRestaurantAdmin = "restaurant_admin"
)

// Session is the explicit credential value threaded through every backend call.
// Nothing in this service reads tokens from ambient storage; whoever performs a
// network call receives the session by value.
type Session struct {
	Token  string
	UserID string
	Role   string
}

// NewSession builds a session from validated claims and the raw bearer token.
func NewSession(claims *Claims, token string) Session {
	if claims == nil {
		return Session{Token: strings.TrimSpace(token)}
	}
	return Session{
		Token:  strings.TrimSpace(token),
		UserID: strings.TrimSpace(claims.RegisteredClaims.Subject),
		Role:   strings.TrimSpace(claims.Role),
	}
}

// IsSuperAdmin reports whether the session may act across restaurants.
func (s Session) IsSuperAdmin() bool {
	return s.Role == RoleSuperAdmin
}
