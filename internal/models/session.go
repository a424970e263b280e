package models

import (
	"strings"
	"time"
)

// Role is the plan tier of a signed-in user.
type Role string

const (
	RoleBasic   Role = "basic"
	RolePremium Role = "premium"
	RoleAdmin   Role = "admin"
)

// ParseRole maps a claim value to a Role. Unknown values fall back to basic.
func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RolePremium:
		return RolePremium
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleBasic
	}
}

// Session is the identity of the signed-in user. It is passed explicitly to
// every service call instead of being read from ambient state.
type Session struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	TokenID     string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IsPremium reports whether the session has premium-tier limits.
func (s Session) IsPremium() bool {
	return s.Role == RolePremium || s.Role == RoleAdmin
}
