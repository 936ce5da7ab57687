package models

import "strings"

// Role is the single coarse role the dashboard works with
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// adminMarkers are the role strings that grant ADMIN, whatever shape the
// backend used to send them.
var adminMarkers = []string{"ADMIN", "ROLE_ADMIN"}

// User is the normalized profile of the logged-in administrator or visitor
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role,omitempty"`
}

// IsAdmin reports whether the user carries the ADMIN role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// HasRole reports whether the user satisfies required. An empty requirement
// is satisfied by any user.
func (u *User) HasRole(required Role) bool {
	if u == nil {
		return false
	}
	if required == "" {
		return true
	}
	return u.Role == required
}

// RoleFromMarkers collapses a possibly multi-valued role list into one Role:
// any admin marker yields ADMIN, everything else USER.
func RoleFromMarkers(markers []string) Role {
	for _, m := range markers {
		m = strings.ToUpper(strings.TrimSpace(m))
		for _, admin := range adminMarkers {
			if m == admin {
				return RoleAdmin
			}
		}
	}
	return RoleUser
}
