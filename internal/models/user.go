package models

import "strings"

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User is the subset of the user record the role directory reads.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Enabled  bool   `json:"enabled"`
}

// NormalizeRole upper-cases role and strips a "ROLE_" prefix, so "role_admin"
// and "ADMIN" compare equal.
func NormalizeRole(role string) string {
	r := strings.ToUpper(strings.TrimSpace(role))
	return strings.TrimPrefix(r, "ROLE_")
}
