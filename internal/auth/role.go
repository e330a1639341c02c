package auth

import (
	"strings"

	"bookstore/pkg/models"
)

// CanMutate reports whether role may create, edit or delete catalog
// records. Only the exact admin role is allowed; empty or unknown roles
// are denied.
func CanMutate(role models.Role) bool {
	return role == models.RoleAdmin
}

// ParseRole maps a stored role string to a Role. Unknown values become
// RoleGuest, which CanMutate denies.
func ParseRole(s string) models.Role {
	switch models.Role(strings.TrimSpace(s)) {
	case models.RoleAdmin:
		return models.RoleAdmin
	case models.RoleUser:
		return models.RoleUser
	default:
		return models.RoleGuest
	}
}
