package auth

import (
	"fmt"
	"strings"
)

// Role is an operator's authorisation tier.
type Role string

const (
	// RoleViewer may read state but not change it.
	RoleViewer Role = "viewer"

	// RoleOperator may read and change state.
	RoleOperator Role = "operator"
)

// Permission is a named capability checked by the API.
type Permission string

const (
	PermRead    Permission = "read"
	PermOperate Permission = "operate"
)

var rolePermissions = map[Role][]Permission{
	RoleViewer:   {PermRead},
	RoleOperator: {PermRead, PermOperate},
}

// ParseRole parses a role name, ignoring case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := rolePermissions[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// HasPermission reports whether r grants p.
func (r Role) HasPermission(p Permission) bool {
	for _, granted := range rolePermissions[r] {
		if granted == p {
			return true
		}
	}
	return false
}
