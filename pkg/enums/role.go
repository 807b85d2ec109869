package enums

import "fmt"

// Role is the closed set of identity roles. Every policy check switches
// exhaustively over these values; unknown roles are rejected at parse time.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

var validRoles = []Role{
	RoleUser,
	RoleAdmin,
	RoleSuperAdmin,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsPrivileged reports whether the role may see cross-user orders and drive
// status transitions.
func (r Role) IsPrivileged() bool {
	switch r {
	case RoleSuperAdmin:
		return true
	case RoleAdmin, RoleUser:
		return false
	default:
		return false
	}
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
