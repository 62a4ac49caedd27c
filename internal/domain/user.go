package domain

import "time"

// Role determines what a principal may see and do.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleAgent Role = "AGENT"
	RoleUser  Role = "USER"
)

// Roles lists every valid role, in display order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleAgent, RoleUser}
}

// ParseRole validates a raw role value.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleAgent, RoleUser:
		return Role(s), true
	}
	return "", false
}

// DefaultRole falls back to USER when the input is not a valid role.
func DefaultRole(s string) Role {
	if role, ok := ParseRole(s); ok {
		return role
	}
	return RoleUser
}

// User is an account in the single flat user table. Accounts are created by
// admins and never deleted; only the role ever changes after creation.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}
