package model

import "time"

// Role is the closed set of user roles.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleAgent   Role = "Agent"
	RoleManager Role = "Manager"
	RoleDriver  Role = "Driver"
)

// Roles lists every known role.
var Roles = []Role{RoleAdmin, RoleAgent, RoleManager, RoleDriver}

func (r Role) String() string { return string(r) }

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleManager, RoleDriver:
		return true
	}
	return false
}

// User represents an application user as stored in the `users` table.
// Role and IsActive gate every privileged operation.
//
// Fields:
//
//	UserID       – domain identifier (unique, not storage generated).
//	Role         – one of Admin, Agent, Manager, Driver.
//	FullName     – display name.
//	Email        – unique email address.
//	PasswordHash – bcrypt hash; never serialised.
//	IsActive     – false once an admin blocks the user.
type User struct {
	UserID       int64     `json:"user_id"`    // users.user_id
	Role         Role      `json:"role"`       // users.role
	FullName     string    `json:"full_name"`  // users.full_name
	Email        string    `json:"email"`      // users.email
	PasswordHash string    `json:"-"`          // users.password_hash
	IsActive     bool      `json:"isActive"`   // users.is_active
	CreatedAt    time.Time `json:"created_at"` // users.created_at
	UpdatedAt    time.Time `json:"updated_at"` // users.updated_at
}
