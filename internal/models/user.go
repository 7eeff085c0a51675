package models

import "time"

// DefaultRoleName is reported when a user has no role assigned
const DefaultRoleName = "USER"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	RoleID       *int
	RoleName     *string
	Active       *bool // NULL is treated as active
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Role returns the joined role name or DefaultRoleName
func (u *User) Role() string {
	if u.RoleName == nil || *u.RoleName == "" {
		return DefaultRoleName
	}
	return *u.RoleName
}

// IsActive reports whether the account may log in
func (u *User) IsActive() bool {
	return u.Active == nil || *u.Active
}
