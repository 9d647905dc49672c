package domain

import "time"

// Role is the account role carried in identity claims.
type Role string

const (
	RoleUser     Role = "user"
	RoleAdmin    Role = "admin"
	RoleOwner    Role = "owner"
	RoleAcademic Role = "academic"
	RoleStudent  Role = "student"
	RoleParent   Role = "parent"
	RoleTeacher  Role = "teacher"
)

// Roles lists every known role.
var Roles = []Role{RoleUser, RoleAdmin, RoleOwner, RoleAcademic, RoleStudent, RoleParent, RoleTeacher}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// User is an account able to log in.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedBy    *string
	UpdatedBy    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName renders the name the way the school office writes it.
func (u *User) DisplayName() string {
	return u.LastName + " " + u.FirstName
}

// UserProfile is a user joined with the display name of its creator.
type UserProfile struct {
	User
	CreatedByName *string
}
