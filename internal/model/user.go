package model

import (
	"time"
)

// User represents a staff login account. The role string mirrors the
// account's current profile type and is refreshed whenever the profile
// changes; tokens issued before a change keep the old role until expiry.
type User struct {
	Base
	Email        string     `json:"email" db:"email"`
	Password     string     `json:"password,omitempty" db:"-"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         Role       `json:"role" db:"role"`
	LastLoginAt  *time.Time `json:"last_login_at" db:"last_login_at"`
}

// CreateUserRequest represents registration parameters
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}
