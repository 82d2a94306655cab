package model

import (
	"errors"
)

// Role is the authorization tag embedded in access tokens. It is derived
// from the account's profile at token issuance and trusted for the token's
// lifetime.
type Role string

const (
	// RoleDefault is assigned to accounts that registered but have no
	// profile yet. It grants no access to clinical data.
	RoleDefault Role = "default"
	// RoleProfessional is assigned to accounts whose profile is of the
	// professional type.
	RoleProfessional Role = "pro"
	// RoleManagerial is assigned to accounts whose profile is of the
	// managerial type. Managerial callers see data across all profiles.
	RoleManagerial Role = "ger"
	// RoleResetPassword is a single-use role carried only by short-lived
	// password-reset tokens. It cannot be used for normal API access.
	RoleResetPassword Role = "rst-pswd"
)

func (r Role) String() string { return string(r) }

// Valid reports whether r is one of the known role values.
func (r Role) Valid() bool {
	switch r {
	case RoleDefault, RoleProfessional, RoleManagerial, RoleResetPassword:
		return true
	}
	return false
}

// Auth errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// TokenResponse carries a freshly issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// SendResetEmailRequest asks for a password-reset email.
type SendResetEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest carries the new password for a reset flow.
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

// ChangePasswordRequest carries a password change for a logged-in user.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}
