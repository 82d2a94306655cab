package model

import (
	"github.com/google/uuid"
)

// Profile type constants. An empty type means the profile was created
// without an operational role and maps to RoleDefault.
const (
	ProfileTypeProfessional = "professional"
	ProfileTypeManagerial   = "managerial"
)

// Profile is a staff member's operational identity, distinct from their
// login account. Each account has at most one profile.
type Profile struct {
	Base
	UserID              uuid.UUID `json:"user_id" db:"user_id"`
	FullName            string    `json:"full_name" db:"full_name"`
	Type                string    `json:"type" db:"type"`
	CouncilRegistration *string   `json:"council_registration,omitempty" db:"council_registration"`
	Specialty           *string   `json:"specialty,omitempty" db:"specialty"`
}

// Role maps the profile type to the authorization role embedded in tokens.
func (p *Profile) Role() Role {
	switch {
	case p == nil, p.Type == "":
		return RoleDefault
	case p.Type == ProfileTypeManagerial:
		return RoleManagerial
	default:
		return RoleProfessional
	}
}

// CreateProfileRequest represents profile registration parameters
type CreateProfileRequest struct {
	UserID              uuid.UUID `json:"user_id" binding:"required"`
	FullName            string    `json:"full_name" binding:"required"`
	Type                string    `json:"type" binding:"omitempty,oneof=professional managerial"`
	CouncilRegistration *string   `json:"council_registration"`
	Specialty           *string   `json:"specialty"`
}

// UpdateProfileRequest represents profile update parameters
type UpdateProfileRequest struct {
	FullName            *string `json:"full_name"`
	Type                *string `json:"type" binding:"omitempty,oneof=professional managerial"`
	CouncilRegistration *string `json:"council_registration"`
	Specialty           *string `json:"specialty"`
}
