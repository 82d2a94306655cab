package model

import (
	"time"
)

// Patient represents a clinic patient record.
type Patient struct {
	Base
	FullName  string    `json:"full_name" db:"full_name"`
	BirthDate time.Time `json:"birth_date" db:"birth_date"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	Email     *string   `json:"email,omitempty" db:"email"`
}

// CreatePatientRequest represents patient creation parameters
type CreatePatientRequest struct {
	FullName  string    `json:"full_name" binding:"required"`
	BirthDate time.Time `json:"birth_date" binding:"required"`
	Phone     *string   `json:"phone"`
	Email     *string   `json:"email" binding:"omitempty,email"`
}

// UpdatePatientRequest represents patient update parameters
type UpdatePatientRequest struct {
	FullName  *string    `json:"full_name"`
	BirthDate *time.Time `json:"birth_date"`
	Phone     *string    `json:"phone"`
	Email     *string    `json:"email" binding:"omitempty,email"`
}
