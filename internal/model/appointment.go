package model

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentKind enumerates the kinds of clinical encounter.
type AppointmentKind int

const (
	AppointmentKindVisit AppointmentKind = iota
	AppointmentKindIntake
	AppointmentKindExternalVisit
	AppointmentKindTherapySession
	AppointmentKindMeeting
)

func (k AppointmentKind) String() string {
	switch k {
	case AppointmentKindVisit:
		return "visit"
	case AppointmentKindIntake:
		return "intake"
	case AppointmentKindExternalVisit:
		return "external_visit"
	case AppointmentKindTherapySession:
		return "therapy_session"
	case AppointmentKindMeeting:
		return "meeting"
	default:
		return "unknown"
	}
}

// Appointment status values. The column is free text by design; these are
// the two values the system itself writes. Only performed appointments are
// eligible for period billing.
const (
	AppointmentStatusScheduled = "Agendado"
	AppointmentStatusPerformed = "Realizado"
)

// Appointment is a scheduled clinical encounter.
type Appointment struct {
	Base
	ScheduledAt time.Time       `json:"scheduled_at" db:"scheduled_at"`
	Kind        AppointmentKind `json:"kind" db:"kind"`
	Status      string          `json:"status" db:"status"`
	Notes       string          `json:"notes" db:"notes"`
	PatientID   uuid.UUID       `json:"patient_id" db:"patient_id"`
	ProfileID   uuid.UUID       `json:"profile_id" db:"profile_id"`

	// Patient is populated on hydrated reads.
	Patient *Patient `json:"patient,omitempty" db:"-"`
}

// CreateAppointmentRequest represents appointment creation parameters.
// ProfileID is ignored for non-managerial callers, who always schedule
// against their own profile.
type CreateAppointmentRequest struct {
	ScheduledAt time.Time       `json:"scheduled_at" binding:"required"`
	Kind        AppointmentKind `json:"kind" binding:"min=0,max=4"`
	Status      string          `json:"status"`
	Notes       string          `json:"notes" binding:"max=2000"`
	PatientID   uuid.UUID       `json:"patient_id" binding:"required"`
	ProfileID   uuid.UUID       `json:"profile_id"`
}

// UpdateAppointmentRequest represents appointment update parameters
type UpdateAppointmentRequest struct {
	ScheduledAt *time.Time       `json:"scheduled_at"`
	Kind        *AppointmentKind `json:"kind" binding:"omitempty,min=0,max=4"`
	Status      *string          `json:"status"`
	Notes       *string          `json:"notes" binding:"omitempty,max=2000"`
}
