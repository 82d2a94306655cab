package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicbr/backoffice-api/internal/model"
)

// All repository interfaces in one file
type (
	// UserRepository handles login account records
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error
	}

	// ProfileRepository handles staff operational identities
	ProfileRepository interface {
		Create(ctx context.Context, profile *model.Profile) error
		Get(ctx context.Context, id uuid.UUID) (*model.Profile, error)
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
		List(ctx context.Context) ([]*model.Profile, error)
		Update(ctx context.Context, profile *model.Profile) error
		Delete(ctx context.Context, id uuid.UUID) error
		Exists(ctx context.Context, id uuid.UUID) (bool, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		List(ctx context.Context) ([]*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		Delete(ctx context.Context, id uuid.UUID) error
	}

	DocumentRepository interface {
		Create(ctx context.Context, doc *model.Document) error
		Get(ctx context.Context, id uuid.UUID) (*model.Document, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Document, error)
		Delete(ctx context.Context, id uuid.UUID) error
	}

	AppointmentRepository interface {
		Create(ctx context.Context, apt *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, apt *model.Appointment) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Appointment, error)
		ListByProfile(ctx context.Context, profileID uuid.UUID) ([]*model.Appointment, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error)
		// ListUnbilledPerformed returns performed appointments inside
		// [start, end] (inclusive), optionally restricted to one profile,
		// excluding appointments already referenced by a line item of any
		// non-cancelled invoice.
		ListUnbilledPerformed(ctx context.Context, start, end time.Time, profileID *uuid.UUID) ([]*model.Appointment, error)
		Exists(ctx context.Context, id uuid.UUID) (bool, error)
	}

	InvoiceRepository interface {
		// CreateWithItems persists an invoice and its line items in one
		// transaction.
		CreateWithItems(ctx context.Context, inv *model.Invoice, items []model.InvoiceItem) error
		// Get returns the invoice hydrated with profile, items, each
		// item's appointment and that appointment's patient.
		Get(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
		List(ctx context.Context) ([]*model.Invoice, error)
		ListByProfile(ctx context.Context, profileID uuid.UUID) ([]*model.Invoice, error)
		ListByPeriod(ctx context.Context, start, end time.Time) ([]*model.Invoice, error)
		// UpdateStatus transitions an invoice read at the given version.
		// It reports false without error when the row is gone or the
		// version moved, which callers fold into their state-guard signal.
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.InvoiceStatus, version int) (bool, error)
		Delete(ctx context.Context, id uuid.UUID) error
	}

	// ResetTokenStore tracks consumed password-reset tokens so each one
	// is honoured at most once.
	ResetTokenStore interface {
		Consume(ctx context.Context, tokenID string, ttl time.Duration) error
	}
)
