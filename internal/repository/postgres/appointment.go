package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/clinicbr/backoffice-api/internal/model"
	apperrors "github.com/clinicbr/backoffice-api/pkg/errors"
)

const fkViolation = "23503"

func (r *appointmentRepository) Create(ctx context.Context, apt *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, scheduled_at, kind, status, notes, patient_id, profile_id,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	apt.ID = uuid.New()
	apt.CreatedAt = time.Now()
	apt.UpdatedAt = apt.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		apt.ID,
		apt.ScheduledAt,
		apt.Kind,
		apt.Status,
		apt.Notes,
		apt.PatientID,
		apt.ProfileID,
		apt.CreatedAt,
		apt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, scheduled_at, kind, status, notes, patient_id, profile_id,
		       created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var apt model.Appointment
	err := r.db.GetContext(ctx, &apt, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("appointment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &apt, nil
}

func (r *appointmentRepository) Update(ctx context.Context, apt *model.Appointment) error {
	query := `
		UPDATE appointments
		SET scheduled_at = $1, kind = $2, status = $3, notes = $4, updated_at = $5
		WHERE id = $6
	`
	apt.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		apt.ScheduledAt,
		apt.Kind,
		apt.Status,
		apt.Notes,
		apt.UpdatedAt,
		apt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NewNotFound("appointment", nil)
	}
	return nil
}

// Delete removes an appointment. Appointments referenced by an invoice
// line item are protected by an FK RESTRICT constraint; the violation is
// surfaced as a validation error so callers reconcile the invoice first.
func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM appointments WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == fkViolation {
			return apperrors.NewValidation(
				fmt.Sprintf("appointment %s is referenced by an invoice and cannot be deleted", id))
		}
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NewNotFound("appointment", nil)
	}
	return nil
}

func (r *appointmentRepository) List(ctx context.Context) ([]*model.Appointment, error) {
	query := `
		SELECT id, scheduled_at, kind, status, notes, patient_id, profile_id,
		       created_at, updated_at
		FROM appointments
		ORDER BY scheduled_at ASC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT id, scheduled_at, kind, status, notes, patient_id, profile_id,
		       created_at, updated_at
		FROM appointments
		WHERE profile_id = $1
		ORDER BY scheduled_at ASC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, profileID); err != nil {
		return nil, fmt.Errorf("failed to list appointments by profile: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT id, scheduled_at, kind, status, notes, patient_id, profile_id,
		       created_at, updated_at
		FROM appointments
		WHERE patient_id = $1
		ORDER BY scheduled_at ASC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list appointments by patient: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListUnbilledPerformed(ctx context.Context, start, end time.Time, profileID *uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT a.id, a.scheduled_at, a.kind, a.status, a.notes, a.patient_id, a.profile_id,
		       a.created_at, a.updated_at
		FROM appointments a
		WHERE a.status = $1
		AND a.scheduled_at >= $2
		AND a.scheduled_at <= $3
		AND NOT EXISTS (
			SELECT 1 FROM invoice_items ii
			JOIN invoices i ON i.id = ii.invoice_id
			WHERE ii.appointment_id = a.id
			AND i.status != $4
		)
	`
	args := []interface{}{model.AppointmentStatusPerformed, start, end, model.InvoiceStatusCancelled}

	if profileID != nil {
		query += " AND a.profile_id = $5"
		args = append(args, *profileID)
	}

	query += " ORDER BY a.scheduled_at ASC"

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list performed appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("failed to check appointment existence: %w", err)
	}
	return exists, nil
}
