package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/clinicbr/backoffice-api/internal/model"
	apperrors "github.com/clinicbr/backoffice-api/pkg/errors"
)

const invoiceColumns = `
	id, issued_at, period_start, period_end, profile_id, total,
	appointment_count, status, notes, version, created_at, updated_at
`

// CreateWithItems persists the invoice and all its line items inside a
// single transaction so a crash cannot leave a period invoice without the
// items it was generated from.
func (r *invoiceRepository) CreateWithItems(ctx context.Context, inv *model.Invoice, items []model.InvoiceItem) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	inv.ID = uuid.New()
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt
	inv.Version = 1

	insertInvoice := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = tx.ExecContext(ctx, insertInvoice,
		inv.ID,
		inv.IssuedAt,
		inv.PeriodStart,
		inv.PeriodEnd,
		inv.ProfileID,
		inv.Total,
		inv.AppointmentCount,
		inv.Status,
		inv.Notes,
		inv.Version,
		inv.CreatedAt,
		inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	insertItem := `
		INSERT INTO invoice_items (
			id, invoice_id, appointment_id, amount, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i := range items {
		items[i].ID = uuid.New()
		items[i].InvoiceID = inv.ID
		items[i].CreatedAt = inv.CreatedAt
		items[i].UpdatedAt = inv.CreatedAt

		_, err = tx.ExecContext(ctx, insertItem,
			items[i].ID,
			items[i].InvoiceID,
			items[i].AppointmentID,
			items[i].Amount,
			items[i].CreatedAt,
			items[i].UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create invoice item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit invoice: %w", err)
	}

	inv.Items = items
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`

	var inv model.Invoice
	err := r.db.GetContext(ctx, &inv, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("invoice", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	if err := r.hydrate(ctx, []*model.Invoice{&inv}); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepository) List(ctx context.Context) ([]*model.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices ORDER BY issued_at DESC`

	var invoices []*model.Invoice
	if err := r.db.SelectContext(ctx, &invoices, query); err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	if err := r.hydrate(ctx, invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *invoiceRepository) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]*model.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE profile_id = $1 ORDER BY issued_at DESC`

	var invoices []*model.Invoice
	if err := r.db.SelectContext(ctx, &invoices, query, profileID); err != nil {
		return nil, fmt.Errorf("failed to list invoices by profile: %w", err)
	}

	if err := r.hydrate(ctx, invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *invoiceRepository) ListByPeriod(ctx context.Context, start, end time.Time) ([]*model.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE period_start >= $1 AND period_end <= $2
		ORDER BY issued_at DESC
	`
	var invoices []*model.Invoice
	if err := r.db.SelectContext(ctx, &invoices, query, start, end); err != nil {
		return nil, fmt.Errorf("failed to list invoices by period: %w", err)
	}

	if err := r.hydrate(ctx, invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

// UpdateStatus applies a state transition read at the given version. A
// false result means the row is gone or was modified concurrently; the
// caller folds both into its state-guard signal.
func (r *invoiceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.InvoiceStatus, version int) (bool, error) {
	query := `
		UPDATE invoices
		SET status = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4
	`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id, version)
	if err != nil {
		return false, fmt.Errorf("failed to update invoice status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// Delete removes an invoice; line items cascade at the storage layer.
func (r *invoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM invoices WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NewNotFound("invoice", nil)
	}
	return nil
}

type invoiceItemRow struct {
	ID            uuid.UUID       `db:"id"`
	InvoiceID     uuid.UUID       `db:"invoice_id"`
	AppointmentID uuid.UUID       `db:"appointment_id"`
	Amount        decimal.Decimal `db:"amount"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`

	AptScheduledAt time.Time             `db:"apt_scheduled_at"`
	AptKind        model.AppointmentKind `db:"apt_kind"`
	AptStatus      string                `db:"apt_status"`
	AptNotes       string                `db:"apt_notes"`
	AptPatientID   uuid.UUID             `db:"apt_patient_id"`
	AptProfileID   uuid.UUID             `db:"apt_profile_id"`

	PatientName      string    `db:"patient_name"`
	PatientBirthDate time.Time `db:"patient_birth_date"`
	PatientPhone     *string   `db:"patient_phone"`
	PatientEmail     *string   `db:"patient_email"`
}

// hydrate attaches items (with their appointment and patient) and the
// owning profile to each invoice, so callers render an invoice in one
// round trip.
func (r *invoiceRepository) hydrate(ctx context.Context, invoices []*model.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(invoices))
	byID := make(map[uuid.UUID]*model.Invoice, len(invoices))
	for _, inv := range invoices {
		inv.Items = []model.InvoiceItem{}
		ids = append(ids, inv.ID)
		byID[inv.ID] = inv
	}

	itemQuery := `
		SELECT ii.id, ii.invoice_id, ii.appointment_id, ii.amount,
		       ii.created_at, ii.updated_at,
		       a.scheduled_at AS apt_scheduled_at, a.kind AS apt_kind,
		       a.status AS apt_status, a.notes AS apt_notes,
		       a.patient_id AS apt_patient_id, a.profile_id AS apt_profile_id,
		       p.full_name AS patient_name, p.birth_date AS patient_birth_date,
		       p.phone AS patient_phone, p.email AS patient_email
		FROM invoice_items ii
		JOIN appointments a ON a.id = ii.appointment_id
		JOIN patients p ON p.id = a.patient_id
		WHERE ii.invoice_id = ANY($1)
		ORDER BY a.scheduled_at ASC
	`
	var rows []invoiceItemRow
	if err := r.db.SelectContext(ctx, &rows, itemQuery, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to load invoice items: %w", err)
	}

	for _, row := range rows {
		inv, ok := byID[row.InvoiceID]
		if !ok {
			continue
		}
		inv.Items = append(inv.Items, model.InvoiceItem{
			Base: model.Base{
				ID:        row.ID,
				CreatedAt: row.CreatedAt,
				UpdatedAt: row.UpdatedAt,
			},
			InvoiceID:     row.InvoiceID,
			AppointmentID: row.AppointmentID,
			Amount:        row.Amount,
			Appointment: &model.Appointment{
				Base:        model.Base{ID: row.AppointmentID},
				ScheduledAt: row.AptScheduledAt,
				Kind:        row.AptKind,
				Status:      row.AptStatus,
				Notes:       row.AptNotes,
				PatientID:   row.AptPatientID,
				ProfileID:   row.AptProfileID,
				Patient: &model.Patient{
					Base:      model.Base{ID: row.AptPatientID},
					FullName:  row.PatientName,
					BirthDate: row.PatientBirthDate,
					Phone:     row.PatientPhone,
					Email:     row.PatientEmail,
				},
			},
		})
	}

	profileIDs := make([]uuid.UUID, 0, len(invoices))
	seen := make(map[uuid.UUID]bool)
	for _, inv := range invoices {
		if inv.ProfileID != nil && !seen[*inv.ProfileID] {
			seen[*inv.ProfileID] = true
			profileIDs = append(profileIDs, *inv.ProfileID)
		}
	}
	if len(profileIDs) == 0 {
		return nil
	}

	profileQuery := `
		SELECT id, user_id, full_name, type, council_registration, specialty,
		       created_at, updated_at
		FROM profiles
		WHERE id = ANY($1)
	`
	var profiles []*model.Profile
	if err := r.db.SelectContext(ctx, &profiles, profileQuery, pq.Array(profileIDs)); err != nil {
		return fmt.Errorf("failed to load invoice profiles: %w", err)
	}

	profileByID := make(map[uuid.UUID]*model.Profile, len(profiles))
	for _, p := range profiles {
		profileByID[p.ID] = p
	}
	for _, inv := range invoices {
		if inv.ProfileID != nil {
			inv.Profile = profileByID[*inv.ProfileID]
		}
	}
	return nil
}
