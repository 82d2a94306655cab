package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/clinicbr/backoffice-api/internal/model"
	"github.com/clinicbr/backoffice-api/internal/repository"
	apperrors "github.com/clinicbr/backoffice-api/pkg/errors"
)

var (
	// ErrNothingToBill means the generation window matched no performed
	// appointments; no invoice is created.
	ErrNothingToBill = errors.New("no performed appointments to bill in period")
	// ErrNotIssuable covers both a missing invoice and one whose state
	// forbids issuing; callers get a single signal for both.
	ErrNotIssuable = errors.New("invoice not found or not issuable")
	// ErrNotCancellable covers both a missing invoice and a paid one.
	ErrNotCancellable = errors.New("invoice not found or not cancellable")
)

type Service struct {
	invoiceRepo     repository.InvoiceRepository
	appointmentRepo repository.AppointmentRepository
	profileRepo     repository.ProfileRepository
}

func NewService(
	invoiceRepo repository.InvoiceRepository,
	appointmentRepo repository.AppointmentRepository,
	profileRepo repository.ProfileRepository,
) *Service {
	return &Service{
		invoiceRepo:     invoiceRepo,
		appointmentRepo: appointmentRepo,
		profileRepo:     profileRepo,
	}
}

// GenerateForPeriod aggregates every performed appointment inside the
// window into a Draft invoice at a flat per-appointment rate. Appointments
// already billed on a non-cancelled invoice are skipped, so overlapping
// windows cannot double-bill.
func (s *Service) GenerateForPeriod(ctx context.Context, req *model.GenerateInvoiceRequest) (*model.Invoice, error) {
	appointments, err := s.appointmentRepo.ListUnbilledPerformed(ctx, req.PeriodStart, req.PeriodEnd, req.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query performed appointments: %w", err)
	}
	if len(appointments) == 0 {
		return nil, ErrNothingToBill
	}

	rate := req.RatePerAppointment.Round(2)
	total := rate.Mul(decimal.NewFromInt(int64(len(appointments))))

	inv := &model.Invoice{
		IssuedAt:         time.Now(),
		PeriodStart:      req.PeriodStart,
		PeriodEnd:        req.PeriodEnd,
		ProfileID:        req.ProfileID,
		Total:            total,
		AppointmentCount: len(appointments),
		Status:           model.InvoiceStatusDraft,
		Notes:            req.Notes,
	}

	items := make([]model.InvoiceItem, 0, len(appointments))
	for _, apt := range appointments {
		items = append(items, model.InvoiceItem{
			AppointmentID: apt.ID,
			Amount:        rate,
		})
	}

	if err := s.invoiceRepo.CreateWithItems(ctx, inv, items); err != nil {
		return nil, fmt.Errorf("failed to persist invoice: %w", err)
	}

	log.Info().
		Str("invoice_id", inv.ID.String()).
		Int("appointments", inv.AppointmentCount).
		Str("total", inv.Total.String()).
		Msg("invoice generated for period")

	return s.invoiceRepo.Get(ctx, inv.ID)
}

// CreateStandalone creates a single-charge invoice directly. A nil
// appointment reference is accepted and yields a manual unlinked invoice
// with no line items.
func (s *Service) CreateStandalone(ctx context.Context, req *model.CreateStandaloneInvoiceRequest) (*model.Invoice, error) {
	if req.ProfileID != nil {
		exists, err := s.profileRepo.Exists(ctx, *req.ProfileID)
		if err != nil {
			return nil, fmt.Errorf("failed to check profile: %w", err)
		}
		if !exists {
			return nil, apperrors.NewValidation(fmt.Sprintf("profile %s not found", *req.ProfileID))
		}
	}

	amount := req.Amount.Round(2)
	var items []model.InvoiceItem

	if req.AppointmentID != nil && *req.AppointmentID != uuid.Nil {
		exists, err := s.appointmentRepo.Exists(ctx, *req.AppointmentID)
		if err != nil {
			return nil, fmt.Errorf("failed to check appointment: %w", err)
		}
		if !exists {
			return nil, apperrors.NewValidation(fmt.Sprintf("appointment %s not found", *req.AppointmentID))
		}
		items = append(items, model.InvoiceItem{
			AppointmentID: *req.AppointmentID,
			Amount:        amount,
		})
	}

	inv := &model.Invoice{
		IssuedAt:         req.Date,
		PeriodStart:      req.Date,
		PeriodEnd:        req.Date,
		ProfileID:        req.ProfileID,
		Total:            amount,
		AppointmentCount: 1,
		Status:           model.InvoiceStatusDraft,
		Notes:            req.Notes,
	}

	if err := s.invoiceRepo.CreateWithItems(ctx, inv, items); err != nil {
		return nil, fmt.Errorf("failed to persist invoice: %w", err)
	}
	return s.invoiceRepo.Get(ctx, inv.ID)
}

// Issue transitions a Draft invoice to Issued. Any other starting state,
// a missing invoice, or a concurrent modification all report
// ErrNotIssuable and leave the row untouched.
func (s *Service) Issue(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	inv, err := s.invoiceRepo.Get(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, ErrNotIssuable
		}
		return nil, err
	}

	if !inv.Status.CanIssue() {
		return nil, ErrNotIssuable
	}

	ok, err := s.invoiceRepo.UpdateStatus(ctx, id, model.InvoiceStatusIssued, inv.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to issue invoice: %w", err)
	}
	if !ok {
		return nil, ErrNotIssuable
	}

	log.Info().Str("invoice_id", id.String()).Msg("invoice issued")
	return s.invoiceRepo.Get(ctx, id)
}

// Cancel transitions an invoice to Cancelled. Only Paid refuses; a
// cancelled invoice cancels again idempotently.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	inv, err := s.invoiceRepo.Get(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, ErrNotCancellable
		}
		return nil, err
	}

	if !inv.Status.CanCancel() {
		return nil, ErrNotCancellable
	}

	ok, err := s.invoiceRepo.UpdateStatus(ctx, id, model.InvoiceStatusCancelled, inv.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel invoice: %w", err)
	}
	if !ok {
		return nil, ErrNotCancellable
	}

	log.Info().Str("invoice_id", id.String()).Msg("invoice cancelled")
	return s.invoiceRepo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	return s.invoiceRepo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*model.Invoice, error) {
	return s.invoiceRepo.List(ctx)
}

func (s *Service) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]*model.Invoice, error) {
	return s.invoiceRepo.ListByProfile(ctx, profileID)
}

func (s *Service) ListByPeriod(ctx context.Context, start, end time.Time) ([]*model.Invoice, error) {
	return s.invoiceRepo.ListByPeriod(ctx, start, end)
}

// Delete removes an invoice unconditionally; line items cascade.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.invoiceRepo.Delete(ctx, id)
}
