package invoice

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicbr/backoffice-api/internal/model"
	apperrors "github.com/clinicbr/backoffice-api/pkg/errors"
)

type fakeInvoiceRepo struct {
	invoices map[uuid.UUID]*model.Invoice
	items    map[uuid.UUID][]model.InvoiceItem
	billed   map[uuid.UUID]bool

	// afterGet, when set, runs after each Get. Tests use it to interleave
	// a concurrent write between a read and the following status update.
	afterGet func()
}

func newFakeInvoiceRepo(billed map[uuid.UUID]bool) *fakeInvoiceRepo {
	return &fakeInvoiceRepo{
		invoices: make(map[uuid.UUID]*model.Invoice),
		items:    make(map[uuid.UUID][]model.InvoiceItem),
		billed:   billed,
	}
}

func (r *fakeInvoiceRepo) CreateWithItems(_ context.Context, inv *model.Invoice, items []model.InvoiceItem) error {
	inv.ID = uuid.New()
	inv.Version = 1
	stored := *inv
	r.invoices[inv.ID] = &stored
	for i := range items {
		items[i].ID = uuid.New()
		items[i].InvoiceID = inv.ID
		r.billed[items[i].AppointmentID] = true
	}
	r.items[inv.ID] = items
	return nil
}

func (r *fakeInvoiceRepo) Get(_ context.Context, id uuid.UUID) (*model.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, apperrors.NewNotFound("invoice", nil)
	}
	out := *inv
	out.Items = r.items[id]
	if r.afterGet != nil {
		r.afterGet()
	}
	return &out, nil
}

func (r *fakeInvoiceRepo) List(_ context.Context) ([]*model.Invoice, error) {
	var out []*model.Invoice
	for _, inv := range r.invoices {
		out = append(out, inv)
	}
	return out, nil
}

func (r *fakeInvoiceRepo) ListByProfile(_ context.Context, profileID uuid.UUID) ([]*model.Invoice, error) {
	var out []*model.Invoice
	for _, inv := range r.invoices {
		if inv.ProfileID != nil && *inv.ProfileID == profileID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) ListByPeriod(_ context.Context, start, end time.Time) ([]*model.Invoice, error) {
	var out []*model.Invoice
	for _, inv := range r.invoices {
		if !inv.PeriodStart.Before(start) && !inv.PeriodEnd.After(end) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.InvoiceStatus, version int) (bool, error) {
	inv, ok := r.invoices[id]
	if !ok || inv.Version != version {
		return false, nil
	}
	inv.Status = status
	inv.Version++
	return true, nil
}

func (r *fakeInvoiceRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.invoices[id]; !ok {
		return apperrors.NewNotFound("invoice", nil)
	}
	delete(r.invoices, id)
	delete(r.items, id)
	return nil
}

type fakeAppointmentRepo struct {
	unbilled []*model.Appointment
	existing map[uuid.UUID]bool
	billed   map[uuid.UUID]bool
}

func (r *fakeAppointmentRepo) Create(context.Context, *model.Appointment) error { return nil }
func (r *fakeAppointmentRepo) Get(context.Context, uuid.UUID) (*model.Appointment, error) {
	return nil, apperrors.NewNotFound("appointment", nil)
}
func (r *fakeAppointmentRepo) Update(context.Context, *model.Appointment) error { return nil }
func (r *fakeAppointmentRepo) Delete(context.Context, uuid.UUID) error          { return nil }
func (r *fakeAppointmentRepo) List(context.Context) ([]*model.Appointment, error) {
	return nil, nil
}
func (r *fakeAppointmentRepo) ListByProfile(context.Context, uuid.UUID) ([]*model.Appointment, error) {
	return nil, nil
}
func (r *fakeAppointmentRepo) ListByPatient(context.Context, uuid.UUID) ([]*model.Appointment, error) {
	return nil, nil
}

func (r *fakeAppointmentRepo) ListUnbilledPerformed(_ context.Context, start, end time.Time, profileID *uuid.UUID) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, apt := range r.unbilled {
		if apt.ScheduledAt.Before(start) || apt.ScheduledAt.After(end) {
			continue
		}
		if profileID != nil && apt.ProfileID != *profileID {
			continue
		}
		if r.billed[apt.ID] {
			continue
		}
		out = append(out, apt)
	}
	return out, nil
}

func (r *fakeAppointmentRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return r.existing[id], nil
}

type fakeProfileRepo struct {
	existing map[uuid.UUID]bool
}

func (r *fakeProfileRepo) Create(context.Context, *model.Profile) error { return nil }
func (r *fakeProfileRepo) Get(context.Context, uuid.UUID) (*model.Profile, error) {
	return nil, apperrors.NewNotFound("profile", nil)
}
func (r *fakeProfileRepo) GetByUserID(context.Context, uuid.UUID) (*model.Profile, error) {
	return nil, apperrors.NewNotFound("profile", nil)
}
func (r *fakeProfileRepo) List(context.Context) ([]*model.Profile, error)  { return nil, nil }
func (r *fakeProfileRepo) Update(context.Context, *model.Profile) error    { return nil }
func (r *fakeProfileRepo) Delete(context.Context, uuid.UUID) error         { return nil }
func (r *fakeProfileRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return r.existing[id], nil
}

func performedAppointment(profileID uuid.UUID, at time.Time) *model.Appointment {
	return &model.Appointment{
		Base:        model.Base{ID: uuid.New()},
		ScheduledAt: at,
		Status:      model.AppointmentStatusPerformed,
		ProfileID:   profileID,
	}
}

func newTestService(unbilled []*model.Appointment) (*Service, *fakeInvoiceRepo) {
	billed := make(map[uuid.UUID]bool)
	invRepo := newFakeInvoiceRepo(billed)
	aptRepo := &fakeAppointmentRepo{unbilled: unbilled, existing: make(map[uuid.UUID]bool), billed: billed}
	profRepo := &fakeProfileRepo{existing: make(map[uuid.UUID]bool)}
	return NewService(invRepo, aptRepo, profRepo), invRepo
}

func TestGenerateForPeriod(t *testing.T) {
	profileID := uuid.New()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	appointments := []*model.Appointment{
		performedAppointment(profileID, base),
		performedAppointment(profileID, base.AddDate(0, 0, 5)),
		performedAppointment(profileID, base.AddDate(0, 0, 10)),
	}

	svc, _ := newTestService(appointments)

	inv, err := svc.GenerateForPeriod(context.Background(), &model.GenerateInvoiceRequest{
		PeriodStart:        base.AddDate(0, 0, -1),
		PeriodEnd:          base.AddDate(0, 1, 0),
		RatePerAppointment: decimal.RequireFromString("150.555"),
	})
	require.NoError(t, err)

	assert.Equal(t, model.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, 3, inv.AppointmentCount)
	assert.Len(t, inv.Items, 3)
	// 150.555 rounds to 150.56 before multiplying
	assert.True(t, inv.Total.Equal(decimal.RequireFromString("451.68")), "total: %s", inv.Total)
	for _, item := range inv.Items {
		assert.True(t, item.Amount.Equal(decimal.RequireFromString("150.56")))
	}
}

func TestGenerateForPeriodEmptyWindow(t *testing.T) {
	profileID := uuid.New()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, invRepo := newTestService([]*model.Appointment{
		performedAppointment(profileID, base),
	})

	_, err := svc.GenerateForPeriod(context.Background(), &model.GenerateInvoiceRequest{
		PeriodStart:        base.AddDate(0, 2, 0),
		PeriodEnd:          base.AddDate(0, 3, 0),
		RatePerAppointment: decimal.NewFromInt(100),
	})
	assert.ErrorIs(t, err, ErrNothingToBill)
	assert.Empty(t, invRepo.invoices, "no invoice may be created for an empty window")
}

func TestGenerateForPeriodProfileFilter(t *testing.T) {
	mine := uuid.New()
	other := uuid.New()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestService([]*model.Appointment{
		performedAppointment(mine, base),
		performedAppointment(other, base.AddDate(0, 0, 1)),
		performedAppointment(mine, base.AddDate(0, 0, 2)),
	})

	inv, err := svc.GenerateForPeriod(context.Background(), &model.GenerateInvoiceRequest{
		PeriodStart:        base.AddDate(0, 0, -1),
		PeriodEnd:          base.AddDate(0, 1, 0),
		RatePerAppointment: decimal.NewFromInt(200),
		ProfileID:          &mine,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, inv.AppointmentCount)
	assert.True(t, inv.Total.Equal(decimal.NewFromInt(400)))
	require.NotNil(t, inv.ProfileID)
	assert.Equal(t, mine, *inv.ProfileID)
}

func TestGenerateForPeriodSkipsBilledAppointments(t *testing.T) {
	profileID := uuid.New()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, invRepo := newTestService([]*model.Appointment{
		performedAppointment(profileID, base),
		performedAppointment(profileID, base.AddDate(0, 0, 3)),
	})

	req := &model.GenerateInvoiceRequest{
		PeriodStart:        base.AddDate(0, 0, -1),
		PeriodEnd:          base.AddDate(0, 1, 0),
		RatePerAppointment: decimal.NewFromInt(120),
	}
	_, err := svc.GenerateForPeriod(context.Background(), req)
	require.NoError(t, err)

	// the same window again finds nothing billable
	_, err = svc.GenerateForPeriod(context.Background(), req)
	assert.ErrorIs(t, err, ErrNothingToBill)
	assert.Len(t, invRepo.invoices, 1)
}

func TestCreateStandaloneUnlinked(t *testing.T) {
	svc, _ := newTestService(nil)

	inv, err := svc.CreateStandalone(context.Background(), &model.CreateStandaloneInvoiceRequest{
		Amount: decimal.RequireFromString("99.90"),
		Date:   time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, model.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, 1, inv.AppointmentCount)
	assert.Empty(t, inv.Items, "unlinked invoice carries no line items")
	assert.Equal(t, inv.PeriodStart, inv.PeriodEnd)
}

func TestCreateStandaloneLinked(t *testing.T) {
	invRepo := newFakeInvoiceRepo(make(map[uuid.UUID]bool))
	aptID := uuid.New()
	aptRepo := &fakeAppointmentRepo{existing: map[uuid.UUID]bool{aptID: true}}
	profRepo := &fakeProfileRepo{existing: make(map[uuid.UUID]bool)}
	svc := NewService(invRepo, aptRepo, profRepo)

	inv, err := svc.CreateStandalone(context.Background(), &model.CreateStandaloneInvoiceRequest{
		Amount:        decimal.NewFromInt(80),
		Date:          time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC),
		AppointmentID: &aptID,
	})
	require.NoError(t, err)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, aptID, inv.Items[0].AppointmentID)
}

func TestCreateStandaloneUnknownProfile(t *testing.T) {
	svc, invRepo := newTestService(nil)
	missing := uuid.New()

	_, err := svc.CreateStandalone(context.Background(), &model.CreateStandaloneInvoiceRequest{
		Amount:    decimal.NewFromInt(80),
		Date:      time.Now(),
		ProfileID: &missing,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), missing.String())
	assert.Empty(t, invRepo.invoices, "validation failure must not persist anything")
}

func TestCreateStandaloneUnknownAppointment(t *testing.T) {
	svc, invRepo := newTestService(nil)
	missing := uuid.New()

	_, err := svc.CreateStandalone(context.Background(), &model.CreateStandaloneInvoiceRequest{
		Amount:        decimal.NewFromInt(80),
		Date:          time.Now(),
		AppointmentID: &missing,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Empty(t, invRepo.invoices)
}

func TestIssueLifecycle(t *testing.T) {
	profileID := uuid.New()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestService([]*model.Appointment{performedAppointment(profileID, base)})

	inv, err := svc.GenerateForPeriod(context.Background(), &model.GenerateInvoiceRequest{
		PeriodStart:        base.AddDate(0, 0, -1),
		PeriodEnd:          base.AddDate(0, 0, 1),
		RatePerAppointment: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	issued, err := svc.Issue(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusIssued, issued.Status)

	// Issuing twice fails: the invoice is no longer Draft.
	_, err = svc.Issue(context.Background(), inv.ID)
	assert.ErrorIs(t, err, ErrNotIssuable)
}

func TestIssueUnknownInvoice(t *testing.T) {
	svc, _ := newTestService(nil)
	_, err := svc.Issue(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotIssuable)
}

func TestCancelIdempotent(t *testing.T) {
	profileID := uuid.New()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestService([]*model.Appointment{performedAppointment(profileID, base)})

	inv, err := svc.GenerateForPeriod(context.Background(), &model.GenerateInvoiceRequest{
		PeriodStart:        base.AddDate(0, 0, -1),
		PeriodEnd:          base.AddDate(0, 0, 1),
		RatePerAppointment: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusCancelled, cancelled.Status)

	again, err := svc.Cancel(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusCancelled, again.Status)
}

func TestCancelIssuedInvoice(t *testing.T) {
	profileID := uuid.New()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestService([]*model.Appointment{performedAppointment(profileID, base)})

	inv, err := svc.GenerateForPeriod(context.Background(), &model.GenerateInvoiceRequest{
		PeriodStart:        base.AddDate(0, 0, -1),
		PeriodEnd:          base.AddDate(0, 0, 1),
		RatePerAppointment: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	_, err = svc.Issue(context.Background(), inv.ID)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusCancelled, cancelled.Status)
}

func TestCancelPaidInvoiceRefused(t *testing.T) {
	profileID := uuid.New()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, invRepo := newTestService([]*model.Appointment{performedAppointment(profileID, base)})

	inv, err := svc.GenerateForPeriod(context.Background(), &model.GenerateInvoiceRequest{
		PeriodStart:        base.AddDate(0, 0, -1),
		PeriodEnd:          base.AddDate(0, 0, 1),
		RatePerAppointment: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	// Payment reconciliation happens outside this service.
	invRepo.invoices[inv.ID].Status = model.InvoiceStatusPaid

	_, err = svc.Cancel(context.Background(), inv.ID)
	assert.ErrorIs(t, err, ErrNotCancellable)

	_, err = svc.Issue(context.Background(), inv.ID)
	assert.ErrorIs(t, err, ErrNotIssuable)
}

func TestIssueConcurrentModification(t *testing.T) {
	profileID := uuid.New()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, invRepo := newTestService([]*model.Appointment{performedAppointment(profileID, base)})

	inv, err := svc.GenerateForPeriod(context.Background(), &model.GenerateInvoiceRequest{
		PeriodStart:        base.AddDate(0, 0, -1),
		PeriodEnd:          base.AddDate(0, 0, 1),
		RatePerAppointment: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	// Someone else bumps the version between our read and write.
	invRepo.afterGet = func() {
		invRepo.invoices[inv.ID].Version++
		invRepo.afterGet = nil
	}

	_, err = svc.Issue(context.Background(), inv.ID)
	assert.ErrorIs(t, err, ErrNotIssuable)
}
