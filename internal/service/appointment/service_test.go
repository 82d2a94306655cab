package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicbr/backoffice-api/internal/model"
	"github.com/clinicbr/backoffice-api/pkg/auth"
	apperrors "github.com/clinicbr/backoffice-api/pkg/errors"
)

type fakeAppointmentRepo struct {
	appointments map[uuid.UUID]*model.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (r *fakeAppointmentRepo) Create(_ context.Context, apt *model.Appointment) error {
	apt.ID = uuid.New()
	r.appointments[apt.ID] = apt
	return nil
}

func (r *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, ok := r.appointments[id]
	if !ok {
		return nil, apperrors.NewNotFound("appointment", nil)
	}
	return apt, nil
}

func (r *fakeAppointmentRepo) Update(_ context.Context, apt *model.Appointment) error {
	if _, ok := r.appointments[apt.ID]; !ok {
		return apperrors.NewNotFound("appointment", nil)
	}
	r.appointments[apt.ID] = apt
	return nil
}

func (r *fakeAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.appointments[id]; !ok {
		return apperrors.NewNotFound("appointment", nil)
	}
	delete(r.appointments, id)
	return nil
}

func (r *fakeAppointmentRepo) List(_ context.Context) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, apt := range r.appointments {
		out = append(out, apt)
	}
	return out, nil
}

func (r *fakeAppointmentRepo) ListByProfile(_ context.Context, profileID uuid.UUID) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, apt := range r.appointments {
		if apt.ProfileID == profileID {
			out = append(out, apt)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, apt := range r.appointments {
		if apt.PatientID == patientID {
			out = append(out, apt)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) ListUnbilledPerformed(context.Context, time.Time, time.Time, *uuid.UUID) ([]*model.Appointment, error) {
	return nil, nil
}

func (r *fakeAppointmentRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := r.appointments[id]
	return ok, nil
}

type fakeProfileRepo struct {
	byUserID map[uuid.UUID]*model.Profile
	calls    int
}

func (r *fakeProfileRepo) Create(context.Context, *model.Profile) error { return nil }
func (r *fakeProfileRepo) Get(context.Context, uuid.UUID) (*model.Profile, error) {
	return nil, apperrors.NewNotFound("profile", nil)
}
func (r *fakeProfileRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*model.Profile, error) {
	r.calls++
	profile, ok := r.byUserID[userID]
	if !ok {
		return nil, apperrors.NewNotFound("profile", nil)
	}
	return profile, nil
}
func (r *fakeProfileRepo) List(context.Context) ([]*model.Profile, error) { return nil, nil }
func (r *fakeProfileRepo) Update(context.Context, *model.Profile) error   { return nil }
func (r *fakeProfileRepo) Delete(context.Context, uuid.UUID) error        { return nil }
func (r *fakeProfileRepo) Exists(context.Context, uuid.UUID) (bool, error) {
	return false, nil
}

type caller struct {
	userID    uuid.UUID
	profileID uuid.UUID
	token     string
}

func setup(t *testing.T) (*Service, *fakeAppointmentRepo, *fakeProfileRepo, func(role model.Role, withProfile bool) caller) {
	t.Helper()

	repo := newFakeAppointmentRepo()
	profileRepo := &fakeProfileRepo{byUserID: make(map[uuid.UUID]*model.Profile)}
	jwtSvc := auth.NewJWTService("test-secret", "backoffice", "backoffice-clients", 30*time.Minute)
	svc := NewService(repo, profileRepo, jwtSvc)

	makeCaller := func(role model.Role, withProfile bool) caller {
		user := &model.User{
			Base:  model.Base{ID: uuid.New()},
			Email: "someone@clinic.example",
		}
		token, err := jwtSvc.GenerateToken(user, role)
		require.NoError(t, err)

		c := caller{userID: user.ID, token: token}
		if withProfile {
			profileType := model.ProfileTypeProfessional
			if role == model.RoleManagerial {
				profileType = model.ProfileTypeManagerial
			}
			profile := &model.Profile{
				Base:   model.Base{ID: uuid.New()},
				UserID: user.ID,
				Type:   profileType,
			}
			profileRepo.byUserID[user.ID] = profile
			c.profileID = profile.ID
		}
		return c
	}

	return svc, repo, profileRepo, makeCaller
}

func seedAppointment(repo *fakeAppointmentRepo, profileID uuid.UUID) *model.Appointment {
	apt := &model.Appointment{
		Base:        model.Base{ID: uuid.New()},
		ScheduledAt: time.Now().Add(24 * time.Hour),
		Status:      model.AppointmentStatusScheduled,
		PatientID:   uuid.New(),
		ProfileID:   profileID,
	}
	repo.appointments[apt.ID] = apt
	return apt
}

func TestListForCallerManagerialSeesAll(t *testing.T) {
	svc, repo, _, makeCaller := setup(t)
	manager := makeCaller(model.RoleManagerial, true)
	pro := makeCaller(model.RoleProfessional, true)

	seedAppointment(repo, manager.profileID)
	seedAppointment(repo, pro.profileID)
	seedAppointment(repo, pro.profileID)

	appointments, err := svc.ListForCaller(context.Background(), manager.token)
	require.NoError(t, err)
	assert.Len(t, appointments, 3)
}

func TestListForCallerProfessionalSeesOwn(t *testing.T) {
	svc, repo, _, makeCaller := setup(t)
	pro := makeCaller(model.RoleProfessional, true)
	other := makeCaller(model.RoleProfessional, true)

	mine := seedAppointment(repo, pro.profileID)
	seedAppointment(repo, other.profileID)

	appointments, err := svc.ListForCaller(context.Background(), pro.token)
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	assert.Equal(t, mine.ID, appointments[0].ID)
}

func TestListForCallerWithoutProfile(t *testing.T) {
	svc, repo, _, makeCaller := setup(t)
	noProfile := makeCaller(model.RoleDefault, false)
	pro := makeCaller(model.RoleProfessional, true)
	seedAppointment(repo, pro.profileID)

	appointments, err := svc.ListForCaller(context.Background(), noProfile.token)
	require.NoError(t, err, "a caller without a profile gets an empty list, not an error")
	assert.Empty(t, appointments)
}

func TestListForCallerBadToken(t *testing.T) {
	svc, _, _, _ := setup(t)

	_, err := svc.ListForCaller(context.Background(), "not-a-token")
	assert.Error(t, err)
}

func TestCreateForCallerOverwritesProfile(t *testing.T) {
	svc, _, _, makeCaller := setup(t)
	pro := makeCaller(model.RoleProfessional, true)
	other := makeCaller(model.RoleProfessional, true)

	// The request claims someone else's profile; the caller's own wins.
	apt, err := svc.CreateForCaller(context.Background(), &model.CreateAppointmentRequest{
		ScheduledAt: time.Now().Add(48 * time.Hour),
		Kind:        model.AppointmentKindVisit,
		PatientID:   uuid.New(),
		ProfileID:   other.profileID,
	}, pro.token)
	require.NoError(t, err)
	assert.Equal(t, pro.profileID, apt.ProfileID)
	assert.Equal(t, model.AppointmentStatusScheduled, apt.Status)
}

func TestCreateForCallerWithoutProfile(t *testing.T) {
	svc, _, _, makeCaller := setup(t)
	noProfile := makeCaller(model.RoleDefault, false)

	_, err := svc.CreateForCaller(context.Background(), &model.CreateAppointmentRequest{
		ScheduledAt: time.Now().Add(48 * time.Hour),
		PatientID:   uuid.New(),
	}, noProfile.token)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestCallerProfileCached(t *testing.T) {
	svc, repo, profileRepo, makeCaller := setup(t)
	pro := makeCaller(model.RoleProfessional, true)
	seedAppointment(repo, pro.profileID)

	_, err := svc.ListForCaller(context.Background(), pro.token)
	require.NoError(t, err)
	_, err = svc.ListForCaller(context.Background(), pro.token)
	require.NoError(t, err)

	assert.Equal(t, 1, profileRepo.calls, "second lookup must hit the cache")
}

func TestUpdateAppointment(t *testing.T) {
	svc, repo, _, makeCaller := setup(t)
	pro := makeCaller(model.RoleProfessional, true)
	apt := seedAppointment(repo, pro.profileID)

	performed := model.AppointmentStatusPerformed
	updated, err := svc.Update(context.Background(), apt.ID, &model.UpdateAppointmentRequest{
		Status: &performed,
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusPerformed, updated.Status)
	assert.Equal(t, apt.ScheduledAt, updated.ScheduledAt, "unset fields stay untouched")
}
