package profile

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicbr/backoffice-api/internal/model"
	apperrors "github.com/clinicbr/backoffice-api/pkg/errors"
)

type fakeProfileRepo struct {
	byID     map[uuid.UUID]*model.Profile
	byUserID map[uuid.UUID]*model.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{
		byID:     make(map[uuid.UUID]*model.Profile),
		byUserID: make(map[uuid.UUID]*model.Profile),
	}
}

func (r *fakeProfileRepo) Create(_ context.Context, profile *model.Profile) error {
	profile.ID = uuid.New()
	r.byID[profile.ID] = profile
	r.byUserID[profile.UserID] = profile
	return nil
}

func (r *fakeProfileRepo) Get(_ context.Context, id uuid.UUID) (*model.Profile, error) {
	profile, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NewNotFound("profile", nil)
	}
	return profile, nil
}

func (r *fakeProfileRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*model.Profile, error) {
	profile, ok := r.byUserID[userID]
	if !ok {
		return nil, apperrors.NewNotFound("profile", nil)
	}
	return profile, nil
}

func (r *fakeProfileRepo) List(_ context.Context) ([]*model.Profile, error) {
	var out []*model.Profile
	for _, p := range r.byID {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeProfileRepo) Update(_ context.Context, profile *model.Profile) error {
	if _, ok := r.byID[profile.ID]; !ok {
		return apperrors.NewNotFound("profile", nil)
	}
	r.byID[profile.ID] = profile
	r.byUserID[profile.UserID] = profile
	return nil
}

func (r *fakeProfileRepo) Delete(_ context.Context, id uuid.UUID) error {
	profile, ok := r.byID[id]
	if !ok {
		return apperrors.NewNotFound("profile", nil)
	}
	delete(r.byUserID, profile.UserID)
	delete(r.byID, id)
	return nil
}

func (r *fakeProfileRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := r.byID[id]
	return ok, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.NewNotFound("user", nil)
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(context.Context, string) (*model.User, error) {
	return nil, apperrors.NewNotFound("user", nil)
}

func (r *fakeUserRepo) Update(context.Context, *model.User) error { return nil }

func (r *fakeUserRepo) UpdateRole(_ context.Context, id uuid.UUID, role model.Role) error {
	user, ok := r.users[id]
	if !ok {
		return apperrors.NewNotFound("user", nil)
	}
	user.Role = role
	return nil
}

func setup() (*Service, *fakeUserRepo, *model.User) {
	userRepo := &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
	user := &model.User{
		Base:  model.Base{ID: uuid.New()},
		Email: "ana@clinic.example",
		Role:  model.RoleDefault,
	}
	userRepo.users[user.ID] = user
	return NewService(newFakeProfileRepo(), userRepo), userRepo, user
}

func TestCreateProfileSyncsRole(t *testing.T) {
	svc, userRepo, user := setup()

	profile, err := svc.Create(context.Background(), &model.CreateProfileRequest{
		UserID:   user.ID,
		FullName: "Ana Souza",
		Type:     model.ProfileTypeManagerial,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleManagerial, userRepo.users[user.ID].Role)
	assert.Equal(t, user.ID, profile.UserID)
}

func TestCreateProfileOnePerUser(t *testing.T) {
	svc, _, user := setup()

	_, err := svc.Create(context.Background(), &model.CreateProfileRequest{
		UserID:   user.ID,
		FullName: "Ana Souza",
		Type:     model.ProfileTypeProfessional,
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), &model.CreateProfileRequest{
		UserID:   user.ID,
		FullName: "Ana Souza",
		Type:     model.ProfileTypeManagerial,
	})
	assert.ErrorIs(t, err, ErrProfileExists)
}

func TestCreateProfileUnknownAccount(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.Create(context.Background(), &model.CreateProfileRequest{
		UserID:   uuid.New(),
		FullName: "Ghost",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestUpdateProfileRetypeSyncsRole(t *testing.T) {
	svc, userRepo, user := setup()

	profile, err := svc.Create(context.Background(), &model.CreateProfileRequest{
		UserID:   user.ID,
		FullName: "Ana Souza",
		Type:     model.ProfileTypeProfessional,
	})
	require.NoError(t, err)
	require.Equal(t, model.RoleProfessional, userRepo.users[user.ID].Role)

	managerial := model.ProfileTypeManagerial
	_, err = svc.Update(context.Background(), profile.ID, &model.UpdateProfileRequest{
		Type: &managerial,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleManagerial, userRepo.users[user.ID].Role)
}

func TestDeleteProfileDropsRole(t *testing.T) {
	svc, userRepo, user := setup()

	profile, err := svc.Create(context.Background(), &model.CreateProfileRequest{
		UserID:   user.ID,
		FullName: "Ana Souza",
		Type:     model.ProfileTypeManagerial,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), profile.ID))
	assert.Equal(t, model.RoleDefault, userRepo.users[user.ID].Role)
}
