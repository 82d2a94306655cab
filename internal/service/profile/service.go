package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clinicbr/backoffice-api/internal/model"
	"github.com/clinicbr/backoffice-api/internal/repository"
	apperrors "github.com/clinicbr/backoffice-api/pkg/errors"
)

var (
	// ErrProfileExists means the account already has a profile.
	ErrProfileExists = errors.New("account already has a profile")
)

// Service manages staff profiles. Creating or retyping a profile also
// updates the owning account's role, so the next login reflects the change.
type Service struct {
	repo     repository.ProfileRepository
	userRepo repository.UserRepository
}

func NewService(repo repository.ProfileRepository, userRepo repository.UserRepository) *Service {
	return &Service{repo: repo, userRepo: userRepo}
}

func (s *Service) Create(ctx context.Context, req *model.CreateProfileRequest) (*model.Profile, error) {
	if _, err := s.userRepo.Get(ctx, req.UserID); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewValidation(fmt.Sprintf("account %s does not exist", req.UserID))
		}
		return nil, fmt.Errorf("failed to check account: %w", err)
	}

	if existing, err := s.repo.GetByUserID(ctx, req.UserID); err == nil && existing != nil {
		return nil, ErrProfileExists
	} else if err != nil && !apperrors.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check existing profile: %w", err)
	}

	profile := &model.Profile{
		UserID:              req.UserID,
		FullName:            req.FullName,
		Type:                req.Type,
		CouncilRegistration: req.CouncilRegistration,
		Specialty:           req.Specialty,
	}

	if err := s.repo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	if err := s.userRepo.UpdateRole(ctx, profile.UserID, profile.Role()); err != nil {
		return nil, fmt.Errorf("failed to sync account role: %w", err)
	}

	log.Info().
		Str("profile_id", profile.ID.String()).
		Str("user_id", profile.UserID.String()).
		Str("role", profile.Role().String()).
		Msg("profile created")

	return profile, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	return s.repo.GetByUserID(ctx, userID)
}

func (s *Service) List(ctx context.Context) ([]*model.Profile, error) {
	return s.repo.List(ctx)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateProfileRequest) (*model.Profile, error) {
	profile, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	retyped := false
	if req.FullName != nil {
		profile.FullName = *req.FullName
	}
	if req.Type != nil && *req.Type != profile.Type {
		profile.Type = *req.Type
		retyped = true
	}
	if req.CouncilRegistration != nil {
		profile.CouncilRegistration = req.CouncilRegistration
	}
	if req.Specialty != nil {
		profile.Specialty = req.Specialty
	}

	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	if retyped {
		if err := s.userRepo.UpdateRole(ctx, profile.UserID, profile.Role()); err != nil {
			return nil, fmt.Errorf("failed to sync account role: %w", err)
		}
	}

	return profile, nil
}

// Delete removes the profile and drops the owning account back to the
// default role.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	profile, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.userRepo.UpdateRole(ctx, profile.UserID, model.RoleDefault); err != nil {
		return fmt.Errorf("failed to sync account role: %w", err)
	}
	return nil
}
