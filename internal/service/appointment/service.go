package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/clinicbr/backoffice-api/internal/model"
	"github.com/clinicbr/backoffice-api/internal/repository"
	"github.com/clinicbr/backoffice-api/pkg/auth"
	apperrors "github.com/clinicbr/backoffice-api/pkg/errors"
)

const (
	profileCacheTTL     = 5 * time.Minute
	profileCacheCleanup = 10 * time.Minute
)

type Service struct {
	repo         repository.AppointmentRepository
	profileRepo  repository.ProfileRepository
	tokens       auth.JWTService
	profileCache *gocache.Cache
}

func NewService(repo repository.AppointmentRepository, profileRepo repository.ProfileRepository, tokens auth.JWTService) *Service {
	return &Service{
		repo:         repo,
		profileRepo:  profileRepo,
		tokens:       tokens,
		profileCache: gocache.New(profileCacheTTL, profileCacheCleanup),
	}
}

// ListForCaller returns the appointments the bearer of the token may see:
// everything for managerial callers, otherwise only the caller's own
// profile's appointments. A caller without a profile gets an empty list,
// not an error.
func (s *Service) ListForCaller(ctx context.Context, token string) ([]*model.Appointment, error) {
	subjectID, roles := s.tokens.Decode(token)
	if subjectID == uuid.Nil {
		return nil, apperrors.Unauthorized(nil)
	}

	if hasRole(roles, model.RoleManagerial) {
		return s.repo.List(ctx)
	}

	profile, err := s.callerProfile(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return []*model.Appointment{}, nil
	}
	return s.repo.ListByProfile(ctx, profile.ID)
}

// CreateForCaller schedules an appointment against the caller's own
// profile, overwriting any profile reference supplied in the request so a
// non-managerial caller cannot schedule on someone else's behalf.
func (s *Service) CreateForCaller(ctx context.Context, req *model.CreateAppointmentRequest, token string) (*model.Appointment, error) {
	subjectID, _ := s.tokens.Decode(token)
	if subjectID == uuid.Nil {
		return nil, apperrors.Unauthorized(nil)
	}

	profile, err := s.callerProfile(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, apperrors.NewValidation(fmt.Sprintf("no profile registered for account %s", subjectID))
	}

	apt := &model.Appointment{
		ScheduledAt: req.ScheduledAt,
		Kind:        req.Kind,
		Status:      req.Status,
		Notes:       req.Notes,
		PatientID:   req.PatientID,
		ProfileID:   profile.ID,
	}
	if apt.Status == "" {
		apt.Status = model.AppointmentStatusScheduled
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	return apt, nil
}

// Create schedules an appointment against an explicit profile. This path
// is reached only through managerial-gated endpoints.
func (s *Service) Create(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if req.ProfileID == uuid.Nil {
		return nil, apperrors.NewValidation("profile_id is required")
	}

	apt := &model.Appointment{
		ScheduledAt: req.ScheduledAt,
		Kind:        req.Kind,
		Status:      req.Status,
		Notes:       req.Notes,
		PatientID:   req.PatientID,
		ProfileID:   req.ProfileID,
	}
	if apt.Status == "" {
		apt.Status = model.AppointmentStatusScheduled
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	return apt, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ScheduledAt != nil {
		apt.ScheduledAt = *req.ScheduledAt
	}
	if req.Kind != nil {
		apt.Kind = *req.Kind
	}
	if req.Status != nil {
		apt.Status = *req.Status
	}
	if req.Notes != nil {
		apt.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	return apt, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// ListByPatient and ListByProfile are unscoped key lookups; the transport
// layer gates them to professional and managerial roles.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]*model.Appointment, error) {
	return s.repo.ListByProfile(ctx, profileID)
}

// callerProfile resolves the profile owned by the subject id, caching
// hits briefly to keep the scoping lookup off the hot path. A missing
// profile is cached too and reported as nil, nil.
func (s *Service) callerProfile(ctx context.Context, subjectID uuid.UUID) (*model.Profile, error) {
	key := subjectID.String()
	if cached, found := s.profileCache.Get(key); found {
		profile, _ := cached.(*model.Profile)
		return profile, nil
	}

	profile, err := s.profileRepo.GetByUserID(ctx, subjectID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.profileCache.Set(key, (*model.Profile)(nil), gocache.DefaultExpiration)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve caller profile: %w", err)
	}

	s.profileCache.Set(key, profile, gocache.DefaultExpiration)
	return profile, nil
}

func hasRole(roles []string, role model.Role) bool {
	for _, r := range roles {
		if r == role.String() {
			return true
		}
	}
	return false
}
