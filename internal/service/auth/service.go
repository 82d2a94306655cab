package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clinicbr/backoffice-api/internal/email"
	"github.com/clinicbr/backoffice-api/internal/model"
	"github.com/clinicbr/backoffice-api/internal/repository"
	"github.com/clinicbr/backoffice-api/pkg/auth"
	apperrors "github.com/clinicbr/backoffice-api/pkg/errors"
	"github.com/clinicbr/backoffice-api/pkg/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrTokenGeneration    = errors.New("failed to generate token")
	ErrResetTokenUsed     = errors.New("reset token already used")
)

type Service struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	jwtSvc      auth.JWTService
	resetTokens repository.ResetTokenStore
	emailSvc    email.Service
	hasher      security.PasswordHasher
}

func NewService(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	jwtSvc auth.JWTService,
	resetTokens repository.ResetTokenStore,
	emailSvc email.Service,
	hasher security.PasswordHasher,
) *Service {
	return &Service{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		jwtSvc:      jwtSvc,
		resetTokens: resetTokens,
		emailSvc:    emailSvc,
		hasher:      hasher,
	}
}

// Register creates a login account. The account starts with the Default
// role; profile registration later upgrades it.
func (s *Service) Register(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	existing, _ := s.userRepo.GetByEmail(ctx, req.Email)
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RoleDefault,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and issues an access token carrying the role
// derived from the account's current profile. The role is fixed for the
// token's lifetime; a later profile change only takes effect on refresh.
func (s *Service) Login(ctx context.Context, loginEmail, password string) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, loginEmail)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	role, err := s.ResolveRole(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve role: %w", err)
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update login timestamp: %w", err)
	}

	token, err := s.jwtSvc.GenerateToken(user, role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	return &model.TokenResponse{AccessToken: token}, nil
}

// ResolveRole derives the authorization role from the account's current
// profile: no profile or unset type means Default, the managerial type
// means Managerial, anything else Professional.
func (s *Service) ResolveRole(ctx context.Context, userID uuid.UUID) (model.Role, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return model.RoleDefault, nil
		}
		return "", err
	}
	return profile.Role(), nil
}

// SendPasswordResetEmail issues a short-lived single-purpose reset token
// and mails it. The token carries the ResetPassword role only, so it
// cannot be used against normal API endpoints.
func (s *Service) SendPasswordResetEmail(ctx context.Context, resetEmail string) error {
	user, err := s.userRepo.GetByEmail(ctx, resetEmail)
	if err != nil {
		return ErrInvalidCredentials
	}

	token, err := s.jwtSvc.GenerateToken(user, model.RoleResetPassword, auth.ResetTokenExpiry)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	if err := s.emailSvc.SendPasswordReset(user.Email, token); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	log.Info().Str("email", user.Email).Msg("password reset email sent")
	return nil
}

// ResetPassword consumes a reset token and replaces the account's
// password hash. Each token works exactly once.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return ErrInvalidCredentials
	}
	if claims.Role != model.RoleResetPassword.String() {
		return ErrInvalidCredentials
	}

	if err := s.resetTokens.Consume(ctx, claims.ID, auth.ResetTokenExpiry); err != nil {
		return ErrResetTokenUsed
	}

	userID := claims.SubjectID()
	if userID == uuid.Nil {
		return ErrInvalidCredentials
	}

	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = hash
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// ChangePassword replaces the password of a logged-in user after
// verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.PasswordHash, currentPassword); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = hash
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// ValidateToken performs the verified parse used by the request
// authentication middleware.
func (s *Service) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	return s.jwtSvc.ValidateToken(token)
}

