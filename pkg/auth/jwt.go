package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clinicbr/backoffice-api/internal/model"
)

const (
	// ResetTokenExpiry is the fixed lifetime of password-reset tokens.
	ResetTokenExpiry = 15 * time.Minute

	bearerPrefix = "Bearer "
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// Claims are the JWT claims carried by every token this service issues.
type Claims struct {
	Email string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// SubjectID returns the account id the token was issued for, or uuid.Nil
// when the subject claim is absent or malformed.
func (c *Claims) SubjectID() uuid.UUID {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// JWTService issues and parses signed bearer tokens binding an account id,
// email and role.
type JWTService interface {
	// GenerateToken issues a token for user with the given role. The
	// optional expiry overrides the configured default; reset tokens use
	// ResetTokenExpiry.
	GenerateToken(user *model.User, role model.Role, expiry ...time.Duration) (string, error)
	// ValidateToken performs a verified parse: signature, issuer,
	// audience and expiry are all checked.
	ValidateToken(token string) (*Claims, error)
	// Decode extracts the subject id and roles without verifying the
	// signature. It exists for scoping reads after the request has
	// already passed verified authentication; malformed or empty input
	// yields uuid.Nil and no roles.
	Decode(token string) (uuid.UUID, []string)
}

type jwtService struct {
	secret   []byte
	issuer   string
	audience string
	expiry   time.Duration
}

// NewJWTService builds a JWTService signing with the given shared secret
// using HMAC-SHA512.
func NewJWTService(secret, issuer, audience string, expiry time.Duration) JWTService {
	return &jwtService{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		expiry:   expiry,
	}
}

func (s *jwtService) GenerateToken(user *model.User, role model.Role, expiry ...time.Duration) (string, error) {
	ttl := s.expiry
	if len(expiry) > 0 {
		ttl = expiry[0]
	}

	now := time.Now()
	claims := &Claims{
		Email: user.Email,
		Role:  role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID.String(),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *jwtService) ValidateToken(token string) (*Claims, error) {
	token = stripBearer(token)

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *jwtService) Decode(token string) (uuid.UUID, []string) {
	token = stripBearer(token)
	if token == "" {
		return uuid.Nil, nil
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return uuid.Nil, nil
	}

	var roles []string
	if claims.Role != "" {
		roles = append(roles, claims.Role)
	}
	return claims.SubjectID(), roles
}

func stripBearer(token string) string {
	return strings.TrimSpace(strings.TrimPrefix(token, bearerPrefix))
}
