package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carry everything a request needs to build its caller.
type Claims struct {
	jwt.RegisteredClaims
	TenantID uuid.UUID  `json:"tenant_id"`
	UserID   uuid.UUID  `json:"user_id"`
	Role     model.Role `json:"role"`
}

// Caller converts the claims into the identity services act on.
func (c *Claims) Caller() model.Caller {
	return model.Caller{TenantID: c.TenantID, UserID: c.UserID, Role: c.Role}
}

type JWTService interface {
	GenerateAccessToken(user *model.User) (string, time.Time, error)
	ValidateToken(token string) (*Claims, error)
}

type jwtService struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

func NewJWTService(secret string, expiry time.Duration) JWTService {
	return &jwtService{
		secret: []byte(secret),
		expiry: expiry,
		issuer: "clinic-api",
		now:    time.Now,
	}
}

func (s *jwtService) GenerateAccessToken(user *model.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.expiry)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		TenantID: user.TenantID,
		UserID:   user.ID,
		Role:     user.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *jwtService) ValidateToken(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.TenantID == uuid.Nil || claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	if _, ok := model.ParseRole(string(claims.Role)); !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return claims, nil
}
