package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type TokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        *model.User `json:"user"`
}

type CreateUserInput struct {
	Username string
	Password string
	FullName string
	Role     string
}

type Service struct {
	uows   repository.Factory
	jwt    auth.JWTService
	hasher security.PasswordHasher
	logger *logger.Logger
}

func NewService(uows repository.Factory, jwtSvc auth.JWTService, hasher security.PasswordHasher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{uows: uows, jwt: jwtSvc, hasher: hasher, logger: log}
}

// Login checks a user's password within one clinic and issues a token
// scoped to that clinic. Unknown users and wrong passwords look the same.
func (s *Service) Login(ctx context.Context, clinicID uuid.UUID, username, password string) (*TokenResponse, error) {
	caller := model.Caller{TenantID: clinicID}
	user, err := service.Do(ctx, s.uows, caller, func(uow repository.UnitOfWork) (*model.User, error) {
		return uow.Users().GetOne(ctx, goqu.C("username").Eq(strings.TrimSpace(username)))
	})
	if err != nil {
		return nil, service.Fail(s.logger, err, "failed to look up user", "tenant_id", clinicID.String())
	}
	if user == nil {
		return nil, apperrors.Unauthorized(ErrInvalidCredentials)
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if !errors.Is(err, security.ErrPasswordMismatch) {
			s.logger.Error(err, "failed to compare password hash", "user_id", user.ID.String())
		}
		return nil, apperrors.Unauthorized(ErrInvalidCredentials)
	}

	token, expiresAt, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, service.Fail(s.logger, err, "failed to issue token", "user_id", user.ID.String())
	}

	s.logger.Info("user logged in", "user_id", user.ID.String(), "tenant_id", clinicID.String())
	return &TokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: expiresAt, User: user}, nil
}

// ValidateToken resolves a bearer token into the caller it was issued to.
func (s *Service) ValidateToken(token string) (model.Caller, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return model.Caller{}, apperrors.Unauthorized(err)
	}
	return claims.Caller(), nil
}

// CreateUser adds a user to the caller's clinic. Usernames are unique per
// clinic.
func (s *Service) CreateUser(ctx context.Context, caller model.Caller, in CreateUserInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, apperrors.Validation("username", "username is required")
	}
	role, ok := model.ParseRole(in.Role)
	if !ok {
		return nil, apperrors.Validation("role", "invalid role")
	}
	hash, err := s.hasher.Hash(in.Password)
	if errors.Is(err, security.ErrPasswordTooShort) {
		return nil, apperrors.Validation("password", "password must be at least 8 characters")
	}
	if err != nil {
		return nil, service.Fail(s.logger, err, "failed to hash password")
	}

	user, err := service.Do(ctx, s.uows, caller, func(uow repository.UnitOfWork) (*model.User, error) {
		existing, err := uow.Users().GetOne(ctx, goqu.C("username").Eq(username))
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperrors.Conflict("username already exists", nil)
		}

		user := &model.User{
			Username:     username,
			PasswordHash: hash,
			FullName:     strings.TrimSpace(in.FullName),
			Role:         role,
		}
		if err := uow.Users().Add(user); err != nil {
			return nil, err
		}
		if err := service.Save(ctx, s.logger, uow, "user"); err != nil {
			return nil, err
		}
		return user, nil
	})
	if err != nil {
		return nil, service.Fail(s.logger, err, "failed to create user", "username", username)
	}
	return user, nil
}

// GetUser returns one user of the caller's clinic.
func (s *Service) GetUser(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.User, error) {
	user, err := service.Do(ctx, s.uows, caller, func(uow repository.UnitOfWork) (*model.User, error) {
		user, err := uow.Users().GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, apperrors.NotFound("user", nil)
		}
		return user, nil
	})
	if err != nil {
		return nil, service.Fail(s.logger, err, "failed to get user", "user_id", id)
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context, caller model.Caller, page model.Page) ([]*model.User, error) {
	users, err := service.Do(ctx, s.uows, caller, func(uow repository.UnitOfWork) ([]*model.User, error) {
		return uow.Users().List(ctx, nil, repository.Paginate(page))
	})
	if err != nil {
		return nil, service.Fail(s.logger, err, "failed to list users")
	}
	return users, nil
}
