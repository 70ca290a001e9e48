package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

var (
	errMissingToken   = errors.New("missing authorization header")
	errMalformedToken = errors.New("invalid authorization format")
	errClinicInactive = errors.New("clinic is not active")
)

// TokenValidator turns a bearer token into the caller it was issued to.
type TokenValidator interface {
	ValidateToken(token string) (model.Caller, error)
}

// ClinicChecker reports whether a clinic may still be served.
type ClinicChecker interface {
	IsActive(ctx context.Context, id uuid.UUID) (bool, error)
}

type AuthMiddleware struct {
	tokens  TokenValidator
	clinics ClinicChecker
	active  *cache.Cache
}

// NewAuthMiddleware caches clinic checks for ttl. A nil clinics skips the
// check entirely.
func NewAuthMiddleware(tokens TokenValidator, clinics ClinicChecker, ttl time.Duration) *AuthMiddleware {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &AuthMiddleware{
		tokens:  tokens,
		clinics: clinics,
		active:  cache.New(ttl, 2*ttl),
	}
}

// Authenticate verifies the bearer token and stores the caller in context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			handler.RespondError(c, apperrors.Unauthorized(errMissingToken))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			handler.RespondError(c, apperrors.Unauthorized(errMalformedToken))
			return
		}

		caller, err := m.tokens.ValidateToken(parts[1])
		if err != nil {
			handler.RespondError(c, err)
			return
		}

		active, err := m.clinicActive(c.Request.Context(), caller.TenantID)
		if err != nil {
			log.Ctx(c.Request.Context()).Error().Err(err).
				Str("tenant_id", caller.TenantID.String()).
				Msg("failed to check clinic")
			handler.RespondError(c, apperrors.Internal(err))
			return
		}
		if !active {
			handler.RespondError(c, apperrors.Unauthorized(errClinicInactive))
			return
		}

		handler.SetCaller(c, caller)
		c.Next()
	}
}

func (m *AuthMiddleware) clinicActive(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.clinics == nil {
		return true, nil
	}
	key := id.String()
	if v, ok := m.active.Get(key); ok {
		return v.(bool), nil
	}
	active, err := m.clinics.IsActive(ctx, id)
	if err != nil {
		return false, err
	}
	m.active.SetDefault(key, active)
	return active, nil
}

// RequireRole lets the request through only for the listed roles. It must
// run after Authenticate.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	allowed := make(map[model.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		caller, ok := handler.Caller(c)
		if !ok {
			return
		}
		if _, ok := allowed[caller.Role]; !ok {
			handler.RespondError(c, apperrors.Forbidden("permission denied", nil))
			return
		}
		c.Next()
	}
}
