package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/military-registry/personnel-api/internal/core/domain"
	"github.com/military-registry/personnel-api/internal/core/ports"
	"github.com/military-registry/personnel-api/internal/core/service"
	"github.com/military-registry/personnel-api/internal/pkg/metrics"
)

const identityKey = "identity"

// IdentityLookup loads the account named by a token subject.
type IdentityLookup interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// Auth verifies the bearer token and attaches the caller's identity to the
// context. The role comes from the store, not from the token, so a role change
// takes effect on the next request. A valid token whose account no longer
// exists passes through with no identity attached.
func Auth(tokens ports.TokenVerifier, users IdentityLookup, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return reject(c, log, "missing_token", "not authorized, no token", nil)
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				reason := "invalid_token"
				if service.IsExpired(err) {
					reason = "expired_token"
				}
				return reject(c, log, reason, "not authorized, token invalid", err)
			}

			user, err := users.FindByID(c.Request().Context(), claims.SubjectID)
			switch {
			case errors.Is(err, domain.ErrUserNotFound):
				metrics.AuthRejectionsTotal.WithLabelValues("unknown_subject").Inc()
				log.Warn().Str("reason", "unknown_subject").Str("user_id", claims.SubjectID).
					Msg("token subject no longer exists")
				return next(c)
			case errors.Is(err, domain.ErrInvalidID):
				return reject(c, log, "invalid_token", "not authorized, token invalid", err)
			case err != nil:
				return fmt.Errorf("resolve identity: %w", err)
			}

			SetIdentity(c, user.Identity())
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func reject(c echo.Context, log zerolog.Logger, reason, msg string, cause error) error {
	metrics.AuthRejectionsTotal.WithLabelValues(reason).Inc()
	ev := log.Warn().Str("reason", reason).Str("path", c.Path())
	if cause != nil {
		ev = ev.Err(cause)
	}
	ev.Msg("request not authenticated")

	internal := domain.ErrUnauthenticated
	if cause != nil {
		internal = cause
	}
	return echo.NewHTTPError(http.StatusUnauthorized, msg).SetInternal(internal)
}

// SetIdentity attaches id to the request context.
func SetIdentity(c echo.Context, id *domain.Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the identity attached by Auth, if any.
func IdentityFrom(c echo.Context) (*domain.Identity, bool) {
	id, ok := c.Get(identityKey).(*domain.Identity)
	return id, ok && id != nil
}
