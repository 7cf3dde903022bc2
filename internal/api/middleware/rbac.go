package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/military-registry/personnel-api/internal/core/domain"
	"github.com/military-registry/personnel-api/internal/pkg/metrics"
)

// RBAC enforces role-based access control on the identity attached by Auth.
// Requests with no identity are forbidden.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				metrics.AuthRejectionsTotal.WithLabelValues("forbidden").Inc()
				return echo.NewHTTPError(http.StatusForbidden, "access denied").SetInternal(domain.ErrForbidden)
			}
			if _, ok := allowed[id.Role]; !ok {
				metrics.AuthRejectionsTotal.WithLabelValues("forbidden").Inc()
				return echo.NewHTTPError(http.StatusForbidden, "access denied, admin only").SetInternal(domain.ErrForbidden)
			}
			return next(c)
		}
	}
}

// AdminOnly is RBAC(domain.RoleAdmin).
func AdminOnly() echo.MiddlewareFunc {
	return RBAC(domain.RoleAdmin)
}
