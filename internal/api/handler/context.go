package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/military-registry/personnel-api/internal/api/middleware"
	"github.com/military-registry/personnel-api/internal/core/domain"
)

// currentIdentity returns the identity attached by the Auth middleware. A
// valid token whose account was deleted carries no identity and is rejected
// with domain.ErrUnauthenticated.
func currentIdentity(c echo.Context) (*domain.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return id, nil
}

// bind decodes the request into req and validates it.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.NewInputError("invalid payload")
	}
	return c.Validate(req)
}
