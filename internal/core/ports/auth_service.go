package ports

import (
	"context"

	"github.com/military-registry/personnel-api/internal/core/domain"
)

// TokenIssuer mints session tokens.
type TokenIssuer interface {
	Issue(subjectID string, role domain.Role) (string, error)
}

// TokenVerifier checks session tokens. Any failure is domain.ErrInvalidToken.
type TokenVerifier interface {
	Verify(token string) (*domain.SessionClaims, error)
}

type AuthService interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}

type UserService interface {
	ListUsers(ctx context.Context) ([]*domain.User, error)
	UpdateRole(ctx context.Context, requester *domain.Identity, targetID string, role domain.Role) (*domain.User, error)
}
