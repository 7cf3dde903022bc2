package ports

import (
	"context"

	"github.com/military-registry/personnel-api/internal/core/domain"
)

// UserRepository is the credential store.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByID returns domain.ErrUserNotFound when no user has the id and
	// domain.ErrInvalidID when the id is not a valid store key.
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error)
	// List returns every user, newest first.
	List(ctx context.Context) ([]*domain.User, error)
	ExistsWithRole(ctx context.Context, role domain.Role) (bool, error)
}

// PasswordHasher hashes and checks passwords. Verify never returns an error:
// a malformed stored hash simply does not match.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, stored string) bool
}
