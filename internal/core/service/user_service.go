package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/military-registry/personnel-api/internal/core/domain"
	"github.com/military-registry/personnel-api/internal/core/policy"
	"github.com/military-registry/personnel-api/internal/core/ports"
	"github.com/military-registry/personnel-api/internal/pkg/metrics"
)

// UserService implements the admin-facing identity operations.
type UserService struct {
	repo ports.UserRepository
	log  zerolog.Logger
}

func NewUserService(repo ports.UserRepository, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, log: log}
}

func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}

// UpdateRole sets the role of targetID. A requester can never change their
// own role, whatever their privileges.
func (s *UserService) UpdateRole(ctx context.Context, requester *domain.Identity, targetID string, role domain.Role) (*domain.User, error) {
	if requester == nil {
		return nil, domain.ErrUnauthenticated
	}
	if err := policy.CheckRoleChange(requester.ID, targetID); err != nil {
		metrics.AuthRejectionsTotal.WithLabelValues("self_role_change").Inc()
		s.log.Warn().Str("user_id", requester.ID).Msg("self role change rejected")
		return nil, err
	}
	if !role.Valid() {
		return nil, domain.NewInputError("role must be one of: admin user")
	}

	user, err := s.repo.UpdateRole(ctx, targetID, role)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) && !errors.Is(err, domain.ErrInvalidID) {
			s.log.Error().Err(err).Str("target_id", targetID).Msg("failed to update role")
		}
		return nil, err
	}

	s.log.Info().
		Str("requester_id", requester.ID).
		Str("target_id", targetID).
		Str("role", string(role)).
		Msg("role updated")
	return user, nil
}
