package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/military-registry/personnel-api/internal/core/domain"
	"github.com/military-registry/personnel-api/internal/core/policy"
	"github.com/military-registry/personnel-api/internal/core/ports"
	"github.com/military-registry/personnel-api/internal/pkg/metrics"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
	maxPage          = 1_000_000
	auditTrailLimit  = 100
)

type PersonnelService struct {
	repo   ports.PersonnelRepository
	audits ports.AuditRepository
	audit  ports.AuditRecorder
	cache  ports.StatsCache
	logger zerolog.Logger
}

func NewPersonnelService(
	repo ports.PersonnelRepository,
	audits ports.AuditRepository,
	audit ports.AuditRecorder,
	cache ports.StatsCache,
	logger zerolog.Logger,
) *PersonnelService {
	return &PersonnelService{repo: repo, audits: audits, audit: audit, cache: cache, logger: logger}
}

// ListPersonnel returns one page of records. Page defaults to 1 and is capped
// at 1e6; limit defaults to 10 and is capped at 100.
func (s *PersonnelService) ListPersonnel(ctx context.Context, input ports.ListPersonnelInput) (*ports.ListPersonnelResult, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	limit := input.Limit
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	items, total, err := s.repo.List(ctx, ports.ListPersonnelFilter{
		Search: input.Search,
		Status: input.Status,
		Unit:   input.Unit,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list personnel")
		return nil, err
	}

	return &ports.ListPersonnelResult{
		Items: items,
		Total: total,
		Page:  page,
		Pages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

func (s *PersonnelService) GetPersonnel(ctx context.Context, id string) (*domain.Personnel, error) {
	return s.repo.FindByID(ctx, id)
}

// CreatePersonnel stores a new record. Status defaults to active.
func (s *PersonnelService) CreatePersonnel(ctx context.Context, actor *domain.Identity, p *domain.Personnel) (*domain.Personnel, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}
	if !actor.Role.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if p.Status == "" {
		p.Status = domain.StatusActive
	}
	if !p.Status.Valid() {
		return nil, domain.NewInputError("status must be one of: active inactive leave")
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		if !errors.Is(err, domain.ErrDuplicateMilitaryID) {
			s.logger.Error().Err(err).Msg("failed to create personnel")
		}
		return nil, err
	}

	s.afterMutation(ctx, actor, domain.AuditCreated, created.ID, nil)
	s.logger.Info().Str("personnel_id", created.ID).Str("military_id", created.MilitaryID).Msg("personnel created")
	return created, nil
}

// UpdatePersonnel applies the part of fields actor is allowed to change.
// Non-admins are narrowed to the status field by policy.NarrowMutation.
func (s *PersonnelService) UpdatePersonnel(ctx context.Context, actor *domain.Identity, id string, fields map[string]any) (*domain.Personnel, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}

	authorized, err := policy.NarrowMutation(actor.Role, fields)
	if err != nil {
		metrics.AuthRejectionsTotal.WithLabelValues("status_only").Inc()
		s.logger.Warn().Str("user_id", actor.ID).Str("personnel_id", id).Msg("update rejected: non-admin without status")
		return nil, err
	}

	patch, err := decodePatch(authorized)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return s.repo.FindByID(ctx, id)
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if isClientError(err) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("personnel_id", id).Msg("failed to update personnel")
		return nil, err
	}

	s.afterMutation(ctx, actor, domain.AuditUpdated, updated.ID, patch.Fields())
	s.logger.Info().
		Str("personnel_id", updated.ID).
		Strs("fields", patch.Fields()).
		Str("role", string(actor.Role)).
		Msg("personnel updated")
	return updated, nil
}

func (s *PersonnelService) DeletePersonnel(ctx context.Context, actor *domain.Identity, id string) error {
	if actor == nil {
		return domain.ErrUnauthenticated
	}
	if !actor.Role.IsAdmin() {
		return domain.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if !isClientError(err) {
			s.logger.Error().Err(err).Str("personnel_id", id).Msg("failed to delete personnel")
		}
		return err
	}

	s.afterMutation(ctx, actor, domain.AuditDeleted, id, nil)
	s.logger.Info().Str("personnel_id", id).Msg("personnel deleted")
	return nil
}

func (s *PersonnelService) Units(ctx context.Context) ([]string, error) {
	return s.repo.Units(ctx)
}

// Statistics serves from the cache when possible. Cache failures are logged
// and the statistics are computed from the store.
func (s *PersonnelService) Statistics(ctx context.Context, unit string) (*domain.PersonnelStatistics, error) {
	var (
		generation int64
		cacheable  bool
	)
	if s.cache != nil {
		cached, gen, ok, err := s.cache.Get(ctx, unit)
		switch {
		case err != nil:
			metrics.StatsCacheTotal.WithLabelValues("error").Inc()
			s.logger.Warn().Err(err).Str("unit", unit).Msg("stats cache read failed, computing anyway")
		case ok:
			metrics.StatsCacheTotal.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.StatsCacheTotal.WithLabelValues("miss").Inc()
			generation, cacheable = gen, true
		}
	}

	stats, err := s.repo.Statistics(ctx, unit)
	if err != nil {
		s.logger.Error().Err(err).Str("unit", unit).Msg("failed to compute statistics")
		return nil, err
	}

	if cacheable {
		if err := s.cache.Set(ctx, unit, generation, stats); err != nil {
			s.logger.Warn().Err(err).Str("unit", unit).Msg("failed to cache statistics")
		}
	}
	return stats, nil
}

// AuditTrail returns the newest audit events of a record.
func (s *PersonnelService) AuditTrail(ctx context.Context, id string) ([]*domain.AuditEvent, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil && !errors.Is(err, domain.ErrPersonnelNotFound) {
		return nil, err
	}
	return s.audits.ListByPersonnel(ctx, id, auditTrailLimit)
}

func (s *PersonnelService) afterMutation(ctx context.Context, actor *domain.Identity, action domain.AuditAction, personnelID string, fields []string) {
	metrics.MutationsTotal.WithLabelValues(string(action), string(actor.Role)).Inc()

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("failed to invalidate stats cache")
		}
	}
	if s.audit != nil {
		s.audit.Record(domain.AuditEvent{
			ID:          uuid.NewString(),
			Action:      action,
			PersonnelID: personnelID,
			ActorID:     actor.ID,
			ActorRole:   actor.Role,
			Fields:      fields,
			Timestamp:   time.Now().UTC(),
		})
	}
}

func isClientError(err error) bool {
	return errors.Is(err, domain.ErrPersonnelNotFound) ||
		errors.Is(err, domain.ErrInvalidID) ||
		errors.Is(err, domain.ErrDuplicateMilitaryID) ||
		errors.Is(err, domain.ErrInvalidInput)
}
