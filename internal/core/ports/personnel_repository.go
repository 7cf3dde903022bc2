package ports

import (
	"context"

	"github.com/military-registry/personnel-api/internal/core/domain"
)

// ListPersonnelFilter carries the query parameters for listing personnel.
type ListPersonnelFilter struct {
	Search string // optional: case-insensitive match on lastName, firstName, militaryId
	Status string // optional: exact status
	Unit   string // optional: exact unit
	Page   int    // 1-based
	Limit  int
}

// PersonnelRepository defines persistence operations for personnel records.
// Methods taking an id return domain.ErrInvalidID for malformed ids and
// domain.ErrPersonnelNotFound when nothing matches.
type PersonnelRepository interface {
	Create(ctx context.Context, p *domain.Personnel) (*domain.Personnel, error)
	FindByID(ctx context.Context, id string) (*domain.Personnel, error)
	// Update applies patch and returns the record after the update.
	Update(ctx context.Context, id string, patch domain.PersonnelPatch) (*domain.Personnel, error)
	Delete(ctx context.Context, id string) error
	// List returns a page of records, newest first, and the total match count.
	List(ctx context.Context, filter ListPersonnelFilter) ([]*domain.Personnel, int64, error)
	Units(ctx context.Context) ([]string, error)
	Statistics(ctx context.Context, unit string) (*domain.PersonnelStatistics, error)
}

// AuditRepository persists and reads audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
	ListByPersonnel(ctx context.Context, personnelID string, limit int) ([]*domain.AuditEvent, error)
}

// AuditRecorder accepts audit events for asynchronous persistence.
type AuditRecorder interface {
	Record(event domain.AuditEvent)
}

// StatsCache caches statistics per unit ("" means all units).
//
// Get also reports the cache generation. Set stores only while that
// generation is still current; Invalidate advances it, so a computation
// that started before a mutation never lands in the cache.
type StatsCache interface {
	Get(ctx context.Context, unit string) (stats *domain.PersonnelStatistics, generation int64, hit bool, err error)
	Set(ctx context.Context, unit string, generation int64, stats *domain.PersonnelStatistics) error
	Invalidate(ctx context.Context) error
}
