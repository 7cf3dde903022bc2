package ports

import (
	"context"

	"github.com/military-registry/personnel-api/internal/core/domain"
)

// ListPersonnelInput carries the parameters of the list endpoint.
type ListPersonnelInput struct {
	Search string
	Status string
	Unit   string
	Page   int
	Limit  int
}

// ListPersonnelResult is returned by ListPersonnel.
type ListPersonnelResult struct {
	Items []*domain.Personnel
	Total int64
	Page  int
	Pages int
}

// PersonnelService defines use-case operations for personnel records.
type PersonnelService interface {
	ListPersonnel(ctx context.Context, input ListPersonnelInput) (*ListPersonnelResult, error)
	GetPersonnel(ctx context.Context, id string) (*domain.Personnel, error)
	CreatePersonnel(ctx context.Context, actor *domain.Identity, p *domain.Personnel) (*domain.Personnel, error)
	// UpdatePersonnel narrows fields through the access policy for actor's
	// role before applying them.
	UpdatePersonnel(ctx context.Context, actor *domain.Identity, id string, fields map[string]any) (*domain.Personnel, error)
	DeletePersonnel(ctx context.Context, actor *domain.Identity, id string) error
	Units(ctx context.Context) ([]string, error)
	Statistics(ctx context.Context, unit string) (*domain.PersonnelStatistics, error)
	AuditTrail(ctx context.Context, id string) ([]*domain.AuditEvent, error)
}
