package api

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/military-registry/personnel-api/internal/core/domain"
	"github.com/military-registry/personnel-api/internal/core/ports"
)

// In-memory stores that mirror the Mongo adapters' error contract: ids are
// 24 hex characters, malformed ids yield domain.ErrInvalidID.

func validID(id string) bool {
	if len(id) != 24 {
		return false
	}
	for _, r := range id {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

type memUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if !validID(id) {
		return nil, domain.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	created := *user
	created.ID = fmt.Sprintf("%024x", r.nextID)
	stored := created
	r.users[created.ID] = &stored
	return &created, nil
}

func (r *memUserRepo) UpdateRole(_ context.Context, id string, role domain.Role) (*domain.User, error) {
	if !validID(id) {
		return nil, domain.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Role = role
	clone := *u
	return &clone, nil
}

func (r *memUserRepo) List(context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		clone := *u
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memUserRepo) ExistsWithRole(_ context.Context, role domain.Role) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Role == role {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) get(id string) domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.users[id]
}

func (r *memUserRepo) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

type memPersonnelRepo struct {
	mu       sync.Mutex
	records  map[string]*domain.Personnel
	nextID   int
	unitsErr error
}

func newMemPersonnelRepo() *memPersonnelRepo {
	return &memPersonnelRepo{records: make(map[string]*domain.Personnel)}
}

func (r *memPersonnelRepo) Create(_ context.Context, p *domain.Personnel) (*domain.Personnel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.records {
		if existing.MilitaryID == p.MilitaryID {
			return nil, domain.ErrDuplicateMilitaryID
		}
	}
	r.nextID++
	created := *p
	created.ID = fmt.Sprintf("%024x", 0xa00+r.nextID)
	stored := created
	r.records[created.ID] = &stored
	return &created, nil
}

func (r *memPersonnelRepo) FindByID(_ context.Context, id string) (*domain.Personnel, error) {
	if !validID(id) {
		return nil, domain.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.records[id]
	if !ok {
		return nil, domain.ErrPersonnelNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *memPersonnelRepo) Update(_ context.Context, id string, patch domain.PersonnelPatch) (*domain.Personnel, error) {
	if !validID(id) {
		return nil, domain.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.records[id]
	if !ok {
		return nil, domain.ErrPersonnelNotFound
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.MilitaryID, patch.MilitaryID)
	set(&p.LastName, patch.LastName)
	set(&p.FirstName, patch.FirstName)
	set(&p.Rank, patch.Rank)
	set(&p.Position, patch.Position)
	set(&p.Unit, patch.Unit)
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	clone := *p
	return &clone, nil
}

func (r *memPersonnelRepo) Delete(_ context.Context, id string) error {
	if !validID(id) {
		return domain.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return domain.ErrPersonnelNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *memPersonnelRepo) List(_ context.Context, f ports.ListPersonnelFilter) ([]*domain.Personnel, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Personnel, 0, len(r.records))
	for _, p := range r.records {
		if f.Unit != "" && p.Unit != f.Unit {
			continue
		}
		clone := *p
		out = append(out, &clone)
	}
	return out, int64(len(out)), nil
}

func (r *memPersonnelRepo) Units(context.Context) ([]string, error) {
	if r.unitsErr != nil {
		return nil, r.unitsErr
	}
	return nil, nil
}

func (r *memPersonnelRepo) Statistics(_ context.Context, _ string) (*domain.PersonnelStatistics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &domain.PersonnelStatistics{Total: int64(len(r.records))}, nil
}

func (r *memPersonnelRepo) get(id string) domain.Personnel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.records[id]
}

// memAudit records synchronously and serves as both recorder and store.
type memAudit struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (a *memAudit) Record(e domain.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func (a *memAudit) Insert(_ context.Context, e *domain.AuditEvent) error {
	a.Record(*e)
	return nil
}

func (a *memAudit) ListByPersonnel(_ context.Context, id string, _ int) ([]*domain.AuditEvent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []*domain.AuditEvent
	for i := len(a.events) - 1; i >= 0; i-- {
		if a.events[i].PersonnelID == id {
			e := a.events[i]
			out = append(out, &e)
		}
	}
	return out, nil
}
