package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/military-registry/personnel-api/internal/core/domain"
	"github.com/military-registry/personnel-api/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users  map[string]*domain.User // by id
	nextID int
	err    error // if set, every call returns it
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	created := cloneUser(user)
	created.ID = fmt.Sprintf("user-%d", r.nextID)
	r.users[created.ID] = cloneUser(created)
	return created, nil
}

func (r *stubUserRepo) UpdateRole(_ context.Context, id string, role domain.Role) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Role = role
	return cloneUser(u), nil
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *stubUserRepo) ExistsWithRole(_ context.Context, role domain.Role) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	for _, u := range r.users {
		if u.Role == role {
			return true, nil
		}
	}
	return false, nil
}

// plainHasher keeps tests fast; the bcrypt adapter has its own tests.
type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }
func (plainHasher) Verify(p, stored string) bool  { return stored == "hashed:"+p }

// ---------------------------------------------------------------------------
// Personnel
// ---------------------------------------------------------------------------

type stubPersonnelRepo struct {
	records    map[string]*domain.Personnel
	nextID     int
	lastFilter ports.ListPersonnelFilter
	lastPatch  *domain.PersonnelPatch
	statsCalls int
	onStats    func() // runs inside Statistics before counting
	err        error
}

func newStubPersonnelRepo() *stubPersonnelRepo {
	return &stubPersonnelRepo{records: make(map[string]*domain.Personnel)}
}

func (r *stubPersonnelRepo) seed(p domain.Personnel) *domain.Personnel {
	r.nextID++
	p.ID = fmt.Sprintf("%024x", r.nextID)
	r.records[p.ID] = &p
	clone := p
	return &clone
}

func (r *stubPersonnelRepo) Create(_ context.Context, p *domain.Personnel) (*domain.Personnel, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, existing := range r.records {
		if existing.MilitaryID == p.MilitaryID {
			return nil, domain.ErrDuplicateMilitaryID
		}
	}
	return r.seed(*p), nil
}

func (r *stubPersonnelRepo) FindByID(_ context.Context, id string) (*domain.Personnel, error) {
	if r.err != nil {
		return nil, r.err
	}
	if len(id) != 24 {
		return nil, domain.ErrInvalidID
	}
	p, ok := r.records[id]
	if !ok {
		return nil, domain.ErrPersonnelNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubPersonnelRepo) Update(_ context.Context, id string, patch domain.PersonnelPatch) (*domain.Personnel, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.lastPatch = &patch
	if len(id) != 24 {
		return nil, domain.ErrInvalidID
	}
	p, ok := r.records[id]
	if !ok {
		return nil, domain.ErrPersonnelNotFound
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Rank != nil {
		p.Rank = *patch.Rank
	}
	if patch.Unit != nil {
		p.Unit = *patch.Unit
	}
	if patch.LastName != nil {
		p.LastName = *patch.LastName
	}
	if patch.BirthDate != nil {
		p.BirthDate = *patch.BirthDate
	}
	clone := *p
	return &clone, nil
}

func (r *stubPersonnelRepo) Delete(_ context.Context, id string) error {
	if r.err != nil {
		return r.err
	}
	if len(id) != 24 {
		return domain.ErrInvalidID
	}
	if _, ok := r.records[id]; !ok {
		return domain.ErrPersonnelNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *stubPersonnelRepo) List(_ context.Context, f ports.ListPersonnelFilter) ([]*domain.Personnel, int64, error) {
	r.lastFilter = f
	if r.err != nil {
		return nil, 0, r.err
	}
	var matched []*domain.Personnel
	for _, p := range r.records {
		if f.Unit != "" && p.Unit != f.Unit {
			continue
		}
		if f.Status != "" && string(p.Status) != f.Status {
			continue
		}
		if f.Search != "" {
			q := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(p.LastName), q) &&
				!strings.Contains(strings.ToLower(p.FirstName), q) &&
				!strings.Contains(strings.ToLower(p.MilitaryID), q) {
				continue
			}
		}
		clone := *p
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := int64(len(matched))
	skip := (f.Page - 1) * f.Limit
	if skip > len(matched) {
		return []*domain.Personnel{}, total, nil
	}
	end := skip + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], total, nil
}

func (r *stubPersonnelRepo) Units(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, p := range r.records {
		if !seen[p.Unit] {
			seen[p.Unit] = true
			out = append(out, p.Unit)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *stubPersonnelRepo) Statistics(_ context.Context, unit string) (*domain.PersonnelStatistics, error) {
	r.statsCalls++
	if r.onStats != nil {
		r.onStats()
	}
	if r.err != nil {
		return nil, r.err
	}
	stats := &domain.PersonnelStatistics{}
	for _, p := range r.records {
		if unit != "" && p.Unit != unit {
			continue
		}
		stats.Total++
		switch p.Status {
		case domain.StatusActive:
			stats.Active++
		case domain.StatusInactive:
			stats.Inactive++
		case domain.StatusLeave:
			stats.OnLeave++
		}
	}
	return stats, nil
}

// ---------------------------------------------------------------------------
// Audit and cache
// ---------------------------------------------------------------------------

type stubAudit struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (a *stubAudit) Record(e domain.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func (a *stubAudit) Insert(_ context.Context, e *domain.AuditEvent) error {
	a.Record(*e)
	return nil
}

func (a *stubAudit) ListByPersonnel(_ context.Context, id string, limit int) ([]*domain.AuditEvent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []*domain.AuditEvent
	for i := len(a.events) - 1; i >= 0 && len(out) < limit; i-- {
		if a.events[i].PersonnelID == id {
			e := a.events[i]
			out = append(out, &e)
		}
	}
	return out, nil
}

type stubCache struct {
	entries     map[string]*domain.PersonnelStatistics
	generation  int64
	invalidated int
	getErr      error
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]*domain.PersonnelStatistics)}
}

func (c *stubCache) Get(_ context.Context, unit string) (*domain.PersonnelStatistics, int64, bool, error) {
	if c.getErr != nil {
		return nil, 0, false, c.getErr
	}
	s, ok := c.entries[unit]
	return s, c.generation, ok, nil
}

func (c *stubCache) Set(_ context.Context, unit string, generation int64, s *domain.PersonnelStatistics) error {
	if generation != c.generation {
		return nil
	}
	c.entries[unit] = s
	return nil
}

func (c *stubCache) Invalidate(_ context.Context) error {
	c.invalidated++
	c.generation++
	c.entries = make(map[string]*domain.PersonnelStatistics)
	return nil
}
