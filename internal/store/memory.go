package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"city_network/internal/models"
)

// memoryDB keeps every collection in maps guarded by one lock.
// Records are copied on the way in and out so callers never share memory
// with the store.
type memoryDB struct {
	mu     sync.RWMutex
	nextID uint

	cities map[uint]models.City
	routes map[uint]models.Route
	users  map[uint]models.User
}

// NewMemory returns stores backed by process memory.
func NewMemory() *Stores {
	db := &memoryDB{
		cities: make(map[uint]models.City),
		routes: make(map[uint]models.Route),
		users:  make(map[uint]models.User),
	}
	return &Stores{
		Cities: &memoryCities{db: db},
		Routes: &memoryRoutes{db: db},
		Users:  &memoryUsers{db: db},
	}
}

func (db *memoryDB) newID() uint {
	db.nextID++
	return db.nextID
}

// ---- cities ----

type memoryCities struct{ db *memoryDB }

func (s *memoryCities) GetAll(ctx context.Context) ([]models.City, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	out := make([]models.City, 0, len(s.db.cities))
	for _, c := range s.db.cities {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memoryCities) Get(ctx context.Context, id uint) (*models.City, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	c, ok := s.db.cities[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &c, nil
}

func (s *memoryCities) Create(ctx context.Context, c *models.City) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if s.nameTaken(c.Name, 0) {
		return models.ErrConflict
	}
	now := time.Now()
	c.ID = s.db.newID()
	c.CreatedAt, c.UpdatedAt = now, now
	s.db.cities[c.ID] = *c
	return nil
}

func (s *memoryCities) Update(ctx context.Context, c *models.City) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	old, ok := s.db.cities[c.ID]
	if !ok {
		return models.ErrNotFound
	}
	if s.nameTaken(c.Name, c.ID) {
		return models.ErrConflict
	}
	c.CreatedAt = old.CreatedAt
	c.UpdatedAt = time.Now()
	s.db.cities[c.ID] = *c
	return nil
}

func (s *memoryCities) Delete(ctx context.Context, id uint) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.cities[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.db.cities, id)
	return nil
}

// nameTaken must be called with the lock held.
func (s *memoryCities) nameTaken(name string, except uint) bool {
	for id, c := range s.db.cities {
		if id != except && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

// ---- routes ----

type memoryRoutes struct{ db *memoryDB }

func (s *memoryRoutes) GetAll(ctx context.Context) ([]models.Route, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	out := make([]models.Route, 0, len(s.db.routes))
	for _, r := range s.db.routes {
		out = append(out, s.hydrate(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memoryRoutes) Get(ctx context.Context, id uint) (*models.Route, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	r, ok := s.db.routes[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	r = s.hydrate(r)
	return &r, nil
}

func (s *memoryRoutes) Create(ctx context.Context, r *models.Route) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	now := time.Now()
	r.ID = s.db.newID()
	r.CreatedAt, r.UpdatedAt = now, now
	s.db.routes[r.ID] = s.strip(*r)
	return nil
}

func (s *memoryRoutes) Update(ctx context.Context, r *models.Route) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	old, ok := s.db.routes[r.ID]
	if !ok {
		return models.ErrNotFound
	}
	r.CreatedAt = old.CreatedAt
	r.UpdatedAt = time.Now()
	s.db.routes[r.ID] = s.strip(*r)
	return nil
}

func (s *memoryRoutes) Delete(ctx context.Context, id uint) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.routes[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.db.routes, id)
	return nil
}

func (s *memoryRoutes) CountByCity(ctx context.Context, cityID uint) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var n int64
	for _, r := range s.db.routes {
		if r.OriginID == cityID || r.DestinyID == cityID {
			n++
		}
	}
	return n, nil
}

// strip drops the city snapshots and renumbers the stops for storage.
func (s *memoryRoutes) strip(r models.Route) models.Route {
	r.Origin, r.Destiny = nil, nil
	stops := models.SortStops(r.IntermediateStops)
	for i := range stops {
		stops[i].RouteID = r.ID
		if stops[i].ID == 0 {
			stops[i].ID = s.db.newID()
		}
	}
	r.IntermediateStops = stops
	return r
}

// hydrate attaches copies of the endpoint cities. Must be called with the
// lock held.
func (s *memoryRoutes) hydrate(r models.Route) models.Route {
	if c, ok := s.db.cities[r.OriginID]; ok {
		r.Origin = &c
	}
	if c, ok := s.db.cities[r.DestinyID]; ok {
		r.Destiny = &c
	}
	r.IntermediateStops = append([]models.IntermediateStop(nil), r.IntermediateStops...)
	return r
}

// ---- users ----

type memoryUsers struct{ db *memoryDB }

func (s *memoryUsers) Create(ctx context.Context, u *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, existing := range s.db.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return models.ErrConflict
		}
	}
	now := time.Now()
	u.ID = s.db.newID()
	u.CreatedAt, u.UpdatedAt = now, now
	s.db.users[u.ID] = *u
	return nil
}

func (s *memoryUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	for _, u := range s.db.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}
