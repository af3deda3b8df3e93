package services

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"city_network/internal/hub"
	"city_network/internal/models"
	"city_network/internal/restriction"
	"city_network/internal/store"
)

// UpdatePolicy decides whether a route's stored version takes part in the
// snapshot its own update is validated against.
type UpdatePolicy int

const (
	// ExcludeSelf drops the stored version of the route being updated.
	ExcludeSelf UpdatePolicy = iota
	// IncludeSelf validates against every stored route, the old version included.
	IncludeSelf
)

// RouteInput is what a client sends to create or replace a route.
type RouteInput struct {
	OriginID          uint
	DestinyID         uint
	Cost              float64
	IntermediateStops []string
}

func (in RouteInput) route() models.Route {
	return models.Route{
		OriginID:          in.OriginID,
		DestinyID:         in.DestinyID,
		Cost:              in.Cost,
		IntermediateStops: models.StopsFromNames(in.IntermediateStops),
	}
}

// RouteService runs the restriction check in front of every route write.
type RouteService struct {
	routes store.RouteStore
	cities store.CityStore
	engine *restriction.Engine
	policy UpdatePolicy
	notify Notifier

	// writeMu serialises check-then-write so two concurrent writes cannot
	// both pass against the same snapshot.
	writeMu sync.Mutex
}

func NewRouteService(routes store.RouteStore, cities store.CityStore, engine *restriction.Engine, policy UpdatePolicy) *RouteService {
	if engine == nil {
		engine = &restriction.Engine{}
	}
	return &RouteService{routes: routes, cities: cities, engine: engine, policy: policy, notify: nopNotifier{}}
}

// UseNotifier makes the service announce route writes to n.
func (s *RouteService) UseNotifier(n Notifier) {
	if n != nil {
		s.notify = n
	}
}

func (s *RouteService) List(ctx context.Context) ([]models.Route, error) {
	return s.routes.GetAll(ctx)
}

func (s *RouteService) Get(ctx context.Context, id uint) (*models.Route, error) {
	return s.routes.Get(ctx, id)
}

// Check validates in without writing anything. routeID is the id of the
// route being edited, or 0 for a new route.
func (s *RouteService) Check(ctx context.Context, routeID uint, in RouteInput) error {
	candidate := in.route()
	candidate.ID = routeID
	if err := s.checkEndpoints(ctx, candidate); err != nil {
		return err
	}
	return s.validate(ctx, candidate, routeID)
}

// Create validates the route against every stored route and persists it only
// when no indirect chain is as cheap.
func (s *RouteService) Create(ctx context.Context, in RouteInput) (*models.Route, error) {
	candidate := in.route()
	if err := s.checkEndpoints(ctx, candidate); err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.validate(ctx, candidate, 0); err != nil {
		return nil, err
	}
	if err := s.routes.Create(ctx, &candidate); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"route_id": candidate.ID,
		"origin":   candidate.OriginID,
		"destiny":  candidate.DestinyID,
		"cost":     candidate.Cost,
	}).Info("route created")

	created, err := s.routes.Get(ctx, candidate.ID)
	if err != nil {
		return nil, err
	}
	s.notify.Publish(hub.RouteCreated, created.ID, created)
	return created, nil
}

// Update replaces route id with in, under the same contract as Create.
func (s *RouteService) Update(ctx context.Context, id uint, in RouteInput) (*models.Route, error) {
	candidate := in.route()
	candidate.ID = id
	if err := s.checkEndpoints(ctx, candidate); err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, err := s.routes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	candidate.CreatedAt = existing.CreatedAt

	if err := s.validate(ctx, candidate, id); err != nil {
		return nil, err
	}
	if err := s.routes.Update(ctx, &candidate); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"route_id": id,
		"cost":     candidate.Cost,
	}).Info("route updated")

	updated, err := s.routes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notify.Publish(hub.RouteUpdated, id, updated)
	return updated, nil
}

func (s *RouteService) Delete(ctx context.Context, id uint) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.routes.Delete(ctx, id); err != nil {
		return err
	}
	s.notify.Publish(hub.RouteDeleted, id, nil)
	return nil
}

// validate assembles the snapshot and runs the engine. selfID is excluded
// from the snapshot under ExcludeSelf.
func (s *RouteService) validate(ctx context.Context, candidate models.Route, selfID uint) error {
	snapshot, err := s.routes.GetAll(ctx)
	if err != nil {
		return err
	}
	if selfID != 0 && s.policy == ExcludeSelf {
		snapshot = withoutRoute(snapshot, selfID)
	}

	err = s.engine.Validate(candidate, snapshot)
	if err == nil {
		return nil
	}

	entry := logrus.WithFields(logrus.Fields{
		"origin":  candidate.OriginID,
		"destiny": candidate.DestinyID,
		"cost":    candidate.Cost,
	})
	var verr *restriction.ValidationError
	if errors.As(err, &verr) {
		entry.WithFields(logrus.Fields{
			"indirect_path": verr.Path,
			"indirect_cost": verr.Cost,
		}).Warn("route rejected: cost inconsistency")
	} else {
		entry.WithError(err).Warn("route rejected")
	}
	return err
}

func (s *RouteService) checkEndpoints(ctx context.Context, r models.Route) error {
	if r.Cost < 0 {
		return models.ErrNegativeCost
	}
	if !r.HasEndpoints() {
		return models.ErrUnknownCity
	}
	if r.OriginID == r.DestinyID {
		return models.ErrSameEndpoints
	}
	for _, id := range []uint{r.OriginID, r.DestinyID} {
		if _, err := s.cities.Get(ctx, id); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.ErrUnknownCity
			}
			return err
		}
	}
	return nil
}

func withoutRoute(routes []models.Route, id uint) []models.Route {
	out := make([]models.Route, 0, len(routes))
	for _, r := range routes {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}
