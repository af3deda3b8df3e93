package services

import (
	"context"

	"city_network/internal/hub"
	"city_network/internal/models"
	"city_network/internal/store"
)

type CityService struct {
	cities store.CityStore
	routes store.RouteStore
	notify Notifier
}

func NewCityService(cities store.CityStore, routes store.RouteStore) *CityService {
	return &CityService{cities: cities, routes: routes, notify: nopNotifier{}}
}

// UseNotifier makes the service announce city writes to n.
func (s *CityService) UseNotifier(n Notifier) {
	if n != nil {
		s.notify = n
	}
}

func (s *CityService) List(ctx context.Context) ([]models.City, error) {
	return s.cities.GetAll(ctx)
}

func (s *CityService) Get(ctx context.Context, id uint) (*models.City, error) {
	return s.cities.Get(ctx, id)
}

func (s *CityService) Create(ctx context.Context, c *models.City) error {
	c.ID = 0
	if err := s.cities.Create(ctx, c); err != nil {
		return err
	}
	s.notify.Publish(hub.CityCreated, c.ID, c)
	return nil
}

// Update overwrites the editable attributes of city id.
func (s *CityService) Update(ctx context.Context, id uint, c *models.City) (*models.City, error) {
	existing, err := s.cities.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.Name = c.Name
	existing.Color = c.Color
	existing.Icon = c.Icon
	existing.Shape = c.Shape
	existing.Lat = c.Lat
	existing.Lng = c.Lng
	if err := s.cities.Update(ctx, existing); err != nil {
		return nil, err
	}
	updated, err := s.cities.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notify.Publish(hub.CityUpdated, id, updated)
	return updated, nil
}

// Delete refuses to remove a city that is still a route endpoint.
func (s *CityService) Delete(ctx context.Context, id uint) error {
	if _, err := s.cities.Get(ctx, id); err != nil {
		return err
	}
	n, err := s.routes.CountByCity(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return models.ErrCityInUse
	}
	if err := s.cities.Delete(ctx, id); err != nil {
		return err
	}
	s.notify.Publish(hub.CityDeleted, id, nil)
	return nil
}
