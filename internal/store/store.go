// Package store holds the persistence backends for cities, routes and
// operator accounts.
package store

import (
	"context"

	"city_network/internal/models"
)

// RouteStore is the route collection the restriction check reads its
// snapshot from.
type RouteStore interface {
	// GetAll returns every persisted route ordered by id, with Origin,
	// Destiny and IntermediateStops loaded.
	GetAll(ctx context.Context) ([]models.Route, error)
	Get(ctx context.Context, id uint) (*models.Route, error)
	Create(ctx context.Context, r *models.Route) error
	Update(ctx context.Context, r *models.Route) error
	Delete(ctx context.Context, id uint) error
	// CountByCity returns the number of routes using the city as an endpoint.
	CountByCity(ctx context.Context, cityID uint) (int64, error)
}

// CityStore persists the nodes of the network.
type CityStore interface {
	GetAll(ctx context.Context) ([]models.City, error)
	Get(ctx context.Context, id uint) (*models.City, error)
	Create(ctx context.Context, c *models.City) error
	Update(ctx context.Context, c *models.City) error
	Delete(ctx context.Context, id uint) error
}

// UserStore persists operator accounts.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// Stores bundles one backend's implementations.
type Stores struct {
	Cities CityStore
	Routes RouteStore
	Users  UserStore
}
