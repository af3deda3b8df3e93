package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"city_network/internal/models"
)

// NewGorm returns stores backed by a gorm handle (postgres in production).
func NewGorm(db *gorm.DB) *Stores {
	return &Stores{
		Cities: &gormCities{db: db},
		Routes: &gormRoutes{db: db},
		Users:  &gormUsers{db: db},
	}
}

// translate maps driver errors onto the model sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrNotFound
	}
	var pgErr *pq.Error
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return models.ErrConflict
	}
	return err
}

// ---- cities ----

type gormCities struct{ db *gorm.DB }

func (s *gormCities) GetAll(ctx context.Context) ([]models.City, error) {
	var cities []models.City
	if err := s.db.WithContext(ctx).Order("id").Find(&cities).Error; err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	return cities, nil
}

func (s *gormCities) Get(ctx context.Context, id uint) (*models.City, error) {
	var city models.City
	if err := s.db.WithContext(ctx).First(&city, id).Error; err != nil {
		return nil, translate(err)
	}
	return &city, nil
}

func (s *gormCities) Create(ctx context.Context, c *models.City) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (s *gormCities) Update(ctx context.Context, c *models.City) error {
	res := s.db.WithContext(ctx).Model(c).Select("Name", "Color", "Icon", "Shape", "Lat", "Lng").Updates(c)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *gormCities) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.City{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ---- routes ----

type gormRoutes struct{ db *gorm.DB }

func (s *gormRoutes) preloaded(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Origin").
		Preload("Destiny").
		Preload("IntermediateStops", func(db *gorm.DB) *gorm.DB { return db.Order("seq") })
}

func (s *gormRoutes) GetAll(ctx context.Context) ([]models.Route, error) {
	var routes []models.Route
	if err := s.preloaded(ctx).Order("id").Find(&routes).Error; err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	return routes, nil
}

func (s *gormRoutes) Get(ctx context.Context, id uint) (*models.Route, error) {
	var route models.Route
	if err := s.preloaded(ctx).First(&route, id).Error; err != nil {
		return nil, translate(err)
	}
	return &route, nil
}

func (s *gormRoutes) Create(ctx context.Context, r *models.Route) error {
	stops := models.SortStops(r.IntermediateStops)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(r).Error; err != nil {
			return translate(err)
		}
		if err := createStops(tx, r.ID, stops); err != nil {
			return err
		}
		r.IntermediateStops = stops
		return nil
	})
}

func (s *gormRoutes) Update(ctx context.Context, r *models.Route) error {
	stops := models.SortStops(r.IntermediateStops)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(r).Select("OriginID", "DestinyID", "Cost").Updates(r)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.ErrNotFound
		}
		if err := tx.Unscoped().Where("route_id = ?", r.ID).Delete(&models.IntermediateStop{}).Error; err != nil {
			return fmt.Errorf("delete stops: %w", err)
		}
		if err := createStops(tx, r.ID, stops); err != nil {
			return err
		}
		r.IntermediateStops = stops
		return nil
	})
}

func (s *gormRoutes) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("route_id = ?", id).Delete(&models.IntermediateStop{}).Error; err != nil {
			return fmt.Errorf("delete stops: %w", err)
		}
		res := tx.Delete(&models.Route{}, id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.ErrNotFound
		}
		return nil
	})
}

func (s *gormRoutes) CountByCity(ctx context.Context, cityID uint) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Route{}).
		Where("origin_id = ? OR destiny_id = ?", cityID, cityID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count routes for city %d: %w", cityID, err)
	}
	return n, nil
}

func createStops(tx *gorm.DB, routeID uint, stops []models.IntermediateStop) error {
	if len(stops) == 0 {
		return nil
	}
	for i := range stops {
		stops[i].ID = 0
		stops[i].RouteID = routeID
	}
	if err := tx.Create(&stops).Error; err != nil {
		return fmt.Errorf("create stops: %w", err)
	}
	return nil
}

// ---- users ----

type gormUsers struct{ db *gorm.DB }

func (s *gormUsers) Create(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (s *gormUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}
