package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"city_network/internal/models"
)

// Graph layout:
//
//	(:City {id, name, color, icon, shape, lat, lng, created_at, updated_at})
//	(:City)-[:ROUTE {id, cost, stops, created_at, updated_at}]->(:City)
//	(:User {id, name, email, password, role, created_at, updated_at})
//	(:Sequence {name, value}) hands out ids shared by all records.

// NewNeo4j returns stores backed by a neo4j graph.
func NewNeo4j(driver neo4j.DriverWithContext) *Stores {
	g := &neo4jGraph{driver: driver}
	return &Stores{
		Cities: &neo4jCities{g: g},
		Routes: &neo4jRoutes{g: g},
		Users:  &neo4jUsers{g: g},
	}
}

// EnsureNeo4jSchema creates the uniqueness constraints the stores rely on.
func EnsureNeo4jSchema(ctx context.Context, driver neo4j.DriverWithContext) error {
	statements := []string{
		`CREATE CONSTRAINT city_id IF NOT EXISTS FOR (c:City) REQUIRE c.id IS UNIQUE`,
		`CREATE CONSTRAINT city_name IF NOT EXISTS FOR (c:City) REQUIRE c.name IS UNIQUE`,
		`CREATE CONSTRAINT user_email IF NOT EXISTS FOR (u:User) REQUIRE u.email IS UNIQUE`,
		`CREATE CONSTRAINT route_id IF NOT EXISTS FOR ()-[r:ROUTE]-() REQUIRE r.id IS UNIQUE`,
	}
	for _, stmt := range statements {
		if _, err := neo4j.ExecuteQuery(ctx, driver, stmt, nil, neo4j.EagerResultTransformer); err != nil {
			return fmt.Errorf("neo4j schema: %w", err)
		}
	}
	return nil
}

type neo4jGraph struct {
	driver neo4j.DriverWithContext
}

func (g *neo4jGraph) read(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)
	return session.ExecuteRead(ctx, work)
}

func (g *neo4jGraph) write(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)
	return session.ExecuteWrite(ctx, work)
}

// nextID must run inside a write transaction.
func nextID(ctx context.Context, tx neo4j.ManagedTransaction) (uint, error) {
	result, err := tx.Run(ctx, `
		MERGE (s:Sequence {name: 'ids'})
		ON CREATE SET s.value = 0
		SET s.value = s.value + 1
		RETURN s.value AS value`, nil)
	if err != nil {
		return 0, err
	}
	record, err := result.Single(ctx)
	if err != nil {
		return 0, err
	}
	v, _ := record.Get("value")
	return uint(asInt64(v)), nil
}

// countRows drains a result and returns the integer in column "n".
func countRows(ctx context.Context, result neo4j.ResultWithContext) (int64, error) {
	record, err := result.Single(ctx)
	if err != nil {
		return 0, err
	}
	v, _ := record.Get("n")
	return asInt64(v), nil
}

// ---- cities ----

type neo4jCities struct{ g *neo4jGraph }

func (s *neo4jCities) GetAll(ctx context.Context) ([]models.City, error) {
	out, err := s.g.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `MATCH (c:City) RETURN c {.*} AS city ORDER BY c.id`, nil)
		if err != nil {
			return nil, err
		}
		var cities []models.City
		for result.Next(ctx) {
			v, _ := result.Record().Get("city")
			cities = append(cities, cityFromMap(asMap(v)))
		}
		return cities, result.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	cities, _ := out.([]models.City)
	return cities, nil
}

func (s *neo4jCities) Get(ctx context.Context, id uint) (*models.City, error) {
	out, err := s.g.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `MATCH (c:City {id: $id}) RETURN c {.*} AS city`,
			map[string]any{"id": int64(id)})
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			return nil, result.Err()
		}
		v, _ := result.Record().Get("city")
		city := cityFromMap(asMap(v))
		return &city, nil
	})
	if err != nil {
		return nil, fmt.Errorf("get city %d: %w", id, err)
	}
	city, _ := out.(*models.City)
	if city == nil {
		return nil, models.ErrNotFound
	}
	return city, nil
}

func (s *neo4jCities) Create(ctx context.Context, c *models.City) error {
	_, err := s.g.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		taken, err := cityNameTaken(ctx, tx, c.Name, 0)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, models.ErrConflict
		}
		id, err := nextID(ctx, tx)
		if err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		params := cityParams(c)
		params["id"] = int64(id)
		params["now"] = now
		_, err = tx.Run(ctx, `
			CREATE (c:City {id: $id, name: $name, color: $color, icon: $icon, shape: $shape,
			                lat: $lat, lng: $lng, created_at: $now, updated_at: $now})`, params)
		if err != nil {
			return nil, err
		}
		c.ID = id
		c.CreatedAt, c.UpdatedAt = now, now
		return nil, nil
	})
	return wrapWrite("create city", err)
}

func (s *neo4jCities) Update(ctx context.Context, c *models.City) error {
	_, err := s.g.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		taken, err := cityNameTaken(ctx, tx, c.Name, c.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, models.ErrConflict
		}
		params := cityParams(c)
		params["id"] = int64(c.ID)
		params["now"] = time.Now().UTC()
		result, err := tx.Run(ctx, `
			MATCH (c:City {id: $id})
			SET c.name = $name, c.color = $color, c.icon = $icon, c.shape = $shape,
			    c.lat = $lat, c.lng = $lng, c.updated_at = $now
			RETURN count(*) AS n`, params)
		if err != nil {
			return nil, err
		}
		n, err := countRows(ctx, result)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, models.ErrNotFound
		}
		return nil, nil
	})
	return wrapWrite("update city", err)
}

func (s *neo4jCities) Delete(ctx context.Context, id uint) error {
	_, err := s.g.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `MATCH (c:City {id: $id}) DELETE c RETURN count(*) AS n`,
			map[string]any{"id": int64(id)})
		if err != nil {
			return nil, err
		}
		n, err := countRows(ctx, result)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, models.ErrNotFound
		}
		return nil, nil
	})
	return wrapWrite("delete city", err)
}

func cityNameTaken(ctx context.Context, tx neo4j.ManagedTransaction, name string, except uint) (bool, error) {
	result, err := tx.Run(ctx, `
		MATCH (c:City) WHERE toLower(c.name) = toLower($name) AND c.id <> $except
		RETURN count(c) AS n`,
		map[string]any{"name": name, "except": int64(except)})
	if err != nil {
		return false, err
	}
	n, err := countRows(ctx, result)
	return n > 0, err
}

func cityParams(c *models.City) map[string]any {
	params := map[string]any{
		"name":  c.Name,
		"color": c.Color,
		"icon":  c.Icon,
		"shape": c.Shape,
		"lat":   nil,
		"lng":   nil,
	}
	if c.Lat != nil {
		params["lat"] = *c.Lat
	}
	if c.Lng != nil {
		params["lng"] = *c.Lng
	}
	return params
}

func cityFromMap(m map[string]any) models.City {
	var c models.City
	c.ID = uint(asInt64(m["id"]))
	c.Name = asString(m["name"])
	c.Color = asString(m["color"])
	c.Icon = asString(m["icon"])
	c.Shape = asString(m["shape"])
	if v, ok := m["lat"].(float64); ok {
		c.Lat = &v
	}
	if v, ok := m["lng"].(float64); ok {
		c.Lng = &v
	}
	c.CreatedAt = asTime(m["created_at"])
	c.UpdatedAt = asTime(m["updated_at"])
	return c
}

// ---- routes ----

type neo4jRoutes struct{ g *neo4jGraph }

const routeProjection = `
	RETURN r {.*} AS route, o {.*} AS origin, d {.*} AS destiny`

func (s *neo4jRoutes) GetAll(ctx context.Context) ([]models.Route, error) {
	out, err := s.g.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `MATCH (o:City)-[r:ROUTE]->(d:City)`+routeProjection+` ORDER BY r.id`, nil)
		if err != nil {
			return nil, err
		}
		var routes []models.Route
		for result.Next(ctx) {
			routes = append(routes, routeFromRecord(result.Record()))
		}
		return routes, result.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	routes, _ := out.([]models.Route)
	return routes, nil
}

func (s *neo4jRoutes) Get(ctx context.Context, id uint) (*models.Route, error) {
	out, err := s.g.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `MATCH (o:City)-[r:ROUTE {id: $id}]->(d:City)`+routeProjection,
			map[string]any{"id": int64(id)})
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			return nil, result.Err()
		}
		route := routeFromRecord(result.Record())
		return &route, nil
	})
	if err != nil {
		return nil, fmt.Errorf("get route %d: %w", id, err)
	}
	route, _ := out.(*models.Route)
	if route == nil {
		return nil, models.ErrNotFound
	}
	return route, nil
}

func (s *neo4jRoutes) Create(ctx context.Context, r *models.Route) error {
	_, err := s.g.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		id, err := nextID(ctx, tx)
		if err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		result, err := tx.Run(ctx, `
			MATCH (o:City {id: $origin}), (d:City {id: $destiny})
			CREATE (o)-[r:ROUTE {id: $id, cost: $cost, stops: $stops, created_at: $now, updated_at: $now}]->(d)
			RETURN count(r) AS n`,
			map[string]any{
				"id":      int64(id),
				"origin":  int64(r.OriginID),
				"destiny": int64(r.DestinyID),
				"cost":    r.Cost,
				"stops":   r.StopNames(),
				"now":     now,
			})
		if err != nil {
			return nil, err
		}
		n, err := countRows(ctx, result)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, models.ErrUnknownCity
		}
		r.ID = id
		r.CreatedAt, r.UpdatedAt = now, now
		r.IntermediateStops = models.StopsFromNames(r.StopNames())
		return nil, nil
	})
	return wrapWrite("create route", err)
}

// Update replaces the relationship because its endpoints may change.
func (s *neo4jRoutes) Update(ctx context.Context, r *models.Route) error {
	_, err := s.g.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		now := time.Now().UTC()
		result, err := tx.Run(ctx, `
			MATCH ()-[old:ROUTE {id: $id}]->()
			WITH old, old.created_at AS created
			MATCH (o:City {id: $origin}), (d:City {id: $destiny})
			CREATE (o)-[r:ROUTE {id: $id, cost: $cost, stops: $stops, created_at: created, updated_at: $now}]->(d)
			DELETE old
			RETURN count(r) AS n`,
			map[string]any{
				"id":      int64(r.ID),
				"origin":  int64(r.OriginID),
				"destiny": int64(r.DestinyID),
				"cost":    r.Cost,
				"stops":   r.StopNames(),
				"now":     now,
			})
		if err != nil {
			return nil, err
		}
		n, err := countRows(ctx, result)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, models.ErrNotFound
		}
		r.UpdatedAt = now
		r.IntermediateStops = models.StopsFromNames(r.StopNames())
		return nil, nil
	})
	return wrapWrite("update route", err)
}

func (s *neo4jRoutes) Delete(ctx context.Context, id uint) error {
	_, err := s.g.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `MATCH ()-[r:ROUTE {id: $id}]->() DELETE r RETURN count(*) AS n`,
			map[string]any{"id": int64(id)})
		if err != nil {
			return nil, err
		}
		n, err := countRows(ctx, result)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, models.ErrNotFound
		}
		return nil, nil
	})
	return wrapWrite("delete route", err)
}

func (s *neo4jRoutes) CountByCity(ctx context.Context, cityID uint) (int64, error) {
	out, err := s.g.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `MATCH (:City {id: $id})-[r:ROUTE]-() RETURN count(r) AS n`,
			map[string]any{"id": int64(cityID)})
		if err != nil {
			return nil, err
		}
		return countRows(ctx, result)
	})
	if err != nil {
		return 0, fmt.Errorf("count routes for city %d: %w", cityID, err)
	}
	n, _ := out.(int64)
	return n, nil
}

func routeFromRecord(record *neo4j.Record) models.Route {
	rv, _ := record.Get("route")
	ov, _ := record.Get("origin")
	dv, _ := record.Get("destiny")
	props := asMap(rv)
	origin := cityFromMap(asMap(ov))
	destiny := cityFromMap(asMap(dv))

	var r models.Route
	r.ID = uint(asInt64(props["id"]))
	r.Cost = asFloat64(props["cost"])
	r.OriginID = origin.ID
	r.DestinyID = destiny.ID
	r.Origin = &origin
	r.Destiny = &destiny
	r.CreatedAt = asTime(props["created_at"])
	r.UpdatedAt = asTime(props["updated_at"])
	r.IntermediateStops = models.StopsFromNames(asStrings(props["stops"]))
	for i := range r.IntermediateStops {
		r.IntermediateStops[i].RouteID = r.ID
	}
	return r
}

// ---- users ----

type neo4jUsers struct{ g *neo4jGraph }

func (s *neo4jUsers) Create(ctx context.Context, u *models.User) error {
	_, err := s.g.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `MATCH (u:User) WHERE toLower(u.email) = toLower($email) RETURN count(u) AS n`,
			map[string]any{"email": u.Email})
		if err != nil {
			return nil, err
		}
		n, err := countRows(ctx, result)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, models.ErrConflict
		}
		id, err := nextID(ctx, tx)
		if err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		_, err = tx.Run(ctx, `
			CREATE (:User {id: $id, name: $name, email: $email, password: $password, role: $role,
			               created_at: $now, updated_at: $now})`,
			map[string]any{
				"id":       int64(id),
				"name":     u.Name,
				"email":    u.Email,
				"password": u.Password,
				"role":     u.Role,
				"now":      now,
			})
		if err != nil {
			return nil, err
		}
		u.ID = id
		u.CreatedAt, u.UpdatedAt = now, now
		return nil, nil
	})
	return wrapWrite("create user", err)
}

func (s *neo4jUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	out, err := s.g.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `MATCH (u:User) WHERE toLower(u.email) = toLower($email) RETURN u {.*} AS user`,
			map[string]any{"email": email})
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			return nil, result.Err()
		}
		v, _ := result.Record().Get("user")
		m := asMap(v)
		u := &models.User{
			Name:     asString(m["name"]),
			Email:    asString(m["email"]),
			Password: asString(m["password"]),
			Role:     asString(m["role"]),
		}
		u.ID = uint(asInt64(m["id"]))
		u.CreatedAt = asTime(m["created_at"])
		u.UpdatedAt = asTime(m["updated_at"])
		return u, nil
	})
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	u, _ := out.(*models.User)
	if u == nil {
		return nil, models.ErrNotFound
	}
	return u, nil
}

// ---- value helpers ----

// wrapWrite keeps model sentinels unwrapped so callers can compare them.
func wrapWrite(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{models.ErrNotFound, models.ErrConflict, models.ErrUnknownCity} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	if neo4j.IsNeo4jError(err) && strings.Contains(err.Error(), "ConstraintValidationFailed") {
		return models.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

func asFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return 0
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asStrings(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func asTime(v any) time.Time {
	t, _ := v.(time.Time)
	return t
}
