// Package geo exports the city network as GeoJSON for map front ends.
package geo

import (
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"city_network/internal/models"
)

// NetworkMap builds a FeatureCollection with a Point per located city and a
// LineString per route whose two endpoints are located. Everything else is
// left out.
func NetworkMap(cities []models.City, routes []models.Route) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	bounds := geom.NewBounds(geom.XY)
	located := make(map[uint]geom.Coord, len(cities))

	for _, c := range cities {
		if !c.HasLocation() {
			continue
		}
		coord := geom.Coord{*c.Lng, *c.Lat}
		located[c.ID] = coord

		point := geom.NewPoint(geom.XY).MustSetCoords(coord)
		bounds.Extend(point)
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       fmt.Sprintf("city-%d", c.ID),
			Geometry: point,
			Properties: map[string]interface{}{
				"kind":  "city",
				"name":  c.Name,
				"color": c.Color,
				"icon":  c.Icon,
				"shape": c.Shape,
			},
		})
	}

	for _, r := range routes {
		from, ok := located[r.OriginID]
		if !ok {
			continue
		}
		to, ok := located[r.DestinyID]
		if !ok {
			continue
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       fmt.Sprintf("route-%d", r.ID),
			Geometry: geom.NewLineString(geom.XY).MustSetCoords([]geom.Coord{from, to}),
			Properties: map[string]interface{}{
				"kind":        "route",
				"origin_id":   r.OriginID,
				"destiny_id":  r.DestinyID,
				"cost":        r.Cost,
				"stops":       r.StopNames(),
				"distance_km": distanceKm(from, to),
			},
		})
	}

	if len(located) > 0 {
		fc.BBox = bounds
	}
	return fc
}

// distanceKm rounds the great-circle length of a (lng, lat) segment to
// 10 m.
func distanceKm(from, to geom.Coord) float64 {
	return math.Round(Distance(from[1], from[0], to[1], to[0])/10) / 100
}
