package models

import (
	"sort"

	"gorm.io/gorm"
)

// IntermediateStop is a named stop along a route.
// It is descriptive only; indirection is derived from the route graph.
type IntermediateStop struct {
	gorm.Model

	Name string `json:"name" binding:"required,notblank"`
	Seq  int    `json:"seq"`

	// Foreign key to route
	RouteID uint `json:"route_id"`
}

// SortStops returns a copy of stops ordered by Seq.
func SortStops(stops []IntermediateStop) []IntermediateStop {
	out := append([]IntermediateStop(nil), stops...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// StopsFromNames builds stops numbered in the order given.
func StopsFromNames(names []string) []IntermediateStop {
	stops := make([]IntermediateStop, 0, len(names))
	for i, n := range names {
		stops = append(stops, IntermediateStop{Name: n, Seq: i + 1})
	}
	return stops
}
