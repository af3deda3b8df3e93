// internal/models/city.go
package models

import (
	"gorm.io/gorm"
)

// City is a node of the transport network.
// Color, Icon and Shape are display attributes; Lat and Lng are optional and
// only used by the map export.
type City struct {
	gorm.Model

	Name  string `gorm:"uniqueIndex;not null" json:"name" binding:"required,notblank"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
	Shape string `json:"shape"`

	Lat *float64 `json:"lat,omitempty"`
	Lng *float64 `json:"lng,omitempty"`
}

// HasLocation reports whether the city can be placed on a map.
func (c City) HasLocation() bool {
	return c.Lat != nil && c.Lng != nil
}
