package models

import (
	"gorm.io/gorm"
)

// Route is a directed, weighted edge between two cities.
// OriginID and DestinyID identify the endpoints; Origin and Destiny are
// display snapshots loaded alongside and never used to resolve identity.
type Route struct {
	gorm.Model

	OriginID  uint    `json:"origin_id" gorm:"index;not null"`
	DestinyID uint    `json:"destiny_id" gorm:"index;not null"`
	Cost      float64 `json:"cost" gorm:"not null;default:0"`

	// Associations
	Origin            *City              `gorm:"foreignKey:OriginID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"origin,omitempty"`
	Destiny           *City              `gorm:"foreignKey:DestinyID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"destiny,omitempty"`
	IntermediateStops []IntermediateStop `gorm:"foreignKey:RouteID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"intermediate_stops,omitempty"`
}

// HasEndpoints reports whether both endpoint ids are set. Routes without them
// take no part in cost restriction checks.
func (r Route) HasEndpoints() bool {
	return r.OriginID != 0 && r.DestinyID != 0
}

// StopNames returns the intermediate stop names ordered by sequence.
func (r Route) StopNames() []string {
	names := make([]string, len(r.IntermediateStops))
	for i, s := range SortStops(r.IntermediateStops) {
		names[i] = s.Name
	}
	return names
}
