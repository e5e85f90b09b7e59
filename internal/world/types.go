// Package world holds the city entities and the procedural generator that places them.
package world

import "drone-city-sim/internal/geometry/vector"

// Kind tags a static obstacle. It only changes rendering and HUD text.
type Kind string

const (
	KindBuilding   Kind = "building"
	KindVegetation Kind = "vegetation"
)

// Obstacle is a vertical rectangular column standing on the ground plane.
type Obstacle struct {
	ID   int     `json:"id"`
	Kind Kind    `json:"kind"`
	X    float64 `json:"x"`
	Z    float64 `json:"z"`
	W    float64 `json:"w"` // half extent on x
	D    float64 `json:"d"` // half extent on z
	H    float64 `json:"h"`
}

// Roof is the y coordinate of the top surface (negative up).
func (o Obstacle) Roof() float64 { return -o.H }

// Hazard is a mobile point entity (a bird) that bounces inside the city volume.
type Hazard struct {
	Pos vector.Vec3 `json:"pos"`
	Vel vector.Vec3 `json:"vel"`
}

// Axis is the road direction a ground vehicle drives along.
type Axis string

const (
	AxisX Axis = "x"
	AxisZ Axis = "z"
)

// GroundVehicle is cosmetic traffic. It never interacts with navigation.
type GroundVehicle struct {
	X     float64 `json:"x"`
	Z     float64 `json:"z"`
	Axis  Axis    `json:"axis"`
	Speed float64 `json:"speed"`
}

// World is the generated entity set.
type World struct {
	Buildings  []Obstacle
	Vegetation []Obstacle
	Hazards    []Hazard
	Traffic    []GroundVehicle

	// PlacementFallbacks counts vegetation accepted despite overlapping a building
	// because the retry cap was exhausted.
	PlacementFallbacks int
}
