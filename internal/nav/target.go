package nav

import (
	"fmt"
	"math"

	"drone-city-sim/internal/geometry/vector"
	"drone-city-sim/internal/projection"
	"drone-city-sim/internal/world"
)

// PickBuilding returns the index of the building whose projected ground point is
// nearest to the screen point (sx, sy), provided it lies within radius pixels.
// Only buildings are selectable.
func PickBuilding(p projection.Projector, yaw, sx, sy float64, buildings []world.Obstacle, radius float64) (int, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, b := range buildings {
		bx, by := p.Project(b.X, 0, b.Z, yaw)
		d := math.Hypot(bx-sx, by-sy)
		if d < radius && d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, best >= 0
}

// BuildingGoal is a delivery point hovering clearance units above the roof of b.
func BuildingGoal(index int, b world.Obstacle, clearance float64) Goal {
	return Goal{
		Point: vector.NewVec3(b.X, b.Roof()-clearance, b.Z),
		Label: fmt.Sprintf("navigating to building #%d", index),
	}
}
