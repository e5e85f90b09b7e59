package nav

import (
	"drone-city-sim/internal/geometry/vector"
	"drone-city-sim/internal/world"
)

// Index answers whether a candidate position is inside a static obstacle.
type Index interface {
	Test(p vector.Vec3) (world.Obstacle, bool)
}

// ObstacleIndex treats every building and tree as a vertical column whose footprint
// is inflated by the vehicle radius. Columns are scanned buildings first, then
// vegetation, and the first hit in that order is returned.
type ObstacleIndex struct {
	radius    float64
	obstacles []world.Obstacle
}

func NewObstacleIndex(vehicleRadius float64, buildings, vegetation []world.Obstacle) *ObstacleIndex {
	all := make([]world.Obstacle, 0, len(buildings)+len(vegetation))
	all = append(all, buildings...)
	all = append(all, vegetation...)
	return &ObstacleIndex{radius: vehicleRadius, obstacles: all}
}

// Test returns the first obstacle whose footprint contains p while p is below its roof.
func (ix *ObstacleIndex) Test(p vector.Vec3) (world.Obstacle, bool) {
	r := ix.radius
	for _, o := range ix.obstacles {
		if o.X-o.W-r < p.X && p.X < o.X+o.W+r &&
			o.Z-o.D-r < p.Z && p.Z < o.Z+o.D+r &&
			p.Y > o.Roof() {
			return o, true
		}
	}
	return world.Obstacle{}, false
}
