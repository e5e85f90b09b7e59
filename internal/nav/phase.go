package nav

import "drone-city-sim/internal/geometry/vector"

// Goal is the vehicle's final destination plus the status text shown while pursuing it.
type Goal struct {
	Point vector.Vec3 `json:"point"`
	Label string      `json:"label"`
}

// Phase is the navigation state. It is one of Idle, Moving or Avoiding.
type Phase interface {
	Name() string
	phase()
}

// Idle holds position: there is no goal.
type Idle struct{}

// Moving pursues the goal directly and checks the path ahead for obstacles.
type Moving struct {
	Goal Goal
}

// Avoiding climbs to a waypoint above a detected obstacle before resuming the goal.
// No obstacle checks run in this phase.
type Avoiding struct {
	Goal     Goal
	Waypoint vector.Vec3
}

func (Idle) Name() string     { return "idle" }
func (Moving) Name() string   { return "moving" }
func (Avoiding) Name() string { return "avoiding" }

func (Idle) phase()     {}
func (Moving) phase()   {}
func (Avoiding) phase() {}

// GoalOf returns the goal carried by p, if any.
func GoalOf(p Phase) (Goal, bool) {
	switch s := p.(type) {
	case Moving:
		return s.Goal, true
	case Avoiding:
		return s.Goal, true
	}
	return Goal{}, false
}

// WaypointOf returns the pending climb waypoint, if any.
func WaypointOf(p Phase) (vector.Vec3, bool) {
	if s, ok := p.(Avoiding); ok {
		return s.Waypoint, true
	}
	return vector.Vec3{}, false
}
