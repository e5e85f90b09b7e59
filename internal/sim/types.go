package sim

import (
	"fmt"
	"math"
	"time"

	"drone-city-sim/internal/geometry/vector"
	"drone-city-sim/internal/world"
)

// Snapshot is the state handed to the presentation layer after every tick.
type Snapshot struct {
	Tick uint64    `json:"tick"`
	TS   time.Time `json:"ts"`

	Position vector.Vec3 `json:"position"`
	Altitude int         `json:"altitude"` // meters, |int(y)|
	Lat      float64     `json:"lat"`
	Lon      float64     `json:"lon"`
	Battery  int         `json:"battery"` // percent, truncated

	WindKmh       int         `json:"windKmh"`
	WindDirection vector.Vec3 `json:"windDirection"`

	Yaw          float64    `json:"yaw"`
	Phase        string     `json:"phase"`
	Status       string     `json:"status,omitempty"`
	ObstacleKind world.Kind `json:"obstacleKind,omitempty"`

	Alert     bool   `json:"alert"`
	AlertText string `json:"alertText,omitempty"`
	// HazardDistance is -1 when there are no hazards.
	HazardDistance float64 `json:"hazardDistance"`

	Goal     *vector.Vec3 `json:"goal,omitempty"`
	Waypoint *vector.Vec3 `json:"waypoint,omitempty"`

	Hazards []world.Hazard        `json:"hazards"`
	Traffic []world.GroundVehicle `json:"traffic"`
}

// HUD renders the one-line status readout.
func (s Snapshot) HUD() string {
	return fmt.Sprintf("ALT: %dm | BAT: %d%% | WIND: %d km/h", s.Altitude, s.Battery, s.WindKmh)
}

func altitude(y float64) int {
	a := int(y)
	if a < 0 {
		return -a
	}
	return a
}

func hazardDistance(closest float64) float64 {
	if math.IsInf(closest, 1) {
		return -1
	}
	return closest
}
