// Package nav drives the vehicle towards its goal and routes it over obstacles.
package nav

import (
	"drone-city-sim/internal/geometry/vector"
	"drone-city-sim/internal/world"
)

// Status texts shown on the HUD.
const (
	StatusObstacle  = "obstacle detected: climbing"
	StatusDelivered = "delivered"
	StatusDepleted  = "battery depleted"
)

// Outcome describes what a single Update did.
type Outcome int

const (
	OutcomeIdle Outcome = iota
	OutcomeMoved
	OutcomeObstacle
	OutcomeWaypointReached
	OutcomeDelivered
	OutcomeDepleted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMoved:
		return "moved"
	case OutcomeObstacle:
		return "obstacle"
	case OutcomeWaypointReached:
		return "waypoint-reached"
	case OutcomeDelivered:
		return "delivered"
	case OutcomeDepleted:
		return "depleted"
	}
	return "idle"
}

// Config holds the controller tuning.
type Config struct {
	StepSpeed      float64 // distance per tick before wind
	LookAhead      float64 // look-ahead in step lengths, used only for obstacle tests
	ReachRadius    float64 // a target closer than this is reached
	BatteryDrain   float64 // battery percent per moving tick
	ClimbClearance float64 // height above a detected roof for the climb waypoint
	// ClampBattery stops the vehicle at 0% instead of letting the battery go negative.
	ClampBattery bool
}

func DefaultConfig() Config {
	return Config{
		StepSpeed:      0.4,
		LookAhead:      8,
		ReachRadius:    0.5,
		BatteryDrain:   0.01,
		ClimbClearance: 3,
		ClampBattery:   true,
	}
}

// Vehicle is the navigated aircraft.
type Vehicle struct {
	Position vector.Vec3
	Battery  float64
	Phase    Phase
	Status   string
	// ObstacleKind is the kind of the obstacle behind the current climb, if any.
	ObstacleKind world.Kind
}

// NewVehicle returns an idle vehicle with a full battery.
func NewVehicle(pos vector.Vec3) *Vehicle {
	return &Vehicle{Position: pos, Battery: 100, Phase: Idle{}}
}

// Controller is stateless apart from its tuning: every decision is re-derived
// from the vehicle's phase on each tick.
type Controller struct {
	cfg Config
}

func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg}
}

func (c *Controller) Config() Config { return c.cfg }

// SetGoal replaces any goal and drops a pending waypoint.
func (c *Controller) SetGoal(v *Vehicle, g Goal) {
	v.Phase = Moving{Goal: g}
	v.Status = g.Label
	v.ObstacleKind = ""
}

// Clear abandons the current goal.
func (c *Controller) Clear(v *Vehicle) {
	v.Phase = Idle{}
	v.Status = ""
	v.ObstacleKind = ""
}

// Update advances the vehicle by one tick. drift is the wind displacement per tick;
// only its X and Z components are used.
func (c *Controller) Update(v *Vehicle, drift vector.Vec3, index Index) Outcome {
	if v.Phase == nil {
		v.Phase = Idle{}
	}

	var goal Goal
	var target vector.Vec3
	avoiding := false
	switch p := v.Phase.(type) {
	case Moving:
		goal, target = p.Goal, p.Goal.Point
	case Avoiding:
		goal, target, avoiding = p.Goal, p.Waypoint, true
	default:
		return OutcomeIdle
	}

	dist := v.Position.Dist(target)
	if dist < c.cfg.ReachRadius {
		if avoiding {
			v.Phase = Moving{Goal: goal}
			v.Status = goal.Label
			v.ObstacleKind = ""
			return OutcomeWaypointReached
		}
		v.Phase = Idle{}
		v.Status = StatusDelivered
		return OutcomeDelivered
	}

	if c.cfg.ClampBattery && v.Battery <= 0 {
		v.Battery = 0
		v.Status = StatusDepleted
		return OutcomeDepleted
	}

	vel := target.Sub(v.Position).Normalize().Mul(c.cfg.StepSpeed).Add(drift.Horizontal())

	if !avoiding && index != nil {
		ahead := v.Position.Add(vel.Mul(c.cfg.LookAhead))
		if o, hit := index.Test(ahead); hit {
			v.Phase = Avoiding{
				Goal:     goal,
				Waypoint: vector.NewVec3(o.X, o.Roof()-c.cfg.ClimbClearance, o.Z),
			}
			v.Status = StatusObstacle
			v.ObstacleKind = o.Kind
			return OutcomeObstacle
		}
	}

	v.Position = v.Position.Add(vel)
	v.Battery -= c.cfg.BatteryDrain
	if c.cfg.ClampBattery && v.Battery < 0 {
		v.Battery = 0
	}
	return OutcomeMoved
}
