package sim

import (
	"fmt"
	"math/rand"
	"time"

	"drone-city-sim/internal/env"
	"drone-city-sim/internal/geometry/vector"
	"drone-city-sim/internal/nav"
	"drone-city-sim/internal/projection"
	"drone-city-sim/internal/world"
)

// GoToLabel is the status shown while flying to a point given in city units.
const GoToLabel = "navigating to goal"

type Config struct {
	// Seed drives world generation and wind. Zero picks a time based seed.
	Seed int64

	Buildings  int
	Vegetation int
	Hazards    int
	Traffic    int

	Generator world.GeneratorConfig
	Camera    projection.Camera
	Nav       nav.Config
	Wind      env.WindConfig
	Hazard    env.HazardConfig

	VehicleRadius float64
	PickRadius    float64 // screen pixels
	RoofClearance float64 // height above a selected roof
	Start         vector.Vec3

	Geo GeoRef
}

func DefaultConfig() Config {
	return Config{
		Buildings:     25,
		Vegetation:    20,
		Hazards:       8,
		Traffic:       10,
		Generator:     world.DefaultGeneratorConfig(),
		Camera:        projection.DefaultCamera(),
		Nav:           nav.DefaultConfig(),
		Wind:          env.DefaultWindConfig(),
		Hazard:        env.DefaultHazardConfig(),
		VehicleRadius: 0.8,
		PickRadius:    60,
		RoofClearance: 2.5,
		Start:         vector.NewVec3(0, -60, 0),
		Geo:           NewGeoRef(32.0853, 34.7818, 1),
	}
}

// StepResult is a snapshot plus what happened during the tick.
type StepResult struct {
	Snapshot    Snapshot
	Outcome     nav.Outcome
	Bumps       int
	WindChanged bool
}

// Simulation owns every entity of the city. Step is the only writer of per-tick
// state; Apply only touches the goal and the camera.
type Simulation struct {
	cfg Config

	world       world.World
	camera      projection.Camera
	vehicle     *nav.Vehicle
	wind        *env.WindModel
	hazards     *env.HazardField
	environment env.Environment
	index       *nav.ObstacleIndex
	ctrl        *nav.Controller
	geo         GeoRef

	tick  uint64
	now   time.Time
	alert string
	// trafficLimit is the city edge where ground vehicles wrap.
	trafficLimit float64
}

// New generates a city and places the vehicle at cfg.Start. start is the wall clock
// the wind interval is measured from.
func New(cfg Config, start time.Time) *Simulation {
	seed := cfg.Seed
	if seed == 0 {
		seed = start.UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	gen := world.NewGenerator(cfg.Generator, rng)
	w := gen.Generate(cfg.Buildings, cfg.Vegetation, cfg.Hazards)
	w.Traffic = gen.GenerateTraffic(cfg.Traffic)

	wind := env.NewWindModel(cfg.Wind, rand.New(rand.NewSource(rng.Int63())), start)
	hazards := env.NewHazardField(cfg.Hazard, w.Hazards)

	s := &Simulation{
		cfg:          cfg,
		world:        w,
		camera:       cfg.Camera,
		vehicle:      nav.NewVehicle(cfg.Start),
		wind:         wind,
		hazards:      hazards,
		environment:  &env.Chain{Effects: []env.Environment{wind, hazards}},
		index:        nav.NewObstacleIndex(cfg.VehicleRadius, w.Buildings, w.Vegetation),
		ctrl:         nav.NewController(cfg.Nav),
		geo:          cfg.Geo,
		now:          start,
		trafficLimit: float64(cfg.Generator.HalfExtent * 2),
	}
	return s
}

// Step advances the city by one frame: wind, hazards, traffic, then navigation.
func (s *Simulation) Step(now time.Time) StepResult {
	s.now = now

	pos, warning := s.environment.Step(now, s.vehicle.Position)
	s.vehicle.Position = pos
	s.alert = warning

	world.AdvanceTraffic(s.world.Traffic, s.trafficLimit)

	out := s.ctrl.Update(s.vehicle, s.wind.Drift(), s.index)
	s.tick++

	return StepResult{
		Snapshot:    s.Snapshot(),
		Outcome:     out,
		Bumps:       s.hazards.Bumps(),
		WindChanged: s.wind.Changed(),
	}
}

// Apply consumes one input message.
func (s *Simulation) Apply(cmd Command) error {
	switch c := cmd.(type) {
	case RotateCommand:
		switch c.Direction {
		case Left:
			s.camera.RotateLeft()
		case Right:
			s.camera.RotateRight()
		case "":
			s.camera.Rotate(c.Delta)
		default:
			return fmt.Errorf("unknown direction %q", c.Direction)
		}

	case ClickCommand:
		i, ok := nav.PickBuilding(s.camera.Projector, s.camera.Yaw, c.X, c.Y, s.world.Buildings, s.cfg.PickRadius)
		if !ok {
			return ErrNoTarget
		}
		s.ctrl.SetGoal(s.vehicle, nav.BuildingGoal(i, s.world.Buildings[i], s.cfg.RoofClearance))

	case GoToBuildingCommand:
		if c.Index < 0 || c.Index >= len(s.world.Buildings) {
			return fmt.Errorf("%w: %d", ErrUnknownBuilding, c.Index)
		}
		s.ctrl.SetGoal(s.vehicle, nav.BuildingGoal(c.Index, s.world.Buildings[c.Index], s.cfg.RoofClearance))

	case GoToCommand:
		s.ctrl.SetGoal(s.vehicle, nav.Goal{Point: vector.NewVec3(c.X, c.Y, c.Z), Label: GoToLabel})

	case StopCommand:
		s.ctrl.Clear(s.vehicle)

	default:
		return fmt.Errorf("unsupported command %q", cmd.Type())
	}
	return nil
}

// Snapshot captures the current state. Hazard and traffic slices are copied.
func (s *Simulation) Snapshot() Snapshot {
	v := s.vehicle
	w := s.wind.Wind()
	lat, lon, _ := s.geo.LocalToGeo(v.Position)

	st := Snapshot{
		Tick:           s.tick,
		TS:             s.now,
		Position:       v.Position,
		Altitude:       altitude(v.Position.Y),
		Lat:            lat,
		Lon:            lon,
		Battery:        int(v.Battery),
		WindKmh:        int(w.Speed * 100),
		WindDirection:  w.Direction,
		Yaw:            s.camera.Yaw,
		Phase:          v.Phase.Name(),
		Status:         v.Status,
		ObstacleKind:   v.ObstacleKind,
		Alert:          s.alert != "",
		AlertText:      s.alert,
		HazardDistance: hazardDistance(s.hazards.Closest()),
		Hazards:        append([]world.Hazard(nil), s.hazards.Hazards()...),
		Traffic:        append([]world.GroundVehicle(nil), s.world.Traffic...),
	}
	if g, ok := nav.GoalOf(v.Phase); ok {
		p := g.Point
		st.Goal = &p
	}
	if wp, ok := nav.WaypointOf(v.Phase); ok {
		st.Waypoint = &wp
	}
	return st
}

// Static returns the immutable part of the city. The slices are never written
// after New, so they may be shared across goroutines.
func (s *Simulation) Static() Static {
	return Static{
		Buildings:  s.world.Buildings,
		Vegetation: s.world.Vegetation,
		Projector:  s.camera.Projector,
		RotateStep: s.camera.RotateStep,
		Geo:        s.geo,
		Fallbacks:  s.world.PlacementFallbacks,
	}
}

// Vehicle returns a copy of the vehicle state.
func (s *Simulation) Vehicle() nav.Vehicle { return *s.vehicle }

// Camera returns the current camera.
func (s *Simulation) Camera() projection.Camera { return s.camera }

// SetWind overrides the current wind until the next re-roll.
func (s *Simulation) SetWind(w env.Wind) { s.wind.Set(w) }

// Static is the generated obstacle set plus the mapping needed to draw it.
type Static struct {
	Buildings  []world.Obstacle
	Vegetation []world.Obstacle
	Projector  projection.Projector
	RotateStep float64
	Geo        GeoRef
	Fallbacks  int
}
