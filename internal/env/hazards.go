package env

import (
	"math"
	"time"

	"drone-city-sim/internal/geometry/vector"
	"drone-city-sim/internal/world"
)

// HazardWarning is reported while a hazard is within the alert radius.
const HazardWarning = "BIO-HAZARD (BIRD) NEARBY"

// HazardConfig controls bouncing and the soft repulsion applied to the vehicle.
type HazardConfig struct {
	// Bound is the |x| and |z| limit past which a hazard's velocity flips.
	Bound float64
	// BumpRadius is the distance under which a hazard pushes the vehicle.
	BumpRadius float64
	// Push scales the vehicle-to-hazard vector into the positional correction.
	Push float64
	// AlertRadius is the distance under which an alert is raised.
	AlertRadius float64
}

func DefaultHazardConfig() HazardConfig {
	return HazardConfig{Bound: 48, BumpRadius: 1.5, Push: 0.2, AlertRadius: 4}
}

// HazardField advances the mobile hazards and resolves soft collisions with the vehicle.
type HazardField struct {
	cfg     HazardConfig
	hazards []world.Hazard

	closest float64
	bumps   int
}

func NewHazardField(cfg HazardConfig, hazards []world.Hazard) *HazardField {
	return &HazardField{cfg: cfg, hazards: hazards, closest: math.Inf(1)}
}

// Update integrates every hazard one tick and returns the minimum distance to the
// vehicle together with the positional correction to apply to it.
// Distances after a bump are measured from the already corrected position.
func (f *HazardField) Update(vehicle vector.Vec3) (float64, vector.Vec3) {
	closest := math.Inf(1)
	var delta vector.Vec3
	f.bumps = 0

	for i := range f.hazards {
		h := &f.hazards[i]
		h.Pos = h.Pos.Add(h.Vel)
		if math.Abs(h.Pos.X) > f.cfg.Bound {
			h.Vel.X = -h.Vel.X
		}
		if math.Abs(h.Pos.Z) > f.cfg.Bound {
			h.Vel.Z = -h.Vel.Z
		}

		pos := vehicle.Add(delta)
		dist := h.Pos.Dist(pos)
		if dist < closest {
			closest = dist
		}
		if dist < f.cfg.BumpRadius {
			delta = delta.Sub(h.Pos.Sub(pos).Horizontal().Mul(f.cfg.Push))
			f.bumps++
		}
	}

	f.closest = closest
	return closest, delta
}

// Alert reports whether closest is inside the alert radius.
func (f *HazardField) Alert(closest float64) bool {
	return closest < f.cfg.AlertRadius
}

// Step implements Environment.
func (f *HazardField) Step(now time.Time, pos vector.Vec3) (vector.Vec3, string) {
	closest, delta := f.Update(pos)
	if f.Alert(closest) {
		return pos.Add(delta), HazardWarning
	}
	return pos.Add(delta), ""
}

// Hazards returns the live hazard slice; callers must not retain it across ticks.
func (f *HazardField) Hazards() []world.Hazard { return f.hazards }

// Closest is the minimum distance computed by the last Update.
func (f *HazardField) Closest() float64 { return f.closest }

// Bumps is the number of hazards that pushed the vehicle during the last Update.
func (f *HazardField) Bumps() int { return f.bumps }
