package env

import (
	"math"
	"math/rand"
	"time"

	"drone-city-sim/internal/geometry/vector"
)

// Wind is the current wind state. Only X and Z of Direction are populated.
type Wind struct {
	Direction vector.Vec3 `json:"direction"`
	Speed     float64     `json:"speed"`
}

// Drift is the displacement the wind adds to every step.
func (w Wind) Drift() vector.Vec3 {
	return vector.Vec3{X: w.Direction.X * w.Speed, Z: w.Direction.Z * w.Speed}
}

// Calm returns a wind with zero speed blowing east.
func Calm() Wind {
	return Wind{Direction: vector.NewVec3(1, 0, 0)}
}

// WindConfig controls how often and how strongly the wind is re-rolled.
type WindConfig struct {
	Interval time.Duration
	MaxSpeed float64
}

func DefaultWindConfig() WindConfig {
	return WindConfig{Interval: 3 * time.Second, MaxSpeed: 0.2}
}

// WindModel re-randomizes the wind on a fixed real-time interval.
// The direction follows the clock, so it rotates slowly across updates.
type WindModel struct {
	cfg     WindConfig
	rng     *rand.Rand
	wind    Wind
	last    time.Time
	changed bool
}

// NewWindModel starts calm; the first re-roll happens one interval after start.
func NewWindModel(cfg WindConfig, rng *rand.Rand, start time.Time) *WindModel {
	if rng == nil {
		rng = rand.New(rand.NewSource(start.UnixNano()))
	}
	return &WindModel{cfg: cfg, rng: rng, wind: Calm(), last: start}
}

// Update re-rolls the wind when more than Interval has elapsed since the last re-roll.
func (m *WindModel) Update(now time.Time) {
	m.changed = false
	if now.Sub(m.last) <= m.cfg.Interval {
		return
	}
	t := float64(now.UnixNano()) / float64(time.Second)
	m.wind.Speed = m.rng.Float64() * m.cfg.MaxSpeed
	m.wind.Direction = vector.Vec3{X: math.Sin(t), Z: math.Cos(t)}
	m.last = now
	m.changed = true
}

// Step implements Environment. Wind never moves the vehicle directly;
// its drift is folded into the navigation velocity.
func (m *WindModel) Step(now time.Time, pos vector.Vec3) (vector.Vec3, string) {
	m.Update(now)
	return pos, ""
}

func (m *WindModel) Wind() Wind { return m.wind }

func (m *WindModel) Drift() vector.Vec3 { return m.wind.Drift() }

// Changed reports whether the last Update re-rolled the wind.
func (m *WindModel) Changed() bool { return m.changed }

// Set overrides the current wind.
func (m *WindModel) Set(w Wind) { m.wind = w }
