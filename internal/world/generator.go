package world

import (
	"math"
	"math/rand"

	"drone-city-sim/internal/geometry/vector"
)

// GeneratorConfig controls world generation. Grid coordinates are multiplied by 2
// so that every other unit is left free for roads.
type GeneratorConfig struct {
	HalfExtent int // grid cells on each side of the origin

	BuildingMinHeight int
	BuildingMaxHeight int
	BuildingHalfSize  float64

	VegetationMinHeight int
	VegetationMaxHeight int
	VegetationHalfSize  float64

	// ExclusionDistance keeps vegetation centres away from building centres on both axes.
	ExclusionDistance float64
	// PlacementAttempts caps rejection sampling per vegetation item.
	PlacementAttempts int

	// Hazard spawn box (inclusive integer ranges) and speed limits.
	HazardSpawnXZ     int
	HazardMinAltitude int
	HazardMaxAltitude int
	HazardMaxSpeedXZ  float64
	HazardMaxSpeedY   float64

	TrafficSpeed float64
}

// DefaultGeneratorConfig mirrors the reference city: a 33x33 grid, 5-14 storey
// buildings, 2-5 unit trees and birds circling above the rooftops.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		HalfExtent:          16,
		BuildingMinHeight:   5,
		BuildingMaxHeight:   14,
		BuildingHalfSize:    1.6,
		VegetationMinHeight: 2,
		VegetationMaxHeight: 5,
		VegetationHalfSize:  0.8,
		ExclusionDistance:   2,
		PlacementAttempts:   20,
		HazardSpawnXZ:       30,
		HazardMinAltitude:   5,
		HazardMaxAltitude:   15,
		HazardMaxSpeedXZ:    0.4,
		HazardMaxSpeedY:     0.05,
		TrafficSpeed:        0.3,
	}
}

// Generator builds worlds from a seeded random source.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

func NewGenerator(cfg GeneratorConfig, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	if cfg.PlacementAttempts <= 0 {
		cfg.PlacementAttempts = 1
	}
	return &Generator{cfg: cfg, rng: rng}
}

// randint returns an integer in [lo, hi].
func (g *Generator) randint(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.rng.Intn(hi-lo+1)
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func (g *Generator) gridPoint() (float64, float64) {
	n := g.cfg.HalfExtent
	return float64(g.randint(-n, n) * 2), float64(g.randint(-n, n) * 2)
}

// Generate places buildings, then vegetation, then hazards.
func (g *Generator) Generate(buildingCount, vegetationCount, hazardCount int) World {
	var w World
	w.Buildings = g.buildings(buildingCount)
	w.Vegetation, w.PlacementFallbacks = g.vegetation(vegetationCount, w.Buildings)
	w.Hazards = g.hazards(hazardCount)
	return w
}

func (g *Generator) buildings(count int) []Obstacle {
	out := make([]Obstacle, 0, max(count, 0))
	for i := 0; i < count; i++ {
		x, z := g.gridPoint()
		out = append(out, Obstacle{
			ID:   i,
			Kind: KindBuilding,
			X:    x,
			Z:    z,
			W:    g.cfg.BuildingHalfSize,
			D:    g.cfg.BuildingHalfSize,
			H:    float64(g.randint(g.cfg.BuildingMinHeight, g.cfg.BuildingMaxHeight)),
		})
	}
	return out
}

func (g *Generator) vegetation(count int, buildings []Obstacle) ([]Obstacle, int) {
	out := make([]Obstacle, 0, max(count, 0))
	fallbacks := 0
	for i := 0; i < count; i++ {
		var x, z float64
		placed := false
		for attempt := 0; attempt < g.cfg.PlacementAttempts; attempt++ {
			x, z = g.gridPoint()
			if !Excluded(x, z, buildings, g.cfg.ExclusionDistance) {
				placed = true
				break
			}
		}
		if !placed {
			// accept the last candidate so generation always terminates
			fallbacks++
		}
		out = append(out, Obstacle{
			ID:   i,
			Kind: KindVegetation,
			X:    x,
			Z:    z,
			W:    g.cfg.VegetationHalfSize,
			D:    g.cfg.VegetationHalfSize,
			H:    float64(g.randint(g.cfg.VegetationMinHeight, g.cfg.VegetationMaxHeight)),
		})
	}
	return out, fallbacks
}

// Excluded reports whether (x, z) falls inside the exclusion band of any building.
func Excluded(x, z float64, buildings []Obstacle, distance float64) bool {
	for _, b := range buildings {
		if math.Abs(b.X-x) < distance && math.Abs(b.Z-z) < distance {
			return true
		}
	}
	return false
}

func (g *Generator) hazards(count int) []Hazard {
	c := g.cfg
	out := make([]Hazard, 0, max(count, 0))
	for i := 0; i < count; i++ {
		pos := vector.NewVec3(
			float64(g.randint(-c.HazardSpawnXZ, c.HazardSpawnXZ)),
			float64(g.randint(-c.HazardMaxAltitude, -c.HazardMinAltitude)),
			float64(g.randint(-c.HazardSpawnXZ, c.HazardSpawnXZ)),
		)
		vel := vector.NewVec3(
			g.uniform(-c.HazardMaxSpeedXZ, c.HazardMaxSpeedXZ),
			g.uniform(-c.HazardMaxSpeedY, c.HazardMaxSpeedY),
			g.uniform(-c.HazardMaxSpeedXZ, c.HazardMaxSpeedXZ),
		)
		out = append(out, Hazard{Pos: pos, Vel: vel})
	}
	return out
}
