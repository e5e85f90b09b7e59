package world

// GenerateTraffic spawns ground vehicles on the road grid lines.
func (g *Generator) GenerateTraffic(count int) []GroundVehicle {
	out := make([]GroundVehicle, 0, max(count, 0))
	for i := 0; i < count; i++ {
		axis := AxisX
		if g.rng.Intn(2) == 1 {
			axis = AxisZ
		}
		x, z := g.gridPoint()
		speed := g.cfg.TrafficSpeed
		if g.rng.Intn(2) == 1 {
			speed = -speed
		}
		out = append(out, GroundVehicle{X: x, Z: z, Axis: axis, Speed: speed})
	}
	return out
}

// AdvanceTraffic moves every vehicle along its axis, wrapping at the city edge (limit).
func AdvanceTraffic(traffic []GroundVehicle, limit float64) {
	for i := range traffic {
		c := &traffic[i]
		p := &c.X
		if c.Axis == AxisZ {
			p = &c.Z
		}
		*p += c.Speed
		if *p > limit {
			*p = -limit
		}
		if *p < -limit {
			*p = limit
		}
	}
}
