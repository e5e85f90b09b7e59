package env

import (
	"time"

	"drone-city-sim/internal/geometry/vector"
)

// Environment is an interface for environmental effects advanced once per tick.
// Each implementation may update its own state and push the vehicle around.
type Environment interface {
	// Step advances the effect to now and returns the (possibly displaced)
	// vehicle position and an optional warning message.
	Step(now time.Time, pos vector.Vec3) (vector.Vec3, string)
}

// Chain is a composite environment that applies multiple environment effects in sequence.
type Chain struct {
	Effects []Environment
}

// Step applies all environment effects in the chain, in order.
// The position is passed through each effect in sequence,
// with the output of one effect becoming the input to the next.
// The last non-empty warning message is returned.
func (c *Chain) Step(now time.Time, pos vector.Vec3) (vector.Vec3, string) {
	var warning string
	for _, effect := range c.Effects {
		newPos, w := effect.Step(now, pos)
		if w != "" {
			warning = w
		}
		pos = newPos
	}
	return pos, warning
}
