// Package projection maps city coordinates onto the 2D screen of the presentation layer.
package projection

import (
	"math"

	"drone-city-sim/internal/geometry/vector"
)

// Projector is an oblique (cavalier style) projection around a screen centre.
// It carries no yaw so that rendering and hit-testing can share one instance.
type Projector struct {
	CenterX float64
	CenterY float64
	// Scale is screen pixels per world unit.
	Scale float64
}

// Project rotates (x, z) by yaw around the vertical axis and maps the point to screen space.
// Depth is foreshortened at half weight.
func (p Projector) Project(x, y, z, yaw float64) (float64, float64) {
	sin, cos := math.Sincos(yaw)
	rx := x*cos - z*sin
	rz := x*sin + z*cos
	sx := p.CenterX + rx*p.Scale
	sy := p.CenterY + y*p.Scale - rz*p.Scale*0.5
	return sx, sy
}

// ProjectVec is Project for a vector.
func (p Projector) ProjectVec(v vector.Vec3, yaw float64) (float64, float64) {
	return p.Project(v.X, v.Y, v.Z, yaw)
}

// Camera is the user-controlled view: a projector plus the current yaw.
type Camera struct {
	Projector
	Yaw        float64
	RotateStep float64
}

// Rotate adds delta radians to the yaw.
func (c *Camera) Rotate(delta float64) {
	c.Yaw += delta
}

func (c *Camera) RotateLeft()  { c.Rotate(-c.RotateStep) }
func (c *Camera) RotateRight() { c.Rotate(c.RotateStep) }

// Screen projects a point with the camera's current yaw.
func (c *Camera) Screen(v vector.Vec3) (float64, float64) {
	return c.ProjectVec(v, c.Yaw)
}

// DefaultCamera matches a 1000x700 canvas with the horizon pushed down by 180px.
func DefaultCamera() Camera {
	return Camera{
		Projector: Projector{
			CenterX: 1000 / 2,
			CenterY: 700/2 + 180,
			Scale:   20,
		},
		Yaw:        0.6,
		RotateStep: 0.1,
	}
}
