package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateTraffic(t *testing.T) {
	cars := newTestGenerator(5).GenerateTraffic(30)
	assert.Len(t, cars, 30)
	for _, c := range cars {
		assert.Contains(t, []Axis{AxisX, AxisZ}, c.Axis)
		assert.Contains(t, []float64{-0.3, 0.3}, c.Speed)
	}
}

func TestAdvanceTraffic_Wraps(t *testing.T) {
	cars := []GroundVehicle{
		{X: 31.9, Z: 4, Axis: AxisX, Speed: 0.3},
		{X: 2, Z: -31.9, Axis: AxisZ, Speed: -0.3},
		{X: 0, Z: 0, Axis: AxisZ, Speed: 0.3},
	}
	AdvanceTraffic(cars, 32)

	assert.Equal(t, -32.0, cars[0].X)
	assert.Equal(t, 4.0, cars[0].Z)
	assert.Equal(t, 32.0, cars[1].Z)
	assert.Equal(t, 2.0, cars[1].X)
	assert.InDelta(t, 0.3, cars[2].Z, 1e-12)
}
