package api

import (
	"fmt"
	"time"

	"drone-city-sim/internal/sim"
)

// commandMessage is the wire form of a command, shared by the HTTP routes and the
// WebSocket read loop. Fields that do not apply to Type are ignored.
type commandMessage struct {
	Type sim.CommandType `json:"type"`

	// rotate: either an explicit delta in radians or "left"/"right"
	Delta     float64 `json:"delta,omitempty"`
	Direction string  `json:"direction,omitempty"`

	// click: screen position; goto: city position
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`
	Z float64 `json:"z,omitempty"`

	// goto by geographic position; alt is in meters above ground
	Lat *float64 `json:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty"`
	Alt float64  `json:"alt,omitempty"`

	// building
	Index *int `json:"index,omitempty"`
}

func (m commandMessage) command(geo sim.GeoRef, now time.Time) (sim.Command, error) {
	switch m.Type {
	case sim.CmdRotate:
		switch d := sim.Direction(m.Direction); d {
		case sim.Left, sim.Right:
			return sim.RotateCommand{At: now, Direction: d}, nil
		case "":
		default:
			return nil, fmt.Errorf("unknown direction %q", m.Direction)
		}
		if m.Delta == 0 {
			return nil, fmt.Errorf("rotate needs a delta or a direction")
		}
		return sim.RotateCommand{At: now, Delta: m.Delta}, nil

	case sim.CmdClick:
		return sim.ClickCommand{At: now, X: m.X, Y: m.Y}, nil

	case sim.CmdBuilding:
		if m.Index == nil {
			return nil, fmt.Errorf("building needs an index")
		}
		return sim.GoToBuildingCommand{At: now, Index: *m.Index}, nil

	case sim.CmdGoTo:
		if (m.Lat == nil) != (m.Lon == nil) {
			return nil, fmt.Errorf("goto needs both lat and lon")
		}
		if m.Lat != nil {
			p := geo.GeoToLocal(*m.Lat, *m.Lon, m.Alt)
			return sim.GoToCommand{At: now, X: p.X, Y: p.Y, Z: p.Z}, nil
		}
		return sim.GoToCommand{At: now, X: m.X, Y: m.Y, Z: m.Z}, nil

	case sim.CmdStop:
		return sim.StopCommand{At: now}, nil
	}
	return nil, fmt.Errorf("unknown command type %q", m.Type)
}
