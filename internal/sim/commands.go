package sim

import (
	"errors"
	"time"
)

var (
	ErrUnknownBuilding = errors.New("unknown building")
	ErrNoTarget        = errors.New("no building near click")
)

type CommandType string

const (
	CmdRotate   CommandType = "rotate"
	CmdClick    CommandType = "click"
	CmdBuilding CommandType = "building"
	CmdGoTo     CommandType = "goto"
	CmdStop     CommandType = "stop"
)

// Command is an input message. Commands are applied between ticks, never during one.
type Command interface {
	Type() CommandType
	ReceivedAt() time.Time
}

// Direction is a one-step camera turn.
type Direction string

const (
	Left  Direction = "left"
	Right Direction = "right"
)

// RotateCommand turns the camera one rotate step in Direction, or by Delta
// radians when Direction is empty.
type RotateCommand struct {
	At        time.Time
	Direction Direction `json:"direction,omitempty"`
	Delta     float64   `json:"delta,omitempty"`
}

func (c RotateCommand) Type() CommandType     { return CmdRotate }
func (c RotateCommand) ReceivedAt() time.Time { return c.At }

// ClickCommand selects the building nearest to a screen position.
type ClickCommand struct {
	At time.Time
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

func (c ClickCommand) Type() CommandType     { return CmdClick }
func (c ClickCommand) ReceivedAt() time.Time { return c.At }

// GoToBuildingCommand targets a building by index, bypassing the screen.
type GoToBuildingCommand struct {
	At    time.Time
	Index int `json:"index"`
}

func (c GoToBuildingCommand) Type() CommandType     { return CmdBuilding }
func (c GoToBuildingCommand) ReceivedAt() time.Time { return c.At }

// GoToCommand flies to an arbitrary point in city units.
type GoToCommand struct {
	At time.Time
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
}

func (c GoToCommand) Type() CommandType     { return CmdGoTo }
func (c GoToCommand) ReceivedAt() time.Time { return c.At }

type StopCommand struct{ At time.Time }

func (c StopCommand) Type() CommandType     { return CmdStop }
func (c StopCommand) ReceivedAt() time.Time { return c.At }
