package server

import (
	"encoding/json"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/verlet/internal/interact"
	"github.com/san-kum/verlet/internal/sim"
	"github.com/san-kum/verlet/internal/spawn"
)

// Message types. Clients send the first group; the server sends the second.
const (
	MsgSpawn        = "spawn"
	MsgSpawnShape   = "spawn_shape"
	MsgTarget       = "target"
	MsgEvent        = "event"
	MsgPlay         = "play"
	MsgResize       = "resize"
	MsgSetPointInfo = "set_point_info"

	MsgWelcome = "welcome"
	MsgFrame   = "frame"
	MsgError   = "error"
)

// Envelope frames every message on the socket.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type ShapeMsg struct {
	Shape string     `json:"shape"`
	At    mgl64.Vec3 `json:"at"`
}

type TargetMsg struct {
	Target interact.Target `json:"target"`
}

type PlayMsg struct {
	Request string `json:"request"`
}

type ResizeMsg struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type WelcomeMsg struct {
	Client uint64   `json:"client"`
	Scene  string   `json:"scene"`
	Shapes []string `json:"shapes"`
}

type ErrorMsg struct {
	Message string `json:"message"`
}

func Encode(typ string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: typ, Data: data})
}

func parsePlay(s string) (sim.PlayRequest, error) {
	for _, r := range []sim.PlayRequest{sim.Pause, sim.Play, sim.Reset} {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown play request %q", s)
}

// command is a decoded client message ready to be applied.
type command func(*sim.Simulator) error

// decode turns a raw client message into a command.
func decode(raw []byte) (command, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("envelope: %w", err)
	}
	into := func(v any) error {
		if len(env.Data) == 0 {
			return fmt.Errorf("%s: missing data", env.Type)
		}
		if err := json.Unmarshal(env.Data, v); err != nil {
			return fmt.Errorf("%s: %w", env.Type, err)
		}
		return nil
	}

	switch env.Type {
	case MsgSpawn:
		var req spawn.Request
		if err := into(&req); err != nil {
			return nil, err
		}
		return func(s *sim.Simulator) error { s.SubmitSpawn(req); return nil }, nil
	case MsgSpawnShape:
		var m ShapeMsg
		if err := into(&m); err != nil {
			return nil, err
		}
		return func(s *sim.Simulator) error { return s.SpawnShape(m.Shape, m.At) }, nil
	case MsgTarget:
		var m TargetMsg
		if err := into(&m); err != nil {
			return nil, err
		}
		return func(s *sim.Simulator) error { s.SubmitTarget(m.Target); return nil }, nil
	case MsgEvent:
		var ev interact.Event
		if err := into(&ev); err != nil {
			return nil, err
		}
		return func(s *sim.Simulator) error { s.SubmitEvent(ev); return nil }, nil
	case MsgPlay:
		var m PlayMsg
		if err := into(&m); err != nil {
			return nil, err
		}
		r, err := parsePlay(m.Request)
		if err != nil {
			return nil, err
		}
		return func(s *sim.Simulator) error { s.SubmitPlayState(r); return nil }, nil
	case MsgResize:
		var m ResizeMsg
		if err := into(&m); err != nil {
			return nil, err
		}
		return func(s *sim.Simulator) error { s.Resize(m.Width, m.Height); return nil }, nil
	case MsgSetPointInfo:
		var m sim.SetPointInfo
		if err := into(&m); err != nil {
			return nil, err
		}
		return func(s *sim.Simulator) error { s.SetPointInfo(m); return nil }, nil
	}
	return nil, fmt.Errorf("unknown message type %q", env.Type)
}
