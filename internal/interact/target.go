package interact

import "fmt"

// Target selects what a pointer event does.
type Target int

const (
	None Target = iota
	Point
	Line
	Lock
	Cut
	Cutting
	SpawnRope
	SpawnSquare
	SpawnCloth
	SpawnCube
	Delete
	PointInfo
)

var targetNames = map[Target]string{
	None:        "none",
	Point:       "point",
	Line:        "line",
	Lock:        "lock",
	Cut:         "cut",
	Cutting:     "cutting",
	SpawnRope:   "spawn_rope",
	SpawnSquare: "spawn_square",
	SpawnCloth:  "spawn_cloth",
	SpawnCube:   "spawn_cube",
	Delete:      "delete",
	PointInfo:   "point_info",
}

func (t Target) String() string {
	if n, ok := targetNames[t]; ok {
		return n
	}
	return fmt.Sprintf("target(%d)", int(t))
}

func ParseTarget(s string) (Target, error) {
	for t, n := range targetNames {
		if n == s {
			return t, nil
		}
	}
	return None, fmt.Errorf("unknown target %q", s)
}

func (t Target) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Target) UnmarshalText(b []byte) error {
	v, err := ParseTarget(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// shape returns the registered shape name spawned by t, if any.
func (t Target) shape() (string, bool) {
	switch t {
	case Point:
		return "point", true
	case SpawnRope:
		return "rope", true
	case SpawnSquare:
		return "square", true
	case SpawnCloth:
		return "cloth", true
	case SpawnCube:
		return "cube", true
	}
	return "", false
}

type EventKind int

const (
	Press EventKind = iota
	Move
	Release
)

func (k EventKind) String() string {
	switch k {
	case Press:
		return "press"
	case Move:
		return "move"
	case Release:
		return "release"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *EventKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "press":
		*k = Press
	case "move":
		*k = Move
	case "release":
		*k = Release
	default:
		return fmt.Errorf("unknown event kind %q", b)
	}
	return nil
}

// Event is a pointer event already projected into the world. A nil Ray
// means no view was available and the event is dropped.
type Event struct {
	Kind EventKind `json:"kind" yaml:"kind"`
	Ray  *Ray      `json:"ray,omitempty" yaml:"ray,omitempty"`
}
