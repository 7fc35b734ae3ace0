package attach

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/verlet/internal/dynamo"
)

type State int

const (
	Uninitialized State = iota
	Anchored
	Tracking
)

func (s State) String() string {
	switch s {
	case Anchored:
		return "anchored"
	case Tracking:
		return "tracking"
	default:
		return "uninitialized"
	}
}

// Tracked is the pose the render layer should give the asset bound to ID.
type Tracked struct {
	ID      dynamo.AttachmentID
	State   State
	Anchors int
	Pose    Pose
}

type anchor struct {
	state    State
	expected int
	ref      [3]mgl64.Vec3
	pose     Pose
}

// Tracker derives asset poses from tagged particles. An id is captured the
// first tick it has exactly one or exactly three live particles; from then
// on the asset follows the rigid motion of those anchors.
type Tracker struct {
	offsets map[dynamo.AttachmentID]Pose
	anchors map[dynamo.AttachmentID]*anchor
	live    map[dynamo.AttachmentID][]mgl64.Vec3
}

func NewTracker() *Tracker {
	return &Tracker{
		offsets: make(map[dynamo.AttachmentID]Pose),
		anchors: make(map[dynamo.AttachmentID]*anchor),
		live:    make(map[dynamo.AttachmentID][]mgl64.Vec3),
	}
}

// SetOffset sets the asset's static pose relative to its anchors.
func (t *Tracker) SetOffset(id dynamo.AttachmentID, p Pose) {
	t.offsets[id] = p
}

func (t *Tracker) offset(id dynamo.AttachmentID) Pose {
	if p, ok := t.offsets[id]; ok {
		return p
	}
	return Identity()
}

// static is the untracked pose of an asset.
func (t *Tracker) static(id dynamo.AttachmentID) Pose {
	off := t.offset(id)
	return Pose{Translation: off.Rotation.Rotate(off.Translation), Rotation: off.Rotation}
}

// Reset forgets every captured anchor set. Offsets are kept.
func (t *Tracker) Reset() {
	clear(t.anchors)
}

// Update recomputes poses. Tracked ids are only recomputed on dirty ticks;
// captures happen regardless. The result is ordered by id.
func (t *Tracker) Update(w *dynamo.World, dirty bool) []Tracked {
	for id, ps := range t.live {
		t.live[id] = ps[:0]
	}
	for _, p := range w.Particles() {
		if p.Attachment != 0 {
			t.live[p.Attachment] = append(t.live[p.Attachment], p.Position)
		}
	}

	for id := range t.anchors {
		if len(t.live[id]) == 0 {
			delete(t.anchors, id)
		}
	}

	ids := make([]dynamo.AttachmentID, 0, len(t.live)+len(t.offsets))
	for id, ps := range t.live {
		if len(ps) == 0 {
			delete(t.live, id)
			continue
		}
		ids = append(ids, id)
	}
	for id := range t.offsets {
		if _, ok := t.live[id]; !ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	out := make([]Tracked, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.track(id, t.live[id], dirty))
	}
	return out
}

func (t *Tracker) track(id dynamo.AttachmentID, live []mgl64.Vec3, dirty bool) Tracked {
	res := Tracked{ID: id, Anchors: len(live), Pose: t.static(id)}

	a, ok := t.anchors[id]
	captured := false
	if !ok {
		if len(live) != 1 && len(live) != 3 {
			return res
		}
		a = &anchor{state: Anchored, expected: len(live)}
		copy(a.ref[:], live)
		t.anchors[id] = a
		captured = true
	}

	if len(live) != a.expected {
		a.pose = t.static(id)
		res.State = a.state
		return res
	}
	if dirty || captured {
		a.pose = t.solve(id, a, live)
		if !captured {
			a.state = Tracking
		}
	}
	res.State = a.state
	res.Pose = a.pose
	return res
}

func (t *Tracker) solve(id dynamo.AttachmentID, a *anchor, live []mgl64.Vec3) Pose {
	static := t.static(id)
	if a.expected == 1 {
		return Pose{Translation: live[0].Add(static.Translation), Rotation: static.Rotation}
	}
	delta := solveRigid(a.ref, [3]mgl64.Vec3{live[0], live[1], live[2]})
	return delta.Compose(static)
}

// solveRigid finds the rotation and translation carrying the reference
// triangle onto the live one. The normals are aligned first, then the
// first edge is rolled into place about the live normal. A degenerate
// triangle only contributes the centroid translation.
func solveRigid(ref, live [3]mgl64.Vec3) Pose {
	cRef := centroid(ref)
	cLive := centroid(live)

	eRef := ref[1].Sub(ref[0])
	eLive := live[1].Sub(live[0])
	nRef := eRef.Cross(ref[2].Sub(ref[0]))
	nLive := eLive.Cross(live[2].Sub(live[0]))

	if nRef.LenSqr() < 1e-18 || nLive.LenSqr() < 1e-18 {
		return Pose{Translation: cLive.Sub(cRef), Rotation: mgl64.QuatIdent()}
	}
	nRef = nRef.Normalize()
	nLive = nLive.Normalize()

	q1 := between(nRef, nLive)
	e1 := q1.Rotate(eRef)
	roll := math.Atan2(nLive.Dot(e1.Cross(eLive)), e1.Dot(eLive))
	q2 := mgl64.QuatRotate(roll, nLive)

	rot := q2.Mul(q1).Normalize()
	return Pose{
		Translation: cLive.Sub(rot.Rotate(cRef)),
		Rotation:    rot,
	}
}

func centroid(pts [3]mgl64.Vec3) mgl64.Vec3 {
	return pts[0].Add(pts[1]).Add(pts[2]).Mul(1.0 / 3)
}
