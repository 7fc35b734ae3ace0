package dynamo

import (
	"hash/fnv"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type ParticleID uint64

type StickID uint64

// AttachmentID identifies the external asset a particle anchors. Zero means none.
type AttachmentID uint64

// Handle refers to a shared visual resource (mesh or material). Zero means none.
type Handle uint32

// HashTag maps an attachment tag to a stable id. The same tag always yields
// the same id across runs.
func HashTag(tag string) AttachmentID {
	if tag == "" {
		return 0
	}
	h := fnv.New64a()
	h.Write([]byte(tag))
	id := h.Sum64()
	if id == 0 {
		id = 1
	}
	return AttachmentID(id)
}

type Particle struct {
	ID                   ParticleID
	Position             mgl64.Vec3
	PrevPosition         mgl64.Vec3
	Locked               bool
	RenderedPosition     mgl64.Vec3
	PrevRenderedPosition mgl64.Vec3
	// ExternalForce is a persistent acceleration added to gravity every tick.
	ExternalForce mgl64.Vec3
	Attachment    AttachmentID
	Size          float64
	Mesh          Handle
	Material      Handle
}

// NewParticle returns an unlocked particle at rest at pos.
func NewParticle(pos mgl64.Vec3) Particle {
	return Particle{
		Position:             pos,
		PrevPosition:         pos,
		RenderedPosition:     pos,
		PrevRenderedPosition: pos,
	}
}

// Velocity is the implicit per-tick velocity.
func (p *Particle) Velocity() mgl64.Vec3 {
	return p.Position.Sub(p.PrevPosition)
}

// SetVelocity rewrites PrevPosition so the implicit velocity equals v.
func (p *Particle) SetVelocity(v mgl64.Vec3) {
	p.PrevPosition = p.Position.Sub(v)
}

// Teleport moves the particle without changing its velocity.
func (p *Particle) Teleport(pos mgl64.Vec3) {
	v := p.Velocity()
	p.Position = pos
	p.PrevPosition = pos.Sub(v)
}

func (p *Particle) IsValid() bool {
	for _, v := range p.Position {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Stick struct {
	ID         StickID
	P1, P2     ParticleID
	RestLength float64
	Thickness  float64
	Mesh       Handle
	Material   Handle
}

func (s *Stick) Touches(id ParticleID) bool {
	return s.P1 == id || s.P2 == id
}
