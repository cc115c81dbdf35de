// SPDX-License-Identifier: EPL-2.0

// Package particles simulates the three audio-reactive point clouds of the
// visualiser. Positions move along their velocities scaled by the band
// levels and drift back toward the origin by random recycling.
package particles

import (
	"errors"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ik5/audiovis/features"
)

var ErrInvalidCount = errors.New("particle count must be positive")

// Band selects the feature a group's visual parameters follow.
type Band int

const (
	Bass Band = iota
	Mid
	Treble
)

func (b Band) String() string {
	switch b {
	case Bass:
		return "bass"
	case Mid:
		return "mid"
	case Treble:
		return "treble"
	}
	return "unknown"
}

// Level picks the band's value out of a normalized feature vector.
func (b Band) Level(v features.Vector) float64 {
	switch b {
	case Bass:
		return v.Bass
	case Mid:
		return v.Mid
	case Treble:
		return v.Treble
	}
	return 0
}

type Particle struct {
	Position r3.Vec
	Velocity r3.Vec
}

// Group is one point cloud together with the parameters a renderer needs
// to draw it.
type Group struct {
	Band      Band
	Particles []Particle
	PointSize float64
	Opacity   float64
	Rotation  r3.Vec // Euler angles in radians
}

// Rand is the random source used for layout and recycling. Float64 must
// return values in [0, 1).
type Rand interface {
	Float64() float64
}

type defaultRand struct{}

func (defaultRand) Float64() float64 { return rand.Float64() }

const (
	DefaultCount              = 3000
	DefaultBoundaryRadius     = 3.8
	DefaultRecycleScale       = 0.1
	DefaultRecycleProbability = 0.05
	DefaultRotationStep       = 0.001

	initialRadius   = 4.0
	initialVelocity = 0.01
	basePointSize   = 0.05
	baseOpacity     = 0.3
)

// Options configures a Simulator. Zero fields take the defaults.
type Options struct {
	Count              int
	BoundaryRadius     float64
	RecycleScale       float64
	RecycleProbability float64
	RotationStep       float64
	Rand               Rand
}

func (o Options) withDefaults() Options {
	if o.Count == 0 {
		o.Count = DefaultCount
	}
	if o.BoundaryRadius == 0 {
		o.BoundaryRadius = DefaultBoundaryRadius
	}
	if o.RecycleScale == 0 {
		o.RecycleScale = DefaultRecycleScale
	}
	if o.RecycleProbability == 0 {
		o.RecycleProbability = DefaultRecycleProbability
	}
	if o.RotationStep == 0 {
		o.RotationStep = DefaultRotationStep
	}
	if o.Rand == nil {
		o.Rand = defaultRand{}
	}
	return o
}

// Simulator owns the three groups. It is not safe for concurrent use.
type Simulator struct {
	opts   Options
	groups [3]Group
}

func New(opts Options) (*Simulator, error) {
	opts = opts.withDefaults()
	if opts.Count < 0 {
		return nil, ErrInvalidCount
	}

	s := &Simulator{opts: opts}
	for i := range s.groups {
		s.groups[i] = Group{
			Band:      Band(i),
			Particles: make([]Particle, opts.Count),
		}
	}
	s.layout()

	return s, nil
}

// layout draws one spherical layout and copies it into every group, then
// gives each group a random orientation.
func (s *Simulator) layout() {
	r := s.opts.Rand
	shared := s.groups[0].Particles

	for i := range shared {
		theta := r.Float64() * 2 * math.Pi
		phi := math.Acos(r.Float64()*2 - 1)
		radius := r.Float64() * initialRadius

		shared[i].Position = r3.Vec{
			X: radius * math.Sin(phi) * math.Cos(theta),
			Y: radius * math.Sin(phi) * math.Sin(theta),
			Z: radius * math.Cos(phi),
		}
		shared[i].Velocity = r3.Vec{
			X: (r.Float64() - 0.5) * initialVelocity,
			Y: (r.Float64() - 0.5) * initialVelocity,
			Z: (r.Float64() - 0.5) * initialVelocity,
		}
	}

	for i := range s.groups {
		g := &s.groups[i]
		if i > 0 {
			copy(g.Particles, shared)
		}
		g.PointSize = basePointSize
		g.Opacity = baseOpacity
		g.Rotation = r3.Vec{X: r.Float64() * math.Pi, Y: r.Float64() * math.Pi}
	}
}

// Step advances every group by one tick. v must be normalized (bands in
// [0, 1]).
//
// Velocity is scaled per axis: x by bass, y by mid and z by treble, for
// all groups alike. Size and opacity follow the group's own band.
func (s *Simulator) Step(v features.Vector) {
	scale := r3.Vec{X: v.Bass * 2, Y: v.Mid * 2, Z: v.Treble * 2}
	threshold := 1 - s.opts.RecycleProbability

	for i := range s.groups {
		g := &s.groups[i]

		for j := range g.Particles {
			p := &g.Particles[j]
			p.Position = r3.Add(p.Position, mulElem(p.Velocity, scale))

			// the random draw only happens past the boundary
			if r3.Norm(p.Position) > s.opts.BoundaryRadius && s.opts.Rand.Float64() > threshold {
				p.Position = r3.Scale(s.opts.RecycleScale, p.Position)
			}
		}

		level := g.Band.Level(v)
		g.PointSize = basePointSize + level*0.01
		g.Opacity = baseOpacity + level*0.5
		g.Rotation.Y += s.opts.RotationStep
	}
}

// Reset replaces every particle with a fresh layout.
func (s *Simulator) Reset() { s.layout() }

// Groups returns the live groups. The slices are mutated by Step.
func (s *Simulator) Groups() []Group { return s.groups[:] }

// Snapshot returns a deep copy of the groups.
func (s *Simulator) Snapshot() []Group {
	out := make([]Group, len(s.groups))
	for i, g := range s.groups {
		g.Particles = append([]Particle(nil), g.Particles...)
		out[i] = g
	}
	return out
}

func mulElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: a.X * b.X, Y: a.Y * b.Y, Z: a.Z * b.Z}
}
