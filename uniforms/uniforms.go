// SPDX-License-Identifier: EPL-2.0

// Package uniforms maps per-tick features onto the flat parameter set a
// shading stage consumes.
package uniforms

import (
	"time"

	"github.com/ik5/audiovis/features"
)

// DefaultBins is the AudioData length used by New(0).
const DefaultBins = 1024

// Params is the shader parameter record.
type Params struct {
	Time            float64 // seconds
	BassIntensity   float64 // [0, 1]
	TrebleIntensity float64 // [0, 1]
	Distortion      float64 // energy / 255^2, [0, 1]
	AudioData       []float32 // frame magnitudes, [0, 1]
}

type Bridge struct {
	params Params
}

// New returns a bridge whose AudioData holds bins values.
func New(bins int) *Bridge {
	if bins <= 0 {
		bins = DefaultBins
	}
	return &Bridge{params: Params{AudioData: make([]float32, bins)}}
}

// Update takes a normalized feature vector, the current frame and the
// playback time. Frame bytes are scaled into [0, 1]. Values beyond
// len(AudioData) are dropped; missing ones are zeroed.
func (b *Bridge) Update(v features.Vector, frame []uint8, elapsed time.Duration) {
	b.params.Time = elapsed.Seconds()
	b.params.BassIntensity = v.Bass
	b.params.TrebleIntensity = v.Treble
	b.params.Distortion = v.Energy / (255 * 255)

	data := b.params.AudioData
	n := min(len(frame), len(data))
	for i, f := range frame[:n] {
		data[i] = float32(f) / 255
	}
	clear(data[n:])
}

// Params returns a copy of the current record.
func (b *Bridge) Params() Params {
	p := b.params
	p.AudioData = append([]float32(nil), b.params.AudioData...)
	return p
}

func (b *Bridge) Reset() {
	data := b.params.AudioData
	clear(data)
	b.params = Params{AudioData: data}
}
