// SPDX-License-Identifier: EPL-2.0

// Package audiotest holds generated sources, scripted decoders and encoded
// fixtures for tests.
package audiotest

import (
	"io"
	"math"
)

// Source generates frames from a waveform function. It implements
// audio.Source.
type Source struct {
	sampleRate int
	channels   int
	frames     int // total frames to generate
	generated  int
	waveform   func(frame, channel int) float32

	// CloseErr is returned by Close.
	CloseErr error
	Closed   bool
}

func NewSource(sampleRate, channels, frames int, waveform func(frame, channel int) float32) *Source {
	return &Source{
		sampleRate: sampleRate,
		channels:   channels,
		frames:     frames,
		waveform:   waveform,
	}
}

func Silence(sampleRate, channels, frames int) *Source {
	return NewSource(sampleRate, channels, frames, func(int, int) float32 { return 0 })
}

func Constant(sampleRate, channels, frames int, value float32) *Source {
	return NewSource(sampleRate, channels, frames, func(int, int) float32 { return value })
}

// Sine generates the same sine wave on every channel.
func Sine(sampleRate, channels, frames int, frequency float64) *Source {
	return NewSource(sampleRate, channels, frames, func(frame, _ int) float32 {
		t := float64(frame) / float64(sampleRate)
		return float32(math.Sin(2 * math.Pi * frequency * t))
	})
}

func (s *Source) SampleRate() int { return s.sampleRate }
func (s *Source) Channels() int   { return s.channels }
func (s *Source) BufSize() int    { return 4096 }

func (s *Source) Close() error {
	s.Closed = true
	return s.CloseErr
}

func (s *Source) ReadSamples(dst []float32) (int, error) {
	if s.generated >= s.frames {
		return 0, io.EOF
	}

	n := min(len(dst)/s.channels, s.frames-s.generated)
	for f := range n {
		for ch := range s.channels {
			dst[f*s.channels+ch] = s.waveform(s.generated+f, ch)
		}
	}
	s.generated += n

	if s.generated >= s.frames {
		return n * s.channels, io.EOF
	}
	return n * s.channels, nil
}
