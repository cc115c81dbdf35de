// SPDX-License-Identifier: EPL-2.0

package playback

import "time"

// Sink consumes the active voice. At most one voice is attached at a time.
type Sink interface {
	Attach(v *Voice) error
	Detach() error
	// Advance is called once per tick while playing. Real-time sinks that
	// pull from their own goroutine ignore it.
	Advance(dt time.Duration)
}

// ClockSink plays the voice in step with Advance instead of a sound card,
// pulling exactly dt worth of frames per call.
type ClockSink struct {
	voice   *Voice
	carry   float64 // fractional frames left over from the last Advance
	scratch []float32
}

func NewClockSink() *ClockSink { return &ClockSink{} }

func (s *ClockSink) Attach(v *Voice) error {
	s.voice = v
	s.carry = 0
	return nil
}

func (s *ClockSink) Detach() error {
	s.voice = nil
	return nil
}

func (s *ClockSink) Advance(dt time.Duration) {
	if s.voice == nil || dt <= 0 {
		return
	}

	want := dt.Seconds()*float64(s.voice.SampleRate()) + s.carry
	frames := int(want)
	s.carry = want - float64(frames)

	channels := s.voice.Channels()
	const chunk = 1024
	if len(s.scratch) < chunk*channels {
		s.scratch = make([]float32, chunk*channels)
	}

	for frames > 0 {
		n := min(frames, chunk)
		got, ok := s.voice.Read(s.scratch[:n*channels])
		frames -= got / channels
		if !ok || got == 0 {
			return
		}
	}
}
