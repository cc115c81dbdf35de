// SPDX-License-Identifier: EPL-2.0

// Package output plays voices through the system audio device.
package output

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/sirupsen/logrus"

	"github.com/ik5/audiovis/playback"
)

// DefaultLatency is the speaker buffer length.
const DefaultLatency = 100 * time.Millisecond

// Speaker is a playback.Sink that streams the attached voice to the
// default output device. The device is opened on the first Attach.
type Speaker struct {
	sampleRate beep.SampleRate
	latency    time.Duration
	log        logrus.FieldLogger

	initOnce sync.Once
	initErr  error
	opened   atomic.Bool
}

var _ playback.Sink = (*Speaker)(nil)

// NewSpeaker returns a sink for voices at sampleRate. The controller
// resamples everything it loads to one rate, so the device rate never
// changes.
func NewSpeaker(sampleRate int, latency time.Duration, log logrus.FieldLogger) *Speaker {
	if latency <= 0 {
		latency = DefaultLatency
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Speaker{
		sampleRate: beep.SampleRate(sampleRate),
		latency:    latency,
		log:        log.WithField("component", "speaker"),
	}
}

func (s *Speaker) init() error {
	s.initOnce.Do(func() {
		s.initErr = speaker.Init(s.sampleRate, s.sampleRate.N(s.latency))
		if s.initErr != nil {
			s.initErr = fmt.Errorf("initialising speaker: %w", s.initErr)
			return
		}
		s.opened.Store(true)
		s.log.WithFields(logrus.Fields{
			"sample_rate": int(s.sampleRate),
			"latency":     s.latency,
		}).Debug("speaker ready")
	})
	return s.initErr
}

// Attach replaces whatever is playing with v.
func (s *Speaker) Attach(v *playback.Voice) error {
	if v.SampleRate() != int(s.sampleRate) {
		return fmt.Errorf("voice sample rate %d does not match speaker rate %d", v.SampleRate(), int(s.sampleRate))
	}
	if err := s.init(); err != nil {
		return err
	}

	speaker.Clear()
	speaker.Play(stream(v))
	return nil
}

func (s *Speaker) Detach() error {
	if !s.opened.Load() {
		return nil
	}
	speaker.Clear()
	return nil
}

// Advance is a no-op; the speaker pulls samples on its own goroutine.
func (s *Speaker) Advance(time.Duration) {}

// stream adapts a voice to a beep streamer. Mono is copied to both sides
// and channels past the second are dropped.
func stream(v *playback.Voice) beep.Streamer {
	channels := v.Channels()
	var buf []float32

	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if need := len(samples) * channels; len(buf) < need {
			buf = make([]float32, need)
		}

		n, ok := v.Read(buf[:len(samples)*channels])
		frames := n / channels
		for i := range frames {
			frame := buf[i*channels : (i+1)*channels]
			samples[i][0] = float64(frame[0])
			samples[i][1] = float64(frame[min(1, channels-1)])
		}
		return frames, ok || frames > 0
	})
}
