// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"sync"
	"time"

	"github.com/ik5/audiovis/audio"
)

// Tap receives the mono mix of everything a voice plays.
type Tap interface {
	Write(mono []float32)
}

// Voice is the playable handle for one Start. It reads the decoded buffer
// from the beginning, feeds the tap and reports the end of the stream once.
// Sinks may call Read from their own goroutine.
type Voice struct {
	buf *audio.Buffer
	tap Tap

	mtx     sync.Mutex
	pos     int // frames
	paused  bool
	stopped bool

	endOnce sync.Once
	onEnded func()
}

// NewVoice plays buf from the start. tap and onEnded may be nil; onEnded
// runs at most once, on the goroutine that reads the last frame.
func NewVoice(buf *audio.Buffer, tap Tap, onEnded func()) *Voice {
	return &Voice{
		buf:     buf,
		tap:     tap,
		onEnded: onEnded,
	}
}

func (v *Voice) SampleRate() int { return v.buf.SampleRate() }
func (v *Voice) Channels() int   { return v.buf.Channels() }

// Read fills dst with interleaved samples and returns how many it wrote.
// ok is false once the voice has nothing more to play. A paused voice
// writes silence and does not advance.
func (v *Voice) Read(dst []float32) (n int, ok bool) {
	channels := v.buf.Channels()
	frames := len(dst) / channels

	v.mtx.Lock()
	if v.stopped {
		v.mtx.Unlock()
		return 0, false
	}
	if v.paused {
		v.mtx.Unlock()
		clear(dst)
		return frames * channels, true
	}

	from := v.pos
	to := min(from+frames, v.buf.Frames())
	copy(dst, v.buf.Interleaved(from, to))
	if v.tap != nil && to > from {
		v.tap.Write(v.buf.Mono(from, to))
	}
	v.pos = to
	done := to >= v.buf.Frames()
	v.mtx.Unlock()

	if done {
		v.end()
	}
	return (to - from) * channels, !done
}

// Position is the number of frames played so far.
func (v *Voice) Position() int {
	v.mtx.Lock()
	defer v.mtx.Unlock()

	return v.pos
}

func (v *Voice) Elapsed() time.Duration {
	return time.Duration(float64(v.Position()) / float64(v.buf.SampleRate()) * float64(time.Second))
}

func (v *Voice) setPaused(paused bool) {
	v.mtx.Lock()
	v.paused = paused
	v.mtx.Unlock()
}

// pause holds the voice at its position. It reports false, and leaves the
// voice alone, once the last frame has been read.
func (v *Voice) pause() bool {
	v.mtx.Lock()
	defer v.mtx.Unlock()

	if v.pos >= v.buf.Frames() {
		return false
	}
	v.paused = true
	return true
}

// stop silences the voice without reporting an end of stream.
func (v *Voice) stop() {
	v.mtx.Lock()
	v.stopped = true
	v.mtx.Unlock()

	v.endOnce.Do(func() {})
}

func (v *Voice) end() {
	v.endOnce.Do(func() {
		if v.onEnded != nil {
			v.onEnded()
		}
	})
}
