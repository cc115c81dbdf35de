// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	"github.com/ik5/audiovis/utils"
)

// Resampler streams from src to a target sample rate using cubic
// interpolation. It works on interleaved samples and preserves the channel
// count. A one-pole low-pass runs on the input when downsampling.
type Resampler struct {
	src      Source
	dstRate  int
	ratio    float64 // source frames per output frame
	channels int

	// window of 4 frames around the read head:
	// win[0] = t-1, win[1] = t0, win[2] = t+1, win[3] = t+2
	win    [4][]float32
	filled [4]bool
	primed bool

	// fractional position between win[1] and win[2]
	pos float64

	srcBuf []float32
	eof    bool

	lowPass   bool
	lpAlpha   float32
	lpHistory []float32
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	ratio := float64(src.SampleRate()) / float64(dstRate)

	r := &Resampler{
		src:       src,
		dstRate:   dstRate,
		ratio:     ratio,
		channels:  channels,
		srcBuf:    make([]float32, channels),
		lowPass:   ratio > 1.0,
		lpAlpha:   0.5,
		lpHistory: make([]float32, channels),
	}

	for i := range r.win {
		r.win[i] = make([]float32, channels)
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("closing resampler source: %w", err)
	}
	return nil
}

// readFrame pulls a single raw frame from src into dst and reports whether one was read.
func (r *Resampler) readFrame(dst []float32) (bool, error) {
	n, err := r.src.ReadSamples(r.srcBuf)
	got := n >= r.channels
	if got {
		copy(dst, r.srcBuf[:r.channels])
	}

	if err == io.EOF {
		r.eof = true
		return got, nil
	}
	if err != nil {
		return got, fmt.Errorf("reading source frame: %w", err)
	}

	return got, nil
}

// filter runs the anti-aliasing low-pass over one frame in place.
func (r *Resampler) filter(frame []float32) {
	if !r.lowPass {
		return
	}
	for c := range r.channels {
		frame[c] = r.lpAlpha*frame[c] + (1-r.lpAlpha)*r.lpHistory[c]
		r.lpHistory[c] = frame[c]
	}
}

// prime fills the interpolation window. Missing trailing frames repeat
// the last one that was read.
func (r *Resampler) prime() error {
	r.primed = true

	for i := range r.win {
		got := false
		if !r.eof {
			var err error
			got, err = r.readFrame(r.win[i])
			if err != nil {
				return err
			}
		}

		if !got {
			if i == 0 {
				return io.EOF
			}
			copy(r.win[i], r.win[i-1])
			r.filled[i] = true
			continue
		}

		if i == 0 {
			// seed the filter with the first frame to avoid a ramp from silence
			copy(r.lpHistory, r.win[0])
		}
		r.filter(r.win[i])
		r.filled[i] = true
	}

	return nil
}

// advance shifts the window by one source frame.
func (r *Resampler) advance() error {
	if r.eof && !r.filled[3] {
		return io.EOF
	}

	copy(r.win[0], r.win[1])
	copy(r.win[1], r.win[2])
	copy(r.win[2], r.win[3])
	r.filled[0], r.filled[1], r.filled[2] = r.filled[1], r.filled[2], r.filled[3]

	if r.eof {
		r.filled[3] = false
		if !r.filled[2] {
			return io.EOF
		}
		return nil
	}

	got, err := r.readFrame(r.win[3])
	if err != nil {
		return err
	}
	if got {
		r.filter(r.win[3])
	}
	r.filled[3] = got
	if !got && !r.filled[2] {
		return io.EOF
	}

	return nil
}

// ReadSamples produces interleaved samples at the target rate.
// dst length must be a multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	written := 0
	frames := len(dst) / r.channels

	for written < frames {
		for r.pos >= 1.0 {
			r.pos -= 1.0
			if err := r.advance(); err != nil {
				if err == io.EOF {
					return written * r.channels, io.EOF
				}
				return written * r.channels, err
			}
		}

		if !r.filled[1] || !r.filled[2] {
			return written * r.channels, io.EOF
		}

		x := float32(r.pos)
		base := written * r.channels
		for c := range r.channels {
			y0 := r.win[1][c]
			if r.filled[0] {
				y0 = r.win[0][c]
			}
			y3 := r.win[2][c]
			if r.filled[3] {
				y3 = r.win[3][c]
			}
			dst[base+c] = utils.CubicInterpolate(y0, r.win[1][c], r.win[2][c], y3, x)
		}

		written++
		r.pos += r.ratio
	}

	return written * r.channels, nil
}
