// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
	"time"
)

// Buffer is fully decoded PCM held in memory: interleaved samples plus a
// mono mix of the same frames. A Buffer is never mutated after NewBuffer.
type Buffer struct {
	sampleRate int
	channels   int
	data       []float32
	mono       []float32
}

// NewBuffer takes ownership of the interleaved samples in data and
// precomputes the mono mix.
func NewBuffer(sampleRate, channels int, data []float32) (*Buffer, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, ErrInvalidFormat
	}
	if len(data)%channels != 0 {
		return nil, ErrInvalidDstSize
	}
	if len(data) == 0 {
		return nil, ErrEmptyBuffer
	}

	b := &Buffer{
		sampleRate: sampleRate,
		channels:   channels,
		data:       data,
	}

	if channels == 1 {
		b.mono = data
		return b, nil
	}

	mono, err := Collect(NewMonoMixer(b.NewReader()), 4096)
	if err != nil {
		return nil, fmt.Errorf("mixing buffer to mono: %w", err)
	}
	b.mono = mono

	return b, nil
}

func (b *Buffer) SampleRate() int { return b.sampleRate }
func (b *Buffer) Channels() int   { return b.channels }

// Frames is the number of sample frames (samples per channel).
func (b *Buffer) Frames() int { return len(b.data) / b.channels }

func (b *Buffer) Duration() time.Duration {
	return time.Duration(float64(b.Frames()) / float64(b.sampleRate) * float64(time.Second))
}

// Interleaved returns frames [from, to) as interleaved samples. The slice
// aliases the buffer and must not be modified.
func (b *Buffer) Interleaved(from, to int) []float32 {
	return b.data[from*b.channels : to*b.channels]
}

// Mono returns the mono mix of frames [from, to). The slice aliases the
// buffer and must not be modified.
func (b *Buffer) Mono(from, to int) []float32 {
	return b.mono[from:to]
}

// NewReader returns a Source that streams the buffer from the start.
func (b *Buffer) NewReader() Source {
	return &bufferReader{buf: b}
}

type bufferReader struct {
	buf *Buffer
	pos int // sample offset into buf.data
}

func (r *bufferReader) SampleRate() int { return r.buf.sampleRate }
func (r *bufferReader) Channels() int   { return r.buf.channels }
func (r *bufferReader) BufSize() int    { return 4096 }
func (r *bufferReader) Close() error    { return nil }

func (r *bufferReader) ReadSamples(dst []float32) (int, error) {
	if r.pos >= len(r.buf.data) {
		return 0, io.EOF
	}

	n := copy(dst, r.buf.data[r.pos:])
	n -= n % r.buf.channels
	r.pos += n

	if r.pos >= len(r.buf.data) {
		return n, io.EOF
	}
	return n, nil
}

// Collect drains src and returns every interleaved sample it produced.
// bufferSize is rounded down to a whole number of frames.
func Collect(src Source, bufferSize int) ([]float32, error) {
	channels := src.Channels()
	if channels <= 0 {
		return nil, ErrInvalidFormat
	}
	bufferSize -= bufferSize % channels
	if bufferSize <= 0 {
		bufferSize = channels * 1024
	}

	out := make([]float32, 0, bufferSize*4)
	buf := make([]float32, bufferSize)

	for {
		n, err := src.ReadSamples(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}

		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("collecting samples: %w", err)
		}
		if n == 0 {
			// a source that makes no progress without EOF is treated as finished
			return out, nil
		}
	}
}

// Load decodes all of src into a Buffer at targetRate, resampling with
// cubic interpolation when the rates differ.
//
// Pipeline:
//  1. Resample src to targetRate (skipped when the rates match)
//  2. Collect the interleaved samples
//  3. Precompute the mono mix
func Load(src Source, targetRate, bufferSize int) (*Buffer, error) {
	if targetRate <= 0 || src.SampleRate() <= 0 || src.Channels() <= 0 {
		return nil, ErrInvalidFormat
	}

	var stream Source = src
	if src.SampleRate() != targetRate {
		stream = NewResampler(src, targetRate)
	}

	data, err := Collect(stream, bufferSize)
	if err != nil {
		return nil, err
	}

	return NewBuffer(targetRate, src.Channels(), data)
}
