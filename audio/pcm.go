// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
)

// PCMReader is the integer PCM interface shared by the go-audio decoders.
type PCMReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// PCMSource adapts a go-audio decoder to Source, scaling integer samples
// of the given bit depth into [-1, 1].
type PCMSource struct {
	dec        PCMReader
	sampleRate int
	channels   int
	scale      float32
	intBuf     *goaudio.IntBuffer
}

// NewPCMSource wraps dec. Supported bit depths are 16, 24 and 32.
func NewPCMSource(dec PCMReader, sampleRate, channels, bitDepth int) (*PCMSource, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, ErrInvalidFormat
	}

	var full float32
	switch bitDepth {
	case 16:
		full = 1 << 15
	case 24:
		full = 1 << 23
	case 32:
		full = 1 << 31
	default:
		return nil, fmt.Errorf("%w: %d-bit PCM", ErrInvalidFormat, bitDepth)
	}

	return &PCMSource{
		dec:        dec,
		sampleRate: sampleRate,
		channels:   channels,
		scale:      1 / full,
	}, nil
}

func (s *PCMSource) SampleRate() int { return s.sampleRate }
func (s *PCMSource) Channels() int   { return s.channels }
func (s *PCMSource) Close() error    { return nil }

func (s *PCMSource) BufSize() int {
	if s.intBuf != nil {
		return cap(s.intBuf.Data)
	}
	return 4096
}

func (s *PCMSource) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, len(dst)),
			Format: s.dec.Format(),
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:len(dst)]
	}

	n, err := s.dec.PCMBuffer(s.intBuf)
	if n == 0 {
		if err != nil && err != io.EOF {
			return 0, fmt.Errorf("reading PCM: %w", err)
		}
		return 0, io.EOF
	}

	for i, v := range s.intBuf.Data[:n] {
		dst[i] = float32(v) * s.scale
	}

	// a short read without an error marks the end of the PCM chunk
	if n < len(dst) && err == nil {
		return n, io.EOF
	}
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("reading PCM: %w", err)
	}
	return n, err
}
