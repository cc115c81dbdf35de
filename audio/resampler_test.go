// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"io"
	"math"
	"testing"
)

func readAll(t *testing.T, src Source, bufSize int) []float32 {
	t.Helper()

	buf := make([]float32, bufSize)
	var out []float32
	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}
}

func TestResampler_Metadata(t *testing.T) {
	t.Parallel()

	resampler := NewResampler(newSilentSource(44100, 2, 1000), 8000)

	if resampler.SampleRate() != 8000 {
		t.Errorf("Resampler.SampleRate() = %d, want 8000", resampler.SampleRate())
	}
	if resampler.Channels() != 2 {
		t.Errorf("Resampler.Channels() = %d, want 2", resampler.Channels())
	}
}

func TestResampler_OutputLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		srcRate   int
		dstRate   int
		tolerance int
	}{
		{"downsample 44.1k to 8k", 44100, 8000, 100},
		{"upsample 8k to 44.1k", 8000, 44100, 500},
		{"upsample 22.05k to 44.1k", 22050, 44100, 500},
		{"downsample 48k to 44.1k", 48000, 44100, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// one second of audio
			src := newSineSource(tt.srcRate, 1, tt.srcRate, 440.0)
			samples := readAll(t, NewResampler(src, tt.dstRate), 1024)

			if len(samples) < tt.dstRate-tt.tolerance || len(samples) > tt.dstRate+tt.tolerance {
				t.Errorf("resampled %d samples, want ≈%d (±%d)", len(samples), tt.dstRate, tt.tolerance)
			}
			for i, s := range samples {
				if s < -1.5 || s > 1.5 {
					t.Fatalf("samples[%d] = %v, outside [-1.5, 1.5]", i, s)
				}
			}
		})
	}
}

func TestResampler_StereoPreserved(t *testing.T) {
	t.Parallel()

	src := newMockSource(48000, 2, 4800, func(_ int, ch int) float32 {
		if ch == 0 {
			return 0.5
		}
		return -0.5
	})
	samples := readAll(t, NewResampler(src, 16000), 512)

	if len(samples)%2 != 0 {
		t.Fatalf("got %d samples, not a whole number of stereo frames", len(samples))
	}
	for i := 0; i < len(samples); i += 2 {
		if math.Abs(float64(samples[i]-0.5)) > 0.05 {
			t.Fatalf("left[%d] = %v, want ≈0.5", i/2, samples[i])
		}
		if math.Abs(float64(samples[i+1]+0.5)) > 0.05 {
			t.Fatalf("right[%d] = %v, want ≈-0.5", i/2, samples[i+1])
		}
	}
}

func TestResampler_EmptySource(t *testing.T) {
	t.Parallel()

	resampler := NewResampler(newSilentSource(44100, 1, 0), 8000)

	n, err := resampler.ReadSamples(make([]float32, 64))
	if n != 0 || err != io.EOF {
		t.Errorf("ReadSamples() = (%d, %v), want (0, io.EOF)", n, err)
	}

	n, err = resampler.ReadSamples(make([]float32, 64))
	if n != 0 || err != io.EOF {
		t.Errorf("second ReadSamples() = (%d, %v), want (0, io.EOF)", n, err)
	}
}

func TestResampler_InvalidDstSize(t *testing.T) {
	t.Parallel()

	resampler := NewResampler(newSilentSource(44100, 2, 100), 8000)

	_, err := resampler.ReadSamples(make([]float32, 3))
	if !errors.Is(err, ErrInvalidDstSize) {
		t.Errorf("ReadSamples() error = %v, want ErrInvalidDstSize", err)
	}
}

func TestResampler_PropagatesReadError(t *testing.T) {
	t.Parallel()

	src := newSineSource(44100, 1, 44100, 440)
	src.failAfter = 100
	resampler := NewResampler(src, 8000)

	buf := make([]float32, 256)
	var err error
	for range 100 {
		_, err = resampler.ReadSamples(buf)
		if err != nil {
			break
		}
	}

	if !errors.Is(err, errRead) {
		t.Errorf("ReadSamples() error = %v, want wrapped errRead", err)
	}
}

func TestResampler_Close(t *testing.T) {
	t.Parallel()

	src := newSilentSource(44100, 1, 10)
	if err := NewResampler(src, 8000).Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if !src.closed {
		t.Error("Close() did not close the source")
	}

	failing := newSilentSource(44100, 1, 10)
	failing.closeErr = errRead
	if err := NewResampler(failing, 8000).Close(); !errors.Is(err, errRead) {
		t.Errorf("Close() error = %v, want wrapped errRead", err)
	}
}

func BenchmarkResampler_Upsample(b *testing.B) {
	buf := make([]float32, 4096)

	b.ReportAllocs()

	for b.Loop() {
		resampler := NewResampler(newSineSource(22050, 2, 22050, 440), 44100)
		for {
			if _, err := resampler.ReadSamples(buf); err != nil {
				break
			}
		}
	}
}
