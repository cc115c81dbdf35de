// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"math"
	"testing"
	"time"

	"github.com/ik5/audiovis/formats/wav"
)

// Tone returns d worth of interleaved sine samples at half amplitude.
func Tone(sampleRate, channels int, d time.Duration, frequency float64) []float32 {
	frames := int(d.Seconds() * float64(sampleRate))
	out := make([]float32, frames*channels)
	for f := range frames {
		v := float32(0.5 * math.Sin(2*math.Pi*frequency*float64(f)/float64(sampleRate)))
		for ch := range channels {
			out[f*channels+ch] = v
		}
	}
	return out
}

// ToneWAV encodes Tone as a 16-bit PCM WAV file.
func ToneWAV(tb testing.TB, sampleRate, channels int, d time.Duration, frequency float64) []byte {
	tb.Helper()

	data, err := wav.EncodeBytes(sampleRate, channels, Tone(sampleRate, channels, d, frequency))
	if err != nil {
		tb.Fatalf("encoding wav fixture: %v", err)
	}
	return data
}
