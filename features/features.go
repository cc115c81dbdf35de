// SPDX-License-Identifier: EPL-2.0

// Package features reduces byte frequency frames to a small feature
// vector and keeps a bounded spectrogram of recent frames.
package features

// Fixed bin ranges, independent of the frame length.
const (
	BassStart, BassEnd     = 0, 10
	MidStart, MidEnd       = 10, 100
	TrebleStart, TrebleEnd = 100, 200
)

// Vector holds per-tick features in raw magnitude units (0..255 for the
// bands).
type Vector struct {
	Bass             float64
	Mid              float64
	Treble           float64
	SpectralCentroid float64
	Energy           float64
}

// Normalized returns a copy with Bass, Mid and Treble scaled into [0, 1].
// Centroid and energy are left as they are.
func (v Vector) Normalized() Vector {
	v.Bass /= 255
	v.Mid /= 255
	v.Treble /= 255
	return v
}

// Extract computes the feature vector of frame. It never fails: empty
// frames, empty band ranges and silent frames all yield zeros.
func Extract(frame []uint8) Vector {
	v := Vector{
		Bass:   BandAverage(frame, BassStart, BassEnd),
		Mid:    BandAverage(frame, MidStart, MidEnd),
		Treble: BandAverage(frame, TrebleStart, TrebleEnd),
	}
	if len(frame) == 0 {
		return v
	}

	var sum, weighted, squares float64
	for i, b := range frame {
		a := float64(b)
		sum += a
		weighted += a * float64(i)
		squares += a * a
	}

	if sum > 0 {
		v.SpectralCentroid = weighted / sum
	}
	v.Energy = squares / float64(len(frame))

	return v
}

// BandAverage is the mean of frame[start:end], with the range clamped to
// the frame. An empty range averages to 0.
func BandAverage(frame []uint8, start, end int) float64 {
	start = max(start, 0)
	end = min(end, len(frame))
	if end <= start {
		return 0
	}

	var sum float64
	for _, b := range frame[start:end] {
		sum += float64(b)
	}
	return sum / float64(end-start)
}
