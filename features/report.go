// SPDX-License-Identifier: EPL-2.0

package features

import "time"

// Band edges in Hz used by Describe.
const (
	BassMaxHz = 200
	MidMaxHz  = 2000
)

// Info describes the decoded audio a frame was taken from.
type Info struct {
	SampleRate int
	Channels   int
	Duration   time.Duration
}

// Report is an audio-domain summary. Band values stay in raw 0..255 units.
type Report struct {
	Duration         time.Duration
	SampleRate       int
	Channels         int
	Bass             float64
	Mid              float64
	Treble           float64
	SpectralCentroid float64
	Energy           float64
}

// Describe summarises frame with bands chosen by frequency instead of by
// fixed bin index: bass below 200 Hz, mid up to 2 kHz and treble up to
// the Nyquist frequency.
func Describe(info Info, frame []uint8) Report {
	r := Report{
		Duration:   info.Duration,
		SampleRate: info.SampleRate,
		Channels:   info.Channels,
	}
	if len(frame) == 0 || info.SampleRate < 2 {
		return r
	}

	nyquist := info.SampleRate / 2
	bin := func(hz int) int {
		return hz * len(frame) / nyquist
	}

	r.Bass = BandAverage(frame, 0, bin(BassMaxHz))
	r.Mid = BandAverage(frame, bin(BassMaxHz), bin(MidMaxHz))
	r.Treble = BandAverage(frame, bin(MidMaxHz), len(frame))

	v := Extract(frame)
	r.SpectralCentroid = v.SpectralCentroid
	r.Energy = v.Energy

	return r
}
