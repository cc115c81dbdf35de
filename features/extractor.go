// SPDX-License-Identifier: EPL-2.0

package features

// Extractor pairs Extract with the spectrogram it owns.
type Extractor struct {
	history *History
}

func NewExtractor(historyCapacity int) *Extractor {
	return &Extractor{history: NewHistory(historyCapacity)}
}

func (e *Extractor) Extract(frame []uint8) Vector { return Extract(frame) }

// RecordHistory appends a copy of frame to the spectrogram.
func (e *Extractor) RecordHistory(frame []uint8) { e.history.Push(frame) }

// Process extracts the features of frame and records it.
func (e *Extractor) Process(frame []uint8) Vector {
	v := Extract(frame)
	e.history.Push(frame)
	return v
}

// History returns the spectrogram frames, oldest first.
func (e *Extractor) History() [][]uint8 { return e.history.Frames() }

func (e *Extractor) Latest() ([]uint8, bool) { return e.history.Latest() }

func (e *Extractor) Reset() { e.history.Reset() }
