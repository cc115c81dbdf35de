// SPDX-License-Identifier: EPL-2.0

package features

// DefaultHistoryCapacity is the number of frames kept by NewHistory(0).
const DefaultHistoryCapacity = 60

// History is a fixed-capacity FIFO of frame copies. When full, pushing a
// frame evicts the oldest one.
type History struct {
	frames [][]uint8
	start  int
	size   int
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{frames: make([][]uint8, capacity)}
}

// Push stores a copy of frame. The slot of an evicted frame is reused when
// its length matches.
func (h *History) Push(frame []uint8) {
	idx := (h.start + h.size) % len(h.frames)
	if h.size == len(h.frames) {
		h.start = (h.start + 1) % len(h.frames)
	} else {
		h.size++
	}

	slot := h.frames[idx]
	if len(slot) != len(frame) {
		slot = make([]uint8, len(frame))
	}
	copy(slot, frame)
	h.frames[idx] = slot
}

func (h *History) Len() int { return h.size }
func (h *History) Cap() int { return len(h.frames) }

// Frames returns copies of the stored frames, oldest first.
func (h *History) Frames() [][]uint8 {
	out := make([][]uint8, h.size)
	for i := range h.size {
		out[i] = append([]uint8(nil), h.frames[(h.start+i)%len(h.frames)]...)
	}
	return out
}

// Latest returns a copy of the newest frame, or false when empty.
func (h *History) Latest() ([]uint8, bool) {
	if h.size == 0 {
		return nil, false
	}
	idx := (h.start + h.size - 1) % len(h.frames)
	return append([]uint8(nil), h.frames[idx]...), true
}

func (h *History) Reset() {
	clear(h.frames)
	h.start, h.size = 0, 0
}
