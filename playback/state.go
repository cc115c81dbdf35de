// SPDX-License-Identifier: EPL-2.0

package playback

// State of a Controller.
type State int

const (
	Idle State = iota
	Decoding
	Ready
	Playing
	Paused
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Decoding:
		return "decoding"
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}
