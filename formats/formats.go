// SPDX-License-Identifier: EPL-2.0

// Package formats assembles the bundled decoders into a registry that can
// pick a decoder from file content.
package formats

import (
	"github.com/ik5/audiovis/audio"
	"github.com/ik5/audiovis/formats/aiff"
	"github.com/ik5/audiovis/formats/mp3"
	"github.com/ik5/audiovis/formats/vorbis"
	"github.com/ik5/audiovis/formats/wav"
)

// Format keys used by NewRegistry.
const (
	WAV    = "wav"
	AIFF   = "aiff"
	Vorbis = "ogg"
	MP3    = "mp3"
)

// NewRegistry returns a registry holding every bundled decoder. MP3 is
// registered last because its frame-sync check is the loosest matcher.
func NewRegistry() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register(WAV, wav.Decoder{})
	reg.Register(AIFF, aiff.Decoder{})
	reg.Register(Vorbis, vorbis.Decoder{})
	reg.Register(MP3, mp3.Decoder{})

	return reg
}
