// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"bytes"
	"io"

	"github.com/ik5/audiovis/audio"
)

// Decoder is a scripted audio.Decoder for registry and controller tests.
// It claims any stream starting with Magic.
type Decoder struct {
	Magic []byte
	// NewSource builds the decoded stream.
	NewSource func() audio.Source
	// Err, when set, is returned instead of a source.
	Err error
	// Block, when set, delays Decode until it is closed.
	Block <-chan struct{}
}

func (d Decoder) Match(header []byte) bool {
	return len(d.Magic) > 0 && bytes.HasPrefix(header, d.Magic)
}

func (d Decoder) Decode(io.Reader) (audio.Source, error) {
	if d.Block != nil {
		<-d.Block
	}
	if d.Err != nil {
		return nil, d.Err
	}
	return d.NewSource(), nil
}
