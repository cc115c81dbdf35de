// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"bytes"

	"github.com/ik5/audiovis/audio"
)

// decode sniffs, decodes and resamples data into a Buffer at the
// controller's sample rate.
func (c *Controller) decode(data []byte) (*audio.Buffer, string, error) {
	if len(data) == 0 {
		return nil, "", &DecodeError{Err: ErrEmptyInput}
	}

	format, dec, ok := c.registry.Detect(data)
	if !ok {
		return nil, "", &DecodeError{Err: ErrUnsupportedFormat}
	}

	src, err := dec.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, format, &DecodeError{Format: format, Err: err}
	}
	defer func() {
		if err := src.Close(); err != nil {
			c.logCleanup(&CleanupError{Resource: format + " decoder", Err: err})
		}
	}()

	buf, err := audio.Load(src, c.sampleRate, src.BufSize())
	if err != nil {
		return nil, format, &DecodeError{Format: format, Err: err}
	}

	return buf, format, nil
}
