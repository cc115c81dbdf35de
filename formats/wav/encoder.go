// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/ik5/audiovis/utils"
)

// Encode writes interleaved float32 samples as 16-bit PCM WAV.
func Encode(w io.WriteSeeker, sampleRate, channels int, samples []float32) error {
	if channels <= 0 {
		return ErrInvalidChannels
	}

	enc := gowav.NewEncoder(w, sampleRate, 16, channels, formatPCM)

	// convert in chunks to bound the int scratch buffer
	const chunkSize = 8192
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           make([]int, 0, min(len(samples), chunkSize)),
		SourceBitDepth: 16,
	}

	for start := 0; start < len(samples); start += chunkSize {
		chunk := samples[start:min(start+chunkSize, len(samples))]

		buf.Data = buf.Data[:len(chunk)]
		for i, s := range chunk {
			buf.Data[i] = int(utils.Float32ToInt16(s))
		}

		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("writing wav samples: %w", err)
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalising wav: %w", err)
	}

	return nil
}

// EncodeBytes is Encode into memory.
func EncodeBytes(sampleRate, channels int, samples []float32) ([]byte, error) {
	ws := &writeSeeker{}
	if err := Encode(ws, sampleRate, channels, samples); err != nil {
		return nil, err
	}

	return ws.data, nil
}

// writeSeeker is an in-memory io.WriteSeeker; the encoder seeks back to
// patch chunk sizes on Close.
type writeSeeker struct {
	data   []byte
	offset int64
}

func (ws *writeSeeker) Write(p []byte) (int, error) {
	end := ws.offset + int64(len(p))
	if end > int64(len(ws.data)) {
		if end > int64(cap(ws.data)) {
			grown := make([]byte, end, max(end, 2*int64(cap(ws.data))))
			copy(grown, ws.data)
			ws.data = grown
		} else {
			ws.data = ws.data[:end]
		}
	}

	copy(ws.data[ws.offset:], p)
	ws.offset = end

	return len(p), nil
}

func (ws *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = ws.offset + offset
	case io.SeekEnd:
		next = int64(len(ws.data)) + offset
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("negative position")
	}

	ws.offset = next
	return next, nil
}
