// SPDX-License-Identifier: EPL-2.0

// Package wav decodes and encodes RIFF/WAVE integer PCM on top of
// github.com/go-audio/wav.
//
// Decoding accepts 16, 24 and 32-bit PCM with any channel count. Inputs
// that are not an io.ReadSeeker are read into memory first because the
// chunk walker seeks.
//
//	src, err := wav.Decoder{}.Decode(bytes.NewReader(data))
//
// Encode writes 16-bit PCM from float32 samples; EncodeBytes does the same
// into memory, which is how test fixtures are produced:
//
//	data, err := wav.EncodeBytes(44100, 2, samples)
package wav
