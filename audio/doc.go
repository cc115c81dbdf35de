// SPDX-License-Identifier: EPL-2.0

// Package audio provides the PCM primitives the playback pipeline is built on.
//
// # Source Interface
//
// Every decoder and processor implements Source, a pull-based stream of
// interleaved float32 samples in [-1, 1]:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// ReadSamples returns io.EOF once the stream is exhausted; the final call
// may return samples together with io.EOF.
//
// # Format Registry
//
// Registry maps format keys to decoders. Decoders that also implement
// Matcher can be chosen from the first bytes of a file:
//
//	format, dec, ok := registry.Detect(data)
//	src, err := dec.Decode(bytes.NewReader(data))
//
// # Buffers
//
// Load runs a Source through a Resampler to a target rate and collects it
// into a Buffer, an immutable in-memory copy holding both the interleaved
// frames and a mono mix produced by MonoMixer:
//
//	buf, err := audio.Load(src, 44100, 4096)
//	frames := buf.Interleaved(0, 1024)
//	mono := buf.Mono(0, 1024)
//
// # Integer PCM
//
// PCMSource adapts the go-audio decoders (WAV, AIFF) to Source.
package audio
