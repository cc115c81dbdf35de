// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"sync"
)

// Source is a pull-based PCM stream.
type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (e.g., 1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples in [-1,1].
	// Returns number of float32 values written (not frames). When n == 0 with err == io.EOF, the stream is finished.
	ReadSamples(dst []float32) (n int, err error)

	BufSize() int

	// Close releases any resources.
	Close() error
}

// Decoder constructs a Source from an input reader.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// Matcher is implemented by decoders that can recognise their container
// from the leading bytes of a stream.
type Matcher interface {
	Match(header []byte) bool
}

// HeaderSize is the number of leading bytes handed to Matcher.Match by
// Registry.Detect.
const HeaderSize = 64

// Registry for decoders by format key (e.g., "wav", "mp3", "ogg").
type Registry struct {
	codecs map[string]Decoder
	order  []string

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Decoder),
		mtx:    &sync.Mutex{},
	}
}

// Register adds or replaces the decoder for format. Detection order is
// the order in which formats were first registered.
func (r *Registry) Register(format string, d Decoder) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, exists := r.codecs[format]; !exists {
		r.order = append(r.order, format)
	}
	r.codecs[format] = d
}

func (r *Registry) Get(format string) (Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	d, ok := r.codecs[format]
	return d, ok
}

// Formats lists the registered format keys in detection order.
func (r *Registry) Formats() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	return append([]string(nil), r.order...)
}

// Detect returns the first registered decoder whose Matcher accepts
// header. Decoders that do not implement Matcher are never selected.
func (r *Registry) Detect(header []byte) (string, Decoder, bool) {
	if len(header) > HeaderSize {
		header = header[:HeaderSize]
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()

	for _, format := range r.order {
		d := r.codecs[format]
		m, ok := d.(Matcher)
		if ok && m.Match(header) {
			return format, d, true
		}
	}

	return "", nil, false
}
