// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ik5/audiovis/analyser"
	"github.com/ik5/audiovis/audio"
	"github.com/ik5/audiovis/formats"
)

const (
	DefaultSampleRate    = 44100
	DefaultDecodeTimeout = 30 * time.Second

	eventQueueSize = 8
)

// Resetter is state that Restart clears after tearing down playback.
type Resetter interface {
	Reset()
}

// Options configures a Controller. Zero fields take the defaults.
type Options struct {
	// SampleRate every decoded buffer is resampled to.
	SampleRate    int
	DecodeTimeout time.Duration
	Registry      *audio.Registry
	Analyser      analyser.Options
	Sink          Sink
	Logger        logrus.FieldLogger
}

// Info describes the loaded audio.
type Info struct {
	Format     string
	SampleRate int
	Channels   int
	Frames     int
	Duration   time.Duration
}

// ended is posted by a voice when it runs out of samples.
type ended struct {
	generation uint64
}

// Controller owns the decoded audio, the active voice and the analyser,
// and moves between states in response to calls and end-of-stream events.
// All methods are safe for concurrent use.
type Controller struct {
	sampleRate    int
	decodeTimeout time.Duration
	registry      *audio.Registry
	sink          Sink
	analyser      *analyser.Analyser
	log           logrus.FieldLogger

	events chan ended

	mtx        sync.Mutex
	state      State
	generation uint64
	session    uuid.UUID
	format     string
	buf        *audio.Buffer
	voice      *Voice
	resetters  []Resetter
}

func New(opts Options) (*Controller, error) {
	if opts.SampleRate == 0 {
		opts.SampleRate = DefaultSampleRate
	}
	if opts.SampleRate < 0 {
		return nil, fmt.Errorf("%w: sample rate %d", audio.ErrInvalidFormat, opts.SampleRate)
	}
	if opts.DecodeTimeout <= 0 {
		opts.DecodeTimeout = DefaultDecodeTimeout
	}
	if opts.Registry == nil {
		opts.Registry = formats.NewRegistry()
	}
	if opts.Sink == nil {
		opts.Sink = NewClockSink()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	an, err := analyser.New(opts.Analyser)
	if err != nil {
		return nil, fmt.Errorf("creating analyser: %w", err)
	}

	return &Controller{
		sampleRate:    opts.SampleRate,
		decodeTimeout: opts.DecodeTimeout,
		registry:      opts.Registry,
		sink:          opts.Sink,
		analyser:      an,
		log:           opts.Logger.WithField("component", "playback"),
		events:        make(chan ended, eventQueueSize),
	}, nil
}

// OnRestart registers state that Restart resets.
func (c *Controller) OnRestart(r ...Resetter) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.resetters = append(c.resetters, r...)
}

// LoadFile tears down any current session and decodes data. It blocks
// until the decode finishes, ctx is done or the decode timeout expires.
// On success the controller is Ready; on any failure it is Idle. A load
// overtaken by Cleanup or another LoadFile returns ErrLoadCanceled and
// leaves the newer state alone.
func (c *Controller) LoadFile(ctx context.Context, data []byte) error {
	c.mtx.Lock()
	c.teardown()
	gen := c.generation
	c.setState(Decoding)
	c.mtx.Unlock()

	type result struct {
		buf    *audio.Buffer
		format string
		err    error
	}
	done := make(chan result, 1)
	go func() {
		buf, format, err := c.decode(data)
		done <- result{buf: buf, format: format, err: err}
	}()

	timer := time.NewTimer(c.decodeTimeout)
	defer timer.Stop()

	var res result
	select {
	case res = <-done:
	case <-timer.C:
		res.err = ErrDecodeTimeout
	case <-ctx.Done():
		res.err = fmt.Errorf("loading audio: %w", ctx.Err())
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.generation != gen {
		c.log.WithField("generation", gen).Debug("discarding superseded load")
		return ErrLoadCanceled
	}

	if res.err != nil {
		c.log.WithError(res.err).Warn("load failed")
		c.setState(Idle)
		return res.err
	}

	c.buf = res.buf
	c.format = res.format
	c.session = uuid.New()
	c.log.WithFields(logrus.Fields{
		"session":  c.session,
		"format":   res.format,
		"channels": res.buf.Channels(),
		"duration": res.buf.Duration(),
	}).Info("audio loaded")
	c.setState(Ready)

	return nil
}

// Start begins playback of the loaded audio from the beginning.
func (c *Controller) Start() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.state != Ready {
		return &TransitionError{Op: "start", From: c.state, Err: ErrNotReady}
	}

	c.stopVoice()
	c.analyser.Reset()

	gen := c.generation
	v := NewVoice(c.buf, c.analyser, func() { c.post(ended{generation: gen}) })
	if err := c.sink.Attach(v); err != nil {
		return fmt.Errorf("attaching voice: %w", err)
	}
	c.voice = v
	c.setState(Playing)

	return nil
}

func (c *Controller) Pause() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	// an end of stream queued by a real-time sink wins over the pause
	c.drainEvents()
	if c.state != Playing {
		return &TransitionError{Op: "pause", From: c.state, Err: ErrInvalidTransition}
	}

	if !c.voice.pause() {
		c.endStream()
		return &TransitionError{Op: "pause", From: c.state, Err: ErrInvalidTransition}
	}
	c.setState(Paused)
	return nil
}

func (c *Controller) Resume() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.state != Paused {
		return &TransitionError{Op: "resume", From: c.state, Err: ErrInvalidTransition}
	}

	c.voice.setPaused(false)
	c.setState(Playing)
	return nil
}

// Cleanup releases the voice and the decoded audio and returns to Idle
// from any state. It never fails and may be called repeatedly.
func (c *Controller) Cleanup() {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.teardown()
	c.setState(Idle)
}

// Restart is Cleanup followed by a reset of every registered Resetter.
func (c *Controller) Restart() {
	c.mtx.Lock()
	c.teardown()
	c.setState(Idle)
	resetters := append([]Resetter(nil), c.resetters...)
	c.mtx.Unlock()

	for _, r := range resetters {
		r.Reset()
	}
}

// Tick advances clock-driven sinks by dt while playing and handles any
// pending end-of-stream events.
func (c *Controller) Tick(dt time.Duration) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.state == Playing {
		c.sink.Advance(dt)
	}
	c.drainEvents()
}

func (c *Controller) State() State {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return c.state
}

// Active reports whether audio is playing.
func (c *Controller) Active() bool { return c.State() == Playing }

// Session identifies the loaded audio. It is uuid.Nil while nothing is
// loaded.
func (c *Controller) Session() uuid.UUID {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return c.session
}

func (c *Controller) Info() (Info, bool) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.buf == nil {
		return Info{}, false
	}
	return Info{
		Format:     c.format,
		SampleRate: c.buf.SampleRate(),
		Channels:   c.buf.Channels(),
		Frames:     c.buf.Frames(),
		Duration:   c.buf.Duration(),
	}, true
}

// Elapsed is the playback position of the current voice.
func (c *Controller) Elapsed() time.Duration {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.voice == nil {
		return 0
	}
	return c.voice.Elapsed()
}

// ReadFrame computes the current frequency frame into dst and returns the
// number of bins written.
func (c *Controller) ReadFrame(dst []uint8) int { return c.analyser.ByteFrequencyData(dst) }

func (c *Controller) BinCount() int { return c.analyser.BinCount() }

// post delivers an event without blocking the audio path.
func (c *Controller) post(ev ended) {
	select {
	case c.events <- ev:
	default:
		c.log.WithField("generation", ev.generation).Warn("event queue full, dropping end of stream")
	}
}

func (c *Controller) drainEvents() {
	for {
		select {
		case ev := <-c.events:
			c.handleEnded(ev)
		default:
			return
		}
	}
}

func (c *Controller) handleEnded(ev ended) {
	if ev.generation != c.generation || c.voice == nil {
		c.log.WithField("generation", ev.generation).Debug("ignoring stale end of stream")
		return
	}
	c.endStream()
}

// endStream moves a finished voice through Stopped back to Idle.
func (c *Controller) endStream() {
	c.setState(Stopped)
	c.teardown()
	c.setState(Idle)
}

// teardown releases every per-session resource and invalidates in-flight
// loads and pending events. Callers set the resulting state.
func (c *Controller) teardown() {
	c.generation++
	c.stopVoice()
	c.buf = nil
	c.format = ""
	c.session = uuid.Nil
	c.analyser.Reset()
}

func (c *Controller) stopVoice() {
	if c.voice == nil {
		return
	}

	c.voice.stop()
	if err := c.sink.Detach(); err != nil {
		c.logCleanup(&CleanupError{Resource: "sink", Err: err})
	}
	c.voice = nil
}

func (c *Controller) logCleanup(err *CleanupError) {
	c.log.WithError(err).WithField("resource", err.Resource).Warn("cleanup failed")
}

func (c *Controller) setState(s State) {
	if c.state == s {
		return
	}
	c.log.WithFields(logrus.Fields{
		"from": c.state,
		"to":   s,
	}).Debug("state transition")
	c.state = s
}
