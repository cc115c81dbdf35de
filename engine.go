// SPDX-License-Identifier: EPL-2.0

package audiovis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ik5/audiovis/analyser"
	"github.com/ik5/audiovis/audio"
	"github.com/ik5/audiovis/features"
	"github.com/ik5/audiovis/particles"
	"github.com/ik5/audiovis/playback"
	"github.com/ik5/audiovis/uniforms"
)

// sampleLogInterval is the number of active ticks between debug samples
// of the frequency data.
const sampleLogInterval = 100

// Snapshot is everything a renderer needs for one frame.
type Snapshot struct {
	Active bool
	State  playback.State
	// Features in raw magnitude units, Normalized with bands in [0, 1].
	Features   features.Vector
	Normalized features.Vector
	Groups     []particles.Group
	Uniforms   uniforms.Params
}

type Option func(*options)

type options struct {
	logger   logrus.FieldLogger
	sink     playback.Sink
	rand     particles.Rand
	registry *audio.Registry
}

// WithLogger sets the logger. Its level is left untouched; Config.LogLevel
// only applies to the logger New creates itself.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.logger = l }
}

// WithSink replaces the default clock sink, e.g. with output.Speaker.
func WithSink(s playback.Sink) Option {
	return func(o *options) { o.sink = s }
}

// WithRand sets the random source of the particle simulator.
func WithRand(r particles.Rand) Option {
	return func(o *options) { o.rand = r }
}

// WithRegistry replaces the bundled decoders.
func WithRegistry(r *audio.Registry) Option {
	return func(o *options) { o.registry = r }
}

// Engine ties playback, feature extraction, the particle field and the
// shader parameters together. Tick and Restart must be called from the
// same goroutine; the other playback passthroughs may be called from any.
type Engine struct {
	log       logrus.FieldLogger
	ctrl      *playback.Controller
	extractor *features.Extractor
	sim       *particles.Simulator
	bridge    *uniforms.Bridge
	frame     []uint8

	clock       time.Duration
	activeTicks int
}

type resetFunc func()

func (f resetFunc) Reset() { f() }

func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		level, _ := logrus.ParseLevel(cfg.LogLevel)
		l := logrus.New()
		l.SetLevel(level)
		o.logger = l
	}

	smoothing := cfg.Smoothing
	if smoothing == 0 {
		smoothing = -1 // zero would select the analyser default
	}

	ctrl, err := playback.New(playback.Options{
		SampleRate:    cfg.SampleRate,
		DecodeTimeout: cfg.DecodeTimeout,
		Registry:      o.registry,
		Sink:          o.sink,
		Logger:        o.logger,
		Analyser: analyser.Options{
			FFTSize:     cfg.FFTSize,
			Smoothing:   smoothing,
			MinDecibels: cfg.MinDecibels,
			MaxDecibels: cfg.MaxDecibels,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating playback controller: %w", err)
	}

	sim, err := particles.New(particles.Options{
		Count:              cfg.ParticleCount,
		BoundaryRadius:     cfg.BoundaryRadius,
		RecycleScale:       cfg.RecycleScale,
		RecycleProbability: cfg.RecycleProbability,
		Rand:               o.rand,
	})
	if err != nil {
		return nil, fmt.Errorf("creating particle field: %w", err)
	}

	e := &Engine{
		log:       o.logger.WithField("component", "engine"),
		ctrl:      ctrl,
		extractor: features.NewExtractor(cfg.HistoryCapacity),
		sim:       sim,
		bridge:    uniforms.New(ctrl.BinCount()),
		frame:     make([]uint8, ctrl.BinCount()),
	}
	ctrl.OnRestart(e.sim, e.bridge, e.extractor, resetFunc(func() {
		e.clock = 0
		e.activeTicks = 0
	}))

	return e, nil
}

// Tick advances playback by dt and, while audio is playing, runs one
// analysis and simulation step. Otherwise the scene is returned as it is.
func (e *Engine) Tick(dt time.Duration) Snapshot {
	e.ctrl.Tick(dt)
	e.clock += dt

	state := e.ctrl.State()
	if state != playback.Playing {
		return Snapshot{
			State:    state,
			Groups:   e.sim.Snapshot(),
			Uniforms: e.bridge.Params(),
		}
	}

	frame := e.frame[:e.ctrl.ReadFrame(e.frame)]
	e.activeTicks++
	if e.activeTicks%sampleLogInterval == 0 {
		e.log.WithFields(logrus.Fields{
			"session": e.ctrl.Session(),
			"bins":    append([]uint8(nil), frame[:min(5, len(frame))]...),
		}).Debug("frequency data sample")
	}

	raw := e.extractor.Process(frame)
	norm := raw.Normalized()
	e.sim.Step(norm)
	e.bridge.Update(norm, frame, e.clock)

	return Snapshot{
		Active:     true,
		State:      state,
		Features:   raw,
		Normalized: norm,
		Groups:     e.sim.Snapshot(),
		Uniforms:   e.bridge.Params(),
	}
}

func (e *Engine) LoadFile(ctx context.Context, data []byte) error {
	return e.ctrl.LoadFile(ctx, data)
}

func (e *Engine) Start() error  { return e.ctrl.Start() }
func (e *Engine) Pause() error  { return e.ctrl.Pause() }
func (e *Engine) Resume() error { return e.ctrl.Resume() }
func (e *Engine) Cleanup()      { e.ctrl.Cleanup() }

// Restart cleans up playback and resets particles, shader parameters,
// the spectrogram and the engine clock.
func (e *Engine) Restart() { e.ctrl.Restart() }

func (e *Engine) State() playback.State       { return e.ctrl.State() }
func (e *Engine) Session() uuid.UUID          { return e.ctrl.Session() }
func (e *Engine) Elapsed() time.Duration      { return e.ctrl.Elapsed() }
func (e *Engine) Info() (playback.Info, bool) { return e.ctrl.Info() }

// Spectrogram returns the recorded frames, oldest first.
func (e *Engine) Spectrogram() [][]uint8 { return e.extractor.History() }

// Report summarises the loaded audio and the latest recorded frame. It
// returns false when nothing is loaded.
func (e *Engine) Report() (features.Report, bool) {
	info, ok := e.ctrl.Info()
	if !ok {
		return features.Report{}, false
	}

	frame, ok := e.extractor.Latest()
	if !ok {
		frame = make([]uint8, e.ctrl.BinCount())
	}

	return features.Describe(features.Info{
		SampleRate: info.SampleRate,
		Channels:   info.Channels,
		Duration:   info.Duration,
	}, frame), true
}
