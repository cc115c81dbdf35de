// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/ik5/audiovis/audio"
	"github.com/ik5/audiovis/formats"
	"github.com/ik5/audiovis/internal/audiotest"
)

const tick = 20 * time.Millisecond

func newController(t *testing.T, opts Options) (*Controller, *test.Hook) {
	t.Helper()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	opts.Logger = logger

	c, err := New(opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(c.Cleanup)
	return c, hook
}

func toneWAV(t *testing.T) []byte {
	return audiotest.ToneWAV(t, 44100, 2, 200*time.Millisecond, 440)
}

func load(t *testing.T, c *Controller, data []byte) {
	t.Helper()

	if err := c.LoadFile(context.Background(), data); err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
}

// playToEnd ticks until the controller leaves Playing or gives up.
func playToEnd(t *testing.T, c *Controller) {
	t.Helper()

	for range 1000 {
		c.Tick(tick)
		if c.State() != Playing {
			return
		}
	}
	t.Fatal("playback never ended")
}

// waitState polls until the controller reaches want.
func waitState(t *testing.T, c *Controller, want State) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for c.State() != want {
		if time.Now().After(deadline) {
			t.Fatalf("state = %v, want %v", c.State(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

// registryWith returns the bundled formats plus a scripted decoder.
func registryWith(format string, d audiotest.Decoder) *audio.Registry {
	reg := formats.NewRegistry()
	reg.Register(format, d)
	return reg
}

func hasEntry(hook *test.Hook, level logrus.Level, msg string) bool {
	for _, e := range hook.AllEntries() {
		if e.Level == level && e.Message == msg {
			return true
		}
	}
	return false
}

func TestController_Lifecycle(t *testing.T) {
	t.Parallel()

	c, _ := newController(t, Options{})
	if c.State() != Idle || c.Active() {
		t.Fatalf("new controller state = %v", c.State())
	}

	load(t, c, toneWAV(t))
	if c.State() != Ready {
		t.Fatalf("state after load = %v, want ready", c.State())
	}
	if c.Session() == uuid.Nil {
		t.Error("no session id after load")
	}
	info, ok := c.Info()
	if !ok || info.Format != formats.WAV || info.SampleRate != 44100 || info.Channels != 2 {
		t.Errorf("Info() = %+v, %v", info, ok)
	}

	if err := c.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if !c.Active() {
		t.Fatal("not active after Start")
	}

	c.Tick(tick)
	played := c.Elapsed()
	if played.Round(time.Millisecond) != tick {
		t.Errorf("Elapsed() = %v after one tick, want %v", played, tick)
	}

	if err := c.Pause(); err != nil {
		t.Fatalf("Pause() error: %v", err)
	}
	c.Tick(time.Second)
	if c.Elapsed() != played {
		t.Errorf("paused clock moved from %v to %v", played, c.Elapsed())
	}

	if err := c.Resume(); err != nil {
		t.Fatalf("Resume() error: %v", err)
	}
	playToEnd(t, c)

	if c.State() != Idle {
		t.Errorf("state after end of stream = %v, want idle", c.State())
	}
	if _, ok := c.Info(); ok {
		t.Error("decoded audio retained after end of stream")
	}
	if c.Session() != uuid.Nil || c.Elapsed() != 0 {
		t.Error("session state retained after end of stream")
	}
}

func TestController_ResamplesToContextRate(t *testing.T) {
	t.Parallel()

	c, _ := newController(t, Options{})
	load(t, c, audiotest.ToneWAV(t, 22050, 1, 100*time.Millisecond, 220))

	info, _ := c.Info()
	if info.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", info.SampleRate)
	}
	if info.Frames < 4400-8 || info.Frames > 4410+8 {
		t.Errorf("Frames = %d, want about 4410", info.Frames)
	}
}

func TestController_StartOutsideReady(t *testing.T) {
	t.Parallel()

	setups := map[State]func(*Controller){
		Idle: func(*Controller) {},
		Playing: func(c *Controller) {
			load(t, c, toneWAV(t))
			_ = c.Start()
		},
		Paused: func(c *Controller) {
			load(t, c, toneWAV(t))
			_ = c.Start()
			_ = c.Pause()
		},
	}

	for state, setup := range setups {
		c, _ := newController(t, Options{})
		setup(c)
		if c.State() != state {
			t.Fatalf("setup reached %v, want %v", c.State(), state)
		}

		err := c.Start()
		if !errors.Is(err, ErrNotReady) {
			t.Errorf("Start() from %v error = %v, want ErrNotReady", state, err)
		}
		var te *TransitionError
		if !errors.As(err, &te) || te.From != state || te.Op != "start" {
			t.Errorf("Start() from %v error = %#v", state, err)
		}
		if c.State() != state {
			t.Errorf("Start() changed state from %v to %v", state, c.State())
		}
	}
}

func TestController_PauseResumeTransitions(t *testing.T) {
	t.Parallel()

	c, _ := newController(t, Options{})

	if err := c.Pause(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Pause() from idle error = %v", err)
	}
	if err := c.Resume(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Resume() from idle error = %v", err)
	}

	load(t, c, toneWAV(t))
	if err := c.Pause(); !errors.Is(err, ErrInvalidTransition) || c.State() != Ready {
		t.Errorf("Pause() from ready error = %v, state %v", err, c.State())
	}

	_ = c.Start()
	if err := c.Resume(); !errors.Is(err, ErrInvalidTransition) || c.State() != Playing {
		t.Errorf("Resume() from playing error = %v, state %v", err, c.State())
	}

	_ = c.Pause()
	if err := c.Pause(); !errors.Is(err, ErrInvalidTransition) || c.State() != Paused {
		t.Errorf("Pause() from paused error = %v, state %v", err, c.State())
	}
}

func TestController_CleanupIsIdempotent(t *testing.T) {
	t.Parallel()

	c, _ := newController(t, Options{})
	load(t, c, toneWAV(t))
	_ = c.Start()

	c.Cleanup()
	if c.State() != Idle {
		t.Fatalf("state = %v after Cleanup", c.State())
	}
	c.Cleanup()
	if c.State() != Idle {
		t.Fatalf("state = %v after second Cleanup", c.State())
	}
	if _, ok := c.Info(); ok {
		t.Error("buffer retained after Cleanup")
	}
}

func TestController_InvalidBytesThenValid(t *testing.T) {
	t.Parallel()

	c, _ := newController(t, Options{})

	err := c.LoadFile(context.Background(), []byte("definitely not an audio file"))
	if !errors.Is(err, ErrDecode) || !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("LoadFile() error = %v, want decode error", err)
	}
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("error %T is not a *DecodeError", err)
	}
	if c.State() != Idle {
		t.Errorf("state after failed load = %v, want idle", c.State())
	}

	load(t, c, toneWAV(t))
	if c.State() != Ready {
		t.Errorf("state after valid load = %v, want ready", c.State())
	}
}

func TestController_LoadFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("corrupt stream")
	reg := registryWith("fail", audiotest.Decoder{Magic: []byte("FAIL"), Err: boom})

	tests := []struct {
		name   string
		data   []byte
		want   error
		format string
	}{
		{"empty", nil, ErrEmptyInput, ""},
		{"decoder error", []byte("FAIL and more"), boom, "fail"},
		{"truncated wav", toneWAV(t)[:20], ErrDecode, formats.WAV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, hook := newController(t, Options{Registry: reg})
			err := c.LoadFile(context.Background(), tt.data)
			if !errors.Is(err, ErrDecode) || !errors.Is(err, tt.want) {
				t.Fatalf("LoadFile() error = %v, want %v", err, tt.want)
			}
			var de *DecodeError
			if errors.As(err, &de) && de.Format != tt.format {
				t.Errorf("DecodeError.Format = %q, want %q", de.Format, tt.format)
			}
			if c.State() != Idle {
				t.Errorf("state = %v, want idle", c.State())
			}
			if !hasEntry(hook, logrus.WarnLevel, "load failed") {
				t.Error("failed load was not logged")
			}
		})
	}
}

func TestController_DecodeTimeout(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	t.Cleanup(func() { close(block) })

	reg := registryWith("slow", audiotest.Decoder{
		Magic: []byte("SLOW"),
		Block: block,
		NewSource: func() audio.Source {
			return audiotest.Silence(44100, 1, 10)
		},
	})
	c, _ := newController(t, Options{Registry: reg, DecodeTimeout: 20 * time.Millisecond})

	err := c.LoadFile(context.Background(), []byte("SLOW"))
	if !errors.Is(err, ErrDecodeTimeout) {
		t.Fatalf("LoadFile() error = %v, want ErrDecodeTimeout", err)
	}
	if c.State() != Idle {
		t.Errorf("state = %v, want idle", c.State())
	}
}

func TestController_ContextCanceled(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	t.Cleanup(func() { close(block) })

	reg := registryWith("slow", audiotest.Decoder{
		Magic: []byte("SLOW"),
		Block: block,
		NewSource: func() audio.Source {
			return audiotest.Silence(44100, 1, 10)
		},
	})
	c, _ := newController(t, Options{Registry: reg})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.LoadFile(ctx, []byte("SLOW")); !errors.Is(err, context.Canceled) {
		t.Fatalf("LoadFile() error = %v, want context.Canceled", err)
	}
	if c.State() != Idle {
		t.Errorf("state = %v, want idle", c.State())
	}
}

func TestController_SupersededLoad(t *testing.T) {
	t.Parallel()

	newSlow := func() (*Controller, chan struct{}) {
		block := make(chan struct{})
		reg := registryWith("slow", audiotest.Decoder{
			Magic: []byte("SLOW"),
			Block: block,
			NewSource: func() audio.Source {
				return audiotest.Sine(44100, 1, 4410, 440)
			},
		})
		c, _ := newController(t, Options{Registry: reg})
		return c, block
	}

	t.Run("by cleanup", func(t *testing.T) {
		t.Parallel()

		c, block := newSlow()
		errc := make(chan error, 1)
		go func() { errc <- c.LoadFile(context.Background(), []byte("SLOW")) }()

		waitState(t, c, Decoding)
		c.Cleanup()
		close(block)

		if err := <-errc; !errors.Is(err, ErrLoadCanceled) {
			t.Errorf("LoadFile() error = %v, want ErrLoadCanceled", err)
		}
		if c.State() != Idle {
			t.Errorf("state = %v, want idle", c.State())
		}
	})

	t.Run("by newer load", func(t *testing.T) {
		t.Parallel()

		c, block := newSlow()
		errc := make(chan error, 1)
		go func() { errc <- c.LoadFile(context.Background(), []byte("SLOW")) }()

		waitState(t, c, Decoding)
		load(t, c, toneWAV(t))
		session := c.Session()
		close(block)

		if err := <-errc; !errors.Is(err, ErrLoadCanceled) {
			t.Errorf("LoadFile() error = %v, want ErrLoadCanceled", err)
		}
		if c.State() != Ready || c.Session() != session {
			t.Errorf("stale load changed state to %v", c.State())
		}
		if info, _ := c.Info(); info.Format != formats.WAV {
			t.Errorf("Info().Format = %q, want wav", info.Format)
		}
	})
}

func TestController_StaleEndOfStream(t *testing.T) {
	t.Parallel()

	c, hook := newController(t, Options{})
	load(t, c, toneWAV(t))
	_ = c.Start()

	c.mtx.Lock()
	old := c.generation - 1
	c.mtx.Unlock()

	c.post(ended{generation: old})
	c.Tick(0)

	if c.State() != Playing {
		t.Errorf("stale event moved state to %v", c.State())
	}
	if !hasEntry(hook, logrus.DebugLevel, "ignoring stale end of stream") {
		t.Error("stale event was not logged")
	}
}

type failingSink struct {
	ClockSink
	attachErr error
	detachErr error
}

func (s *failingSink) Attach(v *Voice) error {
	if s.attachErr != nil {
		return s.attachErr
	}
	return s.ClockSink.Attach(v)
}

func (s *failingSink) Detach() error {
	_ = s.ClockSink.Detach()
	return s.detachErr
}

// liveSink keeps the attached voice so a test can read it the way a
// device callback would, outside Tick.
type liveSink struct {
	ClockSink
	voice *Voice
}

func (s *liveSink) Attach(v *Voice) error {
	s.voice = v
	return s.ClockSink.Attach(v)
}

func enteredState(hook *test.Hook, s State) bool {
	for _, e := range hook.AllEntries() {
		if e.Message == "state transition" && e.Data["to"] == s {
			return true
		}
	}
	return false
}

func TestController_PauseAfterStreamEnded(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		finish func(t *testing.T, v *Voice)
	}{
		{
			name: "end queued",
			finish: func(t *testing.T, v *Voice) {
				dst := make([]float32, v.buf.Frames()*v.Channels())
				if _, ok := v.Read(dst); ok {
					t.Error("voice still playing after reading every frame")
				}
			},
		},
		{
			name: "last frame read",
			finish: func(t *testing.T, v *Voice) {
				v.mtx.Lock()
				v.pos = v.buf.Frames()
				v.mtx.Unlock()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sink := &liveSink{}
			c, hook := newController(t, Options{Sink: sink})
			load(t, c, toneWAV(t))
			if err := c.Start(); err != nil {
				t.Fatalf("Start() error: %v", err)
			}

			tt.finish(t, sink.voice)

			err := c.Pause()
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Pause() error = %v, want ErrInvalidTransition", err)
			}
			if c.State() != Idle {
				t.Errorf("state = %v, want idle", c.State())
			}
			if !enteredState(hook, Stopped) {
				t.Error("finished stream did not pass through stopped")
			}
			if enteredState(hook, Paused) {
				t.Error("finished stream was paused")
			}
			if _, ok := c.Info(); ok {
				t.Error("audio retained after end of stream")
			}
		})
	}
}

func TestController_CleanupFailureIsLogged(t *testing.T) {
	t.Parallel()

	sink := &failingSink{detachErr: errors.New("device unplugged")}
	c, hook := newController(t, Options{Sink: sink})
	load(t, c, toneWAV(t))
	_ = c.Start()

	c.Cleanup()

	if c.State() != Idle {
		t.Errorf("state = %v, want idle", c.State())
	}

	var logged bool
	for _, e := range hook.AllEntries() {
		if e.Level != logrus.WarnLevel || e.Message != "cleanup failed" {
			continue
		}
		logged = true
		var ce *CleanupError
		err, _ := e.Data[logrus.ErrorKey].(error)
		if !errors.As(err, &ce) || ce.Resource != "sink" {
			t.Errorf("logged error = %v, want sink CleanupError", err)
		}
	}
	if !logged {
		t.Error("cleanup failure was not logged")
	}
}

func TestController_AttachFailureKeepsReady(t *testing.T) {
	t.Parallel()

	boom := errors.New("no device")
	c, _ := newController(t, Options{Sink: &failingSink{attachErr: boom}})
	load(t, c, toneWAV(t))

	if err := c.Start(); !errors.Is(err, boom) {
		t.Fatalf("Start() error = %v, want %v", err, boom)
	}
	if c.State() != Ready {
		t.Errorf("state = %v, want ready", c.State())
	}
}

type countingResetter struct{ n int }

func (r *countingResetter) Reset() { r.n++ }

func TestController_Restart(t *testing.T) {
	t.Parallel()

	c, _ := newController(t, Options{})
	a, b := &countingResetter{}, &countingResetter{}
	c.OnRestart(a, b)

	load(t, c, toneWAV(t))
	_ = c.Start()
	c.Restart()

	if c.State() != Idle {
		t.Errorf("state = %v, want idle", c.State())
	}
	if a.n != 1 || b.n != 1 {
		t.Errorf("resetters called %d/%d times, want 1/1", a.n, b.n)
	}
}

func TestController_FrameFollowsAudio(t *testing.T) {
	t.Parallel()

	c, _ := newController(t, Options{})
	frame := make([]uint8, c.BinCount())
	if n := c.ReadFrame(frame); n != c.BinCount() {
		t.Fatalf("ReadFrame() = %d, want %d", n, c.BinCount())
	}

	load(t, c, toneWAV(t))
	_ = c.Start()
	c.Tick(100 * time.Millisecond)

	c.ReadFrame(frame)
	var peak uint8
	for _, v := range frame {
		peak = max(peak, v)
	}
	if peak == 0 {
		t.Error("analyser saw no signal while playing")
	}
}

func TestState_String(t *testing.T) {
	t.Parallel()

	want := []string{"idle", "decoding", "ready", "playing", "paused", "stopped"}
	for i, w := range want {
		if got := State(i).String(); got != w {
			t.Errorf("State(%d).String() = %q, want %q", i, got, w)
		}
	}
	if got := State(42).String(); got != "unknown" {
		t.Errorf("State(42).String() = %q", got)
	}
}
