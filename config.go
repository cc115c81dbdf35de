// SPDX-License-Identifier: EPL-2.0

package audiovis

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ik5/audiovis/analyser"
	"github.com/ik5/audiovis/features"
	"github.com/ik5/audiovis/particles"
	"github.com/ik5/audiovis/playback"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds every tunable of an Engine.
type Config struct {
	SampleRate         int
	FFTSize            int
	Smoothing          float64
	MinDecibels        float64
	MaxDecibels        float64
	HistoryCapacity    int
	ParticleCount      int
	BoundaryRadius     float64
	RecycleScale       float64
	RecycleProbability float64
	DecodeTimeout      time.Duration
	LogLevel           string
}

func DefaultConfig() Config {
	return Config{
		SampleRate:         playback.DefaultSampleRate,
		FFTSize:            analyser.DefaultFFTSize,
		Smoothing:          analyser.DefaultSmoothing,
		MinDecibels:        analyser.DefaultMinDecibels,
		MaxDecibels:        analyser.DefaultMaxDecibels,
		HistoryCapacity:    features.DefaultHistoryCapacity,
		ParticleCount:      particles.DefaultCount,
		BoundaryRadius:     particles.DefaultBoundaryRadius,
		RecycleScale:       particles.DefaultRecycleScale,
		RecycleProbability: particles.DefaultRecycleProbability,
		DecodeTimeout:      playback.DefaultDecodeTimeout,
		LogLevel:           logrus.InfoLevel.String(),
	}
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, c.SampleRate)
	case c.FFTSize < 32 || c.FFTSize > 32768 || c.FFTSize&(c.FFTSize-1) != 0:
		return fmt.Errorf("%w: fft size %d", ErrInvalidConfig, c.FFTSize)
	case c.Smoothing < 0 || c.Smoothing > 1:
		return fmt.Errorf("%w: smoothing %v", ErrInvalidConfig, c.Smoothing)
	case c.MinDecibels >= c.MaxDecibels:
		return fmt.Errorf("%w: decibel range %v..%v", ErrInvalidConfig, c.MinDecibels, c.MaxDecibels)
	case c.HistoryCapacity <= 0:
		return fmt.Errorf("%w: history capacity %d", ErrInvalidConfig, c.HistoryCapacity)
	case c.ParticleCount <= 0:
		return fmt.Errorf("%w: particle count %d", ErrInvalidConfig, c.ParticleCount)
	case c.BoundaryRadius <= 0:
		return fmt.Errorf("%w: boundary radius %v", ErrInvalidConfig, c.BoundaryRadius)
	case c.RecycleScale <= 0 || c.RecycleScale > 1:
		return fmt.Errorf("%w: recycle scale %v", ErrInvalidConfig, c.RecycleScale)
	case c.RecycleProbability <= 0 || c.RecycleProbability > 1:
		return fmt.Errorf("%w: recycle probability %v", ErrInvalidConfig, c.RecycleProbability)
	case c.DecodeTimeout <= 0:
		return fmt.Errorf("%w: decode timeout %v", ErrInvalidConfig, c.DecodeTimeout)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ConfigFromEnv starts from DefaultConfig and overrides fields from
// AUDIOVIS_* variables. Unset or empty variables keep the default.
func ConfigFromEnv() (Config, error) {
	c := DefaultConfig()

	vars := []struct {
		key   string
		parse func(string) error
	}{
		{"AUDIOVIS_SAMPLE_RATE", intVar(&c.SampleRate)},
		{"AUDIOVIS_FFT_SIZE", intVar(&c.FFTSize)},
		{"AUDIOVIS_SMOOTHING", floatVar(&c.Smoothing)},
		{"AUDIOVIS_MIN_DECIBELS", floatVar(&c.MinDecibels)},
		{"AUDIOVIS_MAX_DECIBELS", floatVar(&c.MaxDecibels)},
		{"AUDIOVIS_HISTORY_CAPACITY", intVar(&c.HistoryCapacity)},
		{"AUDIOVIS_PARTICLE_COUNT", intVar(&c.ParticleCount)},
		{"AUDIOVIS_BOUNDARY_RADIUS", floatVar(&c.BoundaryRadius)},
		{"AUDIOVIS_RECYCLE_SCALE", floatVar(&c.RecycleScale)},
		{"AUDIOVIS_RECYCLE_PROBABILITY", floatVar(&c.RecycleProbability)},
		{"AUDIOVIS_DECODE_TIMEOUT", durationVar(&c.DecodeTimeout)},
		{"AUDIOVIS_LOG_LEVEL", func(s string) error { c.LogLevel = s; return nil }},
	}

	for _, v := range vars {
		raw := os.Getenv(v.key)
		if raw == "" {
			continue
		}
		if err := v.parse(raw); err != nil {
			return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, v.key, err)
		}
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func intVar(dst *int) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func floatVar(dst *float64) func(string) error {
	return func(s string) error {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*dst = f
		return nil
	}
}

func durationVar(dst *time.Duration) func(string) error {
	return func(s string) error {
		d, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}
