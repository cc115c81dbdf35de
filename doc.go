// SPDX-License-Identifier: EPL-2.0

// Package audiovis drives an audio-reactive particle visualiser without
// rendering anything itself.
//
// An Engine loads an audio file, plays it through a sink and, on every
// tick, turns the live spectrum into features, a particle field and a set
// of shader parameters that a renderer can draw.
//
// # Supported Formats
//
// Files are recognised by content, not by name:
//   - WAV (PCM 16/24/32-bit) via formats/wav
//   - AIFF (PCM 16/24/32-bit) via formats/aiff
//   - Ogg Vorbis via formats/vorbis
//   - MP3 via formats/mp3
//
// Everything is resampled to Config.SampleRate on load.
//
// # Quick Start
//
//	eng, err := audiovis.New(audiovis.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer eng.Cleanup()
//
//	if err := eng.LoadFile(ctx, data); err != nil {
//		return err
//	}
//	if err := eng.Start(); err != nil {
//		return err
//	}
//
//	for range time.Tick(frame) {
//		snap := eng.Tick(frame)
//		if !snap.Active {
//			break
//		}
//		draw(snap.Groups, snap.Uniforms)
//	}
//
// # Per-tick Pipeline
//
//  1. playback.Controller advances the sink and handles end of stream
//  2. analyser.Analyser produces a byte frequency frame
//  3. features.Extractor computes band levels and records the spectrogram
//  4. particles.Simulator and uniforms.Bridge consume the normalized features
//
// By default playback is clocked by Tick (playback.ClockSink). To hear the
// audio, pass output.NewSpeaker through WithSink.
//
// # Lifecycle
//
// The controller moves through Idle, Decoding, Ready, Playing, Paused and
// Stopped. Natural end of stream goes Playing to Stopped and straight on
// to Idle, releasing the decoded audio. Restart does the same and also
// resets the particles, the shader parameters and the spectrogram.
package audiovis
