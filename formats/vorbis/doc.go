// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis streams with
// github.com/jfreymuth/oggvorbis.
//
// The decoder reads the identification header eagerly, so Decode fails
// fast on truncated or non-Vorbis Ogg streams. Samples are produced as
// interleaved float32 at the stream's native channel count.
package vorbis
