// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF and AIFF-C integer PCM (16, 24 and 32-bit) with
// github.com/go-audio/aiff.
//
// Like the WAV decoder it needs an io.ReadSeeker; other readers are
// buffered in memory before decoding.
package aiff
