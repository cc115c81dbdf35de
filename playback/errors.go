// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"errors"
	"fmt"
)

var (
	ErrDecode            = errors.New("audio decode failed")
	ErrUnsupportedFormat = errors.New("unrecognised audio format")
	ErrEmptyInput        = errors.New("no audio data")
	ErrDecodeTimeout     = errors.New("audio decode timed out")
	ErrLoadCanceled      = errors.New("load superseded by a newer request")

	ErrNotReady          = errors.New("no decoded audio ready to start")
	ErrInvalidTransition = errors.New("invalid state transition")
)

// DecodeError is returned by LoadFile when the bytes cannot be turned
// into audio. It matches ErrDecode as well as the underlying cause.
type DecodeError struct {
	Format string // empty when the format was not recognised
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("decoding audio: %v", e.Err)
	}
	return fmt.Sprintf("decoding %s audio: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }

// TransitionError reports an operation that is not allowed in the current
// state. The state is left unchanged.
type TransitionError struct {
	Op   string
	From State
	Err  error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s while %s: %v", e.Op, e.From, e.Err)
}

func (e *TransitionError) Unwrap() error { return e.Err }

// CleanupError describes a resource that failed to release. Cleanup logs
// these and carries on.
type CleanupError struct {
	Resource string
	Err      error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("releasing %s: %v", e.Resource, e.Err)
}

func (e *CleanupError) Unwrap() error { return e.Err }
