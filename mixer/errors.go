// SPDX-License-Identifier: EPL-2.0

package mixer

import "errors"

var (
	// ErrInvalidChannel is returned for a channel index outside [0, MaxChannels).
	ErrInvalidChannel = errors.New("invalid mixer channel")
	// ErrNoFreeChannel is returned when channel -1 is requested and every channel is busy.
	ErrNoFreeChannel = errors.New("no free mixer channel")
	ErrUnknownClip   = errors.New("unknown clip")
	// ErrEmptyClip is returned when a decoded clip has no frames.
	ErrEmptyClip = errors.New("clip has no audio frames")
	// ErrInvalidPitch is returned for a pitch that is not a positive finite number.
	ErrInvalidPitch = errors.New("pitch must be > 0")
	// ErrUnsupportedFormat is returned when no decoder is registered for a clip.
	ErrUnsupportedFormat = errors.New("unsupported clip format")
	ErrInvalidOptions    = errors.New("invalid mixer options")
)
