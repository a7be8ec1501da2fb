// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize = errors.New("dst size must be multiple of channels")
	// ErrUnknownFormat is returned when no decoder matches a format key or file extension.
	ErrUnknownFormat = errors.New("no decoder registered for format")
	// ErrInvalidChannelCount is returned for channel layouts below mono.
	ErrInvalidChannelCount = errors.New("channel count must be at least 1")
)
