// SPDX-License-Identifier: EPL-2.0

package effects

import "errors"

var (
	// ErrNoFreeTap is returned by AddTap once every tap slot is in use.
	ErrNoFreeTap = errors.New("no free delay tap slot")
	// ErrInvalidTap is returned for a tap id that is out of range or inactive.
	ErrInvalidTap  = errors.New("invalid delay tap")
	ErrInvalidRate = errors.New("sample rate must be > 0")
	// ErrInvalidChannels is returned for a channel count below mono.
	ErrInvalidChannels = errors.New("channel count must be at least 1")
)
