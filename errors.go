// SPDX-License-Identifier: EPL-2.0

package nativeaudio

import "errors"

var (
	// ErrClosed is returned by a System after Close.
	ErrClosed = errors.New("audio system closed")
	// ErrChannelLimit is returned when every mixer channel already has a source.
	ErrChannelLimit = errors.New("no mixer channels left for a new source")
	// ErrForeignClip is returned when a clip from another System is used.
	ErrForeignClip = errors.New("clip belongs to another audio system")
	// ErrBackendRunning is returned by Render while a device backend pulls
	// from the mixer.
	ErrBackendRunning = errors.New("render needs the offline backend")
)
