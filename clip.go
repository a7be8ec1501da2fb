// SPDX-License-Identifier: EPL-2.0

package nativeaudio

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Clip is a decoded sound held by the mixer. It is immutable; any number
// of sources can play it.
type Clip struct {
	sys      *System
	id       uuid.UUID
	path     string
	duration time.Duration
}

// NewClip loads the file at path, choosing the decoder by extension.
func (s *System) NewClip(path string) (*Clip, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}

	id, err := s.mixer.Load(path)
	if err != nil {
		return nil, err
	}

	return s.newClip(id, path)
}

// NewClipFromReader decodes r as format, e.g. "wav" or "ogg".
func (s *System) NewClipFromReader(format string, r io.Reader) (*Clip, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}

	id, err := s.mixer.LoadReader(format, r)
	if err != nil {
		return nil, err
	}

	return s.newClip(id, "")
}

func (s *System) newClip(id uuid.UUID, path string) (*Clip, error) {
	d, err := s.mixer.Duration(id)
	if err != nil {
		return nil, fmt.Errorf("clip duration: %w", err)
	}

	return &Clip{sys: s, id: id, path: path, duration: d}, nil
}

func (c *Clip) ID() uuid.UUID { return c.id }

// Path is the file the clip was loaded from, empty for reader clips.
func (c *Clip) Path() string { return c.path }

func (c *Clip) Duration() time.Duration { return c.duration }

// Close frees the clip. Sources still playing it are stopped.
func (c *Clip) Close() error {
	return c.sys.mixer.Unload(c.id)
}
