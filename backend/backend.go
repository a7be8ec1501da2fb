// SPDX-License-Identifier: EPL-2.0

// Package backend connects a mixed audio stream to an output.
package backend

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ik5/nativeaudio/audio"
	"github.com/ik5/nativeaudio/backend/null"
	"github.com/ik5/nativeaudio/backend/oto"
	"github.com/ik5/nativeaudio/config"
)

// Backend pulls from an audio.Source on its own goroutine until closed.
type Backend interface {
	Start(src audio.Source) error
	Close() error
	Name() string
}

var (
	_ Backend = (*null.Sink)(nil)
	_ Backend = (*oto.Device)(nil)
)

var ErrUnknownBackend = errors.New("unknown audio backend")

// Open returns the backend named by cfg.Backend for a stereo stream at
// cfg.SampleRate. "auto" tries the system device and falls back to the null
// sink when there is none. "offline" has no backend and returns nil.
func Open(cfg config.Config, channels int, log *slog.Logger) (Backend, error) {
	if log == nil {
		log = slog.Default()
	}

	switch strings.ToLower(cfg.Backend) {
	case config.BackendOto:
		dev, err := oto.New(cfg.SampleRate, channels, cfg.BufferFrames)
		if err != nil {
			return nil, err
		}
		return dev, nil
	case config.BackendNull:
		return null.New(cfg.SampleRate, cfg.BufferFrames), nil
	case config.BackendOffline:
		return nil, nil
	case config.BackendAuto, "":
		dev, err := oto.New(cfg.SampleRate, channels, cfg.BufferFrames)
		if err == nil {
			return dev, nil
		}
		log.Warn("no audio device, using null backend", "err", err)
		return null.New(cfg.SampleRate, cfg.BufferFrames), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
}
