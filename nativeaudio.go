// SPDX-License-Identifier: EPL-2.0

package nativeaudio

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ik5/nativeaudio/audio"
	"github.com/ik5/nativeaudio/backend"
	"github.com/ik5/nativeaudio/config"
	"github.com/ik5/nativeaudio/formats/aiff"
	"github.com/ik5/nativeaudio/formats/mp3"
	"github.com/ik5/nativeaudio/formats/vorbis"
	"github.com/ik5/nativeaudio/formats/wav"
	"github.com/ik5/nativeaudio/mixer"
)

type options struct {
	log        *slog.Logger
	registry   *audio.Registry
	backend    backend.Backend
	backendSet bool
}

// Option configures Init.
type Option func(*options)

// WithLogger sets the logger for the system and its mixer. The default is
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithRegistry replaces the decoders returned by DefaultRegistry.
func WithRegistry(r *audio.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithBackend uses b instead of the backend named in the config. A nil b
// runs the system offline, driven only by Render.
func WithBackend(b backend.Backend) Option {
	return func(o *options) {
		o.backend = b
		o.backendSet = true
	}
}

// DefaultRegistry knows every format under formats/, keyed by file
// extension.
func DefaultRegistry() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register("wav", wav.Decoder{})
	reg.Register("wave", wav.Decoder{})
	reg.Register("mp3", mp3.Decoder{})
	reg.Register("ogg", vorbis.Decoder{})
	reg.Register("oga", vorbis.Decoder{})
	reg.Register("aiff", aiff.Decoder{})
	reg.Register("aif", aiff.Decoder{})

	return reg
}

// System owns the mixer, the output backend and the sources created on it.
type System struct {
	mixer   *mixer.Mixer
	backend backend.Backend
	log     *slog.Logger

	mu       sync.Mutex
	sources  []*AudioSource
	finished func(*AudioSource)
	closed   bool
}

// Init opens the audio system described by cfg and starts its backend.
func Init(cfg config.Config, opts ...Option) (*System, error) {
	o := options{log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = DefaultRegistry()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m, err := mixer.New(mixer.Options{
		SampleRate:  cfg.SampleRate,
		MaxChannels: cfg.MaxChannels,
		Registry:    o.registry,
		Logger:      o.log,
	})
	if err != nil {
		return nil, fmt.Errorf("creating mixer: %w", err)
	}
	m.SetMasterVolume(cfg.MasterVolume)

	b := o.backend
	if !o.backendSet {
		if b, err = backend.Open(cfg, mixer.OutputChannels, o.log); err != nil {
			return nil, fmt.Errorf("opening backend: %w", err)
		}
	}

	s := &System{mixer: m, backend: b, log: o.log}
	m.OnChannelFinished(s.channelFinished)

	name := "offline"
	if b != nil {
		if err := b.Start(m); err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("starting %s backend: %w", b.Name(), err)
		}
		name = b.Name()
	}

	o.log.Info("audio initialized",
		"backend", name,
		"sample_rate", cfg.SampleRate,
		"channels", cfg.MaxChannels,
	)

	return s, nil
}

// Mixer exposes the underlying mixer for calls the binding does not wrap.
func (s *System) Mixer() *mixer.Mixer { return s.mixer }

func (s *System) SampleRate() int { return s.mixer.SampleRate() }

// Backend names the output in use, "offline" when there is none.
func (s *System) Backend() string {
	if s.backend == nil {
		return "offline"
	}
	return s.backend.Name()
}

// OnFinished registers fn to run when a source stops playing, either at
// the end of its clip or through Stop.
func (s *System) OnFinished(fn func(*AudioSource)) {
	s.mu.Lock()
	s.finished = fn
	s.mu.Unlock()
}

func (s *System) channelFinished(ch int) {
	s.mu.Lock()
	fn := s.finished
	var src *AudioSource
	if ch < len(s.sources) {
		src = s.sources[ch]
	}
	s.mu.Unlock()

	if fn != nil && src != nil {
		fn(src)
	}
}

// Sources lists the sources in channel order.
func (s *System) Sources() []*AudioSource {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*AudioSource(nil), s.sources...)
}

// Render mixes d worth of stereo output without a device. It is only
// available when the system runs offline and has not been closed.
func (s *System) Render(d time.Duration) ([]float32, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	if s.backend != nil {
		return nil, fmt.Errorf("%w: %s is running", ErrBackendRunning, s.backend.Name())
	}

	frames := int(d.Seconds() * float64(s.mixer.SampleRate()))
	buf := make([]float32, max(frames, 0)*mixer.OutputChannels)
	if _, err := s.mixer.ReadSamples(buf); err != nil {
		return nil, fmt.Errorf("rendering: %w", err)
	}

	return buf, nil
}

// Close stops the backend and releases every clip.
func (s *System) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	var err error
	if s.backend != nil {
		if err = s.backend.Close(); err != nil {
			err = fmt.Errorf("closing %s backend: %w", s.backend.Name(), err)
		}
	}
	if cerr := s.mixer.Close(); cerr != nil && err == nil {
		err = cerr
	}

	s.log.Debug("audio closed")

	return err
}

func (s *System) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}
