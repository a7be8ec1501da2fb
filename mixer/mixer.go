// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/viterin/vek/vek32"

	"github.com/ik5/nativeaudio/audio"
	"github.com/ik5/nativeaudio/utils"
)

const (
	// OutputChannels is the interleaved layout of the mix: always stereo.
	OutputChannels = 2
	// MaxVolume is the top of the 0..128 volume scale.
	MaxVolume = 128

	DefaultSampleRate  = 44100
	DefaultMaxChannels = 1024
)

// Options configures a Mixer. Zero values select the defaults.
type Options struct {
	SampleRate  int
	MaxChannels int
	Registry    *audio.Registry
	Logger      *slog.Logger
}

// Mixer plays decoded clips on a fixed set of channels and mixes them into
// one stereo stream. It is an audio.Source that never ends: a backend pulls
// from it for as long as the device is open.
type Mixer struct {
	mu sync.Mutex

	rate     int
	registry *audio.Registry
	log      *slog.Logger

	chunks   map[uuid.UUID]*chunk
	channels []*channel

	master     int
	masterGain float32
	onFinished func(channel int)
}

// New creates a mixer with every channel idle. It fails with
// ErrInvalidOptions for a negative rate or channel count.
func New(opts Options) (*Mixer, error) {
	if opts.SampleRate == 0 {
		opts.SampleRate = DefaultSampleRate
	}
	if opts.MaxChannels == 0 {
		opts.MaxChannels = DefaultMaxChannels
	}
	if opts.SampleRate < 0 || opts.MaxChannels < 0 {
		return nil, fmt.Errorf("%w: rate %d, channels %d", ErrInvalidOptions, opts.SampleRate, opts.MaxChannels)
	}
	if opts.Registry == nil {
		opts.Registry = audio.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	m := &Mixer{
		rate:       opts.SampleRate,
		registry:   opts.Registry,
		log:        opts.Logger,
		chunks:     make(map[uuid.UUID]*chunk),
		channels:   make([]*channel, opts.MaxChannels),
		master:     MaxVolume,
		masterGain: 1,
	}
	for i := range m.channels {
		m.channels[i] = newChannel()
	}

	return m, nil
}

func (m *Mixer) SampleRate() int { return m.rate }
func (m *Mixer) Channels() int   { return OutputChannels }
func (m *Mixer) BufSize() int    { return 4096 }

// NumChannels is the number of playback channels, MaxChannels from Options.
func (m *Mixer) NumChannels() int { return len(m.channels) }

// Close halts every channel and frees all clips.
func (m *Mixer) Close() error {
	m.mu.Lock()
	for _, c := range m.channels {
		c.halt()
	}
	clear(m.chunks)
	m.mu.Unlock()

	return nil
}

// OnChannelFinished registers fn to run whenever a channel stops, either at
// the end of its clip or through Stop. fn runs without the mixer lock held,
// so it may call back into the Mixer. Pass nil to remove it.
func (m *Mixer) OnChannelFinished(fn func(channel int)) {
	m.mu.Lock()
	m.onFinished = fn
	m.mu.Unlock()
}

func (m *Mixer) notify(fn func(int), channels []int) {
	if fn == nil {
		return
	}
	for _, ch := range channels {
		fn(ch)
	}
}

// SetMasterVolume scales the whole mix on the 0..128 volume scale. A
// negative volume only queries. The previous volume is returned.
func (m *Mixer) SetMasterVolume(volume int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.master
	if volume >= 0 {
		m.master = min(volume, MaxVolume)
		m.masterGain = float32(m.master) / MaxVolume
	}

	return prev
}

// ReadSamples mixes the next len(dst)/2 stereo frames. It always fills dst
// and never returns io.EOF.
func (m *Mixer) ReadSamples(dst []float32) (int, error) {
	if len(dst)%OutputChannels != 0 {
		return 0, audio.ErrInvalidDstSize
	}

	m.mu.Lock()
	clear(dst)

	var done []int
	for i, c := range m.channels {
		if !c.audible() {
			continue
		}

		buf := c.scratch(len(dst))
		if c.render(buf, m.rate) {
			done = append(done, i)
		}
		vek32.Add_Inplace(dst, buf)
	}

	if m.masterGain != 1 {
		vek32.MulNumber_Inplace(dst, m.masterGain)
	}
	for i, v := range dst {
		dst[i] = utils.Clamp(v, -1, 1)
	}

	fn := m.onFinished
	m.mu.Unlock()

	m.notify(fn, done)

	return len(dst), nil
}
