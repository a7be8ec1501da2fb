// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ik5/nativeaudio/audio"
)

// chunk is a clip decoded into the mixer's rate and stereo layout.
type chunk struct {
	samples []float32
	frames  int
}

// Load decodes the file at path with the decoder registered for its
// extension.
func (m *Mixer) Load(path string) (uuid.UUID, error) {
	dec, format, err := m.registry.Lookup(path)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q: %w", ErrUnsupportedFormat, format, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return uuid.Nil, fmt.Errorf("opening clip: %w", err)
	}
	defer f.Close()

	id, err := m.decode(dec, f)
	if err != nil {
		return uuid.Nil, fmt.Errorf("loading %s: %w", path, err)
	}

	m.log.Debug("clip loaded", "id", id, "path", path, "format", format)

	return id, nil
}

// LoadReader decodes r with the decoder registered for format.
func (m *Mixer) LoadReader(format string, r io.Reader) (uuid.UUID, error) {
	dec, ok := m.registry.Get(format)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	return m.decode(dec, r)
}

func (m *Mixer) decode(dec audio.Decoder, r io.Reader) (uuid.UUID, error) {
	src, err := dec.Decode(r)
	if err != nil {
		return uuid.Nil, fmt.Errorf("decoding clip: %w", err)
	}
	defer src.Close()

	return m.LoadSource(src)
}

// LoadSource drains src into a new clip, converting it to the mixer's
// sample rate and to stereo. src is not closed.
func (m *Mixer) LoadSource(src audio.Source) (uuid.UUID, error) {
	stereo, err := audio.NewChannelMapper(audio.NewResampler(src, m.rate), OutputChannels)
	if err != nil {
		return uuid.Nil, fmt.Errorf("converting clip: %w", err)
	}

	samples, err := audio.ReadAll(stereo, 8192)
	if err != nil {
		return uuid.Nil, fmt.Errorf("reading clip: %w", err)
	}

	frames := len(samples) / OutputChannels
	if frames == 0 {
		return uuid.Nil, ErrEmptyClip
	}

	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("clip id: %w", err)
	}

	m.mu.Lock()
	m.chunks[id] = &chunk{samples: samples[:frames*OutputChannels], frames: frames}
	m.mu.Unlock()

	return id, nil
}

// Unload frees a clip. Channels still playing it are halted first.
func (m *Mixer) Unload(id uuid.UUID) error {
	m.mu.Lock()

	ck, ok := m.chunks[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownClip, id)
	}

	var halted []int
	for i, c := range m.channels {
		if c.chunk == ck {
			c.halt()
			halted = append(halted, i)
		}
	}
	delete(m.chunks, id)

	fn := m.onFinished
	m.mu.Unlock()

	m.notify(fn, halted)

	return nil
}

// Duration is the clip length at the mixer's sample rate.
func (m *Mixer) Duration(id uuid.UUID) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ck, ok := m.chunks[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownClip, id)
	}

	return time.Duration(ck.frames) * time.Second / time.Duration(m.rate), nil
}
