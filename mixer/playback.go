// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// channel returns the slot for ch. The caller holds m.mu.
func (m *Mixer) channel(ch int) (*channel, error) {
	if ch < 0 || ch >= len(m.channels) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannel, ch)
	}
	return m.channels[ch], nil
}

// each runs fn on ch, or on every channel when ch is -1.
func (m *Mixer) each(ch int, fn func(i int, c *channel)) error {
	if ch == -1 {
		for i, c := range m.channels {
			fn(i, c)
		}
		return nil
	}

	c, err := m.channel(ch)
	if err != nil {
		return err
	}
	fn(ch, c)

	return nil
}

func (m *Mixer) freeChannel() int {
	for i, c := range m.channels {
		if !c.playing() {
			return i
		}
	}
	return -1
}

// Play plays clip id once on channel ch. A channel of -1 picks the first
// free channel. The channel used is returned.
func (m *Mixer) Play(ch int, id uuid.UUID) (int, error) {
	return m.PlayLoop(ch, id, 0)
}

// PlayLoop plays clip id loops+1 times on channel ch; loops of -1 repeats
// until stopped. A channel already playing is cut off and reported as
// finished before the new clip starts.
func (m *Mixer) PlayLoop(ch int, id uuid.UUID, loops int) (int, error) {
	m.mu.Lock()

	ck, ok := m.chunks[id]
	if !ok {
		m.mu.Unlock()
		return -1, fmt.Errorf("%w: %s", ErrUnknownClip, id)
	}

	if ch == -1 {
		if ch = m.freeChannel(); ch < 0 {
			m.mu.Unlock()
			m.log.Warn("all mixer channels busy", "channels", len(m.channels))
			return -1, ErrNoFreeChannel
		}
	}

	c, err := m.channel(ch)
	if err != nil {
		m.mu.Unlock()
		return -1, err
	}

	var replaced []int
	if c.playing() {
		replaced = append(replaced, ch)
	}
	c.start(ck, id, loops)

	fn := m.onFinished
	m.mu.Unlock()

	m.notify(fn, replaced)

	return ch, nil
}

// Stop halts ch, or every channel for -1. Effect tails are cut and the
// finished callback runs for each channel that was playing.
func (m *Mixer) Stop(ch int) error {
	m.mu.Lock()

	var stopped []int
	err := m.each(ch, func(i int, c *channel) {
		if c.playing() {
			stopped = append(stopped, i)
		}
		c.halt()
	})

	fn := m.onFinished
	m.mu.Unlock()

	m.notify(fn, stopped)

	return err
}

// Pause freezes ch, or every channel for -1, including any effect tail.
func (m *Mixer) Pause(ch int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.each(ch, func(_ int, c *channel) {
		if c.playing() || c.tail > 0 {
			c.paused = true
		}
	})
}

func (m *Mixer) Resume(ch int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.each(ch, func(_ int, c *channel) { c.paused = false })
}

// Playing reports whether ch has a clip loaded, paused or not.
func (m *Mixer) Playing(ch int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.channel(ch)
	if err != nil {
		return false, err
	}
	return c.playing(), nil
}

func (m *Mixer) Paused(ch int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.channel(ch)
	if err != nil {
		return false, err
	}
	return c.paused, nil
}

// Active counts channels with a clip loaded.
func (m *Mixer) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.channels {
		if c.playing() {
			n++
		}
	}
	return n
}

// SetVolume sets the volume of ch on the 0..128 scale and returns the
// previous one. A negative volume only queries. Channel -1 sets every
// channel and returns their average previous volume.
func (m *Mixer) SetVolume(ch, volume int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sum, count := 0, 0
	err := m.each(ch, func(_ int, c *channel) {
		sum += c.volume
		count++
		if volume >= 0 {
			c.volume = min(volume, MaxVolume)
		}
	})
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}

	return sum / count, nil
}

// SetPitch changes the playback speed of ch; 1 is normal, 2 an octave up.
func (m *Mixer) SetPitch(ch int, pitch float64) error {
	if pitch <= 0 || math.IsNaN(pitch) || math.IsInf(pitch, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidPitch, pitch)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.each(ch, func(_ int, c *channel) { c.pitch = pitch })
}

// Pitch returns the playback speed of ch.
func (m *Mixer) Pitch(ch int) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.channel(ch)
	if err != nil {
		return 0, err
	}
	return c.pitch, nil
}

// SetPosition places ch around the listener. angle is in degrees with 0
// straight ahead and 90 to the right; distance runs from 0 (nearest) to 255
// (farthest). Angle 0 at distance 0 removes the effect.
func (m *Mixer) SetPosition(ch, angle, distance int) error {
	angle %= 360
	if angle < 0 {
		angle += 360
	}
	distance = min(max(distance, 0), 255)
	left, right := positionGains(angle, distance)

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.each(ch, func(_ int, c *channel) {
		c.angle, c.distance = angle, distance
		c.left, c.right = left, right
	})
}

// Position returns the angle and distance last set on ch.
func (m *Mixer) Position(ch int) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.channel(ch)
	if err != nil {
		return 0, 0, err
	}
	return c.angle, c.distance, nil
}
