// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"

	"github.com/ik5/nativeaudio/effects"
)

func (c *channel) delayNode(rate int) (*effects.MultiTapDelay, error) {
	if c.delay == nil {
		d, err := effects.NewMultiTapDelay(rate, OutputChannels)
		if err != nil {
			return nil, err
		}
		c.delay = d
	}
	return c.delay, nil
}

func (c *channel) reverbNode(rate int) (*effects.Reverb, error) {
	if c.reverb == nil {
		r, err := effects.NewReverb(rate, OutputChannels)
		if err != nil {
			return nil, err
		}
		c.reverb = r
	}
	return c.reverb, nil
}

// tapOp runs fn on the delay of ch. A channel that never had a tap added
// has no valid tap ids.
func (m *Mixer) tapOp(ch, id int, fn func(d *effects.MultiTapDelay) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.channel(ch)
	if err != nil {
		return err
	}
	if c.delay == nil {
		return fmt.Errorf("%w: %d", effects.ErrInvalidTap, id)
	}

	return fn(c.delay)
}

// AddTap adds an echo timeMs after the dry signal of ch at the given
// volume and returns the tap id. Each channel holds up to effects.MaxTaps.
func (m *Mixer) AddTap(ch int, timeMs, volume float32) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.channel(ch)
	if err != nil {
		return -1, err
	}

	d, err := c.delayNode(m.rate)
	if err != nil {
		return -1, fmt.Errorf("creating delay: %w", err)
	}

	return d.AddTap(timeMs, volume)
}

func (m *Mixer) RemoveTap(ch, id int) error {
	return m.tapOp(ch, id, func(d *effects.MultiTapDelay) error { return d.RemoveTap(id) })
}

func (m *Mixer) SetTapVolume(ch, id int, volume float32) error {
	return m.tapOp(ch, id, func(d *effects.MultiTapDelay) error { return d.SetTapVolume(id, volume) })
}

func (m *Mixer) SetTapTime(ch, id int, timeMs float32) error {
	return m.tapOp(ch, id, func(d *effects.MultiTapDelay) error { return d.SetTapTime(id, timeMs) })
}

// reverbOp runs fn on the reverb of ch, creating it on first use.
func (m *Mixer) reverbOp(ch int, fn func(r *effects.Reverb)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.channel(ch)
	if err != nil {
		return err
	}

	r, err := c.reverbNode(m.rate)
	if err != nil {
		return fmt.Errorf("creating reverb: %w", err)
	}
	fn(r)

	return nil
}

func (m *Mixer) EnableReverb(ch int, on bool) error {
	return m.reverbOp(ch, func(r *effects.Reverb) { r.SetEnabled(on) })
}

func (m *Mixer) SetReverbRoomSize(ch int, size float32) error {
	return m.reverbOp(ch, func(r *effects.Reverb) { r.SetRoomSize(size) })
}

func (m *Mixer) SetReverbDamping(ch int, damp float32) error {
	return m.reverbOp(ch, func(r *effects.Reverb) { r.SetDamping(damp) })
}

func (m *Mixer) SetReverbWet(ch int, wet float32) error {
	return m.reverbOp(ch, func(r *effects.Reverb) { r.SetWet(wet) })
}

func (m *Mixer) SetReverbDry(ch int, dry float32) error {
	return m.reverbOp(ch, func(r *effects.Reverb) { r.SetDry(dry) })
}
