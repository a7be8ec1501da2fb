// SPDX-License-Identifier: EPL-2.0

package nativeaudio

import (
	"fmt"
	"slices"

	"github.com/ik5/nativeaudio/effects"
)

// DelayTap is one echo on an AudioSource. Volume and Time return the last
// values the mixer accepted.
type DelayTap struct {
	src    *AudioSource
	id     int
	volume float32
	timeMs float32

	removed bool // guarded by src.mu
}

// ID is the mixer's slot for the tap; ids of removed taps are reused.
func (t *DelayTap) ID() int { return t.id }

func (t *DelayTap) Volume() float32 {
	t.src.mu.Lock()
	defer t.src.mu.Unlock()

	return t.volume
}

// Time is the delay in milliseconds.
func (t *DelayTap) Time() float32 {
	t.src.mu.Lock()
	defer t.src.mu.Unlock()

	return t.timeMs
}

func (t *DelayTap) SetVolume(volume float32) error {
	t.src.mu.Lock()
	defer t.src.mu.Unlock()

	if t.removed {
		return fmt.Errorf("%w: %d was removed", effects.ErrInvalidTap, t.id)
	}
	if err := t.src.sys.mixer.SetTapVolume(t.src.channel, t.id, volume); err != nil {
		return err
	}
	t.volume = volume

	return nil
}

func (t *DelayTap) SetTime(timeMs float32) error {
	t.src.mu.Lock()
	defer t.src.mu.Unlock()

	if t.removed {
		return fmt.Errorf("%w: %d was removed", effects.ErrInvalidTap, t.id)
	}
	if err := t.src.sys.mixer.SetTapTime(t.src.channel, t.id, timeMs); err != nil {
		return err
	}
	t.timeMs = timeMs

	return nil
}

// Remove deletes the tap from the mixer and from its source's list. The
// slot may go to a later tap, so a removed DelayTap stays dead.
func (t *DelayTap) Remove() error {
	t.src.mu.Lock()
	defer t.src.mu.Unlock()

	if t.removed {
		return fmt.Errorf("%w: %d was removed", effects.ErrInvalidTap, t.id)
	}
	if err := t.src.sys.mixer.RemoveTap(t.src.channel, t.id); err != nil {
		return err
	}
	t.removed = true
	t.src.taps = slices.DeleteFunc(t.src.taps, func(o *DelayTap) bool { return o == t })

	return nil
}
