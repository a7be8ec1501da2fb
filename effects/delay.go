// SPDX-License-Identifier: EPL-2.0

package effects

import (
	"fmt"
	"time"
)

const (
	// MaxTaps is the number of tap slots per delay.
	MaxTaps = 16
	// MaxDelay is the longest delay a tap can hold.
	MaxDelay = 2 * time.Second
)

type tap struct {
	active bool
	frames int
	volume float32
}

// MultiTapDelay mixes up to MaxTaps delayed copies of its input back into
// the dry signal. There is no feedback: each tap is a single echo.
//
// Tap ids are slot indices, so an id freed by RemoveTap is handed out again
// by the next AddTap.
type MultiTapDelay struct {
	sampleRate int
	channels   int

	// history holds size frames of interleaved input
	history []float32
	size    int
	write   int

	taps   [MaxTaps]tap
	active int
}

// NewMultiTapDelay returns a delay with no taps and MaxDelay of history
// per channel.
func NewMultiTapDelay(sampleRate, channels int) (*MultiTapDelay, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRate, sampleRate)
	}
	if channels < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannels, channels)
	}

	// one extra frame so a tap at exactly MaxDelay still reads the past
	size := int(MaxDelay.Seconds()*float64(sampleRate)) + 1

	return &MultiTapDelay{
		sampleRate: sampleRate,
		channels:   channels,
		history:    make([]float32, size*channels),
		size:       size,
	}, nil
}

func (d *MultiTapDelay) toFrames(timeMs float32) int {
	if timeMs <= 0 {
		return 0
	}

	frames := int(float64(timeMs) * float64(d.sampleRate) / 1000)
	return min(frames, d.size-1)
}

// AddTap activates the first free slot with the given delay and gain and
// returns its id. Delays longer than MaxDelay are clamped.
func (d *MultiTapDelay) AddTap(timeMs, volume float32) (int, error) {
	for id := range d.taps {
		if d.taps[id].active {
			continue
		}

		d.taps[id] = tap{active: true, frames: d.toFrames(timeMs), volume: volume}
		d.active++

		return id, nil
	}

	return -1, ErrNoFreeTap
}

func (d *MultiTapDelay) lookup(id int) (*tap, error) {
	if id < 0 || id >= MaxTaps || !d.taps[id].active {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTap, id)
	}
	return &d.taps[id], nil
}

func (d *MultiTapDelay) RemoveTap(id int) error {
	if _, err := d.lookup(id); err != nil {
		return err
	}

	d.taps[id] = tap{}
	d.active--

	return nil
}

func (d *MultiTapDelay) SetTapVolume(id int, volume float32) error {
	t, err := d.lookup(id)
	if err != nil {
		return err
	}

	t.volume = volume
	return nil
}

func (d *MultiTapDelay) SetTapTime(id int, timeMs float32) error {
	t, err := d.lookup(id)
	if err != nil {
		return err
	}

	t.frames = d.toFrames(timeMs)
	return nil
}

// TapDelayFrames reports the delay of an active tap in frames.
func (d *MultiTapDelay) TapDelayFrames(id int) (int, error) {
	t, err := d.lookup(id)
	if err != nil {
		return 0, err
	}
	return t.frames, nil
}

// TapCount returns the number of active taps.
func (d *MultiTapDelay) TapCount() int { return d.active }

// Tail is how long the delay keeps sounding after its input stops.
func (d *MultiTapDelay) Tail() time.Duration {
	longest := 0
	for _, t := range d.taps {
		if t.active && t.volume != 0 {
			longest = max(longest, t.frames)
		}
	}

	return time.Duration(longest) * time.Second / time.Duration(d.sampleRate)
}

// Process runs the delay over interleaved frames in place. History is
// recorded even with no active taps so a new tap starts with real input.
func (d *MultiTapDelay) Process(buf []float32) {
	ch := d.channels
	frames := len(buf) / ch

	for f := range frames {
		base := f * ch
		hist := d.write * ch
		copy(d.history[hist:hist+ch], buf[base:base+ch])

		if d.active > 0 {
			for i := range d.taps {
				t := &d.taps[i]
				if !t.active || t.frames == 0 {
					continue
				}

				read := ((d.write + d.size - t.frames) % d.size) * ch
				for c := range ch {
					buf[base+c] += d.history[read+c] * t.volume
				}
			}
		}

		d.write++
		if d.write >= d.size {
			d.write = 0
		}
	}
}

// Reset clears the recorded history. Taps stay configured.
func (d *MultiTapDelay) Reset() {
	clear(d.history)
	d.write = 0
}
