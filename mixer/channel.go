// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/ik5/nativeaudio/effects"
	"github.com/ik5/nativeaudio/utils"
)

// reverbTail is how long a channel keeps rendering after its clip ends with
// reverb on.
const reverbTail = 2 * time.Second

type channel struct {
	chunk  *chunk
	clip   uuid.UUID
	cursor float64 // position in chunk frames
	loops  int     // extra passes left, -1 forever
	paused bool

	volume int
	pitch  float64

	angle    int
	distance int
	left     float32
	right    float32

	delay  *effects.MultiTapDelay
	reverb *effects.Reverb
	// frames of effect output still to render after the clip ended
	tail int

	buf []float32
}

func newChannel() *channel {
	return &channel{
		volume: MaxVolume,
		pitch:  1,
		left:   1,
		right:  1,
	}
}

func (c *channel) playing() bool { return c.chunk != nil }

func (c *channel) audible() bool {
	return !c.paused && (c.chunk != nil || c.tail > 0)
}

func (c *channel) start(ck *chunk, id uuid.UUID, loops int) {
	c.chunk = ck
	c.clip = id
	c.cursor = 0
	c.loops = max(loops, -1)
	c.paused = false
	c.tail = 0
}

// halt stops playback and silences the effects immediately.
func (c *channel) halt() {
	c.chunk = nil
	c.clip = uuid.Nil
	c.paused = false
	c.tail = 0

	if c.delay != nil {
		c.delay.Reset()
	}
	if c.reverb != nil {
		c.reverb.Reset()
	}
}

func (c *channel) scratch(n int) []float32 {
	if cap(c.buf) < n {
		c.buf = make([]float32, n)
	}
	c.buf = c.buf[:n]
	return c.buf
}

func (c *channel) tailFrames(rate int) int {
	var d time.Duration
	if c.delay != nil {
		d = c.delay.Tail()
	}
	if c.reverb != nil && c.reverb.Enabled() {
		d += reverbTail
	}
	d = min(d, effects.MaxDelay)

	return int(d.Seconds() * float64(rate))
}

// render writes the channel's next frames into buf and reports whether its
// clip ended during this block.
func (c *channel) render(buf []float32, rate int) bool {
	frames := len(buf) / OutputChannels

	pulled, ended := 0, false
	if c.chunk != nil {
		pulled, ended = c.pull(buf)
		if ended {
			c.tail = c.tailFrames(rate)
		}
	}
	clear(buf[pulled*OutputChannels:])
	if c.chunk == nil && pulled < frames {
		c.tail = max(c.tail-(frames-pulled), 0)
	}

	gain := float32(c.volume) / MaxVolume
	l, r := gain*c.left, gain*c.right
	for f := range pulled {
		buf[f*2] *= l
		buf[f*2+1] *= r
	}

	if c.delay != nil {
		c.delay.Process(buf)
	}
	if c.reverb != nil {
		c.reverb.Process(buf)
	}

	return ended
}

// pull copies clip frames into buf, following pitch and loops. It returns
// the number of frames written and whether the clip ran out.
func (c *channel) pull(buf []float32) (int, bool) {
	s := c.chunk.samples
	n := float64(c.chunk.frames)
	frames := len(buf) / OutputChannels

	for f := range frames {
		if c.cursor >= n {
			if c.loops == 0 {
				c.chunk = nil
				c.clip = uuid.Nil
				return f, true
			}
			if c.loops > 0 {
				c.loops--
			}
			c.cursor = math.Mod(c.cursor, n)
		}

		if c.cursor == math.Trunc(c.cursor) {
			i := int(c.cursor) * OutputChannels
			buf[f*2], buf[f*2+1] = s[i], s[i+1]
		} else {
			buf[f*2] = utils.SampleAt(s, OutputChannels, 0, c.cursor)
			buf[f*2+1] = utils.SampleAt(s, OutputChannels, 1, c.cursor)
		}
		c.cursor += c.pitch
	}

	return frames, false
}
