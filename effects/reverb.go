// SPDX-License-Identifier: EPL-2.0

package effects

import (
	"fmt"

	"github.com/ik5/nativeaudio/utils"
)

const (
	reverbNumCombs     = 4
	reverbNumAllpasses = 2
	// only the first two channels are reverberated, the rest pass through
	reverbChannels = 2

	defaultReverbRoomSize = 0.5
	defaultReverbFeedback = 0.7
	defaultReverbDamp     = 0.3
	defaultReverbAllpass  = 0.5
	defaultReverbWet      = 0.3
	defaultReverbDry      = 1.0
)

// Base delays in seconds. Comb lengths scale with room size at
// construction; allpass lengths are fixed.
var (
	reverbCombSeconds    = [reverbNumCombs]float64{0.0297, 0.0371, 0.0411, 0.0437}
	reverbAllpassSeconds = [reverbNumAllpasses]float64{0.005, 0.0017}
)

type reverbComb struct {
	line
	// low-passed feedback; higher damping makes highs decay faster
	damped float32
}

func (c *reverbComb) process(input, feedback, damp float32) float32 {
	output := c.read()
	c.damped = output*(1-damp) + c.damped*damp
	c.write(input + feedback*c.damped)
	return output
}

func allpassProcess(l *line, input, feedback float32) float32 {
	buffered := l.read()
	output := buffered - feedback*input
	l.write(input + feedback*buffered)
	return output
}

// Reverb is a Schroeder reverb: four parallel damped combs averaged into two
// series allpasses, per channel. It starts disabled and bypasses its input
// until enabled.
type Reverb struct {
	channels int
	enabled  bool

	roomSize float32
	feedback float32
	damp     float32
	allpass  float32
	wet      float32
	dry      float32

	combs     [reverbChannels][reverbNumCombs]reverbComb
	allpasses [reverbChannels][reverbNumAllpasses]line
}

// NewReverb returns a disabled reverb with the default room for
// interleaved audio at sampleRate.
func NewReverb(sampleRate, channels int) (*Reverb, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRate, sampleRate)
	}
	if channels < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannels, channels)
	}

	r := &Reverb{
		channels: channels,
		roomSize: defaultReverbRoomSize,
		feedback: defaultReverbFeedback,
		damp:     defaultReverbDamp,
		allpass:  defaultReverbAllpass,
		wet:      defaultReverbWet,
		dry:      defaultReverbDry,
	}

	rate := float64(sampleRate)
	for ch := range min(channels, reverbChannels) {
		for i, sec := range reverbCombSeconds {
			r.combs[ch][i].line = newLine(int(sec * defaultReverbRoomSize * 2 * rate))
		}
		for i, sec := range reverbAllpassSeconds {
			r.allpasses[ch][i] = newLine(int(sec * rate))
		}
	}

	return r, nil
}

func (r *Reverb) SetEnabled(on bool) { r.enabled = on }
func (r *Reverb) Enabled() bool      { return r.enabled }

// SetRoomSize maps size in [0, 1] onto comb feedback 0.6 to 0.95. Comb
// lengths keep the size they were built with.
func (r *Reverb) SetRoomSize(size float32) {
	r.roomSize = utils.Clamp(size, 0, 1)
	r.feedback = 0.6 + r.roomSize*0.35
}

func (r *Reverb) SetDamping(damp float32) { r.damp = utils.Clamp(damp, 0, 1) }
func (r *Reverb) SetWet(wet float32)      { r.wet = utils.Clamp(wet, 0, 1) }
func (r *Reverb) SetDry(dry float32)      { r.dry = utils.Clamp(dry, 0, 1) }

func (r *Reverb) RoomSize() float32 { return r.roomSize }
func (r *Reverb) Feedback() float32 { return r.feedback }
func (r *Reverb) Damping() float32  { return r.damp }
func (r *Reverb) Wet() float32      { return r.wet }
func (r *Reverb) Dry() float32      { return r.dry }

// Process reverberates interleaved frames in place. A disabled reverb leaves
// buf untouched.
func (r *Reverb) Process(buf []float32) {
	if !r.enabled {
		return
	}

	ch := r.channels
	wet := min(ch, reverbChannels)
	frames := len(buf) / ch

	for f := range frames {
		for c := range wet {
			i := f*ch + c
			input := buf[i]

			var sum float32
			for k := range r.combs[c] {
				sum += r.combs[c][k].process(input, r.feedback, r.damp)
			}
			sum *= 1.0 / reverbNumCombs

			out := sum
			for k := range r.allpasses[c] {
				out = allpassProcess(&r.allpasses[c][k], out, r.allpass)
			}

			buf[i] = input*r.dry + out*r.wet
		}
	}
}

// Reset silences the combs and allpasses.
func (r *Reverb) Reset() {
	for c := range r.combs {
		for k := range r.combs[c] {
			r.combs[c][k].reset()
			r.combs[c][k].damped = 0
		}
		for k := range r.allpasses[c] {
			r.allpasses[c][k].reset()
		}
	}
}
