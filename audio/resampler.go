// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	"github.com/ik5/nativeaudio/utils"
)

// Resampler streams from src to target sample rate using cubic interpolation.
// Works on interleaved samples; preserves channel count.
// Includes basic anti-aliasing filtering when downsampling. When the source
// already runs at the target rate, samples are passed through untouched.
type Resampler struct {
	src      Source
	dstRate  int
	step     float64 // source frames consumed per output frame
	channels int
	bypass   bool

	// window holds 4 frames for cubic interpolation:
	// window[0] = t-1, window[1] = t0, window[2] = t+1, window[3] = t+2
	window [4][]float32
	valid  [4]bool
	primed bool

	// Fractional position between window[1] and window[2].
	pos float64

	frameBuf []float32
	eof      bool
	done     bool

	// one-pole low-pass state, only used when downsampling
	lp      []float32
	lpOn    bool
	lpAlpha float32
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	step := float64(src.SampleRate()) / float64(dstRate)

	r := &Resampler{
		src:      src,
		dstRate:  dstRate,
		step:     step,
		channels: channels,
		bypass:   src.SampleRate() == dstRate,
		frameBuf: make([]float32, channels),
		lp:       make([]float32, channels),
		lpOn:     step > 1.0,
	}
	if r.lpOn {
		// Cutoff roughly at the destination Nyquist frequency.
		r.lpAlpha = 0.5
	}

	for i := range r.window {
		r.window[i] = make([]float32, channels)
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

// Frames estimates the output length when the source is Sized.
func (r *Resampler) Frames() int64 {
	s, ok := r.src.(Sized)
	if !ok {
		return 0
	}
	n := s.Frames()
	if n <= 0 || r.step <= 0 {
		return 0
	}

	return int64(float64(n) / r.step)
}

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("closing resampler source: %w", err)
	}
	return nil
}

// readFrame pulls a single frame from the source into dst.
func (r *Resampler) readFrame(dst []float32, filter bool) (bool, error) {
	n, err := r.src.ReadSamples(r.frameBuf)
	got := n > 0
	if got {
		copy(dst, r.frameBuf[:n])
		if filter && r.lpOn {
			for c := range r.channels {
				dst[c] = r.lpAlpha*dst[c] + (1-r.lpAlpha)*r.lp[c]
				r.lp[c] = dst[c]
			}
		}
	}

	if err != nil && err != io.EOF {
		return got, fmt.Errorf("resampler read: %w", err)
	}
	if err == io.EOF {
		r.eof = true
	}

	return got, nil
}

// advance shifts the window by one frame and reads a new t+2 frame.
func (r *Resampler) advance() error {
	if r.eof && !r.valid[3] {
		return io.EOF
	}

	first := r.window[0]
	copy(r.window[:], r.window[1:])
	r.window[3] = first
	copy(r.valid[:], r.valid[1:])
	r.valid[3] = false

	if r.eof {
		if !r.valid[2] {
			return io.EOF
		}
		return nil
	}

	got, err := r.readFrame(r.window[3], true)
	if err != nil {
		return err
	}
	r.valid[3] = got
	if !got && r.eof && !r.valid[2] {
		return io.EOF
	}

	return nil
}

// prime fills the interpolation window. Short sources duplicate their last
// frame so interpolation always has four points.
func (r *Resampler) prime() error {
	r.primed = true

	for i := range r.window {
		got, err := r.readFrame(r.window[i], false)
		if err != nil {
			return err
		}
		if got {
			r.valid[i] = true
			if i == 0 {
				// seed the filter to avoid a warm-up transient
				copy(r.lp, r.window[0])
			}
		}
		if r.eof {
			if i == 0 && !got {
				return io.EOF
			}
			last := i
			if !got {
				last = i - 1
			}
			for j := last + 1; j < len(r.window); j++ {
				copy(r.window[j], r.window[last])
				r.valid[j] = true
			}
			return nil
		}
	}

	return nil
}

// ReadSamples produces dst samples at the destination rate.
// dst length should be a multiple of r.channels.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if r.bypass {
		return r.src.ReadSamples(dst)
	}

	if r.done {
		return 0, io.EOF
	}
	if !r.primed {
		if err := r.prime(); err != nil {
			r.done = err == io.EOF
			return 0, err
		}
	}

	written := 0
	want := len(dst) / r.channels

	for written < want {
		for r.pos >= 1.0 {
			r.pos -= 1.0
			if err := r.advance(); err != nil {
				r.done = err == io.EOF
				return written * r.channels, err
			}
		}

		if !r.valid[1] || !r.valid[2] {
			r.done = true
			return written * r.channels, io.EOF
		}

		alpha := float32(r.pos)
		base := written * r.channels
		for c := range r.channels {
			y0 := r.window[1][c]
			if r.valid[0] {
				y0 = r.window[0][c]
			}
			y3 := r.window[2][c]
			if r.valid[3] {
				y3 = r.window[3][c]
			}

			dst[base+c] = utils.CubicInterpolate(y0, r.window[1][c], r.window[2][c], y3, alpha)
		}

		written++
		r.pos += r.step
	}

	return written * r.channels, nil
}
