// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// ChannelMapper converts a source to a fixed output channel count.
//
//   - mono to N: the sample is copied to every output channel
//   - N to mono: channels are averaged
//   - N to stereo: even channels are averaged into left, odd ones into right
//   - any other layout: output channel c takes input channel c % inputChannels
type ChannelMapper struct {
	src Source
	out int
	tmp []float32
}

func NewChannelMapper(src Source, channels int) (*ChannelMapper, error) {
	if channels < 1 || src.Channels() < 1 {
		return nil, ErrInvalidChannelCount
	}

	return &ChannelMapper{
		src: src,
		out: channels,
		tmp: make([]float32, 4096),
	}, nil
}

func (m *ChannelMapper) SampleRate() int { return m.src.SampleRate() }
func (m *ChannelMapper) Channels() int   { return m.out }
func (m *ChannelMapper) BufSize() int    { return m.src.BufSize() }

func (m *ChannelMapper) Frames() int64 {
	if s, ok := m.src.(Sized); ok {
		return s.Frames()
	}
	return 0
}

func (m *ChannelMapper) Close() error {
	if err := m.src.Close(); err != nil {
		return fmt.Errorf("closing mapped source: %w", err)
	}

	return nil
}

func (m *ChannelMapper) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if len(dst)%m.out != 0 {
		return 0, ErrInvalidDstSize
	}

	in := m.src.Channels()
	if in == m.out {
		return m.src.ReadSamples(dst)
	}

	frames := len(dst) / m.out
	need := frames * in

	// grow only, never shrink
	if cap(m.tmp) < need {
		m.tmp = make([]float32, max(need, 8192))
	}
	m.tmp = m.tmp[:need]

	n, err := m.src.ReadSamples(m.tmp)
	if n == 0 {
		return 0, err
	}
	got := n / in

	switch {
	case in == 1:
		for f := range got {
			v := m.tmp[f]
			base := f * m.out
			for c := range m.out {
				dst[base+c] = v
			}
		}
	case m.out == 1:
		inv := 1 / float32(in)
		for f := range got {
			var sum float32
			base := f * in
			for c := range in {
				sum += m.tmp[base+c]
			}
			dst[f] = sum * inv
		}
	case m.out == 2:
		left := float32(1) / float32((in+1)/2)
		right := float32(1) / float32(in/2)
		for f := range got {
			var l, r float32
			base := f * in
			for c := range in {
				if c%2 == 0 {
					l += m.tmp[base+c]
				} else {
					r += m.tmp[base+c]
				}
			}
			dst[f*2] = l * left
			dst[f*2+1] = r * right
		}
	default:
		for f := range got {
			for c := range m.out {
				dst[f*m.out+c] = m.tmp[f*in+c%in]
			}
		}
	}

	return got * m.out, err
}
