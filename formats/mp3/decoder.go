// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/nativeaudio/audio"
)

// go-mp3 always decodes to 16-bit little-endian stereo.
const (
	channels       = 2
	bytesPerSample = 2
	bytesPerFrame  = channels * bytesPerSample
)

// mp3Reader is the subset of gomp3.Decoder used by the source, so tests can
// substitute it.
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
	Length() int64
}

type source struct {
	dec      mp3Reader
	buf      []byte
	carry    []byte // trailing odd byte between reads
	finished bool
}

func (s *source) SampleRate() int { return s.dec.SampleRate() }
func (s *source) Channels() int   { return channels }
func (s *source) BufSize() int    { return cap(s.buf) / bytesPerSample }

// Frames is derived from the decoded stream length; it is 0 for
// non-seekable inputs where go-mp3 cannot tell.
func (s *source) Frames() int64 {
	if n := s.dec.Length(); n > 0 {
		return n / bytesPerFrame
	}
	return 0
}

// Close is a no-op; the caller owns the underlying reader.
func (s *source) Close() error { return nil }

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if s.finished {
		return 0, io.EOF
	}

	need := len(dst) * bytesPerSample
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	s.buf = s.buf[:need]

	held := copy(s.buf, s.carry)
	s.carry = s.carry[:0]

	n, err := io.ReadFull(s.dec, s.buf[held:])
	n += held
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		s.finished = true
		err = io.EOF
	} else if err != nil {
		return 0, fmt.Errorf("reading mp3 frames: %w", err)
	}

	samples := n / bytesPerSample
	if rem := n % bytesPerSample; rem != 0 && !s.finished {
		s.carry = append(s.carry, s.buf[n-rem:n]...)
	}

	for i := range samples {
		v := int16(uint16(s.buf[2*i]) | uint16(s.buf[2*i+1])<<8)
		dst[i] = float32(v) / 32768.0
	}

	if samples == 0 && err == io.EOF {
		return 0, io.EOF
	}

	return samples, err
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("opening mp3 stream: %w", err)
	}

	s := &source{
		dec: dec,
		buf: make([]byte, 8192),
	}
	return s, nil
}
