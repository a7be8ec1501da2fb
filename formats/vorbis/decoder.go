// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/ik5/nativeaudio/audio"
)

// oggReader is the subset of oggvorbis.Reader used by the source, so tests
// can substitute it.
type oggReader interface {
	SampleRate() int
	Channels() int
	Length() int64
	Read([]float32) (int, error)
}

type source struct {
	dec      oggReader
	channels int
}

func (s *source) SampleRate() int { return s.dec.SampleRate() }
func (s *source) Channels() int   { return s.channels }
func (s *source) BufSize() int    { return 4096 }

// Frames is the stream length reported by the Ogg granule positions.
func (s *source) Frames() int64 { return s.dec.Length() }

// Close is a no-op; the caller owns the underlying reader.
func (s *source) Close() error { return nil }

func (s *source) ReadSamples(dst []float32) (int, error) {
	// oggvorbis only hands out whole frames
	dst = dst[:len(dst)-len(dst)%s.channels]
	if len(dst) == 0 {
		return 0, nil
	}

	n, err := s.dec.Read(dst)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("reading vorbis samples: %w", err)
	}

	return n, err
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening ogg stream: %w", err)
	}

	s := &source{
		dec:      dec,
		channels: dec.Channels(),
	}
	return s, nil
}
