// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/ik5/nativeaudio/audio"
)

const (
	formatPCM        = 1
	formatFloat      = 3
	formatExtensible = 0xFFFE
)

// pcmReader is the subset of gowav.Decoder the source needs, so tests can
// feed it canned buffers.
type pcmReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

type source struct {
	dec        pcmReader
	sampleRate int
	channels   int
	scale      float32
	bias       int  // 8-bit PCM is unsigned
	ieee       bool // samples are float32 bit patterns
	frames     int64
	intBuf     *goaudio.IntBuffer
	done       bool
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Frames() int64   { return s.frames }
func (s *source) Close() error    { return nil }

func (s *source) BufSize() int {
	if s.intBuf != nil {
		return cap(s.intBuf.Data)
	}
	return 4096
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if s.done {
		return 0, io.EOF
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, len(dst)),
			Format: s.dec.Format(),
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:len(dst)]
	}

	n, err := s.dec.PCMBuffer(s.intBuf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return 0, fmt.Errorf("reading wav samples: %w", err)
	}

	if s.ieee {
		for i := range n {
			dst[i] = math.Float32frombits(uint32(s.intBuf.Data[i]))
		}
	} else {
		for i := range n {
			dst[i] = float32(s.intBuf.Data[i]-s.bias) * s.scale
		}
	}

	// go-audio reports the end of the data chunk as a short read
	if n < len(dst) || err != nil {
		s.done = true
		if n == 0 {
			return 0, io.EOF
		}
		return n, io.EOF
	}

	return n, nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		// go-audio needs to seek between chunks
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	if err := checkRIFF(rs); err != nil {
		return nil, err
	}

	dec := gowav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedWavLayout, err)
	}

	ieee := dec.WavAudioFormat == formatFloat
	if !ieee && dec.WavAudioFormat != formatPCM && dec.WavAudioFormat != formatExtensible {
		return nil, ErrUnsupportedWavLayout
	}
	if dec.NumChans < 1 {
		return nil, ErrInvalidChannels
	}
	if ieee && dec.BitDepth != 32 {
		return nil, ErrUnsupportedBitDepth
	}

	var (
		scale float32
		bias  int
	)
	switch dec.BitDepth {
	case 8:
		scale = 1.0 / 128.0
		bias = 128
	case 16:
		scale = 1.0 / 32768.0
	case 24:
		scale = 1.0 / 8388608.0
	case 32:
		scale = 1.0 / 2147483648.0
	default:
		return nil, ErrUnsupportedBitDepth
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedWavLayout, err)
	}

	var frames int64
	blockAlign := int64(dec.NumChans) * int64(dec.BitDepth/8)
	if dec.PCMSize > 0 && blockAlign > 0 {
		frames = int64(dec.PCMSize) / blockAlign
	}

	return &source{
		dec:        dec,
		sampleRate: int(dec.SampleRate),
		channels:   int(dec.NumChans),
		scale:      scale,
		bias:       bias,
		ieee:       ieee,
		frames:     frames,
	}, nil
}

// checkRIFF verifies the RIFF/WAVE preamble and rewinds rs.
func checkRIFF(rs io.ReadSeeker) error {
	var preamble [12]byte
	if _, err := io.ReadFull(rs, preamble[:]); err != nil {
		return ErrNotWavFile
	}
	if string(preamble[0:4]) != "RIFF" || string(preamble[8:12]) != "WAVE" {
		return ErrNotWavFile
	}
	if _, err := rs.Seek(-int64(len(preamble)), io.SeekCurrent); err != nil {
		return fmt.Errorf("rewinding wav header: %w", err)
	}

	return nil
}
