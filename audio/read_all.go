// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
)

// ReadAll drains src and returns every interleaved sample it produced.
// bufferSize is the chunk size used for each read; it is rounded down to a
// whole number of frames.
func ReadAll(src Source, bufferSize int) ([]float32, error) {
	channels := src.Channels()
	if channels < 1 {
		return nil, ErrInvalidChannelCount
	}

	bufferSize -= bufferSize % channels
	if bufferSize <= 0 {
		bufferSize = channels * 1024
	}

	var out []float32
	if s, ok := src.(Sized); ok && s.Frames() > 0 {
		out = make([]float32, 0, s.Frames()*int64(channels))
	}

	buf := make([]float32, bufferSize)
	for {
		n, err := src.ReadSamples(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading source: %w", err)
		}
		if n == 0 {
			// A decoder that returns nothing without an error is treated as done.
			break
		}
	}

	return out, nil
}
