// SPDX-License-Identifier: EPL-2.0

// Package null provides a backend that consumes audio at real-time pace and
// throws it away. It stands in for a sound card on headless machines.
package null

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ik5/nativeaudio/audio"
)

var ErrStarted = errors.New("null sink already started")

// Sink pulls one buffer of frames from its source every buffer period.
type Sink struct {
	rate   int
	frames int

	stop chan struct{}
	done chan struct{}
	once sync.Once

	started atomic.Bool
	drained atomic.Int64
	err     atomic.Pointer[error]
}

// New returns a sink for a stream at sampleRate, pulling bufferFrames
// frames per tick.
func New(sampleRate, bufferFrames int) *Sink {
	return &Sink{
		rate:   max(sampleRate, 1),
		frames: max(bufferFrames, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (s *Sink) Name() string { return "null" }

func (s *Sink) period() time.Duration {
	return time.Duration(s.frames) * time.Second / time.Duration(s.rate)
}

func (s *Sink) Start(src audio.Source) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrStarted
	}

	go s.run(src)

	return nil
}

func (s *Sink) run(src audio.Source) {
	defer close(s.done)

	ch := max(src.Channels(), 1)
	buf := make([]float32, s.frames*ch)

	ticker := time.NewTicker(s.period())
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}

		n, err := src.ReadSamples(buf)
		s.drained.Add(int64(n / ch))

		if err == io.EOF {
			return
		}
		if err != nil {
			err = fmt.Errorf("null sink: %w", err)
			s.err.Store(&err)
			return
		}
	}
}

// Frames is the number of frames consumed so far.
func (s *Sink) Frames() int64 { return s.drained.Load() }

// Err returns the read error that stopped the sink, if any.
func (s *Sink) Err() error {
	if p := s.err.Load(); p != nil {
		return *p
	}
	return nil
}

// Close stops the sink and waits for its goroutine. It is safe to call
// more than once.
func (s *Sink) Close() error {
	s.once.Do(func() {
		close(s.stop)
		if s.started.Load() {
			<-s.done
		}
	})

	return nil
}
