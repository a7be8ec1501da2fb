// SPDX-License-Identifier: EPL-2.0

// Package oto plays audio on the system device through
// github.com/ebitengine/oto/v3.
package oto

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/ik5/nativeaudio/audio"
)

const bytesPerSample = 4

var (
	ErrStarted = errors.New("oto player already started")
	// ErrFormatMismatch is returned when a second device is opened with a
	// different format; oto allows one context per process.
	ErrFormatMismatch = errors.New("oto context already open with another format")
)

// oto.NewContext may only succeed once per process.
var (
	ctxMu       sync.Mutex
	ctx         *oto.Context
	ctxRate     int
	ctxChannels int
)

func sharedContext(sampleRate, channels int, buffer time.Duration) (*oto.Context, error) {
	ctxMu.Lock()
	defer ctxMu.Unlock()

	if ctx != nil {
		if ctxRate != sampleRate || ctxChannels != channels {
			return nil, fmt.Errorf("%w: have %d Hz/%d ch", ErrFormatMismatch, ctxRate, ctxChannels)
		}
		if err := ctx.Resume(); err != nil {
			return nil, fmt.Errorf("cannot resume oto context: %w", err)
		}
		return ctx, nil
	}

	c, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   buffer,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready

	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("oto context: %w", err)
	}

	ctx, ctxRate, ctxChannels = c, sampleRate, channels

	return ctx, nil
}

// Device plays a single audio.Source on the default output.
type Device struct {
	ctx      *oto.Context
	channels int

	mu     sync.Mutex
	player *oto.Player
}

// New opens the output device. bufferFrames sets the device latency.
func New(sampleRate, channels, bufferFrames int) (*Device, error) {
	buffer := time.Duration(bufferFrames) * time.Second / time.Duration(sampleRate)

	c, err := sharedContext(sampleRate, channels, buffer)
	if err != nil {
		return nil, err
	}

	return &Device{ctx: c, channels: channels}, nil
}

func (d *Device) Name() string { return "oto" }

// Start begins pulling from src. src must produce the device's channel
// count at its sample rate.
func (d *Device) Start(src audio.Source) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.player != nil {
		return ErrStarted
	}

	d.player = d.ctx.NewPlayer(NewReader(src))
	d.player.Play()

	return nil
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.player != nil {
		if err := d.player.Close(); err != nil {
			return fmt.Errorf("cannot close oto player: %w", err)
		}
		d.player = nil
	}

	if err := d.ctx.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}

	return nil
}

// Reader exposes an audio.Source as little-endian float32 bytes, the layout
// oto.FormatFloat32LE expects.
type Reader struct {
	src audio.Source
	buf []float32
}

// NewReader streams src as little-endian float32 bytes.
func NewReader(src audio.Source) *Reader {
	return &Reader{src: src}
}

func (r *Reader) Read(p []byte) (int, error) {
	ch := max(r.src.Channels(), 1)

	n := len(p) / bytesPerSample
	n -= n % ch
	if n == 0 {
		return 0, nil
	}

	if cap(r.buf) < n {
		r.buf = make([]float32, n)
	}

	got, err := r.src.ReadSamples(r.buf[:n])
	for i, v := range r.buf[:got] {
		binary.LittleEndian.PutUint32(p[i*bytesPerSample:], math.Float32bits(v))
	}

	if err != nil && err != io.EOF {
		return got * bytesPerSample, fmt.Errorf("oto reader: %w", err)
	}

	return got * bytesPerSample, err
}
