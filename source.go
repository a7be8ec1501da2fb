// SPDX-License-Identifier: EPL-2.0

package nativeaudio

import (
	"fmt"
	"slices"
	"sync"
)

// AudioSource plays one clip on a channel of its own. Channels are handed
// out in creation order: the first source gets channel 0, the next 1, and
// so on until the mixer runs out.
type AudioSource struct {
	sys     *System
	clip    *Clip
	channel int

	mu   sync.Mutex
	taps []*DelayTap
}

// NewAudioSource binds clip to the next unused channel. It fails with
// ErrChannelLimit once every mixer channel has a source.
func (s *System) NewAudioSource(clip *Clip) (*AudioSource, error) {
	if clip == nil || clip.sys != s {
		return nil, ErrForeignClip
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	ch := len(s.sources)
	if ch >= s.mixer.NumChannels() {
		return nil, fmt.Errorf("%w: %d in use", ErrChannelLimit, ch)
	}

	src := &AudioSource{sys: s, clip: clip, channel: ch}
	s.sources = append(s.sources, src)

	return src, nil
}

func (a *AudioSource) Clip() *Clip  { return a.clip }
func (a *AudioSource) Channel() int { return a.channel }

// Play starts the clip from the beginning, cutting off any earlier play.
func (a *AudioSource) Play() error {
	return a.PlayLoop(0)
}

// PlayLoop plays the clip loops+1 times, or until stopped when loops is -1.
func (a *AudioSource) PlayLoop(loops int) error {
	_, err := a.sys.mixer.PlayLoop(a.channel, a.clip.id, loops)
	return err
}

func (a *AudioSource) Stop() error   { return a.sys.mixer.Stop(a.channel) }
func (a *AudioSource) Pause() error  { return a.sys.mixer.Pause(a.channel) }
func (a *AudioSource) Resume() error { return a.sys.mixer.Resume(a.channel) }

// Playing reports whether the clip is loaded on the channel, paused or not.
func (a *AudioSource) Playing() bool {
	ok, _ := a.sys.mixer.Playing(a.channel)
	return ok
}

func (a *AudioSource) Paused() bool {
	ok, _ := a.sys.mixer.Paused(a.channel)
	return ok
}

// SetPos places the source around the listener: angle in degrees clockwise
// from straight ahead, distance from 0 (close) to 255 (far).
func (a *AudioSource) SetPos(angle, distance int) error {
	return a.sys.mixer.SetPosition(a.channel, angle, distance)
}

// SetVolume sets the channel volume on a 0..128 scale and returns the
// previous value. A negative volume only reads it.
func (a *AudioSource) SetVolume(volume int) (int, error) {
	return a.sys.mixer.SetVolume(a.channel, volume)
}

// SetPitch changes playback speed; 1 is the recorded pitch.
func (a *AudioSource) SetPitch(pitch float64) error {
	return a.sys.mixer.SetPitch(a.channel, pitch)
}

// AddDelayTap adds an echo timeMs behind the dry signal at volume.
func (a *AudioSource) AddDelayTap(timeMs, volume float32) (*DelayTap, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id, err := a.sys.mixer.AddTap(a.channel, timeMs, volume)
	if err != nil {
		return nil, err
	}

	tap := &DelayTap{src: a, id: id, volume: volume, timeMs: timeMs}
	a.taps = append(a.taps, tap)

	return tap, nil
}

// DelayTaps returns the taps added and not yet removed.
func (a *AudioSource) DelayTaps() []*DelayTap {
	a.mu.Lock()
	defer a.mu.Unlock()

	return slices.Clone(a.taps)
}

func (a *AudioSource) EnableReverb(on bool) error {
	return a.sys.mixer.EnableReverb(a.channel, on)
}

func (a *AudioSource) SetReverbRoomSize(size float32) error {
	return a.sys.mixer.SetReverbRoomSize(a.channel, size)
}

func (a *AudioSource) SetReverbDamping(damp float32) error {
	return a.sys.mixer.SetReverbDamping(a.channel, damp)
}

func (a *AudioSource) SetReverbWet(wet float32) error {
	return a.sys.mixer.SetReverbWet(a.channel, wet)
}

func (a *AudioSource) SetReverbDry(dry float32) error {
	return a.sys.mixer.SetReverbDry(a.channel, dry)
}
