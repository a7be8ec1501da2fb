// SPDX-License-Identifier: EPL-2.0

// Package mixer is a channel-based software mixer.
//
// Clips are decoded once, converted to the mixer's sample rate and to
// stereo, and kept in memory under a uuid. Any number of channels can play
// them at the same time. Each channel has its own volume on a 0..128
// scale, pitch, angle/distance placement, a multi-tap delay and a reverb.
//
//	m, _ := mixer.New(mixer.Options{SampleRate: 44100, Registry: reg})
//	id, err := m.Load("sounds/door.wav")
//	if err != nil {
//	    return err
//	}
//	ch, _ := m.Play(-1, id) // first free channel
//	_ = m.SetPosition(ch, 90, 0) // hard right
//	_, _ = m.AddTap(ch, 250, 0.4)
//
// The Mixer is itself an audio.Source. A backend pulls stereo frames from
// ReadSamples on its own goroutine; all control calls are safe to make
// concurrently with it.
//
// Per channel the signal runs through pitch, volume and placement, then the
// delay, then the reverb, before it is summed. The sum is scaled by the
// master volume and clipped to [-1, 1]. When a clip ends with taps or
// reverb active, the channel keeps rendering its tail for up to two seconds.
package mixer
