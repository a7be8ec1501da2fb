// SPDX-License-Identifier: EPL-2.0

// Package effects holds the per-channel DSP nodes the mixer runs after
// volume and panning: a multi-tap echo and a small Schroeder reverb.
//
// Both work in place on interleaved float32 frames and keep their own
// history, so one instance belongs to one channel.
//
//	d, _ := effects.NewMultiTapDelay(44100, 2)
//	id, err := d.AddTap(250, 0.5) // 250 ms echo at half volume
//
//	r, _ := effects.NewReverb(44100, 2)
//	r.SetEnabled(true)
//	r.SetRoomSize(0.8)
//	r.Process(buf)
package effects
