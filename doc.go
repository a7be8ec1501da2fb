// SPDX-License-Identifier: EPL-2.0

// Package nativeaudio plays sound clips on a software channel mixer.
//
// A System owns the mixer and an output backend. Clips are decoded once;
// each AudioSource binds a clip to its own mixer channel, assigned in
// creation order, and forwards playback and effect calls to that channel.
//
//	sys, err := nativeaudio.Init(config.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sys.Close()
//
//	clip, err := sys.NewClip("sounds/tone.wav")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	src, _ := sys.NewAudioSource(clip)
//	_ = src.Play()
//	_ = src.SetPos(90, 128) // right, half distance
//	_, _ = src.SetVolume(64)
//
// # Supported Formats
//
// DefaultRegistry decodes WAV, MP3, Ogg Vorbis and AIFF through the
// formats subpackages. Clips are converted to the mixer's rate and to
// stereo as they load.
//
// # Effects
//
// Every source can carry up to 16 delay taps and one reverb:
//
//	tap, _ := src.AddDelayTap(250, 0.5)
//	_ = tap.SetTime(300)
//	_ = src.EnableReverb(true)
//	_ = src.SetReverbRoomSize(0.8)
//
// # Backends
//
// config.Config.Backend picks the output: "oto" for the system device,
// "null" for a headless sink that consumes audio in real time, "auto" for
// oto with a null fallback, and "offline" for no device at all. Offline
// systems produce audio only through Render.
package nativeaudio
