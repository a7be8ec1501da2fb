// SPDX-License-Identifier: EPL-2.0

// Package audio provides the streaming primitives the mixer is built on.
//
// This package contains:
//   - Source interface for decoded PCM input
//   - Resampler for sample rate conversion
//   - ChannelMapper for channel layout conversion
//   - ReadAll for collecting a whole stream into memory
//   - Format registry for decoder registration and extension lookup
//
// # Source Interface
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// Samples are interleaved float32 values in [-1, 1]. Decoders that know
// their length up front also implement Sized, which lets ReadAll allocate
// once.
//
// # Loading Pipeline
//
// Clips are converted to the mixer's format as they are loaded:
//
//	res := audio.NewResampler(src, 44100)
//	stereo, _ := audio.NewChannelMapper(res, 2)
//	samples, err := audio.ReadAll(stereo, 4096)
//
// # Registry
//
//	reg := audio.NewRegistry()
//	reg.Register("wav", wav.Decoder{})
//	dec, format, err := reg.Lookup("sounds/boom.WAV")
package audio
