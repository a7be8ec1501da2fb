// SPDX-License-Identifier: EPL-2.0

// Package wav decodes and writes WAV files.
//
// Decoding is done by github.com/go-audio/wav, so files with extra chunks
// (LIST, smpl, cue) and WAVE_FORMAT_EXTENSIBLE headers load fine. 8-bit
// unsigned, 16, 24 and 32-bit integer PCM and 32-bit IEEE float are
// supported, mono or multi-channel, at any rate.
//
//	src, err := wav.Decoder{}.Decode(file)
//	if errors.Is(err, wav.ErrNotWavFile) {
//	    // not RIFF/WAVE
//	}
//
// The decoder needs to seek; plain readers are buffered into memory first.
//
// WriteWAV16 and WriteFloat32 write canonical 44-byte header files and are
// used for offline renders of the mixer output:
//
//	err := wav.WriteFloat32(out, 44100, 2, rendered)
package wav
