// SPDX-License-Identifier: EPL-2.0

// Package aiff provides AIFF (Audio Interchange File Format) decoding.
//
// This package uses github.com/go-audio/aiff. Uncompressed PCM at 8, 16,
// 24 and 32 bits is supported with any channel count and sample rate.
//
//	src, err := aiff.Decoder{}.Decode(f)
//	if err != nil {
//	    return err
//	}
//	buf := make([]float32, 4096)
//	n, err := src.ReadSamples(buf)
package aiff
