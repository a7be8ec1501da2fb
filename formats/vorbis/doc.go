// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis streams with
// github.com/jfreymuth/oggvorbis.
//
// Samples are already float32 in the decoder, so reads are passed through
// after trimming the destination to whole frames.
package vorbis
