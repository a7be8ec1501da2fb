// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III streams with
// github.com/hajimehoshi/go-mp3.
//
// go-mp3 always produces 16-bit stereo, so every source reports two
// channels regardless of the file's own layout. Mono files come out with
// the channel duplicated.
//
//	src, err := mp3.Decoder{}.Decode(f)
//	if err != nil {
//	    return err
//	}
//
// When the input is seekable the source also implements audio.Sized.
package mp3
