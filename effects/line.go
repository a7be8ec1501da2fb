// SPDX-License-Identifier: EPL-2.0

package effects

// line is a fixed-length circular buffer read at its full length.
type line struct {
	buf []float32
	pos int
}

func newLine(size int) line {
	return line{buf: make([]float32, max(size, 1))}
}

func (l *line) read() float32 { return l.buf[l.pos] }

func (l *line) write(v float32) {
	l.buf[l.pos] = v
	l.pos++
	if l.pos >= len(l.buf) {
		l.pos = 0
	}
}

func (l *line) reset() {
	clear(l.buf)
	l.pos = 0
}
