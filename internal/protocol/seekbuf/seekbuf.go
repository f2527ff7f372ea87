// Package seekbuf provides an in-memory io.WriteSeeker/io.ReadSeeker so the
// seek-and-patch builders can target a network payload as well as a file.
package seekbuf

import (
	"errors"
	"io"
)

var ErrNegativeOffset = errors.New("seekbuf: negative offset")

// Buffer is a growable byte slice with a cursor. Writing past the end grows
// it, zero-filling any gap.
type Buffer struct {
	buf []byte
	off int64
}

var (
	_ io.WriteSeeker = (*Buffer)(nil)
	_ io.ReadSeeker  = (*Buffer)(nil)
)

// New returns a Buffer that reads from and overwrites b.
func New(b []byte) *Buffer {
	return &Buffer{buf: b}
}

func (b *Buffer) Write(p []byte) (int, error) {
	end := b.off + int64(len(p))
	if end > int64(len(b.buf)) {
		if end <= int64(cap(b.buf)) {
			old := int64(len(b.buf))
			b.buf = b.buf[:end]
			if b.off > old {
				clear(b.buf[old:b.off])
			}
		} else {
			grown := make([]byte, end, 2*end)
			copy(grown, b.buf)
			b.buf = grown
		}
	}
	copy(b.buf[b.off:end], p)
	b.off = end
	return len(p), nil
}

func (b *Buffer) Read(p []byte) (int, error) {
	if b.off >= int64(len(b.buf)) {
		return 0, io.EOF
	}
	n := copy(p, b.buf[b.off:])
	b.off += int64(n)
	return n, nil
}

func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = b.off + offset
	case io.SeekEnd:
		abs = int64(len(b.buf)) + offset
	default:
		return 0, errors.New("seekbuf: invalid whence")
	}
	if abs < 0 {
		return 0, ErrNegativeOffset
	}
	b.off = abs
	return abs, nil
}

// Bytes returns the written contents. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

func (b *Buffer) Len() int {
	return len(b.buf)
}

// Reset empties the buffer, keeping its capacity.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
	b.off = 0
}
