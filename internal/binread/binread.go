// Package binread reads big-endian integers and fixed-length strings out of a
// byte buffer, reporting reads past the end instead of panicking.
package binread

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrOutOfRange = errors.New("binread: read past end of buffer")

type Reader struct {
	buf []byte
}

func New(buf []byte) *Reader { return &Reader{buf: buf} }

func (r *Reader) Len() int { return len(r.buf) }

// Has reports whether n bytes starting at off are addressable.
func (r *Reader) Has(off, n int) bool {
	return off >= 0 && n >= 0 && off+n <= len(r.buf)
}

func (r *Reader) check(off, n int) error {
	if !r.Has(off, n) {
		return fmt.Errorf("%w: offset %d length %d (buffer %d)", ErrOutOfRange, off, n, len(r.buf))
	}
	return nil
}

func (r *Reader) Uint8(off int) (uint8, error) {
	if err := r.check(off, 1); err != nil {
		return 0, err
	}
	return r.buf[off], nil
}

func (r *Reader) Int8(off int) (int8, error) {
	v, err := r.Uint8(off)
	return int8(v), err
}

func (r *Reader) Uint16BE(off int) (uint16, error) {
	if err := r.check(off, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(r.buf[off:]), nil
}

func (r *Reader) Uint32BE(off int) (uint32, error) {
	if err := r.check(off, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(r.buf[off:]), nil
}

// String returns n raw bytes at off as a string. NUL padding is kept; callers
// trim when they want a display value.
func (r *Reader) String(off, n int) (string, error) {
	b, err := r.Bytes(off, n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Bytes returns a subslice of the underlying buffer. It is not copied.
func (r *Reader) Bytes(off, n int) ([]byte, error) {
	if err := r.check(off, n); err != nil {
		return nil, err
	}
	return r.buf[off : off+n], nil
}
