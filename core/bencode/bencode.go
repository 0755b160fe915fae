// SPDX-FileCopyrightText: Copyright (C) 2024  The loki-network authors
// SPDX-License-Identifier: AGPL-3.0-only

// Package bencode implements the canonical binary encoding used for all
// signed structures: unsigned integers, length-prefixed byte strings,
// ordered lists, and dictionaries.  Dictionary keys are written in
// lexicographic order, which gives every logical value exactly one byte
// representation and therefore makes the encoding safe to sign.
package bencode

import (
	"errors"
	"strconv"
)

var (
	// ErrBufferFull is returned when an Encoder runs out of space in its
	// fixed-capacity destination buffer.
	ErrBufferFull = errors.New("bencode: destination buffer full")

	// ErrTruncated is returned when a Decoder hits the end of its buffer
	// in the middle of an element.
	ErrTruncated = errors.New("bencode: truncated input")

	// ErrBadFraming is returned for malformed framing: a byte that starts
	// no valid element, a length prefix that overflows or points past the
	// end of the buffer, or an unterminated container.
	ErrBadFraming = errors.New("bencode: malformed framing")
)

// maxLengthDigits bounds the decimal digits accepted in a byte string
// length prefix.  Ten digits is enough for any length that could fit in
// a buffer this codec will ever see.
const maxLengthDigits = 10

// An Encoder serializes elements into a caller-supplied fixed-capacity
// buffer.  It never allocates; once the buffer is full every subsequent
// write fails with ErrBufferFull.
type Encoder struct {
	buf []byte
	off int
}

// NewEncoder returns an Encoder writing into buf.  The encoded size is
// bounded by len(buf).
func NewEncoder(buf []byte) *Encoder {
	return &Encoder{buf: buf}
}

// Bytes returns the encoded bytes written so far.
func (e *Encoder) Bytes() []byte {
	return e.buf[:e.off]
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int {
	return e.off
}

func (e *Encoder) writeByte(b byte) error {
	if e.off >= len(e.buf) {
		return ErrBufferFull
	}
	e.buf[e.off] = b
	e.off++
	return nil
}

// WriteRaw appends pre-encoded bytes verbatim.  The caller is
// responsible for b already being well-formed bencode.
func (e *Encoder) WriteRaw(b []byte) error {
	if e.off+len(b) > len(e.buf) {
		return ErrBufferFull
	}
	copy(e.buf[e.off:], b)
	e.off += len(b)
	return nil
}

// WriteUint64 encodes i as "i<decimal>e".
func (e *Encoder) WriteUint64(i uint64) error {
	var tmp [24]byte
	out := append(tmp[:0], 'i')
	out = strconv.AppendUint(out, i, 10)
	out = append(out, 'e')
	return e.WriteRaw(out)
}

// WriteBytes encodes b as "<decimal length>:<bytes>".
func (e *Encoder) WriteBytes(b []byte) error {
	var tmp [16]byte
	prefix := strconv.AppendUint(tmp[:0], uint64(len(b)), 10)
	prefix = append(prefix, ':')
	if err := e.WriteRaw(prefix); err != nil {
		return err
	}
	return e.WriteRaw(b)
}

// WriteString encodes s as a byte string.
func (e *Encoder) WriteString(s string) error {
	var tmp [16]byte
	prefix := strconv.AppendUint(tmp[:0], uint64(len(s)), 10)
	prefix = append(prefix, ':')
	if err := e.WriteRaw(prefix); err != nil {
		return err
	}
	if e.off+len(s) > len(e.buf) {
		return ErrBufferFull
	}
	copy(e.buf[e.off:], s)
	e.off += len(s)
	return nil
}

// BeginList opens a list.  The caller must close it with End.
func (e *Encoder) BeginList() error {
	return e.writeByte('l')
}

// BeginDict opens a dictionary.  The caller must write keys in
// lexicographic order and close it with End.
func (e *Encoder) BeginDict() error {
	return e.writeByte('d')
}

// End closes the innermost open list or dictionary.
func (e *Encoder) End() error {
	return e.writeByte('e')
}

// WriteDictBytes writes a key/byte-string entry of an open dictionary.
func (e *Encoder) WriteDictBytes(key string, v []byte) error {
	if err := e.WriteString(key); err != nil {
		return err
	}
	return e.WriteBytes(v)
}

// WriteDictUint64 writes a key/integer entry of an open dictionary.
func (e *Encoder) WriteDictUint64(key string, v uint64) error {
	if err := e.WriteString(key); err != nil {
		return err
	}
	return e.WriteUint64(v)
}

// A Decoder is a streaming cursor over an encoded buffer.  Byte strings
// are returned as sub-slices of the input; the Decoder never reads past
// the end of the buffer it was constructed with.
type Decoder struct {
	buf []byte
	off int
}

// NewDecoder returns a Decoder reading from buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Len returns the number of unconsumed bytes.
func (d *Decoder) Len() int {
	return len(d.buf) - d.off
}

// Done returns true when the whole input has been consumed.
func (d *Decoder) Done() bool {
	return d.off >= len(d.buf)
}

// Peek returns the next byte without consuming it.
func (d *Decoder) Peek() (byte, error) {
	if d.off >= len(d.buf) {
		return 0, ErrTruncated
	}
	return d.buf[d.off], nil
}

func (d *Decoder) readByte() (byte, error) {
	b, err := d.Peek()
	if err != nil {
		return 0, err
	}
	d.off++
	return b, nil
}

// ReadUint64 decodes an "i<decimal>e" integer.  Negative values and
// values exceeding 64 bits are rejected.
func (d *Decoder) ReadUint64() (uint64, error) {
	b, err := d.readByte()
	if err != nil {
		return 0, err
	}
	if b != 'i' {
		return 0, ErrBadFraming
	}
	start := d.off
	for {
		c, err := d.readByte()
		if err != nil {
			return 0, err
		}
		if c == 'e' {
			break
		}
		if c < '0' || c > '9' {
			return 0, ErrBadFraming
		}
	}
	digits := d.buf[start : d.off-1]
	if len(digits) == 0 {
		return 0, ErrBadFraming
	}
	v, err := strconv.ParseUint(string(digits), 10, 64)
	if err != nil {
		return 0, ErrBadFraming
	}
	return v, nil
}

// ReadBytes decodes a "<length>:<bytes>" string and returns the bytes as
// a sub-slice of the input buffer.
func (d *Decoder) ReadBytes() ([]byte, error) {
	start := d.off
	for {
		c, err := d.readByte()
		if err != nil {
			return nil, err
		}
		if c == ':' {
			break
		}
		if c < '0' || c > '9' {
			return nil, ErrBadFraming
		}
		if d.off-start > maxLengthDigits {
			return nil, ErrBadFraming
		}
	}
	digits := d.buf[start : d.off-1]
	if len(digits) == 0 {
		return nil, ErrBadFraming
	}
	n, err := strconv.ParseUint(string(digits), 10, 32)
	if err != nil {
		return nil, ErrBadFraming
	}
	if uint64(d.Len()) < n {
		return nil, ErrTruncated
	}
	out := d.buf[d.off : d.off+int(n)]
	d.off += int(n)
	return out, nil
}

// ReadDict decodes a dictionary, invoking fn once per entry with the key
// and the Decoder positioned at the value.  fn must consume exactly one
// element.  Unterminated dictionaries are rejected.
func (d *Decoder) ReadDict(fn func(key []byte, d *Decoder) error) error {
	b, err := d.readByte()
	if err != nil {
		return err
	}
	if b != 'd' {
		return ErrBadFraming
	}
	for {
		c, err := d.Peek()
		if err != nil {
			return err
		}
		if c == 'e' {
			d.off++
			return nil
		}
		key, err := d.ReadBytes()
		if err != nil {
			return err
		}
		if err := fn(key, d); err != nil {
			return err
		}
	}
}

// ReadList decodes a list, invoking fn once per element.  fn must
// consume exactly one element.
func (d *Decoder) ReadList(fn func(d *Decoder) error) error {
	b, err := d.readByte()
	if err != nil {
		return err
	}
	if b != 'l' {
		return ErrBadFraming
	}
	for {
		c, err := d.Peek()
		if err != nil {
			return err
		}
		if c == 'e' {
			d.off++
			return nil
		}
		if err := fn(d); err != nil {
			return err
		}
	}
}

// ReadRaw consumes the next complete element of any shape and returns
// its raw encoded bytes as a sub-slice of the input.  This is how a
// signed sub-dictionary is captured byte-exactly for later verification.
func (d *Decoder) ReadRaw() ([]byte, error) {
	start := d.off
	if err := d.skipElement(); err != nil {
		return nil, err
	}
	return d.buf[start:d.off], nil
}

// Discard consumes and drops the next complete element.
func (d *Decoder) Discard() error {
	return d.skipElement()
}

func (d *Decoder) skipElement() error {
	c, err := d.Peek()
	if err != nil {
		return err
	}
	switch {
	case c == 'i':
		_, err := d.ReadUint64()
		return err
	case c >= '0' && c <= '9':
		_, err := d.ReadBytes()
		return err
	case c == 'l':
		return d.ReadList(func(d *Decoder) error {
			return d.skipElement()
		})
	case c == 'd':
		return d.ReadDict(func(_ []byte, d *Decoder) error {
			return d.skipElement()
		})
	default:
		return ErrBadFraming
	}
}
