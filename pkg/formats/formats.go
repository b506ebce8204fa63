// Package formats provides parsers for Source engine model, texture and material files.
//
// Binary formats are read through explicit (buffer, offset) accessors over the
// immutable file bytes. Nested tables store offsets relative to the structure that
// holds them; every dereference is bounds-checked and reported as a range error.
package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// view is a read-only window over a file buffer.
type view struct {
	file FileKind
	data []byte
}

// record returns size bytes at off, or a range error naming field.
func (v view) record(off, size int, field string) ([]byte, error) {
	if off < 0 || size < 0 || off > len(v.data) || size > len(v.data)-off {
		return nil, rangeError(v.file, field, fmt.Errorf("[%d:+%d] outside %d-byte buffer", off, size, len(v.data)))
	}
	return v.data[off : off+size], nil
}

// table returns the bytes of count records of size bytes starting at off.
func (v view) table(off, count, size int, field string) ([]byte, error) {
	if count < 0 {
		return nil, rangeError(v.file, field, fmt.Errorf("negative count %d", count))
	}
	if size > 0 && count > math.MaxInt32/size {
		return nil, rangeError(v.file, field, fmt.Errorf("count %d too large", count))
	}
	return v.record(off, count*size, field)
}

// cstring reads a NUL-terminated string at off.
func (v view) cstring(off int, field string) (string, error) {
	if off < 0 || off >= len(v.data) {
		return "", rangeError(v.file, field, fmt.Errorf("string offset %d outside %d-byte buffer", off, len(v.data)))
	}
	end := bytes.IndexByte(v.data[off:], 0)
	if end < 0 {
		return "", rangeError(v.file, field, fmt.Errorf("unterminated string at %d", off))
	}
	return string(v.data[off : off+end]), nil
}

func i32(b []byte, off int) int32 {
	return int32(binary.LittleEndian.Uint32(b[off:]))
}

func u32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off:])
}

func u16(b []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(b[off:])
}

func i16(b []byte, off int) int16 {
	return int16(binary.LittleEndian.Uint16(b[off:]))
}

func f32(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

// fixedString reads a NUL-padded fixed-size string.
func fixedString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
