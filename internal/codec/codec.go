package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/roach88/fundledger/internal/ident"
)

// MaxStringLen bounds decoded strings so a corrupt length prefix cannot
// force a huge allocation.
const MaxStringLen = 1 << 16

// ErrShortBuffer is reported when a read runs past the end of the input.
var ErrShortBuffer = errors.New("unexpected end of input")

// Writer appends fields in canonical layout.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Bytes returns the encoded bytes.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// PutUint8 writes one byte.
func (w *Writer) PutUint8(v uint8) {
	w.buf = append(w.buf, v)
}

// PutUint32 writes v little-endian.
func (w *Writer) PutUint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// PutUint64 writes v little-endian.
func (w *Writer) PutUint64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// PutString writes s with a u32 length prefix.
func (w *Writer) PutString(s string) {
	w.PutUint32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// PutIdentity writes the 32 raw identity bytes.
func (w *Writer) PutIdentity(id ident.Identity) {
	w.buf = append(w.buf, id[:]...)
}

// PutBytes writes b with a u32 length prefix.
func (w *Writer) PutBytes(b []byte) {
	w.PutUint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// Reader consumes fields in canonical layout.
type Reader struct {
	data []byte
	pos  int
	err  error
}

// NewReader returns a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Err returns the first structural error encountered, if any.
func (r *Reader) Err() error {
	return r.err
}

// Pos returns the number of bytes consumed.
func (r *Reader) Pos() int {
	return r.pos
}

// Remaining returns the unconsumed tail.
func (r *Reader) Remaining() []byte {
	if r.pos >= len(r.data) {
		return nil
	}
	return r.data[r.pos:]
}

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.data)-r.pos < n {
		r.fail(fmt.Errorf("read %d bytes at offset %d: %w", n, r.pos, ErrShortBuffer))
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

// ReadUint8 reads one byte.
func (r *Reader) ReadUint8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// ReadUint32 reads a little-endian u32.
func (r *Reader) ReadUint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// ReadUint64 reads a little-endian u64.
func (r *Reader) ReadUint64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// ReadString reads a length-prefixed UTF-8 string.
func (r *Reader) ReadString() string {
	n := r.ReadUint32()
	if r.err != nil {
		return ""
	}
	if n > MaxStringLen {
		r.fail(fmt.Errorf("string length %d at offset %d exceeds %d", n, r.pos-4, MaxStringLen))
		return ""
	}
	b := r.take(int(n))
	if b == nil {
		return ""
	}
	if !utf8.Valid(b) {
		r.fail(fmt.Errorf("string at offset %d is not valid UTF-8", r.pos-int(n)))
		return ""
	}
	return string(b)
}

// ReadIdentity reads 32 raw identity bytes.
func (r *Reader) ReadIdentity() ident.Identity {
	var id ident.Identity
	b := r.take(ident.Size)
	if b == nil {
		return id
	}
	copy(id[:], b)
	return id
}
