// Package wire implements the versioned, schema'd binary codec BlockChat
// peers exchange over HTTP, replacing the pickle-based payloads of the
// original implementation. Every wire type encodes a fixed, ordered set of
// fields; decoding a value consumes exactly the bytes that value's schema
// declares and errors on anything left over, so there is no forward-
// compatible "unknown field" path the original's pickle deserializer had.
//
// The framing loosely follows the teacher's rlp package: integers are
// fixed-width big-endian fields, byte strings and strings carry a uvarint
// length prefix, and composite values are the concatenation of their
// fields in declaration order.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Schema version embedded in every top-level envelope. Bumping it is a
// breaking wire change; peers running different versions refuse to talk.
const Version = 1

// Kind tags the payload type inside an Envelope so a receiver can dispatch
// before attempting a field decode.
type Kind uint8

const (
	KindTransaction Kind = iota + 1
	KindBlock
	KindChain
	KindRing
	KindRegistration
	KindAssignment
)

// Marshaler is implemented by every wire type.
type Marshaler interface {
	MarshalWire(w *Writer) error
}

// Unmarshaler is implemented by every wire type.
type Unmarshaler interface {
	UnmarshalWire(r *Reader) error
}

// Writer accumulates a field-ordered binary encoding.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the accumulated encoding.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// WriteUint8 appends a single byte field.
func (w *Writer) WriteUint8(v uint8) { w.buf.WriteByte(v) }

// WriteUint64 appends a fixed-width 8-byte field, big-endian.
func (w *Writer) WriteUint64(v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	w.buf.Write(tmp[:])
}

// WriteInt64 appends a fixed-width signed 8-byte field.
func (w *Writer) WriteInt64(v int64) { w.WriteUint64(uint64(v)) }

// WriteBytes appends a uvarint length prefix followed by raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(b)))
	w.buf.Write(lenBuf[:n])
	w.buf.Write(b)
}

// WriteString appends a length-prefixed UTF-8 string field.
func (w *Writer) WriteString(s string) { w.WriteBytes([]byte(s)) }

// WriteBool appends a single-byte boolean field.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
}

// Reader consumes a field-ordered binary encoding produced by Writer.
type Reader struct {
	buf *bytes.Reader
}

// NewReader wraps data for sequential field decoding.
func NewReader(data []byte) *Reader { return &Reader{buf: bytes.NewReader(data)} }

// Remaining reports how many undecoded bytes are left. A non-zero value
// after a top-level Decode call means the payload carried unknown trailing
// data and must be rejected.
func (r *Reader) Remaining() int { return r.buf.Len() }

// ReadUint8 consumes a single byte field.
func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.buf.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("wire: read uint8: %w", err)
	}
	return b, nil
}

// ReadUint64 consumes a fixed-width 8-byte field.
func (r *Reader) ReadUint64() (uint64, error) {
	var tmp [8]byte
	if _, err := io.ReadFull(r.buf, tmp[:]); err != nil {
		return 0, fmt.Errorf("wire: read uint64: %w", err)
	}
	return binary.BigEndian.Uint64(tmp[:]), nil
}

// ReadInt64 consumes a fixed-width signed 8-byte field.
func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

// ReadBytes consumes a uvarint length prefix and that many raw bytes.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := binary.ReadUvarint(r.buf)
	if err != nil {
		return nil, fmt.Errorf("wire: read length prefix: %w", err)
	}
	const maxFieldLen = 64 << 20 // 64MiB guards against a corrupt/hostile length prefix
	if n > maxFieldLen {
		return nil, fmt.Errorf("wire: field length %d exceeds maximum %d", n, maxFieldLen)
	}
	out := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r.buf, out); err != nil {
			return nil, fmt.Errorf("wire: read %d bytes: %w", n, err)
		}
	}
	return out, nil
}

// ReadString consumes a length-prefixed UTF-8 string field.
func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadBool consumes a single-byte boolean field.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadUint8()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// Encode writes the Version/Kind envelope header followed by v's own
// encoding, the format every peer HTTP body uses.
func Encode(kind Kind, v Marshaler) ([]byte, error) {
	w := NewWriter()
	w.WriteUint8(Version)
	w.WriteUint8(uint8(kind))
	if err := v.MarshalWire(w); err != nil {
		return nil, fmt.Errorf("wire: encode: %w", err)
	}
	return w.Bytes(), nil
}

// Decode validates the envelope header (version and kind must match
// exactly) and decodes the payload into v, rejecting any trailing bytes.
func Decode(data []byte, wantKind Kind, v Unmarshaler) error {
	r := NewReader(data)
	version, err := r.ReadUint8()
	if err != nil {
		return fmt.Errorf("wire: decode: %w", err)
	}
	if version != Version {
		return fmt.Errorf("wire: unsupported schema version %d (want %d)", version, Version)
	}
	kind, err := r.ReadUint8()
	if err != nil {
		return fmt.Errorf("wire: decode: %w", err)
	}
	if Kind(kind) != wantKind {
		return fmt.Errorf("wire: envelope kind %d does not match expected %d", kind, wantKind)
	}
	if err := v.UnmarshalWire(r); err != nil {
		return fmt.Errorf("wire: decode payload: %w", err)
	}
	if r.Remaining() != 0 {
		return fmt.Errorf("wire: %d unexpected trailing bytes", r.Remaining())
	}
	return nil
}
