// Package codec implements the bespoke length-prefixed binary wire format
// of spec.md §4.3. It is deliberately built directly on encoding/binary and
// bytes rather than an ecosystem serialization library: the format is not
// wire-compatible with protobuf or any other schema system (the spec
// requires this explicitly), and no example repo in the reference corpus
// implements an equivalent scheme, so there is no library to ground on or
// reuse (see DESIGN.md).
package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// WireType is one of the four field encodings (spec.md §4.3).
type WireType byte

const (
	WireVarint WireType = 0
	WireFixed32 WireType = 1
	WireFixed64 WireType = 2
	WireBytes   WireType = 3
)

// tag packs a field number and wire type into the leading varint of a field,
// mirroring protobuf's scheme but specific to this format (spec.md §4.3:
// "key = (field_number << 3) | wire_type").
func tag(fieldNumber int, wt WireType) uint64 {
	return uint64(fieldNumber)<<3 | uint64(wt)
}

func untag(key uint64) (fieldNumber int, wt WireType) {
	return int(key >> 3), WireType(key & 0x7)
}

// Writer appends fields to an internal buffer in encounter order. Repeated
// fields are supported by calling the same Append* method multiple times
// with the same field number.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer { return &Writer{} }

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) putVarint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	w.buf = append(w.buf, tmp[:n]...)
}

// AppendVarint writes a varint-typed field (spec.md §4.3: "unbounded
// non-negative integers, little-endian base-128").
func (w *Writer) AppendVarint(fieldNumber int, v uint64) {
	w.putVarint(tag(fieldNumber, WireVarint))
	w.putVarint(v)
}

// AppendBool writes a bool as a 0/1 varint.
func (w *Writer) AppendBool(fieldNumber int, v bool) {
	if v {
		w.AppendVarint(fieldNumber, 1)
	} else {
		w.AppendVarint(fieldNumber, 0)
	}
}

// AppendFixed32 writes an IEEE-754 float32 field.
func (w *Writer) AppendFixed32(fieldNumber int, v float32) {
	w.putVarint(tag(fieldNumber, WireFixed32))
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(v))
	w.buf = append(w.buf, tmp[:]...)
}

// AppendFixed64 writes an IEEE-754 float64 field.
func (w *Writer) AppendFixed64(fieldNumber int, v float64) {
	w.putVarint(tag(fieldNumber, WireFixed64))
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
	w.buf = append(w.buf, tmp[:]...)
}

// AppendBytes writes a length-prefixed byte field.
func (w *Writer) AppendBytes(fieldNumber int, v []byte) {
	w.putVarint(tag(fieldNumber, WireBytes))
	w.putVarint(uint64(len(v)))
	w.buf = append(w.buf, v...)
}

// AppendString writes a length-prefixed UTF-8 string field.
func (w *Writer) AppendString(fieldNumber int, v string) {
	w.AppendBytes(fieldNumber, []byte(v))
}

// AppendMessage writes a nested message as a length-prefixed byte field.
func (w *Writer) AppendMessage(fieldNumber int, m Message) {
	w.AppendBytes(fieldNumber, Encode(m))
}

// Field is one decoded (field_number, wire_type, raw_value) triple. The
// interpretation of Varint/Fixed32/Fixed64/Bytes depends on which accessor
// the caller chooses — the reader does not know message schemas.
type Field struct {
	Number int
	Wire   WireType
	Varint uint64
	Fixed32 uint32
	Fixed64 uint64
	Bytes   []byte
}

// Reader decodes a buffer into a sequence of Fields, stopping at the first
// malformed varint or truncated length prefix (spec.md §4.3 Strictness).
type Reader struct {
	buf []byte
	pos int
}

func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

// ReadAll decodes every field in the buffer. Per spec.md §4.3, a malformed
// varint or truncated length prefix stops decoding and discards the
// remainder of the message — the caller treats this as ParseError.
func (r *Reader) ReadAll() ([]Field, error) {
	var fields []Field
	for r.pos < len(r.buf) {
		f, err := r.readField()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func (r *Reader) readField() (Field, error) {
	key, err := r.readVarint()
	if err != nil {
		return Field{}, fmt.Errorf("codec: malformed tag at offset %d: %w", r.pos, err)
	}
	num, wt := untag(key)
	f := Field{Number: num, Wire: wt}
	switch wt {
	case WireVarint:
		v, err := r.readVarint()
		if err != nil {
			return Field{}, fmt.Errorf("codec: malformed varint field %d: %w", num, err)
		}
		f.Varint = v
	case WireFixed32:
		if r.pos+4 > len(r.buf) {
			return Field{}, fmt.Errorf("codec: truncated fixed32 field %d", num)
		}
		f.Fixed32 = binary.LittleEndian.Uint32(r.buf[r.pos : r.pos+4])
		r.pos += 4
	case WireFixed64:
		if r.pos+8 > len(r.buf) {
			return Field{}, fmt.Errorf("codec: truncated fixed64 field %d", num)
		}
		f.Fixed64 = binary.LittleEndian.Uint64(r.buf[r.pos : r.pos+8])
		r.pos += 8
	case WireBytes:
		n, err := r.readVarint()
		if err != nil {
			return Field{}, fmt.Errorf("codec: malformed length prefix for field %d: %w", num, err)
		}
		if r.pos+int(n) > len(r.buf) {
			return Field{}, fmt.Errorf("codec: truncated bytes field %d", num)
		}
		f.Bytes = append([]byte(nil), r.buf[r.pos:r.pos+int(n)]...)
		r.pos += int(n)
	default:
		return Field{}, fmt.Errorf("codec: unknown wire type %d for field %d", wt, num)
	}
	return f, nil
}

func (r *Reader) readVarint() (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.pos:])
	if n <= 0 {
		return 0, fmt.Errorf("invalid varint")
	}
	r.pos += n
	return v, nil
}

// Float32 reinterprets a Fixed32 field's bits as a float32.
func (f Field) Float32() float32 { return math.Float32frombits(f.Fixed32) }

// Float64 reinterprets a Fixed64 field's bits as a float64.
func (f Field) Float64() float64 { return math.Float64frombits(f.Fixed64) }

// String reinterprets a Bytes field as a UTF-8 string.
func (f Field) String() string { return string(f.Bytes) }

// Bool reinterprets a Varint field as a bool.
func (f Field) Bool() bool { return f.Varint != 0 }

// Message is implemented by every typed record in this package so generic
// helpers (AppendMessage, Encode) can serialize nested messages without a
// reflection-based schema.
type Message interface {
	EncodeTo(w *Writer)
}

// Encode renders any Message to its wire bytes.
func Encode(m Message) []byte {
	w := NewWriter()
	m.EncodeTo(w)
	return w.Bytes()
}

// GroupByField indexes decoded fields by field number, preserving order
// within each group — the "last occurrence wins for scalars, all
// occurrences for repeated fields" rule (spec.md §4.3) is left to the
// caller: callers needing "last wins" should index `g[num][len(g[num])-1]`,
// callers needing "all" should range over `g[num]`.
func GroupByField(fields []Field) map[int][]Field {
	g := make(map[int][]Field, len(fields))
	for _, f := range fields {
		g[f.Number] = append(g[f.Number], f)
	}
	return g
}

// Last returns the last field in a repeated-field group, for "last
// occurrence wins" scalar semantics. ok is false if the group is empty.
func Last(g map[int][]Field, fieldNumber int) (Field, bool) {
	list := g[fieldNumber]
	if len(list) == 0 {
		return Field{}, false
	}
	return list[len(list)-1], true
}
