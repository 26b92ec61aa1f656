package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarintRoundtrip(t *testing.T) {
	w := NewWriter()
	w.AppendVarint(1, 0)
	w.AppendVarint(2, 300)
	w.AppendVarint(3, 1<<40)

	r := NewReader(w.Bytes())
	fields, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, fields, 3)
	assert.Equal(t, uint64(0), fields[0].Varint)
	assert.Equal(t, uint64(300), fields[1].Varint)
	assert.Equal(t, uint64(1<<40), fields[2].Varint)
}

func TestFixed32AndFixed64Roundtrip(t *testing.T) {
	w := NewWriter()
	w.AppendFixed32(1, 3.14)
	w.AppendFixed64(2, 2.71828182845)

	r := NewReader(w.Bytes())
	fields, err := r.ReadAll()
	require.NoError(t, err)
	assert.InDelta(t, float32(3.14), fields[0].Float32(), 0.0001)
	assert.InDelta(t, 2.71828182845, fields[1].Float64(), 0.0000000001)
}

func TestBytesAndStringRoundtrip(t *testing.T) {
	w := NewWriter()
	w.AppendString(1, "hello, world")
	w.AppendBytes(2, []byte{0, 1, 2, 255})

	r := NewReader(w.Bytes())
	fields, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "hello, world", fields[0].String())
	assert.Equal(t, []byte{0, 1, 2, 255}, fields[1].Bytes)
}

func TestRepeatedFieldsPreserveAllOccurrences(t *testing.T) {
	w := NewWriter()
	w.AppendString(5, "a")
	w.AppendString(5, "b")
	w.AppendString(5, "c")

	r := NewReader(w.Bytes())
	fields, err := r.ReadAll()
	require.NoError(t, err)
	g := GroupByField(fields)
	require.Len(t, g[5], 3)
	assert.Equal(t, "c", g[5][2].String())
}

func TestLastOccurrenceWinsForScalar(t *testing.T) {
	w := NewWriter()
	w.AppendVarint(7, 1)
	w.AppendVarint(7, 2)
	w.AppendVarint(7, 3)

	r := NewReader(w.Bytes())
	fields, err := r.ReadAll()
	require.NoError(t, err)
	g := GroupByField(fields)
	last, ok := Last(g, 7)
	require.True(t, ok)
	assert.Equal(t, uint64(3), last.Varint)
}

func TestUnknownFieldsAreSkippable(t *testing.T) {
	w := NewWriter()
	w.AppendVarint(1, 42)
	w.AppendString(99, "unknown to this reader")
	w.AppendVarint(2, 43)

	r := NewReader(w.Bytes())
	fields, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, fields, 3)
	assert.Equal(t, 99, fields[1].Number)
}

func TestTruncatedLengthPrefixIsRejected(t *testing.T) {
	w := NewWriter()
	w.AppendString(1, "hello")
	buf := w.Bytes()
	truncated := buf[:len(buf)-2] // cut into the payload

	r := NewReader(truncated)
	_, err := r.ReadAll()
	assert.Error(t, err)
}

func TestMalformedVarintIsRejected(t *testing.T) {
	// A varint with the continuation bit always set and no terminator.
	buf := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80}
	r := NewReader(buf)
	_, err := r.ReadAll()
	assert.Error(t, err)
}

func TestNestedMessageRoundtrip(t *testing.T) {
	inner := NewWriter()
	inner.AppendString(1, "child")
	outer := NewWriter()
	outer.AppendBytes(1, inner.Bytes())

	r := NewReader(outer.Bytes())
	fields, err := r.ReadAll()
	require.NoError(t, err)

	innerReader := NewReader(fields[0].Bytes)
	innerFields, err := innerReader.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "child", innerFields[0].String())
}
