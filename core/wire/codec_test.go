package wire_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ipc/core/wire"
)

func roundTrip(t *testing.T, v any) any {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, wire.EncodeValue(&buf, v))
	r := bytes.NewReader(buf.Bytes())
	out, err := wire.DecodeValue(r)
	require.NoError(t, err)
	return out
}

func TestEncodeDecodeValue_Undefined(t *testing.T) {
	t.Parallel()
	require.Nil(t, roundTrip(t, nil))
}

func TestEncodeDecodeValue_String(t *testing.T) {
	t.Parallel()
	require.Equal(t, "hi", roundTrip(t, "hi"))
	require.Equal(t, "", roundTrip(t, ""))
}

func TestEncodeDecodeValue_Buffer(t *testing.T) {
	t.Parallel()
	out := roundTrip(t, wire.Buffer{1, 2, 3})
	require.Equal(t, wire.Buffer{1, 2, 3}, out)
}

func TestEncodeDecodeValue_VSBuffer(t *testing.T) {
	t.Parallel()
	out := roundTrip(t, wire.VSBuffer("abc"))
	require.Equal(t, wire.VSBuffer("abc"), out)
}

func TestEncodeDecodeValue_Array(t *testing.T) {
	t.Parallel()
	in := wire.Array{"a", wire.Buffer{1}, nil}
	out := roundTrip(t, in)
	arr, ok := out.(wire.Array)
	require.True(t, ok)
	require.Len(t, arr, 3)
	require.Equal(t, "a", arr[0])
	require.Equal(t, wire.Buffer{1}, arr[1])
	require.Nil(t, arr[2])
}

func TestEncodeDecodeValue_Object(t *testing.T) {
	t.Parallel()

	type payload struct {
		Name string `json:"name"`
		N    int    `json:"n"`
	}

	out := roundTrip(t, payload{Name: "x", N: 7})
	obj, ok := out.(wire.Object)
	require.True(t, ok)

	var got payload
	require.NoError(t, obj.Decode(&got))
	require.Equal(t, payload{Name: "x", N: 7}, got)
}

func TestDecodeValue_Truncated(t *testing.T) {
	t.Parallel()
	r := bytes.NewReader([]byte{byte(wire.TagString), 0, 0, 0, 5, 'h', 'i'})
	_, err := wire.DecodeValue(r)
	require.ErrorIs(t, err, wire.ErrTruncated)
}

func TestDecodeValue_UnknownTag(t *testing.T) {
	t.Parallel()
	r := bytes.NewReader([]byte{0xFF})
	_, err := wire.DecodeValue(r)
	require.ErrorIs(t, err, wire.ErrUnknownTag)
}
