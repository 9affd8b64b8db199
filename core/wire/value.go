package wire

import (
	"encoding/json"
)

// Tag identifies how a Value is encoded on the wire.
type Tag byte

const (
	TagUndefined Tag = 0
	TagString    Tag = 1
	TagBuffer    Tag = 2
	TagVSBuffer  Tag = 3
	TagArray     Tag = 4
	TagObject    Tag = 5
)

// Buffer is a native byte payload (Tag 2). Use it for opaque binary data
// that should never be routed through JSON.
type Buffer []byte

// VSBuffer is an internal byte payload (Tag 3). On the wire it is
// indistinguishable in shape from Buffer; the distinct Go type preserves
// which of the two buffer kinds produced it, so a round trip hands back
// the same kind it was given.
type VSBuffer []byte

// Array is an ordered sequence of Values (Tag 4). Frame headers are always
// encoded as an Array.
type Array []any

// Object wraps a pre-marshaled JSON payload (Tag 5). Any Go value that
// isn't a string, Buffer, VSBuffer, Array, or nil is encoded through
// Object by marshaling it to JSON.
type Object json.RawMessage

// NewObject marshals v into an Object.
func NewObject(v any) (Object, error) {
	if raw, ok := v.(json.RawMessage); ok {
		return Object(raw), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Object(data), nil
}

// Decode unmarshals the Object's JSON into target.
func (o Object) Decode(target any) error {
	if len(o) == 0 {
		return nil
	}
	return json.Unmarshal(o, target)
}

// Raw returns the underlying JSON bytes.
func (o Object) Raw() json.RawMessage {
	return json.RawMessage(o)
}

// MarshalJSON emits the wrapped JSON verbatim. Named types don't inherit
// json.RawMessage's methods, and without this an Object re-marshaled
// inside a larger structure would turn into a base64 byte string.
func (o Object) MarshalJSON() ([]byte, error) {
	if len(o) == 0 {
		return []byte("null"), nil
	}
	return o, nil
}

// UnmarshalJSON stores data verbatim.
func (o *Object) UnmarshalJSON(data []byte) error {
	*o = append((*o)[:0], data...)
	return nil
}

// Wrap prepares v as a frame body value: nil and the three "raw" wire
// kinds (Buffer, VSBuffer, Array) pass through unchanged so callers can
// still send binary or pre-shaped payloads; everything else - including a
// bare string - is marshaled into an Object so the receiving side can
// always Decode it. Without this, EncodeValue's own default case would
// still JSON-wrap structs and maps, but a bare string would be written as
// a Tag 1 string value instead of a JSON string, which Object.Decode on
// the far side can't read back.
func Wrap(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case Buffer, VSBuffer, Array, Object:
		return x, nil
	default:
		return NewObject(v)
	}
}
