package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrTruncated is returned when a frame's declared length byte count exceeds
// the bytes actually available to the decoder.
var ErrTruncated = errors.New("wire: truncated frame")

// ErrUnknownTag is returned when a decoder encounters a tag byte outside the
// range defined by this codec.
var ErrUnknownTag = errors.New("wire: unknown value tag")

// EncodeValue appends the tag-length-value encoding of v to w.
//
// v must be one of: nil, string, Buffer, VSBuffer, Array, Object, or any
// other value that encoding/json can marshal (encoded via the Object case).
func EncodeValue(w *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		w.WriteByte(byte(TagUndefined))
		return nil
	case string:
		w.WriteByte(byte(TagString))
		writeLengthPrefixed(w, []byte(val))
		return nil
	case Buffer:
		w.WriteByte(byte(TagBuffer))
		writeLengthPrefixed(w, val)
		return nil
	case VSBuffer:
		w.WriteByte(byte(TagVSBuffer))
		writeLengthPrefixed(w, val)
		return nil
	case Array:
		w.WriteByte(byte(TagArray))
		var body bytes.Buffer
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(val)))
		body.Write(lenBuf[:])
		for _, elem := range val {
			if err := EncodeValue(&body, elem); err != nil {
				return err
			}
		}
		w.Write(body.Bytes())
		return nil
	case Object:
		w.WriteByte(byte(TagObject))
		writeLengthPrefixed(w, val)
		return nil
	default:
		obj, err := NewObject(v)
		if err != nil {
			return fmt.Errorf("wire: encode object: %w", err)
		}
		return EncodeValue(w, obj)
	}
}

func writeLengthPrefixed(w *bytes.Buffer, data []byte) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	w.Write(lenBuf[:])
	w.Write(data)
}

// DecodeValue reads one tag-length-value encoded value from r.
//
// The returned value is one of: nil, string, Buffer, VSBuffer, Array (of
// the same set of types, recursively), or Object.
func DecodeValue(r *bytes.Reader) (any, error) {
	tagByte, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: reading tag: %w", ErrTruncated, err)
	}

	switch Tag(tagByte) {
	case TagUndefined:
		return nil, nil
	case TagString:
		data, err := readLengthPrefixed(r)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	case TagBuffer:
		data, err := readLengthPrefixed(r)
		if err != nil {
			return nil, err
		}
		return Buffer(data), nil
	case TagVSBuffer:
		data, err := readLengthPrefixed(r)
		if err != nil {
			return nil, err
		}
		return VSBuffer(data), nil
	case TagArray:
		n, err := readLength(r)
		if err != nil {
			return nil, err
		}
		arr := make(Array, 0, n)
		for i := uint32(0); i < n; i++ {
			elem, err := DecodeValue(r)
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil
	case TagObject:
		data, err := readLengthPrefixed(r)
		if err != nil {
			return nil, err
		}
		return Object(data), nil
	default:
		return nil, fmt.Errorf("%w: tag %d", ErrUnknownTag, tagByte)
	}
}

func readLength(r *bytes.Reader) (uint32, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return 0, fmt.Errorf("%w: reading length: %w", ErrTruncated, err)
	}
	return binary.BigEndian.Uint32(lenBuf[:]), nil
}

func readLengthPrefixed(r *bytes.Reader) ([]byte, error) {
	n, err := readLength(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: reading content: %w", ErrTruncated, err)
	}
	return buf, nil
}
