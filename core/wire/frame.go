package wire

import (
	"bytes"
	"fmt"
)

// MessageType identifies the kind of frame a Header describes.
type MessageType int

const (
	// Request types.
	TypePromise       MessageType = 100
	TypePromiseCancel MessageType = 101
	TypeEventListen   MessageType = 102
	TypeEventDispose  MessageType = 103

	// Response types.
	TypeInitialize      MessageType = 200
	TypePromiseSuccess  MessageType = 201
	TypePromiseError    MessageType = 202
	TypePromiseErrorObj MessageType = 203
	TypeEventFire       MessageType = 204
)

func (t MessageType) String() string {
	switch t {
	case TypePromise:
		return "Promise"
	case TypePromiseCancel:
		return "PromiseCancel"
	case TypeEventListen:
		return "EventListen"
	case TypeEventDispose:
		return "EventDispose"
	case TypeInitialize:
		return "Initialize"
	case TypePromiseSuccess:
		return "PromiseSuccess"
	case TypePromiseError:
		return "PromiseError"
	case TypePromiseErrorObj:
		return "PromiseErrorObj"
	case TypeEventFire:
		return "EventFire"
	default:
		return fmt.Sprintf("MessageType(%d)", int(t))
	}
}

// Header is the routing-relevant prefix of every frame: [type, id?,
// channelName?, name?]. Which fields are meaningful depends on Type.
type Header struct {
	Type        MessageType
	ID          uint32
	ChannelName string
	Name        string
}

// Frame is one complete wire message: a header and its body.
type Frame struct {
	Header Header
	Body   any
}

// EncodeHeader builds the wire Array for h, following the shape required
// by each MessageType (see the package doc).
func EncodeHeader(h Header) Array {
	switch h.Type {
	case TypeInitialize:
		return Array{int(h.Type)}
	case TypePromiseSuccess, TypePromiseError, TypePromiseErrorObj, TypeEventFire,
		TypePromiseCancel, TypeEventDispose:
		return Array{int(h.Type), int(h.ID)}
	case TypePromise, TypeEventListen:
		return Array{int(h.Type), int(h.ID), h.ChannelName, h.Name}
	default:
		return Array{int(h.Type), int(h.ID)}
	}
}

func decodeHeaderArray(arr Array) (Header, error) {
	if len(arr) == 0 {
		return Header{}, fmt.Errorf("wire: empty header array")
	}

	typeVal, err := toInt(arr[0])
	if err != nil {
		return Header{}, fmt.Errorf("wire: header type: %w", err)
	}
	h := Header{Type: MessageType(typeVal)}

	switch h.Type {
	case TypeInitialize:
		return h, nil
	case TypePromiseSuccess, TypePromiseError, TypePromiseErrorObj, TypeEventFire,
		TypePromiseCancel, TypeEventDispose:
		if len(arr) < 2 {
			return Header{}, fmt.Errorf("wire: %s header missing id", h.Type)
		}
		id, err := toInt(arr[1])
		if err != nil {
			return Header{}, fmt.Errorf("wire: %s header id: %w", h.Type, err)
		}
		h.ID = uint32(id)
		return h, nil
	case TypePromise, TypeEventListen:
		if len(arr) < 4 {
			return Header{}, fmt.Errorf("wire: %s header missing fields", h.Type)
		}
		id, err := toInt(arr[1])
		if err != nil {
			return Header{}, fmt.Errorf("wire: %s header id: %w", h.Type, err)
		}
		channelName, ok := arr[2].(string)
		if !ok {
			return Header{}, fmt.Errorf("wire: %s header channelName is not a string", h.Type)
		}
		name, ok := arr[3].(string)
		if !ok {
			return Header{}, fmt.Errorf("wire: %s header name is not a string", h.Type)
		}
		h.ID = uint32(id)
		h.ChannelName = channelName
		h.Name = name
		return h, nil
	default:
		return Header{}, fmt.Errorf("wire: unknown header type %d", typeVal)
	}
}

func toInt(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case uint32:
		return int64(x), nil
	case float64:
		return int64(x), nil
	case Object:
		var n int64
		if err := x.Decode(&n); err != nil {
			return 0, err
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected numeric field, got %T", v)
	}
}

// EncodeFrame serializes f as header-value followed by body-value.
func EncodeFrame(f Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeValue(&buf, EncodeHeader(f.Header)); err != nil {
		return nil, fmt.Errorf("wire: encode header: %w", err)
	}
	if err := EncodeValue(&buf, f.Body); err != nil {
		return nil, fmt.Errorf("wire: encode body: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeFrame parses a complete frame (header value + body value) from data.
func DecodeFrame(data []byte) (Frame, error) {
	r := bytes.NewReader(data)

	headerVal, err := DecodeValue(r)
	if err != nil {
		return Frame{}, fmt.Errorf("wire: decode header: %w", err)
	}
	headerArr, ok := headerVal.(Array)
	if !ok {
		return Frame{}, fmt.Errorf("wire: header value is not an array (got %T)", headerVal)
	}
	header, err := decodeHeaderArray(headerArr)
	if err != nil {
		return Frame{}, err
	}

	body, err := DecodeValue(r)
	if err != nil {
		return Frame{}, fmt.Errorf("wire: decode body: %w", err)
	}

	return Frame{Header: header, Body: body}, nil
}
