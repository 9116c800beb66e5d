package backend

import (
	"fmt"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/fermi-controls/extapi-acsys/errors"
)

// Message is implemented by every backend request and reply type.
type Message interface {
	// AppendWire appends the protobuf encoding of the message to b.
	AppendWire(b []byte) []byte
	// UnmarshalWire replaces the message contents with the decoded bytes.
	UnmarshalWire(b []byte) error
}

// Codec encodes Message values for gRPC. It reports the name "proto" so the
// content-subtype on the wire stays application/grpc+proto.
var Codec encoding.Codec = wireCodec{}

type wireCodec struct{}

func (wireCodec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, errors.WrapInvalid(fmt.Errorf("%T is not a backend message", v),
			"Codec", "Marshal", "message type check")
	}
	return m.AppendWire(nil), nil
}

func (wireCodec) Unmarshal(data []byte, v any) error {
	m, ok := v.(Message)
	if !ok {
		return errors.WrapInvalid(fmt.Errorf("%T is not a backend message", v),
			"Codec", "Unmarshal", "message type check")
	}
	return m.UnmarshalWire(data)
}

func (wireCodec) Name() string {
	return "proto"
}

// fieldFunc consumes the value of one field and returns the number of bytes
// used. Returning 0 marks the field as unknown so it is skipped.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

func decodeFields(msg string, b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return parseError(msg, protowire.ParseError(n))
		}
		b = b[n:]

		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if m == 0 {
			m = protowire.ConsumeFieldValue(num, typ, b)
		}
		if m < 0 {
			return parseError(msg, protowire.ParseError(m))
		}
		b = b[m:]
	}
	return nil
}

func parseError(msg string, err error) error {
	return errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrParsingFailed, err),
		msg, "UnmarshalWire", "decode")
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendMessage(b []byte, num protowire.Number, m Message) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m.AppendWire(nil))
}

func consumeVarint(typ protowire.Type, b []byte) (uint64, int) {
	if typ != protowire.VarintType {
		return 0, 0
	}
	return protowire.ConsumeVarint(b)
}

func consumeBytes(typ protowire.Type, b []byte) ([]byte, int) {
	if typ != protowire.BytesType {
		return nil, 0
	}
	return protowire.ConsumeBytes(b)
}

func consumeString(typ protowire.Type, b []byte) (string, int) {
	v, n := consumeBytes(typ, b)
	return string(v), n
}

// consumeMessage decodes a length-delimited sub-message into m.
func consumeMessage(typ protowire.Type, b []byte, m Message) (int, error) {
	v, n := consumeBytes(typ, b)
	if n <= 0 {
		return n, nil
	}
	if err := m.UnmarshalWire(v); err != nil {
		return 0, err
	}
	return n, nil
}
