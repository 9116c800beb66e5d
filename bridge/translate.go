package bridge

import (
	"slices"

	"github.com/fermi-controls/extapi-acsys/backend"
	"github.com/fermi-controls/extapi-acsys/errors"
)

// Translate converts a backend payload into a Value. It is total: a nil
// payload, an empty oneof or a case this package does not know yields an
// error wrapping errors.ErrUnrecognizedPayload. Slices are copied so the
// result shares nothing with d.
func Translate(d *backend.Data) (Value, error) {
	if d == nil {
		return nil, unrecognizedPayload()
	}

	switch v := d.Value.(type) {
	case backend.DataScalar:
		return Scalar{Value: v.Scalar}, nil
	case backend.DataScalarArray:
		return ScalarArray{Values: slices.Clone(v.Values)}, nil
	case backend.DataStatus:
		return StatusReply{Status: int16(v.Status)}, nil
	case backend.DataRaw:
		return Raw{Value: slices.Clone(v.Raw)}, nil
	case backend.DataText:
		return Text{Value: v.Text}, nil
	case backend.DataTextArray:
		return TextArray{Values: slices.Clone(v.Values)}, nil
	case backend.DataStruct:
		inner, err := Translate(v.Value)
		if err != nil {
			return nil, err
		}
		return StructData{Key: v.Key, Value: inner}, nil
	default:
		return nil, unrecognizedPayload()
	}
}

func unrecognizedPayload() error {
	return errors.Mark(errors.ErrorInvalid, errors.ErrUnrecognizedPayload, "Translator", "Translate")
}
