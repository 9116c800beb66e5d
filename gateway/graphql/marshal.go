package graphql

import (
	"math"
	"time"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/fermi-controls/extapi-acsys/bridge"
	"github.com/fermi-controls/extapi-acsys/errors"
	"github.com/fermi-controls/extapi-acsys/pkg/timestamp"
)

// Union names, used when collecting fields of their members
const (
	unionDataType         = "DataType"
	unionDeviceInfoResult = "DeviceInfoResult"
)

// executionContext marshals resolved values against the selections of one operation
type executionContext struct {
	opCtx *graphql.OperationContext
}

// object collects the fields of sel that apply to typeName and marshals
// each with resolve. union names the abstract type the object is returned
// through, if any.
func (ec *executionContext) object(sel ast.SelectionSet, typeName, union string,
	resolve func(field graphql.CollectedField) graphql.Marshaler,
) graphql.Marshaler {
	satisfies := []string{typeName}
	if union != "" {
		satisfies = append(satisfies, union)
	}

	fields := graphql.CollectFields(ec.opCtx, sel, satisfies)
	out := graphql.NewFieldSet(fields)
	for i, field := range fields {
		var v graphql.Marshaler
		if field.Name == "__typename" {
			v = graphql.MarshalString(typeName)
		} else {
			v = resolve(field)
		}
		if v == nil {
			v = graphql.Null
		}
		out.Values[i] = v
	}
	return out
}

func (ec *executionContext) errorReply(sel ast.SelectionSet, union, message string) graphql.Marshaler {
	return ec.object(sel, "ErrorReply", union, func(field graphql.CollectedField) graphql.Marshaler {
		if field.Name == "message" {
			return graphql.MarshalString(message)
		}
		return nil
	})
}

// Acquisition

func (ec *executionContext) dataReplies(sel ast.SelectionSet, readings []bridge.Reading) graphql.Marshaler {
	out := make(graphql.Array, len(readings))
	for i := range readings {
		out[i] = ec.dataReply(sel, readings[i])
	}
	return out
}

func (ec *executionContext) dataReply(sel ast.SelectionSet, r bridge.Reading) graphql.Marshaler {
	return ec.object(sel, "DataReply", "", func(field graphql.CollectedField) graphql.Marshaler {
		switch field.Name {
		case "refId":
			return graphql.MarshalInt(r.RefID)
		case "cycle":
			return graphql.MarshalInt64(int64(r.Cycle))
		case "data":
			return ec.dataInfo(field.Selections, r)
		}
		return nil
	})
}

func (ec *executionContext) dataInfo(sel ast.SelectionSet, r bridge.Reading) graphql.Marshaler {
	return ec.object(sel, "DataInfo", "", func(field graphql.CollectedField) graphql.Marshaler {
		switch field.Name {
		case "timestamp":
			return marshalDateTime(r.Timestamp)
		case "result":
			return ec.dataType(field.Selections, r.Value, r.Err)
		case "di":
			return graphql.MarshalInt(0)
		case "name":
			return graphql.MarshalString(r.Name)
		}
		return nil
	})
}

// dataType marshals a reading value as a member of the DataType union. An
// item-level error is reported as ErrorReply.
func (ec *executionContext) dataType(sel ast.SelectionSet, value bridge.Value, err error) graphql.Marshaler {
	if err != nil {
		return ec.errorReply(sel, unionDataType, err.Error())
	}

	switch v := value.(type) {
	case bridge.StatusReply:
		return ec.object(sel, "StatusReply", unionDataType, func(field graphql.CollectedField) graphql.Marshaler {
			if field.Name == "status" {
				return graphql.MarshalInt(int(v.Status))
			}
			return nil
		})
	case bridge.Scalar:
		if !finite(v.Value) {
			return ec.errorReply(sel, unionDataType, msgNonFinite)
		}
		return ec.object(sel, "Scalar", unionDataType, func(field graphql.CollectedField) graphql.Marshaler {
			if field.Name == "scalarValue" {
				return graphql.MarshalFloat(v.Value)
			}
			return nil
		})
	case bridge.ScalarArray:
		if !finite(v.Values...) {
			return ec.errorReply(sel, unionDataType, msgNonFinite)
		}
		return ec.object(sel, "ScalarArray", unionDataType, func(field graphql.CollectedField) graphql.Marshaler {
			if field.Name == "scalarArrayValue" {
				out := make(graphql.Array, len(v.Values))
				for i, f := range v.Values {
					out[i] = graphql.MarshalFloat(f)
				}
				return out
			}
			return nil
		})
	case bridge.Raw:
		return ec.object(sel, "Raw", unionDataType, func(field graphql.CollectedField) graphql.Marshaler {
			if field.Name == "rawValue" {
				out := make(graphql.Array, len(v.Value))
				for i, b := range v.Value {
					out[i] = graphql.MarshalInt(int(b))
				}
				return out
			}
			return nil
		})
	case bridge.Text:
		return ec.object(sel, "Text", unionDataType, func(field graphql.CollectedField) graphql.Marshaler {
			if field.Name == "textValue" {
				return graphql.MarshalString(v.Value)
			}
			return nil
		})
	case bridge.TextArray:
		return ec.object(sel, "TextArray", unionDataType, func(field graphql.CollectedField) graphql.Marshaler {
			if field.Name == "textArrayValue" {
				out := make(graphql.Array, len(v.Values))
				for i, s := range v.Values {
					out[i] = graphql.MarshalString(s)
				}
				return out
			}
			return nil
		})
	case bridge.StructData:
		return ec.object(sel, "StructData", unionDataType, func(field graphql.CollectedField) graphql.Marshaler {
			switch field.Name {
			case "key":
				return graphql.MarshalString(v.Key)
			case "structValue":
				return ec.dataType(field.Selections, v.Value, nil)
			}
			return nil
		})
	}

	return ec.errorReply(sel, unionDataType, errors.ErrUnrecognizedPayload.Error())
}

// Device info

func (ec *executionContext) deviceInfoReply(sel ast.SelectionSet, results []bridge.Result[bridge.DeviceInfo]) graphql.Marshaler {
	return ec.object(sel, "DeviceInfoReply", "", func(field graphql.CollectedField) graphql.Marshaler {
		if field.Name != "result" {
			return nil
		}
		out := make(graphql.Array, len(results))
		for i, r := range results {
			out[i] = ec.deviceInfoResult(field.Selections, r)
		}
		return out
	})
}

func (ec *executionContext) deviceInfoResult(sel ast.SelectionSet, r bridge.Result[bridge.DeviceInfo]) graphql.Marshaler {
	info, ok := r.Get()
	if !ok {
		return ec.errorReply(sel, unionDeviceInfoResult, r.Message())
	}
	return ec.object(sel, "DeviceInfo", unionDeviceInfoResult, func(field graphql.CollectedField) graphql.Marshaler {
		switch field.Name {
		case "description":
			return graphql.MarshalString(info.Description)
		case "reading":
			return ec.deviceProperty(field.Selections, info.Reading)
		case "setting":
			return ec.deviceProperty(field.Selections, info.Setting)
		case "digControl":
			return ec.digitalControl(field.Selections, info.DigControl)
		}
		return nil
	})
}

func (ec *executionContext) deviceProperty(sel ast.SelectionSet, p *bridge.DeviceProperty) graphql.Marshaler {
	if p == nil {
		return graphql.Null
	}
	return ec.object(sel, "DeviceProperty", "", func(field graphql.CollectedField) graphql.Marshaler {
		switch field.Name {
		case "primaryUnits":
			return marshalOptionalString(p.PrimaryUnits)
		case "commonUnits":
			return marshalOptionalString(p.CommonUnits)
		}
		return nil
	})
}

func (ec *executionContext) digitalControl(sel ast.SelectionSet, entries []bridge.DigControlEntry) graphql.Marshaler {
	if entries == nil {
		return graphql.Null
	}
	return ec.object(sel, "DigitalControl", "", func(field graphql.CollectedField) graphql.Marshaler {
		if field.Name != "entries" {
			return nil
		}
		out := make(graphql.Array, len(entries))
		for i, e := range entries {
			out[i] = ec.digitalControlEntry(field.Selections, e)
		}
		return out
	})
}

func (ec *executionContext) digitalControlEntry(sel ast.SelectionSet, e bridge.DigControlEntry) graphql.Marshaler {
	return ec.object(sel, "DigitalControlEntry", "", func(field graphql.CollectedField) graphql.Marshaler {
		switch field.Name {
		case "value":
			return graphql.MarshalInt32(e.Value)
		case "shortName":
			return graphql.MarshalString(e.ShortName)
		case "longName":
			return graphql.MarshalString(e.LongName)
		}
		return nil
	})
}

// Clock

func (ec *executionContext) eventInfo(sel ast.SelectionSet, ev bridge.ClockEvent) graphql.Marshaler {
	return ec.object(sel, "EventInfo", "", func(field graphql.CollectedField) graphql.Marshaler {
		switch field.Name {
		case "timestamp":
			return marshalDateTime(ev.Timestamp)
		case "event":
			return graphql.MarshalInt(int(ev.Event))
		}
		return nil
	})
}

// Scalars

func marshalDateTime(t time.Time) graphql.Marshaler {
	return graphql.MarshalString(timestamp.Format(t))
}

// msgNonFinite replaces a Float! value JSON cannot carry
const msgNonFinite = "non-finite value"

func finite(values ...float64) bool {
	for _, f := range values {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

func marshalOptionalString(s *string) graphql.Marshaler {
	if s == nil {
		return graphql.Null
	}
	return graphql.MarshalString(*s)
}
