package backend

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Timestamp is a google.protobuf.Timestamp: seconds=1, nanos=2.
type Timestamp struct {
	Seconds int64
	Nanos   int32
}

func (m *Timestamp) AppendWire(b []byte) []byte {
	b = appendVarint(b, 1, uint64(m.Seconds))
	b = appendVarint(b, 2, uint64(int64(m.Nanos)))
	return b
}

func (m *Timestamp) UnmarshalWire(b []byte) error {
	*m = Timestamp{}
	return decodeFields("Timestamp", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := consumeVarint(typ, b)
			m.Seconds = int64(v)
			return n, nil
		case 2:
			v, n := consumeVarint(typ, b)
			m.Nanos = int32(v)
			return n, nil
		}
		return 0, nil
	})
}

// AcquisitionList opens a DPM acquisition: session_id=1, req=2 (DRF strings).
type AcquisitionList struct {
	SessionID string
	Req       []string
}

func (m *AcquisitionList) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.SessionID)
	for _, r := range m.Req {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendString(b, r)
	}
	return b
}

func (m *AcquisitionList) UnmarshalWire(b []byte) error {
	*m = AcquisitionList{}
	return decodeFields("AcquisitionList", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := consumeString(typ, b)
			m.SessionID = v
			return n, nil
		case 2:
			v, n := consumeString(typ, b)
			if n > 0 {
				m.Req = append(m.Req, v)
			}
			return n, nil
		}
		return 0, nil
	})
}

// Reading is one item of a DPM acquisition stream: index=1 (position in the
// AcquisitionList), data=2, cycle=3, stamp=4.
type Reading struct {
	Index uint32
	Data  *Data
	Cycle uint64
	Stamp *Timestamp
}

func (m *Reading) AppendWire(b []byte) []byte {
	b = appendVarint(b, 1, uint64(m.Index))
	if m.Data != nil {
		b = appendMessage(b, 2, m.Data)
	}
	b = appendVarint(b, 3, m.Cycle)
	if m.Stamp != nil {
		b = appendMessage(b, 4, m.Stamp)
	}
	return b
}

func (m *Reading) UnmarshalWire(b []byte) error {
	*m = Reading{}
	return decodeFields("Reading", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := consumeVarint(typ, b)
			m.Index = uint32(v)
			return n, nil
		case 2:
			m.Data = new(Data)
			return consumeMessage(typ, b, m.Data)
		case 3:
			v, n := consumeVarint(typ, b)
			m.Cycle = v
			return n, nil
		case 4:
			m.Stamp = new(Timestamp)
			return consumeMessage(typ, b, m.Stamp)
		}
		return 0, nil
	})
}

// Data is the DPM typed payload. Its only content is a oneof:
// scalar=1, scalar_arr=2, status=3 (sint32), raw=4, text=5, text_arr=6,
// struct_data=7. Value is nil when no case is set.
type Data struct {
	Value DataValue
}

// DataValue is one case of the Data oneof.
type DataValue interface {
	isDataValue()
}

type (
	// DataScalar is a scaled floating point reading.
	DataScalar struct{ Scalar float64 }
	// DataScalarArray is a waveform: ScalarArray{value=1 packed double}.
	DataScalarArray struct{ Values []float64 }
	// DataStatus is an ACNET status forwarded by DPM.
	DataStatus struct{ Status int32 }
	// DataRaw is unscaled device bytes.
	DataRaw struct{ Raw []byte }
	// DataText is a string reading.
	DataText struct{ Text string }
	// DataTextArray is TextArray{value=1 repeated string}.
	DataTextArray struct{ Values []string }
	// DataStruct is StructData{key=1, value=2 Data}.
	DataStruct struct {
		Key   string
		Value *Data
	}
	// DataUnknown records a oneof case this package cannot decode.
	DataUnknown struct{ Field protowire.Number }
)

func (DataScalar) isDataValue()      {}
func (DataScalarArray) isDataValue() {}
func (DataStatus) isDataValue()      {}
func (DataRaw) isDataValue()         {}
func (DataText) isDataValue()        {}
func (DataTextArray) isDataValue()   {}
func (DataStruct) isDataValue()      {}
func (DataUnknown) isDataValue()     {}

func (m *Data) AppendWire(b []byte) []byte {
	switch v := m.Value.(type) {
	case DataScalar:
		b = protowire.AppendTag(b, 1, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(v.Scalar))
	case DataScalarArray:
		var arr []byte
		if len(v.Values) > 0 {
			var packed []byte
			for _, f := range v.Values {
				packed = protowire.AppendFixed64(packed, math.Float64bits(f))
			}
			arr = protowire.AppendTag(arr, 1, protowire.BytesType)
			arr = protowire.AppendBytes(arr, packed)
		}
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, arr)
	case DataStatus:
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(v.Status)))
	case DataRaw:
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendBytes(b, v.Raw)
	case DataText:
		b = protowire.AppendTag(b, 5, protowire.BytesType)
		b = protowire.AppendString(b, v.Text)
	case DataTextArray:
		var arr []byte
		for _, s := range v.Values {
			arr = protowire.AppendTag(arr, 1, protowire.BytesType)
			arr = protowire.AppendString(arr, s)
		}
		b = protowire.AppendTag(b, 6, protowire.BytesType)
		b = protowire.AppendBytes(b, arr)
	case DataStruct:
		var sd []byte
		sd = appendString(sd, 1, v.Key)
		if v.Value != nil {
			sd = appendMessage(sd, 2, v.Value)
		}
		b = protowire.AppendTag(b, 7, protowire.BytesType)
		b = protowire.AppendBytes(b, sd)
	case DataUnknown:
		b = protowire.AppendTag(b, v.Field, protowire.BytesType)
		b = protowire.AppendBytes(b, nil)
	}
	return b
}

func (m *Data) UnmarshalWire(b []byte) error {
	*m = Data{}
	return decodeFields("Data", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			if typ != protowire.Fixed64Type {
				return 0, nil
			}
			v, n := protowire.ConsumeFixed64(b)
			m.Value = DataScalar{Scalar: math.Float64frombits(v)}
			return n, nil
		case 2:
			v, n := consumeBytes(typ, b)
			if n <= 0 {
				return n, nil
			}
			values, err := decodeDoubles(v)
			if err != nil {
				return 0, err
			}
			m.Value = DataScalarArray{Values: values}
			return n, nil
		case 3:
			v, n := consumeVarint(typ, b)
			m.Value = DataStatus{Status: int32(protowire.DecodeZigZag(v))}
			return n, nil
		case 4:
			v, n := consumeBytes(typ, b)
			m.Value = DataRaw{Raw: append([]byte{}, v...)}
			return n, nil
		case 5:
			v, n := consumeString(typ, b)
			m.Value = DataText{Text: v}
			return n, nil
		case 6:
			v, n := consumeBytes(typ, b)
			if n <= 0 {
				return n, nil
			}
			values, err := decodeStrings(v)
			if err != nil {
				return 0, err
			}
			m.Value = DataTextArray{Values: values}
			return n, nil
		case 7:
			v, n := consumeBytes(typ, b)
			if n <= 0 {
				return n, nil
			}
			sd, err := decodeStruct(v)
			if err != nil {
				return 0, err
			}
			m.Value = sd
			return n, nil
		}
		m.Value = DataUnknown{Field: num}
		return 0, nil
	})
}

// decodeDoubles reads ScalarArray.value, accepting packed and unpacked encodings.
func decodeDoubles(b []byte) ([]float64, error) {
	values := []float64{}
	err := decodeFields("ScalarArray", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		switch typ {
		case protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n > 0 {
				values = append(values, math.Float64frombits(v))
			}
			return n, nil
		case protowire.BytesType:
			packed, n := protowire.ConsumeBytes(b)
			for len(packed) > 0 {
				v, m := protowire.ConsumeFixed64(packed)
				if m < 0 {
					return m, nil
				}
				values = append(values, math.Float64frombits(v))
				packed = packed[m:]
			}
			return n, nil
		}
		return 0, nil
	})
	return values, err
}

func decodeStrings(b []byte) ([]string, error) {
	values := []string{}
	err := decodeFields("TextArray", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		v, n := consumeString(typ, b)
		if n > 0 {
			values = append(values, v)
		}
		return n, nil
	})
	return values, err
}

func decodeStruct(b []byte) (DataStruct, error) {
	var sd DataStruct
	err := decodeFields("StructData", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := consumeString(typ, b)
			sd.Key = v
			return n, nil
		case 2:
			sd.Value = new(Data)
			return consumeMessage(typ, b, sd.Value)
		}
		return 0, nil
	})
	return sd, err
}
