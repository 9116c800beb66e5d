package backend

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// SubscribeReq registers for clock events: events=1 (packed int32).
type SubscribeReq struct {
	Events []int32
}

func (m *SubscribeReq) AppendWire(b []byte) []byte {
	if len(m.Events) == 0 {
		return b
	}
	var packed []byte
	for _, e := range m.Events {
		packed = protowire.AppendVarint(packed, uint64(int64(e)))
	}
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	return protowire.AppendBytes(b, packed)
}

func (m *SubscribeReq) UnmarshalWire(b []byte) error {
	*m = SubscribeReq{}
	return decodeFields("SubscribeReq", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n > 0 {
				m.Events = append(m.Events, int32(v))
			}
			return n, nil
		case protowire.BytesType:
			packed, n := protowire.ConsumeBytes(b)
			for len(packed) > 0 {
				v, k := protowire.ConsumeVarint(packed)
				if k < 0 {
					return k, nil
				}
				m.Events = append(m.Events, int32(v))
				packed = packed[k:]
			}
			return n, nil
		}
		return 0, nil
	})
}

// EventInfo is one clock event: stamp=1, event=2.
type EventInfo struct {
	Stamp *Timestamp
	Event int32
}

func (m *EventInfo) AppendWire(b []byte) []byte {
	if m.Stamp != nil {
		b = appendMessage(b, 1, m.Stamp)
	}
	b = appendVarint(b, 2, uint64(int64(m.Event)))
	return b
}

func (m *EventInfo) UnmarshalWire(b []byte) error {
	*m = EventInfo{}
	return decodeFields("EventInfo", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			m.Stamp = new(Timestamp)
			return consumeMessage(typ, b, m.Stamp)
		case 2:
			v, n := consumeVarint(typ, b)
			m.Event = int32(v)
			return n, nil
		}
		return 0, nil
	})
}
