package backend

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// DeviceList is the DevDB request: device=1.
type DeviceList struct {
	Device []string
}

func (m *DeviceList) AppendWire(b []byte) []byte {
	for _, d := range m.Device {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, d)
	}
	return b
}

func (m *DeviceList) UnmarshalWire(b []byte) error {
	*m = DeviceList{}
	return decodeFields("DeviceList", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		v, n := consumeString(typ, b)
		if n > 0 {
			m.Device = append(m.Device, v)
		}
		return n, nil
	})
}

// DeviceInfoReply carries one InfoEntry per requested device, in request
// order: set=1.
type DeviceInfoReply struct {
	Set []*InfoEntry
}

func (m *DeviceInfoReply) AppendWire(b []byte) []byte {
	for _, e := range m.Set {
		b = appendMessage(b, 1, e)
	}
	return b
}

func (m *DeviceInfoReply) UnmarshalWire(b []byte) error {
	*m = DeviceInfoReply{}
	return decodeFields("DeviceInfoReply", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		e := new(InfoEntry)
		n, err := consumeMessage(typ, b, e)
		if n > 0 && err == nil {
			m.Set = append(m.Set, e)
		}
		return n, err
	})
}

// InfoEntry is name=1 plus the oneof result {device=2, err_msg=3}.
// Result is nil when the backend set neither case.
type InfoEntry struct {
	Name   string
	Result InfoResult
}

// InfoResult is one case of the InfoEntry oneof.
type InfoResult interface {
	isInfoResult()
}

type (
	// InfoDevice holds the device information for a successful lookup.
	InfoDevice struct{ Device *DeviceInfo }
	// InfoErrMsg is the DevDB explanation for a failed lookup.
	InfoErrMsg struct{ ErrMsg string }
)

func (InfoDevice) isInfoResult() {}
func (InfoErrMsg) isInfoResult() {}

func (m *InfoEntry) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Name)
	switch r := m.Result.(type) {
	case InfoDevice:
		if r.Device != nil {
			b = appendMessage(b, 2, r.Device)
		}
	case InfoErrMsg:
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendString(b, r.ErrMsg)
	}
	return b
}

func (m *InfoEntry) UnmarshalWire(b []byte) error {
	*m = InfoEntry{}
	return decodeFields("InfoEntry", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := consumeString(typ, b)
			m.Name = v
			return n, nil
		case 2:
			di := new(DeviceInfo)
			n, err := consumeMessage(typ, b, di)
			if n > 0 && err == nil {
				m.Result = InfoDevice{Device: di}
			}
			return n, err
		case 3:
			v, n := consumeString(typ, b)
			if n > 0 {
				m.Result = InfoErrMsg{ErrMsg: v}
			}
			return n, nil
		}
		return 0, nil
	})
}

// DeviceInfo is description=1, reading=2, setting=3, dig_control=4.
type DeviceInfo struct {
	Description string
	Reading     *Property
	Setting     *Property
	DigControl  *DigitalControl
}

func (m *DeviceInfo) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Description)
	if m.Reading != nil {
		b = appendMessage(b, 2, m.Reading)
	}
	if m.Setting != nil {
		b = appendMessage(b, 3, m.Setting)
	}
	if m.DigControl != nil {
		b = appendMessage(b, 4, m.DigControl)
	}
	return b
}

func (m *DeviceInfo) UnmarshalWire(b []byte) error {
	*m = DeviceInfo{}
	return decodeFields("DeviceInfo", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := consumeString(typ, b)
			m.Description = v
			return n, nil
		case 2:
			m.Reading = new(Property)
			return consumeMessage(typ, b, m.Reading)
		case 3:
			m.Setting = new(Property)
			return consumeMessage(typ, b, m.Setting)
		case 4:
			m.DigControl = new(DigitalControl)
			return consumeMessage(typ, b, m.DigControl)
		}
		return 0, nil
	})
}

// Property describes a reading or setting property. Both fields are proto3
// optional: primary_units=1, common_units=2.
type Property struct {
	PrimaryUnits *string
	CommonUnits  *string
}

func (m *Property) AppendWire(b []byte) []byte {
	if m.PrimaryUnits != nil {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, *m.PrimaryUnits)
	}
	if m.CommonUnits != nil {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendString(b, *m.CommonUnits)
	}
	return b
}

func (m *Property) UnmarshalWire(b []byte) error {
	*m = Property{}
	return decodeFields("Property", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1, 2:
			v, n := consumeString(typ, b)
			if n <= 0 {
				return n, nil
			}
			if num == 1 {
				m.PrimaryUnits = &v
			} else {
				m.CommonUnits = &v
			}
			return n, nil
		}
		return 0, nil
	})
}

// DigitalControl lists the device's digital commands: cmds=1.
type DigitalControl struct {
	Cmds []*DigitalControlItem
}

func (m *DigitalControl) AppendWire(b []byte) []byte {
	for _, c := range m.Cmds {
		b = appendMessage(b, 1, c)
	}
	return b
}

func (m *DigitalControl) UnmarshalWire(b []byte) error {
	*m = DigitalControl{}
	return decodeFields("DigitalControl", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		item := new(DigitalControlItem)
		n, err := consumeMessage(typ, b, item)
		if n > 0 && err == nil {
			m.Cmds = append(m.Cmds, item)
		}
		return n, err
	})
}

// DigitalControlItem is value=1, short_name=2, long_name=3.
type DigitalControlItem struct {
	Value     uint32
	ShortName string
	LongName  string
}

func (m *DigitalControlItem) AppendWire(b []byte) []byte {
	b = appendVarint(b, 1, uint64(m.Value))
	b = appendString(b, 2, m.ShortName)
	b = appendString(b, 3, m.LongName)
	return b
}

func (m *DigitalControlItem) UnmarshalWire(b []byte) error {
	*m = DigitalControlItem{}
	return decodeFields("DigitalControlItem", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := consumeVarint(typ, b)
			m.Value = uint32(v)
			return n, nil
		case 2:
			v, n := consumeString(typ, b)
			m.ShortName = v
			return n, nil
		case 3:
			v, n := consumeString(typ, b)
			m.LongName = v
			return n, nil
		}
		return 0, nil
	})
}
