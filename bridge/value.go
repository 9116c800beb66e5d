package bridge

// Value is a translated device reading. Exactly one of the types below
// implements it for any given reading.
type Value interface {
	isValue()
}

// StatusReply is an ACNET status code returned in place of data.
type StatusReply struct {
	Status int16
}

// Scalar is a single scaled reading.
type Scalar struct {
	Value float64
}

// ScalarArray is a waveform of scaled readings.
type ScalarArray struct {
	Values []float64
}

// Raw is unscaled device data.
type Raw struct {
	Value []byte
}

// Text is a string reading.
type Text struct {
	Value string
}

// TextArray is a list of string readings.
type TextArray struct {
	Values []string
}

// StructData is one keyed field of a structured reading. Value may itself be
// a StructData.
type StructData struct {
	Key   string
	Value Value
}

func (StatusReply) isValue() {}
func (Scalar) isValue()      {}
func (ScalarArray) isValue() {}
func (Raw) isValue()         {}
func (Text) isValue()        {}
func (TextArray) isValue()   {}
func (StructData) isValue()  {}
