package bridge

import (
	"fmt"

	"github.com/fermi-controls/extapi-acsys/errors"
)

// IndexTable maps backend reference indices back to the names the caller
// requested. Positions, not names, are the key, so duplicates are distinct
// entries. A table is never modified after NewIndexTable returns.
type IndexTable struct {
	refs []string
}

// NewIndexTable builds a table from the caller's request list. refs is copied.
func NewIndexTable(refs []string) IndexTable {
	return IndexTable{refs: append([]string(nil), refs...)}
}

// Len returns the number of requested references
func (t IndexTable) Len() int {
	return len(t.refs)
}

// Refs returns a copy of the requested references in order
func (t IndexTable) Refs() []string {
	return append([]string(nil), t.refs...)
}

// Resolve returns the reference at position i. An index outside the table is
// an item-level error wrapping errors.ErrIndexOutOfRange.
func (t IndexTable) Resolve(i int) (string, error) {
	if i < 0 || i >= len(t.refs) {
		return "", errors.Mark(errors.ErrorInvalid,
			fmt.Errorf("%w: %d not in [0, %d)", errors.ErrIndexOutOfRange, i, len(t.refs)),
			"IndexTable", "Resolve")
	}
	return t.refs[i], nil
}
