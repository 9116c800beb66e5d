package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fermi-controls/extapi-acsys/errors"
)

func TestIndexTable_Resolve(t *testing.T) {
	table := NewIndexTable([]string{"A", "B", "C"})
	require.Equal(t, 3, table.Len())

	name, err := table.Resolve(1)
	require.NoError(t, err)
	assert.Equal(t, "B", name)

	for _, i := range []int{-1, 3, 1000} {
		_, err := table.Resolve(i)
		require.Error(t, err, "index %d", i)
		assert.True(t, errors.Is(err, errors.ErrIndexOutOfRange))
		assert.True(t, errors.IsInvalid(err))
	}
}

func TestIndexTable_Empty(t *testing.T) {
	table := NewIndexTable(nil)
	assert.Equal(t, 0, table.Len())

	_, err := table.Resolve(0)
	assert.True(t, errors.Is(err, errors.ErrIndexOutOfRange))
}

func TestIndexTable_DuplicatesAreDistinctPositions(t *testing.T) {
	table := NewIndexTable([]string{"M:OUTTMP", "M:OUTTMP@p,1H", "M:OUTTMP"})

	first, err := table.Resolve(0)
	require.NoError(t, err)
	last, err := table.Resolve(2)
	require.NoError(t, err)
	assert.Equal(t, first, last)

	middle, err := table.Resolve(1)
	require.NoError(t, err)
	assert.Equal(t, "M:OUTTMP@p,1H", middle)
}

func TestIndexTable_CopiesInput(t *testing.T) {
	refs := []string{"A", "B"}
	table := NewIndexTable(refs)
	refs[0] = "changed"

	name, err := table.Resolve(0)
	require.NoError(t, err)
	assert.Equal(t, "A", name)

	out := table.Refs()
	out[1] = "changed"
	name, err = table.Resolve(1)
	require.NoError(t, err)
	assert.Equal(t, "B", name)
}

func TestResult(t *testing.T) {
	ok := Ok(42)
	v, isOk := ok.Get()
	assert.True(t, isOk)
	assert.Equal(t, 42, v)
	assert.Empty(t, ok.Message())

	fail := Fail[int]("device not found")
	_, isOk = fail.Get()
	assert.False(t, isOk)
	assert.False(t, fail.IsOk())
	assert.Equal(t, "device not found", fail.Message())

	all := failAll[string](3, "down")
	require.Len(t, all, 3)
	for _, r := range all {
		assert.Equal(t, "down", r.Message())
	}
	assert.Empty(t, failAll[string](0, "down"))
}
