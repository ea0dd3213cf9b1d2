package intern

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeTableInternSymbol(t *testing.T) {
	tbl := NewEncodeTable()

	idx, first := tbl.InternSymbol("cats")
	require.Equal(t, 0, idx)
	require.True(t, first)

	idx, first = tbl.InternSymbol("cats")
	require.Equal(t, 0, idx)
	require.False(t, first)

	idx, first = tbl.InternSymbol("dogs")
	require.Equal(t, 1, idx)
	require.True(t, first)
}

func TestEncodeTableNewLayoutReusesSymbols(t *testing.T) {
	tbl := NewEncodeTable()

	idx, keyIdx, keyFirst := tbl.NewLayout([]string{"name", "species"})
	require.Equal(t, 2, idx) // after the two symbol entries
	require.Equal(t, []int{0, 1}, keyIdx)
	require.Equal(t, []bool{true, true}, keyFirst)

	_, ok := tbl.LookupLayout([]string{"name", "species"})
	require.True(t, ok)

	_, ok = tbl.LookupLayout([]string{"species", "name"})
	require.False(t, ok, "order matters for layout identity")

	idx2, keyIdx2, keyFirst2 := tbl.NewLayout([]string{"name", "age"})
	require.Equal(t, []int{0, 3}, keyIdx2) // "name" reused, "age" new
	require.Equal(t, []bool{false, true}, keyFirst2)
	require.NotEqual(t, idx, idx2)
}

func TestDecodeTableRoundTrip(t *testing.T) {
	var tbl DecodeTable

	i0 := tbl.PushSymbol("name")
	i1 := tbl.PushSymbol("species")
	rec := tbl.PushLayout([]int{i0, i1})

	e, ok := tbl.Get(uint64(rec))
	require.True(t, ok)
	require.Equal(t, RecKind, e.Kind)
	require.Equal(t, []string{"name", "species"}, tbl.Names(e.Layout))

	_, ok = tbl.Get(99)
	require.False(t, ok)
}
