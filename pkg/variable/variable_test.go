package variable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scipp/scipp-sub001/pkg/dims"
	"github.com/scipp/scipp-sub001/pkg/dtype"
	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
	"github.com/scipp/scipp-sub001/pkg/units"
)

func mustFloat64s(t *testing.T, d dims.Dimensions, u units.Unit, values, variances []float64) *Variable {
	t.Helper()
	v, err := FromFloat64s(d, u, values, variances)
	require.NoError(t, err)
	return v
}

func TestFromFloat64s(t *testing.T) {
	v := mustFloat64s(t, dims.Of("x", 3), units.Meter, []float64{1, 2, 3}, nil)
	assert.Equal(t, dtype.Float64, v.DType())
	assert.False(t, v.HasVariances())
	assert.True(t, v.Unit().Equal(units.Meter))

	vals, err := v.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, vals)

	_, err = FromFloat64s(dims.Of("x", 3), units.Meter, []float64{1, 2}, nil)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindDimension))

	_, err = FromFloat64s(dims.Of("x", 2), units.Meter, []float64{1, 2}, []float64{1})
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindVariances))
}

func TestSliceRoundTrip(t *testing.T) {
	v := mustFloat64s(t, dims.Of("x", 5), units.Meter, []float64{0, 1, 2, 3, 4}, nil)

	s, err := v.Slice("x", 1, 4)
	require.NoError(t, err)
	ext, _ := s.Dims().Extent("x")
	assert.Equal(t, 3, ext)
	got, err := s.GatherFloat64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, got)

	// No data is copied: mutating the slice mutates v.
	repl := mustFloat64s(t, dims.Of("x", 3), units.Meter, []float64{10, 20, 30}, nil)
	require.NoError(t, s.SetFrom(repl))
	vals, err := v.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 10, 20, 30, 4}, vals)

	_, err = v.Slice("x", 3, 6)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindSlice))
	_, err = v.Slice("x", 4, 2)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindSlice))
}

func TestSlicePointDropsDim(t *testing.T) {
	v := mustFloat64s(t, dims.MustNew([]dims.Dim{"x", "y"}, []int{2, 3}),
		units.Meter, []float64{0, 1, 2, 3, 4, 5}, nil)

	row, err := v.SlicePoint("x", 1)
	require.NoError(t, err)
	assert.Equal(t, []dims.Dim{"y"}, row.Dims().Labels())
	got, err := row.GatherFloat64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4, 5}, got)

	col, err := v.SlicePoint("y", 2)
	require.NoError(t, err)
	got, err = col.GatherFloat64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 5}, got)
}

func TestBroadcastIdempotence(t *testing.T) {
	v := mustFloat64s(t, dims.Of("x", 3), units.Meter, []float64{1, 2, 3}, nil)
	same, err := v.Broadcast(v.Dims())
	require.NoError(t, err)
	assert.True(t, Equal(v, same))
}

func TestBroadcastInsertsZeroStride(t *testing.T) {
	v := mustFloat64s(t, dims.Of("x", 2), units.Meter, []float64{1, 2}, nil)
	target := dims.MustNew([]dims.Dim{"y", "x"}, []int{3, 2})

	b, err := v.Broadcast(target)
	require.NoError(t, err)
	got, err := b.GatherFloat64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 1, 2, 1, 2}, got)

	// Extent disagreement fails.
	bad := dims.MustNew([]dims.Dim{"y", "x"}, []int{3, 5})
	_, err = v.Broadcast(bad)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindDimension))
}

func TestTranspose(t *testing.T) {
	v := mustFloat64s(t, dims.MustNew([]dims.Dim{"x", "y"}, []int{2, 3}),
		units.Meter, []float64{0, 1, 2, 3, 4, 5}, nil)

	tr, err := v.Transpose()
	require.NoError(t, err)
	assert.Equal(t, []dims.Dim{"y", "x"}, tr.Dims().Labels())
	got, err := tr.GatherFloat64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 3, 1, 4, 2, 5}, got)

	// Transposing is a view: writes through it hit the source.
	back, err := tr.Transpose("x", "y")
	require.NoError(t, err)
	assert.True(t, Equal(v, back))

	_, err = v.Transpose("x")
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindDimension))
	_, err = v.Transpose("x", "z")
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindDimension))
}

func TestResize(t *testing.T) {
	v := mustFloat64s(t, dims.Of("x", 3), units.Meter, []float64{1, 2, 3}, nil)
	require.NoError(t, v.Resize("x", 5))
	vals, err := v.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 0, 0}, vals)

	require.NoError(t, v.Resize("x", 2))
	vals, err = v.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, vals)

	// Views cannot be resized.
	s, err := v.Slice("x", 0, 1)
	require.NoError(t, err)
	err = s.Resize("x", 4)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindDimension))
}

func TestResizeDetachesViews(t *testing.T) {
	v := mustFloat64s(t, dims.Of("x", 3), units.Meter, []float64{1, 2, 3}, nil)
	view, err := v.Slice("x", 0, 3)
	require.NoError(t, err)

	require.NoError(t, v.Resize("x", 4))
	// The view keeps the old storage alive and unchanged.
	got, err := view.GatherFloat64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, got)
	assert.False(t, view.SharesBufferWith(v))
}

func TestConcatenateInverseOfSplit(t *testing.T) {
	n := 5
	v := mustFloat64s(t, dims.Of("x", n), units.Meter,
		[]float64{1, 2, 3, 4, 5}, []float64{9, 8, 7, 6, 5})

	for k := 0; k <= n; k++ {
		left, err := v.Slice("x", 0, k)
		require.NoError(t, err)
		right, err := v.Slice("x", k, n)
		require.NoError(t, err)
		joined, err := Concatenate(left, right, "x")
		require.NoError(t, err)
		assert.True(t, Equal(v, joined), "split at %d", k)
	}
}

func TestConcatenateChecks(t *testing.T) {
	a := mustFloat64s(t, dims.Of("x", 2), units.Meter, []float64{1, 2}, nil)
	b := mustFloat64s(t, dims.Of("x", 2), units.Second, []float64{3, 4}, nil)
	_, err := Concatenate(a, b, "x")
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindUnit))

	c, err := FromInt64s(dims.Of("x", 2), units.Meter, []int64{1, 2})
	require.NoError(t, err)
	_, err = Concatenate(a, c, "x")
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindDType))

	d := mustFloat64s(t, dims.Of("x", 2), units.Meter, []float64{1, 2}, []float64{1, 1})
	_, err = Concatenate(a, d, "x")
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindVariances))
}

func TestConcatenateNewDim(t *testing.T) {
	a := Scalar(1, units.Meter)
	b := Scalar(2, units.Meter)
	joined, err := Concatenate(a, b, "run")
	require.NoError(t, err)
	got, err := joined.GatherFloat64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, got)
}

func TestConcatenateBinEdges(t *testing.T) {
	a := mustFloat64s(t, dims.Of("x", 3), units.Meter, []float64{0, 1, 2}, nil)
	b := mustFloat64s(t, dims.Of("x", 3), units.Meter, []float64{2, 3, 4}, nil)

	joined, err := ConcatenateBinEdges(a, b, "x")
	require.NoError(t, err)
	got, err := joined.GatherFloat64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3, 4}, got)

	// Discontinuous edges fail.
	c := mustFloat64s(t, dims.Of("x", 3), units.Meter, []float64{5, 6, 7}, nil)
	_, err = ConcatenateBinEdges(a, c, "x")
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindBinEdge))
}

func TestCopyIsUnaliased(t *testing.T) {
	v := mustFloat64s(t, dims.Of("x", 3), units.Meter, []float64{1, 2, 3}, []float64{4, 5, 6})
	c := v.Copy()
	assert.True(t, Equal(v, c))
	assert.False(t, c.SharesBufferWith(v))

	vals, err := c.Float64s()
	require.NoError(t, err)
	vals[0] = 99
	orig, _ := v.Float64s()
	assert.Equal(t, 1.0, orig[0])
}

func TestCopyOfStridedView(t *testing.T) {
	v := mustFloat64s(t, dims.MustNew([]dims.Dim{"x", "y"}, []int{2, 3}),
		units.Meter, []float64{0, 1, 2, 3, 4, 5}, nil)
	tr, err := v.Transpose()
	require.NoError(t, err)

	c := tr.Copy()
	assert.False(t, c.SharesBufferWith(v))
	vals, err := c.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 3, 1, 4, 2, 5}, vals)
}

func TestShallowCopyAliases(t *testing.T) {
	v := mustFloat64s(t, dims.Of("x", 2), units.Meter, []float64{1, 2}, nil)
	sc := v.ShallowCopy()
	assert.True(t, sc.SharesBufferWith(v))

	repl := mustFloat64s(t, dims.Of("x", 2), units.Meter, []float64{7, 8}, nil)
	require.NoError(t, sc.SetFrom(repl))
	got, _ := v.Float64s()
	assert.Equal(t, []float64{7, 8}, got)
}

func TestReadonly(t *testing.T) {
	v := mustFloat64s(t, dims.Of("x", 2), units.Meter, []float64{1, 2}, nil)
	ro := v.AsReadonly()

	_, err := ro.Float64s()
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindReadonly))
	err = ro.SetFrom(v)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindReadonly))
	err = ro.SetUnit(units.Second)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindReadonly))
	err = ro.Resize("x", 5)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindReadonly))

	// Gather accessors still read.
	got, err := ro.GatherFloat64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, got)
}

func TestSelfAssignmentThroughAliasedViews(t *testing.T) {
	v := mustFloat64s(t, dims.Of("x", 4), units.Meter, []float64{1, 2, 3, 4}, nil)
	dst, err := v.Slice("x", 0, 3)
	require.NoError(t, err)
	src, err := v.Slice("x", 1, 4)
	require.NoError(t, err)

	// Overlapping self-assignment stages through a copy.
	require.NoError(t, dst.SetFrom(src))
	got, _ := v.Float64s()
	assert.Equal(t, []float64{2, 3, 4, 4}, got)
}

func TestRaggedVariable(t *testing.T) {
	d := dims.Of("spectrum", 3)
	require.NoError(t, d.AddRagged("event"))

	v, err := FromEventLists(d, units.Meter, [][]float64{{1, 2}, {}, {3}})
	require.NoError(t, err)
	lists, err := v.EventLists()
	require.NoError(t, err)
	assert.Len(t, lists, 3)
	assert.Equal(t, []float64{1, 2}, lists[0])

	// Slicing the ragged dimension is not allowed.
	_, err = v.Slice("event", 0, 1)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindSparseData))

	// Slicing the dense dimension works.
	s, err := v.Slice("spectrum", 2, 3)
	require.NoError(t, err)
	sl, err := s.GatherEventLists()
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{3}}, sl)

	// Dense dtype with ragged dims is rejected.
	_, err = New(d, dtype.Float64, units.Meter, false)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindSparseData))
}

func TestEqual(t *testing.T) {
	a := mustFloat64s(t, dims.Of("x", 2), units.Meter, []float64{1, 2}, nil)
	b := mustFloat64s(t, dims.Of("x", 2), units.Meter, []float64{1, 2}, nil)
	assert.True(t, Equal(a, b))

	c := mustFloat64s(t, dims.Of("x", 2), units.Second, []float64{1, 2}, nil)
	assert.False(t, Equal(a, c))

	d := mustFloat64s(t, dims.Of("x", 2), units.Meter, []float64{1, 3}, nil)
	assert.False(t, Equal(a, d))

	e := mustFloat64s(t, dims.Of("x", 2), units.Meter, []float64{1, 2}, []float64{0, 0})
	assert.False(t, Equal(a, e))
}
