package transform

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scipp/scipp-sub001/pkg/config"
	"github.com/scipp/scipp-sub001/pkg/dims"
	"github.com/scipp/scipp-sub001/pkg/dtype"
	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
	"github.com/scipp/scipp-sub001/pkg/units"
	"github.com/scipp/scipp-sub001/pkg/variable"
)

func mustFloat64s(t *testing.T, d dims.Dimensions, u units.Unit, values, variances []float64) *variable.Variable {
	t.Helper()
	v, err := variable.FromFloat64s(d, u, values, variances)
	require.NoError(t, err)
	return v
}

func float64Data(t *testing.T, v *variable.Variable) []float64 {
	t.Helper()
	data, err := v.Buffer().Float64s()
	require.NoError(t, err)
	return data
}

func TestAddPropagatesVariances(t *testing.T) {
	d := dims.Of("x", 3)
	a := mustFloat64s(t, d, units.Meter, []float64{1, 2, 3}, []float64{0.1, 0.2, 0.3})
	b := mustFloat64s(t, d, units.Meter, []float64{10, 20, 30}, []float64{1, 2, 3})

	out, err := Add(a, b)
	require.NoError(t, err)
	assert.True(t, out.Unit().Equal(units.Meter))
	assert.True(t, out.HasVariances())
	assert.Equal(t, []float64{11, 22, 33}, float64Data(t, out))

	variances, err := out.Buffer().Float64Variances()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.1, 2.2, 3.3}, variances, 1e-12)
}

func TestAddMixedVariancePresence(t *testing.T) {
	d := dims.Of("x", 2)
	a := mustFloat64s(t, d, units.Counts, []float64{4, 9}, []float64{4, 9})
	b := mustFloat64s(t, d, units.Counts, []float64{1, 1}, nil)

	out, err := Add(a, b)
	require.NoError(t, err)
	require.True(t, out.HasVariances())
	variances, err := out.Buffer().Float64Variances()
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 9}, variances)
}

func TestAddUnitMismatch(t *testing.T) {
	d := dims.Of("x", 2)
	a := mustFloat64s(t, d, units.Meter, []float64{1, 2}, nil)
	b := mustFloat64s(t, d, units.Second, []float64{1, 2}, nil)

	_, err := Add(a, b)
	require.Error(t, err)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindUnit))
}

func TestMulCombinesUnitsAndVariances(t *testing.T) {
	d := dims.Of("x", 2)
	a := mustFloat64s(t, d, units.Meter, []float64{3, 5}, []float64{0.5, 0.25})
	b := mustFloat64s(t, d, units.Second, []float64{2, 4}, []float64{1, 2})

	out, err := Mul(a, b)
	require.NoError(t, err)
	assert.True(t, out.Unit().Equal(units.Meter.Mul(units.Second)))
	assert.Equal(t, []float64{6, 20}, float64Data(t, out))

	// b*b*av + a*a*bv
	variances, err := out.Buffer().Float64Variances()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{4*0.5 + 9*1, 16*0.25 + 25*2}, variances, 1e-12)
}

func TestDivVariance(t *testing.T) {
	d := dims.Of("x", 1)
	a := mustFloat64s(t, d, units.Meter, []float64{6}, []float64{0.9})
	b := mustFloat64s(t, d, units.Second, []float64{2}, []float64{0.4})

	out, err := Div(a, b)
	require.NoError(t, err)
	assert.True(t, out.Unit().Equal(units.Meter.Div(units.Second)))
	assert.Equal(t, []float64{3}, float64Data(t, out))

	variances, err := out.Buffer().Float64Variances()
	require.NoError(t, err)
	want := 0.9/4 + 36*0.4/16
	assert.InDelta(t, want, variances[0], 1e-12)
}

func TestBroadcastAdd(t *testing.T) {
	a := mustFloat64s(t, dims.Of("x", 3), units.Meter, []float64{1, 2, 3}, nil)
	b := mustFloat64s(t, dims.Of("y", 2), units.Meter, []float64{10, 20}, nil)

	out, err := Add(a, b)
	require.NoError(t, err)
	want := dims.MustNew([]dims.Dim{"x", "y"}, []int{3, 2})
	assert.True(t, out.Dims().Equal(want))
	assert.Equal(t, []float64{11, 21, 12, 22, 13, 23}, float64Data(t, out))
}

func TestScalarBroadcast(t *testing.T) {
	a := mustFloat64s(t, dims.Of("x", 3), units.Meter, []float64{1, 2, 3}, nil)
	out, err := Mul(a, variable.Scalar(2, units.Dimensionless))
	require.NoError(t, err)
	assert.True(t, out.Dims().Equal(dims.Of("x", 3)))
	assert.Equal(t, []float64{2, 4, 6}, float64Data(t, out))
	assert.True(t, out.Unit().Equal(units.Meter))
}

func TestBroadcastExtentMismatch(t *testing.T) {
	a := mustFloat64s(t, dims.Of("x", 3), units.Meter, []float64{1, 2, 3}, nil)
	b := mustFloat64s(t, dims.Of("x", 4), units.Meter, []float64{1, 2, 3, 4}, nil)

	_, err := Add(a, b)
	require.Error(t, err)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindDimension))
}

func TestDTypeTableMiss(t *testing.T) {
	a, err := variable.FromStrings(dims.Of("x", 2), []string{"a", "b"})
	require.NoError(t, err)
	b := mustFloat64s(t, dims.Of("x", 2), units.Dimensionless, []float64{1, 2}, nil)

	_, err = Add(a, b)
	require.Error(t, err)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindDType))
}

func TestInt64Add(t *testing.T) {
	a, err := variable.FromInt64s(dims.Of("x", 2), units.Counts, []int64{1, 2})
	require.NoError(t, err)
	b, err := variable.FromInt64s(dims.Of("x", 2), units.Counts, []int64{10, 20})
	require.NoError(t, err)

	out, err := Add(a, b)
	require.NoError(t, err)
	assert.Equal(t, dtype.Int64, out.DType())
	data, err := out.Buffer().Int64s()
	require.NoError(t, err)
	assert.Equal(t, []int64{11, 22}, data)
}

func TestEqualIgnoresVariances(t *testing.T) {
	d := dims.Of("x", 3)
	a := mustFloat64s(t, d, units.Meter, []float64{1, 2, 3}, []float64{0.1, 0.1, 0.1})
	b := mustFloat64s(t, d, units.Meter, []float64{1, 5, 3}, []float64{9, 9, 9})

	out, err := EqualElements(a, b)
	require.NoError(t, err)
	assert.Equal(t, dtype.Bool, out.DType())
	assert.False(t, out.HasVariances())
	data, err := out.Buffer().Bools()
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, data)
}

func TestEqualUnitMismatch(t *testing.T) {
	d := dims.Of("x", 1)
	a := mustFloat64s(t, d, units.Meter, []float64{1}, nil)
	b := mustFloat64s(t, d, units.Second, []float64{1}, nil)

	_, err := EqualElements(a, b)
	require.Error(t, err)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindUnit))
}

func TestLogicalOps(t *testing.T) {
	d := dims.Of("x", 4)
	a, err := variable.FromBools(d, []bool{true, true, false, false})
	require.NoError(t, err)
	b, err := variable.FromBools(d, []bool{true, false, true, false})
	require.NoError(t, err)

	or, err := Or(a, b)
	require.NoError(t, err)
	orData, err := or.Buffer().Bools()
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, true, false}, orData)

	and, err := And(a, b)
	require.NoError(t, err)
	andData, err := and.Buffer().Bools()
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false, false}, andData)
}

func TestSqrtUnitAndVariance(t *testing.T) {
	d := dims.Of("x", 2)
	area := units.Meter.Mul(units.Meter)
	a := mustFloat64s(t, d, area, []float64{4, 9}, []float64{0.4, 0.9})

	out, err := Sqrt(a)
	require.NoError(t, err)
	assert.True(t, out.Unit().Equal(units.Meter))
	assert.Equal(t, []float64{2, 3}, float64Data(t, out))

	// av / (4 a)
	variances, err := out.Buffer().Float64Variances()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.4 / 16, 0.9 / 36}, variances, 1e-12)
}

func TestSqrtOddExponent(t *testing.T) {
	a := mustFloat64s(t, dims.Of("x", 1), units.Meter, []float64{4}, nil)
	_, err := Sqrt(a)
	require.Error(t, err)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindUnit))
}

func TestNegKeepsVariances(t *testing.T) {
	a := mustFloat64s(t, dims.Of("x", 2), units.Meter, []float64{1, -2}, []float64{0.5, 0.7})
	out, err := Neg(a)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 2}, float64Data(t, out))
	variances, err := out.Buffer().Float64Variances()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.7}, variances)
}

func TestReciprocal(t *testing.T) {
	a := mustFloat64s(t, dims.Of("x", 1), units.Second, []float64{2}, []float64{0.8})
	out, err := Reciprocal(a)
	require.NoError(t, err)
	assert.True(t, out.Unit().Equal(units.Dimensionless.Div(units.Second)))
	assert.Equal(t, []float64{0.5}, float64Data(t, out))
	variances, err := out.Buffer().Float64Variances()
	require.NoError(t, err)
	assert.InDelta(t, 0.8/16, variances[0], 1e-12)
}

func TestVector3Arithmetic(t *testing.T) {
	d := dims.Of("x", 2)
	a, err := variable.New(d, dtype.Vector3, units.Meter, false)
	require.NoError(t, err)
	av, err := a.Buffer().Vector3s()
	require.NoError(t, err)
	av[0] = dtype.Vector3Value{1, 2, 3}
	av[1] = dtype.Vector3Value{4, 5, 6}

	b, err := variable.New(d, dtype.Vector3, units.Meter, false)
	require.NoError(t, err)
	bv, err := b.Buffer().Vector3s()
	require.NoError(t, err)
	bv[0] = dtype.Vector3Value{10, 10, 10}
	bv[1] = dtype.Vector3Value{1, 1, 1}

	out, err := Add(a, b)
	require.NoError(t, err)
	data, err := out.Buffer().Vector3s()
	require.NoError(t, err)
	assert.Equal(t, dtype.Vector3Value{11, 12, 13}, data[0])
	assert.Equal(t, dtype.Vector3Value{5, 6, 7}, data[1])
}

func TestMatrixVectorMul(t *testing.T) {
	m, err := variable.New(dims.Dimensions{}, dtype.Matrix3, units.Dimensionless, false)
	require.NoError(t, err)
	mv, err := m.Buffer().Matrix3s()
	require.NoError(t, err)
	// Rotation by 90 degrees about z.
	mv[0] = dtype.Matrix3Value{0, -1, 0, 1, 0, 0, 0, 0, 1}

	v, err := variable.New(dims.Dimensions{}, dtype.Vector3, units.Meter, false)
	require.NoError(t, err)
	vv, err := v.Buffer().Vector3s()
	require.NoError(t, err)
	vv[0] = dtype.Vector3Value{1, 0, 0}

	out, err := Mul(m, v)
	require.NoError(t, err)
	assert.True(t, out.Unit().Equal(units.Meter))
	data, err := out.Buffer().Vector3s()
	require.NoError(t, err)
	assert.Equal(t, dtype.Vector3Value{0, 1, 0}, data[0])
}

func TestRaggedOperandRejected(t *testing.T) {
	d := dims.MustNew([]dims.Dim{"x", "event"}, []int{2, dims.RaggedExtent})
	events, err := variable.FromEventLists(d, units.Meter, [][]float64{{1, 2}, {3}})
	require.NoError(t, err)
	b := mustFloat64s(t, dims.Of("x", 2), units.Meter, []float64{1, 2}, nil)

	_, err = Add(events, b)
	require.Error(t, err)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindSparseData))
}

func TestInPlaceAdd(t *testing.T) {
	d := dims.Of("x", 3)
	a := mustFloat64s(t, d, units.Meter, []float64{1, 2, 3}, nil)
	b := mustFloat64s(t, d, units.Meter, []float64{10, 20, 30}, nil)

	require.NoError(t, TransformInPlace(OpAdd, a, a, b))
	assert.Equal(t, []float64{11, 22, 33}, float64Data(t, a))
}

func TestInPlaceMulUpdatesUnit(t *testing.T) {
	d := dims.Of("x", 2)
	a := mustFloat64s(t, d, units.Meter, []float64{2, 3}, nil)
	b := mustFloat64s(t, d, units.Second, []float64{5, 5}, nil)

	require.NoError(t, TransformInPlace(OpMul, a, a, b))
	assert.True(t, a.Unit().Equal(units.Meter.Mul(units.Second)))
	assert.Equal(t, []float64{10, 15}, float64Data(t, a))
}

func TestInPlaceOutputDTypeMismatch(t *testing.T) {
	d := dims.Of("x", 2)
	out, err := variable.FromInt64s(d, units.Meter, []int64{0, 0})
	require.NoError(t, err)
	a := mustFloat64s(t, d, units.Meter, []float64{1, 2}, nil)
	b := mustFloat64s(t, d, units.Meter, []float64{1, 2}, nil)

	err = TransformInPlace(OpAdd, out, a, b)
	require.Error(t, err)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindDType))
}

func TestInPlaceReadonly(t *testing.T) {
	d := dims.Of("x", 2)
	a := mustFloat64s(t, d, units.Meter, []float64{1, 2}, nil)
	b := mustFloat64s(t, d, units.Meter, []float64{1, 2}, nil)

	err := TransformInPlace(OpAdd, a.AsReadonly(), a, b)
	require.Error(t, err)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindReadonly))
}

func TestInPlaceOverlappingSlices(t *testing.T) {
	// out and b are shifted windows of the same storage; b must be staged
	// through a copy so later outputs do not read earlier outputs.
	v := mustFloat64s(t, dims.Of("x", 4), units.Meter, []float64{1, 2, 3, 4}, nil)
	out, err := v.Slice("x", 0, 3)
	require.NoError(t, err)
	shifted, err := v.Slice("x", 1, 4)
	require.NoError(t, err)

	require.NoError(t, TransformInPlace(OpAdd, out, out, shifted))
	assert.Equal(t, []float64{3, 5, 7, 4}, float64Data(t, v))
}

func TestInPlaceVarianceRequired(t *testing.T) {
	d := dims.Of("x", 2)
	out := mustFloat64s(t, d, units.Meter, []float64{0, 0}, nil)
	a := mustFloat64s(t, d, units.Meter, []float64{1, 2}, []float64{1, 1})
	b := mustFloat64s(t, d, units.Meter, []float64{1, 2}, nil)

	err := TransformInPlace(OpAdd, out, a, b)
	require.Error(t, err)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindVariances))
}

func TestInPlaceExactOperandsVariancedOutput(t *testing.T) {
	// The plain kernel leaves the output's variance array untouched, so
	// exact operands may not write into a varianced output.
	d := dims.Of("x", 2)
	out := mustFloat64s(t, d, units.Meter, []float64{0, 0}, []float64{99, 99})
	a := mustFloat64s(t, d, units.Meter, []float64{1, 2}, nil)
	b := mustFloat64s(t, d, units.Meter, []float64{10, 20}, nil)

	err := TransformInPlace(OpAdd, out, a, b)
	require.Error(t, err)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindVariances))
	assert.Equal(t, []float64{0, 0}, float64Data(t, out))
}

func TestDivIntegerByZero(t *testing.T) {
	a, err := variable.FromInt64s(dims.Of("x", 3), units.Meter, []int64{6, 6, 6})
	require.NoError(t, err)
	b, err := variable.FromInt64s(dims.Of("x", 3), units.Second, []int64{3, 0, 2})
	require.NoError(t, err)

	_, err = Div(a, b)
	require.Error(t, err)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindDType))

	a32 := mustInt32s(t, []int32{6, 6})
	b32 := mustInt32s(t, []int32{1, 0})
	_, err = Div(a32, b32)
	require.Error(t, err)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindDType))
}

func mustInt32s(t *testing.T, values []int32) *variable.Variable {
	t.Helper()
	v, err := variable.New(dims.Of("x", len(values)), dtype.Int32, units.Dimensionless, false)
	require.NoError(t, err)
	raw, err := v.Buffer().Int32s()
	require.NoError(t, err)
	copy(raw, values)
	return v
}

func TestDivIntegerByZeroParallel(t *testing.T) {
	// The zero divisor sits inside a worker block; the error must come back
	// to the caller instead of a panic tearing down the worker.
	const n = 100000
	values := make([]int64, n)
	divisors := make([]int64, n)
	for i := range values {
		values[i] = int64(i)
		divisors[i] = 1 + int64(i%7)
	}
	divisors[n/2] = 0
	d := dims.Of("x", n)
	a, err := variable.FromInt64s(d, units.Meter, values)
	require.NoError(t, err)
	b, err := variable.FromInt64s(d, units.Second, divisors)
	require.NoError(t, err)

	require.NoError(t, Configure(config.EngineConfig{Workers: 4, ParallelThreshold: 8}))
	defer func() {
		require.NoError(t, Configure(config.DefaultEngineConfig()))
	}()

	_, err = Div(a, b)
	require.Error(t, err)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindDType))
}

func TestUnaryInPlaceSqrt(t *testing.T) {
	area := units.Meter.Mul(units.Meter)
	a := mustFloat64s(t, dims.Of("x", 2), area, []float64{16, 25}, nil)
	require.NoError(t, TransformUnaryInPlace(OpSqrt, a))
	assert.True(t, a.Unit().Equal(units.Meter))
	assert.Equal(t, []float64{4, 5}, float64Data(t, a))
}

func TestParallelMatchesSequential(t *testing.T) {
	const n = 10000
	values := make([]float64, n)
	variances := make([]float64, n)
	for i := range values {
		values[i] = math.Sin(float64(i))
		variances[i] = 0.001 * float64(i%17)
	}
	d := dims.Of("x", n)
	a := mustFloat64s(t, d, units.Counts, values, variances)
	b := mustFloat64s(t, d, units.Counts, values, nil)

	sequential, err := Add(a, b)
	require.NoError(t, err)

	require.NoError(t, Configure(config.EngineConfig{Workers: 4, ParallelThreshold: 1}))
	defer func() {
		require.NoError(t, Configure(config.DefaultEngineConfig()))
	}()

	parallel, err := Add(a, b)
	require.NoError(t, err)
	assert.True(t, variable.Equal(sequential, parallel))
}

func TestTransformFromStridedView(t *testing.T) {
	// Operands with non-canonical strides feed the same kernels.
	v := mustFloat64s(t, dims.MustNew([]dims.Dim{"x", "y"}, []int{2, 3}),
		units.Meter, []float64{1, 2, 3, 4, 5, 6}, nil)
	row, err := v.SlicePoint("x", 1)
	require.NoError(t, err)
	transposed, err := v.Transpose()
	require.NoError(t, err)
	col, err := transposed.SlicePoint("y", 0)
	require.NoError(t, err)

	// row is {4, 5, 6} over y, col is {1, 4} over x; the result broadcasts
	// to {y: 3, x: 2}.
	out, err := Add(row, col)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 8, 6, 9, 7, 10}, float64Data(t, out))
}
