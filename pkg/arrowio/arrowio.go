// Package arrowio bridges Variables to Apache Arrow arrays for host
// bindings and foreign array consumers. Export hands out contiguous Arrow
// columns; FromArrow and FromParts rebuild an owning Variable from the
// pieces a binding holds on its side.
package arrowio

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/scipp/scipp-sub001/pkg/buffer"
	"github.com/scipp/scipp-sub001/pkg/dims"
	"github.com/scipp/scipp-sub001/pkg/dtype"
	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
	"github.com/scipp/scipp-sub001/pkg/units"
	"github.com/scipp/scipp-sub001/pkg/variable"
)

// ToArrow exports a Variable's elements as an Arrow array, plus a second
// array holding the variances when present. Views are flattened to logical
// order first; the returned arrays do not alias the Variable's storage.
func ToArrow(v *variable.Variable) (values, variances arrow.Array, err error) {
	// A contiguous copy puts elements in logical order regardless of the
	// view's offset and strides.
	flat := v.Copy()
	pool := memory.NewGoAllocator()

	switch flat.DType() {
	case dtype.Float64:
		raw, err := flat.Buffer().Float64s()
		if err != nil {
			return nil, nil, err
		}
		b := array.NewFloat64Builder(pool)
		defer b.Release()
		b.AppendValues(raw, nil)
		values = b.NewFloat64Array()
	case dtype.Float32:
		raw, err := flat.Buffer().Float32s()
		if err != nil {
			return nil, nil, err
		}
		b := array.NewFloat32Builder(pool)
		defer b.Release()
		b.AppendValues(raw, nil)
		values = b.NewFloat32Array()
	case dtype.Int64:
		raw, err := flat.Buffer().Int64s()
		if err != nil {
			return nil, nil, err
		}
		b := array.NewInt64Builder(pool)
		defer b.Release()
		b.AppendValues(raw, nil)
		values = b.NewInt64Array()
	case dtype.Int32:
		raw, err := flat.Buffer().Int32s()
		if err != nil {
			return nil, nil, err
		}
		b := array.NewInt32Builder(pool)
		defer b.Release()
		b.AppendValues(raw, nil)
		values = b.NewInt32Array()
	case dtype.Bool:
		raw, err := flat.Buffer().Bools()
		if err != nil {
			return nil, nil, err
		}
		b := array.NewBooleanBuilder(pool)
		defer b.Release()
		b.AppendValues(raw, nil)
		values = b.NewBooleanArray()
	case dtype.String:
		raw, err := flat.Buffer().Strings()
		if err != nil {
			return nil, nil, err
		}
		b := array.NewStringBuilder(pool)
		defer b.Release()
		b.AppendValues(raw, nil)
		values = b.NewStringArray()
	case dtype.EventListFloat64:
		raw, err := flat.Buffer().EventLists()
		if err != nil {
			return nil, nil, err
		}
		lb := array.NewListBuilder(pool, arrow.PrimitiveTypes.Float64)
		defer lb.Release()
		vb := lb.ValueBuilder().(*array.Float64Builder)
		for _, list := range raw {
			lb.Append(true)
			vb.AppendValues(list, nil)
		}
		values = lb.NewListArray()
	default:
		return nil, nil, scipperrors.Newf(scipperrors.KindDType,
			"cannot export %s to arrow", flat.DType())
	}

	if !flat.HasVariances() {
		return values, nil, nil
	}
	switch flat.DType() {
	case dtype.Float64:
		raw, err := flat.Buffer().Float64Variances()
		if err != nil {
			return nil, nil, err
		}
		b := array.NewFloat64Builder(pool)
		defer b.Release()
		b.AppendValues(raw, nil)
		variances = b.NewFloat64Array()
	case dtype.Float32:
		raw, err := flat.Buffer().Float32Variances()
		if err != nil {
			return nil, nil, err
		}
		b := array.NewFloat32Builder(pool)
		defer b.Release()
		b.AppendValues(raw, nil)
		variances = b.NewFloat32Array()
	}
	return values, variances, nil
}

// FromArrow rebuilds an owning Variable from Arrow arrays. The array
// length must equal the volume of d; variances may be nil.
func FromArrow(d dims.Dimensions, u units.Unit, values, variances arrow.Array) (*variable.Variable, error) {
	switch col := values.(type) {
	case *array.Float64:
		var varSlice []float64
		if variances != nil {
			varCol, ok := variances.(*array.Float64)
			if !ok {
				return nil, scipperrors.Newf(scipperrors.KindVariances,
					"variance array type %T does not match value array", variances)
			}
			varSlice = varCol.Float64Values()
		}
		return variable.FromFloat64s(d, u, col.Float64Values(), varSlice)
	case *array.Float32:
		return fromParts(dtype.Float32, d, u, col.Float32Values(), float32Variances(variances))
	case *array.Int64:
		return variable.FromInt64s(d, u, col.Int64Values())
	case *array.Int32:
		return fromParts(dtype.Int32, d, u, col.Int32Values(), nil)
	case *array.Boolean:
		raw := make([]bool, col.Len())
		for i := range raw {
			raw[i] = col.Value(i)
		}
		return variable.FromBools(d, raw)
	case *array.String:
		raw := make([]string, col.Len())
		for i := range raw {
			raw[i] = col.Value(i)
		}
		return variable.FromStrings(d, raw)
	case *array.List:
		flat, ok := col.ListValues().(*array.Float64)
		if !ok {
			return nil, scipperrors.Newf(scipperrors.KindDType,
				"list array of %T is not an event list", col.ListValues())
		}
		offsets := col.Offsets()
		lists := make([][]float64, col.Len())
		values := flat.Float64Values()
		for i := range lists {
			lists[i] = values[offsets[i]:offsets[i+1]]
		}
		return variable.FromEventLists(d, u, lists)
	default:
		return nil, scipperrors.Newf(scipperrors.KindDType,
			"cannot import arrow array %T", values)
	}
}

func float32Variances(variances arrow.Array) []float32 {
	if varCol, ok := variances.(*array.Float32); ok {
		return varCol.Float32Values()
	}
	return nil
}

// FromParts rebuilds an owning Variable from raw typed slices, the shape a
// host binding reconstructs after round-tripping a Variable through its own
// storage. values must be the typed slice for dt with volume(d) elements;
// variances is permitted for Float64 and Float32 only.
func FromParts(dt dtype.DType, d dims.Dimensions, u units.Unit, values, variances interface{}) (*variable.Variable, error) {
	switch dt {
	case dtype.Float64:
		raw, ok := values.([]float64)
		if !ok {
			return nil, partsTypeError(dt, values)
		}
		var varSlice []float64
		if variances != nil {
			if varSlice, ok = variances.([]float64); !ok {
				return nil, partsTypeError(dt, variances)
			}
		}
		return variable.FromFloat64s(d, u, raw, varSlice)
	case dtype.Float32:
		raw, ok := values.([]float32)
		if !ok {
			return nil, partsTypeError(dt, values)
		}
		var varSlice []float32
		if variances != nil {
			if varSlice, ok = variances.([]float32); !ok {
				return nil, partsTypeError(dt, variances)
			}
		}
		return fromParts(dt, d, u, raw, varSlice)
	case dtype.Int64:
		raw, ok := values.([]int64)
		if !ok {
			return nil, partsTypeError(dt, values)
		}
		return variable.FromInt64s(d, u, raw)
	case dtype.Int32:
		raw, ok := values.([]int32)
		if !ok {
			return nil, partsTypeError(dt, values)
		}
		return fromParts(dt, d, u, raw, nil)
	case dtype.Bool:
		raw, ok := values.([]bool)
		if !ok {
			return nil, partsTypeError(dt, values)
		}
		return variable.FromBools(d, raw)
	case dtype.String:
		raw, ok := values.([]string)
		if !ok {
			return nil, partsTypeError(dt, values)
		}
		return variable.FromStrings(d, raw)
	case dtype.EventListFloat64:
		raw, ok := values.([][]float64)
		if !ok {
			return nil, partsTypeError(dt, values)
		}
		return variable.FromEventLists(d, u, raw)
	default:
		return nil, scipperrors.Newf(scipperrors.KindDType,
			"cannot reconstruct %s from parts", dt)
	}
}

func partsTypeError(dt dtype.DType, got interface{}) error {
	return scipperrors.Newf(scipperrors.KindDType,
		"%T does not hold %s elements", got, dt)
}

// fromParts builds an owning Variable for element types without a
// dedicated constructor, copying values (and variances) into fresh storage.
func fromParts[T any](dt dtype.DType, d dims.Dimensions, u units.Unit, values, variances []T) (*variable.Variable, error) {
	if len(values) != d.Volume() {
		return nil, scipperrors.Newf(scipperrors.KindDimension,
			"got %d values for dimensions %s of volume %d", len(values), d, d.Volume())
	}
	if variances != nil && len(variances) != len(values) {
		return nil, scipperrors.Newf(scipperrors.KindVariances,
			"got %d variances for %d values", len(variances), len(values))
	}
	v, err := variable.New(d, dt, u, variances != nil)
	if err != nil {
		return nil, err
	}
	dst, ok := buffer.Span[T](v.Buffer())
	if !ok {
		return nil, partsTypeError(dt, values)
	}
	copy(dst, values)
	if variances != nil {
		dstVar, ok := buffer.VarianceSpan[T](v.Buffer())
		if !ok {
			return nil, scipperrors.New(scipperrors.KindVariances, "buffer has no variances")
		}
		copy(dstVar, variances)
	}
	return v, nil
}
