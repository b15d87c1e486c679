package variable

import (
	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
)

// Typed accessors over the live buffer. Mutable spans are only available
// for contiguous, writable Variables; they alias the storage, so writes are
// visible to every view sharing the buffer. Gather accessors work for any
// view and always return a fresh slice in logical order.

func (v *Variable) mutableSpanCheck() error {
	if v.readonly {
		return scipperrors.New(scipperrors.KindReadonly, "variable is readonly")
	}
	if !v.isContiguous() {
		return scipperrors.New(scipperrors.KindDimension,
			"typed spans require a contiguous variable; use Copy or Gather accessors")
	}
	return nil
}

// Float64s returns the live values span of a contiguous Float64 Variable.
func (v *Variable) Float64s() ([]float64, error) {
	if err := v.mutableSpanCheck(); err != nil {
		return nil, err
	}
	return v.buf.Float64s()
}

// Float64Variances returns the live variances span of a contiguous Float64
// Variable.
func (v *Variable) Float64Variances() ([]float64, error) {
	if err := v.mutableSpanCheck(); err != nil {
		return nil, err
	}
	return v.buf.Float64Variances()
}

// Float32s returns the live values span of a contiguous Float32 Variable.
func (v *Variable) Float32s() ([]float32, error) {
	if err := v.mutableSpanCheck(); err != nil {
		return nil, err
	}
	return v.buf.Float32s()
}

// Int64s returns the live values span of a contiguous Int64 Variable.
func (v *Variable) Int64s() ([]int64, error) {
	if err := v.mutableSpanCheck(); err != nil {
		return nil, err
	}
	return v.buf.Int64s()
}

// Int32s returns the live values span of a contiguous Int32 Variable.
func (v *Variable) Int32s() ([]int32, error) {
	if err := v.mutableSpanCheck(); err != nil {
		return nil, err
	}
	return v.buf.Int32s()
}

// Bools returns the live values span of a contiguous Bool Variable.
func (v *Variable) Bools() ([]bool, error) {
	if err := v.mutableSpanCheck(); err != nil {
		return nil, err
	}
	return v.buf.Bools()
}

// Strings returns the live values span of a contiguous String Variable.
func (v *Variable) Strings() ([]string, error) {
	if err := v.mutableSpanCheck(); err != nil {
		return nil, err
	}
	return v.buf.Strings()
}

// EventLists returns the live ragged rows of a contiguous event-list
// Variable.
func (v *Variable) EventLists() ([][]float64, error) {
	if err := v.mutableSpanCheck(); err != nil {
		return nil, err
	}
	return v.buf.EventLists()
}

// GatherFloat64s returns the Float64 values of any view, copied in logical
// row-major order.
func (v *Variable) GatherFloat64s() ([]float64, error) {
	src, err := v.buf.Float64s()
	if err != nil {
		return nil, err
	}
	out := make([]float64, v.dims.Volume())
	ix := v.Iter()
	for i := range out {
		out[i] = src[ix.Flat()]
		ix.Next()
	}
	return out, nil
}

// GatherFloat64Variances returns the variances of any Float64 view, copied
// in logical row-major order.
func (v *Variable) GatherFloat64Variances() ([]float64, error) {
	src, err := v.buf.Float64Variances()
	if err != nil {
		return nil, err
	}
	out := make([]float64, v.dims.Volume())
	ix := v.Iter()
	for i := range out {
		out[i] = src[ix.Flat()]
		ix.Next()
	}
	return out, nil
}

// GatherBools returns the Bool values of any view, copied in logical
// row-major order.
func (v *Variable) GatherBools() ([]bool, error) {
	src, err := v.buf.Bools()
	if err != nil {
		return nil, err
	}
	out := make([]bool, v.dims.Volume())
	ix := v.Iter()
	for i := range out {
		out[i] = src[ix.Flat()]
		ix.Next()
	}
	return out, nil
}

// GatherInt64s returns the Int64 values of any view, copied in logical
// row-major order.
func (v *Variable) GatherInt64s() ([]int64, error) {
	src, err := v.buf.Int64s()
	if err != nil {
		return nil, err
	}
	out := make([]int64, v.dims.Volume())
	ix := v.Iter()
	for i := range out {
		out[i] = src[ix.Flat()]
		ix.Next()
	}
	return out, nil
}

// GatherEventLists returns deep copies of the ragged rows of any view, in
// logical row-major order.
func (v *Variable) GatherEventLists() ([][]float64, error) {
	src, err := v.buf.EventLists()
	if err != nil {
		return nil, err
	}
	out := make([][]float64, v.dims.Volume())
	ix := v.Iter()
	for i := range out {
		out[i] = append([]float64{}, src[ix.Flat()]...)
		ix.Next()
	}
	return out, nil
}

// GatherStrings returns the String values of any view, copied in logical
// row-major order.
func (v *Variable) GatherStrings() ([]string, error) {
	src, err := v.buf.Strings()
	if err != nil {
		return nil, err
	}
	out := make([]string, v.dims.Volume())
	ix := v.Iter()
	for i := range out {
		out[i] = src[ix.Flat()]
		ix.Next()
	}
	return out, nil
}
