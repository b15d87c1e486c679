package buffer

import (
	"github.com/scipp/scipp-sub001/pkg/dtype"
	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
)

// Typed span accessors return the live backing slice, enabling zero-copy
// exposure to host bindings and foreign array types. Writes through a span
// are visible to every holder of the buffer.

// Span returns the typed values slice when T matches the buffer's element
// type. It is the generic hook used by the transform kernels.
func Span[T any](b *Buffer) ([]T, bool) {
	v, ok := b.values.([]T)
	return v, ok
}

// VarianceSpan returns the typed variances slice, or false when absent or
// of a different element type.
func VarianceSpan[T any](b *Buffer) ([]T, bool) {
	v, ok := b.variances.([]T)
	return v, ok
}

func spanError(want, got dtype.DType) error {
	return scipperrors.Newf(scipperrors.KindDType,
		"requested %s span from %s buffer", want, got)
}

// Float64s returns the values slice of a Float64 buffer.
func (b *Buffer) Float64s() ([]float64, error) {
	v, ok := b.values.([]float64)
	if !ok {
		return nil, spanError(dtype.Float64, b.dt)
	}
	return v, nil
}

// Float64Variances returns the variances slice of a Float64 buffer.
func (b *Buffer) Float64Variances() ([]float64, error) {
	if b.dt != dtype.Float64 {
		return nil, spanError(dtype.Float64, b.dt)
	}
	v, ok := b.variances.([]float64)
	if !ok {
		return nil, scipperrors.New(scipperrors.KindVariances, "buffer has no variances")
	}
	return v, nil
}

// Float32s returns the values slice of a Float32 buffer.
func (b *Buffer) Float32s() ([]float32, error) {
	v, ok := b.values.([]float32)
	if !ok {
		return nil, spanError(dtype.Float32, b.dt)
	}
	return v, nil
}

// Float32Variances returns the variances slice of a Float32 buffer.
func (b *Buffer) Float32Variances() ([]float32, error) {
	if b.dt != dtype.Float32 {
		return nil, spanError(dtype.Float32, b.dt)
	}
	v, ok := b.variances.([]float32)
	if !ok {
		return nil, scipperrors.New(scipperrors.KindVariances, "buffer has no variances")
	}
	return v, nil
}

// Int64s returns the values slice of an Int64 buffer.
func (b *Buffer) Int64s() ([]int64, error) {
	v, ok := b.values.([]int64)
	if !ok {
		return nil, spanError(dtype.Int64, b.dt)
	}
	return v, nil
}

// Int32s returns the values slice of an Int32 buffer.
func (b *Buffer) Int32s() ([]int32, error) {
	v, ok := b.values.([]int32)
	if !ok {
		return nil, spanError(dtype.Int32, b.dt)
	}
	return v, nil
}

// Bools returns the values slice of a Bool buffer.
func (b *Buffer) Bools() ([]bool, error) {
	v, ok := b.values.([]bool)
	if !ok {
		return nil, spanError(dtype.Bool, b.dt)
	}
	return v, nil
}

// Strings returns the values slice of a String buffer.
func (b *Buffer) Strings() ([]string, error) {
	v, ok := b.values.([]string)
	if !ok {
		return nil, spanError(dtype.String, b.dt)
	}
	return v, nil
}

// Vector3s returns the values slice of a Vector3 buffer.
func (b *Buffer) Vector3s() ([]dtype.Vector3Value, error) {
	v, ok := b.values.([]dtype.Vector3Value)
	if !ok {
		return nil, spanError(dtype.Vector3, b.dt)
	}
	return v, nil
}

// Matrix3s returns the values slice of a Matrix3 buffer.
func (b *Buffer) Matrix3s() ([]dtype.Matrix3Value, error) {
	v, ok := b.values.([]dtype.Matrix3Value)
	if !ok {
		return nil, spanError(dtype.Matrix3, b.dt)
	}
	return v, nil
}

// EventLists returns the values slice of an EventListFloat64 buffer. Each
// entry is one ragged row.
func (b *Buffer) EventLists() ([][]float64, error) {
	v, ok := b.values.([][]float64)
	if !ok {
		return nil, spanError(dtype.EventListFloat64, b.dt)
	}
	return v, nil
}

// Foreigns returns the values slice of a Foreign buffer.
func (b *Buffer) Foreigns() ([]interface{}, error) {
	v, ok := b.values.([]interface{})
	if !ok {
		return nil, spanError(dtype.Foreign, b.dt)
	}
	return v, nil
}
