// Package buffer provides the type-erased contiguous storage underlying
// every Variable: a dtype-tagged values array plus an optional parallel
// variances array.
//
// Element access always funnels through a switch on the dtype tag that
// recovers the concrete element type and forwards to a generic code path.
// That switch is the only place dtype-specific code branches; the rest of
// the engine stays dtype-agnostic.
package buffer

import (
	"github.com/scipp/scipp-sub001/pkg/dtype"
	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
)

// Buffer is contiguous, exclusively- or share-owned storage. A Buffer is
// held by exactly one owning Variable, or shared between a Variable and the
// views derived from it; Go's garbage collector provides the
// lifetime-equals-longest-holder rule.
type Buffer struct {
	dt        dtype.DType
	values    interface{}
	variances interface{}
}

// New allocates a buffer of n default-initialized elements. Variances are
// only available for floating-point dtypes.
func New(dt dtype.DType, n int, withVariances bool) (*Buffer, error) {
	if !dt.Valid() {
		return nil, scipperrors.Newf(scipperrors.KindDType, "invalid dtype %d", int(dt))
	}
	if n < 0 {
		return nil, scipperrors.Newf(scipperrors.KindDimension, "negative buffer length %d", n)
	}
	if withVariances && !dt.SupportsVariances() {
		return nil, scipperrors.Newf(scipperrors.KindVariances,
			"variances are not supported for dtype %s", dt)
	}
	b := &Buffer{dt: dt}
	switch dt {
	case dtype.Float64:
		b.values = make([]float64, n)
		if withVariances {
			b.variances = make([]float64, n)
		}
	case dtype.Float32:
		b.values = make([]float32, n)
		if withVariances {
			b.variances = make([]float32, n)
		}
	case dtype.Int64:
		b.values = make([]int64, n)
	case dtype.Int32:
		b.values = make([]int32, n)
	case dtype.Bool:
		b.values = make([]bool, n)
	case dtype.String:
		b.values = make([]string, n)
	case dtype.Vector3:
		b.values = make([]dtype.Vector3Value, n)
	case dtype.Matrix3:
		b.values = make([]dtype.Matrix3Value, n)
	case dtype.EventListFloat64:
		b.values = make([][]float64, n)
	case dtype.Foreign:
		b.values = make([]interface{}, n)
	}
	return b, nil
}

// MustNew is New for callers with validated arguments; it panics on error.
func MustNew(dt dtype.DType, n int, withVariances bool) *Buffer {
	b, err := New(dt, n, withVariances)
	if err != nil {
		panic(err)
	}
	return b
}

// DType returns the element type tag.
func (b *Buffer) DType() dtype.DType {
	return b.dt
}

// Len returns the number of elements.
func (b *Buffer) Len() int {
	switch v := b.values.(type) {
	case []float64:
		return len(v)
	case []float32:
		return len(v)
	case []int64:
		return len(v)
	case []int32:
		return len(v)
	case []bool:
		return len(v)
	case []string:
		return len(v)
	case []dtype.Vector3Value:
		return len(v)
	case []dtype.Matrix3Value:
		return len(v)
	case [][]float64:
		return len(v)
	case []interface{}:
		return len(v)
	default:
		return 0
	}
}

// HasVariances reports whether a variances array is present.
func (b *Buffer) HasVariances() bool {
	return b.variances != nil
}

// Copy deep-copies values and variances. The result never shares storage
// with the source; event lists are copied list by list.
func (b *Buffer) Copy() *Buffer {
	out := &Buffer{dt: b.dt}
	switch v := b.values.(type) {
	case []float64:
		out.values = append([]float64(nil), v...)
		if b.variances != nil {
			out.variances = append([]float64(nil), b.variances.([]float64)...)
		}
	case []float32:
		out.values = append([]float32(nil), v...)
		if b.variances != nil {
			out.variances = append([]float32(nil), b.variances.([]float32)...)
		}
	case []int64:
		out.values = append([]int64(nil), v...)
	case []int32:
		out.values = append([]int32(nil), v...)
	case []bool:
		out.values = append([]bool(nil), v...)
	case []string:
		out.values = append([]string(nil), v...)
	case []dtype.Vector3Value:
		out.values = append([]dtype.Vector3Value(nil), v...)
	case []dtype.Matrix3Value:
		out.values = append([]dtype.Matrix3Value(nil), v...)
	case [][]float64:
		lists := make([][]float64, len(v))
		for i, list := range v {
			if list != nil {
				lists[i] = append([]float64(nil), list...)
			}
		}
		out.values = lists
	case []interface{}:
		out.values = append([]interface{}(nil), v...)
	}
	return out
}

// CopyIndexed copies n elements from src to dst through arbitrary index
// maps. It is the strided copy primitive behind slice assignment, resize
// and concatenation. Both buffers must share a dtype.
func CopyIndexed(dst *Buffer, dstIndex func(int) int, src *Buffer, srcIndex func(int) int, n int) error {
	if dst.dt != src.dt {
		return scipperrors.Newf(scipperrors.KindDType,
			"dtype mismatch in copy: %s != %s", dst.dt, src.dt)
	}
	switch sv := src.values.(type) {
	case []float64:
		dv := dst.values.([]float64)
		for i := 0; i < n; i++ {
			dv[dstIndex(i)] = sv[srcIndex(i)]
		}
		if src.variances != nil && dst.variances != nil {
			svar, dvar := src.variances.([]float64), dst.variances.([]float64)
			for i := 0; i < n; i++ {
				dvar[dstIndex(i)] = svar[srcIndex(i)]
			}
		}
	case []float32:
		dv := dst.values.([]float32)
		for i := 0; i < n; i++ {
			dv[dstIndex(i)] = sv[srcIndex(i)]
		}
		if src.variances != nil && dst.variances != nil {
			svar, dvar := src.variances.([]float32), dst.variances.([]float32)
			for i := 0; i < n; i++ {
				dvar[dstIndex(i)] = svar[srcIndex(i)]
			}
		}
	case []int64:
		dv := dst.values.([]int64)
		for i := 0; i < n; i++ {
			dv[dstIndex(i)] = sv[srcIndex(i)]
		}
	case []int32:
		dv := dst.values.([]int32)
		for i := 0; i < n; i++ {
			dv[dstIndex(i)] = sv[srcIndex(i)]
		}
	case []bool:
		dv := dst.values.([]bool)
		for i := 0; i < n; i++ {
			dv[dstIndex(i)] = sv[srcIndex(i)]
		}
	case []string:
		dv := dst.values.([]string)
		for i := 0; i < n; i++ {
			dv[dstIndex(i)] = sv[srcIndex(i)]
		}
	case []dtype.Vector3Value:
		dv := dst.values.([]dtype.Vector3Value)
		for i := 0; i < n; i++ {
			dv[dstIndex(i)] = sv[srcIndex(i)]
		}
	case []dtype.Matrix3Value:
		dv := dst.values.([]dtype.Matrix3Value)
		for i := 0; i < n; i++ {
			dv[dstIndex(i)] = sv[srcIndex(i)]
		}
	case [][]float64:
		dv := dst.values.([][]float64)
		for i := 0; i < n; i++ {
			list := sv[srcIndex(i)]
			if list != nil {
				list = append([]float64(nil), list...)
			}
			dv[dstIndex(i)] = list
		}
	case []interface{}:
		dv := dst.values.([]interface{})
		for i := 0; i < n; i++ {
			dv[dstIndex(i)] = sv[srcIndex(i)]
		}
	}
	return nil
}

// ElemEqual compares element i of a with element j of b, variances
// included.
func ElemEqual(a *Buffer, i int, b *Buffer, j int) bool {
	if a.dt != b.dt || a.HasVariances() != b.HasVariances() {
		return false
	}
	switch av := a.values.(type) {
	case []float64:
		if av[i] != b.values.([]float64)[j] {
			return false
		}
		if a.variances != nil {
			return a.variances.([]float64)[i] == b.variances.([]float64)[j]
		}
		return true
	case []float32:
		if av[i] != b.values.([]float32)[j] {
			return false
		}
		if a.variances != nil {
			return a.variances.([]float32)[i] == b.variances.([]float32)[j]
		}
		return true
	case []int64:
		return av[i] == b.values.([]int64)[j]
	case []int32:
		return av[i] == b.values.([]int32)[j]
	case []bool:
		return av[i] == b.values.([]bool)[j]
	case []string:
		return av[i] == b.values.([]string)[j]
	case []dtype.Vector3Value:
		return av[i] == b.values.([]dtype.Vector3Value)[j]
	case []dtype.Matrix3Value:
		return av[i] == b.values.([]dtype.Matrix3Value)[j]
	case [][]float64:
		bl := b.values.([][]float64)[j]
		al := av[i]
		if len(al) != len(bl) {
			return false
		}
		for k := range al {
			if al[k] != bl[k] {
				return false
			}
		}
		return true
	case []interface{}:
		return av[i] == b.values.([]interface{})[j]
	default:
		return false
	}
}

// Element returns element i as an untyped value, for formatting and tests.
func (b *Buffer) Element(i int) interface{} {
	switch v := b.values.(type) {
	case []float64:
		return v[i]
	case []float32:
		return v[i]
	case []int64:
		return v[i]
	case []int32:
		return v[i]
	case []bool:
		return v[i]
	case []string:
		return v[i]
	case []dtype.Vector3Value:
		return v[i]
	case []dtype.Matrix3Value:
		return v[i]
	case [][]float64:
		return v[i]
	case []interface{}:
		return v[i]
	default:
		return nil
	}
}
