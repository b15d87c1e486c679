// Package variable provides the dimensioned, unit-tagged array handle at
// the heart of the engine. A Variable either owns its buffer (canonical
// row-major layout over storage held by it alone) or is a view sharing
// another Variable's buffer through an adjusted offset and strides.
//
// Slicing, broadcasting and transposing never copy data. Assignment into a
// view (SetFrom) writes through the shared buffer and is observable by
// every other view of that buffer; this is the engine's only
// mutation-through-aliasing path. Copy always produces a fresh, unaliased
// buffer and is the way callers opt out of aliasing.
package variable

import (
	"fmt"

	"github.com/scipp/scipp-sub001/pkg/buffer"
	"github.com/scipp/scipp-sub001/pkg/dims"
	"github.com/scipp/scipp-sub001/pkg/dtype"
	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
	"github.com/scipp/scipp-sub001/pkg/units"
)

// Variable is a dimensioned, unit-tagged handle onto a buffer.
type Variable struct {
	dims     dims.Dimensions
	unit     units.Unit
	buf      *buffer.Buffer
	offset   int
	strides  []int
	owning   bool
	readonly bool
}

// New allocates an owning Variable with default-initialized elements.
func New(d dims.Dimensions, dt dtype.DType, u units.Unit, withVariances bool) (*Variable, error) {
	if d.Ragged() != "" && !dt.IsRagged() {
		return nil, scipperrors.Newf(scipperrors.KindSparseData,
			"ragged dimension %q requires an event-list dtype, got %s", d.Ragged(), dt)
	}
	if dt.IsRagged() && d.Ragged() == "" {
		return nil, scipperrors.Newf(scipperrors.KindSparseData,
			"dtype %s requires a ragged dimension", dt)
	}
	buf, err := buffer.New(dt, d.Volume(), withVariances)
	if err != nil {
		return nil, err
	}
	return newOwning(d, u, buf), nil
}

func newOwning(d dims.Dimensions, u units.Unit, buf *buffer.Buffer) *Variable {
	return &Variable{
		dims:    d,
		unit:    u,
		buf:     buf,
		strides: canonicalStrides(d),
		owning:  true,
	}
}

// canonicalStrides computes row-major strides over the storage cells. The
// ragged dimension, whose rows are whole lists, gets stride 0.
func canonicalStrides(d dims.Dimensions) []int {
	labels := d.Labels()
	shape := d.Shape()
	strides := make([]int, len(labels))
	stride := 1
	for i := len(labels) - 1; i >= 0; i-- {
		if d.IsRagged(labels[i]) {
			strides[i] = 0
			continue
		}
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}

// iterShape returns the logical shape with the ragged extent collapsed to
// one storage cell per outer index.
func iterShape(d dims.Dimensions) []int {
	labels := d.Labels()
	shape := d.Shape()
	for i, label := range labels {
		if d.IsRagged(label) {
			shape[i] = 1
		}
	}
	return shape
}

// FromFloat64s builds an owning Float64 Variable from explicit values and
// optional variances. Slices are copied.
func FromFloat64s(d dims.Dimensions, u units.Unit, values, variances []float64) (*Variable, error) {
	if len(values) != d.Volume() {
		return nil, scipperrors.Newf(scipperrors.KindDimension,
			"got %d values for dimensions %s of volume %d", len(values), d, d.Volume())
	}
	if variances != nil && len(variances) != len(values) {
		return nil, scipperrors.Newf(scipperrors.KindVariances,
			"got %d variances for %d values", len(variances), len(values))
	}
	v, err := New(d, dtype.Float64, u, variances != nil)
	if err != nil {
		return nil, err
	}
	dst, _ := v.buf.Float64s()
	copy(dst, values)
	if variances != nil {
		dvar, _ := v.buf.Float64Variances()
		copy(dvar, variances)
	}
	return v, nil
}

// FromInt64s builds an owning Int64 Variable from explicit values.
func FromInt64s(d dims.Dimensions, u units.Unit, values []int64) (*Variable, error) {
	if len(values) != d.Volume() {
		return nil, scipperrors.Newf(scipperrors.KindDimension,
			"got %d values for dimensions %s of volume %d", len(values), d, d.Volume())
	}
	v, err := New(d, dtype.Int64, u, false)
	if err != nil {
		return nil, err
	}
	dst, _ := v.buf.Int64s()
	copy(dst, values)
	return v, nil
}

// FromStrings builds an owning String Variable from explicit values.
func FromStrings(d dims.Dimensions, values []string) (*Variable, error) {
	if len(values) != d.Volume() {
		return nil, scipperrors.Newf(scipperrors.KindDimension,
			"got %d values for dimensions %s of volume %d", len(values), d, d.Volume())
	}
	v, err := New(d, dtype.String, units.Dimensionless, false)
	if err != nil {
		return nil, err
	}
	dst, _ := v.buf.Strings()
	copy(dst, values)
	return v, nil
}

// FromBools builds an owning Bool Variable from explicit values. Masks are
// built this way; they are always dimensionless.
func FromBools(d dims.Dimensions, values []bool) (*Variable, error) {
	if len(values) != d.Volume() {
		return nil, scipperrors.Newf(scipperrors.KindDimension,
			"got %d values for dimensions %s of volume %d", len(values), d, d.Volume())
	}
	v, err := New(d, dtype.Bool, units.Dimensionless, false)
	if err != nil {
		return nil, err
	}
	dst, _ := v.buf.Bools()
	copy(dst, values)
	return v, nil
}

// FromEventLists builds an owning ragged Variable. d must contain a ragged
// dimension; lists are deep-copied.
func FromEventLists(d dims.Dimensions, u units.Unit, lists [][]float64) (*Variable, error) {
	if len(lists) != d.Volume() {
		return nil, scipperrors.Newf(scipperrors.KindDimension,
			"got %d event lists for dimensions %s of volume %d", len(lists), d, d.Volume())
	}
	v, err := New(d, dtype.EventListFloat64, u, false)
	if err != nil {
		return nil, err
	}
	dst, _ := v.buf.EventLists()
	for i, list := range lists {
		dst[i] = append([]float64(nil), list...)
	}
	return v, nil
}

// Scalar builds a dimensionless 0-d Float64 Variable.
func Scalar(value float64, u units.Unit) *Variable {
	v, err := FromFloat64s(dims.Dimensions{}, u, []float64{value}, nil)
	if err != nil {
		panic(err)
	}
	return v
}

// Dims returns the dimension space.
func (v *Variable) Dims() dims.Dimensions {
	return v.dims.Copy()
}

// Unit returns the physical unit.
func (v *Variable) Unit() units.Unit {
	return v.unit
}

// SetUnit replaces the unit tag.
func (v *Variable) SetUnit(u units.Unit) error {
	if v.readonly {
		return scipperrors.New(scipperrors.KindReadonly, "variable is readonly")
	}
	v.unit = u
	return nil
}

// DType returns the element type.
func (v *Variable) DType() dtype.DType {
	return v.buf.DType()
}

// HasVariances reports whether per-element variances are present.
func (v *Variable) HasVariances() bool {
	return v.buf.HasVariances()
}

// IsView reports whether this Variable shares a buffer it does not own.
func (v *Variable) IsView() bool {
	return !v.owning
}

// Readonly reports whether mutation through this handle is forbidden.
func (v *Variable) Readonly() bool {
	return v.readonly
}

// AsReadonly returns a handle through which all mutating accessors fail.
func (v *Variable) AsReadonly() *Variable {
	out := *v
	out.readonly = true
	out.owning = false
	return &out
}

// Buffer exposes the underlying storage. Engine-internal packages use it
// for dispatch; host bindings should prefer the typed span accessors.
func (v *Variable) Buffer() *buffer.Buffer {
	return v.buf
}

// Offset returns the flat storage position of the all-zeros index.
func (v *Variable) Offset() int {
	return v.offset
}

// Strides returns a copy of the per-dimension element strides.
func (v *Variable) Strides() []int {
	return append([]int(nil), v.strides...)
}

// StridesFor returns strides aligned to a broadcast target: dimensions the
// Variable lacks get stride zero. Extent agreement must have been checked
// by the caller (dims.Merge does).
func (v *Variable) StridesFor(target dims.Dimensions) []int {
	labels := target.Labels()
	out := make([]int, len(labels))
	for i, label := range labels {
		if j := v.dims.Index(label); j >= 0 {
			out[i] = v.strides[j]
		}
	}
	return out
}

// Iter returns an iterator over the Variable's elements in logical
// row-major order, yielding flat buffer positions.
func (v *Variable) Iter() *Index {
	return NewIndex(iterShape(v.dims), v.strides, v.offset)
}

// IsEdges reports whether the Variable holds bin edges for a dimension:
// its extent along dim is one more than the data extent.
func (v *Variable) IsEdges(dim dims.Dim, dataExtent int) bool {
	extent, err := v.dims.Extent(dim)
	return err == nil && extent == dataExtent+1
}

// SharesBufferWith reports whether two Variables alias the same storage.
func (v *Variable) SharesBufferWith(other *Variable) bool {
	return v.buf == other.buf
}

// Copy returns a deep, contiguous, unaliased owning copy. The copy is
// always fully sequential.
func (v *Variable) Copy() *Variable {
	if v.isContiguous() {
		return newOwning(v.dims.Copy(), v.unit, v.buf.Copy())
	}
	out, err := New(v.dims, v.DType(), v.unit, v.HasVariances())
	if err != nil {
		panic(err)
	}
	n := v.dims.Volume()
	src := v.Iter()
	srcIndex := func(int) int {
		flat := src.Flat()
		src.Next()
		return flat
	}
	if err := buffer.CopyIndexed(out.buf, func(i int) int { return i }, v.buf, srcIndex, n); err != nil {
		panic(err)
	}
	return out
}

// ShallowCopy returns a new handle sharing the same buffer, offset and
// strides. Mutations through either handle are visible to both.
func (v *Variable) ShallowCopy() *Variable {
	out := *v
	out.owning = false
	out.strides = append([]int(nil), v.strides...)
	return &out
}

// isContiguous reports whether the view covers the whole buffer in
// canonical layout.
func (v *Variable) isContiguous() bool {
	if v.offset != 0 || v.buf.Len() != v.dims.Volume() {
		return false
	}
	canonical := canonicalStrides(v.dims)
	for i := range canonical {
		if canonical[i] != v.strides[i] {
			return false
		}
	}
	return true
}

// SetFrom copies src's elements into this (possibly sliced) Variable,
// writing through the shared buffer. Dimensions, dtype, unit and variance
// presence must match. Every view aliasing this storage observes the
// write.
func (v *Variable) SetFrom(src *Variable) error {
	if v.readonly {
		return scipperrors.New(scipperrors.KindReadonly, "variable is readonly")
	}
	if !v.dims.Equal(src.dims) {
		return scipperrors.Newf(scipperrors.KindDimension,
			"cannot assign %s into %s", src.dims, v.dims)
	}
	if v.DType() != src.DType() {
		return scipperrors.Newf(scipperrors.KindDType,
			"cannot assign %s into %s", src.DType(), v.DType())
	}
	if !v.unit.Equal(src.unit) {
		return scipperrors.Newf(scipperrors.KindUnit,
			"cannot assign unit %s into %s", src.unit, v.unit)
	}
	if v.HasVariances() != src.HasVariances() {
		return scipperrors.New(scipperrors.KindVariances,
			"cannot assign between variables with and without variances")
	}
	// Self-assignment through overlapping layouts would read already
	// written cells; stage through a copy when buffers alias.
	if v.SharesBufferWith(src) {
		src = src.Copy()
	}
	n := v.dims.Volume()
	dst := v.Iter()
	dstIndex := func(int) int {
		flat := dst.Flat()
		dst.Next()
		return flat
	}
	srcIter := src.Iter()
	srcIndex := func(int) int {
		flat := srcIter.Flat()
		srcIter.Next()
		return flat
	}
	return buffer.CopyIndexed(v.buf, dstIndex, src.buf, srcIndex, n)
}

// Equal reports deep equality: dimensions, unit, dtype, variance presence
// and all elements.
func Equal(a, b *Variable) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !a.dims.Equal(b.dims) || !a.unit.Equal(b.unit) ||
		a.DType() != b.DType() || a.HasVariances() != b.HasVariances() {
		return false
	}
	ai, bi := a.Iter(), b.Iter()
	for !ai.Done() {
		if !buffer.ElemEqual(a.buf, ai.Flat(), b.buf, bi.Flat()) {
			return false
		}
		ai.Next()
		bi.Next()
	}
	return true
}

// String renders a short summary, not the full contents.
func (v *Variable) String() string {
	return fmt.Sprintf("Variable(dims=%s, dtype=%s, unit=%s, variances=%t)",
		v.dims, v.DType(), v.unit, v.HasVariances())
}
