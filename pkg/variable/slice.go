package variable

import (
	"github.com/scipp/scipp-sub001/pkg/dims"
	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
)

// Slice returns a view of the [begin,end) range along a dimension. The
// view shares this Variable's buffer; no data is copied or mutated.
func (v *Variable) Slice(dim dims.Dim, begin, end int) (*Variable, error) {
	sliced, err := v.dims.Slice(dim, begin, end)
	if err != nil {
		return nil, err
	}
	i := v.dims.Index(dim)
	out := *v
	out.dims = sliced
	out.strides = append([]int(nil), v.strides...)
	out.offset = v.offset + begin*v.strides[i]
	out.owning = false
	return &out, nil
}

// SlicePoint returns a view of a single index along a dimension; the
// dimension is dropped from the result.
func (v *Variable) SlicePoint(dim dims.Dim, index int) (*Variable, error) {
	sliced, err := v.dims.SlicePoint(dim, index)
	if err != nil {
		return nil, err
	}
	i := v.dims.Index(dim)
	out := *v
	out.dims = sliced
	out.offset = v.offset + index*v.strides[i]
	out.strides = make([]int, 0, len(v.strides)-1)
	out.strides = append(out.strides, v.strides[:i]...)
	out.strides = append(out.strides, v.strides[i+1:]...)
	out.owning = false
	return &out, nil
}

// Broadcast returns a view over a larger dimension space. Dimensions absent
// from the source get stride zero, so every index along them reads the same
// storage. Shared dimensions must agree in extent.
func (v *Variable) Broadcast(target dims.Dimensions) (*Variable, error) {
	for _, label := range v.dims.Labels() {
		have, _ := v.dims.Extent(label)
		want, err := target.Extent(label)
		if err != nil {
			return nil, scipperrors.Newf(scipperrors.KindDimension,
				"broadcast target %s lacks dimension %q", target, label)
		}
		if have != want || v.dims.IsRagged(label) != target.IsRagged(label) {
			return nil, scipperrors.Newf(scipperrors.KindDimension,
				"mismatch in dimension %q: extent %d != %d", label, have, want)
		}
	}
	out := *v
	out.dims = target.Copy()
	out.strides = v.StridesFor(target)
	out.owning = false
	return &out, nil
}

// Transpose returns a view with reordered dimensions; no data moves. An
// empty order reverses the dimensions. The ragged dimension, if present,
// must stay innermost.
func (v *Variable) Transpose(order ...dims.Dim) (*Variable, error) {
	labels := v.dims.Labels()
	if len(order) == 0 {
		order = make([]dims.Dim, len(labels))
		for i, label := range labels {
			order[len(labels)-1-i] = label
		}
		if v.dims.Ragged() != "" {
			// Reversal would move the ragged dimension; pin it innermost.
			for i, label := range order {
				if label == v.dims.Ragged() {
					order = append(append(order[:i:i], order[i+1:]...), label)
					break
				}
			}
		}
	}
	if len(order) != len(labels) {
		return nil, scipperrors.Newf(scipperrors.KindDimension,
			"transpose order has %d dimensions, variable has %d", len(order), len(labels))
	}
	newDims := dims.Dimensions{}
	newStrides := make([]int, 0, len(order))
	seen := make(map[dims.Dim]bool, len(order))
	for pos, label := range order {
		i := v.dims.Index(label)
		if i < 0 {
			return nil, scipperrors.Newf(scipperrors.KindDimension,
				"dimension %q not found in %s", label, v.dims)
		}
		if seen[label] {
			return nil, scipperrors.Newf(scipperrors.KindDimension,
				"duplicate dimension %q in transpose order", label)
		}
		seen[label] = true
		if v.dims.IsRagged(label) {
			if pos != len(order)-1 {
				return nil, scipperrors.Newf(scipperrors.KindSparseData,
					"ragged dimension %q must stay innermost", label)
			}
			if err := newDims.AddRagged(label); err != nil {
				return nil, err
			}
		} else {
			extent, _ := v.dims.Extent(label)
			if err := newDims.AddInner(label, extent); err != nil {
				return nil, err
			}
		}
		newStrides = append(newStrides, v.strides[i])
	}
	out := *v
	out.dims = newDims
	out.strides = newStrides
	out.owning = false
	return &out, nil
}

// Resize changes the extent of a dimension, reallocating the buffer. The
// overlapping region is copied; growth is zero-filled. Only an owning,
// writable Variable may be resized: views derived before the resize keep
// the old storage.
func (v *Variable) Resize(dim dims.Dim, extent int) error {
	if v.readonly {
		return scipperrors.New(scipperrors.KindReadonly, "variable is readonly")
	}
	if !v.owning {
		return scipperrors.New(scipperrors.KindDimension,
			"cannot resize a view; resize the owning variable")
	}
	old, err := v.dims.Extent(dim)
	if err != nil {
		return err
	}
	newDims := v.dims.Copy()
	if err := newDims.Resize(dim, extent); err != nil {
		return err
	}
	resized, err := New(newDims, v.DType(), v.unit, v.HasVariances())
	if err != nil {
		return err
	}
	overlap := old
	if extent < overlap {
		overlap = extent
	}
	if overlap > 0 {
		srcView, err := v.Slice(dim, 0, overlap)
		if err != nil {
			return err
		}
		dstView, err := resized.Slice(dim, 0, overlap)
		if err != nil {
			return err
		}
		if err := dstView.SetFrom(srcView); err != nil {
			return err
		}
	}
	v.dims = resized.dims
	v.buf = resized.buf
	v.offset = 0
	v.strides = resized.strides
	return nil
}

// Concatenate joins two Variables along a dimension into a fresh owning
// buffer. If neither input has the dimension, both are treated as having
// extent one and the dimension is added outermost. Units, dtypes and
// variance presence must match.
func Concatenate(a, b *Variable, dim dims.Dim) (*Variable, error) {
	if a.DType() != b.DType() {
		return nil, scipperrors.Newf(scipperrors.KindDType,
			"cannot concatenate %s and %s", a.DType(), b.DType())
	}
	if !a.unit.Equal(b.unit) {
		return nil, scipperrors.Newf(scipperrors.KindUnit,
			"cannot concatenate units %s and %s", a.unit, b.unit)
	}
	if a.HasVariances() != b.HasVariances() {
		return nil, scipperrors.New(scipperrors.KindVariances,
			"cannot concatenate variables with and without variances")
	}
	if a.dims.Contains(dim) != b.dims.Contains(dim) {
		return nil, scipperrors.Newf(scipperrors.KindDimension,
			"dimension %q present in only one concatenation operand", dim)
	}
	if !a.dims.Contains(dim) {
		ad := a.dims.Copy()
		if err := ad.Add(dim, 1); err != nil {
			return nil, err
		}
		av, err := a.Broadcast(ad)
		if err != nil {
			return nil, err
		}
		bd := b.dims.Copy()
		if err := bd.Add(dim, 1); err != nil {
			return nil, err
		}
		bv, err := b.Broadcast(bd)
		if err != nil {
			return nil, err
		}
		return Concatenate(av, bv, dim)
	}
	na, _ := a.dims.Extent(dim)
	nb, _ := b.dims.Extent(dim)
	restA, errA := a.dims.Slice(dim, 0, 0)
	restB, errB := b.dims.Slice(dim, 0, 0)
	if errA != nil {
		return nil, errA
	}
	if errB != nil {
		return nil, errB
	}
	if !restA.Equal(restB) {
		return nil, scipperrors.Newf(scipperrors.KindDimension,
			"cannot concatenate %s and %s along %q", a.dims, b.dims, dim)
	}
	outDims := a.dims.Copy()
	if err := outDims.Resize(dim, na+nb); err != nil {
		return nil, err
	}
	out, err := New(outDims, a.DType(), a.unit, a.HasVariances())
	if err != nil {
		return nil, err
	}
	left, err := out.Slice(dim, 0, na)
	if err != nil {
		return nil, err
	}
	if err := left.SetFrom(a); err != nil {
		return nil, err
	}
	right, err := out.Slice(dim, na, na+nb)
	if err != nil {
		return nil, err
	}
	if err := right.SetFrom(b); err != nil {
		return nil, err
	}
	return out, nil
}

// ConcatenateBinEdges joins two bin-edge coordinates along a dimension.
// The last edge of a must equal the first edge of b; the duplicate edge is
// dropped from the result.
func ConcatenateBinEdges(a, b *Variable, dim dims.Dim) (*Variable, error) {
	na, err := a.dims.Extent(dim)
	if err != nil {
		return nil, err
	}
	nb, err := b.dims.Extent(dim)
	if err != nil {
		return nil, err
	}
	if na < 1 || nb < 1 {
		return nil, scipperrors.Newf(scipperrors.KindBinEdge,
			"bin-edge coordinates need at least one edge along %q", dim)
	}
	lastA, err := a.Slice(dim, na-1, na)
	if err != nil {
		return nil, err
	}
	firstB, err := b.Slice(dim, 0, 1)
	if err != nil {
		return nil, err
	}
	if !Equal(lastA, firstB) {
		return nil, scipperrors.Newf(scipperrors.KindBinEdge,
			"bin edges do not join: last edge of the first operand differs from the first edge of the second")
	}
	rest, err := b.Slice(dim, 1, nb)
	if err != nil {
		return nil, err
	}
	return Concatenate(a, rest, dim)
}
