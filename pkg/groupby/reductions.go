package groupby

import (
	"math"

	"github.com/scipp/scipp-sub001/internal/kernels"
	"github.com/scipp/scipp-sub001/pkg/dataset"
	"github.com/scipp/scipp-sub001/pkg/dims"
	"github.com/scipp/scipp-sub001/pkg/dtype"
	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
	"github.com/scipp/scipp-sub001/pkg/transform"
	"github.com/scipp/scipp-sub001/pkg/units"
	"github.com/scipp/scipp-sub001/pkg/variable"
)

// outputDims replaces the grouped dimension with the key dimension,
// outermost, keeping the remaining dimensions in input order.
func (g *GroupBy) outputDims() (dims.Dimensions, error) {
	src := g.da.Dims()
	d := dims.Of(g.key, g.NGroups())
	labels := src.Labels()
	shape := src.Shape()
	for i, label := range labels {
		if label == g.dim {
			continue
		}
		if src.IsRagged(label) {
			return dims.Dimensions{}, scipperrors.Newf(scipperrors.KindSparseData,
				"cannot reduce data with ragged dimension %q", label)
		}
		if err := d.AddInner(label, shape[i]); err != nil {
			return dims.Dimensions{}, err
		}
	}
	return d, nil
}

// assemble wraps reduced data with the group-key coordinate and the
// metadata that does not depend on the grouped dimension.
func (g *GroupBy) assemble(data *variable.Variable) (*dataset.DataArray, error) {
	out, err := dataset.NewDataArray(g.da.Name(), data)
	if err != nil {
		return nil, err
	}
	if err := out.SetCoord(g.key, g.coord); err != nil {
		return nil, err
	}
	for _, dim := range g.da.CoordDims() {
		if dim == g.key {
			continue
		}
		coord, err := g.da.Coord(dim)
		if err != nil {
			continue
		}
		if coord.Dims().Contains(g.dim) {
			continue
		}
		if err := out.SetCoord(dim, coord); err != nil {
			return nil, err
		}
	}
	for _, name := range g.da.MaskNames() {
		mask, err := g.da.Mask(name)
		if err != nil {
			continue
		}
		if mask.Dims().Contains(g.dim) {
			continue
		}
		if err := out.SetMask(name, mask); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (g *GroupBy) checkFloat64() error {
	if g.da.Data().DType() != dtype.Float64 {
		return scipperrors.Newf(scipperrors.KindDType,
			"reduction requires Float64 data, got %s", g.da.Data().DType())
	}
	return nil
}

// transposedData returns a view with the grouped dimension outermost, so
// each position along it slices to the output element shape.
func (g *GroupBy) transposedData() (*variable.Variable, error) {
	data := g.da.Data()
	order := []dims.Dim{g.dim}
	for _, label := range data.Dims().Labels() {
		if label != g.dim {
			order = append(order, label)
		}
	}
	return data.Transpose(order...)
}

// contiguousRun returns the raw value (and variance) span of a run when the
// data is 1-d over the grouped dimension with unit stride, enabling the
// contiguous kernels. ok is false otherwise.
func (g *GroupBy) contiguousRun(run [2]int) (values, variances []float64, ok bool) {
	data := g.da.Data()
	if data.Dims().Count() != 1 {
		return nil, nil, false
	}
	strides := data.Strides()
	if strides[0] != 1 {
		return nil, nil, false
	}
	raw, err := data.Buffer().Float64s()
	if err != nil {
		return nil, nil, false
	}
	begin := data.Offset() + run[0]
	end := data.Offset() + run[1]
	values = raw[begin:end]
	if data.HasVariances() {
		rawVar, err := data.Buffer().Float64Variances()
		if err != nil {
			return nil, nil, false
		}
		variances = rawVar[begin:end]
	}
	return values, variances, true
}

// anyRunMasked reports whether a run contains masked positions.
func (g *GroupBy) anyRunMasked(run [2]int) bool {
	for pos := run[0]; pos < run[1]; pos++ {
		if g.masked[pos] {
			return true
		}
	}
	return false
}

// Sum reduces each group by summation. Variances add.
func (g *GroupBy) Sum() (*dataset.DataArray, error) {
	if err := g.checkFloat64(); err != nil {
		return nil, err
	}
	outDims, err := g.outputDims()
	if err != nil {
		return nil, err
	}
	data := g.da.Data()
	out, err := variable.New(outDims, dtype.Float64, data.Unit(), data.HasVariances())
	if err != nil {
		return nil, err
	}
	outValues, err := out.Buffer().Float64s()
	if err != nil {
		return nil, err
	}
	var outVariances []float64
	if out.HasVariances() {
		if outVariances, err = out.Buffer().Float64Variances(); err != nil {
			return nil, err
		}
	}

	fast := true
	for grp, runs := range g.runs {
		for _, run := range runs {
			values, variances, ok := g.contiguousRun(run)
			if !ok {
				fast = false
				break
			}
			if g.anyRunMasked(run) {
				sum, _ := kernels.SumMasked(values, g.masked[run[0]:run[1]])
				outValues[grp] += sum
				if variances != nil {
					varSum, _ := kernels.SumMasked(variances, g.masked[run[0]:run[1]])
					outVariances[grp] += varSum
				}
				continue
			}
			outValues[grp] += kernels.Sum(values)
			if variances != nil {
				outVariances[grp] += kernels.Sum(variances)
			}
		}
		if !fast {
			break
		}
	}
	if fast {
		return g.assemble(out)
	}

	// Strided or multi-dimensional data: accumulate per position through
	// views, one output slot per group.
	dt, err := g.transposedData()
	if err != nil {
		return nil, err
	}
	srcValues, err := data.Buffer().Float64s()
	if err != nil {
		return nil, err
	}
	var srcVariances []float64
	if data.HasVariances() {
		if srcVariances, err = data.Buffer().Float64Variances(); err != nil {
			return nil, err
		}
	}
	for pos, grp := range g.groupOf {
		if grp < 0 || g.masked[pos] {
			continue
		}
		src, err := dt.SlicePoint(g.dim, pos)
		if err != nil {
			return nil, err
		}
		dst, err := out.SlicePoint(g.key, grp)
		if err != nil {
			return nil, err
		}
		forEachPair(dst, src, func(d, s int) {
			outValues[d] += srcValues[s]
			if srcVariances != nil {
				outVariances[d] += srcVariances[s]
			}
		})
	}
	return g.assemble(out)
}

// Mean reduces each group to its average over unmasked elements. The sum's
// variance divides by the squared count.
func (g *GroupBy) Mean() (*dataset.DataArray, error) {
	summed, err := g.Sum()
	if err != nil {
		return nil, err
	}
	out := summed.Data()
	for grp, count := range g.counts {
		slot, err := out.SlicePoint(g.key, grp)
		if err != nil {
			return nil, err
		}
		divisor := variable.Scalar(float64(count), units.Dimensionless)
		if err := transform.TransformInPlace(transform.OpDiv, slot, slot, divisor); err != nil {
			return nil, err
		}
	}
	return summed, nil
}

// extremum reduces each group with a pairwise choice function. The variance
// of the chosen element is carried.
func (g *GroupBy) extremum(init float64, better func(x, acc float64) bool,
	fastKernel func(xs []float64, mask []bool) float64) (*dataset.DataArray, error) {
	if err := g.checkFloat64(); err != nil {
		return nil, err
	}
	outDims, err := g.outputDims()
	if err != nil {
		return nil, err
	}
	data := g.da.Data()
	out, err := variable.New(outDims, dtype.Float64, data.Unit(), data.HasVariances())
	if err != nil {
		return nil, err
	}
	outValues, err := out.Buffer().Float64s()
	if err != nil {
		return nil, err
	}
	for i := range outValues {
		outValues[i] = init
	}
	var outVariances []float64
	if out.HasVariances() {
		if outVariances, err = out.Buffer().Float64Variances(); err != nil {
			return nil, err
		}
	}

	if data.Dims().Count() == 1 && !data.HasVariances() {
		fast := true
		for grp, runs := range g.runs {
			for _, run := range runs {
				values, _, ok := g.contiguousRun(run)
				if !ok {
					fast = false
					break
				}
				candidate := fastKernel(values, g.masked[run[0]:run[1]])
				if better(candidate, outValues[grp]) {
					outValues[grp] = candidate
				}
			}
			if !fast {
				break
			}
		}
		if fast {
			return g.assemble(out)
		}
	}

	dt, err := g.transposedData()
	if err != nil {
		return nil, err
	}
	srcValues, err := data.Buffer().Float64s()
	if err != nil {
		return nil, err
	}
	var srcVariances []float64
	if data.HasVariances() {
		if srcVariances, err = data.Buffer().Float64Variances(); err != nil {
			return nil, err
		}
	}
	for pos, grp := range g.groupOf {
		if grp < 0 || g.masked[pos] {
			continue
		}
		src, err := dt.SlicePoint(g.dim, pos)
		if err != nil {
			return nil, err
		}
		dst, err := out.SlicePoint(g.key, grp)
		if err != nil {
			return nil, err
		}
		forEachPair(dst, src, func(d, s int) {
			if better(srcValues[s], outValues[d]) {
				outValues[d] = srcValues[s]
				if srcVariances != nil {
					outVariances[d] = srcVariances[s]
				}
			}
		})
	}
	return g.assemble(out)
}

// Min reduces each group to its minimum. Empty groups yield +Inf.
func (g *GroupBy) Min() (*dataset.DataArray, error) {
	return g.extremum(math.Inf(1),
		func(x, acc float64) bool { return x < acc },
		kernels.MinMasked)
}

// Max reduces each group to its maximum. Empty groups yield -Inf.
func (g *GroupBy) Max() (*dataset.DataArray, error) {
	return g.extremum(math.Inf(-1),
		func(x, acc float64) bool { return x > acc },
		kernels.MaxMasked)
}

// logical reduces Bool data per group. Empty groups yield the identity.
func (g *GroupBy) logical(identity bool, combine func(acc, x bool) bool) (*dataset.DataArray, error) {
	data := g.da.Data()
	if data.DType() != dtype.Bool {
		return nil, scipperrors.Newf(scipperrors.KindDType,
			"logical reduction requires Bool data, got %s", data.DType())
	}
	outDims, err := g.outputDims()
	if err != nil {
		return nil, err
	}
	out, err := variable.New(outDims, dtype.Bool, units.Dimensionless, false)
	if err != nil {
		return nil, err
	}
	outValues, err := out.Buffer().Bools()
	if err != nil {
		return nil, err
	}
	for i := range outValues {
		outValues[i] = identity
	}
	srcValues, err := data.Buffer().Bools()
	if err != nil {
		return nil, err
	}
	dt, err := g.transposedData()
	if err != nil {
		return nil, err
	}
	for pos, grp := range g.groupOf {
		if grp < 0 || g.masked[pos] {
			continue
		}
		src, err := dt.SlicePoint(g.dim, pos)
		if err != nil {
			return nil, err
		}
		dst, err := out.SlicePoint(g.key, grp)
		if err != nil {
			return nil, err
		}
		forEachPair(dst, src, func(d, s int) {
			outValues[d] = combine(outValues[d], srcValues[s])
		})
	}
	return g.assemble(out)
}

// All reduces each group with logical and.
func (g *GroupBy) All() (*dataset.DataArray, error) {
	return g.logical(true, func(acc, x bool) bool { return acc && x })
}

// Any reduces each group with logical or.
func (g *GroupBy) Any() (*dataset.DataArray, error) {
	return g.logical(false, func(acc, x bool) bool { return acc || x })
}

// ConcatBins concatenates event lists per group, in run order. The data
// must be a ragged event-list Variable over the grouped dimension.
func (g *GroupBy) ConcatBins() (*dataset.DataArray, error) {
	data := g.da.Data()
	if data.DType() != dtype.EventListFloat64 {
		return nil, scipperrors.Newf(scipperrors.KindSparseData,
			"bin concatenation requires event-list data, got %s", data.DType())
	}
	d := data.Dims()
	ragged := d.Ragged()
	if d.Count() != 2 || d.Labels()[0] != g.dim {
		return nil, scipperrors.Newf(scipperrors.KindDimension,
			"bin concatenation requires data over {%s, %s}, got %s", g.dim, ragged, d)
	}
	lists, err := data.Buffer().EventLists()
	if err != nil {
		return nil, err
	}
	grouped := make([][]float64, g.NGroups())
	it := data.Iter()
	for pos := 0; !it.Done(); pos++ {
		grp := g.groupOf[pos]
		if grp >= 0 && !g.masked[pos] {
			grouped[grp] = append(grouped[grp], lists[it.Flat()]...)
		}
		it.Next()
	}
	outDims := dims.Of(g.key, g.NGroups())
	if err := outDims.AddRagged(ragged); err != nil {
		return nil, err
	}
	out, err := variable.FromEventLists(outDims, data.Unit(), grouped)
	if err != nil {
		return nil, err
	}
	return g.assemble(out)
}

// forEachPair walks two equal-shaped views in logical order, yielding flat
// buffer positions.
func forEachPair(dst, src *variable.Variable, visit func(dstFlat, srcFlat int)) {
	di, si := dst.Iter(), src.Iter()
	for !di.Done() {
		visit(di.Flat(), si.Flat())
		di.Next()
		si.Next()
	}
}
