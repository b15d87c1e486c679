// Package groupby implements split-apply-combine over one dimension of a
// DataArray. A group key is a coordinate; grouping splits the keyed
// dimension into groups of equal key value (or key bin), each held as an
// ordered list of maximal contiguous index runs, and reductions combine
// every group into one output slot along a fresh dimension named after the
// key.
package groupby

import (
	"math"
	"sort"

	"github.com/scipp/scipp-sub001/pkg/dataset"
	"github.com/scipp/scipp-sub001/pkg/dims"
	"github.com/scipp/scipp-sub001/pkg/dtype"
	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
	"github.com/scipp/scipp-sub001/pkg/variable"
)

// GroupBy is a prepared grouping of one DataArray dimension.
type GroupBy struct {
	da  *dataset.DataArray
	key dims.Dim // output dimension, named after the key coord
	dim dims.Dim // grouped input dimension

	// groupOf maps each position along dim to its group, -1 for dropped.
	groupOf []int
	// runs lists, per group, the maximal contiguous [begin,end) runs.
	runs [][][2]int
	// masked marks positions excluded by masks along the grouped dim;
	// counts holds the number of unmasked positions per group.
	masked []bool
	counts []int

	// coord becomes the output coordinate: group keys, or bin edges.
	coord *variable.Variable
	edges bool
}

// New prepares grouping by the distinct values of a coordinate. The key
// names a 1-d coordinate; its dimension is the grouped dimension. Groups
// are ordered by ascending key value.
func New(da *dataset.DataArray, key dims.Dim) (*GroupBy, error) {
	coord, dim, extent, err := keyCoord(da, key)
	if err != nil {
		return nil, err
	}
	g := &GroupBy{da: da, key: key, dim: dim}
	var nGroups int

	switch coord.DType() {
	case dtype.Float64:
		keys := gatherFloat64(coord)
		unique := uniqueFloat64(keys)
		nGroups = len(unique)
		out, err := variable.FromFloat64s(dims.Of(key, len(unique)), coord.Unit(), unique, nil)
		if err != nil {
			return nil, err
		}
		g.coord = out
		index := make(map[float64]int, len(unique))
		for i, k := range unique {
			index[k] = i
		}
		g.groupOf = make([]int, extent)
		for pos, k := range keys {
			if math.IsNaN(k) {
				g.groupOf[pos] = -1
				continue
			}
			g.groupOf[pos] = index[k]
		}
	case dtype.Int64:
		raw, err := coord.Copy().Buffer().Int64s()
		if err != nil {
			return nil, err
		}
		unique := uniqueInt64(raw)
		nGroups = len(unique)
		out, err := variable.FromInt64s(dims.Of(key, len(unique)), coord.Unit(), unique)
		if err != nil {
			return nil, err
		}
		g.coord = out
		index := make(map[int64]int, len(unique))
		for i, k := range unique {
			index[k] = i
		}
		g.groupOf = make([]int, extent)
		for pos, k := range raw {
			g.groupOf[pos] = index[k]
		}
	case dtype.String:
		raw, err := coord.Copy().Buffer().Strings()
		if err != nil {
			return nil, err
		}
		unique := uniqueStrings(raw)
		nGroups = len(unique)
		out, err := variable.FromStrings(dims.Of(key, len(unique)), unique)
		if err != nil {
			return nil, err
		}
		g.coord = out
		index := make(map[string]int, len(unique))
		for i, k := range unique {
			index[k] = i
		}
		g.groupOf = make([]int, extent)
		for pos, k := range raw {
			g.groupOf[pos] = index[k]
		}
	default:
		return nil, scipperrors.Newf(scipperrors.KindDType,
			"cannot group by %s coord %q", coord.DType(), key)
	}
	g.finish(nGroups)
	return g, nil
}

// NewBins prepares grouping of a Float64 coordinate into bins defined by
// sorted edges. Keys outside the edge range are dropped. The edges become
// the output's bin-edge coordinate.
func NewBins(da *dataset.DataArray, key dims.Dim, edges *variable.Variable) (*GroupBy, error) {
	coord, _, extent, err := keyCoord(da, key)
	if err != nil {
		return nil, err
	}
	if coord.DType() != dtype.Float64 {
		return nil, scipperrors.Newf(scipperrors.KindDType,
			"bin grouping requires a Float64 coord, got %s", coord.DType())
	}
	if edges.DType() != dtype.Float64 || edges.Dims().Count() != 1 {
		return nil, scipperrors.New(scipperrors.KindBinEdge,
			"bin edges must be a 1-d Float64 variable")
	}
	if !edges.Unit().Equal(coord.Unit()) {
		return nil, scipperrors.Newf(scipperrors.KindUnit,
			"edge unit %s does not match coord unit %s", edges.Unit(), coord.Unit())
	}
	edgeValues := gatherFloat64(edges)
	if len(edgeValues) < 2 {
		return nil, scipperrors.New(scipperrors.KindBinEdge, "need at least two bin edges")
	}
	if !sort.Float64sAreSorted(edgeValues) {
		return nil, scipperrors.New(scipperrors.KindBinEdge, "bin edges must be ascending")
	}
	nBins := len(edgeValues) - 1

	outCoord, err := variable.FromFloat64s(dims.Of(key, len(edgeValues)), edges.Unit(), edgeValues, nil)
	if err != nil {
		return nil, err
	}
	g := &GroupBy{
		da:    da,
		key:   key,
		dim:   coord.Dims().Labels()[0],
		coord: outCoord,
		edges: true,
	}
	keys := gatherFloat64(coord)
	g.groupOf = make([]int, extent)
	for pos, k := range keys {
		g.groupOf[pos] = binIndex(edgeValues, k)
	}
	g.finish(nBins)
	return g, nil
}

// keyCoord resolves the key coordinate and the grouped dimension. The
// coordinate must be 1-d and a point coordinate, not bin edges.
func keyCoord(da *dataset.DataArray, key dims.Dim) (*variable.Variable, dims.Dim, int, error) {
	coord, err := da.Coord(key)
	if err != nil {
		return nil, "", 0, err
	}
	if coord.Dims().Count() != 1 || coord.Dims().Ragged() != "" {
		return nil, "", 0, scipperrors.Newf(scipperrors.KindDimension,
			"group key %q must be a dense 1-d coord, got %s", key, coord.Dims())
	}
	dim := coord.Dims().Labels()[0]
	extent, err := da.Dims().Extent(dim)
	if err != nil {
		return nil, "", 0, err
	}
	coordExtent, _ := coord.Dims().Extent(dim)
	if coordExtent != extent {
		return nil, "", 0, scipperrors.Newf(scipperrors.KindBinEdge,
			"cannot group by bin-edge coord %q", key)
	}
	return coord, dim, extent, nil
}

// finish derives runs, the mask union along the grouped dim, and per-group
// unmasked counts from groupOf.
func (g *GroupBy) finish(nGroups int) {
	g.runs = make([][][2]int, nGroups)
	for pos := 0; pos < len(g.groupOf); pos++ {
		grp := g.groupOf[pos]
		if grp < 0 {
			continue
		}
		runs := g.runs[grp]
		if n := len(runs); n > 0 && runs[n-1][1] == pos {
			runs[n-1][1] = pos + 1
		} else {
			runs = append(runs, [2]int{pos, pos + 1})
		}
		g.runs[grp] = runs
	}

	g.masked = make([]bool, len(g.groupOf))
	for _, name := range g.da.MaskNames() {
		mask, err := g.da.Mask(name)
		if err != nil {
			continue
		}
		d := mask.Dims()
		if d.Count() != 1 || d.Labels()[0] != g.dim {
			continue
		}
		mi := mask.Iter()
		raw, err := mask.Buffer().Bools()
		if err != nil {
			continue
		}
		for pos := 0; !mi.Done(); pos++ {
			if raw[mi.Flat()] {
				g.masked[pos] = true
			}
			mi.Next()
		}
	}

	g.counts = make([]int, nGroups)
	for pos, grp := range g.groupOf {
		if grp >= 0 && !g.masked[pos] {
			g.counts[grp]++
		}
	}
}

// NGroups returns the number of groups.
func (g *GroupBy) NGroups() int {
	return len(g.runs)
}

// Runs returns the contiguous index runs of one group.
func (g *GroupBy) Runs(group int) [][2]int {
	out := make([][2]int, len(g.runs[group]))
	copy(out, g.runs[group])
	return out
}

// binIndex returns the bin holding k, or -1 when k is out of range. Bin i
// spans [edges[i], edges[i+1]); the final edge is exclusive.
func binIndex(edges []float64, k float64) int {
	if k < edges[0] || k >= edges[len(edges)-1] {
		return -1
	}
	// SearchFloat64s finds the first edge >= k; a key equal to an edge
	// belongs to the bin starting there.
	i := sort.SearchFloat64s(edges, k)
	if i < len(edges) && edges[i] == k {
		return i
	}
	return i - 1
}

// gatherFloat64 copies a possibly strided Float64 view into a fresh slice
// in logical order.
func gatherFloat64(v *variable.Variable) []float64 {
	raw, err := v.Buffer().Float64s()
	if err != nil {
		return nil
	}
	out := make([]float64, 0, v.Dims().Volume())
	it := v.Iter()
	for !it.Done() {
		out = append(out, raw[it.Flat()])
		it.Next()
	}
	return out
}

// uniqueFloat64 returns the sorted distinct keys. NaN keys form no group;
// they compare unequal to everything, themselves included.
func uniqueFloat64(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	sort.Float64s(out)
	n := 0
	for i, x := range out {
		if i == 0 || x != out[n-1] {
			out[n] = x
			n++
		}
	}
	return out[:n]
}

func uniqueInt64(xs []int64) []int64 {
	out := append([]int64(nil), xs...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 0
	for i, x := range out {
		if i == 0 || x != out[n-1] {
			out[n] = x
			n++
		}
	}
	return out[:n]
}

func uniqueStrings(xs []string) []string {
	out := append([]string(nil), xs...)
	sort.Strings(out)
	n := 0
	for i, x := range out {
		if i == 0 || x != out[n-1] {
			out[n] = x
			n++
		}
	}
	return out[:n]
}
