// Package histogram converts ragged event lists into dense histograms
// against a set of bin edges. Each event is looked up in the sorted edges,
// with a closed-form index for uniformly spaced edges, and accumulates its
// weight into the owning bin. Events outside the edge range are dropped.
package histogram

import (
	"math"
	"sort"

	"github.com/scipp/scipp-sub001/internal/kernels"
	"github.com/scipp/scipp-sub001/pkg/dataset"
	"github.com/scipp/scipp-sub001/pkg/dims"
	"github.com/scipp/scipp-sub001/pkg/dtype"
	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
	"github.com/scipp/scipp-sub001/pkg/units"
	"github.com/scipp/scipp-sub001/pkg/variable"
)

// binLocator maps an event value to its bin, or -1 when out of range.
type binLocator func(x float64) int

// locator builds the bin lookup. Uniformly spaced edges get the closed
// form; anything else falls back to binary search.
func locator(edges []float64) binLocator {
	lo, hi := edges[0], edges[len(edges)-1]
	nBins := len(edges) - 1
	width := (hi - lo) / float64(nBins)
	uniform := true
	for i, edge := range edges {
		want := lo + float64(i)*width
		if math.Abs(edge-want) > 1e-9*math.Max(math.Abs(want), 1) {
			uniform = false
			break
		}
	}
	if uniform {
		return func(x float64) int {
			if x < lo || x >= hi {
				return -1
			}
			bin := int((x - lo) / width)
			if bin >= nBins {
				bin = nBins - 1
			}
			return bin
		}
	}
	return func(x float64) int {
		if x < lo || x >= hi {
			return -1
		}
		i := sort.SearchFloat64s(edges, x)
		if i < len(edges) && edges[i] == x {
			return i
		}
		return i - 1
	}
}

// checkEdges validates the edge variable and returns its values, its
// dimension label and the bin count.
func checkEdges(edges *variable.Variable) ([]float64, dims.Dim, error) {
	if edges.DType() != dtype.Float64 || edges.Dims().Count() != 1 {
		return nil, "", scipperrors.New(scipperrors.KindBinEdge,
			"bin edges must be a 1-d Float64 variable")
	}
	raw, err := edges.Copy().Buffer().Float64s()
	if err != nil {
		return nil, "", err
	}
	if len(raw) < 2 {
		return nil, "", scipperrors.New(scipperrors.KindBinEdge, "need at least two bin edges")
	}
	if !sort.Float64sAreSorted(raw) {
		return nil, "", scipperrors.New(scipperrors.KindBinEdge, "bin edges must be ascending")
	}
	return raw, edges.Dims().Labels()[0], nil
}

// Histogram bins ragged events against edges. events must be an event-list
// Variable whose unit matches the edges. weights, when non-nil, is an
// event-list Variable with the same layout providing one weight per event;
// nil weights count each event once. The result is a DataArray whose data
// spans the events' dense dimensions plus the edge dimension, carrying the
// edges as a bin-edge coordinate. Output variances accumulate the squared
// weights, so unit counts give Poisson variances.
func Histogram(events, weights, edges *variable.Variable) (*dataset.DataArray, error) {
	if events.DType() != dtype.EventListFloat64 {
		return nil, scipperrors.Newf(scipperrors.KindSparseData,
			"histogramming requires event-list data, got %s", events.DType())
	}
	edgeValues, binDim, err := checkEdges(edges)
	if err != nil {
		return nil, err
	}
	if !events.Unit().Equal(edges.Unit()) {
		return nil, scipperrors.Newf(scipperrors.KindUnit,
			"event unit %s does not match edge unit %s", events.Unit(), edges.Unit())
	}
	lists, err := events.Buffer().EventLists()
	if err != nil {
		return nil, err
	}

	weightUnit := units.Counts
	var weightLists [][]float64
	if weights != nil {
		if weights.DType() != dtype.EventListFloat64 {
			return nil, scipperrors.Newf(scipperrors.KindSparseData,
				"event weights must be event lists, got %s", weights.DType())
		}
		if !weights.Dims().Equal(events.Dims()) {
			return nil, scipperrors.Newf(scipperrors.KindDimension,
				"weight dimensions %s do not match event dimensions %s",
				weights.Dims(), events.Dims())
		}
		if weightLists, err = weights.Buffer().EventLists(); err != nil {
			return nil, err
		}
		weightUnit = weights.Unit()
	}

	nBins := len(edgeValues) - 1
	outDims := dims.Dimensions{}
	eventDims := events.Dims()
	labels := eventDims.Labels()
	shape := eventDims.Shape()
	for i, label := range labels {
		if eventDims.IsRagged(label) {
			continue
		}
		if err := outDims.AddInner(label, shape[i]); err != nil {
			return nil, err
		}
	}
	if err := outDims.AddInner(binDim, nBins); err != nil {
		return nil, err
	}

	out, err := variable.New(outDims, dtype.Float64, weightUnit, true)
	if err != nil {
		return nil, err
	}
	values, err := out.Buffer().Float64s()
	if err != nil {
		return nil, err
	}
	variances, err := out.Buffer().Float64Variances()
	if err != nil {
		return nil, err
	}

	locate := locator(edgeValues)
	it := events.Iter()
	for pos := 0; !it.Done(); pos++ {
		list := lists[it.Flat()]
		var eventWeights []float64
		if weightLists != nil {
			eventWeights = weightLists[it.Flat()]
			if len(eventWeights) != len(list) {
				return nil, scipperrors.Newf(scipperrors.KindSparseData,
					"event list %d has %d events but %d weights",
					pos, len(list), len(eventWeights))
			}
		}
		base := pos * nBins
		for j, x := range list {
			bin := locate(x)
			if bin < 0 {
				continue
			}
			w := 1.0
			if eventWeights != nil {
				w = eventWeights[j]
			}
			values[base+bin] += w
			variances[base+bin] += w * w
		}
		it.Next()
	}

	da, err := dataset.NewDataArray("", out)
	if err != nil {
		return nil, err
	}
	if err := da.SetCoord(binDim, edges); err != nil {
		return nil, err
	}
	return da, nil
}

// Total sums a histogram's counts, ignoring binning. Mostly a convenience
// for sanity checks against the event count.
func Total(da *dataset.DataArray) (float64, error) {
	values, err := da.Data().Copy().Buffer().Float64s()
	if err != nil {
		return 0, err
	}
	return kernels.Sum(values), nil
}
