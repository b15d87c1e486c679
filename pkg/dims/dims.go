// Package dims provides dimension labels and the ordered label-to-extent
// mapping shared by every Variable in the engine.
package dims

import (
	"strconv"
	"strings"

	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
)

// Dim is an opaque dimension label. Labels are compared by identity and
// ordered lexicographically; the engine imposes no schema on their values.
type Dim string

// RaggedExtent is the extent recorded for a ragged dimension. A ragged
// dimension has no fixed extent: each outer index addresses a
// variable-length list.
const RaggedExtent = -1

// Dimensions is an ordered sequence of (label, extent) pairs, outermost
// first. Labels are unique. At most one dimension may be ragged, and the
// ragged dimension is always innermost for storage purposes.
type Dimensions struct {
	labels []Dim
	shape  []int
	ragged Dim
}

// New builds Dimensions from parallel label and extent slices, outermost
// first. An extent of RaggedExtent marks the ragged dimension, which must
// be last.
func New(labels []Dim, shape []int) (Dimensions, error) {
	if len(labels) != len(shape) {
		return Dimensions{}, scipperrors.Newf(scipperrors.KindDimension,
			"got %d labels but %d extents", len(labels), len(shape))
	}
	var d Dimensions
	for i, label := range labels {
		if shape[i] == RaggedExtent {
			if i != len(labels)-1 {
				return Dimensions{}, scipperrors.Newf(scipperrors.KindDimension,
					"ragged dimension %q must be innermost", label)
			}
			if err := d.AddRagged(label); err != nil {
				return Dimensions{}, err
			}
			continue
		}
		if err := d.AddInner(label, shape[i]); err != nil {
			return Dimensions{}, err
		}
	}
	return d, nil
}

// MustNew is New for statically known shapes; it panics on error.
func MustNew(labels []Dim, shape []int) Dimensions {
	d, err := New(labels, shape)
	if err != nil {
		panic(err)
	}
	return d
}

// Of builds Dimensions for a single dense dimension.
func Of(label Dim, extent int) Dimensions {
	return MustNew([]Dim{label}, []int{extent})
}

// Count returns the number of dimensions, the ragged one included.
func (d Dimensions) Count() int {
	return len(d.labels)
}

// Labels returns a copy of the dimension labels, outermost first.
func (d Dimensions) Labels() []Dim {
	return append([]Dim(nil), d.labels...)
}

// Shape returns a copy of the extents, outermost first.
func (d Dimensions) Shape() []int {
	return append([]int(nil), d.shape...)
}

// Contains reports whether the label is present.
func (d Dimensions) Contains(label Dim) bool {
	return d.Index(label) >= 0
}

// Index returns the position of the label, or -1 if absent.
func (d Dimensions) Index(label Dim) int {
	for i, l := range d.labels {
		if l == label {
			return i
		}
	}
	return -1
}

// Extent returns the extent of the label, RaggedExtent for the ragged
// dimension.
func (d Dimensions) Extent(label Dim) (int, error) {
	i := d.Index(label)
	if i < 0 {
		return 0, scipperrors.Newf(scipperrors.KindDimension,
			"dimension %q not found in %s", label, d)
	}
	return d.shape[i], nil
}

// Ragged returns the ragged dimension label, or "" if none.
func (d Dimensions) Ragged() Dim {
	return d.ragged
}

// IsRagged reports whether the label is the ragged dimension.
func (d Dimensions) IsRagged(label Dim) bool {
	return d.ragged != "" && d.ragged == label
}

// Add prepends a new outermost dimension.
func (d *Dimensions) Add(label Dim, extent int) error {
	if err := d.check(label, extent); err != nil {
		return err
	}
	d.labels = append([]Dim{label}, d.labels...)
	d.shape = append([]int{extent}, d.shape...)
	return nil
}

// AddInner appends a new innermost dimension. The ragged dimension, if
// present, stays innermost.
func (d *Dimensions) AddInner(label Dim, extent int) error {
	if err := d.check(label, extent); err != nil {
		return err
	}
	if d.ragged != "" {
		// Keep ragged storage innermost.
		n := len(d.labels)
		d.labels = append(d.labels[:n-1], label, d.ragged)
		d.shape = append(d.shape[:n-1], extent, RaggedExtent)
		return nil
	}
	d.labels = append(d.labels, label)
	d.shape = append(d.shape, extent)
	return nil
}

// AddRagged appends the ragged dimension. Only one ragged dimension is
// allowed per Dimensions.
func (d *Dimensions) AddRagged(label Dim) error {
	if d.ragged != "" {
		return scipperrors.Newf(scipperrors.KindDimension,
			"dimensions already have ragged dimension %q", d.ragged)
	}
	if d.Contains(label) {
		return scipperrors.Newf(scipperrors.KindDimension,
			"duplicate dimension %q", label)
	}
	d.labels = append(d.labels, label)
	d.shape = append(d.shape, RaggedExtent)
	d.ragged = label
	return nil
}

func (d Dimensions) check(label Dim, extent int) error {
	if d.Contains(label) {
		return scipperrors.Newf(scipperrors.KindDimension,
			"duplicate dimension %q", label)
	}
	if extent < 0 {
		return scipperrors.Newf(scipperrors.KindDimension,
			"negative extent %d for dimension %q", extent, label)
	}
	return nil
}

// Resize changes the extent of a dimension in place. The caller is
// responsible for keeping any associated buffer consistent.
func (d *Dimensions) Resize(label Dim, extent int) error {
	i := d.Index(label)
	if i < 0 {
		return scipperrors.Newf(scipperrors.KindDimension,
			"dimension %q not found in %s", label, d)
	}
	if d.IsRagged(label) {
		return scipperrors.Newf(scipperrors.KindSparseData,
			"cannot resize ragged dimension %q", label)
	}
	if extent < 0 {
		return scipperrors.Newf(scipperrors.KindDimension,
			"negative extent %d for dimension %q", extent, label)
	}
	d.shape[i] = extent
	return nil
}

// Erase removes a dimension.
func (d *Dimensions) Erase(label Dim) error {
	i := d.Index(label)
	if i < 0 {
		return scipperrors.Newf(scipperrors.KindDimension,
			"dimension %q not found in %s", label, d)
	}
	d.labels = append(d.labels[:i], d.labels[i+1:]...)
	d.shape = append(d.shape[:i], d.shape[i+1:]...)
	if d.ragged == label {
		d.ragged = ""
	}
	return nil
}

// Volume returns the number of storage cells: the product of all dense
// extents. The ragged dimension is excluded; its lists are counted
// individually by the buffer.
func (d Dimensions) Volume() int {
	v := 1
	for i, extent := range d.shape {
		if d.IsRagged(d.labels[i]) {
			continue
		}
		v *= extent
	}
	return v
}

// Slice returns the Dimensions of a [begin,end) slice along a dimension.
func (d Dimensions) Slice(label Dim, begin, end int) (Dimensions, error) {
	i := d.Index(label)
	if i < 0 {
		return Dimensions{}, scipperrors.Newf(scipperrors.KindDimension,
			"dimension %q not found in %s", label, d)
	}
	if d.IsRagged(label) {
		return Dimensions{}, scipperrors.Newf(scipperrors.KindSparseData,
			"cannot slice ragged dimension %q", label)
	}
	if begin < 0 || end > d.shape[i] || begin > end {
		return Dimensions{}, scipperrors.Newf(scipperrors.KindSlice,
			"slice bounds [%d,%d) out of range for dimension %q of extent %d",
			begin, end, label, d.shape[i])
	}
	out := d.Copy()
	out.shape[i] = end - begin
	return out, nil
}

// SlicePoint returns the Dimensions of a point slice: the dimension is
// dropped.
func (d Dimensions) SlicePoint(label Dim, index int) (Dimensions, error) {
	i := d.Index(label)
	if i < 0 {
		return Dimensions{}, scipperrors.Newf(scipperrors.KindDimension,
			"dimension %q not found in %s", label, d)
	}
	if d.IsRagged(label) {
		return Dimensions{}, scipperrors.Newf(scipperrors.KindSparseData,
			"cannot slice ragged dimension %q", label)
	}
	if index < 0 || index >= d.shape[i] {
		return Dimensions{}, scipperrors.Newf(scipperrors.KindSlice,
			"index %d out of range for dimension %q of extent %d",
			index, label, d.shape[i])
	}
	out := d.Copy()
	if err := out.Erase(label); err != nil {
		return Dimensions{}, err
	}
	return out, nil
}

// Copy returns an independent copy.
func (d Dimensions) Copy() Dimensions {
	return Dimensions{
		labels: append([]Dim(nil), d.labels...),
		shape:  append([]int(nil), d.shape...),
		ragged: d.ragged,
	}
}

// Equal reports whether labels, extents and order all match.
func (d Dimensions) Equal(other Dimensions) bool {
	if len(d.labels) != len(other.labels) || d.ragged != other.ragged {
		return false
	}
	for i := range d.labels {
		if d.labels[i] != other.labels[i] || d.shape[i] != other.shape[i] {
			return false
		}
	}
	return true
}

// Merge computes the broadcast union of two dimension spaces: the labels of
// a followed by labels only in b, with pairwise extent agreement required
// for shared labels.
func Merge(a, b Dimensions) (Dimensions, error) {
	out := a.Copy()
	for i, label := range b.labels {
		j := a.Index(label)
		if j < 0 {
			if b.IsRagged(label) {
				if err := out.AddRagged(label); err != nil {
					return Dimensions{}, err
				}
			} else if err := out.AddInner(label, b.shape[i]); err != nil {
				return Dimensions{}, err
			}
			continue
		}
		if a.shape[j] != b.shape[i] || a.IsRagged(label) != b.IsRagged(label) {
			return Dimensions{}, scipperrors.Newf(scipperrors.KindDimension,
				"mismatch in dimension %q: extent %d != %d",
				label, a.shape[j], b.shape[i])
		}
	}
	return out, nil
}

// String renders e.g. {x: 3, y: 4}.
func (d Dimensions) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, label := range d.labels {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(string(label))
		b.WriteString(": ")
		if d.IsRagged(label) {
			b.WriteString("ragged")
		} else {
			b.WriteString(strconv.Itoa(d.shape[i]))
		}
	}
	b.WriteByte('}')
	return b.String()
}
