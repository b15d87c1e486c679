package dataset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/scipp/scipp-sub001/pkg/dims"
	"github.com/scipp/scipp-sub001/pkg/dtype"
	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
	"github.com/scipp/scipp-sub001/pkg/transform"
	"github.com/scipp/scipp-sub001/pkg/variable"
)

// Dataset holds named data items over shared coordinates and masks. Items
// joining the dataset must agree with the shared coordinates along every
// dimension they span; the shared metadata survives removal of the last
// item.
type Dataset struct {
	coords map[dims.Dim]*variable.Variable
	masks  map[string]*variable.Variable
	items  map[string]*variable.Variable
}

// New returns an empty Dataset.
func New() *Dataset {
	return &Dataset{
		coords: map[dims.Dim]*variable.Variable{},
		masks:  map[string]*variable.Variable{},
		items:  map[string]*variable.Variable{},
	}
}

// SetCoord attaches a shared coordinate. Every existing item must be
// consistent with it: along each dimension the coordinate spans, item
// extents must match exactly or be one less (bin edges).
func (d *Dataset) SetCoord(dim dims.Dim, coord *variable.Variable) error {
	for name, data := range d.items {
		if err := checkItemAgainstCoord(name, data, dim, coord); err != nil {
			return err
		}
	}
	d.coords[dim] = coord
	return nil
}

// checkItemAgainstCoord validates one item against one shared coordinate.
// Dimensions of the coordinate absent from the item are ignored; the item
// simply does not depend on them.
func checkItemAgainstCoord(name string, data *variable.Variable, dim dims.Dim, coord *variable.Variable) error {
	for _, label := range coord.Dims().Labels() {
		dataExtent, err := data.Dims().Extent(label)
		if err != nil {
			continue
		}
		coordExtent, _ := coord.Dims().Extent(label)
		if coordExtent == dataExtent {
			continue
		}
		if label == dim && coordExtent == dataExtent+1 {
			continue
		}
		return scipperrors.Newf(scipperrors.KindDimension,
			"coord for %q has extent %d along %q, item %q has %d",
			dim, coordExtent, label, name, dataExtent)
	}
	return nil
}

// Coord returns a shared coordinate.
func (d *Dataset) Coord(dim dims.Dim) (*variable.Variable, error) {
	coord, ok := d.coords[dim]
	if !ok {
		return nil, scipperrors.Newf(scipperrors.KindNotFound, "no coord for dimension %q", dim)
	}
	return coord, nil
}

// SetMask attaches a shared mask.
func (d *Dataset) SetMask(name string, mask *variable.Variable) error {
	if mask.DType() != dtype.Bool {
		return scipperrors.Newf(scipperrors.KindDType,
			"mask %q must be Bool, got %s", name, mask.DType())
	}
	if !mask.Unit().IsDimensionless() {
		return scipperrors.Newf(scipperrors.KindUnit,
			"mask %q must be dimensionless, got %s", name, mask.Unit())
	}
	d.masks[name] = mask
	return nil
}

// Mask returns a shared mask.
func (d *Dataset) Mask(name string) (*variable.Variable, error) {
	mask, ok := d.masks[name]
	if !ok {
		return nil, scipperrors.Newf(scipperrors.KindNotFound, "no mask %q", name)
	}
	return mask, nil
}

// SetData adds or replaces a named data item. The item must agree with
// every shared coordinate along the dimensions it spans.
func (d *Dataset) SetData(name string, data *variable.Variable) error {
	if data == nil {
		return scipperrors.Newf(scipperrors.KindInternal, "item %q requires data", name)
	}
	for dim, coord := range d.coords {
		if err := checkItemAgainstCoord(name, data, dim, coord); err != nil {
			return err
		}
	}
	d.items[name] = data
	return nil
}

// Erase removes a named item. Shared coordinates and masks are kept, even
// when the last item goes.
func (d *Dataset) Erase(name string) error {
	if _, ok := d.items[name]; !ok {
		return scipperrors.Newf(scipperrors.KindNotFound, "no item %q", name)
	}
	delete(d.items, name)
	return nil
}

// Names returns the item names, sorted.
func (d *Dataset) Names() []string {
	out := make([]string, 0, len(d.items))
	for name := range d.items {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of items.
func (d *Dataset) Len() int {
	return len(d.items)
}

// Item assembles a DataArray for a named item: its data plus the shared
// coordinates and masks restricted to dimensions the item spans.
func (d *Dataset) Item(name string) (*DataArray, error) {
	data, ok := d.items[name]
	if !ok {
		return nil, scipperrors.Newf(scipperrors.KindNotFound, "no item %q", name)
	}
	out, err := NewDataArray(name, data)
	if err != nil {
		return nil, err
	}
	space := data.Dims()
	for dim, coord := range d.coords {
		if coordSpansItem(coord, space) {
			if err := out.SetCoord(dim, coord); err != nil {
				return nil, err
			}
		}
	}
	for maskName, mask := range d.masks {
		if coordSpansItem(mask, space) {
			if err := out.SetMask(maskName, mask); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func coordSpansItem(v *variable.Variable, space dims.Dimensions) bool {
	for _, label := range v.Dims().Labels() {
		if !space.Contains(label) {
			return false
		}
	}
	return true
}

// SetItem adds a DataArray as an item: its data joins under the array's
// name, its coords and masks join the shared collections and must be
// element-identical to any already present.
func (d *Dataset) SetItem(da *DataArray) error {
	if da.name == "" {
		return scipperrors.New(scipperrors.KindInternal, "item requires a name")
	}
	for dim, coord := range da.coords {
		if existing, ok := d.coords[dim]; ok && !variable.Equal(existing, coord) {
			return scipperrors.Newf(scipperrors.KindCoordMismatch,
				"coords for dimension %q differ", dim)
		}
	}
	if err := d.SetData(da.name, da.data); err != nil {
		return err
	}
	for dim, coord := range da.coords {
		if _, ok := d.coords[dim]; !ok {
			if err := d.SetCoord(dim, coord); err != nil {
				return err
			}
		}
	}
	for name, mask := range da.masks {
		if existing, ok := d.masks[name]; ok {
			if !variable.Equal(existing, mask) {
				combined, err := transform.Or(existing, mask)
				if err != nil {
					return err
				}
				d.masks[name] = combined
			}
			continue
		}
		d.masks[name] = mask
	}
	return nil
}

// Copy returns a deep copy of all items, coordinates and masks.
func (d *Dataset) Copy() *Dataset {
	out := New()
	for dim, coord := range d.coords {
		out.coords[dim] = coord.Copy()
	}
	for name, mask := range d.masks {
		out.masks[name] = mask.Copy()
	}
	for name, data := range d.items {
		out.items[name] = data.Copy()
	}
	return out
}

// applyBinaryDatasets applies an operation with set-union item semantics:
// items sharing a name are combined element-wise, one-sided items propagate
// unchanged. Shared coordinates must agree by element equality.
func applyBinaryDatasets(op transform.BinaryOp, a, b *Dataset) (*Dataset, error) {
	coords, err := alignCoords(a.coords, b.coords)
	if err != nil {
		return nil, err
	}
	masks, err := unionMasks(a.masks, b.masks)
	if err != nil {
		return nil, err
	}
	out := New()
	out.coords = coords
	out.masks = masks
	for name, data := range a.items {
		if other, ok := b.items[name]; ok {
			combined, err := transform.Transform(op, data, other)
			if err != nil {
				return nil, scipperrors.Wrap(err, scipperrors.KindOf(err), "item "+name)
			}
			out.items[name] = combined
			continue
		}
		out.items[name] = data
	}
	for name, data := range b.items {
		if _, ok := out.items[name]; !ok {
			out.items[name] = data
		}
	}
	return out, nil
}

// ApplyInPlace applies a binary operation item by item in sorted name
// order, writing results into this dataset's buffers. Items absent from
// other are untouched. On error the operation stops: items already
// processed keep their new values, so a failed call leaves the dataset
// partially updated.
func (d *Dataset) ApplyInPlace(op transform.BinaryOp, other *Dataset) error {
	for dim, coord := range other.coords {
		if existing, ok := d.coords[dim]; ok && !variable.Equal(existing, coord) {
			return scipperrors.Newf(scipperrors.KindCoordMismatch,
				"coords for dimension %q differ", dim)
		}
	}
	for _, name := range d.Names() {
		src, ok := other.items[name]
		if !ok {
			continue
		}
		data := d.items[name]
		if err := transform.TransformInPlace(op, data, data, src); err != nil {
			return scipperrors.Wrap(err, scipperrors.KindOf(err), "item "+name)
		}
	}
	return nil
}

// Merge unions two datasets. Keys present on both sides must be element
// identical: unequal coordinates or masks are a coordinate mismatch, and so
// are unequal items sharing a name. Merge is symmetric in its result.
func Merge(a, b *Dataset) (*Dataset, error) {
	coords, err := alignCoords(a.coords, b.coords)
	if err != nil {
		return nil, err
	}
	out := New()
	out.coords = coords
	for name, mask := range a.masks {
		if other, ok := b.masks[name]; ok && !variable.Equal(mask, other) {
			return nil, scipperrors.Newf(scipperrors.KindCoordMismatch,
				"masks %q differ", name)
		}
		out.masks[name] = mask
	}
	for name, mask := range b.masks {
		if _, ok := out.masks[name]; !ok {
			out.masks[name] = mask
		}
	}
	for name, data := range a.items {
		if other, ok := b.items[name]; ok && !variable.Equal(data, other) {
			return nil, scipperrors.Newf(scipperrors.KindCoordMismatch,
				"items %q differ", name)
		}
		out.items[name] = data
	}
	for name, data := range b.items {
		if _, ok := out.items[name]; !ok {
			out.items[name] = data
		}
	}
	return out, nil
}

// EqualDatasets reports deep equality of coords, masks and items.
func EqualDatasets(a, b *Dataset) bool {
	if len(a.coords) != len(b.coords) || len(a.masks) != len(b.masks) ||
		len(a.items) != len(b.items) {
		return false
	}
	for dim, coord := range a.coords {
		if !variable.Equal(coord, b.coords[dim]) {
			return false
		}
	}
	for name, mask := range a.masks {
		if !variable.Equal(mask, b.masks[name]) {
			return false
		}
	}
	for name, data := range a.items {
		if !variable.Equal(data, b.items[name]) {
			return false
		}
	}
	return true
}

// String renders a short summary.
func (d *Dataset) String() string {
	var b strings.Builder
	b.WriteString("Dataset(")
	for i, name := range d.Names() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", name, d.items[name])
	}
	b.WriteByte(')')
	return b.String()
}
