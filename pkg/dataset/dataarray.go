// Package dataset provides the labeled-data containers built on Variable:
// DataArray attaches coordinates, masks and attributes to a data Variable,
// and Dataset holds multiple named DataArrays over shared, alignment-checked
// coordinates. Binary operations align coordinates by element equality and
// union masks with logical or.
package dataset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/scipp/scipp-sub001/pkg/dims"
	"github.com/scipp/scipp-sub001/pkg/dtype"
	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
	"github.com/scipp/scipp-sub001/pkg/variable"
)

// DataArray is a data Variable together with its metadata: coordinates keyed
// by dimension, masks and attributes keyed by name.
type DataArray struct {
	name   string
	data   *variable.Variable
	coords map[dims.Dim]*variable.Variable
	masks  map[string]*variable.Variable
	attrs  map[string]*variable.Variable
}

// NewDataArray wraps a data Variable. Coordinates, masks and attributes are
// attached afterwards via the setters, which validate alignment.
func NewDataArray(name string, data *variable.Variable) (*DataArray, error) {
	if data == nil {
		return nil, scipperrors.New(scipperrors.KindInternal, "data array requires data")
	}
	return &DataArray{
		name:   name,
		data:   data,
		coords: map[dims.Dim]*variable.Variable{},
		masks:  map[string]*variable.Variable{},
		attrs:  map[string]*variable.Variable{},
	}, nil
}

// Name returns the array name.
func (da *DataArray) Name() string {
	return da.name
}

// Rename sets the array name.
func (da *DataArray) Rename(name string) {
	da.name = name
}

// Data returns the data Variable.
func (da *DataArray) Data() *variable.Variable {
	return da.data
}

// SetData replaces the data Variable. Existing metadata must remain aligned
// with the new dimensions.
func (da *DataArray) SetData(data *variable.Variable) error {
	if data == nil {
		return scipperrors.New(scipperrors.KindInternal, "data array requires data")
	}
	for dim, coord := range da.coords {
		if err := checkMember(data.Dims(), coord, true, string(dim)); err != nil {
			return err
		}
	}
	for name, mask := range da.masks {
		if err := checkMember(data.Dims(), mask, false, name); err != nil {
			return err
		}
	}
	da.data = data
	return nil
}

// Dims returns the data's dimension space.
func (da *DataArray) Dims() dims.Dimensions {
	return da.data.Dims()
}

// checkMember validates that a metadata Variable's dimensions lie within the
// data's dimension space with matching extents. Bin-edge coords may exceed
// the data extent by one along their own dimension.
func checkMember(space dims.Dimensions, v *variable.Variable, allowEdges bool, name string) error {
	for _, label := range v.Dims().Labels() {
		dataExtent, err := space.Extent(label)
		if err != nil {
			return scipperrors.Newf(scipperrors.KindDimension,
				"%q depends on dimension %q absent from data dimensions %s", name, label, space)
		}
		extent, _ := v.Dims().Extent(label)
		if extent == dataExtent {
			continue
		}
		if allowEdges && extent == dataExtent+1 {
			continue
		}
		return scipperrors.Newf(scipperrors.KindDimension,
			"%q has extent %d along %q, data has %d", name, extent, label, dataExtent)
	}
	return nil
}

// SetCoord attaches a coordinate for a dimension. The coordinate's extent
// along dim may be the data extent (point coords) or one more (bin edges).
func (da *DataArray) SetCoord(dim dims.Dim, coord *variable.Variable) error {
	if err := checkMember(da.data.Dims(), coord, true, string(dim)); err != nil {
		return err
	}
	da.coords[dim] = coord
	return nil
}

// Coord returns the coordinate for a dimension.
func (da *DataArray) Coord(dim dims.Dim) (*variable.Variable, error) {
	coord, ok := da.coords[dim]
	if !ok {
		return nil, scipperrors.Newf(scipperrors.KindNotFound, "no coord for dimension %q", dim)
	}
	return coord, nil
}

// HasCoord reports whether a coordinate is present for a dimension.
func (da *DataArray) HasCoord(dim dims.Dim) bool {
	_, ok := da.coords[dim]
	return ok
}

// EraseCoord removes a coordinate.
func (da *DataArray) EraseCoord(dim dims.Dim) error {
	if _, ok := da.coords[dim]; !ok {
		return scipperrors.Newf(scipperrors.KindNotFound, "no coord for dimension %q", dim)
	}
	delete(da.coords, dim)
	return nil
}

// CoordDims returns the dimensions with coordinates, sorted.
func (da *DataArray) CoordDims() []dims.Dim {
	out := make([]dims.Dim, 0, len(da.coords))
	for dim := range da.coords {
		out = append(out, dim)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SetMask attaches a named mask: a Bool Variable whose true entries exclude
// elements from reductions. Masks are dimensionless.
func (da *DataArray) SetMask(name string, mask *variable.Variable) error {
	if mask.DType() != dtype.Bool {
		return scipperrors.Newf(scipperrors.KindDType,
			"mask %q must be Bool, got %s", name, mask.DType())
	}
	if !mask.Unit().IsDimensionless() {
		return scipperrors.Newf(scipperrors.KindUnit,
			"mask %q must be dimensionless, got %s", name, mask.Unit())
	}
	if err := checkMember(da.data.Dims(), mask, false, name); err != nil {
		return err
	}
	da.masks[name] = mask
	return nil
}

// Mask returns a named mask.
func (da *DataArray) Mask(name string) (*variable.Variable, error) {
	mask, ok := da.masks[name]
	if !ok {
		return nil, scipperrors.Newf(scipperrors.KindNotFound, "no mask %q", name)
	}
	return mask, nil
}

// EraseMask removes a mask.
func (da *DataArray) EraseMask(name string) error {
	if _, ok := da.masks[name]; !ok {
		return scipperrors.Newf(scipperrors.KindNotFound, "no mask %q", name)
	}
	delete(da.masks, name)
	return nil
}

// MaskNames returns the mask names, sorted.
func (da *DataArray) MaskNames() []string {
	out := make([]string, 0, len(da.masks))
	for name := range da.masks {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SetAttr attaches a named attribute. Attributes carry auxiliary data and
// are not aligned by binary operations.
func (da *DataArray) SetAttr(name string, attr *variable.Variable) error {
	if err := checkMember(da.data.Dims(), attr, true, name); err != nil {
		return err
	}
	da.attrs[name] = attr
	return nil
}

// Attr returns a named attribute.
func (da *DataArray) Attr(name string) (*variable.Variable, error) {
	attr, ok := da.attrs[name]
	if !ok {
		return nil, scipperrors.Newf(scipperrors.KindNotFound, "no attr %q", name)
	}
	return attr, nil
}

// EraseAttr removes an attribute.
func (da *DataArray) EraseAttr(name string) error {
	if _, ok := da.attrs[name]; !ok {
		return scipperrors.Newf(scipperrors.KindNotFound, "no attr %q", name)
	}
	delete(da.attrs, name)
	return nil
}

// Copy returns a deep copy: data, coords, masks and attrs all get fresh
// buffers.
func (da *DataArray) Copy() *DataArray {
	out := &DataArray{
		name:   da.name,
		data:   da.data.Copy(),
		coords: map[dims.Dim]*variable.Variable{},
		masks:  map[string]*variable.Variable{},
		attrs:  map[string]*variable.Variable{},
	}
	for dim, coord := range da.coords {
		out.coords[dim] = coord.Copy()
	}
	for name, mask := range da.masks {
		out.masks[name] = mask.Copy()
	}
	for name, attr := range da.attrs {
		out.attrs[name] = attr.Copy()
	}
	return out
}

// EqualDataArrays reports deep equality of data, coords, masks and attrs.
// Names are not compared.
func EqualDataArrays(a, b *DataArray) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !variable.Equal(a.data, b.data) {
		return false
	}
	if len(a.coords) != len(b.coords) || len(a.masks) != len(b.masks) ||
		len(a.attrs) != len(b.attrs) {
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
	for name, attr := range a.attrs {
		if !variable.Equal(attr, b.attrs[name]) {
			return false
		}
	}
	return true
}

// String renders a short summary.
func (da *DataArray) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "DataArray(%q, %s", da.name, da.data)
	if len(da.coords) > 0 {
		fmt.Fprintf(&b, ", coords=%v", da.CoordDims())
	}
	if len(da.masks) > 0 {
		fmt.Fprintf(&b, ", masks=%v", da.MaskNames())
	}
	b.WriteByte(')')
	return b.String()
}
