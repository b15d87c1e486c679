package dataset

import (
	"github.com/scipp/scipp-sub001/pkg/dims"
	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
	"github.com/scipp/scipp-sub001/pkg/transform"
	"github.com/scipp/scipp-sub001/pkg/variable"
)

// alignCoords computes the coordinate union of two operands. A dimension
// carrying a coordinate on both sides requires element-identical coordinates
// (values, unit, dims); anything else is a coordinate mismatch.
func alignCoords(a, b map[dims.Dim]*variable.Variable) (map[dims.Dim]*variable.Variable, error) {
	out := make(map[dims.Dim]*variable.Variable, len(a)+len(b))
	for dim, coord := range a {
		if other, ok := b[dim]; ok && !variable.Equal(coord, other) {
			return nil, scipperrors.Newf(scipperrors.KindCoordMismatch,
				"coords for dimension %q differ", dim)
		}
		out[dim] = coord
	}
	for dim, coord := range b {
		if _, ok := out[dim]; !ok {
			out[dim] = coord
		}
	}
	return out, nil
}

// unionMasks combines the masks of two operands. A name present on both
// sides yields the element-wise or of the two masks; a masked element stays
// masked in the result.
func unionMasks(a, b map[string]*variable.Variable) (map[string]*variable.Variable, error) {
	out := make(map[string]*variable.Variable, len(a)+len(b))
	for name, mask := range a {
		if other, ok := b[name]; ok {
			combined, err := transform.Or(mask, other)
			if err != nil {
				return nil, scipperrors.Wrap(err, scipperrors.KindInternal,
					"combining mask "+name)
			}
			out[name] = combined
			continue
		}
		out[name] = mask
	}
	for name, mask := range b {
		if _, ok := out[name]; !ok {
			out[name] = mask
		}
	}
	return out, nil
}

// applyBinary applies an element-wise operation to two DataArrays: coords
// aligned by equality, masks or-united, data transformed with broadcasting.
// Attributes do not participate and are dropped.
func applyBinary(op transform.BinaryOp, a, b *DataArray) (*DataArray, error) {
	coords, err := alignCoords(a.coords, b.coords)
	if err != nil {
		return nil, err
	}
	masks, err := unionMasks(a.masks, b.masks)
	if err != nil {
		return nil, err
	}
	data, err := transform.Transform(op, a.data, b.data)
	if err != nil {
		return nil, err
	}
	name := a.name
	if name == "" {
		name = b.name
	}
	out, err := NewDataArray(name, data)
	if err != nil {
		return nil, err
	}
	for dim, coord := range coords {
		if err := out.SetCoord(dim, coord); err != nil {
			return nil, err
		}
	}
	for maskName, mask := range masks {
		if err := out.SetMask(maskName, mask); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// applyBinaryVariable applies an operation between a DataArray and a bare
// Variable; metadata passes through from the DataArray side.
func applyBinaryVariable(op transform.BinaryOp, a *DataArray, b *variable.Variable, reversed bool) (*DataArray, error) {
	var data *variable.Variable
	var err error
	if reversed {
		data, err = transform.Transform(op, b, a.data)
	} else {
		data, err = transform.Transform(op, a.data, b)
	}
	if err != nil {
		return nil, err
	}
	out, err := NewDataArray(a.name, data)
	if err != nil {
		return nil, err
	}
	for dim, coord := range a.coords {
		if err := out.SetCoord(dim, coord); err != nil {
			return nil, err
		}
	}
	for name, mask := range a.masks {
		if err := out.SetMask(name, mask); err != nil {
			return nil, err
		}
	}
	return out, nil
}
