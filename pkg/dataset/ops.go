package dataset

import (
	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
	"github.com/scipp/scipp-sub001/pkg/transform"
	"github.com/scipp/scipp-sub001/pkg/variable"
)

// Free arithmetic over any combination of Variable, DataArray and Dataset
// operands. The result type follows the richer operand: Dataset beats
// DataArray beats Variable.

// Add returns a + b for Variable, DataArray or Dataset operands.
func Add(a, b interface{}) (interface{}, error) {
	return apply(transform.OpAdd, a, b)
}

// Sub returns a - b for Variable, DataArray or Dataset operands.
func Sub(a, b interface{}) (interface{}, error) {
	return apply(transform.OpSub, a, b)
}

// Mul returns a * b for Variable, DataArray or Dataset operands.
func Mul(a, b interface{}) (interface{}, error) {
	return apply(transform.OpMul, a, b)
}

// Div returns a / b for Variable, DataArray or Dataset operands.
func Div(a, b interface{}) (interface{}, error) {
	return apply(transform.OpDiv, a, b)
}

func apply(op transform.BinaryOp, a, b interface{}) (interface{}, error) {
	switch left := a.(type) {
	case *variable.Variable:
		switch right := b.(type) {
		case *variable.Variable:
			return transform.Transform(op, left, right)
		case *DataArray:
			return applyBinaryVariable(op, right, left, true)
		case *Dataset:
			return applyDatasetVariable(op, right, left, true)
		}
	case *DataArray:
		switch right := b.(type) {
		case *variable.Variable:
			return applyBinaryVariable(op, left, right, false)
		case *DataArray:
			return applyBinary(op, left, right)
		case *Dataset:
			return applyDatasetArray(op, right, left, true)
		}
	case *Dataset:
		switch right := b.(type) {
		case *variable.Variable:
			return applyDatasetVariable(op, left, right, false)
		case *DataArray:
			return applyDatasetArray(op, left, right, false)
		case *Dataset:
			return applyBinaryDatasets(op, left, right)
		}
	}
	return nil, scipperrors.Newf(scipperrors.KindDType,
		"unsupported operand types %T and %T", a, b)
}

// applyDatasetVariable applies the operation between every item and a bare
// Variable. reversed puts the Variable on the left of each item.
func applyDatasetVariable(op transform.BinaryOp, d *Dataset, v *variable.Variable, reversed bool) (*Dataset, error) {
	out := New()
	for dim, coord := range d.coords {
		out.coords[dim] = coord
	}
	for name, mask := range d.masks {
		out.masks[name] = mask
	}
	for name, data := range d.items {
		var combined *variable.Variable
		var err error
		if reversed {
			combined, err = transform.Transform(op, v, data)
		} else {
			combined, err = transform.Transform(op, data, v)
		}
		if err != nil {
			return nil, scipperrors.Wrap(err, scipperrors.KindOf(err), "item "+name)
		}
		out.items[name] = combined
	}
	return out, nil
}

// applyDatasetArray applies the operation between every item and a
// DataArray, aligning the array's coords against the shared coords.
func applyDatasetArray(op transform.BinaryOp, d *Dataset, da *DataArray, reversed bool) (*Dataset, error) {
	coords, err := alignCoords(d.coords, da.coords)
	if err != nil {
		return nil, err
	}
	masks, err := unionMasks(d.masks, da.masks)
	if err != nil {
		return nil, err
	}
	out := New()
	out.coords = coords
	out.masks = masks
	for name, data := range d.items {
		var combined *variable.Variable
		if reversed {
			combined, err = transform.Transform(op, da.data, data)
		} else {
			combined, err = transform.Transform(op, data, da.data)
		}
		if err != nil {
			return nil, scipperrors.Wrap(err, scipperrors.KindOf(err), "item "+name)
		}
		out.items[name] = combined
	}
	return out, nil
}
