// Package units provides the physical unit tag carried by every Variable.
//
// The algebra itself comes from github.com/ctessum/unit: a unit is a map
// from orthogonal SI dimensions to integer exponents. The engine treats
// Unit as an opaque value supporting equality, multiplication, division,
// integer powers and roots, and a canonical string form.
package units

import (
	"github.com/ctessum/unit"

	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
)

// CountsDim is the dimension of detector counts, orthogonal to the SI base
// dimensions.
var CountsDim unit.Dimension

func init() {
	CountsDim = unit.NewDimension("counts")
}

// Unit is an immutable physical unit. The zero value is dimensionless.
type Unit struct {
	dims unit.Dimensions
}

// Predefined units.
var (
	Dimensionless = Unit{}
	Meter         = FromDimensions(unit.Meter)
	Second        = FromDimensions(unit.Second)
	Kilogram      = FromDimensions(unit.Kilogram)
	Kelvin        = FromDimensions(unit.Kelvin)
	Counts        = FromDimensions(unit.Dimensions{CountsDim: 1})
)

// FromDimensions builds a Unit from a dimension-exponent map. The map is
// copied; zero exponents are dropped.
func FromDimensions(d unit.Dimensions) Unit {
	if len(d) == 0 {
		return Unit{}
	}
	out := make(unit.Dimensions, len(d))
	for dim, pow := range d {
		if pow != 0 {
			out[dim] = pow
		}
	}
	return Unit{dims: out}
}

// Dimensions returns a copy of the dimension-exponent map.
func (u Unit) Dimensions() unit.Dimensions {
	out := make(unit.Dimensions, len(u.dims))
	for dim, pow := range u.dims {
		out[dim] = pow
	}
	return out
}

// Equal reports whether two units have identical dimensions.
func (u Unit) Equal(v Unit) bool {
	if len(u.dims) != len(v.dims) {
		return false
	}
	for dim, pow := range u.dims {
		if v.dims[dim] != pow {
			return false
		}
	}
	return true
}

// IsDimensionless reports whether the unit has no dimensions.
func (u Unit) IsDimensionless() bool {
	return len(u.dims) == 0
}

// Mul returns the product unit.
func (u Unit) Mul(v Unit) Unit {
	out := make(unit.Dimensions, len(u.dims)+len(v.dims))
	for dim, pow := range u.dims {
		out[dim] = pow
	}
	for dim, pow := range v.dims {
		if sum := out[dim] + pow; sum == 0 {
			delete(out, dim)
		} else {
			out[dim] = sum
		}
	}
	return Unit{dims: out}
}

// Div returns the quotient unit.
func (u Unit) Div(v Unit) Unit {
	out := make(unit.Dimensions, len(u.dims)+len(v.dims))
	for dim, pow := range u.dims {
		out[dim] = pow
	}
	for dim, pow := range v.dims {
		if diff := out[dim] - pow; diff == 0 {
			delete(out, dim)
		} else {
			out[dim] = diff
		}
	}
	return Unit{dims: out}
}

// Pow returns the unit raised to an integer power.
func (u Unit) Pow(n int) Unit {
	if n == 0 {
		return Unit{}
	}
	out := make(unit.Dimensions, len(u.dims))
	for dim, pow := range u.dims {
		out[dim] = pow * n
	}
	return Unit{dims: out}
}

// Root returns the unit's n-th root. Every dimension exponent must be
// divisible by n; the square root of m^2 is m, but the square root of m is
// not a unit.
func (u Unit) Root(n int) (Unit, error) {
	if n <= 0 {
		return Unit{}, scipperrors.Newf(scipperrors.KindUnit, "invalid root order %d", n)
	}
	out := make(unit.Dimensions, len(u.dims))
	for dim, pow := range u.dims {
		if pow%n != 0 {
			return Unit{}, scipperrors.Newf(scipperrors.KindUnit,
				"unit %s has no %d-th root", u.String(), n)
		}
		out[dim] = pow / n
	}
	return Unit{dims: out}, nil
}

// Sqrt returns the square root of the unit.
func (u Unit) Sqrt() (Unit, error) {
	return u.Root(2)
}

// String returns the canonical form, e.g. "m", "m^2", "m s^-1", or
// "dimensionless".
func (u Unit) String() string {
	if len(u.dims) == 0 {
		return "dimensionless"
	}
	return u.dims.String()
}
