// Package transform implements generic element-wise operation dispatch:
// given an operation and one or two Variables, it resolves a concrete
// dtype overload from a fixed per-operation compatibility table, combines
// units, propagates variances with first-order error propagation, and runs
// the element loop over the broadcast union of the operand dimensions.
//
// The per-operation tables make the supported dtype combinations explicit
// and auditable; a combination absent from a table fails with a dtype
// error rather than being implied by generic instantiation.
package transform

import (
	"math"

	"github.com/scipp/scipp-sub001/pkg/dtype"
	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
	"github.com/scipp/scipp-sub001/pkg/units"
)

// BinaryOp identifies a binary element-wise operation.
type BinaryOp int

const (
	// OpAdd is element-wise addition.
	OpAdd BinaryOp = iota
	// OpSub is element-wise subtraction.
	OpSub
	// OpMul is element-wise multiplication.
	OpMul
	// OpDiv is element-wise division.
	OpDiv
	// OpEqual is element-wise comparison, producing Bool.
	OpEqual
	// OpOr is element-wise logical or on Bool operands.
	OpOr
	// OpAnd is element-wise logical and on Bool operands.
	OpAnd
)

// UnaryOp identifies a unary element-wise operation.
type UnaryOp int

const (
	// OpNeg negates each element.
	OpNeg UnaryOp = iota
	// OpAbs takes the absolute value of each element.
	OpAbs
	// OpSqrt takes the square root of each element; the unit must have an
	// even exponent in every dimension.
	OpSqrt
	// OpReciprocal inverts each element.
	OpReciprocal
)

type pairKey struct {
	a, b dtype.DType
}

// binaryKernel is one entry of a per-operation dtype table.
type binaryKernel struct {
	out dtype.DType
	// apply runs the plain value loop.
	apply applyBinaryFn
	// applyVar additionally propagates variances; nil when the operation
	// has no variance formula for this dtype pair.
	applyVar applyBinaryFn
}

type unaryKernel struct {
	out      dtype.DType
	apply    applyUnaryFn
	applyVar applyUnaryFn
}

type binaryOpDef struct {
	name string
	unit func(a, b units.Unit) (units.Unit, error)
	// ignoreVariances drops operand variances instead of propagating
	// them; comparisons compare values only.
	ignoreVariances bool
	table           map[pairKey]binaryKernel
}

type unaryOpDef struct {
	name  string
	unit  func(u units.Unit) (units.Unit, error)
	table map[dtype.DType]unaryKernel
}

func sameUnit(opName string) func(a, b units.Unit) (units.Unit, error) {
	return func(a, b units.Unit) (units.Unit, error) {
		if !a.Equal(b) {
			return units.Unit{}, scipperrors.Newf(scipperrors.KindUnit,
				"cannot %s operands with units %s and %s", opName, a, b)
		}
		return a, nil
	}
}

func dimensionlessOnly(opName string) func(a, b units.Unit) (units.Unit, error) {
	return func(a, b units.Unit) (units.Unit, error) {
		if !a.IsDimensionless() || !b.IsDimensionless() {
			return units.Unit{}, scipperrors.Newf(scipperrors.KindUnit,
				"%s requires dimensionless operands, got %s and %s", opName, a, b)
		}
		return units.Dimensionless, nil
	}
}

// First-order variance propagation formulas, evaluated per element from the
// operand values and variances.
func varAdd(_, _, av, bv float64) float64 { return av + bv }
func varMul(a, b, av, bv float64) float64 { return b*b*av + a*a*bv }
func varDiv(a, b, av, bv float64) float64 { return av/(b*b) + a*a*bv/(b*b*b*b) }
func varSqrt(a, av float64) float64 { return av / (4 * a) }
func varKeep(_, av float64) float64 { return av }
func varReciprocal(a, av float64) float64 { return av / (a * a * a * a) }

func addLike(f64 func(a, b float64) float64,
	f32 func(a, b float32) float32, i64 func(a, b int64) int64,
	i32 func(a, b int32) int32, varf func(a, b, av, bv float64) float64) map[pairKey]binaryKernel {
	return map[pairKey]binaryKernel{
		{dtype.Float64, dtype.Float64}: {
			out:      dtype.Float64,
			apply:    makeBinary(f64),
			applyVar: makeBinaryVar(f64, varf),
		},
		{dtype.Float64, dtype.Float32}: {
			out:      dtype.Float64,
			apply:    makeBinary(func(a float64, b float32) float64 { return f64(a, float64(b)) }),
			applyVar: makeBinaryVar(func(a float64, b float32) float64 { return f64(a, float64(b)) }, varf),
		},
		{dtype.Float32, dtype.Float64}: {
			out:      dtype.Float64,
			apply:    makeBinary(func(a float32, b float64) float64 { return f64(float64(a), b) }),
			applyVar: makeBinaryVar(func(a float32, b float64) float64 { return f64(float64(a), b) }, varf),
		},
		{dtype.Float32, dtype.Float32}: {
			out:      dtype.Float32,
			apply:    makeBinary(f32),
			applyVar: makeBinaryVar(f32, varf),
		},
		{dtype.Int64, dtype.Int64}: {
			out:   dtype.Int64,
			apply: makeBinary(i64),
		},
		{dtype.Int32, dtype.Int32}: {
			out:   dtype.Int32,
			apply: makeBinary(i32),
		},
		{dtype.Int64, dtype.Float64}: {
			out:      dtype.Float64,
			apply:    makeBinary(func(a int64, b float64) float64 { return f64(float64(a), b) }),
			applyVar: makeBinaryVar(func(a int64, b float64) float64 { return f64(float64(a), b) }, varf),
		},
		{dtype.Float64, dtype.Int64}: {
			out:      dtype.Float64,
			apply:    makeBinary(func(a float64, b int64) float64 { return f64(a, float64(b)) }),
			applyVar: makeBinaryVar(func(a float64, b int64) float64 { return f64(a, float64(b)) }, varf),
		},
	}
}

var binaryOps = map[BinaryOp]*binaryOpDef{
	OpAdd: {
		name: "add",
		unit: sameUnit("add"),
		table: withVectorAdd(addLike(
			func(a, b float64) float64 { return a + b },
			func(a, b float32) float32 { return a + b },
			func(a, b int64) int64 { return a + b },
			func(a, b int32) int32 { return a + b },
			varAdd),
			func(a, b dtype.Vector3Value) dtype.Vector3Value {
				return dtype.Vector3Value{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
			}),
	},
	OpSub: {
		name: "subtract",
		unit: sameUnit("subtract"),
		table: withVectorAdd(addLike(
			func(a, b float64) float64 { return a - b },
			func(a, b float32) float32 { return a - b },
			func(a, b int64) int64 { return a - b },
			func(a, b int32) int32 { return a - b },
			varAdd),
			func(a, b dtype.Vector3Value) dtype.Vector3Value {
				return dtype.Vector3Value{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
			}),
	},
	OpMul: {
		name: "multiply",
		unit: func(a, b units.Unit) (units.Unit, error) { return a.Mul(b), nil },
		table: withGeometricMul(addLike(
			func(a, b float64) float64 { return a * b },
			func(a, b float32) float32 { return a * b },
			func(a, b int64) int64 { return a * b },
			func(a, b int32) int32 { return a * b },
			varMul)),
	},
	OpDiv: {
		name: "divide",
		unit: func(a, b units.Unit) (units.Unit, error) { return a.Div(b), nil },
		table: withVectorScale(withCheckedIntDiv(addLike(
			func(a, b float64) float64 { return a / b },
			func(a, b float32) float32 { return a / b },
			func(a, b int64) int64 { return a / b },
			func(a, b int32) int32 { return a / b },
			varDiv)),
			func(v dtype.Vector3Value, s float64) dtype.Vector3Value {
				return dtype.Vector3Value{v[0] / s, v[1] / s, v[2] / s}
			}),
	},
	OpEqual: {
		name:            "compare",
		unit:            sameUnit("compare"),
		ignoreVariances: true,
		table: map[pairKey]binaryKernel{
			{dtype.Float64, dtype.Float64}: {out: dtype.Bool, apply: makeBinary(func(a, b float64) bool { return a == b })},
			{dtype.Float32, dtype.Float32}: {out: dtype.Bool, apply: makeBinary(func(a, b float32) bool { return a == b })},
			{dtype.Int64, dtype.Int64}:     {out: dtype.Bool, apply: makeBinary(func(a, b int64) bool { return a == b })},
			{dtype.Int32, dtype.Int32}:     {out: dtype.Bool, apply: makeBinary(func(a, b int32) bool { return a == b })},
			{dtype.Bool, dtype.Bool}:       {out: dtype.Bool, apply: makeBinary(func(a, b bool) bool { return a == b })},
			{dtype.String, dtype.String}:   {out: dtype.Bool, apply: makeBinary(func(a, b string) bool { return a == b })},
		},
	},
	OpOr: {
		name: "or",
		unit: dimensionlessOnly("or"),
		table: map[pairKey]binaryKernel{
			{dtype.Bool, dtype.Bool}: {out: dtype.Bool, apply: makeBinary(func(a, b bool) bool { return a || b })},
		},
	},
	OpAnd: {
		name: "and",
		unit: dimensionlessOnly("and"),
		table: map[pairKey]binaryKernel{
			{dtype.Bool, dtype.Bool}: {out: dtype.Bool, apply: makeBinary(func(a, b bool) bool { return a && b })},
		},
	},
}

func withVectorAdd(table map[pairKey]binaryKernel,
	f func(a, b dtype.Vector3Value) dtype.Vector3Value) map[pairKey]binaryKernel {
	table[pairKey{dtype.Vector3, dtype.Vector3}] = binaryKernel{
		out:   dtype.Vector3,
		apply: makeBinary(f),
	}
	return table
}

// withCheckedIntDiv replaces the integer division kernels with checked
// variants. Float division yields Inf or NaN for a zero divisor, but
// integer division would panic, so a zero divisor element fails the
// operation instead.
func withCheckedIntDiv(table map[pairKey]binaryKernel) map[pairKey]binaryKernel {
	table[pairKey{dtype.Int64, dtype.Int64}] = binaryKernel{
		out: dtype.Int64,
		apply: makeBinaryChecked(func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, scipperrors.New(scipperrors.KindDType, "integer division by zero")
			}
			return a / b, nil
		}),
	}
	table[pairKey{dtype.Int32, dtype.Int32}] = binaryKernel{
		out: dtype.Int32,
		apply: makeBinaryChecked(func(a, b int32) (int32, error) {
			if b == 0 {
				return 0, scipperrors.New(scipperrors.KindDType, "integer division by zero")
			}
			return a / b, nil
		}),
	}
	return table
}

func withVectorScale(table map[pairKey]binaryKernel,
	f func(v dtype.Vector3Value, s float64) dtype.Vector3Value) map[pairKey]binaryKernel {
	table[pairKey{dtype.Vector3, dtype.Float64}] = binaryKernel{
		out:   dtype.Vector3,
		apply: makeBinary(f),
	}
	return table
}

func withGeometricMul(table map[pairKey]binaryKernel) map[pairKey]binaryKernel {
	scale := func(v dtype.Vector3Value, s float64) dtype.Vector3Value {
		return dtype.Vector3Value{v[0] * s, v[1] * s, v[2] * s}
	}
	table[pairKey{dtype.Vector3, dtype.Float64}] = binaryKernel{
		out:   dtype.Vector3,
		apply: makeBinary(scale),
	}
	table[pairKey{dtype.Float64, dtype.Vector3}] = binaryKernel{
		out:   dtype.Vector3,
		apply: makeBinary(func(s float64, v dtype.Vector3Value) dtype.Vector3Value { return scale(v, s) }),
	}
	table[pairKey{dtype.Matrix3, dtype.Vector3}] = binaryKernel{
		out: dtype.Vector3,
		apply: makeBinary(func(m dtype.Matrix3Value, v dtype.Vector3Value) dtype.Vector3Value {
			return dtype.Vector3Value{
				m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
				m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
				m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
			}
		}),
	}
	table[pairKey{dtype.Matrix3, dtype.Matrix3}] = binaryKernel{
		out: dtype.Matrix3,
		apply: makeBinary(func(a, b dtype.Matrix3Value) dtype.Matrix3Value {
			var out dtype.Matrix3Value
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					out[3*i+j] = a[3*i]*b[j] + a[3*i+1]*b[3+j] + a[3*i+2]*b[6+j]
				}
			}
			return out
		}),
	}
	return table
}

var unaryOps = map[UnaryOp]*unaryOpDef{
	OpNeg: {
		name: "negate",
		unit: func(u units.Unit) (units.Unit, error) { return u, nil },
		table: map[dtype.DType]unaryKernel{
			dtype.Float64: {
				out:      dtype.Float64,
				apply:    makeUnary(func(a float64) float64 { return -a }),
				applyVar: makeUnaryVar(func(a float64) float64 { return -a }, varKeep),
			},
			dtype.Float32: {
				out:      dtype.Float32,
				apply:    makeUnary(func(a float32) float32 { return -a }),
				applyVar: makeUnaryVar(func(a float32) float32 { return -a }, varKeep),
			},
			dtype.Int64: {out: dtype.Int64, apply: makeUnary(func(a int64) int64 { return -a })},
			dtype.Int32: {out: dtype.Int32, apply: makeUnary(func(a int32) int32 { return -a })},
			dtype.Vector3: {out: dtype.Vector3, apply: makeUnary(func(a dtype.Vector3Value) dtype.Vector3Value {
				return dtype.Vector3Value{-a[0], -a[1], -a[2]}
			})},
		},
	},
	OpAbs: {
		name: "abs",
		unit: func(u units.Unit) (units.Unit, error) { return u, nil },
		table: map[dtype.DType]unaryKernel{
			dtype.Float64: {
				out:      dtype.Float64,
				apply:    makeUnary(math.Abs),
				applyVar: makeUnaryVar(math.Abs, varKeep),
			},
			dtype.Float32: {
				out:      dtype.Float32,
				apply:    makeUnary(func(a float32) float32 { return float32(math.Abs(float64(a))) }),
				applyVar: makeUnaryVar(func(a float32) float32 { return float32(math.Abs(float64(a))) }, varKeep),
			},
			dtype.Int64: {out: dtype.Int64, apply: makeUnary(func(a int64) int64 {
				if a < 0 {
					return -a
				}
				return a
			})},
			dtype.Int32: {out: dtype.Int32, apply: makeUnary(func(a int32) int32 {
				if a < 0 {
					return -a
				}
				return a
			})},
		},
	},
	OpSqrt: {
		name: "sqrt",
		unit: func(u units.Unit) (units.Unit, error) { return u.Sqrt() },
		table: map[dtype.DType]unaryKernel{
			dtype.Float64: {
				out:      dtype.Float64,
				apply:    makeUnary(math.Sqrt),
				applyVar: makeUnaryVar(math.Sqrt, varSqrt),
			},
			dtype.Float32: {
				out:      dtype.Float32,
				apply:    makeUnary(func(a float32) float32 { return float32(math.Sqrt(float64(a))) }),
				applyVar: makeUnaryVar(func(a float32) float32 { return float32(math.Sqrt(float64(a))) }, varSqrt),
			},
		},
	},
	OpReciprocal: {
		name: "reciprocal",
		unit: func(u units.Unit) (units.Unit, error) { return units.Dimensionless.Div(u), nil },
		table: map[dtype.DType]unaryKernel{
			dtype.Float64: {
				out:      dtype.Float64,
				apply:    makeUnary(func(a float64) float64 { return 1 / a }),
				applyVar: makeUnaryVar(func(a float64) float64 { return 1 / a }, varReciprocal),
			},
			dtype.Float32: {
				out:      dtype.Float32,
				apply:    makeUnary(func(a float32) float32 { return 1 / a }),
				applyVar: makeUnaryVar(func(a float32) float32 { return 1 / a }, varReciprocal),
			},
		},
	},
}
