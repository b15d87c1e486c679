package transform

import (
	"github.com/scipp/scipp-sub001/pkg/dims"
	"github.com/scipp/scipp-sub001/pkg/dtype"
	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
	"github.com/scipp/scipp-sub001/pkg/variable"
)

func mergeDims(a, b *variable.Variable) (dims.Dimensions, error) {
	return dims.Merge(a.Dims(), b.Dims())
}

func checkOperand(v *variable.Variable, opName string) error {
	switch {
	case v.DType() == dtype.Foreign:
		return scipperrors.Newf(scipperrors.KindDType,
			"cannot %s foreign elements", opName)
	case v.DType().IsRagged():
		return scipperrors.Newf(scipperrors.KindSparseData,
			"cannot %s event-list data element-wise", opName)
	}
	return nil
}

// Transform applies a binary element-wise operation over the broadcast
// union of the operand dimensions and returns a fresh owning Variable.
// Units are combined per the operation's rule and variances are propagated
// to first order when either operand carries them.
func Transform(op BinaryOp, a, b *variable.Variable) (*variable.Variable, error) {
	def, ok := binaryOps[op]
	if !ok {
		return nil, scipperrors.Newf(scipperrors.KindInternal, "unknown binary operation %d", op)
	}
	if err := checkOperand(a, def.name); err != nil {
		return nil, err
	}
	if err := checkOperand(b, def.name); err != nil {
		return nil, err
	}
	kernel, ok := def.table[pairKey{a.DType(), b.DType()}]
	if !ok {
		return nil, scipperrors.Newf(scipperrors.KindDType,
			"cannot %s %s and %s", def.name, a.DType(), b.DType())
	}
	outDims, err := mergeDims(a, b)
	if err != nil {
		return nil, err
	}
	outUnit, err := def.unit(a.Unit(), b.Unit())
	if err != nil {
		return nil, err
	}
	withVar := !def.ignoreVariances && (a.HasVariances() || b.HasVariances())
	apply := kernel.apply
	if withVar {
		if kernel.applyVar == nil {
			return nil, scipperrors.Newf(scipperrors.KindVariances,
				"%s does not propagate variances for %s and %s", def.name, a.DType(), b.DType())
		}
		apply = kernel.applyVar
	}
	out, err := variable.New(outDims, kernel.out, outUnit, withVar)
	if err != nil {
		return nil, err
	}
	blk := block{
		shape: outDims.Shape(),
		out:   operandLayout{strides: out.Strides(), offset: out.Offset()},
		a:     operandLayout{strides: a.StridesFor(outDims), offset: a.Offset()},
		b:     operandLayout{strides: b.StridesFor(outDims), offset: b.Offset()},
	}
	err = runBlocks(outDims.Volume(), func(begin, end int) error {
		sub := blk
		sub.begin, sub.end = begin, end
		return apply(out.Buffer(), a.Buffer(), b.Buffer(), sub)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TransformInPlace applies a binary operation writing the result into out.
// out's dimensions must equal the broadcast union of the operands, its
// dtype must match the operation's output dtype, and its unit is replaced
// by the combined unit on success. An operand aliasing out's buffer with a
// different layout is copied first, so overlapping reads never observe
// partial writes.
func TransformInPlace(op BinaryOp, out, a, b *variable.Variable) error {
	if out.Readonly() {
		return scipperrors.New(scipperrors.KindReadonly, "output variable is readonly")
	}
	def, ok := binaryOps[op]
	if !ok {
		return scipperrors.Newf(scipperrors.KindInternal, "unknown binary operation %d", op)
	}
	if err := checkOperand(a, def.name); err != nil {
		return err
	}
	if err := checkOperand(b, def.name); err != nil {
		return err
	}
	kernel, ok := def.table[pairKey{a.DType(), b.DType()}]
	if !ok {
		return scipperrors.Newf(scipperrors.KindDType,
			"cannot %s %s and %s", def.name, a.DType(), b.DType())
	}
	outDims, err := mergeDims(a, b)
	if err != nil {
		return err
	}
	if !out.Dims().Equal(outDims) {
		return scipperrors.Newf(scipperrors.KindDimension,
			"cannot %s into %s, operation yields %s", def.name, out.Dims(), outDims)
	}
	if out.DType() != kernel.out {
		return scipperrors.Newf(scipperrors.KindDType,
			"cannot %s into %s, operation yields %s", def.name, out.DType(), kernel.out)
	}
	outUnit, err := def.unit(a.Unit(), b.Unit())
	if err != nil {
		return err
	}
	withVar := !def.ignoreVariances && (a.HasVariances() || b.HasVariances())
	if withVar && !out.HasVariances() {
		return scipperrors.Newf(scipperrors.KindVariances,
			"cannot %s operands with variances into output without", def.name)
	}
	// The plain kernel writes values only; succeeding here would leave the
	// output's old variances attached to new values.
	if !withVar && out.HasVariances() {
		return scipperrors.Newf(scipperrors.KindVariances,
			"cannot %s operands without variances into output with", def.name)
	}
	apply := kernel.apply
	if withVar {
		if kernel.applyVar == nil {
			return scipperrors.Newf(scipperrors.KindVariances,
				"%s does not propagate variances for %s and %s", def.name, a.DType(), b.DType())
		}
		apply = kernel.applyVar
	}
	if aliasesDifferently(out, a) {
		a = a.Copy()
	}
	if aliasesDifferently(out, b) {
		b = b.Copy()
	}
	blk := block{
		shape: outDims.Shape(),
		out:   operandLayout{strides: out.StridesFor(outDims), offset: out.Offset()},
		a:     operandLayout{strides: a.StridesFor(outDims), offset: a.Offset()},
		b:     operandLayout{strides: b.StridesFor(outDims), offset: b.Offset()},
	}
	err = runBlocks(outDims.Volume(), func(begin, end int) error {
		sub := blk
		sub.begin, sub.end = begin, end
		return apply(out.Buffer(), a.Buffer(), b.Buffer(), sub)
	})
	if err != nil {
		return err
	}
	return out.SetUnit(outUnit)
}

// aliasesDifferently reports whether v shares out's buffer through a layout
// other than out's own. Identical layouts read each element before writing
// it and need no staging copy.
func aliasesDifferently(out, v *variable.Variable) bool {
	if !out.SharesBufferWith(v) {
		return false
	}
	if out.Offset() != v.Offset() || !out.Dims().Equal(v.Dims()) {
		return true
	}
	os, vs := out.Strides(), v.Strides()
	for i := range os {
		if os[i] != vs[i] {
			return true
		}
	}
	return false
}

// TransformUnary applies a unary element-wise operation and returns a fresh
// owning Variable.
func TransformUnary(op UnaryOp, a *variable.Variable) (*variable.Variable, error) {
	def, ok := unaryOps[op]
	if !ok {
		return nil, scipperrors.Newf(scipperrors.KindInternal, "unknown unary operation %d", op)
	}
	if err := checkOperand(a, def.name); err != nil {
		return nil, err
	}
	kernel, ok := def.table[a.DType()]
	if !ok {
		return nil, scipperrors.Newf(scipperrors.KindDType,
			"cannot %s %s", def.name, a.DType())
	}
	outUnit, err := def.unit(a.Unit())
	if err != nil {
		return nil, err
	}
	withVar := a.HasVariances()
	apply := kernel.apply
	if withVar {
		if kernel.applyVar == nil {
			return nil, scipperrors.Newf(scipperrors.KindVariances,
				"%s does not propagate variances for %s", def.name, a.DType())
		}
		apply = kernel.applyVar
	}
	outDims := a.Dims()
	out, err := variable.New(outDims, kernel.out, outUnit, withVar)
	if err != nil {
		return nil, err
	}
	blk := block{
		shape: outDims.Shape(),
		out:   operandLayout{strides: out.Strides(), offset: out.Offset()},
		a:     operandLayout{strides: a.Strides(), offset: a.Offset()},
	}
	err = runBlocks(outDims.Volume(), func(begin, end int) error {
		sub := blk
		sub.begin, sub.end = begin, end
		return apply(out.Buffer(), a.Buffer(), sub)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TransformUnaryInPlace applies a unary operation writing the result back
// into its operand.
func TransformUnaryInPlace(op UnaryOp, v *variable.Variable) error {
	if v.Readonly() {
		return scipperrors.New(scipperrors.KindReadonly, "variable is readonly")
	}
	def, ok := unaryOps[op]
	if !ok {
		return scipperrors.Newf(scipperrors.KindInternal, "unknown unary operation %d", op)
	}
	if err := checkOperand(v, def.name); err != nil {
		return err
	}
	kernel, ok := def.table[v.DType()]
	if !ok {
		return scipperrors.Newf(scipperrors.KindDType, "cannot %s %s", def.name, v.DType())
	}
	if kernel.out != v.DType() {
		return scipperrors.Newf(scipperrors.KindDType,
			"cannot %s %s in place, operation yields %s", def.name, v.DType(), kernel.out)
	}
	outUnit, err := def.unit(v.Unit())
	if err != nil {
		return err
	}
	apply := kernel.apply
	if v.HasVariances() {
		if kernel.applyVar == nil {
			return scipperrors.Newf(scipperrors.KindVariances,
				"%s does not propagate variances for %s", def.name, v.DType())
		}
		apply = kernel.applyVar
	}
	d := v.Dims()
	blk := block{
		shape: d.Shape(),
		out:   operandLayout{strides: v.Strides(), offset: v.Offset()},
		a:     operandLayout{strides: v.Strides(), offset: v.Offset()},
	}
	err = runBlocks(d.Volume(), func(begin, end int) error {
		sub := blk
		sub.begin, sub.end = begin, end
		return apply(v.Buffer(), v.Buffer(), sub)
	})
	if err != nil {
		return err
	}
	return v.SetUnit(outUnit)
}

// Add returns a + b.
func Add(a, b *variable.Variable) (*variable.Variable, error) {
	return Transform(OpAdd, a, b)
}

// Sub returns a - b.
func Sub(a, b *variable.Variable) (*variable.Variable, error) {
	return Transform(OpSub, a, b)
}

// Mul returns a * b.
func Mul(a, b *variable.Variable) (*variable.Variable, error) {
	return Transform(OpMul, a, b)
}

// Div returns a / b.
func Div(a, b *variable.Variable) (*variable.Variable, error) {
	return Transform(OpDiv, a, b)
}

// EqualElements returns the element-wise comparison a == b as a Bool
// Variable. Variances are ignored; only values are compared.
func EqualElements(a, b *variable.Variable) (*variable.Variable, error) {
	return Transform(OpEqual, a, b)
}

// Or returns the element-wise logical or of two Bool Variables.
func Or(a, b *variable.Variable) (*variable.Variable, error) {
	return Transform(OpOr, a, b)
}

// And returns the element-wise logical and of two Bool Variables.
func And(a, b *variable.Variable) (*variable.Variable, error) {
	return Transform(OpAnd, a, b)
}

// Neg returns -a.
func Neg(a *variable.Variable) (*variable.Variable, error) {
	return TransformUnary(OpNeg, a)
}

// Abs returns |a|.
func Abs(a *variable.Variable) (*variable.Variable, error) {
	return TransformUnary(OpAbs, a)
}

// Sqrt returns the element-wise square root. The unit must have even
// exponents in every dimension.
func Sqrt(a *variable.Variable) (*variable.Variable, error) {
	return TransformUnary(OpSqrt, a)
}

// Reciprocal returns 1 / a.
func Reciprocal(a *variable.Variable) (*variable.Variable, error) {
	return TransformUnary(OpReciprocal, a)
}
