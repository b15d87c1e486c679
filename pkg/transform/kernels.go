package transform

import (
	"github.com/scipp/scipp-sub001/pkg/buffer"
	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
	"github.com/scipp/scipp-sub001/pkg/variable"
)

// number covers every element type that participates in variance
// propagation arithmetic.
type number interface {
	~int32 | ~int64 | ~float32 | ~float64
}

// operandLayout positions one operand inside the output's logical index
// space: strides are aligned to the output dimensions, with zero entries
// repeating storage along broadcast dimensions.
type operandLayout struct {
	strides []int
	offset  int
}

// block is one contiguous range of output elements, processed by a single
// worker.
type block struct {
	begin, end int
	shape      []int
	out        operandLayout
	a, b       operandLayout
}

type applyBinaryFn func(out, a, b *buffer.Buffer, blk block) error

type applyUnaryFn func(out, a *buffer.Buffer, blk block) error

func kernelSpanError(op string) error {
	return scipperrors.Newf(scipperrors.KindInternal,
		"kernel span type mismatch in %s", op)
}

// makeBinary builds the plain value loop for one dtype combination.
func makeBinary[A, B, O any](f func(A, B) O) applyBinaryFn {
	return func(out, a, b *buffer.Buffer, blk block) error {
		outs, ok := buffer.Span[O](out)
		if !ok {
			return kernelSpanError("binary output")
		}
		as, ok := buffer.Span[A](a)
		if !ok {
			return kernelSpanError("binary operand")
		}
		bs, ok := buffer.Span[B](b)
		if !ok {
			return kernelSpanError("binary operand")
		}
		oi := variable.NewIndex(blk.shape, blk.out.strides, blk.out.offset)
		ai := variable.NewIndex(blk.shape, blk.a.strides, blk.a.offset)
		bi := variable.NewIndex(blk.shape, blk.b.strides, blk.b.offset)
		oi.Seek(blk.begin)
		ai.Seek(blk.begin)
		bi.Seek(blk.begin)
		for i := blk.begin; i < blk.end; i++ {
			outs[oi.Flat()] = f(as[ai.Flat()], bs[bi.Flat()])
			oi.Next()
			ai.Next()
			bi.Next()
		}
		return nil
	}
}

// makeBinaryVar builds the loop that also propagates variances. An operand
// without a variances array contributes zero variance (it is exact). The
// variance formula receives operand values and variances as float64.
func makeBinaryVar[A, B, O number](f func(A, B) O,
	varf func(aVal, bVal, aVar, bVar float64) float64) applyBinaryFn {
	return func(out, a, b *buffer.Buffer, blk block) error {
		outs, ok := buffer.Span[O](out)
		if !ok {
			return kernelSpanError("binary output")
		}
		as, ok := buffer.Span[A](a)
		if !ok {
			return kernelSpanError("binary operand")
		}
		bs, ok := buffer.Span[B](b)
		if !ok {
			return kernelSpanError("binary operand")
		}
		outVar, ok := buffer.VarianceSpan[O](out)
		if !ok {
			return kernelSpanError("binary output variances")
		}
		aVar, hasAVar := buffer.VarianceSpan[A](a)
		bVar, hasBVar := buffer.VarianceSpan[B](b)

		oi := variable.NewIndex(blk.shape, blk.out.strides, blk.out.offset)
		ai := variable.NewIndex(blk.shape, blk.a.strides, blk.a.offset)
		bi := variable.NewIndex(blk.shape, blk.b.strides, blk.b.offset)
		oi.Seek(blk.begin)
		ai.Seek(blk.begin)
		bi.Seek(blk.begin)
		for i := blk.begin; i < blk.end; i++ {
			av, bv := as[ai.Flat()], bs[bi.Flat()]
			var avar, bvar float64
			if hasAVar {
				avar = float64(aVar[ai.Flat()])
			}
			if hasBVar {
				bvar = float64(bVar[bi.Flat()])
			}
			outs[oi.Flat()] = f(av, bv)
			outVar[oi.Flat()] = O(varf(float64(av), float64(bv), avar, bvar))
			oi.Next()
			ai.Next()
			bi.Next()
		}
		return nil
	}
}

// makeBinaryChecked builds the value loop for kernels that can reject an
// element pair, such as integer division by a zero divisor. The loop stops
// at the first rejected pair.
func makeBinaryChecked[A, B, O any](f func(A, B) (O, error)) applyBinaryFn {
	return func(out, a, b *buffer.Buffer, blk block) error {
		outs, ok := buffer.Span[O](out)
		if !ok {
			return kernelSpanError("binary output")
		}
		as, ok := buffer.Span[A](a)
		if !ok {
			return kernelSpanError("binary operand")
		}
		bs, ok := buffer.Span[B](b)
		if !ok {
			return kernelSpanError("binary operand")
		}
		oi := variable.NewIndex(blk.shape, blk.out.strides, blk.out.offset)
		ai := variable.NewIndex(blk.shape, blk.a.strides, blk.a.offset)
		bi := variable.NewIndex(blk.shape, blk.b.strides, blk.b.offset)
		oi.Seek(blk.begin)
		ai.Seek(blk.begin)
		bi.Seek(blk.begin)
		for i := blk.begin; i < blk.end; i++ {
			v, err := f(as[ai.Flat()], bs[bi.Flat()])
			if err != nil {
				return err
			}
			outs[oi.Flat()] = v
			oi.Next()
			ai.Next()
			bi.Next()
		}
		return nil
	}
}

// makeUnary builds the plain value loop for a unary operation.
func makeUnary[A, O any](f func(A) O) applyUnaryFn {
	return func(out, a *buffer.Buffer, blk block) error {
		outs, ok := buffer.Span[O](out)
		if !ok {
			return kernelSpanError("unary output")
		}
		as, ok := buffer.Span[A](a)
		if !ok {
			return kernelSpanError("unary operand")
		}
		oi := variable.NewIndex(blk.shape, blk.out.strides, blk.out.offset)
		ai := variable.NewIndex(blk.shape, blk.a.strides, blk.a.offset)
		oi.Seek(blk.begin)
		ai.Seek(blk.begin)
		for i := blk.begin; i < blk.end; i++ {
			outs[oi.Flat()] = f(as[ai.Flat()])
			oi.Next()
			ai.Next()
		}
		return nil
	}
}

// makeUnaryVar builds the unary loop with variance propagation.
func makeUnaryVar[A, O number](f func(A) O, varf func(aVal, aVar float64) float64) applyUnaryFn {
	return func(out, a *buffer.Buffer, blk block) error {
		outs, ok := buffer.Span[O](out)
		if !ok {
			return kernelSpanError("unary output")
		}
		as, ok := buffer.Span[A](a)
		if !ok {
			return kernelSpanError("unary operand")
		}
		outVar, ok := buffer.VarianceSpan[O](out)
		if !ok {
			return kernelSpanError("unary output variances")
		}
		aVar, hasAVar := buffer.VarianceSpan[A](a)

		oi := variable.NewIndex(blk.shape, blk.out.strides, blk.out.offset)
		ai := variable.NewIndex(blk.shape, blk.a.strides, blk.a.offset)
		oi.Seek(blk.begin)
		ai.Seek(blk.begin)
		for i := blk.begin; i < blk.end; i++ {
			av := as[ai.Flat()]
			var avar float64
			if hasAVar {
				avar = float64(aVar[ai.Flat()])
			}
			outs[oi.Flat()] = f(av)
			outVar[oi.Flat()] = O(varf(float64(av), avar))
			oi.Next()
			ai.Next()
		}
		return nil
	}
}
