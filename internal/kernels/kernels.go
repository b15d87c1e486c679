// Package kernels provides contiguous float64 kernels shared by groupby
// reductions and histogram accumulation. Inputs are contiguous runs carved
// out of variable buffers, so the hot loops stay free of stride arithmetic.
package kernels

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Sum returns the sum of xs.
func Sum(xs []float64) float64 {
	return floats.Sum(xs)
}

// Add adds src to dst element-wise. Slices must have equal length.
func Add(dst, src []float64) {
	floats.Add(dst, src)
}

// Min returns the minimum of xs, or +Inf for an empty slice.
func Min(xs []float64) float64 {
	if len(xs) == 0 {
		return math.Inf(1)
	}
	return floats.Min(xs)
}

// Max returns the maximum of xs, or -Inf for an empty slice.
func Max(xs []float64) float64 {
	if len(xs) == 0 {
		return math.Inf(-1)
	}
	return floats.Max(xs)
}

// SumMasked sums the unmasked entries of xs and returns the contributing
// count. mask may be nil, meaning nothing is masked; a true mask entry
// excludes the element.
func SumMasked(xs []float64, mask []bool) (sum float64, count int) {
	if mask == nil {
		return floats.Sum(xs), len(xs)
	}
	for i, x := range xs {
		if mask[i] {
			continue
		}
		sum += x
		count++
	}
	return sum, count
}

// MinMasked returns the minimum over unmasked entries, or +Inf when all are
// masked.
func MinMasked(xs []float64, mask []bool) float64 {
	if mask == nil {
		return Min(xs)
	}
	out := math.Inf(1)
	for i, x := range xs {
		if !mask[i] && x < out {
			out = x
		}
	}
	return out
}

// MaxMasked returns the maximum over unmasked entries, or -Inf when all are
// masked.
func MaxMasked(xs []float64, mask []bool) float64 {
	if mask == nil {
		return Max(xs)
	}
	out := math.Inf(-1)
	for i, x := range xs {
		if !mask[i] && x > out {
			out = x
		}
	}
	return out
}
