package kernels

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSumAndAdd(t *testing.T) {
	assert.Equal(t, 6.0, Sum([]float64{1, 2, 3}))
	assert.Equal(t, 0.0, Sum(nil))

	dst := []float64{1, 2}
	Add(dst, []float64{10, 20})
	assert.Equal(t, []float64{11, 22}, dst)
}

func TestMinMax(t *testing.T) {
	assert.Equal(t, 1.0, Min([]float64{3, 1, 2}))
	assert.Equal(t, 3.0, Max([]float64{3, 1, 2}))
	assert.True(t, math.IsInf(Min(nil), 1))
	assert.True(t, math.IsInf(Max(nil), -1))
}

func TestMaskedKernels(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	mask := []bool{false, true, false, true}

	sum, count := SumMasked(xs, mask)
	assert.Equal(t, 4.0, sum)
	assert.Equal(t, 2, count)

	sum, count = SumMasked(xs, nil)
	assert.Equal(t, 10.0, sum)
	assert.Equal(t, 4, count)

	assert.Equal(t, 1.0, MinMasked(xs, mask))
	assert.Equal(t, 3.0, MaxMasked(xs, mask))

	allMasked := []bool{true, true, true, true}
	assert.True(t, math.IsInf(MinMasked(xs, allMasked), 1))
	assert.True(t, math.IsInf(MaxMasked(xs, allMasked), -1))
}
