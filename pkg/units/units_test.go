package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
)

func TestMulDiv(t *testing.T) {
	area := Meter.Mul(Meter)
	assert.Equal(t, "m^2", area.String())

	speed := Meter.Div(Second)
	assert.Equal(t, "m s^-1", speed.String())

	// Division by the same unit cancels completely.
	ratio := Meter.Div(Meter)
	assert.True(t, ratio.IsDimensionless())
	assert.Equal(t, "dimensionless", ratio.String())
}

func TestEqual(t *testing.T) {
	assert.True(t, Meter.Equal(Meter))
	assert.False(t, Meter.Equal(Second))
	assert.True(t, Dimensionless.Equal(Meter.Div(Meter)))
	assert.True(t, Meter.Mul(Meter).Equal(Meter.Pow(2)))
}

func TestPow(t *testing.T) {
	assert.Equal(t, "m^3", Meter.Pow(3).String())
	assert.True(t, Meter.Pow(0).IsDimensionless())
	assert.Equal(t, "m^-1", Meter.Pow(-1).String())
}

func TestSqrt(t *testing.T) {
	root, err := Meter.Pow(2).Sqrt()
	require.NoError(t, err)
	assert.True(t, root.Equal(Meter))

	_, err = Meter.Sqrt()
	require.Error(t, err)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindUnit))
}

func TestCounts(t *testing.T) {
	assert.Equal(t, "counts", Counts.String())
	assert.False(t, Counts.Equal(Dimensionless))

	perCount := Dimensionless.Div(Counts)
	assert.Equal(t, "counts^-1", perCount.String())
}

func TestFromDimensionsCopies(t *testing.T) {
	d := Meter.Dimensions()
	u := FromDimensions(d)
	for dim := range d {
		d[dim] = 99
	}
	assert.True(t, u.Equal(Meter))
}
