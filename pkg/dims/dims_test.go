package dims

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
)

func TestAddAndLookup(t *testing.T) {
	var d Dimensions
	require.NoError(t, d.AddInner("x", 3))
	require.NoError(t, d.AddInner("y", 4))

	assert.Equal(t, 2, d.Count())
	assert.True(t, d.Contains("x"))
	assert.False(t, d.Contains("z"))

	ext, err := d.Extent("y")
	require.NoError(t, err)
	assert.Equal(t, 4, ext)

	_, err = d.Extent("z")
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindDimension))

	// Duplicate labels are rejected.
	err = d.AddInner("x", 5)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindDimension))

	// Add prepends an outermost dimension.
	require.NoError(t, d.Add("z", 2))
	assert.Equal(t, []Dim{"z", "x", "y"}, d.Labels())
	assert.Equal(t, []int{2, 3, 4}, d.Shape())
}

func TestVolume(t *testing.T) {
	d := MustNew([]Dim{"x", "y"}, []int{3, 4})
	assert.Equal(t, 12, d.Volume())

	var empty Dimensions
	assert.Equal(t, 1, empty.Volume())
}

func TestRagged(t *testing.T) {
	d := MustNew([]Dim{"spectrum"}, []int{5})
	require.NoError(t, d.AddRagged("event"))

	assert.Equal(t, Dim("event"), d.Ragged())
	assert.True(t, d.IsRagged("event"))
	// Ragged lists are counted individually, not in the volume.
	assert.Equal(t, 5, d.Volume())

	// Only one ragged dimension per array.
	err := d.AddRagged("event2")
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindDimension))

	// AddInner keeps the ragged dimension innermost.
	require.NoError(t, d.AddInner("run", 2))
	assert.Equal(t, []Dim{"spectrum", "run", "event"}, d.Labels())

	err = d.Resize("event", 7)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindSparseData))
}

func TestSlice(t *testing.T) {
	d := MustNew([]Dim{"x", "y"}, []int{3, 4})

	s, err := d.Slice("y", 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, s.Shape())

	// Point slices drop the dimension.
	p, err := d.SlicePoint("x", 2)
	require.NoError(t, err)
	assert.Equal(t, []Dim{"y"}, p.Labels())

	_, err = d.Slice("y", 2, 5)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindSlice))
	_, err = d.Slice("y", 3, 2)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindSlice))
	_, err = d.Slice("y", -1, 2)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindSlice))
	_, err = d.Slice("q", 0, 1)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindDimension))

	// Zero-length slices are valid.
	z, err := d.Slice("y", 4, 4)
	require.NoError(t, err)
	assert.Equal(t, 0, z.Volume())
}

func TestResizeAndErase(t *testing.T) {
	d := MustNew([]Dim{"x", "y"}, []int{3, 4})
	require.NoError(t, d.Resize("x", 10))
	assert.Equal(t, []int{10, 4}, d.Shape())

	require.NoError(t, d.Erase("x"))
	assert.Equal(t, []Dim{"y"}, d.Labels())

	err := d.Resize("x", 1)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindDimension))
}

func TestMerge(t *testing.T) {
	a := MustNew([]Dim{"x", "y"}, []int{3, 4})
	b := MustNew([]Dim{"y", "z"}, []int{4, 2})

	m, err := Merge(a, b)
	require.NoError(t, err)
	assert.Equal(t, []Dim{"x", "y", "z"}, m.Labels())
	assert.Equal(t, []int{3, 4, 2}, m.Shape())

	// Extent disagreement on a shared label fails.
	c := MustNew([]Dim{"y"}, []int{5})
	_, err = Merge(a, c)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindDimension))

	// Merging with an empty space is the identity.
	var empty Dimensions
	m, err = Merge(a, empty)
	require.NoError(t, err)
	assert.True(t, m.Equal(a))
}

func TestEqualAndString(t *testing.T) {
	a := MustNew([]Dim{"x", "y"}, []int{3, 4})
	b := MustNew([]Dim{"y", "x"}, []int{4, 3})
	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(a.Copy()))
	assert.Equal(t, "{x: 3, y: 4}", a.String())
}
