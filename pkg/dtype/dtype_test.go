package dtype

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
)

func TestDTypeProperties(t *testing.T) {
	tests := []struct {
		d         DType
		name      string
		variances bool
		ragged    bool
		numeric   bool
	}{
		{Float64, "float64", true, false, true},
		{Float32, "float32", true, false, true},
		{Int64, "int64", false, false, true},
		{Int32, "int32", false, false, true},
		{Bool, "bool", false, false, false},
		{String, "string", false, false, false},
		{Vector3, "vector_3_float64", false, false, false},
		{Matrix3, "matrix_3_float64", false, false, false},
		{EventListFloat64, "event_list_float64", false, true, false},
		{Foreign, "foreign", false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.d.Valid())
			assert.Equal(t, tt.name, tt.d.String())
			assert.Equal(t, tt.variances, tt.d.SupportsVariances())
			assert.Equal(t, tt.ragged, tt.d.IsRagged())
			assert.Equal(t, tt.numeric, tt.d.IsNumeric())
		})
	}

	assert.False(t, DType(99).Valid())
	assert.Equal(t, "unknown", DType(99).String())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register("complex", func(v interface{}) string {
		return fmt.Sprintf("complex(%v)", v)
	}))

	// Duplicate registration fails.
	err := r.Register("complex", func(v interface{}) string { return "" })
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindDType))

	assert.Equal(t, "complex(1+2i)", r.Format("complex", "1+2i"))
	// Unregistered names fall back to %v formatting.
	assert.Equal(t, "42", r.Format("unknown", 42))

	_, ok := r.Lookup("complex")
	assert.True(t, ok)
	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}
