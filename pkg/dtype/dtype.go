// Package dtype defines the closed set of element types supported by the
// engine. Every dtype-specific code path in the engine is reached through a
// switch on DType; adding a dtype means extending these switches, nothing
// else.
package dtype

// DType tags the element type of a buffer.
type DType int

const (
	// Float64 is a 64-bit float element.
	Float64 DType = iota
	// Float32 is a 32-bit float element.
	Float32
	// Int64 is a 64-bit signed integer element.
	Int64
	// Int32 is a 32-bit signed integer element.
	Int32
	// Bool is a boolean element.
	Bool
	// String is a string element.
	String
	// Vector3 is a fixed-size 3-vector of float64.
	Vector3
	// Matrix3 is a fixed-size row-major 3x3 matrix of float64.
	Matrix3
	// EventListFloat64 is a variable-length list of float64 per storage
	// cell, used for ragged event data.
	EventListFloat64
	// Foreign is an opaque payload; the engine never inspects it. A
	// formatter may be attached through a Registry.
	Foreign
)

// Vector3Value is the element type of Vector3 buffers.
type Vector3Value [3]float64

// Matrix3Value is the element type of Matrix3 buffers, row-major.
type Matrix3Value [9]float64

var names = map[DType]string{
	Float64:          "float64",
	Float32:          "float32",
	Int64:            "int64",
	Int32:            "int32",
	Bool:             "bool",
	String:           "string",
	Vector3:          "vector_3_float64",
	Matrix3:          "matrix_3_float64",
	EventListFloat64: "event_list_float64",
	Foreign:          "foreign",
}

func (d DType) String() string {
	if name, ok := names[d]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether d is a member of the closed dtype set.
func (d DType) Valid() bool {
	_, ok := names[d]
	return ok
}

// SupportsVariances reports whether buffers of this dtype may carry a
// variances array. Uncertainty is only defined for floating-point data.
func (d DType) SupportsVariances() bool {
	return d == Float64 || d == Float32
}

// IsRagged reports whether elements are variable-length lists.
func (d DType) IsRagged() bool {
	return d == EventListFloat64
}

// IsNumeric reports whether the dtype participates in arithmetic.
func (d DType) IsNumeric() bool {
	switch d {
	case Float64, Float32, Int64, Int32:
		return true
	default:
		return false
	}
}
