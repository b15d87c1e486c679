// Package scipp provides a labeled, unit-aware multidimensional array
// engine: dense and ragged arrays carrying dimension labels, physical
// units and optional per-element variances, with zero-copy views and
// broadcast element-wise arithmetic.
//
// # Architecture
//
// The engine is layered bottom-up:
//
// 1. Storage: pkg/buffer holds type-erased values plus optional variances
// behind a closed dtype set (pkg/dtype), with typed span accessors for
// zero-copy access.
//
// 2. Views: pkg/variable wraps a buffer with dimension labels (pkg/dims),
// a unit (pkg/units) and an offset/stride layout. Slicing, broadcasting
// and transposing never copy; assignment through a view writes into the
// shared buffer.
//
// 3. Operations: pkg/transform dispatches element-wise operations through
// per-operation dtype tables, combining units and propagating variances
// to first order, with chunked data-parallel loops.
//
// 4. Containers: pkg/dataset aligns coordinates and or-unions masks
// across DataArray and Dataset operands; pkg/groupby and pkg/histogram
// provide split-apply-combine reductions and event-list histogramming.
//
// # Quick start
//
// Add two labeled arrays with unit checking and variance propagation:
//
//	x, _ := variable.FromFloat64s(dims.Of("x", 3), units.Counts,
//	    []float64{1, 2, 3}, []float64{1, 2, 3})
//	y, _ := variable.FromFloat64s(dims.Of("x", 3), units.Counts,
//	    []float64{10, 20, 30}, nil)
//	sum, err := transform.Add(x, y)
//
// # Key packages
//
//	pkg/dims      - Dimension labels and ordered label-to-extent mappings
//	pkg/units     - Physical unit algebra over SI dimensions
//	pkg/dtype     - Closed element type set and foreign-dtype registry
//	pkg/buffer    - Type-erased values and variances storage
//	pkg/variable  - Dimensioned, unit-tagged array handle with views
//	pkg/transform - Element-wise operations with broadcasting
//	pkg/dataset   - DataArray and Dataset containers with alignment
//	pkg/groupby   - Split-apply-combine reductions
//	pkg/histogram - Event-list histogramming
//	pkg/arrowio   - Apache Arrow export and reconstruction
//	pkg/errors    - Structured error handling
//	pkg/logger    - Structured logging
//
// Engine tuning (worker count, parallel threshold) loads from YAML with
// ${VAR_NAME} environment substitution through pkg/config.
package scipp
