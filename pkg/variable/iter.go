package variable

// Index walks a logical multi-index in row-major order, maintaining the
// corresponding flat buffer position for a given stride layout. A zero
// stride repeats the same storage along that dimension, which is how
// broadcast views read one element many times.
type Index struct {
	shape   []int
	strides []int
	pos     []int
	offset  int
	flat    int
	done    bool
}

// NewIndex creates an iterator over the given shape. strides must be
// parallel to shape; offset is the flat position of the all-zeros index.
func NewIndex(shape, strides []int, offset int) *Index {
	ix := &Index{
		shape:   shape,
		strides: strides,
		pos:     make([]int, len(shape)),
		offset:  offset,
		flat:    offset,
	}
	for _, extent := range shape {
		if extent == 0 {
			ix.done = true
			break
		}
	}
	return ix
}

// Done reports whether the iterator is exhausted.
func (ix *Index) Done() bool {
	return ix.done
}

// Flat returns the current flat buffer position.
func (ix *Index) Flat() int {
	return ix.flat
}

// Next advances to the next logical element.
func (ix *Index) Next() {
	for d := len(ix.shape) - 1; d >= 0; d-- {
		ix.pos[d]++
		ix.flat += ix.strides[d]
		if ix.pos[d] < ix.shape[d] {
			return
		}
		ix.pos[d] = 0
		ix.flat -= ix.shape[d] * ix.strides[d]
	}
	ix.done = true
}

// Seek positions the iterator at the n-th logical element. Used to start
// parallel workers at block boundaries.
func (ix *Index) Seek(n int) {
	ix.flat = ix.offset
	ix.done = false
	for d := len(ix.shape) - 1; d >= 0; d-- {
		if ix.shape[d] == 0 {
			ix.done = true
			return
		}
		ix.pos[d] = n % ix.shape[d]
		n /= ix.shape[d]
		ix.flat += ix.pos[d] * ix.strides[d]
	}
	if n > 0 {
		ix.done = true
	}
}
