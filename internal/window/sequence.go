package window

import "io"

// Sequence is a finite, positionally indexable token stream. Implementations
// may be backed by memory, a mapped file or anything else that can serve
// ranges by offset.
type Sequence interface {
	Len() int
	// ReadAt copies up to len(dst) tokens starting at off. It follows the
	// io.ReaderAt contract: a short read returns a non-nil error.
	ReadAt(dst []int32, off int) (int, error)
}

// Int32s adapts an in-memory slice to Sequence.
type Int32s []int32

func (s Int32s) Len() int { return len(s) }

func (s Int32s) ReadAt(dst []int32, off int) (int, error) {
	if off < 0 || off > len(s) {
		return 0, io.EOF
	}
	n := copy(dst, s[off:])
	if n < len(dst) {
		return n, io.EOF
	}
	return n, nil
}
