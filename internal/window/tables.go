package window

import (
	"fmt"

	"github.com/samber/lo"
)

// Tables holds the two sample tables produced for one token stream.
// Both tables are stored row-major in flat slices.
type Tables struct {
	Radius int

	// CBOW has CBOWRows() rows of CBOWWidth() columns: 2*Radius context ids
	// followed by the center id.
	CBOW []int32

	// SkipGram has SkipGramRows() rows of (center, context) pairs.
	SkipGram []int32
}

func newTables(radius, centers int) *Tables {
	return &Tables{
		Radius:   radius,
		CBOW:     make([]int32, centers*(2*radius+1)),
		SkipGram: make([]int32, centers*2*radius*2),
	}
}

// CBOWWidth is the number of columns in the CBOW table.
func (t *Tables) CBOWWidth() int {
	return 2*t.Radius + 1
}

func (t *Tables) CBOWRows() int {
	if t == nil || t.Radius <= 0 {
		return 0
	}
	return len(t.CBOW) / t.CBOWWidth()
}

func (t *Tables) SkipGramRows() int {
	if t == nil {
		return 0
	}
	return len(t.SkipGram) / 2
}

// Empty reports whether no center position produced samples.
func (t *Tables) Empty() bool {
	return t.CBOWRows() == 0
}

// CBOWRow returns a view of row i. The slice aliases the table.
func (t *Tables) CBOWRow(i int) []int32 {
	w := t.CBOWWidth()
	return t.CBOW[i*w : (i+1)*w : (i+1)*w]
}

// SkipGramRow returns the (center, context) pair at row i.
func (t *Tables) SkipGramRow(i int) (center, context int32) {
	return t.SkipGram[2*i], t.SkipGram[2*i+1]
}

// SkipGramPairs copies the skip-gram table into tuples.
func (t *Tables) SkipGramPairs() []lo.Tuple2[int32, int32] {
	out := make([]lo.Tuple2[int32, int32], t.SkipGramRows())
	for i := range out {
		c, x := t.SkipGramRow(i)
		out[i] = lo.T2(c, x)
	}
	return out
}

// CBOWMatrix copies the CBOW table into one slice per row.
func (t *Tables) CBOWMatrix() [][]int32 {
	rows := t.CBOWRows()
	out := make([][]int32, rows)
	for i := range rows {
		out[i] = append([]int32(nil), t.CBOWRow(i)...)
	}
	return out
}

// SkipGramMatrix copies the skip-gram table into one two-element slice per row.
func (t *Tables) SkipGramMatrix() [][2]int32 {
	out := make([][2]int32, t.SkipGramRows())
	for i := range out {
		c, x := t.SkipGramRow(i)
		out[i] = [2]int32{c, x}
	}
	return out
}

// Append concatenates other after t. Both tables must share a radius.
func (t *Tables) Append(other *Tables) error {
	if other == nil {
		return nil
	}
	if t.Radius != other.Radius {
		return invalidArgument(fmt.Sprintf("cannot append tables with radius %d to radius %d", other.Radius, t.Radius))
	}
	t.CBOW = append(t.CBOW, other.CBOW...)
	t.SkipGram = append(t.SkipGram, other.SkipGram...)
	return nil
}
