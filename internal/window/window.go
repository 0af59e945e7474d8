// Package window turns a token id stream into CBOW and skip-gram training
// samples using a fixed-radius sliding window.
//
// Rows are always emitted in ascending center position. Within a CBOW row the
// context is laid out left to right (p-w .. p-1, then p+1 .. p+w) and the
// center id is the last column. Skip-gram rows for a center follow the same
// context order.
package window

import "fmt"

// Generate scans every valid center position of tokens and returns the CBOW
// and skip-gram tables for the given radius.
//
// A sequence shorter than 2*radius+1 yields tables with zero rows.
func Generate(tokens []int32, radius int) (*Tables, error) {
	if err := checkRadius(radius); err != nil {
		return nil, err
	}
	if err := validateTokens(tokens, 0, 0); err != nil {
		return nil, err
	}
	centers := CenterCount(len(tokens), radius)
	t := newTables(radius, centers)
	fill(t, tokens, radius, 0, centers)
	return t, nil
}

// CenterCount reports how many center positions a sequence of n tokens has
// for the given radius.
func CenterCount(n, radius int) int {
	if radius <= 0 || !FitsRadius(n, radius) {
		return 0
	}
	return n - 2*radius
}

// FitsRadius reports whether a span of n tokens holds at least one full
// window, n >= 2*radius+1, without computing 2*radius.
func FitsRadius(n, radius int) bool {
	return n > 0 && radius <= (n-1)/2
}

func checkRadius(radius int) error {
	if radius <= 0 {
		return invalidArgument(fmt.Sprintf("window radius must be positive, got %d", radius))
	}
	return nil
}

// validateTokens rejects negative ids, and ids >= vocabSize when vocabSize > 0.
// base is added to the reported position so chunked callers report absolute offsets.
func validateTokens(tokens []int32, vocabSize int, base int) error {
	for i, tok := range tokens {
		if tok < 0 || (vocabSize > 0 && int(tok) >= vocabSize) {
			return &TokenError{Position: base + i, Value: tok, VocabSize: vocabSize}
		}
	}
	return nil
}

// fill writes rows [from, to) of t. Row i has its center at tokens[i+radius].
func fill(t *Tables, tokens []int32, radius, from, to int) {
	width := 2*radius + 1
	span := 2 * radius
	for i := from; i < to; i++ {
		p := i + radius
		center := tokens[p]

		row := t.CBOW[i*width : (i+1)*width]
		n := copy(row, tokens[p-radius:p])
		copy(row[n:], tokens[p+1:p+radius+1])
		row[span] = center

		pairs := t.SkipGram[i*span*2 : (i+1)*span*2]
		for j := range span {
			pairs[2*j] = center
			pairs[2*j+1] = row[j]
		}
	}
}
