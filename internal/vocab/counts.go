package vocab

import (
	"sort"

	"github.com/samber/lo"
)

// Counts records how many times each token occurs in a corpus.
type Counts map[string]int

// Count returns the frequencies of tokens.
func Count(tokens []string) Counts {
	c := make(Counts)
	c.Add(tokens)
	return c
}

// Add counts every token in tokens.
func (c Counts) Add(tokens []string) {
	for _, tok := range tokens {
		c[tok]++
	}
}

// Total is the number of token occurrences counted.
func (c Counts) Total() int {
	return lo.Sum(lo.Values(c))
}

// MostCommon returns up to n tokens ordered by descending frequency, ties
// broken lexicographically. n <= 0 returns every token.
func (c Counts) MostCommon(n int) []string {
	tokens := make([]string, 0, len(c))
	for tok := range c {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool {
		ci, cj := c[tokens[i]], c[tokens[j]]
		if ci != cj {
			return ci > cj
		}
		return tokens[i] < tokens[j]
	})
	if n > 0 && len(tokens) > n {
		tokens = tokens[:n]
	}
	return tokens
}
