// Package vocab assigns integer ids to tokens.
//
// Id 0 is reserved for the fallback token, which every unseen token resolves
// to. The remaining ids follow descending corpus frequency.
package vocab

import (
	"errors"
	"fmt"
)

// Fallback is the token that unseen tokens resolve to. It always has id 0.
const Fallback = "<unk>"

// FallbackID is the id of Fallback.
const FallbackID int32 = 0

var (
	ErrEmptyToken     = errors.New("vocab: empty token")
	ErrDuplicateToken = errors.New("vocab: duplicate token")
	ErrBadFallback    = errors.New("vocab: first token must be " + Fallback)
)

// Options controls which counted tokens enter the vocabulary.
type Options struct {
	// MinFreq drops tokens seen fewer times than this.
	MinFreq int
	// MaxSize caps the vocabulary size, fallback included. Zero means no cap.
	MaxSize int
}

// Vocabulary maps tokens to ids and back. It is immutable once built and
// safe for concurrent use.
type Vocabulary struct {
	tokens []string
	ids    map[string]int32
}

// Build creates a vocabulary from corpus counts.
func Build(counts Counts, opts Options) *Vocabulary {
	tokens := []string{Fallback}
	for _, tok := range counts.MostCommon(0) {
		if opts.MaxSize > 0 && len(tokens) >= opts.MaxSize {
			break
		}
		// MostCommon is sorted by frequency, so nothing after this passes either.
		if counts[tok] < opts.MinFreq {
			break
		}
		if tok == Fallback || tok == "" {
			continue
		}
		tokens = append(tokens, tok)
	}
	v, _ := New(tokens)
	return v
}

// New creates a vocabulary from an ordered token list. tokens[0] must be the
// fallback token.
func New(tokens []string) (*Vocabulary, error) {
	if len(tokens) == 0 || tokens[0] != Fallback {
		return nil, ErrBadFallback
	}
	ids := make(map[string]int32, len(tokens))
	for i, tok := range tokens {
		if tok == "" {
			return nil, fmt.Errorf("%w at index %d", ErrEmptyToken, i)
		}
		if _, ok := ids[tok]; ok {
			return nil, fmt.Errorf("%w %q", ErrDuplicateToken, tok)
		}
		ids[tok] = int32(i)
	}
	return &Vocabulary{
		tokens: append([]string(nil), tokens...),
		ids:    ids,
	}, nil
}

// Len is the number of ids, fallback included.
func (v *Vocabulary) Len() int {
	return len(v.tokens)
}

func (v *Vocabulary) Fallback() string {
	return Fallback
}

// Resolve returns the id for token, or FallbackID when it is unknown.
func (v *Vocabulary) Resolve(token string) int32 {
	if id, ok := v.ids[token]; ok {
		return id
	}
	return FallbackID
}

// ResolveAll resolves each token in order.
func (v *Vocabulary) ResolveAll(tokens []string) []int32 {
	out := make([]int32, len(tokens))
	for i, tok := range tokens {
		out[i] = v.Resolve(tok)
	}
	return out
}

// Contains reports whether token has its own id.
func (v *Vocabulary) Contains(token string) bool {
	_, ok := v.ids[token]
	return ok
}

// Token returns the token for id, or "" when id is out of range.
func (v *Vocabulary) Token(id int32) string {
	if id < 0 || int(id) >= len(v.tokens) {
		return ""
	}
	return v.tokens[id]
}

// Tokens returns a copy of the ordered token list.
func (v *Vocabulary) Tokens() []string {
	return append([]string(nil), v.tokens...)
}
