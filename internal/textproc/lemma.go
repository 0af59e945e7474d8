package textproc

import (
	"fmt"
	"strings"
	"sync"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
)

// Lemmatizer maps an inflected lowercase word to its base form.
type Lemmatizer interface {
	Lemma(word string) string
}

// LemmaFunc adapts a function to Lemmatizer.
type LemmaFunc func(string) string

func (f LemmaFunc) Lemma(word string) string { return f(word) }

// loadEnglish decodes the embedded English dictionary once per process;
// the lookup table is read-only and shared by every DictLemmatizer.
var loadEnglish = sync.OnceValues(func() (*golem.Lemmatizer, error) {
	return golem.New(en.New())
})

// defaultOverrides pins words the dictionary resolves to an unrelated lemma
// or that should stay plural in review text.
var defaultOverrides = map[string]string{
	"news":     "news",
	"series":   "series",
	"species":  "species",
	"physics":  "physics",
	"politics": "politics",
}

// DictLemmatizer looks words up in the English lemma dictionary. Overrides
// are consulted first; words the dictionary does not know are returned
// unchanged.
type DictLemmatizer struct {
	dict      *golem.Lemmatizer
	overrides map[string]string
}

// NewDictLemmatizer returns a DictLemmatizer with the default overrides.
func NewDictLemmatizer() (*DictLemmatizer, error) {
	dict, err := loadEnglish()
	if err != nil {
		return nil, fmt.Errorf("textproc: load english lemma dictionary: %w", err)
	}
	l := &DictLemmatizer{dict: dict, overrides: make(map[string]string, len(defaultOverrides))}
	l.AddOverrides(defaultOverrides)
	return l, nil
}

// DefaultLemmatizer is NewDictLemmatizer for callers that cannot handle an
// error. The dictionary is embedded in the binary, so failure means a
// corrupt build.
func DefaultLemmatizer() *DictLemmatizer {
	l, err := NewDictLemmatizer()
	if err != nil {
		panic(err)
	}
	return l
}

// AddOverrides registers word -> lemma mappings that take precedence over
// the dictionary.
func (l *DictLemmatizer) AddOverrides(forms map[string]string) {
	for k, v := range forms {
		l.overrides[strings.ToLower(k)] = strings.ToLower(v)
	}
}

func (l *DictLemmatizer) Lemma(word string) string {
	if base, ok := l.overrides[word]; ok {
		return base
	}
	if strings.ContainsRune(word, '\'') {
		return word
	}
	return l.dict.Lemma(word)
}
