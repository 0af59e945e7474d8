// Package textproc turns raw review text into normalized word tokens.
package textproc

import (
	"regexp"
	"strings"
	"unicode"
)

// Analyzer splits text into the tokens used to build a vocabulary.
type Analyzer interface {
	Analyze(text string) []string
}

var (
	wordPattern   = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)
	lineBreakHTML = regexp.MustCompile(`(?i)<br\s*/?>`)
	otherTagsHTML = regexp.MustCompile(`<[^>]{0,64}>`)
)

// Pipeline is the default Analyzer: strip markup, lowercase, split into words,
// drop stopwords, lemmatize.
type Pipeline struct {
	// Stopwords are dropped before and after lemmatization. Nil uses
	// DefaultStopwords.
	Stopwords map[string]struct{}

	// Lemmatizer maps each word to its base form. Nil keeps words as is.
	Lemmatizer Lemmatizer

	// MinLength drops tokens shorter than this many runes.
	MinLength int

	// KeepNumbers keeps purely numeric tokens.
	KeepNumbers bool
}

// NewPipeline returns a Pipeline with the default stopword list and the
// dictionary lemmatizer.
func NewPipeline() *Pipeline {
	return &Pipeline{
		Stopwords:  DefaultStopwords(),
		Lemmatizer: DefaultLemmatizer(),
		MinLength:  2,
	}
}

func (p *Pipeline) Analyze(text string) []string {
	text = lineBreakHTML.ReplaceAllString(text, " ")
	text = otherTagsHTML.ReplaceAllString(text, " ")
	text = strings.ToLower(text)

	stop := p.Stopwords
	if stop == nil {
		stop = defaultStopwords
	}

	words := wordPattern.FindAllString(text, -1)
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ReplaceAll(w, "’", "'")
		if !p.KeepNumbers && isNumeric(w) {
			continue
		}
		if _, ok := stop[w]; ok {
			continue
		}
		if p.Lemmatizer != nil {
			w = p.Lemmatizer.Lemma(w)
			if _, ok := stop[w]; ok {
				continue
			}
		}
		if p.MinLength > 0 && runeCount(w) < p.MinLength {
			continue
		}
		out = append(out, w)
	}
	return out
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func runeCount(s string) int {
	return len([]rune(s))
}
