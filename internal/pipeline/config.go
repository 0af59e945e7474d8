package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samcharles93/embedprep/internal/corpus"
	"github.com/samcharles93/embedprep/internal/textproc"
	"github.com/samcharles93/embedprep/internal/window"
)

// Defaults used by DefaultConfig and the CLI flags.
const (
	DefaultRadius         = 2
	DefaultMinFreq        = 1
	DefaultMinTokenLength = 2
)

var ErrInvalidConfig = errors.New("invalid pipeline configuration")

// Config describes one corpus preparation run.
type Config struct {
	DatasetRoot string
	Splits      []string

	// Radius is the number of context tokens on each side of a center.
	Radius int

	MinFreq  int
	MaxVocab int

	// Workers bounds both document reads and sample generation. Zero means
	// GOMAXPROCS.
	Workers int

	// BlockSize > 0 generates samples block by block instead of in one pass.
	BlockSize int

	MinTokenLength int
	// Stopwords replaces the built-in list when non-nil.
	Stopwords []string
	// KeepNumbers keeps purely numeric tokens.
	KeepNumbers bool
	// LemmaOverrides map words to lemmas ahead of the dictionary.
	LemmaOverrides map[string]string

	// VocabPath, when set, loads an existing vocabulary instead of building
	// one from the dataset.
	VocabPath string
}

func DefaultConfig() Config {
	return Config{
		Splits:         corpus.DefaultSplits,
		Radius:         DefaultRadius,
		MinFreq:        DefaultMinFreq,
		MinTokenLength: DefaultMinTokenLength,
	}
}

// Validate reports every problem with c in one error.
func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.DatasetRoot) == "" {
		problems = append(problems, "dataset root is required")
	}
	if c.Radius <= 0 {
		problems = append(problems, fmt.Sprintf("radius must be positive, got %d", c.Radius))
	}
	if c.MinFreq < 0 {
		problems = append(problems, fmt.Sprintf("min frequency must not be negative, got %d", c.MinFreq))
	}
	if c.MaxVocab < 0 {
		problems = append(problems, fmt.Sprintf("max vocabulary must not be negative, got %d", c.MaxVocab))
	}
	if c.Workers < 0 {
		problems = append(problems, fmt.Sprintf("workers must not be negative, got %d", c.Workers))
	}
	if c.BlockSize < 0 || (c.BlockSize > 0 && c.Radius > 0 && !window.FitsRadius(c.BlockSize, c.Radius)) {
		problems = append(problems, fmt.Sprintf("block size must be 0 or greater than twice the radius %d, got %d", c.Radius, c.BlockSize))
	}
	if c.MinTokenLength < 0 {
		problems = append(problems, fmt.Sprintf("min token length must not be negative, got %d", c.MinTokenLength))
	}
	for _, s := range c.Splits {
		if strings.TrimSpace(s) == "" || strings.ContainsAny(s, `/\`) {
			problems = append(problems, fmt.Sprintf("invalid split name %q", s))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Analyzer builds the text analyzer described by c.
func (c Config) Analyzer() textproc.Analyzer {
	p := textproc.NewPipeline()
	p.MinLength = c.MinTokenLength
	p.KeepNumbers = c.KeepNumbers
	if c.Stopwords != nil {
		p.Stopwords = textproc.StopwordSet(c.Stopwords)
	}
	if l, ok := p.Lemmatizer.(*textproc.DictLemmatizer); ok && len(c.LemmaOverrides) > 0 {
		l.AddOverrides(c.LemmaOverrides)
	}
	return p
}
