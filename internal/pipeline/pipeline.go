// Package pipeline turns a review dataset into a persisted table file:
// discover, tokenize, count, build vocabulary, resolve ids, generate samples,
// write.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/samcharles93/embedprep/internal/corpus"
	"github.com/samcharles93/embedprep/internal/logger"
	"github.com/samcharles93/embedprep/internal/metrics"
	"github.com/samcharles93/embedprep/internal/tablestore"
	"github.com/samcharles93/embedprep/internal/vocab"
	"github.com/samcharles93/embedprep/internal/window"
)

// Stats summarizes the dataset scan.
type Stats struct {
	Documents map[string]int
	Skipped   int
	Tokens    int
}

// TotalDocuments sums the per-split document counts.
func (s Stats) TotalDocuments() int {
	return lo.Sum(lo.Values(s.Documents))
}

// Corpus is a tokenized dataset with its vocabulary.
type Corpus struct {
	Vocab  *vocab.Vocabulary
	Counts vocab.Counts
	// Documents holds per-document tokens in discovery order; skipped
	// documents are dropped.
	Documents [][]string
	Stats     Stats
}

// Stream resolves every document and concatenates the ids in order.
func (c *Corpus) Stream() []int32 {
	n := 0
	for _, d := range c.Documents {
		n += len(d)
	}
	out := make([]int32, 0, n)
	for _, d := range c.Documents {
		for _, tok := range d {
			out = append(out, c.Vocab.Resolve(tok))
		}
	}
	return out
}

// Load scans, tokenizes and builds (or loads) the vocabulary.
func Load(ctx context.Context, cfg Config) (*Corpus, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx).With("component", "pipeline")

	docs, err := corpus.Discover(cfg.DatasetRoot, cfg.Splits)
	if err != nil {
		return nil, err
	}
	log.Info("discovered documents", "root", cfg.DatasetRoot, "count", len(docs), "splits", corpus.CountBySplit(docs))

	start := time.Now()
	reader := corpus.Reader{Workers: cfg.Workers, Analyzer: cfg.Analyzer(), Logger: log}
	res, err := reader.Tokenize(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}

	c := &Corpus{
		Counts:    make(vocab.Counts),
		Documents: make([][]string, 0, len(docs)),
		Stats:     Stats{Documents: make(map[string]int), Skipped: res.Skipped},
	}
	for i, toks := range res.Tokens {
		if toks == nil {
			continue
		}
		c.Documents = append(c.Documents, toks)
		c.Counts.Add(toks)
		c.Stats.Documents[docs[i].Split]++
	}
	c.Stats.Tokens = c.Counts.Total()
	log.Info("tokenized documents",
		"documents", len(c.Documents),
		"skipped", res.Skipped,
		"tokens", c.Stats.Tokens,
		"distinct", len(c.Counts),
		"elapsed", time.Since(start))

	if cfg.VocabPath != "" {
		c.Vocab, err = vocab.LoadFile(cfg.VocabPath)
		if err != nil {
			return nil, err
		}
		log.Info("loaded vocabulary", "path", cfg.VocabPath, "size", c.Vocab.Len())
	} else {
		c.Vocab = vocab.Build(c.Counts, vocab.Options{MinFreq: cfg.MinFreq, MaxSize: cfg.MaxVocab})
		log.Info("built vocabulary", "size", c.Vocab.Len(), "min_freq", cfg.MinFreq, "max_size", cfg.MaxVocab)
	}
	return c, nil
}

// Generate produces the sample tables for c's token stream.
func Generate(ctx context.Context, cfg Config, c *Corpus) ([]int32, *window.Tables, error) {
	log := logger.FromContext(ctx).With("component", "pipeline")
	stream := c.Stream()
	metrics.TokensEmitted(len(stream))

	gen := window.Generator{Radius: cfg.Radius, VocabSize: c.Vocab.Len(), Workers: cfg.Workers}
	start := time.Now()
	var (
		tables *window.Tables
		err    error
	)
	if cfg.BlockSize > 0 {
		tables, err = gen.CollectSequence(ctx, window.Int32s(stream), cfg.BlockSize)
	} else {
		tables, err = gen.Generate(ctx, stream)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("generate samples: %w", err)
	}
	elapsed := time.Since(start)
	metrics.RowsGenerated(metrics.SourcePipeline, tables.CBOWRows(), tables.SkipGramRows(), elapsed)
	log.Info("generated samples",
		"radius", cfg.Radius,
		"tokens", len(stream),
		"cbow_rows", tables.CBOWRows(),
		"skipgram_rows", tables.SkipGramRows(),
		"elapsed", elapsed)
	return stream, tables, nil
}

// Run executes the whole pipeline and writes the table file to out.
func Run(ctx context.Context, cfg Config, out string) (tablestore.Manifest, error) {
	c, err := Load(ctx, cfg)
	if err != nil {
		return tablestore.Manifest{}, err
	}
	stream, tables, err := Generate(ctx, cfg, c)
	if err != nil {
		return tablestore.Manifest{}, err
	}

	m := tablestore.NewManifest(cfg.Radius)
	m.SourceRoot = cfg.DatasetRoot
	m.Splits = cfg.Splits
	m.Documents = c.Stats.Documents
	m.Skipped = c.Stats.Skipped
	if err := tablestore.Write(out, tablestore.Bundle{
		Tokens:   stream,
		Tables:   tables,
		Vocab:    c.Vocab,
		Manifest: m,
	}); err != nil {
		return tablestore.Manifest{}, fmt.Errorf("write %s: %w", out, err)
	}

	m.VocabSize = c.Vocab.Len()
	m.Tokens = len(stream)
	m.CBOWRows = tables.CBOWRows()
	m.SkipGrams = tables.SkipGramRows()
	logger.FromContext(ctx).Info("wrote table file", "path", out, "run_id", m.RunID)
	return m, nil
}
