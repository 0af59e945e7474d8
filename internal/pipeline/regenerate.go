package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/samcharles93/embedprep/internal/logger"
	"github.com/samcharles93/embedprep/internal/metrics"
	"github.com/samcharles93/embedprep/internal/tablestore"
	"github.com/samcharles93/embedprep/internal/vocab"
	"github.com/samcharles93/embedprep/internal/window"
)

// DefaultRegenerateBlock is the block size used to re-window a stored token
// table when Config.BlockSize is 0.
const DefaultRegenerateBlock = 1 << 20

// Regenerate re-windows the token table of the file at src with cfg.Radius
// and writes the result to out. Tokens are read block by block from the
// mapped file; the vocabulary and document counts are carried over. Only
// Radius, Workers and BlockSize of cfg are used.
func Regenerate(ctx context.Context, cfg Config, src, out string) (tablestore.Manifest, error) {
	if cfg.Radius <= 0 || cfg.Radius > tablestore.MaxRadius {
		return tablestore.Manifest{}, fmt.Errorf("%w: radius must be in [1, %d], got %d", ErrInvalidConfig, tablestore.MaxRadius, cfg.Radius)
	}
	block := cfg.BlockSize
	if block == 0 {
		block = max(DefaultRegenerateBlock, 2*cfg.Radius+1)
	}
	if block < 0 || !window.FitsRadius(block, cfg.Radius) {
		return tablestore.Manifest{}, fmt.Errorf("%w: block size must be 0 or greater than twice the radius %d, got %d", ErrInvalidConfig, cfg.Radius, cfg.BlockSize)
	}
	if same, err := sameFile(src, out); err != nil {
		return tablestore.Manifest{}, err
	} else if same {
		return tablestore.Manifest{}, fmt.Errorf("%w: output %s would overwrite the source file", ErrInvalidConfig, out)
	}
	log := logger.FromContext(ctx).With("component", "pipeline", "source", src)

	f, err := tablestore.Open(src)
	if err != nil {
		return tablestore.Manifest{}, fmt.Errorf("open %s: %w", src, err)
	}
	defer func() { _ = f.Close() }()

	seq, err := f.TokenSequence(tablestore.TableTokens)
	if err != nil {
		return tablestore.Manifest{}, err
	}
	v, err := f.Vocab()
	if err != nil && !errors.Is(err, tablestore.ErrNoVocabulary) {
		return tablestore.Manifest{}, err
	}
	source, err := f.Manifest()
	if err != nil && !errors.Is(err, tablestore.ErrNoManifest) {
		return tablestore.Manifest{}, err
	}

	gen := window.Generator{Radius: cfg.Radius, VocabSize: vocabSize(v), Workers: cfg.Workers}
	start := time.Now()
	tables, err := gen.CollectSequence(ctx, seq, block)
	if err != nil {
		return tablestore.Manifest{}, fmt.Errorf("generate samples: %w", err)
	}
	elapsed := time.Since(start)
	metrics.RowsGenerated(metrics.SourceRegenerate, tables.CBOWRows(), tables.SkipGramRows(), elapsed)
	log.Info("regenerated samples",
		"radius", cfg.Radius,
		"previous_radius", source.Radius,
		"tokens", seq.Len(),
		"cbow_rows", tables.CBOWRows(),
		"skipgram_rows", tables.SkipGramRows(),
		"elapsed", elapsed)

	tokens, _, err := f.ReadI32(tablestore.TableTokens)
	if err != nil {
		return tablestore.Manifest{}, err
	}
	m := tablestore.NewManifest(cfg.Radius)
	m.SourceRoot = source.SourceRoot
	m.Splits = source.Splits
	m.Documents = source.Documents
	m.Skipped = source.Skipped
	m.DerivedFrom = source.RunID
	if err := tablestore.Write(out, tablestore.Bundle{
		Tokens:   tokens,
		Tables:   tables,
		Vocab:    v,
		Manifest: m,
	}); err != nil {
		return tablestore.Manifest{}, fmt.Errorf("write %s: %w", out, err)
	}

	m.VocabSize = vocabSize(v)
	m.Tokens = len(tokens)
	m.CBOWRows = tables.CBOWRows()
	m.SkipGrams = tables.SkipGramRows()
	log.Info("wrote table file", "path", out, "run_id", m.RunID, "derived_from", m.DerivedFrom)
	return m, nil
}

// vocabSize is 0, disabling id validation, for files stored without a
// vocabulary.
func vocabSize(v *vocab.Vocabulary) int {
	if v == nil {
		return 0
	}
	return v.Len()
}

func sameFile(a, b string) (bool, error) {
	bi, err := os.Stat(b)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", a, err)
	}
	return os.SameFile(ai, bi), nil
}
