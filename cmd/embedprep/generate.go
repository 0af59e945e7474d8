package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/embedprep/internal/logger"
	"github.com/samcharles93/embedprep/internal/pipeline"
	"github.com/samcharles93/embedprep/internal/tablestore"
)

func generateCmd() *cli.Command {
	var (
		outPath   string
		blockSize int
		minFreq   int
		maxSize   int
		minLen    int
		keepNum   bool
		stopwords []string
		fromPath  string
	)

	return &cli.Command{
		Name:  "generate",
		Usage: "Generate CBOW and skip-gram tables into a .tbf file",
		Flags: append(datasetFlags(),
			windowFlag(),
			vocabFlag("load this vocabulary instead of building one from the dataset"),
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output table file",
				Value:       "corpus.tbf",
				Destination: &outPath,
			},
			&cli.StringFlag{
				Name:        "from",
				Usage:       "re-window the token table of an existing .tbf file instead of reading a dataset",
				Destination: &fromPath,
			},
			&cli.IntFlag{
				Name:        "block-size",
				Usage:       "generate in blocks of this many tokens (0 = one pass)",
				Destination: &blockSize,
			},
			&cli.IntFlag{
				Name:        "min-freq",
				Usage:       "drop tokens seen fewer times than this",
				Value:       pipeline.DefaultMinFreq,
				Destination: &minFreq,
			},
			&cli.IntFlag{
				Name:        "max-size",
				Usage:       "cap the vocabulary size, fallback included (0 = no cap)",
				Destination: &maxSize,
			},
			&cli.IntFlag{
				Name:        "min-length",
				Usage:       "drop tokens shorter than this many characters",
				Value:       pipeline.DefaultMinTokenLength,
				Destination: &minLen,
			},
			&cli.BoolFlag{
				Name:        "keep-numbers",
				Usage:       "keep purely numeric tokens",
				Destination: &keepNum,
			},
			&cli.StringSliceFlag{
				Name:        "stopword",
				Usage:       "replace the built-in stopword list (repeatable)",
				Destination: &stopwords,
			},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			log := logger.FromContext(ctx)
			cfg := configFromContext(ctx)
			applyDatasetConfig(c, cfg)
			applyGenerateConfig(c, cfg, &blockSize, &minFreq, &maxSize)

			if fromPath != "" {
				return regenerate(ctx, fromPath, outPath, blockSize)
			}

			root, err := resolveDataDir(dataDir)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			out, err := resolveOut(outPath, "corpus.tbf")
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: output path: %v", err), 1)
			}

			pcfg := pipeline.DefaultConfig()
			pcfg.DatasetRoot = root
			pcfg.Splits = splits
			pcfg.Radius = radius
			pcfg.Workers = workers
			pcfg.BlockSize = blockSize
			pcfg.MinFreq = minFreq
			pcfg.MaxVocab = maxSize
			pcfg.MinTokenLength = minLen
			pcfg.KeepNumbers = keepNum
			pcfg.LemmaOverrides = cfg.LemmaOverrides
			pcfg.VocabPath = vocabPath
			if c.IsSet("stopword") {
				pcfg.Stopwords = stopwords
			}
			if err := pcfg.Validate(); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			start := time.Now()
			log.Info("generating tables", "data", root, "out", out, "window", radius)
			m, err := pipeline.Run(ctx, pcfg, out)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: generate: %v", err), 1)
			}

			printSummary(os.Stdout, out, m, time.Since(start))
			return nil
		},
	}
}

func regenerate(ctx context.Context, src, outPath string, blockSize int) error {
	out, err := resolveOut(outPath, "corpus.tbf")
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: output path: %v", err), 1)
	}
	cfg := pipeline.Config{Radius: radius, Workers: workers, BlockSize: blockSize}

	start := time.Now()
	logger.FromContext(ctx).Info("regenerating tables", "from", src, "out", out, "window", radius)
	m, err := pipeline.Regenerate(ctx, cfg, src, out)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: generate --from %s: %v", src, err), 1)
	}
	printSummary(os.Stdout, out, m, time.Since(start))
	return nil
}

func printSummary(w io.Writer, out string, m tablestore.Manifest, elapsed time.Duration) {
	_, _ = fmt.Fprintf(w, "wrote %s in %s\n", out, elapsed.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  run id:        %s\n", m.RunID)
	if m.DerivedFrom != "" {
		_, _ = fmt.Fprintf(w, "  derived from:  %s\n", m.DerivedFrom)
	}
	_, _ = fmt.Fprintf(w, "  documents:     %d (%d skipped)\n", m.TotalDocuments(), m.Skipped)
	_, _ = fmt.Fprintf(w, "  vocabulary:    %d\n", m.VocabSize)
	_, _ = fmt.Fprintf(w, "  tokens:        %d\n", m.Tokens)
	_, _ = fmt.Fprintf(w, "  cbow rows:     %d x %d\n", m.CBOWRows, 2*m.Radius+1)
	_, _ = fmt.Fprintf(w, "  skipgram rows: %d\n", m.SkipGrams)
}
