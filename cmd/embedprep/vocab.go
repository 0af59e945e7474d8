package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/embedprep/internal/pipeline"
)

func vocabCmd() *cli.Command {
	var (
		outPath string
		minFreq int
		maxSize int
		minLen  int
		keepNum bool
	)

	return &cli.Command{
		Name:  "vocab",
		Usage: "Build a vocabulary file from the dataset",
		Flags: append(datasetFlags(),
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output vocabulary path",
				Value:       "vocab.json",
				Destination: &outPath,
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
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := configFromContext(ctx)
			applyDatasetConfig(c, cfg)
			applyVocabConfig(c, cfg, &minFreq, &maxSize)

			root, err := resolveDataDir(dataDir)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			out, err := resolveOut(outPath, "vocab.json")
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: output path: %v", err), 1)
			}

			pcfg := pipeline.DefaultConfig()
			pcfg.DatasetRoot = root
			pcfg.Splits = splits
			pcfg.Workers = workers
			pcfg.MinFreq = minFreq
			pcfg.MaxVocab = maxSize
			pcfg.MinTokenLength = minLen
			pcfg.KeepNumbers = keepNum
			pcfg.LemmaOverrides = cfg.LemmaOverrides
			if err := pcfg.Validate(); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			corp, err := pipeline.Load(ctx, pcfg)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: build vocabulary: %v", err), 1)
			}
			if err := corp.Vocab.SaveFile(out); err != nil {
				return cli.Exit(fmt.Sprintf("error: write %s: %v", out, err), 1)
			}
			fmt.Printf("wrote %s: %d tokens from %d documents (%d skipped)\n",
				out, corp.Vocab.Len(), corp.Stats.TotalDocuments(), corp.Stats.Skipped)
			return nil
		},
	}
}
