package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("reads yaml from override path", func(t *testing.T) {
		t.Setenv(envConfigPath, writeConfig(t, `
data_dir: /data/aclImdb
splits: [train]
window: 3
workers: 4
min_freq: 0
log_format: json
server_address: 0.0.0.0:9000
lemma_overrides:
  Films: cinema
`))
		cfg := LoadConfig()
		if cfg.DataDir != "/data/aclImdb" || len(cfg.Splits) != 1 || cfg.Splits[0] != "train" {
			t.Fatalf("unexpected dataset config: %+v", cfg)
		}
		if cfg.Window == nil || *cfg.Window != 3 || cfg.Workers == nil || *cfg.Workers != 4 {
			t.Fatalf("unexpected generation config: %+v", cfg)
		}
		if cfg.MinFreq == nil || *cfg.MinFreq != 0 {
			t.Fatalf("expected explicit zero min_freq to be kept")
		}
		if cfg.BlockSize != nil {
			t.Fatalf("expected unset block_size to stay nil")
		}
		if cfg.LogFormat != "json" || cfg.ServerAddress != "0.0.0.0:9000" {
			t.Fatalf("unexpected output/server config: %+v", cfg)
		}
		if cfg.LemmaOverrides["Films"] != "cinema" {
			t.Fatalf("unexpected lemma overrides: %v", cfg.LemmaOverrides)
		}
	})

	t.Run("missing file yields zero config", func(t *testing.T) {
		t.Setenv(envConfigPath, filepath.Join(t.TempDir(), "absent.yaml"))
		cfg := LoadConfig()
		if cfg.DataDir != "" || cfg.Window != nil {
			t.Fatalf("expected zero config, got %+v", cfg)
		}
	})

	t.Run("invalid yaml yields zero config", func(t *testing.T) {
		t.Setenv(envConfigPath, writeConfig(t, "window: [not, a, number"))
		if cfg := LoadConfig(); cfg.Window != nil {
			t.Fatalf("expected zero config, got %+v", cfg)
		}
	})
}

func TestApplyGenerateConfigRespectsFlags(t *testing.T) {
	three, eight, two := 3, 8, 2
	cfg := Config{
		DataDir:   "/from/config",
		Window:    &three,
		Workers:   &eight,
		BlockSize: &eight,
		MinFreq:   &two,
		Vocab:     "config-vocab.json",
	}

	var blockSize, minFreq, maxVocab int
	cmd := &cli.Command{
		Name:  "generate",
		Flags: append(datasetFlags(), windowFlag(), vocabFlag("vocab"), &cli.IntFlag{Name: "block-size", Destination: &blockSize}, &cli.IntFlag{Name: "min-freq", Destination: &minFreq}, &cli.IntFlag{Name: "max-size", Destination: &maxVocab}),
		Action: func(ctx context.Context, c *cli.Command) error {
			applyDatasetConfig(c, cfg)
			applyGenerateConfig(c, cfg, &blockSize, &minFreq, &maxVocab)
			return nil
		},
	}
	if err := cmd.Run(context.Background(), []string{"generate", "--window", "5", "--data", "/from/flag"}); err != nil {
		t.Fatalf("run: %v", err)
	}

	if radius != 5 {
		t.Fatalf("explicit --window must win, got %d", radius)
	}
	if dataDir != "/from/flag" {
		t.Fatalf("explicit --data must win, got %q", dataDir)
	}
	if workers != 8 || blockSize != 8 || minFreq != 2 {
		t.Fatalf("config defaults not applied: workers=%d block=%d minFreq=%d", workers, blockSize, minFreq)
	}
	if maxVocab != 0 {
		t.Fatalf("unset config field must not change max-size, got %d", maxVocab)
	}
	if vocabPath != "config-vocab.json" {
		t.Fatalf("expected vocab from config, got %q", vocabPath)
	}
}

func TestApplyLoggingConfig(t *testing.T) {
	cfg := Config{LogLevel: "warn", LogFormat: "json"}
	cmd := &cli.Command{
		Name:  "embedprep",
		Flags: loggingFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			applyLoggingConfig(c, cfg)
			return nil
		},
	}
	if err := cmd.Run(context.Background(), []string{"embedprep", "--log-format", "text"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if logLevel != "warn" || logFormat != "text" {
		t.Fatalf("unexpected logging config: level=%q format=%q", logLevel, logFormat)
	}
	if _, err := setupLogger(os.Stderr); err != nil {
		t.Fatalf("setupLogger: %v", err)
	}

	logFormat = "xml"
	if _, err := setupLogger(os.Stderr); err == nil {
		t.Fatalf("expected unknown log format to fail")
	}
}
