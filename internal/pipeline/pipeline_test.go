package pipeline

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/samcharles93/embedprep/internal/logger"
	"github.com/samcharles93/embedprep/internal/tablestore"
	"github.com/samcharles93/embedprep/internal/vocab"
	"github.com/samcharles93/embedprep/internal/window"
)

func testContext() context.Context {
	return logger.WithContext(context.Background(), logger.Discard())
}

func writeDataset(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"train/pos/0_9.txt":  "Great movie, great story.",
		"train/neg/1_2.txt":  "Dull movie<br />terrible story",
		"test/pos/2_8.txt":   "Great actors",
		"test/unsup/3_0.txt": "",
	}
	for name, text := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return root
}

func testConfig(root string) Config {
	cfg := DefaultConfig()
	cfg.DatasetRoot = root
	cfg.Radius = 1
	return cfg
}

func TestValidate(t *testing.T) {
	t.Parallel()

	good := testConfig("/data")
	if err := good.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing root", func(c *Config) { c.DatasetRoot = " " }, "dataset root"},
		{"zero radius", func(c *Config) { c.Radius = 0 }, "radius"},
		{"negative workers", func(c *Config) { c.Workers = -1 }, "workers"},
		{"small block", func(c *Config) { c.BlockSize = 2 }, "block size"},
		{"block below huge radius", func(c *Config) { c.Radius, c.BlockSize = math.MaxInt/2+2, 8 }, "block size"},
		{"bad split", func(c *Config) { c.Splits = []string{"../x"} }, "split"},
		{"negative max vocab", func(c *Config) { c.MaxVocab = -5 }, "max vocabulary"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig("/data")
			tc.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestLoadBuildsVocabulary(t *testing.T) {
	t.Parallel()

	c, err := Load(testContext(), testConfig(writeDataset(t)))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// train/pos, train/neg, test/pos, test/unsup in discovery order.
	want := [][]string{
		{"great", "movie", "great", "story"},
		{"dull", "movie", "terrible", "story"},
		{"great", "actor"},
		{},
	}
	if len(c.Documents) != len(want) {
		t.Fatalf("got %d documents, want %d", len(c.Documents), len(want))
	}
	for i := range want {
		if !slices.Equal(c.Documents[i], want[i]) {
			t.Fatalf("doc %d: got %v want %v", i, c.Documents[i], want[i])
		}
	}
	wantVocab := []string{vocab.Fallback, "great", "movie", "story", "actor", "dull", "terrible"}
	if got := c.Vocab.Tokens(); !slices.Equal(got, wantVocab) {
		t.Fatalf("vocab: got %v want %v", got, wantVocab)
	}
	if c.Stats.Documents["train"] != 2 || c.Stats.Documents["test"] != 2 || c.Stats.Tokens != 10 {
		t.Fatalf("unexpected stats: %+v", c.Stats)
	}
	if got := c.Stream(); !slices.Equal(got, []int32{1, 2, 1, 3, 5, 2, 6, 3, 1, 4}) {
		t.Fatalf("unexpected stream: %v", got)
	}
}

func TestLoadWithMinFreqUsesFallback(t *testing.T) {
	t.Parallel()

	cfg := testConfig(writeDataset(t))
	cfg.MinFreq = 2
	c, err := Load(testContext(), cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := c.Vocab.Tokens(); !slices.Equal(got, []string{vocab.Fallback, "great", "movie", "story"}) {
		t.Fatalf("unexpected vocab: %v", got)
	}
	if got := c.Stream(); !slices.Equal(got, []int32{1, 2, 1, 3, 0, 2, 0, 3, 1, 0}) {
		t.Fatalf("unexpected stream: %v", got)
	}
}

func TestRunWritesTableFile(t *testing.T) {
	t.Parallel()

	root := writeDataset(t)
	out := filepath.Join(t.TempDir(), "corpus.tbf")
	cfg := testConfig(root)
	m, err := Run(testContext(), cfg, out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if m.CBOWRows != 8 || m.SkipGrams != 16 || m.Tokens != 10 || m.VocabSize != 7 {
		t.Fatalf("unexpected manifest: %+v", m)
	}

	f, err := tablestore.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = f.Close() }()

	stored, err := f.Manifest()
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if stored.RunID != m.RunID || stored.SourceRoot != root || stored.TotalDocuments() != 4 {
		t.Fatalf("unexpected stored manifest: %+v", stored)
	}
	samples, err := f.Samples()
	if err != nil {
		t.Fatalf("samples: %v", err)
	}
	want, _ := window.Generate([]int32{1, 2, 1, 3, 5, 2, 6, 3, 1, 4}, 1)
	if !slices.Equal(samples.CBOW, want.CBOW) || !slices.Equal(samples.SkipGram, want.SkipGram) {
		t.Fatalf("stored samples differ from direct generation")
	}
}

func TestRunBlockwiseMatchesSinglePass(t *testing.T) {
	t.Parallel()

	root := writeDataset(t)
	dir := t.TempDir()

	single := testConfig(root)
	single.Radius = 2
	if _, err := Run(testContext(), single, filepath.Join(dir, "a.tbf")); err != nil {
		t.Fatalf("single pass: %v", err)
	}
	blocked := single
	blocked.BlockSize = 5
	blocked.Workers = 2
	if _, err := Run(testContext(), blocked, filepath.Join(dir, "b.tbf")); err != nil {
		t.Fatalf("blockwise: %v", err)
	}

	read := func(name string) *window.Tables {
		f, err := tablestore.Open(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		defer func() { _ = f.Close() }()
		s, err := f.Samples()
		if err != nil {
			t.Fatalf("samples %s: %v", name, err)
		}
		return s
	}
	a, b := read("a.tbf"), read("b.tbf")
	if !slices.Equal(a.CBOW, b.CBOW) || !slices.Equal(a.SkipGram, b.SkipGram) {
		t.Fatalf("blockwise output differs from single pass")
	}
}

func TestRunWithSavedVocabulary(t *testing.T) {
	t.Parallel()

	v, err := vocab.New([]string{vocab.Fallback, "story", "great"})
	if err != nil {
		t.Fatalf("vocab: %v", err)
	}
	vocabPath := filepath.Join(t.TempDir(), "vocab.json")
	if err := v.SaveFile(vocabPath); err != nil {
		t.Fatalf("save vocab: %v", err)
	}
	cfg := testConfig(writeDataset(t))
	cfg.VocabPath = vocabPath

	c, err := Load(testContext(), cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := c.Stream(); !slices.Equal(got, []int32{2, 0, 2, 1, 0, 0, 0, 1, 2, 0}) {
		t.Fatalf("unexpected stream: %v", got)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	t.Parallel()

	if _, err := Run(testContext(), Config{}, filepath.Join(t.TempDir(), "x.tbf")); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
