package pipeline

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/samcharles93/embedprep/internal/tablestore"
	"github.com/samcharles93/embedprep/internal/window"
)

func TestRegenerateMatchesFreshRun(t *testing.T) {
	t.Parallel()

	root := writeDataset(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "r1.tbf")
	first, err := Run(testContext(), testConfig(root), src)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	wide := testConfig(root)
	wide.Radius = 2
	if _, err := Run(testContext(), wide, filepath.Join(dir, "fresh.tbf")); err != nil {
		t.Fatalf("fresh run: %v", err)
	}

	out := filepath.Join(dir, "r2.tbf")
	m, err := Regenerate(testContext(), Config{Radius: 2, Workers: 2, BlockSize: 6}, src, out)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if m.DerivedFrom != first.RunID || m.RunID == first.RunID {
		t.Fatalf("unexpected lineage: run=%s derived=%s source=%s", m.RunID, m.DerivedFrom, first.RunID)
	}
	if m.Radius != 2 || m.Tokens != 10 || m.VocabSize != 7 || m.TotalDocuments() != 4 || m.CBOWRows != 6 {
		t.Fatalf("unexpected manifest: %+v", m)
	}

	read := func(name string) (*window.Tables, []int32) {
		f, err := tablestore.Open(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		defer func() { _ = f.Close() }()
		s, err := f.Samples()
		if err != nil {
			t.Fatalf("samples %s: %v", name, err)
		}
		tokens, _, err := f.ReadI32(tablestore.TableTokens)
		if err != nil {
			t.Fatalf("tokens %s: %v", name, err)
		}
		return s, tokens
	}
	fresh, freshTokens := read("fresh.tbf")
	regen, regenTokens := read("r2.tbf")
	if !slices.Equal(fresh.CBOW, regen.CBOW) || !slices.Equal(fresh.SkipGram, regen.SkipGram) {
		t.Fatalf("regenerated samples differ from a fresh run")
	}
	if !slices.Equal(freshTokens, regenTokens) {
		t.Fatalf("token table changed: %v vs %v", regenTokens, freshTokens)
	}
}

func TestRegenerateRejects(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src.tbf")
	if _, err := Run(testContext(), testConfig(writeDataset(t)), src); err != nil {
		t.Fatalf("run: %v", err)
	}

	tests := []struct {
		name string
		cfg  Config
		out  string
	}{
		{"zero radius", Config{Radius: 0}, "a.tbf"},
		{"radius beyond table limit", Config{Radius: tablestore.MaxRadius + 1}, "b.tbf"},
		{"block too small", Config{Radius: 2, BlockSize: 4}, "c.tbf"},
		{"output is source", Config{Radius: 2}, "src.tbf"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Regenerate(testContext(), tc.cfg, src, filepath.Join(dir, tc.out))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	if _, err := Regenerate(testContext(), Config{Radius: 1}, filepath.Join(dir, "missing.tbf"), filepath.Join(dir, "d.tbf")); err == nil {
		t.Fatalf("expected error for missing source")
	}
}

func TestAnalyzerLemmaOverrides(t *testing.T) {
	t.Parallel()

	cfg := testConfig("/data")
	cfg.LemmaOverrides = map[string]string{"films": "cinema"}
	got := cfg.Analyzer().Analyze("Great films")
	if !slices.Equal(got, []string{"great", "cinema"}) {
		t.Fatalf("unexpected tokens: %v", got)
	}
}
