package tablestore

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/samcharles93/embedprep/internal/vocab"
	"github.com/samcharles93/embedprep/internal/window"
	"github.com/samcharles93/embedprep/pkg/tbf"
)

func writeTestBundle(t *testing.T, tokens []int32, radius int, v *vocab.Vocabulary) string {
	t.Helper()
	tables, err := window.Generate(tokens, radius)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	m := NewManifest(radius)
	m.SourceRoot = "/data/reviews"
	m.Documents = map[string]int{"train": 3, "test": 2}
	m.Skipped = 1

	path := filepath.Join(t.TempDir(), "out", "corpus.tbf")
	if err := Write(path, Bundle{Tokens: tokens, Tables: tables, Vocab: v, Manifest: m}); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestWriteOpenRoundTrip(t *testing.T) {
	t.Parallel()

	v, err := vocab.New([]string{vocab.Fallback, "movie", "great", "love", "story"})
	if err != nil {
		t.Fatalf("vocab: %v", err)
	}
	tokens := []int32{1, 2, 3, 4, 0, 1, 2}
	path := writeTestBundle(t, tokens, 2, v)

	f, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			t.Fatalf("close: %v", cerr)
		}
	}()

	if flags := f.Container().Header.Flags; flags&tbf.FlagTableDataAligned64 == 0 {
		t.Fatalf("expected aligned flag, got %#x", flags)
	}
	if got := f.TableNames(); !slices.Equal(got, []string{"cbow", "skipgram", "tokens"}) {
		t.Fatalf("unexpected table names: %v", got)
	}

	info, err := f.Table(TableCBOW)
	if err != nil {
		t.Fatalf("cbow info: %v", err)
	}
	if !slices.Equal(info.Shape, []int{3, 5}) {
		t.Fatalf("cbow shape: got %v want [3 5]", info.Shape)
	}
	if info.DataOff%64 != 0 {
		t.Fatalf("cbow data not 64-byte aligned: offset %d", info.DataOff)
	}

	gotTokens, _, err := f.ReadI32(TableTokens)
	if err != nil {
		t.Fatalf("read tokens: %v", err)
	}
	if !slices.Equal(gotTokens, tokens) {
		t.Fatalf("tokens mismatch: got %v want %v", gotTokens, tokens)
	}

	want, _ := window.Generate(tokens, 2)
	got, err := f.Samples()
	if err != nil {
		t.Fatalf("samples: %v", err)
	}
	if got.Radius != 2 || !slices.Equal(got.CBOW, want.CBOW) || !slices.Equal(got.SkipGram, want.SkipGram) {
		t.Fatalf("samples mismatch: got %+v want %+v", got, want)
	}

	gotVocab, err := f.Vocab()
	if err != nil {
		t.Fatalf("vocab: %v", err)
	}
	if !slices.Equal(gotVocab.Tokens(), v.Tokens()) {
		t.Fatalf("vocab mismatch: got %v want %v", gotVocab.Tokens(), v.Tokens())
	}

	m, err := f.Manifest()
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if m.RunID == "" || m.Radius != 2 || m.Tokens != 7 || m.CBOWRows != 3 || m.SkipGrams != 12 {
		t.Fatalf("unexpected manifest: %+v", m)
	}
	if m.VocabSize != v.Len() || m.TotalDocuments() != 5 || m.Skipped != 1 {
		t.Fatalf("unexpected manifest counts: %+v", m)
	}
}

func TestWriteWithoutVocabulary(t *testing.T) {
	t.Parallel()

	path := writeTestBundle(t, []int32{5, 6}, 1, nil)
	f, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Vocab(); !errors.Is(err, ErrNoVocabulary) {
		t.Fatalf("expected ErrNoVocabulary, got %v", err)
	}
	samples, err := f.Samples()
	if err != nil {
		t.Fatalf("samples: %v", err)
	}
	if !samples.Empty() || samples.Radius != 1 {
		t.Fatalf("expected empty radius-1 tables, got %+v", samples)
	}
}

func TestTokenSequenceFeedsGenerator(t *testing.T) {
	t.Parallel()

	tokens := make([]int32, 200)
	for i := range tokens {
		tokens[i] = int32(i % 17)
	}
	path := writeTestBundle(t, tokens, 3, nil)

	f, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = f.Close() }()

	seq, err := f.TokenSequence(TableTokens)
	if err != nil {
		t.Fatalf("token sequence: %v", err)
	}
	if seq.Len() != len(tokens) {
		t.Fatalf("length mismatch: got %d want %d", seq.Len(), len(tokens))
	}
	got, err := window.Generator{Radius: 3}.CollectSequence(t.Context(), seq, 32)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	want, _ := window.Generate(tokens, 3)
	if !slices.Equal(got.CBOW, want.CBOW) || !slices.Equal(got.SkipGram, want.SkipGram) {
		t.Fatalf("sequence-driven tables differ from in-memory tables")
	}

	if _, err := f.TokenSequence(TableCBOW); err == nil {
		t.Fatalf("expected rank error for cbow table")
	}
}

func TestTableMissing(t *testing.T) {
	t.Parallel()

	path := writeTestBundle(t, []int32{1, 2, 3}, 1, nil)
	f, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Table("missing"); !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
}

func TestOpenReaderAt(t *testing.T) {
	t.Parallel()

	path := writeTestBundle(t, []int32{1, 2, 3, 4}, 1, nil)
	rf, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = rf.Close() }()
	st, err := rf.Stat()
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	f, err := OpenReaderAt(rf, st.Size())
	if err != nil {
		t.Fatalf("open readerat: %v", err)
	}
	defer func() { _ = f.Close() }()
	if f.Container().Mapped() {
		t.Fatalf("expected unmapped file")
	}
	got, _, err := f.ReadI32(TableSkipGram)
	if err != nil {
		t.Fatalf("read skipgram: %v", err)
	}
	want := []int32{2, 1, 2, 3, 3, 2, 3, 4}
	if !slices.Equal(got, want) {
		t.Fatalf("skipgram mismatch: got %v want %v", got, want)
	}
}

func TestWriteRejectsMissingTables(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "x.tbf")
	if err := Write(path, Bundle{Tokens: []int32{1}}); err == nil {
		t.Fatalf("expected error for bundle without tables")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no file to be created, stat err=%v", err)
	}
}

func TestWriteRejectsOversizedRadius(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "x.tbf")
	tables := &window.Tables{Radius: MaxRadius + 1}
	if err := Write(path, Bundle{Tokens: []int32{1}, Tables: tables}); err == nil {
		t.Fatalf("expected error for radius %d", tables.Radius)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no file to be created, stat err=%v", err)
	}
}

func TestTableRejectsOverflowingShape(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "overflow.tbf")
	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	w, err := tbf.NewWriter(out)
	if err != nil {
		t.Fatalf("writer: %v", err)
	}
	sw, err := w.BeginSection(tbf.SectionTableData, 1)
	if err != nil {
		t.Fatalf("begin data: %v", err)
	}
	off, err := sw.CurrentAbsOffset()
	if err != nil {
		t.Fatalf("offset: %v", err)
	}
	if _, err := sw.Write(make([]byte, 64)); err != nil {
		t.Fatalf("write data: %v", err)
	}
	if err := sw.End(); err != nil {
		t.Fatalf("end data: %v", err)
	}
	// 2^93 elements wrap to zero in 64-bit arithmetic, matching DataSize 0.
	index, err := tbf.EncodeTableIndexSection([]tbf.TableRecord{{
		Name:    TableCBOW,
		DType:   tbf.DTypeI32,
		Shape:   []uint64{1 << 31, 1 << 31, 1 << 31},
		DataOff: off,
	}})
	if err != nil {
		t.Fatalf("encode index: %v", err)
	}
	if err := w.WriteSection(tbf.SectionTableIndex, tbf.TableIndexVersion, index); err != nil {
		t.Fatalf("write index: %v", err)
	}
	if err := w.Finalise(); err != nil {
		t.Fatalf("finalise: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.Table(TableCBOW); err == nil {
		t.Fatalf("expected error for overflowing shape")
	}
	if _, _, err := f.ReadI32(TableCBOW); err == nil {
		t.Fatalf("expected read to fail for overflowing shape")
	}
}

func TestManifestTotalDocuments(t *testing.T) {
	t.Parallel()

	m := NewManifest(2)
	if m.TotalDocuments() != 0 {
		t.Fatalf("expected 0 documents, got %d", m.TotalDocuments())
	}
	m.Documents = map[string]int{"train": 3, "test": 4}
	if m.TotalDocuments() != 7 {
		t.Fatalf("expected 7 documents, got %d", m.TotalDocuments())
	}
}
