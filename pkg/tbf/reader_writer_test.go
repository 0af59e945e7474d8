package tbf

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func writeTestFile(t *testing.T, sections map[SectionType][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.tbf")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	w, err := NewWriter(f)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	for typ, data := range sections {
		if err := w.WriteSection(typ, 1, data); err != nil {
			t.Fatalf("write section %s: %v", typ, err)
		}
	}
	if err := w.Finalise(); err != nil {
		t.Fatalf("finalise: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close writer file: %v", err)
	}
	return path
}

func TestOpenReaderAtRoundTrip(t *testing.T) {
	t.Parallel()

	path := writeTestFile(t, map[SectionType][]byte{
		SectionManifest:  []byte(`{"radius":2}`),
		SectionTableData: {1, 2, 3, 4, 5, 6},
	})

	rf, err := os.Open(path)
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	defer func() { _ = rf.Close() }()

	st, err := rf.Stat()
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	tf, err := OpenReaderAt(rf, st.Size())
	if err != nil {
		t.Fatalf("open readerat: %v", err)
	}
	defer func() {
		if cerr := tf.Close(); cerr != nil {
			t.Fatalf("close tbf file: %v", cerr)
		}
	}()

	if tf.Mapped() {
		t.Fatalf("OpenReaderAt should not mmap")
	}
	if tf.Header.HeaderSize != headerSize {
		t.Fatalf("header size mismatch: got %d want %d", tf.Header.HeaderSize, headerSize)
	}
	got := tf.SectionData(tf.Section(SectionManifest))
	if !bytes.Equal(got, []byte(`{"radius":2}`)) {
		t.Fatalf("manifest mismatch: got %q", string(got))
	}
	if tf.Section(SectionVocabJSON) != nil {
		t.Fatalf("expected missing vocab section")
	}
	// Directory is sorted by section type.
	if tf.Sections[0].Type != uint32(SectionTableData) {
		t.Fatalf("unexpected directory order: %+v", tf.Sections)
	}
}

func TestOpenMapsFile(t *testing.T) {
	t.Parallel()

	path := writeTestFile(t, map[SectionType][]byte{SectionVocabJSON: []byte("[]")})
	tf, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = tf.Close() }()
	if got := tf.SectionData(tf.Section(SectionVocabJSON)); string(got) != "[]" {
		t.Fatalf("vocab section mismatch: %q", got)
	}
}

func TestOpenRejectsCorruptFiles(t *testing.T) {
	t.Parallel()

	path := writeTestFile(t, map[SectionType][]byte{SectionManifest: []byte("{}")})
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	badMagic := append([]byte(nil), raw...)
	badMagic[0] = 'X'
	if _, err := OpenReaderAt(bytes.NewReader(badMagic), int64(len(badMagic))); !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("expected ErrInvalidMagic, got %v", err)
	}

	truncated := raw[:len(raw)-4]
	if _, err := OpenReaderAt(bytes.NewReader(truncated), int64(len(truncated))); !errors.Is(err, ErrCorruptFile) {
		t.Fatalf("expected ErrCorruptFile, got %v", err)
	}

	badMajor := append([]byte(nil), raw...)
	badMajor[4] = 9
	if _, err := OpenReaderAt(bytes.NewReader(badMajor), int64(len(badMajor))); !errors.Is(err, ErrUnsupportedMajor) {
		t.Fatalf("expected ErrUnsupportedMajor, got %v", err)
	}
}

func TestWriterRejectsMisuse(t *testing.T) {
	t.Parallel()

	f, err := os.Create(filepath.Join(t.TempDir(), "x.tbf"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer func() { _ = f.Close() }()
	w, err := NewWriter(f)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	sw, err := w.BeginSection(SectionTableData, 1)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := w.WriteSection(SectionManifest, 1, nil); err == nil {
		t.Fatalf("expected error while a section is open")
	}
	if err := sw.End(); err != nil {
		t.Fatalf("end: %v", err)
	}
	if _, err := sw.Write([]byte{1}); err == nil {
		t.Fatalf("expected error writing to an ended section")
	}
	if err := w.WriteSection(SectionTableData, 1, nil); err == nil {
		t.Fatalf("expected duplicate section error")
	}
	if err := w.Finalise(); err != nil {
		t.Fatalf("finalise: %v", err)
	}
	if err := w.Finalise(); err == nil {
		t.Fatalf("expected error on second finalise")
	}
}

func TestHeaderAndSectionEncodingLittleEndian(t *testing.T) {
	t.Parallel()

	h := Header{
		Magic:            [4]byte{'T', 'B', 'F', 0},
		Major:            0x1122,
		Minor:            0x3344,
		HeaderSize:       headerSize,
		SectionCount:     7,
		SectionDirOffset: 0x0102030405060708,
		FileSize:         0x1112131415161718,
		Flags:            0x2122232425262728,
	}
	var hdrRaw [headerSize]byte
	if !encodeHeader(hdrRaw[:], h) {
		t.Fatalf("encode header failed")
	}
	if hdrRaw[4] != 0x22 || hdrRaw[5] != 0x11 {
		t.Fatalf("major is not little-endian: %x", hdrRaw[4:6])
	}
	if hdrRaw[16] != 0x08 || hdrRaw[23] != 0x01 {
		t.Fatalf("section dir offset is not little-endian: %x", hdrRaw[16:24])
	}
	decodedH, ok := decodeHeader(hdrRaw[:])
	if !ok || decodedH != h {
		t.Fatalf("header round-trip mismatch: got %+v want %+v", decodedH, h)
	}

	s := Section{Type: 0x11223344, Version: 0x55667788, Offset: 0x0102030405060708, Size: 0x1112131415161718}
	var secRaw [sectionSize]byte
	if !encodeSection(secRaw[:], s) {
		t.Fatalf("encode section failed")
	}
	if secRaw[0] != 0x44 || secRaw[3] != 0x11 {
		t.Fatalf("section type is not little-endian: %x", secRaw[0:4])
	}
	decodedS, ok := decodeSection(secRaw[:])
	if !ok || decodedS != s {
		t.Fatalf("section round-trip mismatch: got %+v want %+v", decodedS, s)
	}
}

func TestTableIndexEncodeParseFind(t *testing.T) {
	t.Parallel()

	raw, err := EncodeTableIndexSection([]TableRecord{
		{Name: "skipgram", DType: DTypeI32, Shape: []uint64{12, 2}, DataOff: 128, DataSize: 96},
		{Name: "cbow", DType: DTypeI32, Shape: []uint64{3, 5}, DataOff: 64, DataSize: 60},
		{Name: "tokens", DType: DTypeI32, Shape: []uint64{7}, DataOff: 256, DataSize: 28},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	idx, err := ParseTableIndexSection(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if idx.Count() != 3 {
		t.Fatalf("expected 3 tables, got %d", idx.Count())
	}
	i, ok := idx.Find("skipgram")
	if !ok {
		t.Fatalf("skipgram not found")
	}
	name, _ := idx.Name(i)
	shape, _ := idx.Shape(i)
	entry, _ := idx.Entry(i)
	if name != "skipgram" || !slices.Equal(shape, []uint64{12, 2}) || entry.DataOff != 128 || entry.DType != DTypeI32 {
		t.Fatalf("unexpected entry: name=%s shape=%v entry=%+v", name, shape, entry)
	}
	if first, _ := idx.Name(0); first != "cbow" {
		t.Fatalf("expected sorted names, first=%s", first)
	}
	if _, ok := idx.Find("missing"); ok {
		t.Fatalf("unexpected match for missing table")
	}
}

func TestTableIndexRejectsBadInput(t *testing.T) {
	t.Parallel()

	if _, err := EncodeTableIndexSection(nil); err == nil {
		t.Fatalf("expected error for empty records")
	}
	if _, err := EncodeTableIndexSection([]TableRecord{{Name: "a"}, {Name: "a"}}); err == nil {
		t.Fatalf("expected error for duplicate names")
	}
	if _, err := ParseTableIndexSection(make([]byte, 10)); !errors.Is(err, ErrCorruptFile) {
		t.Fatalf("expected ErrCorruptFile, got %v", err)
	}
}

func TestInt32Encoding(t *testing.T) {
	t.Parallel()

	vals := []int32{0, 1, -1, 1 << 30, -(1 << 31)}
	raw := AppendInt32s(nil, vals)
	if len(raw) != 20 {
		t.Fatalf("expected 20 bytes, got %d", len(raw))
	}
	out := make([]int32, len(vals))
	if n := DecodeInt32s(out, raw); n != len(vals) || !slices.Equal(out, vals) {
		t.Fatalf("decode mismatch: n=%d out=%v", n, out)
	}
}
