package tablestore

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/goccy/go-json"

	"github.com/samcharles93/embedprep/internal/vocab"
	"github.com/samcharles93/embedprep/internal/window"
	"github.com/samcharles93/embedprep/pkg/tbf"
)

var (
	ErrTableNotFound = errors.New("tablestore: table not found")
	ErrNoVocabulary  = errors.New("tablestore: file has no vocabulary")
	ErrNoManifest    = errors.New("tablestore: file has no manifest")
)

// File is an opened table file. Table views returned by it are valid until
// Close.
type File struct {
	file     *tbf.File
	index    *tbf.TableIndex
	dataSect *tbf.Section
}

type TableInfo struct {
	Name     string
	DType    tbf.DType
	Shape    []int
	DataOff  uint64
	DataSize uint64
}

// Elements is the product of the shape, or 0 when it does not fit an int.
func (i TableInfo) Elements() int {
	n, _ := elements(i.Shape)
	return n
}

func elements(shape []int) (int, bool) {
	n := 1
	for _, d := range shape {
		if d != 0 && n > math.MaxInt/d {
			return 0, false
		}
		n *= d
	}
	return n, true
}

func Open(path string) (*File, error) {
	tf, err := tbf.Open(path)
	if err != nil {
		return nil, err
	}
	return newFile(tf)
}

// OpenReaderAt loads a table file without mapping it.
func OpenReaderAt(r io.ReaderAt, size int64) (*File, error) {
	tf, err := tbf.OpenReaderAt(r, size)
	if err != nil {
		return nil, err
	}
	return newFile(tf)
}

func newFile(tf *tbf.File) (*File, error) {
	cleanup := func(err error) (*File, error) {
		_ = tf.Close()
		return nil, err
	}

	indexSec := tf.Section(tbf.SectionTableIndex)
	if indexSec == nil {
		return cleanup(errors.New("tbf: missing table index section"))
	}
	indexData := tf.SectionData(indexSec)
	if len(indexData) == 0 {
		return cleanup(errors.New("tbf: empty table index section"))
	}
	index, err := tbf.ParseTableIndexSection(indexData)
	if err != nil {
		return cleanup(err)
	}

	dataSec := tf.Section(tbf.SectionTableData)
	if dataSec == nil {
		return cleanup(errors.New("tbf: missing table data section"))
	}

	return &File{file: tf, index: index, dataSect: dataSec}, nil
}

func (f *File) Close() error {
	if f == nil || f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	f.index = nil
	f.dataSect = nil
	return err
}

// Container exposes the underlying container for inspection.
func (f *File) Container() *tbf.File {
	if f == nil {
		return nil
	}
	return f.file
}

// TableNames lists tables in index order.
func (f *File) TableNames() []string {
	if f == nil || f.index == nil {
		return nil
	}
	out := make([]string, 0, f.index.Count())
	for i := range f.index.Count() {
		if name, err := f.index.Name(i); err == nil {
			out = append(out, name)
		}
	}
	return out
}

func (f *File) Table(name string) (TableInfo, error) {
	if f == nil || f.index == nil {
		return TableInfo{}, ErrTableNotFound
	}
	idx, ok := f.index.Find(name)
	if !ok {
		return TableInfo{}, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	entry, err := f.index.Entry(idx)
	if err != nil {
		return TableInfo{}, err
	}
	shapeU64, err := f.index.Shape(idx)
	if err != nil {
		return TableInfo{}, err
	}
	shape, err := shapeToInt(shapeU64)
	if err != nil {
		return TableInfo{}, fmt.Errorf("table %s: %w", name, err)
	}
	info := TableInfo{
		Name:     name,
		DType:    entry.DType,
		Shape:    shape,
		DataOff:  entry.DataOff,
		DataSize: entry.DataSize,
	}
	if err := f.validateTableRange(info.DataOff, info.DataSize); err != nil {
		return TableInfo{}, fmt.Errorf("table %s: %w", name, err)
	}
	if info.DType != tbf.DTypeI32 {
		return TableInfo{}, fmt.Errorf("table %s: unsupported dtype %s", name, info.DType)
	}
	n, ok := elements(info.Shape)
	if !ok {
		return TableInfo{}, fmt.Errorf("table %s: shape %v overflows", name, info.Shape)
	}
	if info.DataSize%4 != 0 || info.DataSize/4 != uint64(n) {
		return TableInfo{}, fmt.Errorf("table %s: invalid i32 data size", name)
	}
	return info, nil
}

// tableBytes returns the raw little-endian payload of an i32 table.
func (f *File) tableBytes(name string) ([]byte, TableInfo, error) {
	info, err := f.Table(name)
	if err != nil {
		return nil, TableInfo{}, err
	}
	raw := f.file.Data[info.DataOff : info.DataOff+info.DataSize]
	return raw, info, nil
}

// ReadI32 copies a table into a new slice.
func (f *File) ReadI32(name string) ([]int32, TableInfo, error) {
	raw, info, err := f.tableBytes(name)
	if err != nil {
		return nil, TableInfo{}, err
	}
	out := make([]int32, info.Elements())
	tbf.DecodeInt32s(out, raw)
	return out, info, nil
}

// Samples reads the CBOW and skip-gram tables back into memory.
func (f *File) Samples() (*window.Tables, error) {
	cbow, cinfo, err := f.ReadI32(TableCBOW)
	if err != nil {
		return nil, err
	}
	skip, sinfo, err := f.ReadI32(TableSkipGram)
	if err != nil {
		return nil, err
	}
	if len(cinfo.Shape) != 2 || cinfo.Shape[1] < 3 || cinfo.Shape[1]%2 == 0 {
		return nil, fmt.Errorf("table %s: invalid shape %v", TableCBOW, cinfo.Shape)
	}
	if len(sinfo.Shape) != 2 || sinfo.Shape[1] != 2 {
		return nil, fmt.Errorf("table %s: invalid shape %v", TableSkipGram, sinfo.Shape)
	}
	radius := (cinfo.Shape[1] - 1) / 2
	if sinfo.Shape[0] != cinfo.Shape[0]*2*radius {
		return nil, fmt.Errorf("tablestore: skip-gram rows %d do not match %d cbow rows", sinfo.Shape[0], cinfo.Shape[0])
	}
	return &window.Tables{Radius: radius, CBOW: cbow, SkipGram: skip}, nil
}

func (f *File) Vocab() (*vocab.Vocabulary, error) {
	raw := f.sectionData(tbf.SectionVocabJSON)
	if raw == nil {
		return nil, ErrNoVocabulary
	}
	return vocab.Decode(raw)
}

func (f *File) Manifest() (Manifest, error) {
	raw := f.sectionData(tbf.SectionManifest)
	if raw == nil {
		return Manifest{}, ErrNoManifest
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return Manifest{}, fmt.Errorf("tablestore: parse manifest: %w", err)
	}
	return m, nil
}

// TokenSequence serves a one-dimensional table as a window.Sequence, decoding
// straight from the file's data.
func (f *File) TokenSequence(name string) (*TokenSequence, error) {
	raw, info, err := f.tableBytes(name)
	if err != nil {
		return nil, err
	}
	if len(info.Shape) != 1 {
		return nil, fmt.Errorf("table %s: expected rank 1, got shape %v", name, info.Shape)
	}
	return &TokenSequence{raw: raw, n: info.Shape[0]}, nil
}

func (f *File) sectionData(t tbf.SectionType) []byte {
	if f == nil || f.file == nil {
		return nil
	}
	return f.file.SectionData(f.file.Section(t))
}

func (f *File) validateTableRange(off, size uint64) error {
	if f == nil || f.dataSect == nil {
		return errors.New("tbf: missing table data section")
	}
	end := off + size
	if end < off {
		return errors.New("tbf: table data offset overflow")
	}
	if off < f.dataSect.Offset || end > f.dataSect.End() {
		return errors.New("tbf: table data out of bounds")
	}
	return nil
}

// TokenSequence is a window.Sequence over an int32 table.
type TokenSequence struct {
	raw []byte
	n   int
}

var _ window.Sequence = (*TokenSequence)(nil)

func (s *TokenSequence) Len() int { return s.n }

func (s *TokenSequence) ReadAt(dst []int32, off int) (int, error) {
	if off < 0 || off > s.n {
		return 0, io.EOF
	}
	n := tbf.DecodeInt32s(dst, s.raw[off*4:])
	if n < len(dst) {
		return n, io.EOF
	}
	return n, nil
}

func shapeToInt(shape []uint64) ([]int, error) {
	if len(shape) == 0 {
		return nil, errors.New("empty shape")
	}
	out := make([]int, len(shape))
	for i, v := range shape {
		if v > uint64(int(^uint(0)>>2)) {
			return nil, errors.New("dimension too large")
		}
		out[i] = int(v)
	}
	return out, nil
}
