package tablestore

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/samcharles93/embedprep/internal/vocab"
	"github.com/samcharles93/embedprep/internal/window"
	"github.com/samcharles93/embedprep/pkg/tbf"
)

// Table names used inside the data section.
const (
	TableTokens   = "tokens"
	TableCBOW     = "cbow"
	TableSkipGram = "skipgram"
)

// MaxRadius is the largest radius whose CBOW width fits an int32 column count.
const MaxRadius = (math.MaxInt32 - 1) / 2

const (
	tableAlign = 64
	// encodeChunk bounds the scratch buffer used while streaming a table.
	encodeChunk = 1 << 16
)

// Bundle is everything persisted for one run. Vocab may be nil.
type Bundle struct {
	Tokens   []int32
	Tables   *window.Tables
	Vocab    *vocab.Vocabulary
	Manifest Manifest
}

type pendingTable struct {
	name  string
	shape []uint64
	data  []int32
}

// Write stores b at path. Row counts in the manifest are filled from the
// bundle's tables.
func Write(path string, b Bundle) (err error) {
	if b.Tables == nil {
		return errors.New("tablestore: bundle has no tables")
	}
	if b.Tables.Radius <= 0 || b.Tables.Radius > MaxRadius {
		return fmt.Errorf("tablestore: invalid radius %d", b.Tables.Radius)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	w, err := tbf.NewWriter(f)
	if err != nil {
		return err
	}
	if err := w.AddFlags(tbf.FlagTableDataAligned64); err != nil {
		return err
	}

	t := b.Tables
	tables := []pendingTable{
		{name: TableTokens, shape: []uint64{uint64(len(b.Tokens))}, data: b.Tokens},
		{name: TableCBOW, shape: []uint64{uint64(t.CBOWRows()), uint64(t.CBOWWidth())}, data: t.CBOW},
		{name: TableSkipGram, shape: []uint64{uint64(t.SkipGramRows()), 2}, data: t.SkipGram},
	}
	records, err := writeTableData(w, tables)
	if err != nil {
		return err
	}
	index, err := tbf.EncodeTableIndexSection(records)
	if err != nil {
		return err
	}
	if err := w.WriteSection(tbf.SectionTableIndex, tbf.TableIndexVersion, index); err != nil {
		return err
	}

	m := b.Manifest
	m.Radius = t.Radius
	m.Tokens = len(b.Tokens)
	m.CBOWRows = t.CBOWRows()
	m.SkipGrams = t.SkipGramRows()
	if b.Vocab != nil {
		raw, err := b.Vocab.MarshalJSON()
		if err != nil {
			return fmt.Errorf("tablestore: encode vocabulary: %w", err)
		}
		if err := w.WriteSection(tbf.SectionVocabJSON, vocab.FormatVersion, raw); err != nil {
			return err
		}
		m.VocabSize = b.Vocab.Len()
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("tablestore: encode manifest: %w", err)
	}
	if err := w.WriteSection(tbf.SectionManifest, 1, raw); err != nil {
		return err
	}
	return w.Finalise()
}

func writeTableData(w *tbf.Writer, tables []pendingTable) ([]tbf.TableRecord, error) {
	sw, err := w.BeginSection(tbf.SectionTableData, 1)
	if err != nil {
		return nil, err
	}
	records := make([]tbf.TableRecord, 0, len(tables))
	buf := make([]byte, 0, encodeChunk*4)
	for _, tbl := range tables {
		if err := sw.Align(tableAlign); err != nil {
			return nil, err
		}
		off, err := sw.CurrentAbsOffset()
		if err != nil {
			return nil, err
		}
		for data := tbl.data; len(data) > 0; {
			n := min(len(data), encodeChunk)
			buf = tbf.AppendInt32s(buf[:0], data[:n])
			if _, err := sw.Write(buf); err != nil {
				return nil, fmt.Errorf("tablestore: write %s: %w", tbl.name, err)
			}
			data = data[n:]
		}
		records = append(records, tbf.TableRecord{
			Name:     tbl.name,
			DType:    tbf.DTypeI32,
			Shape:    tbl.shape,
			DataOff:  off,
			DataSize: uint64(len(tbl.data)) * 4,
		})
	}
	if err := sw.End(); err != nil {
		return nil, err
	}
	return records, nil
}
