package tbf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sort"
)

// TableIndexVersion is the on-disk version of the table index section payload.
const TableIndexVersion uint32 = 1

const (
	indexHeaderSize = 48
	indexEntrySize  = 40
)

// TableIndexHeader describes the on-disk layout of the table index section.
// Offsets are relative to the start of the section payload.
type TableIndexHeader struct {
	Version     uint32
	Flags       uint32
	TableCount  uint32
	DimsCount   uint32 // total number of uint64 dims in the dims table
	EntriesOff  uint64
	DimsOff     uint64
	StringsOff  uint64
	StringsSize uint64
}

// Table index flags.
const (
	// TableIndexFlagSortedByName means entries are sorted by raw name bytes
	// ascending, so Find can binary search.
	TableIndexFlagSortedByName uint32 = 1 << 0
)

// DType identifies the element encoding of a table.
// Keep these stable forever; add new values only.
type DType uint32

const (
	DTypeUnknown DType = iota
	DTypeI32
	DTypeI64
	DTypeU8
)

func (d DType) String() string {
	switch d {
	case DTypeI32:
		return "i32"
	case DTypeI64:
		return "i64"
	case DTypeU8:
		return "u8"
	default:
		return "unknown"
	}
}

// ElemSize is the byte width of one element, or 0 for unknown types.
func (d DType) ElemSize() int {
	switch d {
	case DTypeI32:
		return 4
	case DTypeI64:
		return 8
	case DTypeU8:
		return 1
	default:
		return 0
	}
}

// TableIndexEntry is the on-disk fixed-size record for a table.
// DataOff is an absolute file offset, not section-relative.
type TableIndexEntry struct {
	NameOff  uint32
	NameLen  uint32
	DType    DType
	Rank     uint32
	DimOff   uint32
	DataOff  uint64
	DataSize uint64
}

// TableIndex is a parsed view over a table index section payload.
type TableIndex struct {
	raw []byte
	hdr TableIndexHeader
}

// TableRecord is the input to EncodeTableIndexSection.
type TableRecord struct {
	Name     string
	DType    DType
	Shape    []uint64
	DataOff  uint64
	DataSize uint64
}

// ParseTableIndexSection validates and returns a view over a table index payload.
func ParseTableIndexSection(sec []byte) (*TableIndex, error) {
	if len(sec) < indexHeaderSize {
		return nil, ErrCorruptFile
	}
	h := TableIndexHeader{
		Version:     binary.LittleEndian.Uint32(sec[0:4]),
		Flags:       binary.LittleEndian.Uint32(sec[4:8]),
		TableCount:  binary.LittleEndian.Uint32(sec[8:12]),
		DimsCount:   binary.LittleEndian.Uint32(sec[12:16]),
		EntriesOff:  binary.LittleEndian.Uint64(sec[16:24]),
		DimsOff:     binary.LittleEndian.Uint64(sec[24:32]),
		StringsOff:  binary.LittleEndian.Uint64(sec[32:40]),
		StringsSize: binary.LittleEndian.Uint64(sec[40:48]),
	}
	if h.Version != TableIndexVersion {
		return nil, ErrUnsupportedIndex
	}
	if h.TableCount == 0 {
		return nil, ErrCorruptFile
	}

	secLen := uint64(len(sec))
	if h.EntriesOff > secLen || h.DimsOff > secLen || h.StringsOff > secLen ||
		h.EntriesOff+uint64(h.TableCount)*indexEntrySize > secLen ||
		h.DimsOff+uint64(h.DimsCount)*8 > secLen ||
		h.StringsOff+h.StringsSize > secLen {
		return nil, ErrCorruptFile
	}

	ti := &TableIndex{raw: sec, hdr: h}
	for i := range int(h.TableCount) {
		e, err := ti.Entry(i)
		if err != nil {
			return nil, err
		}
		if uint64(e.NameOff)+uint64(e.NameLen) > h.StringsSize {
			return nil, ErrCorruptFile
		}
		if uint64(e.DimOff)+uint64(e.Rank) > uint64(h.DimsCount) {
			return nil, ErrCorruptFile
		}
	}
	return ti, nil
}

func (ti *TableIndex) Count() int {
	return int(ti.hdr.TableCount)
}

func (ti *TableIndex) Entry(i int) (TableIndexEntry, error) {
	if i < 0 || i >= int(ti.hdr.TableCount) {
		return TableIndexEntry{}, ErrCorruptFile
	}
	base := ti.hdr.EntriesOff + uint64(i)*indexEntrySize
	b := ti.raw[base : base+indexEntrySize]
	return TableIndexEntry{
		NameOff:  binary.LittleEndian.Uint32(b[0:4]),
		NameLen:  binary.LittleEndian.Uint32(b[4:8]),
		DType:    DType(binary.LittleEndian.Uint32(b[8:12])),
		Rank:     binary.LittleEndian.Uint32(b[12:16]),
		DimOff:   binary.LittleEndian.Uint32(b[16:20]),
		DataOff:  binary.LittleEndian.Uint64(b[24:32]),
		DataSize: binary.LittleEndian.Uint64(b[32:40]),
	}, nil
}

func (ti *TableIndex) nameBytes(i int) ([]byte, error) {
	e, err := ti.Entry(i)
	if err != nil {
		return nil, err
	}
	off := ti.hdr.StringsOff + uint64(e.NameOff)
	return ti.raw[off : off+uint64(e.NameLen)], nil
}

func (ti *TableIndex) Name(i int) (string, error) {
	b, err := ti.nameBytes(i)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (ti *TableIndex) Shape(i int) ([]uint64, error) {
	e, err := ti.Entry(i)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, e.Rank)
	for d := range out {
		base := ti.hdr.DimsOff + (uint64(e.DimOff)+uint64(d))*8
		out[d] = binary.LittleEndian.Uint64(ti.raw[base : base+8])
	}
	return out, nil
}

// Find returns the entry index for the given table name.
func (ti *TableIndex) Find(name string) (int, bool) {
	if ti == nil {
		return -1, false
	}
	key := []byte(name)
	n := ti.Count()
	if ti.hdr.Flags&TableIndexFlagSortedByName != 0 {
		i := sort.Search(n, func(i int) bool {
			nb, err := ti.nameBytes(i)
			return err != nil || bytes.Compare(nb, key) >= 0
		})
		if i < n {
			if nb, err := ti.nameBytes(i); err == nil && bytes.Equal(nb, key) {
				return i, true
			}
		}
		return -1, false
	}
	for i := range n {
		if nb, err := ti.nameBytes(i); err == nil && bytes.Equal(nb, key) {
			return i, true
		}
	}
	return -1, false
}

// TableData returns a zero-copy view of the table payload bytes.
func (ti *TableIndex) TableData(f *File, i int) ([]byte, error) {
	if f == nil || f.Data == nil {
		return nil, ErrCorruptFile
	}
	e, err := ti.Entry(i)
	if err != nil {
		return nil, err
	}
	end := e.DataOff + e.DataSize
	if end < e.DataOff || end > uint64(len(f.Data)) {
		return nil, ErrCorruptFile
	}
	return f.Data[e.DataOff:end], nil
}

// EncodeTableIndexSection builds a table index payload. Records are sorted
// by name and the sorted flag is set.
func EncodeTableIndexSection(records []TableRecord) ([]byte, error) {
	if len(records) == 0 {
		return nil, errors.New("tbf: table index requires at least one record")
	}
	recs := append([]TableRecord(nil), records...)
	sort.Slice(recs, func(i, j int) bool { return recs[i].Name < recs[j].Name })

	var (
		dims    []uint64
		strs    []byte
		entries = make([]TableIndexEntry, 0, len(recs))
	)
	for i, r := range recs {
		if r.Name == "" {
			return nil, errors.New("tbf: table name must be non-empty")
		}
		if i > 0 && recs[i-1].Name == r.Name {
			return nil, errors.New("tbf: duplicate table name " + r.Name)
		}
		entries = append(entries, TableIndexEntry{
			NameOff:  uint32(len(strs)),
			NameLen:  uint32(len(r.Name)),
			DType:    r.DType,
			Rank:     uint32(len(r.Shape)),
			DimOff:   uint32(len(dims)),
			DataOff:  r.DataOff,
			DataSize: r.DataSize,
		})
		strs = append(strs, r.Name...)
		dims = append(dims, r.Shape...)
	}

	hdr := TableIndexHeader{
		Version:    TableIndexVersion,
		Flags:      TableIndexFlagSortedByName,
		TableCount: uint32(len(entries)),
		DimsCount:  uint32(len(dims)),
		EntriesOff: indexHeaderSize,
	}
	hdr.DimsOff = hdr.EntriesOff + indexEntrySize*uint64(len(entries))
	hdr.StringsOff = hdr.DimsOff + uint64(len(dims))*8
	hdr.StringsSize = uint64(len(strs))

	out := make([]byte, int(hdr.StringsOff+hdr.StringsSize))
	binary.LittleEndian.PutUint32(out[0:4], hdr.Version)
	binary.LittleEndian.PutUint32(out[4:8], hdr.Flags)
	binary.LittleEndian.PutUint32(out[8:12], hdr.TableCount)
	binary.LittleEndian.PutUint32(out[12:16], hdr.DimsCount)
	binary.LittleEndian.PutUint64(out[16:24], hdr.EntriesOff)
	binary.LittleEndian.PutUint64(out[24:32], hdr.DimsOff)
	binary.LittleEndian.PutUint64(out[32:40], hdr.StringsOff)
	binary.LittleEndian.PutUint64(out[40:48], hdr.StringsSize)

	ep := int(hdr.EntriesOff)
	for _, e := range entries {
		binary.LittleEndian.PutUint32(out[ep+0:ep+4], e.NameOff)
		binary.LittleEndian.PutUint32(out[ep+4:ep+8], e.NameLen)
		binary.LittleEndian.PutUint32(out[ep+8:ep+12], uint32(e.DType))
		binary.LittleEndian.PutUint32(out[ep+12:ep+16], e.Rank)
		binary.LittleEndian.PutUint32(out[ep+16:ep+20], e.DimOff)
		// ep+20..ep+24 reserved
		binary.LittleEndian.PutUint64(out[ep+24:ep+32], e.DataOff)
		binary.LittleEndian.PutUint64(out[ep+32:ep+40], e.DataSize)
		ep += indexEntrySize
	}
	dp := int(hdr.DimsOff)
	for _, d := range dims {
		binary.LittleEndian.PutUint64(out[dp:dp+8], d)
		dp += 8
	}
	copy(out[hdr.StringsOff:], strs)
	return out, nil
}

// AppendInt32s appends the little-endian encoding of vals to dst.
func AppendInt32s(dst []byte, vals []int32) []byte {
	for _, v := range vals {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(v))
	}
	return dst
}

// DecodeInt32s fills dst from little-endian raw bytes and returns the number
// of values decoded.
func DecodeInt32s(dst []int32, raw []byte) int {
	n := min(len(dst), len(raw)/4)
	for i := range n {
		dst[i] = int32(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return n
}
