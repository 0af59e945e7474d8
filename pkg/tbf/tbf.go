// Package tbf implements the Table File format.
//
// A TBF file is a single-file, memory-mappable container for the numeric
// tables produced when preparing an embedding corpus (token stream, CBOW and
// skip-gram samples) plus small JSON side sections (vocabulary, run manifest).
//
// Layout: fixed 40-byte header | section payloads (8-byte aligned) | section
// directory. All integers are little-endian.
package tbf

// TBF global constants must never change.
const (
	// Magic is the file magic for all TBF containers, encoded as "TBF\0".
	Magic = "TBF\x00"

	// CurrentMajor changes only with breaking format changes.
	CurrentMajor uint16 = 1

	// CurrentMinor changes when optional sections or fields are added.
	CurrentMinor uint16 = 0

	// FlagTableDataAligned64 means every table payload starts on a 64-byte
	// boundary, so mapped data can be viewed as []int32 directly.
	FlagTableDataAligned64 uint64 = 1 << 0
)

type SectionType uint32

const (
	SectionTableIndex SectionType = 0x0001
	SectionTableData  SectionType = 0x0002
	SectionVocabJSON  SectionType = 0x0010
	SectionManifest   SectionType = 0x0011
)

func (t SectionType) String() string {
	switch t {
	case SectionTableIndex:
		return "TableIndex"
	case SectionTableData:
		return "TableData"
	case SectionVocabJSON:
		return "VocabJSON"
	case SectionManifest:
		return "Manifest"
	default:
		return "Unknown"
	}
}
