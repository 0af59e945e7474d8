package tbf

import "errors"

var (
	ErrInvalidMagic     = errors.New("invalid TBF magic")
	ErrUnsupportedMajor = errors.New("unsupported TBF major version")
	ErrUnsupportedIndex = errors.New("unsupported TBF table index version")
	ErrCorruptFile      = errors.New("corrupt TBF file")
	ErrTableNotFound    = errors.New("tbf: table not found")
)
