package vocab

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// FormatVersion is written into every saved vocabulary.
const FormatVersion = 1

type fileJSON struct {
	Version  int      `json:"version"`
	Fallback string   `json:"fallback"`
	Tokens   []string `json:"tokens"`
}

// MarshalJSON encodes the vocabulary in the on-disk format.
func (v *Vocabulary) MarshalJSON() ([]byte, error) {
	return json.Marshal(fileJSON{
		Version:  FormatVersion,
		Fallback: Fallback,
		Tokens:   v.tokens,
	})
}

// Decode parses a vocabulary previously produced by MarshalJSON.
func Decode(raw []byte) (*Vocabulary, error) {
	var f fileJSON
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse vocab json: %w", err)
	}
	if f.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported vocab version %d", f.Version)
	}
	if f.Fallback != "" && f.Fallback != Fallback {
		return nil, fmt.Errorf("unsupported fallback token %q", f.Fallback)
	}
	return New(f.Tokens)
}

// Save writes the vocabulary to w.
func (v *Vocabulary) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(fileJSON{
		Version:  FormatVersion,
		Fallback: Fallback,
		Tokens:   v.tokens,
	})
}

// Load reads a vocabulary from r.
func Load(r io.Reader) (*Vocabulary, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}

// SaveFile writes the vocabulary to path, creating parent directories.
func (v *Vocabulary) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := v.Save(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// LoadFile reads a vocabulary from path.
func LoadFile(path string) (*Vocabulary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	v, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}
