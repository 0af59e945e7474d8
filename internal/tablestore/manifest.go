package tablestore

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/samcharles93/embedprep/internal/version"
)

// Manifest records how a table file was produced.
type Manifest struct {
	RunID      string         `json:"run_id"`
	CreatedAt  time.Time      `json:"created_at"`
	Version    string         `json:"version"`
	Radius     int            `json:"radius"`
	SourceRoot string         `json:"source_root,omitempty"`
	Splits     []string       `json:"splits,omitempty"`
	Documents  map[string]int `json:"documents,omitempty"`
	Skipped    int            `json:"skipped"`
	VocabSize  int            `json:"vocab_size"`
	Tokens     int            `json:"tokens"`
	CBOWRows   int            `json:"cbow_rows"`
	SkipGrams  int            `json:"skipgram_rows"`
	// DerivedFrom is the run id of the table file this one was re-windowed
	// from.
	DerivedFrom string `json:"derived_from,omitempty"`
}

// NewManifest returns a manifest stamped with a fresh run id.
func NewManifest(radius int) Manifest {
	return Manifest{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Version:   version.String(),
		Radius:    radius,
	}
}

// TotalDocuments sums the per-split document counts.
func (m Manifest) TotalDocuments() int {
	return lo.Sum(lo.Values(m.Documents))
}
