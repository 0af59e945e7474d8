// Package corpus reads a labelled movie-review dataset laid out as
//
//	<root>/<split>/<label>/<id>_<rating>.txt
//
// where label is pos, neg or unsup.
package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Labels in the order they are scanned within a split.
var Labels = []string{"pos", "neg", "unsup"}

// DefaultSplits are scanned when none are given.
var DefaultSplits = []string{"train", "test"}

var ErrNoDocuments = errors.New("corpus: no documents found")

// Document is one review file.
type Document struct {
	ID     int
	Split  string
	Label  string
	Rating int
	Path   string
}

// Discover lists every review file under root for the given splits in a
// deterministic order: split order as given, then label order, then numeric
// id. Missing split or label directories are ignored.
func Discover(root string, splits []string) ([]Document, error) {
	if len(splits) == 0 {
		splits = DefaultSplits
	}
	st, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("corpus: dataset root: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("corpus: dataset root %s is not a directory", root)
	}

	var docs []Document
	for _, split := range splits {
		for _, label := range Labels {
			dir := filepath.Join(root, split, label)
			entries, err := os.ReadDir(dir)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("corpus: list %s: %w", dir, err)
			}
			batch := make([]Document, 0, len(entries))
			for _, e := range entries {
				if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
					continue
				}
				id, rating, ok := ParseName(e.Name())
				if !ok {
					continue
				}
				batch = append(batch, Document{
					ID:     id,
					Split:  split,
					Label:  label,
					Rating: rating,
					Path:   filepath.Join(dir, e.Name()),
				})
			}
			slices.SortFunc(batch, func(a, b Document) int {
				if a.ID != b.ID {
					return a.ID - b.ID
				}
				return strings.Compare(a.Path, b.Path)
			})
			docs = append(docs, batch...)
		}
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w under %s", ErrNoDocuments, root)
	}
	return docs, nil
}

// ParseName extracts the id and rating from "<id>_<rating>.txt". A name
// without a rating part yields rating 0.
func ParseName(name string) (id, rating int, ok bool) {
	stem := strings.TrimSuffix(filepath.Base(name), ".txt")
	idPart, ratingPart, hasRating := strings.Cut(stem, "_")
	id, err := strconv.Atoi(idPart)
	if err != nil || id < 0 {
		return 0, 0, false
	}
	if !hasRating {
		return id, 0, true
	}
	rating, err = strconv.Atoi(ratingPart)
	if err != nil || rating < 0 {
		return 0, 0, false
	}
	return id, rating, true
}

// CountBySplit returns the number of documents per split.
func CountBySplit(docs []Document) map[string]int {
	return lo.CountValuesBy(docs, func(d Document) string { return d.Split })
}
