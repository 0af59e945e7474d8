package window

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minRowsPerWorker keeps tiny inputs on a single goroutine.
const minRowsPerWorker = 4096

// Generator is the configurable form of Generate. It can split the center
// range across workers and can process sequences block by block.
type Generator struct {
	// Radius is the number of context tokens on each side of a center.
	Radius int

	// VocabSize, if positive, rejects ids >= VocabSize as invalid tokens.
	VocabSize int

	// Workers bounds the number of goroutines used by Generate.
	// Zero means GOMAXPROCS.
	Workers int
}

func (g Generator) validate() error {
	if err := checkRadius(g.Radius); err != nil {
		return err
	}
	if g.VocabSize < 0 {
		return invalidArgument(fmt.Sprintf("vocabulary size must not be negative, got %d", g.VocabSize))
	}
	if g.Workers < 0 {
		return invalidArgument(fmt.Sprintf("worker count must not be negative, got %d", g.Workers))
	}
	return nil
}

func (g Generator) workers(centers int) int {
	n := g.Workers
	if n == 0 {
		n = runtime.GOMAXPROCS(0)
	}
	limit := (centers + minRowsPerWorker - 1) / minRowsPerWorker
	return max(1, min(n, limit))
}

// Generate produces the same tables as the package-level Generate. Each worker
// owns a contiguous range of center positions and writes directly into its
// slice of the output, so rows stay in ascending position order.
func (g Generator) Generate(ctx context.Context, tokens []int32) (*Tables, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	if err := validateTokens(tokens, g.VocabSize, 0); err != nil {
		return nil, err
	}

	centers := CenterCount(len(tokens), g.Radius)
	t := newTables(g.Radius, centers)
	workers := g.workers(centers)
	if workers == 1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fill(t, tokens, g.Radius, 0, centers)
		return t, nil
	}

	eg, ctx := errgroup.WithContext(ctx)
	per := (centers + workers - 1) / workers
	for from := 0; from < centers; from += per {
		to := min(from+per, centers)
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fill(t, tokens, g.Radius, from, to)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return t, nil
}

// GenerateSequence processes seq in blocks of blockSize tokens. Consecutive
// blocks overlap by 2*Radius tokens, so every center position is covered
// exactly once. emit receives each non-empty partial table in ascending
// position order; concatenating them equals Generate over the whole sequence.
func (g Generator) GenerateSequence(ctx context.Context, seq Sequence, blockSize int, emit func(*Tables) error) error {
	if err := g.validate(); err != nil {
		return err
	}
	if !FitsRadius(blockSize, g.Radius) {
		return invalidArgument(fmt.Sprintf("block size %d must exceed twice the radius %d", blockSize, g.Radius))
	}
	overlap := 2 * g.Radius
	if seq == nil || emit == nil {
		return invalidArgument("sequence and emit callback are required")
	}

	n := seq.Len()
	buf := make([]int32, min(blockSize, n))
	step := blockSize - overlap
	for start := 0; start < n; start += step {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+blockSize, n)
		block := buf[:end-start]
		if err := readFull(seq, block, start); err != nil {
			return fmt.Errorf("read tokens [%d,%d): %w", start, end, err)
		}
		if err := validateTokens(block, g.VocabSize, start); err != nil {
			return err
		}

		centers := CenterCount(len(block), g.Radius)
		if centers > 0 {
			t := newTables(g.Radius, centers)
			fill(t, block, g.Radius, 0, centers)
			if err := emit(t); err != nil {
				return err
			}
		}
		if end == n {
			break
		}
	}
	return nil
}

// CollectSequence runs GenerateSequence and concatenates the partial tables.
func (g Generator) CollectSequence(ctx context.Context, seq Sequence, blockSize int) (*Tables, error) {
	out := &Tables{Radius: g.Radius}
	err := g.GenerateSequence(ctx, seq, blockSize, func(t *Tables) error {
		return out.Append(t)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func readFull(seq Sequence, dst []int32, off int) error {
	for len(dst) > 0 {
		n, err := seq.ReadAt(dst, off)
		dst = dst[n:]
		off += n
		if err != nil {
			if errors.Is(err, io.EOF) && len(dst) == 0 {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		if n == 0 {
			return io.ErrNoProgress
		}
	}
	return nil
}
