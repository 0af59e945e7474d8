package corpus

import (
	"context"
	"os"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/embedprep/internal/logger"
	"github.com/samcharles93/embedprep/internal/metrics"
	"github.com/samcharles93/embedprep/internal/textproc"
)

// Reader loads and analyzes documents concurrently.
type Reader struct {
	// Workers bounds concurrent file reads. Zero means GOMAXPROCS.
	Workers int

	// Analyzer tokenizes document text. Nil uses textproc.NewPipeline.
	Analyzer textproc.Analyzer

	// Logger receives skip warnings. Nil uses the context logger.
	Logger logger.Logger
}

// Result holds per-document tokens in input order. Tokens[i] is nil for a
// skipped document.
type Result struct {
	Tokens  [][]string
	Skipped int
}

// Tokenize reads and analyzes docs. Files that cannot be read are skipped and
// counted. Only context cancellation aborts the scan.
func (r Reader) Tokenize(ctx context.Context, docs []Document) (Result, error) {
	log := r.Logger
	if log == nil {
		log = logger.FromContext(ctx)
	}
	analyzer := r.Analyzer
	if analyzer == nil {
		analyzer = textproc.NewPipeline()
	}
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := Result{Tokens: make([][]string, len(docs))}
	var skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range docs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc := docs[i]
			raw, err := os.ReadFile(doc.Path)
			if err != nil {
				skipped.Add(1)
				metrics.DocumentSkipped(doc.Split)
				log.Warn("skipping unreadable document", "path", doc.Path, "error", err)
				return nil
			}
			out.Tokens[i] = analyzer.Analyze(string(raw))
			metrics.DocumentProcessed(doc.Split)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	out.Skipped = int(skipped.Load())
	return out, nil
}
