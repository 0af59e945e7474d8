package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"

	"github.com/samcharles93/embedprep/internal/metrics"
	"github.com/samcharles93/embedprep/internal/textproc"
	"github.com/samcharles93/embedprep/internal/vocab"
	"github.com/samcharles93/embedprep/internal/version"
	"github.com/samcharles93/embedprep/internal/window"
)

// DefaultMaxTokens bounds the token count of one windows request.
const DefaultMaxTokens = 1 << 20

type Options struct {
	// Analyzer tokenizes text for /v1/analyze and text windows requests.
	// Nil uses textproc.NewPipeline.
	Analyzer textproc.Analyzer
	// Vocab resolves analyzed text to ids. Optional.
	Vocab *vocab.Vocabulary
	// Workers is passed to the window generator.
	Workers int
	// MaxTokens rejects larger requests. Zero uses DefaultMaxTokens.
	MaxTokens int
}

type Server struct {
	store     *WindowStore
	analyzer  textproc.Analyzer
	vocab     *vocab.Vocabulary
	workers   int
	maxTokens int
	clock     func() time.Time
}

func NewServer(store *WindowStore, opts Options) *Server {
	if store == nil {
		store = NewWindowStore(0)
	}
	if opts.Analyzer == nil {
		opts.Analyzer = textproc.NewPipeline()
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return &Server{
		store:     store,
		analyzer:  opts.Analyzer,
		vocab:     opts.Vocab,
		workers:   opts.Workers,
		maxTokens: opts.MaxTokens,
		clock:     time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/windows", s.handleCreateWindows)
	e.GET("/v1/windows/:id", s.handleGetWindows)
	e.DELETE("/v1/windows/:id", s.handleDeleteWindows)
	e.POST("/v1/analyze", s.handleAnalyze)

	e.GET("/healthz", s.handleHealth)
	metricsHandler := promhttp.Handler()
	e.GET("/metrics", func(c *echo.Context) error {
		metricsHandler.ServeHTTP(c.Response(), c.Request())
		return nil
	})
}

func (s *Server) handleCreateWindows(c *echo.Context) error {
	req, err := decodeJSON[WindowsRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	tokens, vocabSize, err := s.resolveRequest(req)
	if err != nil {
		return writeFailure(c, err)
	}

	gen := window.Generator{Radius: req.Radius, VocabSize: vocabSize, Workers: s.workers}
	start := s.clock()
	tables, err := gen.Generate(c.Request().Context(), tokens)
	if err != nil {
		return writeFailure(c, err)
	}
	now := s.clock()
	metrics.RowsGenerated(metrics.SourceAPI, tables.CBOWRows(), tables.SkipGramRows(), now.Sub(start))

	resp := WindowsResponse{
		ID:        newWindowsID(),
		Object:    "window.samples",
		CreatedAt: now.Unix(),
		Radius:    tables.Radius,
		Tokens:    tokens,
		CBOW:      tables.CBOWMatrix(),
		SkipGram:  tables.SkipGramMatrix(),
		Usage: WindowsUsage{
			Tokens:       len(tokens),
			CBOWRows:     tables.CBOWRows(),
			SkipGramRows: tables.SkipGramRows(),
		},
	}
	if req.Store == nil || *req.Store {
		s.store.Save(resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// resolveRequest returns the token ids to window and the vocabulary size to
// validate them against.
func (s *Server) resolveRequest(req WindowsRequest) ([]int32, int, error) {
	if req.VocabSize < 0 {
		return nil, 0, newInvalidRequest("vocab_size", "vocab_size must not be negative")
	}
	switch {
	case req.Text != "" && req.Tokens != nil:
		return nil, 0, newInvalidRequest("text", "tokens and text are mutually exclusive")
	case req.Text != "":
		if s.vocab == nil {
			return nil, 0, newInvalidRequest("text", "text input needs a server vocabulary")
		}
		tokens := s.vocab.ResolveAll(s.analyzer.Analyze(req.Text))
		if len(tokens) > s.maxTokens {
			return nil, 0, newInvalidRequest("text", "text produces too many tokens")
		}
		return tokens, s.vocab.Len(), nil
	case req.Tokens == nil:
		return nil, 0, newInvalidRequest("tokens", "tokens is required")
	case len(req.Tokens) > s.maxTokens:
		return nil, 0, newInvalidRequest("tokens", "too many tokens")
	}
	return req.Tokens, req.VocabSize, nil
}

func (s *Server) handleGetWindows(c *echo.Context) error {
	resp, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "windows result not found")
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDeleteWindows(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeNotFound(c, "windows result not found")
	}
	return c.JSON(http.StatusOK, DeleteResponse{
		ID:      id,
		Object:  "window.samples",
		Deleted: true,
	})
}

func (s *Server) handleAnalyze(c *echo.Context) error {
	req, err := decodeJSON[AnalyzeRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	tokens := s.analyzer.Analyze(req.Text)
	resp := AnalyzeResponse{Object: "analysis", Tokens: tokens}
	if s.vocab != nil {
		resp.IDs = s.vocab.ResolveAll(tokens)
		resp.Unknown = lo.Uniq(lo.Reject(tokens, func(tok string, _ int) bool {
			return s.vocab.Contains(tok)
		}))
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHealth(c *echo.Context) error {
	resp := HealthResponse{
		Status:  "ok",
		Version: version.String(),
		Stored:  s.store.Len(),
	}
	if s.vocab != nil {
		resp.VocabSize = s.vocab.Len()
	}
	return c.JSON(http.StatusOK, resp)
}
