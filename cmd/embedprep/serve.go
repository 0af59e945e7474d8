package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/embedprep/internal/api"
	"github.com/samcharles93/embedprep/internal/logger"
	"github.com/samcharles93/embedprep/internal/pipeline"
	"github.com/samcharles93/embedprep/internal/vocab"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		storeSize   int
		maxTokens   int
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the windows REST API",
		Flags: []cli.Flag{
			vocabFlag("vocabulary for text requests and /v1/analyze ids"),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.IntFlag{
				Name:        "workers",
				Aliases:     []string{"j"},
				Usage:       "generator workers per request (0 = GOMAXPROCS)",
				Destination: &workers,
			},
			&cli.IntFlag{
				Name:        "store-size",
				Usage:       "results kept for GET /v1/windows/:id",
				Value:       1024,
				Destination: &storeSize,
			},
			&cli.IntFlag{
				Name:        "max-tokens",
				Usage:       "reject requests with more tokens than this",
				Value:       api.DefaultMaxTokens,
				Destination: &maxTokens,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			cfg := configFromContext(ctx)
			applyServeConfig(cmd, cfg, &addr)

			opts := api.Options{Workers: workers, MaxTokens: maxTokens}
			if len(cfg.LemmaOverrides) > 0 {
				pcfg := pipeline.DefaultConfig()
				pcfg.LemmaOverrides = cfg.LemmaOverrides
				opts.Analyzer = pcfg.Analyzer()
			}
			if vocabPath != "" {
				v, err := vocab.LoadFile(vocabPath)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: load vocabulary: %v", err), 1)
				}
				opts.Vocab = v
				log.Info("loaded vocabulary", "path", vocabPath, "size", v.Len())
			}

			store := api.NewWindowStore(storeSize)
			server := api.NewServer(store, opts)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
