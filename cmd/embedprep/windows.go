package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/embedprep/internal/textproc"
	"github.com/samcharles93/embedprep/internal/vocab"
	"github.com/samcharles93/embedprep/internal/window"
)

func windowsCmd() *cli.Command {
	var (
		text      string
		vocabSize int
		cbowOnly  bool
		skipOnly  bool
	)

	return &cli.Command{
		Name:      "windows",
		Usage:     "Print CBOW and skip-gram rows for a token id sequence",
		ArgsUsage: "[ids...]",
		Flags: []cli.Flag{
			windowFlag(),
			vocabFlag("vocabulary used to resolve --text and label ids"),
			&cli.StringFlag{
				Name:        "text",
				Usage:       "analyze this text with the vocabulary instead of reading ids",
				Destination: &text,
			},
			&cli.IntFlag{
				Name:        "vocab-size",
				Usage:       "reject ids >= this value (0 = no check unless --vocab is set)",
				Destination: &vocabSize,
			},
			&cli.BoolFlag{Name: "cbow", Usage: "print only CBOW rows", Destination: &cbowOnly},
			&cli.BoolFlag{Name: "skipgram", Usage: "print only skip-gram rows", Destination: &skipOnly},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			var v *vocab.Vocabulary
			if vocabPath != "" {
				var err error
				v, err = vocab.LoadFile(vocabPath)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: load vocabulary: %v", err), 1)
				}
				if vocabSize == 0 {
					vocabSize = v.Len()
				}
			}

			var ids []int32
			switch {
			case text != "":
				if v == nil {
					return cli.Exit("error: --text needs --vocab", 1)
				}
				ids = v.ResolveAll(textproc.NewPipeline().Analyze(text))
			default:
				var err error
				ids, err = parseIDs(c.Args().Slice())
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
			}

			gen := window.Generator{Radius: radius, VocabSize: vocabSize}
			tables, err := gen.Generate(ctx, ids)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			label := func(id int32) string { return strconv.Itoa(int(id)) }
			if v != nil {
				label = func(id int32) string { return v.Token(id) }
			}
			if !skipOnly {
				printCBOW(os.Stdout, tables, label)
			}
			if !cbowOnly {
				printSkipGrams(os.Stdout, tables, label)
			}
			return nil
		},
	}
}

// parseIDs parses token ids given as separate arguments or comma separated.
func parseIDs(args []string) ([]int32, error) {
	var ids []int32
	for _, arg := range args {
		for _, field := range strings.FieldsFunc(arg, func(r rune) bool { return r == ',' || r == ' ' }) {
			n, err := strconv.ParseInt(field, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid token id %q", field)
			}
			ids = append(ids, int32(n))
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no token ids given")
	}
	return ids, nil
}

func printCBOW(w io.Writer, t *window.Tables, label func(int32) string) {
	_, _ = fmt.Fprintf(w, "CBOW (%d rows, radius %d)\n", t.CBOWRows(), t.Radius)
	for i := range t.CBOWRows() {
		row := t.CBOWRow(i)
		words := lo.Map(row[:len(row)-1], func(id int32, _ int) string { return label(id) })
		_, _ = fmt.Fprintf(w, "  [%s] -> %s\n", strings.Join(words, " "), label(row[len(row)-1]))
	}
}

func printSkipGrams(w io.Writer, t *window.Tables, label func(int32) string) {
	_, _ = fmt.Fprintf(w, "skip-gram (%d rows)\n", t.SkipGramRows())
	for _, p := range t.SkipGramPairs() {
		center, ctxID := p.Unpack()
		_, _ = fmt.Fprintf(w, "  %s -> %s\n", label(center), label(ctxID))
	}
}
