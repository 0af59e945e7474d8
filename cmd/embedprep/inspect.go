package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/embedprep/internal/tablestore"
	"github.com/samcharles93/embedprep/pkg/tbf"
)

type inspectOptions struct {
	rows       int
	vocabLimit int
	showVocab  bool
	noMmap     bool
}

func inspectCmd() *cli.Command {
	var (
		opts    inspectOptions
		showAll bool
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Inspect the contents of a .tbf table file",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "all", Usage: "show everything, including vocabulary entries", Destination: &showAll},
			&cli.BoolFlag{Name: "vocab", Usage: "list vocabulary entries", Destination: &opts.showVocab},
			&cli.BoolFlag{Name: "no-mmap", Usage: "read the file into memory instead of mapping it", Destination: &opts.noMmap},
			&cli.IntFlag{Name: "rows", Usage: "preview this many rows of each table", Value: 3, Destination: &opts.rows},
			&cli.IntFlag{Name: "vocab-limit", Usage: "limit vocab listing (0 = no limit)", Value: 50, Destination: &opts.vocabLimit},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			_ = ctx

			path := c.Args().First()
			if path == "" {
				return cli.Exit("error: inspect needs a FILE argument", 1)
			}
			if showAll {
				opts.showVocab = true
				if opts.vocabLimit == 50 {
					opts.vocabLimit = 0
				}
			}
			if err := inspectFile(os.Stdout, path, opts); err != nil {
				return cli.Exit(fmt.Sprintf("error: inspect %s: %v", path, err), 1)
			}
			return nil
		},
	}
}

func inspectFile(w io.Writer, path string, opts inspectOptions) error {
	f, err := openTableFile(path, opts.noMmap)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	tf := f.Container()
	printHeader(w, tf)
	printSectionDirectory(w, tf.Sections)

	section(w, "Tables")
	for _, name := range f.TableNames() {
		info, err := f.Table(name)
		if err != nil {
			_, _ = fmt.Fprintf(w, "%-10s (error: %v)\n", name, err)
			continue
		}
		_, _ = fmt.Fprintf(w, "%-10s %-4s shape=%-16s off=%-10d size=%s\n",
			name, info.DType, formatShape(info.Shape), info.DataOff, formatBytes(info.DataSize))
		if opts.rows > 0 {
			printTablePreview(w, f, info, opts.rows)
		}
	}

	section(w, "Manifest")
	m, err := f.Manifest()
	switch {
	case errors.Is(err, tablestore.ErrNoManifest):
		_, _ = fmt.Fprintln(w, "(no manifest section)")
	case err != nil:
		_, _ = fmt.Fprintf(w, "(manifest parse error: %v)\n", err)
	default:
		printManifest(w, m)
	}

	section(w, "Vocabulary")
	v, err := f.Vocab()
	switch {
	case errors.Is(err, tablestore.ErrNoVocabulary):
		_, _ = fmt.Fprintln(w, "(no vocabulary section)")
	case err != nil:
		_, _ = fmt.Fprintf(w, "(vocabulary parse error: %v)\n", err)
	default:
		row(w, "size", fmt.Sprintf("%d", v.Len()))
		row(w, "fallback", v.Fallback())
		if opts.showVocab {
			tokens := v.Tokens()
			if opts.vocabLimit > 0 && len(tokens) > opts.vocabLimit {
				tokens = tokens[:opts.vocabLimit]
			}
			for id, tok := range tokens {
				_, _ = fmt.Fprintf(w, "%8d  %q\n", id, tok)
			}
		}
	}
	return nil
}

func openTableFile(path string, noMmap bool) (*tablestore.File, error) {
	if !noMmap {
		return tablestore.Open(path)
	}
	rf, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rf.Close() }()
	st, err := rf.Stat()
	if err != nil {
		return nil, err
	}
	return tablestore.OpenReaderAt(rf, st.Size())
}

func printHeader(w io.Writer, f *tbf.File) {
	if f == nil || f.Header == nil {
		return
	}
	h := f.Header
	flags := []string{}
	if h.Flags&tbf.FlagTableDataAligned64 != 0 {
		flags = append(flags, "table_data_aligned64")
	}
	flagStr := "none"
	if len(flags) > 0 {
		flagStr = strings.Join(flags, ", ")
	}
	access := "read"
	if f.Mapped() {
		access = "mmap"
	}
	_, _ = fmt.Fprintf(w, "TBF Header: v%d.%d sections=%d header=%dB size=%s flags=%s access=%s\n",
		h.Major, h.Minor, h.SectionCount, h.HeaderSize, formatBytes(h.FileSize), flagStr, access)
}

func printSectionDirectory(w io.Writer, sections []tbf.Section) {
	section(w, "Sections")
	for _, s := range sections {
		name := tbf.SectionType(s.Type).String()
		_, _ = fmt.Fprintf(w, "%-12s v%-2d off=%-10d size=%s\n", name, s.Version, s.Offset, formatBytes(s.Size))
	}
}

func printTablePreview(w io.Writer, f *tablestore.File, info tablestore.TableInfo, rows int) {
	data, _, err := f.ReadI32(info.Name)
	if err != nil {
		_, _ = fmt.Fprintf(w, "  (read error: %v)\n", err)
		return
	}
	width := 1
	if len(info.Shape) == 2 {
		width = info.Shape[1]
	}
	if width == 1 {
		_, _ = fmt.Fprintf(w, "  %v\n", lo.Slice(data, 0, rows*8))
		return
	}
	for i, chunk := range lo.Chunk(data, width) {
		if i >= rows {
			break
		}
		_, _ = fmt.Fprintf(w, "  %v\n", chunk)
	}
}

func printManifest(w io.Writer, m tablestore.Manifest) {
	row(w, "run id", m.RunID)
	if !m.CreatedAt.IsZero() {
		row(w, "created", m.CreatedAt.Format(time.RFC3339))
	}
	row(w, "version", m.Version)
	row(w, "radius", fmt.Sprintf("%d", m.Radius))
	row(w, "source", m.SourceRoot)
	row(w, "splits", strings.Join(m.Splits, ", "))
	if len(m.Documents) > 0 {
		names := lo.Keys(m.Documents)
		slices.Sort(names)
		parts := make([]string, 0, len(names))
		for _, split := range names {
			parts = append(parts, fmt.Sprintf("%s=%d", split, m.Documents[split]))
		}
		row(w, "documents", fmt.Sprintf("%d (%s)", m.TotalDocuments(), strings.Join(parts, ", ")))
	}
	row(w, "skipped", fmt.Sprintf("%d", m.Skipped))
	row(w, "vocab size", fmt.Sprintf("%d", m.VocabSize))
	row(w, "tokens", fmt.Sprintf("%d", m.Tokens))
	row(w, "cbow rows", fmt.Sprintf("%d", m.CBOWRows))
	row(w, "skipgram rows", fmt.Sprintf("%d", m.SkipGrams))
}

func section(w io.Writer, title string) {
	line := strings.Repeat("-", len(title)+8)
	_, _ = fmt.Fprintf(w, "\n%s\n--- %s ---\n%s\n", line, title, line)
}

func row(w io.Writer, label, value string) {
	if value == "" {
		return
	}
	_, _ = fmt.Fprintf(w, "%-16s %s\n", label+":", value)
}

func formatShape(shape []int) string {
	parts := lo.Map(shape, func(d int, _ int) string { return fmt.Sprintf("%d", d) })
	return "[" + strings.Join(parts, "x") + "]"
}

func formatBytes(b uint64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
		tb = 1024 * gb
	)
	switch {
	case b >= tb:
		return fmt.Sprintf("%.2f TiB", float64(b)/float64(tb))
	case b >= gb:
		return fmt.Sprintf("%.2f GiB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.2f MiB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.2f KiB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
