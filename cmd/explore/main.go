package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/theimaginaryfoundation/aita-sampler/sampling"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/dataset"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/fileutils"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/logging"
)

var printer = message.NewPrinter(language.English)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	logger := logging.OrNop(cfg.Verbose)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ds, err := dataset.Load(ctx, cfg.source())
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed loading data:", err.Error())
		os.Exit(1)
	}

	rep := sampling.Explore(ds, cfg.options())
	renderReport(os.Stdout, rep)

	if cfg.JSONOut != "" {
		if err := fileutils.WriteJSONFileAtomic(cfg.JSONOut, rep, true); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		fmt.Fprintf(os.Stdout, "report=%s\n", cfg.JSONOut)
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.Source, "source", cfg.Source, "Input format: csv|sqlite")
	fs.StringVar(&cfg.Submissions, "submissions", cfg.Submissions, "Submissions CSV")
	fs.StringVar(&cfg.Comments, "comments", cfg.Comments, "Comments CSV")
	fs.StringVar(&cfg.SQLitePath, "sqlite", cfg.SQLitePath, "SQLite snapshot for -source sqlite")
	fs.StringVar(&cfg.SubmissionLimits, "submission-limits", cfg.SubmissionLimits, "Candidate submission length limits, comma separated")
	fs.StringVar(&cfg.CommentLimits, "comment-limits", cfg.CommentLimits, "Candidate comment length limits, comma separated")
	fs.IntVar(&cfg.PreviewN, "preview", cfg.PreviewN, "Short submissions to preview (0 disables)")
	fs.IntVar(&cfg.PreviewMaxChars, "preview-max-chars", cfg.PreviewMaxChars, "Only preview submissions up to this length")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Seed for the preview draw")
	fs.StringVar(&cfg.JSONOut, "json-out", "", "Optional path to write the report as JSON")
	fs.BoolVar(&cfg.Verbose, "v", false, "Debug logging")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.JSONOut != "" {
		cfg.JSONOut = filepath.Clean(cfg.JSONOut)
	}
	return cfg, nil
}

func renderReport(out io.Writer, rep sampling.ExploreReport) {
	printer.Fprintf(out, "Submissions: %d\nComments: %d\n\n", rep.Submissions, rep.Comments)

	lengths := newTable(out, "Text length (characters)")
	lengths.AppendHeader(table.Row{"Table", "Mean", "Median", "P95", "P99"})
	lengths.AppendRow(lengthRow("submission", rep.SubmissionLength))
	lengths.AppendRow(lengthRow("comment", rep.CommentLength))
	lengths.Render()

	scores := newTable(out, "Score")
	scores.AppendHeader(table.Row{"Table", "Mean", "Median", "Min", "Max"})
	if s := rep.SubmissionScore; s != nil {
		scores.AppendRow(table.Row{"submission", fmt.Sprintf("%.1f", s.Mean), fmt.Sprintf("%.1f", s.Median), s.Min, s.Max})
	}
	if s := rep.CommentScore; s != nil {
		scores.AppendRow(table.Row{"comment", fmt.Sprintf("%.1f", s.Mean), fmt.Sprintf("%.1f", s.Median), s.Min, s.Max})
	}
	scores.Render()

	renderImpact(out, "Submission length limits", rep.SubmissionImpact)
	renderImpact(out, "Comment length limits", rep.CommentImpact)

	tiers := newTable(out, "Engagement tiers (all submissions)")
	tiers.AppendHeader(table.Row{"Tier", "Submissions", "Score range"})
	for i, e := range rep.Engagement {
		rng := ""
		if i+1 < len(rep.EngagementBoundaries) {
			rng = fmt.Sprintf("%.0f - %.0f", rep.EngagementBoundaries[i], rep.EngagementBoundaries[i+1])
		}
		tiers.AppendRow(table.Row{e.Label, printer.Sprintf("%d", e.Count), rng})
	}
	tiers.Render()

	if len(rep.Preview) > 0 {
		preview := newTable(out, "Short submission preview")
		preview.AppendHeader(table.Row{"Submission", "Score", "Title", "Text"})
		for _, s := range rep.Preview {
			preview.AppendRow(table.Row{s.SubmissionID, s.Score, fileutils.Truncate(s.Title, 60), fileutils.Truncate(fileutils.SanitizeNewlines(s.Selftext), 120)})
		}
		preview.Render()
	}
}

func newTable(out io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	return t
}

func lengthRow(name string, l sampling.LengthSummary) table.Row {
	return table.Row{name, fmt.Sprintf("%.1f", l.Mean), fmt.Sprintf("%.1f", l.Median), fmt.Sprintf("%.0f", l.P95), fmt.Sprintf("%.0f", l.P99)}
}

func renderImpact(out io.Writer, title string, impact []sampling.LimitImpact) {
	t := newTable(out, title)
	t.AppendHeader(table.Row{"Limit", "Kept", "Percent"})
	for _, li := range impact {
		t.AppendRow(table.Row{li.Limit, printer.Sprintf("%d", li.Count), fmt.Sprintf("%.1f%%", li.Percent)})
	}
	t.Render()
}
