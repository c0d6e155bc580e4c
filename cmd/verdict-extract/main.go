package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/theimaginaryfoundation/aita-sampler/sampling"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/dataset"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/export"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/logging"
)

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

	cs, err := sampling.SampleComments(ds, sampling.NewVerdictExtractor(), cfg.options())
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	for _, w := range cs.Warnings {
		logger.Warn(w.Message, zap.String("kind", string(w.Kind)), zap.String("verdict", w.Stratum), zap.Int("count", w.Count))
	}

	paths := export.CommentSamplePathsFor(cfg.OutputDir, cfg.OutputPrefix)
	if err := export.WriteCommentSample(paths, cs); err != nil {
		fmt.Fprintln(os.Stderr, "failed writing outputs:", err.Error())
		os.Exit(1)
	}

	export.RenderDistributionTable(os.Stderr, "Verdicts (all)", sampling.Distribution(cs.All))
	export.RenderDrawTable(os.Stderr, cs.Draws)

	fmt.Fprintf(os.Stdout, "comments_scanned=%d with_verdict=%d balanced=%d contexts=%d out_dir=%s\n",
		len(ds.Comments), len(cs.All), len(cs.Balanced), len(cs.Contexts), cfg.OutputDir)
	fmt.Fprintln(os.Stdout, paths.AllVerdicts)
	if len(cs.Balanced) > 0 {
		fmt.Fprintln(os.Stdout, paths.Balanced)
		fmt.Fprintln(os.Stdout, paths.BalancedJSONL)
		fmt.Fprintln(os.Stdout, paths.Contexts)
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.Source, "source", cfg.Source, "Input format: csv|sqlite")
	fs.StringVar(&cfg.Submissions, "submissions", cfg.Submissions, "Submissions CSV")
	fs.StringVar(&cfg.Comments, "comments", cfg.Comments, "Comments CSV")
	fs.StringVar(&cfg.SQLitePath, "sqlite", cfg.SQLitePath, "SQLite snapshot for -source sqlite")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Directory to write verdict samples into")
	fs.StringVar(&cfg.OutputPrefix, "output-prefix", cfg.OutputPrefix, "Output file prefix")
	fs.IntVar(&cfg.SamplesPerCategory, "samples-per-category", cfg.SamplesPerCategory, "Comments drawn per verdict")
	fs.IntVar(&cfg.MaxCommentChars, "max-comment-chars", cfg.MaxCommentChars, "Maximum comment length for the balanced sample")
	fs.StringVar(&cfg.Policy, "policy", cfg.Policy, "Draw policy: ordered|random")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Seed for the random draw policy")
	fs.BoolVar(&cfg.Verbose, "v", false, "Debug logging")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExample:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/verdict-extract -samples-per-category 25")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.OutputDir = filepath.Clean(cfg.OutputDir)
	return cfg, nil
}
