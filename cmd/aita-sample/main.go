package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/theimaginaryfoundation/aita-sampler/sampling"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/dataset"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/export"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/fileutils"
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

	fc, err := sampling.LoadConfigFile(cfg.ConfigPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	scfg, prefix, err := resolve(fc, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	sampler, err := sampling.NewSampler(scfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	start := time.Now()
	src := cfg.source(fc.Files)
	ds, err := dataset.Load(ctx, src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed loading data:", err.Error())
		os.Exit(1)
	}
	logger.Info("loaded",
		zap.String("format", string(src.Format)),
		zap.Int("submissions", len(ds.Submissions)),
		zap.Int("comments", len(ds.Comments)),
		zap.Duration("elapsed", time.Since(start).Round(time.Millisecond)),
	)

	res, err := sampler.Run(ds)
	if err != nil {
		var ie *sampling.InputError
		if errors.As(err, &ie) {
			fmt.Fprintln(os.Stderr, "invalid input:", err.Error())
		} else {
			fmt.Fprintln(os.Stderr, "sampling failed:", err.Error())
		}
		os.Exit(1)
	}

	paths := export.PathsFor(cfg.OutputDir, prefix, fc.Files)
	if cfg.NoWorkbook {
		paths.Workbook = ""
	}
	if err := export.WriteResult(paths, res, prefix, time.Now()); err != nil {
		fmt.Fprintln(os.Stderr, "failed writing outputs:", err.Error())
		os.Exit(1)
	}

	// Keep the config next to the sample so the run can be reproduced.
	if cfg.ConfigPath != "" {
		dst := filepath.Join(cfg.OutputDir, filepath.Base(cfg.ConfigPath))
		copied, err := fileutils.CopyFileIfExists(cfg.ConfigPath, dst, true)
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed copying config:", err.Error())
			os.Exit(1)
		}
		if copied {
			logger.Debug("copied config", zap.String("path", dst))
		}
	}

	export.RenderDrawTable(os.Stderr, res.Metadata.Draws)
	st := res.Metadata.Statistics
	fmt.Fprintf(os.Stdout, "run_id=%s submissions=%d comments=%d shortfall=%d warnings=%d out_dir=%s\n",
		res.Metadata.RunID, st.TotalSubmissions, st.TotalComments, st.TotalShortfall, st.Warnings, cfg.OutputDir)
	fmt.Fprintln(os.Stdout, paths.Submissions)
	fmt.Fprintln(os.Stdout, paths.Comments)
	fmt.Fprintln(os.Stdout, paths.Metadata)
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	def := sampling.DefaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.ConfigPath, "config", cfg.ConfigPath, "Path to the sampling YAML config (missing file = built-in defaults)")
	fs.StringVar(&cfg.SampleType, "sample-type", "", "Named preset from the config file (conservative|standard|large)")

	fs.StringVar(&cfg.Source, "source", cfg.Source, "Input format: csv|sqlite")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory holding submission.csv and comment.csv")
	fs.StringVar(&cfg.Submissions, "submissions", "", "Submissions CSV (overrides -data-dir)")
	fs.StringVar(&cfg.Comments, "comments", "", "Comments CSV (overrides -data-dir)")
	fs.StringVar(&cfg.SQLitePath, "sqlite", cfg.SQLitePath, "SQLite snapshot for -source sqlite")

	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Directory to write the sample into")
	fs.StringVar(&cfg.OutputPrefix, "output-prefix", "", "Output file prefix (defaults to the preset name or the config file default)")

	fs.IntVar(&cfg.MaxSubmissionChars, "max-submission-chars", def.MaxSubmissionChars, "Maximum submission body length in characters")
	fs.IntVar(&cfg.MaxCommentChars, "max-comment-chars", def.MaxCommentChars, "Maximum comment length in characters")
	fs.IntVar(&cfg.TargetN, "target-n", def.TargetN, "Target number of curated submissions")
	fs.IntVar(&cfg.OversampleFactor, "oversample-factor", def.OversampleFactor, "Oversample factor applied before curation")
	fs.IntVar(&cfg.CommentsPerSubmission, "comments-per-submission", def.CommentsPerSubmission, "Top comments attached to each submission")
	fs.StringVar(&cfg.Mode, "mode", string(def.StratificationMode), "Stratification mode: engagement|verdict")
	fs.StringVar(&cfg.Policy, "policy", string(def.DrawPolicy), "Draw policy: ordered|random")
	fs.Int64Var(&cfg.Seed, "seed", def.Seed(), "Seed for the random draw policy")
	fs.StringVar(&cfg.TieBreakOrder, "tie-break", "NTA,YTA,ESH,NAH", "Dominant verdict tie-break order, comma separated")
	fs.BoolVar(&cfg.IncludeNone, "include-none", false, "In verdict mode, keep submissions without a verdict as their own stratum")

	fs.BoolVar(&cfg.NoWorkbook, "no-workbook", false, "Skip the XLSX review workbook")
	fs.BoolVar(&cfg.Verbose, "v", false, "Debug logging")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExample:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/aita-sample -sample-type conservative -mode verdict")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { cfg.set[f.Name] = true })

	cfg.OutputDir = filepath.Clean(cfg.OutputDir)
	return cfg, nil
}
