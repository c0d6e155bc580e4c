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

	"github.com/theimaginaryfoundation/aita-sampler/sampling/dataset"
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

	written, err := exportTables(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	if !written {
		fmt.Fprintln(os.Stdout, "skip export: csv files already exist (use -overwrite)")
		return
	}
	fmt.Fprintln(os.Stdout, cfg.submissionsPath())
	fmt.Fprintln(os.Stdout, cfg.commentsPath())
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.SQLitePath, "sqlite", cfg.SQLitePath, "SQLite snapshot of the subreddit")
	fs.StringVar(&cfg.SubmissionTable, "submission-table", cfg.SubmissionTable, "Submissions table name")
	fs.StringVar(&cfg.CommentTable, "comment-table", cfg.CommentTable, "Comments table name")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Directory to write the CSV tables into")
	fs.StringVar(&cfg.SubmissionsName, "submissions-name", cfg.SubmissionsName, "File name for the submissions CSV")
	fs.StringVar(&cfg.CommentsName, "comments-name", cfg.CommentsName, "File name for the comments CSV")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Replace existing CSV files")
	fs.BoolVar(&cfg.Verbose, "v", false, "Debug logging")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags]\n\n", fs.Name())
		fmt.Fprintln(fs.Output(), "Exports the submission and comment tables of a SQLite snapshot to CSV.")
		fmt.Fprintln(fs.Output(), "\nExample:\n  go run ./cmd/sqlite-export -sqlite data/AmItheAsshole.sqlite -out data")
		fmt.Fprintln(fs.Output(), "\nFlags:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.SQLitePath = filepath.Clean(cfg.SQLitePath)
	cfg.OutputDir = filepath.Clean(cfg.OutputDir)
	return cfg, nil
}

// exportTables copies both tables to CSV. It reports false when the outputs exist and
// overwriting is off.
func exportTables(ctx context.Context, cfg Config, logger *zap.Logger) (bool, error) {
	if !cfg.Overwrite && fileutils.FileExists(cfg.submissionsPath()) && fileutils.FileExists(cfg.commentsPath()) {
		return false, nil
	}
	ds, err := dataset.LoadSQLite(ctx, cfg.SQLitePath, cfg.options())
	if err != nil {
		return false, fmt.Errorf("failed loading %s: %w", cfg.SQLitePath, err)
	}
	logger.Info("loaded snapshot",
		zap.String("path", cfg.SQLitePath),
		zap.Int("submissions", len(ds.Submissions)),
		zap.Int("comments", len(ds.Comments)),
	)
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return false, err
	}
	if err := dataset.WriteSubmissionsCSV(cfg.submissionsPath(), ds.Submissions); err != nil {
		return false, err
	}
	if err := dataset.WriteCommentsCSV(cfg.commentsPath(), ds.Comments); err != nil {
		return false, err
	}
	fmt.Fprintf(os.Stderr, "progress sqlite-export: submissions=%d comments=%d\n", len(ds.Submissions), len(ds.Comments))
	return true, nil
}
