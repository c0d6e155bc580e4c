package main

import (
	"context"
	"flag"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/theimaginaryfoundation/aita-sampler/sampling/dataset"
)

func TestParseFlags_Overrides(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("sqlite-export", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{"-sqlite", "snap/./db.sqlite", "-out", "csv", "-comment-table", "comments", "-overwrite"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.SQLitePath != filepath.Join("snap", "db.sqlite") || cfg.CommentTable != "comments" || !cfg.Overwrite {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.submissionsPath() != filepath.Join("csv", "submission.csv") {
		t.Fatalf("submissionsPath=%s", cfg.submissionsPath())
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	bad := defaultConfig()
	bad.CommentsName = bad.SubmissionsName
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for identical outputs")
	}
	bad = defaultConfig()
	bad.SQLitePath = ""
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for missing -sqlite")
	}
}

func TestExportTables_WritesAndSkips(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	snap := filepath.Join(dir, "snap.sqlite")
	db, err := dataset.OpenSQLite(snap)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	for _, s := range []string{
		"CREATE TABLE submission (id INTEGER PRIMARY KEY, submission_id TEXT, title TEXT, selftext TEXT, created_utc INTEGER, permalink TEXT, score INTEGER)",
		"CREATE TABLE comment (id INTEGER PRIMARY KEY, submission_id TEXT, message TEXT, comment_id TEXT, parent_id TEXT, created_utc INTEGER, score INTEGER)",
		"INSERT INTO submission VALUES (1, 's1', 'AITA?', 'body', 1600000000, '/r/AmItheAsshole/s1', 15)",
		"INSERT INTO comment VALUES (10, 's1', 'NTA', 'c1', 't3_s1', 1600000100, 3)",
	} {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	_ = db.Close()

	cfg := defaultConfig()
	cfg.SQLitePath = snap
	cfg.OutputDir = filepath.Join(dir, "csv")

	written, err := exportTables(context.Background(), cfg, zap.NewNop())
	if err != nil || !written {
		t.Fatalf("written=%v err=%v", written, err)
	}
	ds, err := dataset.LoadCSV(cfg.submissionsPath(), cfg.commentsPath())
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if len(ds.Submissions) != 1 || ds.Submissions[0].Score != 15 || ds.Submissions[0].Permalink != "/r/AmItheAsshole/s1" || len(ds.Comments) != 1 || ds.Comments[0].Message != "NTA" {
		t.Fatalf("round trip=%+v", ds)
	}

	written, err = exportTables(context.Background(), cfg, zap.NewNop())
	if err != nil || written {
		t.Fatalf("second run written=%v err=%v, want skip", written, err)
	}
}
