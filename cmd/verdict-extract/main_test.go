package main

import (
	"flag"
	"testing"

	"github.com/theimaginaryfoundation/aita-sampler/sampling"
)

func TestParseFlags_Overrides(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("verdict-extract", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{
		"-comments", "x/comment.csv",
		"-samples-per-category", "25",
		"-policy", "ordered",
		"-output-prefix", "pilot",
	})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.Comments != "x/comment.csv" || cfg.OutputPrefix != "pilot" {
		t.Fatalf("Comments=%q OutputPrefix=%q", cfg.Comments, cfg.OutputPrefix)
	}
	opts := cfg.options()
	if opts.PerCategory != 25 || opts.Policy != sampling.DrawOrdered || opts.MaxCommentChars != 500 {
		t.Fatalf("options=%+v", opts)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	if err := (Config{}).Validate(); err == nil {
		t.Fatalf("expected error")
	}
	bad := defaultConfig()
	bad.Policy = "shuffle"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
	bad = defaultConfig()
	bad.SamplesPerCategory = 0
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for samples-per-category=0")
	}
	if err := defaultConfig().Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}
