package main

import (
	"bytes"
	"flag"
	"strings"
	"testing"

	"github.com/theimaginaryfoundation/aita-sampler/sampling"
)

func TestParseFlags_Overrides(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("explore", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{
		"-submission-limits", "800, 1600",
		"-preview", "0",
		"-json-out", "out/./explore.json",
	})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.JSONOut != "out/explore.json" {
		t.Fatalf("JSONOut=%q", cfg.JSONOut)
	}
	opts := cfg.options()
	if len(opts.SubmissionLimits) != 2 || opts.SubmissionLimits[1] != 1600 {
		t.Fatalf("SubmissionLimits=%v", opts.SubmissionLimits)
	}
	if len(opts.CommentLimits) != 6 || opts.PreviewN != 0 {
		t.Fatalf("CommentLimits=%v PreviewN=%d", opts.CommentLimits, opts.PreviewN)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	bad := defaultConfig()
	bad.CommentLimits = "300,abc"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for bad limit")
	}
	if err := defaultConfig().Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestRenderReport_Tables(t *testing.T) {
	t.Parallel()

	var subs []sampling.Submission
	for i := 0; i < 10; i++ {
		subs = append(subs, sampling.Submission{SubmissionID: string(rune('a' + i)), Title: "t", Selftext: strings.Repeat("x", 100*(i+1)), Score: i * 10})
	}
	ds := sampling.Dataset{
		Submissions: subs,
		Comments:    []sampling.Comment{{SubmissionID: "a", CommentID: "c1", Message: "NTA", Score: 3}},
	}
	opts := sampling.DefaultExploreOptions()
	opts.PreviewN = 2
	rep := sampling.Explore(ds, opts)

	var buf bytes.Buffer
	renderReport(&buf, rep)
	out := buf.String()
	for _, want := range []string{"Submissions: 10", "Very High", "50.0%", "Short submission preview"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}
