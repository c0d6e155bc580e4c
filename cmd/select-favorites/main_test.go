package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/theimaginaryfoundation/aita-sampler/sampling"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/fileutils"
)

func TestParseFlags_Overrides(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("select-favorites", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{"-kind", "comments", "-per-stratum", "0", "-out", "fav/./x", "-no-color"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.Kind != kindComments || cfg.PerStratum != 0 || cfg.OutputDir != "fav/x" || !cfg.NoColor {
		t.Fatalf("cfg=%+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	bad := defaultConfig()
	bad.Kind = "threads"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for kind")
	}
	bad = defaultConfig()
	bad.PerStratum = -1
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for per-stratum")
	}
}

func testConsole(input string) (console, *bytes.Buffer) {
	var out bytes.Buffer
	return console{in: bufio.NewReader(strings.NewReader(input)), out: &out}, &out
}

func candidates(n int) []candidate {
	var out []candidate
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("s%d", i)
		out = append(out, candidate{Stratum: "High", Key: key, Render: func(w io.Writer) { fmt.Fprintln(w, "ID:", key) }})
	}
	return out
}

func TestConsoleRun_RepromptsAndQuits(t *testing.T) {
	t.Parallel()

	ui, out := testConsole("y\nmaybe\nn\nq\n")
	decisions, err := ui.run("TITLE", candidates(4))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(decisions) != 2 {
		t.Fatalf("decisions=%+v", decisions)
	}
	if !decisions[0].Selected || decisions[0].Key != "s0" || decisions[1].Selected || decisions[1].Key != "s1" {
		t.Fatalf("decisions=%+v", decisions)
	}
	text := out.String()
	for _, want := range []string{"Please enter 'y', 'n', or 'q'", "Total selected: 1", "ended early", "ITEM 3/4"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "ITEM 4/4") {
		t.Fatalf("item after quit was shown")
	}
}

func TestConsoleAsk_EOFQuits(t *testing.T) {
	t.Parallel()

	ui, _ := testConsole("yes")
	if a, err := ui.ask("?"); err != nil || a != answerYes {
		t.Fatalf("a=%v err=%v", a, err)
	}
	if a, err := ui.ask("?"); err != nil || a != answerQuit {
		t.Fatalf("a=%v err=%v", a, err)
	}
}

func TestPickShown_CapsAndIsDeterministic(t *testing.T) {
	t.Parallel()

	keys := map[string][]string{"High": {"a", "b", "c"}, "Low": {"d"}}
	first := pickShown([]string{"High", "Low"}, keys, 2, 7)
	second := pickShown([]string{"High", "Low"}, keys, 2, 7)
	if len(first) != 2 || len(first[0].Drawn) != 2 || len(first[1].Drawn) != 1 {
		t.Fatalf("draws=%+v", first)
	}
	if strings.Join(first[0].Drawn, ",") != strings.Join(second[0].Drawn, ",") {
		t.Fatalf("draw not deterministic: %v vs %v", first[0].Drawn, second[0].Drawn)
	}
	all := pickShown([]string{"High"}, keys, 0, 7)
	if len(all[0].Drawn) != 3 {
		t.Fatalf("per-stratum 0 should show all, got %v", all[0].Drawn)
	}
}

func TestSelectSubmissions_WritesFavorites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "records.jsonl")
	records := []sampling.SampleRecord{
		{Stratum: "High", Rank: 1, Submission: sampling.EnrichedSubmission{
			Submission:     sampling.Submission{SubmissionID: "s1", Title: "AITA one", Selftext: "text", Score: 50},
			EngagementTier: "High",
		}, TopComments: []sampling.SampledComment{{Comment: sampling.Comment{SubmissionID: "s1", CommentID: "c1", Message: "NTA", Score: 9}, Stratum: "High", Rank: 1, Verdict: sampling.VerdictNTA}}},
	}
	if err := fileutils.WriteJSONLinesAtomic(in, records); err != nil {
		t.Fatalf("write input: %v", err)
	}

	cfg := defaultConfig()
	cfg.InputPath = in
	cfg.OutputDir = dir
	ui, _ := testConsole("y\n")
	summary, err := selectSubmissions(cfg, cfg.paths(sampling.DefaultFileConfig().Files), ui)
	if err != nil {
		t.Fatalf("selectSubmissions: %v", err)
	}
	if !strings.Contains(summary, "selected=1") {
		t.Fatalf("summary=%q", summary)
	}
	for _, name := range []string{"favorite_submissions.csv", "favorite_comments.csv", "favorite_records.jsonl", "favorite_submissions.txt", "favorite_decisions.jsonl"} {
		if !fileutils.FileExists(filepath.Join(dir, name)) {
			t.Fatalf("missing %s", name)
		}
	}
	txt, err := os.ReadFile(filepath.Join(dir, "favorite_submissions.txt"))
	if err != nil {
		t.Fatalf("read review: %v", err)
	}
	if !strings.Contains(string(txt), "FAVORITE SUBMISSIONS") {
		t.Fatalf("review missing title:\n%s", txt)
	}
}

func TestConfigPaths_PrefixOverridesConfiguredNames(t *testing.T) {
	t.Parallel()

	files := sampling.DefaultFileConfig().Files
	files.FavoriteSubmissions = "mine.csv"
	cfg := defaultConfig()
	cfg.OutputDir = "fav"
	if got := cfg.paths(files).Submissions; got != filepath.Join("fav", "mine.csv") {
		t.Fatalf("Submissions=%s", got)
	}
	cfg.Prefix = "round2"
	p := cfg.paths(files)
	if p.Submissions != filepath.Join("fav", "round2_submissions.csv") || p.Decisions != filepath.Join("fav", "round2_decisions.jsonl") {
		t.Fatalf("paths=%+v", p)
	}
}
