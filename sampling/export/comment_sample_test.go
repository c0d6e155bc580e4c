package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/theimaginaryfoundation/aita-sampler/sampling"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/fileutils"
)

func commentSample() sampling.CommentSample {
	nta := sampling.VerdictComment{Comment: sampling.Comment{SubmissionID: "s1", CommentID: "c1", Message: "NTA, obviously", Score: 4}, Verdict: sampling.VerdictNTA, CommentLength: 14}
	yta := sampling.VerdictComment{Comment: sampling.Comment{SubmissionID: "s2", CommentID: "c2", Message: "YTA", Score: 2}, Verdict: sampling.VerdictYTA, CommentLength: 3}
	return sampling.CommentSample{
		All:      []sampling.VerdictComment{nta, yta},
		Balanced: []sampling.VerdictComment{nta},
		Contexts: []sampling.Submission{{SubmissionID: "s1", Title: "AITA?", Selftext: "body", Score: 10}},
		Warnings: []sampling.Warning{{Kind: sampling.WarningInsufficientStratum, Stratum: "ESH", Message: "ESH: wanted 1, have 0"}},
	}
}

func TestRenderCommentSampleSummary(t *testing.T) {
	t.Parallel()

	got := RenderCommentSampleSummary(commentSample())
	for _, want := range []string{
		"Total comments with verdicts: 2",
		"Balanced samples: 1",
		"Submission contexts: 1",
		"  NTA: 1",
		"  YTA: 1",
		"[insufficient_stratum]",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("summary missing %q:\n%s", want, got)
		}
	}
}

func TestWriteCommentSample_WritesEveryFile(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "verdict")
	p := CommentSamplePathsFor(dir, "")
	if err := WriteCommentSample(p, commentSample()); err != nil {
		t.Fatalf("WriteCommentSample: %v", err)
	}
	for _, path := range []string{p.AllVerdicts, p.Balanced, p.BalancedJSONL, p.Contexts, p.Summary} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("missing %s: %v", path, err)
		}
	}
	if filepath.Base(p.Balanced) != "verdict_balanced_samples.csv" {
		t.Fatalf("Balanced=%s", p.Balanced)
	}
	rows := readCSV(t, p.AllVerdicts)
	if len(rows) != 3 {
		t.Fatalf("all verdict rows=%d, want 3", len(rows))
	}
	back, err := fileutils.ReadJSONLines[sampling.VerdictComment](p.BalancedJSONL)
	if err != nil {
		t.Fatalf("ReadJSONLines: %v", err)
	}
	if len(back) != 1 || back[0].CommentID != "c1" || back[0].Verdict != sampling.VerdictNTA {
		t.Fatalf("balanced=%+v", back)
	}
}

func TestWriteCommentSample_NoBalancedWritesOnlyAll(t *testing.T) {
	t.Parallel()

	cs := commentSample()
	cs.Balanced = nil
	p := CommentSamplePathsFor(t.TempDir(), "x")
	if err := WriteCommentSample(p, cs); err != nil {
		t.Fatalf("WriteCommentSample: %v", err)
	}
	if !fileutils.FileExists(p.AllVerdicts) {
		t.Fatalf("missing %s", p.AllVerdicts)
	}
	if fileutils.FileExists(p.Balanced) || fileutils.FileExists(p.Summary) {
		t.Fatalf("balanced outputs should not be written")
	}
}
