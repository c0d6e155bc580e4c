package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/theimaginaryfoundation/aita-sampler/sampling"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/fileutils"
)

func sampleResult() sampling.Result {
	avg := 12.5
	records := []sampling.SampleRecord{
		{
			Stratum: "High",
			Rank:    1,
			Submission: sampling.EnrichedSubmission{
				Submission:      sampling.Submission{ID: 1, SubmissionID: "s1", Title: "AITA for leaving?", Selftext: "I left.", Score: 1200},
				CommentCount:    2,
				AvgCommentScore: &avg,
				EngagementTier:  "High",
				DominantVerdict: sampling.VerdictNTA,
				VerdictCount:    2,
			},
			TopComments: []sampling.SampledComment{
				{Comment: sampling.Comment{ID: 10, SubmissionID: "s1", CommentID: "c1", Message: "NTA at all", Score: 20}, Stratum: "High", Rank: 1, Verdict: sampling.VerdictNTA},
				{Comment: sampling.Comment{ID: 11, SubmissionID: "s1", CommentID: "c2", Message: "NTA", Score: 5}, Stratum: "High", Rank: 2, Verdict: sampling.VerdictNTA},
			},
		},
		{
			Stratum: "Very Low",
			Rank:    1,
			Submission: sampling.EnrichedSubmission{
				Submission:     sampling.Submission{ID: 2, SubmissionID: "s2", Title: "WIBTA", Selftext: "Maybe.", Score: 1},
				EngagementTier: "Very Low",
			},
		},
	}
	labels := []string{"Very Low", "High"}
	stats := sampling.ComputeStatistics(records, labels)
	return sampling.Result{
		Records: records,
		Metadata: sampling.RunMetadata{
			RunID:  "run-1",
			Config: sampling.DefaultConfig(),
			Strata: sampling.StrataDefinition{Mode: sampling.ModeEngagement, Labels: labels},
			Draws: []sampling.Draw{
				{Label: "Very Low", Requested: 2, Available: 1, Shortfall: 1, Drawn: []string{"s2"}},
				{Label: "High", Requested: 2, Available: 1, Shortfall: 1, Drawn: []string{"s1"}},
			},
			Statistics: stats,
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func TestWriteSubmissionsCSV_EmptyAvgForNoComments(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "sampled_submissions.csv")
	if err := WriteSubmissionsCSV(p, sampleResult().Records); err != nil {
		t.Fatalf("WriteSubmissionsCSV: %v", err)
	}
	rows := readCSV(t, p)
	if len(rows) != 3 {
		t.Fatalf("rows=%d, want 3", len(rows))
	}
	avgCol := -1
	for i, h := range rows[0] {
		if h == "avg_comment_score" {
			avgCol = i
		}
	}
	if avgCol < 0 {
		t.Fatalf("header=%v missing avg_comment_score", rows[0])
	}
	if rows[1][avgCol] != "12.5" || rows[2][avgCol] != "" {
		t.Fatalf("avg cells=%q/%q, want 12.5/empty", rows[1][avgCol], rows[2][avgCol])
	}
}

func TestRenderReview_GroupsByLabelOrder(t *testing.T) {
	t.Parallel()

	res := sampleResult()
	out := RenderReview(res.Records, ReviewOptions{
		Title:  "SAMPLE REVIEW - TEST",
		Mode:   sampling.ModeEngagement,
		Labels: res.Metadata.Strata.Labels,
		Now:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	low := strings.Index(out, "=== VERY LOW ENGAGEMENT TIER ===")
	high := strings.Index(out, "=== HIGH ENGAGEMENT TIER ===")
	if low < 0 || high < 0 || low > high {
		t.Fatalf("section order wrong: low=%d high=%d", low, high)
	}
	for _, want := range []string{"Generated: 2024-01-02 03:04:05", "SCORE: 1,200", "1. (Score: 20) [NTA]: NTA at all", "Total Comments: 2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("review missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSummary_Distribution(t *testing.T) {
	t.Parallel()

	out := RenderSummary("sampled", sampleResult().Metadata.Statistics)
	for _, want := range []string{"Total submissions: 2", "Total comments: 2", "  Very Low: 1 submissions", "  High: 1 submissions"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRenderDrawTable_Totals(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	RenderDrawTable(&buf, sampleResult().Metadata.Draws)
	out := buf.String()
	if !strings.Contains(out, "Very Low") || !strings.Contains(out, "TOTAL") {
		t.Fatalf("table=%s", out)
	}
}

func TestWriteResult_WritesEveryFile(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "samples")
	p := PathsFor(dir, "sampled", sampling.DefaultFileConfig().Files)
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	if err := WriteResult(p, sampleResult(), "sampled", now); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	for _, path := range p.asMap() {
		if !fileutils.FileExists(path) {
			t.Fatalf("missing output %s", path)
		}
	}
	if filepath.Base(p.Submissions) != "sampled_submissions.csv" {
		t.Fatalf("Submissions=%s", p.Submissions)
	}

	md, err := ReadMetadataYAML(p.Metadata)
	if err != nil {
		t.Fatalf("ReadMetadataYAML: %v", err)
	}
	if md.GeneratedAt != "2024-05-06T07:08:09Z" || md.RunID != "run-1" {
		t.Fatalf("metadata=%+v", md)
	}
	if md.Config.TargetN != 50 || len(md.Draws) != 2 || md.Draws[0].Shortfall != 1 {
		t.Fatalf("metadata config/draws=%+v/%+v", md.Config, md.Draws)
	}

	records, err := fileutils.ReadJSONLines[sampling.SampleRecord](p.Records)
	if err != nil {
		t.Fatalf("ReadJSONLines: %v", err)
	}
	if len(records) != 2 || records[0].Submission.AvgCommentScore == nil || records[1].Submission.AvgCommentScore != nil {
		t.Fatalf("records=%+v", records)
	}

	wb, err := excelize.OpenFile(p.Workbook)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer wb.Close()
	rows, err := wb.GetRows(SheetComments)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 || rows[1][4] != "c1" {
		t.Fatalf("comment rows=%v", rows)
	}
	summary, err := wb.GetRows(SheetSummary)
	if err != nil {
		t.Fatalf("GetRows summary: %v", err)
	}
	if len(summary) != 3 || summary[1][0] != "Very Low" || summary[1][4] != "1" {
		t.Fatalf("summary rows=%v", summary)
	}
}

func TestWriteResult_RerunIsByteIdentical(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := PathsFor(dir, "sampled", sampling.DefaultFileConfig().Files)
	p.Workbook = ""
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	texts := []string{p.Submissions, p.Comments, p.Records, p.Metadata, p.Review, p.Summary}

	snapshot := func() map[string][]byte {
		if err := WriteResult(p, sampleResult(), "sampled", now); err != nil {
			t.Fatalf("WriteResult: %v", err)
		}
		out := make(map[string][]byte, len(texts))
		for _, path := range texts {
			b, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read %s: %v", path, err)
			}
			out[path] = b
		}
		return out
	}

	first := snapshot()
	second := snapshot()
	for _, path := range texts {
		if !bytes.Equal(first[path], second[path]) {
			t.Fatalf("%s differs between runs:\n%s\n---\n%s", filepath.Base(path), first[path], second[path])
		}
	}
	if !bytes.Contains(first[p.Metadata], []byte("2024-05-06T07:08:09Z")) {
		t.Fatalf("metadata missing generated_at:\n%s", first[p.Metadata])
	}
}

func TestPathsFor_PrefixOverridesConfiguredNames(t *testing.T) {
	t.Parallel()

	p := PathsFor("out", "conservative", sampling.DefaultFileConfig().Files)
	if p.Submissions != filepath.Join("out", "conservative_submissions.csv") {
		t.Fatalf("Submissions=%s", p.Submissions)
	}
	if p.Metadata != filepath.Join("out", "conservative_metadata.yaml") {
		t.Fatalf("Metadata=%s", p.Metadata)
	}
}
