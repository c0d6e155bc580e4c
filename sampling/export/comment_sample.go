package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/theimaginaryfoundation/aita-sampler/sampling"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/dataset"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/fileutils"
)

// CommentSamplePaths are the files written for a comment-level verdict sample.
type CommentSamplePaths struct {
	AllVerdicts   string
	Balanced      string
	BalancedJSONL string
	Contexts      string
	Summary       string
}

func CommentSamplePathsFor(dir, prefix string) CommentSamplePaths {
	if prefix == "" {
		prefix = "verdict"
	}
	return CommentSamplePaths{
		AllVerdicts:   filepath.Join(dir, prefix+"_all_verdicts.csv"),
		Balanced:      filepath.Join(dir, prefix+"_balanced_samples.csv"),
		BalancedJSONL: filepath.Join(dir, prefix+"_balanced_samples.jsonl"),
		Contexts:      filepath.Join(dir, prefix+"_balanced_submissions.csv"),
		Summary:       filepath.Join(dir, prefix+"_summary.txt"),
	}
}

// WriteCommentSample writes every output of a comment-level sample. With no balanced
// comments only the full verdict table is written.
func WriteCommentSample(p CommentSamplePaths, cs sampling.CommentSample) error {
	if err := os.MkdirAll(filepath.Dir(p.AllVerdicts), 0o755); err != nil {
		return fmt.Errorf("WriteCommentSample: mkdir: %w", err)
	}
	if err := WriteVerdictCommentsCSV(p.AllVerdicts, cs.All); err != nil {
		return err
	}
	if len(cs.Balanced) == 0 {
		return nil
	}
	if err := WriteVerdictCommentsCSV(p.Balanced, cs.Balanced); err != nil {
		return err
	}
	if err := fileutils.WriteJSONLinesAtomic(p.BalancedJSONL, cs.Balanced); err != nil {
		return fmt.Errorf("WriteCommentSample: balanced jsonl: %w", err)
	}
	if err := dataset.WriteSubmissionsCSV(p.Contexts, cs.Contexts); err != nil {
		return err
	}
	if err := fileutils.WriteFileAtomicSameDir(p.Summary, []byte(RenderCommentSampleSummary(cs)), 0o644); err != nil {
		return fmt.Errorf("WriteCommentSample: summary: %w", err)
	}
	return nil
}

func RenderCommentSampleSummary(cs sampling.CommentSample) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Verdict Extraction Summary\n%s\n\n", strings.Repeat("=", 50))
	printer.Fprintf(&b, "Total comments with verdicts: %d\n", len(cs.All))
	printer.Fprintf(&b, "Balanced samples: %d\n", len(cs.Balanced))
	printer.Fprintf(&b, "Submission contexts: %d\n\n", len(cs.Contexts))

	b.WriteString("Verdict distribution (all):\n")
	for _, d := range sampling.Distribution(cs.All) {
		printer.Fprintf(&b, "  %s: %d\n", d.Label, d.Count)
	}
	b.WriteString("\nBalanced sample distribution:\n")
	for _, d := range sampling.Distribution(cs.Balanced) {
		printer.Fprintf(&b, "  %s: %d\n", d.Label, d.Count)
	}
	if len(cs.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range cs.Warnings {
			fmt.Fprintf(&b, "  [%s] %s\n", w.Kind, w.Message)
		}
	}
	return b.String()
}
