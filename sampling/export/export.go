package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theimaginaryfoundation/aita-sampler/sampling"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/fileutils"
)

// Paths are the files written for one sample run.
type Paths struct {
	Submissions string
	Comments    string
	Records     string
	Metadata    string
	Review      string
	Summary     string
	Workbook    string
}

// PathsFor lays out a run's outputs under dir. Names come from files, prefixed by prefix.
func PathsFor(dir, prefix string, files sampling.FileNames) Paths {
	if prefix == "" {
		prefix = "sampled"
	}
	named := func(configured, suffix string) string {
		if configured != "" && prefix == "sampled" {
			return filepath.Join(dir, configured)
		}
		return filepath.Join(dir, prefix+suffix)
	}
	return Paths{
		Submissions: named(files.SampledSubmissions, "_submissions.csv"),
		Comments:    named(files.SampledComments, "_comments.csv"),
		Records:     filepath.Join(dir, prefix+"_records.jsonl"),
		Metadata:    named(files.Metadata, "_metadata.yaml"),
		Review:      named(files.Review, "_review.txt"),
		Summary:     filepath.Join(dir, prefix+"_summary.txt"),
		Workbook:    filepath.Join(dir, prefix+"_review.xlsx"),
	}
}

func (p Paths) asMap() map[string]string {
	m := map[string]string{
		"submissions_csv": p.Submissions,
		"comments_csv":    p.Comments,
		"records_jsonl":   p.Records,
		"metadata_yaml":   p.Metadata,
		"review_txt":      p.Review,
		"summary_txt":     p.Summary,
		"review_xlsx":     p.Workbook,
	}
	for k, v := range m {
		if v == "" {
			delete(m, k)
		}
	}
	return m
}

// WriteResult writes every output of a run; an empty Workbook path skips the workbook.
// Metadata is written last so its presence marks a complete sample directory.
func WriteResult(p Paths, res sampling.Result, title string, now time.Time) error {
	if err := os.MkdirAll(filepath.Dir(p.Metadata), 0o755); err != nil {
		return fmt.Errorf("WriteResult: mkdir: %w", err)
	}
	if err := WriteSubmissionsCSV(p.Submissions, res.Records); err != nil {
		return err
	}
	if err := WriteCommentsCSV(p.Comments, res.CommentTable()); err != nil {
		return err
	}
	if err := fileutils.WriteJSONLinesAtomic(p.Records, res.Records); err != nil {
		return fmt.Errorf("WriteResult: records: %w", err)
	}
	opts := ReviewOptions{
		Title:  fmt.Sprintf("SAMPLE REVIEW - %s", strings.ToUpper(title)),
		Mode:   res.Metadata.Config.StratificationMode,
		Labels: res.Metadata.Strata.Labels,
		Now:    now,
	}
	if err := WriteReviewFile(p.Review, res.Records, opts); err != nil {
		return err
	}
	if err := WriteSummaryFile(p.Summary, title, res.Metadata.Statistics); err != nil {
		return err
	}
	if p.Workbook != "" {
		if err := WriteReviewWorkbook(p.Workbook, res.Records, res.Metadata.Draws); err != nil {
			return err
		}
	}
	return WriteMetadataYAML(p.Metadata, NewMetadata(res.Metadata, p.asMap(), now))
}
