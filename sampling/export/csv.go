// Package export writes sampling results to the files researchers review: CSV tables,
// JSONL records, a YAML metadata file, plain-text reviews and an XLSX workbook.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/theimaginaryfoundation/aita-sampler/sampling"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/fileutils"
)

var (
	submissionHeader = []string{
		"stratum", "rank", "id", "submission_id", "title", "selftext", "created_utc", "permalink", "score",
		"comment_count", "avg_comment_score", "engagement_tier", "dominant_verdict", "verdict_count",
	}
	commentHeader = []string{
		"stratum", "submission_id", "rank", "id", "comment_id", "parent_id", "message", "created_utc", "score", "verdict",
	}
	verdictCommentHeader = []string{
		"verdict", "rank", "id", "submission_id", "comment_id", "parent_id", "message", "comment_length", "created_utc", "score",
	}
)

// FormatAvg renders an average comment score, or "" when the submission had no comments.
func FormatAvg(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func submissionRow(rec sampling.SampleRecord) []string {
	s := rec.Submission
	return []string{
		rec.Stratum,
		strconv.Itoa(rec.Rank),
		strconv.FormatInt(s.ID, 10),
		s.SubmissionID,
		s.Title,
		s.Selftext,
		strconv.FormatInt(s.CreatedUTC, 10),
		s.Permalink,
		strconv.Itoa(s.Score),
		strconv.Itoa(s.CommentCount),
		FormatAvg(s.AvgCommentScore),
		s.EngagementTier,
		string(s.DominantVerdict),
		strconv.Itoa(s.VerdictCount),
	}
}

func commentRow(c sampling.SampledComment) []string {
	return []string{
		c.Stratum,
		c.SubmissionID,
		strconv.Itoa(c.Rank),
		strconv.FormatInt(c.ID, 10),
		c.CommentID,
		c.ParentID,
		c.Message,
		strconv.FormatInt(c.CreatedUTC, 10),
		strconv.Itoa(c.Score),
		string(c.Verdict),
	}
}

// WriteSubmissionsCSV writes one row per sampled submission, grouped by stratum in draw order.
func WriteSubmissionsCSV(path string, records []sampling.SampleRecord) error {
	return writeCSV(path, submissionHeader, len(records), func(i int) []string {
		return submissionRow(records[i])
	})
}

// WriteCommentsCSV writes the attached top comments.
func WriteCommentsCSV(path string, comments []sampling.SampledComment) error {
	return writeCSV(path, commentHeader, len(comments), func(i int) []string {
		return commentRow(comments[i])
	})
}

// WriteVerdictCommentsCSV writes comment-level verdict samples.
func WriteVerdictCommentsCSV(path string, comments []sampling.VerdictComment) error {
	return writeCSV(path, verdictCommentHeader, len(comments), func(i int) []string {
		c := comments[i]
		rank := ""
		if c.Rank > 0 {
			rank = strconv.Itoa(c.Rank)
		}
		return []string{
			string(c.Verdict),
			rank,
			strconv.FormatInt(c.ID, 10),
			c.SubmissionID,
			c.CommentID,
			c.ParentID,
			c.Message,
			strconv.Itoa(c.CommentLength),
			strconv.FormatInt(c.CreatedUTC, 10),
			strconv.Itoa(c.Score),
		}
	})
}

func writeCSV(path string, header []string, n int, rowAt func(int) []string) error {
	err := fileutils.WriteAtomic(path, 0o644, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if err := cw.Write(rowAt(i)); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		return fmt.Errorf("writeCSV: %s: %w", path, err)
	}
	return nil
}
