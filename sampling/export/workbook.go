package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/theimaginaryfoundation/aita-sampler/sampling"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/fileutils"
)

const (
	SheetSubmissions = "Submissions"
	SheetComments    = "Comments"
	SheetSummary     = "Summary"
)

// WriteReviewWorkbook writes an XLSX workbook with the sampled submissions, their top
// comments and the per-stratum draw summary, one sheet each.
func WriteReviewWorkbook(path string, records []sampling.SampleRecord, draws []sampling.Draw) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSubmissions); err != nil {
		return fmt.Errorf("WriteReviewWorkbook: %w", err)
	}
	if err := writeSheetRow(f, SheetSubmissions, 1, toCells(submissionHeader)); err != nil {
		return err
	}
	row := 2
	for _, rec := range records {
		s := rec.Submission
		var avg interface{} = ""
		if s.AvgCommentScore != nil {
			avg = *s.AvgCommentScore
		}
		values := []interface{}{
			rec.Stratum, rec.Rank, s.ID, s.SubmissionID, s.Title, s.Selftext, s.CreatedUTC, s.Permalink, s.Score,
			s.CommentCount, avg, s.EngagementTier, string(s.DominantVerdict), s.VerdictCount,
		}
		if err := writeSheetRow(f, SheetSubmissions, row, values); err != nil {
			return err
		}
		row++
	}

	if _, err := f.NewSheet(SheetComments); err != nil {
		return fmt.Errorf("WriteReviewWorkbook: %w", err)
	}
	if err := writeSheetRow(f, SheetComments, 1, toCells(commentHeader)); err != nil {
		return err
	}
	row = 2
	for _, rec := range records {
		for _, c := range rec.TopComments {
			values := []interface{}{
				c.Stratum, c.SubmissionID, c.Rank, c.ID, c.CommentID, c.ParentID, c.Message, c.CreatedUTC, c.Score, string(c.Verdict),
			}
			if err := writeSheetRow(f, SheetComments, row, values); err != nil {
				return err
			}
			row++
		}
	}

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("WriteReviewWorkbook: %w", err)
	}
	if err := writeSheetRow(f, SheetSummary, 1, []interface{}{"stratum", "requested", "available", "drawn", "shortfall"}); err != nil {
		return err
	}
	for i, d := range draws {
		if err := writeSheetRow(f, SheetSummary, i+2, []interface{}{d.Label, d.Requested, d.Available, len(d.Drawn), d.Shortfall}); err != nil {
			return err
		}
	}

	for _, sheet := range []string{SheetSubmissions, SheetComments} {
		if err := f.SetColWidth(sheet, "A", "D", 16); err != nil {
			return fmt.Errorf("WriteReviewWorkbook: %w", err)
		}
	}

	err := fileutils.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return f.Write(w)
	})
	if err != nil {
		return fmt.Errorf("WriteReviewWorkbook: %s: %w", path, err)
	}
	return nil
}

func toCells(header []string) []interface{} {
	out := make([]interface{}, len(header))
	for i, h := range header {
		out[i] = h
	}
	return out
}

func writeSheetRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("writeSheetRow: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("writeSheetRow: %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}
