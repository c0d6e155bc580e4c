// Package dataset loads submission and comment tables from CSV exports or the
// original SQLite snapshot, and writes the raw tables back out as CSV.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/theimaginaryfoundation/aita-sampler/sampling"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/fileutils"
)

const (
	SubmissionTable = "submission"
	CommentTable    = "comment"
)

// Every column is required in both tables.
var (
	submissionColumns = []string{"id", "submission_id", "title", "selftext", "created_utc", "permalink", "score"}
	commentColumns    = []string{"id", "submission_id", "message", "comment_id", "parent_id", "created_utc", "score"}
)

// numericColumns are counted in Dataset.Defaulted when a cell is null or blank.
var numericColumns = []string{"id", "created_utc", "score"}

// defaults tallies numeric cells that were null or blank.
type defaults map[string]int

func (d defaults) add(table, col string) { d[table+"."+col]++ }

// merge folds counts into the dataset, leaving Defaulted nil when nothing was defaulted.
func (d defaults) merge(ds *sampling.Dataset) {
	for k, n := range d {
		if ds.Defaulted == nil {
			ds.Defaulted = make(map[string]int, len(d))
		}
		ds.Defaulted[k] += n
	}
}

// LoadCSV reads both tables. Missing columns and empty tables are *sampling.InputError.
func LoadCSV(submissionsPath, commentsPath string) (sampling.Dataset, error) {
	counts := defaults{}
	subs, err := loadSubmissionsCSV(submissionsPath, counts)
	if err != nil {
		return sampling.Dataset{}, err
	}
	comments, err := loadCommentsCSV(commentsPath, counts)
	if err != nil {
		return sampling.Dataset{}, err
	}
	ds := sampling.Dataset{Submissions: subs, Comments: comments}
	counts.merge(&ds)
	return ds, nil
}

func LoadSubmissionsCSV(path string) ([]sampling.Submission, error) {
	return loadSubmissionsCSV(path, defaults{})
}

func LoadCommentsCSV(path string) ([]sampling.Comment, error) {
	return loadCommentsCSV(path, defaults{})
}

func (r row) countBlank(table string, counts defaults) {
	for _, col := range numericColumns {
		if strings.TrimSpace(r.str(col)) == "" {
			counts.add(table, col)
		}
	}
}

func loadSubmissionsCSV(path string, counts defaults) ([]sampling.Submission, error) {
	var out []sampling.Submission
	err := readCSV(path, SubmissionTable, submissionColumns, func(r row) error {
		r.countBlank(SubmissionTable, counts)
		id, err := r.int64Col("id")
		if err != nil {
			return err
		}
		created, err := r.timestamp("created_utc")
		if err != nil {
			return err
		}
		score, err := r.intCol("score")
		if err != nil {
			return err
		}
		out = append(out, sampling.Submission{
			ID:           id,
			SubmissionID: r.str("submission_id"),
			Title:        r.str("title"),
			Selftext:     r.str("selftext"),
			CreatedUTC:   created,
			Permalink:    r.str("permalink"),
			Score:        score,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, &sampling.InputError{Table: SubmissionTable, Reason: "table is empty"}
	}
	return out, nil
}

func loadCommentsCSV(path string, counts defaults) ([]sampling.Comment, error) {
	var out []sampling.Comment
	err := readCSV(path, CommentTable, commentColumns, func(r row) error {
		r.countBlank(CommentTable, counts)
		id, err := r.int64Col("id")
		if err != nil {
			return err
		}
		created, err := r.timestamp("created_utc")
		if err != nil {
			return err
		}
		score, err := r.intCol("score")
		if err != nil {
			return err
		}
		out = append(out, sampling.Comment{
			ID:           id,
			SubmissionID: r.str("submission_id"),
			Message:      r.str("message"),
			CommentID:    r.str("comment_id"),
			ParentID:     r.str("parent_id"),
			CreatedUTC:   created,
			Score:        score,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, &sampling.InputError{Table: CommentTable, Reason: "table is empty"}
	}
	return out, nil
}

type row struct {
	line   int
	fields []string
	index  map[string]int
}

func (r row) str(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	s := r.fields[i]
	if isNull(s) {
		return ""
	}
	return s
}

func (r row) int64Col(col string) (int64, error) {
	s := strings.TrimSpace(r.str(col))
	if s == "" {
		return 0, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("line %d: column %s: not a number: %q", r.line, col, s)
	}
	return int64(f), nil
}

func (r row) intCol(col string) (int, error) {
	v, err := r.int64Col(col)
	return int(v), err
}

func (r row) timestamp(col string) (int64, error) {
	s := strings.TrimSpace(r.str(col))
	if s == "" {
		return 0, nil
	}
	if v, err := r.int64Col(col); err == nil {
		return v, nil
	}
	ts, err := ParseTimestamp(s)
	if err != nil {
		return 0, fmt.Errorf("line %d: column %s: %w", r.line, col, err)
	}
	return ts, nil
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts unix seconds (integer or float) or a few common date layouts, as UTC.
func ParseTimestamp(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int64(f), nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.Unix(), nil
		}
	}
	return 0, fmt.Errorf("unrecognised timestamp %q", s)
}

func isNull(s string) bool {
	switch s {
	case "NaN", "nan", "NULL", "null", "None":
		return true
	}
	return false
}

func readCSV(path, table string, required []string, fn func(row) error) error {
	f, err := os.Open(path)
	if err != nil {
		return &sampling.InputError{Table: table, Reason: fmt.Sprintf("open %s: %v", path, err)}
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &sampling.InputError{Table: table, Reason: "file is empty"}
		}
		return fmt.Errorf("readCSV: %s header: %w", path, err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	var missing []string
	for _, col := range required {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &sampling.InputError{Table: table, Reason: fmt.Sprintf("missing columns: %s", strings.Join(missing, ", "))}
	}

	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("readCSV: %s: %w", path, err)
		}
		if err := fn(row{line: line, fields: rec, index: index}); err != nil {
			return &sampling.InputError{Table: table, Reason: err.Error()}
		}
	}
}

// WriteSubmissionsCSV writes the raw submissions table with the loader's column order.
func WriteSubmissionsCSV(path string, subs []sampling.Submission) error {
	return writeCSV(path, submissionColumns, len(subs), func(i int) []string {
		s := subs[i]
		return []string{
			strconv.FormatInt(s.ID, 10),
			s.SubmissionID,
			s.Title,
			s.Selftext,
			strconv.FormatInt(s.CreatedUTC, 10),
			s.Permalink,
			strconv.Itoa(s.Score),
		}
	})
}

// WriteCommentsCSV writes the raw comments table with the loader's column order.
func WriteCommentsCSV(path string, comments []sampling.Comment) error {
	return writeCSV(path, commentColumns, len(comments), func(i int) []string {
		c := comments[i]
		return []string{
			strconv.FormatInt(c.ID, 10),
			c.SubmissionID,
			c.Message,
			c.CommentID,
			c.ParentID,
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
