package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/theimaginaryfoundation/aita-sampler/sampling"
)

// DefaultSQLitePath is the file name of the published AITA snapshot.
const DefaultSQLitePath = "AmItheAsshole.sqlite"

type SQLiteOptions struct {
	SubmissionTable string
	CommentTable    string
}

func DefaultSQLiteOptions() SQLiteOptions {
	return SQLiteOptions{SubmissionTable: SubmissionTable, CommentTable: CommentTable}
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type columnInfo struct {
	CID          int            `db:"cid"`
	Name         string         `db:"name"`
	Type         string         `db:"type"`
	NotNull      int            `db:"notnull"`
	DefaultValue sql.NullString `db:"dflt_value"`
	PK           int            `db:"pk"`
}

type submissionRow struct {
	ID           sql.NullInt64   `db:"id"`
	SubmissionID sql.NullString  `db:"submission_id"`
	Title        sql.NullString  `db:"title"`
	Selftext     sql.NullString  `db:"selftext"`
	CreatedUTC   sql.NullString  `db:"created_utc"`
	Permalink    sql.NullString  `db:"permalink"`
	Score        sql.NullFloat64 `db:"score"`
}

type commentRow struct {
	ID           sql.NullInt64   `db:"id"`
	SubmissionID sql.NullString  `db:"submission_id"`
	Message      sql.NullString  `db:"message"`
	CommentID    sql.NullString  `db:"comment_id"`
	ParentID     sql.NullString  `db:"parent_id"`
	CreatedUTC   sql.NullString  `db:"created_utc"`
	Score        sql.NullFloat64 `db:"score"`
}

// OpenSQLite opens a snapshot file read-write through the pure-Go driver.
func OpenSQLite(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("OpenSQLite: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// LoadSQLite reads both tables from a snapshot. Every column must exist; null numeric cells
// load as 0 and are counted in Dataset.Defaulted.
func LoadSQLite(ctx context.Context, path string, opts SQLiteOptions) (sampling.Dataset, error) {
	if opts.SubmissionTable == "" {
		opts.SubmissionTable = SubmissionTable
	}
	if opts.CommentTable == "" {
		opts.CommentTable = CommentTable
	}
	db, err := OpenSQLite(path)
	if err != nil {
		return sampling.Dataset{}, err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return sampling.Dataset{}, &sampling.InputError{Table: opts.SubmissionTable, Reason: fmt.Sprintf("open %s: %v", path, err)}
	}

	counts := defaults{}
	subs, err := loadSubmissions(ctx, db, opts.SubmissionTable, counts)
	if err != nil {
		return sampling.Dataset{}, err
	}
	comments, err := loadComments(ctx, db, opts.CommentTable, counts)
	if err != nil {
		return sampling.Dataset{}, err
	}
	ds := sampling.Dataset{Submissions: subs, Comments: comments}
	counts.merge(&ds)
	return ds, nil
}

// countNulls records which of the numeric cells of one row were null.
func countNulls(table string, counts defaults, id sql.NullInt64, created sql.NullString, score sql.NullFloat64) {
	if !id.Valid {
		counts.add(table, "id")
	}
	if !created.Valid || strings.TrimSpace(created.String) == "" || isNull(created.String) {
		counts.add(table, "created_utc")
	}
	if !score.Valid || math.IsNaN(score.Float64) || math.IsInf(score.Float64, 0) {
		counts.add(table, "score")
	}
}

func loadSubmissions(ctx context.Context, db *sqlx.DB, table string, counts defaults) ([]sampling.Submission, error) {
	query, err := selectQuery(ctx, db, table, submissionColumns)
	if err != nil {
		return nil, err
	}
	var rows []submissionRow
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("loadSubmissions: %s: %w", table, err)
	}
	if len(rows) == 0 {
		return nil, &sampling.InputError{Table: table, Reason: "table is empty"}
	}
	out := make([]sampling.Submission, 0, len(rows))
	for i, r := range rows {
		created, err := nullTimestamp(r.CreatedUTC)
		if err != nil {
			return nil, &sampling.InputError{Table: table, Reason: fmt.Sprintf("row %d: created_utc: %v", i+1, err)}
		}
		countNulls(table, counts, r.ID, r.CreatedUTC, r.Score)
		out = append(out, sampling.Submission{
			ID:           r.ID.Int64,
			SubmissionID: r.SubmissionID.String,
			Title:        r.Title.String,
			Selftext:     r.Selftext.String,
			CreatedUTC:   created,
			Permalink:    r.Permalink.String,
			Score:        nullScore(r.Score),
		})
	}
	return out, nil
}

func loadComments(ctx context.Context, db *sqlx.DB, table string, counts defaults) ([]sampling.Comment, error) {
	query, err := selectQuery(ctx, db, table, commentColumns)
	if err != nil {
		return nil, err
	}
	var rows []commentRow
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("loadComments: %s: %w", table, err)
	}
	if len(rows) == 0 {
		return nil, &sampling.InputError{Table: table, Reason: "table is empty"}
	}
	out := make([]sampling.Comment, 0, len(rows))
	for i, r := range rows {
		created, err := nullTimestamp(r.CreatedUTC)
		if err != nil {
			return nil, &sampling.InputError{Table: table, Reason: fmt.Sprintf("row %d: created_utc: %v", i+1, err)}
		}
		countNulls(table, counts, r.ID, r.CreatedUTC, r.Score)
		out = append(out, sampling.Comment{
			ID:           r.ID.Int64,
			SubmissionID: r.SubmissionID.String,
			Message:      r.Message.String,
			CommentID:    r.CommentID.String,
			ParentID:     r.ParentID.String,
			CreatedUTC:   created,
			Score:        nullScore(r.Score),
		})
	}
	return out, nil
}

// selectQuery checks that the table has every column and builds the SELECT for them.
func selectQuery(ctx context.Context, db *sqlx.DB, table string, columns []string) (string, error) {
	if !identifierRe.MatchString(table) {
		return "", &sampling.InputError{Table: table, Reason: "invalid table name"}
	}
	var info []columnInfo
	if err := db.SelectContext(ctx, &info, fmt.Sprintf("PRAGMA table_info(%s)", table)); err != nil {
		return "", fmt.Errorf("selectQuery: table_info %s: %w", table, err)
	}
	if len(info) == 0 {
		return "", &sampling.InputError{Table: table, Reason: "table does not exist"}
	}
	present := make(map[string]bool, len(info))
	for _, c := range info {
		present[strings.ToLower(c.Name)] = true
	}
	var missing []string
	for _, col := range columns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return "", &sampling.InputError{Table: table, Reason: fmt.Sprintf("missing columns: %s", strings.Join(missing, ", "))}
	}

	exprs := make([]string, 0, len(columns))
	for _, col := range columns {
		if col == "created_utc" {
			exprs = append(exprs, "CAST(created_utc AS TEXT) AS created_utc")
			continue
		}
		exprs = append(exprs, col)
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(exprs, ", "), table), nil
}

func nullTimestamp(v sql.NullString) (int64, error) {
	if !v.Valid || strings.TrimSpace(v.String) == "" || isNull(v.String) {
		return 0, nil
	}
	return ParseTimestamp(v.String)
}

func nullScore(v sql.NullFloat64) int {
	if !v.Valid || math.IsNaN(v.Float64) || math.IsInf(v.Float64, 0) {
		return 0
	}
	return int(v.Float64)
}
