package main

import (
	"errors"
	"path/filepath"

	"github.com/theimaginaryfoundation/aita-sampler/sampling/dataset"
)

type Config struct {
	SQLitePath      string
	SubmissionTable string
	CommentTable    string

	OutputDir       string
	SubmissionsName string
	CommentsName    string

	Overwrite bool
	Verbose   bool
}

func (c Config) Validate() error {
	if c.SQLitePath == "" {
		return errors.New("missing -sqlite")
	}
	if c.OutputDir == "" {
		return errors.New("missing -out")
	}
	if c.SubmissionsName == "" || c.CommentsName == "" {
		return errors.New("output file names must be set")
	}
	if c.SubmissionsName == c.CommentsName {
		return errors.New("submissions and comments outputs must differ")
	}
	if c.SubmissionTable == "" || c.CommentTable == "" {
		return errors.New("table names must be set")
	}
	return nil
}

func (c Config) options() dataset.SQLiteOptions {
	return dataset.SQLiteOptions{SubmissionTable: c.SubmissionTable, CommentTable: c.CommentTable}
}

func (c Config) submissionsPath() string { return filepath.Join(c.OutputDir, c.SubmissionsName) }
func (c Config) commentsPath() string    { return filepath.Join(c.OutputDir, c.CommentsName) }

func defaultConfig() Config {
	opts := dataset.DefaultSQLiteOptions()
	return Config{
		SQLitePath:      filepath.Join("data", dataset.DefaultSQLitePath),
		SubmissionTable: opts.SubmissionTable,
		CommentTable:    opts.CommentTable,
		OutputDir:       "data",
		SubmissionsName: dataset.SubmissionTable + ".csv",
		CommentsName:    dataset.CommentTable + ".csv",
	}
}
