package main

import (
	"errors"
	"path/filepath"

	"github.com/theimaginaryfoundation/aita-sampler/sampling/dataset"
)

type Config struct {
	Source      string
	Submissions string
	Comments    string
	SQLitePath  string

	OutputDir   string
	PerCategory int
	Seed        int64

	// Annotations is a labelled CSV; when set no model is called.
	Annotations string
	// TemplateOnly writes the audit sample as a labelling template and stops.
	TemplateOnly bool

	Model  string
	APIKey string

	Pretty  bool
	Verbose bool
}

func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("missing -out")
	}
	if c.PerCategory <= 0 {
		return errors.New("per-category must be > 0")
	}
	if c.Annotations != "" && c.TemplateOnly {
		return errors.New("use only one of -annotations or -template-only")
	}
	if c.Annotations == "" && !c.TemplateOnly && c.Model == "" {
		return errors.New("missing -model")
	}
	return c.source().Validate()
}

func (c Config) usesModel() bool {
	return c.Annotations == "" && !c.TemplateOnly
}

func (c Config) source() dataset.Source {
	return dataset.Source{
		Format:          dataset.Format(c.Source),
		SubmissionsPath: c.Submissions,
		CommentsPath:    c.Comments,
		SQLitePath:      c.SQLitePath,
		SQLite:          dataset.DefaultSQLiteOptions(),
	}
}

func defaultConfig() Config {
	return Config{
		Source:      string(dataset.FormatCSV),
		Submissions: filepath.Join("data", "submission.csv"),
		Comments:    filepath.Join("data", "comment.csv"),
		SQLitePath:  filepath.Join("data", dataset.DefaultSQLitePath),
		OutputDir:   filepath.Join("data", "samples", "audit"),
		PerCategory: 25,
		Seed:        42,
		Model:       "gpt-5-mini",
	}
}
