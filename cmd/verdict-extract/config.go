package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/theimaginaryfoundation/aita-sampler/sampling"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/dataset"
)

type Config struct {
	Source      string
	Submissions string
	Comments    string
	SQLitePath  string

	OutputDir    string
	OutputPrefix string

	SamplesPerCategory int
	MaxCommentChars    int
	Policy             string
	Seed               int64

	Verbose bool
}

func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("missing -out")
	}
	if c.SamplesPerCategory <= 0 {
		return errors.New("samples-per-category must be > 0")
	}
	if c.MaxCommentChars <= 0 {
		return errors.New("max-comment-chars must be > 0")
	}
	switch sampling.DrawPolicy(c.Policy) {
	case sampling.DrawOrdered, sampling.DrawRandom:
	default:
		return fmt.Errorf("-policy must be ordered or random, got %q", c.Policy)
	}
	return c.source().Validate()
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

func (c Config) options() sampling.CommentSampleOptions {
	return sampling.CommentSampleOptions{
		MaxCommentChars: c.MaxCommentChars,
		PerCategory:     c.SamplesPerCategory,
		Policy:          sampling.DrawPolicy(c.Policy),
		Seed:            c.Seed,
	}
}

func defaultConfig() Config {
	return Config{
		Source:             string(dataset.FormatCSV),
		Submissions:        filepath.Join("data", "submission.csv"),
		Comments:           filepath.Join("data", "comment.csv"),
		SQLitePath:         filepath.Join("data", dataset.DefaultSQLitePath),
		OutputDir:          filepath.Join("data", "samples", "verdict"),
		OutputPrefix:       "verdict",
		SamplesPerCategory: 10,
		MaxCommentChars:    500,
		Policy:             string(sampling.DrawRandom),
		Seed:               sampling.DefaultConfig().Seed(),
	}
}
