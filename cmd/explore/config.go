package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/theimaginaryfoundation/aita-sampler/sampling"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/dataset"
)

type Config struct {
	Source      string
	Submissions string
	Comments    string
	SQLitePath  string

	SubmissionLimits string
	CommentLimits    string
	PreviewN         int
	PreviewMaxChars  int
	Seed             int64

	// JSONOut optionally writes the full report as JSON.
	JSONOut string
	Verbose bool
}

func (c Config) Validate() error {
	if c.PreviewN < 0 {
		return errors.New("preview must be >= 0")
	}
	if _, err := parseLimits(c.SubmissionLimits); err != nil {
		return fmt.Errorf("-submission-limits: %w", err)
	}
	if _, err := parseLimits(c.CommentLimits); err != nil {
		return fmt.Errorf("-comment-limits: %w", err)
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

func (c Config) options() sampling.ExploreOptions {
	opts := sampling.DefaultExploreOptions()
	if v, err := parseLimits(c.SubmissionLimits); err == nil && len(v) > 0 {
		opts.SubmissionLimits = v
	}
	if v, err := parseLimits(c.CommentLimits); err == nil && len(v) > 0 {
		opts.CommentLimits = v
	}
	opts.PreviewN = c.PreviewN
	if c.PreviewMaxChars > 0 {
		opts.PreviewMaxChars = c.PreviewMaxChars
	}
	opts.Seed = c.Seed
	return opts
}

func parseLimits(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid limit %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func defaultConfig() Config {
	def := sampling.DefaultExploreOptions()
	return Config{
		Source:           string(dataset.FormatCSV),
		Submissions:      filepath.Join("data", "submission.csv"),
		Comments:         filepath.Join("data", "comment.csv"),
		SQLitePath:       filepath.Join("data", dataset.DefaultSQLitePath),
		SubmissionLimits: joinInts(def.SubmissionLimits),
		CommentLimits:    joinInts(def.CommentLimits),
		PreviewN:         def.PreviewN,
		PreviewMaxChars:  def.PreviewMaxChars,
		Seed:             def.Seed,
	}
}
