package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/theimaginaryfoundation/aita-sampler/sampling"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/dataset"
)

type Config struct {
	ConfigPath string
	SampleType string

	Source      string
	DataDir     string
	Submissions string
	Comments    string
	SQLitePath  string

	OutputDir    string
	OutputPrefix string

	MaxSubmissionChars    int
	MaxCommentChars       int
	TargetN               int
	OversampleFactor      int
	CommentsPerSubmission int
	Mode                  string
	Policy                string
	Seed                  int64
	TieBreakOrder         string
	IncludeNone           bool

	NoWorkbook bool
	Verbose    bool

	// set records which flags were passed explicitly; only those override the config file.
	set map[string]bool
}

func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("missing -out")
	}
	switch dataset.Format(c.Source) {
	case dataset.FormatCSV:
		if c.DataDir == "" && (c.Submissions == "" || c.Comments == "") {
			return errors.New("csv source needs -data-dir or both -submissions and -comments")
		}
	case dataset.FormatSQLite:
		if c.SQLitePath == "" {
			return errors.New("missing -sqlite")
		}
	default:
		return fmt.Errorf("-source must be csv or sqlite, got %q", c.Source)
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		ConfigPath: "sampling_config.yaml",
		Source:     string(dataset.FormatCSV),
		DataDir:    "data",
		SQLitePath: filepath.Join("data", dataset.DefaultSQLitePath),
		OutputDir:  filepath.Join("data", "samples"),
	}
}

// source resolves input paths. Explicit -submissions/-comments win over -data-dir joined
// with the configured file names.
func (c Config) source(files sampling.FileNames) dataset.Source {
	src := dataset.Source{Format: dataset.Format(c.Source), SQLitePath: c.SQLitePath, SQLite: dataset.DefaultSQLiteOptions()}
	src.SubmissionsPath = c.Submissions
	if src.SubmissionsPath == "" {
		src.SubmissionsPath = filepath.Join(c.DataDir, files.Submissions)
	}
	src.CommentsPath = c.Comments
	if src.CommentsPath == "" {
		src.CommentsPath = filepath.Join(c.DataDir, files.Comments)
	}
	return src
}

// overlay turns explicitly set sampling flags into a config overlay.
func (c Config) overlay() (sampling.Overlay, error) {
	var o sampling.Overlay
	intFlag := func(name string, v int) *int {
		if !c.set[name] {
			return nil
		}
		return &v
	}
	o.MaxSubmissionChars = intFlag("max-submission-chars", c.MaxSubmissionChars)
	o.MaxCommentChars = intFlag("max-comment-chars", c.MaxCommentChars)
	o.TargetN = intFlag("target-n", c.TargetN)
	o.OversampleFactor = intFlag("oversample-factor", c.OversampleFactor)
	o.CommentsPerSubmission = intFlag("comments-per-submission", c.CommentsPerSubmission)
	if c.set["mode"] {
		m := sampling.StratificationMode(c.Mode)
		o.StratificationMode = &m
	}
	if c.set["policy"] {
		p := sampling.DrawPolicy(c.Policy)
		o.DrawPolicy = &p
	}
	if c.set["seed"] {
		s := c.Seed
		o.RandomSeed = &s
	}
	if c.set["include-none"] {
		v := c.IncludeNone
		o.IncludeNoneStratum = &v
	}
	if c.set["tie-break"] {
		order, err := parseTieBreak(c.TieBreakOrder)
		if err != nil {
			return sampling.Overlay{}, err
		}
		o.TieBreakOrder = order
	}
	return o, nil
}

func parseTieBreak(s string) ([]sampling.Verdict, error) {
	var out []sampling.Verdict
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := sampling.ParseVerdict(strings.ToUpper(part))
		if err != nil {
			return nil, &sampling.ConfigurationError{Field: "category_tie_break_order", Reason: err.Error()}
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, &sampling.ConfigurationError{Field: "category_tie_break_order", Reason: "empty order"}
	}
	return out, nil
}

// resolve applies built-in defaults, the config file, the -sample-type preset and then
// explicit flags, in that order.
func resolve(fc sampling.FileConfig, c Config) (sampling.Config, string, error) {
	base, err := fc.Resolve(c.SampleType)
	if err != nil {
		return sampling.Config{}, "", err
	}
	o, err := c.overlay()
	if err != nil {
		return sampling.Config{}, "", err
	}
	cfg := o.Apply(base)
	if err := cfg.Validate(); err != nil {
		return sampling.Config{}, "", err
	}

	prefix := c.OutputPrefix
	if prefix == "" && c.SampleType != "" {
		prefix = fc.Sampling[c.SampleType].OutputPrefix
		if prefix == "" {
			prefix = c.SampleType
		}
	}
	if prefix == "" {
		prefix = fc.Defaults.OutputPrefix
	}
	return cfg, prefix, nil
}
