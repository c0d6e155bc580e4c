package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/theimaginaryfoundation/aita-sampler/sampling"
)

const (
	kindSubmissions = "submissions"
	kindComments    = "comments"
)

type Config struct {
	// ConfigPath supplies the favorite file names; a missing file uses the built-in names.
	ConfigPath string
	InputPath  string
	Kind       string
	OutputDir  string
	Prefix     string

	// PerStratum caps how many items are shown per stratum; 0 shows all.
	PerStratum int
	Seed       int64

	NoColor bool
}

func (c Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("missing -in")
	}
	if c.OutputDir == "" {
		return errors.New("missing -out")
	}
	if c.Kind != kindSubmissions && c.Kind != kindComments {
		return fmt.Errorf("-kind must be %s or %s, got %q", kindSubmissions, kindComments, c.Kind)
	}
	if c.PerStratum < 0 {
		return errors.New("per-stratum must be >= 0")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		ConfigPath: "sampling_config.yaml",
		InputPath:  filepath.Join("data", "samples", "sampled_records.jsonl"),
		Kind:       kindSubmissions,
		OutputDir:  filepath.Join("data", "favorites"),
		Prefix:     "favorite",
		PerStratum: 2,
		Seed:       42,
	}
}

type favoritePaths struct {
	Submissions string
	Comments    string
	Records     string
	Review      string
	Decisions   string
}

// paths uses the configured favorite names for the default prefix and prefix-derived
// names otherwise.
func (c Config) paths(files sampling.FileNames) favoritePaths {
	named := func(configured, suffix string) string {
		if configured != "" && c.Prefix == "favorite" {
			return filepath.Join(c.OutputDir, configured)
		}
		return filepath.Join(c.OutputDir, c.Prefix+suffix)
	}
	return favoritePaths{
		Submissions: named(files.FavoriteSubmissions, "_submissions.csv"),
		Comments:    named(files.FavoriteComments, "_comments.csv"),
		Records:     filepath.Join(c.OutputDir, c.Prefix+"_records.jsonl"),
		Review:      named(files.FavoritesTxt, "_submissions.txt"),
		Decisions:   filepath.Join(c.OutputDir, c.Prefix+"_decisions.jsonl"),
	}
}
