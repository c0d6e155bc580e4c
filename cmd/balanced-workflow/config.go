package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	stageSample  = "sample"
	stageExtract = "extract"
	stageSelect  = "select"
)

var allStages = []string{stageSample, stageExtract, stageSelect}

type Config struct {
	ConfigPath string
	SampleType string
	DataDir    string
	BaseDir    string

	SamplesPerCategory int
	MaxCommentChars    int
	VerdictPrefix      string
	Seed               int64

	// Interactive adds the select stage to a full run.
	Interactive bool
	SelectKind  string
	PerStratum  int

	FromStage string
	OnlyStage string

	Overwrite bool
	Verbose   bool
}

func (c Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("missing -data-dir")
	}
	if c.BaseDir == "" {
		return errors.New("missing -base-dir")
	}
	if c.SamplesPerCategory <= 0 {
		return errors.New("samples-per-category must be > 0")
	}
	if c.MaxCommentChars <= 0 {
		return errors.New("max-comment-chars must be > 0")
	}
	if c.PerStratum < 0 {
		return errors.New("per-stratum must be >= 0")
	}
	if c.SelectKind != "submissions" && c.SelectKind != "comments" {
		return fmt.Errorf("-select-kind must be submissions or comments, got %q", c.SelectKind)
	}
	if c.OnlyStage != "" && c.FromStage != "" {
		return errors.New("use only one of -only-stage or -from-stage")
	}
	for _, s := range []string{c.OnlyStage, c.FromStage} {
		if s != "" && !knownStage(s) {
			return fmt.Errorf("unknown stage %q (want %s)", s, strings.Join(allStages, "|"))
		}
	}
	return nil
}

func knownStage(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, st := range allStages {
		if st == s {
			return true
		}
	}
	return false
}

func defaultConfig() Config {
	return Config{
		ConfigPath:         "sampling_config.yaml",
		DataDir:            "data",
		BaseDir:            "data",
		SamplesPerCategory: 10,
		MaxCommentChars:    500,
		VerdictPrefix:      "verdict",
		Seed:               42,
		SelectKind:         "comments",
		PerStratum:         0,
	}
}

// layout is where each stage reads and writes.
type layout struct {
	samplesDir   string
	verdictDir   string
	favoritesDir string
}

func (c Config) layout() layout {
	base := filepath.Clean(c.BaseDir)
	samples := filepath.Join(base, "samples")
	return layout{
		samplesDir:   samples,
		verdictDir:   filepath.Join(samples, "verdict"),
		favoritesDir: filepath.Join(base, "favorites"),
	}
}

func (c Config) samplePrefix() string {
	if c.SampleType != "" {
		return c.SampleType
	}
	return "sampled"
}
