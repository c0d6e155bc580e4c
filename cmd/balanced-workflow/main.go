package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/theimaginaryfoundation/aita-sampler/sampling/fileutils"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, st := range plan(cfg) {
		if !cfg.Overwrite && fileutils.FileExists(st.output) {
			fmt.Fprintf(os.Stdout, "skip %s: %s already exists\n", st.name, st.output)
			continue
		}
		if err := runGo(ctx, st.interactive, st.args...); err != nil {
			fmt.Fprintf(os.Stderr, "workflow failed at %s stage\n", st.name)
			os.Exit(1)
		}
	}

	l := cfg.layout()
	for _, dir := range []string{l.samplesDir, l.verdictDir, l.favoritesDir} {
		listOutputs(dir)
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.ConfigPath, "config", cfg.ConfigPath, "Sampling YAML config passed to the sample stage")
	fs.StringVar(&cfg.SampleType, "sample-type", "", "Named preset for the sample stage (conservative|standard|large)")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory holding submission.csv and comment.csv")
	fs.StringVar(&cfg.BaseDir, "base-dir", cfg.BaseDir, "Base output directory; samples/ and favorites/ are created under it")
	fs.IntVar(&cfg.SamplesPerCategory, "samples-per-category", cfg.SamplesPerCategory, "Balanced comments drawn per verdict")
	fs.IntVar(&cfg.MaxCommentChars, "max-comment-chars", cfg.MaxCommentChars, "Maximum comment length for the balanced sample")
	fs.StringVar(&cfg.VerdictPrefix, "output-prefix", cfg.VerdictPrefix, "File prefix for the verdict extraction outputs")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Seed passed to every stage")
	fs.BoolVar(&cfg.Interactive, "interactive", false, "Run interactive selection after the balanced sample")
	fs.StringVar(&cfg.SelectKind, "select-kind", cfg.SelectKind, "What the select stage offers: submissions|comments")
	fs.IntVar(&cfg.PerStratum, "per-stratum", cfg.PerStratum, "Items shown per stratum in the select stage (0 = all)")
	fs.StringVar(&cfg.FromStage, "from-stage", "", "Start at stage: sample|extract|select")
	fs.StringVar(&cfg.OnlyStage, "only-stage", "", "Run only one stage: sample|extract|select")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Rerun stages whose outputs already exist")
	fs.BoolVar(&cfg.Verbose, "v", false, "Debug logging in every stage")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags]\n\n", fs.Name())
		fmt.Fprintln(fs.Output(), "Runs the stratified sample, the verdict-balanced comment sample and, optionally, interactive selection.")
		fmt.Fprintln(fs.Output(), "\nExample:\n  go run ./cmd/balanced-workflow -sample-type standard -samples-per-category 15 -interactive")
		fmt.Fprintln(fs.Output(), "\nFlags:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.DataDir = filepath.Clean(cfg.DataDir)
	cfg.BaseDir = filepath.Clean(cfg.BaseDir)
	return cfg, nil
}

// step is one `go run` invocation. A step is skipped when output exists.
type step struct {
	name        string
	args        []string
	output      string
	interactive bool
}

func plan(cfg Config) []step {
	stages := []string{stageSample, stageExtract}
	if cfg.Interactive {
		stages = append(stages, stageSelect)
	}
	switch {
	case cfg.OnlyStage != "":
		stages = []string{strings.ToLower(strings.TrimSpace(cfg.OnlyStage))}
	case cfg.FromStage != "":
		stages = stagesFrom(allStages, cfg.FromStage)
		if !cfg.Interactive && len(stages) > 1 {
			stages = stages[:len(stages)-1]
		}
	}

	l := cfg.layout()
	seed := strconv.FormatInt(cfg.Seed, 10)
	balanced := filepath.Join(l.verdictDir, cfg.VerdictPrefix+"_balanced_samples.jsonl")
	records := filepath.Join(l.samplesDir, cfg.samplePrefix()+"_records.jsonl")

	var out []step
	for _, stage := range stages {
		var st step
		switch stage {
		case stageSample:
			st = step{name: stage, output: records, args: []string{
				"run", "./cmd/aita-sample",
				"-config", cfg.ConfigPath,
				"-data-dir", cfg.DataDir,
				"-out", l.samplesDir,
				"-output-prefix", cfg.samplePrefix(),
				"-seed", seed,
			}}
			if cfg.SampleType != "" {
				st.args = append(st.args, "-sample-type", cfg.SampleType)
			}
		case stageExtract:
			st = step{name: stage, output: balanced, args: []string{
				"run", "./cmd/verdict-extract",
				"-submissions", filepath.Join(cfg.DataDir, "submission.csv"),
				"-comments", filepath.Join(cfg.DataDir, "comment.csv"),
				"-out", l.verdictDir,
				"-output-prefix", cfg.VerdictPrefix,
				"-samples-per-category", strconv.Itoa(cfg.SamplesPerCategory),
				"-max-comment-chars", strconv.Itoa(cfg.MaxCommentChars),
				"-seed", seed,
			}}
		case stageSelect:
			in, prefix := balanced, "balanced"
			if cfg.SelectKind == "submissions" {
				in, prefix = records, "favorite"
			}
			st = step{name: stage, interactive: true, args: []string{
				"run", "./cmd/select-favorites",
				"-in", in,
				"-kind", cfg.SelectKind,
				"-out", l.favoritesDir,
				"-prefix", prefix,
				"-per-stratum", strconv.Itoa(cfg.PerStratum),
				"-seed", seed,
			}}
		}
		if cfg.Verbose && stage != stageSelect {
			st.args = append(st.args, "-v")
		}
		out = append(out, st)
	}
	return out
}

func runGo(ctx context.Context, interactive bool, args ...string) error {
	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if interactive {
		cmd.Stdin = os.Stdin
	}
	cmd.Env = os.Environ()

	start := time.Now()
	if err := cmd.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "command failed:", "go "+strings.Join(args, " "))
		fmt.Fprintln(os.Stderr, "error:", err.Error())
		return err
	}
	fmt.Fprintln(os.Stdout, "ok:", "go "+strings.Join(args, " "), "(", time.Since(start).Round(time.Millisecond).String()+")")
	return nil
}

func stagesFrom(stages []string, from string) []string {
	from = strings.ToLower(strings.TrimSpace(from))
	for i, s := range stages {
		if s == from {
			return stages[i:]
		}
	}
	return stages
}

func listOutputs(dir string) {
	ents, err := os.ReadDir(dir)
	if err != nil || len(ents) == 0 {
		return
	}
	fmt.Fprintln(os.Stdout, "outputs:", dir)
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		fmt.Fprintln(os.Stdout, "  "+e.Name())
	}
}
