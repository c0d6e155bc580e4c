package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/theimaginaryfoundation/aita-sampler/sampling"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/export"
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
	if !fileutils.FileExists(cfg.InputPath) {
		fmt.Fprintf(os.Stderr, "input not found: %s (run the sampling tool first)\n", cfg.InputPath)
		os.Exit(2)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	fc, err := sampling.LoadConfigFile(cfg.ConfigPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	color := !cfg.NoColor && isatty.IsTerminal(os.Stdout.Fd())
	ui := console{in: bufio.NewReader(os.Stdin), out: os.Stdout, color: color}
	var summary string
	switch cfg.Kind {
	case kindComments:
		summary, err = selectComments(cfg, ui)
	default:
		summary, err = selectSubmissions(cfg, cfg.paths(fc.Files), ui)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	fmt.Fprintln(os.Stdout, summary)
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.ConfigPath, "config", cfg.ConfigPath, "Sampling YAML config (only the files section is used)")
	fs.StringVar(&cfg.InputPath, "in", cfg.InputPath, "Records JSONL from the sampler, or a balanced comment JSONL with -kind comments")
	fs.StringVar(&cfg.Kind, "kind", cfg.Kind, "What is being selected: submissions|comments")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Directory to write favorites into")
	fs.StringVar(&cfg.Prefix, "prefix", cfg.Prefix, "Output file prefix")
	fs.IntVar(&cfg.PerStratum, "per-stratum", cfg.PerStratum, "Items shown per stratum (0 = all)")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Seed for choosing which items are shown")
	fs.BoolVar(&cfg.NoColor, "no-color", false, "Disable coloured output")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.InputPath = filepath.Clean(cfg.InputPath)
	cfg.OutputDir = filepath.Clean(cfg.OutputDir)
	return cfg, nil
}

type answer int

const (
	answerNo answer = iota
	answerYes
	answerQuit
)

// console is the y/n/q prompt loop.
type console struct {
	in    *bufio.Reader
	out   io.Writer
	color bool
}

func (c console) paint(colors text.Colors, s string) string {
	if !c.color {
		return s
	}
	return colors.Sprint(s)
}

// ask repeats the question until it gets y, n or q. End of input counts as quit.
func (c console) ask(question string) (answer, error) {
	for {
		fmt.Fprintf(c.out, "%s (y/n/q to quit): ", question)
		line, err := c.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return answerQuit, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return answerYes, nil
		case "n", "no":
			return answerNo, nil
		case "q", "quit":
			return answerQuit, nil
		}
		if errors.Is(err, io.EOF) {
			return answerQuit, nil
		}
		fmt.Fprintln(c.out, c.paint(text.Colors{text.FgYellow}, "Please enter 'y', 'n', or 'q'"))
	}
}

// candidate is one item offered for selection.
type candidate struct {
	Stratum string
	Key     string
	Render  func(w io.Writer)
}

type decision struct {
	Stratum  string `json:"stratum"`
	Key      string `json:"key"`
	Selected bool   `json:"selected"`
}

// pickShown chooses up to perStratum keys of each stratum, in label order.
func pickShown(labels []string, keys map[string][]string, perStratum int, seed int64) []sampling.Draw {
	drawer := sampling.NewDrawer(sampling.DrawRandom, seed)
	out := make([]sampling.Draw, 0, len(labels))
	for _, l := range labels {
		want := perStratum
		if want == 0 {
			want = len(keys[l])
		}
		out = append(out, drawer.DrawStratum(sampling.Stratum{Label: l, Members: keys[l]}, want))
	}
	return out
}

// run offers every candidate and returns the decisions made before a quit.
func (c console) run(title string, cands []candidate) ([]decision, error) {
	bar := strings.Repeat("=", 80)
	fmt.Fprintf(c.out, "%s\n%s\n%s\n", bar, c.paint(text.Colors{text.Bold}, title), bar)
	fmt.Fprintln(c.out, "For each item choose 'y' to select it, 'n' to skip, or 'q' to quit.")

	var out []decision
	selected := 0
	stratum := ""
	for i, cand := range cands {
		if cand.Stratum != stratum {
			stratum = cand.Stratum
			fmt.Fprintf(c.out, "\n--- %s ---\n", c.paint(text.Colors{text.FgCyan, text.Bold}, strings.ToUpper(stratum)))
		}
		fmt.Fprintf(c.out, "\n%s\nITEM %d/%d\n%s\n", bar, i+1, len(cands), bar)
		cand.Render(c.out)
		fmt.Fprintln(c.out, bar)

		a, err := c.ask("Select this item?")
		if err != nil {
			return out, err
		}
		if a == answerQuit {
			fmt.Fprintln(c.out, "\nSelection process ended early.")
			break
		}
		out = append(out, decision{Stratum: cand.Stratum, Key: cand.Key, Selected: a == answerYes})
		if a == answerYes {
			selected++
			fmt.Fprintln(c.out, c.paint(text.Colors{text.FgGreen}, fmt.Sprintf("Selected! (Total selected: %d)", selected)))
		} else {
			fmt.Fprintln(c.out, c.paint(text.Colors{text.FgHiBlack}, "Skipped."))
		}
	}
	return out, nil
}

func selectSubmissions(cfg Config, p favoritePaths, ui console) (string, error) {
	records, err := fileutils.ReadJSONLines[sampling.SampleRecord](cfg.InputPath)
	if err != nil {
		return "", err
	}
	labels, groups := export.GroupByStratum(records, nil)
	keys := make(map[string][]string, len(groups))
	byKey := make(map[string]sampling.SampleRecord, len(records))
	for _, r := range records {
		keys[r.Stratum] = append(keys[r.Stratum], r.Submission.SubmissionID)
		byKey[r.Submission.SubmissionID] = r
	}

	var cands []candidate
	for _, d := range pickShown(labels, keys, cfg.PerStratum, cfg.Seed) {
		for _, k := range d.Drawn {
			rec := byKey[k]
			cands = append(cands, candidate{Stratum: rec.Stratum, Key: k, Render: func(w io.Writer) { renderRecord(w, rec) }})
		}
	}

	decisions, err := ui.run("SELECTING FAVORITE SUBMISSIONS", cands)
	if err != nil {
		return "", err
	}
	var chosen []sampling.SampleRecord
	for _, d := range decisions {
		if d.Selected {
			chosen = append(chosen, byKey[d.Key])
		}
	}
	if err := writeDecisions(cfg, decisions); err != nil {
		return "", err
	}
	if len(chosen) == 0 {
		return fmt.Sprintf("shown=%d selected=0", len(decisions)), nil
	}

	subsPath, comPath, jsonlPath, txtPath := p.Submissions, p.Comments, p.Records, p.Review
	var comments []sampling.SampledComment
	for _, r := range chosen {
		comments = append(comments, r.TopComments...)
	}
	if err := export.WriteSubmissionsCSV(subsPath, chosen); err != nil {
		return "", err
	}
	if err := export.WriteCommentsCSV(comPath, comments); err != nil {
		return "", err
	}
	if err := fileutils.WriteJSONLinesAtomic(jsonlPath, chosen); err != nil {
		return "", err
	}
	if err := export.WriteReviewFile(txtPath, chosen, export.ReviewOptions{Title: "FAVORITE SUBMISSIONS", Labels: labels, Mode: modeOf(chosen), Now: time.Now()}); err != nil {
		return "", err
	}
	return fmt.Sprintf("shown=%d selected=%d comments=%d submissions_csv=%s review=%s", len(decisions), len(chosen), len(comments), subsPath, txtPath), nil
}

func modeOf(records []sampling.SampleRecord) sampling.StratificationMode {
	for _, r := range records {
		if r.Submission.EngagementTier != "" {
			return sampling.ModeEngagement
		}
	}
	return sampling.ModeVerdict
}

func selectComments(cfg Config, ui console) (string, error) {
	comments, err := fileutils.ReadJSONLines[sampling.VerdictComment](cfg.InputPath)
	if err != nil {
		return "", err
	}
	keys := make(map[string][]string)
	byKey := make(map[string]sampling.VerdictComment, len(comments))
	for _, c := range comments {
		keys[string(c.Verdict)] = append(keys[string(c.Verdict)], c.CommentID)
		byKey[c.CommentID] = c
	}
	labels := make([]string, 0, 4)
	for _, v := range sampling.AllVerdicts() {
		if len(keys[string(v)]) > 0 {
			labels = append(labels, string(v))
		}
	}

	var cands []candidate
	for _, d := range pickShown(labels, keys, cfg.PerStratum, cfg.Seed) {
		for _, k := range d.Drawn {
			vc := byKey[k]
			cands = append(cands, candidate{Stratum: d.Label, Key: k, Render: func(w io.Writer) { renderVerdictComment(w, vc) }})
		}
	}

	decisions, err := ui.run("SELECTING FAVORITE VERDICT COMMENTS", cands)
	if err != nil {
		return "", err
	}
	if err := writeDecisions(cfg, decisions); err != nil {
		return "", err
	}
	var chosen []sampling.VerdictComment
	for _, d := range decisions {
		if d.Selected {
			chosen = append(chosen, byKey[d.Key])
		}
	}
	if len(chosen) == 0 {
		return fmt.Sprintf("shown=%d selected=0", len(decisions)), nil
	}
	csvPath := filepath.Join(cfg.OutputDir, cfg.Prefix+"_verdict_comments.csv")
	if err := export.WriteVerdictCommentsCSV(csvPath, chosen); err != nil {
		return "", err
	}
	return fmt.Sprintf("shown=%d selected=%d comments_csv=%s", len(decisions), len(chosen), csvPath), nil
}

func writeDecisions(cfg Config, decisions []decision) error {
	if len(decisions) == 0 {
		return nil
	}
	return fileutils.WriteJSONLinesAtomic(filepath.Join(cfg.OutputDir, cfg.Prefix+"_decisions.jsonl"), decisions)
}

func renderRecord(w io.Writer, r sampling.SampleRecord) {
	s := r.Submission
	fmt.Fprintf(w, "ID: %s\n", s.SubmissionID)
	fmt.Fprintf(w, "Title: %s\n", s.Title)
	fmt.Fprintf(w, "Score: %d\n", s.Score)
	fmt.Fprintf(w, "Stratum: %s\n", r.Stratum)
	fmt.Fprintf(w, "Comment Count: %d\n", s.CommentCount)
	fmt.Fprintf(w, "Length: %d characters\n", utf8.RuneCountInString(s.Selftext))
	fmt.Fprintf(w, "\nTEXT:\n%s\n", s.Selftext)
	if len(r.TopComments) > 0 {
		fmt.Fprintln(w, "\nTOP COMMENTS:")
		for _, c := range r.TopComments {
			fmt.Fprintf(w, "\nComment %d (Score: %d, %s):\n%s\n", c.Rank, c.Score, c.Verdict, c.Message)
		}
	}
}

func renderVerdictComment(w io.Writer, c sampling.VerdictComment) {
	fmt.Fprintf(w, "Verdict: %s (%s)\n", c.Verdict, c.Verdict.Description())
	fmt.Fprintf(w, "Comment: %s on submission %s\n", c.CommentID, c.SubmissionID)
	fmt.Fprintf(w, "Score: %d\n", c.Score)
	fmt.Fprintf(w, "Length: %d characters\n", c.CommentLength)
	fmt.Fprintf(w, "\nTEXT:\n%s\n", c.Message)
}
