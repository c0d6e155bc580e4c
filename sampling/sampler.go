package sampling

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InputSummary records the size of the loaded dataset.
type InputSummary struct {
	Submissions int `json:"submissions" yaml:"submissions"`
	Comments    int `json:"comments" yaml:"comments"`
	// Defaulted counts null numeric cells the loader read as 0, keyed "table.column".
	Defaulted map[string]int `json:"defaulted,omitempty" yaml:"defaulted,omitempty"`
}

// RunMetadata is everything needed to reproduce and audit a run.
type RunMetadata struct {
	RunID      string           `json:"run_id" yaml:"run_id"`
	Config     Config           `json:"config" yaml:"config"`
	Input      InputSummary     `json:"input" yaml:"input"`
	Strata     StrataDefinition `json:"strata" yaml:"strata"`
	Filter     FilterStats      `json:"filter" yaml:"filter"`
	Draws      []Draw           `json:"draws" yaml:"draws"`
	Warnings   []Warning        `json:"warnings" yaml:"warnings"`
	Statistics Statistics       `json:"statistics" yaml:"statistics"`
}

// Result is the output of one run.
type Result struct {
	Records  []SampleRecord
	Strata   []Stratum
	Metadata RunMetadata
}

// SubmissionTable returns the enriched sampled submissions in record order.
func (r Result) SubmissionTable() []EnrichedSubmission {
	out := make([]EnrichedSubmission, 0, len(r.Records))
	for _, rec := range r.Records {
		out = append(out, rec.Submission)
	}
	return out
}

// CommentTable returns the attached top comments in record order.
func (r Result) CommentTable() []SampledComment {
	var out []SampledComment
	for _, rec := range r.Records {
		out = append(out, rec.TopComments...)
	}
	return out
}

// Sampler runs the filter, stratify, draw and assemble stages for one Config.
type Sampler struct {
	cfg       Config
	extractor *VerdictExtractor
	logger    *zap.Logger
}

// NewSampler validates cfg and returns a *ConfigurationError when it is invalid.
// A nil logger disables logging.
func NewSampler(cfg Config, logger *zap.Logger) (*Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sampler{
		cfg:       cfg,
		extractor: NewVerdictExtractor(),
		logger:    logger,
	}, nil
}

func (s *Sampler) Config() Config { return s.cfg }

// Extractor exposes the verdict extractor used by the run.
func (s *Sampler) Extractor() *VerdictExtractor { return s.extractor }

// ValidateDataset returns an *InputError for empty tables, blank ids or duplicate submission ids.
func ValidateDataset(ds Dataset) error {
	if len(ds.Submissions) == 0 {
		return &InputError{Table: "submission", Reason: "table is empty"}
	}
	if len(ds.Comments) == 0 {
		return &InputError{Table: "comment", Reason: "table is empty"}
	}
	seen := make(map[string]struct{}, len(ds.Submissions))
	for i, sub := range ds.Submissions {
		if sub.SubmissionID == "" {
			return &InputError{Table: "submission", Reason: fmt.Sprintf("row %d has empty submission_id", i+1)}
		}
		if _, dup := seen[sub.SubmissionID]; dup {
			return &InputError{Table: "submission", Reason: fmt.Sprintf("duplicate submission_id %q", sub.SubmissionID)}
		}
		seen[sub.SubmissionID] = struct{}{}
	}
	return nil
}

// Run samples ds. The same Config and Dataset always produce the same Result.
func (s *Sampler) Run(ds Dataset) (Result, error) {
	if err := ValidateDataset(ds); err != nil {
		return Result{}, err
	}
	cfg := s.cfg
	log := s.logger

	subs, subCounts := FilterSubmissions(ds.Submissions, cfg.MaxSubmissionChars)
	comments, comCounts := FilterComments(ds.Comments, cfg.MaxCommentChars)
	filter := FilterStats{Submissions: subCounts, Comments: comCounts}
	for col, n := range ds.Defaulted {
		log.Warn("null values loaded as 0", zap.String("column", col), zap.Int("count", n))
	}
	log.Info("filtered",
		zap.Int("submissions_kept", subCounts.Kept),
		zap.Int("submissions_total", subCounts.Total),
		zap.Int("comments_kept", comCounts.Kept),
		zap.Int("comments_total", comCounts.Total),
	)

	index := NewCommentIndex(comments)
	byID := make(map[string]Submission, len(subs))
	for _, sub := range subs {
		byID[sub.SubmissionID] = sub
	}

	var strat Stratification
	var tallies map[string]VerdictCounts
	switch cfg.StratificationMode {
	case ModeVerdict:
		tallies = make(map[string]VerdictCounts, len(subs))
		dominant := make(map[string]Verdict, len(subs))
		for _, sub := range subs {
			t := s.extractor.Tally(index.For(sub.SubmissionID))
			tallies[sub.SubmissionID] = t
			dominant[sub.SubmissionID] = t.Dominant(cfg.TieBreakOrder)
		}
		strat = StratifyByVerdict(subs, dominant, cfg.IncludeNoneStratum)
	default:
		strat = StratifyByEngagement(subs, cfg.EngagementTiers)
	}

	var warnings []Warning
	if comCounts.Kept == 0 {
		warnings = append(warnings, Warning{
			Kind:    WarningFilterExhaustion,
			Message: "no comments left after filtering",
		})
	}
	for _, st := range strat.Strata {
		if len(st.Members) == 0 {
			warnings = append(warnings, filterExhaustionWarning(st.Label))
		}
		log.Debug("stratum", zap.String("label", st.Label), zap.Int("members", len(st.Members)))
	}

	want := DrawCount(cfg.TargetN, cfg.OversampleFactor, len(strat.Strata))
	draws := NewDrawer(cfg.DrawPolicy, cfg.Seed()).DrawAll(strat.Strata, want)
	shortfall := 0
	for _, d := range draws {
		if d.Shortfall > 0 {
			shortfall += d.Shortfall
			warnings = append(warnings, insufficientStratumWarning(d))
		}
	}

	records := Assemble(AssembleInput{
		Mode:          cfg.StratificationMode,
		Draws:         draws,
		Submissions:   byID,
		Comments:      index,
		Extractor:     s.extractor,
		Tallies:       tallies,
		TieBreakOrder: cfg.TieBreakOrder,
		K:             cfg.CommentsPerSubmission,
	})

	stats := ComputeStatistics(records, strat.Definition.Labels)
	stats.TotalShortfall = shortfall
	stats.Warnings = len(warnings)

	for _, w := range warnings {
		log.Warn(w.Message, zap.String("kind", string(w.Kind)), zap.String("stratum", w.Stratum), zap.Int("count", w.Count))
	}

	meta := RunMetadata{
		Config:     cfg,
		Input:      InputSummary{Submissions: len(ds.Submissions), Comments: len(ds.Comments), Defaulted: copyCounts(ds.Defaulted)},
		Strata:     strat.Definition,
		Filter:     filter,
		Draws:      draws,
		Warnings:   warnings,
		Statistics: stats,
	}
	meta.RunID = runID(meta, draws)

	log.Info("sampled",
		zap.String("run_id", meta.RunID),
		zap.Int("submissions", stats.TotalSubmissions),
		zap.Int("comments", stats.TotalComments),
		zap.Int("per_stratum_target", want),
		zap.Int("shortfall", shortfall),
	)

	return Result{Records: records, Strata: strat.Strata, Metadata: meta}, nil
}

func copyCounts(m map[string]int) map[string]int {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("aita-sampler/run"))

// runID is a name-based UUID over the run's config, input sizes and drawn ids.
func runID(meta RunMetadata, draws []Draw) string {
	fingerprint := struct {
		Config Config
		Input  InputSummary
		Drawn  map[string][]string
	}{
		Config: meta.Config,
		Input:  meta.Input,
		Drawn:  make(map[string][]string, len(draws)),
	}
	for _, d := range draws {
		fingerprint.Drawn[d.Label] = d.Drawn
	}
	b, err := json.Marshal(fingerprint)
	if err != nil {
		return uuid.Nil.String()
	}
	return uuid.NewSHA1(runNamespace, b).String()
}
