package sampling

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// StratificationMode selects how submissions are bucketed.
type StratificationMode string

const (
	ModeEngagement StratificationMode = "engagement"
	ModeVerdict    StratificationMode = "verdict"
)

// DrawPolicy selects how members are drawn from a stratum.
type DrawPolicy string

const (
	// DrawOrdered takes members in input order.
	DrawOrdered DrawPolicy = "ordered"
	// DrawRandom takes members in a permutation derived from RandomSeed.
	DrawRandom DrawPolicy = "random"
)

const defaultSeed int64 = 42

// Config is the immutable parameter set for one sampling run.
type Config struct {
	MaxSubmissionChars    int `json:"max_submission_chars" yaml:"max_submission_chars"`
	MaxCommentChars       int `json:"max_comment_chars" yaml:"max_comment_chars"`
	TargetN               int `json:"target_n" yaml:"target_n"`
	OversampleFactor      int `json:"oversample_factor" yaml:"oversample_factor"`
	CommentsPerSubmission int `json:"comments_per_submission" yaml:"comments_per_submission"`

	StratificationMode StratificationMode `json:"stratification_mode" yaml:"stratification_mode"`
	DrawPolicy         DrawPolicy         `json:"draw_policy" yaml:"draw_policy"`
	RandomSeed         *int64             `json:"random_seed,omitempty" yaml:"random_seed,omitempty"`

	TieBreakOrder      []Verdict `json:"category_tie_break_order" yaml:"category_tie_break_order"`
	IncludeNoneStratum bool      `json:"include_none_stratum" yaml:"include_none_stratum"`
	EngagementTiers    []string  `json:"engagement_tiers" yaml:"engagement_tiers"`
}

// DefaultEngagementTiers are the quintile labels, lowest first.
func DefaultEngagementTiers() []string {
	return []string{"Very Low", "Low", "Medium", "High", "Very High"}
}

// DefaultConfig matches the "standard" preset with a seeded random draw.
func DefaultConfig() Config {
	seed := defaultSeed
	return Config{
		MaxSubmissionChars:    2000,
		MaxCommentChars:       500,
		TargetN:               50,
		OversampleFactor:      5,
		CommentsPerSubmission: 3,
		StratificationMode:    ModeEngagement,
		DrawPolicy:            DrawRandom,
		RandomSeed:            &seed,
		TieBreakOrder:         DefaultTieBreakOrder(),
		EngagementTiers:       DefaultEngagementTiers(),
	}
}

// Seed returns the configured seed, or 0 when none is set.
func (c Config) Seed() int64 {
	if c.RandomSeed == nil {
		return 0
	}
	return *c.RandomSeed
}

// StrataLabels returns the labels the run will produce, in output order.
func (c Config) StrataLabels() []string {
	if c.StratificationMode == ModeVerdict {
		labels := make([]string, 0, 5)
		for _, v := range AllVerdicts() {
			labels = append(labels, string(v))
		}
		if c.IncludeNoneStratum {
			labels = append(labels, string(VerdictNone))
		}
		return labels
	}
	return append([]string(nil), c.EngagementTiers...)
}

// Validate returns a *ConfigurationError for the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.MaxSubmissionChars <= 0:
		return &ConfigurationError{Field: "max_submission_chars", Reason: "must be > 0"}
	case c.MaxCommentChars <= 0:
		return &ConfigurationError{Field: "max_comment_chars", Reason: "must be > 0"}
	case c.TargetN <= 0:
		return &ConfigurationError{Field: "target_n", Reason: "must be > 0"}
	case c.OversampleFactor < 1:
		return &ConfigurationError{Field: "oversample_factor", Reason: "must be >= 1"}
	case c.CommentsPerSubmission < 0:
		return &ConfigurationError{Field: "comments_per_submission", Reason: "must be >= 0"}
	}

	switch c.StratificationMode {
	case ModeEngagement, ModeVerdict:
	default:
		return &ConfigurationError{Field: "stratification_mode", Reason: fmt.Sprintf("unknown mode %q (want engagement|verdict)", c.StratificationMode)}
	}

	switch c.DrawPolicy {
	case DrawOrdered:
	case DrawRandom:
		if c.RandomSeed == nil {
			return &ConfigurationError{Field: "random_seed", Reason: "required when draw_policy is random"}
		}
	default:
		return &ConfigurationError{Field: "draw_policy", Reason: fmt.Sprintf("unknown policy %q (want ordered|random)", c.DrawPolicy)}
	}

	if err := validateTieBreakOrder(c.TieBreakOrder); err != nil {
		return err
	}

	if c.StratificationMode == ModeEngagement {
		if len(c.EngagementTiers) < 2 {
			return &ConfigurationError{Field: "engagement_tiers", Reason: "need at least 2 tiers"}
		}
		seen := make(map[string]bool, len(c.EngagementTiers))
		for _, t := range c.EngagementTiers {
			if t == "" {
				return &ConfigurationError{Field: "engagement_tiers", Reason: "tier label is empty"}
			}
			if seen[t] {
				return &ConfigurationError{Field: "engagement_tiers", Reason: fmt.Sprintf("duplicate tier %q", t)}
			}
			seen[t] = true
		}
	}
	return nil
}

// validateTieBreakOrder requires every category exactly once; none may follow them.
func validateTieBreakOrder(order []Verdict) error {
	seen := make(map[Verdict]bool, len(order))
	for i, v := range order {
		switch v {
		case VerdictYTA, VerdictNTA, VerdictESH, VerdictNAH:
		case VerdictNone:
			if i != len(order)-1 {
				return &ConfigurationError{Field: "category_tie_break_order", Reason: "none may only appear last"}
			}
		default:
			return &ConfigurationError{Field: "category_tie_break_order", Reason: fmt.Sprintf("unknown verdict %q", v)}
		}
		if seen[v] {
			return &ConfigurationError{Field: "category_tie_break_order", Reason: fmt.Sprintf("duplicate verdict %q", v)}
		}
		seen[v] = true
	}
	var missing []string
	for _, v := range []Verdict{VerdictYTA, VerdictNTA, VerdictESH, VerdictNAH} {
		if !seen[v] {
			missing = append(missing, string(v))
		}
	}
	if len(missing) > 0 {
		return &ConfigurationError{Field: "category_tie_break_order", Reason: fmt.Sprintf("missing verdicts: %s", strings.Join(missing, ", "))}
	}
	return nil
}

// Overlay is a partial Config read from YAML. Nil fields leave the base value untouched.
type Overlay struct {
	MaxSubmissionChars    *int `yaml:"max_submission_chars"`
	MaxCommentChars       *int `yaml:"max_comment_chars"`
	TargetN               *int `yaml:"target_n"`
	OversampleFactor      *int `yaml:"oversample_factor"`
	CommentsPerSubmission *int `yaml:"comments_per_submission"`

	StratificationMode *StratificationMode `yaml:"stratification_mode"`
	DrawPolicy         *DrawPolicy         `yaml:"draw_policy"`
	RandomSeed         *int64              `yaml:"random_seed"`
	TieBreakOrder      []Verdict           `yaml:"category_tie_break_order"`
	IncludeNoneStratum *bool               `yaml:"include_none_stratum"`

	OutputPrefix string `yaml:"output_prefix"`
}

// Apply returns base with every set field of o copied over.
func (o Overlay) Apply(base Config) Config {
	out := base
	if o.MaxSubmissionChars != nil {
		out.MaxSubmissionChars = *o.MaxSubmissionChars
	}
	if o.MaxCommentChars != nil {
		out.MaxCommentChars = *o.MaxCommentChars
	}
	if o.TargetN != nil {
		out.TargetN = *o.TargetN
	}
	if o.OversampleFactor != nil {
		out.OversampleFactor = *o.OversampleFactor
	}
	if o.CommentsPerSubmission != nil {
		out.CommentsPerSubmission = *o.CommentsPerSubmission
	}
	if o.StratificationMode != nil {
		out.StratificationMode = *o.StratificationMode
	}
	if o.DrawPolicy != nil {
		out.DrawPolicy = *o.DrawPolicy
	}
	if o.RandomSeed != nil {
		seed := *o.RandomSeed
		out.RandomSeed = &seed
	}
	if len(o.TieBreakOrder) > 0 {
		out.TieBreakOrder = append([]Verdict(nil), o.TieBreakOrder...)
	}
	if o.IncludeNoneStratum != nil {
		out.IncludeNoneStratum = *o.IncludeNoneStratum
	}
	return out
}

// FileNames are the output and input file names used by the binaries.
type FileNames struct {
	Submissions         string `yaml:"submissions"`
	Comments            string `yaml:"comments"`
	SampledSubmissions  string `yaml:"sampled_submissions"`
	SampledComments     string `yaml:"sampled_comments"`
	FavoriteSubmissions string `yaml:"favorite_submissions"`
	FavoriteComments    string `yaml:"favorite_comments"`
	Metadata            string `yaml:"metadata"`
	Review              string `yaml:"review"`
	FavoritesTxt        string `yaml:"favorites_txt"`
}

// FileConfig is the research config file: named presets, defaults, engagement tiers and file names.
type FileConfig struct {
	Sampling   map[string]Overlay `yaml:"sampling"`
	Defaults   Overlay            `yaml:"defaults"`
	Engagement struct {
		Tiers []string `yaml:"tiers"`
	} `yaml:"engagement"`
	Files FileNames `yaml:"files"`
}

func intPtr(v int) *int { return &v }

func presetOverlay(maxSub, maxCom, target int) Overlay {
	return Overlay{
		MaxSubmissionChars:    intPtr(maxSub),
		MaxCommentChars:       intPtr(maxCom),
		TargetN:               intPtr(target),
		OversampleFactor:      intPtr(5),
		CommentsPerSubmission: intPtr(3),
	}
}

// DefaultFileConfig is used when no config file exists.
func DefaultFileConfig() FileConfig {
	fc := FileConfig{
		Sampling: map[string]Overlay{
			"conservative": presetOverlay(1000, 300, 30),
			"standard":     presetOverlay(2000, 500, 50),
			"large":        presetOverlay(3000, 800, 100),
		},
		Defaults: presetOverlay(2000, 500, 50),
	}
	fc.Defaults.OutputPrefix = "sampled"
	fc.Engagement.Tiers = DefaultEngagementTiers()
	fc.Files = defaultFileNames()
	return fc
}

func defaultFileNames() FileNames {
	return FileNames{
		Submissions:         "submission.csv",
		Comments:            "comment.csv",
		SampledSubmissions:  "sampled_submissions.csv",
		SampledComments:     "sampled_comments.csv",
		FavoriteSubmissions: "favorite_submissions.csv",
		FavoriteComments:    "favorite_comments.csv",
		Metadata:            "sampled_metadata.yaml",
		Review:              "sampled_review.txt",
		FavoritesTxt:        "favorite_submissions.txt",
	}
}

// LoadConfigFile reads a YAML config file. A missing file yields DefaultFileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	if path == "" {
		return DefaultFileConfig(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultFileConfig(), nil
		}
		return FileConfig{}, fmt.Errorf("LoadConfigFile: read %s: %w", path, err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, fmt.Errorf("LoadConfigFile: parse %s: %w", path, err)
	}
	fc.applyDefaults()
	if err := fc.validate(); err != nil {
		return FileConfig{}, err
	}
	return fc, nil
}

func (fc *FileConfig) applyDefaults() {
	def := DefaultFileConfig()
	if len(fc.Sampling) == 0 {
		fc.Sampling = def.Sampling
	}
	if fc.Defaults.OutputPrefix == "" {
		fc.Defaults.OutputPrefix = def.Defaults.OutputPrefix
	}
	if len(fc.Engagement.Tiers) == 0 {
		fc.Engagement.Tiers = def.Engagement.Tiers
	}

	f, d := &fc.Files, def.Files
	for _, pair := range []struct {
		dst *string
		def string
	}{
		{&f.Submissions, d.Submissions},
		{&f.Comments, d.Comments},
		{&f.SampledSubmissions, d.SampledSubmissions},
		{&f.SampledComments, d.SampledComments},
		{&f.FavoriteSubmissions, d.FavoriteSubmissions},
		{&f.FavoriteComments, d.FavoriteComments},
		{&f.Metadata, d.Metadata},
		{&f.Review, d.Review},
		{&f.FavoritesTxt, d.FavoritesTxt},
	} {
		if *pair.dst == "" {
			*pair.dst = pair.def
		}
	}
}

func (fc FileConfig) validate() error {
	if _, err := fc.Resolve(""); err != nil {
		return err
	}
	for _, name := range fc.PresetNames() {
		if _, err := fc.Resolve(name); err != nil {
			return err
		}
	}
	return nil
}

// PresetNames lists the configured sample types, sorted.
func (fc FileConfig) PresetNames() []string {
	names := make([]string, 0, len(fc.Sampling))
	for name := range fc.Sampling {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve builds a validated Config from built-in defaults, the file defaults and, when
// sampleType is set, the named preset.
func (fc FileConfig) Resolve(sampleType string) (Config, error) {
	cfg := fc.Defaults.Apply(DefaultConfig())
	if len(fc.Engagement.Tiers) > 0 {
		cfg.EngagementTiers = append([]string(nil), fc.Engagement.Tiers...)
	}
	if sampleType != "" {
		preset, ok := fc.Sampling[sampleType]
		if !ok {
			return Config{}, &ConfigurationError{Field: "sample_type", Reason: fmt.Sprintf("unknown sample type %q (available: %v)", sampleType, fc.PresetNames())}
		}
		cfg = preset.Apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
