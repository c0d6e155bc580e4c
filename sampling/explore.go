package sampling

import "unicode/utf8"

// LengthSummary describes a text length distribution in characters.
type LengthSummary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
}

// LimitImpact is how many rows a candidate character limit would keep.
type LimitImpact struct {
	Limit   int     `json:"limit"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// ExploreOptions controls Explore. Zero values fall back to the defaults below.
type ExploreOptions struct {
	SubmissionLimits []int
	CommentLimits    []int
	Tiers            []string
	// PreviewMaxChars selects short submissions for the preview list.
	PreviewMaxChars int
	PreviewN        int
	Seed            int64
}

func DefaultExploreOptions() ExploreOptions {
	return ExploreOptions{
		SubmissionLimits: []int{500, 1000, 1500, 2000, 2500, 3000},
		CommentLimits:    []int{200, 300, 400, 500, 600, 800},
		Tiers:            DefaultEngagementTiers(),
		PreviewMaxChars:  1000,
		PreviewN:         5,
		Seed:             defaultSeed,
	}
}

// ExploreReport helps choose filter limits before sampling.
type ExploreReport struct {
	Submissions int `json:"submissions"`
	Comments    int `json:"comments"`

	SubmissionLength LengthSummary `json:"submission_length"`
	CommentLength    LengthSummary `json:"comment_length"`

	SubmissionScore *Summary `json:"submission_score,omitempty"`
	CommentScore    *Summary `json:"comment_score,omitempty"`

	SubmissionImpact []LimitImpact `json:"submission_impact"`
	CommentImpact    []LimitImpact `json:"comment_impact"`

	Engagement           []StratumCount `json:"engagement"`
	EngagementBoundaries []float64      `json:"engagement_boundaries,omitempty"`

	Preview []Submission `json:"preview,omitempty"`
}

// Explore computes length, score and engagement distributions over the unfiltered dataset.
func Explore(ds Dataset, opts ExploreOptions) ExploreReport {
	def := DefaultExploreOptions()
	if len(opts.SubmissionLimits) == 0 {
		opts.SubmissionLimits = def.SubmissionLimits
	}
	if len(opts.CommentLimits) == 0 {
		opts.CommentLimits = def.CommentLimits
	}
	if len(opts.Tiers) == 0 {
		opts.Tiers = def.Tiers
	}
	if opts.PreviewMaxChars <= 0 {
		opts.PreviewMaxChars = def.PreviewMaxChars
	}

	subLens := make([]float64, 0, len(ds.Submissions))
	subScores := make([]float64, 0, len(ds.Submissions))
	for _, s := range ds.Submissions {
		subScores = append(subScores, float64(s.Score))
		if s.Selftext != "" {
			subLens = append(subLens, float64(utf8.RuneCountInString(s.Selftext)))
		}
	}
	comLens := make([]float64, 0, len(ds.Comments))
	comScores := make([]float64, 0, len(ds.Comments))
	for _, c := range ds.Comments {
		comScores = append(comScores, float64(c.Score))
		if c.Message != "" {
			comLens = append(comLens, float64(utf8.RuneCountInString(c.Message)))
		}
	}

	rep := ExploreReport{
		Submissions:      len(ds.Submissions),
		Comments:         len(ds.Comments),
		SubmissionLength: lengthSummary(subLens),
		CommentLength:    lengthSummary(comLens),
		SubmissionScore:  summarize(subScores),
		CommentScore:     summarize(comScores),
		SubmissionImpact: limitImpact(subLens, len(ds.Submissions), opts.SubmissionLimits),
		CommentImpact:    limitImpact(comLens, len(ds.Comments), opts.CommentLimits),
	}

	strat := StratifyByEngagement(ds.Submissions, opts.Tiers)
	rep.EngagementBoundaries = strat.Definition.Boundaries
	for _, st := range strat.Strata {
		rep.Engagement = append(rep.Engagement, StratumCount{Label: st.Label, Count: len(st.Members)})
	}

	if opts.PreviewN > 0 {
		short, _ := FilterSubmissions(ds.Submissions, opts.PreviewMaxChars)
		st := Stratum{Label: "preview"}
		byID := make(map[string]Submission, len(short))
		for _, s := range short {
			st.Members = append(st.Members, s.SubmissionID)
			byID[s.SubmissionID] = s
		}
		for _, id := range NewDrawer(DrawRandom, opts.Seed).DrawStratum(st, opts.PreviewN).Drawn {
			rep.Preview = append(rep.Preview, byID[id])
		}
	}
	return rep
}

func lengthSummary(lengths []float64) LengthSummary {
	s := summarize(lengths)
	if s == nil {
		return LengthSummary{}
	}
	edges := QuantileBoundaries(lengths, 100)
	return LengthSummary{
		Mean:   s.Mean,
		Median: s.Median,
		P95:    edges[95],
		P99:    edges[99],
	}
}

func limitImpact(lengths []float64, total int, limits []int) []LimitImpact {
	out := make([]LimitImpact, 0, len(limits))
	for _, limit := range limits {
		n := 0
		for _, l := range lengths {
			if l <= float64(limit) {
				n++
			}
		}
		pct := 0.0
		if total > 0 {
			pct = 100 * float64(n) / float64(total)
		}
		out = append(out, LimitImpact{Limit: limit, Count: n, Percent: pct})
	}
	return out
}
