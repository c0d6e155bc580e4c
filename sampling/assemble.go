package sampling

import (
	"sort"
	"unicode/utf8"
)

// AssembleInput carries everything the assembler needs from earlier stages.
type AssembleInput struct {
	Mode        StratificationMode
	Draws       []Draw
	Submissions map[string]Submission
	Comments    *CommentIndex
	Extractor   *VerdictExtractor
	// Tallies holds precomputed verdict counts; missing entries are tallied on demand.
	Tallies       map[string]VerdictCounts
	TieBreakOrder []Verdict
	K             int
}

// Assemble turns draws into SampleRecords grouped by stratum, in draw order.
func Assemble(in AssembleInput) []SampleRecord {
	extractor := in.Extractor
	if extractor == nil {
		extractor = NewVerdictExtractor()
	}

	total := 0
	for _, d := range in.Draws {
		total += len(d.Drawn)
	}
	records := make([]SampleRecord, 0, total)

	for _, d := range in.Draws {
		for i, id := range d.Drawn {
			sub, ok := in.Submissions[id]
			if !ok {
				continue
			}
			comments := in.Comments.For(id)
			stats := Aggregate(comments)

			tally, ok := in.Tallies[id]
			if !ok {
				tally = extractor.Tally(comments)
			}

			enriched := EnrichedSubmission{
				Submission:      sub,
				CommentCount:    stats.Count,
				AvgCommentScore: stats.AvgScore,
				DominantVerdict: tally.Dominant(in.TieBreakOrder),
				VerdictCount:    tally.WithVerdict(),
			}
			if in.Mode == ModeEngagement {
				enriched.EngagementTier = d.Label
			}

			top := TopComments(comments, in.K)
			attached := make([]SampledComment, 0, len(top))
			for r, c := range top {
				attached = append(attached, SampledComment{
					Comment: c,
					Stratum: d.Label,
					Rank:    r + 1,
					Verdict: extractor.Extract(c.Message),
				})
			}

			records = append(records, SampleRecord{
				Stratum:     d.Label,
				Rank:        i + 1,
				Submission:  enriched,
				TopComments: attached,
			})
		}
	}
	return records
}

// StratumCount is one row of the per-stratum distribution.
type StratumCount struct {
	Label string `json:"label" yaml:"label"`
	Count int    `json:"count" yaml:"count"`
}

// Summary is a mean/median/min/max over a numeric column.
type Summary struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
}

// Statistics describe the assembled output. They are computed from the records themselves.
type Statistics struct {
	TotalSubmissions int            `json:"total_submissions" yaml:"total_submissions"`
	TotalComments    int            `json:"total_comments" yaml:"total_comments"`
	Distribution     []StratumCount `json:"distribution" yaml:"distribution"`

	SubmissionScore       *Summary `json:"submission_score,omitempty" yaml:"submission_score,omitempty"`
	CommentsPerSubmission *Summary `json:"comments_per_submission,omitempty" yaml:"comments_per_submission,omitempty"`

	AvgSubmissionLength float64 `json:"avg_submission_length" yaml:"avg_submission_length"`
	AvgCommentLength    float64 `json:"avg_comment_length" yaml:"avg_comment_length"`

	TotalShortfall int `json:"total_shortfall" yaml:"total_shortfall"`
	Warnings       int `json:"warnings" yaml:"warnings"`
}

// ComputeStatistics summarises records. labels fixes the distribution order and includes
// empty strata.
func ComputeStatistics(records []SampleRecord, labels []string) Statistics {
	counts := make(map[string]int, len(labels))
	scores := make([]float64, 0, len(records))
	perSub := make([]float64, 0, len(records))
	subChars, comChars, comN := 0, 0, 0

	for _, r := range records {
		counts[r.Stratum]++
		scores = append(scores, float64(r.Submission.Score))
		perSub = append(perSub, float64(r.Submission.CommentCount))
		subChars += utf8.RuneCountInString(r.Submission.Selftext)
		for _, c := range r.TopComments {
			comChars += utf8.RuneCountInString(c.Message)
			comN++
		}
	}

	st := Statistics{
		TotalSubmissions: len(records),
		TotalComments:    comN,
		Distribution:     make([]StratumCount, 0, len(labels)),
	}
	for _, l := range labels {
		st.Distribution = append(st.Distribution, StratumCount{Label: l, Count: counts[l]})
	}
	st.SubmissionScore = summarize(scores)
	st.CommentsPerSubmission = summarize(perSub)
	if len(records) > 0 {
		st.AvgSubmissionLength = float64(subChars) / float64(len(records))
	}
	if comN > 0 {
		st.AvgCommentLength = float64(comChars) / float64(comN)
	}
	return st
}

func summarize(values []float64) *Summary {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	return &Summary{
		Mean:   sum / float64(len(sorted)),
		Median: median(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
