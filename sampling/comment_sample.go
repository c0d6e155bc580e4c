package sampling

import (
	"errors"
	"strconv"
	"unicode/utf8"
)

// VerdictComment is a comment that carries a verdict.
type VerdictComment struct {
	Comment
	Verdict       Verdict `json:"verdict"`
	CommentLength int     `json:"comment_length"`
	Rank          int     `json:"rank,omitempty"`
}

// CommentSampleOptions controls SampleComments.
type CommentSampleOptions struct {
	MaxCommentChars int
	PerCategory     int
	Policy          DrawPolicy
	Seed            int64
}

// CommentSample is a verdict-balanced set of comments with the submissions they belong to.
type CommentSample struct {
	// All holds every comment with a verdict, before the length filter.
	All      []VerdictComment
	Balanced []VerdictComment
	Draws    []Draw
	Contexts []Submission
	Warnings []Warning
}

// Distribution counts comments per verdict in scan order.
func Distribution(comments []VerdictComment) []StratumCount {
	counts := make(map[Verdict]int, 4)
	for _, c := range comments {
		counts[c.Verdict]++
	}
	out := make([]StratumCount, 0, 4)
	for _, v := range AllVerdicts() {
		out = append(out, StratumCount{Label: string(v), Count: counts[v]})
	}
	return out
}

// SampleComments extracts verdicts from every comment, keeps those within MaxCommentChars,
// and draws up to PerCategory comments per verdict.
func SampleComments(ds Dataset, extractor *VerdictExtractor, opts CommentSampleOptions) (CommentSample, error) {
	if len(ds.Comments) == 0 {
		return CommentSample{}, &InputError{Table: "comment", Reason: "table is empty"}
	}
	if opts.PerCategory <= 0 {
		return CommentSample{}, &ConfigurationError{Field: "samples_per_category", Reason: "must be > 0"}
	}
	if opts.MaxCommentChars <= 0 {
		return CommentSample{}, &ConfigurationError{Field: "max_comment_chars", Reason: "must be > 0"}
	}
	if opts.Policy == "" {
		opts.Policy = DrawRandom
	}
	if extractor == nil {
		return CommentSample{}, errors.New("SampleComments: extractor is nil")
	}

	var out CommentSample
	strata := make([]Stratum, 0, 4)
	byVerdict := make(map[Verdict]int, 4)
	for _, v := range AllVerdicts() {
		byVerdict[v] = len(strata)
		strata = append(strata, Stratum{Label: string(v)})
	}

	eligible := make(map[string]VerdictComment)
	for i, c := range ds.Comments {
		v := extractor.Extract(c.Message)
		if v == VerdictNone {
			continue
		}
		vc := VerdictComment{Comment: c, Verdict: v, CommentLength: utf8.RuneCountInString(c.Message)}
		out.All = append(out.All, vc)
		if !WithinLimit(c.Message, opts.MaxCommentChars) {
			continue
		}
		key := strconv.Itoa(i)
		eligible[key] = vc
		idx := byVerdict[v]
		strata[idx].Members = append(strata[idx].Members, key)
	}

	for _, st := range strata {
		if len(st.Members) == 0 {
			out.Warnings = append(out.Warnings, filterExhaustionWarning(st.Label))
		}
	}

	out.Draws = NewDrawer(opts.Policy, opts.Seed).DrawAll(strata, opts.PerCategory)
	contextIDs := make(map[string]bool)
	for _, d := range out.Draws {
		if d.Shortfall > 0 {
			out.Warnings = append(out.Warnings, insufficientStratumWarning(d))
		}
		for r, key := range d.Drawn {
			vc := eligible[key]
			vc.Rank = r + 1
			out.Balanced = append(out.Balanced, vc)
			contextIDs[vc.SubmissionID] = true
		}
	}

	for _, s := range ds.Submissions {
		if contextIDs[s.SubmissionID] {
			out.Contexts = append(out.Contexts, s)
		}
	}
	return out, nil
}
