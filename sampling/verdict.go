package sampling

import (
	"fmt"
	"regexp"
)

// Verdict is the community judgement a comment expresses.
type Verdict string

const (
	VerdictYTA  Verdict = "YTA"
	VerdictNTA  Verdict = "NTA"
	VerdictESH  Verdict = "ESH"
	VerdictNAH  Verdict = "NAH"
	VerdictNone Verdict = "none"
)

// AllVerdicts returns the verdict categories in extraction scan order.
func AllVerdicts() []Verdict {
	return []Verdict{VerdictYTA, VerdictNTA, VerdictESH, VerdictNAH}
}

// ParseVerdict accepts the category codes case-sensitively plus "none".
func ParseVerdict(s string) (Verdict, error) {
	switch v := Verdict(s); v {
	case VerdictYTA, VerdictNTA, VerdictESH, VerdictNAH, VerdictNone:
		return v, nil
	default:
		return "", fmt.Errorf("unknown verdict %q", s)
	}
}

// Description is the long-form label used in review output.
func (v Verdict) Description() string {
	switch v {
	case VerdictYTA:
		return "You're the asshole"
	case VerdictNTA:
		return "Not the asshole"
	case VerdictESH:
		return "Everyone sucks here"
	case VerdictNAH:
		return "No assholes here"
	default:
		return "No verdict"
	}
}

// DefaultTieBreakOrder is NTA > YTA > ESH > NAH. "none" always ranks last.
func DefaultTieBreakOrder() []Verdict {
	return []Verdict{VerdictNTA, VerdictYTA, VerdictESH, VerdictNAH}
}

type verdictRule struct {
	verdict Verdict
	pattern *regexp.Regexp
}

// VerdictExtractor maps free text to a Verdict by scanning an ordered rule list.
// Patterns match whole tokens only, case-insensitively.
type VerdictExtractor struct {
	rules []verdictRule
}

// NewVerdictExtractor compiles the built-in acronym and phrase rules.
func NewVerdictExtractor() *VerdictExtractor {
	return &VerdictExtractor{rules: []verdictRule{
		{VerdictYTA, regexp.MustCompile(`(?i)\b(?:yta|you['’]?re the asshole|you are the asshole)\b`)},
		{VerdictNTA, regexp.MustCompile(`(?i)\b(?:nta|not the asshole|no asshole)\b`)},
		{VerdictESH, regexp.MustCompile(`(?i)\b(?:esh|everyone sucks(?: here)?|everybody sucks)\b`)},
		{VerdictNAH, regexp.MustCompile(`(?i)\b(?:nah|no assholes here|no one is the asshole)\b`)},
	}}
}

// Extract returns the first category whose rule matches, or VerdictNone.
func (e *VerdictExtractor) Extract(text string) Verdict {
	if text == "" {
		return VerdictNone
	}
	for _, r := range e.rules {
		if r.pattern.MatchString(text) {
			return r.verdict
		}
	}
	return VerdictNone
}

// Tally extracts a verdict from every comment and counts them per category.
func (e *VerdictExtractor) Tally(comments []Comment) VerdictCounts {
	counts := VerdictCounts{}
	for _, c := range comments {
		counts[e.Extract(c.Message)]++
	}
	return counts
}

// VerdictCounts is a per-category tally. The VerdictNone key counts comments without a verdict.
type VerdictCounts map[Verdict]int

// WithVerdict is the number of comments that carried any verdict.
func (vc VerdictCounts) WithVerdict() int {
	n := 0
	for _, v := range AllVerdicts() {
		n += vc[v]
	}
	return n
}

// Dominant returns the most frequent verdict category. Ties resolve by order; categories
// missing from order rank after those present, in scan order. VerdictNone is returned only
// when no comment carried a verdict.
func (vc VerdictCounts) Dominant(order []Verdict) Verdict {
	best := VerdictNone
	bestCount := 0
	for _, v := range rankedVerdicts(order) {
		if n := vc[v]; n > bestCount {
			best, bestCount = v, n
		}
	}
	return best
}

func rankedVerdicts(order []Verdict) []Verdict {
	out := make([]Verdict, 0, 4)
	seen := make(map[Verdict]bool, 4)
	for _, v := range order {
		if v == VerdictNone || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	for _, v := range AllVerdicts() {
		if !seen[v] {
			out = append(out, v)
		}
	}
	return out
}
