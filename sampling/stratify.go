package sampling

import (
	"math"
	"sort"
)

// Stratification is the partition of the filtered submissions into ordered strata.
type Stratification struct {
	Strata     []Stratum
	Definition StrataDefinition
	// Assignment maps submission external id to its stratum label.
	Assignment map[string]string
}

// Sizes returns member counts per label, zeros included.
func (s Stratification) Sizes() map[string]int {
	out := make(map[string]int, len(s.Strata))
	for _, st := range s.Strata {
		out[st.Label] = len(st.Members)
	}
	return out
}

// QuantileBoundaries returns k+1 edges splitting values into k equal-frequency bins.
// Quantiles use linear interpolation between closest ranks. Returns nil for empty input.
func QuantileBoundaries(values []float64, k int) []float64 {
	if len(values) == 0 || k <= 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	edges := make([]float64, k+1)
	for i := 0; i <= k; i++ {
		edges[i] = quantileSorted(sorted, float64(i)/float64(k))
	}
	return edges
}

func quantileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if hi >= n {
		hi = n - 1
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// tierIndex places v in the lowest tier whose upper edge is >= v. Values on an edge belong to
// the lower tier; the last tier takes everything above the second-to-last edge.
func tierIndex(v float64, edges []float64) int {
	k := len(edges) - 1
	for i := 0; i < k-1; i++ {
		if v <= edges[i+1] {
			return i
		}
	}
	return k - 1
}

// StratifyByEngagement buckets submissions into len(tiers) score quantiles computed from subs.
func StratifyByEngagement(subs []Submission, tiers []string) Stratification {
	strata := make([]Stratum, len(tiers))
	for i, t := range tiers {
		strata[i] = Stratum{Label: t}
	}
	out := Stratification{
		Strata:     strata,
		Assignment: make(map[string]string, len(subs)),
		Definition: StrataDefinition{
			Mode:   ModeEngagement,
			Labels: append([]string(nil), tiers...),
		},
	}
	if len(subs) == 0 || len(tiers) == 0 {
		return out
	}

	scores := make([]float64, len(subs))
	for i, s := range subs {
		scores[i] = float64(s.Score)
	}
	edges := QuantileBoundaries(scores, len(tiers))
	out.Definition.Boundaries = edges

	for i, s := range subs {
		idx := tierIndex(scores[i], edges)
		out.Strata[idx].Members = append(out.Strata[idx].Members, s.SubmissionID)
		out.Assignment[s.SubmissionID] = tiers[idx]
	}
	return out
}

// StratifyByVerdict buckets submissions by dominant verdict. Submissions without a verdict
// form the "none" stratum when includeNone is set and are otherwise excluded and counted.
func StratifyByVerdict(subs []Submission, dominant map[string]Verdict, includeNone bool) Stratification {
	labels := make([]string, 0, 5)
	for _, v := range AllVerdicts() {
		labels = append(labels, string(v))
	}
	if includeNone {
		labels = append(labels, string(VerdictNone))
	}

	index := make(map[string]int, len(labels))
	strata := make([]Stratum, len(labels))
	for i, l := range labels {
		strata[i] = Stratum{Label: l}
		index[l] = i
	}

	out := Stratification{
		Strata:     strata,
		Assignment: make(map[string]string, len(subs)),
		Definition: StrataDefinition{Mode: ModeVerdict, Labels: labels},
	}
	for _, s := range subs {
		v, ok := dominant[s.SubmissionID]
		if !ok {
			v = VerdictNone
		}
		idx, ok := index[string(v)]
		if !ok {
			out.Definition.ExcludedNoVerdict++
			continue
		}
		out.Strata[idx].Members = append(out.Strata[idx].Members, s.SubmissionID)
		out.Assignment[s.SubmissionID] = string(v)
	}
	return out
}
