package sampling

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// AuditItem is one comment whose extracted verdict is checked against an independent label.
type AuditItem struct {
	CommentID       string  `json:"comment_id"`
	SubmissionID    string  `json:"submission_id"`
	SubmissionTitle string  `json:"submission_title,omitempty"`
	Message         string  `json:"message"`
	Predicted       Verdict `json:"predicted"`
}

// VerdictAnnotation is the reference label for one comment.
type VerdictAnnotation struct {
	CommentID string  `json:"comment_id"`
	Actual    Verdict `json:"actual"`
}

// VerdictAdjudicator labels a comment independently of the regex extractor.
type VerdictAdjudicator interface {
	Adjudicate(ctx context.Context, item AuditItem) (Verdict, error)
}

// VerdictMetrics holds per-category precision and recall.
type VerdictMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	Support   int     `json:"support"`
}

// VerdictQAReport summarises extractor agreement with reference labels.
type VerdictQAReport struct {
	Total          int                        `json:"total"`
	Agreement      float64                    `json:"agreement"`
	PerCategory    map[Verdict]VerdictMetrics `json:"per_category"`
	ConfusionCases []string                   `json:"confusion_cases"`
}

// AuditSample draws up to perCategory comments per predicted verdict, "none" included.
func AuditSample(ds Dataset, extractor *VerdictExtractor, perCategory int, seed int64) []AuditItem {
	if extractor == nil || perCategory <= 0 {
		return nil
	}
	titles := make(map[string]string, len(ds.Submissions))
	for _, s := range ds.Submissions {
		titles[s.SubmissionID] = s.Title
	}

	labels := append(AllVerdicts(), VerdictNone)
	strata := make([]Stratum, len(labels))
	pos := make(map[Verdict]int, len(labels))
	for i, v := range labels {
		strata[i] = Stratum{Label: string(v)}
		pos[v] = i
	}

	items := make(map[string]AuditItem)
	for i, c := range ds.Comments {
		if c.Message == "" {
			continue
		}
		v := extractor.Extract(c.Message)
		key := strconv.Itoa(i)
		items[key] = AuditItem{
			CommentID:       c.CommentID,
			SubmissionID:    c.SubmissionID,
			SubmissionTitle: titles[c.SubmissionID],
			Message:         c.Message,
			Predicted:       v,
		}
		strata[pos[v]].Members = append(strata[pos[v]].Members, key)
	}

	var out []AuditItem
	for _, d := range NewDrawer(DrawRandom, seed).DrawAll(strata, perCategory) {
		for _, key := range d.Drawn {
			out = append(out, items[key])
		}
	}
	return out
}

// AdjudicateSample asks adj for the reference label of every item.
func AdjudicateSample(ctx context.Context, adj VerdictAdjudicator, sample []AuditItem) ([]VerdictAnnotation, error) {
	if ctx == nil {
		return nil, errors.New("AdjudicateSample: ctx is nil")
	}
	if adj == nil {
		return nil, errors.New("AdjudicateSample: adjudicator is nil")
	}
	out := make([]VerdictAnnotation, 0, len(sample))
	for _, item := range sample {
		v, err := adj.Adjudicate(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("AdjudicateSample: comment %s: %w", item.CommentID, err)
		}
		out = append(out, VerdictAnnotation{CommentID: item.CommentID, Actual: v})
	}
	return out, nil
}

type qaCounts struct {
	tp, fp, fn, n int
}

// EvaluateVerdicts computes agreement, precision and recall of predicted against annotated labels.
func EvaluateVerdicts(sample []AuditItem, annotations []VerdictAnnotation) (VerdictQAReport, error) {
	if len(sample) == 0 {
		return VerdictQAReport{}, errors.New("EvaluateVerdicts: sample is empty")
	}
	if len(annotations) == 0 {
		return VerdictQAReport{}, errors.New("EvaluateVerdicts: annotations are empty")
	}

	predicted := make(map[string]Verdict, len(sample))
	for _, item := range sample {
		predicted[item.CommentID] = item.Predicted
	}

	counts := make(map[Verdict]*qaCounts)
	ensure := func(v Verdict) *qaCounts {
		c, ok := counts[v]
		if !ok {
			c = &qaCounts{}
			counts[v] = c
		}
		return c
	}

	total, matches := 0, 0
	confusions := make([]string, 0)
	for _, a := range annotations {
		pred, ok := predicted[a.CommentID]
		if !ok {
			continue
		}
		total++
		actual := ensure(a.Actual)
		actual.n++
		if pred == a.Actual {
			actual.tp++
			matches++
			continue
		}
		ensure(pred).fp++
		actual.fn++
		confusions = append(confusions, fmt.Sprintf("%s predicted=%s actual=%s", a.CommentID, pred, a.Actual))
	}
	if total == 0 {
		return VerdictQAReport{}, errors.New("EvaluateVerdicts: no overlapping comment ids between sample and annotations")
	}
	sort.Strings(confusions)

	per := make(map[Verdict]VerdictMetrics, len(counts))
	for v, c := range counts {
		per[v] = VerdictMetrics{
			Precision: ratio(c.tp, c.tp+c.fp),
			Recall:    ratio(c.tp, c.tp+c.fn),
			Support:   c.n,
		}
	}
	return VerdictQAReport{
		Total:          total,
		Agreement:      ratio(matches, total),
		PerCategory:    per,
		ConfusionCases: confusions,
	}, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
