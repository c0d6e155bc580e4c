package export

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/theimaginaryfoundation/aita-sampler/sampling"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/fileutils"
)

var printer = message.NewPrinter(language.English)

const rule = 80

// ReviewOptions controls the plain-text review layout.
type ReviewOptions struct {
	Title string
	Mode  sampling.StratificationMode
	// Labels fixes section order; strata absent from Labels follow in record order.
	Labels []string
	Now    time.Time
}

// GroupByStratum returns the stratum labels in section order and the records of each.
func GroupByStratum(records []sampling.SampleRecord, labels []string) ([]string, map[string][]sampling.SampleRecord) {
	groups := make(map[string][]sampling.SampleRecord)
	for _, r := range records {
		groups[r.Stratum] = append(groups[r.Stratum], r)
	}
	order := make([]string, 0, len(groups))
	seen := make(map[string]bool, len(groups))
	for _, l := range labels {
		if len(groups[l]) > 0 && !seen[l] {
			order = append(order, l)
			seen[l] = true
		}
	}
	for _, r := range records {
		if !seen[r.Stratum] {
			order = append(order, r.Stratum)
			seen[r.Stratum] = true
		}
	}
	return order, groups
}

func sectionHeading(mode sampling.StratificationMode, label string) string {
	if mode == sampling.ModeVerdict {
		return fmt.Sprintf("=== %s VERDICT ===", strings.ToUpper(label))
	}
	return fmt.Sprintf("=== %s ENGAGEMENT TIER ===", strings.ToUpper(label))
}

// RenderReview formats records for reading: one section per stratum, each submission
// followed by its top comments.
func RenderReview(records []sampling.SampleRecord, opts ReviewOptions) string {
	title := opts.Title
	if title == "" {
		title = "SAMPLE REVIEW"
	}
	comments := 0
	for _, r := range records {
		comments += len(r.TopComments)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n", title, strings.Repeat("=", rule))
	if !opts.Now.IsZero() {
		fmt.Fprintf(&b, "Generated: %s\n", opts.Now.UTC().Format("2006-01-02 15:04:05"))
	}
	printer.Fprintf(&b, "Total Submissions: %d\n", len(records))
	printer.Fprintf(&b, "Total Comments: %d\n\n", comments)

	order, groups := GroupByStratum(records, opts.Labels)
	for _, label := range order {
		group := groups[label]
		fmt.Fprintf(&b, "%s\n", sectionHeading(opts.Mode, label))
		printer.Fprintf(&b, "Submissions in this stratum: %d\n\n", len(group))
		for _, r := range group {
			writeSubmission(&b, r)
		}
	}
	return b.String()
}

func writeSubmission(b *strings.Builder, r sampling.SampleRecord) {
	s := r.Submission
	fmt.Fprintf(b, "SUBMISSION %d: %s\n", r.Rank, s.SubmissionID)
	fmt.Fprintf(b, "TITLE: %s\n", s.Title)
	printer.Fprintf(b, "SCORE: %d\n", s.Score)
	printer.Fprintf(b, "COMMENT COUNT: %d\n", s.CommentCount)
	if s.AvgCommentScore != nil {
		fmt.Fprintf(b, "AVG COMMENT SCORE: %.1f\n", *s.AvgCommentScore)
	}
	printer.Fprintf(b, "LENGTH: %d characters\n", utf8.RuneCountInString(s.Selftext))
	if s.EngagementTier != "" {
		fmt.Fprintf(b, "TIER: %s\n", s.EngagementTier)
	}
	if s.DominantVerdict != "" {
		fmt.Fprintf(b, "DOMINANT VERDICT: %s (%d verdict comments)\n", s.DominantVerdict, s.VerdictCount)
	}
	if s.Permalink != "" {
		fmt.Fprintf(b, "PERMALINK: %s\n", s.Permalink)
	}
	fmt.Fprintf(b, "TEXT:\n%s\n\n", s.Selftext)
	if len(r.TopComments) > 0 {
		b.WriteString("TOP COMMENTS:\n")
		for _, c := range r.TopComments {
			printer.Fprintf(b, "%d. (Score: %d) [%s]: %s\n", c.Rank, c.Score, c.Verdict, c.Message)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(b, "%s\n\n", strings.Repeat("-", rule))
}

func WriteReviewFile(path string, records []sampling.SampleRecord, opts ReviewOptions) error {
	if err := fileutils.WriteFileAtomicSameDir(path, []byte(RenderReview(records, opts)), 0o644); err != nil {
		return fmt.Errorf("WriteReviewFile: %w", err)
	}
	return nil
}

// RenderSummary is the short per-run summary: totals, lengths and the stratum distribution.
func RenderSummary(title string, stats sampling.Statistics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sample Summary - %s\n%s\n\n", title, strings.Repeat("=", 50))
	printer.Fprintf(&b, "Total submissions: %d\n", stats.TotalSubmissions)
	printer.Fprintf(&b, "Total comments: %d\n", stats.TotalComments)
	printer.Fprintf(&b, "Average submission length: %.1f characters\n", stats.AvgSubmissionLength)
	printer.Fprintf(&b, "Average comment length: %.1f characters\n", stats.AvgCommentLength)
	if cps := stats.CommentsPerSubmission; cps != nil {
		printer.Fprintf(&b, "Comments per submission: mean %.1f, median %.1f, min %.0f, max %.0f\n", cps.Mean, cps.Median, cps.Min, cps.Max)
	}
	if stats.TotalShortfall > 0 {
		printer.Fprintf(&b, "Shortfall: %d submissions across strata\n", stats.TotalShortfall)
	}
	b.WriteString("\nStratum distribution:\n")
	for _, d := range stats.Distribution {
		printer.Fprintf(&b, "  %s: %d submissions\n", d.Label, d.Count)
	}
	return b.String()
}

func WriteSummaryFile(path, title string, stats sampling.Statistics) error {
	if err := fileutils.WriteFileAtomicSameDir(path, []byte(RenderSummary(title, stats)), 0o644); err != nil {
		return fmt.Errorf("WriteSummaryFile: %w", err)
	}
	return nil
}

// RenderDrawTable prints one row per stratum with requested, available, drawn and shortfall.
func RenderDrawTable(out io.Writer, draws []sampling.Draw) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Stratum", "Requested", "Available", "Drawn", "Shortfall"})
	total := table.Row{"Total", 0, 0, 0, 0}
	for _, d := range draws {
		t.AppendRow(table.Row{d.Label, d.Requested, d.Available, len(d.Drawn), d.Shortfall})
		total[1] = total[1].(int) + d.Requested
		total[2] = total[2].(int) + d.Available
		total[3] = total[3].(int) + len(d.Drawn)
		total[4] = total[4].(int) + d.Shortfall
	}
	t.AppendFooter(total)
	t.Render()
}

// RenderDistributionTable prints label/count pairs, e.g. a verdict distribution.
func RenderDistributionTable(out io.Writer, title string, counts []sampling.StratumCount) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	if title != "" {
		t.SetTitle(title)
	}
	t.AppendHeader(table.Row{"Label", "Count"})
	for _, c := range counts {
		t.AppendRow(table.Row{c.Label, printer.Sprintf("%d", c.Count)})
	}
	t.Render()
}
