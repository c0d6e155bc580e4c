package sampling

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"
)

// hundredDataset has 100 submissions with scores 10..1000 and two comments each.
func hundredDataset() Dataset {
	var ds Dataset
	for i := 1; i <= 100; i++ {
		id := fmt.Sprintf("t3_%03d", i)
		ds.Submissions = append(ds.Submissions, Submission{
			ID:           int64(i),
			SubmissionID: id,
			Title:        fmt.Sprintf("AITA #%d", i),
			Selftext:     fmt.Sprintf("body of submission %d", i),
			CreatedUTC:   int64(1_600_000_000 + i),
			Score:        10 * i,
		})
		ds.Comments = append(ds.Comments,
			Comment{ID: int64(2 * i), SubmissionID: id, CommentID: id + "_a", Message: "NTA, clearly", Score: i, CreatedUTC: int64(1_600_000_100 + i)},
			Comment{ID: int64(2*i + 1), SubmissionID: id, CommentID: id + "_b", Message: "YTA", Score: i + 1, CreatedUTC: int64(1_600_000_200 + i)},
		)
	}
	return ds
}

func engagementConfig() Config {
	cfg := DefaultConfig()
	cfg.TargetN = 50
	cfg.OversampleFactor = 5
	cfg.CommentsPerSubmission = 3
	return cfg
}

func TestSampler_EndToEndEngagement(t *testing.T) {
	t.Parallel()

	s, err := NewSampler(engagementConfig(), nil)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	res, err := s.Run(hundredDataset())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Records) != 100 {
		t.Fatalf("len(records)=%d, want 100", len(res.Records))
	}
	if len(res.Records) > 50*5 {
		t.Fatalf("records exceed target_n*oversample_factor")
	}

	stats := res.Metadata.Statistics
	sum := 0
	for _, sc := range stats.Distribution {
		if sc.Count != 20 {
			t.Fatalf("tier %q count=%d, want 20", sc.Label, sc.Count)
		}
		sum += sc.Count
	}
	if sum != stats.TotalSubmissions {
		t.Fatalf("distribution sum=%d, total=%d", sum, stats.TotalSubmissions)
	}
	if stats.TotalComments != 200 {
		t.Fatalf("TotalComments=%d, want 200", stats.TotalComments)
	}
	if stats.TotalShortfall != 150 {
		t.Fatalf("TotalShortfall=%d, want 150", stats.TotalShortfall)
	}

	for _, d := range res.Metadata.Draws {
		if d.Requested != 50 || d.Available != 20 || d.Shortfall != 30 {
			t.Fatalf("draw=%+v", d)
		}
	}
	insufficient := 0
	for _, w := range res.Metadata.Warnings {
		if w.Kind == WarningInsufficientStratum {
			insufficient++
		}
	}
	if insufficient != 5 {
		t.Fatalf("insufficient_stratum warnings=%d, want 5", insufficient)
	}

	// Records are grouped by tier in tier order with ranks 1..n.
	tierPos := map[string]int{}
	for i, l := range DefaultEngagementTiers() {
		tierPos[l] = i
	}
	prevTier, prevRank := 0, 0
	for _, r := range res.Records {
		pos := tierPos[r.Stratum]
		if pos < prevTier {
			t.Fatalf("record in %q after a higher tier", r.Stratum)
		}
		if pos > prevTier {
			prevTier, prevRank = pos, 0
		}
		if r.Rank != prevRank+1 {
			t.Fatalf("rank=%d, want %d", r.Rank, prevRank+1)
		}
		prevRank = r.Rank
		if r.Submission.EngagementTier != r.Stratum {
			t.Fatalf("EngagementTier=%q, stratum=%q", r.Submission.EngagementTier, r.Stratum)
		}
		if r.Submission.CommentCount != 2 || len(r.TopComments) != 2 {
			t.Fatalf("comments=%d attached=%d, want 2/2", r.Submission.CommentCount, len(r.TopComments))
		}
		if r.TopComments[0].Verdict != VerdictYTA || r.TopComments[0].Rank != 1 {
			t.Fatalf("top comment=%+v, want highest-scored YTA first", r.TopComments[0])
		}
		if r.Submission.DominantVerdict != VerdictNTA {
			t.Fatalf("DominantVerdict=%q, want NTA on a 1-1 tie", r.Submission.DominantVerdict)
		}
	}

	if res.Records[0].Submission.Score > 200 {
		t.Fatalf("first record score=%d, want a Very Low submission", res.Records[0].Submission.Score)
	}
}

func TestSampler_Idempotent(t *testing.T) {
	t.Parallel()

	run := func() ([]byte, []byte) {
		s, err := NewSampler(engagementConfig(), nil)
		if err != nil {
			t.Fatalf("NewSampler: %v", err)
		}
		res, err := s.Run(hundredDataset())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		recs, err := json.Marshal(res.Records)
		if err != nil {
			t.Fatalf("marshal records: %v", err)
		}
		meta, err := json.Marshal(res.Metadata)
		if err != nil {
			t.Fatalf("marshal metadata: %v", err)
		}
		return recs, meta
	}

	r1, m1 := run()
	r2, m2 := run()
	if string(r1) != string(r2) {
		t.Fatalf("records differ between runs")
	}
	if string(m1) != string(m2) {
		t.Fatalf("metadata differs between runs")
	}
}

func TestSampler_SeedChangesSelectionNotShape(t *testing.T) {
	t.Parallel()

	ds := hundredDataset()
	cfg := engagementConfig()
	cfg.TargetN = 10 // 10 per tier out of 20

	a, err := NewSampler(cfg, nil)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	resA, err := a.Run(ds)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	seed := int64(7)
	cfg.RandomSeed = &seed
	b, err := NewSampler(cfg, nil)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	resB, err := b.Run(ds)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(resA.Records) != 50 || len(resB.Records) != 50 {
		t.Fatalf("len=%d/%d, want 50/50", len(resA.Records), len(resB.Records))
	}
	if reflect.DeepEqual(resA.SubmissionTable(), resB.SubmissionTable()) {
		t.Fatalf("different seeds drew identical samples")
	}
	if resA.Metadata.RunID == resB.Metadata.RunID {
		t.Fatalf("run ids should differ when the selection differs")
	}
}

func TestSampler_VerdictMode(t *testing.T) {
	t.Parallel()

	ds := Dataset{
		Submissions: []Submission{
			{SubmissionID: "a", Selftext: "a", Score: 1},
			{SubmissionID: "b", Selftext: "b", Score: 2},
			{SubmissionID: "c", Selftext: "c", Score: 3},
			{SubmissionID: "d", Selftext: "d", Score: 4},
		},
		Comments: []Comment{
			{SubmissionID: "a", CommentID: "a1", Message: "NTA"},
			{SubmissionID: "a", CommentID: "a2", Message: "NTA for sure"},
			{SubmissionID: "a", CommentID: "a3", Message: "YTA"},
			{SubmissionID: "b", CommentID: "b1", Message: "yta"},
			{SubmissionID: "c", CommentID: "c1", Message: "lol"},
			{SubmissionID: "d", CommentID: "d1", Message: "ESH"},
		},
	}

	cfg := DefaultConfig()
	cfg.StratificationMode = ModeVerdict
	cfg.DrawPolicy = DrawOrdered
	cfg.TargetN = 4
	cfg.OversampleFactor = 1

	s, err := NewSampler(cfg, nil)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	res, err := s.Run(ds)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := map[string]string{}
	for _, r := range res.Records {
		got[r.Submission.SubmissionID] = r.Stratum
		if string(r.Submission.DominantVerdict) != r.Stratum {
			t.Fatalf("DominantVerdict=%q, stratum=%q", r.Submission.DominantVerdict, r.Stratum)
		}
	}
	want := map[string]string{"a": "NTA", "b": "YTA", "d": "ESH"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("strata=%v, want %v", got, want)
	}
	if res.Metadata.Strata.ExcludedNoVerdict != 1 {
		t.Fatalf("ExcludedNoVerdict=%d, want 1", res.Metadata.Strata.ExcludedNoVerdict)
	}

	exhausted := false
	for _, w := range res.Metadata.Warnings {
		if w.Kind == WarningFilterExhaustion && w.Stratum == "NAH" {
			exhausted = true
		}
	}
	if !exhausted {
		t.Fatalf("expected filter_exhaustion warning for NAH, got %v", res.Metadata.Warnings)
	}

	cfg.IncludeNoneStratum = true
	s, err = NewSampler(cfg, nil)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	res, err = s.Run(ds)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Records) != 4 {
		t.Fatalf("len(records)=%d, want 4 with none stratum", len(res.Records))
	}
	last := res.Records[len(res.Records)-1]
	if last.Stratum != "none" || last.Submission.SubmissionID != "c" {
		t.Fatalf("last record=%s/%s, want none/c", last.Stratum, last.Submission.SubmissionID)
	}
	if last.Submission.AvgCommentScore == nil {
		t.Fatalf("expected an average for a submission with comments")
	}
}

func TestNewSampler_ConfigurationError(t *testing.T) {
	t.Parallel()

	bad := []func(*Config){
		func(c *Config) { c.TargetN = 0 },
		func(c *Config) { c.OversampleFactor = 0 },
		func(c *Config) { c.StratificationMode = "length" },
		func(c *Config) { c.RandomSeed = nil },
		func(c *Config) { c.TieBreakOrder = []Verdict{VerdictNTA, VerdictNTA} },
		func(c *Config) { c.CommentsPerSubmission = -1 },
	}
	for i, mutate := range bad {
		cfg := DefaultConfig()
		mutate(&cfg)
		_, err := NewSampler(cfg, nil)
		var ce *ConfigurationError
		if !errors.As(err, &ce) {
			t.Fatalf("case %d: err=%v, want *ConfigurationError", i, err)
		}
	}
}

func TestSampler_InputError(t *testing.T) {
	t.Parallel()

	s, err := NewSampler(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}

	cases := []Dataset{
		{},
		{Submissions: []Submission{{SubmissionID: "a", Selftext: "x"}}},
		{
			Submissions: []Submission{{SubmissionID: "a"}, {SubmissionID: "a"}},
			Comments:    []Comment{{SubmissionID: "a", Message: "NTA"}},
		},
	}
	for i, ds := range cases {
		_, err := s.Run(ds)
		var ie *InputError
		if !errors.As(err, &ie) {
			t.Fatalf("case %d: err=%v, want *InputError", i, err)
		}
	}
}

func TestSampler_NoEligibleSubmissionsIsNotAnError(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.MaxSubmissionChars = 1
	s, err := NewSampler(cfg, nil)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	res, err := s.Run(hundredDataset())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Records) != 0 {
		t.Fatalf("len(records)=%d, want 0", len(res.Records))
	}
	if res.Metadata.Filter.Submissions.DroppedTooLong != 100 {
		t.Fatalf("filter=%+v", res.Metadata.Filter.Submissions)
	}
	if len(res.Metadata.Statistics.Distribution) != 5 {
		t.Fatalf("distribution should list every tier: %v", res.Metadata.Statistics.Distribution)
	}
}

func TestSampler_ReportsDefaultedCells(t *testing.T) {
	t.Parallel()

	ds := hundredDataset()
	ds.Defaulted = map[string]int{"comment.created_utc": 3}
	s, err := NewSampler(engagementConfig(), nil)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	res, err := s.Run(ds)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := res.Metadata.Input.Defaulted["comment.created_utc"]; got != 3 {
		t.Fatalf("Defaulted[comment.created_utc]=%d, want 3", got)
	}
	ds.Defaulted["comment.created_utc"] = 9
	if got := res.Metadata.Input.Defaulted["comment.created_utc"]; got != 3 {
		t.Fatalf("metadata shares the dataset map")
	}

	clean, err := s.Run(hundredDataset())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if clean.Metadata.Input.Defaulted != nil {
		t.Fatalf("Defaulted=%v, want nil", clean.Metadata.Input.Defaulted)
	}
}
