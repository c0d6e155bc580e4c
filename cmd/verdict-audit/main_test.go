package main

import (
	"bytes"
	"context"
	"flag"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/theimaginaryfoundation/aita-sampler/sampling"
)

func TestParseFlags_Overrides(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("verdict-audit", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{
		"-annotations", "labels/./audit.csv",
		"-per-category", "5",
		"-api-key", "k",
	})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.Annotations != "labels/audit.csv" {
		t.Fatalf("Annotations=%q", cfg.Annotations)
	}
	if cfg.PerCategory != 5 || cfg.APIKey != "k" {
		t.Fatalf("PerCategory=%d APIKey=%q", cfg.PerCategory, cfg.APIKey)
	}
	if cfg.usesModel() {
		t.Fatalf("usesModel=true with -annotations")
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	if err := (Config{}).Validate(); err == nil {
		t.Fatalf("expected error")
	}
	both := defaultConfig()
	both.Annotations = "a.csv"
	both.TemplateOnly = true
	if err := both.Validate(); err == nil {
		t.Fatalf("expected error for -annotations with -template-only")
	}
	if err := defaultConfig().Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestParseModelVerdict(t *testing.T) {
	t.Parallel()

	cases := map[string]sampling.Verdict{
		"NTA":    sampling.VerdictNTA,
		" yta ":  sampling.VerdictYTA,
		"None":   sampling.VerdictNone,
		"esh":    sampling.VerdictESH,
	}
	for in, want := range cases {
		got, err := parseModelVerdict(in)
		if err != nil || got != want {
			t.Fatalf("parseModelVerdict(%q)=%q,%v want %q", in, got, err, want)
		}
	}
	if _, err := parseModelVerdict("INFO"); err == nil {
		t.Fatalf("expected error for unknown label")
	}
}

func TestDecodeAdjudication(t *testing.T) {
	t.Parallel()

	got, err := decodeAdjudication("```json\n{\"verdict\":\"nah\",\"rationale\":\"no one is wrong\"}\n```")
	if err != nil || got != sampling.VerdictNAH {
		t.Fatalf("decodeAdjudication=%q,%v want NAH", got, err)
	}
	for _, in := range []string{
		`{"rationale":"the commenter sides with OP"}`,
		`{"verdict":null}`,
		`{"verdict":"INFO","rationale":"needs more info"}`,
		"",
	} {
		if v, err := decodeAdjudication(in); err == nil {
			t.Fatalf("decodeAdjudication(%q)=%q, want error", in, v)
		}
	}
}

func TestAdjudicationSchema_VerdictEnum(t *testing.T) {
	t.Parallel()

	props, ok := adjudicationSchema["properties"].(map[string]interface{})
	if !ok {
		t.Fatalf("schema properties missing: %v", adjudicationSchema)
	}
	verdict, ok := props["verdict"].(map[string]interface{})
	if !ok {
		t.Fatalf("verdict property missing: %v", props)
	}
	enum, ok := verdict["enum"].([]interface{})
	if !ok || len(enum) != 5 {
		t.Fatalf("enum=%v, want 5 labels", verdict["enum"])
	}
}

type fakeAdjudicator struct {
	labels map[string]sampling.Verdict
}

func (f fakeAdjudicator) Adjudicate(_ context.Context, item sampling.AuditItem) (sampling.Verdict, error) {
	return f.labels[item.CommentID], nil
}

func TestProgressAdjudicator_WrapsAndCounts(t *testing.T) {
	t.Parallel()

	sample := []sampling.AuditItem{
		{CommentID: "c1", Predicted: sampling.VerdictNTA},
		{CommentID: "c2", Predicted: sampling.VerdictYTA},
	}
	adj := &progressAdjudicator{
		next:   fakeAdjudicator{labels: map[string]sampling.Verdict{"c1": sampling.VerdictNTA, "c2": sampling.VerdictNTA}},
		total:  len(sample),
		start:  time.Now(),
		logger: zap.NewNop(),
	}
	anns, err := sampling.AdjudicateSample(context.Background(), adj, sample)
	if err != nil {
		t.Fatalf("AdjudicateSample: %v", err)
	}
	if adj.done != 2 || len(anns) != 2 {
		t.Fatalf("done=%d annotations=%d, want 2/2", adj.done, len(anns))
	}

	report, err := sampling.EvaluateVerdicts(sample, anns)
	if err != nil {
		t.Fatalf("EvaluateVerdicts: %v", err)
	}
	var buf bytes.Buffer
	renderReport(&buf, report)
	out := buf.String()
	if !strings.Contains(out, "50.0%") || !strings.Contains(out, "NTA") || !strings.Contains(out, "YTA") {
		t.Fatalf("report table=%s", out)
	}
}
