package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"go.uber.org/zap"

	"github.com/theimaginaryfoundation/aita-sampler/sampling"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/dataset"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/fileutils"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/logging"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/provider"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.usesModel() && apiKey == "" {
		fmt.Fprintln(os.Stderr, "missing OPENAI_API_KEY (or pass -api-key, -annotations or -template-only)")
		os.Exit(2)
	}

	logger := logging.OrNop(cfg.Verbose)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ds, err := dataset.Load(ctx, cfg.source())
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed loading data:", err.Error())
		os.Exit(1)
	}

	sample := sampling.AuditSample(ds, sampling.NewVerdictExtractor(), cfg.PerCategory, cfg.Seed)
	if len(sample) == 0 {
		fmt.Fprintln(os.Stderr, "no comments to audit")
		os.Exit(1)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	if cfg.TemplateOnly {
		p := filepath.Join(cfg.OutputDir, "audit_template.csv")
		if err := dataset.WriteAnnotationTemplateCSV(p, sample); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		fmt.Fprintf(os.Stdout, "sampled=%d template=%s\n", len(sample), p)
		return
	}

	var annotations []sampling.VerdictAnnotation
	if cfg.Annotations != "" {
		annotations, err = dataset.LoadAnnotationsCSV(cfg.Annotations)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(2)
		}
	} else {
		client := openai.NewClient(option.WithAPIKey(apiKey))
		adj := &progressAdjudicator{
			next:   openAIVerdictAdjudicator{client: &client, model: cfg.Model},
			total:  len(sample),
			start:  time.Now(),
			logger: logger,
		}
		annotations, err = sampling.AdjudicateSample(ctx, adj, sample)
		if err != nil {
			fmt.Fprintln(os.Stderr, "adjudication failed:", err.Error())
			os.Exit(1)
		}
		if err := fileutils.WriteJSONLinesAtomic(filepath.Join(cfg.OutputDir, "audit_annotations.jsonl"), annotations); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	}

	report, err := sampling.EvaluateVerdicts(sample, annotations)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	samplePath := filepath.Join(cfg.OutputDir, "audit_sample.jsonl")
	reportPath := filepath.Join(cfg.OutputDir, "verdict_qa.json")
	if err := fileutils.WriteJSONLinesAtomic(samplePath, sample); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	if err := fileutils.WriteJSONFileAtomic(reportPath, report, cfg.Pretty); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	renderReport(os.Stderr, report)
	fmt.Fprintf(os.Stdout, "audited=%d agreement=%.3f confusions=%d report=%s\n",
		report.Total, report.Agreement, len(report.ConfusionCases), reportPath)
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.Source, "source", cfg.Source, "Input format: csv|sqlite")
	fs.StringVar(&cfg.Submissions, "submissions", cfg.Submissions, "Submissions CSV")
	fs.StringVar(&cfg.Comments, "comments", cfg.Comments, "Comments CSV")
	fs.StringVar(&cfg.SQLitePath, "sqlite", cfg.SQLitePath, "SQLite snapshot for -source sqlite")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Directory to write the audit sample and report into")
	fs.IntVar(&cfg.PerCategory, "per-category", cfg.PerCategory, "Comments sampled per predicted verdict (none included)")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Seed for the audit sample")
	fs.StringVar(&cfg.Annotations, "annotations", "", "Labelled CSV (comment_id, actual) to evaluate against instead of a model")
	fs.BoolVar(&cfg.TemplateOnly, "template-only", false, "Write the audit sample as a labelling CSV and exit")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "OpenAI model used as the reference labeller")
	fs.StringVar(&cfg.APIKey, "api-key", "", "OpenAI API key (overrides OPENAI_API_KEY env var)")
	fs.BoolVar(&cfg.Pretty, "pretty", false, "Pretty-print the JSON report")
	fs.BoolVar(&cfg.Verbose, "v", false, "Debug logging")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExamples:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/verdict-audit -template-only")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/verdict-audit -annotations data/samples/audit/audit_template.csv")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.OutputDir = filepath.Clean(cfg.OutputDir)
	if cfg.Annotations != "" {
		cfg.Annotations = filepath.Clean(cfg.Annotations)
	}
	return cfg, nil
}

type openAIVerdictAdjudicator struct {
	client *openai.Client
	model  string
}

type adjudicationRequest struct {
	SubmissionTitle string `json:"submission_title,omitempty"`
	Comment         string `json:"comment"`
}

type adjudicationResponse struct {
	Verdict   string `json:"verdict" jsonschema:"enum=YTA,enum=NTA,enum=ESH,enum=NAH,enum=none"`
	Rationale string `json:"rationale"`
}

var adjudicationSchema = provider.GenerateSchema[adjudicationResponse]()

func (a openAIVerdictAdjudicator) Adjudicate(ctx context.Context, item sampling.AuditItem) (sampling.Verdict, error) {
	if a.client == nil {
		return "", errors.New("openAIVerdictAdjudicator: client is nil")
	}
	if a.model == "" {
		return "", errors.New("openAIVerdictAdjudicator: model is empty")
	}

	payload, err := json.Marshal(adjudicationRequest{
		SubmissionTitle: fileutils.Truncate(item.SubmissionTitle, 300),
		Comment:         fileutils.Truncate(item.Message, 4000),
	})
	if err != nil {
		return "", err
	}

	params := responses.ResponseNewParams{
		Model:           a.model,
		MaxOutputTokens: openai.Int(400),
		Instructions:    openai.String(verdictAdjudicationPrompt),
		ServiceTier:     responses.ResponseNewParamsServiceTierFlex,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(string(payload), responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: provider.JSONSchemaFormat("VerdictLabel", "AITA verdict label JSON", adjudicationSchema),
		},
	}

	resp, err := provider.CallWithRetry(ctx, a.client, params)
	if err != nil {
		return "", err
	}
	v, err := decodeAdjudication(resp.OutputText())
	if err != nil {
		return "", fmt.Errorf("openAIVerdictAdjudicator: %s: %w", item.CommentID, err)
	}
	return v, nil
}

// decodeAdjudication reads the label from a model response; a response without a verdict is an error.
func decodeAdjudication(outputText string) (sampling.Verdict, error) {
	var out adjudicationResponse
	if err := fileutils.DecodeModelJSON(outputText, &out, "verdict"); err != nil {
		return "", err
	}
	return parseModelVerdict(out.Verdict)
}

func parseModelVerdict(s string) (sampling.Verdict, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, string(sampling.VerdictNone)) {
		return sampling.VerdictNone, nil
	}
	return sampling.ParseVerdict(strings.ToUpper(s))
}

// progressAdjudicator reports progress to stderr every few items; labelling can take minutes.
type progressAdjudicator struct {
	next   sampling.VerdictAdjudicator
	total  int
	done   int
	start  time.Time
	logger *zap.Logger
}

func (p *progressAdjudicator) Adjudicate(ctx context.Context, item sampling.AuditItem) (sampling.Verdict, error) {
	v, err := p.next.Adjudicate(ctx, item)
	if err != nil {
		return "", err
	}
	p.done++
	if p.done%10 == 0 || p.done == p.total {
		fmt.Fprintf(os.Stderr, "progress verdict-audit: %d/%d comments labelled (elapsed=%s)\n",
			p.done, p.total, time.Since(p.start).Round(time.Second))
	}
	p.logger.Debug("adjudicated", zap.String("comment_id", item.CommentID), zap.String("predicted", string(item.Predicted)), zap.String("actual", string(v)))
	return v, nil
}

func renderReport(out io.Writer, report sampling.VerdictQAReport) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("Verdict agreement %.1f%% over %d comments", 100*report.Agreement, report.Total))
	t.AppendHeader(table.Row{"Verdict", "Precision", "Recall", "Support"})

	verdicts := make([]string, 0, len(report.PerCategory))
	for v := range report.PerCategory {
		verdicts = append(verdicts, string(v))
	}
	sort.Strings(verdicts)
	for _, v := range verdicts {
		m := report.PerCategory[sampling.Verdict(v)]
		t.AppendRow(table.Row{v, fmt.Sprintf("%.2f", m.Precision), fmt.Sprintf("%.2f", m.Recall), m.Support})
	}
	t.Render()
}
