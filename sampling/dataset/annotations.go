package dataset

import (
	"fmt"
	"strings"

	"github.com/theimaginaryfoundation/aita-sampler/sampling"
)

const AnnotationTable = "annotation"

var (
	annotationRequired = []string{"comment_id", "actual"}
	annotationColumns  = []string{"comment_id", "submission_id", "predicted", "actual", "submission_title", "message"}
)

// LoadAnnotationsCSV reads hand-labelled verdicts. Rows with a blank actual column are
// skipped so a partly filled template can be evaluated.
func LoadAnnotationsCSV(path string) ([]sampling.VerdictAnnotation, error) {
	var out []sampling.VerdictAnnotation
	err := readCSV(path, AnnotationTable, annotationRequired, func(r row) error {
		actual := strings.ToUpper(strings.TrimSpace(r.str("actual")))
		if actual == "" {
			return nil
		}
		if actual == "NONE" {
			actual = string(sampling.VerdictNone)
		}
		v, err := sampling.ParseVerdict(actual)
		if err != nil {
			return fmt.Errorf("line %d: %w", r.line, err)
		}
		out = append(out, sampling.VerdictAnnotation{CommentID: r.str("comment_id"), Actual: v})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, &sampling.InputError{Table: AnnotationTable, Reason: "no labelled rows"}
	}
	return out, nil
}

// WriteAnnotationTemplateCSV writes an audit sample with an empty actual column for labelling.
func WriteAnnotationTemplateCSV(path string, items []sampling.AuditItem) error {
	return writeCSV(path, annotationColumns, len(items), func(i int) []string {
		it := items[i]
		return []string{it.CommentID, it.SubmissionID, string(it.Predicted), "", it.SubmissionTitle, it.Message}
	})
}
