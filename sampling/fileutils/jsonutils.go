package fileutils

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// DecodeModelJSON decodes the JSON object in a model response into v. Markdown code fences
// and prose around the object are ignored. Each key in required must be present and non-null,
// since a label response with the field dropped would otherwise decode to a zero value.
func DecodeModelJSON(outputText string, v any, required ...string) error {
	obj, err := extractObject(outputText)
	if err != nil {
		return err
	}
	if len(required) > 0 {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(obj, &fields); err != nil {
			return fmt.Errorf("DecodeModelJSON: not a JSON object: %w", err)
		}
		for _, key := range required {
			raw, ok := fields[key]
			if !ok || strings.TrimSpace(string(raw)) == "null" {
				return fmt.Errorf("DecodeModelJSON: missing %q in model output", key)
			}
		}
	}
	if err := json.Unmarshal(obj, v); err != nil {
		return fmt.Errorf("DecodeModelJSON: unmarshal (len=%d): %w", len(obj), err)
	}
	return nil
}

func extractObject(outputText string) ([]byte, error) {
	s := strings.TrimSpace(outputText)
	if s == "" {
		return nil, io.ErrUnexpectedEOF
	}
	if json.Valid([]byte(s)) {
		return []byte(s), nil
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end <= start {
		return nil, fmt.Errorf("DecodeModelJSON: no JSON object in model output (len=%d)", len(s))
	}
	return []byte(s[start : end+1]), nil
}
