package sampling

import "fmt"

// InputError reports a dataset that cannot be sampled: missing columns, empty tables
// or duplicate ids. It is fatal for the run.
type InputError struct {
	Table  string
	Reason string
}

func (e *InputError) Error() string {
	if e.Table == "" {
		return "input error: " + e.Reason
	}
	return fmt.Sprintf("input error: %s: %s", e.Table, e.Reason)
}

// ConfigurationError reports an invalid configuration value. It is raised before any
// data is touched.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// WarningKind classifies non-fatal conditions recorded in run metadata.
type WarningKind string

const (
	WarningFilterExhaustion    WarningKind = "filter_exhaustion"
	WarningInsufficientStratum WarningKind = "insufficient_stratum"
)

// Warning is a non-fatal condition. Warnings never stop a run.
type Warning struct {
	Kind    WarningKind `json:"kind" yaml:"kind"`
	Stratum string      `json:"stratum,omitempty" yaml:"stratum,omitempty"`
	Count   int         `json:"count" yaml:"count"`
	Message string      `json:"message" yaml:"message"`
}

func filterExhaustionWarning(label string) Warning {
	return Warning{
		Kind:    WarningFilterExhaustion,
		Stratum: label,
		Message: fmt.Sprintf("stratum %q has no eligible submissions after filtering", label),
	}
}

func insufficientStratumWarning(d Draw) Warning {
	return Warning{
		Kind:    WarningInsufficientStratum,
		Stratum: d.Label,
		Count:   d.Shortfall,
		Message: fmt.Sprintf("stratum %q requested %d, only %d available", d.Label, d.Requested, d.Available),
	}
}
