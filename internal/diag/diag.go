// Package diag collects non-fatal data-quality findings produced while a
// survey dataset is transformed. Diagnostics never interrupt row processing;
// they are accumulated and surfaced to the caller after the run completes.
package diag

import "fmt"

// Severity classifies a diagnostic finding.
type Severity string

const (
	// SeverityWarning marks recoverable findings such as skipped fields or
	// unresolved species names.
	SeverityWarning Severity = "warning"
	// SeverityError marks findings that degraded the output (for example a
	// value replaced by the missing marker after a failed conversion).
	SeverityError Severity = "error"
)

// Diagnostic is a single finding attributed to a pipeline stage.
type Diagnostic struct {
	Stage    string   `json:"stage"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s [%s]: %s", d.Stage, d.Severity, d.Message)
}

// Collector accumulates diagnostics in emission order.
type Collector struct {
	entries []Diagnostic
}

// Warnf records a warning-severity diagnostic for the given stage.
func (c *Collector) Warnf(stage, format string, args ...any) {
	c.entries = append(c.entries, Diagnostic{Stage: stage, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)})
}

// Errorf records an error-severity diagnostic for the given stage.
func (c *Collector) Errorf(stage, format string, args ...any) {
	c.entries = append(c.entries, Diagnostic{Stage: stage, Severity: SeverityError, Message: fmt.Sprintf(format, args...)})
}

// Extend appends previously collected diagnostics.
func (c *Collector) Extend(entries []Diagnostic) {
	c.entries = append(c.entries, entries...)
}

// Entries returns a defensive copy of the collected diagnostics.
func (c *Collector) Entries() []Diagnostic {
	out := make([]Diagnostic, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len reports the number of collected diagnostics.
func (c *Collector) Len() int { return len(c.entries) }
