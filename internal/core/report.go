package core

import (
	"fmt"
	"strings"
)

// Outcome is the final state of a run.
type Outcome string

const (
	// OutcomeCommitted means every stage finished and the work was kept.
	// Individual records may still have failed; see Report.Errors.
	OutcomeCommitted Outcome = "Committed"
	// OutcomeRolledBack means the run was undone by a post SQL failure,
	// a commit failure or cancellation.
	OutcomeRolledBack Outcome = "RolledBack"
	// OutcomeAborted means no record was processed.
	OutcomeAborted Outcome = "Aborted"
)

// Report is the result of one import run.
type Report struct {
	Map    string `json:"map"`
	Table  string `json:"table"`
	Action string `json:"action"`

	Total     int `json:"total"`
	Processed int `json:"processed"`
	Ignored   int `json:"ignored"`
	Errors    int `json:"errors"`

	// ErrorMessages holds ERROR and IGNORED lines in record order.
	ErrorMessages []string `json:"errorMessages"`
	PreSQLError   string   `json:"preSqlError,omitempty"`
	PostSQLError  string   `json:"postSqlError,omitempty"`

	Outcome  Outcome `json:"outcome"`
	Canceled bool    `json:"canceled,omitempty"`
}

// Succeeded reports a committed run without record errors. Ignored records
// do not count against success.
func (r *Report) Succeeded() bool {
	return r.Outcome == OutcomeCommitted && r.Errors == 0
}

// Reached is the number of records the run got through.
func (r *Report) Reached() int {
	return r.Processed + r.Ignored + r.Errors
}

func (r *Report) addError(record int, text string) {
	r.Errors++
	r.ErrorMessages = append(r.ErrorMessages, errorRecord(record, text))
}

func (r *Report) addIgnored(record int, reason string) {
	r.Ignored++
	r.ErrorMessages = append(r.ErrorMessages, ignoredRecord(record, reason))
}

// String renders the report as the import log block.
func (r *Report) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Map: %s\n", r.Map)
	fmt.Fprintf(&b, "Table: %s\n", r.Table)
	fmt.Fprintf(&b, "Method: %s\n", r.Action)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Total Records: %d\n", r.Total)
	fmt.Fprintf(&b, "# Processed:   %d\n", r.Processed)
	fmt.Fprintf(&b, "# Ignored:     %d\n", r.Ignored)
	fmt.Fprintf(&b, "# Errors:      %d\n", r.Errors)

	if r.PreSQLError != "" {
		fmt.Fprintf(&b, "\nERROR Running Pre SQL query: %s\n", r.PreSQLError)
	}
	if len(r.ErrorMessages) > 0 {
		b.WriteString("\n")
		for _, msg := range r.ErrorMessages {
			b.WriteString(msg)
			b.WriteString("\n")
		}
	}
	if r.PostSQLError != "" {
		fmt.Fprintf(&b, "\nERROR Running Post SQL query: %s\n", r.PostSQLError)
	}
	if r.Canceled {
		b.WriteString("\nImport canceled by user.\n")
	}

	fmt.Fprintf(&b, "\nOutcome: %s\n", r.Outcome)
	return b.String()
}
