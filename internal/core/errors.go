package core

import (
	"errors"
	"fmt"
)

// Run-level failures. Per-record problems never surface as errors; they are
// counted in the Report instead.
var (
	ErrNoMap             = errors.New("no map selected")
	ErrNoFields          = errors.New("the selected map has no fields")
	ErrUnsupportedAction = errors.New("action not supported")
	ErrNoData            = errors.New("no data to process")
	ErrPreSQL            = errors.New("pre sql query failed")
	ErrPostSQL           = errors.New("post sql query failed")
	ErrCommit            = errors.New("commit failed")
)

// ErrNoKey is the per-record failure for Update/Append records in which no
// key field produced a value.
var ErrNoKey = errors.New(NoKeyMessage)

// Stable report texts.
const (
	NoKeyMessage = "No Key defined in map."
)

// ignoredError marks a record with nothing to write.
type ignoredError struct {
	verb string
}

func (e ignoredError) Error() string {
	return "There are no columns to " + e.verb
}

func errorRecord(record int, text string) string {
	return fmt.Sprintf("ERROR Record %d: %s", record, text)
}

func ignoredRecord(record int, reason string) string {
	return fmt.Sprintf("IGNORED Record %d: %s", record, reason)
}
