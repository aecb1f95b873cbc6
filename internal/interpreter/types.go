package interpreter

import (
	"context"
	"time"
)

// Intent is the classified calendar action.
type Intent string

const (
	IntentCreate Intent = "create"
	IntentRead   Intent = "read"
	IntentUpdate Intent = "update"
	IntentDelete Intent = "delete"
	// IntentNone means the input could not be understood. A command with
	// IntentNone carries no other fields.
	IntentNone Intent = "none"
)

// TargetAll is the sentinel target_event value meaning "every event whose
// title matches". It is only legal for delete commands.
const TargetAll = "all"

// ParsedCommand is the structured result of interpreting one natural-language
// sentence. A fresh value is produced per input and never mutated afterwards.
//
// Optional fields use their zero value for "absent": empty string, zero
// time.Time. All times are timezone-naive local wall clock.
type ParsedCommand struct {
	Intent      Intent    `json:"intent"`
	Title       string    `json:"title,omitempty"`
	StartTime   time.Time `json:"start_time,omitempty"`
	EndTime     time.Time `json:"end_time,omitempty"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	// TargetEvent identifies an existing event for update/delete, or holds
	// TargetAll for bulk delete.
	TargetEvent string `json:"target_event,omitempty"`
	// Confidence is a normalized pattern-match score, produced only by the
	// rule-based path. It is a best-effort ranking signal, not a calibrated
	// probability.
	Confidence float64 `json:"confidence,omitempty"`
}

// Interpreter turns one sentence into a ParsedCommand. Implementations never
// fail hard on unparseable input: anything they cannot understand comes back
// as IntentNone with a nil error.
type Interpreter interface {
	Parse(ctx context.Context, text string) (ParsedCommand, error)
}

func parseIntent(s string) Intent {
	switch Intent(s) {
	case IntentCreate, IntentRead, IntentUpdate, IntentDelete:
		return Intent(s)
	default:
		return IntentNone
	}
}
