package models

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports missing or malformed rail-specific fields.
// It is produced before any network call or ledger write happens.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = msg
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

// ProcessorError is a rejection or transport failure from a remote
// payment processor. It is never swallowed; the orchestrator decides
// whether to write a failed ledger entry.
type ProcessorError struct {
	Processor  string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProcessorError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("processor %s rejected payout: %s", e.Processor, e.Message)
	}
	return fmt.Sprintf("processor %s call failed", e.Processor)
}

func (e *ProcessorError) Unwrap() error { return e.Err }

// LedgerWriteError means the processor confirmed the payout but the
// local record could not be written. Money may have moved with no
// record of it, so this class is surfaced distinctly.
type LedgerWriteError struct {
	ProviderTransactionID string
	Err                   error
}

func (e *LedgerWriteError) Error() string {
	return fmt.Sprintf("payout %s processed but not recorded: %v", e.ProviderTransactionID, e.Err)
}

func (e *LedgerWriteError) Unwrap() error { return e.Err }
