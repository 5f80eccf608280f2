package lifecycle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"cybercrime-portal/pkg/catalog"
)

var (
	ErrCaseNotFound          = errors.New("case not found")
	ErrEvidenceNotFound      = errors.New("evidence not found")
	ErrCommunicationNotFound = errors.New("communication not found")
)

// FieldError is one violated rule on one input field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError carries every field violation found in one pass.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Has reports whether field was rejected.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Add records one violation.
func (e *ValidationError) Add(field, rule, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Rule: rule, Message: msg})
}

// OrNil returns e as an error, or nil when nothing was recorded.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// InvalidField reports a single rejected field.
func InvalidField(field, rule, msg string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Rule: rule, Message: msg}}}
}

// AuthorizationError means the acting user lacks the capability an operation needs.
type AuthorizationError struct {
	Permission catalog.Permission
	Reason     string
}

func (e *AuthorizationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("not authorized: %s", e.Reason)
	}
	return fmt.Sprintf("not authorized: missing permission %q", e.Permission)
}

// InvalidTransitionError is an edge the case state machine does not permit.
type InvalidTransitionError struct {
	From    catalog.CaseStatus
	To      catalog.CaseStatus
	Allowed []catalog.CaseStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// InvalidStateError is an operation attempted on a case whose status forbids it.
type InvalidStateError struct {
	Status    catalog.CaseStatus
	Operation string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s a case in status %s", e.Operation, e.Status)
}

// SizeLimitExceededError is an upload larger than its declared type allows.
type SizeLimitExceededError struct {
	Type  catalog.EvidenceType
	Size  int64
	Limit uint64
}

func (e *SizeLimitExceededError) Error() string {
	return fmt.Sprintf("%s evidence of %s exceeds the %s limit",
		e.Type, humanize.Bytes(uint64(e.Size)), humanize.Bytes(e.Limit))
}
