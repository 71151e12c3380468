package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// ErrorCodeSeparator joins an error code to a field code in clarified
	// messages and replaces CompositeMarker inside property identifiers.
	ErrorCodeSeparator = " ◙ "
	// CompositeMarker separates the human field name from the business code
	// in a composite property identifier such as ShippedReferencevvvV94SDR.
	CompositeMarker = "vvv"
)

// FieldValidationError is one failing field reported by the entity validator.
type FieldValidationError struct {
	PropertyIdentifier string
	Message            string
}

// EntityValidationGroup holds the failing fields of one entity instance.
type EntityValidationGroup struct {
	Entry  EntitySnapshot
	Errors []FieldValidationError
}

// ValidationError is returned by a commit rejected before anything was written.
type ValidationError struct {
	Groups []EntityValidationGroup
}

func (e *ValidationError) Error() string {
	var msgs []string
	for _, g := range e.Groups {
		for _, fe := range g.Errors {
			msgs = append(msgs, fe.Message)
		}
	}
	return fmt.Sprintf("entity validation failed: %s", strings.Join(msgs, "; "))
}

// UpdateError is returned by a commit the store rejected during the write.
type UpdateError struct {
	Err error
}

func (e *UpdateError) Error() string {
	if e.Err == nil {
		return "update failed"
	}
	return "update failed: " + e.Err.Error()
}

func (e *UpdateError) Unwrap() error { return e.Err }

// ArgumentError is raised when the store refuses a bound parameter value.
// Its message echoes the offending value in single quotes.
type ArgumentError struct {
	Column  string
	Message string
}

func (e *ArgumentError) Error() string { return e.Message }

// CauseKind tags one record of an update failure chain.
type CauseKind int

const (
	CauseGeneric CauseKind = iota
	CauseArgumentInvalid
)

// Cause is one level of a nested failure.
type Cause struct {
	Kind    CauseKind
	Message string
}

// UpdateFailureChain lists causes from outermost to innermost.
type UpdateFailureChain []Cause

// NewUpdateFailureChain flattens err and everything it wraps. Joined errors
// are walked depth-first in order.
func NewUpdateFailureChain(err error) UpdateFailureChain {
	var chain UpdateFailureChain
	var walk func(error)
	walk = func(err error) {
		for err != nil {
			kind := CauseGeneric
			if _, ok := err.(*ArgumentError); ok {
				kind = CauseArgumentInvalid
			}
			chain = append(chain, Cause{Kind: kind, Message: err.Error()})

			if multi, ok := err.(interface{ Unwrap() []error }); ok {
				for _, inner := range multi.Unwrap() {
					walk(inner)
				}
				return
			}
			err = errors.Unwrap(err)
		}
	}
	walk(err)
	return chain
}

// FailureKind is the closed set of commit failures the save orchestrator knows.
type FailureKind int

const (
	FailureOther FailureKind = iota
	FailureValidation
	FailureUpdate
)

func (k FailureKind) String() string {
	switch k {
	case FailureValidation:
		return "validation"
	case FailureUpdate:
		return "update"
	default:
		return "other"
	}
}

// ClassifyFailure decides the failure kind of a commit error. Cancellation
// is always FailureOther so it propagates untouched.
func ClassifyFailure(err error) FailureKind {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return FailureOther
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return FailureValidation
	}
	var ue *UpdateError
	if errors.As(err, &ue) {
		return FailureUpdate
	}
	return FailureOther
}

// SaveError is the normalized error surfaced to callers of a failed commit.
// Message is the clarified text when one exists, else the basic one.
type SaveError struct {
	Kind      FailureKind
	ErrorCode string
	Message   string
	cause     error
}

func NewSaveError(kind FailureKind, code, message string, cause error) *SaveError {
	return &SaveError{Kind: kind, ErrorCode: code, Message: message, cause: cause}
}

func (e *SaveError) Error() string { return e.Message }

func (e *SaveError) Unwrap() error { return e.cause }
