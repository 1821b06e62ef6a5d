package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies failures so callers can branch on error class
// without inspecting messages.
type Kind string

const (
	KindConfiguration Kind = "configuration_error"
	KindEmbedding     Kind = "embedding_error"
	KindRetrieval     Kind = "retrieval_error"
	KindLLM           Kind = "llm_error"
	KindValidation    Kind = "validation_error"
)

// Error is the application error carried across component boundaries.
// Details holds structured context safe to log and return to operators.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func New(kind Kind, message string, cause error, details map[string]any) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Details: details,
		cause:   cause,
	}
}

func Configuration(message string, details map[string]any) *Error {
	return New(KindConfiguration, message, nil, details)
}

func Embedding(message string, cause error) *Error {
	return New(KindEmbedding, message, cause, nil)
}

func Retrieval(message string, cause error) *Error {
	return New(KindRetrieval, message, cause, nil)
}

func LLM(message string, cause error) *Error {
	return New(KindLLM, message, cause, nil)
}

func Validation(message string, details map[string]any) *Error {
	return New(KindValidation, message, nil, details)
}

// IsKind reports whether err (or anything it wraps) is an *Error of kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
