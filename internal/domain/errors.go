package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPromptNotFound signals a missing prompt.
	ErrPromptNotFound = errors.New("prompt not found")
	// ErrSlugTaken signals a slug reserved by another prompt.
	ErrSlugTaken = errors.New("slug already taken")
	// ErrInvalidPrompt signals a prompt that failed validation.
	ErrInvalidPrompt = errors.New("invalid prompt")
	// ErrInvalidQuery signals invalid search criteria.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrForbidden signals an operation reserved for the prompt author.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated signals a missing viewer identity.
	ErrUnauthenticated = errors.New("viewer identity required")

	// ErrRevisionConflict signals an optimistic locking conflict.
	ErrRevisionConflict = errors.New("revision conflict")
	// ErrQuotaExceeded signals an exhausted playground token budget.
	ErrQuotaExceeded = errors.New("token quota exceeded")
	// ErrProviderError signals a completion provider failure.
	ErrProviderError = errors.New("completion provider error")
	// ErrUnsupportedModel signals a model the prompt is not compatible with.
	ErrUnsupportedModel = errors.New("unsupported model")
	// ErrMissingVariables signals template variables with neither a value nor a default.
	ErrMissingVariables = errors.New("missing template variables")
	// ErrPlaygroundDisabled signals that no completion provider is configured.
	ErrPlaygroundDisabled = errors.New("playground disabled")
)

// RevisionConflictError wraps ErrRevisionConflict with the current prompt revision.
type RevisionConflictError struct {
	CurrentRevision int
}

func (e *RevisionConflictError) Error() string {
	return fmt.Sprintf("%s: current revision is %d", ErrRevisionConflict.Error(), e.CurrentRevision)
}

func (e *RevisionConflictError) Unwrap() error { return ErrRevisionConflict }

// NewRevisionConflict creates a revision conflict error.
func NewRevisionConflict(currentRevision int) error {
	return &RevisionConflictError{CurrentRevision: currentRevision}
}
