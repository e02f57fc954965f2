package receipt

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("document already registered")

	ErrInvalidDocument      = errors.New("invalid document")
	ErrMissingReceiptNumber = fmt.Errorf("%w: missing receipt number", ErrInvalidDocument)
	ErrUnknownRole          = fmt.Errorf("%w: unknown role", ErrInvalidDocument)
)

// ValidationError reports a document that cannot be folded into a bundle.
// It carries the offending record so callers can surface it to the user.
type ValidationError struct {
	Document Document
	Err      error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("document %s (receipt %q, role %q): %v",
		e.Document.ID, e.Document.ReceiptNumber, e.Document.Role, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks the structural invariants every grouped document must hold.
func Validate(doc Document) error {
	if v := validate(doc); v != nil {
		return v
	}

	return nil
}

func validate(doc Document) *ValidationError {
	if strings.TrimSpace(doc.ReceiptNumber) == "" {
		return &ValidationError{Document: doc, Err: ErrMissingReceiptNumber}
	}

	if !doc.Role.Valid() {
		return &ValidationError{Document: doc, Err: ErrUnknownRole}
	}

	return nil
}
