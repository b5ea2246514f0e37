package workflow

import (
	"errors"
	"fmt"
)

var (
	// The event id passed to Open is not in the store's listing.
	ErrNotFound = errors.New("event not found")
	// A submit or delete is already in flight for this workflow.
	ErrInFlight = errors.New("another operation is in flight")
	// The action is only valid while a form is open.
	ErrNotEditing = errors.New("no event form is open")
)

type ValidationCode int

const (
	EmptyTitle ValidationCode = iota
	TitleTooLong
	DescriptionTooLong
	MissingDate
)

// ValidationError is a local, recoverable draft problem. It is surfaced
// inline on the open form and never reaches the host.
type ValidationError struct {
	Code ValidationCode

	// limit behind TitleTooLong / DescriptionTooLong, for the message
	Limit int
}

func (e *ValidationError) Error() string {
	switch e.Code {
	case EmptyTitle:
		return "Title cannot be empty."
	case TitleTooLong:
		return fmt.Sprintf("Title cannot be longer than %d characters.", e.Limit)
	case DescriptionTooLong:
		return fmt.Sprintf("Description cannot be longer than %d characters.", e.Limit)
	case MissingDate:
		return "Date is required."
	default:
		return "Invalid event."
	}
}

// PersistenceError wraps a store rejection; the message is shown to the
// user verbatim while the form stays open for a retry.
type PersistenceError struct {
	Message string
}

func (e *PersistenceError) Error() string {
	return e.Message
}
