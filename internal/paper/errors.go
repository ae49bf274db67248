package paper

import "errors"

var (
	ErrMissingRequiredField = errors.New("missing required field")
	ErrInvalidFieldFormat   = errors.New("invalid field format")
	ErrNotFound             = errors.New("paper not found")
	ErrNoteNotFound         = errors.New("note not found")
	// ErrNotAuthorized: the requester does not own the paper.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrNotAuthor: the requester did not write the note.
	ErrNotAuthor   = errors.New("not the author of this note")
	ErrPersistence = errors.New("persistence failure")
)
