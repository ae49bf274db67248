package repository

import (
	"context"
	"errors"
	"time"

	"github.com/papershelf/papershelf/backend/go-services/internal/paper"
)

var (
	ErrNotFound    = errors.New("paper not found")
	ErrDuplicateID = errors.New("paper id already exists")
)

// Store persists papers with their embedded notes, keyed by the public id.
// Every method is a single atomic document operation: a failed call leaves the
// stored paper as it was. Concurrent Update calls are last-write-wins.
type Store interface {
	Create(ctx context.Context, p *paper.Paper) error
	Get(ctx context.Context, id string) (*paper.Paper, error)
	// List returns matching papers in insertion order.
	List(ctx context.Context, f paper.Filter) ([]*paper.Paper, error)
	// Update replaces the paper's own fields (not its notes).
	Update(ctx context.Context, p *paper.Paper) error
	// Delete removes the paper and every embedded note.
	Delete(ctx context.Context, id string) error
	AppendNote(ctx context.Context, paperID string, n paper.Note, at time.Time) error
	// RemoveNote returns ErrNotFound when the paper or the note is missing.
	RemoveNote(ctx context.Context, paperID, noteID string, at time.Time) error
}
