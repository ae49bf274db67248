package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/papershelf/papershelf/backend/go-services/internal/models"
	"github.com/papershelf/papershelf/backend/go-services/internal/paper"
	"github.com/papershelf/papershelf/backend/go-services/internal/paper/repository"
	"github.com/papershelf/papershelf/backend/go-services/pkg/logger"
	"github.com/papershelf/papershelf/backend/go-services/pkg/metrics"
)

// AuthorDirectory resolves user ids to their public projection.
// Unknown ids are simply absent from the result.
type AuthorDirectory interface {
	Authors(ctx context.Context, ids []string) (map[string]models.Author, error)
}

// NoteService manages the notes embedded in a paper.
type NoteService struct {
	store   repository.Store
	authors AuthorDirectory
	now     func() time.Time
	newID   func() string
}

func NewNoteService(store repository.Store, authors AuthorDirectory) *NoteService {
	return &NoteService{
		store:   store,
		authors: authors,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// Add appends a note written by authorID to the paper.
func (s *NoteService) Add(ctx context.Context, paperID, authorID, text string) (*paper.NoteView, error) {
	if _, err := load(ctx, s.store, paperID); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text", paper.ErrMissingRequiredField)
	}
	if authorID == "" {
		return nil, fmt.Errorf("%w: author", paper.ErrMissingRequiredField)
	}

	now := s.now()
	n := paper.Note{ID: s.newID(), Text: text, AuthorID: authorID, CreatedAt: now, UpdatedAt: now}
	if err := s.store.AppendNote(ctx, paperID, n, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, paper.ErrNotFound
		}
		return nil, persistence("append note", err)
	}
	metrics.NoteOperations.WithLabelValues("add").Inc()

	views := s.resolve(ctx, []paper.Note{n})
	return &views[0], nil
}

// List returns the paper's notes, oldest first, with authors resolved.
func (s *NoteService) List(ctx context.Context, paperID string) ([]paper.NoteView, error) {
	p, err := load(ctx, s.store, paperID)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, p.Notes), nil
}

// Delete removes a note. Only the note's author may delete it, whoever owns the paper.
func (s *NoteService) Delete(ctx context.Context, paperID, noteID, requesterID string) error {
	p, err := load(ctx, s.store, paperID)
	if err != nil {
		return err
	}
	n := p.FindNote(noteID)
	if n == nil {
		return paper.ErrNoteNotFound
	}
	if n.AuthorID != requesterID {
		return paper.ErrNotAuthor
	}
	if err := s.store.RemoveNote(ctx, paperID, noteID, s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return paper.ErrNoteNotFound
		}
		return persistence("remove note", err)
	}
	metrics.NoteOperations.WithLabelValues("delete").Inc()
	return nil
}

func (s *NoteService) resolve(ctx context.Context, notes []paper.Note) []paper.NoteView {
	views := make([]paper.NoteView, len(notes))
	for i, n := range notes {
		views[i] = paper.NoteView{Note: n}
	}
	if s.authors == nil || len(notes) == 0 {
		return views
	}

	seen := map[string]bool{}
	ids := make([]string, 0, len(notes))
	for _, n := range notes {
		if !seen[n.AuthorID] {
			seen[n.AuthorID] = true
			ids = append(ids, n.AuthorID)
		}
	}
	found, err := s.authors.Authors(ctx, ids)
	if err != nil {
		// notes are still useful without names
		logger.Warnf("resolve note authors: %v", err)
		return views
	}
	for i := range views {
		if a, ok := found[views[i].AuthorID]; ok {
			a := a
			views[i].Author = &a
		}
	}
	return views
}
