package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/papershelf/papershelf/backend/go-services/internal/paper"
	"github.com/papershelf/papershelf/backend/go-services/internal/paper/repository"
	"github.com/papershelf/papershelf/backend/go-services/pkg/metrics"
)

// PaperService implements paper creation, lookup, update and deletion with
// ownership checks. It holds no mutable state of its own.
type PaperService struct {
	store repository.Store
	now   func() time.Time
	newID func() string
}

func NewPaperService(store repository.Store) *PaperService {
	return &PaperService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Create stores a new paper owned by ownerID. fileRef may be empty.
func (s *PaperService) Create(ctx context.Context, ownerID string, f paper.Fields, fileRef string) (*paper.Paper, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner", paper.ErrMissingRequiredField)
	}
	var title string
	if f.Title != nil {
		title = strings.TrimSpace(*f.Title)
	}
	if title == "" {
		return nil, fmt.Errorf("%w: title", paper.ErrMissingRequiredField)
	}
	authors, err := paper.Normalize(f.Authors)
	if err != nil {
		return nil, fmt.Errorf("authors: %w", err)
	}
	tags, err := paper.Normalize(f.Tags)
	if err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}

	now := s.now()
	p := &paper.Paper{
		ID:        s.newID(),
		Title:     title,
		Authors:   authors,
		Tags:      tags,
		OwnerID:   ownerID,
		FileRef:   fileRef,
		Notes:     []paper.Note{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if f.Abstract != nil {
		p.Abstract = *f.Abstract
	}
	if f.Journal != nil {
		p.Journal = *f.Journal
	}
	if f.Year != nil {
		p.Year = paper.IntPtr(*f.Year)
	}

	if err := s.store.Create(ctx, p); err != nil {
		return nil, persistence("create paper", err)
	}
	metrics.PaperOperations.WithLabelValues("create").Inc()
	return p, nil
}

// List returns all papers matching f in store order.
func (s *PaperService) List(ctx context.Context, f paper.Filter) ([]*paper.Paper, error) {
	list, err := s.store.List(ctx, f)
	if err != nil {
		return nil, persistence("list papers", err)
	}
	return list, nil
}

func (s *PaperService) Get(ctx context.Context, id string) (*paper.Paper, error) {
	return load(ctx, s.store, id)
}

// Update applies a partial update on behalf of requesterID, who must own the paper.
//
// Scalar fields follow the "present and truthy replaces" policy: a submitted
// empty title, abstract or journal, or a year of 0, leaves the stored value as
// it was. Authors and tags, when submitted, are normalized and replace the
// stored lists wholesale. A non-empty fileRef replaces the stored reference.
func (s *PaperService) Update(ctx context.Context, id, requesterID string, f paper.Fields, fileRef string) (*paper.Paper, error) {
	cur, err := load(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if cur.OwnerID != requesterID {
		return nil, paper.ErrNotAuthorized
	}

	next := cur.Clone()
	if f.Title != nil {
		if t := strings.TrimSpace(*f.Title); t != "" {
			next.Title = t
		}
	}
	if f.Abstract != nil && *f.Abstract != "" {
		next.Abstract = *f.Abstract
	}
	if f.Journal != nil && *f.Journal != "" {
		next.Journal = *f.Journal
	}
	// TODO: let clients clear a field or set year 0 once the API exposes explicit nulls.
	if f.Year != nil && *f.Year != 0 {
		next.Year = paper.IntPtr(*f.Year)
	}
	if f.Authors.Truthy() {
		if next.Authors, err = paper.Normalize(f.Authors); err != nil {
			return nil, fmt.Errorf("authors: %w", err)
		}
	}
	if f.Tags.Truthy() {
		if next.Tags, err = paper.Normalize(f.Tags); err != nil {
			return nil, fmt.Errorf("tags: %w", err)
		}
	}
	if fileRef != "" {
		next.FileRef = fileRef
	}
	next.UpdatedAt = s.now()

	if err := s.store.Update(ctx, next); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, paper.ErrNotFound
		}
		return nil, persistence("update paper", err)
	}
	metrics.PaperOperations.WithLabelValues("update").Inc()
	return next, nil
}

// Delete removes the paper and its notes on behalf of its owner.
func (s *PaperService) Delete(ctx context.Context, id, requesterID string) error {
	cur, err := load(ctx, s.store, id)
	if err != nil {
		return err
	}
	if cur.OwnerID != requesterID {
		return paper.ErrNotAuthorized
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return paper.ErrNotFound
		}
		return persistence("delete paper", err)
	}
	metrics.PaperOperations.WithLabelValues("delete").Inc()
	return nil
}

func load(ctx context.Context, store repository.Store, id string) (*paper.Paper, error) {
	p, err := store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, paper.ErrNotFound
		}
		return nil, persistence("get paper", err)
	}
	return p, nil
}

func persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", paper.ErrPersistence, op, err)
}
