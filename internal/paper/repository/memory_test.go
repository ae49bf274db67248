package repository

import (
	"context"
	"testing"
	"time"

	"github.com/papershelf/papershelf/backend/go-services/internal/paper"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepoCRUD(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	p := &paper.Paper{ID: "p1", Title: "Graph Theory", OwnerID: "u1", Authors: []string{"Ann"}}
	require.NoError(t, r.Create(ctx, p))
	require.ErrorIs(t, r.Create(ctx, &paper.Paper{ID: "p1", Title: "dup"}), ErrDuplicateID)

	got, err := r.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "Graph Theory", got.Title)
	require.NotNil(t, got.Tags)
	require.NotNil(t, got.Notes)

	// returned records are copies
	got.Authors[0] = "mutated"
	again, err := r.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, []string{"Ann"}, again.Authors)

	got.Title = "Graph Theory II"
	got.OwnerID = "someone-else"
	require.NoError(t, r.Update(ctx, got))
	again, err = r.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "Graph Theory II", again.Title)
	require.Equal(t, "u1", again.OwnerID, "owner never changes")

	require.ErrorIs(t, r.Update(ctx, &paper.Paper{ID: "missing"}), ErrNotFound)

	require.NoError(t, r.Delete(ctx, "p1"))
	_, err = r.Get(ctx, "p1")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, r.Delete(ctx, "p1"), ErrNotFound)
}

func TestMemoryRepoListOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	require.NoError(t, r.Create(ctx, &paper.Paper{ID: "a", Title: "A", Tags: []string{"nlp"}}))
	require.NoError(t, r.Create(ctx, &paper.Paper{ID: "b", Title: "B", Tags: []string{"nlp-2"}}))
	require.NoError(t, r.Create(ctx, &paper.Paper{ID: "c", Title: "C", Tags: []string{"nlp", "cv"}}))

	all, err := r.List(ctx, paper.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})

	nlp, err := r.List(ctx, paper.NewFilter("nlp", "", ""))
	require.NoError(t, err)
	require.Len(t, nlp, 2)
	require.Equal(t, "a", nlp[0].ID)
	require.Equal(t, "c", nlp[1].ID)

	require.NoError(t, r.Delete(ctx, "a"))
	all, err = r.List(ctx, paper.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestMemoryRepoNotes(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, r.Create(ctx, &paper.Paper{ID: "p1", Title: "T", CreatedAt: created, UpdatedAt: created}))

	later := created.Add(time.Hour)
	require.NoError(t, r.AppendNote(ctx, "p1", paper.Note{ID: "n1", Text: "first", AuthorID: "u1"}, later))
	require.NoError(t, r.AppendNote(ctx, "p1", paper.Note{ID: "n2", Text: "second", AuthorID: "u2"}, later))
	require.ErrorIs(t, r.AppendNote(ctx, "nope", paper.Note{ID: "n3"}, later), ErrNotFound)

	got, err := r.Get(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got.Notes, 2)
	require.Equal(t, "first", got.Notes[0].Text)
	require.Equal(t, later, got.UpdatedAt)

	// updates never touch notes
	got.Notes = nil
	require.NoError(t, r.Update(ctx, got))
	got, err = r.Get(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got.Notes, 2)

	require.ErrorIs(t, r.RemoveNote(ctx, "p1", "missing", later), ErrNotFound)
	require.NoError(t, r.RemoveNote(ctx, "p1", "n1", later))
	got, err = r.Get(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got.Notes, 1)
	require.Equal(t, "n2", got.Notes[0].ID)
}
