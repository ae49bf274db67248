package repository

import (
	"context"
	"sync"
	"time"

	"github.com/papershelf/papershelf/backend/go-services/internal/paper"
)

// MemoryRepo is an in-memory Store used when MongoDB is not configured and in
// unit tests. Records are cloned on the way in and out.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*paper.Paper
	order []string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*paper.Paper)}
}

func (m *MemoryRepo) Create(_ context.Context, p *paper.Paper) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[p.ID]; ok {
		return ErrDuplicateID
	}
	cp := p.Clone()
	cp.EnsureCollections()
	m.store[p.ID] = cp
	m.order = append(m.order, p.ID)
	return nil
}

func (m *MemoryRepo) Get(_ context.Context, id string) (*paper.Paper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.store[id]; ok {
		return p.Clone(), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) List(_ context.Context, f paper.Filter) ([]*paper.Paper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*paper.Paper, 0, len(m.order))
	for _, id := range m.order {
		p := m.store[id]
		if f.Match(p) {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (m *MemoryRepo) Update(_ context.Context, p *paper.Paper) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.store[p.ID]
	if !ok {
		return ErrNotFound
	}
	next := p.Clone()
	next.EnsureCollections()
	// notes, owner and creation time are not part of an update
	next.Notes = cur.Notes
	next.OwnerID = cur.OwnerID
	next.CreatedAt = cur.CreatedAt
	m.store[p.ID] = next
	return nil
}

func (m *MemoryRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryRepo) AppendNote(_ context.Context, paperID string, n paper.Note, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[paperID]
	if !ok {
		return ErrNotFound
	}
	next := p.Clone()
	next.Notes = append(next.Notes, n)
	next.UpdatedAt = at
	m.store[paperID] = next
	return nil
}

func (m *MemoryRepo) RemoveNote(_ context.Context, paperID, noteID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[paperID]
	if !ok {
		return ErrNotFound
	}
	next := p.Clone()
	kept := next.Notes[:0]
	for _, n := range next.Notes {
		if n.ID != noteID {
			kept = append(kept, n)
		}
	}
	if len(kept) == len(p.Notes) {
		return ErrNotFound
	}
	next.Notes = kept
	next.UpdatedAt = at
	m.store[paperID] = next
	return nil
}
