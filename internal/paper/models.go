package paper

import (
	"time"

	"github.com/papershelf/papershelf/backend/go-services/internal/models"
)

// Paper is the bibliographic record owned by the user who created it.
// ID is the public identifier; the storage key (Mongo _id) never leaves the repository.
type Paper struct {
	ID        string    `json:"id" bson:"id"`
	Title     string    `json:"title" bson:"title"`
	Authors   []string  `json:"authors" bson:"authors"`
	Abstract  string    `json:"abstract,omitempty" bson:"abstract,omitempty"`
	Journal   string    `json:"journal,omitempty" bson:"journal,omitempty"`
	Year      *int      `json:"year,omitempty" bson:"year,omitempty"`
	Tags      []string  `json:"tags" bson:"tags"`
	OwnerID   string    `json:"ownerId" bson:"ownerId"`
	FileRef   string    `json:"fileRef,omitempty" bson:"fileRef,omitempty"`
	Notes     []Note    `json:"notes" bson:"notes"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Note lives only inside its parent paper and is addressed by (paper id, note id).
type Note struct {
	ID        string    `json:"id" bson:"id"`
	Text      string    `json:"text" bson:"text"`
	AuthorID  string    `json:"authorId" bson:"authorId"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// NoteView is a note with its author resolved for display.
type NoteView struct {
	Note
	Author *models.Author `json:"author,omitempty"`
}

// EnsureCollections replaces nil slices so records always render as arrays.
func (p *Paper) EnsureCollections() {
	if p.Authors == nil {
		p.Authors = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Notes == nil {
		p.Notes = []Note{}
	}
}

// Clone returns a deep copy; stores hand out clones so callers cannot mutate stored state.
func (p *Paper) Clone() *Paper {
	cp := *p
	cp.Authors = append([]string{}, p.Authors...)
	cp.Tags = append([]string{}, p.Tags...)
	cp.Notes = append([]Note{}, p.Notes...)
	if p.Year != nil {
		y := *p.Year
		cp.Year = &y
	}
	return &cp
}

// FindNote returns the note with the given id, or nil.
func (p *Paper) FindNote(noteID string) *Note {
	for i := range p.Notes {
		if p.Notes[i].ID == noteID {
			return &p.Notes[i]
		}
	}
	return nil
}
