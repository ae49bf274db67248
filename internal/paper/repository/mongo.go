package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/papershelf/papershelf/backend/go-services/internal/paper"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements Store on a MongoDB collection. Papers are looked up by
// their public "id" field (unique index); the driver-assigned _id stays internal
// and orders listings by insertion.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(ctx context.Context, col *mongo.Collection) (*MongoRepo, error) {
	idxModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("paper_public_id"),
	}
	if _, err := col.Indexes().CreateOne(ctx, idxModel); err != nil {
		return nil, fmt.Errorf("ensure paper id index: %w", err)
	}
	return &MongoRepo{col: col}, nil
}

func (m *MongoRepo) Create(ctx context.Context, p *paper.Paper) error {
	p.EnsureCollections()
	if _, err := m.col.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateID
		}
		return err
	}
	return nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*paper.Paper, error) {
	var p paper.Paper
	if err := m.col.FindOne(ctx, bson.M{"id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.EnsureCollections()
	return &p, nil
}

func (m *MongoRepo) List(ctx context.Context, f paper.Filter) ([]*paper.Paper, error) {
	cur, err := m.col.Find(ctx, filterDoc(f), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*paper.Paper{}
	for cur.Next(ctx) {
		var p paper.Paper
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		p.EnsureCollections()
		out = append(out, &p)
	}
	return out, cur.Err()
}

func (m *MongoRepo) Update(ctx context.Context, p *paper.Paper) error {
	p.EnsureCollections()
	set := bson.M{
		"title":     p.Title,
		"authors":   p.Authors,
		"tags":      p.Tags,
		"updatedAt": p.UpdatedAt,
	}
	unset := bson.M{}
	optional := map[string]string{"abstract": p.Abstract, "journal": p.Journal, "fileRef": p.FileRef}
	for k, v := range optional {
		if v == "" {
			unset[k] = ""
		} else {
			set[k] = v
		}
	}
	if p.Year != nil {
		set["year"] = *p.Year
	} else {
		unset["year"] = ""
	}
	upd := bson.M{"$set": set}
	if len(unset) > 0 {
		upd["$unset"] = unset
	}
	res, err := m.col.UpdateOne(ctx, bson.M{"id": p.ID}, upd)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) AppendNote(ctx context.Context, paperID string, n paper.Note, at time.Time) error {
	upd := bson.M{
		"$push": bson.M{"notes": n},
		"$set":  bson.M{"updatedAt": at},
	}
	res, err := m.col.UpdateOne(ctx, bson.M{"id": paperID}, upd)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) RemoveNote(ctx context.Context, paperID, noteID string, at time.Time) error {
	upd := bson.M{
		"$pull": bson.M{"notes": bson.M{"id": noteID}},
		"$set":  bson.M{"updatedAt": at},
	}
	res, err := m.col.UpdateOne(ctx, bson.M{"id": paperID, "notes.id": noteID}, upd)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// filterDoc pushes paper.Filter down to the query: exact element match on tags,
// case-insensitive literal substring on authors and journal.
func filterDoc(f paper.Filter) bson.M {
	q := bson.M{}
	if f.Tag != "" {
		q["tags"] = f.Tag
	}
	if f.Author != "" {
		q["authors"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Author), Options: "i"}
	}
	if f.Journal != "" {
		q["journal"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Journal), Options: "i"}
	}
	return q
}
