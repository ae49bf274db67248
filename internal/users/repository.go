package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/papershelf/papershelf/backend/go-services/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// UserRepository defines persistence operations for users
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetBySub(ctx context.Context, sub string) (*models.User, error)
	UpsertBySub(ctx context.Context, u *models.User) (*models.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]*models.User, error)
}

// MongoUserRepository implements UserRepository using MongoDB
type MongoUserRepository struct {
	col *mongo.Collection
}

// NewMongoUserRepository ensures the unique indexes on sub and email.
func NewMongoUserRepository(ctx context.Context, col *mongo.Collection) (*MongoUserRepository, error) {
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sub", Value: 1}}, Options: options.Index().SetUnique(true).SetName("user_sub")},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true).SetName("user_email")},
	})
	if err != nil {
		return nil, fmt.Errorf("ensure user indexes: %w", err)
	}
	return &MongoUserRepository{col: col}, nil
}

func (r *MongoUserRepository) Create(ctx context.Context, u *models.User) error {
	if _, err := r.col.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"sub": sub})
}

func (r *MongoUserRepository) UpsertBySub(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC()
	set := bson.M{"name": u.Name, "updatedAt": now}
	if u.Email != "" {
		set["email"] = u.Email
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"_id": uuid.NewString(), "createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var updated models.User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"sub": u.Sub}, update, opts).Decode(&updated); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return &updated, nil
}

func (r *MongoUserRepository) ListByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MemoryUserRepository is used when MongoDB is not configured and in tests.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	byID  map[string]models.User
	subs  map[string]string
	mails map[string]string
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:  map[string]models.User{},
		subs:  map[string]string{},
		mails: map[string]string{},
	}
}

func (m *MemoryUserRepository) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.Email != "" {
		if _, ok := m.mails[strings.ToLower(u.Email)]; ok {
			return ErrEmailTaken
		}
	}
	if _, ok := m.subs[u.Sub]; ok {
		return fmt.Errorf("duplicate subject %q", u.Sub)
	}
	m.put(*u)
	return nil
}

func (m *MemoryUserRepository) put(u models.User) {
	m.byID[u.ID] = u
	m.subs[u.Sub] = u.ID
	if u.Email != "" {
		m.mails[strings.ToLower(u.Email)] = u.ID
	}
}

func (m *MemoryUserRepository) lookup(id string, ok bool) (*models.User, error) {
	if !ok {
		return nil, ErrNotFound
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lookup(id, true)
}

func (m *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.mails[strings.ToLower(email)]
	return m.lookup(id, ok)
}

func (m *MemoryUserRepository) GetBySub(_ context.Context, sub string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.subs[sub]
	return m.lookup(id, ok)
}

func (m *MemoryUserRepository) UpsertBySub(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	cur := models.User{ID: uuid.NewString(), Sub: u.Sub, CreatedAt: now}
	if id, ok := m.subs[u.Sub]; ok {
		cur = m.byID[id]
	}
	if u.Email != "" {
		if owner, ok := m.mails[strings.ToLower(u.Email)]; ok && owner != cur.ID {
			return nil, ErrEmailTaken
		}
		if cur.Email != "" && !strings.EqualFold(cur.Email, u.Email) {
			delete(m.mails, strings.ToLower(cur.Email))
		}
		cur.Email = u.Email
	}
	cur.Name = u.Name
	cur.UpdatedAt = now
	m.put(cur)
	return &cur, nil
}

func (m *MemoryUserRepository) ListByIDs(_ context.Context, ids []string) ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := m.byID[id]; ok {
			u := u
			out = append(out, &u)
		}
	}
	return out, nil
}
