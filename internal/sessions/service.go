package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Service issues, validates and rotates refresh sessions.
type Service struct {
	repo Repository
	ttl  time.Duration
	now  func() time.Time
}

func NewService(r Repository, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Service{repo: r, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

// CreateSession stores a new refresh session for the user and returns the
// opaque refresh token.
func (s *Service) CreateSession(ctx context.Context, userID string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		TokenHash: digest(token),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return "", err
	}
	return token, nil
}

// ValidateRefresh returns the live session for token, or nil.
func (s *Service) ValidateRefresh(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}
	sess, err := s.repo.Get(ctx, digest(token))
	if err != nil || sess == nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		_ = s.repo.Delete(ctx, sess.TokenHash)
		return nil, nil
	}
	return sess, nil
}

// Rotate replaces a valid refresh token with a new one for the same user.
// It returns ("", nil, nil) when token is not a live session.
func (s *Service) Rotate(ctx context.Context, token string) (string, *Session, error) {
	sess, err := s.ValidateRefresh(ctx, token)
	if err != nil || sess == nil {
		return "", nil, err
	}
	if err := s.repo.Delete(ctx, sess.TokenHash); err != nil {
		return "", nil, err
	}
	next, err := s.CreateSession(ctx, sess.UserID)
	if err != nil {
		return "", nil, err
	}
	return next, sess, nil
}

func (s *Service) DeleteRefresh(ctx context.Context, token string) error {
	return s.repo.Delete(ctx, digest(token))
}
