package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound is returned for unknown or expired sessions.
	ErrNotFound = errors.New("session not found")
	// ErrCheckoutInProgress is returned while another request is paying
	// for the same session.
	ErrCheckoutInProgress = errors.New("checkout already in progress")
)

const (
	keyPrefix = "session:"
	claimTTL  = 30 * time.Second
)

// DefaultTTL applies when a store is created with a non-positive TTL.
const DefaultTTL = 30 * time.Minute

// Store keeps sessions in Redis as JSON.  Every save refreshes the TTL.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// NewStore returns a Redis backed session store.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl, now: time.Now}
}

func key(id string) string { return keyPrefix + id }

func claimKey(id string) string { return keyPrefix + id + ":paying" }

// Create starts and saves an empty session for userEmail.
func (s *Store) Create(ctx context.Context, userEmail string) (*Session, error) {
	sess := New(uuid.NewString(), userEmail, s.now().UTC())
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get loads a session by id.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	b, err := s.rdb.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// Save writes the session and refreshes its expiry.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = s.now().UTC()
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, key(sess.ID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Delete removes a session.  Unknown ids yield ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	n, err := s.rdb.Del(ctx, key(id)).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Claim marks the session as being paid for.  It reports false when
// another checkout holds the claim.  Claims expire on their own so a
// crashed request cannot block the session forever.
func (s *Store) Claim(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, ErrNotFound
	}
	ok, err := s.rdb.SetNX(ctx, claimKey(id), s.now().UTC().Unix(), claimTTL).Result()
	if err != nil {
		return false, fmt.Errorf("claim session: %w", err)
	}
	return ok, nil
}

// Release drops a claim taken with Claim.
func (s *Store) Release(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, claimKey(id)).Err(); err != nil {
		return fmt.Errorf("release session: %w", err)
	}
	return nil
}
