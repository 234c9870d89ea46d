package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/marcus-qen/erplite/internal/account"
)

// DefaultKey is the storage key holding the persisted session blob.
const DefaultKey = "erplite.session"

// ErrNotFound is returned by a Backend when the key does not exist.
var ErrNotFound = errors.New("session key not found")

// Session pairs an authenticated user with its bearer tokens.
type Session struct {
	User    account.User `json:"user"`
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
}

// Backend is the key-value storage the session blob lives in.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Store loads, saves and clears the single persisted session.
type Store struct {
	backend Backend
	key     string
	logger  *zap.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) {
		if strings.TrimSpace(key) != "" {
			s.key = key
		}
	}
}

// NewStore creates a store over backend.
func NewStore(backend Backend, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{backend: backend, key: DefaultKey, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the persisted session, or nil when it is absent, unreadable or
// malformed. A blob without an access token is not a session.
func (s *Store) Load(ctx context.Context) *Session {
	raw, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("failed to read persisted session", zap.String("key", s.key), zap.Error(err))
		}
		return nil
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		s.logger.Warn("discarding malformed persisted session", zap.String("key", s.key), zap.Error(err))
		return nil
	}
	if strings.TrimSpace(sess.Access) == "" {
		return nil
	}
	return &sess
}

// Save overwrites the persisted session.
func (s *Store) Save(ctx context.Context, sess Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.backend.Set(ctx, s.key, b); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Clear removes the persisted session. Clearing an absent session succeeds.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, s.key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
