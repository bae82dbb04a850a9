package manager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/GoPolymarket/opa/internal/pkg/logger"
	"github.com/google/uuid"
)

const DefaultNonceTTL = 12 * time.Hour

// NonceStore keeps issued tokens and what they are bound to.
type NonceStore interface {
	Put(ctx context.Context, token, binding string, ttl time.Duration) error
	Get(ctx context.Context, token string) (string, error)
}

// NonceManager issues anti-forgery tokens bound to an admin and an action.
// A token stays valid for every request until it expires.
type NonceManager struct {
	store NonceStore
	ttl   time.Duration
	now   func() time.Time
}

func NewNonceManager(store NonceStore, ttl time.Duration) *NonceManager {
	if store == nil {
		store = NewMemoryNonceStore()
	}
	if ttl <= 0 {
		ttl = DefaultNonceTTL
	}
	return &NonceManager{store: store, ttl: ttl, now: time.Now}
}

func (m *NonceManager) TTL() time.Duration {
	return m.ttl
}

func (m *NonceManager) Issue(ctx context.Context, subject, action string) (string, time.Time, error) {
	token := uuid.NewString()
	if err := m.store.Put(ctx, token, binding(subject, action), m.ttl); err != nil {
		return "", time.Time{}, fmt.Errorf("store nonce: %w", err)
	}
	return token, m.now().Add(m.ttl).UTC(), nil
}

// Verify reports whether token was issued to subject for action and has not
// expired. Store errors count as a failed check.
func (m *NonceManager) Verify(ctx context.Context, subject, action, token string) bool {
	if token == "" {
		return false
	}
	if _, err := uuid.Parse(token); err != nil {
		return false
	}
	bound, err := m.store.Get(ctx, token)
	if err != nil {
		logger.LogError(ctx, err, "nonce lookup failed")
		return false
	}
	return bound != "" && bound == binding(subject, action)
}

func binding(subject, action string) string {
	return subject + "|" + action
}

type memoryNonce struct {
	binding   string
	expiresAt time.Time
}

type MemoryNonceStore struct {
	mu     sync.Mutex
	tokens map[string]memoryNonce
	now    func() time.Time
}

func NewMemoryNonceStore() *MemoryNonceStore {
	return &MemoryNonceStore{
		tokens: make(map[string]memoryNonce),
		now:    time.Now,
	}
}

func (s *MemoryNonceStore) Put(_ context.Context, token, binding string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	// expired tokens are swept on write
	for k, v := range s.tokens {
		if now.After(v.expiresAt) {
			delete(s.tokens, k)
		}
	}
	s.tokens[token] = memoryNonce{binding: binding, expiresAt: now.Add(ttl)}
	return nil
}

func (s *MemoryNonceStore) Get(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.tokens[token]
	if !ok {
		return "", nil
	}
	if s.now().After(n.expiresAt) {
		delete(s.tokens, token)
		return "", nil
	}
	return n.binding, nil
}
