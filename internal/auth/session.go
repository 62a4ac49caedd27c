package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CookieName is the session cookie set at login and cleared at logout.
const CookieName = "helpdesk_session"

// ErrSessionNotFound indicates the session id is absent or expired.
var ErrSessionNotFound = errors.New("session not found")

// Principal is the authenticated caller, established at login and carried
// for the duration of one request. There is no ambient session state: the
// principal is loaded per request and threaded through explicitly.
type Principal struct {
	ID   int64       `json:"id"`
	Name string      `json:"name"`
	Role domain.Role `json:"role"`
}

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// SessionStore persists sessions and their pending flash messages.
type SessionStore interface {
	Save(ctx context.Context, sessionID string, principal Principal, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (*Principal, error)
	Delete(ctx context.Context, sessionID string) error
	PushFlash(ctx context.Context, sessionID string, flash Flash, ttl time.Duration) error
	PopFlashes(ctx context.Context, sessionID string) ([]Flash, error)
}

type redisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore returns a Redis-backed session store.
func NewRedisSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client}
}

func sessionKey(id string) string { return "session:" + id }
func flashKey(id string) string   { return "flash:" + id }

func (s *redisSessionStore) Save(ctx context.Context, sessionID string, principal Principal, ttl time.Duration) error {
	payload, err := json.Marshal(principal)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(sessionID), payload, ttl).Err()
}

func (s *redisSessionStore) Get(ctx context.Context, sessionID string) (*Principal, error) {
	payload, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var principal Principal
	if err := json.Unmarshal(payload, &principal); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &principal, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKey(sessionID), flashKey(sessionID)).Err()
}

func (s *redisSessionStore) PushFlash(ctx context.Context, sessionID string, flash Flash, ttl time.Duration) error {
	payload, err := json.Marshal(flash)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, flashKey(sessionID), payload)
	pipe.Expire(ctx, flashKey(sessionID), ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *redisSessionStore) PopFlashes(ctx context.Context, sessionID string) ([]Flash, error) {
	pipe := s.client.TxPipeline()
	items := pipe.LRange(ctx, flashKey(sessionID), 0, -1)
	pipe.Del(ctx, flashKey(sessionID))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	raw := items.Val()
	flashes := make([]Flash, 0, len(raw))
	for _, item := range raw {
		var flash Flash
		if err := json.Unmarshal([]byte(item), &flash); err != nil {
			continue
		}
		flashes = append(flashes, flash)
	}
	return flashes, nil
}

// SessionManager creates sessions at login, resolves them per request and
// destroys them at logout.
type SessionManager struct {
	tokens *TokenManager
	store  SessionStore
}

// NewSessionManager builds the manager.
func NewSessionManager(secret string, ttl time.Duration, store SessionStore) *SessionManager {
	return &SessionManager{tokens: NewTokenManager(secret, ttl), store: store}
}

// Create establishes a session for the principal and returns the signed
// cookie value.
func (m *SessionManager) Create(ctx context.Context, principal Principal) (string, error) {
	sessionID := uuid.NewString()
	if err := m.store.Save(ctx, sessionID, principal, m.tokens.TTL()); err != nil {
		return "", err
	}
	return m.tokens.Generate(sessionID)
}

// Resolve validates a cookie value and loads the live principal.
func (m *SessionManager) Resolve(ctx context.Context, cookie string) (string, *Principal, error) {
	sessionID, err := m.tokens.Parse(cookie)
	if err != nil {
		return "", nil, ErrSessionNotFound
	}
	principal, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return "", nil, err
	}
	return sessionID, principal, nil
}

// Destroy removes the session unconditionally. An unparseable cookie is
// treated as already logged out.
func (m *SessionManager) Destroy(ctx context.Context, cookie string) error {
	sessionID, err := m.tokens.Parse(cookie)
	if err != nil {
		return nil
	}
	return m.store.Delete(ctx, sessionID)
}

// Flash queues a one-shot notice for the session. Best effort: a failed
// flash never fails the operation that produced it.
func (m *SessionManager) Flash(ctx context.Context, sessionID, category, message string) {
	if sessionID == "" {
		return
	}
	_ = m.store.PushFlash(ctx, sessionID, Flash{Category: category, Message: message}, m.tokens.TTL())
}

// ConsumeFlashes returns and clears pending notices for the session.
func (m *SessionManager) ConsumeFlashes(ctx context.Context, sessionID string) []Flash {
	if sessionID == "" {
		return nil
	}
	flashes, err := m.store.PopFlashes(ctx, sessionID)
	if err != nil {
		return nil
	}
	return flashes
}

// TTL returns the session lifetime for cookie expiry.
func (m *SessionManager) TTL() time.Duration {
	return m.tokens.TTL()
}
