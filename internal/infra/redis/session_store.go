package redis

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"riddle-quiz-service/internal/app"
	"riddle-quiz-service/internal/domain"
)

// SessionStore is a Redis-aware implementation of SessionRepository.
// Notes:
//   - Live sessions stay in a local map; the state machine runs in-process.
//   - Redis holds a liveness marker per player holding the latest snapshot,
//     so other tools can inspect in-flight games.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.GameSession
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.GameSession),
	}
}

func (s *SessionStore) GetOrCreate(playerID string, create func() *app.GameSession) *app.GameSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[playerID]; ok {
		return session
	}
	session := create()
	s.sessions[playerID] = session
	// best-effort liveness marker
	_ = s.client.SetNX(context.Background(), s.key(playerID), "{}", s.ttl).Err()
	return session
}

func (s *SessionStore) Get(playerID string) (*app.GameSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[playerID]
	return session, ok
}

// Touch refreshes the marker with the latest snapshot. The correct choice
// never leaves the process.
func (s *SessionStore) Touch(ctx context.Context, snapshot domain.Snapshot) error {
	raw, err := json.Marshal(snapshot.WithoutAnswer())
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(snapshot.PlayerID), raw, s.ttl).Err()
}

// Last reads the most recent snapshot written for playerID.
func (s *SessionStore) Last(ctx context.Context, playerID string) (domain.Snapshot, error) {
	raw, err := s.client.Get(ctx, s.key(playerID)).Bytes()
	if err == redis.Nil {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Snapshot{}, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.Snapshot{}, err
	}
	return snap, nil
}

func (s *SessionStore) Delete(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, playerID)
	_ = s.client.Del(context.Background(), s.key(playerID)).Err()
}

func (s *SessionStore) key(playerID string) string {
	return "riddle:session:" + playerID
}
