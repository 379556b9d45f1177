package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"riddle-quiz-service/internal/domain"
)

// PlayerStore keeps player records in process memory.
// All updates hold the write lock, so read-then-write is atomic per player.
type PlayerStore struct {
	mu      sync.RWMutex
	clock   func() time.Time
	seq     int64
	players map[string]*playerEntry
}

type playerEntry struct {
	record domain.PlayerRecord
	seq    int64 // insertion order, newest wins leaderboard ties
}

func NewPlayerStore() *PlayerStore {
	return &PlayerStore{
		clock:   time.Now,
		players: make(map[string]*playerEntry),
	}
}

// Register creates a default record for playerID if none exists.
func (s *PlayerStore) Register(_ context.Context, playerID string) (domain.PlayerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.players[playerID]; ok {
		return entry.record, nil
	}
	s.seq++
	entry := &playerEntry{record: domain.NewPlayerRecord(playerID, s.clock()), seq: s.seq}
	s.players[playerID] = entry
	return entry.record, nil
}

func (s *PlayerStore) Get(_ context.Context, playerID string) (domain.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.players[playerID]
	if !ok {
		return domain.PlayerRecord{}, domain.ErrPlayerNotFound
	}
	return entry.record, nil
}

// UpdateBestScore raises best score to candidate when candidate is higher.
func (s *PlayerStore) UpdateBestScore(_ context.Context, playerID string, candidate int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.players[playerID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	if candidate > entry.record.BestScore {
		entry.record.BestScore = candidate
	}
	return nil
}

func (s *PlayerStore) MarkClassicCompleted(_ context.Context, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.players[playerID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	entry.record.ClassicCompletion = domain.Completed
	return nil
}

// Leaderboard orders by best score desc, newest player first, then id.
func (s *PlayerStore) Leaderboard(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = domain.DefaultLeaderboardSize
	}
	s.mu.RLock()
	entries := make([]*playerEntry, 0, len(s.players))
	for _, entry := range s.players {
		copied := *entry
		entries = append(entries, &copied)
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.record.BestScore != b.record.BestScore {
			return a.record.BestScore > b.record.BestScore
		}
		if a.seq != b.seq {
			return a.seq > b.seq
		}
		return a.record.PlayerID < b.record.PlayerID
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	board := make([]domain.LeaderboardEntry, len(entries))
	for i, entry := range entries {
		board[i] = domain.LeaderboardEntry{
			Rank:              i + 1,
			PlayerID:          entry.record.PlayerID,
			ClassicCompletion: entry.record.ClassicCompletion,
			BestScore:         entry.record.BestScore,
		}
	}
	return board, nil
}
