package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"riddle-quiz-service/internal/domain"
)

const leaderboardKey = "leaderboard:best_score"

// Conditional writes run as Lua so read-then-write is atomic per player.
var (
	registerScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], 'classic_completion', 'not_completed', 'best_score', 0, 'created_at', ARGV[2])
redis.call('ZADD', KEYS[2], 'NX', 0, ARGV[1])
return 1
`)

	bestScoreScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
local current = tonumber(redis.call('HGET', KEYS[1], 'best_score') or '0')
local candidate = tonumber(ARGV[2])
if candidate > current then
  redis.call('HSET', KEYS[1], 'best_score', candidate)
  redis.call('ZADD', KEYS[2], candidate, ARGV[1])
  return 1
end
return 0
`)

	completeScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
if redis.call('HGET', KEYS[1], 'classic_completion') == 'completed' then
  return 0
end
redis.call('HSET', KEYS[1], 'classic_completion', 'completed')
return 1
`)
)

// PlayerStore keeps player records as Redis hashes (player:{id}) and ranks
// best scores in a sorted set.
type PlayerStore struct {
	client *redis.Client
	clock  func() time.Time
}

func NewPlayerStore(client *redis.Client) *PlayerStore {
	return &PlayerStore{client: client, clock: time.Now}
}

func (s *PlayerStore) Register(ctx context.Context, playerID string) (domain.PlayerRecord, error) {
	createdAt := strconv.FormatInt(s.clock().UnixNano(), 10)
	keys := []string{s.key(playerID), leaderboardKey}
	if err := registerScript.Run(ctx, s.client, keys, playerID, createdAt).Err(); err != nil {
		return domain.PlayerRecord{}, fmt.Errorf("register player: %w", err)
	}
	return s.Get(ctx, playerID)
}

func (s *PlayerStore) Get(ctx context.Context, playerID string) (domain.PlayerRecord, error) {
	fields, err := s.client.HGetAll(ctx, s.key(playerID)).Result()
	if err != nil {
		return domain.PlayerRecord{}, fmt.Errorf("get player: %w", err)
	}
	if len(fields) == 0 {
		return domain.PlayerRecord{}, domain.ErrPlayerNotFound
	}
	return recordFromHash(playerID, fields), nil
}

func (s *PlayerStore) UpdateBestScore(ctx context.Context, playerID string, candidate int) error {
	keys := []string{s.key(playerID), leaderboardKey}
	res, err := bestScoreScript.Run(ctx, s.client, keys, playerID, candidate).Int()
	if err != nil {
		return fmt.Errorf("update best score: %w", err)
	}
	if res < 0 {
		return domain.ErrPlayerNotFound
	}
	return nil
}

func (s *PlayerStore) MarkClassicCompleted(ctx context.Context, playerID string) error {
	res, err := completeScript.Run(ctx, s.client, []string{s.key(playerID)}).Int()
	if err != nil {
		return fmt.Errorf("mark classic completed: %w", err)
	}
	if res < 0 {
		return domain.ErrPlayerNotFound
	}
	return nil
}

// Leaderboard returns the top players by best score. Ties follow sorted-set
// member order.
func (s *PlayerStore) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = domain.DefaultLeaderboardSize
	}
	ranked, err := s.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}

	pipe := s.client.Pipeline()
	completions := make([]*redis.StringCmd, len(ranked))
	for i, z := range ranked {
		completions[i] = pipe.HGet(ctx, s.key(z.Member.(string)), "classic_completion")
	}
	if len(ranked) > 0 {
		if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
			return nil, fmt.Errorf("read leaderboard players: %w", err)
		}
	}

	board := make([]domain.LeaderboardEntry, len(ranked))
	for i, z := range ranked {
		completion := domain.ClassicCompletion(completions[i].Val())
		if completion == "" {
			completion = domain.NotCompleted
		}
		board[i] = domain.LeaderboardEntry{
			Rank:              i + 1,
			PlayerID:          z.Member.(string),
			ClassicCompletion: completion,
			BestScore:         int(z.Score),
		}
	}
	return board, nil
}

func (s *PlayerStore) key(playerID string) string {
	return "player:" + playerID
}

func recordFromHash(playerID string, fields map[string]string) domain.PlayerRecord {
	record := domain.NewPlayerRecord(playerID, time.Time{})
	if c := fields["classic_completion"]; c != "" {
		record.ClassicCompletion = domain.ClassicCompletion(c)
	}
	if best, err := strconv.Atoi(fields["best_score"]); err == nil {
		record.BestScore = best
	}
	if nanos, err := strconv.ParseInt(fields["created_at"], 10, 64); err == nil {
		record.CreatedAt = time.Unix(0, nanos).UTC()
	}
	return record
}
