package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"riddle-quiz-service/internal/domain"
)

// PlayerStore persists player records in the players table.
// Conditional updates are single statements, so concurrent writers cannot lose updates.
type PlayerStore struct {
	pool *pgxpool.Pool
}

func NewPlayerStore(pool *pgxpool.Pool) *PlayerStore {
	return &PlayerStore{pool: pool}
}

func (s *PlayerStore) Register(ctx context.Context, playerID string) (domain.PlayerRecord, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO players (player_id) VALUES ($1)
		ON CONFLICT (player_id) DO NOTHING`, playerID)
	if err != nil {
		return domain.PlayerRecord{}, fmt.Errorf("register player: %w", err)
	}
	return s.Get(ctx, playerID)
}

func (s *PlayerStore) Get(ctx context.Context, playerID string) (domain.PlayerRecord, error) {
	var (
		record     = domain.PlayerRecord{PlayerID: playerID}
		completion string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT classic_completion, best_score, created_at
		FROM players WHERE player_id = $1`, playerID).
		Scan(&completion, &record.BestScore, &record.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PlayerRecord{}, domain.ErrPlayerNotFound
	}
	if err != nil {
		return domain.PlayerRecord{}, fmt.Errorf("get player: %w", err)
	}
	record.ClassicCompletion = domain.ClassicCompletion(completion)
	return record, nil
}

func (s *PlayerStore) UpdateBestScore(ctx context.Context, playerID string, candidate int) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE players SET best_score = $2
		WHERE player_id = $1 AND best_score < $2`, playerID, candidate)
	if err != nil {
		return fmt.Errorf("update best score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.ensureExists(ctx, playerID)
	}
	return nil
}

func (s *PlayerStore) MarkClassicCompleted(ctx context.Context, playerID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE players SET classic_completion = $2
		WHERE player_id = $1 AND classic_completion <> $2`, playerID, string(domain.Completed))
	if err != nil {
		return fmt.Errorf("mark classic completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.ensureExists(ctx, playerID)
	}
	return nil
}

// Leaderboard orders by best score desc, newest player first, then id.
func (s *PlayerStore) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = domain.DefaultLeaderboardSize
	}
	rows, err := s.pool.Query(ctx, `
		SELECT player_id, classic_completion, best_score
		FROM players
		ORDER BY best_score DESC, id DESC, player_id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	defer rows.Close()

	board := []domain.LeaderboardEntry{}
	for rows.Next() {
		var (
			entry      domain.LeaderboardEntry
			completion string
		)
		if err := rows.Scan(&entry.PlayerID, &completion, &entry.BestScore); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		entry.ClassicCompletion = domain.ClassicCompletion(completion)
		entry.Rank = len(board) + 1
		board = append(board, entry)
	}
	return board, rows.Err()
}

func (s *PlayerStore) ensureExists(ctx context.Context, playerID string) error {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM players WHERE player_id = $1)`, playerID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check player: %w", err)
	}
	if !exists {
		return domain.ErrPlayerNotFound
	}
	return nil
}
