package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"riddle-quiz-service/internal/domain"
)

func TestPlayerStoreBestScoreOnlyIncreases(t *testing.T) {
	ctx := context.Background()
	store := NewPlayerStore()
	if _, err := store.Register(ctx, "alice"); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, score := range []int{20, 20, 5, 0} {
		if err := store.UpdateBestScore(ctx, "alice", score); err != nil {
			t.Fatalf("update %d: %v", score, err)
		}
	}
	record, _ := store.Get(ctx, "alice")
	if record.BestScore != 20 {
		t.Fatalf("expected best score 20, got %d", record.BestScore)
	}
}

func TestPlayerStoreClassicCompletionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewPlayerStore()
	_, _ = store.Register(ctx, "alice")

	record, _ := store.Get(ctx, "alice")
	if record.ClassicCompletion != domain.NotCompleted {
		t.Fatalf("expected not_completed default, got %s", record.ClassicCompletion)
	}
	for i := 0; i < 2; i++ {
		if err := store.MarkClassicCompleted(ctx, "alice"); err != nil {
			t.Fatalf("mark: %v", err)
		}
	}
	record, _ = store.Get(ctx, "alice")
	if record.ClassicCompletion != domain.Completed {
		t.Fatalf("expected completed, got %s", record.ClassicCompletion)
	}
}

func TestPlayerStoreUnknownPlayer(t *testing.T) {
	ctx := context.Background()
	store := NewPlayerStore()

	if _, err := store.Get(ctx, "ghost"); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.UpdateBestScore(ctx, "ghost", 3); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.MarkClassicCompleted(ctx, "ghost"); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPlayerStoreLeaderboardOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewPlayerStore()
	for _, id := range []string{"old", "mid", "new"} {
		_, _ = store.Register(ctx, id)
	}
	_ = store.UpdateBestScore(ctx, "old", 30)
	_ = store.UpdateBestScore(ctx, "mid", 12)
	_ = store.UpdateBestScore(ctx, "new", 30)

	board, err := store.Leaderboard(ctx, 2)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(board))
	}
	if board[0].PlayerID != "new" || board[1].PlayerID != "old" {
		t.Fatalf("expected newest player first on ties, got %+v", board)
	}
	if board[0].Rank != 1 || board[1].Rank != 2 {
		t.Fatalf("unexpected ranks %+v", board)
	}
}

func TestPlayerStoreLeaderboardDefaultsLimit(t *testing.T) {
	ctx := context.Background()
	store := NewPlayerStore()
	for i := 0; i < domain.DefaultLeaderboardSize+3; i++ {
		_, _ = store.Register(ctx, fmt.Sprintf("player_%04d", i))
	}

	board, err := store.Leaderboard(ctx, 0)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != domain.DefaultLeaderboardSize {
		t.Fatalf("expected %d entries, got %d", domain.DefaultLeaderboardSize, len(board))
	}
}
