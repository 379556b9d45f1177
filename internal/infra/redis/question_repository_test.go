package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"riddle-quiz-service/internal/domain"
	"riddle-quiz-service/internal/infra/memory"
)

func TestQuestionRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	loader := &countingLoader{QuestionLoader: memory.NewStaticQuestionLoader(sampleQuestions())}
	repo := NewQuestionRepository(client, loader, time.Minute)

	pool, err := repo.QuestionsByDifficulty(context.Background(), domain.Medium1)
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	if len(pool) != 2 || loader.calls != 1 {
		t.Fatalf("expected 2 riddles from one load, got %d riddles and %d loads", len(pool), loader.calls)
	}
	if !mr.Exists("riddles:Medium1") {
		t.Fatalf("expected pool cached in redis")
	}

	// Second call should hit cache, loader not incremented.
	pool, _ = repo.QuestionsByDifficulty(context.Background(), domain.Medium1)
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if pool[0].Choices[1] == "" || pool[0].Answer == 0 {
		t.Fatalf("cached riddle lost fields: %+v", pool[0])
	}

	if err := repo.Invalidate(context.Background(), domain.Medium1); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = repo.QuestionsByDifficulty(context.Background(), domain.Medium1)
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

func TestQuestionRepositoryRejectsUnknownDifficulty(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := NewQuestionRepository(newClient(mr), memory.NewStaticQuestionLoader(sampleQuestions()), time.Minute)
	if _, err := repo.QuestionsByDifficulty(context.Background(), "Nightmare"); !errors.Is(err, domain.ErrUnknownDifficulty) {
		t.Fatalf("expected unknown difficulty, got %v", err)
	}
}

type countingLoader struct {
	memory.QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context, difficulty domain.Difficulty) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestions(ctx, difficulty)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "1M1", Prompt: "What has a head and a tail but no body?", Choices: [4]string{"A coin", "A snake", "A comet", "A kite"}, Answer: 1, Difficulty: domain.Medium1},
		{ID: "2M1", Prompt: "What has many teeth but can't bite?", Choices: [4]string{"A shark", "A comb", "A saw", "A zipper"}, Answer: 2, Difficulty: domain.Medium1},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
