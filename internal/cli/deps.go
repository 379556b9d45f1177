package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"riddle-quiz-service/internal/app"
	"riddle-quiz-service/internal/config"
	"riddle-quiz-service/internal/infra/memory"
	pgstore "riddle-quiz-service/internal/infra/postgres"
	redisstore "riddle-quiz-service/internal/infra/redis"
	"riddle-quiz-service/internal/riddles"
)

// backends holds the optional external connections named in the config.
// Either field may be nil, in which case the in-memory stores take over.
type backends struct {
	redis *redis.Client
	pool  *pgxpool.Pool
}

func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.pool = pool
	}
	return b, nil
}

func (b *backends) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
	if b.redis != nil {
		_ = b.redis.Close()
	}
}

// questionRepository picks the riddle source (Postgres or the embedded bank)
// and fronts it with a Redis or in-process cache.
func (b *backends) questionRepository(cfg config.Config) (app.QuestionRepository, error) {
	var loader memory.QuestionLoader
	if b.pool != nil {
		loader = pgstore.NewQuestionLoader(b.pool)
	} else {
		bank, err := riddles.Bank()
		if err != nil {
			return nil, err
		}
		loader = memory.NewStaticQuestionLoader(bank)
	}

	ttl := config.Duration(cfg.Questions.TTL, 10*time.Minute)
	if b.redis != nil {
		return redisstore.NewQuestionRepository(b.redis, loader, ttl), nil
	}
	return memory.NewQuestionRepository(loader, ttl), nil
}

func (b *backends) playerDirectory() app.PlayerDirectory {
	switch {
	case b.pool != nil:
		return pgstore.NewPlayerStore(b.pool)
	case b.redis != nil:
		return redisstore.NewPlayerStore(b.redis)
	default:
		return memory.NewPlayerStore()
	}
}

func (b *backends) sessionRepository(cfg config.Config) app.SessionRepository {
	if b.redis != nil {
		return redisstore.NewSessionStore(b.redis, config.Duration(cfg.Redis.TTL, 30*time.Minute))
	}
	return memory.NewSessionStore()
}
