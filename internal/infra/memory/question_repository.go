package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"riddle-quiz-service/internal/domain"
)

// QuestionLoader fetches riddle pools from a backing store (e.g., Postgres).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, difficulty domain.Difficulty) ([]domain.Question, error)
}

// QuestionRepository caches riddle pools with TTL to avoid repeated DB hits.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[domain.Difficulty]cachedPool
}

type cachedPool struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[domain.Difficulty]cachedPool),
	}
}

// QuestionsByDifficulty returns the pool for difficulty. Callers get their own copy.
func (r *QuestionRepository) QuestionsByDifficulty(ctx context.Context, difficulty domain.Difficulty) ([]domain.Question, error) {
	if !difficulty.Valid() {
		return nil, domain.ErrUnknownDifficulty
	}
	if pool, ok := r.cached(difficulty); ok {
		return clonePool(pool), nil
	}

	result, err, _ := r.sf.Do(string(difficulty), func() (interface{}, error) {
		if pool, ok := r.cached(difficulty); ok {
			return pool, nil
		}

		pool, err := r.loader.LoadQuestions(ctx, difficulty)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[difficulty] = cachedPool{
			questions: pool,
			expiresAt: r.clock().Add(r.ttlWithJitterLocked()),
		}
		r.mu.Unlock()
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return clonePool(result.([]domain.Question)), nil
}

func (r *QuestionRepository) cached(difficulty domain.Difficulty) ([]domain.Question, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[difficulty]
	if !ok || !entry.expiresAt.After(now) {
		return nil, false
	}
	return entry.questions, true
}

func (r *QuestionRepository) ttlWithJitterLocked() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func clonePool(pool []domain.Question) []domain.Question {
	out := make([]domain.Question, len(pool))
	copy(out, pool)
	return out
}

// StaticQuestionLoader serves pools from memory (useful for tests/demos and the embedded bank).
type StaticQuestionLoader struct {
	pools map[domain.Difficulty][]domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{pools: domain.GroupByDifficulty(questions)}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context, difficulty domain.Difficulty) ([]domain.Question, error) {
	if !difficulty.Valid() {
		return nil, domain.ErrUnknownDifficulty
	}
	return l.pools[difficulty], nil
}
