package app

import (
	"math/rand"

	"github.com/gammazero/deque"
	"riddle-quiz-service/internal/domain"
)

// questionQueue is the working pool of a run. Missed questions go back to the tail.
type questionQueue struct {
	items deque.Deque[domain.Question]
}

// refill replaces the queue content with a uniform shuffle of pool.
func (q *questionQueue) refill(pool []domain.Question, rnd *rand.Rand) {
	q.items.Clear()
	shuffled := make([]domain.Question, len(pool))
	copy(shuffled, pool)
	rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	for _, question := range shuffled {
		q.items.PushBack(question)
	}
}

func (q *questionQueue) next() (domain.Question, bool) {
	if q.items.Len() == 0 {
		return domain.Question{}, false
	}
	return q.items.PopFront(), true
}

func (q *questionQueue) recycle(question domain.Question) {
	q.items.PushBack(question)
}

func (q *questionQueue) len() int {
	return q.items.Len()
}
