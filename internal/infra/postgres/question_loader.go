package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"riddle-quiz-service/internal/domain"
)

// QuestionLoader loads riddle pools from the riddles table.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context, difficulty domain.Difficulty) ([]domain.Question, error) {
	if !difficulty.Valid() {
		return nil, domain.ErrUnknownDifficulty
	}
	rows, err := l.pool.Query(ctx, `
		SELECT id, prompt, choice_1, choice_2, choice_3, choice_4, correct_choice
		FROM riddles
		WHERE difficulty = $1
		ORDER BY id`, string(difficulty))
	if err != nil {
		return nil, fmt.Errorf("load riddles: %w", err)
	}
	defer rows.Close()

	questions := []domain.Question{}
	for rows.Next() {
		q := domain.Question{Difficulty: difficulty}
		if err := rows.Scan(&q.ID, &q.Prompt, &q.Choices[0], &q.Choices[1], &q.Choices[2], &q.Choices[3], &q.Answer); err != nil {
			return nil, fmt.Errorf("scan riddle: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load riddles: %w", err)
	}
	return questions, nil
}
