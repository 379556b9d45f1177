package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"riddle-quiz-service/internal/riddles"
)

type riddleRow struct {
	bun.BaseModel `bun:"table:riddles"`

	ID            string `bun:"id,pk"`
	Prompt        string `bun:"prompt"`
	Choice1       string `bun:"choice_1"`
	Choice2       string `bun:"choice_2"`
	Choice3       string `bun:"choice_3"`
	Choice4       string `bun:"choice_4"`
	CorrectChoice int    `bun:"correct_choice"`
	Difficulty    string `bun:"difficulty"`
}

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			bank, err := riddles.Bank()
			if err != nil {
				return err
			}
			rows := make([]riddleRow, len(bank))
			for i, q := range bank {
				rows[i] = riddleRow{
					ID:            q.ID,
					Prompt:        q.Prompt,
					Choice1:       q.Choices[0],
					Choice2:       q.Choices[1],
					Choice3:       q.Choices[2],
					Choice4:       q.Choices[3],
					CorrectChoice: q.Answer,
					Difficulty:    string(q.Difficulty),
				}
			}
			_, err = db.NewInsert().Model(&rows).On("CONFLICT (id) DO NOTHING").Exec(ctx)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			bank, err := riddles.Bank()
			if err != nil {
				return err
			}
			ids := make([]string, len(bank))
			for i, q := range bank {
				ids[i] = q.ID
			}
			_, err = db.NewDelete().TableExpr("riddles").Where("id IN (?)", bun.In(ids)).Exec(ctx)
			return err
		},
	)
}
