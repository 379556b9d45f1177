// Package riddles embeds the built-in riddle bank.
package riddles

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
	"riddle-quiz-service/internal/domain"
)

//go:embed bank.yaml
var bankYAML []byte

type bankFile struct {
	Riddles []riddle `yaml:"riddles"`
}

type riddle struct {
	ID         string   `yaml:"id"`
	Prompt     string   `yaml:"prompt"`
	Choices    []string `yaml:"choices"`
	Answer     int      `yaml:"answer"`
	Difficulty string   `yaml:"difficulty"`
}

// Bank returns every embedded riddle in file order.
func Bank() ([]domain.Question, error) {
	return Parse(bankYAML)
}

// Parse decodes and validates a riddle bank document.
func Parse(data []byte) ([]domain.Question, error) {
	var file bankFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode riddle bank: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Riddles))
	questions := make([]domain.Question, 0, len(file.Riddles))
	for _, r := range file.Riddles {
		if r.ID == "" {
			return nil, fmt.Errorf("riddle without id")
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("riddle %s: duplicate id", r.ID)
		}
		seen[r.ID] = struct{}{}

		difficulty, err := domain.ParseDifficulty(r.Difficulty)
		if err != nil {
			return nil, fmt.Errorf("riddle %s: %w: %q", r.ID, err, r.Difficulty)
		}
		if len(r.Choices) != 4 {
			return nil, fmt.Errorf("riddle %s: want 4 choices, got %d", r.ID, len(r.Choices))
		}
		if r.Answer < 1 || r.Answer > 4 {
			return nil, fmt.Errorf("riddle %s: answer %d out of range", r.ID, r.Answer)
		}

		q := domain.Question{
			ID:         r.ID,
			Prompt:     r.Prompt,
			Answer:     r.Answer,
			Difficulty: difficulty,
		}
		copy(q.Choices[:], r.Choices)
		questions = append(questions, q)
	}
	return questions, nil
}
