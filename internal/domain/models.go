package domain

import "time"

// Difficulty partitions the riddle pools.
type Difficulty string

const (
	Easy    Difficulty = "Easy"
	Medium  Difficulty = "Medium"
	Hard    Difficulty = "Hard"
	Medium1 Difficulty = "Medium1" // Time Challenge pool
)

// ClassicLadder is the order in which Classic mode walks the pools.
var ClassicLadder = []Difficulty{Easy, Medium, Hard}

// ParseDifficulty validates a difficulty tag.
func ParseDifficulty(raw string) (Difficulty, error) {
	switch d := Difficulty(raw); d {
	case Easy, Medium, Hard, Medium1:
		return d, nil
	}
	return "", ErrUnknownDifficulty
}

// Valid reports whether d is one of the known tags.
func (d Difficulty) Valid() bool {
	_, err := ParseDifficulty(string(d))
	return err == nil
}

// GroupByDifficulty splits questions into pools keyed by their tag.
func GroupByDifficulty(questions []Question) map[Difficulty][]Question {
	pools := make(map[Difficulty][]Question)
	for _, q := range questions {
		pools[q.Difficulty] = append(pools[q.Difficulty], q)
	}
	return pools
}

// Question is a riddle with four ordered choices; Answer is 1-indexed.
type Question struct {
	ID         string     `json:"id" yaml:"id"`
	Prompt     string     `json:"prompt" yaml:"prompt"`
	Choices    [4]string  `json:"choices" yaml:"choices"`
	Answer     int        `json:"answer,omitempty" yaml:"answer"`
	Difficulty Difficulty `json:"difficulty" yaml:"difficulty"`
}

// IsCorrect reports whether choice matches the question's answer.
func (q Question) IsCorrect(choice int) bool {
	return q.Answer == choice
}

// ClassicCompletion is the permanent per-player Classic flag.
type ClassicCompletion string

const (
	NotCompleted ClassicCompletion = "not_completed"
	Completed    ClassicCompletion = "completed"
)

// PlayerRecord is the persisted per-player progress.
type PlayerRecord struct {
	PlayerID          string            `json:"playerId"`
	ClassicCompletion ClassicCompletion `json:"classicCompletion"`
	BestScore         int               `json:"bestScore"`
	CreatedAt         time.Time         `json:"createdAt"`
}

// NewPlayerRecord returns a record with default progress.
func NewPlayerRecord(playerID string, createdAt time.Time) PlayerRecord {
	return PlayerRecord{
		PlayerID:          playerID,
		ClassicCompletion: NotCompleted,
		CreatedAt:         createdAt,
	}
}

// DefaultLeaderboardSize applies when a caller asks for a non-positive limit.
const DefaultLeaderboardSize = 20

// LeaderboardEntry is a ranked view of a player record.
type LeaderboardEntry struct {
	Rank              int               `json:"rank"`
	PlayerID          string            `json:"playerId"`
	ClassicCompletion ClassicCompletion `json:"classicCompletion"`
	BestScore         int               `json:"bestScore"`
}

// Rules holds the tunable game constants.
type Rules struct {
	ClassicHP     int
	ClassicTarget int
	TimeLimit     time.Duration
	WrongPenalty  time.Duration
}

// DefaultRules returns the standard game constants.
func DefaultRules() Rules {
	return Rules{
		ClassicHP:     5,
		ClassicTarget: 7,
		TimeLimit:     180 * time.Second,
		WrongPenalty:  10 * time.Second,
	}
}
