package domain

// Mode identifies which game a run belongs to.
type Mode string

const (
	ModeClassic       Mode = "classic"
	ModeTimeChallenge Mode = "time_challenge"
)

// Phase is the lifecycle position of a game session.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseActive    Phase = "active"
	PhaseSuspended Phase = "suspended"
	PhaseEnded     Phase = "ended"
)

// Result describes how a run ended.
type Result string

const (
	ResultWin       Result = "win"
	ResultLoss      Result = "loss"
	ResultTimeUp    Result = "time_up"
	ResultExhausted Result = "exhausted" // question pool ran dry
)

// Outcome is set once a run reaches a terminal state.
// FinalScore is nil for Classic runs.
type Outcome struct {
	Mode       Mode   `json:"mode"`
	Result     Result `json:"result"`
	FinalScore *int   `json:"finalScore"`
}

// ClassicStats are the observable Classic counters.
type ClassicStats struct {
	HP              int        `json:"hp"`
	Difficulty      Difficulty `json:"difficulty"`
	DifficultyIndex int        `json:"difficultyIndex"`
	Progress        int        `json:"progress"`
	Target          int        `json:"target"`
}

// TimeChallengeStats are the observable Time Challenge counters.
// TimeLeft and Penalty are whole seconds.
type TimeChallengeStats struct {
	Score         int `json:"score"`
	Streak        int `json:"streak"`
	HighestStreak int `json:"highestStreak"`
	TimeLeft      int `json:"timeLeft"`
	Penalty       int `json:"penalty"`
}

// Snapshot is the observable state returned by every session operation.
// Optional parts are always present and nil when not applicable.
type Snapshot struct {
	PlayerID            string              `json:"playerId"`
	Mode                Mode                `json:"mode"`
	Phase               Phase               `json:"phase"`
	Classic             *ClassicStats       `json:"classic"`
	TimeChallenge       *TimeChallengeStats `json:"timeChallenge"`
	Question            *Question           `json:"question"`
	LastCorrect         *bool               `json:"lastCorrect"`
	ResumeClassic       bool                `json:"resumeClassic"`
	ResumeTimeChallenge bool                `json:"resumeTimeChallenge"`
	Outcome             *Outcome            `json:"outcome"`
}

// WithoutAnswer returns a copy safe to hand outside the process: the
// current question keeps its prompt and choices but not the correct choice.
func (s Snapshot) WithoutAnswer() Snapshot {
	if s.Question != nil {
		q := *s.Question
		q.Answer = 0
		s.Question = &q
	}
	return s
}
