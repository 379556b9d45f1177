package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"riddle-quiz-service/internal/domain"
)

// QuestionRepository serves riddles by difficulty tag.
type QuestionRepository interface {
	QuestionsByDifficulty(ctx context.Context, difficulty domain.Difficulty) ([]domain.Question, error)
}

// PlayerStore persists per-player results written at the end of a run.
type PlayerStore interface {
	Get(ctx context.Context, playerID string) (domain.PlayerRecord, error)
	UpdateBestScore(ctx context.Context, playerID string, candidate int) error
	MarkClassicCompleted(ctx context.Context, playerID string) error
}

// SessionOption customizes a GameSession.
type SessionOption func(*GameSession)

// WithClock overrides the wall clock, mainly for deterministic tests.
func WithClock(now func() time.Time) SessionOption {
	return func(s *GameSession) {
		s.now = now
	}
}

// WithRand overrides the shuffle source.
func WithRand(rnd *rand.Rand) SessionOption {
	return func(s *GameSession) {
		s.rnd = rnd
	}
}

// GameSession is the single-player state machine for one player.
// At most one run (Classic or Time Challenge) exists at a time.
type GameSession struct {
	playerID  string
	rules     domain.Rules
	questions QuestionRepository
	players   PlayerStore
	now       func() time.Time
	rnd       *rand.Rand

	mu          sync.Mutex
	phase       domain.Phase
	run         *run
	lastCorrect *bool
}

// run holds the counters of the current or most recent mode.
type run struct {
	mode       domain.Mode
	queue      questionQueue
	current    domain.Question
	hasCurrent bool
	outcome    *domain.Outcome
	persisted  bool

	// classic
	hp       int
	level    int
	progress int

	// time challenge
	score   int
	streak  int
	highest int
	penalty time.Duration
	clock   *Clock
}

func NewGameSession(playerID string, questions QuestionRepository, players PlayerStore, rules domain.Rules, opts ...SessionOption) *GameSession {
	s := &GameSession{
		playerID:  playerID,
		rules:     rules,
		questions: questions,
		players:   players,
		now:       time.Now,
		phase:     domain.PhaseIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewSource(s.now().UnixNano()))
	}
	return s
}

// PlayerID returns the owner of the session.
func (s *GameSession) PlayerID() string {
	return s.playerID
}

// Phase returns the current lifecycle phase.
func (s *GameSession) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Snapshot returns the observable state without side effects.
func (s *GameSession) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// StartClassic begins a Classic run on the Easy pool.
// Any suspended run of either mode is discarded.
func (s *GameSession) StartClassic(ctx context.Context) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == domain.PhaseActive {
		return s.snapshotLocked(), domain.ErrInvalidState
	}
	err := s.startLocked(ctx, domain.ModeClassic)
	return s.snapshotLocked(), err
}

// StartTimeChallenge begins a Time Challenge run on the Medium1 pool.
func (s *GameSession) StartTimeChallenge(ctx context.Context) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == domain.PhaseActive {
		return s.snapshotLocked(), domain.ErrInvalidState
	}
	err := s.startLocked(ctx, domain.ModeTimeChallenge)
	return s.snapshotLocked(), err
}

// Restart discards the current run and starts the same mode again.
func (s *GameSession) Restart(ctx context.Context) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return s.snapshotLocked(), domain.ErrInvalidState
	}
	err := s.startLocked(ctx, s.run.mode)
	return s.snapshotLocked(), err
}

// Pause suspends the active run and makes it resumable.
func (s *GameSession) Pause() (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseActive {
		return s.snapshotLocked(), domain.ErrInvalidState
	}
	if s.run.clock != nil {
		s.run.clock.Pause()
	}
	s.phase = domain.PhaseSuspended
	return s.snapshotLocked(), nil
}

// ResumeClassic continues a suspended Classic run.
func (s *GameSession) ResumeClassic(ctx context.Context) (domain.Snapshot, error) {
	return s.resume(ctx, domain.ModeClassic)
}

// ResumeTimeChallenge continues a suspended Time Challenge run.
// The clock basis shifts forward by the time spent suspended.
func (s *GameSession) ResumeTimeChallenge(ctx context.Context) (domain.Snapshot, error) {
	return s.resume(ctx, domain.ModeTimeChallenge)
}

func (s *GameSession) resume(ctx context.Context, mode domain.Mode) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.resumableLocked(mode) {
		return s.snapshotLocked(), fmt.Errorf("%w: %s", domain.ErrNoResumableSession, mode)
	}
	s.phase = domain.PhaseActive
	s.lastCorrect = nil
	if mode == domain.ModeTimeChallenge {
		s.run.clock.Resume()
		if s.run.clock.Remaining(s.rules.TimeLimit, s.run.penalty) <= 0 {
			err := s.finishLocked(ctx, domain.ResultTimeUp)
			return s.snapshotLocked(), err
		}
	}
	return s.snapshotLocked(), nil
}

// SubmitAnswer evaluates choice (1..4) against the current question.
func (s *GameSession) SubmitAnswer(ctx context.Context, choice int) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseActive || !s.run.hasCurrent {
		return s.snapshotLocked(), domain.ErrInvalidState
	}
	if choice < 1 || choice > 4 {
		return s.snapshotLocked(), domain.ErrInvalidChoice
	}

	var err error
	switch s.run.mode {
	case domain.ModeClassic:
		err = s.answerClassicLocked(ctx, choice)
	case domain.ModeTimeChallenge:
		err = s.answerTimeChallengeLocked(ctx, choice)
	}
	return s.snapshotLocked(), err
}

// Tick recomputes the Time Challenge clock and ends the run when time is up.
func (s *GameSession) Tick(ctx context.Context) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseActive || s.run.mode != domain.ModeTimeChallenge {
		return s.snapshotLocked(), domain.ErrInvalidState
	}
	if s.run.clock.Remaining(s.rules.TimeLimit, s.run.penalty) <= 0 {
		err := s.finishLocked(ctx, domain.ResultTimeUp)
		return s.snapshotLocked(), err
	}
	return s.snapshotLocked(), nil
}

func (s *GameSession) startLocked(ctx context.Context, mode domain.Mode) error {
	difficulty := domain.Medium1
	if mode == domain.ModeClassic {
		difficulty = domain.ClassicLadder[0]
	}
	pool, err := s.questions.QuestionsByDifficulty(ctx, difficulty)
	if err != nil {
		return fmt.Errorf("load %s questions: %w", difficulty, err)
	}

	r := &run{mode: mode}
	switch mode {
	case domain.ModeClassic:
		r.hp = s.rules.ClassicHP
	case domain.ModeTimeChallenge:
		r.clock = NewClock(s.now)
		r.clock.Start()
	}
	r.queue.refill(pool, s.rnd)

	s.run = r
	s.phase = domain.PhaseActive
	s.lastCorrect = nil
	return s.drawLocked(ctx)
}

func (s *GameSession) answerClassicLocked(ctx context.Context, choice int) error {
	r := s.run
	question := r.current
	correct := question.IsCorrect(choice)

	if !correct {
		s.lastCorrect = &correct
		r.hasCurrent = false
		r.hp--
		r.queue.recycle(question)
		if r.hp <= 0 {
			r.hp = 0
			return s.finishLocked(ctx, domain.ResultLoss)
		}
		return s.drawLocked(ctx)
	}

	if r.progress+1 < s.rules.ClassicTarget {
		s.lastCorrect = &correct
		r.hasCurrent = false
		r.progress++
		return s.drawLocked(ctx)
	}

	if r.level == len(domain.ClassicLadder)-1 {
		s.lastCorrect = &correct
		r.hasCurrent = false
		r.progress = s.rules.ClassicTarget
		return s.finishLocked(ctx, domain.ResultWin)
	}

	// Load the next pool before touching counters so a failed fetch leaves
	// the question answerable again.
	next := domain.ClassicLadder[r.level+1]
	pool, err := s.questions.QuestionsByDifficulty(ctx, next)
	if err != nil {
		return fmt.Errorf("load %s questions: %w", next, err)
	}
	s.lastCorrect = &correct
	r.hasCurrent = false
	r.level++
	r.progress = 0
	r.queue.refill(pool, s.rnd)
	return s.drawLocked(ctx)
}

func (s *GameSession) answerTimeChallengeLocked(ctx context.Context, choice int) error {
	r := s.run
	question := r.current
	correct := question.IsCorrect(choice)
	s.lastCorrect = &correct
	r.hasCurrent = false

	if correct {
		r.streak++
		if r.streak > r.highest {
			r.highest = r.streak
		}
		r.score++
	} else {
		r.streak = 0
		r.penalty += s.rules.WrongPenalty
		r.queue.recycle(question)
	}

	if r.clock.Remaining(s.rules.TimeLimit, r.penalty) <= 0 {
		return s.finishLocked(ctx, domain.ResultTimeUp)
	}
	return s.drawLocked(ctx)
}

// drawLocked pulls the next question or ends the run when the pool is dry.
func (s *GameSession) drawLocked(ctx context.Context) error {
	question, ok := s.run.queue.next()
	if !ok {
		s.run.hasCurrent = false
		if s.run.mode == domain.ModeClassic {
			return s.finishLocked(ctx, domain.ResultLoss)
		}
		return s.finishLocked(ctx, domain.ResultExhausted)
	}
	s.run.current = question
	s.run.hasCurrent = true
	return nil
}

// finishLocked moves the run to ended and persists its result exactly once.
func (s *GameSession) finishLocked(ctx context.Context, result domain.Result) error {
	r := s.run
	s.phase = domain.PhaseEnded
	r.hasCurrent = false
	r.outcome = &domain.Outcome{Mode: r.mode, Result: result}
	if r.mode == domain.ModeTimeChallenge {
		r.clock.Pause()
		final := r.score * r.highest
		r.outcome.FinalScore = &final
	}

	if r.persisted {
		return nil
	}
	r.persisted = true

	switch {
	case r.mode == domain.ModeClassic && result == domain.ResultWin:
		if err := s.players.MarkClassicCompleted(ctx, s.playerID); err != nil {
			return fmt.Errorf("mark classic completed: %w", err)
		}
	case r.mode == domain.ModeTimeChallenge:
		if err := s.players.UpdateBestScore(ctx, s.playerID, *r.outcome.FinalScore); err != nil {
			return fmt.Errorf("update best score: %w", err)
		}
	}
	return nil
}

func (s *GameSession) resumableLocked(mode domain.Mode) bool {
	return s.phase == domain.PhaseSuspended && s.run != nil && s.run.mode == mode
}

func (s *GameSession) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{
		PlayerID:            s.playerID,
		Phase:               s.phase,
		LastCorrect:         s.lastCorrect,
		ResumeClassic:       s.resumableLocked(domain.ModeClassic),
		ResumeTimeChallenge: s.resumableLocked(domain.ModeTimeChallenge),
	}
	r := s.run
	if r == nil {
		return snap
	}

	snap.Mode = r.mode
	snap.Outcome = r.outcome
	if r.hasCurrent {
		question := r.current
		snap.Question = &question
	}
	switch r.mode {
	case domain.ModeClassic:
		snap.Classic = &domain.ClassicStats{
			HP:              r.hp,
			Difficulty:      domain.ClassicLadder[r.level],
			DifficultyIndex: r.level,
			Progress:        r.progress,
			Target:          s.rules.ClassicTarget,
		}
	case domain.ModeTimeChallenge:
		snap.TimeChallenge = &domain.TimeChallengeStats{
			Score:         r.score,
			Streak:        r.streak,
			HighestStreak: r.highest,
			TimeLeft:      r.clock.Remaining(s.rules.TimeLimit, r.penalty),
			Penalty:       int(r.penalty / time.Second),
		}
	}
	return snap
}
