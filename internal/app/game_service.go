package app

import (
	"context"
	"log"

	"riddle-quiz-service/internal/domain"
)

// SessionRepository abstracts where live game sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(playerID string, create func() *GameSession) *GameSession
	Get(playerID string) (*GameSession, bool)
	Touch(ctx context.Context, snapshot domain.Snapshot) error
	Delete(playerID string)
}

// PlayerDirectory is the full player store used by the service: the session
// contract plus registration and ranking.
type PlayerDirectory interface {
	PlayerStore
	Register(ctx context.Context, playerID string) (domain.PlayerRecord, error)
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// GameService routes player commands to their game session.
type GameService struct {
	sessions  SessionRepository
	questions QuestionRepository
	players   PlayerDirectory
	rules     domain.Rules
	opts      []SessionOption
}

func NewGameService(sessions SessionRepository, questions QuestionRepository, players PlayerDirectory, rules domain.Rules, opts ...SessionOption) *GameService {
	return &GameService{
		sessions:  sessions,
		questions: questions,
		players:   players,
		rules:     rules,
		opts:      opts,
	}
}

// Register ensures a player record exists and returns it.
func (s *GameService) Register(ctx context.Context, playerID string) (domain.PlayerRecord, error) {
	return s.players.Register(ctx, playerID)
}

// Player returns the stored record for playerID.
func (s *GameService) Player(ctx context.Context, playerID string) (domain.PlayerRecord, error) {
	return s.players.Get(ctx, playerID)
}

// Leaderboard returns the top players by best score.
func (s *GameService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = domain.DefaultLeaderboardSize
	}
	return s.players.Leaderboard(ctx, limit)
}

// StartClassic starts (or replaces) the player's run with a fresh Classic game.
func (s *GameService) StartClassic(ctx context.Context, playerID string) (domain.Snapshot, error) {
	session, err := s.sessionFor(ctx, playerID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return s.observe(ctx, session, func() (domain.Snapshot, error) {
		return session.StartClassic(ctx)
	})
}

// StartTimeChallenge starts (or replaces) the player's run with a fresh Time Challenge.
func (s *GameService) StartTimeChallenge(ctx context.Context, playerID string) (domain.Snapshot, error) {
	session, err := s.sessionFor(ctx, playerID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return s.observe(ctx, session, func() (domain.Snapshot, error) {
		return session.StartTimeChallenge(ctx)
	})
}

func (s *GameService) Pause(ctx context.Context, playerID string) (domain.Snapshot, error) {
	return s.withSession(ctx, playerID, func(session *GameSession) (domain.Snapshot, error) {
		return session.Pause()
	})
}

func (s *GameService) ResumeClassic(ctx context.Context, playerID string) (domain.Snapshot, error) {
	return s.withSession(ctx, playerID, func(session *GameSession) (domain.Snapshot, error) {
		return session.ResumeClassic(ctx)
	})
}

func (s *GameService) ResumeTimeChallenge(ctx context.Context, playerID string) (domain.Snapshot, error) {
	return s.withSession(ctx, playerID, func(session *GameSession) (domain.Snapshot, error) {
		return session.ResumeTimeChallenge(ctx)
	})
}

func (s *GameService) SubmitAnswer(ctx context.Context, playerID string, choice int) (domain.Snapshot, error) {
	return s.withSession(ctx, playerID, func(session *GameSession) (domain.Snapshot, error) {
		return session.SubmitAnswer(ctx, choice)
	})
}

func (s *GameService) Restart(ctx context.Context, playerID string) (domain.Snapshot, error) {
	return s.withSession(ctx, playerID, func(session *GameSession) (domain.Snapshot, error) {
		return session.Restart(ctx)
	})
}

func (s *GameService) Tick(ctx context.Context, playerID string) (domain.Snapshot, error) {
	return s.withSession(ctx, playerID, func(session *GameSession) (domain.Snapshot, error) {
		return session.Tick(ctx)
	})
}

// Snapshot returns the player's session state without changing it.
func (s *GameService) Snapshot(_ context.Context, playerID string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(playerID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// Leave suspends an active run so the player can resume it later.
// Sessions with nothing left to resume are released.
func (s *GameService) Leave(ctx context.Context, playerID string) {
	session, ok := s.sessions.Get(playerID)
	if !ok {
		return
	}
	switch session.Phase() {
	case domain.PhaseActive:
		if snap, err := session.Pause(); err == nil {
			s.touch(ctx, snap)
		}
	case domain.PhaseIdle, domain.PhaseEnded:
		s.sessions.Delete(playerID)
	}
}

func (s *GameService) sessionFor(ctx context.Context, playerID string) (*GameSession, error) {
	// Unknown players cannot play; results would have nowhere to go.
	if _, err := s.players.Get(ctx, playerID); err != nil {
		return nil, err
	}
	return s.sessions.GetOrCreate(playerID, func() *GameSession {
		return NewGameSession(playerID, s.questions, s.players, s.rules, s.opts...)
	}), nil
}

func (s *GameService) withSession(ctx context.Context, playerID string, op func(*GameSession) (domain.Snapshot, error)) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(playerID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	return s.observe(ctx, session, func() (domain.Snapshot, error) {
		return op(session)
	})
}

// observe runs op, records the resulting snapshot and logs terminal transitions.
func (s *GameService) observe(ctx context.Context, session *GameSession, op func() (domain.Snapshot, error)) (domain.Snapshot, error) {
	before := session.Phase()
	snap, err := op()
	if before != domain.PhaseEnded && snap.Phase == domain.PhaseEnded && snap.Outcome != nil {
		logOutcome(snap, err)
	}
	s.touch(ctx, snap)
	return snap, err
}

func (s *GameService) touch(ctx context.Context, snap domain.Snapshot) {
	if err := s.sessions.Touch(ctx, snap); err != nil {
		log.Printf("session %s: touch failed: %v", snap.PlayerID, err)
	}
}

func logOutcome(snap domain.Snapshot, err error) {
	outcome := snap.Outcome
	if outcome.FinalScore != nil {
		log.Printf("player %s finished %s (%s) with final score %d", snap.PlayerID, outcome.Mode, outcome.Result, *outcome.FinalScore)
	} else {
		log.Printf("player %s finished %s (%s)", snap.PlayerID, outcome.Mode, outcome.Result)
	}
	if err != nil {
		log.Printf("player %s: persisting result failed: %v", snap.PlayerID, err)
	}
}
