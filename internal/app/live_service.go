package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/naingseiha/Stunity-Enterprise-sub013/internal/domain"
)

// SessionRepository abstracts how live sessions are stored (in-memory, Redis).
type SessionRepository interface {
	// Put stores a new session under its join code; it reports false when the
	// code is already taken.
	Put(s *Session) bool
	Get(code string) (*Session, bool)
	Delete(code string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// Options tune the engine's time-window policy and defaults.
type Options struct {
	// GracePeriod is added to the question window to absorb network latency.
	GracePeriod time.Duration
	// DefaultTimeLimitSeconds applies when a session is created without one.
	DefaultTimeLimitSeconds int
	// DefaultBasePoints applies to questions without their own base points.
	DefaultBasePoints int
	// Score overrides the default speed-weighted curve when set.
	Score ScoreFunc
}

// LiveQuizService contains the live quiz session use cases: session
// lifecycle, host-driven advancement, the answer ledger and the leaderboard.
type LiveQuizService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	opts     Options
	score    ScoreFunc
	now      func() time.Time
}

func NewLiveQuizService(sessions SessionRepository, quizzes QuizRepository, opts Options) *LiveQuizService {
	if opts.DefaultTimeLimitSeconds <= 0 {
		opts.DefaultTimeLimitSeconds = 30
	}
	if opts.DefaultBasePoints <= 0 {
		opts.DefaultBasePoints = 100
	}
	score := opts.Score
	if score == nil {
		score = SpeedWeightedScore
	}
	return &LiveQuizService{
		sessions: sessions,
		quizzes:  quizzes,
		opts:     opts,
		score:    score,
		now:      time.Now,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *LiveQuizService) WithClock(now func() time.Time) *LiveQuizService {
	s.now = now
	return s
}

// CreateSession loads the quiz and allocates a lobby session owned by hostID.
func (s *LiveQuizService) CreateSession(ctx context.Context, hostID, quizID string, settings domain.SessionSettings) (domain.SessionInfo, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.SessionInfo{}, err
	}
	return s.CreateSessionWithQuestions(hostID, quiz, settings)
}

// CreateSessionWithQuestions allocates a lobby session around an already
// loaded question set.
func (s *LiveQuizService) CreateSessionWithQuestions(hostID string, quiz domain.Quiz, settings domain.SessionSettings) (domain.SessionInfo, error) {
	if len(quiz.Questions) == 0 {
		return domain.SessionInfo{}, domain.ErrNoQuestions
	}
	if settings.TimeLimitSeconds <= 0 {
		settings.TimeLimitSeconds = s.opts.DefaultTimeLimitSeconds
	}
	if settings.BasePoints <= 0 {
		settings.BasePoints = s.opts.DefaultBasePoints
	}

	for {
		code := s.newJoinCode()
		session := newSession(uuid.NewString(), code, hostID, quiz, settings, s.now)
		if s.sessions.Put(session) {
			return session.Info(), nil
		}
	}
}

// newJoinCode returns a 6-digit numeric join code. The top-level rand
// functions are safe for the concurrent creates this is called under.
func (s *LiveQuizService) newJoinCode() string {
	return fmt.Sprintf("%06d", 100000+rand.Intn(900000))
}

// Join adds a participant to the roster; joining twice is a no-op.
func (s *LiveQuizService) Join(_ context.Context, code, participantID string) (domain.LobbyView, error) {
	session, ok := s.sessions.Get(code)
	if !ok {
		return domain.LobbyView{}, domain.ErrSessionNotFound
	}
	if err := session.Join(participantID); err != nil {
		return domain.LobbyView{}, err
	}
	return session.Lobby(), nil
}

// Lobby returns the waiting-room view.
func (s *LiveQuizService) Lobby(_ context.Context, code string) (domain.LobbyView, error) {
	session, ok := s.sessions.Get(code)
	if !ok {
		return domain.LobbyView{}, domain.ErrSessionNotFound
	}
	return session.Lobby(), nil
}

// Start transitions the session to active; host only.
func (s *LiveQuizService) Start(_ context.Context, code, callerID string) (domain.CurrentQuestion, error) {
	session, ok := s.sessions.Get(code)
	if !ok {
		return domain.CurrentQuestion{}, domain.ErrSessionNotFound
	}
	return session.Start(callerID)
}

// Current returns the poll view for the session's current question.
func (s *LiveQuizService) Current(_ context.Context, code string) (domain.CurrentQuestion, error) {
	session, ok := s.sessions.Get(code)
	if !ok {
		return domain.CurrentQuestion{}, domain.ErrSessionNotFound
	}
	return session.Current(), nil
}

// Advance moves the session to the next question or completes it; host only.
// fromIndex is the index the caller believes is current; a negative value
// advances unconditionally.
func (s *LiveQuizService) Advance(_ context.Context, code, callerID string, fromIndex int) (domain.AdvanceResult, error) {
	session, ok := s.sessions.Get(code)
	if !ok {
		return domain.AdvanceResult{}, domain.ErrSessionNotFound
	}
	return session.Advance(callerID, fromIndex)
}

// Submit records an answer for the current question. Duplicates return the
// stored result unchanged.
func (s *LiveQuizService) Submit(_ context.Context, code, participantID string, questionIndex int, answer string) (domain.SubmitResult, error) {
	session, ok := s.sessions.Get(code)
	if !ok {
		return domain.SubmitResult{}, domain.ErrSessionNotFound
	}
	return session.Submit(participantID, questionIndex, answer, s.opts.GracePeriod, s.score)
}

// Leaderboard derives the ranked view from the ledger.
func (s *LiveQuizService) Leaderboard(_ context.Context, code string) (domain.Leaderboard, error) {
	session, ok := s.sessions.Get(code)
	if !ok {
		return domain.Leaderboard{}, domain.ErrSessionNotFound
	}
	return session.Leaderboard(), nil
}

// Results returns the final report with stats.
func (s *LiveQuizService) Results(_ context.Context, code string) (domain.Results, error) {
	session, ok := s.sessions.Get(code)
	if !ok {
		return domain.Results{}, domain.ErrSessionNotFound
	}
	return session.Results(), nil
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id, code, hostID string, quiz domain.Quiz, settings domain.SessionSettings) *Session {
	return newSession(id, code, hostID, quiz, settings, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(id, code, hostID string, quiz domain.Quiz, settings domain.SessionSettings, now func() time.Time) *Session {
	return newSession(id, code, hostID, quiz, settings, now)
}
