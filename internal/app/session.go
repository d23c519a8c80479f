package app

import (
	"sort"
	"sync"
	"time"

	"github.com/naingseiha/Stunity-Enterprise-sub013/internal/domain"
)

// Session is the canonical state of one live quiz, keyed by join code. All
// mutation happens inside short critical sections under the session mutex, so
// concurrent submits and a racing advance resolve to exactly one winner each.
type Session struct {
	id        string
	code      string
	hostID    string
	quizID    string
	quizTitle string
	questions []domain.Question
	settings  domain.SessionSettings
	now       func() time.Time

	mu                sync.RWMutex
	status            domain.SessionStatus
	currentIndex      int // -1 while in the lobby
	questionStartedAt time.Time
	participants      map[string]time.Time
	records           map[int]map[string]*domain.AnswerRecord
	createdAt         time.Time
	startedAt         time.Time
	completedAt       time.Time
	lastTouched       time.Time
}

func newSession(id, code, hostID string, quiz domain.Quiz, settings domain.SessionSettings, now func() time.Time) *Session {
	t := now()
	return &Session{
		id:           id,
		code:         code,
		hostID:       hostID,
		quizID:       quiz.ID,
		quizTitle:    quiz.Title,
		questions:    quiz.Questions,
		settings:     settings,
		now:          now,
		status:       domain.StatusLobby,
		currentIndex: -1,
		participants: make(map[string]time.Time),
		records:      make(map[int]map[string]*domain.AnswerRecord),
		createdAt:    t,
		lastTouched:  t,
	}
}

// Code returns the join code.
func (s *Session) Code() string { return s.code }

// HostID returns the participant authorized to start and advance.
func (s *Session) HostID() string { return s.hostID }

// Info returns a metadata snapshot.
func (s *Session) Info() domain.SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.SessionInfo{
		ID:            s.id,
		Code:          s.code,
		HostID:        s.hostID,
		QuizTitle:     s.quizTitle,
		Status:        s.status,
		QuestionCount: len(s.questions),
		Settings:      s.settings,
		CreatedAt:     s.createdAt,
	}
}

// Join adds a participant while the session is in the lobby or active.
// Joining twice is a no-op.
func (s *Session) Join(participantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == domain.StatusCompleted {
		return domain.ErrSessionNotState
	}
	if _, ok := s.participants[participantID]; !ok {
		s.participants[participantID] = s.now()
	}
	s.lastTouched = s.now()
	return nil
}

// Start transitions lobby -> active and activates question zero. The status
// check under the lock guarantees a single winning transition.
func (s *Session) Start(callerID string) (domain.CurrentQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if callerID != s.hostID {
		return domain.CurrentQuestion{}, domain.ErrNotHost
	}
	if s.status != domain.StatusLobby {
		return domain.CurrentQuestion{}, domain.ErrSessionNotState
	}

	t := s.now()
	s.status = domain.StatusActive
	s.currentIndex = 0
	s.questionStartedAt = t
	s.startedAt = t
	s.lastTouched = t
	return s.currentLocked(), nil
}

// Current is the scheduler view: status, index, answer-key-stripped question
// and the authoritative remaining seconds.
func (s *Session) Current() domain.CurrentQuestion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentLocked()
}

func (s *Session) currentLocked() domain.CurrentQuestion {
	view := domain.CurrentQuestion{
		Status:        s.status,
		Index:         s.currentIndex,
		QuestionCount: len(s.questions),
		HostID:        s.hostID,
	}
	if s.status != domain.StatusActive {
		return view
	}

	q := s.questions[s.currentIndex].Public()
	q.Points = questionPoints(s.questions[s.currentIndex], s.settings)
	view.Question = &q

	remaining := s.settings.TimeLimit() - s.now().Sub(s.questionStartedAt)
	if remaining < 0 {
		remaining = 0
	}
	view.RemainingSeconds = int(remaining.Seconds())
	return view
}

// Advance moves to the next question, or completes the session when the
// current question is the last. The index never decreases and completed is
// terminal. fromIndex is a compare-and-swap guard: when >= 0 the advance only
// wins if it matches the current index, so a double-tapped or racing advance
// cannot skip a question. Pass a negative fromIndex to advance
// unconditionally.
func (s *Session) Advance(callerID string, fromIndex int) (domain.AdvanceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if callerID != s.hostID {
		return domain.AdvanceResult{}, domain.ErrNotHost
	}
	if s.status != domain.StatusActive {
		return domain.AdvanceResult{}, domain.ErrSessionNotState
	}
	if fromIndex >= 0 && fromIndex != s.currentIndex {
		return domain.AdvanceResult{}, domain.ErrStaleQuestion
	}

	t := s.now()
	s.lastTouched = t

	if s.currentIndex+1 >= len(s.questions) {
		s.status = domain.StatusCompleted
		s.completedAt = t
		return domain.AdvanceResult{
			Status:           domain.StatusCompleted,
			Index:            s.currentIndex,
			TimeLimitSeconds: s.settings.TimeLimitSeconds,
		}, nil
	}

	s.currentIndex++
	s.questionStartedAt = t

	q := s.questions[s.currentIndex].Public()
	q.Points = questionPoints(s.questions[s.currentIndex], s.settings)
	return domain.AdvanceResult{
		Status:           domain.StatusActive,
		Index:            s.currentIndex,
		Question:         &q,
		TimeLimitSeconds: s.settings.TimeLimitSeconds,
	}, nil
}

// Submit records at most one scored answer per (question index, participant).
// A duplicate returns the stored outcome unchanged, whatever the new answer.
// The insert is atomic with the window and index checks under the mutex.
func (s *Session) Submit(participantID string, questionIndex int, answer string, grace time.Duration, score ScoreFunc) (domain.SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusActive {
		return domain.SubmitResult{}, domain.ErrSessionNotState
	}
	if _, ok := s.participants[participantID]; !ok {
		return domain.SubmitResult{}, domain.ErrNotParticipant
	}
	if questionIndex != s.currentIndex {
		return domain.SubmitResult{}, domain.ErrStaleQuestion
	}

	if existing, ok := s.records[questionIndex][participantID]; ok {
		return domain.SubmitResult{
			IsCorrect:     existing.IsCorrect,
			PointsAwarded: existing.PointsAwarded,
			TotalPoints:   s.totalPointsLocked(participantID),
			Duplicate:     true,
		}, nil
	}

	t := s.now()
	elapsed := t.Sub(s.questionStartedAt)
	limit := s.settings.TimeLimit()
	if elapsed > limit+grace {
		return domain.SubmitResult{}, domain.ErrAnswerWindowClosed
	}

	question := s.questions[questionIndex]
	record := &domain.AnswerRecord{
		SessionCode:   s.code,
		QuestionIndex: questionIndex,
		ParticipantID: participantID,
		Answer:        answer,
		SubmittedAt:   t,
	}
	if matchAnswer(question, answer) {
		record.IsCorrect = true
		record.PointsAwarded = score(questionPoints(question, s.settings), elapsed, limit)
	}

	if s.records[questionIndex] == nil {
		s.records[questionIndex] = make(map[string]*domain.AnswerRecord)
	}
	s.records[questionIndex][participantID] = record
	s.lastTouched = t

	return domain.SubmitResult{
		IsCorrect:     record.IsCorrect,
		PointsAwarded: record.PointsAwarded,
		TotalPoints:   s.totalPointsLocked(participantID),
	}, nil
}

func (s *Session) totalPointsLocked(participantID string) int {
	total := 0
	for _, byUser := range s.records {
		if r, ok := byUser[participantID]; ok {
			total += r.PointsAwarded
		}
	}
	return total
}

// participantTally is the per-participant aggregate derived from the ledger.
type participantTally struct {
	id         string
	points     int
	correct    int
	answered   int
	lastSubmit time.Time
}

func (s *Session) tallyLocked() []participantTally {
	byID := make(map[string]*participantTally, len(s.participants))
	for id := range s.participants {
		byID[id] = &participantTally{id: id}
	}
	for _, byUser := range s.records {
		for id, r := range byUser {
			t, ok := byID[id]
			if !ok {
				t = &participantTally{id: id}
				byID[id] = t
			}
			t.points += r.PointsAwarded
			t.answered++
			if r.IsCorrect {
				t.correct++
			}
			if r.SubmittedAt.After(t.lastSubmit) {
				t.lastSubmit = r.SubmittedAt
			}
		}
	}

	tallies := make([]participantTally, 0, len(byID))
	for _, t := range byID {
		tallies = append(tallies, *t)
	}
	// Points descending, then whoever reached their score earlier, then id.
	// A zero lastSubmit means no submissions at all; those rank after anyone
	// who answered, not before.
	sort.Slice(tallies, func(i, j int) bool {
		if tallies[i].points != tallies[j].points {
			return tallies[i].points > tallies[j].points
		}
		iIdle, jIdle := tallies[i].lastSubmit.IsZero(), tallies[j].lastSubmit.IsZero()
		if iIdle != jIdle {
			return jIdle
		}
		if !tallies[i].lastSubmit.Equal(tallies[j].lastSubmit) {
			return tallies[i].lastSubmit.Before(tallies[j].lastSubmit)
		}
		return tallies[i].id < tallies[j].id
	})
	return tallies
}

// Leaderboard derives the ranked view from the ledger. Every roster member
// appears, including those with no submissions.
func (s *Session) Leaderboard() domain.Leaderboard {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tallies := s.tallyLocked()
	entries := make([]domain.LeaderboardEntry, 0, len(tallies))
	for i, t := range tallies {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:          i + 1,
			ParticipantID: t.id,
			TotalPoints:   t.points,
			CorrectCount:  t.correct,
			AnsweredCount: t.answered,
		})
	}
	return domain.Leaderboard{
		SessionCode:   s.code,
		Entries:       entries,
		Participants:  len(s.participants),
		CurrentIndex:  s.currentIndex,
		QuestionCount: len(s.questions),
	}
}

// Lobby returns the waiting-room view.
func (s *Session) Lobby() domain.LobbyView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.participants))
	for id := range s.participants {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return domain.LobbyView{
		SessionCode:   s.code,
		Status:        s.status,
		HostID:        s.hostID,
		QuizTitle:     s.quizTitle,
		Participants:  ids,
		QuestionCount: len(s.questions),
		Settings:      s.settings,
	}
}

// Results builds the final report with per-participant accuracy and
// session-wide stats.
func (s *Session) Results() domain.Results {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tallies := s.tallyLocked()
	entries := make([]domain.ResultEntry, 0, len(tallies))
	totalAnswers, correctAnswers := 0, 0
	for i, t := range tallies {
		accuracy := 0
		if t.answered > 0 {
			accuracy = int(float64(t.correct)/float64(t.answered)*100 + 0.5)
		}
		entries = append(entries, domain.ResultEntry{
			LeaderboardEntry: domain.LeaderboardEntry{
				Rank:          i + 1,
				ParticipantID: t.id,
				TotalPoints:   t.points,
				CorrectCount:  t.correct,
				AnsweredCount: t.answered,
			},
			AccuracyPercent: accuracy,
		})
		totalAnswers += t.answered
		correctAnswers += t.correct
	}

	avg := 0
	if totalAnswers > 0 {
		avg = int(float64(correctAnswers)/float64(totalAnswers)*100 + 0.5)
	}

	res := domain.Results{
		SessionCode: s.code,
		QuizTitle:   s.quizTitle,
		Status:      s.status,
		Leaderboard: entries,
		Stats: domain.SessionStats{
			Participants:    len(s.participants),
			TotalAnswers:    totalAnswers,
			CorrectAnswers:  correctAnswers,
			AverageAccuracy: avg,
		},
	}
	if !s.startedAt.IsZero() {
		t := s.startedAt
		res.StartedAt = &t
	}
	if !s.completedAt.IsZero() {
		t := s.completedAt
		res.CompletedAt = &t
	}
	return res
}

// Records returns a copy of the ledger, ordered by question index then
// participant id.
func (s *Session) Records() []domain.AnswerRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.AnswerRecord, 0)
	for _, byUser := range s.records {
		for _, r := range byUser {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].QuestionIndex != out[j].QuestionIndex {
			return out[i].QuestionIndex < out[j].QuestionIndex
		}
		return out[i].ParticipantID < out[j].ParticipantID
	})
	return out
}

// IdleSince reports the last time the session saw any activity.
func (s *Session) IdleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastTouched
}

// Expired reports whether the session has been idle longer than ttl.
func (s *Session) Expired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(s.IdleSince()) > ttl
}
