package domain

import "time"

// SessionStatus is the lifecycle state of a live quiz session.
// Transitions are one-directional: Lobby -> Active -> Completed.
type SessionStatus string

const (
	StatusLobby     SessionStatus = "lobby"
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
)

// QuestionType distinguishes option-indexed questions from free-form ones.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionOther          QuestionType = "OTHER"
)

// Question is authored externally and read-only to the engine.
type Question struct {
	ID            string       `json:"id"`
	Text          string       `json:"text"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer"`
	BasePoints    int          `json:"basePoints"` // defaults to 100 if zero
}

// PublicQuestion is the answer-key-stripped view served to participants.
type PublicQuestion struct {
	ID      string       `json:"id"`
	Text    string       `json:"text"`
	Type    QuestionType `json:"type"`
	Options []string     `json:"options,omitempty"`
	Points  int          `json:"points"`
}

// Public strips the answer key from a question.
func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:      q.ID,
		Text:    q.Text,
		Type:    q.Type,
		Options: q.Options,
		Points:  q.BasePoints,
	}
}

// Quiz is a question set loaded from the quiz bank.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// SessionSettings are fixed at creation time.
type SessionSettings struct {
	TimeLimitSeconds     int     `json:"questionTime"`
	BasePoints           int     `json:"pointsPerQuestion"`
	SpeedBonusMultiplier float64 `json:"speedBonusMultiplier"`
	ShowLeaderboard      bool    `json:"showLeaderboard"`
}

// TimeLimit returns the per-question window as a duration.
func (s SessionSettings) TimeLimit() time.Duration {
	return time.Duration(s.TimeLimitSeconds) * time.Second
}

// SessionInfo is an immutable snapshot of session metadata.
type SessionInfo struct {
	ID            string          `json:"sessionId"`
	Code          string          `json:"sessionCode"`
	HostID        string          `json:"hostId"`
	QuizTitle     string          `json:"quizTitle,omitempty"`
	Status        SessionStatus   `json:"status"`
	QuestionCount int             `json:"questionCount"`
	Settings      SessionSettings `json:"settings"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// CurrentQuestion is the poll view served by the scheduler. Question is nil
// while the session is in the lobby or after completion.
type CurrentQuestion struct {
	Status           SessionStatus   `json:"status"`
	Index            int             `json:"index"`
	Question         *PublicQuestion `json:"question,omitempty"`
	RemainingSeconds int             `json:"remainingSeconds"`
	QuestionCount    int             `json:"questionCount"`
	HostID           string          `json:"hostId"`
}

// AnswerRecord is one scored submission. Records are never mutated after
// creation; at most one exists per (session, question index, participant).
type AnswerRecord struct {
	SessionCode   string    `json:"sessionCode"`
	QuestionIndex int       `json:"questionIndex"`
	ParticipantID string    `json:"participantId"`
	Answer        string    `json:"answer"`
	SubmittedAt   time.Time `json:"submittedAt"`
	IsCorrect     bool      `json:"isCorrect"`
	PointsAwarded int       `json:"pointsAwarded"`
}

// SubmitResult is returned to the submitting participant. Duplicate reports
// whether the stored record predates this call.
type SubmitResult struct {
	IsCorrect     bool `json:"correct"`
	PointsAwarded int  `json:"points"`
	TotalPoints   int  `json:"totalScore"`
	Duplicate     bool `json:"duplicate,omitempty"`
}

// AdvanceResult describes the session after a host advance. Question is nil
// once the session completes.
type AdvanceResult struct {
	Status           SessionStatus   `json:"status"`
	Index            int             `json:"index"`
	Question         *PublicQuestion `json:"question,omitempty"`
	TimeLimitSeconds int             `json:"timeLimit"`
}

// LeaderboardEntry is one ranked participant.
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	ParticipantID string `json:"participantId"`
	TotalPoints   int    `json:"totalPoints"`
	CorrectCount  int    `json:"correctAnswers"`
	AnsweredCount int    `json:"totalAnswers"`
}

// Leaderboard is derived from the ledger on demand, never stored.
type Leaderboard struct {
	SessionCode   string             `json:"sessionCode"`
	Entries       []LeaderboardEntry `json:"entries"`
	Participants  int                `json:"totalParticipants"`
	CurrentIndex  int                `json:"currentQuestion"`
	QuestionCount int                `json:"totalQuestions"`
}

// ResultEntry extends a leaderboard entry with accuracy for the final view.
type ResultEntry struct {
	LeaderboardEntry
	AccuracyPercent int `json:"accuracy"`
}

// SessionStats aggregates ledger totals for the results view.
type SessionStats struct {
	Participants    int `json:"totalParticipants"`
	TotalAnswers    int `json:"totalAnswers"`
	CorrectAnswers  int `json:"correctAnswers"`
	AverageAccuracy int `json:"averageAccuracy"`
}

// Results is the final report once a session has completed.
type Results struct {
	SessionCode string        `json:"sessionCode"`
	QuizTitle   string        `json:"quizTitle,omitempty"`
	Status      SessionStatus `json:"status"`
	Leaderboard []ResultEntry `json:"leaderboard"`
	Stats       SessionStats  `json:"stats"`
	StartedAt   *time.Time    `json:"startedAt,omitempty"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
}

// LobbyView is served while participants wait for the host to start.
type LobbyView struct {
	SessionCode   string          `json:"sessionCode"`
	Status        SessionStatus   `json:"status"`
	HostID        string          `json:"hostId"`
	QuizTitle     string          `json:"quizTitle,omitempty"`
	Participants  []string        `json:"participants"`
	QuestionCount int             `json:"questionCount"`
	Settings      SessionSettings `json:"settings"`
}
