package memory

import (
	"testing"
	"time"

	"github.com/naingseiha/Stunity-Enterprise-sub013/internal/app"
	"github.com/naingseiha/Stunity-Enterprise-sub013/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore(0)

	if !store.Put(sampleSession("123456")) {
		t.Fatalf("expected put to succeed")
	}
	if store.Put(sampleSession("123456")) {
		t.Fatalf("expected duplicate code to be rejected")
	}
	if _, ok := store.Get("123456"); !ok {
		t.Fatalf("expected session present")
	}

	store.Delete("123456")
	if _, ok := store.Get("123456"); ok {
		t.Fatalf("expected session removed")
	}
}

func TestSweepDropsIdleSessions(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	now := base
	clock := func() time.Time { return now }

	store := NewSessionStore(10 * time.Minute).WithClock(clock)
	store.Put(app.NewSessionWithClock("id-1", "111111", "host", sampleQuiz(), domain.SessionSettings{TimeLimitSeconds: 30}, clock))

	store.Sweep()
	if store.Len() != 1 {
		t.Fatalf("fresh session must survive sweep")
	}

	now = base.Add(11 * time.Minute)
	store.Sweep()
	if store.Len() != 0 {
		t.Fatalf("idle session must be dropped")
	}
}

func TestSweepKeepsActiveSessions(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	now := base
	clock := func() time.Time { return now }

	store := NewSessionStore(10 * time.Minute).WithClock(clock)
	session := app.NewSessionWithClock("id-1", "111111", "host", sampleQuiz(), domain.SessionSettings{TimeLimitSeconds: 30}, clock)
	store.Put(session)

	now = base.Add(9 * time.Minute)
	if err := session.Join("alice"); err != nil {
		t.Fatalf("join: %v", err)
	}

	now = base.Add(15 * time.Minute) // idle for 6m only, thanks to the join
	store.Sweep()
	if store.Len() != 1 {
		t.Fatalf("recently touched session must survive sweep")
	}
}

func sampleSession(code string) *app.Session {
	return app.NewSession("id-"+code, code, "host", sampleQuiz(), domain.SessionSettings{TimeLimitSeconds: 30})
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "quiz-1",
		Title: "Arithmetic sprint",
		Questions: []domain.Question{
			{ID: "q1", Text: "What is 2 + 2?", Type: domain.QuestionMultipleChoice, Options: []string{"3", "4", "5"}, CorrectAnswer: "1", BasePoints: 100},
		},
	}
}
