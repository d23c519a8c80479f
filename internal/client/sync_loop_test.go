package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/naingseiha/Stunity-Enterprise-sub013/internal/domain"
)

type submission struct {
	index  int
	answer string
}

type fakePoller struct {
	mu         sync.Mutex
	view       domain.CurrentQuestion
	viewErr    error
	submitErr  error
	advanceErr error
	submits    []submission
	advances   []int
}

func (p *fakePoller) CurrentQuestion(_ context.Context, _ string) (domain.CurrentQuestion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.viewErr != nil {
		return domain.CurrentQuestion{}, p.viewErr
	}
	return p.view, nil
}

func (p *fakePoller) SubmitAnswer(_ context.Context, _ string, questionIndex int, answer string) (domain.SubmitResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.submits = append(p.submits, submission{index: questionIndex, answer: answer})
	if p.submitErr != nil {
		return domain.SubmitResult{}, p.submitErr
	}
	return domain.SubmitResult{IsCorrect: answer == "1", PointsAwarded: 50}, nil
}

func (p *fakePoller) Advance(_ context.Context, _ string, fromIndex int) (domain.AdvanceResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advances = append(p.advances, fromIndex)
	if p.advanceErr != nil {
		return domain.AdvanceResult{}, p.advanceErr
	}
	return domain.AdvanceResult{Status: domain.StatusActive, Index: fromIndex + 1}, nil
}

func (p *fakePoller) setView(view domain.CurrentQuestion) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view = view
}

func (p *fakePoller) submitCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.submits)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func activeView(index, remaining int) domain.CurrentQuestion {
	return domain.CurrentQuestion{
		Status:           domain.StatusActive,
		Index:            index,
		Question:         &domain.PublicQuestion{ID: "q", Text: "?"},
		RemainingSeconds: remaining,
		QuestionCount:    3,
		HostID:           "host",
	}
}

func newTestLoop(poller *fakePoller, clock *fakeClock, hooks Hooks) *SyncLoop {
	return NewSyncLoop(Config{
		Poller: poller,
		Code:   "123456",
		UserID: "alice",
		Hooks:  hooks,
	}).WithClock(clock.Now)
}

func TestTickEmitsQuestionOnceAndCountsDown(t *testing.T) {
	poller := &fakePoller{view: activeView(0, 30)}
	clock := newFakeClock()

	var questions int
	var countdowns []int
	loop := newTestLoop(poller, clock, Hooks{
		OnQuestion:  func(domain.CurrentQuestion) { questions++ },
		OnCountdown: func(remaining int) { countdowns = append(countdowns, remaining) },
	})

	loop.tick(context.Background())
	clock.Advance(12 * time.Second)
	loop.tick(context.Background())

	if questions != 1 {
		t.Fatalf("expected one question callback, got %d", questions)
	}
	if len(countdowns) != 2 || countdowns[0] != 30 || countdowns[1] != 18 {
		t.Fatalf("unexpected countdowns: %v", countdowns)
	}
	if loop.State() != Pending {
		t.Fatalf("expected pending state, got %v", loop.State())
	}
}

func TestCountdownUsesServerRemaining(t *testing.T) {
	// Joining mid-question must not restart the full window.
	poller := &fakePoller{view: activeView(1, 7)}
	clock := newFakeClock()

	var countdowns []int
	loop := newTestLoop(poller, clock, Hooks{
		OnCountdown: func(remaining int) { countdowns = append(countdowns, remaining) },
	})

	loop.tick(context.Background())
	if len(countdowns) != 1 || countdowns[0] != 7 {
		t.Fatalf("expected countdown from server remaining, got %v", countdowns)
	}
}

func TestAutoSubmitOnExpiry(t *testing.T) {
	poller := &fakePoller{view: activeView(0, 2)}
	clock := newFakeClock()

	var results int
	loop := newTestLoop(poller, clock, Hooks{
		OnResult: func(domain.SubmitResult) { results++ },
	})

	loop.tick(context.Background())
	clock.Advance(3 * time.Second)
	loop.tick(context.Background())

	if got := poller.submitCount(); got != 1 {
		t.Fatalf("expected one auto-submit, got %d", got)
	}
	if poller.submits[0].answer != NoAnswer || poller.submits[0].index != 0 {
		t.Fatalf("unexpected auto-submission: %+v", poller.submits[0])
	}
	if loop.State() != Submitted {
		t.Fatalf("expected submitted state, got %v", loop.State())
	}
	if results != 1 {
		t.Fatalf("expected one result callback, got %d", results)
	}
}

func TestTapBeatsTimeout(t *testing.T) {
	poller := &fakePoller{view: activeView(0, 2)}
	clock := newFakeClock()
	loop := newTestLoop(poller, clock, Hooks{})

	loop.tick(context.Background())
	if _, ok, err := loop.Submit(context.Background(), "1"); err != nil || !ok {
		t.Fatalf("submit: ok=%v err=%v", ok, err)
	}

	clock.Advance(5 * time.Second)
	loop.tick(context.Background())

	if got := poller.submitCount(); got != 1 {
		t.Fatalf("timeout must not double-submit, got %d submissions", got)
	}
	if poller.submits[0].answer != "1" {
		t.Fatalf("expected tapped answer, got %q", poller.submits[0].answer)
	}
}

func TestTimeoutBeatsTap(t *testing.T) {
	poller := &fakePoller{view: activeView(0, 1)}
	clock := newFakeClock()
	loop := newTestLoop(poller, clock, Hooks{})

	loop.tick(context.Background())
	clock.Advance(2 * time.Second)
	loop.tick(context.Background())

	if _, ok, err := loop.Submit(context.Background(), "1"); err != nil || ok {
		t.Fatalf("tap after expiry must be a no-op, ok=%v err=%v", ok, err)
	}
	if got := poller.submitCount(); got != 1 {
		t.Fatalf("expected only the auto-submission, got %d", got)
	}
}

func TestSubmitErrorRollsBackToPending(t *testing.T) {
	poller := &fakePoller{view: activeView(0, 30)}
	clock := newFakeClock()
	loop := newTestLoop(poller, clock, Hooks{})

	loop.tick(context.Background())

	poller.submitErr = errors.New("boom")
	if _, ok, err := loop.Submit(context.Background(), "1"); err == nil || ok {
		t.Fatalf("expected transport error, ok=%v err=%v", ok, err)
	}
	if loop.State() != Pending {
		t.Fatalf("failed submit must roll back to pending, got %v", loop.State())
	}

	poller.submitErr = nil
	if _, ok, err := loop.Submit(context.Background(), "1"); err != nil || !ok {
		t.Fatalf("retry should land, ok=%v err=%v", ok, err)
	}
}

func TestAutoSubmitRetriesNextTick(t *testing.T) {
	poller := &fakePoller{view: activeView(0, 1)}
	clock := newFakeClock()
	loop := newTestLoop(poller, clock, Hooks{})

	loop.tick(context.Background())
	clock.Advance(2 * time.Second)

	poller.submitErr = errors.New("boom")
	loop.tick(context.Background())
	if loop.State() != Expired {
		t.Fatalf("expected expired after failed auto-submit, got %v", loop.State())
	}

	poller.submitErr = nil
	loop.tick(context.Background())
	if loop.State() != Submitted {
		t.Fatalf("expected retry to submit, got %v", loop.State())
	}
	if got := poller.submitCount(); got != 2 {
		t.Fatalf("expected two attempts, got %d", got)
	}
}

func TestNewQuestionResetsState(t *testing.T) {
	poller := &fakePoller{view: activeView(0, 30)}
	clock := newFakeClock()

	var questions int
	loop := newTestLoop(poller, clock, Hooks{
		OnQuestion: func(domain.CurrentQuestion) { questions++ },
	})

	loop.tick(context.Background())
	if _, ok, _ := loop.Submit(context.Background(), "1"); !ok {
		t.Fatal("submit should land")
	}

	poller.setView(activeView(1, 30))
	loop.tick(context.Background())

	if loop.State() != Pending {
		t.Fatalf("new question must reset to pending, got %v", loop.State())
	}
	if questions != 2 {
		t.Fatalf("expected a question callback per index, got %d", questions)
	}
}

func TestRunStopsWhenCompleted(t *testing.T) {
	poller := &fakePoller{view: domain.CurrentQuestion{Status: domain.StatusCompleted, Index: 2, HostID: "host"}}
	clock := newFakeClock()

	var completed int
	loop := newTestLoop(poller, clock, Hooks{
		OnCompleted: func() { completed++ },
	})

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if completed != 1 {
		t.Fatalf("expected one completion callback, got %d", completed)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	poller := &fakePoller{view: domain.CurrentQuestion{Status: domain.StatusLobby, Index: -1}}
	loop := NewSyncLoop(Config{Poller: poller, Code: "123456", UserID: "alice", PollInterval: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after cancel")
	}
}

func TestPollFailureRetriesWithNotice(t *testing.T) {
	poller := &fakePoller{viewErr: errors.New("network down")}
	clock := newFakeClock()

	var notices []string
	loop := newTestLoop(poller, clock, Hooks{
		OnNotice: func(msg string) { notices = append(notices, msg) },
	})

	if done := loop.tick(context.Background()); done {
		t.Fatal("a failed poll must not end the loop")
	}
	if len(notices) != 1 {
		t.Fatalf("expected a retry notice, got %v", notices)
	}

	poller.mu.Lock()
	poller.viewErr = nil
	poller.mu.Unlock()
	if done := loop.tick(context.Background()); done {
		t.Fatal("recovered poll must keep looping")
	}
}

func TestAdvanceFailureNotice(t *testing.T) {
	poller := &fakePoller{view: activeView(0, 30), advanceErr: errors.New("boom")}
	clock := newFakeClock()

	var notices []string
	loop := newTestLoop(poller, clock, Hooks{
		OnNotice: func(msg string) { notices = append(notices, msg) },
	})
	loop.tick(context.Background())

	if _, err := loop.Advance(context.Background()); err == nil {
		t.Fatal("expected advance error")
	}
	if len(notices) != 0 {
		t.Fatalf("first failure should stay quiet, got %v", notices)
	}
	if _, err := loop.Advance(context.Background()); err == nil {
		t.Fatal("expected advance error")
	}
	if len(notices) != 1 {
		t.Fatalf("expected a notice after repeated failures, got %v", notices)
	}

	poller.advanceErr = nil
	res, err := loop.Advance(context.Background())
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if res.Index != 1 {
		t.Fatalf("expected advance to index 1, got %d", res.Index)
	}
	if poller.advances[len(poller.advances)-1] != 0 {
		t.Fatalf("expected fromIndex 0, got %d", poller.advances[len(poller.advances)-1])
	}
}

func TestIsHost(t *testing.T) {
	poller := &fakePoller{view: activeView(0, 30)}
	clock := newFakeClock()

	loop := newTestLoop(poller, clock, Hooks{})
	if loop.IsHost() {
		t.Fatal("host is unknown before the first poll")
	}
	loop.tick(context.Background())
	if loop.IsHost() {
		t.Fatal("alice is not the host")
	}

	host := NewSyncLoop(Config{Poller: poller, Code: "123456", UserID: "host"}).WithClock(clock.Now)
	host.tick(context.Background())
	if !host.IsHost() {
		t.Fatal("host flag should be set from the polled view")
	}
}
