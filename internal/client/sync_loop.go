// Package client implements the polling controller used by quiz views
// (web and mobile) to stay in sync with a live session. It drives a local
// countdown from the server-reported remaining time, auto-submits when the
// window closes and guarantees at most one outstanding poll.
package client

import (
	"context"
	"sync"
	"time"

	"github.com/naingseiha/Stunity-Enterprise-sub013/internal/domain"
)

// Poller is the request surface the loop needs from the engine.
type Poller interface {
	CurrentQuestion(ctx context.Context, code string) (domain.CurrentQuestion, error)
	SubmitAnswer(ctx context.Context, code string, questionIndex int, answer string) (domain.SubmitResult, error)
	Advance(ctx context.Context, code string, fromIndex int) (domain.AdvanceResult, error)
}

// AnswerState tracks the per-question submission state machine:
// Pending -> Submitted on a tap, or Pending -> Expired -> Submitted when the
// local countdown fires first. All transitions go through one guarded entry
// point, so the timeout path and the tap path cannot both submit.
type AnswerState int

const (
	Pending AnswerState = iota
	Expired
	Submitted
)

// NoAnswer is the sentinel auto-submitted when the countdown expires.
const NoAnswer = "__NO_ANSWER__"

// advanceNoticeThreshold is how many consecutive advance failures it takes
// before the view is told to show a retry notice.
const advanceNoticeThreshold = 2

// Hooks are render callbacks; all are optional and called from the loop
// goroutine (except OnResult, which fires on the submitter's goroutine).
type Hooks struct {
	// OnQuestion fires when the server reports a new question index.
	OnQuestion func(view domain.CurrentQuestion)
	// OnCountdown fires every tick with the locally computed remaining seconds.
	OnCountdown func(remaining int)
	// OnResult fires when a submission (tap or auto) is accepted.
	OnResult func(res domain.SubmitResult)
	// OnCompleted fires once when the session reaches its terminal status.
	OnCompleted func()
	// OnNotice surfaces non-fatal, retryable conditions.
	OnNotice func(msg string)
}

// Config wires a SyncLoop to one participant's view of one session.
type Config struct {
	Poller       Poller
	Code         string
	UserID       string
	PollInterval time.Duration // defaults to 1s
	Hooks        Hooks
}

// SyncLoop polls the engine on a fixed cadence and owns the local question
// state. Create one per session view and cancel its context on teardown.
type SyncLoop struct {
	poller   Poller
	code     string
	userID   string
	interval time.Duration
	hooks    Hooks
	now      func() time.Time

	mu              sync.Mutex
	state           AnswerState
	status          domain.SessionStatus
	index           int
	deadline        time.Time
	hostID          string
	advanceFailures int
}

func NewSyncLoop(cfg Config) *SyncLoop {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &SyncLoop{
		poller:   cfg.Poller,
		code:     cfg.Code,
		userID:   cfg.UserID,
		interval: interval,
		hooks:    cfg.Hooks,
		now:      time.Now,
		status:   domain.StatusLobby,
		index:    -1,
	}
}

// WithClock is test-only for deterministic countdowns.
func (l *SyncLoop) WithClock(now func() time.Time) *SyncLoop {
	l.now = now
	return l
}

// Run polls until the session completes or ctx is cancelled. Polls never
// overlap: the next tick only fires after the in-flight request returns,
// and cancellation discards whatever is in flight.
func (l *SyncLoop) Run(ctx context.Context) error {
	if done := l.tick(ctx); done {
		return nil
	}
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if done := l.tick(ctx); done {
				return nil
			}
		}
	}
}

// tick performs one poll and runs the countdown; it reports true when the
// session has completed.
func (l *SyncLoop) tick(ctx context.Context) bool {
	view, err := l.poller.CurrentQuestion(ctx, l.code)
	if err != nil {
		// A failed poll is "try again next tick", not an error state.
		if ctx.Err() == nil {
			l.notice("connection hiccup, retrying")
		}
		return false
	}

	l.mu.Lock()
	l.hostID = view.HostID
	l.status = view.Status

	if view.Status == domain.StatusCompleted {
		l.mu.Unlock()
		if l.hooks.OnCompleted != nil {
			l.hooks.OnCompleted()
		}
		return true
	}

	newQuestion := view.Status == domain.StatusActive && view.Index != l.index
	if newQuestion {
		// Restart the countdown from the authoritative remaining time, not a
		// fresh full window, so late joiners and reconnects stay in sync.
		l.index = view.Index
		l.state = Pending
		l.deadline = l.now().Add(time.Duration(view.RemainingSeconds) * time.Second)
	}

	var remaining int
	if view.Status == domain.StatusActive {
		remaining = int(l.deadline.Sub(l.now()).Seconds())
		if remaining < 0 {
			remaining = 0
		}
	}
	expired := view.Status == domain.StatusActive && remaining == 0 && l.state != Submitted
	l.mu.Unlock()

	if newQuestion && l.hooks.OnQuestion != nil {
		l.hooks.OnQuestion(view)
	}
	if view.Status == domain.StatusActive && l.hooks.OnCountdown != nil {
		l.hooks.OnCountdown(remaining)
	}
	if expired {
		l.autoSubmit(ctx)
	}
	return false
}

// Submit is the user-tap path: Pending -> Submitted. It reports false when
// the guard already flipped (timeout won, or a previous tap landed).
func (l *SyncLoop) Submit(ctx context.Context, answer string) (domain.SubmitResult, bool, error) {
	l.mu.Lock()
	if l.state != Pending || l.status != domain.StatusActive {
		l.mu.Unlock()
		return domain.SubmitResult{}, false, nil
	}
	l.state = Submitted
	idx := l.index
	l.mu.Unlock()

	res, err := l.poller.SubmitAnswer(ctx, l.code, idx, answer)
	if err != nil {
		// Roll the guard back so the user can retry, unless the question moved on.
		l.mu.Lock()
		if l.state == Submitted && l.index == idx {
			l.state = Pending
		}
		l.mu.Unlock()
		return domain.SubmitResult{}, false, err
	}

	if l.hooks.OnResult != nil {
		l.hooks.OnResult(res)
	}
	return res, true, nil
}

// autoSubmit is the timeout path: Pending -> Expired -> Submitted with the
// NoAnswer sentinel. A failed send leaves the state Expired so the next tick
// retries; a tap can no longer win once the state left Pending.
func (l *SyncLoop) autoSubmit(ctx context.Context) {
	l.mu.Lock()
	if l.state == Submitted {
		l.mu.Unlock()
		return
	}
	l.state = Expired
	idx := l.index
	l.mu.Unlock()

	res, err := l.poller.SubmitAnswer(ctx, l.code, idx, NoAnswer)
	if err != nil {
		return
	}

	l.mu.Lock()
	if l.index == idx {
		l.state = Submitted
	}
	l.mu.Unlock()

	if l.hooks.OnResult != nil {
		l.hooks.OnResult(res)
	}
}

// Advance is the host control. Failures are retryable; after consecutive
// failures a notice is surfaced instead of an error state.
func (l *SyncLoop) Advance(ctx context.Context) (domain.AdvanceResult, error) {
	l.mu.Lock()
	idx := l.index
	l.mu.Unlock()

	res, err := l.poller.Advance(ctx, l.code, idx)
	if err != nil {
		l.mu.Lock()
		l.advanceFailures++
		failures := l.advanceFailures
		l.mu.Unlock()
		if failures >= advanceNoticeThreshold {
			l.notice("could not advance, try again")
		}
		return domain.AdvanceResult{}, err
	}

	l.mu.Lock()
	l.advanceFailures = 0
	l.mu.Unlock()
	return res, nil
}

// IsHost reports whether this participant owns the host controls, based on
// the last polled view. The server enforces authorization regardless.
func (l *SyncLoop) IsHost() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hostID != "" && l.hostID == l.userID
}

// State returns the current per-question answer state.
func (l *SyncLoop) State() AnswerState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *SyncLoop) notice(msg string) {
	if l.hooks.OnNotice != nil {
		l.hooks.OnNotice(msg)
	}
}
