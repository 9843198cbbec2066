package exam

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nepallicenseprep/likhit-backend/internal/model"
)

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
	created chan *fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{
		now:     time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		created: make(chan *fakeTicker, 8),
	}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(time.Duration) Ticker {
	t := &fakeTicker{c: make(chan time.Time)}
	c.mu.Lock()
	c.tickers = append(c.tickers, t)
	c.mu.Unlock()
	c.created <- t
	return t
}

// advance moves time forward one second and delivers the tick.
func (c *fakeClock) advance(t *fakeTicker) {
	c.mu.Lock()
	c.now = c.now.Add(time.Second)
	now := c.now
	c.mu.Unlock()
	t.c <- now
}

type fakeTicker struct {
	c       chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.c }

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *fakeTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not stop")
	}
}

func TestRunTimerAutoFinishesAtZero(t *testing.T) {
	clock := newFakeClock()
	archive := &fakeArchive{}
	finished := make(chan model.SessionResult, 2)

	s := New(Config{
		Owner:    "client-1",
		Flow:     model.FlowReal,
		Source:   &fakeSource{questions: makeQuestions(model.CategoryA, 5)},
		Archive:  archive,
		Clock:    clock,
		Log:      zerolog.Nop(),
		OnFinish: func(r model.SessionResult) { finished <- r },
	})
	if _, err := s.Start(context.Background(), Params{Category: model.CategoryA, QuestionCount: 5, TimeLimit: time.Second}); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		RunTimer(context.Background(), s, clock)
		close(done)
	}()

	ticker := <-clock.created
	clock.advance(ticker)
	waitDone(t, done)

	if s.Phase() != model.PhaseFinished {
		t.Fatalf("phase = %s, want FINISHED", s.Phase())
	}
	r, _ := s.Result()
	if !r.TimedOut || r.Score != 0 {
		t.Fatalf("result = %+v, want timed out with score 0", r)
	}
	for _, o := range r.Outcomes {
		if o.Correct || o.SelectedIndex != nil {
			t.Fatalf("outcome %+v should be unanswered", o)
		}
	}
	if !r.FinishedAt.Equal(clock.Now()) {
		t.Fatalf("finished at %v, want %v", r.FinishedAt, clock.Now())
	}
	if archive.count() != 1 || len(finished) != 1 {
		t.Fatalf("appends = %d hooks = %d", archive.count(), len(finished))
	}
	if !ticker.isStopped() {
		t.Fatal("ticker not stopped")
	}
	if rem := s.Snapshot().TimeRemainingSeconds; rem == nil || *rem != 0 {
		t.Fatalf("remaining = %v, want 0", rem)
	}
}

func TestRunTimerStopsOnManualFinish(t *testing.T) {
	clock := newFakeClock()
	archive := &fakeArchive{}
	s := New(Config{
		Flow:    model.FlowMock,
		Source:  &fakeSource{questions: makeQuestions(model.CategoryA, 5)},
		Archive: archive,
		Clock:   clock,
		Log:     zerolog.Nop(),
	})
	ctx := context.Background()
	if _, err := s.Start(ctx, Params{Category: model.CategoryA, QuestionCount: 5, TimeLimit: 10 * time.Second}); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		RunTimer(ctx, s, clock)
		close(done)
	}()
	ticker := <-clock.created
	clock.advance(ticker)

	if _, err := s.Finish(ctx); err != nil {
		t.Fatal(err)
	}
	clock.advance(ticker)
	waitDone(t, done)

	r, _ := s.Result()
	if r.TimedOut {
		t.Fatal("manual finish marked as timed out")
	}
	if archive.count() != 1 {
		t.Fatalf("appends = %d, want 1", archive.count())
	}
	if rem := s.Snapshot().TimeRemainingSeconds; *rem != 9 {
		t.Fatalf("remaining = %d, want 9", *rem)
	}
}

func TestRunTimerStopsOnCancel(t *testing.T) {
	clock := newFakeClock()
	s := New(Config{
		Flow:   model.FlowMock,
		Source: &fakeSource{questions: makeQuestions(model.CategoryA, 2)},
		Clock:  clock,
		Log:    zerolog.Nop(),
	})
	if _, err := s.Start(context.Background(), Params{Category: model.CategoryA, QuestionCount: 2, TimeLimit: time.Minute}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunTimer(ctx, s, clock)
		close(done)
	}()
	ticker := <-clock.created
	cancel()
	waitDone(t, done)

	if !ticker.isStopped() {
		t.Fatal("ticker not stopped")
	}
	if s.Phase() != model.PhaseInProgress {
		t.Fatalf("phase = %s", s.Phase())
	}
}

func TestRunTimerReturnsForUntimedSession(t *testing.T) {
	clock := newFakeClock()
	s := New(Config{
		Flow:   model.FlowPractice,
		Source: &fakeSource{questions: makeQuestions(model.CategoryA, 2)},
		Clock:  clock,
		Log:    zerolog.Nop(),
	})
	if _, err := s.Start(context.Background(), Params{Category: model.CategoryA, QuestionCount: 2}); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		RunTimer(context.Background(), s, clock)
		close(done)
	}()
	waitDone(t, done)

	if len(clock.created) != 0 {
		t.Fatal("untimed session created a ticker")
	}
	if s.Snapshot().TimeRemainingSeconds != nil {
		t.Fatal("untimed session reports remaining time")
	}
}

func TestTickIgnoresStaleGeneration(t *testing.T) {
	clock := newFakeClock()
	s := New(Config{
		Flow:   model.FlowMock,
		Source: &fakeSource{questions: makeQuestions(model.CategoryA, 3)},
		Clock:  clock,
		Log:    zerolog.Nop(),
	})
	ctx := context.Background()
	if _, err := s.Start(ctx, Params{Category: model.CategoryA, QuestionCount: 3, TimeLimit: 2 * time.Second}); err != nil {
		t.Fatal(err)
	}
	gen, _ := s.timerState()
	if _, err := s.Restart(ctx); err != nil {
		t.Fatal(err)
	}

	if s.tick(ctx, gen) {
		t.Fatal("stale tick reported running")
	}
	if rem := *s.Snapshot().TimeRemainingSeconds; rem != 2 {
		t.Fatalf("remaining = %d, stale tick must not decrement", rem)
	}
	if !s.Tick(ctx) {
		t.Fatal("current tick should keep running")
	}
	if s.Tick(ctx) {
		t.Fatal("tick reaching zero should stop")
	}
	if s.Phase() != model.PhaseFinished {
		t.Fatalf("phase = %s", s.Phase())
	}
	if s.Tick(ctx) {
		t.Fatal("tick after finish should be a no-op")
	}
	if rem := *s.Snapshot().TimeRemainingSeconds; rem != 0 {
		t.Fatalf("remaining = %d, want 0", rem)
	}
}

// primedClock hands out tickers that already hold one pending tick.
type primedClock struct{ fakeClock }

func (c *primedClock) NewTicker(time.Duration) Ticker {
	t := &fakeTicker{c: make(chan time.Time, 1)}
	t.c <- c.Now()
	return t
}

func TestAbandonedSessionNeverRecordsResult(t *testing.T) {
	archive := &fakeArchive{}
	hooks := 0
	clock := &primedClock{fakeClock: fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}}

	for range 50 {
		s := New(Config{
			Owner:    "client-1",
			Flow:     model.FlowMock,
			Source:   &fakeSource{questions: makeQuestions(model.CategoryA, 3)},
			Archive:  archive,
			Clock:    clock,
			Log:      zerolog.Nop(),
			OnFinish: func(model.SessionResult) { hooks++ },
		})
		if _, err := s.Start(context.Background(), Params{Category: model.CategoryA, QuestionCount: 3, TimeLimit: time.Second}); err != nil {
			t.Fatal(err)
		}
		gen, _ := s.timerState()

		ctx, cancel := context.WithCancel(context.Background())
		s.Abandon()
		cancel()
		RunTimer(ctx, s, clock)

		if s.tick(context.Background(), gen) {
			t.Fatal("tick from before abandon reported running")
		}
		if s.Tick(context.Background()) {
			t.Fatal("tick after abandon reported running")
		}
	}

	if archive.count() != 0 || hooks != 0 {
		t.Fatalf("appends = %d hooks = %d, abandoned sessions must record nothing", archive.count(), hooks)
	}
}
