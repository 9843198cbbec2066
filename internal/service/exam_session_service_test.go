package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nepallicenseprep/likhit-backend/internal/config"
	"github.com/nepallicenseprep/likhit-backend/internal/exam"
	"github.com/nepallicenseprep/likhit-backend/internal/model"
	"github.com/nepallicenseprep/likhit-backend/internal/repository"
)

type stubClock struct{ now time.Time }

func (c *stubClock) Now() time.Time { return c.now }

// NewTicker returns a ticker that never fires; timers are exercised in the
// exam package.
func (c *stubClock) NewTicker(time.Duration) exam.Ticker { return idleTicker{} }

type idleTicker struct{}

func (idleTicker) C() <-chan time.Time { return nil }
func (idleTicker) Stop()               {}

func questionRepo(t *testing.T) *repository.QuestionRepository {
	t.Helper()
	var bank model.IndexedBank
	for i := range 30 {
		bank.Questions = append(bank.Questions, model.IndexedQuestion{
			ID:                 fmt.Sprintf("A-%d", i),
			Category:           "A",
			Text:               "q",
			Options:            []string{"a", "b", "c", "d"},
			CorrectOptionIndex: i % 4,
		})
	}
	for i := range 3 {
		bank.Questions = append(bank.Questions, model.IndexedQuestion{
			ID: fmt.Sprintf("B-%d", i), Category: "B", Text: "q", Options: []string{"a", "b"},
		})
	}
	raw, _ := json.Marshal(bank)
	repo, err := repository.LoadQuestions(repository.QuestionBank{Name: "t", Shape: repository.ShapeIndexed, Raw: raw})
	if err != nil {
		t.Fatal(err)
	}
	return repo
}

func sessionConfig() *config.Config {
	return &config.Config{
		DatabaseURL:     "postgres://test",
		SessionIdleTTL:  time.Hour,
		PracticePerPage: 20,
		Presets: map[model.Flow]model.FlowPreset{
			model.FlowPractice: {Flow: model.FlowPractice, QuestionCount: 20, Discipline: model.DisciplineImmediate, PassMark: 0.7},
			model.FlowMock:     {Flow: model.FlowMock, QuestionCount: 20, TimeLimit: 20 * time.Minute, Discipline: model.DisciplineDeferred, PassMark: 0.7},
			model.FlowReal:     {Flow: model.FlowReal, QuestionCount: 25, TimeLimit: 25 * time.Minute, Discipline: model.DisciplineDeferred, PassMark: 0.7},
		},
	}
}

type sessionFixture struct {
	svc     *ExamSessionService
	archive *repository.MemoryResultArchive
	clock   *stubClock
	mr      *miniredis.Miniredis
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := &sessionFixture{
		archive: repository.NewMemoryResultArchive(),
		clock:   &stubClock{now: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)},
		mr:      mr,
	}
	f.svc = NewExamSessionService(sessionConfig(), questionRepo(t), f.archive, f.clock, rdb, zerolog.Nop())
	t.Cleanup(f.svc.Close)
	return f
}

func TestStartUsesFlowPreset(t *testing.T) {
	f := newSessionFixture(t)

	view, report, err := f.svc.Start(context.Background(), "c1", model.StartSessionRequest{Flow: model.FlowReal, Category: model.CategoryA})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if report.Requested != 25 || report.Drawn != 25 || report.Short {
		t.Fatalf("report = %+v", report)
	}
	if view.TimeRemainingSeconds == nil || *view.TimeRemainingSeconds != 25*60 {
		t.Fatalf("time remaining = %v", view.TimeRemainingSeconds)
	}
	if view.Discipline != model.DisciplineDeferred || view.Flow != model.FlowReal {
		t.Fatalf("view = %+v", view.Snapshot)
	}
}

func TestStartShortAndEmptyPools(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	_, report, err := f.svc.Start(ctx, "c1", model.StartSessionRequest{Flow: model.FlowMock, Category: model.CategoryB})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !report.Short || report.Drawn != 3 {
		t.Fatalf("report = %+v, want short with 3", report)
	}

	_, _, err = f.svc.Start(ctx, "c1", model.StartSessionRequest{Flow: model.FlowMock, Category: model.CategoryK})
	if !errors.Is(err, exam.ErrNoQuestions) {
		t.Fatalf("err = %v, want ErrNoQuestions", err)
	}
	if f.svc.Active() != 1 {
		t.Fatalf("active = %d, failed start must not register", f.svc.Active())
	}

	_, _, err = f.svc.Start(ctx, "c1", model.StartSessionRequest{Flow: "quiz", Category: model.CategoryA})
	if !errors.Is(err, ErrUnknownFlow) {
		t.Fatalf("err = %v, want ErrUnknownFlow", err)
	}
}

func TestPracticeSessionIsPagedAndImmediate(t *testing.T) {
	f := newSessionFixture(t)

	view, report, err := f.svc.Start(context.Background(), "c1", model.StartSessionRequest{Flow: model.FlowPractice, Category: model.CategoryA, Page: 2})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if report.TotalPages != 2 || report.Drawn != 10 || view.Page != 2 {
		t.Fatalf("report = %+v page = %d", report, view.Page)
	}
	if view.TimeRemainingSeconds != nil {
		t.Fatal("practice must be untimed")
	}

	_, fb, err := f.svc.SelectAnswer("c1", view.ID, 0)
	if err != nil || fb == nil {
		t.Fatalf("SelectAnswer = %+v, %v", fb, err)
	}
	if _, _, err := f.svc.SelectAnswer("c1", view.ID, 1); !errors.Is(err, exam.ErrAnswerLocked) {
		t.Fatalf("second answer err = %v", err)
	}
}

func TestOwnershipChecks(t *testing.T) {
	f := newSessionFixture(t)
	view, _, err := f.svc.Start(context.Background(), "owner", model.StartSessionRequest{Flow: model.FlowMock, Category: model.CategoryA})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Get("intruder", view.ID); !errors.Is(err, ErrSessionForbidden) {
		t.Fatalf("intruder err = %v", err)
	}
	if _, err := f.svc.Get("owner", uuid.New()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("missing err = %v", err)
	}
	if _, err := f.svc.Navigate("owner", view.ID, "sideways"); !errors.Is(err, exam.ErrInvalidDirection) {
		t.Fatalf("direction err = %v", err)
	}
}

func TestFinishArchivesEnqueuesAndNotifies(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	view, _, err := f.svc.Start(ctx, "c1", model.StartSessionRequest{Flow: model.FlowMock, Category: model.CategoryA, QuestionCount: 5})
	if err != nil {
		t.Fatal(err)
	}
	results, cancel, err := f.svc.Subscribe("c1", view.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()

	if _, err := f.svc.Jump("c1", view.ID, 4); err != nil {
		t.Fatal(err)
	}
	if _, _, err := f.svc.SelectAnswer("c1", view.ID, 2); err != nil {
		t.Fatal(err)
	}

	first, err := f.svc.Finish(ctx, "c1", view.ID)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	again, err := f.svc.Finish(ctx, "c1", view.ID)
	if err != nil || again.ID != first.ID {
		t.Fatalf("second finish = %v, %v", again.ID, err)
	}

	select {
	case r, ok := <-results:
		if !ok || r.ID != first.ID {
			t.Fatalf("subscriber got %v, %v", r.ID, ok)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber not notified")
	}

	history, err := f.svc.History(ctx, "c1", model.FlowMock, model.CategoryA)
	if err != nil || len(history) != 1 || history[0].ID != first.ID {
		t.Fatalf("history = %v, %v", history, err)
	}

	queued, err := f.mr.List(config.WorkerKey.PersistResultsQueue)
	if err != nil || len(queued) != 1 {
		t.Fatalf("queue = %v, %v", queued, err)
	}
	var rec model.ResultRecord
	if err := json.Unmarshal([]byte(queued[0]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.ID != first.ID || rec.Owner != "c1" || rec.TotalQuestions != 5 {
		t.Fatalf("record = %+v", rec)
	}

	late, _, err := f.svc.Subscribe("c1", view.ID)
	if err != nil {
		t.Fatal(err)
	}
	if r := <-late; r.ID != first.ID {
		t.Fatal("late subscriber did not get the result")
	}
}

func TestRestartRedrawsSameParameters(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	view, _, err := f.svc.Start(ctx, "c1", model.StartSessionRequest{Flow: model.FlowMock, Category: model.CategoryA, QuestionCount: 7})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Finish(ctx, "c1", view.ID); err != nil {
		t.Fatal(err)
	}

	restarted, report, err := f.svc.Restart(ctx, "c1", view.ID)
	if err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if restarted.ID != view.ID || report.Drawn != 7 || restarted.Phase != model.PhaseInProgress {
		t.Fatalf("restarted = %+v report = %+v", restarted.Snapshot, report)
	}
}

func TestDiscardAndSweepIdle(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	a, _, err := f.svc.Start(ctx, "c1", model.StartSessionRequest{Flow: model.FlowMock, Category: model.CategoryA})
	if err != nil {
		t.Fatal(err)
	}
	sub, _, err := f.svc.Subscribe("c1", a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Discard("c1", a.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := <-sub; ok {
		t.Fatal("discarded session delivered a result")
	}
	if history, _ := f.svc.History(ctx, "c1", model.FlowMock, model.CategoryA); len(history) != 0 {
		t.Fatal("discarded session recorded a result")
	}

	b, _, err := f.svc.Start(ctx, "c1", model.StartSessionRequest{Flow: model.FlowMock, Category: model.CategoryA})
	if err != nil {
		t.Fatal(err)
	}
	if n := f.svc.SweepIdle(f.clock.now.Add(30 * time.Minute)); n != 0 {
		t.Fatalf("swept %d fresh sessions", n)
	}
	if n := f.svc.SweepIdle(f.clock.now.Add(2 * time.Hour)); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if _, err := f.svc.Get("c1", b.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v after sweep", err)
	}
}

func TestHistoryValidatesKey(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	if _, err := f.svc.History(ctx, "c1", "bogus", model.CategoryA); !errors.Is(err, ErrUnknownFlow) {
		t.Fatalf("err = %v", err)
	}
	if _, err := f.svc.History(ctx, "c1", model.FlowReal, "Z"); !errors.Is(err, exam.ErrUnknownCategory) {
		t.Fatalf("err = %v", err)
	}
}

func TestDiscardedSessionCannotFinishLate(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	view, _, err := f.svc.Start(ctx, "c1", model.StartSessionRequest{Flow: model.FlowMock, Category: model.CategoryA})
	if err != nil {
		t.Fatal(err)
	}
	f.svc.mu.RLock()
	m := f.svc.sessions[view.ID]
	f.svc.mu.RUnlock()

	if err := f.svc.Discard("c1", view.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := m.session.Finish(ctx); !errors.Is(err, exam.ErrAbandoned) {
		t.Fatalf("late finish err = %v", err)
	}
	if history, _ := f.svc.History(ctx, "c1", model.FlowMock, model.CategoryA); len(history) != 0 {
		t.Fatalf("history = %d results, want none", len(history))
	}
	if n, _ := f.mr.List(config.WorkerKey.PersistResultsQueue); len(n) != 0 {
		t.Fatalf("queue = %v, want empty", n)
	}
}
