package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nepallicenseprep/likhit-backend/internal/config"
	"github.com/nepallicenseprep/likhit-backend/internal/exam"
	"github.com/nepallicenseprep/likhit-backend/internal/model"
)

// Session registry errors.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionForbidden = errors.New("session belongs to another client")
	ErrUnknownFlow      = errors.New("unknown exam flow")
)

const enqueueTimeout = 2 * time.Second

// SessionView is a snapshot tagged with its session id.
type SessionView struct {
	ID uuid.UUID `json:"id"`
	exam.Snapshot
}

type managedSession struct {
	id      uuid.UUID
	owner   string
	session *exam.Session

	lastActive atomic.Int64

	mu          sync.Mutex
	stopTimer   context.CancelFunc
	subscribers []chan model.SessionResult
	discarded   bool
}

func (m *managedSession) view() SessionView {
	return SessionView{ID: m.id, Snapshot: m.session.Snapshot()}
}

// ExamSessionService keeps the live exam sessions of every client and wires
// them to the archive, the timer and the analytics queue.
type ExamSessionService struct {
	cfg       *config.Config
	questions exam.QuestionSource
	archive   exam.Archive
	clock     exam.Clock
	rdb       *redis.Client
	log       zerolog.Logger

	baseCtx context.Context
	cancel  context.CancelFunc

	mu       sync.RWMutex
	sessions map[uuid.UUID]*managedSession
}

// NewExamSessionService creates a new ExamSessionService. rdb may be nil, in
// which case finished results are not queued for analytics.
func NewExamSessionService(
	cfg *config.Config,
	questions exam.QuestionSource,
	archive exam.Archive,
	clock exam.Clock,
	rdb *redis.Client,
	log zerolog.Logger,
) *ExamSessionService {
	if clock == nil {
		clock = exam.SystemClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ExamSessionService{
		cfg:       cfg,
		questions: questions,
		archive:   archive,
		clock:     clock,
		rdb:       rdb,
		log:       log.With().Str("component", "exam_session_service").Logger(),
		baseCtx:   ctx,
		cancel:    cancel,
		sessions:  make(map[uuid.UUID]*managedSession),
	}
}

// Preset returns the configured parameters for a flow.
func (s *ExamSessionService) Preset(flow model.Flow) (model.FlowPreset, error) {
	p, ok := s.cfg.Presets[flow]
	if !ok {
		return model.FlowPreset{}, ErrUnknownFlow
	}
	return p, nil
}

// Start creates a session for owner and starts it. Timed sessions get a
// timer goroutine that finishes them when time runs out.
func (s *ExamSessionService) Start(ctx context.Context, owner string, req model.StartSessionRequest) (SessionView, exam.StartReport, error) {
	preset, err := s.Preset(req.Flow)
	if err != nil {
		return SessionView{}, exam.StartReport{}, err
	}

	params := exam.Params{
		Category:      req.Category,
		QuestionCount: preset.QuestionCount,
		TimeLimit:     preset.TimeLimit,
		Discipline:    preset.Discipline,
		PassMark:      preset.PassMark,
	}
	if req.QuestionCount > 0 && req.Flow != model.FlowPractice {
		params.QuestionCount = req.QuestionCount
	}
	if req.Flow == model.FlowPractice {
		params.Page = max(req.Page, 1)
	}

	m := &managedSession{id: uuid.New(), owner: owner}
	m.session = exam.New(exam.Config{
		Owner:    owner,
		Flow:     req.Flow,
		Source:   s.questions,
		Archive:  s.archive,
		Clock:    s.clock,
		Log:      s.log.With().Str("session_id", m.id.String()).Logger(),
		OnFinish: func(r model.SessionResult) { s.onFinish(m, r) },
	})

	report, err := m.session.Start(ctx, params)
	if err != nil {
		return SessionView{}, report, fmt.Errorf("start session: %w", err)
	}
	m.lastActive.Store(s.clock.Now().UnixNano())

	s.mu.Lock()
	s.sessions[m.id] = m
	s.mu.Unlock()

	s.startTimer(m)

	s.log.Info().
		Str("session_id", m.id.String()).
		Str("flow", string(req.Flow)).
		Str("category", string(req.Category)).
		Int("drawn", report.Drawn).
		Bool("short", report.Short).
		Msg("Session created")

	return m.view(), report, nil
}

func (s *ExamSessionService) startTimer(m *managedSession) {
	ctx, cancel := context.WithCancel(s.baseCtx)

	m.mu.Lock()
	if m.stopTimer != nil {
		m.stopTimer()
	}
	m.stopTimer = cancel
	m.mu.Unlock()

	go exam.RunTimer(ctx, m.session, s.clock)
}

// lookup returns the session if it exists and belongs to owner.
func (s *ExamSessionService) lookup(owner string, id uuid.UUID) (*managedSession, error) {
	s.mu.RLock()
	m, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if m.owner != owner {
		return nil, ErrSessionForbidden
	}
	m.lastActive.Store(s.clock.Now().UnixNano())
	return m, nil
}

// Get returns the current state of a session.
func (s *ExamSessionService) Get(owner string, id uuid.UUID) (SessionView, error) {
	m, err := s.lookup(owner, id)
	if err != nil {
		return SessionView{}, err
	}
	return m.view(), nil
}

// SelectAnswer records a choice for the current question. Feedback is
// non-nil only for immediate-discipline sessions.
func (s *ExamSessionService) SelectAnswer(owner string, id uuid.UUID, choiceIndex int) (SessionView, *exam.Feedback, error) {
	m, err := s.lookup(owner, id)
	if err != nil {
		return SessionView{}, nil, err
	}
	fb, err := m.session.SelectAnswer(choiceIndex)
	if err != nil {
		return SessionView{}, nil, err
	}
	return m.view(), fb, nil
}

// Navigate moves one question forward or back.
func (s *ExamSessionService) Navigate(owner string, id uuid.UUID, direction string) (SessionView, error) {
	m, err := s.lookup(owner, id)
	if err != nil {
		return SessionView{}, err
	}
	d, err := exam.ParseDirection(direction)
	if err != nil {
		return SessionView{}, err
	}
	if err := m.session.Navigate(d); err != nil {
		return SessionView{}, err
	}
	return m.view(), nil
}

// Jump moves to the question at index.
func (s *ExamSessionService) Jump(owner string, id uuid.UUID, index int) (SessionView, error) {
	m, err := s.lookup(owner, id)
	if err != nil {
		return SessionView{}, err
	}
	if err := m.session.Jump(index); err != nil {
		return SessionView{}, err
	}
	return m.view(), nil
}

// Finish scores the session. Repeated calls return the same result.
func (s *ExamSessionService) Finish(ctx context.Context, owner string, id uuid.UUID) (model.SessionResult, error) {
	m, err := s.lookup(owner, id)
	if err != nil {
		return model.SessionResult{}, err
	}
	return m.session.Finish(ctx)
}

// Restart draws a fresh set with the session's last parameters.
func (s *ExamSessionService) Restart(ctx context.Context, owner string, id uuid.UUID) (SessionView, exam.StartReport, error) {
	m, err := s.lookup(owner, id)
	if err != nil {
		return SessionView{}, exam.StartReport{}, err
	}
	report, err := m.session.Restart(ctx)
	if err != nil {
		return SessionView{}, report, err
	}
	s.startTimer(m)
	return m.view(), report, nil
}

// Discard drops a session without recording a result.
func (s *ExamSessionService) Discard(owner string, id uuid.UUID) error {
	m, err := s.lookup(owner, id)
	if err != nil {
		return err
	}
	s.remove(m)
	return nil
}

func (s *ExamSessionService) remove(m *managedSession) {
	s.mu.Lock()
	delete(s.sessions, m.id)
	s.mu.Unlock()

	m.session.Abandon()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopTimer != nil {
		m.stopTimer()
	}
	m.discarded = true
	for _, ch := range m.subscribers {
		close(ch)
	}
	m.subscribers = nil
}

// Subscribe returns a channel that receives the session result once it
// finishes, then closes. If the session is already finished the result is
// delivered at once. The channel closes without a value if the session is
// discarded. Call the returned func to stop listening early.
func (s *ExamSessionService) Subscribe(owner string, id uuid.UUID) (<-chan model.SessionResult, func(), error) {
	m, err := s.lookup(owner, id)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan model.SessionResult, 1)

	m.mu.Lock()
	if m.discarded {
		m.mu.Unlock()
		close(ch)
		return ch, func() {}, nil
	}
	if r, done := m.session.Result(); done {
		m.mu.Unlock()
		ch <- r
		close(ch)
		return ch, func() {}, nil
	}
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, sub := range m.subscribers {
			if sub == ch {
				m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel, nil
}

// History returns the archived results of owner for a flow and category.
func (s *ExamSessionService) History(ctx context.Context, owner string, flow model.Flow, category model.Category) ([]model.SessionResult, error) {
	if !flow.IsValid() {
		return nil, ErrUnknownFlow
	}
	if !category.IsSelectable() {
		return nil, exam.ErrUnknownCategory
	}
	return s.archive.Load(ctx, model.ArchiveKey{Owner: owner, Flow: flow, Category: category}), nil
}

// SweepIdle discards sessions untouched for longer than the idle TTL and
// returns how many were removed.
func (s *ExamSessionService) SweepIdle(now time.Time) int {
	cutoff := now.Add(-s.cfg.SessionIdleTTL).UnixNano()

	s.mu.RLock()
	var idle []*managedSession
	for _, m := range s.sessions {
		if m.lastActive.Load() < cutoff {
			idle = append(idle, m)
		}
	}
	s.mu.RUnlock()

	for _, m := range idle {
		s.remove(m)
	}
	if len(idle) > 0 {
		s.log.Info().Int("count", len(idle)).Msg("Swept idle sessions")
	}
	return len(idle)
}

// Active returns the number of registered sessions.
func (s *ExamSessionService) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops every timer. Sessions are left as they are.
func (s *ExamSessionService) Close() {
	s.cancel()
}

func (s *ExamSessionService) onFinish(m *managedSession, r model.SessionResult) {
	s.enqueue(m.owner, r)

	m.mu.Lock()
	subs := m.subscribers
	m.subscribers = nil
	m.mu.Unlock()

	for _, ch := range subs {
		ch <- r
		close(ch)
	}
}

// enqueue pushes the result onto the analytics queue drained by the result
// worker. Failures are logged and dropped.
func (s *ExamSessionService) enqueue(owner string, r model.SessionResult) {
	if s.rdb == nil || !s.cfg.AnalyticsEnabled() {
		return
	}

	raw, err := json.Marshal(model.NewResultRecord(owner, r))
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to encode result record")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), enqueueTimeout)
	defer cancel()
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw).Err(); err != nil {
		s.log.Warn().Err(err).Str("result_id", r.ID.String()).Msg("Failed to enqueue result")
	}
}
