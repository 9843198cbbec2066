package exam

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nepallicenseprep/likhit-backend/internal/model"
)

// Session errors.
var (
	ErrInvalidQuestionCount = errors.New("question count must be positive")
	ErrUnknownCategory      = errors.New("unknown category")
	ErrInvalidTimeLimit     = errors.New("time limit must not be negative")
	ErrInvalidPassMark      = errors.New("pass mark must be between 0 and 1")
	ErrNoQuestions          = errors.New("no questions available")
	ErrPageOutOfRange       = errors.New("practice page out of range")
	ErrNotInProgress        = errors.New("session is not in progress")
	ErrNotStarted           = errors.New("session was never started")
	ErrInvalidChoice        = errors.New("choice index out of range")
	ErrInvalidPosition      = errors.New("question index out of range")
	ErrInvalidDirection     = errors.New("direction must be next or previous")
	ErrAnswerLocked         = errors.New("answer already locked for this question")
	ErrAbandoned            = errors.New("session was abandoned")
)

// DefaultPassMark is the share of correct answers needed to pass.
const DefaultPassMark = 0.7

// Direction is a one-step navigation move.
type Direction string

const (
	DirectionNext     Direction = "next"
	DirectionPrevious Direction = "previous"
)

// ParseDirection accepts "next", "previous" and "prev".
func ParseDirection(raw string) (Direction, error) {
	switch raw {
	case "next":
		return DirectionNext, nil
	case "previous", "prev":
		return DirectionPrevious, nil
	default:
		return "", ErrInvalidDirection
	}
}

// Params configures one draw.
type Params struct {
	Category      model.Category
	QuestionCount int
	// TimeLimit of zero means untimed. Partial seconds round up.
	TimeLimit  time.Duration
	Discipline model.Discipline
	PassMark   float64
	// Page selects a fixed practice page instead of a random draw when > 0.
	// QuestionCount is then the page size.
	Page int
}

// StartReport describes how a start went. Short is the undersized-pool
// warning: fewer questions than requested were available.
type StartReport struct {
	Requested  int  `json:"requested"`
	Drawn      int  `json:"drawn"`
	Short      bool `json:"short"`
	TotalPages int  `json:"total_pages,omitempty"`
}

// Feedback is returned by SelectAnswer under the immediate discipline.
type Feedback struct {
	QuestionID   string `json:"question_id"`
	Position     int    `json:"position"`
	Selected     int    `json:"selected_index"`
	CorrectIndex int    `json:"correct_index"`
	Correct      bool   `json:"correct"`
}

// Config wires a session to its collaborators.
type Config struct {
	Owner   string
	Flow    model.Flow
	Source  QuestionSource
	Archive Archive
	Clock   Clock
	Log     zerolog.Logger
	// Rand is used for sampling; nil uses the package-level generator.
	Rand *rand.Rand
	// OnFinish runs once per finished attempt, outside the session lock.
	OnFinish func(model.SessionResult)
}

// Session is one attempt at a sampled set of questions. All methods are safe
// for concurrent use and are applied in a single total order.
type Session struct {
	mu sync.Mutex

	owner    string
	flow     model.Flow
	source   QuestionSource
	archive  Archive
	clock    Clock
	rnd      *rand.Rand
	log      zerolog.Logger
	onFinish func(model.SessionResult)

	params    Params
	hasParams bool

	phase      model.Phase
	questions  []model.Question
	answers    []*int
	position   int
	timeLimit  int
	remaining  int
	generation uint64
	result     *model.SessionResult
	abandoned  bool
}

// New creates a session in the NOT_STARTED phase.
func New(cfg Config) *Session {
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	return &Session{
		owner:    cfg.Owner,
		flow:     cfg.Flow,
		source:   cfg.Source,
		archive:  cfg.Archive,
		clock:    clock,
		rnd:      cfg.Rand,
		log:      cfg.Log.With().Str("component", "exam_session").Str("flow", string(cfg.Flow)).Logger(),
		onFinish: cfg.OnFinish,
		phase:    model.PhaseNotStarted,
	}
}

// Start draws a fresh set of questions and moves the session to IN_PROGRESS.
// On error the previous state is left untouched.
func (s *Session) Start(ctx context.Context, p Params) (StartReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked(ctx, p)
}

// Restart starts again with the parameters of the last successful start.
func (s *Session) Restart(ctx context.Context) (StartReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasParams {
		return StartReport{}, ErrNotStarted
	}
	return s.startLocked(ctx, s.params)
}

func (s *Session) startLocked(ctx context.Context, p Params) (StartReport, error) {
	if s.abandoned {
		return StartReport{}, ErrAbandoned
	}
	if p.QuestionCount <= 0 {
		return StartReport{}, ErrInvalidQuestionCount
	}
	if !p.Category.IsSelectable() {
		return StartReport{}, ErrUnknownCategory
	}
	if p.TimeLimit < 0 {
		return StartReport{}, ErrInvalidTimeLimit
	}
	if p.PassMark < 0 || p.PassMark > 1 {
		return StartReport{}, ErrInvalidPassMark
	}
	if p.PassMark == 0 {
		p.PassMark = DefaultPassMark
	}
	if p.Discipline == "" {
		p.Discipline = model.DisciplineDeferred
	}

	report := StartReport{Requested: p.QuestionCount}
	var drawn []model.Question

	if p.Page > 0 {
		page, total := s.source.Page(p.Category, p.Page, p.QuestionCount)
		report.TotalPages = total
		if total == 0 {
			return report, ErrNoQuestions
		}
		if len(page) == 0 {
			return report, ErrPageOutOfRange
		}
		drawn = page
	} else {
		pool := s.source.FilterByCategory(p.Category)
		if len(pool) == 0 {
			return report, ErrNoQuestions
		}
		s.shuffle(pool)
		if len(pool) > p.QuestionCount {
			pool = pool[:p.QuestionCount]
		}
		drawn = pool
		report.Short = len(drawn) < p.QuestionCount
	}
	report.Drawn = len(drawn)

	limit := int((p.TimeLimit + time.Second - 1) / time.Second)

	s.params = p
	s.hasParams = true
	s.questions = drawn
	s.answers = make([]*int, len(drawn))
	s.position = 0
	s.timeLimit = limit
	s.remaining = limit
	s.result = nil
	s.generation++
	s.phase = model.PhaseInProgress

	s.log.Debug().
		Ctx(ctx).
		Str("category", string(p.Category)).
		Int("requested", report.Requested).
		Int("drawn", report.Drawn).
		Int("time_limit", limit).
		Msg("Session started")

	return report, nil
}

func (s *Session) shuffle(pool []model.Question) {
	swap := func(i, j int) { pool[i], pool[j] = pool[j], pool[i] }
	if s.rnd != nil {
		s.rnd.Shuffle(len(pool), swap)
		return
	}
	rand.Shuffle(len(pool), swap)
}

// SelectAnswer records a choice for the current question. Under the deferred
// discipline it overwrites any prior choice and returns nil feedback; under
// the immediate discipline the first choice locks the question and its
// correctness is returned.
func (s *Session) SelectAnswer(choiceIndex int) (*Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkInProgress(); err != nil {
		return nil, err
	}
	q := s.questions[s.position]
	if choiceIndex < 0 || choiceIndex >= len(q.Choices) {
		return nil, ErrInvalidChoice
	}

	if s.params.Discipline == model.DisciplineImmediate {
		if s.answers[s.position] != nil {
			return nil, ErrAnswerLocked
		}
		s.answers[s.position] = intPtr(choiceIndex)
		return &Feedback{
			QuestionID:   q.ID,
			Position:     s.position,
			Selected:     choiceIndex,
			CorrectIndex: q.CorrectIndex,
			Correct:      choiceIndex == q.CorrectIndex,
		}, nil
	}

	s.answers[s.position] = intPtr(choiceIndex)
	return nil, nil
}

// Navigate moves one question forward or back, clamped to the drawn list.
func (s *Session) Navigate(d Direction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkInProgress(); err != nil {
		return err
	}
	switch d {
	case DirectionNext:
		if s.position < len(s.questions)-1 {
			s.position++
		}
	case DirectionPrevious:
		if s.position > 0 {
			s.position--
		}
	default:
		return ErrInvalidDirection
	}
	return nil
}

// Jump moves directly to the question at index.
func (s *Session) Jump(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkInProgress(); err != nil {
		return err
	}
	if index < 0 || index >= len(s.questions) {
		return ErrInvalidPosition
	}
	s.position = index
	return nil
}

// Finish scores the session, archives the result and moves to FINISHED.
// Calling it again after the session finished returns the same result with
// no further effect.
func (s *Session) Finish(ctx context.Context) (model.SessionResult, error) {
	s.mu.Lock()
	if s.abandoned {
		s.mu.Unlock()
		return model.SessionResult{}, ErrAbandoned
	}
	switch s.phase {
	case model.PhaseFinished:
		r := s.result.Clone()
		s.mu.Unlock()
		return r, nil
	case model.PhaseNotStarted:
		s.mu.Unlock()
		return model.SessionResult{}, ErrNotInProgress
	}
	result := s.finishLocked(ctx, false)
	hook := s.onFinish
	s.mu.Unlock()

	if hook != nil {
		hook(result)
	}
	return result, nil
}

// Tick advances the countdown by one second. It reports whether the timer
// should keep running.
func (s *Session) Tick(ctx context.Context) bool {
	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()
	return s.tick(ctx, gen)
}

func (s *Session) tick(ctx context.Context, gen uint64) bool {
	s.mu.Lock()
	if s.abandoned || gen != s.generation || s.phase != model.PhaseInProgress || s.timeLimit == 0 {
		s.mu.Unlock()
		return false
	}
	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining > 0 {
		s.mu.Unlock()
		return true
	}

	result := s.finishLocked(context.WithoutCancel(ctx), true)
	hook := s.onFinish
	s.mu.Unlock()

	if hook != nil {
		hook(result)
	}
	return false
}

func (s *Session) finishLocked(ctx context.Context, timedOut bool) model.SessionResult {
	outcomes := make([]model.QuestionOutcome, len(s.questions))
	score := 0
	for i, q := range s.questions {
		o := model.QuestionOutcome{QuestionID: q.ID, CorrectIndex: q.CorrectIndex}
		if a := s.answers[i]; a != nil {
			o.SelectedIndex = intPtr(*a)
			o.Correct = *a == q.CorrectIndex
		}
		if o.Correct {
			score++
		}
		outcomes[i] = o
	}

	total := len(s.questions)
	result := model.SessionResult{
		ID:             uuid.New(),
		Flow:           s.flow,
		Category:       s.params.Category,
		Score:          score,
		TotalQuestions: total,
		PassMark:       s.params.PassMark,
		Passed:         total > 0 && float64(score)/float64(total) >= s.params.PassMark,
		TimedOut:       timedOut,
		FinishedAt:     s.clock.Now().UTC(),
		Outcomes:       outcomes,
	}

	if s.archive != nil {
		key := model.ArchiveKey{Owner: s.owner, Flow: s.flow, Category: s.params.Category}
		if err := s.archive.Append(ctx, key, result); err != nil {
			s.log.Warn().Err(err).Str("result_id", result.ID.String()).Msg("Failed to archive result")
		}
	}

	s.phase = model.PhaseFinished
	stored := result.Clone()
	s.result = &stored

	s.log.Info().
		Str("category", string(result.Category)).
		Int("score", score).
		Int("total", total).
		Bool("timed_out", timedOut).
		Msg("Session finished")

	return result
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() model.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Result returns the finished result, or false while not finished.
func (s *Session) Result() (model.SessionResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return model.SessionResult{}, false
	}
	return s.result.Clone(), true
}

// Abandon ends the session without recording a result. Pending timer ticks
// become no-ops and every later operation fails with ErrAbandoned.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abandoned = true
	s.generation++
}

func (s *Session) checkInProgress() error {
	if s.abandoned {
		return ErrAbandoned
	}
	if s.phase != model.PhaseInProgress {
		return ErrNotInProgress
	}
	return nil
}

// timerState returns the current generation and whether it is timed and
// running.
func (s *Session) timerState() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation, s.phase == model.PhaseInProgress && s.timeLimit > 0
}

func intPtr(v int) *int { return &v }
