package model

import (
	"time"

	"github.com/google/uuid"
)

// Phase enumerates the lifecycle states of an exam session.
type Phase string

const (
	PhaseNotStarted Phase = "NOT_STARTED"
	PhaseInProgress Phase = "IN_PROGRESS"
	PhaseFinished   Phase = "FINISHED"
)

// Flow identifies which of the three exam flows a session belongs to.
type Flow string

const (
	FlowPractice Flow = "practice"
	FlowMock     Flow = "mock"
	FlowReal     Flow = "real"
)

// Flows lists every known flow.
var Flows = []Flow{FlowPractice, FlowMock, FlowReal}

// IsValid reports whether f is a known flow.
func (f Flow) IsValid() bool {
	return f == FlowPractice || f == FlowMock || f == FlowReal
}

// Discipline controls when answers are checked.
type Discipline string

const (
	// DisciplineDeferred allows free navigation and overwriting; scoring
	// happens only at finish.
	DisciplineDeferred Discipline = "DEFERRED"
	// DisciplineImmediate locks the first selection per question and reveals
	// its correctness right away.
	DisciplineImmediate Discipline = "IMMEDIATE"
)

// FlowPreset holds the session parameters for one flow.
type FlowPreset struct {
	Flow          Flow          `json:"flow"`
	QuestionCount int           `json:"question_count"`
	TimeLimit     time.Duration `json:"-"`
	Discipline    Discipline    `json:"discipline"`
	PassMark      float64       `json:"pass_mark"`
}

// TimeLimitSeconds is the preset limit in whole seconds (0 = untimed).
func (p FlowPreset) TimeLimitSeconds() int {
	return int(p.TimeLimit / time.Second)
}

// QuestionOutcome is the graded state of one drawn question.
type QuestionOutcome struct {
	QuestionID    string `json:"question_id"`
	SelectedIndex *int   `json:"selected_index"`
	CorrectIndex  int    `json:"correct_index"`
	Correct       bool   `json:"correct"`
}

// SessionResult is the immutable outcome of a finished session.
type SessionResult struct {
	ID             uuid.UUID         `json:"id"`
	Flow           Flow              `json:"flow"`
	Category       Category          `json:"category"`
	Score          int               `json:"score"`
	TotalQuestions int               `json:"total_questions"`
	PassMark       float64           `json:"pass_mark"`
	Passed         bool              `json:"passed"`
	TimedOut       bool              `json:"timed_out"`
	FinishedAt     time.Time         `json:"finished_at"`
	Outcomes       []QuestionOutcome `json:"outcomes"`
}

// Clone returns a copy that shares no memory with r.
func (r SessionResult) Clone() SessionResult {
	if r.Outcomes == nil {
		return r
	}
	outcomes := make([]QuestionOutcome, len(r.Outcomes))
	for i, o := range r.Outcomes {
		if o.SelectedIndex != nil {
			v := *o.SelectedIndex
			o.SelectedIndex = &v
		}
		outcomes[i] = o
	}
	r.Outcomes = outcomes
	return r
}

// ArchiveKey scopes a result history to one client, flow and category.
type ArchiveKey struct {
	Owner    string
	Flow     Flow
	Category Category
}

// StartSessionRequest is the payload for starting a new session.
type StartSessionRequest struct {
	Flow          Flow     `json:"flow" binding:"required,exam_flow"`
	Category      Category `json:"category" binding:"required,exam_category"`
	QuestionCount int      `json:"question_count" binding:"omitempty,min=1,max=200"`
	Page          int      `json:"page" binding:"omitempty,min=1"`
}

// AnswerRequest records a choice for the current question.
type AnswerRequest struct {
	ChoiceIndex *int `json:"choice_index" binding:"required,min=0"`
}

// NavigateRequest moves the current position by one.
type NavigateRequest struct {
	Direction string `json:"direction" binding:"required,nav_direction"`
}

// JumpRequest moves the current position to an arbitrary question.
type JumpRequest struct {
	Index *int `json:"index" binding:"required,min=0"`
}
