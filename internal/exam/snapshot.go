package exam

import "github.com/nepallicenseprep/likhit-backend/internal/model"

// Snapshot is a read-only copy of a session's state, safe to serialize.
type Snapshot struct {
	Flow       model.Flow                   `json:"flow"`
	Category   model.Category               `json:"category,omitempty"`
	Phase      model.Phase                  `json:"phase"`
	Discipline model.Discipline             `json:"discipline,omitempty"`
	Page       int                          `json:"page,omitempty"`
	Position   int                          `json:"position"`
	Total      int                          `json:"total"`
	Questions  []model.QuestionForCandidate `json:"questions"`
	Answers    []*int                       `json:"answers"`
	Answered   int                          `json:"answered"`
	// Revealed holds the correct index of locked questions under the
	// immediate discipline, nil elsewhere.
	Revealed             []*int               `json:"revealed,omitempty"`
	TimeLimitSeconds     int                  `json:"time_limit_seconds"`
	TimeRemainingSeconds *int                 `json:"time_remaining_seconds"`
	Result               *model.SessionResult `json:"result,omitempty"`
}

// Current returns the question at the current position, if any.
func (s Snapshot) Current() (model.QuestionForCandidate, bool) {
	if s.Position < 0 || s.Position >= len(s.Questions) {
		return model.QuestionForCandidate{}, false
	}
	return s.Questions[s.Position], true
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Flow:             s.flow,
		Phase:            s.phase,
		Position:         s.position,
		Total:            len(s.questions),
		Questions:        make([]model.QuestionForCandidate, len(s.questions)),
		Answers:          make([]*int, len(s.answers)),
		TimeLimitSeconds: s.timeLimit,
	}
	if s.hasParams {
		snap.Category = s.params.Category
		snap.Discipline = s.params.Discipline
		snap.Page = s.params.Page
	}

	for i, q := range s.questions {
		snap.Questions[i] = q.ForCandidate()
	}
	immediate := s.params.Discipline == model.DisciplineImmediate
	if immediate {
		snap.Revealed = make([]*int, len(s.answers))
	}
	for i, a := range s.answers {
		if a == nil {
			continue
		}
		snap.Answers[i] = intPtr(*a)
		snap.Answered++
		if immediate {
			snap.Revealed[i] = intPtr(s.questions[i].CorrectIndex)
		}
	}

	if s.timeLimit > 0 {
		snap.TimeRemainingSeconds = intPtr(s.remaining)
	}
	if s.result != nil {
		r := s.result.Clone()
		snap.Result = &r
	}
	return snap
}
