package websocket

import "github.com/nepallicenseprep/likhit-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer   Action = "answer"
	ActionNavigate Action = "navigate"
	ActionJump     Action = "jump"
	ActionFinish   Action = "finish"
	ActionPing     Action = "ping"
)

// RequestEnvelope carries every client action; fields unused by an action
// are left empty.
type RequestEnvelope struct {
	Action      Action `json:"action"`
	ChoiceIndex *int   `json:"choice_index,omitempty"`
	Direction   string `json:"direction,omitempty"`
	Index       *int   `json:"index,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState    Event = "state"
	EventFeedback Event = "feedback"
	EventFinished Event = "finished"
	EventError    Event = "error"
	EventPong     Event = "pong"
)

// StateResponse is pushed after every action and once per second while a
// timed session runs.
type StateResponse struct {
	Event Event `json:"event"`
	State any   `json:"state"`
}

// FeedbackResponse reveals the correctness of an immediate-discipline answer.
type FeedbackResponse struct {
	Event    Event `json:"event"`
	Feedback any   `json:"feedback"`
}

// FinishedResponse carries the final result. The server closes the stream
// after sending it.
type FinishedResponse struct {
	Event  Event               `json:"event"`
	Result model.SessionResult `json:"result"`
}

type ErrorResponse struct {
	Event   Event  `json:"event"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
