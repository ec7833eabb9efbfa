package ws

import "encoding/json"

// MessageType constants for the session WebSocket protocol.
const (
	// Client -> Server
	TypeStartExam    = "start_exam"
	TypeSelectOption = "select_option"
	TypeGotoQuestion = "goto_question"
	TypeSubmitExam   = "submit_exam"
	TypeRestartExam  = "restart_exam"
	TypePing         = "ping"

	// Server -> Client
	TypeSessionState  = "session_state"
	TypeExamTick      = "exam_tick"
	TypeExamSubmitted = "exam_submitted"
	TypeError         = "error"
	TypePong          = "pong"
)

// Message wraps every WebSocket payload with its type.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client messages (incoming)

type SelectOptionPayload struct {
	QuestionID int    `json:"question_id"`
	Option     string `json:"option"`
}

type GotoQuestionPayload struct {
	Index int `json:"index"`
}

// Server messages (outgoing)

// OptionView is a client-safe option (never carries correctness).
type OptionView struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// QuestionView is a client-safe question: prompt and options only, plus the
// multi-answer flag the renderer needs to pick checkboxes over radios.
type QuestionView struct {
	ID          int          `json:"id"`
	Text        string       `json:"text"`
	Options     []OptionView `json:"options"`
	MultiAnswer bool         `json:"multi_answer"`
}

// SessionStatePayload is the full redraw snapshot sent after every
// state-changing command.
type SessionStatePayload struct {
	SessionID        string              `json:"session_id"`
	ExamID           string              `json:"exam_id"`
	Status           string              `json:"status"`
	CurrentIndex     int                 `json:"current_index"`
	RemainingSeconds int                 `json:"remaining_seconds"`
	QuestionCount    int                 `json:"question_count"`
	Questions        []QuestionView      `json:"questions,omitempty"`
	Answers          map[string][]string `json:"answers,omitempty"` // question id -> selected letters
}

type ExamTickPayload struct {
	SessionID        string `json:"session_id"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

// ExamSubmittedPayload carries the scoring report; the report shape is owned
// by the exam package and serialized as-is.
type ExamSubmittedPayload struct {
	SessionID string          `json:"session_id"`
	Expired   bool            `json:"expired"` // countdown reached zero
	Report    json.RawMessage `json:"report"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
