package events

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of event flowing through the system.
type EventType string

const (
	DialogBegun       EventType = "dialog.begin"
	DialogEnded       EventType = "dialog.end"
	DialogReplaced    EventType = "dialog.replace"
	PromptIssued      EventType = "prompt.issued"
	PromptRejected    EventType = "prompt.rejected"
	ClassifierResult  EventType = "classifier.result"
	ClassifierError   EventType = "classifier.error"
	UserRegistered    EventType = "user.registered"
	UserVerified      EventType = "user.verified"
	LeaveApplied      EventType = "leave.applied"
	LeaveDeleted      EventType = "leave.deleted"
	TurnFailed        EventType = "turn.failed"
	ConversationReset EventType = "conversation.reset"
)

// Envelope is the standard event wrapper published to the event bus.
type Envelope struct {
	ID             string            `json:"id"`
	Type           EventType         `json:"type"`
	Source         string            `json:"source"`
	ConversationID string            `json:"conversation_id"`
	Timestamp      time.Time         `json:"timestamp"`
	Data           json.RawMessage   `json:"data"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// DialogData is the payload for dialog.begin, dialog.end and dialog.replace.
type DialogData struct {
	Dialog string `json:"dialog"`
	Step   int    `json:"step"`
	Depth  int    `json:"depth"`
}

// PromptData is the payload for prompt.issued and prompt.rejected.
type PromptData struct {
	Dialog string `json:"dialog"`
	Step   int    `json:"step"`
	Kind   string `json:"kind"`
	Retry  bool   `json:"retry,omitempty"`
}

// ClassifierResultData is the payload for classifier.result events.
type ClassifierResultData struct {
	Endpoint   string  `json:"endpoint"`
	StatusCode int     `json:"status_code"`
	TopIntent  string  `json:"top_intent"`
	Score      float64 `json:"score"`
}

// ClassifierErrorData is the payload for classifier.error events.
type ClassifierErrorData struct {
	Endpoint string `json:"endpoint"`
	Error    string `json:"error"`
}

// UserData is the payload for user.registered and user.verified events.
type UserData struct {
	UserID string `json:"user_id"`
}

// LeaveData is the payload for leave.applied and leave.deleted events.
type LeaveData struct {
	UserID    string `json:"user_id"`
	LeaveID   string `json:"leave_id"`
	LeaveType string `json:"leave_type,omitempty"`
	LeaveDate string `json:"leave_date,omitempty"`
}

// TurnFailedData is the payload for turn.failed events.
type TurnFailedData struct {
	Error string `json:"error"`
}
