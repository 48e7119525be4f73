package dialog

import (
	"encoding/json"
	"time"
)

// DefaultMaxHistory is the maximum number of stack records before eviction.
const DefaultMaxHistory = 200

// Stack operations recorded in State.History.
const (
	OpBegin   = "begin"
	OpEnd     = "end"
	OpReplace = "replace"
)

// Frame is one entry of the dialog stack: which dialog is active at this
// level, which step to resume into, the options it was begun with and its
// scratch values.
type Frame struct {
	Dialog  string            `json:"dialog"`
	Step    int               `json:"step"`
	Options json.RawMessage   `json:"options,omitempty"`
	Values  map[string]string `json:"values,omitempty"`
	Pending *Prompt           `json:"pending,omitempty"`
}

// StackRecord records a stack change for audit purposes.
type StackRecord struct {
	Op        string    `json:"op"`
	Dialog    string    `json:"dialog"`
	Depth     int       `json:"depth"`
	Timestamp time.Time `json:"timestamp"`
}

// State is the persisted conversation state. It is owned by a single turn
// at a time, so it carries no lock; the host serializes turns per
// conversation.
type State struct {
	Stack   []Frame       `json:"stack"`
	UserID  string        `json:"user_id,omitempty"`
	History []StackRecord `json:"history,omitempty"`
}

// NewState returns an empty conversation state.
func NewState() *State {
	return &State{}
}

// DecodeState restores a state from its persisted form. An empty blob
// yields a fresh state.
func DecodeState(blob []byte) (*State, error) {
	s := NewState()
	if len(blob) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(blob, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Encode returns the persisted form of the state.
func (s *State) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// Active reports whether a dialog is in progress.
func (s *State) Active() bool {
	return len(s.Stack) > 0
}

// Depth returns the number of frames on the stack.
func (s *State) Depth() int {
	return len(s.Stack)
}

// Top returns the innermost frame, or nil when the stack is empty. The
// pointer is invalidated by the next push.
func (s *State) Top() *Frame {
	if len(s.Stack) == 0 {
		return nil
	}
	return &s.Stack[len(s.Stack)-1]
}

func (s *State) push(f Frame) {
	s.Stack = append(s.Stack, f)
	s.record(OpBegin, f.Dialog)
}

func (s *State) pop() Frame {
	f := s.Stack[len(s.Stack)-1]
	s.Stack = s.Stack[:len(s.Stack)-1]
	s.record(OpEnd, f.Dialog)
	return f
}

func (s *State) replaceTop(f Frame) {
	s.Stack[len(s.Stack)-1] = f
	s.record(OpReplace, f.Dialog)
}

// record appends to the audit history, evicting the oldest 10% of entries
// when the cap is reached.
func (s *State) record(op, dialog string) {
	if len(s.History) >= DefaultMaxHistory {
		evict := DefaultMaxHistory / 10
		if evict < 1 {
			evict = 1
		}
		s.History = s.History[evict:]
	}
	s.History = append(s.History, StackRecord{
		Op:        op,
		Dialog:    dialog,
		Depth:     len(s.Stack),
		Timestamp: time.Now().UTC(),
	})
}

// Reset clears the stack and identity, starting a new conversation.
func (s *State) Reset() {
	s.Stack = nil
	s.UserID = ""
	s.History = nil
}
