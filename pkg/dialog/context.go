package dialog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TurnContext carries one inbound activity, the conversation state it
// applies to and the activities produced in reply.
type TurnContext struct {
	ConversationID string
	Activity       Activity
	State          *State

	responses []Activity
}

// NewTurnContext creates the context for a single turn.
func NewTurnContext(conversationID string, in Activity, state *State) *TurnContext {
	if state == nil {
		state = NewState()
	}
	return &TurnContext{
		ConversationID: conversationID,
		Activity:       in,
		State:          state,
	}
}

// Input returns the inbound payload: a selected choice value when present,
// otherwise the typed text.
func (t *TurnContext) Input() string {
	if v := strings.TrimSpace(t.Activity.Value); v != "" {
		return v
	}
	return strings.TrimSpace(t.Activity.Text)
}

// Send queues an outbound activity.
func (t *TurnContext) Send(a Activity) {
	if a.Type == "" {
		a.Type = ActivityMessage
	}
	t.responses = append(t.responses, a)
}

// SendText queues a plain message.
func (t *TurnContext) SendText(text string) {
	t.Send(MessageActivity(text))
}

// Responses returns the activities queued during the turn.
func (t *TurnContext) Responses() []Activity {
	return t.responses
}

// UserID returns the identity bound to the conversation, if any.
func (t *TurnContext) UserID() string {
	return t.State.UserID
}

// SetUserID binds the conversation to a user.
func (t *TurnContext) SetUserID(id string) {
	t.State.UserID = id
}

type outcomeKind int

const (
	outcomePrompt outcomeKind = iota + 1
	outcomeNext
	outcomeBegin
	outcomeReplace
	outcomeEnd
)

// Outcome is what a step asks the engine to do next. Build it with the
// StepContext helpers.
type Outcome struct {
	kind    outcomeKind
	prompt  Prompt
	result  Result
	dialog  string
	options json.RawMessage
	value   json.RawMessage
}

// StepContext is handed to a step while it runs.
type StepContext struct {
	Turn *TurnContext
	// Result is the value produced for this step: a prompt answer, a value
	// carried by Next, or a child dialog's EndResult.
	Result Result

	index int
}

func (sc *StepContext) frame() *Frame {
	return &sc.Turn.State.Stack[sc.index]
}

// Dialog returns the name of the running dialog.
func (sc *StepContext) Dialog() string { return sc.frame().Dialog }

// Step returns the index of the running step.
func (sc *StepContext) Step() int { return sc.frame().Step }

// Depth returns the current stack depth.
func (sc *StepContext) Depth() int { return sc.Turn.State.Depth() }

// Options decodes the dialog's options into v. Missing options leave v
// untouched.
func (sc *StepContext) Options(v any) error {
	raw := sc.frame().Options
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode options of %q: %w", sc.Dialog(), err)
	}
	return nil
}

// SetOptions stores v as the dialog's options so later steps see it.
func (sc *StepContext) SetOptions(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode options of %q: %w", sc.Dialog(), err)
	}
	sc.frame().Options = raw
	return nil
}

// Value returns a scratch value of the running dialog.
func (sc *StepContext) Value(key string) string {
	return sc.frame().Values[key]
}

// SetValue stores a scratch value on the running dialog.
func (sc *StepContext) SetValue(key, value string) {
	f := sc.frame()
	if f.Values == nil {
		f.Values = make(map[string]string)
	}
	f.Values[key] = value
}

// Prompt emits p and suspends until the next inbound activity satisfies it.
func (sc *StepContext) Prompt(p Prompt) (Outcome, error) {
	if p.Kind == "" {
		p.Kind = PromptText
	}
	return Outcome{kind: outcomePrompt, prompt: p}, nil
}

// Next moves to the following step, handing it r.
func (sc *StepContext) Next(r Result) (Outcome, error) {
	return Outcome{kind: outcomeNext, result: r}, nil
}

// BeginDialog pushes the named dialog. The current step resumes into its
// successor with an EndResult once the child ends.
func (sc *StepContext) BeginDialog(name string, options any) (Outcome, error) {
	raw, err := marshalOptional(options)
	if err != nil {
		return Outcome{}, fmt.Errorf("encode options for %q: %w", name, err)
	}
	return Outcome{kind: outcomeBegin, dialog: name, options: raw}, nil
}

// ReplaceDialog discards the running dialog and begins name in its place.
func (sc *StepContext) ReplaceDialog(name string, options any) (Outcome, error) {
	raw, err := marshalOptional(options)
	if err != nil {
		return Outcome{}, fmt.Errorf("encode options for %q: %w", name, err)
	}
	return Outcome{kind: outcomeReplace, dialog: name, options: raw}, nil
}

// EndDialog pops the running dialog and returns value to its parent. A nil
// value ends without a result.
func (sc *StepContext) EndDialog(value any) (Outcome, error) {
	raw, err := marshalOptional(value)
	if err != nil {
		return Outcome{}, fmt.Errorf("encode result of %q: %w", sc.Dialog(), err)
	}
	return Outcome{kind: outcomeEnd, value: raw}, nil
}

// PromptContext is handed to a validator.
type PromptContext struct {
	Turn       *TurnContext
	Prompt     Prompt
	Recognized Result
}

// Text returns the recognized answer as text.
func (pc *PromptContext) Text() string {
	switch r := pc.Recognized.(type) {
	case TextResult:
		return r.Value
	case ChoiceResult:
		return r.Value
	}
	return ""
}

func marshalOptional(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}
