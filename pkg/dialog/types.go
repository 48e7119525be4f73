package dialog

import (
	"encoding/json"
	"fmt"
)

// Activity types and input hints understood by the turn transport.
const (
	ActivityMessage = "message"

	InputExpecting = "expectingInput"
	InputIgnoring  = "ignoringInput"
)

// Activity is one message exchanged over the turn transport. Inbound
// activities carry free text or the Value of a selected choice.
type Activity struct {
	Type      string   `json:"type"`
	Text      string   `json:"text,omitempty"`
	Value     string   `json:"value,omitempty"`
	Choices   []Choice `json:"choices,omitempty"`
	InputHint string   `json:"input_hint,omitempty"`
}

// Choice is a selectable option rendered with a prompt. Value is the
// opaque payload sent back when the option is picked.
type Choice struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// MessageActivity returns an outbound message that expects no reply.
func MessageActivity(text string) Activity {
	return Activity{Type: ActivityMessage, Text: text, InputHint: InputIgnoring}
}

// PromptKind selects how inbound input is recognized for a prompt.
type PromptKind string

const (
	PromptText    PromptKind = "text"
	PromptChoice  PromptKind = "choice"
	PromptConfirm PromptKind = "confirm"
)

// Prompt describes what a suspended step is waiting for. It is stored on
// the frame so it survives between turns.
type Prompt struct {
	Kind      PromptKind `json:"kind"`
	Text      string     `json:"text,omitempty"`
	RetryText string     `json:"retry_text,omitempty"`
	Choices   []string   `json:"choices,omitempty"`
	Validator string     `json:"validator,omitempty"`
}

// Result is the value handed to a step. It is one of TextResult,
// ChoiceResult, ConfirmResult or EndResult, or nil when the previous step
// carried nothing.
type Result interface {
	isResult()
}

// TextResult is produced by a text prompt or carried by Next.
type TextResult struct {
	Value string
}

// ChoiceResult is produced by a choice prompt.
type ChoiceResult struct {
	Index int
	Value string
}

// ConfirmResult is produced by a confirm prompt.
type ConfirmResult struct {
	Confirmed bool
}

// EndResult is delivered to a parent step when a child dialog ends.
// A nil Value means the child ended without a result.
type EndResult struct {
	Value json.RawMessage
}

func (TextResult) isResult()    {}
func (ChoiceResult) isResult()  {}
func (ConfirmResult) isResult() {}
func (EndResult) isResult()     {}

// Present reports whether the child dialog returned a value.
func (r EndResult) Present() bool {
	return len(r.Value) > 0 && string(r.Value) != "null"
}

// Decode unmarshals the child's value into v.
func (r EndResult) Decode(v any) error {
	if !r.Present() {
		return fmt.Errorf("end result is absent")
	}
	return json.Unmarshal(r.Value, v)
}

// resultValue converts a carried step result into the value a dialog ends
// with when it runs past its last step.
func resultValue(r Result) (json.RawMessage, error) {
	switch v := r.(type) {
	case nil:
		return nil, nil
	case EndResult:
		return v.Value, nil
	case TextResult:
		return json.Marshal(v.Value)
	case ChoiceResult:
		return json.Marshal(v.Value)
	case ConfirmResult:
		return json.Marshal(v.Confirmed)
	default:
		return nil, configErrorf("unsupported result type %T", r)
	}
}
