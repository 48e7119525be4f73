package dialog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/amann12/ManageLeave/pkg/events"
)

// Status describes where a turn left the conversation.
type Status int

const (
	// StatusEmpty means there was no dialog to continue.
	StatusEmpty Status = iota
	// StatusWaiting means the top dialog is suspended on a prompt.
	StatusWaiting
	// StatusComplete means the last dialog ended and the stack is empty.
	StatusComplete
)

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusComplete:
		return "complete"
	default:
		return "empty"
	}
}

// TurnResult is returned when the engine yields back to the host.
type TurnResult struct {
	Status Status
	// Result is the value the outermost dialog ended with, if it ended.
	Result json.RawMessage
}

// Engine runs dialogs from a DialogSet against a conversation's stack.
type Engine struct {
	set       *DialogSet
	root      string
	publisher *events.Publisher
}

// NewEngine creates an engine that begins root on a fresh conversation.
func NewEngine(set *DialogSet, root string, pub *events.Publisher) (*Engine, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	if _, ok := set.Dialog(root); !ok {
		return nil, fmt.Errorf("root dialog %q is not registered", root)
	}
	return &Engine{set: set, root: root, publisher: pub}, nil
}

// Run handles one inbound activity: it continues the suspended dialog or,
// when the conversation has no active dialog, begins the root dialog.
func (e *Engine) Run(ctx context.Context, turn *TurnContext) (TurnResult, error) {
	if turn.State.Active() {
		return e.Continue(ctx, turn)
	}
	return e.Begin(ctx, turn, e.root, nil)
}

// Begin pushes the named dialog and runs its first step immediately.
func (e *Engine) Begin(ctx context.Context, turn *TurnContext, name string, options any) (TurnResult, error) {
	raw, err := marshalOptional(options)
	if err != nil {
		return TurnResult{}, fmt.Errorf("encode options for %q: %w", name, err)
	}
	return e.drive(ctx, turn, Outcome{kind: outcomeBegin, dialog: name, options: raw})
}

// Continue resumes the top dialog with the turn's inbound activity.
func (e *Engine) Continue(ctx context.Context, turn *TurnContext) (TurnResult, error) {
	top := turn.State.Top()
	if top == nil {
		return TurnResult{Status: StatusEmpty}, nil
	}
	if _, err := e.checkFrame(top); err != nil {
		return TurnResult{}, err
	}
	if top.Pending == nil {
		return TurnResult{}, configErrorf("dialog %q step %d: continued without a pending prompt", top.Dialog, top.Step)
	}

	prompt := *top.Pending
	recognized, ok := recognize(&prompt, turn.Input())
	if !ok {
		e.reprompt(ctx, turn, top)
		return TurnResult{Status: StatusWaiting}, nil
	}

	if prompt.Validator != "" {
		validate, ok := e.set.Validator(prompt.Validator)
		if !ok {
			return TurnResult{}, configErrorf("dialog %q step %d: validator %q is not registered", top.Dialog, top.Step, prompt.Validator)
		}
		valid, err := validate(ctx, &PromptContext{Turn: turn, Prompt: prompt, Recognized: recognized})
		if err != nil {
			return TurnResult{}, fmt.Errorf("validate %q: %w", prompt.Validator, err)
		}
		if !valid {
			e.reprompt(ctx, turn, turn.State.Top())
			return TurnResult{Status: StatusWaiting}, nil
		}
	}

	turn.State.Top().Pending = nil
	return e.drive(ctx, turn, Outcome{kind: outcomeNext, result: recognized})
}

// drive applies an outcome to the stack and keeps running steps until one
// suspends or the stack empties.
func (e *Engine) drive(ctx context.Context, turn *TurnContext, out Outcome) (TurnResult, error) {
	state := turn.State
	for {
		var result Result

		switch out.kind {
		case outcomePrompt:
			top := state.Top()
			p := out.prompt
			top.Pending = &p
			e.issue(ctx, turn, top, false)
			return TurnResult{Status: StatusWaiting}, nil

		case outcomeNext:
			top := state.Top()
			w, err := e.checkFrame(top)
			if err != nil {
				return TurnResult{}, err
			}
			top.Step++
			if top.Step >= len(w.Steps) {
				value, err := resultValue(out.result)
				if err != nil {
					return TurnResult{}, err
				}
				out = Outcome{kind: outcomeEnd, value: value}
				continue
			}
			result = out.result

		case outcomeBegin:
			if _, ok := e.set.Dialog(out.dialog); !ok {
				return TurnResult{}, configErrorf("dialog %q is not registered", out.dialog)
			}
			state.push(Frame{Dialog: out.dialog, Options: out.options})
			e.emitDialog(ctx, turn, events.DialogBegun, state.Top())

		case outcomeReplace:
			if _, ok := e.set.Dialog(out.dialog); !ok {
				return TurnResult{}, configErrorf("dialog %q is not registered", out.dialog)
			}
			state.replaceTop(Frame{Dialog: out.dialog, Options: out.options})
			e.emitDialog(ctx, turn, events.DialogReplaced, state.Top())

		case outcomeEnd:
			ended := state.pop()
			e.emitDialog(ctx, turn, events.DialogEnded, &ended)
			if !state.Active() {
				return TurnResult{Status: StatusComplete, Result: out.value}, nil
			}
			out = Outcome{kind: outcomeNext, result: EndResult{Value: out.value}}
			continue

		default:
			return TurnResult{}, configErrorf("step returned an empty outcome")
		}

		next, err := e.runStep(ctx, turn, result)
		if err != nil {
			return TurnResult{}, err
		}
		out = next
	}
}

// runStep executes the top frame's current step.
func (e *Engine) runStep(ctx context.Context, turn *TurnContext, result Result) (Outcome, error) {
	top := turn.State.Top()
	w, err := e.checkFrame(top)
	if err != nil {
		return Outcome{}, err
	}
	sc := &StepContext{Turn: turn, Result: result, index: turn.State.Depth() - 1}
	return w.Steps[top.Step](ctx, sc)
}

// checkFrame resolves the frame's dialog and verifies its cursor.
func (e *Engine) checkFrame(f *Frame) (*Waterfall, error) {
	w, ok := e.set.Dialog(f.Dialog)
	if !ok {
		return nil, configErrorf("dialog %q is not registered", f.Dialog)
	}
	if f.Step < 0 || f.Step >= len(w.Steps) {
		return nil, configErrorf("dialog %q: step %d out of range (%d steps)", f.Dialog, f.Step, len(w.Steps))
	}
	return w, nil
}

func (e *Engine) reprompt(ctx context.Context, turn *TurnContext, f *Frame) {
	e.issue(ctx, turn, f, true)
}

// issue renders the frame's pending prompt as an outbound activity.
func (e *Engine) issue(ctx context.Context, turn *TurnContext, f *Frame, retry bool) {
	p := f.Pending
	text := p.Text
	if retry && p.RetryText != "" {
		text = p.RetryText
	}

	a := Activity{Type: ActivityMessage, Text: text, InputHint: InputExpecting}
	switch p.Kind {
	case PromptChoice:
		for _, c := range p.Choices {
			a.Choices = append(a.Choices, Choice{Title: c, Value: c})
		}
	case PromptConfirm:
		a.Choices = []Choice{{Title: "Yes", Value: "Yes"}, {Title: "No", Value: "No"}}
	}
	turn.Send(a)

	if e.publisher != nil {
		et := events.PromptIssued
		if retry {
			et = events.PromptRejected
		}
		_ = e.publisher.Emit(ctx, et, turn.ConversationID, &events.PromptData{
			Dialog: f.Dialog,
			Step:   f.Step,
			Kind:   string(p.Kind),
			Retry:  retry,
		})
	}
}

func (e *Engine) emitDialog(ctx context.Context, turn *TurnContext, et events.EventType, f *Frame) {
	if e.publisher == nil {
		return
	}
	_ = e.publisher.Emit(ctx, et, turn.ConversationID, &events.DialogData{
		Dialog: f.Dialog,
		Step:   f.Step,
		Depth:  turn.State.Depth(),
	})
}
