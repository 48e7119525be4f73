package dialog

import (
	"context"
	"errors"
	"testing"
)

type echoOptions struct {
	Name string `json:"name"`
}

// sampleSet builds a parent dialog that asks a question, begins a child
// dialog, and reports the child's result.
func sampleSet(depths map[string]int) *DialogSet {
	set := NewDialogSet()
	set.Add("parent",
		func(ctx context.Context, sc *StepContext) (Outcome, error) {
			return sc.Prompt(Prompt{Kind: PromptText, Text: "What is your name?"})
		},
		func(ctx context.Context, sc *StepContext) (Outcome, error) {
			r, ok := sc.Result.(TextResult)
			if !ok {
				return Outcome{}, UnexpectedResult(sc.Dialog(), sc.Step(), sc.Result)
			}
			depths["before-child"] = sc.Depth()
			return sc.BeginDialog("child", echoOptions{Name: r.Value})
		},
		func(ctx context.Context, sc *StepContext) (Outcome, error) {
			depths["after-child"] = sc.Depth()
			r, ok := sc.Result.(EndResult)
			if !ok {
				return Outcome{}, UnexpectedResult(sc.Dialog(), sc.Step(), sc.Result)
			}
			if r.Present() {
				var opts echoOptions
				if err := r.Decode(&opts); err != nil {
					return Outcome{}, err
				}
				sc.Turn.SendText("done: " + opts.Name)
			} else {
				sc.Turn.SendText("cancelled")
			}
			return sc.EndDialog(nil)
		},
	)
	set.Add("child",
		func(ctx context.Context, sc *StepContext) (Outcome, error) {
			var opts echoOptions
			if err := sc.Options(&opts); err != nil {
				return Outcome{}, err
			}
			return sc.Prompt(Prompt{Kind: PromptConfirm, Text: "Is " + opts.Name + " right?"})
		},
		func(ctx context.Context, sc *StepContext) (Outcome, error) {
			r, ok := sc.Result.(ConfirmResult)
			if !ok {
				return Outcome{}, UnexpectedResult(sc.Dialog(), sc.Step(), sc.Result)
			}
			if !r.Confirmed {
				return sc.EndDialog(nil)
			}
			var opts echoOptions
			if err := sc.Options(&opts); err != nil {
				return Outcome{}, err
			}
			return sc.EndDialog(opts)
		},
	)
	return set
}

func newTestEngine(t *testing.T, set *DialogSet, root string) *Engine {
	t.Helper()
	e, err := NewEngine(set, root, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

// say runs one turn and returns the outbound texts.
func say(t *testing.T, e *Engine, state *State, text string) (TurnResult, []string) {
	t.Helper()
	turn := NewTurnContext("conv-1", Activity{Type: ActivityMessage, Text: text}, state)
	res, err := e.Run(t.Context(), turn)
	if err != nil {
		t.Fatalf("Run(%q): %v", text, err)
	}
	var texts []string
	for _, a := range turn.Responses() {
		texts = append(texts, a.Text)
	}
	return res, texts
}

func TestEngineNestedDialogRoundTrip(t *testing.T) {
	depths := map[string]int{}
	e := newTestEngine(t, sampleSet(depths), "parent")
	state := NewState()

	res, out := say(t, e, state, "hi")
	if res.Status != StatusWaiting {
		t.Fatalf("status = %v, want waiting", res.Status)
	}
	if len(out) != 1 || out[0] != "What is your name?" {
		t.Fatalf("first turn output = %q", out)
	}

	_, out = say(t, e, state, "Ada")
	if len(out) != 1 || out[0] != "Is Ada right?" {
		t.Fatalf("second turn output = %q", out)
	}
	if state.Depth() != 2 {
		t.Errorf("depth while child waits = %d, want 2", state.Depth())
	}

	res, out = say(t, e, state, "yes")
	if res.Status != StatusComplete {
		t.Errorf("status = %v, want complete", res.Status)
	}
	if len(out) != 1 || out[0] != "done: Ada" {
		t.Errorf("final output = %q", out)
	}
	if depths["before-child"] != depths["after-child"] {
		t.Errorf("depth before child = %d, after = %d", depths["before-child"], depths["after-child"])
	}
	if state.Active() {
		t.Error("expected empty stack after root ended")
	}
}

func TestEngineChildEndsWithoutResult(t *testing.T) {
	e := newTestEngine(t, sampleSet(map[string]int{}), "parent")
	state := NewState()

	say(t, e, state, "hi")
	say(t, e, state, "Ada")
	_, out := say(t, e, state, "no")
	if len(out) != 1 || out[0] != "cancelled" {
		t.Errorf("output = %q, want [cancelled]", out)
	}
}

func TestEngineUnrecognizedInputRepromptsWithoutAdvancing(t *testing.T) {
	e := newTestEngine(t, sampleSet(map[string]int{}), "parent")
	state := NewState()

	say(t, e, state, "hi")
	say(t, e, state, "Ada")
	before := *state.Top()

	res, out := say(t, e, state, "maybe later")
	if res.Status != StatusWaiting {
		t.Errorf("status = %v, want waiting", res.Status)
	}
	if len(out) != 1 || out[0] != "Is Ada right?" {
		t.Errorf("reprompt output = %q", out)
	}
	if state.Top().Step != before.Step || state.Top().Dialog != before.Dialog {
		t.Errorf("cursor moved from %s/%d to %s/%d", before.Dialog, before.Step, state.Top().Dialog, state.Top().Step)
	}
}

func TestEngineStateSurvivesEncoding(t *testing.T) {
	e := newTestEngine(t, sampleSet(map[string]int{}), "parent")
	state := NewState()
	say(t, e, state, "hi")
	say(t, e, state, "Grace")

	blob, err := state.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	restored, err := DecodeState(blob)
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}

	_, out := say(t, e, restored, "yes")
	if len(out) != 1 || out[0] != "done: Grace" {
		t.Errorf("output after restore = %q", out)
	}
}

func TestEngineValidatorRejectsAndAccepts(t *testing.T) {
	set := NewDialogSet()
	set.AddValidator("even", func(ctx context.Context, pc *PromptContext) (bool, error) {
		if len(pc.Text())%2 != 0 {
			pc.Turn.SendText("odd length")
			return false, nil
		}
		pc.Turn.SetUserID(pc.Text())
		return true, nil
	})
	set.Add("root",
		func(ctx context.Context, sc *StepContext) (Outcome, error) {
			return sc.Prompt(Prompt{Text: "code?", RetryText: "code again?", Validator: "even"})
		},
		func(ctx context.Context, sc *StepContext) (Outcome, error) {
			sc.Turn.SendText("accepted")
			return sc.Prompt(Prompt{Text: "anything else?"})
		},
	)
	e := newTestEngine(t, set, "root")
	state := NewState()

	say(t, e, state, "start")
	_, out := say(t, e, state, "abc")
	if len(out) != 2 || out[0] != "odd length" || out[1] != "code again?" {
		t.Errorf("rejected output = %q", out)
	}
	if state.Top().Step != 0 {
		t.Errorf("step = %d, want 0", state.Top().Step)
	}
	if state.UserID != "" {
		t.Errorf("user id = %q, want empty", state.UserID)
	}

	_, out = say(t, e, state, "abcd")
	if len(out) != 2 || out[0] != "accepted" {
		t.Errorf("accepted output = %q", out)
	}
	if state.UserID != "abcd" {
		t.Errorf("user id = %q, want %q", state.UserID, "abcd")
	}
}

func TestEngineValidatorErrorPropagates(t *testing.T) {
	boom := errors.New("registry down")
	set := NewDialogSet()
	set.AddValidator("fails", func(ctx context.Context, pc *PromptContext) (bool, error) {
		return false, boom
	})
	set.Add("root", func(ctx context.Context, sc *StepContext) (Outcome, error) {
		return sc.Prompt(Prompt{Text: "id?", Validator: "fails"})
	})
	e := newTestEngine(t, set, "root")
	state := NewState()
	say(t, e, state, "start")

	turn := NewTurnContext("conv-1", Activity{Text: "X"}, state)
	if _, err := e.Run(t.Context(), turn); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestEngineReplaceLoops(t *testing.T) {
	set := NewDialogSet()
	set.Add("loop",
		func(ctx context.Context, sc *StepContext) (Outcome, error) {
			text := "first"
			if err := sc.Options(&text); err != nil {
				return Outcome{}, err
			}
			return sc.Prompt(Prompt{Text: text})
		},
		func(ctx context.Context, sc *StepContext) (Outcome, error) {
			return sc.ReplaceDialog("loop", "again")
		},
	)
	e := newTestEngine(t, set, "loop")
	state := NewState()

	_, out := say(t, e, state, "hi")
	if out[0] != "first" {
		t.Errorf("first prompt = %q", out[0])
	}
	for i := 0; i < 3; i++ {
		_, out = say(t, e, state, "more")
		if len(out) != 1 || out[0] != "again" {
			t.Fatalf("loop %d output = %q", i, out)
		}
		if state.Depth() != 1 {
			t.Fatalf("loop %d depth = %d, want 1", i, state.Depth())
		}
	}
}

func TestEngineNextPastLastStepEndsDialog(t *testing.T) {
	set := NewDialogSet()
	set.Add("root",
		func(ctx context.Context, sc *StepContext) (Outcome, error) {
			return sc.BeginDialog("inner", nil)
		},
		func(ctx context.Context, sc *StepContext) (Outcome, error) {
			r := sc.Result.(EndResult)
			var v string
			if err := r.Decode(&v); err != nil {
				return Outcome{}, err
			}
			sc.Turn.SendText("inner said " + v)
			return sc.EndDialog(v)
		},
	)
	set.Add("inner", func(ctx context.Context, sc *StepContext) (Outcome, error) {
		return sc.Next(TextResult{Value: "hello"})
	})
	e := newTestEngine(t, set, "root")

	res, out := say(t, e, NewState(), "go")
	if res.Status != StatusComplete {
		t.Errorf("status = %v, want complete", res.Status)
	}
	if len(out) != 1 || out[0] != "inner said hello" {
		t.Errorf("output = %q", out)
	}
	if string(res.Result) != `"hello"` {
		t.Errorf("result = %s, want %q", res.Result, "hello")
	}
}

func TestEngineConfigurationErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(set *DialogSet, state *State)
	}{
		{
			name: "unknown child dialog",
			setup: func(set *DialogSet, state *State) {
				set.Add("root", func(ctx context.Context, sc *StepContext) (Outcome, error) {
					return sc.BeginDialog("missing", nil)
				})
			},
		},
		{
			name: "cursor out of range",
			setup: func(set *DialogSet, state *State) {
				set.Add("root", func(ctx context.Context, sc *StepContext) (Outcome, error) {
					return sc.Prompt(Prompt{Text: "x"})
				})
				state.Stack = []Frame{{Dialog: "root", Step: 5, Pending: &Prompt{Kind: PromptText}}}
			},
		},
		{
			name: "unknown frame dialog",
			setup: func(set *DialogSet, state *State) {
				set.Add("root", func(ctx context.Context, sc *StepContext) (Outcome, error) {
					return sc.Prompt(Prompt{Text: "x"})
				})
				state.Stack = []Frame{{Dialog: "gone", Pending: &Prompt{Kind: PromptText}}}
			},
		},
		{
			name: "no pending prompt",
			setup: func(set *DialogSet, state *State) {
				set.Add("root", func(ctx context.Context, sc *StepContext) (Outcome, error) {
					return sc.Prompt(Prompt{Text: "x"})
				})
				state.Stack = []Frame{{Dialog: "root"}}
			},
		},
		{
			name: "unknown validator",
			setup: func(set *DialogSet, state *State) {
				set.Add("root", func(ctx context.Context, sc *StepContext) (Outcome, error) {
					return sc.Prompt(Prompt{Text: "x", Validator: "nope"})
				})
				state.Stack = []Frame{{Dialog: "root", Pending: &Prompt{Kind: PromptText, Validator: "nope"}}}
			},
		},
		{
			name: "empty outcome",
			setup: func(set *DialogSet, state *State) {
				set.Add("root", func(ctx context.Context, sc *StepContext) (Outcome, error) {
					return Outcome{}, nil
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := NewDialogSet()
			state := NewState()
			tt.setup(set, state)
			e := newTestEngine(t, set, "root")

			turn := NewTurnContext("conv-1", Activity{Text: "input"}, state)
			_, err := e.Run(t.Context(), turn)
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("err = %v, want configuration error", err)
			}
		})
	}
}

func TestDialogSetValidate(t *testing.T) {
	noop := func(ctx context.Context, sc *StepContext) (Outcome, error) { return sc.EndDialog(nil) }

	tests := []struct {
		name    string
		build   func() *DialogSet
		wantErr bool
	}{
		{"valid", func() *DialogSet { return NewDialogSet().Add("a", noop) }, false},
		{"no steps", func() *DialogSet { return NewDialogSet().Add("a") }, true},
		{"nil step", func() *DialogSet { return NewDialogSet().Add("a", noop, nil) }, true},
		{"duplicate", func() *DialogSet { return NewDialogSet().Add("a", noop).Add("a", noop) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build().Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if _, err := NewEngine(NewDialogSet().Add("a", noop), "b", nil); err == nil {
		t.Error("expected error for unregistered root dialog")
	}
}

func TestStateHistoryEviction(t *testing.T) {
	s := NewState()
	for i := 0; i < DefaultMaxHistory+5; i++ {
		s.push(Frame{Dialog: "d"})
		s.pop()
	}
	if len(s.History) > DefaultMaxHistory {
		t.Errorf("history length = %d, want <= %d", len(s.History), DefaultMaxHistory)
	}
}
