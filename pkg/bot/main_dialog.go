package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/amann12/ManageLeave/pkg/catalog"
	"github.com/amann12/ManageLeave/pkg/classifier"
	"github.com/amann12/ManageLeave/pkg/dialog"
	"github.com/amann12/ManageLeave/pkg/events"
)

const valueUserType = "user_type"

type mainDialog struct {
	deps Deps
}

// checkUser asks for the user type unless the conversation already has an
// identity.
func (d *mainDialog) checkUser(_ context.Context, sc *dialog.StepContext) (dialog.Outcome, error) {
	if sc.Turn.UserID() != "" {
		return sc.Next(nil)
	}
	m := d.deps.messages()
	sc.Turn.SendText(m.UserTypePrompt)
	return sc.Prompt(dialog.Prompt{
		Kind:    dialog.PromptChoice,
		Choices: []string{m.ExistingUser, m.NewUser},
	})
}

// resolveUserID validates an existing id or mints a new one.
func (d *mainDialog) resolveUserID(ctx context.Context, sc *dialog.StepContext) (dialog.Outcome, error) {
	if sc.Turn.UserID() != "" {
		return sc.Next(nil)
	}
	choice, ok := sc.Result.(dialog.ChoiceResult)
	if !ok {
		return dialog.Outcome{}, dialog.UnexpectedResult(sc.Dialog(), sc.Step(), sc.Result)
	}
	sc.SetValue(valueUserType, choice.Value)

	m := d.deps.messages()
	if choice.Index == 0 {
		return sc.Prompt(dialog.Prompt{
			Kind:      dialog.PromptText,
			Text:      m.UserIDPrompt,
			Validator: UserIDValidatorName,
		})
	}

	id, err := d.deps.IDs.NewUserID(ctx, d.deps.Users)
	if err != nil {
		return dialog.Outcome{}, fmt.Errorf("generate user id: %w", err)
	}
	if err := d.deps.Users.Register(ctx, id); err != nil {
		return dialog.Outcome{}, fmt.Errorf("register user %s: %w", id, err)
	}
	sc.Turn.SetUserID(id)
	d.deps.emit(ctx, sc.Turn, events.UserRegistered, &events.UserData{UserID: id})

	sc.Turn.SendText(m.NoteUserID)
	sc.Turn.SendText(id)
	return sc.Next(nil)
}

func (d *mainDialog) validateUserID(ctx context.Context, pc *dialog.PromptContext) (bool, error) {
	id := strings.TrimSpace(pc.Text())
	m := d.deps.messages()

	pc.Turn.SendText(m.Validating)
	found, err := d.deps.Users.Exists(ctx, id)
	if err != nil {
		return false, fmt.Errorf("look up user id: %w", err)
	}
	if !found {
		pc.Turn.SendText(m.UserIDNotFound)
		return false, nil
	}

	pc.Turn.SendText(m.Verified)
	pc.Turn.SetUserID(id)
	d.deps.emit(ctx, pc.Turn, events.UserVerified, &events.UserData{UserID: id})
	return true, nil
}

// intro asks what the user wants, or explains that intent recognition is
// unavailable.
func (d *mainDialog) intro(_ context.Context, sc *dialog.StepContext) (dialog.Outcome, error) {
	m := d.deps.messages()
	if !d.deps.Recognizer.Configured() {
		sc.Turn.SendText(m.ClassifierNotConfigured)
		return sc.Next(nil)
	}

	var opts mainOptions
	if err := sc.Options(&opts); err != nil {
		return dialog.Outcome{}, err
	}
	text := opts.Message
	if text == "" {
		example := d.deps.Now().AddDate(0, 0, 7).Format(m.DateLayout)
		rendered, err := catalog.Render(m.Intro, map[string]string{"Date": example})
		if err != nil {
			return dialog.Outcome{}, err
		}
		text = rendered
	}
	return sc.Prompt(dialog.Prompt{Kind: dialog.PromptText, Text: text})
}

// act classifies the answer to the intro and dispatches on the top intent.
func (d *mainDialog) act(ctx context.Context, sc *dialog.StepContext) (dialog.Outcome, error) {
	if !d.deps.Recognizer.Configured() {
		return sc.BeginDialog(RequestLeaveDialogName, LeaveDetails{})
	}

	answer, ok := sc.Result.(dialog.TextResult)
	if !ok {
		return dialog.Outcome{}, dialog.UnexpectedResult(sc.Dialog(), sc.Step(), sc.Result)
	}
	u, err := d.deps.Recognizer.Classify(ctx, answer.Value)
	if err != nil {
		return dialog.Outcome{}, fmt.Errorf("classify utterance: %w", err)
	}

	m := d.deps.messages()
	top, _ := u.TopIntent()
	data := map[string]string{"Intent": string(top)}

	switch top {
	case classifier.RequestLeave:
		if err := say(sc.Turn, m.RequestLeaveAck, data); err != nil {
			return dialog.Outcome{}, err
		}
		details := LeaveDetails{}
		details.LeaveType, _ = u.LeaveType()
		details.LeaveDate, _ = u.LeaveDate()
		return sc.BeginDialog(RequestLeaveDialogName, details)
	case classifier.CancelLeave:
		err = say(sc.Turn, m.CancelLeaveAck, data)
	case classifier.CheckBalance:
		err = say(sc.Turn, m.CheckBalanceAck, data)
	default:
		err = say(sc.Turn, m.UnknownIntent, data)
	}
	if err != nil {
		return dialog.Outcome{}, err
	}
	return sc.Next(nil)
}

// final stores a confirmed leave and restarts the main dialog.
func (d *mainDialog) final(ctx context.Context, sc *dialog.StepContext) (dialog.Outcome, error) {
	m := d.deps.messages()

	if end, ok := sc.Result.(dialog.EndResult); ok && end.Present() {
		var details LeaveDetails
		if err := end.Decode(&details); err != nil {
			return dialog.Outcome{}, fmt.Errorf("decode leave details: %w", err)
		}
		userID := sc.Turn.UserID()
		lv, err := d.deps.Leaves.SaveLeave(ctx, userID, details.LeaveType, details.LeaveDate)
		if err != nil {
			return dialog.Outcome{}, fmt.Errorf("save leave: %w", err)
		}
		details.LeaveID = lv.ID
		d.deps.emit(ctx, sc.Turn, events.LeaveApplied, &events.LeaveData{
			UserID:    userID,
			LeaveID:   details.LeaveID,
			LeaveType: details.LeaveType,
			LeaveDate: details.LeaveDate,
		})
		if err := say(sc.Turn, m.LeaveApplied, details.templateData()); err != nil {
			return dialog.Outcome{}, err
		}
	}

	return sc.ReplaceDialog(MainDialogName, mainOptions{Message: m.Continue})
}
