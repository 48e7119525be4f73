package bot

import (
	"context"
	"strings"

	"github.com/amann12/ManageLeave/pkg/catalog"
	"github.com/amann12/ManageLeave/pkg/dialog"
)

// requestLeaveDialog fills in LeaveDetails left to right, skipping fields
// that arrived pre-filled, and asks for confirmation.
type requestLeaveDialog struct {
	deps Deps
}

func (d *requestLeaveDialog) details(sc *dialog.StepContext) (LeaveDetails, error) {
	var ld LeaveDetails
	err := sc.Options(&ld)
	return ld, err
}

func (d *requestLeaveDialog) leaveType(_ context.Context, sc *dialog.StepContext) (dialog.Outcome, error) {
	ld, err := d.details(sc)
	if err != nil {
		return dialog.Outcome{}, err
	}
	m := d.deps.messages()
	if ld.LeaveType != "" {
		return sc.Next(dialog.TextResult{Value: canonicalLeaveType(m, ld.LeaveType)})
	}

	sc.Turn.SendText(m.LeaveTypePrompt)
	return sc.Prompt(dialog.Prompt{
		Kind:    dialog.PromptChoice,
		Choices: m.LeaveTypes,
	})
}

func (d *requestLeaveDialog) leaveDate(_ context.Context, sc *dialog.StepContext) (dialog.Outcome, error) {
	var leaveType string
	switch r := sc.Result.(type) {
	case dialog.ChoiceResult:
		leaveType = r.Value
	case dialog.TextResult:
		leaveType = r.Value
	default:
		return dialog.Outcome{}, dialog.UnexpectedResult(sc.Dialog(), sc.Step(), sc.Result)
	}

	ld, err := d.details(sc)
	if err != nil {
		return dialog.Outcome{}, err
	}
	ld.LeaveType = leaveType
	if err := sc.SetOptions(ld); err != nil {
		return dialog.Outcome{}, err
	}

	m := d.deps.messages()
	if err := say(sc.Turn, m.LeaveTypeSelected, ld.templateData()); err != nil {
		return dialog.Outcome{}, err
	}
	if ld.LeaveDate != "" {
		return sc.Next(dialog.TextResult{Value: ld.LeaveDate})
	}
	return sc.Prompt(dialog.Prompt{Kind: dialog.PromptText, Text: m.LeaveDatePrompt})
}

func (d *requestLeaveDialog) confirm(_ context.Context, sc *dialog.StepContext) (dialog.Outcome, error) {
	date, ok := sc.Result.(dialog.TextResult)
	if !ok {
		return dialog.Outcome{}, dialog.UnexpectedResult(sc.Dialog(), sc.Step(), sc.Result)
	}

	ld, err := d.details(sc)
	if err != nil {
		return dialog.Outcome{}, err
	}
	ld.LeaveDate = date.Value
	if err := sc.SetOptions(ld); err != nil {
		return dialog.Outcome{}, err
	}

	text, err := catalog.Render(d.deps.messages().ConfirmLeave, ld.templateData())
	if err != nil {
		return dialog.Outcome{}, err
	}
	return sc.Prompt(dialog.Prompt{Kind: dialog.PromptConfirm, Text: text})
}

func (d *requestLeaveDialog) final(_ context.Context, sc *dialog.StepContext) (dialog.Outcome, error) {
	answer, ok := sc.Result.(dialog.ConfirmResult)
	if !ok {
		return dialog.Outcome{}, dialog.UnexpectedResult(sc.Dialog(), sc.Step(), sc.Result)
	}
	if !answer.Confirmed {
		return sc.EndDialog(nil)
	}
	ld, err := d.details(sc)
	if err != nil {
		return dialog.Outcome{}, err
	}
	return sc.EndDialog(ld)
}

// canonicalLeaveType maps an extracted entity such as "sick leave" onto the
// catalog's spelling. Unknown types are kept as extracted.
func canonicalLeaveType(m *catalog.Messages, extracted string) string {
	for _, t := range m.LeaveTypes {
		if strings.EqualFold(t, strings.TrimSpace(extracted)) {
			return t
		}
	}
	return extracted
}
