// Package bot wires the leave assistant's dialogs onto the dialog engine.
package bot

import (
	"context"
	"errors"
	"time"

	"github.com/amann12/ManageLeave/pkg/catalog"
	"github.com/amann12/ManageLeave/pkg/classifier"
	"github.com/amann12/ManageLeave/pkg/dialog"
	"github.com/amann12/ManageLeave/pkg/events"
	"github.com/amann12/ManageLeave/pkg/registry"
)

// Registered dialog and validator names.
const (
	MainDialogName         = "MainDialog"
	RequestLeaveDialogName = "RequestLeaveDialog"
	UserIDValidatorName    = "userIdValidator"
)

// UserRegistry looks up and records user ids.
type UserRegistry interface {
	Exists(ctx context.Context, id string) (bool, error)
	Register(ctx context.Context, id string) error
}

// LeaveStore persists confirmed leaves.
type LeaveStore interface {
	SaveLeave(ctx context.Context, userID, leaveType, leaveDate string) (*registry.Leave, error)
}

// IDGenerator mints user ids that checker reports as free.
type IDGenerator interface {
	NewUserID(ctx context.Context, checker registry.Checker) (string, error)
}

// Deps are the collaborators the dialogs call into.
type Deps struct {
	Recognizer classifier.Recognizer
	Users      UserRegistry
	Leaves     LeaveStore
	IDs        IDGenerator
	Catalog    catalog.Source
	Publisher  *events.Publisher
	// Now is the clock used for the intro example date.
	Now func() time.Time
}

// New builds the dialog set and returns an engine rooted at MainDialog.
func New(d Deps) (*dialog.Engine, error) {
	if d.Users == nil || d.Leaves == nil || d.IDs == nil {
		return nil, errors.New("bot: user registry, leave store and id generator are required")
	}
	if d.Recognizer == nil {
		d.Recognizer = classifier.Unconfigured{}
	}
	if d.Catalog == nil {
		d.Catalog = catalog.Defaults()
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	md := &mainDialog{deps: d}
	leave := &requestLeaveDialog{deps: d}

	set := dialog.NewDialogSet().
		Add(MainDialogName, md.checkUser, md.resolveUserID, md.intro, md.act, md.final).
		AddValidator(UserIDValidatorName, md.validateUserID).
		Add(RequestLeaveDialogName, leave.leaveType, leave.leaveDate, leave.confirm, leave.final)

	return dialog.NewEngine(set, MainDialogName, d.Publisher)
}

func (d Deps) messages() *catalog.Messages {
	return d.Catalog.Current()
}

func (d Deps) emit(ctx context.Context, turn *dialog.TurnContext, et events.EventType, data any) {
	if d.Publisher == nil {
		return
	}
	_ = d.Publisher.Emit(ctx, et, turn.ConversationID, data)
}

// say renders a catalog text and sends it as an informational message.
func say(turn *dialog.TurnContext, text string, data map[string]string) error {
	rendered, err := catalog.Render(text, data)
	if err != nil {
		return err
	}
	turn.SendText(rendered)
	return nil
}
