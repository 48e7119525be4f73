package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"github.com/pitabwire/util"

	"github.com/amann12/ManageLeave/pkg/api"
	"github.com/amann12/ManageLeave/pkg/catalog"
	"github.com/amann12/ManageLeave/pkg/conversation"
	"github.com/amann12/ManageLeave/pkg/dialog"
	"github.com/amann12/ManageLeave/pkg/events"
	"github.com/amann12/ManageLeave/pkg/registry"
)

// Ensure we implement the interfaces.
var (
	_ api.ConversationServiceHandler = (*BotHandler)(nil)
	_ api.LeaveServiceHandler        = (*BotHandler)(nil)
)

// Engine runs one conversation turn.
type Engine interface {
	Run(ctx context.Context, turn *dialog.TurnContext) (dialog.TurnResult, error)
}

// LeaveRepository lists and deletes stored leaves.
type LeaveRepository interface {
	ListLeaves(ctx context.Context, userID string) ([]registry.Leave, error)
	DeleteLeave(ctx context.Context, userID, leaveID string) error
}

// BotHandler hosts the dialog engine behind the conversation and leave
// services.
type BotHandler struct {
	engine    Engine
	store     conversation.Store
	locker    *conversation.Locker
	leaves    LeaveRepository
	catalog   catalog.Source
	publisher *events.Publisher
}

// NewBotHandler creates the service handler.
func NewBotHandler(engine Engine, store conversation.Store, leaves LeaveRepository, cat catalog.Source, pub *events.Publisher) *BotHandler {
	if cat == nil {
		cat = catalog.Defaults()
	}
	return &BotHandler{
		engine:    engine,
		store:     store,
		locker:    conversation.NewLocker(),
		leaves:    leaves,
		catalog:   cat,
		publisher: pub,
	}
}

// SendActivity runs one turn. Turns of the same conversation are
// serialised; the state is only saved when the turn succeeds. A failed
// turn is answered with an apology and Failed set.
func (h *BotHandler) SendActivity(ctx context.Context, req *connect.Request[api.SendActivityRequest]) (*connect.Response[api.SendActivityResponse], error) {
	convID := strings.TrimSpace(req.Msg.ConversationID)
	if convID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("conversation_id is required"))
	}

	unlock := h.locker.Lock(convID)
	defer unlock()

	state, version, err := h.store.Load(ctx, convID)
	if err != nil {
		util.Log(ctx).WithError(err).Error("load conversation state")
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("load conversation: %w", err))
	}
	priorUser, priorActive := state.UserID, state.Active()

	ctx = events.WithConversationID(ctx, convID)
	turn := dialog.NewTurnContext(convID, dialog.Activity{
		Type:  dialog.ActivityMessage,
		Text:  req.Msg.Text,
		Value: req.Msg.Value,
	}, state)

	if _, err := h.engine.Run(ctx, turn); err != nil {
		util.Log(ctx).WithError(err).Error("conversation turn failed")
		h.emit(ctx, events.TurnFailed, convID, &events.TurnFailedData{Error: err.Error()})
		return connect.NewResponse(&api.SendActivityResponse{
			Activities: []dialog.Activity{dialog.MessageActivity(h.catalog.Current().Apology)},
			UserID:     priorUser,
			Active:     priorActive,
			Failed:     true,
		}), nil
	}

	if err := h.store.Save(ctx, convID, state, version); err != nil {
		if errors.Is(err, conversation.ErrConflict) {
			return nil, connect.NewError(connect.CodeAborted, err)
		}
		util.Log(ctx).WithError(err).Error("save conversation state")
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("save conversation: %w", err))
	}

	activities := turn.Responses()
	if activities == nil {
		activities = []dialog.Activity{}
	}
	return connect.NewResponse(&api.SendActivityResponse{
		Activities: activities,
		UserID:     state.UserID,
		Active:     state.Active(),
	}), nil
}

// ResetConversation forgets a conversation; its next message starts over.
func (h *BotHandler) ResetConversation(ctx context.Context, req *connect.Request[api.ResetConversationRequest]) (*connect.Response[api.ResetConversationResponse], error) {
	convID := strings.TrimSpace(req.Msg.ConversationID)
	if convID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("conversation_id is required"))
	}

	unlock := h.locker.Lock(convID)
	defer unlock()

	if err := h.store.Delete(ctx, convID); err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	h.emit(ctx, events.ConversationReset, convID, nil)
	return connect.NewResponse(&api.ResetConversationResponse{}), nil
}

func (h *BotHandler) ListLeaves(ctx context.Context, req *connect.Request[api.ListLeavesRequest]) (*connect.Response[api.ListLeavesResponse], error) {
	userID := strings.TrimSpace(req.Msg.UserID)
	if userID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("user_id is required"))
	}

	leaves, err := h.leaves.ListLeaves(ctx, userID)
	if err != nil {
		util.Log(ctx).WithError(err).Error("list leaves")
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	out := make([]api.Leave, 0, len(leaves))
	for _, lv := range leaves {
		out = append(out, api.Leave{
			LeaveID:   lv.ID,
			LeaveType: lv.LeaveType,
			LeaveDate: lv.LeaveDate,
			CreatedAt: lv.CreatedAt,
		})
	}
	return connect.NewResponse(&api.ListLeavesResponse{Leaves: out}), nil
}

func (h *BotHandler) DeleteLeave(ctx context.Context, req *connect.Request[api.DeleteLeaveRequest]) (*connect.Response[api.DeleteLeaveResponse], error) {
	userID := strings.TrimSpace(req.Msg.UserID)
	leaveID := strings.TrimSpace(req.Msg.LeaveID)
	if userID == "" || leaveID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("user_id and leave_id are required"))
	}

	if err := h.leaves.DeleteLeave(ctx, userID, leaveID); err != nil {
		if errors.Is(err, registry.ErrLeaveNotFound) {
			return nil, connect.NewError(connect.CodeNotFound, err)
		}
		util.Log(ctx).WithError(err).Error("delete leave")
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	h.emit(ctx, events.LeaveDeleted, "", &events.LeaveData{UserID: userID, LeaveID: leaveID})
	return connect.NewResponse(&api.DeleteLeaveResponse{}), nil
}

func (h *BotHandler) emit(ctx context.Context, et events.EventType, convID string, data any) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.Emit(ctx, et, convID, data); err != nil {
		util.Log(ctx).WithError(err).Warn("emit event")
	}
}
