// Package api defines the leave assistant's RPC surface: message types,
// procedure names, handler constructors and a client.
package api

import (
	"time"

	"github.com/amann12/ManageLeave/pkg/dialog"
)

const (
	ConversationServiceName = "leavebot.v1.ConversationService"
	LeaveServiceName        = "leavebot.v1.LeaveService"
)

const (
	SendActivityProcedure      = "/" + ConversationServiceName + "/SendActivity"
	ResetConversationProcedure = "/" + ConversationServiceName + "/ResetConversation"
	ListLeavesProcedure        = "/" + LeaveServiceName + "/ListLeaves"
	DeleteLeaveProcedure       = "/" + LeaveServiceName + "/DeleteLeave"
)

// SendActivityRequest carries one inbound message. Value is set when the
// user picked a choice.
type SendActivityRequest struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text,omitempty"`
	Value          string `json:"value,omitempty"`
}

// SendActivityResponse carries the replies produced by the turn. Failed is
// set when the turn errored and the reply is an apology.
type SendActivityResponse struct {
	Activities []dialog.Activity `json:"activities"`
	UserID     string            `json:"user_id,omitempty"`
	Active     bool              `json:"active"`
	Failed     bool              `json:"failed,omitempty"`
}

type ResetConversationRequest struct {
	ConversationID string `json:"conversation_id"`
}

type ResetConversationResponse struct{}

type ListLeavesRequest struct {
	UserID string `json:"user_id"`
}

// Leave is a stored leave as returned over RPC.
type Leave struct {
	LeaveID   string    `json:"leave_id"`
	LeaveType string    `json:"leave_type"`
	LeaveDate string    `json:"leave_date"`
	CreatedAt time.Time `json:"created_at"`
}

type ListLeavesResponse struct {
	Leaves []Leave `json:"leaves"`
}

type DeleteLeaveRequest struct {
	UserID  string `json:"user_id"`
	LeaveID string `json:"leave_id"`
}

type DeleteLeaveResponse struct{}
