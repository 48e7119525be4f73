package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// ConversationServiceHandler serves conversation turns.
type ConversationServiceHandler interface {
	SendActivity(context.Context, *connect.Request[SendActivityRequest]) (*connect.Response[SendActivityResponse], error)
	ResetConversation(context.Context, *connect.Request[ResetConversationRequest]) (*connect.Response[ResetConversationResponse], error)
}

// LeaveServiceHandler serves a user's stored leaves.
type LeaveServiceHandler interface {
	ListLeaves(context.Context, *connect.Request[ListLeavesRequest]) (*connect.Response[ListLeavesResponse], error)
	DeleteLeave(context.Context, *connect.Request[DeleteLeaveRequest]) (*connect.Response[DeleteLeaveResponse], error)
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
}

func serviceMux(routes map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// NewConversationServiceHandler returns the mount path and handler for svc.
func NewConversationServiceHandler(svc ConversationServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	o := handlerOptions(opts)
	return "/" + ConversationServiceName + "/", serviceMux(map[string]http.Handler{
		SendActivityProcedure:      connect.NewUnaryHandler(SendActivityProcedure, svc.SendActivity, o...),
		ResetConversationProcedure: connect.NewUnaryHandler(ResetConversationProcedure, svc.ResetConversation, o...),
	})
}

// NewLeaveServiceHandler returns the mount path and handler for svc.
func NewLeaveServiceHandler(svc LeaveServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	o := handlerOptions(opts)
	return "/" + LeaveServiceName + "/", serviceMux(map[string]http.Handler{
		ListLeavesProcedure:  connect.NewUnaryHandler(ListLeavesProcedure, svc.ListLeaves, o...),
		DeleteLeaveProcedure: connect.NewUnaryHandler(DeleteLeaveProcedure, svc.DeleteLeave, o...),
	})
}

// Client calls both services of a leave assistant.
type Client struct {
	sendActivity      *connect.Client[SendActivityRequest, SendActivityResponse]
	resetConversation *connect.Client[ResetConversationRequest, ResetConversationResponse]
	listLeaves        *connect.Client[ListLeavesRequest, ListLeavesResponse]
	deleteLeave       *connect.Client[DeleteLeaveRequest, DeleteLeaveResponse]
}

// NewClient creates a client for the assistant at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	o := append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
	return &Client{
		sendActivity:      connect.NewClient[SendActivityRequest, SendActivityResponse](httpClient, baseURL+SendActivityProcedure, o...),
		resetConversation: connect.NewClient[ResetConversationRequest, ResetConversationResponse](httpClient, baseURL+ResetConversationProcedure, o...),
		listLeaves:        connect.NewClient[ListLeavesRequest, ListLeavesResponse](httpClient, baseURL+ListLeavesProcedure, o...),
		deleteLeave:       connect.NewClient[DeleteLeaveRequest, DeleteLeaveResponse](httpClient, baseURL+DeleteLeaveProcedure, o...),
	}
}

func (c *Client) SendActivity(ctx context.Context, req *SendActivityRequest) (*SendActivityResponse, error) {
	resp, err := c.sendActivity.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *Client) ResetConversation(ctx context.Context, req *ResetConversationRequest) error {
	_, err := c.resetConversation.CallUnary(ctx, connect.NewRequest(req))
	return err
}

func (c *Client) ListLeaves(ctx context.Context, req *ListLeavesRequest) (*ListLeavesResponse, error) {
	resp, err := c.listLeaves.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *Client) DeleteLeave(ctx context.Context, req *DeleteLeaveRequest) error {
	_, err := c.deleteLeave.CallUnary(ctx, connect.NewRequest(req))
	return err
}
