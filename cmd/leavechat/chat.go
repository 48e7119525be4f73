package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"

	"github.com/amann12/ManageLeave/pkg/api"
	"github.com/amann12/ManageLeave/pkg/dialog"
)

// assistant is the subset of the API client the chat loop uses.
type assistant interface {
	SendActivity(ctx context.Context, req *api.SendActivityRequest) (*api.SendActivityResponse, error)
	ResetConversation(ctx context.Context, req *api.ResetConversationRequest) error
	ListLeaves(ctx context.Context, req *api.ListLeavesRequest) (*api.ListLeavesResponse, error)
	DeleteLeave(ctx context.Context, req *api.DeleteLeaveRequest) error
}

type chat struct {
	client         assistant
	conversationID string
	out            io.Writer

	userID  string
	choices []dialog.Choice
}

// handle processes one line of user input. Slash commands are served
// locally; anything else is sent to the assistant as a turn.
func (c *chat) handle(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	switch {
	case line == "/help":
		fmt.Fprintln(c.out, "commands: /leaves, /cancel <leave id>, /reset, /quit")
		return nil
	case line == "/leaves":
		return c.listLeaves(ctx)
	case strings.HasPrefix(line, "/cancel"):
		return c.cancelLeave(ctx, strings.TrimSpace(strings.TrimPrefix(line, "/cancel")))
	case line == "/reset":
		if err := c.client.ResetConversation(ctx, &api.ResetConversationRequest{ConversationID: c.conversationID}); err != nil {
			return err
		}
		c.userID, c.choices = "", nil
		fmt.Fprintln(c.out, "conversation reset")
		return nil
	}

	req := &api.SendActivityRequest{ConversationID: c.conversationID}
	if v, ok := c.choiceValue(line); ok {
		req.Value = v
	} else {
		req.Text = line
	}

	resp, err := c.client.SendActivity(ctx, req)
	if err != nil {
		return err
	}
	if resp.UserID != "" {
		c.userID = resp.UserID
	}
	c.choices = nil
	for _, a := range resp.Activities {
		c.print(a)
	}
	return nil
}

// choiceValue maps a numbered answer onto the value of the last offered
// choice.
func (c *chat) choiceValue(line string) (string, bool) {
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(c.choices) {
		return "", false
	}
	return c.choices[n-1].Value, true
}

func (c *chat) print(a dialog.Activity) {
	if a.Text != "" {
		fmt.Fprintf(c.out, "bot> %s\n", a.Text)
	}
	for i, ch := range a.Choices {
		fmt.Fprintf(c.out, "     %d. %s\n", i+1, ch.Title)
	}
	if len(a.Choices) > 0 {
		c.choices = a.Choices
	}
}

func (c *chat) listLeaves(ctx context.Context) error {
	if c.userID == "" {
		fmt.Fprintln(c.out, "sign in first")
		return nil
	}
	resp, err := c.client.ListLeaves(ctx, &api.ListLeavesRequest{UserID: c.userID})
	if err != nil {
		return err
	}
	if len(resp.Leaves) == 0 {
		fmt.Fprintln(c.out, "no leaves applied")
		return nil
	}
	fmt.Fprint(c.out, formatLeaves(resp.Leaves))
	return nil
}

func (c *chat) cancelLeave(ctx context.Context, leaveID string) error {
	if c.userID == "" || leaveID == "" {
		fmt.Fprintln(c.out, "usage: /cancel <leave id> (after signing in)")
		return nil
	}
	if err := c.client.DeleteLeave(ctx, &api.DeleteLeaveRequest{UserID: c.userID, LeaveID: leaveID}); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "cancelled %s\n", leaveID)
	return nil
}

func formatLeaves(leaves []api.Leave) string {
	var buf bytes.Buffer
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Leave ID", "Type", "Date", "Applied")
	for _, lv := range leaves {
		_ = table.Append(lv.LeaveID, lv.LeaveType, lv.LeaveDate, lv.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = table.Render()
	return buf.String()
}
