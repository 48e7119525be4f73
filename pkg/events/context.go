package events

import "context"

type conversationKey struct{}

// WithConversationID tags ctx with the conversation a turn belongs to so
// collaborators deep in the call chain can attribute their events.
func WithConversationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, conversationKey{}, id)
}

// ConversationIDFrom returns the conversation id stored in ctx, if any.
func ConversationIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(conversationKey{}).(string)
	return id
}
