package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/pitabwire/util"
)

// AuditSubscriber consumes envelopes from the event queue and writes an
// audit log line for each. It is registered as a frame queue subscriber.
type AuditSubscriber struct {
	mu     sync.Mutex
	counts map[EventType]int
}

// NewAuditSubscriber creates an empty audit subscriber.
func NewAuditSubscriber() *AuditSubscriber {
	return &AuditSubscriber{counts: make(map[EventType]int)}
}

// Handle is called by frame's pub/sub for each event message. Malformed
// messages are rejected so the queue can dead-letter them.
func (a *AuditSubscriber) Handle(ctx context.Context, metadata map[string]string, message []byte) error {
	var env Envelope
	if err := sonic.Unmarshal(message, &env); err != nil {
		util.Log(ctx).WithError(err).Error("audit subscriber: unmarshal envelope")
		return err
	}

	a.mu.Lock()
	a.counts[env.Type]++
	a.mu.Unlock()

	attrs := []any{
		slog.String("event_id", env.ID),
		slog.String("event_type", string(env.Type)),
		slog.String("source", env.Source),
		slog.Time("timestamp", env.Timestamp),
	}
	if env.ConversationID != "" {
		attrs = append(attrs, slog.String("conversation_id", env.ConversationID))
	}
	if len(metadata) > 0 {
		attrs = append(attrs, slog.Any("metadata", metadata))
	}
	slog.InfoContext(ctx, "audit event", attrs...)
	return nil
}

// Count reports how many events of type t have been audited.
func (a *AuditSubscriber) Count(t EventType) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counts[t]
}
