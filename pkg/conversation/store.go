package conversation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pitabwire/frame/workerpool"

	"github.com/amann12/ManageLeave/pkg/dialog"
)

// ErrConflict is returned by Save when the stored state changed after it
// was loaded.
var ErrConflict = errors.New("conversation state was modified concurrently")

// Store persists conversation state between turns. Load returns a fresh
// state and version 0 for an unknown conversation. Save must be given the
// version Load returned.
type Store interface {
	Load(ctx context.Context, id string) (*dialog.State, int64, error)
	Save(ctx context.Context, id string, state *dialog.State, version int64) error
	Delete(ctx context.Context, id string) error
}

// Reaper drops conversations that have been idle too long.
type Reaper interface {
	Reap(ctx context.Context) (int, error)
}

// StartReaper runs r every interval on the worker pool until ctx is done.
func StartReaper(ctx context.Context, pool workerpool.WorkerPool, r Reaper, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	reap := func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := r.Reap(ctx)
				if err != nil {
					slog.WarnContext(ctx, "conversation reaper failed", slog.String("error", err.Error()))
					continue
				}
				if n > 0 {
					slog.InfoContext(ctx, "reaped idle conversations", slog.Int("count", n))
				}
			}
		}
	}
	if pool != nil {
		return pool.Submit(ctx, reap)
	}
	go reap()
	return nil
}
