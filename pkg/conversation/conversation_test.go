package conversation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amann12/ManageLeave/pkg/dialog"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := t.Context()

	state, version, err := s.Load(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if version != 0 || state.Active() {
		t.Fatalf("fresh conversation: version=%d active=%v", version, state.Active())
	}

	state.UserID = "AB12CD3"
	state.Stack = append(state.Stack, dialog.Frame{Dialog: "MainDialog", Step: 2})
	if err := s.Save(ctx, "conv-1", state, version); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, v2, err := s.Load(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v2 != 1 {
		t.Errorf("version = %d, want 1", v2)
	}
	if loaded.UserID != "AB12CD3" || loaded.Depth() != 1 || loaded.Top().Step != 2 {
		t.Errorf("loaded state = %+v", loaded)
	}

	// Mutating the loaded copy must not leak into the store.
	loaded.UserID = "CHANGED"
	again, _, _ := s.Load(ctx, "conv-1")
	if again.UserID != "AB12CD3" {
		t.Errorf("stored state changed without Save: %q", again.UserID)
	}
}

func TestMemoryStoreConflict(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := t.Context()

	a, va, _ := s.Load(ctx, "conv-1")
	b, vb, _ := s.Load(ctx, "conv-1")

	if err := s.Save(ctx, "conv-1", a, va); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if err := s.Save(ctx, "conv-1", b, vb); !errors.Is(err, ErrConflict) {
		t.Fatalf("second Save err = %v, want ErrConflict", err)
	}
}

func TestMemoryStoreReap(t *testing.T) {
	s := NewMemoryStore(10 * time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := t.Context()

	for _, id := range []string{"old", "fresh"} {
		st, v, _ := s.Load(ctx, id)
		if err := s.Save(ctx, id, st, v); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	now = now.Add(8 * time.Minute)
	if _, _, err := s.Load(ctx, "fresh"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	now = now.Add(5 * time.Minute)

	n, err := s.Reap(ctx)
	if err != nil {
		t.Fatalf("Reap: %v", err)
	}
	if n != 1 || s.Len() != 1 {
		t.Errorf("reaped %d, remaining %d; want 1 and 1", n, s.Len())
	}
	if _, v, _ := s.Load(ctx, "old"); v != 0 {
		t.Error("old conversation should have been reaped")
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := t.Context()
	st, v, _ := s.Load(ctx, "conv-1")
	_ = s.Save(ctx, "conv-1", st, v)

	if err := s.Delete(ctx, "conv-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after delete", s.Len())
	}
}

type countingReaper struct{ calls atomic.Int32 }

func (r *countingReaper) Reap(context.Context) (int, error) {
	r.calls.Add(1)
	return 0, nil
}

func TestStartReaperWithoutPool(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	r := &countingReaper{}
	if err := StartReaper(ctx, nil, r, 10*time.Millisecond); err != nil {
		t.Fatalf("StartReaper: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for r.calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("reaper did not run")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLockerSerialisesPerConversation(t *testing.T) {
	l := NewLocker()
	var active, peak atomic.Int32
	var wg sync.WaitGroup

	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("conv-1")
			defer unlock()
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			active.Add(-1)
		}()
	}
	wg.Wait()

	if peak.Load() != 1 {
		t.Errorf("peak concurrent holders = %d, want 1", peak.Load())
	}
	if l.size() != 0 {
		t.Errorf("locker kept %d entries after all unlocks", l.size())
	}
}

func TestLockerIndependentConversations(t *testing.T) {
	l := NewLocker()
	unlockA := l.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := l.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
}
