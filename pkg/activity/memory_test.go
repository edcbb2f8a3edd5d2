package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fixedClock() func() time.Time {
	t := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestMemoryLogChain(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLog()
	l.now = fixedClock()

	first, err := l.Append(ctx, TaskCreated, "cli", map[string]any{"task_id": "a"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if first.PrevHash != "" {
		t.Fatalf("first event prev_hash = %q, want empty", first.PrevHash)
	}
	second, _ := l.Append(ctx, TaskToggled, "cli", map[string]any{"task_id": "a", "completed": true})
	if second.PrevHash != first.Hash {
		t.Fatal("second event not linked to first")
	}
	if err := l.VerifyChain(ctx); err != nil {
		t.Fatalf("VerifyChain: %v", err)
	}
}

func TestMemoryLogDetectsTampering(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLog()
	l.Append(ctx, TaskCreated, "cli", map[string]any{"task_id": "a", "title": "pay rent"})
	l.Append(ctx, TaskDeleted, "cli", map[string]any{"task_id": "a"})

	l.events[0].Content["title"] = "pay nothing"
	if err := l.VerifyChain(ctx); err == nil {
		t.Fatal("VerifyChain accepted edited content")
	}
}

func TestMemoryLogQueries(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLog()
	for _, typ := range []string{TaskCreated, TaskCreated, TaskToggled, TaskDeleted} {
		l.Append(ctx, typ, "api", nil)
	}

	recent, _ := l.Recent(ctx, 2)
	if len(recent) != 2 || recent[0].Type != TaskDeleted || recent[1].Type != TaskToggled {
		t.Fatalf("Recent(2) = %+v", recent)
	}
	all, _ := l.Recent(ctx, 0)
	if len(all) != 4 {
		t.Fatalf("Recent(0) returned %d events, want 4", len(all))
	}
	created, _ := l.ByType(ctx, TaskCreated, 10)
	if len(created) != 2 {
		t.Fatalf("ByType(created) returned %d events, want 2", len(created))
	}
	if created[0].ID == created[1].ID {
		t.Fatal("events share an ID")
	}
	if n, _ := l.Count(ctx); n != 4 {
		t.Fatalf("Count = %d, want 4", n)
	}
	none, _ := l.ByType(ctx, "task.archived", 10)
	if none == nil || len(none) != 0 {
		t.Fatalf("ByType(unknown) = %v, want empty slice", none)
	}
}

func TestMemoryLogCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := NewMemoryLog()
	if _, err := l.Append(ctx, TaskCreated, "cli", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("Append err = %v, want context.Canceled", err)
	}
	if n, _ := l.Count(context.Background()); n != 0 {
		t.Fatalf("Count = %d after canceled append", n)
	}
}
