package activity

import (
	"encoding/json"
	"testing"
	"time"
)

func TestComputeHash(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)
	content, _ := json.Marshal(map[string]any{"task_id": "t1"})

	h1 := computeHash("", "id1", TaskCreated, "cli", now, content)
	h2 := computeHash("", "id1", TaskCreated, "cli", now, content)
	if h1 != h2 {
		t.Fatalf("same inputs should produce same hash: %s != %s", h1, h2)
	}
	if len(h1) != 64 {
		t.Fatalf("hash length = %d, want 64 hex chars", len(h1))
	}

	if h1 == computeHash("", "id1", TaskDeleted, "cli", now, content) {
		t.Fatal("different type should produce different hash")
	}
	if h1 == computeHash("", "id1", TaskCreated, "desk", now, content) {
		t.Fatal("different source should produce different hash")
	}
	if h1 == computeHash("prev", "id1", TaskCreated, "cli", now, content) {
		t.Fatal("different prevHash should produce different hash")
	}
	if h1 == computeHash("", "id1", TaskCreated, "cli", now.Add(time.Microsecond), content) {
		t.Fatal("different timestamp should produce different hash")
	}
}

func TestComputeHashKeyOrder(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// encoding/json sorts map keys
	a, _ := json.Marshal(map[string]any{"title": "x", "completed": true})
	b, _ := json.Marshal(map[string]any{"completed": true, "title": "x"})

	if computeHash("", "id", TaskToggled, "api", now, a) != computeHash("", "id", TaskToggled, "api", now, b) {
		t.Fatal("hashes differ for equal content")
	}
}
