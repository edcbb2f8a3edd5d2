package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLog is an in-process Log. It lives as long as the process and is
// what the desktop and CLI use with the JSON file backend.
type MemoryLog struct {
	mu     sync.RWMutex
	events []Event
	now    func() time.Time
}

// NewMemoryLog creates an empty MemoryLog.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{now: time.Now}
}

// Append records a new event and links it to the previous one.
func (l *MemoryLog) Append(ctx context.Context, eventType, source string, content map[string]any) (*Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if content == nil {
		content = map[string]any{}
	}
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("marshal content: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var prevHash string
	if n := len(l.events); n > 0 {
		prevHash = l.events[n-1].Hash
	}
	e := Event{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Type:      eventType,
		Timestamp: l.now().Truncate(time.Microsecond),
		Source:    source,
		Content:   content,
		PrevHash:  prevHash,
	}
	e.Hash = computeHash(prevHash, e.ID, e.Type, e.Source, e.Timestamp, contentJSON)
	l.events = append(l.events, e)
	return &e, nil
}

// Recent returns up to limit events, newest first.
func (l *MemoryLog) Recent(_ context.Context, limit int) ([]Event, error) {
	return l.collect(limit, func(Event) bool { return true }), nil
}

// ByType returns up to limit events of the given type, newest first.
func (l *MemoryLog) ByType(_ context.Context, eventType string, limit int) ([]Event, error) {
	return l.collect(limit, func(e Event) bool { return e.Type == eventType }), nil
}

// Count returns the number of recorded events.
func (l *MemoryLog) Count(_ context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events), nil
}

// VerifyChain recomputes every hash oldest first.
func (l *MemoryLog) VerifyChain(_ context.Context) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	prevHash := ""
	for i, e := range l.events {
		if e.PrevHash != prevHash {
			return fmt.Errorf("event %d (%s): prev_hash mismatch: got %s, want %s", i, e.ID, e.PrevHash, prevHash)
		}
		contentJSON, err := json.Marshal(e.Content)
		if err != nil {
			return fmt.Errorf("event %d (%s): marshal content: %w", i, e.ID, err)
		}
		if want := computeHash(prevHash, e.ID, e.Type, e.Source, e.Timestamp, contentJSON); e.Hash != want {
			return fmt.Errorf("event %d (%s): hash mismatch: got %s, want %s", i, e.ID, e.Hash, want)
		}
		prevHash = e.Hash
	}
	return nil
}

func (l *MemoryLog) collect(limit int, keep func(Event) bool) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := []Event{}
	for i := len(l.events) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		if keep(l.events[i]) {
			out = append(out, l.events[i])
		}
	}
	return out
}
