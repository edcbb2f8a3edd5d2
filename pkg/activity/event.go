// Package activity keeps an append-only, hash-chained record of task mutations.
package activity

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"
)

// Event types emitted by the task service.
const (
	TaskCreated = "task.created"
	TaskUpdated = "task.updated"
	TaskDeleted = "task.deleted"
	TaskToggled = "task.toggled"
)

// Event is a single entry in the activity log.
type Event struct {
	ID        string         `json:"id"`        // UUID v7 (time-ordered)
	Type      string         `json:"type"`      // e.g. "task.created"
	Timestamp time.Time      `json:"timestamp"` // when the event was recorded
	Source    string         `json:"source"`    // frontend that caused it: "desk", "cli", "api"
	Content   map[string]any `json:"content"`   // event payload
	Hash      string         `json:"hash"`      // SHA-256 of canonical form
	PrevHash  string         `json:"prev_hash"` // hash chain link
}

// Recorder accepts new events.
type Recorder interface {
	Append(ctx context.Context, eventType, source string, content map[string]any) (*Event, error)
}

// Log is the contract for activity persistence.
type Log interface {
	Recorder
	// Recent returns the newest events first.
	Recent(ctx context.Context, limit int) ([]Event, error)
	// ByType returns the newest events of one type first.
	ByType(ctx context.Context, eventType string, limit int) ([]Event, error)
	Count(ctx context.Context) (int, error)
	// VerifyChain walks the log oldest first and checks every hash link.
	VerifyChain(ctx context.Context) error
}

// computeHash computes a SHA-256 hash for chain integrity.
func computeHash(prevHash, id, eventType, source string, timestamp time.Time, contentJSON []byte) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%d|%s", prevHash, id, eventType, source, timestamp.UnixNano(), string(contentJSON))
	h := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", h)
}
