// Package timer tracks which task countdowns are currently running in this
// process. The database timer columns remain the source of truth; the
// registry only exists so a stop, restart, or delete invalidates the old
// wakeup goroutine.
package timer

import (
	"sync"
	"time"
)

// Entry is one running countdown.
type Entry struct {
	TaskID string
	Title  string
	EndsAt time.Time
}

// Registry is a concurrency-safe map of running countdowns keyed by task id.
type Registry struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Upsert records or replaces the countdown for a task.
func (r *Registry) Upsert(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.TaskID] = e
}

// Remove drops a task's countdown if present.
func (r *Registry) Remove(taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, taskID)
}

// Get returns the countdown for a task, if one is registered.
func (r *Registry) Get(taskID string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[taskID]
	return e, ok
}

// Remaining reports the time left on a task's countdown at now. Expired or
// unknown countdowns report zero.
func (r *Registry) Remaining(taskID string, now time.Time) time.Duration {
	e, ok := r.Get(taskID)
	if !ok {
		return 0
	}
	left := e.EndsAt.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}
