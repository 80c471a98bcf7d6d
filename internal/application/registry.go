package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/doccomments/internal/domain/port/driven"
)

// minSweepInterval bounds how often Start sweeps for idle threads.
const minSweepInterval = time.Second

// ThreadRegistry holds the live threads served by the web adapter, keyed by
// a random ID embedded in each thread's load-more control. Threads idle for
// longer than the TTL are evicted; nothing is persisted.
type ThreadRegistry struct {
	mu      sync.Mutex
	threads map[string]*Thread
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewThreadRegistry creates an empty registry evicting threads idle for ttl.
func NewThreadRegistry(ttl time.Duration, logger *slog.Logger) *ThreadRegistry {
	return &ThreadRegistry{
		threads: make(map[string]*Thread),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
}

// Create registers a new idle thread for issueID.
func (r *ThreadRegistry) Create(issueID int) *Thread {
	t := NewThread(uuid.NewString(), issueID)
	t.touch(r.now())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.threads[t.ID()] = t

	return t
}

// Get returns the thread with the given ID, or driven.ErrThreadNotFound if it
// never existed or was evicted.
func (r *ThreadRegistry) Get(id string) (*Thread, error) {
	r.mu.Lock()
	t, ok := r.threads[id]
	r.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("thread %q: %w", id, driven.ErrThreadNotFound)
	}
	t.touch(r.now())
	return t, nil
}

// Resume returns the thread with the given ID, recreating it for issueID
// when it was evicted or rendered by another process. IDs that are not UUIDs,
// or that belong to a different issue, yield driven.ErrThreadNotFound.
func (r *ThreadRegistry) Resume(id string, issueID int) (*Thread, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("thread %q: %w", id, driven.ErrThreadNotFound)
	}

	r.mu.Lock()
	t, ok := r.threads[id]
	if !ok {
		t = NewThread(id, issueID)
		r.threads[id] = t
	}
	r.mu.Unlock()

	if t.IssueID() != issueID {
		return nil, fmt.Errorf("thread %q belongs to issue %d: %w", id, t.IssueID(), driven.ErrThreadNotFound)
	}
	t.touch(r.now())
	return t, nil
}

// Len returns the number of live threads.
func (r *ThreadRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.threads)
}

// Sweep evicts threads idle for longer than the TTL and returns how many were
// removed. Threads with a load in flight are never evicted.
func (r *ThreadRegistry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, t := range r.threads {
		lastUsed, idle := t.idleSince()
		if idle && lastUsed.Before(cutoff) {
			delete(r.threads, id)
			removed++
		}
	}
	return removed
}

// Start sweeps idle threads every half TTL. Start blocks until the context is
// canceled.
func (r *ThreadRegistry) Start(ctx context.Context) {
	interval := r.ttl / 2
	if interval < minSweepInterval {
		interval = minSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("thread registry stopped")
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug("evicted idle threads", "count", n, "live", r.Len())
			}
		}
	}
}
