package application

import (
	"context"
	"sync"
	"time"

	"github.com/ericfisherdev/doccomments/internal/domain/model"
)

// Thread is one embedded comment thread. It owns its pagination cursor (the
// load-more control) and at most one in-flight page load, so several threads
// on one page never share state.
type Thread struct {
	id      string
	issueID int

	mu           sync.Mutex
	state        model.ThreadState
	prevState    model.ThreadState
	control      model.LoadMoreControl
	commentCount int
	countKnown   bool
	generation   uint64
	cancel       context.CancelFunc
	lastUsed     time.Time
}

// NewThread creates an idle thread for the given issue.
func NewThread(id string, issueID int) *Thread {
	return &Thread{
		id:       id,
		issueID:  issueID,
		state:    model.ThreadStateIdle,
		lastUsed: time.Now(),
	}
}

// ID returns the thread's identifier.
func (t *Thread) ID() string { return t.id }

// IssueID returns the issue whose comments the thread shows.
func (t *Thread) IssueID() int { return t.issueID }

// State returns the thread's current lifecycle state.
func (t *Thread) State() model.ThreadState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Control returns the thread's load-more control.
func (t *Thread) Control() model.LoadMoreControl {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.control
}

// CommentCount returns the issue's total comment count and whether it has
// been fetched yet.
func (t *Thread) CommentCount() (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.commentCount, t.countKnown
}

// begin starts a new load and cancels any load still in flight. The returned
// generation identifies the load in finish and abort.
func (t *Thread) begin(parent context.Context) (context.Context, uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	} else {
		t.prevState = t.state
	}

	ctx, cancel := context.WithCancel(parent)
	t.generation++
	t.cancel = cancel
	t.state = model.ThreadStateRequesting
	t.lastUsed = time.Now()

	return ctx, t.generation
}

// finish commits the outcome of load gen. A nil control leaves the current
// control untouched. It reports false when a newer load has started.
func (t *Thread) finish(gen uint64, state model.ThreadState, control *model.LoadMoreControl) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.generation {
		return false
	}

	t.release()
	t.state = state
	if control != nil {
		t.control = *control
	}
	return true
}

// abort ends load gen without an outcome, restoring the state it started from.
func (t *Thread) abort(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.generation {
		return
	}
	t.release()
	t.state = t.prevState
}

func (t *Thread) release() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.lastUsed = time.Now()
}

func (t *Thread) setCommentCount(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.commentCount = n
	t.countKnown = true
}

func (t *Thread) touch(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastUsed = now
}

// idleSince returns when the thread was last used, and false while a load is
// in flight.
func (t *Thread) idleSince() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastUsed, t.cancel == nil
}
