// Package queue owns the front end's ordered list of requested downloads
// and drives each item through its status lifecycle. Exactly one item
// occupies the active slot at a time; the rest wait in FIFO order.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Status is the lifecycle state of a download item.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusPreparing   Status = "preparing"
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
	StatusError       Status = "error"
	StatusCancelled   Status = "cancelled"
)

// IsTerminal reports whether no further automatic transition happens.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusCancelled
}

// Request carries the parameters needed to issue (or re-issue) a
// transfer.
type Request struct {
	URL      string `json:"url"`
	FormatID string `json:"formatId"`
}

// Item is one requested download. The ID is unique per request, even for
// repeated selections of the same format.
type Item struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Channel  string  `json:"channel"`
	Quality  string  `json:"quality"`
	Status   Status  `json:"status"`
	Progress int     `json:"progress"` // percent; -1 when indeterminate
	Error    string  `json:"error,omitempty"`
	Request  Request `json:"request"`

	cancel context.CancelFunc
}

// Transfer performs the actual download for an item. Implementations
// report cumulative progress through onProgress (total -1 when unknown)
// and honor ctx cancellation.
type Transfer interface {
	Do(ctx context.Context, item Item, onProgress func(done, total int64)) error
}

// Classifier turns a transfer failure into the message stored on the
// item.
type Classifier func(error) string

// Manager is the queue state machine. All mutation happens under one
// lock; transfers run in their own goroutine and report back through it.
type Manager struct {
	mu       sync.Mutex
	items    map[string]*Item
	order    []string
	pending  []string
	activeID string
	transfer Transfer
	classify Classifier
	onUpdate func(Item)

	// Snapshots queued for the callback; delivered outside the lock by
	// a single dispatcher at a time.
	updates    []Item
	delivering bool
}

// NewManager creates a queue manager that runs transfers through t.
// classify may be nil, in which case raw error text is stored.
func NewManager(t Transfer, classify Classifier) *Manager {
	if classify == nil {
		classify = func(err error) string { return err.Error() }
	}
	return &Manager{
		items:    make(map[string]*Item),
		transfer: t,
		classify: classify,
	}
}

// SetUpdateCallback registers the function called with a snapshot after
// every item change. The callback runs without the manager lock held,
// so it may call back into the manager.
func (m *Manager) SetUpdateCallback(fn func(Item)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onUpdate = fn
}

// Enqueue adds a new download in the queued state and returns its ID.
func (m *Manager) Enqueue(videoID, title, channel, quality string, req Request) string {
	m.mu.Lock()
	defer m.dispatch()
	defer m.mu.Unlock()

	id := fmt.Sprintf("%s-%s-%d", videoID, req.FormatID, time.Now().UnixNano())

	item := &Item{
		ID:       id,
		Title:    title,
		Channel:  channel,
		Quality:  quality,
		Status:   StatusQueued,
		Progress: -1,
		Request:  req,
	}

	m.items[id] = item
	m.order = append(m.order, id)
	m.pending = append(m.pending, id)

	m.notify(item)
	m.admit()

	return id
}

// Cancel aborts an item. A queued item is removed from admission without
// ever issuing a request; an active item has its transfer aborted.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	defer m.dispatch()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return fmt.Errorf("no such item: %s", id)
	}

	switch item.Status {
	case StatusQueued:
		m.removePending(id)
		item.Status = StatusCancelled
		m.notify(item)
		return nil
	case StatusPreparing, StatusDownloading:
		item.cancel()
		return nil
	default:
		return fmt.Errorf("item %s is %s, nothing to cancel", id, item.Status)
	}
}

// Retry re-queues an errored or cancelled item at the back of the
// admission queue, clearing its progress and error.
func (m *Manager) Retry(id string) error {
	m.mu.Lock()
	defer m.dispatch()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return fmt.Errorf("no such item: %s", id)
	}

	if item.Status != StatusError && item.Status != StatusCancelled {
		return fmt.Errorf("item %s is %s, not retryable", id, item.Status)
	}

	item.Status = StatusQueued
	item.Progress = -1
	item.Error = ""
	item.cancel = nil

	m.pending = append(m.pending, id)
	m.notify(item)
	m.admit()

	return nil
}

// ClearCompleted removes completed items from the visible list. Other
// states are untouched.
func (m *Manager) ClearCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.order[:0]
	for _, id := range m.order {
		if item := m.items[id]; item.Status == StatusCompleted {
			delete(m.items, id)
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
}

// Items returns a snapshot of all items in enqueue order.
func (m *Manager) Items() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Item, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.items[id])
	}
	return out
}

// admit fills the active slot from the head of the pending queue.
// Identifiers whose item was cancelled before its turn are skipped
// without consuming the slot. Caller must hold the lock.
func (m *Manager) admit() {
	if m.activeID != "" {
		return
	}

	for len(m.pending) > 0 {
		id := m.pending[0]
		m.pending = m.pending[1:]

		item, ok := m.items[id]
		if !ok || item.Status != StatusQueued {
			continue
		}

		ctx, cancel := context.WithCancel(context.Background())
		item.cancel = cancel
		item.Status = StatusPreparing
		m.activeID = id
		m.notify(item)

		go m.run(ctx, id)
		return
	}
}

// run drives one transfer and releases the active slot afterwards.
func (m *Manager) run(ctx context.Context, id string) {
	m.mu.Lock()
	item, ok := m.items[id]
	if !ok {
		m.activeID = ""
		m.admit()
		m.mu.Unlock()
		m.dispatch()
		return
	}
	item.Status = StatusDownloading
	snapshot := *item
	m.notify(item)
	m.mu.Unlock()
	m.dispatch()

	err := m.transfer.Do(ctx, snapshot, func(done, total int64) {
		m.setProgress(id, done, total)
	})

	m.mu.Lock()
	defer m.dispatch()
	defer m.mu.Unlock()

	switch {
	case err == nil:
		item.Status = StatusCompleted
		item.Progress = 100
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		item.Status = StatusCancelled
		item.Progress = -1
	default:
		item.Status = StatusError
		item.Error = m.classify(err)
	}

	item.cancel = nil
	m.activeID = ""
	m.notify(item)
	m.admit()
}

// setProgress stores a percentage when the total is known. Intermediate
// values may be superseded; only the latest matters.
func (m *Manager) setProgress(id string, done, total int64) {
	m.mu.Lock()
	defer m.dispatch()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok || item.Status != StatusDownloading {
		return
	}

	percent := -1
	if total > 0 {
		percent = int(done * 100 / total)
	}

	if percent != item.Progress {
		item.Progress = percent
		m.notify(item)
	}
}

// removePending drops id from the pending queue. Caller must hold the
// lock.
func (m *Manager) removePending(id string) {
	for i, p := range m.pending {
		if p == id {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return
		}
	}
}

// notify queues a snapshot for the update callback. Caller must hold
// the lock; dispatch delivers the snapshot once the lock is released.
func (m *Manager) notify(item *Item) {
	if m.onUpdate != nil {
		m.updates = append(m.updates, *item)
	}
}

// dispatch drains queued snapshots and hands them to the callback with
// the lock released, in the order they were queued. Only one dispatcher
// runs at a time; a call that finds another in flight leaves its
// snapshots for that one.
func (m *Manager) dispatch() {
	m.mu.Lock()
	if m.delivering {
		m.mu.Unlock()
		return
	}
	m.delivering = true

	for len(m.updates) > 0 {
		batch := m.updates
		m.updates = nil
		fn := m.onUpdate
		m.mu.Unlock()

		if fn != nil {
			for _, snapshot := range batch {
				fn(snapshot)
			}
		}

		m.mu.Lock()
	}

	m.delivering = false
	m.mu.Unlock()
}
