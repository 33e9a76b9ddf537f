package client

import (
	"sync"
	"time"
)

// SyncStatus is what the sync badge shows.
type SyncStatus int

const (
	// StatusHidden means online with nothing to show.
	StatusHidden SyncStatus = iota
	StatusOffline
	StatusSyncing
	// StatusPending means online with queued requests waiting; the count is
	// available via Indicator.Pending.
	StatusPending
	// StatusSynced is shown briefly after a drain empties the queue.
	StatusSynced
)

func (s SyncStatus) String() string {
	switch s {
	case StatusOffline:
		return "offline"
	case StatusSyncing:
		return "syncing"
	case StatusPending:
		return "pending"
	case StatusSynced:
		return "synced"
	default:
		return "hidden"
	}
}

// DeriveStatus folds connectivity and queue state into a badge status.
func DeriveStatus(online, syncing bool, queueSize int, recentlySynced bool) SyncStatus {
	switch {
	case !online:
		return StatusOffline
	case syncing:
		return StatusSyncing
	case queueSize > 0:
		return StatusPending
	case recentlySynced:
		return StatusSynced
	default:
		return StatusHidden
	}
}

const defaultAckWindow = 3 * time.Second

// Indicator observes a SyncQueue and exposes the current badge state.
type Indicator struct {
	queue       *SyncQueue
	ackWindow   time.Duration
	now         func() time.Time
	unsubscribe func()

	mu       sync.Mutex
	syncing  bool
	pending  int
	syncedAt time.Time
}

func NewIndicator(queue *SyncQueue) *Indicator {
	ind := &Indicator{
		queue:     queue,
		ackWindow: defaultAckWindow,
		now:       time.Now,
		pending:   queue.Size(),
	}
	ind.unsubscribe = queue.Subscribe(ind.onChange)
	return ind
}

func (ind *Indicator) onChange(isSyncing bool, queueSize int) {
	ind.mu.Lock()
	if ind.syncing && !isSyncing && queueSize == 0 {
		ind.syncedAt = ind.now()
	}
	ind.syncing = isSyncing
	ind.pending = queueSize
	ind.mu.Unlock()
}

// Status returns the badge to display.
func (ind *Indicator) Status() SyncStatus {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	recently := !ind.syncedAt.IsZero() && ind.now().Sub(ind.syncedAt) < ind.ackWindow
	return DeriveStatus(ind.queue.Online(), ind.syncing, ind.pending, recently)
}

// Pending reports the queued request count behind a StatusPending badge.
func (ind *Indicator) Pending() int {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	return ind.pending
}

// Close detaches the indicator from the queue.
func (ind *Indicator) Close() {
	ind.unsubscribe()
}
