package transcription

import "sync"

// Leases hands out at most one submission lease per recording. It guards
// against two concurrent submissions racing to create two jobs for the
// same recording; the durable backstop is the active-job count in the
// database.
type Leases struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLeases creates an empty lease table.
func NewLeases() *Leases {
	return &Leases{held: make(map[string]struct{})}
}

// Acquire takes the lease for a recording. Returns false if it is already
// held.
func (l *Leases) Acquire(recordingID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[recordingID]; ok {
		return false
	}
	l.held[recordingID] = struct{}{}
	return true
}

// Release frees the lease for a recording. Releasing an unheld lease is a
// no-op.
func (l *Leases) Release(recordingID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, recordingID)
}
