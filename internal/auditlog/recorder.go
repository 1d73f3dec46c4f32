package auditlog

import (
	"sync"
	"time"

	"github.com/cleared-dev/microerp/internal/store"
)

// Recorder collects committed changes from a store for one run and writes
// them to the audit log when stopped.
type Recorder struct {
	root   string
	runID  string
	now    func() time.Time
	cancel func()

	mu      sync.Mutex
	entries []Entry
	stopped bool
}

// Start watches every committed write to st.
func Start(st *store.Store, root, runID string) *Recorder {
	r := &Recorder{root: root, runID: runID, now: time.Now}
	r.cancel = st.Watch(r.record)
	return r
}

func (r *Recorder) record(change store.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.entries = append(r.entries, Entry{
		Timestamp:  r.now().UTC(),
		RunID:      r.runID,
		Collection: change.Collection,
		Op:         change.Op,
		RecordID:   change.ID,
	})
}

// Stop stops watching and appends the collected entries to the log. It
// returns the number of entries written. Calling Stop twice is a no-op.
func (r *Recorder) Stop() (int, error) {
	r.cancel()

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return 0, nil
	}
	r.stopped = true
	entries := r.entries
	r.entries = nil
	r.mu.Unlock()

	if err := Append(r.root, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}
