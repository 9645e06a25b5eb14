package store

import (
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"agentbook/internal/clock"
	appLog "agentbook/internal/log"
	"agentbook/internal/model"
)

const activityFile = "activity.json"

const (
	// maxActivityEntries bounds the rolling log; the oldest entries (by
	// insertion order, not timestamp) are evicted past this point.
	maxActivityEntries = 100

	// DefaultActivityLimit is the List limit when the caller passes none.
	DefaultActivityLimit = 20
)

// ActivityLog is an append-only, size-bounded trail of domain events.
// Entries are never mutated or removed individually; Clear is the only
// destructive operation.
type ActivityLog struct {
	mu      sync.Mutex
	path    string
	clk     clock.Clock
	entries []model.ActivityEntry
}

// NewActivityLog loads activity.json from dataDir. Missing or corrupt
// data degrades to an empty log.
func NewActivityLog(dataDir string, clk clock.Clock) *ActivityLog {
	if clk == nil {
		clk = clock.System{}
	}
	l := &ActivityLog{
		path: filepath.Join(dataDir, activityFile),
		clk:  clk,
	}
	if err := readJSON(l.path, &l.entries); err != nil {
		if !missing(err) {
			appLog.Warn("activity log unreadable, starting empty", "path", l.path, "reason", err)
		}
		l.entries = nil
	}
	return l
}

// Append records a new entry and persists the whole log, evicting the
// oldest entries beyond the cap. The stored entry is returned.
func (l *ActivityLog) Append(t model.ActivityType, data map[string]string) (model.ActivityEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := model.ActivityEntry{
		ID:        uuid.New().String(),
		Type:      t,
		Data:      data,
		Timestamp: l.clk.Now(),
	}

	prev := l.entries
	next := append(append([]model.ActivityEntry(nil), l.entries...), entry)
	if len(next) > maxActivityEntries {
		next = next[len(next)-maxActivityEntries:]
	}
	l.entries = next
	if err := writeJSON(l.path, l.entries); err != nil {
		l.entries = prev
		return model.ActivityEntry{}, err
	}
	return entry, nil
}

// List returns up to limit entries, newest first. Ordering is by
// timestamp descending with ties broken by insertion order descending.
// A non-positive limit means DefaultActivityLimit.
func (l *ActivityLog) List(limit int) []model.ActivityEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	// Reverse insertion order first so the stable sort leaves
	// same-timestamp entries newest-inserted first.
	out := make([]model.ActivityEntry, 0, len(l.entries))
	for i := len(l.entries) - 1; i >= 0; i-- {
		out = append(out, l.entries[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Clear removes all entries. Confirmation is the caller's concern.
func (l *ActivityLog) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev := l.entries
	l.entries = nil
	if err := writeJSON(l.path, []model.ActivityEntry{}); err != nil {
		l.entries = prev
		return err
	}
	return nil
}

// Len returns the number of retained entries.
func (l *ActivityLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
