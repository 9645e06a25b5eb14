package store

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"agentbook/internal/clock"
	appLog "agentbook/internal/log"
	"agentbook/internal/model"
)

const meetingsFile = "meetings.json"

// MeetingStore owns the meeting collection. It is the sole writer of
// ReminderSent / LastReminderSent; every mutation is persisted before it
// is considered done, and a failed write rolls the in-memory view back
// so memory and disk never diverge silently.
type MeetingStore struct {
	mu       sync.Mutex
	path     string
	clk      clock.Clock
	meetings []model.Meeting
}

// NewMeetingStore loads meetings.json from dataDir. Missing or corrupt
// data degrades to an empty collection.
func NewMeetingStore(dataDir string, clk clock.Clock) *MeetingStore {
	if clk == nil {
		clk = clock.System{}
	}
	s := &MeetingStore{
		path: filepath.Join(dataDir, meetingsFile),
		clk:  clk,
	}
	if err := readJSON(s.path, &s.meetings); err != nil {
		if !missing(err) {
			appLog.Warn("meetings collection unreadable, starting empty", "path", s.path, "reason", err)
		}
		s.meetings = nil
	}
	return s
}

// Create stores a new meeting. A missing id is assigned, a missing
// status defaults to pending, and ReminderSent always starts false
// regardless of the input.
func (s *MeetingStore) Create(m model.Meeting) (model.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Status == "" {
		m.Status = model.StatusPending
	}
	if !m.Status.Valid() {
		return model.Meeting{}, fmt.Errorf("store: invalid meeting status %q", m.Status)
	}
	m.ReminderSent = false
	m.LastReminderSent = nil
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.clk.Now()
	}

	s.meetings = append(s.meetings, m)
	if err := s.persistLocked(); err != nil {
		s.meetings = s.meetings[:len(s.meetings)-1]
		return model.Meeting{}, err
	}
	return m, nil
}

// Get returns the meeting with the given id.
func (s *MeetingStore) Get(id string) (model.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.Meeting{}, ErrNotFound
	}
	return s.meetings[i], nil
}

// List returns all meetings sorted by date then time (the agenda
// ordering of the meetings view).
func (s *MeetingStore) List() []model.Meeting {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Meeting, len(s.meetings))
	copy(out, s.meetings)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out
}

// ListOn returns meetings on the given calendar date ("YYYY-MM-DD"),
// sorted by time.
func (s *MeetingStore) ListOn(date string) []model.Meeting {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Meeting
	for _, m := range s.meetings {
		if m.Date == date {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// FindDueForReminder returns confirmed meetings on targetDate that have
// not been reminded yet. Order follows insertion order; callers must
// not rely on it.
func (s *MeetingStore) FindDueForReminder(targetDate string) []model.Meeting {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []model.Meeting
	for _, m := range s.meetings {
		if m.Date == targetDate && !m.ReminderSent && m.Status == model.StatusConfirmed {
			due = append(due, m)
		}
	}
	return due
}

// MarkReminderSent records a successful reminder delivery. The first
// call sets ReminderSent and LastReminderSent; repeated calls are
// no-ops, so the operation is safe to retry. Unknown ids return
// ErrNotFound.
func (s *MeetingStore) MarkReminderSent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return ErrNotFound
	}
	if s.meetings[i].ReminderSent {
		return nil
	}

	prev := s.meetings[i]
	now := s.clk.Now()
	s.meetings[i].ReminderSent = true
	s.meetings[i].LastReminderSent = &now
	if err := s.persistLocked(); err != nil {
		s.meetings[i] = prev
		return err
	}
	return nil
}

// Update applies a partial patch to a meeting and returns the stored
// result. ReminderSent cannot be patched.
func (s *MeetingStore) Update(id string, patch model.MeetingPatch) (model.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.Meeting{}, ErrNotFound
	}

	prev := s.meetings[i]
	m := prev
	if patch.ClientName != nil {
		m.ClientName = *patch.ClientName
	}
	if patch.Phone != nil {
		m.Phone = *patch.Phone
	}
	if patch.Address != nil {
		m.Address = *patch.Address
	}
	if patch.Date != nil {
		m.Date = *patch.Date
	}
	if patch.Time != nil {
		m.Time = *patch.Time
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return model.Meeting{}, fmt.Errorf("store: invalid meeting status %q", *patch.Status)
		}
		m.Status = *patch.Status
	}

	s.meetings[i] = m
	if err := s.persistLocked(); err != nil {
		s.meetings[i] = prev
		return model.Meeting{}, err
	}
	return m, nil
}

// Delete removes a meeting.
func (s *MeetingStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return ErrNotFound
	}

	prev := s.meetings
	s.meetings = append(append([]model.Meeting(nil), s.meetings[:i]...), s.meetings[i+1:]...)
	if err := s.persistLocked(); err != nil {
		s.meetings = prev
		return err
	}
	return nil
}

// Count returns the number of stored meetings.
func (s *MeetingStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.meetings)
}

func (s *MeetingStore) indexLocked(id string) int {
	for i, m := range s.meetings {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (s *MeetingStore) persistLocked() error {
	return writeJSON(s.path, s.meetings)
}
