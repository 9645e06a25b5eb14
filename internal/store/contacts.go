package store

import (
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"agentbook/internal/clock"
	appLog "agentbook/internal/log"
	"agentbook/internal/model"
)

const contactsFile = "contacts.json"

// ContactStore owns the contact collection. Meetings reference contacts
// by id only; deleting a contact never cascades.
type ContactStore struct {
	mu       sync.Mutex
	path     string
	clk      clock.Clock
	contacts []model.Contact
}

// NewContactStore loads contacts.json from dataDir. Missing or corrupt
// data degrades to an empty collection.
func NewContactStore(dataDir string, clk clock.Clock) *ContactStore {
	if clk == nil {
		clk = clock.System{}
	}
	s := &ContactStore{
		path: filepath.Join(dataDir, contactsFile),
		clk:  clk,
	}
	if err := readJSON(s.path, &s.contacts); err != nil {
		if !missing(err) {
			appLog.Warn("contacts collection unreadable, starting empty", "path", s.path, "reason", err)
		}
		s.contacts = nil
	}
	return s
}

// Create stores a new contact, assigning an id when absent.
func (s *ContactStore) Create(c model.Contact) (model.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.clk.Now()
	}

	s.contacts = append(s.contacts, c)
	if err := writeJSON(s.path, s.contacts); err != nil {
		s.contacts = s.contacts[:len(s.contacts)-1]
		return model.Contact{}, err
	}
	return c, nil
}

// Get returns the contact with the given id.
func (s *ContactStore) Get(id string) (model.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.contacts {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Contact{}, ErrNotFound
}

// List returns all contacts in insertion order.
func (s *ContactStore) List() []model.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Contact, len(s.contacts))
	copy(out, s.contacts)
	return out
}

// Delete removes a contact.
func (s *ContactStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.contacts {
		if c.ID == id {
			prev := s.contacts
			s.contacts = append(append([]model.Contact(nil), s.contacts[:i]...), s.contacts[i+1:]...)
			if err := writeJSON(s.path, s.contacts); err != nil {
				s.contacts = prev
				return err
			}
			return nil
		}
	}
	return ErrNotFound
}

// Count returns the number of stored contacts.
func (s *ContactStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.contacts)
}
