package collision

import (
	"cmp"
	"slices"
	"sync"
)

// Contact is a pair of overlapping entities. A is always the lowest id.
type Contact struct {
	A int `json:"a"`
	B int `json:"b"`
}

func newContact(a, b int) Contact {
	if b < a {
		a, b = b, a
	}
	return Contact{A: a, B: b}
}

// State represents a state that keeps track of the contacts found on the last
// frame.
type State struct {
	mutex    sync.RWMutex
	contacts map[Contact]struct{}
}

// Replace sets the current contacts and returns the ones that began and ended
// since the previous call.
func (s *State) Replace(contacts map[Contact]struct{}) (began, ended []Contact) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for c := range contacts {
		if _, ok := s.contacts[c]; !ok {
			began = append(began, c)
		}
	}

	for c := range s.contacts {
		if _, ok := contacts[c]; !ok {
			ended = append(ended, c)
		}
	}

	s.contacts = contacts
	sortContacts(began)
	sortContacts(ended)
	return began, ended
}

func (s *State) InContact(a, b int) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	_, ok := s.contacts[newContact(a, b)]
	return ok
}

// Contacts returns the current contacts, ordered by ids.
func (s *State) Contacts() []Contact {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	contacts := make([]Contact, 0, len(s.contacts))
	for c := range s.contacts {
		contacts = append(contacts, c)
	}

	sortContacts(contacts)
	return contacts
}

func sortContacts(contacts []Contact) {
	slices.SortFunc(contacts, func(a, b Contact) int {
		if c := cmp.Compare(a.A, b.A); c != 0 {
			return c
		}
		return cmp.Compare(a.B, b.B)
	})
}
