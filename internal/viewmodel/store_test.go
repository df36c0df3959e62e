package viewmodel

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/mesh-intelligence/contactbook/internal/live"
	"github.com/mesh-intelligence/contactbook/pkg/types"
)

// fakeStore is an in-memory ContactStore that records every call and
// tracks how many live queries are open at once.
type fakeStore struct {
	mu        sync.Mutex
	contacts  map[string]types.Contact
	seq       int
	active    int
	maxActive int
	opened    []types.SortCriterion
	upserts   []types.Contact
	deletes   []types.Contact

	queryErr  error
	upsertErr error
	gate      chan struct{} // holds Upsert until closed
	queryGate chan struct{} // holds the first listing until closed

	changes *live.Cell[uint64]
}

func newFakeStore(seed ...types.Contact) *fakeStore {
	s := &fakeStore{
		contacts: make(map[string]types.Contact),
		changes:  live.NewCell[uint64](0, live.Equal[uint64]),
	}
	for _, c := range seed {
		if c.ContactID == "" {
			s.seq++
			c.ContactID = fmt.Sprintf("seed-%02d", s.seq)
		}
		s.contacts[c.ContactID] = c
	}
	return s
}

func (s *fakeStore) QueryOrderedBy(ctx context.Context, criterion types.SortCriterion) <-chan types.QueryResult {
	s.mu.Lock()
	s.active++
	s.maxActive = max(s.maxActive, s.active)
	s.opened = append(s.opened, criterion)
	fail, gate := s.queryErr, s.queryGate
	s.mu.Unlock()

	out := make(chan types.QueryResult, 1)
	go func() {
		defer close(out)
		defer func() {
			s.mu.Lock()
			s.active--
			s.mu.Unlock()
		}()

		if gate != nil {
			select {
			case <-gate:
			case <-ctx.Done():
				return
			}
		}
		if fail != nil {
			out <- types.QueryResult{Err: fail}
			return
		}
		for range s.changes.Observe(ctx) {
			r := types.QueryResult{Contacts: s.list(criterion)}
			select {
			case <-out:
			default:
			}
			out <- r
		}
	}()
	return out
}

func (s *fakeStore) list(criterion types.SortCriterion) []types.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := func(c types.Contact) string {
		switch criterion {
		case types.ByFirstName:
			return c.FirstName
		case types.ByLastName:
			return c.LastName
		default:
			return c.PhoneNumber
		}
	}
	out := make([]types.Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b types.Contact) int {
		return cmp.Or(cmp.Compare(key(a), key(b)), cmp.Compare(a.ContactID, b.ContactID))
	})
	return out
}

func (s *fakeStore) Upsert(ctx context.Context, c types.Contact) (string, error) {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	s.mu.Lock()
	s.upserts = append(s.upserts, c)
	if s.upsertErr != nil {
		s.mu.Unlock()
		return "", s.upsertErr
	}
	if c.ContactID == "" {
		s.seq++
		c.ContactID = fmt.Sprintf("id-%02d", s.seq)
	}
	s.contacts[c.ContactID] = c
	s.mu.Unlock()

	s.changes.Update(func(v uint64) uint64 { return v + 1 })
	return c.ContactID, nil
}

func (s *fakeStore) Delete(_ context.Context, c types.Contact) error {
	s.mu.Lock()
	s.deletes = append(s.deletes, c)
	_, ok := s.contacts[c.ContactID]
	delete(s.contacts, c.ContactID)
	s.mu.Unlock()

	if ok {
		s.changes.Update(func(v uint64) uint64 { return v + 1 })
	}
	return nil
}

func (s *fakeStore) stats() (active, maxActive, queries int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.maxActive, len(s.opened)
}

func (s *fakeStore) lastOpened() types.SortCriterion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened[len(s.opened)-1]
}

func (s *fakeStore) upserted() []types.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.upserts)
}

func (s *fakeStore) deleted() []types.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.deletes)
}
