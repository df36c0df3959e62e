package types

import (
	"context"
	"errors"
)

// QueryResult is one emission of a live query: the full ordered listing,
// or the error that ended the query.
type QueryResult struct {
	Contacts []Contact
	Err      error
}

// ContactStore is the record store the view model consumes.
type ContactStore interface {
	// QueryOrderedBy opens a live query. The returned channel receives the
	// ordered listing immediately and again after every committed
	// mutation. It is closed when ctx ends, the store detaches, or after a
	// result carrying a non-nil Err.
	QueryOrderedBy(ctx context.Context, criterion SortCriterion) <-chan QueryResult

	// Upsert inserts the contact, or replaces the stored contact with the
	// same ContactID. An empty ContactID gets a new UUID v7. Returns the
	// ID used.
	Upsert(ctx context.Context, contact Contact) (string, error)

	// Delete removes the contact with contact.ContactID. Deleting an ID
	// the store does not know succeeds without effect.
	Delete(ctx context.Context, contact Contact) error
}

// Backend is a ContactStore with an attach/detach lifecycle and direct
// reads. Callers attach to a data directory, use the store, and detach
// when done.
type Backend interface {
	ContactStore

	// Attach connects the backend to the data directory described by
	// config, creating it when missing. Returns ErrAlreadyAttached when
	// called twice.
	Attach(config Config) error

	// Detach flushes pending writes, ends live queries and releases
	// resources. Idempotent. Operations after Detach return ErrDetached.
	Detach() error

	// Get returns the contact with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (Contact, error)

	// List returns every contact ordered by criterion, ties broken by ID.
	List(ctx context.Context, criterion SortCriterion) ([]Contact, error)
}

// Backend lifecycle errors.
var (
	ErrDetached        = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Entity errors.
var (
	ErrNotFound  = errors.New("contact not found")
	ErrInvalidID = errors.New("invalid contact ID")
)
