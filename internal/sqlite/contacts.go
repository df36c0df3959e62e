// This file implements the contact accessors of the SQLite backend:
// ordered listing, lookup by ID, upsert and delete, and the rewrite of
// contacts.jsonl after a mutation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/contactbook/pkg/types"
)

const selectContactColumns = `SELECT contact_id, first_name, last_name, phone_number, created_at, updated_at FROM contacts`

// orderColumns maps a criterion to its ORDER BY clause. contact_id breaks
// ties so listings are deterministic.
var orderColumns = map[types.SortCriterion]string{
	types.ByFirstName:   "first_name ASC, contact_id ASC",
	types.ByLastName:    "last_name ASC, contact_id ASC",
	types.ByPhoneNumber: "phone_number ASC, contact_id ASC",
}

// formatTime renders a timestamp the way it is stored in SQLite and JSONL.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime reads a stored timestamp. Unparseable text yields the zero time.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// hydrateContact converts one row into a types.Contact.
func hydrateContact(row rowScanner) (types.Contact, error) {
	var (
		c                    types.Contact
		createdAt, updatedAt string
	)
	if err := row.Scan(&c.ContactID, &c.FirstName, &c.LastName, &c.PhoneNumber, &createdAt, &updatedAt); err != nil {
		return types.Contact{}, err
	}
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return c, nil
}

// dehydrateContact converts a contact into its JSONL form.
func dehydrateContact(c types.Contact) contactJSON {
	return contactJSON{
		ContactID:   c.ContactID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		PhoneNumber: c.PhoneNumber,
		CreatedAt:   formatTime(c.CreatedAt),
		UpdatedAt:   formatTime(c.UpdatedAt),
	}
}

// List returns every contact ordered by criterion, ties broken by ID.
// An empty store yields an empty, non-nil slice.
func (b *Backend) List(ctx context.Context, criterion types.SortCriterion) ([]types.Contact, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.listLocked(ctx, criterion)
}

// listLocked runs the ordered query. The caller must hold b.mu.
func (b *Backend) listLocked(ctx context.Context, criterion types.SortCriterion) ([]types.Contact, error) {
	order, ok := orderColumns[criterion]
	if !ok {
		return nil, types.ErrInvalidSortCriterion
	}

	rows, err := b.db.QueryContext(ctx, selectContactColumns+" ORDER BY "+order)
	if err != nil {
		return nil, fmt.Errorf("querying contacts: %w", err)
	}
	defer rows.Close()

	contacts := []types.Contact{}
	for rows.Next() {
		c, err := hydrateContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating contacts: %w", err)
	}
	return contacts, nil
}

// Get returns the contact with the given ID.
func (b *Backend) Get(ctx context.Context, id string) (types.Contact, error) {
	if id == "" {
		return types.Contact{}, types.ErrInvalidID
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.Contact{}, types.ErrDetached
	}

	row := b.db.QueryRowContext(ctx, selectContactColumns+" WHERE contact_id = ?", id)
	c, err := hydrateContact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Contact{}, types.ErrNotFound
		}
		return types.Contact{}, fmt.Errorf("getting contact %s: %w", id, err)
	}
	return c, nil
}

// Upsert inserts the contact or replaces the stored one with the same ID.
// An empty ContactID gets a new UUID v7. Replacing keeps the original
// created_at. Live queries are notified once the row is committed; a
// failure to write contacts.jsonl afterwards is returned but does not undo
// the change.
func (b *Backend) Upsert(ctx context.Context, contact types.Contact) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return "", types.ErrDetached
	}

	if contact.ContactID == "" {
		newID, err := uuid.NewV7()
		if err != nil {
			return "", fmt.Errorf("generating UUID v7: %w", err)
		}
		contact.ContactID = newID.String()
	}

	now := formatTime(time.Now())
	_, err := b.db.ExecContext(ctx, `INSERT INTO contacts
    (contact_id, first_name, last_name, phone_number, created_at, updated_at)
    VALUES (?, ?, ?, ?, ?, ?)
    ON CONFLICT(contact_id) DO UPDATE SET
        first_name = excluded.first_name,
        last_name = excluded.last_name,
        phone_number = excluded.phone_number,
        updated_at = excluded.updated_at`,
		contact.ContactID, contact.FirstName, contact.LastName, contact.PhoneNumber, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("upserting contact %s: %w", contact.ContactID, err)
	}

	b.log.Debug("contact upserted", zap.String("contact_id", contact.ContactID))
	b.notifyLocked()

	if err := b.persistLocked(); err != nil {
		return contact.ContactID, fmt.Errorf("persisting %s: %w", contactsJSONL, err)
	}
	return contact.ContactID, nil
}

// Delete removes the contact with contact.ContactID. Deleting an unknown
// ID succeeds and notifies no one.
func (b *Backend) Delete(ctx context.Context, contact types.Contact) error {
	if contact.ContactID == "" {
		return types.ErrInvalidID
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}

	res, err := b.db.ExecContext(ctx, "DELETE FROM contacts WHERE contact_id = ?", contact.ContactID)
	if err != nil {
		return fmt.Errorf("deleting contact %s: %w", contact.ContactID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting contact %s: %w", contact.ContactID, err)
	}
	if n == 0 {
		return nil
	}

	b.log.Debug("contact deleted", zap.String("contact_id", contact.ContactID))
	b.notifyLocked()

	if err := b.persistLocked(); err != nil {
		return fmt.Errorf("persisting %s: %w", contactsJSONL, err)
	}
	return nil
}

// writeContactsJSONLLocked rewrites contacts.jsonl from the contacts
// table in creation order. The caller must hold the b.mu write lock.
func (b *Backend) writeContactsJSONLLocked() error {
	rows, err := b.db.Query(selectContactColumns + " ORDER BY created_at ASC, contact_id ASC")
	if err != nil {
		return fmt.Errorf("querying contacts: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		c, err := hydrateContact(rows)
		if err != nil {
			return fmt.Errorf("scanning contact: %w", err)
		}
		rec, err := json.Marshal(dehydrateContact(c))
		if err != nil {
			return fmt.Errorf("marshaling contact %s: %w", c.ContactID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating contacts: %w", err)
	}

	path := filepath.Join(b.config.DataDir, contactsJSONL)
	if err := writeJSONL(path, records); err != nil {
		return err
	}
	b.lastDigest = recordsDigest(records)
	return nil
}
