package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const insertContactSQL = `INSERT OR REPLACE INTO contacts
    (contact_id, first_name, last_name, phone_number, created_at, updated_at)
    VALUES (?, ?, ?, ?, ?, ?)`

// loadContacts replaces the contents of the contacts table with records.
// Loading is transactional: either every usable record is loaded or the
// table is left as it was. Malformed records and records without an ID
// are skipped; unknown fields are ignored. A later line with the same ID
// replaces an earlier one.
func loadContacts(ctx context.Context, db *sql.DB, records []json.RawMessage) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM contacts"); err != nil {
		return 0, fmt.Errorf("clearing contacts: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertContactSQL)
	if err != nil {
		return 0, fmt.Errorf("preparing contact insert: %w", err)
	}
	defer stmt.Close()

	now := formatTime(time.Now())
	loaded := 0
	for _, rec := range records {
		var c contactJSON
		if err := json.Unmarshal(rec, &c); err != nil {
			continue
		}
		if c.ContactID == "" {
			continue
		}
		c.CreatedAt = normalizeTimestamp(c.CreatedAt, now)
		c.UpdatedAt = normalizeTimestamp(c.UpdatedAt, c.CreatedAt)
		if _, err := stmt.ExecContext(ctx,
			c.ContactID, c.FirstName, c.LastName, c.PhoneNumber, c.CreatedAt, c.UpdatedAt,
		); err != nil {
			continue
		}
		loaded++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing load transaction: %w", err)
	}
	return loaded, nil
}

// normalizeTimestamp returns s when it parses as RFC 3339 and fallback
// otherwise, so hand-edited files cannot break hydration.
func normalizeTimestamp(s, fallback string) string {
	if _, err := time.Parse(time.RFC3339, s); err != nil {
		return fallback
	}
	return s
}
