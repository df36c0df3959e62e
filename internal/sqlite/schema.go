package sqlite

// Schema DDL. SQLite is rebuilt from contacts.jsonl on every Attach, so
// there are no migrations.
const (
	createContacts = `CREATE TABLE contacts (
    contact_id TEXT PRIMARY KEY,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    phone_number TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	idxContactsFirstName   = `CREATE INDEX idx_contacts_first_name ON contacts(first_name, contact_id);`
	idxContactsLastName    = `CREATE INDEX idx_contacts_last_name ON contacts(last_name, contact_id);`
	idxContactsPhoneNumber = `CREATE INDEX idx_contacts_phone_number ON contacts(phone_number, contact_id);`
)

// schemaDDL lists every statement run on a fresh database, in order.
var schemaDDL = []string{
	createContacts,
	idxContactsFirstName,
	idxContactsLastName,
	idxContactsPhoneNumber,
}
