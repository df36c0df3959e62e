package sqlite

// contactJSON is one line of contacts.jsonl. Timestamps are RFC 3339
// strings, the same text stored in SQLite.
type contactJSON struct {
	ContactID   string `json:"contact_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}
