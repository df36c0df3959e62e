package types

import (
	"strings"
	"time"
)

// Contact is a stored address book entry. ContactID is assigned by the
// store on first upsert; a contact is only ever replaced whole or deleted.
type Contact struct {
	ContactID   string    `json:"contact_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsBlank reports whether any of the three text fields is empty or
// whitespace only. Stored contacts may be blank; new ones may not.
func (c Contact) IsBlank() bool {
	return isBlank(c.FirstName) || isBlank(c.LastName) || isBlank(c.PhoneNumber)
}

// FullName joins first and last name with a single space.
func (c Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
