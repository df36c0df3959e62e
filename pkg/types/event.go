package types

import "fmt"

// Event is a user intent handled by the view model's Dispatch. The set of
// events is closed: only the types in this file implement it.
type Event interface {
	fmt.Stringer
	isEvent()
}

// SetFirstName replaces the first-name draft.
type SetFirstName struct{ Text string }

// SetLastName replaces the last-name draft.
type SetLastName struct{ Text string }

// SetPhoneNumber replaces the phone-number draft.
type SetPhoneNumber struct{ Text string }

// ShowDialog opens the add-contact dialog.
type ShowDialog struct{}

// HideDialog closes the add-contact dialog.
type HideDialog struct{}

// SortContacts changes the ordering of the live listing.
type SortContacts struct{ Criterion SortCriterion }

// SaveContact stores the draft as a new contact when every field is set.
type SaveContact struct{}

// DeleteContact removes a stored contact.
type DeleteContact struct{ Contact Contact }

func (SetFirstName) isEvent()   {}
func (SetLastName) isEvent()    {}
func (SetPhoneNumber) isEvent() {}
func (ShowDialog) isEvent()     {}
func (HideDialog) isEvent()     {}
func (SortContacts) isEvent()   {}
func (SaveContact) isEvent()    {}
func (DeleteContact) isEvent()  {}

func (e SetFirstName) String() string   { return fmt.Sprintf("SetFirstName(%q)", e.Text) }
func (e SetLastName) String() string    { return fmt.Sprintf("SetLastName(%q)", e.Text) }
func (e SetPhoneNumber) String() string { return fmt.Sprintf("SetPhoneNumber(%q)", e.Text) }
func (ShowDialog) String() string       { return "ShowDialog" }
func (HideDialog) String() string       { return "HideDialog" }
func (e SortContacts) String() string   { return "SortContacts(" + e.Criterion.String() + ")" }
func (SaveContact) String() string      { return "SaveContact" }
func (e DeleteContact) String() string  { return "DeleteContact(" + e.Contact.ContactID + ")" }
