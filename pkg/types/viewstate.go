package types

// Draft is the unsaved form input held by the view model, plus the
// visibility of the add-contact dialog.
type Draft struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	PhoneNumber     string `json:"phone_number"`
	IsAddingContact bool   `json:"is_adding_contact"`
}

// Complete reports whether every text field holds non-blank input.
func (d Draft) Complete() bool {
	return !isBlank(d.FirstName) && !isBlank(d.LastName) && !isBlank(d.PhoneNumber)
}

// Contact builds a new, unsaved contact from the raw draft fields.
func (d Draft) Contact() Contact {
	return Contact{
		FirstName:   d.FirstName,
		LastName:    d.LastName,
		PhoneNumber: d.PhoneNumber,
	}
}

// ViewState is one consistent snapshot handed to the presentation layer.
// Contacts is ordered by the store and must be treated as read-only.
type ViewState struct {
	Contacts        []Contact     `json:"contacts"`
	SortCriterion   SortCriterion `json:"sort_criterion"`
	FirstName       string        `json:"first_name"`
	LastName        string        `json:"last_name"`
	PhoneNumber     string        `json:"phone_number"`
	IsAddingContact bool          `json:"is_adding_contact"`

	// Err holds the last store query failure; nil while the live
	// listing is healthy.
	Err error `json:"-"`
}

// NewViewState composes a snapshot from the latest value of each input.
func NewViewState(d Draft, criterion SortCriterion, contacts []Contact, err error) ViewState {
	return ViewState{
		Contacts:        contacts,
		SortCriterion:   criterion,
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		PhoneNumber:     d.PhoneNumber,
		IsAddingContact: d.IsAddingContact,
		Err:             err,
	}
}

// Draft returns the form part of the snapshot.
func (v ViewState) Draft() Draft {
	return Draft{
		FirstName:       v.FirstName,
		LastName:        v.LastName,
		PhoneNumber:     v.PhoneNumber,
		IsAddingContact: v.IsAddingContact,
	}
}
