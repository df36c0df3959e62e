package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDraftComplete(t *testing.T) {
	tests := []struct {
		name  string
		draft Draft
		want  bool
	}{
		{"all set", Draft{FirstName: "Ada", LastName: "Lovelace", PhoneNumber: "555"}, true},
		{"empty first", Draft{FirstName: "", LastName: "Lovelace", PhoneNumber: "555"}, false},
		{"space last", Draft{FirstName: "Ada", LastName: " ", PhoneNumber: "555"}, false},
		{"tab phone", Draft{FirstName: "Ada", LastName: "Lovelace", PhoneNumber: "\t"}, false},
		{"padded values count", Draft{FirstName: " Ada ", LastName: "L", PhoneNumber: " 1"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.draft.Complete())
			assert.Equal(t, !tt.want, tt.draft.Contact().IsBlank())
		})
	}
}

func TestDraftContactKeepsRawText(t *testing.T) {
	d := Draft{FirstName: " Ada ", LastName: "Lovelace", PhoneNumber: "555", IsAddingContact: true}
	c := d.Contact()
	assert.Equal(t, " Ada ", c.FirstName)
	assert.Empty(t, c.ContactID)
	assert.Equal(t, "Ada Lovelace", c.FullName())
}

func TestViewStateDraftRoundTrip(t *testing.T) {
	d := Draft{FirstName: "a", LastName: "b", PhoneNumber: "c", IsAddingContact: true}
	vs := NewViewState(d, ByLastName, nil, nil)
	assert.Equal(t, d, vs.Draft())
	assert.Equal(t, ByLastName, vs.SortCriterion)
}

func TestEventStrings(t *testing.T) {
	events := []Event{
		SetFirstName{Text: "a"},
		SetLastName{Text: "b"},
		SetPhoneNumber{Text: "c"},
		ShowDialog{},
		HideDialog{},
		SortContacts{Criterion: ByFirstName},
		SaveContact{},
		DeleteContact{Contact: Contact{ContactID: "x"}},
	}
	want := []string{
		`SetFirstName("a")`,
		`SetLastName("b")`,
		`SetPhoneNumber("c")`,
		"ShowDialog",
		"HideDialog",
		"SortContacts(first_name)",
		"SaveContact",
		"DeleteContact(x)",
	}
	for i, e := range events {
		assert.Equal(t, want[i], e.String())
	}
}
