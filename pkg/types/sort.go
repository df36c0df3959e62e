package types

import (
	"encoding/json"
	"errors"
	"strings"
)

// SortCriterion selects the field a contact listing is ordered by.
type SortCriterion int

// Sort criteria. The zero value orders by phone number, which is also
// the default for a new view model.
const (
	ByPhoneNumber SortCriterion = iota
	ByFirstName
	ByLastName
)

// DefaultSortCriterion is the criterion active before any SortContacts event.
const DefaultSortCriterion = ByPhoneNumber

// ErrInvalidSortCriterion is returned when text does not name a criterion.
var ErrInvalidSortCriterion = errors.New("invalid sort criterion")

// SortCriteria lists every criterion in display order.
var SortCriteria = []SortCriterion{ByFirstName, ByLastName, ByPhoneNumber}

var sortCriterionNames = map[SortCriterion]string{
	ByFirstName:   "first_name",
	ByLastName:    "last_name",
	ByPhoneNumber: "phone_number",
}

var sortCriterionAliases = map[string]SortCriterion{
	"first_name":      ByFirstName,
	"first":           ByFirstName,
	"firstname":       ByFirstName,
	"by_first_name":   ByFirstName,
	"last_name":       ByLastName,
	"last":            ByLastName,
	"lastname":        ByLastName,
	"by_last_name":    ByLastName,
	"phone_number":    ByPhoneNumber,
	"phone":           ByPhoneNumber,
	"phonenumber":     ByPhoneNumber,
	"by_phone_number": ByPhoneNumber,
}

// String returns the canonical text form, e.g. "first_name".
func (s SortCriterion) String() string {
	if name, ok := sortCriterionNames[s]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether s is one of the defined criteria.
func (s SortCriterion) Valid() bool {
	_, ok := sortCriterionNames[s]
	return ok
}

// ParseSortCriterion converts text such as "first", "LAST_NAME" or
// "phone_number" into a SortCriterion. Matching is case-insensitive.
func ParseSortCriterion(text string) (SortCriterion, error) {
	key := strings.ToLower(strings.TrimSpace(text))
	key = strings.ReplaceAll(key, "-", "_")
	if c, ok := sortCriterionAliases[key]; ok {
		return c, nil
	}
	return 0, ErrInvalidSortCriterion
}

// MarshalJSON encodes the canonical text form.
func (s SortCriterion) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, ErrInvalidSortCriterion
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts any text ParseSortCriterion accepts.
func (s *SortCriterion) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	c, err := ParseSortCriterion(text)
	if err != nil {
		return err
	}
	*s = c
	return nil
}
