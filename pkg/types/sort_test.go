package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSortCriterion(t *testing.T) {
	tests := []struct {
		input string
		want  SortCriterion
	}{
		{"first_name", ByFirstName},
		{"first", ByFirstName},
		{"FIRST-NAME", ByFirstName},
		{"BY_FIRST_NAME", ByFirstName},
		{"last", ByLastName},
		{" LastName ", ByLastName},
		{"phone", ByPhoneNumber},
		{"phone_number", ByPhoneNumber},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSortCriterion(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseSortCriterion("email")
	assert.ErrorIs(t, err, ErrInvalidSortCriterion)
}

func TestSortCriterionDefault(t *testing.T) {
	var zero SortCriterion
	assert.Equal(t, ByPhoneNumber, zero)
	assert.Equal(t, DefaultSortCriterion, zero)
	assert.Equal(t, "phone_number", zero.String())
}

func TestSortCriterionJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Sort SortCriterion `json:"sort"`
	}{ByLastName})
	require.NoError(t, err)
	assert.JSONEq(t, `{"sort":"last_name"}`, string(data))

	var got struct {
		Sort SortCriterion `json:"sort"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"sort":"first"}`), &got))
	assert.Equal(t, ByFirstName, got.Sort)

	_, err = json.Marshal(SortCriterion(42))
	assert.Error(t, err)
	assert.Equal(t, "unknown", SortCriterion(42).String())
	assert.False(t, SortCriterion(42).Valid())
}
