package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContact(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		email string
		date  string
	}{
		{name: "for separator", raw: "alice@example.com for next Tuesday morning", email: "alice@example.com", date: "next Tuesday morning"},
		{name: "bare email", raw: "  bob@x.com  ", email: "bob@x.com", date: ""},
		{name: "comma separator", raw: "carol@example.org, Friday afternoon", email: "carol@example.org", date: "Friday afternoon"},
		{name: "on separator", raw: "dan@example.com on March 3rd", email: "dan@example.com", date: "March 3rd"},
		{name: "around separator", raw: "erin@example.com around 3pm", email: "erin@example.com", date: "3pm"},
		{name: "tomorrow kept", raw: "frank@example.com tomorrow at 10", email: "frank@example.com", date: "tomorrow at 10"},
		{name: "next kept", raw: "gina@example.com next week", email: "gina@example.com", date: "next week"},
		{name: "fallback leftover", raw: "my email is hank@example.com thanks", email: "hank@example.com", date: "my email is thanks"},
		{name: "trailing period", raw: "ivy@example.com.", email: "ivy@example.com", date: ""},
		{name: "unknown word after", raw: "jay@example.com Monday", email: "jay@example.com", date: "Monday"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseContact(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.email, got.Email)
			assert.Equal(t, tt.date, got.PreferredDate)
		})
	}
}

func TestParseContact_DateNeverContainsEmail(t *testing.T) {
	got, err := ParseContact("alice@example.com for next Tuesday morning")
	require.NoError(t, err)
	assert.Contains(t, got.PreferredDate, "next Tuesday morning")
	assert.NotContains(t, got.PreferredDate, "alice@example.com")
}

func TestParseContact_Errors(t *testing.T) {
	_, err := ParseContact("   ")
	assert.ErrorIs(t, err, ErrEmptyEmail)

	_, err = ParseContact("next Tuesday please")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}
