package booking

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrEmptyEmail   = errors.New("booking: email is required")
	ErrInvalidEmail = errors.New("booking: no valid email address found")
)

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	// Separators that are dropped: "alice@x.com for Friday", "alice@x.com, Friday".
	consumedSepRe = regexp.MustCompile(`(?i)^\s*(?:,\s*|(?:for|on|around)\s+)(.*)$`)
	// Separators that start the date phrase itself: "alice@x.com next Tuesday".
	keptSepRe = regexp.MustCompile(`(?i)^\s+((?:next|tomorrow)\b.*)$`)
)

// Contact is the result of splitting the email-collection line.
type Contact struct {
	Email         string
	PreferredDate string
}

// ParseContact separates an email address from an optional date/time
// preference typed on the same line. PreferredDate is empty when nothing but
// the address was given.
func ParseContact(raw string) (Contact, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Contact{}, ErrEmptyEmail
	}

	loc := emailRe.FindStringIndex(raw)
	if loc == nil {
		return Contact{}, ErrInvalidEmail
	}
	contact := Contact{Email: raw[loc[0]:loc[1]]}
	before, after := raw[:loc[0]], raw[loc[1]:]

	if strings.TrimSpace(before) == "" {
		if m := consumedSepRe.FindStringSubmatch(after); m != nil {
			contact.PreferredDate = cleanDate(m[1])
			return contact, nil
		}
		if m := keptSepRe.FindStringSubmatch(after); m != nil {
			contact.PreferredDate = cleanDate(m[1])
			return contact, nil
		}
	}

	contact.PreferredDate = cleanDate(before + " " + after)
	return contact, nil
}

func cleanDate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, " ,.;:-")
}
