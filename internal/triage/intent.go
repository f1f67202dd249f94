package triage

import (
	"regexp"
	"strings"
)

// Intent is the user's answer to the booking question.
type Intent int

const (
	IntentContinue Intent = iota
	IntentAccept
	IntentDecline
)

func (i Intent) String() string {
	switch i {
	case IntentAccept:
		return "accept"
	case IntentDecline:
		return "decline"
	default:
		return "continue"
	}
}

var (
	acceptRe  = regexp.MustCompile(`\b(help schedule|schedule|book)`)
	declineRe = regexp.MustCompile(`\b(i'll|i will|ill) manage (it|this)`)
	negations = map[string]struct{}{
		"no": {}, "not": {}, "don't": {}, "dont": {}, "never": {}, "won't": {},
		"wont": {}, "without": {}, "didn't": {}, "cannot": {}, "can't": {}, "rather": {},
	}
)

// DetectIntent classifies a user turn. A booking quick-reply ID is decisive.
// Free text is matched only when booking is in context: an earlier turn
// reported Appointment Needed or the text equals an offered quick reply.
func DetectIntent(sess *Session, text, replyID string) Intent {
	switch replyID {
	case QuickReplyAccept:
		return IntentAccept
	case QuickReplyDecline:
		return IntentDecline
	}

	if !sess.AppointmentFlagged && !sess.offersReply(text) {
		return IntentContinue
	}

	lower := normalizeApostrophes(strings.ToLower(text))
	if declineRe.MatchString(lower) {
		return IntentDecline
	}
	if loc := acceptRe.FindStringIndex(lower); loc != nil && !negatedBefore(lower[:loc[0]]) {
		return IntentAccept
	}
	return IntentContinue
}

// negatedBefore looks for a negation among the three words preceding a keyword.
func negatedBefore(prefix string) bool {
	words := strings.FieldsFunc(prefix, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == ';'
	})
	start := len(words) - 3
	if start < 0 {
		start = 0
	}
	for _, w := range words[start:] {
		if _, ok := negations[w]; ok {
			return true
		}
	}
	return false
}

func normalizeApostrophes(s string) string {
	return strings.ReplaceAll(s, "’", "'")
}
