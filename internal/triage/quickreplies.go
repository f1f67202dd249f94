package triage

import (
	"fmt"
	"strings"
)

const (
	maxQuickReplies = 4
	minQuickReplies = 2

	BookingQuestion     = "Would you like me to help schedule an appointment, or will you manage this yourself?"
	BookingAcceptLabel  = "Yes, help me schedule"
	BookingDeclineLabel = "No, I'll manage it"
)

// NormalizeQuickReplies trims, de-duplicates and caps the model's suggestions.
// Fewer than two usable replies means none are offered.
func NormalizeQuickReplies(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, r := range in {
		r = strings.TrimSpace(r)
		key := strings.ToLower(r)
		if r == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
		if len(out) == maxQuickReplies {
			break
		}
	}
	if len(out) < minQuickReplies {
		return nil
	}
	return out
}

// quickRepliesFor builds the offered replies for a turn result. Booking
// questions always carry the accept/decline options with structured IDs.
func quickRepliesFor(res TurnResult) []QuickReply {
	labels := res.QuickReplies
	if res.Urgency == UrgencyAppointmentNeeded && IsBookingQuestion(res.NextQuestion) {
		labels = withBookingOptions(labels)
	}
	labels = NormalizeQuickReplies(labels)

	out := make([]QuickReply, 0, len(labels))
	for i, label := range labels {
		out = append(out, QuickReply{ID: quickReplyID(label, i), Label: label})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func withBookingOptions(labels []string) []string {
	out := []string{BookingAcceptLabel, BookingDeclineLabel}
	for _, l := range labels {
		if bookingReplyID(l) == "" {
			out = append(out, l)
		}
	}
	return out
}

func quickReplyID(label string, idx int) string {
	if id := bookingReplyID(label); id != "" {
		return id
	}
	return fmt.Sprintf("reply:%d", idx)
}

func bookingReplyID(label string) string {
	label = normalizeApostrophes(strings.TrimSpace(label))
	switch {
	case strings.EqualFold(label, BookingAcceptLabel):
		return QuickReplyAccept
	case strings.EqualFold(label, BookingDeclineLabel):
		return QuickReplyDecline
	}
	return ""
}
