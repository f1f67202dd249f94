package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectIntent(t *testing.T) {
	flagged := &Session{AppointmentFlagged: true}
	offered := &Session{QuickReplies: []QuickReply{{ID: "reply:0", Label: "Book an appointment"}}}
	plain := &Session{}

	tests := []struct {
		name    string
		sess    *Session
		text    string
		replyID string
		want    Intent
	}{
		{"accept id", plain, "", QuickReplyAccept, IntentAccept},
		{"decline id", plain, "", QuickReplyDecline, IntentDecline},
		{"schedule without context", plain, "Can I schedule something?", "", IntentContinue},
		{"schedule after appointment needed", flagged, "Please help schedule it", "", IntentAccept},
		{"book matches offered reply", offered, "book an appointment", "", IntentAccept},
		{"negated schedule", flagged, "I do not want to schedule anything", "", IntentContinue},
		{"won't book", flagged, "I won't book yet", "", IntentContinue},
		{"facebook is not book", flagged, "I saw it on facebook", "", IntentContinue},
		{"manage it", flagged, "Thanks, I'll manage it", "", IntentDecline},
		{"manage this curly apostrophe", flagged, "I’ll manage this myself", "", IntentDecline},
		{"decline wins over schedule", flagged, "No need to schedule, I will manage it", "", IntentDecline},
		{"decline before schedule", flagged, "I'll manage it, no need to schedule", "", IntentDecline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectIntent(tt.sess, tt.text, tt.replyID))
		})
	}
}

func TestNormalizeQuickReplies(t *testing.T) {
	assert.Equal(t, []string{"Yes", "No", "Maybe", "Not sure"},
		NormalizeQuickReplies([]string{" Yes ", "yes", "", "No", "Maybe", "Not sure", "Sometimes"}))
	assert.Nil(t, NormalizeQuickReplies([]string{"Okay", " okay "}))
	assert.Nil(t, NormalizeQuickReplies(nil))
}

func TestQuickRepliesFor_AddsBookingOptions(t *testing.T) {
	got := quickRepliesFor(TurnResult{
		NextQuestion: BookingQuestion,
		QuickReplies: []string{"Not sure"},
		Urgency:      UrgencyAppointmentNeeded,
	})

	assert.Equal(t, []QuickReply{
		{ID: QuickReplyAccept, Label: BookingAcceptLabel},
		{ID: QuickReplyDecline, Label: BookingDeclineLabel},
		{ID: "reply:2", Label: "Not sure"},
	}, got)
}

func TestQuickRepliesFor_KeepsModelBookingLabels(t *testing.T) {
	got := quickRepliesFor(TurnResult{
		NextQuestion: BookingQuestion,
		QuickReplies: []string{"yes, help me schedule", "No, I’ll manage it"},
		Urgency:      UrgencyAppointmentNeeded,
	})
	assert.Len(t, got, 2)
}

func TestQuickRepliesFor_PlainQuestion(t *testing.T) {
	got := quickRepliesFor(TurnResult{NextQuestion: "Any fever?", QuickReplies: []string{"Yes", "No"}, Urgency: UrgencyNonUrgent})
	assert.Equal(t, []QuickReply{{ID: "reply:0", Label: "Yes"}, {ID: "reply:1", Label: "No"}}, got)
	assert.Nil(t, quickRepliesFor(TurnResult{NextQuestion: "Any fever?", Urgency: UrgencyNonUrgent}))
}
