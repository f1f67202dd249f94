package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_Evaluate(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		name      string
		res       TurnResult
		turnCount int
		want      Decision
	}{
		{
			name:      "booking question keeps going",
			res:       TurnResult{NextQuestion: BookingQuestion, Urgency: UrgencyAppointmentNeeded},
			turnCount: 4,
			want:      Decision{ActionContinue, ReasonBookingQuestion},
		},
		{
			name: "urgent completes",
			res:  TurnResult{NextQuestion: "Are you alone?", Urgency: UrgencyUrgent},
			want: Decision{ActionComplete, ReasonUrgent},
		},
		{
			name:      "turn cap beats appointment needed",
			res:       TurnResult{NextQuestion: "Any fever?", Urgency: UrgencyAppointmentNeeded},
			turnCount: 4,
			want:      Decision{ActionComplete, ReasonMaxTurns},
		},
		{
			name: "appointment needed offers booking",
			res:  TurnResult{NextQuestion: "Any fever?", Urgency: UrgencyAppointmentNeeded},
			want: Decision{ActionOfferBooking, ReasonAppointmentNeeded},
		},
		{
			name: "closing phrase completes",
			res:  TurnResult{NextQuestion: "Anything else?", Urgency: UrgencyNonUrgent, Outcome: "My assessment is a mild cold."},
			want: Decision{ActionComplete, ReasonClosingPhrase},
		},
		{
			name: "statement instead of question completes",
			res:  TurnResult{NextQuestion: "Rest well.  ", Urgency: UrgencyNonUrgent},
			want: Decision{ActionComplete, ReasonQuestionEnded},
		},
		{
			name:      "non-urgent question continues",
			res:       TurnResult{NextQuestion: "How long has it lasted? ", Urgency: UrgencyNonUrgent},
			turnCount: 3,
			want:      Decision{ActionContinue, ReasonAskingQuestions},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Evaluate(tt.res, tt.turnCount))
		})
	}
}

func TestPolicy_ZeroMaxTurnsUsesDefault(t *testing.T) {
	got := Policy{}.Evaluate(TurnResult{NextQuestion: "Any fever?", Urgency: UrgencyNonUrgent}, MaxConversationTurns-1)
	assert.Equal(t, ReasonMaxTurns, got.Reason)
}

func TestParseUrgency(t *testing.T) {
	for in, want := range map[string]Urgency{
		"Urgent":             UrgencyUrgent,
		"non urgent":         UrgencyNonUrgent,
		"NON_URGENT":         UrgencyNonUrgent,
		"AppointmentNeeded":  UrgencyAppointmentNeeded,
		"appointment-needed": UrgencyAppointmentNeeded,
	} {
		got, ok := ParseUrgency(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseUrgency("critical")
	assert.False(t, ok)
}
