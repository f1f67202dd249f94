package triage

import "strings"

// MaxConversationTurns bounds the number of invoker-backed user turns.
const MaxConversationTurns = 5

type Action int

const (
	ActionContinue Action = iota
	ActionComplete
	ActionOfferBooking
)

// Termination reasons, also used as metric labels.
const (
	ReasonBookingQuestion   = "booking_question"
	ReasonUrgent            = "urgent"
	ReasonMaxTurns          = "max_turns"
	ReasonAppointmentNeeded = "appointment_needed"
	ReasonClosingPhrase     = "closing_phrase"
	ReasonQuestionEnded     = "question_ended"
	ReasonAskingQuestions   = "asking"
	ReasonSelfManaged       = "self_managed"
)

type Decision struct {
	Action Action
	Reason string
}

var (
	bookingQuestionKeywords = []string{"schedule", "book", "assistance", "manage this yourself"}
	closingPhrases          = []string{"seek immediate medical attention", "final recommendation", "my assessment is"}
)

// Policy decides after every invoker-backed turn whether questioning goes on.
type Policy struct {
	MaxTurns int
}

func DefaultPolicy() Policy {
	return Policy{MaxTurns: MaxConversationTurns}
}

// Evaluate applies the termination rules in precedence order. turnCount is
// the number of completed turns before the one that produced res.
func (p Policy) Evaluate(res TurnResult, turnCount int) Decision {
	maxTurns := p.MaxTurns
	if maxTurns <= 0 {
		maxTurns = MaxConversationTurns
	}

	switch {
	case res.Urgency == UrgencyAppointmentNeeded && IsBookingQuestion(res.NextQuestion):
		return Decision{Action: ActionContinue, Reason: ReasonBookingQuestion}
	case res.Urgency == UrgencyUrgent:
		return Decision{Action: ActionComplete, Reason: ReasonUrgent}
	case turnCount+1 >= maxTurns:
		return Decision{Action: ActionComplete, Reason: ReasonMaxTurns}
	case res.Urgency == UrgencyAppointmentNeeded:
		return Decision{Action: ActionOfferBooking, Reason: ReasonAppointmentNeeded}
	case HasClosingPhrase(res.Outcome):
		return Decision{Action: ActionComplete, Reason: ReasonClosingPhrase}
	case !strings.HasSuffix(strings.TrimSpace(res.NextQuestion), "?"):
		return Decision{Action: ActionComplete, Reason: ReasonQuestionEnded}
	}
	return Decision{Action: ActionContinue, Reason: ReasonAskingQuestions}
}

// IsBookingQuestion reports whether the AI is asking about booking help.
func IsBookingQuestion(question string) bool {
	return containsAny(strings.ToLower(question), bookingQuestionKeywords)
}

func HasClosingPhrase(outcome string) bool {
	return containsAny(strings.ToLower(outcome), closingPhrases)
}

// isImmediateCare is the first-turn check for outcomes that demand urgent care.
func isImmediateCare(res TurnResult) bool {
	return res.Urgency == UrgencyUrgent || strings.Contains(strings.ToLower(res.Outcome), closingPhrases[0])
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
