package triage

import (
	"context"
	"strings"
)

type Urgency string

const (
	UrgencyUrgent            Urgency = "Urgent"
	UrgencyNonUrgent         Urgency = "Non-Urgent"
	UrgencyAppointmentNeeded Urgency = "Appointment Needed"
)

// ParseUrgency accepts the canonical labels and common model variations
// such as "AppointmentNeeded" or "non urgent".
func ParseUrgency(s string) (Urgency, bool) {
	key := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch key {
	case "urgent":
		return UrgencyUrgent, true
	case "nonurgent":
		return UrgencyNonUrgent, true
	case "appointmentneeded":
		return UrgencyAppointmentNeeded, true
	}
	return "", false
}

// TurnRequest is sent to the prompt invoker once per turn. PreviousResponses
// is the flattened history and is empty on the first turn.
type TurnRequest struct {
	Symptoms          string `json:"symptoms"`
	PreviousResponses string `json:"previousResponses,omitempty"`
	CategoryName      string `json:"categoryName,omitempty"`
}

type TurnResult struct {
	NextQuestion string   `json:"nextQuestion"`
	QuickReplies []string `json:"quickReplies,omitempty"`
	Urgency      Urgency  `json:"urgency"`
	Outcome      string   `json:"outcome"`
}

// PromptInvoker produces the next triage step. Implementations fail loudly on
// malformed provider output; the orchestrator absorbs the error.
type PromptInvoker interface {
	Triage(ctx context.Context, req TurnRequest) (TurnResult, error)
}

// FallbackResult is shown in place of a failed invoker call.
func FallbackResult() TurnResult {
	return TurnResult{
		NextQuestion: "I'm sorry, but I encountered an issue processing your request. Please try again later or contact support if the problem persists.",
		QuickReplies: []string{"Okay", "Try again later"},
		Urgency:      UrgencyNonUrgent,
		Outcome:      "Could not complete triage due to a system error. Please seek advice from a healthcare professional if you have concerns.",
	}
}
