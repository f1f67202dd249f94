package triage

import (
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/symptom-scout/internal/booking"
)

// State is the single active state of a triage session.
type State int

const (
	StateSelectingSymptom State = iota
	StateQuestioning
	StateAwaitingBookingDecision
	StateCollectingEmail
	StateSubmittingBooking
	StateComplete
)

var stateNames = map[State]string{
	StateSelectingSymptom:        "selecting_symptom",
	StateQuestioning:             "questioning",
	StateAwaitingBookingDecision: "awaiting_booking_decision",
	StateCollectingEmail:         "collecting_email",
	StateSubmittingBooking:       "submitting_booking",
	StateComplete:                "complete",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	if _, ok := stateNames[s]; !ok {
		return nil, fmt.Errorf("triage: unknown state %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("triage: unknown state %q", string(text))
}

// Quick reply identifiers for the booking question.
const (
	QuickReplyAccept  = "booking:accept"
	QuickReplyDecline = "booking:decline"
)

type QuickReply struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Session is one triage conversation. It is mutated by the Orchestrator only.
type Session struct {
	ID             string `json:"id"`
	State          State  `json:"state"`
	InFlight       bool   `json:"inFlight"`
	InitialSymptom string `json:"initialSymptom,omitempty"`
	Category       string `json:"category,omitempty"`
	// History holds "User: ..." and "AI: ..." lines, append-only until reset.
	History      []string     `json:"history"`
	TurnCount    int          `json:"turnCount"`
	QuickReplies []QuickReply `json:"quickReplies,omitempty"`
	LastResult   *TurnResult  `json:"lastResult,omitempty"`
	// AppointmentFlagged records that some turn reported Appointment Needed.
	AppointmentFlagged bool            `json:"appointmentFlagged"`
	CompletionReason   string          `json:"completionReason,omitempty"`
	Booking            *booking.Result `json:"booking,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		State:     StateSelectingSymptom,
		History:   []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Reset returns the session to its initial state, keeping its ID.
func (s *Session) Reset() {
	*s = *NewSession(s.ID)
}

// Recover clears the in-flight marker of a turn whose holder never finished.
// An unfinished booking goes back to email collection. It reports whether
// anything changed.
func (s *Session) Recover() bool {
	if !s.InFlight && s.State != StateSubmittingBooking {
		return false
	}
	s.InFlight = false
	if s.State == StateSubmittingBooking {
		s.State = StateCollectingEmail
	}
	return true
}

func (s *Session) IsComplete() bool        { return s.State == StateComplete }
func (s *Session) PendingBooking() bool    { return s.State == StateAwaitingBookingDecision }
func (s *Session) PendingEmailInput() bool { return s.State == StateCollectingEmail }

// Transcript flattens the history into the previousResponses text.
func (s *Session) Transcript() string {
	return strings.Join(s.History, "\n")
}

func (s *Session) quickReplyByID(id string) (QuickReply, bool) {
	for _, qr := range s.QuickReplies {
		if qr.ID == id {
			return qr, true
		}
	}
	return QuickReply{}, false
}

func (s *Session) offersReply(text string) bool {
	text = strings.TrimSpace(text)
	for _, qr := range s.QuickReplies {
		if strings.EqualFold(qr.Label, text) {
			return true
		}
	}
	return false
}
