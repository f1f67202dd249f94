package triage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/symptom-scout/internal/booking"
	"github.com/wolfman30/symptom-scout/pkg/logging"
)

var (
	ErrSessionComplete   = errors.New("triage: session is complete")
	ErrTurnInProgress    = errors.New("triage: a turn is already in progress")
	ErrAwaitingDecision  = errors.New("triage: awaiting booking decision")
	ErrAwaitingEmail     = errors.New("triage: awaiting email input")
	ErrNotStarted        = errors.New("triage: no symptom selected")
	ErrAlreadyStarted    = errors.New("triage: symptom already selected")
	ErrEmptyResponse     = errors.New("triage: response text is required")
	ErrUnknownQuickReply = errors.New("triage: quick reply is not on offer")
	ErrNoDecisionPending = errors.New("triage: no booking decision pending")
	ErrNotCollectingMail = errors.New("triage: not collecting email")
)

const (
	WelcomeText        = "Hello! I'm HealthAssist. I can help you understand your symptoms. Please select a primary symptom to begin:"
	CompletionNote     = "Triage complete. You can start a new session if needed."
	EmailPromptText    = "Great. Please enter your email address, and optionally a preferred date or time, in one line (for example: jane@example.com for next Tuesday morning)."
	SelfManageAdvisory = "Understood. Please keep monitoring your symptoms, and seek medical care promptly if they get worse or new symptoms appear."
	BookingOfferText   = "Based on your answers, an appointment may be a good idea. Would you like to book one now?"

	ReasonBookingSubmitted = "booking_submitted"
	ReasonBookingFailed    = "booking_failed"
)

type Sender string

const (
	SenderUser   Sender = "user"
	SenderBot    Sender = "bot"
	SenderSystem Sender = "system"
)

// Event is a message the chat surface should append to its transcript.
type Event struct {
	Sender  Sender
	Text    string
	Urgency Urgency
}

// Recorder receives triage counters. Implemented by metrics.TriageMetrics.
type Recorder interface {
	ObserveTurn(urgency string)
	ObserveTermination(reason string)
	ObserveShortcut(intent string)
	ObserveInvokerFailure()
}

// Booker submits a booking request. It never fails; failures are folded into the result.
type Booker interface {
	Book(ctx context.Context, req booking.Request) booking.Result
}

// Checkpointer persists the session while an invoker call is outstanding so
// concurrent readers observe the in-flight state.
type Checkpointer interface {
	Save(ctx context.Context, s *Session) error
}

type Options struct {
	Policy     Policy
	Recorder   Recorder
	Checkpoint Checkpointer
	Logger     *logging.Logger
}

// Orchestrator drives a session from symptom selection to a terminal outcome.
// It holds no per-session state; callers serialize access to each Session.
type Orchestrator struct {
	invoker    PromptInvoker
	booker     Booker
	policy     Policy
	recorder   Recorder
	checkpoint Checkpointer
	logger     *logging.Logger
}

func NewOrchestrator(invoker PromptInvoker, booker Booker, opts Options) *Orchestrator {
	if invoker == nil {
		panic("triage: prompt invoker cannot be nil")
	}
	if booker == nil {
		panic("triage: booker cannot be nil")
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.Policy.MaxTurns <= 0 {
		opts.Policy = DefaultPolicy()
	}
	return &Orchestrator{
		invoker:    invoker,
		booker:     booker,
		policy:     opts.Policy,
		recorder:   opts.Recorder,
		checkpoint: opts.Checkpoint,
		logger:     opts.Logger,
	}
}

func Welcome() []Event {
	return []Event{{Sender: SenderBot, Text: WelcomeText}}
}

// Reset discards the conversation and returns the welcome prompt.
func (o *Orchestrator) Reset(sess *Session) []Event {
	sess.Reset()
	return Welcome()
}

// Start begins triage with a symptom from the picker, free text, or a category name.
func (o *Orchestrator) Start(ctx context.Context, sess *Session, symptom, category string) ([]Event, error) {
	if sess.InFlight {
		return nil, ErrTurnInProgress
	}
	if sess.State != StateSelectingSymptom {
		return nil, ErrAlreadyStarted
	}

	symptom = strings.TrimSpace(symptom)
	category = strings.TrimSpace(category)
	if known, ok := LookupSymptom(symptom); ok {
		symptom = known.Name
		if category == "" {
			category = string(known.Category)
		}
	}
	if symptom == "" {
		if _, ok := LookupCategory(category); !ok {
			return nil, ErrEmptyResponse
		}
		symptom = category
	}

	guard := ScreenInput(symptom)
	if guard.Blocked {
		o.logger.Warn("triage input blocked", "session_id", sess.ID, "reasons", guard.Reasons, "score", guard.Score)
		return []Event{{Sender: SenderBot, Text: GuardedReply}}, nil
	}

	sess.InitialSymptom = guard.Sanitized
	sess.Category = category
	sess.State = StateQuestioning
	sess.QuickReplies = nil

	res, err := o.invoke(ctx, sess, TurnRequest{Symptoms: sess.InitialSymptom, CategoryName: category})
	if err != nil {
		res = FallbackResult()
	}

	sess.History = append(sess.History, "User: "+sess.InitialSymptom, "AI: "+res.NextQuestion)
	sess.LastResult = &res
	if res.Urgency == UrgencyAppointmentNeeded {
		sess.AppointmentFlagged = true
	}
	o.observeTurn(res)

	events := []Event{{Sender: SenderBot, Text: res.NextQuestion, Urgency: res.Urgency}}
	// The opening turn only stops for emergencies.
	if isImmediateCare(res) {
		return append(events, o.complete(sess, res, ReasonUrgent)...), nil
	}
	sess.QuickReplies = quickRepliesFor(res)
	o.touch(sess)
	return events, nil
}

// Submit handles a free-text answer or a quick reply selected by ID.
func (o *Orchestrator) Submit(ctx context.Context, sess *Session, text, replyID string) ([]Event, error) {
	if err := o.canSubmit(sess); err != nil {
		return nil, err
	}

	replyID = strings.TrimSpace(replyID)
	if replyID != "" {
		qr, ok := sess.quickReplyByID(replyID)
		if !ok {
			return nil, ErrUnknownQuickReply
		}
		text = qr.Label
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	intent := DetectIntent(sess, text, replyID)
	offered := sess.QuickReplies
	sess.QuickReplies = nil

	switch intent {
	case IntentAccept:
		o.observeShortcut(intent)
		sess.History = append(sess.History, "User: "+text)
		return o.BeginEmailCollection(sess)
	case IntentDecline:
		o.observeShortcut(intent)
		sess.History = append(sess.History, "User: "+text)
		return o.selfManage(sess), nil
	}

	guard := ScreenInput(text)
	if guard.Blocked {
		o.logger.Warn("triage input blocked", "session_id", sess.ID, "reasons", guard.Reasons, "score", guard.Score)
		last := sess.LastResult
		events := o.finishTurn(sess, WithheldInput, GuardedResult())
		// The refusal is not an assessment; the previous one stays current.
		sess.LastResult = last
		if sess.State == StateQuestioning {
			sess.QuickReplies = offered
		}
		return events, nil
	}
	text = guard.Sanitized

	req := TurnRequest{
		Symptoms:          sess.InitialSymptom,
		PreviousResponses: strings.Join(append(append([]string(nil), sess.History...), "User: "+text), "\n"),
		CategoryName:      sess.Category,
	}
	res, err := o.invoke(ctx, sess, req)
	if err != nil {
		res = FallbackResult()
	}
	return o.finishTurn(sess, text, res), nil
}

// finishTurn records one counted turn and applies the termination policy.
// Failed and blocked turns go through here too so the turn bound holds.
func (o *Orchestrator) finishTurn(sess *Session, text string, res TurnResult) []Event {
	sess.History = append(sess.History, "User: "+text, "AI: "+res.NextQuestion)
	sess.LastResult = &res
	if res.Urgency == UrgencyAppointmentNeeded {
		sess.AppointmentFlagged = true
	}
	decision := o.policy.Evaluate(res, sess.TurnCount)
	sess.TurnCount++
	o.observeTurn(res)

	events := []Event{{Sender: SenderBot, Text: res.NextQuestion, Urgency: res.Urgency}}
	switch decision.Action {
	case ActionComplete:
		events = append(events, o.complete(sess, res, decision.Reason)...)
	case ActionOfferBooking:
		sess.State = StateAwaitingBookingDecision
		o.observeTermination(decision.Reason)
		events = append(events,
			Event{Sender: SenderSystem, Text: res.Outcome, Urgency: res.Urgency},
			Event{Sender: SenderBot, Text: BookingOfferText},
		)
	default:
		sess.QuickReplies = quickRepliesFor(res)
	}

	o.logger.Info("triage turn",
		"session_id", sess.ID,
		"turn", sess.TurnCount,
		"urgency", string(res.Urgency),
		"reason", decision.Reason,
		"state", sess.State.String(),
	)
	o.touch(sess)
	return events
}

// Decide answers the Book Now / I'll Manage Myself prompt.
func (o *Orchestrator) Decide(sess *Session, accept bool) ([]Event, error) {
	if sess.InFlight {
		return nil, ErrTurnInProgress
	}
	if sess.State != StateAwaitingBookingDecision {
		return nil, ErrNoDecisionPending
	}
	if accept {
		o.observeShortcut(IntentAccept)
		return o.BeginEmailCollection(sess)
	}
	o.observeShortcut(IntentDecline)
	return o.selfManage(sess), nil
}

// BeginEmailCollection switches the session to email input and prompts for it.
func (o *Orchestrator) BeginEmailCollection(sess *Session) ([]Event, error) {
	switch sess.State {
	case StateQuestioning, StateAwaitingBookingDecision:
	case StateCollectingEmail:
		return nil, ErrAwaitingEmail
	case StateComplete:
		return nil, ErrSessionComplete
	default:
		return nil, ErrNotStarted
	}
	sess.State = StateCollectingEmail
	sess.QuickReplies = nil
	o.touch(sess)
	return []Event{{Sender: SenderBot, Text: EmailPromptText}}, nil
}

// SubmitEmail parses the contact line and books the simulated appointment.
// Parse errors leave the session untouched so the user can correct the input.
func (o *Orchestrator) SubmitEmail(ctx context.Context, sess *Session, raw string) ([]Event, error) {
	if sess.InFlight || sess.State == StateSubmittingBooking {
		return nil, ErrTurnInProgress
	}
	if sess.State != StateCollectingEmail {
		if sess.State == StateComplete {
			return nil, ErrSessionComplete
		}
		return nil, ErrNotCollectingMail
	}

	contact, err := booking.ParseContact(raw)
	if err != nil {
		return nil, err
	}

	raw = strings.TrimSpace(raw)
	req := booking.Request{
		UserEmail:           contact.Email,
		Symptoms:            sess.InitialSymptom,
		ConversationSummary: strings.Join(append(append([]string(nil), sess.History...), "User: "+raw), "\n"),
		PreferredDate:       contact.PreferredDate,
	}

	sess.State = StateSubmittingBooking
	sess.InFlight = true
	o.save(ctx, sess)
	result := o.booker.Book(ctx, req)
	sess.InFlight = false

	sess.History = append(sess.History, "User: "+raw, "AI: "+result.ConfirmationMessage)
	sess.Booking = &result
	reason := ReasonBookingSubmitted
	if result.AppointmentDetails.Status == booking.StatusFailed {
		reason = ReasonBookingFailed
	}
	sess.State = StateComplete
	sess.CompletionReason = reason
	o.observeTermination(reason)
	o.touch(sess)

	o.logger.Info("booking finished", "session_id", sess.ID, "status", string(result.AppointmentDetails.Status), "has_date", contact.PreferredDate != "")
	return []Event{{Sender: SenderBot, Text: result.ConfirmationMessage}}, nil
}

func (o *Orchestrator) canSubmit(sess *Session) error {
	if sess.InFlight {
		return ErrTurnInProgress
	}
	switch sess.State {
	case StateQuestioning:
		return nil
	case StateSelectingSymptom:
		return ErrNotStarted
	case StateAwaitingBookingDecision:
		return ErrAwaitingDecision
	case StateCollectingEmail:
		return ErrAwaitingEmail
	case StateSubmittingBooking:
		return ErrTurnInProgress
	case StateComplete:
		return ErrSessionComplete
	}
	return fmt.Errorf("triage: unexpected state %s", sess.State)
}

func (o *Orchestrator) invoke(ctx context.Context, sess *Session, req TurnRequest) (TurnResult, error) {
	sess.InFlight = true
	o.save(ctx, sess)
	defer func() { sess.InFlight = false }()

	res, err := o.invoker.Triage(ctx, req)
	if err != nil {
		o.logger.Error("triage invoker failed", "session_id", sess.ID, "turn", sess.TurnCount, "error", err)
		if o.recorder != nil {
			o.recorder.ObserveInvokerFailure()
		}
		return TurnResult{}, err
	}
	return res, nil
}

func (o *Orchestrator) complete(sess *Session, res TurnResult, reason string) []Event {
	sess.State = StateComplete
	sess.CompletionReason = reason
	sess.QuickReplies = nil
	o.observeTermination(reason)
	o.touch(sess)
	return []Event{{Sender: SenderSystem, Text: res.Outcome, Urgency: res.Urgency}}
}

func (o *Orchestrator) selfManage(sess *Session) []Event {
	sess.State = StateComplete
	sess.CompletionReason = ReasonSelfManaged
	sess.QuickReplies = nil
	o.observeTermination(ReasonSelfManaged)
	o.touch(sess)
	return []Event{{Sender: SenderSystem, Text: SelfManageAdvisory}}
}

func (o *Orchestrator) save(ctx context.Context, sess *Session) {
	if o.checkpoint == nil {
		return
	}
	o.touch(sess)
	if err := o.checkpoint.Save(ctx, sess); err != nil {
		o.logger.Warn("session checkpoint failed", "session_id", sess.ID, "error", err)
	}
}

func (o *Orchestrator) touch(sess *Session) {
	sess.UpdatedAt = time.Now().UTC()
}

func (o *Orchestrator) observeTurn(res TurnResult) {
	if o.recorder != nil {
		o.recorder.ObserveTurn(string(res.Urgency))
	}
}

func (o *Orchestrator) observeTermination(reason string) {
	if o.recorder != nil {
		o.recorder.ObserveTermination(reason)
	}
}

func (o *Orchestrator) observeShortcut(intent Intent) {
	if o.recorder != nil {
		o.recorder.ObserveShortcut(intent.String())
	}
}
