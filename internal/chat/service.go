// Package chat is the user-facing surface over the triage orchestrator: it
// keeps the transcript, serializes turns per session and derives which
// controls the client should show.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/symptom-scout/internal/booking"
	"github.com/wolfman30/symptom-scout/internal/session"
	"github.com/wolfman30/symptom-scout/internal/triage"
	"github.com/wolfman30/symptom-scout/pkg/logging"
)

const (
	BookNowLabel    = "Book Now"
	ManageSelfLabel = "I'll Manage Myself"

	persistTimeout = 5 * time.Second
)

// Store is satisfied by session.MemoryStore and session.RedisStore.
type Store interface {
	session.Store
	session.Transcript
}

// View is everything a client needs to render one session.
type View struct {
	SessionID           string              `json:"sessionId"`
	State               string              `json:"state"`
	Messages            []session.Message   `json:"messages"`
	QuickReplies        []triage.QuickReply `json:"quickReplies,omitempty"`
	Symptoms            []triage.Symptom    `json:"symptoms,omitempty"`
	ShowSymptomPicker   bool                `json:"showSymptomPicker"`
	ShowQuickReplies    bool                `json:"showQuickReplies"`
	ShowInput           bool                `json:"showInput"`
	ShowBookingDecision bool                `json:"showBookingDecision"`
	ShowEmailInput      bool                `json:"showEmailInput"`
	ShowStartOver       bool                `json:"showStartOver"`
	Loading             bool                `json:"loading"`
	CompletionNote      string              `json:"completionNote,omitempty"`
	Booking             *booking.Result     `json:"booking,omitempty"`
}

type Service struct {
	orch     *triage.Orchestrator
	store    Store
	assessor triage.Assessor
	logger   *logging.Logger
}

func NewService(orch *triage.Orchestrator, store Store, assessor triage.Assessor, logger *logging.Logger) *Service {
	if orch == nil {
		panic("chat: orchestrator cannot be nil")
	}
	if store == nil {
		panic("chat: store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{orch: orch, store: store, assessor: assessor, logger: logger}
}

// Open creates a session and greets the user.
func (s *Service) Open(ctx context.Context) (View, error) {
	sess := triage.NewSession(uuid.NewString())
	if err := s.store.Save(ctx, sess); err != nil {
		return View{}, err
	}
	if err := s.store.Append(ctx, sess.ID, toMessages(triage.Welcome())...); err != nil {
		return View{}, err
	}
	s.logger.Info("chat session opened", "session_id", sess.ID)
	return s.view(ctx, sess)
}

func (s *Service) View(ctx context.Context, id string) (View, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, sess)
}

func (s *Service) SelectSymptom(ctx context.Context, id, symptom, category string) (View, error) {
	return s.turn(ctx, id, func(sess *triage.Session) (string, []triage.Event, error) {
		label := symptom
		if label == "" {
			label = category
		}
		events, err := s.orch.Start(ctx, sess, symptom, category)
		return label, events, err
	})
}

// Reply submits free text, or the quick reply with the given ID.
func (s *Service) Reply(ctx context.Context, id, text, replyID string) (View, error) {
	return s.turn(ctx, id, func(sess *triage.Session) (string, []triage.Event, error) {
		label := text
		for _, qr := range sess.QuickReplies {
			if replyID != "" && qr.ID == replyID {
				label = qr.Label
			}
		}
		events, err := s.orch.Submit(ctx, sess, text, replyID)
		return label, events, err
	})
}

func (s *Service) Decide(ctx context.Context, id string, accept bool) (View, error) {
	return s.turn(ctx, id, func(sess *triage.Session) (string, []triage.Event, error) {
		label := ManageSelfLabel
		if accept {
			label = BookNowLabel
		}
		events, err := s.orch.Decide(sess, accept)
		return label, events, err
	})
}

func (s *Service) SubmitEmail(ctx context.Context, id, raw string) (View, error) {
	return s.turn(ctx, id, func(sess *triage.Session) (string, []triage.Event, error) {
		events, err := s.orch.SubmitEmail(ctx, sess, raw)
		return raw, events, err
	})
}

// Reset discards the conversation and the transcript, keeping the session ID.
func (s *Service) Reset(ctx context.Context, id string) (View, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return View{}, err
	}
	defer unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	events := s.orch.Reset(sess)
	if err := s.store.Save(ctx, sess); err != nil {
		return View{}, err
	}
	if err := s.store.Clear(ctx, id); err != nil {
		return View{}, err
	}
	if err := s.store.Append(ctx, id, toMessages(events)...); err != nil {
		return View{}, err
	}
	return s.view(ctx, sess)
}

func (s *Service) Assess(ctx context.Context, symptoms, responses string) (triage.Assessment, error) {
	if s.assessor == nil {
		return triage.Assessment{}, errors.New("chat: urgency assessment is not configured")
	}
	return s.assessor.AssessUrgency(ctx, symptoms, responses)
}

// turn runs one orchestrator step under the session lock. Rejected steps
// leave both the session and the transcript untouched.
func (s *Service) turn(ctx context.Context, id string, step func(*triage.Session) (string, []triage.Event, error)) (View, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return View{}, err
	}
	defer unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	// Holding the lock means no turn is running, so a stored in-flight marker is stale.
	if sess.Recover() {
		s.logger.Warn("recovered stale in-flight session", "session_id", id, "state", sess.State.String())
	}

	userText, events, err := step(sess)
	if err != nil {
		return View{}, err
	}

	// The step may have checkpointed InFlight; the settled state must land
	// even when the caller has gone away.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := s.store.Save(persistCtx, sess); err != nil {
		return View{}, err
	}
	msgs := append([]session.Message{{Sender: string(triage.SenderUser), Text: userText}}, toMessages(events)...)
	if err := s.store.Append(persistCtx, id, msgs...); err != nil {
		return View{}, err
	}
	return s.view(persistCtx, sess)
}

func (s *Service) lock(ctx context.Context, id string) (func(), error) {
	unlock, err := s.store.Lock(ctx, id)
	if errors.Is(err, session.ErrLocked) {
		return nil, triage.ErrTurnInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("chat: lock session: %w", err)
	}
	return unlock, nil
}

func (s *Service) view(ctx context.Context, sess *triage.Session) (View, error) {
	msgs, err := s.store.List(ctx, sess.ID)
	if err != nil {
		return View{}, err
	}
	return buildView(sess, msgs), nil
}

func buildView(sess *triage.Session, msgs []session.Message) View {
	busy := sess.InFlight || sess.State == triage.StateSubmittingBooking
	v := View{
		SessionID:           sess.ID,
		State:               sess.State.String(),
		Messages:            msgs,
		ShowSymptomPicker:   sess.State == triage.StateSelectingSymptom && !busy,
		ShowInput:           sess.State == triage.StateQuestioning && !busy,
		ShowBookingDecision: sess.PendingBooking() && !busy,
		ShowEmailInput:      sess.PendingEmailInput() && !busy,
		ShowStartOver:       sess.IsComplete(),
		Loading:             busy,
		Booking:             sess.Booking,
	}
	if v.ShowSymptomPicker {
		v.Symptoms = triage.Symptoms()
	}
	if v.ShowInput && len(sess.QuickReplies) > 0 {
		v.ShowQuickReplies = true
		v.QuickReplies = sess.QuickReplies
	}
	if sess.IsComplete() {
		v.CompletionNote = triage.CompletionNote
	}
	return v
}

func toMessages(events []triage.Event) []session.Message {
	out := make([]session.Message, 0, len(events))
	for _, e := range events {
		out = append(out, session.Message{Sender: string(e.Sender), Text: e.Text, Urgency: string(e.Urgency)})
	}
	return out
}
