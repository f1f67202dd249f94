package chat

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/symptom-scout/internal/booking"
	"github.com/wolfman30/symptom-scout/internal/session"
	"github.com/wolfman30/symptom-scout/internal/triage"
	"github.com/wolfman30/symptom-scout/pkg/logging"
)

// disconnectingInvoker answers the opening turn, then cancels the caller's
// context mid-call the way a dropped client connection would.
type disconnectingInvoker struct {
	cancel context.CancelFunc
	calls  int
}

func (d *disconnectingInvoker) Triage(ctx context.Context, _ triage.TurnRequest) (triage.TurnResult, error) {
	d.calls++
	if d.calls > 1 && d.cancel != nil {
		d.cancel()
		return triage.TurnResult{}, ctx.Err()
	}
	return askFever, nil
}

type cancellingBooker struct {
	cancel context.CancelFunc
}

func (c cancellingBooker) Book(ctx context.Context, req booking.Request) booking.Result {
	c.cancel()
	return booking.Result{
		ConfirmationMessage: "We could not complete your booking.",
		AppointmentDetails:  booking.AppointmentDetails{Email: req.UserEmail, Status: booking.StatusFailed},
	}
}

func newRedisService(t *testing.T, inv triage.PromptInvoker, booker triage.Booker) (*Service, *session.RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := session.NewRedisStore(client, time.Hour, logging.Discard())
	orch := triage.NewOrchestrator(inv, booker, triage.Options{Checkpoint: store, Logger: logging.Discard()})
	return NewService(orch, store, nil, logging.Discard()), store
}

func TestService_CancelledTurnDoesNotWedgeSession(t *testing.T) {
	inv := &disconnectingInvoker{}
	svc, store := newRedisService(t, inv, stubBooker{})
	bg := context.Background()

	view, err := svc.Open(bg)
	require.NoError(t, err)
	view, err = svc.SelectSymptom(bg, view.SessionID, "Cough", "")
	require.NoError(t, err)
	require.True(t, view.ShowInput)

	ctx, cancel := context.WithCancel(bg)
	inv.cancel = cancel
	_, err = svc.Reply(ctx, view.SessionID, "No", "")
	require.NoError(t, err)

	sess, err := store.Get(bg, view.SessionID)
	require.NoError(t, err)
	assert.False(t, sess.InFlight)
	assert.Equal(t, 1, sess.TurnCount)

	after, err := svc.View(bg, view.SessionID)
	require.NoError(t, err)
	assert.False(t, after.Loading)
	assert.True(t, after.ShowStartOver)

	reset, err := svc.Reset(bg, view.SessionID)
	require.NoError(t, err)
	assert.True(t, reset.ShowSymptomPicker)
}

func TestService_CancelledBookingSettles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	svc, store := newRedisService(t, &queueInvoker{results: []triage.TurnResult{needsAppointment}}, cancellingBooker{cancel: cancel})
	bg := context.Background()

	view, err := svc.Open(bg)
	require.NoError(t, err)
	view, err = svc.SelectSymptom(bg, view.SessionID, "Headache", "")
	require.NoError(t, err)
	view, err = svc.Reply(bg, view.SessionID, "book an appointment", "")
	require.NoError(t, err)
	require.True(t, view.ShowEmailInput)

	_, err = svc.SubmitEmail(ctx, view.SessionID, "pat@example.com")
	require.NoError(t, err)

	sess, err := store.Get(bg, view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, triage.StateComplete, sess.State)
	assert.Equal(t, triage.ReasonBookingFailed, sess.CompletionReason)
}

func TestService_RecoversStaleInFlight(t *testing.T) {
	svc, store := newRedisService(t, &queueInvoker{results: []triage.TurnResult{askFever}}, stubBooker{})
	ctx := context.Background()

	view, err := svc.Open(ctx)
	require.NoError(t, err)
	_, err = svc.SelectSymptom(ctx, view.SessionID, "Fever", "")
	require.NoError(t, err)

	// A holder that died mid-turn leaves the checkpoint behind.
	sess, err := store.Get(ctx, view.SessionID)
	require.NoError(t, err)
	sess.InFlight = true
	require.NoError(t, store.Save(ctx, sess))

	stuck, err := svc.View(ctx, view.SessionID)
	require.NoError(t, err)
	assert.True(t, stuck.Loading)

	next, err := svc.Reply(ctx, view.SessionID, "No", "")
	require.NoError(t, err)
	assert.False(t, next.Loading)
	assert.True(t, next.ShowInput)
}
