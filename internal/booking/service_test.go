package booking

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/symptom-scout/internal/notify"
	"github.com/wolfman30/symptom-scout/pkg/logging"
)

type fakeInvoker struct {
	result InvokerResult
	err    error
	got    Request
}

func (f *fakeInvoker) Invoke(_ context.Context, req Request) (InvokerResult, error) {
	f.got = req
	return f.result, f.err
}

type bookingRecorder struct {
	calls [][2]string
}

func (r *bookingRecorder) ObserveBooking(status, emailStatus string) {
	r.calls = append(r.calls, [2]string{status, emailStatus})
}

var testOutput = &Output{
	InternalConfirmationMessage: "Processing your request.",
	SimulatedDateTime:           "next Wednesday at 10:00 AM",
	EmailSubject:                "Your HealthAssist Appointment Confirmation",
	EmailBody:                   "<p>hi</p>",
}

func TestService_Book_EmailToolNotCalled(t *testing.T) {
	inv := &fakeInvoker{result: InvokerResult{Output: testOutput}}
	rec := &bookingRecorder{}
	svc := NewService(inv, rec, logging.Discard())

	res := svc.Book(context.Background(), Request{UserEmail: "bob@x.com", Symptoms: "Fever", ConversationSummary: "User: Fever\nAI: How high?"})

	assert.Equal(t, StatusSimulated, res.AppointmentDetails.Status)
	assert.Contains(t, res.ConfirmationMessage, "attempt was made (Status: Failed, Message: Email tool was not called by the LLM.)")
	assert.True(t, strings.HasPrefix(res.ConfirmationMessage, "Processing your request. Following that, your appointment is tentatively scheduled for next Wednesday at 10:00 AM."))
	assert.Equal(t, "Failed - Email tool was not called by the LLM.", res.EmailSentStatus)
	assert.Equal(t, "Appointment for symptoms: Fever. Conversation (trial details): User: Fever\nAI: How high?", res.AppointmentDetails.Notes)
	assert.Equal(t, [][2]string{{"Simulated", "Failed"}}, rec.calls)
}

func TestService_Book_EmailSent(t *testing.T) {
	inv := &fakeInvoker{result: InvokerResult{
		Output: testOutput,
		Trace: []ToolInvocation{{
			Name:     notify.EmailToolName,
			Request:  notify.EmailToolInput{To: "alice@example.com"},
			Response: &ToolResponse{Result: notify.EmailToolResult{Status: notify.EmailSent, Message: "Email successfully simulated sending to alice@example.com."}},
		}},
	}}
	svc := NewService(inv, nil, logging.Discard())

	res := svc.Book(context.Background(), Request{UserEmail: "alice@example.com", Symptoms: "Cough"})
	assert.Equal(t, "Processing your request. Following that, your appointment is tentatively scheduled for next Wednesday at 10:00 AM. A confirmation email has been sent to alice@example.com.", res.ConfirmationMessage)
	assert.Equal(t, "next Wednesday at 10:00 AM", res.AppointmentDetails.BookedDateTime)
	assert.Equal(t, "Sent - Email successfully simulated sending to alice@example.com.", res.EmailSentStatus)
	assert.Contains(t, res.AppointmentDetails.Notes, "Conversation (trial details): N/A")
}

func TestService_Book_InvokerFailures(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		rec := &bookingRecorder{}
		svc := NewService(&fakeInvoker{err: errors.New("provider down")}, rec, logging.Discard())
		res := svc.Book(context.Background(), Request{UserEmail: "bob@x.com", Symptoms: "Fever"})
		assert.Equal(t, StatusFailed, res.AppointmentDetails.Status)
		assert.Equal(t, "Not attempted due to internal error.", res.EmailSentStatus)
		assert.Equal(t, "We encountered an error while trying to book your appointment. Please try again later.", res.ConfirmationMessage)
		require.Len(t, rec.calls, 1)
		assert.Equal(t, "Failed", rec.calls[0][0])
	})

	t.Run("no output", func(t *testing.T) {
		svc := NewService(&fakeInvoker{}, nil, logging.Discard())
		res := svc.Book(context.Background(), Request{UserEmail: "bob@x.com"})
		assert.Equal(t, StatusFailed, res.AppointmentDetails.Status)
		assert.Equal(t, "There was an issue processing your booking request. No details generated from AI.", res.ConfirmationMessage)
		assert.Equal(t, "Not attempted due to internal error.", res.EmailSentStatus)
	})
}

func TestFormatConfirmationHTML(t *testing.T) {
	body := FormatConfirmationHTML(Request{UserEmail: "a@example.com", Symptoms: "<Fever>"}, "Friday 9am")
	assert.Contains(t, body, "&lt;Fever&gt;")
	assert.Contains(t, body, "Friday 9am")
	assert.Contains(t, body, "No prior conversation details provided.")
}
