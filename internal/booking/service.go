package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/symptom-scout/internal/notify"
	"github.com/wolfman30/symptom-scout/pkg/logging"
)

const (
	notAttemptedStatus  = "Not attempted due to internal error."
	noOutputMessage     = "There was an issue processing your booking request. No details generated from AI."
	invokerErrorMessage = "We encountered an error while trying to book your appointment. Please try again later."
)

// Recorder receives booking outcomes for metrics.
type Recorder interface {
	ObserveBooking(status, emailStatus string)
}

// Service submits booking requests and turns the invoker's output and tool
// trace into a Result. It never returns an error.
type Service struct {
	invoker  Invoker
	recorder Recorder
	logger   *logging.Logger
}

func NewService(invoker Invoker, recorder Recorder, logger *logging.Logger) *Service {
	if invoker == nil {
		panic("booking: invoker cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{invoker: invoker, recorder: recorder, logger: logger}
}

func (s *Service) Book(ctx context.Context, req Request) Result {
	out, err := s.invoker.Invoke(ctx, req)
	if err != nil || out.Output == nil {
		return s.failed(req, out, err)
	}

	email := ReconcileEmail(out.Trace)
	if email.Status != notify.EmailSent {
		s.logger.Warn("booking email not confirmed",
			"email_status", string(email.Status),
			"reason", email.Message,
			"tool_calls", len(out.Trace),
		)
	}

	var clause string
	if email.Status == notify.EmailSent {
		clause = fmt.Sprintf("has been sent to %s", req.UserEmail)
	} else {
		clause = fmt.Sprintf("attempt was made (Status: %s, Message: %s)", email.Status, email.Message)
	}

	dateTime := out.Output.DateTime()
	summary := req.ConversationSummary
	if strings.TrimSpace(summary) == "" {
		summary = "N/A"
	}

	result := Result{
		ConfirmationMessage: fmt.Sprintf("%s Following that, your appointment is tentatively scheduled for %s. A confirmation email %s.",
			strings.TrimSpace(out.Output.InternalConfirmationMessage), dateTime, clause),
		AppointmentDetails: AppointmentDetails{
			Email:          req.UserEmail,
			Status:         StatusSimulated,
			BookedDateTime: dateTime,
			Notes:          fmt.Sprintf("Appointment for symptoms: %s. Conversation (trial details): %s", req.Symptoms, summary),
		},
		EmailSentStatus: fmt.Sprintf("%s - %s", email.Status, email.Message),
	}
	s.observe(result.AppointmentDetails.Status, string(email.Status))
	s.logger.Info("booking simulated", "email_status", string(email.Status), "tool_calls", len(out.Trace))
	return result
}

func (s *Service) failed(req Request, out InvokerResult, err error) Result {
	result := Result{
		AppointmentDetails: AppointmentDetails{
			Email:  req.UserEmail,
			Status: StatusFailed,
		},
		EmailSentStatus: notAttemptedStatus,
	}

	if err == nil || errors.Is(err, ErrNoOutput) {
		result.ConfirmationMessage = noOutputMessage
		result.AppointmentDetails.Notes = "LLM did not return expected output for booking details."
	} else {
		result.ConfirmationMessage = invokerErrorMessage
		result.AppointmentDetails.Notes = fmt.Sprintf("Booking attempt failed due to a system error. Symptoms: %s", req.Symptoms)
	}

	s.logger.Error("booking invoker failed", "error", err, "tool_calls", len(out.Trace))
	s.observe(StatusFailed, "not_attempted")
	return result
}

func (s *Service) observe(status Status, emailStatus string) {
	if s.recorder != nil {
		s.recorder.ObserveBooking(string(status), emailStatus)
	}
}
