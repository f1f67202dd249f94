package booking

import (
	"context"
	"errors"

	"github.com/wolfman30/symptom-scout/internal/notify"
)

// ErrNoOutput is returned by an Invoker that finished without booking details.
var ErrNoOutput = errors.New("booking: invoker returned no output")

type Status string

const (
	StatusBooked    Status = "Booked"
	StatusPending   Status = "Pending"
	StatusFailed    Status = "Failed"
	StatusSimulated Status = "Simulated"
)

// Request is what the booking model receives. PreferredDate wins over any
// date mentioned in ConversationSummary.
type Request struct {
	UserEmail           string `json:"userEmail"`
	Symptoms            string `json:"symptoms"`
	ConversationSummary string `json:"conversationSummary,omitempty"`
	PreferredDate       string `json:"preferredDate,omitempty"`
}

// Output is the structured answer the booking model returns alongside its tool calls.
type Output struct {
	InternalConfirmationMessage string `json:"internalConfirmationMessage"`
	SimulatedDateTime           string `json:"simulatedDateTime"`
	// SimulatedBookedDate is accepted from older prompt versions.
	SimulatedBookedDate string `json:"simulatedBookedDate,omitempty"`
	EmailSubject        string `json:"emailSubject"`
	EmailBody           string `json:"emailBody"`
}

// DateTime returns the simulated appointment slot regardless of field name.
func (o Output) DateTime() string {
	if o.SimulatedDateTime != "" {
		return o.SimulatedDateTime
	}
	return o.SimulatedBookedDate
}

// ToolResponse is the decoded payload a tool returned, or why it could not be decoded.
type ToolResponse struct {
	Result   notify.EmailToolResult
	ParseErr error
}

// ToolInvocation is one entry of the invoker's tool trace. Response is nil
// when the model asked for the tool but no answer was recorded.
type ToolInvocation struct {
	Name     string
	Request  notify.EmailToolInput
	Response *ToolResponse
}

// InvokerResult carries the model output together with the tool trace.
type InvokerResult struct {
	Output *Output
	Trace  []ToolInvocation
}

// Invoker runs the booking prompt, including any tool calls the model makes.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (InvokerResult, error)
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, req Request) (InvokerResult, error)

func (f InvokerFunc) Invoke(ctx context.Context, req Request) (InvokerResult, error) {
	return f(ctx, req)
}

type AppointmentDetails struct {
	Email          string `json:"email"`
	Status         Status `json:"status"`
	BookedDateTime string `json:"bookedDateTime,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// Result is the user-facing outcome of one booking attempt.
type Result struct {
	ConfirmationMessage string             `json:"confirmationMessage"`
	AppointmentDetails  AppointmentDetails `json:"appointmentDetails"`
	EmailSentStatus     string             `json:"emailSentStatus,omitempty"`
}
