package notify

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/wolfman30/symptom-scout/pkg/logging"
)

// EmailToolName is the tool name the booking model calls to send the confirmation.
const EmailToolName = "sendEmailTool"

type EmailToolStatus string

const (
	EmailSent          EmailToolStatus = "Sent"
	EmailFailed        EmailToolStatus = "Failed"
	EmailSimulatedSkip EmailToolStatus = "SimulatedSkip"
)

func (s EmailToolStatus) Valid() bool {
	switch s {
	case EmailSent, EmailFailed, EmailSimulatedSkip:
		return true
	}
	return false
}

// EmailToolInput is the argument payload of a sendEmailTool call.
type EmailToolInput struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// EmailToolResult is what the tool reports back to the model.
type EmailToolResult struct {
	Status  EmailToolStatus `json:"status"`
	Message string          `json:"message"`
}

// Validate checks the result against the tool's output schema.
func (r EmailToolResult) Validate() error {
	if !r.Status.Valid() {
		return fmt.Errorf("status: invalid enum value %q, expected Sent, Failed or SimulatedSkip", r.Status)
	}
	if strings.TrimSpace(r.Message) == "" {
		return errors.New("message: required")
	}
	return nil
}

// EmailToolParameters is the JSON schema advertised to the model.
func EmailToolParameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to":      map[string]any{"type": "string", "description": "The recipient email address."},
			"subject": map[string]any{"type": "string", "description": "The subject line of the email."},
			"body":    map[string]any{"type": "string", "description": "The HTML body content of the email."},
		},
		"required": []string{"to", "subject", "body"},
	}
}

const EmailToolDescription = "Sends an email to a specified recipient with a given subject and body. " +
	"Use it exactly once to deliver the appointment confirmation."

type EmailToolConfig struct {
	// SkipDomains lists recipient domains that are never delivered to.
	SkipDomains []string
}

// EmailTool sends confirmation emails on behalf of the booking model. It never
// returns an error; every outcome is reported as an EmailToolResult.
type EmailTool struct {
	mailer      Mailer
	skipDomains map[string]struct{}
	logger      *logging.Logger
}

// NewEmailTool falls back to a SimulatedMailer when mailer is nil.
func NewEmailTool(mailer Mailer, cfg EmailToolConfig, logger *logging.Logger) *EmailTool {
	if logger == nil {
		logger = logging.Default()
	}
	if mailer == nil {
		mailer = NewSimulatedMailer(logger)
	}
	skip := make(map[string]struct{}, len(cfg.SkipDomains))
	for _, d := range cfg.SkipDomains {
		d = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "@"))
		if d != "" {
			skip[d] = struct{}{}
		}
	}
	return &EmailTool{mailer: mailer, skipDomains: skip, logger: logger}
}

func (t *EmailTool) Send(ctx context.Context, in EmailToolInput) (result EmailToolResult) {
	to := strings.TrimSpace(in.To)
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("email tool panicked", "panic", fmt.Sprint(r), "to", to)
			result = EmailToolResult{Status: EmailFailed, Message: fmt.Sprintf("Failed to send email to %s.", to)}
		}
	}()

	addr, err := mail.ParseAddress(to)
	if err != nil || addr.Address != to {
		t.logger.Warn("email tool rejected recipient", "to", to)
		return EmailToolResult{Status: EmailFailed, Message: fmt.Sprintf("Failed to send email to %s: invalid recipient address.", to)}
	}

	domain := strings.ToLower(to[strings.LastIndex(to, "@")+1:])
	if _, ok := t.skipDomains[domain]; ok {
		t.logger.Info("email tool skipped recipient domain", "domain", domain)
		return EmailToolResult{Status: EmailSimulatedSkip, Message: fmt.Sprintf("Email sending skipped for @%s domain during simulation.", domain)}
	}

	receipt, err := t.mailer.Deliver(ctx, Confirmation{To: to, Subject: in.Subject, HTML: in.Body})
	switch {
	case errors.Is(err, ErrRecipientRejected):
		t.logger.Warn("email tool recipient refused", "error", err, "to", to)
		return EmailToolResult{Status: EmailFailed, Message: fmt.Sprintf("Failed to send email to %s: the address was rejected.", to)}
	case err != nil:
		t.logger.Error("email tool delivery failed", "error", err, "to", to)
		return EmailToolResult{Status: EmailFailed, Message: fmt.Sprintf("Failed to send email to %s.", to)}
	}

	t.logger.Info("email tool delivered", "to", to, "provider", receipt.Provider, "message_id", receipt.MessageID)
	if receipt.Simulated() {
		return EmailToolResult{Status: EmailSent, Message: fmt.Sprintf("Email successfully simulated sending to %s.", to)}
	}
	return EmailToolResult{Status: EmailSent, Message: fmt.Sprintf("Email sent to %s.", to)}
}
