package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/wolfman30/symptom-scout/pkg/logging"
)

type sendgridAPI interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridMailer delivers confirmations through the SendGrid v3 API.
type SendGridMailer struct {
	api    sendgridAPI
	from   From
	logger *logging.Logger
}

// NewSendGridMailer returns nil without an API key.
func NewSendGridMailer(apiKey string, from From, logger *logging.Logger) *SendGridMailer {
	if apiKey == "" {
		return nil
	}
	return newSendGridMailer(sendgrid.NewSendClient(apiKey), from, logger)
}

func newSendGridMailer(api sendgridAPI, from From, logger *logging.Logger) *SendGridMailer {
	if logger == nil {
		logger = logging.Default()
	}
	return &SendGridMailer{api: api, from: from.withDefaults(), logger: logger}
}

func (m *SendGridMailer) Deliver(ctx context.Context, c Confirmation) (Receipt, error) {
	message := mail.NewV3MailInit(
		mail.NewEmail(m.from.Name, m.from.Address),
		c.Subject,
		mail.NewEmail("", c.To),
		mail.NewContent("text/plain", c.Text()),
		mail.NewContent("text/html", c.HTML),
	)
	message.AddCategories(ConfirmationCategory)

	resp, err := m.api.SendWithContext(ctx, message)
	if err != nil {
		return Receipt{}, fmt.Errorf("notify: sendgrid send failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		m.logger.Error("sendgrid refused confirmation", "status", resp.StatusCode, "body", resp.Body, "to", c.To)
		if recipientRefusal(resp.StatusCode) {
			return Receipt{}, fmt.Errorf("%w: sendgrid status %d", ErrRecipientRejected, resp.StatusCode)
		}
		return Receipt{}, fmt.Errorf("notify: sendgrid returned status %d", resp.StatusCode)
	}

	receipt := Receipt{Provider: ProviderSendGrid}
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		receipt.MessageID = ids[0]
	}
	return receipt, nil
}

// recipientRefusal separates request-level 4xx answers from auth, quota and
// server problems that say nothing about the address.
func recipientRefusal(status int) bool {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		return false
	}
	return status >= 400 && status < 500
}
