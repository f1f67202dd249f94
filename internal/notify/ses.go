package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/wolfman30/symptom-scout/pkg/logging"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailer delivers confirmations through Amazon SES v2. Suppressed or
// unverified recipients come back as MessageRejected.
type SESMailer struct {
	api    sesAPI
	from   From
	logger *logging.Logger
}

func NewSESMailer(api sesAPI, from From, logger *logging.Logger) *SESMailer {
	if api == nil {
		return nil
	}
	if c, ok := api.(*sesv2.Client); ok && c == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SESMailer{api: api, from: from.withDefaults(), logger: logger}
}

func (m *SESMailer) Deliver(ctx context.Context, c Confirmation) (Receipt, error) {
	body := &types.Body{Html: utf8Content(c.HTML)}
	if text := c.Text(); text != "" {
		body.Text = utf8Content(text)
	}
	out, err := m.api.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from.String()),
		Destination:      &types.Destination{ToAddresses: []string{c.To}},
		Content: &types.EmailContent{Simple: &types.Message{
			Subject: utf8Content(c.Subject),
			Body:    body,
		}},
		EmailTags: []types.MessageTag{{Name: aws.String("category"), Value: aws.String(ConfirmationCategory)}},
	})
	if err != nil {
		var rejected *types.MessageRejected
		if errors.As(err, &rejected) {
			m.logger.Warn("ses rejected confirmation", "to", c.To, "error", err)
			return Receipt{}, fmt.Errorf("%w: %v", ErrRecipientRejected, err)
		}
		return Receipt{}, fmt.Errorf("notify: ses send failed: %w", err)
	}
	return Receipt{Provider: ProviderSES, MessageID: aws.ToString(out.MessageId)}, nil
}

func utf8Content(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}
