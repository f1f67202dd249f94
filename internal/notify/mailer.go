package notify

import (
	"context"
	"errors"
	"net/mail"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/wolfman30/symptom-scout/pkg/logging"
)

const (
	// DefaultFromName is the display name on confirmations when none is configured.
	DefaultFromName = "HealthAssist"
	// ConfirmationCategory tags every confirmation at the provider for reporting.
	ConfirmationCategory = "appointment-confirmation"

	ProviderSimulated = "simulated"
	ProviderSendGrid  = "sendgrid"
	ProviderSES       = "ses"
)

// ErrRecipientRejected marks a permanent refusal of one recipient, as opposed
// to an outage worth retrying later.
var ErrRecipientRejected = errors.New("notify: recipient rejected")

// Confirmation is one appointment confirmation ready for delivery. The
// booking model writes HTML; mailers derive the text alternative.
type Confirmation struct {
	To      string
	Subject string
	HTML    string
}

// Text is the text/plain alternative of the HTML body.
func (c Confirmation) Text() string { return plainText(c.HTML) }

// Receipt identifies a delivered confirmation at the provider.
type Receipt struct {
	Provider  string
	MessageID string
}

// Simulated reports whether nothing actually left the process.
func (r Receipt) Simulated() bool { return r.Provider == ProviderSimulated }

// Mailer delivers confirmations. Implementations wrap ErrRecipientRejected
// when the provider refuses the address itself.
type Mailer interface {
	Deliver(ctx context.Context, c Confirmation) (Receipt, error)
}

// From is the sender identity shared by every mailer.
type From struct {
	Address string
	Name    string
}

func (f From) withDefaults() From {
	if strings.TrimSpace(f.Name) == "" {
		f.Name = DefaultFromName
	}
	return f
}

// String renders the RFC 5322 From header.
func (f From) String() string {
	return (&mail.Address{Name: f.Name, Address: f.Address}).String()
}

// SimulatedMailer accepts every confirmation without sending it.
type SimulatedMailer struct {
	logger *logging.Logger
}

func NewSimulatedMailer(logger *logging.Logger) *SimulatedMailer {
	if logger == nil {
		logger = logging.Default()
	}
	return &SimulatedMailer{logger: logger}
}

func (m *SimulatedMailer) Deliver(_ context.Context, c Confirmation) (Receipt, error) {
	receipt := Receipt{Provider: ProviderSimulated, MessageID: "sim-" + uuid.NewString()}
	m.logger.Info("confirmation simulated", "to", c.To, "subject", c.Subject, "message_id", receipt.MessageID, "text_length", len(c.Text()))
	return receipt, nil
}

var (
	htmlBreakRe = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</li>|</h[1-6]>`)
	htmlTagRe   = regexp.MustCompile(`<[^>]+>`)
	blankRunRe  = regexp.MustCompile(`\n{3,}`)
)

func plainText(html string) string {
	text := htmlBreakRe.ReplaceAllString(html, "\n")
	text = htmlTagRe.ReplaceAllString(text, "")
	text = strings.NewReplacer("&nbsp;", " ", "&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'").Replace(text)
	return strings.TrimSpace(blankRunRe.ReplaceAllString(text, "\n\n"))
}
