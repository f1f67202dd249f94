package booking

import (
	"fmt"
	"html"
	"strings"
)

// FormatConfirmationHTML renders the trial details of a booking request as an
// HTML email body. Used when the model calls the email tool without a body.
func FormatConfirmationHTML(req Request, dateTime string) string {
	var dateRow string
	if dateTime != "" {
		dateRow = fmt.Sprintf(`<tr><td style="padding:6px 12px;font-weight:bold;">Appointment</td><td style="padding:6px 12px;">%s</td></tr>`, html.EscapeString(dateTime))
	}
	var prefRow string
	if req.PreferredDate != "" {
		prefRow = fmt.Sprintf(`<tr><td style="padding:6px 12px;font-weight:bold;">Preferred Date</td><td style="padding:6px 12px;">%s</td></tr>`, html.EscapeString(req.PreferredDate))
	}

	conversation := "No prior conversation details provided."
	if strings.TrimSpace(req.ConversationSummary) != "" {
		conversation = strings.ReplaceAll(html.EscapeString(req.ConversationSummary), "\n", "<br>")
	}

	return fmt.Sprintf(`<div style="font-family:sans-serif;max-width:600px;">
<h2 style="color:#333;">Your HealthAssist Appointment</h2>
<table style="border-collapse:collapse;width:100%%;">
<tr><td style="padding:6px 12px;font-weight:bold;">Email</td><td style="padding:6px 12px;">%s</td></tr>
<tr><td style="padding:6px 12px;font-weight:bold;">Symptoms</td><td style="padding:6px 12px;">%s</td></tr>
%s
%s
</table>
<h3 style="color:#333;">Conversation</h3>
<p>%s</p>
<p style="color:#666;font-size:12px;">This appointment is simulated. If your symptoms get worse, seek medical attention.</p>
</div>`,
		html.EscapeString(req.UserEmail),
		html.EscapeString(valueOrNA(req.Symptoms)),
		dateRow,
		prefRow,
		conversation,
	)
}

func valueOrNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
