package booking

import (
	"fmt"
	"strings"
)

const bookingSystemPrompt = `You are an expert AI appointment booking assistant for HealthAssist.

Your task is to:
1. Create an "internalConfirmationMessage": a brief acknowledgement of the booking request (for example "Processing your request."). Do NOT include the date/time or email details.
2. Determine a "simulatedDateTime" for the appointment (for example "2025-03-04 at 10:00 AM" or "next Tuesday at 3:00 PM"). Use the explicit preferred date if given, then any preference in the conversation, otherwise pick a slot a few days out.
3. Craft an "emailSubject" such as "Your HealthAssist Appointment Confirmation".
4. Compose an "emailBody" in HTML. It MUST include the full simulatedDateTime, a summary of the reported symptoms, the complete conversation (trial details) or "No prior conversation details provided." when there is none, and any relevant next steps.

Before giving your final answer you MUST call the sendEmailTool exactly once with the user's email address, the emailSubject and the emailBody. This tool call is mandatory.

After the tool has returned, respond ONLY with a JSON object with the fields "internalConfirmationMessage", "simulatedDateTime", "emailSubject" and "emailBody". No markdown, no commentary.`

func buildBookingPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User's email: %s\n", req.UserEmail)
	fmt.Fprintf(&b, "Symptoms: %q\n", req.Symptoms)
	if strings.TrimSpace(req.PreferredDate) != "" {
		fmt.Fprintf(&b, "User's explicit preferred date: %q. Prioritize this for the date.\n", req.PreferredDate)
	}
	if strings.TrimSpace(req.ConversationSummary) != "" {
		fmt.Fprintf(&b, "Full conversation (trial details): %q. Review for date/time preferences if no preferred date is set.\n", req.ConversationSummary)
	}
	b.WriteString("\nProcess the appointment request. Generate the acknowledgement, simulated date/time and email content, call the sendEmailTool with them, then return the JSON object.")
	return b.String()
}
