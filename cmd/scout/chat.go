package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/wolfman30/symptom-scout/internal/app/bootstrap"
	"github.com/wolfman30/symptom-scout/internal/booking"
	"github.com/wolfman30/symptom-scout/internal/chat"
	"github.com/wolfman30/symptom-scout/internal/session"
	"github.com/wolfman30/symptom-scout/internal/triage"
	"github.com/wolfman30/symptom-scout/pkg/logging"
)

// prompter collects one user action per call. Implementations return io.EOF
// or huh.ErrUserAborted when the user leaves.
type prompter interface {
	chooseSymptom(symptoms []triage.Symptom) (string, error)
	reply(quickReplies []triage.QuickReply) (text, replyID string, err error)
	decide() (bool, error)
	email() (string, error)
	startOver() (bool, error)
}

func newChatCmd(opts *rootOptions, interactive func() bool) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Run a triage conversation in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.loadConfig()
			if opts.logLevel == "" {
				cfg.LogLevel = "error"
			}
			// Logs go to stderr so they never interleave with the transcript.
			logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel)

			app, err := bootstrap.BuildApp(cmd.Context(), cfg, logger, bootstrap.Deps{
				Registerer: prometheus.NewRegistry(),
				LoadAWS:    awsLoader(cfg),
			})
			if err != nil {
				return err
			}
			defer app.Close()

			var p prompter
			if plain || !interactive() {
				p = newLinePrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			} else {
				p = huhPrompter{}
			}
			return runChat(cmd.Context(), app.Chat, p, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "read answers line by line instead of using interactive forms")
	return cmd
}

// runChat drives one chat.Service session until the user quits.
func runChat(ctx context.Context, svc *chat.Service, p prompter, out io.Writer) error {
	view, err := svc.Open(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, styleHeader.Render("HealthAssist"))

	seen := 0
	for {
		seen = render(out, view.Messages, seen)

		var next chat.View
		switch {
		case view.ShowSymptomPicker:
			var symptom string
			if symptom, err = p.chooseSymptom(view.Symptoms); err == nil {
				next, err = svc.SelectSymptom(ctx, view.SessionID, symptom, "")
			}
		case view.ShowInput:
			var text, replyID string
			if text, replyID, err = p.reply(view.QuickReplies); err == nil {
				next, err = svc.Reply(ctx, view.SessionID, text, replyID)
			}
		case view.ShowBookingDecision:
			var accept bool
			if accept, err = p.decide(); err == nil {
				next, err = svc.Decide(ctx, view.SessionID, accept)
			}
		case view.ShowEmailInput:
			var raw string
			if raw, err = p.email(); err == nil {
				next, err = svc.SubmitEmail(ctx, view.SessionID, raw)
			}
		case view.ShowStartOver:
			if view.Booking != nil {
				renderBooking(out, view.Booking)
			}
			fmt.Fprintln(out, styleDim.Render(view.CompletionNote))
			var again bool
			if again, err = p.startOver(); err == nil {
				if !again {
					return nil
				}
				seen = 0
				next, err = svc.Reset(ctx, view.SessionID)
			}
		default:
			return fmt.Errorf("scout: session %s is in an unexpected state %q", view.SessionID, view.State)
		}

		switch {
		case err == nil:
			view = next
		case errors.Is(err, io.EOF), errors.Is(err, huh.ErrUserAborted):
			return nil
		case isValidation(err):
			fmt.Fprintln(out, styleWarn.Render(validationMessage(err)))
			if view, err = svc.View(ctx, view.SessionID); err != nil {
				return err
			}
		default:
			return err
		}
	}
}

func isValidation(err error) bool {
	return errors.Is(err, booking.ErrEmptyEmail) ||
		errors.Is(err, booking.ErrInvalidEmail) ||
		errors.Is(err, triage.ErrEmptyResponse) ||
		errors.Is(err, triage.ErrUnknownQuickReply)
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, booking.ErrEmptyEmail), errors.Is(err, booking.ErrInvalidEmail):
		return "Please enter a valid email address."
	case errors.Is(err, triage.ErrUnknownQuickReply):
		return "That option is no longer available."
	default:
		return "Please type a response."
	}
}

// render prints messages after the first seen and returns the new count.
func render(out io.Writer, msgs []session.Message, seen int) int {
	if seen > len(msgs) {
		seen = 0
	}
	for _, m := range msgs[seen:] {
		switch triage.Sender(m.Sender) {
		case triage.SenderUser:
			fmt.Fprintln(out, styleUser.Render("You: ")+m.Text)
		case triage.SenderSystem:
			fmt.Fprintln(out, styleSystem.Render(m.Text))
		default:
			line := styleBot.Render(m.Text)
			if m.Urgency != "" {
				line = urgencyStyle(m.Urgency).Render("["+m.Urgency+"] ") + line
			}
			fmt.Fprintln(out, line)
		}
	}
	return len(msgs)
}

func renderBooking(out io.Writer, res *booking.Result) {
	a := res.AppointmentDetails
	fmt.Fprintln(out, styleHeader.Render("Appointment"))
	fmt.Fprintf(out, "  %s %s\n", styleDim.Render("Status:"), a.Status)
	if a.BookedDateTime != "" {
		fmt.Fprintf(out, "  %s %s\n", styleDim.Render("When:"), a.BookedDateTime)
	}
	if res.EmailSentStatus != "" {
		fmt.Fprintf(out, "  %s %s\n", styleDim.Render("Email:"), res.EmailSentStatus)
	}
}
