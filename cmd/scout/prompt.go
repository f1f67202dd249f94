package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/wolfman30/symptom-scout/internal/booking"
	"github.com/wolfman30/symptom-scout/internal/chat"
	"github.com/wolfman30/symptom-scout/internal/triage"
)

const ownAnswer = "\x00own"

// huhPrompter renders each step as a themed huh form.
type huhPrompter struct{}

func (huhPrompter) chooseSymptom(symptoms []triage.Symptom) (string, error) {
	options := make([]huh.Option[string], 0, len(symptoms)+1)
	for _, s := range symptoms {
		options = append(options, huh.NewOption(s.Name, s.Name))
	}
	options = append(options, huh.NewOption("Something else", ownAnswer))

	var choice string
	err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("What symptom are you experiencing?").
			Options(options...).
			Value(&choice),
	)).WithTheme(scoutHuhTheme()).WithShowHelp(false).Run()
	if err != nil {
		return "", err
	}
	if choice != ownAnswer {
		return choice, nil
	}
	return huhText("Describe your symptom", "")
}

func (huhPrompter) reply(quickReplies []triage.QuickReply) (string, string, error) {
	if len(quickReplies) == 0 {
		text, err := huhText("Your answer", "")
		return text, "", err
	}

	options := make([]huh.Option[string], 0, len(quickReplies)+1)
	for _, qr := range quickReplies {
		options = append(options, huh.NewOption(qr.Label, qr.ID))
	}
	options = append(options, huh.NewOption("Type my own answer", ownAnswer))

	var choice string
	err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Choose a reply").
			Options(options...).
			Value(&choice),
	)).WithTheme(scoutHuhTheme()).WithShowHelp(false).Run()
	if err != nil {
		return "", "", err
	}
	if choice != ownAnswer {
		return "", choice, nil
	}
	text, err := huhText("Your answer", "")
	return text, "", err
}

func (huhPrompter) decide() (bool, error) {
	accept := true
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Would you like to book an appointment?").
			Affirmative(chat.BookNowLabel).
			Negative(chat.ManageSelfLabel).
			Value(&accept),
	)).WithTheme(scoutHuhTheme()).WithShowHelp(false).Run()
	return accept, err
}

func (huhPrompter) email() (string, error) {
	var raw string
	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(triage.EmailPromptText).
			Placeholder("you@example.com tomorrow afternoon").
			Value(&raw).
			Validate(func(s string) error {
				_, err := booking.ParseContact(s)
				return err
			}),
	)).WithTheme(scoutHuhTheme()).WithShowHelp(false).Run()
	return raw, err
}

func (huhPrompter) startOver() (bool, error) {
	again := false
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Start a new session?").
			Affirmative("Start over").
			Negative("Quit").
			Value(&again),
	)).WithTheme(scoutHuhTheme()).WithShowHelp(false).Run()
	return again, err
}

func huhText(title, placeholder string) (string, error) {
	var text string
	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(title).
			Placeholder(placeholder).
			Value(&text),
	)).WithTheme(scoutHuhTheme()).WithShowHelp(false).Run()
	return text, err
}

// linePrompter reads one answer per line. Used when stdin is not a terminal.
type linePrompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newLinePrompter(in io.Reader, out io.Writer) *linePrompter {
	return &linePrompter{in: bufio.NewScanner(in), out: out}
}

func (p *linePrompter) readLine(prompt string) (string, error) {
	fmt.Fprint(p.out, styleDim.Render(prompt+"> "))
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// pick resolves a 1-based option number. ok is false for free text.
func pick(line string, n int) (int, bool) {
	idx, err := strconv.Atoi(line)
	if err != nil || idx < 1 || idx > n {
		return 0, false
	}
	return idx - 1, true
}

func (p *linePrompter) chooseSymptom(symptoms []triage.Symptom) (string, error) {
	for i, s := range symptoms {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, s.Name)
	}
	line, err := p.readLine("symptom")
	if err != nil {
		return "", err
	}
	if idx, ok := pick(line, len(symptoms)); ok {
		return symptoms[idx].Name, nil
	}
	return line, nil
}

func (p *linePrompter) reply(quickReplies []triage.QuickReply) (string, string, error) {
	for i, qr := range quickReplies {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, qr.Label)
	}
	line, err := p.readLine("reply")
	if err != nil {
		return "", "", err
	}
	if idx, ok := pick(line, len(quickReplies)); ok {
		return "", quickReplies[idx].ID, nil
	}
	return line, "", nil
}

func (p *linePrompter) decide() (bool, error) {
	fmt.Fprintf(p.out, "  1) %s\n  2) %s\n", chat.BookNowLabel, chat.ManageSelfLabel)
	for {
		line, err := p.readLine("decision")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "1", "y", "yes", strings.ToLower(chat.BookNowLabel):
			return true, nil
		case "2", "n", "no", strings.ToLower(chat.ManageSelfLabel):
			return false, nil
		}
	}
}

func (p *linePrompter) email() (string, error) {
	return p.readLine("email")
}

func (p *linePrompter) startOver() (bool, error) {
	line, err := p.readLine("start over? [y/N]")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
