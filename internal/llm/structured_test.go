package llm

import (
	"errors"
	"testing"
)

type decision struct {
	NextQuestion string   `json:"nextQuestion"`
	QuickReplies []string `json:"quickReplies"`
}

func TestExtractJSON_StripsFencesAndProse(t *testing.T) {
	raw := "Sure, here you go:\n```json\n{\"nextQuestion\":\"How long {roughly}?\",\"quickReplies\":[\"1 day\",\"2 days\"]}\n```\nThanks"

	got, err := ExtractJSON[decision](raw, nil)
	if err != nil {
		t.Fatalf("ExtractJSON returned error: %v", err)
	}
	if got.NextQuestion != "How long {roughly}?" {
		t.Fatalf("unexpected question %q", got.NextQuestion)
	}
	if len(got.QuickReplies) != 2 {
		t.Fatalf("expected 2 quick replies, got %d", len(got.QuickReplies))
	}
}

func TestExtractJSON_NoObject(t *testing.T) {
	_, err := ExtractJSON[decision]("no json here", nil)
	if !errors.Is(err, ErrInvalidOutput) {
		t.Fatalf("expected ErrInvalidOutput, got %v", err)
	}
}

func TestExtractJSON_ValidatorFailure(t *testing.T) {
	validator := func(d decision) error {
		if d.NextQuestion == "" {
			return errors.New("missing question")
		}
		return nil
	}
	_, err := ExtractJSON[decision](`{"quickReplies":[]}`, validator)
	if !errors.Is(err, ErrInvalidOutput) {
		t.Fatalf("expected ErrInvalidOutput, got %v", err)
	}
}

func TestExtractJSONBlock_EscapedQuotes(t *testing.T) {
	got := extractJSONBlock(`prefix {"a":"say \"}\" now","b":{"c":1}} trailing }`)
	want := `{"a":"say \"}\" now","b":{"c":1}}`
	if got != want {
		t.Fatalf("extractJSONBlock = %q, want %q", got, want)
	}
}
