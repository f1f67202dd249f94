package triage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/symptom-scout/internal/llm"
)

// Assessment is a one-shot urgency classification with the model's reasoning.
type Assessment struct {
	UrgencyCategory Urgency `json:"urgencyCategory"`
	Rationale       string  `json:"rationale"`
}

// Assessor classifies urgency from symptoms and free-text answers without
// starting a conversation.
type Assessor interface {
	AssessUrgency(ctx context.Context, symptoms, responses string) (Assessment, error)
}

type rawAssessment struct {
	UrgencyCategory string `json:"urgencyCategory"`
	Rationale       string `json:"rationale"`
}

func (i *LLMInvoker) AssessUrgency(ctx context.Context, symptoms, responses string) (Assessment, error) {
	if strings.TrimSpace(symptoms) == "" {
		return Assessment{}, errors.New("triage: symptoms are required")
	}

	ctx, span := tracer.Start(ctx, "triage.assess")
	defer span.End()

	resp, err := i.client.Complete(ctx, llm.Request{
		System:      []string{assessSystemPrompt},
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildAssessPrompt(symptoms, responses)}},
		MaxTokens:   512,
		Temperature: i.cfg.Temperature,
		JSONOutput:  true,
	})
	if err != nil {
		span.RecordError(err)
		return Assessment{}, fmt.Errorf("triage: llm completion: %w", err)
	}

	raw, err := llm.ExtractJSON[rawAssessment](resp.Text, func(r rawAssessment) error {
		if _, ok := ParseUrgency(r.UrgencyCategory); !ok {
			return fmt.Errorf("urgencyCategory: invalid enum value %q", r.UrgencyCategory)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return Assessment{}, fmt.Errorf("%w: %w", ErrMalformedResult, err)
	}

	urgency, _ := ParseUrgency(raw.UrgencyCategory)
	return Assessment{UrgencyCategory: urgency, Rationale: strings.TrimSpace(raw.Rationale)}, nil
}
