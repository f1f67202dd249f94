package triage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/symptom-scout/internal/llm"
	"github.com/wolfman30/symptom-scout/pkg/logging"
)

var tracer = otel.Tracer("symptom-scout.triage")

// ErrMalformedResult is returned when the model answer is missing required fields.
var ErrMalformedResult = errors.New("triage: malformed prompt result")

type InvokerConfig struct {
	MaxTokens   int32
	Temperature float32
}

// LLMInvoker implements PromptInvoker and Assessor over an llm.Client.
type LLMInvoker struct {
	client llm.Client
	cfg    InvokerConfig
	logger *logging.Logger
}

func NewLLMInvoker(client llm.Client, cfg InvokerConfig, logger *logging.Logger) *LLMInvoker {
	if client == nil {
		panic("triage: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	return &LLMInvoker{client: client, cfg: cfg, logger: logger}
}

// rawTurnResult mirrors TurnResult with a free-form urgency so model
// spelling variants can be normalized before validation.
type rawTurnResult struct {
	NextQuestion string   `json:"nextQuestion"`
	QuickReplies []string `json:"quickReplies"`
	Urgency      string   `json:"urgency"`
	Outcome      string   `json:"outcome"`
}

func validateTurn(r rawTurnResult) error {
	if strings.TrimSpace(r.NextQuestion) == "" {
		return errors.New("nextQuestion is required")
	}
	if _, ok := ParseUrgency(r.Urgency); !ok {
		return fmt.Errorf("urgency: invalid enum value %q", r.Urgency)
	}
	if strings.TrimSpace(r.Outcome) == "" {
		return errors.New("outcome is required")
	}
	return nil
}

func (i *LLMInvoker) Triage(ctx context.Context, req TurnRequest) (TurnResult, error) {
	ctx, span := tracer.Start(ctx, "triage.invoke")
	defer span.End()
	span.SetAttributes(attribute.Bool("symptom_scout.triage.has_history", req.PreviousResponses != ""))

	resp, err := i.client.Complete(ctx, llm.Request{
		System:      []string{triageSystemPrompt},
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildTriagePrompt(req)}},
		MaxTokens:   i.cfg.MaxTokens,
		Temperature: i.cfg.Temperature,
		JSONOutput:  true,
	})
	if err != nil {
		span.RecordError(err)
		return TurnResult{}, fmt.Errorf("triage: llm completion: %w", err)
	}

	raw, err := llm.ExtractJSON[rawTurnResult](resp.Text, validateTurn)
	if err != nil {
		span.RecordError(err)
		i.logger.Warn("triage result rejected", "provider", resp.Provider, "response_length", len(resp.Text), "error", err)
		return TurnResult{}, fmt.Errorf("%w: %w", ErrMalformedResult, err)
	}

	urgency, _ := ParseUrgency(raw.Urgency)
	span.SetAttributes(attribute.String("symptom_scout.triage.urgency", string(urgency)))
	return TurnResult{
		NextQuestion: strings.TrimSpace(raw.NextQuestion),
		QuickReplies: raw.QuickReplies,
		Urgency:      urgency,
		Outcome:      strings.TrimSpace(raw.Outcome),
	}, nil
}
