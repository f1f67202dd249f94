package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/symptom-scout/internal/llm"
	"github.com/wolfman30/symptom-scout/internal/notify"
	"github.com/wolfman30/symptom-scout/pkg/logging"
)

var tracer = otel.Tracer("symptom-scout.booking")

const defaultMaxToolRounds = 3

// EmailToolRunner executes sendEmailTool calls. Implemented by notify.EmailTool.
type EmailToolRunner interface {
	Send(ctx context.Context, in notify.EmailToolInput) notify.EmailToolResult
}

type InvokerConfig struct {
	MaxToolRounds int
	MaxTokens     int32
}

// LLMInvoker runs the booking prompt against an llm.Client, executing email
// tool calls and feeding their results back until the model answers.
type LLMInvoker struct {
	client    llm.Client
	tool      EmailToolRunner
	maxRounds int
	maxTokens int32
	logger    *logging.Logger
}

func NewLLMInvoker(client llm.Client, tool EmailToolRunner, cfg InvokerConfig, logger *logging.Logger) *LLMInvoker {
	if client == nil {
		panic("booking: llm client cannot be nil")
	}
	if tool == nil {
		panic("booking: email tool cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = defaultMaxToolRounds
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	return &LLMInvoker{
		client:    client,
		tool:      tool,
		maxRounds: cfg.MaxToolRounds,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}
}

func emailToolSpec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        notify.EmailToolName,
		Description: notify.EmailToolDescription,
		Parameters:  notify.EmailToolParameters(),
	}
}

func validateOutput(o Output) error {
	if strings.TrimSpace(o.InternalConfirmationMessage) == "" {
		return fmt.Errorf("internalConfirmationMessage is required")
	}
	if strings.TrimSpace(o.DateTime()) == "" {
		return fmt.Errorf("simulatedDateTime is required")
	}
	return nil
}

func (i *LLMInvoker) Invoke(ctx context.Context, req Request) (InvokerResult, error) {
	ctx, span := tracer.Start(ctx, "booking.invoke")
	defer span.End()

	messages := []llm.Message{{Role: llm.RoleUser, Content: buildBookingPrompt(req)}}
	var (
		result    InvokerResult
		candidate *Output
	)

	for round := 0; round < i.maxRounds; round++ {
		resp, err := i.client.Complete(ctx, llm.Request{
			System:      []string{bookingSystemPrompt},
			Messages:    messages,
			MaxTokens:   i.maxTokens,
			Temperature: 0.2,
			Tools:       []llm.ToolSpec{emailToolSpec()},
		})
		if err != nil {
			span.RecordError(err)
			return result, fmt.Errorf("booking: llm completion: %w", err)
		}

		// Some models emit the JSON answer in the same turn as the tool call.
		if out, perr := llm.ExtractJSON[Output](resp.Text, validateOutput); perr == nil {
			candidate = &out
		}

		if len(resp.ToolCalls) == 0 {
			if candidate == nil {
				_, perr := llm.ExtractJSON[Output](resp.Text, validateOutput)
				span.RecordError(perr)
				return result, fmt.Errorf("booking: parse output: %w", perr)
			}
			result.Output = candidate
			span.SetAttributes(attribute.Int("symptom_scout.booking.tool_calls", len(result.Trace)))
			return result, nil
		}

		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: resp.Text, ToolCalls: resp.ToolCalls})
		for _, call := range resp.ToolCalls {
			content, inv := i.runTool(ctx, req, call)
			result.Trace = append(result.Trace, inv)
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    content,
				ToolCallID: call.ID,
				ToolName:   call.Name,
			})
		}
	}

	span.SetAttributes(attribute.Int("symptom_scout.booking.tool_calls", len(result.Trace)))
	if candidate != nil {
		result.Output = candidate
		return result, nil
	}
	i.logger.Warn("booking tool loop exhausted without output", "rounds", i.maxRounds, "tool_calls", len(result.Trace))
	return result, ErrNoOutput
}

func (i *LLMInvoker) runTool(ctx context.Context, req Request, call llm.ToolCall) (string, ToolInvocation) {
	inv := ToolInvocation{Name: call.Name}
	if call.Name != notify.EmailToolName {
		i.logger.Warn("booking model called unknown tool", "tool", call.Name)
		return `{"error":"unknown tool"}`, inv
	}

	var input notify.EmailToolInput
	if err := json.Unmarshal(call.Arguments, &input); err != nil {
		inv.Response = &ToolResponse{ParseErr: fmt.Errorf("invalid tool arguments: %w", err)}
		return `{"status":"Failed","message":"Invalid tool arguments."}`, inv
	}
	if strings.TrimSpace(input.Body) == "" {
		input.Body = FormatConfirmationHTML(req, "")
	}
	inv.Request = input

	res := i.tool.Send(ctx, input)
	payload, err := json.Marshal(res)
	if err != nil {
		inv.Response = &ToolResponse{ParseErr: err}
		return `{"status":"Failed","message":"Could not encode tool result."}`, inv
	}
	parsed, perr := ParseToolPayload(payload)
	inv.Response = &ToolResponse{Result: parsed, ParseErr: perr}
	return string(payload), inv
}
