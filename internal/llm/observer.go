package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("symptom-scout.llm")

// CallEvent records metadata about a single LLM invocation.
type CallEvent struct {
	Operation    string
	Provider     string
	Latency      time.Duration
	Success      bool
	InputTokens  int32
	OutputTokens int32
	ToolCalls    int
}

// Observer receives events about LLM calls for logging and metrics.
type Observer interface {
	OnCallComplete(event CallEvent)
}

// NoopObserver discards all events.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(CallEvent) {}

// InstrumentedClient traces every call and reports it to an Observer.
type InstrumentedClient struct {
	next      Client
	operation string
	provider  string
	observer  Observer
	timeout   time.Duration
}

// NewInstrumentedClient wraps next. provider labels calls whose response does
// not name one, such as failed calls.
func NewInstrumentedClient(next Client, operation, provider string, observer Observer) *InstrumentedClient {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &InstrumentedClient{next: next, operation: operation, provider: provider, observer: observer}
}

// WithTimeout bounds every call by d. Zero disables the bound.
func (c *InstrumentedClient) WithTimeout(d time.Duration) *InstrumentedClient {
	c.timeout = d
	return c
}

func (c *InstrumentedClient) Complete(ctx context.Context, req Request) (Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	ctx, span := tracer.Start(ctx, "llm.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("symptom_scout.llm.operation", c.operation),
		attribute.Int("symptom_scout.llm.messages", len(req.Messages)),
		attribute.Int("symptom_scout.llm.tools", len(req.Tools)),
	)

	start := time.Now()
	resp, err := c.next.Complete(ctx, req)
	event := CallEvent{
		Operation: c.operation,
		Provider:  c.provider,
		Latency:   time.Since(start),
		Success:   err == nil,
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.observer.OnCallComplete(event)
		return Response{}, err
	}

	if resp.Provider != "" {
		event.Provider = resp.Provider
	}
	event.InputTokens = resp.Usage.InputTokens
	event.OutputTokens = resp.Usage.OutputTokens
	event.ToolCalls = len(resp.ToolCalls)
	span.SetAttributes(
		attribute.String("symptom_scout.llm.provider", event.Provider),
		attribute.String("symptom_scout.llm.stop_reason", resp.StopReason),
		attribute.Int("symptom_scout.llm.tool_calls", event.ToolCalls),
	)
	c.observer.OnCallComplete(event)
	return resp, nil
}

func (c *InstrumentedClient) Close() error {
	if closer, ok := c.next.(Closer); ok {
		return closer.Close()
	}
	return nil
}
