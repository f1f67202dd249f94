package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/symptom-scout/pkg/logging"
)

func TestFallbackClient(t *testing.T) {
	primaryErr := errors.New("throttled")

	t.Run("primary succeeds", func(t *testing.T) {
		fallbackCalled := false
		client := NewFallbackClient(
			ClientFunc(func(context.Context, Request) (Response, error) { return Response{Text: "primary"}, nil }),
			ClientFunc(func(context.Context, Request) (Response, error) {
				fallbackCalled = true
				return Response{}, nil
			}),
			logging.Discard(),
		)
		resp, err := client.Complete(context.Background(), Request{})
		require.NoError(t, err)
		assert.Equal(t, "primary", resp.Text)
		assert.False(t, fallbackCalled)
	})

	t.Run("fallback used on primary error", func(t *testing.T) {
		client := NewFallbackClient(
			ClientFunc(func(context.Context, Request) (Response, error) { return Response{}, primaryErr }),
			ClientFunc(func(context.Context, Request) (Response, error) { return Response{Text: "fallback"}, nil }),
			logging.Discard(),
		)
		resp, err := client.Complete(context.Background(), Request{})
		require.NoError(t, err)
		assert.Equal(t, "fallback", resp.Text)
	})

	t.Run("no fallback returns primary error", func(t *testing.T) {
		client := NewFallbackClient(
			ClientFunc(func(context.Context, Request) (Response, error) { return Response{}, primaryErr }),
			nil,
			logging.Discard(),
		)
		_, err := client.Complete(context.Background(), Request{})
		assert.ErrorIs(t, err, primaryErr)
	})
}

type recordingObserver struct {
	events []CallEvent
}

func (r *recordingObserver) OnCallComplete(e CallEvent) { r.events = append(r.events, e) }

func TestInstrumentedClient_ReportsEvents(t *testing.T) {
	obs := &recordingObserver{}
	ok := NewInstrumentedClient(ClientFunc(func(context.Context, Request) (Response, error) {
		time.Sleep(time.Millisecond)
		return Response{Text: "x", Provider: ProviderGemini, Usage: TokenUsage{InputTokens: 4, OutputTokens: 2}}, nil
	}), "triage", ProviderBedrock, obs)
	_, err := ok.Complete(context.Background(), Request{})
	require.NoError(t, err)

	failing := NewInstrumentedClient(ClientFunc(func(context.Context, Request) (Response, error) {
		return Response{}, errors.New("boom")
	}), "booking", ProviderBedrock, obs)
	_, err = failing.Complete(context.Background(), Request{})
	require.Error(t, err)

	require.Len(t, obs.events, 2)
	assert.True(t, obs.events[0].Success)
	assert.Equal(t, ProviderGemini, obs.events[0].Provider)
	assert.Equal(t, int32(4), obs.events[0].InputTokens)
	assert.Greater(t, obs.events[0].Latency, time.Duration(0))
	assert.False(t, obs.events[1].Success)
	assert.Equal(t, ProviderBedrock, obs.events[1].Provider)
	assert.Equal(t, "booking", obs.events[1].Operation)
}

func TestGeminiContents_TrailingToolResults(t *testing.T) {
	history, last := geminiContents([]Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "book me"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "a", Name: "sendEmailTool"}}},
		{Role: RoleTool, ToolName: "sendEmailTool", Content: `{"success":true}`},
	})
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "model", history[1].Role)
	require.Len(t, last, 1)
}

func TestGeminiSchema(t *testing.T) {
	schema := geminiSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to":   map[string]any{"type": "string", "description": "recipient"},
			"tags": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []any{"to"},
	})
	require.NotNil(t, schema)
	assert.Equal(t, []string{"to"}, schema.Required)
	assert.Equal(t, "recipient", schema.Properties["to"].Description)
	require.NotNil(t, schema.Properties["tags"].Items)
}

func TestInstrumentedClient_Timeout(t *testing.T) {
	client := NewInstrumentedClient(ClientFunc(func(ctx context.Context, _ Request) (Response, error) {
		<-ctx.Done()
		return Response{}, ctx.Err()
	}), "triage", ProviderOpenAI, nil).WithTimeout(5 * time.Millisecond)

	_, err := client.Complete(context.Background(), Request{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
