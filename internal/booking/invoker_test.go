package booking

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/symptom-scout/internal/llm"
	"github.com/wolfman30/symptom-scout/internal/notify"
	"github.com/wolfman30/symptom-scout/pkg/logging"
)

// scriptedClient replays responses in order and records requests.
type scriptedClient struct {
	responses []llm.Response
	err       error
	requests  []llm.Request
}

func (s *scriptedClient) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return llm.Response{}, s.err
	}
	if len(s.requests) > len(s.responses) {
		return llm.Response{}, errors.New("no scripted response")
	}
	return s.responses[len(s.requests)-1], nil
}

const finalJSON = "```json\n{\"internalConfirmationMessage\":\"Processing your request.\",\"simulatedDateTime\":\"next Tuesday at 9:00 AM\",\"emailSubject\":\"Your HealthAssist Appointment Confirmation\",\"emailBody\":\"<p>See you</p>\"}\n```"

func emailCall(id, to string) llm.ToolCall {
	args, _ := json.Marshal(notify.EmailToolInput{To: to, Subject: "Your HealthAssist Appointment Confirmation", Body: "<p>See you</p>"})
	return llm.ToolCall{ID: id, Name: notify.EmailToolName, Arguments: args}
}

func newTestInvoker(client llm.Client) *LLMInvoker {
	tool := notify.NewEmailTool(nil, notify.EmailToolConfig{}, logging.Discard())
	return NewLLMInvoker(client, tool, InvokerConfig{}, logging.Discard())
}

func TestLLMInvoker_ToolLoop(t *testing.T) {
	client := &scriptedClient{responses: []llm.Response{
		{ToolCalls: []llm.ToolCall{emailCall("call-1", "alice@example.com")}},
		{Text: finalJSON},
	}}

	res, err := newTestInvoker(client).Invoke(context.Background(), Request{
		UserEmail:     "alice@example.com",
		Symptoms:      "Fever",
		PreferredDate: "next Tuesday morning",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Output)
	assert.Equal(t, "next Tuesday at 9:00 AM", res.Output.DateTime())

	require.Len(t, res.Trace, 1)
	inv := res.Trace[0]
	assert.Equal(t, notify.EmailToolName, inv.Name)
	assert.Equal(t, "alice@example.com", inv.Request.To)
	require.NotNil(t, inv.Response)
	require.NoError(t, inv.Response.ParseErr)
	assert.Equal(t, notify.EmailSent, inv.Response.Result.Status)

	require.Len(t, client.requests, 2)
	second := client.requests[1]
	require.Len(t, second.Messages, 3)
	assert.Equal(t, llm.RoleTool, second.Messages[2].Role)
	assert.Equal(t, "call-1", second.Messages[2].ToolCallID)
	assert.Contains(t, client.requests[0].Messages[0].Content, "next Tuesday morning")
	require.Len(t, client.requests[0].Tools, 1)
	assert.Equal(t, notify.EmailToolName, client.requests[0].Tools[0].Name)
}

func TestLLMInvoker_NoToolCall(t *testing.T) {
	client := &scriptedClient{responses: []llm.Response{{Text: finalJSON}}}

	res, err := newTestInvoker(client).Invoke(context.Background(), Request{UserEmail: "bob@x.com", Symptoms: "Cough"})
	require.NoError(t, err)
	require.NotNil(t, res.Output)
	assert.Empty(t, res.Trace)
}

func TestLLMInvoker_JSONAlongsideToolCall(t *testing.T) {
	client := &scriptedClient{responses: []llm.Response{
		{Text: finalJSON, ToolCalls: []llm.ToolCall{emailCall("call-1", "bob@x.com")}},
		{Text: "Done, the email went out."},
	}}

	res, err := newTestInvoker(client).Invoke(context.Background(), Request{UserEmail: "bob@x.com", Symptoms: "Cough"})
	require.NoError(t, err)
	require.NotNil(t, res.Output)
	assert.Equal(t, "Processing your request.", res.Output.InternalConfirmationMessage)
	assert.Len(t, res.Trace, 1)
}

func TestLLMInvoker_BadToolArguments(t *testing.T) {
	client := &scriptedClient{responses: []llm.Response{
		{ToolCalls: []llm.ToolCall{{ID: "c", Name: notify.EmailToolName, Arguments: json.RawMessage(`{"to":`)}}},
		{Text: finalJSON},
	}}

	res, err := newTestInvoker(client).Invoke(context.Background(), Request{UserEmail: "bob@x.com"})
	require.NoError(t, err)
	require.Len(t, res.Trace, 1)
	require.NotNil(t, res.Trace[0].Response)
	assert.Error(t, res.Trace[0].Response.ParseErr)
}

func TestLLMInvoker_LoopExhausted(t *testing.T) {
	call := llm.Response{ToolCalls: []llm.ToolCall{emailCall("c", "bob@x.com")}}
	client := &scriptedClient{responses: []llm.Response{call, call, call}}

	res, err := newTestInvoker(client).Invoke(context.Background(), Request{UserEmail: "bob@x.com"})
	assert.ErrorIs(t, err, ErrNoOutput)
	assert.Len(t, res.Trace, 3)
	assert.Len(t, client.requests, 3)
}

func TestLLMInvoker_Errors(t *testing.T) {
	_, err := newTestInvoker(&scriptedClient{err: errors.New("throttled")}).Invoke(context.Background(), Request{})
	assert.Error(t, err)

	_, err = newTestInvoker(&scriptedClient{responses: []llm.Response{{Text: "I booked it!"}}}).Invoke(context.Background(), Request{})
	assert.ErrorIs(t, err, llm.ErrInvalidOutput)
}
