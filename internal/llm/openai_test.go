package llm

import (
	"context"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

type stubChatClient struct {
	request  openai.ChatCompletionRequest
	response openai.ChatCompletionResponse
	err      error
}

func (s *stubChatClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.request = req
	return s.response, s.err
}

func TestOpenAIClient_MapsToolCalls(t *testing.T) {
	stub := &stubChatClient{response: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			FinishReason: openai.FinishReasonToolCalls,
			Message: openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{{
					ID:       "call_1",
					Type:     openai.ToolTypeFunction,
					Function: openai.FunctionCall{Name: "sendEmailTool", Arguments: `{"to":"a@example.com"}`},
				}},
			},
		}},
		Usage: openai.Usage{PromptTokens: 5, CompletionTokens: 2, TotalTokens: 7},
	}}

	client := NewOpenAIClientWithAPI(stub, "")
	resp, err := client.Complete(context.Background(), Request{
		System:   []string{"system prompt"},
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
		Tools:    []ToolSpec{{Name: "sendEmailTool", Parameters: map[string]any{"type": "object"}}},
	})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if stub.request.Model != "gpt-4o-mini" {
		t.Fatalf("expected default model, got %s", stub.request.Model)
	}
	if len(stub.request.Messages) != 2 || stub.request.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Fatalf("expected system + user messages, got %#v", stub.request.Messages)
	}
	if len(stub.request.Tools) != 1 {
		t.Fatalf("expected tool to be declared")
	}
	var def openai.FunctionDefinition = stub.request.Tools[0].Function
	if def.Name != "sendEmailTool" || def.Parameters == nil {
		t.Fatalf("unexpected function definition %#v", def)
	}
	if len(resp.ToolCalls) != 1 || string(resp.ToolCalls[0].Arguments) != `{"to":"a@example.com"}` {
		t.Fatalf("unexpected tool calls %#v", resp.ToolCalls)
	}
	if resp.Usage.TotalTokens != 7 {
		t.Fatalf("expected usage 7, got %d", resp.Usage.TotalTokens)
	}
}

func TestOpenAIClient_EmptyChoices(t *testing.T) {
	client := NewOpenAIClientWithAPI(&stubChatClient{}, "gpt-test")
	if _, err := client.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}}); err != ErrEmptyResponse {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}
