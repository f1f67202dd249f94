package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const ProviderGemini = "gemini"

// GeminiClient implements Client using Google's Gemini API.
type GeminiClient struct {
	client  *genai.Client
	modelID string
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, apiKey, modelID string) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("llm: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("llm: failed to create gemini client: %w", err)
	}
	return &GeminiClient{client: client, modelID: modelID}, nil
}

// Complete sends a completion request to Gemini and returns the response.
func (c *GeminiClient) Complete(ctx context.Context, req Request) (Response, error) {
	if len(req.Messages) == 0 {
		return Response{}, errors.New("llm: gemini requires at least one message")
	}

	modelID := c.modelID
	if strings.TrimSpace(req.Model) != "" {
		modelID = req.Model
	}
	model := c.client.GenerativeModel(modelID)

	if req.Temperature >= 0 {
		model.SetTemperature(req.Temperature)
	}
	if req.TopP > 0 {
		model.SetTopP(req.TopP)
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(req.MaxTokens)
	}

	system := append([]string(nil), req.System...)
	for _, msg := range req.Messages {
		if msg.Role == RoleSystem && strings.TrimSpace(msg.Content) != "" {
			system = append(system, msg.Content)
		}
	}
	if systemText := strings.TrimSpace(strings.Join(system, "\n\n")); systemText != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(systemText))
	}
	if len(req.Tools) > 0 {
		model.Tools = []*genai.Tool{{FunctionDeclarations: geminiDeclarations(req.Tools)}}
	} else if req.JSONOutput {
		model.ResponseMIMEType = "application/json"
	}

	history, last := geminiContents(req.Messages)
	if len(last) == 0 {
		return Response{}, errors.New("llm: gemini final message was empty")
	}

	cs := model.StartChat()
	cs.History = history
	resp, err := cs.SendMessage(ctx, last...)
	if err != nil {
		return Response{}, fmt.Errorf("llm: gemini completion failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return Response{}, errors.New("llm: gemini returned no candidates")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return Response{}, ErrEmptyResponse
	}

	result := Response{Provider: ProviderGemini, StopReason: candidate.FinishReason.String()}
	var text strings.Builder
	for i, part := range candidate.Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			text.WriteString(string(p))
		case genai.FunctionCall:
			// Gemini does not issue call ids; tool results are matched back by name.
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				ID:        fmt.Sprintf("%s-%d", p.Name, i),
				Name:      p.Name,
				Arguments: mapToArgs(p.Args),
			})
		}
	}
	result.Text = strings.TrimSpace(text.String())

	if resp.UsageMetadata != nil {
		result.Usage = TokenUsage{
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  resp.UsageMetadata.TotalTokenCount,
		}
	}
	return result, nil
}

// Close releases resources held by the Gemini client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// geminiContents splits messages into chat history and the parts of the final
// turn. A trailing run of tool results is sent together as function responses.
func geminiContents(messages []Message) ([]*genai.Content, []genai.Part) {
	var turns []*genai.Content
	for _, msg := range messages {
		var content *genai.Content
		switch msg.Role {
		case RoleSystem:
			continue
		case RoleUser:
			if strings.TrimSpace(msg.Content) == "" {
				continue
			}
			content = &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(msg.Content)}}
		case RoleAssistant:
			content = &genai.Content{Role: "model"}
			if strings.TrimSpace(msg.Content) != "" {
				content.Parts = append(content.Parts, genai.Text(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				content.Parts = append(content.Parts, genai.FunctionCall{Name: call.Name, Args: argsToMap(call.Arguments)})
			}
			if len(content.Parts) == 0 {
				continue
			}
		case RoleTool:
			part := genai.FunctionResponse{Name: msg.ToolName, Response: toolResultMap(msg.Content)}
			if n := len(turns); n > 0 && isFunctionResponseTurn(turns[n-1]) {
				turns[n-1].Parts = append(turns[n-1].Parts, part)
				continue
			}
			content = &genai.Content{Role: "user", Parts: []genai.Part{part}}
		default:
			continue
		}
		turns = append(turns, content)
	}

	if len(turns) == 0 {
		return nil, nil
	}
	last := turns[len(turns)-1]
	return turns[:len(turns)-1], last.Parts
}

func isFunctionResponseTurn(c *genai.Content) bool {
	if c.Role != "user" || len(c.Parts) == 0 {
		return false
	}
	for _, part := range c.Parts {
		if _, ok := part.(genai.FunctionResponse); !ok {
			return false
		}
	}
	return true
}

func geminiDeclarations(specs []ToolSpec) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, spec := range specs {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  geminiSchema(spec.Parameters),
		})
	}
	return decls
}

// geminiSchema converts a JSON schema map into the genai schema subset.
func geminiSchema(raw map[string]any) *genai.Schema {
	if raw == nil {
		return nil
	}
	schema := &genai.Schema{}
	switch raw["type"] {
	case "object":
		schema.Type = genai.TypeObject
	case "array":
		schema.Type = genai.TypeArray
	case "integer":
		schema.Type = genai.TypeInteger
	case "number":
		schema.Type = genai.TypeNumber
	case "boolean":
		schema.Type = genai.TypeBoolean
	default:
		schema.Type = genai.TypeString
	}
	if desc, ok := raw["description"].(string); ok {
		schema.Description = desc
	}
	if props, ok := raw["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema, len(props))
		for name, prop := range props {
			if m, ok := prop.(map[string]any); ok {
				schema.Properties[name] = geminiSchema(m)
			}
		}
	}
	if items, ok := raw["items"].(map[string]any); ok {
		schema.Items = geminiSchema(items)
	}
	schema.Required = stringList(raw["required"])
	schema.Enum = stringList(raw["enum"])
	return schema
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
